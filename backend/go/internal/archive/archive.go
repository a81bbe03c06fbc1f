// Package archive 保存用户上传的原始文档，便于之后排查后端的解析问题。
package archive

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/minio/minio-go/v7"
)

// Archive 保存一个会话的上传文档，返回对象的存储键。
type Archive interface {
	Store(ctx context.Context, sessionID, name string, content []byte) (string, error)
}

// Nop 是未启用对象存储时使用的空实现。
type Nop struct{}

// Store 什么也不做。
func (Nop) Store(context.Context, string, string, []byte) (string, error) { return "", nil }

// MinioArchive 把文档写入 MinIO 存储桶，键为 uploads/<session>/<文件名>。
type MinioArchive struct {
	client *minio.Client
	bucket string
}

// NewMinioArchive 创建归档，存储桶不存在时自动创建。
func NewMinioArchive(ctx context.Context, client *minio.Client, bucket string) (*MinioArchive, error) {
	if bucket == "" {
		return nil, fmt.Errorf("未配置 MinIO 存储桶")
	}
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("检查存储桶 %s 失败: %w", bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("创建存储桶 %s 失败: %w", bucket, err)
		}
	}
	return &MinioArchive{client: client, bucket: bucket}, nil
}

// Store 上传文档。
func (a *MinioArchive) Store(ctx context.Context, sessionID, name string, content []byte) (string, error) {
	key := ObjectKey(sessionID, name)
	_, err := a.client.PutObject(ctx, a.bucket, key, bytes.NewReader(content), int64(len(content)), minio.PutObjectOptions{
		ContentType: mimetype.Detect(content).String(),
	})
	if err != nil {
		return "", fmt.Errorf("上传文档到 MinIO 失败: %w", err)
	}
	return key, nil
}

// ObjectKey 构造对象键，去掉文件名中的目录部分，会话 ID 中的路径分隔符和 "."、".." 也会被替换，
// 保证键总在 uploads/<session>/ 之下。
func ObjectKey(sessionID, name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" || name == ".." {
		name = "document"
	}
	sessionID = strings.ReplaceAll(strings.ReplaceAll(sessionID, "\\", "_"), "/", "_")
	if sessionID == "" || sessionID == "." || sessionID == ".." {
		sessionID = "unknown"
	}
	return path.Join("uploads", sessionID, name)
}

var (
	_ Archive = Nop{}
	_ Archive = (*MinioArchive)(nil)
)
