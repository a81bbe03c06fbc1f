package pdfqa

import (
	"MultiAI_Assistant/backend/go/pkg/orchestrator"
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/ledongthuc/pdf"
)

// Document 是用户上传的一个文件。
type Document struct {
	Name    string
	Content []byte
}

// DocumentInfo 是发送前在本地检查得到的文档信息。
type DocumentInfo struct {
	ContentType string
	Pages       int
}

// UploadResult 是上传的结果。Result.SessionID 总是有值（成功时），
// 后端没有返回会话时为本地生成的 ID，此时 Result.GeneratedFallback 为 true。
type UploadResult struct {
	orchestrator.Result
	Info       DocumentInfo
	ArchiveKey string
}

// InspectPDF 检查内容确实是可以解析的 PDF，并返回页数。
func InspectPDF(content []byte) (info DocumentInfo, err error) {
	if len(content) == 0 {
		return info, ErrEmptyDocument
	}
	mt := mimetype.Detect(content)
	info.ContentType = mt.String()
	if !mt.Is("application/pdf") {
		return info, fmt.Errorf("%w: detected %s", ErrNotPDF, mt.String())
	}

	// 解析器在畸形输入上可能 panic
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrInvalidPDF, r)
		}
	}()
	reader, perr := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if perr != nil {
		return info, fmt.Errorf("%w: %v", ErrInvalidPDF, perr)
	}
	info.Pages = reader.NumPage()
	if info.Pages < 1 {
		return info, fmt.Errorf("%w: no pages", ErrInvalidPDF)
	}
	return info, nil
}

// UploadIntent 构造 upload-qa 的意图。文件以 "files" 为逻辑字段名。
func (c *Client) UploadIntent(doc Document) orchestrator.Intent {
	return orchestrator.Intent{
		Name: "upload-qa",
		URL:  c.baseURL + "/upload-qa",
		Files: []orchestrator.File{{
			Field:       "files",
			Name:        doc.Name,
			Content:     doc.Content,
			ContentType: "application/pdf",
		}},
		ExpectSession: true,
	}
}

// UploadStrategies 只有一种 multipart 策略，文件同时放在 files 和 file 两个字段下。
func UploadStrategies() []orchestrator.Strategy {
	return []orchestrator.Strategy{{
		Name:     "multipart",
		Encoding: orchestrator.Multipart,
		Aliases:  map[string][]string{"files": {"files", "file"}},
	}}
}

// UploadDocument 校验并上传文档。返回的 error 只表示本地校验失败（请求没有发出），
// 后端的失败体现在 UploadResult.Success 和 UploadResult.Err 中。
func (c *Client) UploadDocument(ctx context.Context, doc Document) (UploadResult, error) {
	info, err := InspectPDF(doc.Content)
	if err != nil {
		return UploadResult{Info: info}, err
	}
	if doc.Name == "" {
		doc.Name = "document.pdf"
	}

	res := c.orch.Execute(ctx, c.UploadIntent(doc), UploadStrategies(), &c.uploadPlan)
	out := UploadResult{Result: res, Info: info}
	if !res.Success {
		c.log.WithError(errorInfo(res)).Warn(fmt.Sprintf("upload of %s failed", doc.Name))
		return out, nil
	}

	key, err := c.archive.Store(ctx, res.SessionID, doc.Name, doc.Content)
	if err != nil {
		c.log.Warn(fmt.Sprintf("archiving %s failed: %v", doc.Name, err))
	}
	out.ArchiveKey = key

	if c.sessions != nil {
		s := Session{
			ID:           res.SessionID,
			DocumentName: doc.Name,
			Pages:        info.Pages,
			Generated:    res.GeneratedFallback,
			ArchiveKey:   key,
			UploadedAt:   time.Now().UTC(),
		}
		if err := c.sessions.Remember(ctx, s); err != nil {
			c.log.Warn(fmt.Sprintf("remembering session %s failed: %v", res.SessionID, err))
		}
	}
	return out, nil
}
