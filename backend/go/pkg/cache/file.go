package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// fileRecord 是文件缓存中每个条目的磁盘格式。
type fileRecord struct {
	Key       string    `json:"key"`
	Timestamp time.Time `json:"timestamp"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
	Data      []byte    `json:"data"`
}

// FileCache 把每个条目保存为目录下的一个 JSON 文件，进程重启后仍然可用。
type FileCache struct {
	dir string
	ttl time.Duration
	now func() time.Time
}

// NewFileCache 创建文件缓存，目录不存在时自动创建。
func NewFileCache(dir string, ttl time.Duration) (*FileCache, error) {
	if dir == "" {
		return nil, errors.New("file cache requires a directory")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("创建缓存目录失败: %w", err)
	}
	return &FileCache{dir: dir, ttl: ttl, now: time.Now}, nil
}

func (c *FileCache) path(key string) string {
	sum := sha256.Sum256([]byte(key))
	return filepath.Join(c.dir, hex.EncodeToString(sum[:])+".json")
}

func (c *FileCache) read(key string) (*fileRecord, error) {
	raw, err := os.ReadFile(c.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var rec fileRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		// 损坏的条目按未命中处理
		return nil, nil
	}
	if rec.Key != key {
		return nil, nil
	}
	return &rec, nil
}

func (c *FileCache) fresh(rec *fileRecord) bool {
	return rec.ExpiresAt.IsZero() || !c.now().After(rec.ExpiresAt)
}

// Get 返回未过期的条目。
func (c *FileCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	rec, err := c.read(key)
	if err != nil || rec == nil || !c.fresh(rec) {
		return nil, false, err
	}
	return rec.Data, true, nil
}

// GetStale 返回条目，无论是否过期。
func (c *FileCache) GetStale(_ context.Context, key string) ([]byte, bool, error) {
	rec, err := c.read(key)
	if err != nil || rec == nil {
		return nil, false, err
	}
	return rec.Data, true, nil
}

// Set 写入条目。先写临时文件再重命名，读者不会看到写了一半的文件。
func (c *FileCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = c.ttl
	}
	now := c.now()
	rec := fileRecord{Key: key, Timestamp: now, Data: value}
	if ttl > 0 {
		rec.ExpiresAt = now.Add(ttl)
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(c.dir, "entry-*.tmp")
	if err != nil {
		return fmt.Errorf("写入缓存失败: %w", err)
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("写入缓存失败: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), c.path(key))
}

// Has 报告是否存在未过期的条目。
func (c *FileCache) Has(ctx context.Context, key string) (bool, error) {
	_, ok, err := c.Get(ctx, key)
	return ok, err
}

// Evict 删除指定条目。
func (c *FileCache) Evict(_ context.Context, key string) error {
	err := os.Remove(c.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// Clear 删除目录下所有缓存文件。
func (c *FileCache) Clear(_ context.Context) error {
	matches, err := filepath.Glob(filepath.Join(c.dir, "*.json"))
	if err != nil {
		return err
	}
	var errs []error
	for _, m := range matches {
		if err := os.Remove(m); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
