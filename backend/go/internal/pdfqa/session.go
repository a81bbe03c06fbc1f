package pdfqa

import (
	"MultiAI_Assistant/backend/go/pkg/cache"
	"context"
	"encoding/json"
	"fmt"
	"time"
)

const sessionKeyPrefix = "pdfqa:session:"

// Session 记录一次成功上传。
type Session struct {
	ID           string    `json:"id"`
	DocumentName string    `json:"document_name"`
	Pages        int       `json:"pages"`
	Generated    bool      `json:"generated"` // 会话 ID 是否为本地生成
	ArchiveKey   string    `json:"archive_key,omitempty"`
	UploadedAt   time.Time `json:"uploaded_at"`
}

// SessionStore 把会话保存在缓存中，过期后自动失效。
type SessionStore struct {
	cache cache.Cache
	ttl   time.Duration
}

// NewSessionStore 创建会话存储。ttl 为 0 时使用缓存的默认 TTL。
func NewSessionStore(c cache.Cache, ttl time.Duration) *SessionStore {
	return &SessionStore{cache: c, ttl: ttl}
}

// Remember 保存会话。
func (s *SessionStore) Remember(ctx context.Context, sess Session) error {
	if sess.ID == "" {
		return ErrSessionRequired
	}
	raw, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	return s.cache.Set(ctx, sessionKeyPrefix+sess.ID, raw, s.ttl)
}

// Lookup 查找会话。
func (s *SessionStore) Lookup(ctx context.Context, id string) (Session, bool, error) {
	raw, ok, err := s.cache.Get(ctx, sessionKeyPrefix+id)
	if err != nil || !ok {
		return Session{}, false, err
	}
	var sess Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return Session{}, false, fmt.Errorf("decode session %s: %w", id, err)
	}
	return sess, true, nil
}

// Forget 删除会话。
func (s *SessionStore) Forget(ctx context.Context, id string) error {
	return s.cache.Evict(ctx, sessionKeyPrefix+id)
}
