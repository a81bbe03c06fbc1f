package cache

import (
	"context"
	"encoding/json"
	"time"
)

// Source 说明 Fetch 的结果来自哪里。
type Source int

const (
	// SourceFetched 表示刚刚从数据源获取。
	SourceFetched Source = iota
	// SourceCached 表示命中了未过期的缓存。
	SourceCached
	// SourceStale 表示数据源失败，返回了过期的缓存。
	SourceStale
	// SourceDefault 表示数据源失败且没有缓存，返回了默认值。
	SourceDefault
)

func (s Source) String() string {
	switch s {
	case SourceFetched:
		return "fetched"
	case SourceCached:
		return "cached"
	case SourceStale:
		return "stale"
	case SourceDefault:
		return "default"
	default:
		return "unknown"
	}
}

// Fetch 先查缓存，未命中时调用 fetch 并写回缓存。fetch 失败时依次尝试过期缓存
// （仅当 c 实现 StaleReader）和 fallback；都没有时返回 fetch 的错误。
// 缓存本身的读写错误不会让 Fetch 失败。
func Fetch[T any](
	ctx context.Context,
	c Cache,
	key string,
	ttl time.Duration,
	fetch func(context.Context) (T, error),
	fallback func() (T, bool),
) (T, Source, error) {
	var zero T

	if raw, ok, err := c.Get(ctx, key); err == nil && ok {
		var v T
		if json.Unmarshal(raw, &v) == nil {
			return v, SourceCached, nil
		}
	}

	v, fetchErr := fetch(ctx)
	if fetchErr == nil {
		if raw, err := json.Marshal(v); err == nil {
			_ = c.Set(ctx, key, raw, ttl)
		}
		return v, SourceFetched, nil
	}

	if ctx.Err() == nil {
		if sr, ok := c.(StaleReader); ok {
			if raw, ok, err := sr.GetStale(ctx, key); err == nil && ok {
				var stale T
				if json.Unmarshal(raw, &stale) == nil {
					return stale, SourceStale, nil
				}
			}
		}
	}

	if fallback != nil {
		if d, ok := fallback(); ok {
			return d, SourceDefault, nil
		}
	}
	return zero, SourceFetched, fetchErr
}
