package cache

import (
	"container/list"
	"context"
	"fmt"
	"sync"
	"time"
)

// entry 结构体用于存储链表节点中的实际数据。
type entry struct {
	key        string
	value      []byte
	expiration time.Time // 元素的过期时间，零值表示永不过期
}

// MemoryCache 是一个线程安全的 LRU 缓存。
// 过期的条目不会立即删除：Get 视其为未命中，GetStale 仍然可以读到，直到被容量淘汰。
type MemoryCache struct {
	capacity int
	ttl      time.Duration
	ll       *list.List
	items    map[string]*list.Element
	lock     sync.Mutex
	now      func() time.Time
}

// NewMemoryCache 创建一个最多保存 capacity 个条目的 LRU 缓存。
func NewMemoryCache(capacity int, ttl time.Duration) (*MemoryCache, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("capacity 必须大于 0")
	}
	return &MemoryCache{
		capacity: capacity,
		ttl:      ttl,
		ll:       list.New(),
		items:    make(map[string]*list.Element),
		now:      time.Now,
	}, nil
}

// Get 方法根据键获取一个未过期的值。
func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.lock.Lock()
	defer c.lock.Unlock()

	element, ok := c.items[key]
	if !ok {
		return nil, false, nil
	}
	e := element.Value.(*entry)
	if c.expired(e) {
		return nil, false, nil
	}
	// 标记为最近使用
	c.ll.MoveToFront(element)
	return e.value, true, nil
}

// GetStale 返回条目，无论是否过期。
func (c *MemoryCache) GetStale(_ context.Context, key string) ([]byte, bool, error) {
	c.lock.Lock()
	defer c.lock.Unlock()

	element, ok := c.items[key]
	if !ok {
		return nil, false, nil
	}
	return element.Value.(*entry).value, true, nil
}

// Set 方法向缓存中添加或更新一个键值对。
func (c *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.lock.Lock()
	defer c.lock.Unlock()

	if ttl <= 0 {
		ttl = c.ttl
	}
	var expiration time.Time
	if ttl > 0 {
		expiration = c.now().Add(ttl)
	}
	value = append([]byte(nil), value...)

	if element, ok := c.items[key]; ok {
		e := element.Value.(*entry)
		e.value = value
		e.expiration = expiration
		c.ll.MoveToFront(element)
		return nil
	}

	c.items[key] = c.ll.PushFront(&entry{key: key, value: value, expiration: expiration})
	for c.ll.Len() > c.capacity {
		c.removeElement(c.ll.Back())
	}
	return nil
}

// Has 报告是否存在未过期的条目，不影响 LRU 顺序。
func (c *MemoryCache) Has(_ context.Context, key string) (bool, error) {
	c.lock.Lock()
	defer c.lock.Unlock()

	element, ok := c.items[key]
	return ok && !c.expired(element.Value.(*entry)), nil
}

// Evict 删除指定条目。
func (c *MemoryCache) Evict(_ context.Context, key string) error {
	c.lock.Lock()
	defer c.lock.Unlock()

	if element, ok := c.items[key]; ok {
		c.removeElement(element)
	}
	return nil
}

// Clear 清空缓存。
func (c *MemoryCache) Clear(_ context.Context) error {
	c.lock.Lock()
	defer c.lock.Unlock()

	c.ll.Init()
	c.items = make(map[string]*list.Element)
	return nil
}

// Len 返回当前缓存中的条目数量（包含已过期但尚未淘汰的条目）。
func (c *MemoryCache) Len() int {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.ll.Len()
}

// expired 假设已持有锁。
func (c *MemoryCache) expired(e *entry) bool {
	return !e.expiration.IsZero() && c.now().After(e.expiration)
}

// removeElement 假设已持有锁。
func (c *MemoryCache) removeElement(e *list.Element) {
	c.ll.Remove(e)
	delete(c.items, e.Value.(*entry).key)
}
