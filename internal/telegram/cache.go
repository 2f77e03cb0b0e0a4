package telegram

import (
	"sync"
	"time"
)

type routingCacheEntry struct {
	userIDs []int64
	expires time.Time
}

// routingCache 源会话 → 用户列表的短 TTL 缓存
// 每条入站消息都要做一次路由查询，高频来源下避免反复打到数据库
type routingCache struct {
	mu     sync.RWMutex
	ttl    time.Duration
	values map[int64]routingCacheEntry
}

func newRoutingCache(ttl time.Duration) *routingCache {
	if ttl <= 0 {
		return nil
	}
	return &routingCache{
		ttl:    ttl,
		values: make(map[int64]routingCacheEntry),
	}
}

func (c *routingCache) Get(sourceChatID int64) ([]int64, bool) {
	if c == nil {
		return nil, false
	}

	c.mu.RLock()
	entry, ok := c.values[sourceChatID]
	c.mu.RUnlock()

	if !ok {
		return nil, false
	}

	if time.Now().After(entry.expires) {
		c.mu.Lock()
		delete(c.values, sourceChatID)
		c.mu.Unlock()
		return nil, false
	}

	return entry.userIDs, true
}

func (c *routingCache) Set(sourceChatID int64, userIDs []int64) {
	if c == nil {
		return
	}

	c.mu.Lock()
	c.values[sourceChatID] = routingCacheEntry{
		userIDs: userIDs,
		expires: time.Now().Add(c.ttl),
	}
	c.mu.Unlock()
}

// Invalidate 任务变更后移除来源缓存
func (c *routingCache) Invalidate(sourceChatID int64) {
	if c == nil {
		return
	}

	c.mu.Lock()
	delete(c.values, sourceChatID)
	c.mu.Unlock()
}
