package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"

	"relay_bot/internal/logger"

	"golang.org/x/sync/singleflight"
)

const (
	maxEntries = 50
	evictCount = 10
)

// Cache 已处理媒体的有界缓存
// 同一入站媒体扇出到 N 个目标时只做一次处理；同 key 并发未命中由
// singleflight 合并为一次处理；超过 50 条时按插入顺序淘汰最早的 10 条
type Cache struct {
	mu      sync.Mutex
	entries map[string][]byte
	order   []string
	group   singleflight.Group
}

// New 创建媒体缓存
func New() *Cache {
	return &Cache{entries: make(map[string][]byte)}
}

// Key 缓存键：任务ID + 媒体内容哈希 + 文件名
func Key(taskID string, media []byte, fileName string) string {
	sum := sha256.Sum256(media)
	return fmt.Sprintf("%s_%s_%s", taskID, hex.EncodeToString(sum[:]), fileName)
}

// GetOrProcess 命中时直接返回缓存字节，未命中时执行 process 并缓存结果
// 处理结果即使与输入相同也会缓存，避免对同一媒体反复尝试无效处理
func (c *Cache) GetOrProcess(taskID string, media []byte, fileName string, process func() ([]byte, error)) ([]byte, error) {
	key := Key(taskID, media, fileName)

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		if cached, ok := c.lookup(key); ok {
			logger.L().Debugf("Media cache hit for task %s", taskID)
			return cached, nil
		}

		processed, err := process()
		if err != nil {
			return nil, err
		}
		c.store(key, processed)
		return processed, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// Len 当前缓存条目数
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Clear 清空缓存
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string][]byte)
	c.order = nil
}

func (c *Cache) lookup(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[key]
	return v, ok
}

func (c *Cache) store(key string, value []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists {
		c.order = append(c.order, key)
	}
	c.entries[key] = value

	if len(c.entries) > maxEntries {
		for _, oldest := range c.order[:evictCount] {
			delete(c.entries, oldest)
		}
		c.order = c.order[evictCount:]
		logger.L().Debugf("Media cache evicted %d oldest entries, %d remain", evictCount, len(c.entries))
	}
}
