package forward

import (
	"sync"
	"time"

	"relay_bot/internal/logger"
	"relay_bot/internal/telegram/models"
)

// albumBuffer 单个媒体组的缓冲区
type albumBuffer struct {
	messages []*models.InboundMessage
	timer    *time.Timer
	mutex    sync.Mutex
}

// AlbumCollector 媒体组收集器
// Telegram 相册逐条送达且没有结束标记，按组ID缓冲并在静默超时后
// 整组交给回调，保证相册作为一个事件处理（间隔、说明文字共享）
type AlbumCollector struct {
	buffers   map[string]*albumBuffer
	mutex     sync.RWMutex
	timeout   time.Duration
	onCollect func(messages []*models.InboundMessage)
}

// NewAlbumCollector 创建媒体组收集器
func NewAlbumCollector(timeout time.Duration, onCollect func([]*models.InboundMessage)) *AlbumCollector {
	return &AlbumCollector{
		buffers:   make(map[string]*albumBuffer),
		timeout:   timeout,
		onCollect: onCollect,
	}
}

// Add 添加相册消息到收集器，每条消息都会重置该组的静默定时器
func (c *AlbumCollector) Add(msg *models.InboundMessage) {
	albumID := msg.AlbumID

	c.mutex.Lock()
	buffer, exists := c.buffers[albumID]
	if !exists {
		buffer = &albumBuffer{}
		c.buffers[albumID] = buffer
		logger.L().Debugf("Created album buffer: album_id=%s", albumID)
	}
	c.mutex.Unlock()

	buffer.mutex.Lock()
	buffer.messages = append(buffer.messages, msg)
	logger.L().Debugf("Added message to album: album_id=%s, total=%d", albumID, len(buffer.messages))

	if buffer.timer != nil {
		buffer.timer.Stop()
	}
	buffer.timer = time.AfterFunc(c.timeout, func() {
		c.collect(albumID)
	})
	buffer.mutex.Unlock()
}

// collect 取出整组并交给回调
func (c *AlbumCollector) collect(albumID string) {
	c.mutex.Lock()
	buffer, exists := c.buffers[albumID]
	if !exists {
		c.mutex.Unlock()
		return
	}
	delete(c.buffers, albumID)
	c.mutex.Unlock()

	buffer.mutex.Lock()
	messages := buffer.messages
	buffer.mutex.Unlock()

	if len(messages) > 0 {
		logger.L().Infof("Album collected: album_id=%s, message_count=%d", albumID, len(messages))
		c.onCollect(messages)
	}
}
