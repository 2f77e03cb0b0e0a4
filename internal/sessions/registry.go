package sessions

import (
	"context"
	"sync"

	"relay_bot/internal/logger"
	"relay_bot/internal/telegram/models"
)

// Handler 会话内消息处理函数
type Handler func(ctx context.Context, userID int64, msg *models.InboundMessage)

// Session 单用户会话
// 每个用户一个串行处理协程：同一用户的消息按到达顺序处理，
// 不同用户互不阻塞；单条消息的 panic 只影响该条
type Session struct {
	userID int64
	queue  chan *models.InboundMessage
	done   chan struct{}
}

// Registry 用户会话注册表
type Registry struct {
	mu        sync.RWMutex
	sessions  map[int64]*Session
	handler   Handler
	queueSize int
}

// NewRegistry 创建会话注册表
// queueSize: 每个会话的待处理队列大小
func NewRegistry(handler Handler, queueSize int) *Registry {
	return &Registry{
		sessions:  make(map[int64]*Session),
		handler:   handler,
		queueSize: queueSize,
	}
}

// Add 注册用户会话并启动处理协程；已存在时复用原会话
func (r *Registry) Add(userID int64) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.addLocked(userID)
}

// addLocked 需要持有 r.mu
func (r *Registry) addLocked(userID int64) *Session {
	if session, exists := r.sessions[userID]; exists {
		return session
	}

	session := &Session{
		userID: userID,
		queue:  make(chan *models.InboundMessage, r.queueSize),
		done:   make(chan struct{}),
	}
	r.sessions[userID] = session

	go r.run(session)
	logger.L().Infof("Session started for user %d", userID)
	return session
}

// Remove 注销用户会话，停止接收新消息；在途消息处理完后协程退出
// 队列在锁内关闭，与 Dispatch 的入队互斥，不存在向已关闭队列发送的窗口
func (r *Registry) Remove(userID int64) {
	r.mu.Lock()
	session, exists := r.sessions[userID]
	if exists {
		delete(r.sessions, userID)
		close(session.queue)
	}
	r.mu.Unlock()

	if exists {
		logger.L().Infof("Session removed for user %d", userID)
	}
}

// Get 查询用户会话
func (r *Registry) Get(userID int64) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	session, ok := r.sessions[userID]
	return session, ok
}

// Len 当前活跃会话数
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Dispatch 把消息投入用户会话队列，队列满时丢弃并告警
// 入队发生在锁内：Remove/Shutdown 也在锁内关闭队列，二者不会交错
func (r *Registry) Dispatch(userID int64, msg *models.InboundMessage) {
	r.mu.Lock()
	session := r.addLocked(userID)

	select {
	case session.queue <- msg:
		r.mu.Unlock()
	default:
		r.mu.Unlock()
		logger.L().Warnf("Session queue full for user %d, message %d dropped", userID, msg.MessageID)
	}
}

// Shutdown 注销全部会话并等待在途消息处理完成
func (r *Registry) Shutdown() {
	r.mu.Lock()
	sessions := make([]*Session, 0, len(r.sessions))
	for _, session := range r.sessions {
		sessions = append(sessions, session)
		close(session.queue)
	}
	r.sessions = make(map[int64]*Session)
	r.mu.Unlock()

	for _, session := range sessions {
		<-session.done
	}
	logger.L().Info("All sessions shut down")
}

// run 会话串行处理循环
func (r *Registry) run(session *Session) {
	defer close(session.done)

	for msg := range session.queue {
		func() {
			defer func() {
				if rec := recover(); rec != nil {
					logger.L().Errorf("Session %d: handler panic recovered: %v", session.userID, rec)
				}
			}()
			r.handler(context.Background(), session.userID, msg)
		}()
	}

	logger.L().Debugf("Session loop stopped for user %d", session.userID)
}
