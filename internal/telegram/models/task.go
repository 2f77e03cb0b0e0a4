package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Task 转发任务：一条由用户配置的 源会话 → 目标会话 转发规则
type Task struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	TaskID       string             `bson:"task_id"`        // 任务ID (UUID)
	UserID       int64              `bson:"user_id"`        // 任务所属用户
	Name         string             `bson:"name"`           // 任务显示名称
	SourceChatID int64              `bson:"source_chat_id"` // 源会话ID
	TargetChatID string             `bson:"target_chat_id"` // 目标会话ID（数字ID或 @username）
	ForwardMode  string             `bson:"forward_mode"`   // forward/copy
	Active       bool               `bson:"active"`         // 是否启用
	CreatedAt    time.Time          `bson:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at"`
}

const (
	// ForwardModeForward 原生转发，保留"转发自"标记
	ForwardModeForward = "forward"
	// ForwardModeCopy 重建消息，允许修改内容
	ForwardModeCopy = "copy"
)

const (
	// PublishingModeAuto 自动发布
	PublishingModeAuto = "auto"
	// PublishingModeManual 手动审核后发布
	PublishingModeManual = "manual"
)

// DisplayName 返回任务显示名称，未命名时退回任务ID
func (t *Task) DisplayName() string {
	if t.Name != "" {
		return t.Name
	}
	return t.TaskID
}
