package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PendingApproval 手动发布模式下等待审核的转发单元
// 引用原始消息与任务，由审核端决定放行或拒绝；过期清理由 TTL 索引完成
type PendingApproval struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	ApprovalID   string             `bson:"approval_id"` // 审核单ID (UUID)
	TaskID       string             `bson:"task_id"`
	UserID       int64              `bson:"user_id"`
	SourceChatID int64              `bson:"source_chat_id"`
	MessageID    int                `bson:"message_id"`
	Text         string             `bson:"text"`      // 原始文本快照
	FileName     string             `bson:"file_name"` // 媒体文件名（如有）
	Status       string             `bson:"status"`    // pending/approved/rejected
	CreatedAt    time.Time          `bson:"created_at"` // TTL 索引字段
}

const (
	ApprovalStatusPending  = "pending"
	ApprovalStatusApproved = "approved"
	ApprovalStatusRejected = "rejected"
)
