package repository

import (
	"context"

	"relay_bot/internal/telegram/models"
)

// SettingsProvider 任务与设置的只读访问接口
// 核心管线只读不写；设置在此边界校验并补默认值，管线深处不再复检
type SettingsProvider interface {
	// ActiveTasksForSource 查询某用户源会话匹配的全部启用任务
	ActiveTasksForSource(ctx context.Context, sourceChatID int64, userID int64) ([]*models.Task, error)

	// ActiveUserIDsForSource 查询源会话上配置了启用任务的用户列表
	ActiveUserIDsForSource(ctx context.Context, sourceChatID int64) ([]int64, error)

	// ForwardingSettings 任务传输选项快照
	ForwardingSettings(ctx context.Context, taskID string) (*models.ForwardingSettings, error)

	// MessageSettings 任务内容选项快照
	MessageSettings(ctx context.Context, taskID string) (*models.MessageSettings, error)

	// TextCleaningSettings 文本清理规则
	TextCleaningSettings(ctx context.Context, taskID string) (*models.TextCleaningSettings, error)

	// ReplacementRules 文本替换规则（按序）
	ReplacementRules(ctx context.Context, taskID string) ([]models.ReplacementRule, error)

	// FilterSettings 内容过滤规则
	FilterSettings(ctx context.Context, taskID string) (*models.FilterSettings, error)

	// WatermarkSettings 水印配置
	WatermarkSettings(ctx context.Context, taskID string) (*models.WatermarkSettings, error)
}

// TaskRepository 任务数据访问接口（任务管理端使用写入方法，核心只用读取部分）
type TaskRepository interface {
	SettingsProvider

	// CreateTask 创建任务
	CreateTask(ctx context.Context, task *models.Task) error

	// SetActive 启用/停用任务
	SetActive(ctx context.Context, taskID string, active bool) error

	// SaveSettings 整体写入任务设置文档
	SaveSettings(ctx context.Context, taskID string, settings *TaskSettings) error

	// EnsureIndexes 确保索引存在
	EnsureIndexes(ctx context.Context) error
}

// ApprovalQueue 手动审核队列接口
type ApprovalQueue interface {
	// Enqueue 入队待审核单元，返回审核单ID
	Enqueue(ctx context.Context, approval *models.PendingApproval) (string, error)

	// Get 根据审核单ID取回
	Get(ctx context.Context, approvalID string) (*models.PendingApproval, error)

	// ListPending 列出某用户待审核单元
	ListPending(ctx context.Context, userID int64) ([]*models.PendingApproval, error)

	// Resolve 标记审核结果（approved/rejected）
	Resolve(ctx context.Context, approvalID string, status string) error

	// EnsureIndexes 确保索引存在
	EnsureIndexes(ctx context.Context) error
}
