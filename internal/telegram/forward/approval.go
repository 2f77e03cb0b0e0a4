package forward

import (
	"context"
	"fmt"

	"relay_bot/internal/logger"
	"relay_bot/internal/telegram/models"
)

// Approve 放行审核单并立即投递
// 投递成功后才标记 approved；任务已停用或删除时审核单保持 pending
func (c *Coordinator) Approve(ctx context.Context, approvalID string) (string, error) {
	approval, err := c.approvals.Get(ctx, approvalID)
	if err != nil {
		return "", fmt.Errorf("failed to load approval: %w", err)
	}
	if approval.Status != models.ApprovalStatusPending {
		return "", fmt.Errorf("approval %s already resolved as %s", approvalID, approval.Status)
	}

	task, err := c.taskByID(ctx, approval)
	if err != nil {
		return "", err
	}

	forwarding, err := c.provider.ForwardingSettings(ctx, task.TaskID)
	if err != nil {
		return "", err
	}

	// 过滤在入队前已通过，放行时不再重查
	msg := &models.InboundMessage{
		SourceChatID: approval.SourceChatID,
		MessageID:    approval.MessageID,
		Text:         approval.Text,
		FileName:     approval.FileName,
		HasMedia:     approval.FileName != "",
	}
	mode, err := c.dispatch(ctx, task, msg, models.FilterDecision{}, forwarding)
	if err != nil {
		return "", err
	}

	if err := c.approvals.Resolve(ctx, approvalID, models.ApprovalStatusApproved); err != nil {
		logger.L().Errorf("Message sent but failed to mark approval %s: %v", approvalID, err)
	}
	logger.L().Infof("Approval %s published via %s (task %s)", approvalID, mode, task.DisplayName())
	return mode, nil
}

// Reject 拒绝审核单，消息不投递
func (c *Coordinator) Reject(ctx context.Context, approvalID string) error {
	if err := c.approvals.Resolve(ctx, approvalID, models.ApprovalStatusRejected); err != nil {
		return fmt.Errorf("failed to reject approval: %w", err)
	}
	logger.L().Infof("Approval %s rejected", approvalID)
	return nil
}

// taskByID 从用户在该来源的启用任务中定位审核单所属任务
func (c *Coordinator) taskByID(ctx context.Context, approval *models.PendingApproval) (*models.Task, error) {
	tasks, err := c.provider.ActiveTasksForSource(ctx, approval.SourceChatID, approval.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	for _, task := range tasks {
		if task.TaskID == approval.TaskID {
			return task, nil
		}
	}
	return nil, fmt.Errorf("task %s is no longer active", approval.TaskID)
}
