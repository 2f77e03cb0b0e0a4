package forward

import (
	"bytes"
	"context"
	"time"

	"relay_bot/internal/logger"
	"relay_bot/internal/media/cache"
	"relay_bot/internal/media/watermark"
	"relay_bot/internal/telegram/filter"
	"relay_bot/internal/telegram/models"
	"relay_bot/internal/telegram/pipeline"
	"relay_bot/internal/telegram/repository"
)

// 单任务处理状态
const (
	StatusSent    = "sent"
	StatusPending = "pending"
	StatusBlocked = "blocked"
	StatusFailed  = "failed"
)

// Result 单个任务的处理结果
type Result struct {
	TaskID     string
	TaskName   string
	Status     string
	Mode       string // 实际使用的发送方式（forward/copy）
	ApprovalID string // 手动发布时生成的审核单ID
	Err        error
}

// Coordinator 转发协调器
// 对每条入站消息展开该来源的全部启用任务，逐任务走
// 过滤 → 审核分流 → 媒体处理 → 文本变换 → 发送方式裁决 → 投递；
// 单任务失败只记录结果，不影响同一事件内的其余任务
type Coordinator struct {
	provider  repository.SettingsProvider
	approvals repository.ApprovalQueue
	filters   *filter.Engine
	pipeline  *pipeline.Pipeline
	media     *watermark.Engine
	cache     *cache.Cache
	transport Transport
	wait      func(ctx context.Context, d time.Duration) error
}

// NewCoordinator 创建转发协调器
func NewCoordinator(
	provider repository.SettingsProvider,
	approvals repository.ApprovalQueue,
	filters *filter.Engine,
	textPipeline *pipeline.Pipeline,
	media *watermark.Engine,
	mediaCache *cache.Cache,
	transport Transport,
) *Coordinator {
	return &Coordinator{
		provider:  provider,
		approvals: approvals,
		filters:   filters,
		pipeline:  textPipeline,
		media:     media,
		cache:     mediaCache,
		transport: transport,
		wait:      sleepContext,
	}
}

// HandleMessage 处理一条入站消息，返回逐任务结果（与任务顺序一致）
func (c *Coordinator) HandleMessage(ctx context.Context, msg *models.InboundMessage, userID int64) []Result {
	tasks, err := c.provider.ActiveTasksForSource(ctx, msg.SourceChatID, userID)
	if err != nil {
		logger.L().Errorf("Failed to list tasks for source %d: %v", msg.SourceChatID, err)
		return nil
	}
	if len(tasks) == 0 {
		return nil
	}

	logger.L().Infof("Dispatching message %d from chat %d to %d task(s)",
		msg.MessageID, msg.SourceChatID, len(tasks))

	results := make([]Result, 0, len(tasks))
	dispatched := 0
	for _, task := range tasks {
		result := c.handleTask(ctx, task, msg, dispatched)
		if result.Status == StatusSent {
			dispatched++
		}
		if result.Err != nil {
			logger.L().Errorf("Task %s failed: %v", task.DisplayName(), result.Err)
		}
		results = append(results, result)
	}
	return results
}

// handleTask 对单个任务执行完整处理流程
// dispatchIndex 为本事件内已实际发出的条数，用于任务间发送间隔
func (c *Coordinator) handleTask(ctx context.Context, task *models.Task, msg *models.InboundMessage, dispatchIndex int) Result {
	result := Result{TaskID: task.TaskID, TaskName: task.Name}

	decision := c.filters.Evaluate(ctx, task.TaskID, msg)
	if decision.Block {
		logger.L().Infof("Message %d blocked by filters for task %s", msg.MessageID, task.DisplayName())
		result.Status = StatusBlocked
		return result
	}

	forwarding, err := c.provider.ForwardingSettings(ctx, task.TaskID)
	if err != nil {
		result.Status = StatusFailed
		result.Err = err
		return result
	}

	// 手动发布：入队等待审核，本次不投递
	if forwarding.PublishingMode == models.PublishingModeManual {
		approvalID, err := c.approvals.Enqueue(ctx, &models.PendingApproval{
			TaskID:       task.TaskID,
			UserID:       task.UserID,
			SourceChatID: msg.SourceChatID,
			MessageID:    msg.MessageID,
			Text:         msg.Text,
			FileName:     msg.FileName,
		})
		if err != nil {
			result.Status = StatusFailed
			result.Err = err
			return result
		}
		logger.L().Infof("Message %d queued for approval %s (task %s)", msg.MessageID, approvalID, task.DisplayName())
		result.Status = StatusPending
		result.ApprovalID = approvalID
		return result
	}

	// 任务间发送间隔：只在本事件第二条实际发送前生效
	if dispatchIndex > 0 && forwarding.SendingInterval > 0 {
		if err := c.wait(ctx, forwarding.SendingInterval); err != nil {
			result.Status = StatusFailed
			result.Err = err
			return result
		}
	}

	mode, err := c.dispatch(ctx, task, msg, decision, forwarding)
	if err != nil {
		result.Status = StatusFailed
		result.Err = err
		return result
	}
	result.Status = StatusSent
	result.Mode = mode
	return result
}

// dispatch 执行媒体处理、文本变换与投递，返回实际发送方式
func (c *Coordinator) dispatch(
	ctx context.Context,
	task *models.Task,
	msg *models.InboundMessage,
	decision models.FilterDecision,
	forwarding *models.ForwardingSettings,
) (string, error) {
	// 去除转发标记只能通过复制实现，在裁决前就固定生效模式
	effectiveMode := task.ForwardMode
	if decision.RemoveForwardMark {
		effectiveMode = models.ForwardModeCopy
	}

	mediaBytes, mediaChanged, err := c.processMedia(ctx, task.TaskID, msg)
	if err != nil {
		return "", err
	}

	text := msg.Text
	removeCaption := false
	if msg.HasMedia {
		cleaning, err := c.provider.TextCleaningSettings(ctx, task.TaskID)
		if err == nil && cleaning.RemoveCaption {
			removeCaption = true
		}
	}
	if removeCaption {
		text = ""
	}

	res := c.pipeline.Transform(ctx, task.TaskID, text, effectiveMode)

	requiresCopy := res.Mutated || res.Translated || decision.RemoveButtons ||
		removeCaption || mediaChanged
	mode := pipeline.ResolveSendMode(effectiveMode, requiresCopy)

	if mode == models.ForwardModeForward {
		_, err := c.transport.Relay(ctx, task.TargetChatID, msg.SourceChatID, msg.MessageID,
			forwarding.SilentNotifications)
		if err != nil {
			return "", err
		}
		logger.L().Infof("Forwarded message %d to %s (task %s)", msg.MessageID, task.TargetChatID, task.DisplayName())
		return mode, nil
	}

	out := &Outgoing{
		Text:        res.Text,
		Silent:      forwarding.SilentNotifications,
		LinkPreview: forwarding.LinkPreviewEnabled,
	}
	if msg.HasMedia && !msg.WebPage {
		out.Media = mediaBytes
		out.FileName = msg.FileName
	}
	if !decision.RemoveButtons {
		messageSettings, err := c.provider.MessageSettings(ctx, task.TaskID)
		if err == nil && messageSettings.InlineButtonsEnabled {
			out.Buttons = messageSettings.InlineButtons
		}
	}

	// 媒体内容不在手头（审核快照、下载失败），按引用复制以保留媒体
	if msg.HasMedia && !msg.WebPage && len(out.Media) == 0 {
		if _, err := c.transport.Copy(ctx, task.TargetChatID, msg.SourceChatID, msg.MessageID, out); err != nil {
			return "", err
		}
		logger.L().Infof("Copied message %d by reference to %s (task %s)", msg.MessageID, task.TargetChatID, task.DisplayName())
		return mode, nil
	}

	if _, err := c.transport.ReconstructSend(ctx, task.TargetChatID, out); err != nil {
		return "", err
	}
	logger.L().Infof("Copied message %d to %s (task %s)", msg.MessageID, task.TargetChatID, task.DisplayName())
	return mode, nil
}

// processMedia 对消息媒体执行水印处理（经缓存），返回处理后字节与是否有改动
func (c *Coordinator) processMedia(ctx context.Context, taskID string, msg *models.InboundMessage) ([]byte, bool, error) {
	if !msg.HasMedia || len(msg.MediaBytes) == 0 || msg.WebPage {
		return msg.MediaBytes, false, nil
	}

	settings, err := c.provider.WatermarkSettings(ctx, taskID)
	if err != nil {
		logger.L().Errorf("Failed to load watermark settings for task %s, media kept as is: %v", taskID, err)
		return msg.MediaBytes, false, nil
	}
	if !watermark.ShouldApply(watermark.MediaTypeFromFile(msg.FileName), settings) {
		return msg.MediaBytes, false, nil
	}

	processed, err := c.cache.GetOrProcess(taskID, msg.MediaBytes, msg.FileName, func() ([]byte, error) {
		return c.media.Apply(ctx, msg.MediaBytes, msg.FileName, settings), nil
	})
	if err != nil {
		return nil, false, err
	}

	return processed, !bytes.Equal(processed, msg.MediaBytes), nil
}

// sleepContext 可被上下文取消的定时等待
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
