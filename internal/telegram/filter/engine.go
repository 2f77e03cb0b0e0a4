package filter

import (
	"context"
	"strings"

	"relay_bot/internal/logger"
	"relay_bot/internal/media/watermark"
	"relay_bot/internal/telegram/models"
	"relay_bot/internal/telegram/repository"
)

// Engine 内容过滤引擎
// 对每个 (任务, 消息) 对产出一份 FilterDecision；过滤类别相互独立逐项评估，
// 内部错误退化为"放行、原样保留"而不是丢弃消息
type Engine struct {
	provider repository.SettingsProvider
}

// NewEngine 创建过滤引擎
func NewEngine(provider repository.SettingsProvider) *Engine {
	return &Engine{provider: provider}
}

// Evaluate 评估任务过滤规则，总是返回一份决策，不阻断其他任务的处理
func (e *Engine) Evaluate(ctx context.Context, taskID string, msg *models.InboundMessage) models.FilterDecision {
	var decision models.FilterDecision

	settings, err := e.provider.FilterSettings(ctx, taskID)
	if err != nil {
		// 读取失败时放行：可用性优先于过滤精度
		logger.L().Errorf("Failed to load filter settings for task %s, allowing message: %v", taskID, err)
		return decision
	}

	text := strings.ToLower(msg.Text)

	// 关键词黑名单
	for _, word := range settings.BlockedWords {
		word = strings.ToLower(strings.TrimSpace(word))
		if word != "" && strings.Contains(text, word) {
			decision.Block = true
			break
		}
	}

	// 关键词白名单：配置非空时必须命中其一
	if len(settings.RequiredWords) > 0 {
		matched := false
		for _, word := range settings.RequiredWords {
			word = strings.ToLower(strings.TrimSpace(word))
			if word != "" && strings.Contains(text, word) {
				matched = true
				break
			}
		}
		if !matched {
			decision.Block = true
		}
	}

	// 转发来源过滤：拦截与去标记相互独立，去标记在放行时同样生效
	if msg.Forwarded {
		if settings.BlockForwarded {
			decision.Block = true
		}
		if settings.StripForwardMark {
			decision.RemoveForwardMark = true
		}
	}

	// 按钮过滤
	if msg.HasButtons {
		if settings.BlockButtons {
			decision.Block = true
		}
		if settings.StripButtons {
			decision.RemoveButtons = true
		}
	}

	// 媒体类型过滤
	if msg.HasMedia && len(settings.BlockedMediaTypes) > 0 {
		mediaType := watermark.MediaTypeFromFile(msg.FileName)
		for _, blocked := range settings.BlockedMediaTypes {
			if strings.EqualFold(strings.TrimSpace(blocked), mediaType) {
				decision.Block = true
				break
			}
		}
	}

	return decision
}
