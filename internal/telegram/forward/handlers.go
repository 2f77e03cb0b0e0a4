package forward

import (
	"context"
	"fmt"
	"strings"

	"relay_bot/internal/logger"

	"github.com/go-telegram/bot"
	botModels "github.com/go-telegram/bot/models"
)

// NotifyPending 给任务所属用户推送审核卡片（发布/拒绝按钮）
func (c *Coordinator) NotifyPending(ctx context.Context, botInstance *bot.Bot, userID int64, result Result, preview string) {
	if runes := []rune(preview); len(runes) > 200 {
		preview = string(runes[:200]) + "…"
	}
	text := fmt.Sprintf("📨 待审核消息\n\n任务: %s\n\n%s", result.TaskName, preview)

	keyboard := &botModels.InlineKeyboardMarkup{
		InlineKeyboard: [][]botModels.InlineKeyboardButton{
			{
				{Text: "✅ 发布", CallbackData: fmt.Sprintf("approve:%s", result.ApprovalID)},
				{Text: "❌ 拒绝", CallbackData: fmt.Sprintf("reject:%s", result.ApprovalID)},
			},
		},
	}

	_, err := botInstance.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      userID,
		Text:        text,
		ReplyMarkup: keyboard,
	})
	if err != nil {
		logger.L().Errorf("Failed to notify user %d of approval %s: %v", userID, result.ApprovalID, err)
	}
}

// HandleApproveCallback 处理"发布"按钮点击
func (c *Coordinator) HandleApproveCallback(ctx context.Context, botInstance *bot.Bot, query *botModels.CallbackQuery) {
	approvalID := strings.TrimPrefix(query.Data, "approve:")

	logger.L().Infof("User %d approved %s", query.From.ID, approvalID)

	var resultText string
	mode, err := c.Approve(ctx, approvalID)
	if err != nil {
		resultText = fmt.Sprintf("❌ 发布失败: %v", err)
		logger.L().Errorf("Approval %s publish failed: %v", approvalID, err)
	} else {
		resultText = fmt.Sprintf("✅ 已发布 (%s)", mode)
	}

	c.answerAndClose(ctx, botInstance, query, resultText)
}

// HandleRejectCallback 处理"拒绝"按钮点击
func (c *Coordinator) HandleRejectCallback(ctx context.Context, botInstance *bot.Bot, query *botModels.CallbackQuery) {
	approvalID := strings.TrimPrefix(query.Data, "reject:")

	logger.L().Infof("User %d rejected %s", query.From.ID, approvalID)

	var resultText string
	if err := c.Reject(ctx, approvalID); err != nil {
		resultText = fmt.Sprintf("❌ 操作失败: %v", err)
	} else {
		resultText = "🗑️ 已拒绝，消息不会发送"
	}

	c.answerAndClose(ctx, botInstance, query, resultText)
}

// answerAndClose 回复回调并把审核卡片按钮替换为结果文本
func (c *Coordinator) answerAndClose(ctx context.Context, botInstance *bot.Bot, query *botModels.CallbackQuery, resultText string) {
	_, err := botInstance.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: query.ID,
		Text:            resultText,
		ShowAlert:       true,
	})
	if err != nil {
		logger.L().Errorf("Failed to answer callback query: %v", err)
	}

	keyboard := &botModels.InlineKeyboardMarkup{
		InlineKeyboard: [][]botModels.InlineKeyboardButton{
			{{Text: resultText, CallbackData: "noop"}},
		},
	}
	if query.Message.Message != nil {
		_, err = botInstance.EditMessageReplyMarkup(ctx, &bot.EditMessageReplyMarkupParams{
			ChatID:      query.Message.Message.Chat.ID,
			MessageID:   query.Message.Message.ID,
			ReplyMarkup: keyboard,
		})
		if err != nil {
			logger.L().Errorf("Failed to edit message markup: %v", err)
		}
	}
}
