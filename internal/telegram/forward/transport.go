package forward

import (
	"bytes"
	"context"
	"fmt"

	"relay_bot/internal/media/watermark"
	"relay_bot/internal/telegram/models"

	"github.com/go-telegram/bot"
	botModels "github.com/go-telegram/bot/models"
)

// Receipt 发送回执
type Receipt struct {
	MessageID int
}

// Outgoing 重建发送的消息内容
type Outgoing struct {
	Text        string
	Media       []byte
	FileName    string
	Buttons     []models.ButtonRow
	Silent      bool
	LinkPreview bool
}

// Transport 消息投递抽象
// Relay 保留来源标记原样转发；ReconstructSend 以机器人身份重建发送；
// Copy 按引用复制原消息（不带来源标记），媒体内容不在手头时仍能保留媒体
type Transport interface {
	Relay(ctx context.Context, target string, sourceChatID int64, messageID int, silent bool) (*Receipt, error)
	ReconstructSend(ctx context.Context, target string, out *Outgoing) (*Receipt, error)
	Copy(ctx context.Context, target string, sourceChatID int64, messageID int, out *Outgoing) (*Receipt, error)
}

// BotTransport 基于 Telegram Bot API 的投递实现
// 所有出站调用共用一个令牌桶并带重试，避免触发 Telegram API 限制
type BotTransport struct {
	bot     *bot.Bot
	limiter *RateLimiter
}

// NewBotTransport 创建投递实例
func NewBotTransport(b *bot.Bot) *BotTransport {
	return &BotTransport{
		bot:     b,
		limiter: NewRateLimiter(30), // 30条/秒
	}
}

// Close 释放速率限制器
func (t *BotTransport) Close() {
	t.limiter.Close()
}

// Relay 原样转发消息到目标会话
func (t *BotTransport) Relay(ctx context.Context, target string, sourceChatID int64, messageID int, silent bool) (*Receipt, error) {
	var receipt *Receipt
	err := withSendRetry(ctx, target, func(target string) error {
		if err := t.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter wait error: %w", err)
		}
		msg, err := t.bot.ForwardMessage(ctx, &bot.ForwardMessageParams{
			ChatID:              target,
			FromChatID:          sourceChatID,
			MessageID:           messageID,
			DisableNotification: silent,
		})
		if err != nil {
			return err
		}
		receipt = &Receipt{MessageID: msg.ID}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to forward message: %w", err)
	}
	return receipt, nil
}

// ReconstructSend 以机器人身份重建发送消息
// 按媒体类型分流 SendPhoto/SendVideo/SendDocument，纯文本走 SendMessage
func (t *BotTransport) ReconstructSend(ctx context.Context, target string, out *Outgoing) (*Receipt, error) {
	var receipt *Receipt
	err := withSendRetry(ctx, target, func(target string) error {
		if err := t.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter wait error: %w", err)
		}
		msg, err := t.sendOnce(ctx, target, out)
		if err != nil {
			return err
		}
		receipt = &Receipt{MessageID: msg.ID}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to send message: %w", err)
	}
	return receipt, nil
}

// Copy 按引用复制消息到目标会话，不带"转发自"标记
// 说明文字非空时覆盖原说明；按钮以重建后的配置为准
func (t *BotTransport) Copy(ctx context.Context, target string, sourceChatID int64, messageID int, out *Outgoing) (*Receipt, error) {
	var receipt *Receipt
	err := withSendRetry(ctx, target, func(target string) error {
		if err := t.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter wait error: %w", err)
		}
		res, err := t.bot.CopyMessage(ctx, &bot.CopyMessageParams{
			ChatID:              target,
			FromChatID:          sourceChatID,
			MessageID:           messageID,
			Caption:             out.Text,
			DisableNotification: out.Silent,
			ReplyMarkup:         buildKeyboard(out.Buttons),
		})
		if err != nil {
			return err
		}
		receipt = &Receipt{MessageID: res.ID}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to copy message: %w", err)
	}
	return receipt, nil
}

// sendOnce 单次重建发送
func (t *BotTransport) sendOnce(ctx context.Context, target string, out *Outgoing) (*botModels.Message, error) {
	markup := buildKeyboard(out.Buttons)

	if len(out.Media) == 0 {
		var preview *botModels.LinkPreviewOptions
		if !out.LinkPreview {
			preview = &botModels.LinkPreviewOptions{IsDisabled: bot.True()}
		}
		return t.bot.SendMessage(ctx, &bot.SendMessageParams{
			ChatID:              target,
			Text:                out.Text,
			DisableNotification: out.Silent,
			LinkPreviewOptions:  preview,
			ReplyMarkup:         markup,
		})
	}

	// 每次尝试都要新开 reader，重试时不能复用已消费的流
	file := &botModels.InputFileUpload{
		Filename: out.FileName,
		Data:     bytes.NewReader(out.Media),
	}

	switch watermark.MediaTypeFromFile(out.FileName) {
	case watermark.MediaTypePhoto:
		return t.bot.SendPhoto(ctx, &bot.SendPhotoParams{
			ChatID:              target,
			Photo:               file,
			Caption:             out.Text,
			DisableNotification: out.Silent,
			ReplyMarkup:         markup,
		})
	case watermark.MediaTypeVideo:
		return t.bot.SendVideo(ctx, &bot.SendVideoParams{
			ChatID:              target,
			Video:               file,
			Caption:             out.Text,
			DisableNotification: out.Silent,
			ReplyMarkup:         markup,
		})
	default:
		return t.bot.SendDocument(ctx, &bot.SendDocumentParams{
			ChatID:              target,
			Document:            file,
			Caption:             out.Text,
			DisableNotification: out.Silent,
			ReplyMarkup:         markup,
		})
	}
}

// buildKeyboard 把按钮配置转换成 inline keyboard
func buildKeyboard(rows []models.ButtonRow) *botModels.InlineKeyboardMarkup {
	if len(rows) == 0 {
		return nil
	}

	keyboard := make([][]botModels.InlineKeyboardButton, 0, len(rows))
	for _, row := range rows {
		buttons := make([]botModels.InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			buttons = append(buttons, botModels.InlineKeyboardButton{
				Text: b.Text,
				URL:  b.URL,
			})
		}
		if len(buttons) > 0 {
			keyboard = append(keyboard, buttons)
		}
	}
	if len(keyboard) == 0 {
		return nil
	}
	return &botModels.InlineKeyboardMarkup{InlineKeyboard: keyboard}
}
