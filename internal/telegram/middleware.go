package telegram

import (
	"context"

	"relay_bot/internal/logger"

	"github.com/go-telegram/bot"
	botModels "github.com/go-telegram/bot/models"
)

// logUpdates 中间件：记录入站更新概要
func (b *Bot) logUpdates(next bot.HandlerFunc) bot.HandlerFunc {
	return func(ctx context.Context, botInstance *bot.Bot, update *botModels.Update) {
		switch {
		case update.Message != nil:
			logger.L().Debugf("Update: message %d from chat %d", update.Message.ID, update.Message.Chat.ID)
		case update.ChannelPost != nil:
			logger.L().Debugf("Update: channel post %d from chat %d", update.ChannelPost.ID, update.ChannelPost.Chat.ID)
		case update.CallbackQuery != nil:
			logger.L().Debugf("Update: callback %q from user %d", update.CallbackQuery.Data, update.CallbackQuery.From.ID)
		}

		next(ctx, botInstance, update)
	}
}
