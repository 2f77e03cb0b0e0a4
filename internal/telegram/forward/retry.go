package forward

import (
	"context"
	"errors"
	"strconv"
	"time"

	"relay_bot/internal/logger"

	"github.com/go-telegram/bot"
)

const (
	maxSendAttempts        = 3
	defaultRetryDelay      = 3 * time.Second
	maxExponentialBackoff  = 30 * time.Second
	retryJitterStepPerChat = 200 * time.Millisecond
)

// shouldRetrySend 判断发送错误是否值得重试
// 限流错误可重试；权限/参数/迁移类错误重试无意义
func shouldRetrySend(err error) bool {
	if err == nil {
		return false
	}

	var tooMany *bot.TooManyRequestsError
	if errors.As(err, &tooMany) {
		return true
	}

	var migrate *bot.MigrateError
	if errors.As(err, &migrate) {
		return false
	}

	switch {
	case errors.Is(err, bot.ErrorForbidden),
		errors.Is(err, bot.ErrorBadRequest),
		errors.Is(err, bot.ErrorUnauthorized),
		errors.Is(err, bot.ErrorNotFound):
		return false
	}
	return true
}

// migrateTargetFromError 从群组升级错误中提取新会话ID
func migrateTargetFromError(err error) (int64, bool) {
	var migrate *bot.MigrateError
	if errors.As(err, &migrate) && migrate.MigrateToChatID != 0 {
		return int64(migrate.MigrateToChatID), true
	}
	return 0, false
}

// retryJitter 按目标会话ID错开重试时点，避免多目标同时撞限流
func retryJitter(chatID int64) time.Duration {
	if chatID < 0 {
		chatID = -chatID
	}
	return time.Duration(chatID%5+1) * retryJitterStepPerChat
}

// sendRetryDelay 计算第 attempt 次失败后的重试等待
// 限流错误优先采用服务端给出的 RetryAfter，其余错误按指数退避
func sendRetryDelay(err error, attempt int, chatID int64) time.Duration {
	var tooMany *bot.TooManyRequestsError
	if errors.As(err, &tooMany) {
		base := defaultRetryDelay
		if tooMany.RetryAfter > 0 {
			base = time.Duration(tooMany.RetryAfter) * time.Second
		}
		return base + retryJitter(chatID)
	}

	if attempt < 1 {
		attempt = 1
	}
	delay := time.Duration(1<<uint(attempt-1)) * time.Second
	if delay > maxExponentialBackoff {
		delay = maxExponentialBackoff
	}
	return delay
}

// withSendRetry 带重试执行一次发送
// 群组升级错误不计入重试次数，改写目标后立即重发一次
func withSendRetry(ctx context.Context, target string, send func(target string) error) error {
	var lastErr error
	for attempt := 1; attempt <= maxSendAttempts; attempt++ {
		lastErr = send(target)
		if lastErr == nil {
			return nil
		}

		if newChatID, ok := migrateTargetFromError(lastErr); ok {
			logger.L().Warnf("Target %s migrated to %d, retrying with new chat id", target, newChatID)
			target = strconv.FormatInt(newChatID, 10)
			lastErr = send(target)
			if lastErr == nil {
				return nil
			}
		}

		if !shouldRetrySend(lastErr) || attempt == maxSendAttempts {
			return lastErr
		}

		delay := sendRetryDelay(lastErr, attempt, chatIDForJitter(target))
		logger.L().Warnf("Send attempt %d to %s failed: %v, retrying in %v", attempt, target, lastErr, delay)
		if err := sleepContext(ctx, delay); err != nil {
			return err
		}
	}
	return lastErr
}

// chatIDForJitter 目标为数字ID时用其取抖动，@username 目标用0
func chatIDForJitter(target string) int64 {
	id, err := strconv.ParseInt(target, 10, 64)
	if err != nil {
		return 0
	}
	return id
}
