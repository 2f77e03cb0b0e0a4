package telegram

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"relay_bot/internal/logger"
	"relay_bot/internal/telegram/models"

	"github.com/go-telegram/bot"
	botModels "github.com/go-telegram/bot/models"
)

// 超过 Bot API 下载上限的媒体不做内容级处理
const maxDownloadSize = 20 * 1024 * 1024

// handleUpdate 默认更新处理器：消息与频道帖子进入转发链路
func (b *Bot) handleUpdate(ctx context.Context, botInstance *bot.Bot, update *botModels.Update) {
	message := update.Message
	if message == nil {
		message = update.ChannelPost
	}
	if message == nil {
		return
	}

	userIDs := b.usersForSource(ctx, message.Chat.ID)
	if len(userIDs) == 0 {
		return
	}

	inbound := b.toInbound(ctx, message)

	// 相册成员先缓冲，静默期满后整组分发
	if inbound.AlbumID != "" {
		b.albums.Add(inbound)
		return
	}

	for _, userID := range userIDs {
		b.sessions.Dispatch(userID, inbound)
	}
}

// usersForSource 查询在该来源配置了启用任务的用户（带短 TTL 缓存）
func (b *Bot) usersForSource(ctx context.Context, sourceChatID int64) []int64 {
	if userIDs, ok := b.routing.Get(sourceChatID); ok {
		return userIDs
	}

	userIDs, err := b.taskRepo.ActiveUserIDsForSource(ctx, sourceChatID)
	if err != nil {
		logger.L().Errorf("Failed to resolve users for source %d: %v", sourceChatID, err)
		return nil
	}
	b.routing.Set(sourceChatID, userIDs)
	return userIDs
}

// toInbound 把 Bot API 消息转换为入站消息事件
func (b *Bot) toInbound(ctx context.Context, message *botModels.Message) *models.InboundMessage {
	inbound := &models.InboundMessage{
		SourceChatID: message.Chat.ID,
		MessageID:    message.ID,
		Text:         message.Text,
		HasButtons:   message.ReplyMarkup != nil,
		Forwarded:    message.ForwardOrigin != nil,
		AlbumID:      message.MediaGroupID,
	}
	if inbound.Text == "" {
		inbound.Text = message.Caption
	}

	fileID, fileName := mediaFileRef(message)
	if fileID == "" {
		return inbound
	}

	inbound.HasMedia = true
	inbound.FileName = fileName

	data, err := b.downloadFile(ctx, fileID)
	if err != nil {
		logger.L().Warnf("Failed to download media %s, content-level processing skipped: %v", fileName, err)
		return inbound
	}
	inbound.MediaBytes = data
	return inbound
}

// mediaFileRef 提取消息媒体的 file_id 与文件名
func mediaFileRef(message *botModels.Message) (string, string) {
	switch {
	case len(message.Photo) > 0:
		// 取最大尺寸
		largest := message.Photo[len(message.Photo)-1]
		return largest.FileID, fmt.Sprintf("photo_%d.jpg", message.ID)
	case message.Video != nil:
		name := message.Video.FileName
		if name == "" {
			name = fmt.Sprintf("video_%d.mp4", message.ID)
		}
		return message.Video.FileID, name
	case message.Document != nil:
		name := message.Document.FileName
		if name == "" {
			name = fmt.Sprintf("document_%d", message.ID)
		}
		return message.Document.FileID, name
	}
	return "", ""
}

// downloadFile 经 Bot API 下载媒体内容
func (b *Bot) downloadFile(ctx context.Context, fileID string) ([]byte, error) {
	file, err := b.bot.GetFile(ctx, &bot.GetFileParams{FileID: fileID})
	if err != nil {
		return nil, fmt.Errorf("get file failed: %w", err)
	}
	if file.FileSize > maxDownloadSize {
		return nil, fmt.Errorf("file too large: %d bytes", file.FileSize)
	}

	link := b.bot.FileDownloadLink(file)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return nil, fmt.Errorf("create download request failed: %w", err)
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download http error: status=%d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxDownloadSize+1))
}

// handleApproveCallback 审核放行回调，仅审核单所属用户可操作
func (b *Bot) handleApproveCallback(ctx context.Context, botInstance *bot.Bot, update *botModels.Update) {
	query := update.CallbackQuery
	if query == nil || !b.authorizeApproval(ctx, botInstance, query, "approve:") {
		return
	}
	b.coordinator.HandleApproveCallback(ctx, botInstance, query)
}

// handleRejectCallback 审核拒绝回调
func (b *Bot) handleRejectCallback(ctx context.Context, botInstance *bot.Bot, update *botModels.Update) {
	query := update.CallbackQuery
	if query == nil || !b.authorizeApproval(ctx, botInstance, query, "reject:") {
		return
	}
	b.coordinator.HandleRejectCallback(ctx, botInstance, query)
}

// authorizeApproval 校验回调发起者是否有权处理该审核单
func (b *Bot) authorizeApproval(ctx context.Context, botInstance *bot.Bot, query *botModels.CallbackQuery, prefix string) bool {
	approvalID := query.Data[len(prefix):]

	approval, err := b.approvals.Get(ctx, approvalID)
	if err != nil {
		logger.L().Warnf("Approval %s lookup failed: %v", approvalID, err)
		b.answerCallback(ctx, botInstance, query.ID, "❌ 审核单不存在或已过期")
		return false
	}

	if approval.UserID != query.From.ID && !b.isOwner(query.From.ID) {
		logger.L().Warnf("User %d attempted to resolve approval %s owned by %d",
			query.From.ID, approvalID, approval.UserID)
		b.answerCallback(ctx, botInstance, query.ID, "此审核单不属于你")
		return false
	}
	return true
}

func (b *Bot) isOwner(userID int64) bool {
	for _, id := range b.ownerIDs {
		if id == userID {
			return true
		}
	}
	return false
}

func (b *Bot) answerCallback(ctx context.Context, botInstance *bot.Bot, queryID string, text string) {
	_, err := botInstance.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: queryID,
		Text:            text,
	})
	if err != nil {
		logger.L().Errorf("Failed to answer callback query: %v", err)
	}
}
