package telegram

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"relay_bot/internal/config"
	"relay_bot/internal/logger"
	"relay_bot/internal/media/cache"
	"relay_bot/internal/media/transcode"
	"relay_bot/internal/media/watermark"
	"relay_bot/internal/sessions"
	"relay_bot/internal/telegram/filter"
	"relay_bot/internal/telegram/forward"
	"relay_bot/internal/telegram/models"
	"relay_bot/internal/telegram/pipeline"
	"relay_bot/internal/telegram/repository"
	"relay_bot/internal/translate"

	"github.com/go-telegram/bot"
	"go.mongodb.org/mongo-driver/mongo"
)

// Bot Telegram 转发机器人服务
// 持有从消息入站到投递的完整处理链：更新转换 → 会话分发 → 转发协调
type Bot struct {
	bot         *bot.Bot
	taskRepo    *repository.MongoTaskRepository
	approvals   *repository.MongoApprovalQueue
	coordinator *forward.Coordinator
	transport   *forward.BotTransport
	sessions    *sessions.Registry
	albums      *forward.AlbumCollector
	routing     *routingCache
	httpClient  *http.Client
	ownerIDs    []int64
	db          *mongo.Database
	capability  *transcode.Capability
	startTime   time.Time
}

// New 创建机器人实例并组装处理链
func New(cfg *config.Config, db *mongo.Database) (*Bot, error) {
	if cfg.TelegramToken == "" {
		return nil, fmt.Errorf("telegram token cannot be empty")
	}

	taskRepo := repository.NewTaskRepository(db)
	approvals := repository.NewApprovalQueue(db)

	translator, err := translate.NewClient(cfg.Translate)
	if err != nil {
		return nil, fmt.Errorf("failed to create translate client: %w", err)
	}
	if translator == nil {
		logger.L().Info("Translate service not configured, translation disabled")
	}

	// 视频处理能力启动时探测一次
	capability := transcode.Detect(context.Background())
	mediaEngine := watermark.NewEngine(capability, cfg.WatermarkAssets)

	telegramBot := &Bot{
		taskRepo:   taskRepo,
		approvals:  approvals,
		routing:    newRoutingCache(30 * time.Second),
		httpClient: &http.Client{Timeout: 60 * time.Second},
		ownerIDs:   cfg.BotOwnerIDs,
		db:         db,
		capability: capability,
		startTime:  time.Now(),
	}

	opts := []bot.Option{
		bot.WithDefaultHandler(telegramBot.handleUpdate),
		bot.WithMiddlewares(telegramBot.logUpdates),
	}
	b, err := bot.New(cfg.TelegramToken, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}
	telegramBot.bot = b

	telegramBot.transport = forward.NewBotTransport(b)

	var pipelineTranslator pipeline.Translator
	if translator != nil {
		pipelineTranslator = translator
	}
	telegramBot.coordinator = forward.NewCoordinator(
		taskRepo,
		approvals,
		filter.NewEngine(taskRepo),
		pipeline.New(taskRepo, pipelineTranslator),
		mediaEngine,
		cache.New(),
		telegramBot.transport,
	)

	telegramBot.sessions = sessions.NewRegistry(telegramBot.handleSessionMessage, cfg.SessionQueue)
	telegramBot.albums = forward.NewAlbumCollector(cfg.AlbumTimeout, telegramBot.handleAlbum)

	telegramBot.registerHandlers()

	if err := telegramBot.ensureIndexes(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ensure indexes: %w", err)
	}

	logger.L().Info("Telegram bot initialized successfully")
	return telegramBot, nil
}

// Start 启动 Bot（阻塞式，应在 goroutine 中运行）
func (b *Bot) Start(ctx context.Context) error {
	logger.L().Info("Starting Telegram bot...")
	b.bot.Start(ctx)
	logger.L().Info("Telegram bot stopped")
	return nil
}

// Stop 停止会话处理并释放资源，在途消息处理完成后返回
func (b *Bot) Stop(ctx context.Context) error {
	logger.L().Info("Stopping Telegram bot...")
	b.sessions.Shutdown()
	b.transport.Close()
	return nil
}

// TaskRepository 任务管理入口（供管理端与测试使用）
func (b *Bot) TaskRepository() repository.TaskRepository {
	return b.taskRepo
}

// registerHandlers 注册回调处理器
func (b *Bot) registerHandlers() {
	b.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, "approve:", bot.MatchTypePrefix, b.handleApproveCallback)
	b.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, "reject:", bot.MatchTypePrefix, b.handleRejectCallback)
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/ping", bot.MatchTypeExact, b.handlePing)
}

// ensureIndexes 确保所有数据库索引存在
func (b *Bot) ensureIndexes(ctx context.Context) error {
	if err := b.taskRepo.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("failed to ensure task indexes: %w", err)
	}
	logger.L().Debug("Task indexes ensured")

	if err := b.approvals.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("failed to ensure approval indexes: %w", err)
	}
	logger.L().Debug("Approval indexes ensured")

	return nil
}

// handleSessionMessage 会话内串行处理一条消息
func (b *Bot) handleSessionMessage(ctx context.Context, userID int64, msg *models.InboundMessage) {
	results := b.coordinator.HandleMessage(ctx, msg, userID)
	for _, result := range results {
		if result.Status == forward.StatusPending {
			b.coordinator.NotifyPending(ctx, b.bot, userID, result, msg.Text)
		}
	}
}

// handleAlbum 整组相册按到达顺序交给各用户会话
func (b *Bot) handleAlbum(messages []*models.InboundMessage) {
	if len(messages) == 0 {
		return
	}
	userIDs := b.usersForSource(context.Background(), messages[0].SourceChatID)
	for _, userID := range userIDs {
		for _, msg := range messages {
			b.sessions.Dispatch(userID, msg)
		}
	}
}
