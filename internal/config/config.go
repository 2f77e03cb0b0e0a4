package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config 应用程序配置
type Config struct {
	TelegramToken   string        // Telegram Bot API Token
	BotOwnerIDs     []int64       // Bot管理员ID列表
	MongoURI        string        // MongoDB连接URI
	MongoDBName     string        // MongoDB数据库名称
	SessionQueue    int           // 每用户会话队列大小
	AlbumTimeout    time.Duration // 相册收集静默超时
	WatermarkAssets string        // 图片水印素材目录
	Translate       TranslateConfig
}

// TranslateConfig 翻译服务配置（LibreTranslate 兼容接口）
type TranslateConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Load 从环境变量加载配置
func Load() (*Config, error) {
	mongoDBName := os.Getenv("MONGO_DB_NAME")
	if mongoDBName == "" {
		mongoDBName = "relay_bot"
	}

	cfg := &Config{
		TelegramToken:   os.Getenv("TELEGRAM_TOKEN"),
		MongoURI:        os.Getenv("MONGO_URI"),
		MongoDBName:     mongoDBName,
		SessionQueue:    100,
		AlbumTimeout:    2 * time.Second,
		WatermarkAssets: strings.TrimSpace(os.Getenv("WATERMARK_ASSETS_DIR")),
	}

	// 解析BOT_OWNER_IDS
	ownerIDsStr := os.Getenv("BOT_OWNER_IDS")
	if ownerIDsStr != "" {
		var err error
		cfg.BotOwnerIDs, err = parseOwnerIDs(ownerIDsStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse BOT_OWNER_IDS: %w", err)
		}
	}

	// 解析SESSION_QUEUE_SIZE（默认100）
	if queueStr := strings.TrimSpace(os.Getenv("SESSION_QUEUE_SIZE")); queueStr != "" {
		size, err := strconv.Atoi(queueStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse SESSION_QUEUE_SIZE: %w", err)
		}
		if size < 1 {
			return nil, fmt.Errorf("SESSION_QUEUE_SIZE must be >= 1, got %d", size)
		}
		cfg.SessionQueue = size
	}

	// 解析ALBUM_TIMEOUT_MS（默认2000毫秒）
	if timeoutStr := strings.TrimSpace(os.Getenv("ALBUM_TIMEOUT_MS")); timeoutStr != "" {
		ms, err := strconv.Atoi(timeoutStr)
		if err != nil || ms <= 0 {
			return nil, fmt.Errorf("invalid ALBUM_TIMEOUT_MS: %s", timeoutStr)
		}
		cfg.AlbumTimeout = time.Duration(ms) * time.Millisecond
	}

	// 加载翻译配置
	translateCfg, err := loadTranslateConfig()
	if err != nil {
		return nil, err
	}
	cfg.Translate = translateCfg

	return cfg, nil
}

// parseOwnerIDs 解析逗号分隔的用户ID字符串
// 支持格式: "123456789" 或 "123456789,987654321"
func parseOwnerIDs(s string) ([]int64, error) {
	parts := strings.Split(s, ",")
	ids := make([]int64, 0, len(parts))

	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid owner ID %q: %w", part, err)
		}
		ids = append(ids, id)
	}

	return ids, nil
}

func loadTranslateConfig() (TranslateConfig, error) {
	var cfg TranslateConfig

	cfg.BaseURL = strings.TrimSpace(os.Getenv("TRANSLATE_BASE_URL"))
	cfg.APIKey = strings.TrimSpace(os.Getenv("TRANSLATE_API_KEY"))

	if timeoutStr := strings.TrimSpace(os.Getenv("TRANSLATE_TIMEOUT_SECONDS")); timeoutStr != "" {
		seconds, err := strconv.Atoi(timeoutStr)
		if err != nil || seconds <= 0 {
			return TranslateConfig{}, fmt.Errorf("invalid TRANSLATE_TIMEOUT_SECONDS: %s", timeoutStr)
		}
		cfg.Timeout = time.Duration(seconds) * time.Second
	} else {
		cfg.Timeout = 15 * time.Second
	}

	return cfg, nil
}
