package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"relay_bot/internal/config"
	"relay_bot/internal/logger"
)

// Client LibreTranslate 兼容接口的翻译客户端
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// NewClient 创建翻译客户端；未配置 BaseURL 时返回 nil 客户端表示翻译不可用
func NewClient(cfg config.TranslateConfig, opts ...Option) (*Client, error) {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		return nil, nil
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	client := &Client{
		baseURL: baseURL,
		apiKey:  strings.TrimSpace(cfg.APIKey),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}

	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}

type translateRequest struct {
	Query  string `json:"q"`
	Source string `json:"source"`
	Target string `json:"target"`
	Format string `json:"format"`
	APIKey string `json:"api_key,omitempty"`
}

type translateResponse struct {
	TranslatedText string `json:"translatedText"`
}

// Translate 把文本翻译到目标语言，源语言自动检测
func (c *Client) Translate(ctx context.Context, text string, targetLang string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return text, nil
	}
	if strings.TrimSpace(targetLang) == "" {
		return text, nil
	}

	payload := translateRequest{
		Query:  text,
		Source: "auto",
		Target: targetLang,
		Format: "text",
		APIKey: c.apiKey,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal translate request failed: %w", err)
	}

	endpoint := strings.TrimRight(c.baseURL, "/") + "/translate"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create translate request failed: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request translate api failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read translate response failed: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		logger.L().Warnf("Translate response: status=%d body=%s", resp.StatusCode, truncate(string(data), 512))
		return "", fmt.Errorf("translate http error: status=%d", resp.StatusCode)
	}

	var result translateResponse
	if err := json.Unmarshal(data, &result); err != nil {
		return "", fmt.Errorf("decode translate response failed: %w", err)
	}

	translated := strings.TrimSpace(result.TranslatedText)
	if translated == "" {
		return text, nil
	}
	return translated, nil
}

func truncate(s string, limit int) string {
	if limit <= 0 || len(s) <= limit {
		return s
	}
	return s[:limit]
}
