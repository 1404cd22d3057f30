package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/wonny/squeeze/pkg/config"
	"github.com/wonny/squeeze/pkg/httputil"
	"github.com/wonny/squeeze/pkg/logger"
)

// DeliveryError reports a rejected Telegram API call. Transport-level
// failures surface as wrapped errors instead; by the time this error
// exists, the shared retry policy has already given up.
type DeliveryError struct {
	ErrorCode   int // Telegram error_code; 0 when the body was unreadable
	Description string
}

func (e *DeliveryError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("telegram: delivery rejected (code %d): %s", e.ErrorCode, e.Description)
	}
	return fmt.Sprintf("telegram: delivery rejected (code %d)", e.ErrorCode)
}

// Permanent reports whether retrying the same request is pointless
// (bad token, unknown chat, malformed payload).
func (e *DeliveryError) Permanent() bool {
	return e.ErrorCode >= 400 && e.ErrorCode < 500
}

// TelegramClient handles communication with the Telegram Bot API
// ⭐ SSOT: Telegram 발송은 이 클라이언트에서만
//
// Transport errors and 5xx/429 responses ride the shared retry policy;
// API-level rejections come back as *DeliveryError.
type TelegramClient struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
	token      string
	chatID     string
}

// NewTelegramClient creates a new Telegram Bot API client.
func NewTelegramClient(cfg *config.Config, log *logger.Logger) *TelegramClient {
	return &TelegramClient{
		httpClient: httputil.New(cfg, log),
		logger:     log.WithField("module", "telegram"),
		baseURL:    cfg.Telegram.BaseURL,
		token:      cfg.Telegram.BotToken,
		chatID:     cfg.Telegram.ChatID,
	}
}

type telegramResponse struct {
	OK          bool            `json:"ok"`
	ErrorCode   int             `json:"error_code"`
	Description string          `json:"description"`
	Result      json.RawMessage `json:"result"`
}

type sendMessageRequest struct {
	ChatID                string `json:"chat_id"`
	Text                  string `json:"text"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
}

// SendMessage delivers one message to the configured chat.
func (c *TelegramClient) SendMessage(ctx context.Context, text string) error {
	url := fmt.Sprintf("%s/bot%s/sendMessage", c.baseURL, c.token)
	payload := sendMessageRequest{
		ChatID:                c.chatID,
		Text:                  text,
		DisableWebPagePreview: true,
	}

	resp, err := c.httpClient.PostJSON(ctx, url, payload)
	if err != nil {
		return fmt.Errorf("telegram request failed: %w", err)
	}
	defer resp.Body.Close()

	result, err := decodeResponse(resp.Body)
	if err != nil {
		return err
	}

	if !result.OK {
		c.logger.WithFields(map[string]interface{}{
			"error_code":  result.ErrorCode,
			"description": result.Description,
		}).Error("Telegram API rejected message")
		return &DeliveryError{
			ErrorCode:   result.ErrorCode,
			Description: result.Description,
		}
	}

	c.logger.WithField("chars", len(text)).Debug("Message delivered")
	return nil
}

// GetMe verifies the bot token and returns the bot's username.
func (c *TelegramClient) GetMe(ctx context.Context) (string, error) {
	url := fmt.Sprintf("%s/bot%s/getMe", c.baseURL, c.token)

	resp, err := c.httpClient.Get(ctx, url)
	if err != nil {
		return "", fmt.Errorf("telegram request failed: %w", err)
	}
	defer resp.Body.Close()

	result, err := decodeResponse(resp.Body)
	if err != nil {
		return "", err
	}

	if !result.OK {
		return "", &DeliveryError{
			ErrorCode:   result.ErrorCode,
			Description: result.Description,
		}
	}

	var bot struct {
		Username string `json:"username"`
	}
	if err := json.Unmarshal(result.Result, &bot); err != nil {
		return "", fmt.Errorf("decode getMe result: %w", err)
	}

	return bot.Username, nil
}

func decodeResponse(body io.Reader) (*telegramResponse, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("read telegram response: %w", err)
	}

	var result telegramResponse
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("decode telegram response: %w", err)
	}
	return &result, nil
}
