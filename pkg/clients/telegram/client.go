// Package telegram sends bot replies through the Telegram Bot API. Only the
// sendMessage call the webhook path needs.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"shopbot/config"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const (
	clientNameTelegram = "telegram"

	apiBaseURL = "https://api.telegram.org"

	// WebhookSecretHeader carries the secret Telegram echoes back on every
	// webhook delivery.
	WebhookSecretHeader = "X-Telegram-Bot-Api-Secret-Token"

	defaultTimeout = 10 * time.Second
)

var (
	instance *Client
	once     sync.Once
)

type Client struct {
	hc            http.Client
	baseURL       string
	botToken      string
	webhookSecret string
}

func GetInstance() *Client {
	once.Do(func() {
		cfg := config.GetInstance()
		instance = NewClient(
			apiBaseURL,
			cfg.GetString(config.TelegramBotToken),
			cfg.GetString(config.TelegramWebhookSecret),
		)
	})
	return instance
}

func NewClient(baseURL, botToken, webhookSecret string) *Client {
	return &Client{
		hc:            http.Client{Timeout: defaultTimeout},
		baseURL:       baseURL,
		botToken:      botToken,
		webhookSecret: webhookSecret,
	}
}

// VerifyWebhookSecret checks the secret token header of a webhook delivery.
// An empty configured secret disables the check.
func (c *Client) VerifyWebhookSecret(headerValue string) bool {
	if c.webhookSecret == "" {
		return true
	}
	return headerValue == c.webhookSecret
}

type sendMessageRequest struct {
	ChatID int64  `json:"chat_id"`
	Text   string `json:"text"`
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// SendMessage posts text to a chat.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string) error {
	payload, err := json.Marshal(sendMessageRequest{ChatID: chatID, Text: text})
	if err != nil {
		return errors.Wrapf(err, "%s marshal sendMessage", clientNameTelegram)
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", c.baseURL, c.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return errors.Wrapf(err, "%s build request", clientNameTelegram)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s sendMessage failed", clientNameTelegram)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			log.Warnf("%s close response body error: %v", clientNameTelegram, closeErr)
		}
	}()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrapf(err, "%s read response", clientNameTelegram)
	}

	var result apiResponse
	if err := json.Unmarshal(raw, &result); err != nil {
		return errors.Wrapf(err, "%s decode response", clientNameTelegram)
	}
	if !result.OK {
		return fmt.Errorf("%s sendMessage rejected: %s", clientNameTelegram, result.Description)
	}
	return nil
}
