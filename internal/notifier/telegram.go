package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"ValueSentinel/internal/logger"
)

const defaultAPIBase = "https://api.telegram.org"

// Notifier delivers a formatted message.
type Notifier interface {
	Send(ctx context.Context, text string) error
}

// Noop discards every message. It is used when Telegram is not configured.
type Noop struct{}

func (Noop) Send(context.Context, string) error { return nil }

// TelegramNotifier sends messages via the Telegram Bot API.
type TelegramNotifier struct {
	BotToken   string
	ChatID     string
	APIBase    string
	MaxRetries int
	Client     *http.Client
	log        *logger.Logger
}

// New returns a TelegramNotifier, or Noop when the token or chat is empty.
func New(botToken, chatID, proxyURL string, log *logger.Logger) Notifier {
	if botToken == "" || chatID == "" {
		return Noop{}
	}
	return NewTelegramNotifier(botToken, chatID, proxyURL, log)
}

// NewTelegramNotifier creates a notifier with optional proxy support.
func NewTelegramNotifier(botToken, chatID, proxyURL string, log *logger.Logger) *TelegramNotifier {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &TelegramNotifier{
		BotToken:   botToken,
		ChatID:     chatID,
		APIBase:    defaultAPIBase,
		MaxRetries: 2,
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
		log: log.WithField("component", "telegram"),
	}
}

// Send delivers text, retrying with exponential backoff.
func (t *TelegramNotifier) Send(ctx context.Context, text string) error {
	var lastErr error
	for i := 0; i <= t.MaxRetries; i++ {
		if i > 0 {
			backoff := time.Duration(1<<uint(i-1)) * time.Second
			t.log.WithError(lastErr).Warnf("telegram send failed (attempt %d/%d), retrying in %v", i, t.MaxRetries+1, backoff)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}
		if lastErr = t.send(ctx, text); lastErr == nil {
			return nil
		}
	}
	return fmt.Errorf("all %d attempts failed: %w", t.MaxRetries+1, lastErr)
}

func (t *TelegramNotifier) send(ctx context.Context, text string) error {
	apiURL := fmt.Sprintf("%s/bot%s/sendMessage", t.APIBase, t.BotToken)
	payload := map[string]string{
		"chat_id":    t.ChatID,
		"text":       text,
		"parse_mode": "HTML",
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.Client.Do(req)
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("telegram API error: status %d, body: %s", resp.StatusCode, string(respBody))
	}
	return nil
}
