// Package notify formats digests and alerts and delivers them to a chat.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
)

// MaxMessageLength is the provider's per-message character limit.
const MaxMessageLength = 4096

// Deliverer sends one composed message.
type Deliverer interface {
	Deliver(ctx context.Context, text string) error
}

// Telegram delivers through the Bot API sendMessage method.
type Telegram struct {
	BaseURL string
	Token   string
	ChatID  string
	Client  *http.Client
	Logger  zerolog.Logger
}

func NewTelegram(token, chatID string, logger zerolog.Logger) *Telegram {
	return &Telegram{
		BaseURL: "https://api.telegram.org",
		Token:   token,
		ChatID:  chatID,
		Client:  &http.Client{Timeout: 20 * time.Second},
		Logger:  logger,
	}
}

type sendMessageRequest struct {
	ChatID                string `json:"chat_id"`
	Text                  string `json:"text"`
	ParseMode             string `json:"parse_mode,omitempty"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
}

// Deliver splits text at line boundaries and sends each part in order,
// stopping at the first failure.
func (t *Telegram) Deliver(ctx context.Context, text string) error {
	if t.Token == "" || t.ChatID == "" {
		return errors.New("telegram token or chat id not configured")
	}
	parts := SplitMessage(text, MaxMessageLength)
	for i, part := range parts {
		if err := t.send(ctx, part); err != nil {
			return fmt.Errorf("send part %d/%d: %w", i+1, len(parts), err)
		}
		t.Logger.Debug().Int("part", i+1).Int("parts", len(parts)).Int("chars", len(part)).Msg("telegram_sent")
	}
	return nil
}

func (t *Telegram) send(ctx context.Context, text string) error {
	jsonData, err := json.Marshal(sendMessageRequest{
		ChatID:                t.ChatID,
		Text:                  text,
		ParseMode:             "Markdown",
		DisableWebPagePreview: true,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", t.BaseURL, t.Token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := t.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("telegram request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	result := gjson.ParseBytes(body)
	if resp.StatusCode != http.StatusOK || !result.Get("ok").Bool() {
		desc := result.Get("description").String()
		if desc == "" {
			desc = http.StatusText(resp.StatusCode)
		}
		return fmt.Errorf("telegram returned status %d: %s", resp.StatusCode, desc)
	}
	return nil
}

// Writer prints messages instead of sending them; used for dry runs.
type Writer struct {
	W io.Writer
}

func (w Writer) Deliver(_ context.Context, text string) error {
	_, err := fmt.Fprintln(w.W, text)
	return err
}
