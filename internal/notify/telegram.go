package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"smm-panel-go/internal/store"

	"golang.org/x/net/http2"
)

const (
	SettingTelegramBotToken = "telegram_bot_token"
	SettingTelegramChatId   = "telegram_chat_id"
)

// TelegramNotifier posts to a bot chat. Token and chat id are read from the
// settings table on every send so an operator can rotate them without a restart.
type TelegramNotifier struct {
	settings SettingsReader
	apiBase  string
	client   *http.Client
}

func NewTelegramNotifier(settings SettingsReader, apiBase string, timeout time.Duration) (*TelegramNotifier, error) {
	tr := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        4,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}
	if err := http2.ConfigureTransport(tr); err != nil {
		return nil, fmt.Errorf("unable to configure http2 transport: %w", err)
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &TelegramNotifier{
		settings: settings,
		apiBase:  strings.TrimRight(apiBase, "/"),
		client:   &http.Client{Transport: tr, Timeout: timeout},
	}, nil
}

func (t *TelegramNotifier) Name() string {
	return "telegram"
}

func (t *TelegramNotifier) Notify(ctx context.Context, msg Message) error {
	token, err := t.setting(ctx, SettingTelegramBotToken)
	if err != nil {
		return err
	}
	chatId, err := t.setting(ctx, SettingTelegramChatId)
	if err != nil {
		return err
	}
	if token == "" || chatId == "" {
		return ErrNotConfigured
	}

	text := msg.Text
	if msg.Subject != "" {
		text = "*" + msg.Subject + "*\n" + msg.Text
	}

	payload, err := json.Marshal(map[string]string{
		"chat_id":    chatId,
		"text":       text,
		"parse_mode": "Markdown",
	})
	if err != nil {
		return fmt.Errorf("unable to encode telegram message: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", t.apiBase, token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("unable to build telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("telegram request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("telegram returned HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}

// setting treats a missing key as empty; any other read error is a failure
func (t *TelegramNotifier) setting(ctx context.Context, key string) (string, error) {
	value, err := t.settings.GetSetting(ctx, key)
	if errors.Is(err, store.ErrSettingNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("unable to read %s: %w", key, err)
	}
	return value, nil
}
