package notify

import (
	"context"
	"errors"
)

// ErrNotConfigured is returned by a channel that has no credentials yet.
var ErrNotConfigured = errors.New("notification channel not configured")

// Message is an operator-facing notification
type Message struct {
	Subject string
	Text    string
}

// Notifier delivers a message to one operator channel
type Notifier interface {
	Name() string
	Notify(ctx context.Context, msg Message) error
}

// SettingsReader reads runtime settings, satisfied by the database service
type SettingsReader interface {
	GetSetting(ctx context.Context, key string) (string, error)
}
