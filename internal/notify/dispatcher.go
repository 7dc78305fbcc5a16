package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"smm-panel-go/internal/metrics"

	"go.uber.org/zap"
)

// Dispatcher fans a message out to every channel in the background. The
// caller never waits and never sees a delivery error.
type Dispatcher struct {
	notifiers []Notifier
	timeout   time.Duration
	wg        sync.WaitGroup
}

func NewDispatcher(timeout time.Duration, notifiers ...Notifier) *Dispatcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Dispatcher{notifiers: notifiers, timeout: timeout}
}

// Dispatch must be called after the operation it reports on has committed
func (d *Dispatcher) Dispatch(msg Message) {
	for _, n := range d.notifiers {
		d.wg.Add(1)
		go d.deliver(n, msg)
	}
}

// Wait blocks until in-flight deliveries finish; used on shutdown and in tests
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) deliver(n Notifier, msg Message) {
	defer d.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			zap.L().Error("Notifier panicked", zap.String("channel", n.Name()), zap.Any("panic", r))
			metrics.Get().NotificationTotal.WithLabelValues(n.Name(), "panic").Inc()
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	err := n.Notify(ctx, msg)
	switch {
	case err == nil:
		metrics.Get().NotificationTotal.WithLabelValues(n.Name(), "sent").Inc()
	case errors.Is(err, ErrNotConfigured):
		zap.L().Debug("Notification channel not configured, skipping", zap.String("channel", n.Name()))
		metrics.Get().NotificationTotal.WithLabelValues(n.Name(), "skipped").Inc()
	default:
		zap.L().Warn("Failed to deliver notification",
			zap.String("channel", n.Name()),
			zap.String("subject", msg.Subject),
			zap.Error(err))
		metrics.Get().NotificationTotal.WithLabelValues(n.Name(), "failed").Inc()
	}
}

// Message text is Telegram Markdown; user-supplied values go through
// EscapeMarkdown and code spans through codeSpan.
var markdownEscaper = strings.NewReplacer(
	"_", "\\_",
	"*", "\\*",
	"`", "\\`",
	"[", "\\[",
)

// EscapeMarkdown makes s render literally in a Markdown message
func EscapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}

func codeSpan(s string) string {
	return "`" + strings.ReplaceAll(s, "`", "'") + "`"
}

func DepositCredited(gateway, username, userId, amount, reference, balance string) Message {
	return Message{
		Subject: "Deposit received",
		Text: fmt.Sprintf("Gateway: %s\nUser: %s (%s)\nAmount: %s\nReference: %s\nNew balance: %s",
			EscapeMarkdown(gateway), EscapeMarkdown(username), EscapeMarkdown(userId),
			EscapeMarkdown(amount), codeSpan(reference), EscapeMarkdown(balance)),
	}
}

func DepositCodeIssued(username, userId, amount, code string, expiresAt time.Time) Message {
	return Message{
		Subject: "Deposit confirmation code",
		Text: fmt.Sprintf("User: %s (%s)\nAmount: %s\nCode: %s\nExpires: %s",
			EscapeMarkdown(username), EscapeMarkdown(userId), EscapeMarkdown(amount),
			codeSpan(code), expiresAt.UTC().Format(time.RFC1123)),
	}
}
