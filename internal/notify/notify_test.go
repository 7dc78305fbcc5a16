package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"smm-panel-go/internal/store"
)

type mapSettings map[string]string

func (m mapSettings) GetSetting(_ context.Context, key string) (string, error) {
	v, ok := m[key]
	if !ok {
		return "", fmt.Errorf("%w: %s", store.ErrSettingNotFound, key)
	}
	return v, nil
}

func TestTelegramNotifier_Send(t *testing.T) {
	var mu sync.Mutex
	var gotPath string
	var gotBody map[string]string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	settings := mapSettings{SettingTelegramBotToken: "123:abc", SettingTelegramChatId: "-100"}
	notifier, err := NewTelegramNotifier(settings, server.URL, time.Second)
	if err != nil {
		t.Fatalf("NewTelegramNotifier failed: %v", err)
	}

	if err := notifier.Notify(context.Background(), Message{Subject: "Hi", Text: "body"}); err != nil {
		t.Fatalf("Notify failed: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if gotPath != "/bot123:abc/sendMessage" {
		t.Errorf("Unexpected path %s", gotPath)
	}
	if gotBody["chat_id"] != "-100" || gotBody["parse_mode"] != "Markdown" || gotBody["text"] != "*Hi*\nbody" {
		t.Errorf("Unexpected body %v", gotBody)
	}
}

func TestTelegramNotifier_NotConfigured(t *testing.T) {
	notifier, err := NewTelegramNotifier(mapSettings{}, "http://127.0.0.1:1", time.Second)
	if err != nil {
		t.Fatalf("NewTelegramNotifier failed: %v", err)
	}
	if err := notifier.Notify(context.Background(), Message{Text: "x"}); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("Expected not configured, got %v", err)
	}
}

type brokenSettings struct{}

func (brokenSettings) GetSetting(context.Context, string) (string, error) {
	return "", errors.New("database is locked")
}

func TestTelegramNotifier_SettingsReadError(t *testing.T) {
	notifier, err := NewTelegramNotifier(brokenSettings{}, "http://127.0.0.1:1", time.Second)
	if err != nil {
		t.Fatalf("NewTelegramNotifier failed: %v", err)
	}
	err = notifier.Notify(context.Background(), Message{Text: "x"})
	if err == nil || errors.Is(err, ErrNotConfigured) {
		t.Errorf("Expected a read failure distinct from not configured, got %v", err)
	}
}

func TestTelegramNotifier_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"ok":false}`, http.StatusUnauthorized)
	}))
	defer server.Close()

	notifier, _ := NewTelegramNotifier(mapSettings{SettingTelegramBotToken: "t", SettingTelegramChatId: "c"}, server.URL, time.Second)
	if err := notifier.Notify(context.Background(), Message{Text: "x"}); err == nil {
		t.Error("Expected error on non-200 response")
	}
}

type fakeSender struct {
	to, subject, body string
}

func (f *fakeSender) SendEmail(_ context.Context, to, subject, body string) error {
	f.to, f.subject, f.body = to, subject, body
	return nil
}

func TestEmailNotifier(t *testing.T) {
	sender := &fakeSender{}
	notifier := NewEmailNotifier(sender, "ops@example.com")
	if err := notifier.Notify(context.Background(), Message{Subject: "S", Text: "T"}); err != nil {
		t.Fatalf("Notify failed: %v", err)
	}
	if sender.to != "ops@example.com" || sender.subject != "S" || sender.body != "T" {
		t.Errorf("Unexpected email: %+v", sender)
	}

	if err := NewEmailNotifier(sender, "").Notify(context.Background(), Message{}); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("Expected not configured without recipient, got %v", err)
	}
}

type countingNotifier struct {
	name  string
	calls atomic.Int32
	fail  bool
	panic bool
}

func (c *countingNotifier) Name() string { return c.name }

func (c *countingNotifier) Notify(context.Context, Message) error {
	c.calls.Add(1)
	if c.panic {
		panic("boom")
	}
	if c.fail {
		return errors.New("down")
	}
	return nil
}

func TestDispatcher_IsolatesFailures(t *testing.T) {
	ok := &countingNotifier{name: "ok"}
	failing := &countingNotifier{name: "failing", fail: true}
	panicking := &countingNotifier{name: "panicking", panic: true}

	d := NewDispatcher(time.Second, ok, failing, panicking)
	d.Dispatch(Message{Text: "one"})
	d.Dispatch(Message{Text: "two"})
	d.Wait()

	for _, n := range []*countingNotifier{ok, failing, panicking} {
		if n.calls.Load() != 2 {
			t.Errorf("Expected %s to be called twice, got %d", n.name, n.calls.Load())
		}
	}
}

func TestEscapeMarkdown(t *testing.T) {
	cases := map[string]string{
		"plain":    "plain",
		"john_doe": "john\\_doe",
		"*star*":   "\\*star\\*",
		"a`b[c":    "a\\`b\\[c",
		"":         "",
	}
	for in, want := range cases {
		if got := EscapeMarkdown(in); got != want {
			t.Errorf("EscapeMarkdown(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDepositMessages_EscapeUserValues(t *testing.T) {
	msg := DepositCredited("paystack", "big_spender*", "u1", "100", "PS-u1-1", "100")
	if !strings.Contains(msg.Text, "User: big\\_spender\\* (u1)") {
		t.Errorf("Username not escaped: %q", msg.Text)
	}
	if !strings.Contains(msg.Text, "Reference: `PS-u1-1`") {
		t.Errorf("Reference should stay a code span: %q", msg.Text)
	}

	issued := DepositCodeIssued("under_score", "u1", "5", "123456", time.Unix(0, 0))
	if !strings.Contains(issued.Text, "User: under\\_score (u1)") || !strings.Contains(issued.Text, "Code: `123456`") {
		t.Errorf("Unexpected code message: %q", issued.Text)
	}
}
