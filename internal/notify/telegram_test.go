package notify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"pharos-bot/internal/clients_api/pharos"
	"pharos-bot/internal/tasks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSummary() tasks.Summary {
	return tasks.Summary{
		Address:   "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266",
		StartedAt: time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC),
		CheckIn:   pharos.Result{Action: pharos.ActionCheckIn, Succeeded: true, StatusCode: 200},
		Swap:      pharos.Result{Action: pharos.ActionSwap, StatusCode: 500, Message: "status 500 <html>"},
	}
}

func TestFormatSummary(t *testing.T) {
	msg := FormatSummary(sampleSummary())

	assert.Contains(t, msg, "<code>0xf39F...2266</code>")
	assert.Contains(t, msg, "2026-10-19 09:00:00")
	assert.Contains(t, msg, "✅ Check-in")
	assert.Contains(t, msg, "❌ Swap: status 500 &lt;html&gt;")
}

// fakeTelegram mimics the two Bot API methods the notifier uses
func fakeTelegram(t *testing.T) (*httptest.Server, func() []string) {
	t.Helper()
	var mu sync.Mutex
	var sent []string
	messages := func() []string {
		mu.Lock()
		defer mu.Unlock()
		return append([]string(nil), sent...)
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasSuffix(r.URL.Path, "/getMe"):
			_, _ = w.Write([]byte(`{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"pharos","username":"pharos_bot"}}`))
		case strings.HasSuffix(r.URL.Path, "/sendMessage"):
			assert.NoError(t, r.ParseForm())
			mu.Lock()
			sent = append(sent, r.PostForm.Get("chat_id")+"|"+r.PostForm.Get("parse_mode")+"|"+r.PostForm.Get("text"))
			mu.Unlock()
			_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":7,"date":0,"chat":{"id":42,"type":"private"}}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"ok":false,"error_code":404,"description":"Not Found"}`))
		}
	}))
	t.Cleanup(srv.Close)
	return srv, messages
}

func TestTelegramNotify(t *testing.T) {
	srv, messages := fakeTelegram(t)

	n, err := newTelegram("123:abc", "42", srv.URL+"/bot%s/%s", time.Second)
	require.NoError(t, err)
	assert.Equal(t, "pharos_bot", n.Username())

	require.NoError(t, n.Notify(context.Background(), sampleSummary()))
	sent := messages()
	require.Len(t, sent, 1)
	parts := strings.SplitN(sent[0], "|", 3)
	assert.Equal(t, "42", parts[0])
	assert.Equal(t, "HTML", parts[1])
	assert.Contains(t, parts[2], "Pharos daily tasks")
}

func TestNewTelegramInvalidChatID(t *testing.T) {
	_, err := NewTelegram("123:abc", "not-a-number", time.Second)
	assert.ErrorContains(t, err, "invalid telegram chat id")
}

// stallingTelegram answers getMe and never answers sendMessage
func stallingTelegram(t *testing.T) *httptest.Server {
	t.Helper()
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/getMe") {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"pharos","username":"pharos_bot"}}`))
			return
		}
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(release) })
	return srv
}

func TestNotifyBoundedByClientTimeout(t *testing.T) {
	srv := stallingTelegram(t)
	n, err := newTelegram("123:abc", "42", srv.URL+"/bot%s/%s", 200*time.Millisecond)
	require.NoError(t, err)

	start := time.Now()
	err = n.Notify(context.Background(), sampleSummary())
	assert.ErrorContains(t, err, "failed to send telegram message")
	assert.Less(t, time.Since(start), 3*time.Second)
}

func TestNotifyReturnsOnContextDone(t *testing.T) {
	srv := stallingTelegram(t)
	n, err := newTelegram("123:abc", "42", srv.URL+"/bot%s/%s", 5*time.Second)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	err = n.Notify(ctx, sampleSummary())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 3*time.Second)
}
