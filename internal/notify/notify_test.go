package notify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Freeeeeet/notebase/internal/model"
	"github.com/go-telegram/bot"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSuspensionText(t *testing.T) {
	text := SuspensionText(&model.CreditRecord{
		UserID: "<u1>", MonthYear: "2025-07", AbuseStrikes: 3, CreditsUsed: 10000, CreditsLimit: 10000,
	})
	assert.Contains(t, text, "&lt;u1&gt;")
	assert.Contains(t, text, "2025-07")
	assert.Contains(t, text, "Strikes: 3")
	assert.Contains(t, text, "10000 / 10000")
}

func TestNewWithoutTokenIsNop(t *testing.T) {
	n, err := New("", 0, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, Nop{}, n)
	assert.NoError(t, n.NotifySuspension(context.Background(), &model.CreditRecord{}))
}

func TestTelegramNotifierSendsToAdminChat(t *testing.T) {
	var gotPath, gotChat, gotText string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotChat = r.FormValue("chat_id")
		gotText = r.FormValue("text")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":1,"date":0,"chat":{"id":-100,"type":"group"}}}`))
	}))
	defer srv.Close()

	n, err := NewTelegramNotifier("test-token", -100, zap.NewNop(), bot.WithServerURL(srv.URL))
	require.NoError(t, err)

	err = n.NotifySuspension(context.Background(), &model.CreditRecord{UserID: "u1", MonthYear: "2025-07", AbuseStrikes: 3})
	require.NoError(t, err)

	assert.True(t, strings.HasSuffix(gotPath, "/sendMessage"))
	assert.Equal(t, "-100", gotChat)
	assert.Contains(t, gotText, "u1")
}

func TestTelegramNotifierReportsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`))
	}))
	defer srv.Close()

	n, err := NewTelegramNotifier("test-token", 42, zap.NewNop(), bot.WithServerURL(srv.URL))
	require.NoError(t, err)

	err = n.NotifySuspension(context.Background(), &model.CreditRecord{UserID: "u1"})
	assert.Error(t, err)
}
