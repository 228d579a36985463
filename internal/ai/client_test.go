package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompleteReturnsAssistantMessage(t *testing.T) {
	var got completionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"Newton's second law: F = ma."}}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/v1", "key", "tutor-model", time.Second)
	reply, err := c.Complete(context.Background(), []Message{{Role: RoleUser, Content: "Explain F=ma"}})
	require.NoError(t, err)

	assert.Equal(t, "Newton's second law: F = ma.", reply)
	assert.Equal(t, "tutor-model", got.Model)
	assert.Len(t, got.Messages, 1)
}

func TestCompleteDoesNotRetryOnFailure(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key", "m", time.Second)
	_, err := c.Complete(context.Background(), []Message{{Role: RoleUser, Content: "hi"}})

	assert.ErrorIs(t, err, ErrUpstream)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestCompleteRejectsEmptyCompletion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "key", "m", time.Second).Complete(context.Background(), nil)
	assert.ErrorIs(t, err, ErrUpstream)

	_, err = NewClient(srv.URL, "", "m", time.Second).Complete(context.Background(), nil)
	assert.ErrorIs(t, err, ErrUpstream)
}
