package zulip

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plt-aachen/mensabot/internal/logging"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client := NewClient(srv.URL, "bot@example.org", "api-key", logging.NewTestLogger(),
		WithSendTimeout(10*time.Second),
		WithRateLimit(1000, 1000))
	return client, srv
}

func TestSendMessage(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/messages", r.URL.Path)

		email, key, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "bot@example.org", email)
		assert.Equal(t, "api-key", key)

		require.NoError(t, r.ParseForm())
		assert.Equal(t, "stream", r.PostForm.Get("type"))
		assert.Equal(t, "Mensa", r.PostForm.Get("to"))
		assert.Equal(t, "Mensa Speiseplan 25.08.2025", r.PostForm.Get("subject"))
		assert.Equal(t, "# Speiseplan", r.PostForm.Get("content"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"result": "success", "msg": "", "id": 42}`))
	})

	id, err := client.SendMessage(context.Background(), Message{
		Stream:  "Mensa",
		Topic:   "Mensa Speiseplan 25.08.2025",
		Content: "# Speiseplan",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
}

func TestSendMessageRetriesServerErrors(t *testing.T) {
	var attempts atomic.Int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"result": "success", "msg": "", "id": 7}`))
	})

	id, err := client.SendMessage(context.Background(), Message{Stream: "s", Topic: "t", Content: "c"})
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)
	assert.Equal(t, int32(2), attempts.Load())
}

func TestSendMessageClientErrorIsPermanent(t *testing.T) {
	var attempts atomic.Int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"result": "error", "msg": "Invalid stream"}`))
	})

	_, err := client.SendMessage(context.Background(), Message{Stream: "nope", Topic: "t", Content: "c"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid stream")
	assert.Equal(t, int32(1), attempts.Load(), "4xx must not be retried")
}

func TestSendMessageErrorResult(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"result": "error", "msg": "Account deactivated"}`))
	})

	_, err := client.SendMessage(context.Background(), Message{Stream: "s", Topic: "t", Content: "c"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Account deactivated")
}
