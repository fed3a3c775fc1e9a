package http

import (
	stdhttp "net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	wsAdapter "github.com/taskflow/taskflow-backend/internal/adapters/primary/websocket"
	"github.com/taskflow/taskflow-backend/internal/auth"
	"github.com/taskflow/taskflow-backend/internal/config"
	"github.com/taskflow/taskflow-backend/internal/core/mocks"
)

func newWebSocketHandler(t *testing.T) (*WebSocketHandler, *wsAdapter.Hub, *auth.TokenManager) {
	t.Helper()

	logger := testLogger()
	hub := wsAdapter.NewHub(mocks.NewMockMembershipResolver(), logger)
	tokenManager := auth.NewTokenManager("test-secret", time.Hour)
	cfg := &config.Config{
		WebSocket: config.WebSocketConfig{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		App: config.AppConfig{Environment: "test"},
	}

	return NewWebSocketHandler(hub, tokenManager, cfg, logger), hub, tokenManager
}

func TestWebSocketHandler_ServeHTTP(t *testing.T) {
	t.Run("rejects a connection without a token", func(t *testing.T) {
		handler, hub, _ := newWebSocketHandler(t)

		req := httptest.NewRequest(stdhttp.MethodGet, "/ws", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, stdhttp.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "Missing authentication token")
		assert.Equal(t, 0, hub.ClientCount())
	})

	t.Run("rejects an unparseable token", func(t *testing.T) {
		handler, hub, _ := newWebSocketHandler(t)

		req := httptest.NewRequest(stdhttp.MethodGet, "/ws?token=not-a-token", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, stdhttp.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "Invalid or expired token")
		assert.Equal(t, 0, hub.ClientCount())
	})

	t.Run("rejects an expired token", func(t *testing.T) {
		handler, hub, _ := newWebSocketHandler(t)

		// Same signing secret as the handler, but a token that is
		// already past its expiry by the time it is presented.
		shortLived := auth.NewTokenManager("test-secret", time.Millisecond)
		token, err := shortLived.GenerateToken(uuid.New(), false)
		require.NoError(t, err)
		time.Sleep(10 * time.Millisecond)

		req := httptest.NewRequest(stdhttp.MethodGet, "/ws?token="+token, nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, stdhttp.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "Invalid or expired token")
		assert.Equal(t, 0, hub.ClientCount())
	})

	t.Run("does not register a client when the upgrade fails", func(t *testing.T) {
		handler, hub, tokenManager := newWebSocketHandler(t)

		token, err := tokenManager.GenerateToken(uuid.New(), false)
		require.NoError(t, err)

		// A plain GET without the websocket upgrade headers passes
		// authentication but fails the handshake.
		req := httptest.NewRequest(stdhttp.MethodGet, "/ws?token="+token, nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, stdhttp.StatusBadRequest, rec.Code)
		assert.Equal(t, 0, hub.ClientCount())
	})
}
