package websocket

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"brainquest/internal/logger"
	"brainquest/middlewares"
	"brainquest/models"
	"brainquest/utils"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startServer(t *testing.T, hub *Hub) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	utils.SetJWTSecret("ws-secret")

	r := gin.New()
	r.GET("/api/ws/progress", middlewares.AuthMiddleware(), NewHandler(hub, nil).Progress)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server, userID string) *websocket.Conn {
	t.Helper()
	tok, err := utils.GenerateJWTToken(userID, userID, time.Minute)
	require.NoError(t, err)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/ws/progress?token=" + tok
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	var welcome map[string]interface{}
	require.NoError(t, conn.ReadJSON(&welcome))
	require.Equal(t, "connected", welcome["type"])
	return conn
}

func TestHubDeliversOnlyToOwner(t *testing.T) {
	hub := NewHub(logger.Nop())
	srv := startServer(t, hub)

	alice := dial(t, srv, "alice")
	bob := dial(t, srv, "bob")
	assert.Equal(t, 1, hub.Connections("alice"))

	hub.Publish(models.GamificationEvent{Type: "badge_awarded", UserID: "alice", BadgeIDs: []string{"b1"}})

	var got models.GamificationEvent
	require.NoError(t, alice.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, alice.ReadJSON(&got))
	assert.Equal(t, "badge_awarded", got.Type)
	assert.Equal(t, []string{"b1"}, got.BadgeIDs)
	assert.False(t, got.Timestamp.IsZero())

	require.NoError(t, bob.SetReadDeadline(time.Now().Add(150*time.Millisecond)))
	_, _, err := bob.ReadMessage()
	assert.Error(t, err)
}

func TestHubRejectsAnonymous(t *testing.T) {
	srv := startServer(t, NewHub(logger.Nop()))
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/ws/progress"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, 401, resp.StatusCode)
}

func TestClosedClientIsRemoved(t *testing.T) {
	hub := NewHub(logger.Nop())
	srv := startServer(t, hub)
	conn := dial(t, srv, "carol")
	conn.Close()

	require.Eventually(t, func() bool { return hub.Connections("carol") == 0 }, 2*time.Second, 10*time.Millisecond)
	hub.Publish(models.GamificationEvent{Type: "level_up", UserID: "carol"})
}
