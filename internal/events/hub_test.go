package events

import (
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DanielBelovol/ThumbnailTester/internal/logger"
	"github.com/DanielBelovol/ThumbnailTester/internal/models"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	return conn
}

func waitForClients(t *testing.T, h *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for h.ClientCount() != want {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d clients, have %d", want, h.ClientCount())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHubBroadcastsToAllSubscribers(t *testing.T) {
	h := NewHub(logger.New("error"))
	srv := httptest.NewServer(h)
	defer srv.Close()

	c1 := dial(t, srv)
	defer c1.Close()
	c2 := dial(t, srv)
	defer c2.Close()
	waitForClients(t, h, 2)

	h.Progress("sess-1", &models.Variant{Position: 1, Text: "Title B"})

	for _, conn := range []*websocket.Conn{c1, c2} {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var msg Message
		require.NoError(t, conn.ReadJSON(&msg))
		assert.Equal(t, TopicProgress, msg.Topic)
		assert.Equal(t, "sess-1", msg.SessionID)
	}
}

func TestHubDropsDisconnectedClients(t *testing.T) {
	h := NewHub(logger.New("error"))
	srv := httptest.NewServer(h)
	defer srv.Close()

	conn := dial(t, srv)
	waitForClients(t, h, 1)

	conn.Close()
	waitForClients(t, h, 0)
}

func TestHubBroadcastFromConcurrentSessions(t *testing.T) {
	// Sessions run on their own goroutines and share the hub; writes to one
	// connection must be serialized or gorilla/websocket panics.
	h := NewHub(logger.New("error"))
	srv := httptest.NewServer(h)
	defer srv.Close()

	conn := dial(t, srv)
	defer conn.Close()
	waitForClients(t, h, 1)

	const sessions = 4
	const perSession = 50

	var wg sync.WaitGroup
	for i := 0; i < sessions; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < perSession; j++ {
				h.Progress("sess", &models.Variant{Position: n})
			}
		}(i)
	}

	received := 0
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for received < sessions*perSession {
		var msg Message
		require.NoError(t, conn.ReadJSON(&msg))
		received++
	}
	wg.Wait()

	assert.Equal(t, sessions*perSession, received)
	assert.Equal(t, 1, h.ClientCount())
}

func TestHubErrorAndFinalTopics(t *testing.T) {
	h := NewHub(logger.New("error"))
	srv := httptest.NewServer(h)
	defer srv.Close()

	conn := dial(t, srv)
	defer conn.Close()
	waitForClients(t, h, 1)

	h.Success("sess-1", &models.Variant{Position: 1})
	h.SessionError("sess-1", "ApplyError", "variant 1: rate limited")
	h.Final("sess-1", []models.Variant{{Position: 0, IsWinner: true}})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var successMsg Message
	require.NoError(t, conn.ReadJSON(&successMsg))
	assert.Equal(t, TopicSuccess, successMsg.Topic)

	var errMsg Message
	require.NoError(t, conn.ReadJSON(&errMsg))
	assert.Equal(t, TopicError, errMsg.Topic)

	var finalMsg Message
	require.NoError(t, conn.ReadJSON(&finalMsg))
	assert.Equal(t, TopicFinal, finalMsg.Topic)
}
