package ingest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	mu      sync.Mutex
	results []string
}

func (r *recordingSink) ReportResult(_ context.Context, league, matchID, outcome string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, league+"/"+matchID+"/"+outcome)
	return nil
}

func (r *recordingSink) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.results...)
}

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

// feedServer upgrades one connection and writes the given frames
func feedServer(t *testing.T, frames []string) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for _, frame := range frames {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
				return
			}
		}
		// Hold the connection open briefly so the client drains everything
		time.Sleep(200 * time.Millisecond)
	}))
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func TestStreamClientDeliversResults(t *testing.T) {
	server := feedServer(t, []string{
		`{"op":"heartbeat"}`,
		`{"op":"result","league":"epl","match_id":"m1","outcome":"home_win"}`,
		`{"op":"result","league":"epl","match_id":"m2","outcome":"D"}`,
		`{"op":"unknown_op"}`,
		`not json at all`,
		`{"op":"result","match_id":"missing-league","outcome":"H"}`,
	})
	defer server.Close()

	sink := &recordingSink{}
	client := NewStreamClient(wsURL(server), sink, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go client.Run(ctx)

	require.Eventually(t, func() bool {
		return len(sink.snapshot()) == 2
	}, 2*time.Second, 10*time.Millisecond)

	results := sink.snapshot()
	assert.Equal(t, "epl/m1/home_win", results[0])
	assert.Equal(t, "epl/m2/D", results[1])
}

func TestStreamClientReconnects(t *testing.T) {
	var (
		mu          sync.Mutex
		connections int
	)
	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		connections++
		mu.Unlock()

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		// Drop the connection immediately to force a reconnect
		conn.Close()
	}))
	defer server.Close()

	client := NewStreamClient(wsURL(server), &recordingSink{}, testLogger())
	client.reconnect = ReconnectConfig{
		InitialBackoff:    10 * time.Millisecond,
		MaxBackoff:        50 * time.Millisecond,
		BackoffMultiplier: 1.5,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go client.Run(ctx)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return connections >= 2
	}, 2*time.Second, 10*time.Millisecond)
}

func TestStreamClientStopsOnCancel(t *testing.T) {
	server := feedServer(t, nil)
	defer server.Close()

	client := NewStreamClient(wsURL(server), &recordingSink{}, testLogger())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		client.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after context cancellation")
	}
	assert.False(t, client.IsConnected())
}
