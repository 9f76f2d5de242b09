// Package ingest subscribes to the live result feed and forwards finished
// matches to the prediction orchestrator.
package ingest

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// ResultSink receives finished-match results from the feed
type ResultSink interface {
	ReportResult(ctx context.Context, league, matchID, outcome string) error
}

// ReconnectConfig controls reconnection behavior after a dropped feed
type ReconnectConfig struct {
	InitialBackoff    time.Duration
	MaxBackoff        time.Duration
	BackoffMultiplier float64
}

// DefaultReconnectConfig returns the production reconnection settings
func DefaultReconnectConfig() ReconnectConfig {
	return ReconnectConfig{
		InitialBackoff:    1 * time.Second,
		MaxBackoff:        30 * time.Second,
		BackoffMultiplier: 1.5,
	}
}

// resultMessage is one frame on the result feed. Heartbeats carry no match.
type resultMessage struct {
	Op      string `json:"op"`
	League  string `json:"league,omitempty"`
	MatchID string `json:"match_id,omitempty"`
	Outcome string `json:"outcome,omitempty"`
}

// StreamClient consumes the result feed over a WebSocket and reports each
// finished match to the sink. The connection is re-dialed with exponential
// backoff until the context is cancelled.
type StreamClient struct {
	url       string
	sink      ResultSink
	reconnect ReconnectConfig
	logger    *logrus.Logger

	mu              sync.RWMutex
	conn            *websocket.Conn
	connected       bool
	lastMessageTime time.Time
}

// NewStreamClient creates a result feed client
func NewStreamClient(url string, sink ResultSink, logger *logrus.Logger) *StreamClient {
	return &StreamClient{
		url:       url,
		sink:      sink,
		reconnect: DefaultReconnectConfig(),
		logger:    logger,
	}
}

// Run connects and consumes the feed until the context is cancelled.
// Every disconnect triggers a backoff-delayed reconnect; a successful
// session resets the backoff.
func (s *StreamClient) Run(ctx context.Context) {
	backoff := s.reconnect.InitialBackoff
	for {
		if err := s.connect(ctx); err != nil {
			s.logger.WithError(err).WithField("backoff", backoff.String()).Warn("Result feed connect failed")
		} else {
			s.readMessages(ctx)
			backoff = s.reconnect.InitialBackoff
		}

		select {
		case <-ctx.Done():
			s.Close()
			return
		case <-time.After(backoff):
		}
		backoff = time.Duration(float64(backoff) * s.reconnect.BackoffMultiplier)
		if backoff > s.reconnect.MaxBackoff {
			backoff = s.reconnect.MaxBackoff
		}
	}
}

func (s *StreamClient) connect(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.conn = conn
	s.connected = true
	s.lastMessageTime = time.Now()
	s.mu.Unlock()

	s.logger.WithField("url", s.url).Info("Result feed connected")
	return nil
}

func (s *StreamClient) readMessages(ctx context.Context) {
	defer s.Close()

	for {
		if ctx.Err() != nil {
			return
		}

		var raw json.RawMessage
		if err := s.conn.ReadJSON(&raw); err != nil {
			if ctx.Err() == nil {
				s.logger.WithError(err).Warn("Result feed read failed, reconnecting")
			}
			return
		}

		s.mu.Lock()
		s.lastMessageTime = time.Now()
		s.mu.Unlock()

		var msg resultMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			s.logger.WithError(err).Debug("Unreadable result feed frame dropped")
			continue
		}
		s.handleMessage(ctx, msg)
	}
}

func (s *StreamClient) handleMessage(ctx context.Context, msg resultMessage) {
	switch msg.Op {
	case "heartbeat", "":
		return
	case "result":
		if msg.League == "" || msg.MatchID == "" {
			s.logger.Debug("Result frame missing league or match id, dropped")
			return
		}
		if err := s.sink.ReportResult(ctx, msg.League, msg.MatchID, msg.Outcome); err != nil {
			s.logger.WithError(err).WithFields(logrus.Fields{
				"league":   msg.League,
				"match_id": msg.MatchID,
			}).Warn("Result report rejected")
		}
	default:
		s.logger.WithField("op", msg.Op).Debug("Unknown result feed op ignored")
	}
}

// IsConnected reports whether the feed connection is live
func (s *StreamClient) IsConnected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connected
}

// LastMessageTime returns when the last frame arrived
func (s *StreamClient) LastMessageTime() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastMessageTime
}

// Close tears down the current connection
func (s *StreamClient) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		return nil
	}
	s.connected = false
	err := s.conn.Close()
	s.conn = nil
	return err
}
