package datasource

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Scardubu/sabiscore/internal/models"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func testClient() *RateLimitedHTTPClient {
	cfg := DefaultHTTPClientConfig()
	cfg.Timeout = 500 * time.Millisecond
	cfg.MaxRetries = 0
	return NewRateLimitedHTTPClient(cfg, testLogger())
}

func TestFetchMatchContext(t *testing.T) {
	var gotPath, gotKey string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("X-Api-Key")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"home_elo_rating":1650,"away_elo_rating":1500,"weather_rain_mm":4}`))
	}))
	defer server.Close()

	agg := NewHTTPAggregator(server.URL, "secret", 500*time.Millisecond, testClient(), testLogger())
	mc, err := agg.FetchMatchContext(context.Background(), "epl", "m-42")
	require.NoError(t, err)

	assert.Equal(t, "/v1/leagues/epl/matches/m-42/context", gotPath)
	assert.Equal(t, "secret", gotKey)
	assert.Equal(t, 1650.0, mc["home_elo_rating"])
	assert.Len(t, mc, 3)
}

func TestFetchMatchContextFailures(t *testing.T) {
	t.Run("non-200 status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		agg := NewHTTPAggregator(server.URL, "", 500*time.Millisecond, testClient(), testLogger())
		_, err := agg.FetchMatchContext(context.Background(), "epl", "m1")
		require.Error(t, err)
		assert.True(t, errors.Is(err, models.ErrDataUnavailable))
	})

	t.Run("empty context payload", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{}`))
		}))
		defer server.Close()

		agg := NewHTTPAggregator(server.URL, "", 500*time.Millisecond, testClient(), testLogger())
		_, err := agg.FetchMatchContext(context.Background(), "epl", "m1")
		assert.True(t, errors.Is(err, models.ErrDataUnavailable))
	})

	t.Run("unreadable payload", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`not json`))
		}))
		defer server.Close()

		agg := NewHTTPAggregator(server.URL, "", 500*time.Millisecond, testClient(), testLogger())
		_, err := agg.FetchMatchContext(context.Background(), "epl", "m1")
		assert.True(t, errors.Is(err, models.ErrDataUnavailable))
	})

	t.Run("slow upstream times out", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(300 * time.Millisecond)
			w.Write([]byte(`{"home_elo_rating":1650}`))
		}))
		defer server.Close()

		agg := NewHTTPAggregator(server.URL, "", 50*time.Millisecond, testClient(), testLogger())
		_, err := agg.FetchMatchContext(context.Background(), "epl", "m1")
		require.Error(t, err)
		assert.True(t, errors.Is(err, models.ErrDataUnavailable))
	})
}
