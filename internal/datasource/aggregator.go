package datasource

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Scardubu/sabiscore/internal/models"
)

// Aggregator supplies raw match context for a fixture. The production
// implementation talks to the external data-aggregation service; tests
// and offline tooling substitute their own.
type Aggregator interface {
	FetchMatchContext(ctx context.Context, league, matchID string) (models.MatchContext, error)
}

// HTTPAggregator fetches match context over HTTP with a hard deadline.
// Timeouts and bad payloads surface as ErrDataUnavailable so the request
// fails fast and stays retryable.
type HTTPAggregator struct {
	baseURL string
	apiKey  string
	timeout time.Duration
	client  *RateLimitedHTTPClient
	logger  *logrus.Logger
}

// NewHTTPAggregator creates an aggregator client
func NewHTTPAggregator(baseURL, apiKey string, timeout time.Duration, client *RateLimitedHTTPClient, logger *logrus.Logger) *HTTPAggregator {
	if timeout <= 0 {
		timeout = DefaultHTTPClientConfig().Timeout
	}
	return &HTTPAggregator{
		baseURL: baseURL,
		apiKey:  apiKey,
		timeout: timeout,
		client:  client,
		logger:  logger,
	}
}

// FetchMatchContext retrieves the raw statistics map for one fixture
func (a *HTTPAggregator) FetchMatchContext(ctx context.Context, league, matchID string) (models.MatchContext, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	endpoint := fmt.Sprintf("%s/v1/leagues/%s/matches/%s/context",
		a.baseURL, url.PathEscape(league), url.PathEscape(matchID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build aggregator request: %w", err)
	}
	if a.apiKey != "" {
		req.Header.Set("X-Api-Key", a.apiKey)
	}

	resp, err := a.client.Do(ctx, req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
			return nil, fmt.Errorf("%w: aggregator timed out for %s/%s", models.ErrDataUnavailable, league, matchID)
		}
		return nil, fmt.Errorf("%w: aggregator request failed: %v", models.ErrDataUnavailable, err)
	}
	defer drainBody(resp)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: aggregator returned status %d", models.ErrDataUnavailable, resp.StatusCode)
	}

	var mc models.MatchContext
	if err := json.NewDecoder(resp.Body).Decode(&mc); err != nil {
		return nil, fmt.Errorf("%w: aggregator payload unreadable: %v", models.ErrDataUnavailable, err)
	}
	if len(mc) == 0 {
		return nil, fmt.Errorf("%w: aggregator returned empty context", models.ErrDataUnavailable)
	}

	a.logger.WithFields(logrus.Fields{
		"league":   league,
		"match_id": matchID,
		"fields":   len(mc),
	}).Debug("Match context fetched")
	return mc, nil
}
