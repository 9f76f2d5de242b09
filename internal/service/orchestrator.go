package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Scardubu/sabiscore/internal/betting"
	"github.com/Scardubu/sabiscore/internal/cache"
	"github.com/Scardubu/sabiscore/internal/calibration"
	"github.com/Scardubu/sabiscore/internal/datasource"
	"github.com/Scardubu/sabiscore/internal/logger"
	"github.com/Scardubu/sabiscore/internal/metrics"
	"github.com/Scardubu/sabiscore/internal/models"
	"github.com/Scardubu/sabiscore/internal/repository"
)

// rawProbCapacity bounds the in-memory map pairing served predictions with
// later result reports. Results usually arrive within a matchday, so a few
// thousand fixtures of headroom is plenty.
const rawProbCapacity = 4096

// PredictRequest carries everything needed to price one fixture. Context is
// optional; when absent the orchestrator fetches it from the aggregator.
// Odds are optional; without them no value-bet evaluation happens.
type PredictRequest struct {
	League   string             `json:"league"`
	MatchID  string             `json:"match_id"`
	Context  models.MatchContext `json:"context,omitempty"`
	Odds     *betting.MatchOdds `json:"odds,omitempty"`
	Bankroll float64            `json:"bankroll,omitempty"`
}

// Orchestrator runs the prediction pipeline: cache, context acquisition,
// feature extraction, ensemble inference, calibration correction and
// value-bet evaluation. It also receives finished-match results and feeds
// them to the calibration buffer.
type Orchestrator struct {
	registry   *Registry
	store      *calibration.Store
	buffer     *calibration.Buffer
	cache      cache.ResponseCache
	detector   *betting.Detector
	aggregator datasource.Aggregator
	resultRepo repository.ResultRepository
	bankroll   float64
	audit      *logger.AuditLogger
	logger     *logrus.Logger

	// rawProbs remembers the pre-correction distribution served for a
	// fixture so the matching result report can form a calibration pair.
	rawMu    sync.Mutex
	rawProbs map[string][3]float64
	rawOrder []string
}

// OrchestratorDeps bundles the orchestrator's collaborators. ResultRepo
// and Aggregator may be nil; the corresponding behavior degrades.
type OrchestratorDeps struct {
	Registry   *Registry
	Store      *calibration.Store
	Buffer     *calibration.Buffer
	Cache      cache.ResponseCache
	Detector   *betting.Detector
	Aggregator datasource.Aggregator
	ResultRepo repository.ResultRepository
	Bankroll   float64
	Audit      *logger.AuditLogger
	Logger     *logrus.Logger
}

// NewOrchestrator wires the prediction pipeline
func NewOrchestrator(deps OrchestratorDeps) *Orchestrator {
	return &Orchestrator{
		registry:   deps.Registry,
		store:      deps.Store,
		buffer:     deps.Buffer,
		cache:      deps.Cache,
		detector:   deps.Detector,
		aggregator: deps.Aggregator,
		resultRepo: deps.ResultRepo,
		bankroll:   deps.Bankroll,
		audit:      deps.Audit,
		logger:     deps.Logger,
		rawProbs:   make(map[string][3]float64, rawProbCapacity),
	}
}

func rawProbKey(league, matchID string) string {
	return league + ":" + matchID
}

// Predict prices one fixture end to end
func (o *Orchestrator) Predict(ctx context.Context, req PredictRequest) (*models.PredictionResponse, error) {
	start := time.Now()

	entry, err := o.registry.Resolve(req.League)
	if err != nil {
		metrics.PredictionErrorsTotal.WithLabelValues("unknown_league").Inc()
		return nil, err
	}
	league := entry.Name

	version := entry.Model.Version()
	if version == "" {
		metrics.PredictionErrorsTotal.WithLabelValues("model_not_trained").Inc()
		return nil, fmt.Errorf("%w: league %s", models.ErrModelNotTrained, league)
	}

	key := cache.Key{League: league, MatchID: req.MatchID, ModelVersion: version}
	if o.cache != nil {
		if cached := o.cache.Get(ctx, key); cached != nil {
			metrics.PredictionsServedTotal.WithLabelValues(league).Inc()
			metrics.PredictionLatency.WithLabelValues(league).Observe(time.Since(start).Seconds())
			return cached, nil
		}
	}

	mc := req.Context
	if len(mc) == 0 {
		if o.aggregator == nil {
			metrics.PredictionErrorsTotal.WithLabelValues("data_unavailable").Inc()
			return nil, fmt.Errorf("%w: no match context supplied and no aggregator configured", models.ErrDataUnavailable)
		}
		mc, err = o.aggregator.FetchMatchContext(ctx, league, req.MatchID)
		if err != nil {
			metrics.PredictionErrorsTotal.WithLabelValues("data_unavailable").Inc()
			return nil, err
		}
	}

	vec, err := entry.Extractor.Extract(ctx, mc)
	if err != nil {
		metrics.PredictionErrorsTotal.WithLabelValues("extraction").Inc()
		return nil, err
	}

	blended, err := entry.Model.RawPredict(vec)
	if err != nil {
		metrics.PredictionErrorsTotal.WithLabelValues("inference").Inc()
		return nil, err
	}
	adjusted := entry.Model.AdjustedFromRaw(blended, mc)
	result := o.store.Apply(league, adjusted)

	o.rememberRawProbs(league, req.MatchID, adjusted)

	resp := &models.PredictionResponse{
		League:       league,
		MatchID:      req.MatchID,
		Predictions:  result,
		ModelVersion: version,
		GeneratedAt:  time.Now().UTC(),
	}

	if req.Odds != nil {
		bankroll := req.Bankroll
		if bankroll <= 0 {
			bankroll = o.bankroll
		}
		resp.ValueBets = o.detector.Evaluate(league, result, *req.Odds, bankroll)
		for _, candidate := range resp.ValueBets {
			metrics.ValueBetCandidatesTotal.WithLabelValues(league).Inc()
			if o.audit != nil {
				o.audit.LogValueBet(league, req.MatchID, version, candidate)
			}
		}
	}

	if o.cache != nil {
		// Cache writes never block or fail the request
		go o.cache.Put(context.WithoutCancel(ctx), key, resp)
	}

	metrics.PredictionsServedTotal.WithLabelValues(league).Inc()
	metrics.PredictionLatency.WithLabelValues(league).Observe(time.Since(start).Seconds())
	return resp, nil
}

// ReportResult ingests a finished-match outcome. The record lands in the
// rolling calibration buffer immediately; the durable append is best-effort.
func (o *Orchestrator) ReportResult(ctx context.Context, league, matchID, outcomeCode string) error {
	entry, err := o.registry.Resolve(league)
	if err != nil {
		return err
	}
	outcome, ok := models.ParseOutcome(outcomeCode)
	if !ok {
		return fmt.Errorf("unrecognized outcome code %q", outcomeCode)
	}

	rec := models.LiveResultRecord{
		League:    entry.Name,
		MatchID:   matchID,
		Outcome:   outcome,
		Timestamp: time.Now().UTC(),
		RawProbs:  o.takeRawProbs(entry.Name, matchID),
	}

	o.buffer.Append(rec)
	metrics.ResultsIngestedTotal.WithLabelValues(entry.Name).Inc()
	metrics.ResultBufferDepth.WithLabelValues(entry.Name).Set(float64(o.buffer.Len(entry.Name)))

	if o.resultRepo != nil {
		if err := o.resultRepo.Append(ctx, &rec); err != nil {
			o.logger.WithError(err).WithFields(logrus.Fields{
				"league":   entry.Name,
				"match_id": matchID,
			}).Warn("Durable result append failed, buffer retains the record")
		}
	}

	o.logger.WithFields(logrus.Fields{
		"league":   entry.Name,
		"match_id": matchID,
		"outcome":  outcome,
	}).Debug("Result ingested")
	return nil
}

// InvalidateMatch drops any cached prediction for a fixture, for example
// after a lineup change invalidates the served context.
func (o *Orchestrator) InvalidateMatch(ctx context.Context, league, matchID string) error {
	entry, err := o.registry.Resolve(league)
	if err != nil {
		return err
	}
	if o.cache != nil {
		o.cache.Delete(ctx, cache.Key{
			League:       entry.Name,
			MatchID:      matchID,
			ModelVersion: entry.Model.Version(),
		})
	}
	return nil
}

func (o *Orchestrator) rememberRawProbs(league, matchID string, probs [3]float64) {
	key := rawProbKey(league, matchID)
	o.rawMu.Lock()
	defer o.rawMu.Unlock()

	if _, exists := o.rawProbs[key]; !exists {
		o.rawOrder = append(o.rawOrder, key)
	}
	o.rawProbs[key] = probs

	for len(o.rawOrder) > rawProbCapacity {
		oldest := o.rawOrder[0]
		o.rawOrder = o.rawOrder[1:]
		delete(o.rawProbs, oldest)
	}
}

// takeRawProbs removes and returns the remembered distribution for a
// fixture. A result with no matching prediction yields zeros, which the
// recalibration fit discards.
func (o *Orchestrator) takeRawProbs(league, matchID string) [3]float64 {
	key := rawProbKey(league, matchID)
	o.rawMu.Lock()
	defer o.rawMu.Unlock()

	probs, ok := o.rawProbs[key]
	if !ok {
		return [3]float64{}
	}
	delete(o.rawProbs, key)
	for i, k := range o.rawOrder {
		if k == key {
			o.rawOrder = append(o.rawOrder[:i], o.rawOrder[i+1:]...)
			break
		}
	}
	return probs
}

// ErrorKind maps a pipeline error to its taxonomy label, used by transport
// layers for status mapping and by metrics for counting.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, models.ErrUnknownLeague):
		return "unknown_league"
	case errors.Is(err, models.ErrModelNotTrained):
		return "model_not_trained"
	case errors.Is(err, models.ErrDataUnavailable):
		return "data_unavailable"
	case errors.Is(err, models.ErrInsufficientCalibrationData):
		return "insufficient_calibration_data"
	case errors.Is(err, models.ErrInvalidOdds):
		return "invalid_odds"
	default:
		return "internal"
	}
}
