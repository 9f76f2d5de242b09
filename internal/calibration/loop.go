package calibration

import (
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/Scardubu/sabiscore/internal/metrics"
	"github.com/Scardubu/sabiscore/internal/models"
)

const (
	// DefaultInterval between recalibration ticks
	DefaultInterval = 180 * time.Second
	// DefaultMinSamples of new results a league needs before a fit runs
	DefaultMinSamples = 30
	// DefaultIsotonicMinSamples below which Platt scaling is used instead
	// of isotonic regression (the step curve overfits thin windows)
	DefaultIsotonicMinSamples = 80
)

// LoopConfig parameterizes the recalibration loop
type LoopConfig struct {
	Interval           time.Duration
	MinSamples         int
	IsotonicMinSamples int
}

// DefaultLoopConfig returns the documented defaults
func DefaultLoopConfig() LoopConfig {
	return LoopConfig{
		Interval:           DefaultInterval,
		MinSamples:         DefaultMinSamples,
		IsotonicMinSamples: DefaultIsotonicMinSamples,
	}
}

// Loop is the timer-driven recalibration task. A single instance runs per
// process; it communicates with request serving only through the buffer it
// reads and the snapshots it publishes. One league's failure never aborts
// the tick for the others.
type Loop struct {
	cfg    LoopConfig
	store  *Store
	buffer *Buffer
	logger *logrus.Logger

	cron   *cron.Cron
	mu     sync.Mutex
	lastFit map[string]uint64
	running bool
}

// NewLoop creates a recalibration loop over the given store and buffer
func NewLoop(cfg LoopConfig, store *Store, buffer *Buffer, logger *logrus.Logger) *Loop {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.MinSamples <= 0 {
		cfg.MinSamples = DefaultMinSamples
	}
	if cfg.IsotonicMinSamples <= 0 {
		cfg.IsotonicMinSamples = DefaultIsotonicMinSamples
	}
	return &Loop{
		cfg:     cfg,
		store:   store,
		buffer:  buffer,
		logger:  logger,
		cron:    cron.New(cron.WithLocation(time.UTC)),
		lastFit: make(map[string]uint64),
	}
}

// Start schedules the periodic tick
func (l *Loop) Start() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.running {
		return fmt.Errorf("recalibration loop already running")
	}
	spec := fmt.Sprintf("@every %ds", int(l.cfg.Interval.Seconds()))
	if _, err := l.cron.AddFunc(spec, l.Tick); err != nil {
		return fmt.Errorf("failed to schedule recalibration: %w", err)
	}
	l.cron.Start()
	l.running = true
	l.logger.WithField("interval", l.cfg.Interval.String()).Info("Recalibration loop started")
	return nil
}

// Stop halts the loop, waiting for an in-flight tick to finish
func (l *Loop) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.running {
		return
	}
	<-l.cron.Stop().Done()
	l.running = false
	l.logger.Info("Recalibration loop stopped")
}

// Tick runs one recalibration pass over every league in the buffer
func (l *Loop) Tick() {
	start := time.Now()
	for _, league := range l.buffer.Leagues() {
		if err := l.recalibrateLeague(league); err != nil {
			metrics.RecalibrationFailuresTotal.WithLabelValues(league).Inc()
			l.logger.WithError(err).WithField("league", league).Error("Recalibration failed for league")
		}
		metrics.ResultBufferDepth.WithLabelValues(league).Set(float64(l.buffer.Len(league)))
	}
	metrics.RecalibrationDuration.Observe(time.Since(start).Seconds())
}

func (l *Loop) recalibrateLeague(league string) error {
	l.mu.Lock()
	last := l.lastFit[league]
	l.mu.Unlock()

	total := l.buffer.TotalAppended(league)
	newSamples := int(total - last)
	if newSamples < l.cfg.MinSamples {
		metrics.RecalibrationSkipsTotal.WithLabelValues(league).Inc()
		l.logger.WithFields(logrus.Fields{
			"league":      league,
			"new_samples": newSamples,
			"min_samples": l.cfg.MinSamples,
		}).Debug("Skipping recalibration, not enough new samples")
		return nil
	}

	records := l.buffer.Snapshot(league)
	lp := l.store.LeagueParams(league)
	for i := range lp.Outcomes {
		lp.Outcomes[i].State = StateRecalibrating
	}

	fitted := 0
	for k, outcome := range models.Outcomes {
		samples := outcomeSamples(records, k)
		params, err := fitOutcome(samples, l.cfg.IsotonicMinSamples)
		if err != nil {
			// Keep the previous correction for this outcome
			lp.Outcomes[k].State = stateAfterFit(lp.Outcomes[k])
			l.logger.WithError(err).WithFields(logrus.Fields{
				"league":  league,
				"outcome": outcome,
			}).Warn("Outcome correction not refitted")
			continue
		}
		lp.Outcomes[k] = params
		fitted++
	}

	if fitted == 0 {
		return fmt.Errorf("%w: no outcome had usable samples", models.ErrInsufficientCalibrationData)
	}

	l.store.PublishLeague(league, lp)
	l.mu.Lock()
	l.lastFit[league] = total
	l.mu.Unlock()

	metrics.RecalibrationRunsTotal.WithLabelValues(league).Inc()
	l.logger.WithFields(logrus.Fields{
		"league":      league,
		"samples":     len(records),
		"new_samples": newSamples,
		"fitted":      fitted,
	}).Info("Calibration parameters published")
	return nil
}

// outcomeSamples extracts (raw probability, hit) pairs for one outcome.
// Records without recorded raw probabilities cannot be paired and are
// dropped.
func outcomeSamples(records []models.LiveResultRecord, outcomeIdx int) []Sample {
	samples := make([]Sample, 0, len(records))
	for _, rec := range records {
		sum := rec.RawProbs[0] + rec.RawProbs[1] + rec.RawProbs[2]
		if sum <= 0 {
			continue
		}
		samples = append(samples, Sample{
			RawProb: rec.RawProbs[outcomeIdx],
			Hit:     rec.Outcome.Index() == outcomeIdx,
		})
	}
	return samples
}

func fitOutcome(samples []Sample, isotonicMin int) (Params, error) {
	now := time.Now()
	if len(samples) >= isotonicMin {
		curve, err := FitIsotonic(samples)
		if err == nil {
			return Params{
				Method:      MethodIsotonic,
				Curve:       curve,
				SampleCount: len(samples),
				UpdatedAt:   now,
				State:       StateCalibrated,
			}, nil
		}
		// Fall through to Platt on isotonic failure
	}
	platt, err := FitPlatt(samples)
	if err != nil {
		return Params{}, err
	}
	return Params{
		Method:      MethodPlatt,
		Platt:       platt,
		SampleCount: len(samples),
		UpdatedAt:   now,
		State:       StateCalibrated,
	}, nil
}

func stateAfterFit(prev Params) State {
	if prev.Method == MethodIdentity && prev.SampleCount == 0 {
		return StateUninitialized
	}
	return StateCalibrated
}
