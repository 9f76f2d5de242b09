package service

import (
	"fmt"
	"sort"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/Scardubu/sabiscore/internal/calibration"
	"github.com/Scardubu/sabiscore/internal/models"
)

// DefaultReportSchedule emits the model status report once a day
const DefaultReportSchedule = "@daily"

// Reporter periodically logs the state of every registered league: model
// version, calibration method per outcome and buffer depth. It is purely
// observational and never mutates model or calibration state.
type Reporter struct {
	registry *Registry
	store    *calibration.Store
	buffer   *calibration.Buffer
	logger   *logrus.Logger

	cron    *cron.Cron
	mu      sync.Mutex
	running bool
}

// NewReporter creates a status reporter over the registry and calibration state
func NewReporter(registry *Registry, store *calibration.Store, buffer *calibration.Buffer, logger *logrus.Logger) *Reporter {
	return &Reporter{
		registry: registry,
		store:    store,
		buffer:   buffer,
		logger:   logger,
		cron:     cron.New(),
	}
}

// Start schedules the report on the given cron spec, DefaultReportSchedule
// when empty
func (r *Reporter) Start(schedule string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		return fmt.Errorf("status reporter already running")
	}
	if schedule == "" {
		schedule = DefaultReportSchedule
	}
	if _, err := r.cron.AddFunc(schedule, r.Report); err != nil {
		return fmt.Errorf("failed to schedule status report: %w", err)
	}
	r.cron.Start()
	r.running = true
	r.logger.WithField("schedule", schedule).Info("Model status reporter started")
	return nil
}

// Stop halts the reporter
func (r *Reporter) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.running {
		return
	}
	<-r.cron.Stop().Done()
	r.running = false
}

// Report logs one status line per registered league
func (r *Reporter) Report() {
	leagues := r.registry.Leagues()
	sort.Strings(leagues)

	for _, league := range leagues {
		entry, err := r.registry.Resolve(league)
		if err != nil {
			continue
		}

		lp := r.store.LeagueParams(league)
		calibrated := 0
		samples := 0
		for k := range models.Outcomes {
			if lp.Outcomes[k].State == calibration.StateCalibrated {
				calibrated++
			}
			samples += lp.Outcomes[k].SampleCount
		}

		r.logger.WithFields(logrus.Fields{
			"league":              league,
			"trained":             entry.Model.Trained(),
			"model_version":       entry.Model.Version(),
			"features":            entry.Schema.Length(),
			"buffer_depth":        r.buffer.Len(league),
			"calibrated_outcomes": calibrated,
			"calibration_samples": samples,
		}).Info("League model status")
	}

	r.logger.WithFields(logrus.Fields{
		"leagues": len(leagues),
		"trained": r.registry.TrainedCount(),
	}).Info("Model status report complete")
}
