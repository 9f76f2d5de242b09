package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/Scardubu/sabiscore/internal/logger"
	"github.com/Scardubu/sabiscore/internal/metrics"
	"github.com/Scardubu/sabiscore/internal/models"
)

// MinTrainingSamples is the smallest per-league dataset worth fitting.
// Below this the league keeps its previous model.
const MinTrainingSamples = 50

// holdoutFraction of each league's dataset is reserved for validation
const holdoutFraction = 0.2

// ValidationReport summarizes one league's training run
type ValidationReport struct {
	League       string  `json:"league"`
	ModelVersion string  `json:"model_version"`
	Samples      int     `json:"samples"`
	Holdout      int     `json:"holdout"`
	Accuracy     float64 `json:"accuracy"`
	Brier        float64 `json:"brier_score"`
}

// Trainer fits league models from historical matches. Training runs
// offline or at startup; serving continues on the previous fit until the
// new one replaces it under the model's write lock.
type Trainer struct {
	registry *Registry
	audit    *logger.AuditLogger
	logger   *logrus.Logger
}

// NewTrainer creates a trainer over the registry's models
func NewTrainer(registry *Registry, audit *logger.AuditLogger, log *logrus.Logger) *Trainer {
	return &Trainer{registry: registry, audit: audit, logger: log}
}

// TrainAll groups matches by league and fits each league's model. One
// league failing does not stop the others; the joined error reports every
// failure alongside the successful reports.
func (t *Trainer) TrainAll(ctx context.Context, matches []*models.HistoricalMatch) ([]ValidationReport, error) {
	byLeague := make(map[string][]*models.HistoricalMatch)
	for _, match := range matches {
		entry, err := t.registry.Resolve(match.League)
		if err != nil {
			t.logger.WithField("league", match.League).Warn("Skipping match for unregistered league")
			continue
		}
		byLeague[entry.Name] = append(byLeague[entry.Name], match)
	}

	leagues := make([]string, 0, len(byLeague))
	for league := range byLeague {
		leagues = append(leagues, league)
	}
	sort.Strings(leagues)

	var (
		reports []ValidationReport
		errs    []error
	)
	for _, league := range leagues {
		if err := ctx.Err(); err != nil {
			return reports, err
		}
		report, err := t.trainLeague(ctx, league, byLeague[league])
		if err != nil {
			errs = append(errs, fmt.Errorf("league %s: %w", league, err))
			t.logger.WithError(err).WithField("league", league).Error("Training failed, previous model retained")
			continue
		}
		reports = append(reports, report)
	}

	metrics.TrainedModels.Set(float64(t.registry.TrainedCount()))
	return reports, errors.Join(errs...)
}

// Validate scores the league's current model on a labeled dataset without
// refitting it.
func (t *Trainer) Validate(ctx context.Context, league string, matches []*models.HistoricalMatch) (ValidationReport, error) {
	entry, err := t.registry.Resolve(league)
	if err != nil {
		return ValidationReport{}, err
	}
	vectors, outcomes, err := t.buildDataset(ctx, entry, matches)
	if err != nil {
		return ValidationReport{}, err
	}
	if len(vectors) == 0 {
		return ValidationReport{}, fmt.Errorf("no usable matches for %s", entry.Name)
	}

	accuracy, brier, err := t.score(entry, vectors, outcomes)
	if err != nil {
		return ValidationReport{}, err
	}
	return ValidationReport{
		League:       entry.Name,
		ModelVersion: entry.Model.Version(),
		Samples:      len(vectors),
		Holdout:      len(vectors),
		Accuracy:     accuracy,
		Brier:        brier,
	}, nil
}

func (t *Trainer) trainLeague(ctx context.Context, league string, matches []*models.HistoricalMatch) (ValidationReport, error) {
	entry, err := t.registry.Resolve(league)
	if err != nil {
		return ValidationReport{}, err
	}

	// Oldest first so the holdout is the most recent slice
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].KickoffAt.Before(matches[j].KickoffAt)
	})

	vectors, outcomes, err := t.buildDataset(ctx, entry, matches)
	if err != nil {
		return ValidationReport{}, err
	}
	if len(vectors) < MinTrainingSamples {
		return ValidationReport{}, fmt.Errorf("%d usable matches, need at least %d", len(vectors), MinTrainingSamples)
	}

	holdout := int(float64(len(vectors)) * holdoutFraction)
	if holdout < 1 {
		holdout = 1
	}
	split := len(vectors) - holdout

	if err := entry.Model.Train(vectors[:split], outcomes[:split]); err != nil {
		return ValidationReport{}, err
	}

	accuracy, brier, err := t.score(entry, vectors[split:], outcomes[split:])
	if err != nil {
		return ValidationReport{}, err
	}

	report := ValidationReport{
		League:       entry.Name,
		ModelVersion: entry.Model.Version(),
		Samples:      split,
		Holdout:      holdout,
		Accuracy:     accuracy,
		Brier:        brier,
	}
	if t.audit != nil {
		t.audit.LogModelTrained(entry.Name, report.ModelVersion, report.Samples, accuracy, brier)
	}
	t.logger.WithFields(logrus.Fields{
		"league":   entry.Name,
		"samples":  report.Samples,
		"holdout":  report.Holdout,
		"accuracy": fmt.Sprintf("%.3f", accuracy),
		"brier":    fmt.Sprintf("%.4f", brier),
		"version":  report.ModelVersion,
	}).Info("League model trained")
	return report, nil
}

func (t *Trainer) buildDataset(ctx context.Context, entry *LeagueEntry, matches []*models.HistoricalMatch) ([]models.FeatureVector, []models.Outcome, error) {
	vectors := make([]models.FeatureVector, 0, len(matches))
	outcomes := make([]models.Outcome, 0, len(matches))
	for _, match := range matches {
		if !match.Outcome.Valid() {
			continue
		}
		vec, err := entry.Extractor.Extract(ctx, match.Context)
		if err != nil {
			return nil, nil, fmt.Errorf("extract %s: %w", match.MatchID, err)
		}
		vectors = append(vectors, vec)
		outcomes = append(outcomes, match.Outcome)
	}
	return vectors, outcomes, nil
}

// score computes argmax accuracy and the multiclass Brier score over a
// labeled set.
func (t *Trainer) score(entry *LeagueEntry, vectors []models.FeatureVector, outcomes []models.Outcome) (accuracy, brier float64, err error) {
	if len(vectors) == 0 {
		return 0, 0, fmt.Errorf("empty validation set")
	}
	correct := 0
	brierSum := 0.0
	for i, vec := range vectors {
		probs, err := entry.Model.RawPredict(vec)
		if err != nil {
			return 0, 0, err
		}
		predicted := 0
		for k := 1; k < 3; k++ {
			if probs[k] > probs[predicted] {
				predicted = k
			}
		}
		actual := outcomes[i].Index()
		if predicted == actual {
			correct++
		}
		for k := 0; k < 3; k++ {
			y := 0.0
			if k == actual {
				y = 1.0
			}
			brierSum += math.Pow(probs[k]-y, 2)
		}
	}
	n := float64(len(vectors))
	return float64(correct) / n, brierSum / n, nil
}
