// Package logger provides audit logging.
package logger

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Scardubu/sabiscore/internal/models"
)

// AuditLogger provides a dedicated audit trail for decisions with
// financial exposure: value-bet recommendations, stake sizing and
// calibration parameter changes.
type AuditLogger struct {
	*logrus.Entry
}

// NewAuditLogger creates a new audit logger
func NewAuditLogger(baseLogger *logrus.Logger) *AuditLogger {
	return &AuditLogger{
		Entry: baseLogger.WithField("component", "audit"),
	}
}

// LogValueBet records an emitted value-bet candidate
func (al *AuditLogger) LogValueBet(league, matchID, modelVersion string, candidate models.ValueBetCandidate) {
	al.WithFields(logrus.Fields{
		"league":              league,
		"match_id":            matchID,
		"model_version":       modelVersion,
		"outcome":             candidate.Outcome,
		"edge":                candidate.EdgeValue,
		"implied_probability": candidate.ImpliedProbability,
		"fair_probability":    candidate.FairProbability,
		"recommended_stake":   candidate.RecommendedStake,
	}).Info("Value bet candidate emitted")
}

// LogCalibrationUpdate records a published calibration parameter change
func (al *AuditLogger) LogCalibrationUpdate(league string, sampleCount int, method string, updatedAt time.Time) {
	al.WithFields(logrus.Fields{
		"league":       league,
		"sample_count": sampleCount,
		"method":       method,
		"updated_at":   updatedAt.Unix(),
	}).Info("Calibration parameters updated")
}

// LogModelTrained records a completed training run
func (al *AuditLogger) LogModelTrained(league, modelVersion string, samples int, accuracy, brier float64) {
	al.WithFields(logrus.Fields{
		"league":        league,
		"model_version": modelVersion,
		"samples":       samples,
		"accuracy":      accuracy,
		"brier_score":   brier,
	}).Info("Model training recorded")
}
