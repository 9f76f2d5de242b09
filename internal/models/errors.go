package models

import "errors"

// Prediction error taxonomy. Everything the orchestrator surfaces maps to
// one of these sentinels; raw learner errors never cross the boundary.
var (
	// ErrModelNotTrained indicates the league resolved but has no fitted ensemble
	ErrModelNotTrained = errors.New("model not trained")

	// ErrUnknownLeague indicates league alias resolution failed
	ErrUnknownLeague = errors.New("unknown league")

	// ErrInsufficientCalibrationData indicates a recalibration tick skipped a league.
	// Not a request failure; the loop logs it and moves on.
	ErrInsufficientCalibrationData = errors.New("insufficient calibration data")

	// ErrDataUnavailable indicates match context could not be fetched in time
	ErrDataUnavailable = errors.New("match data unavailable")

	// ErrInvalidOdds indicates decimal odds at or below 1.0
	ErrInvalidOdds = errors.New("invalid odds")
)
