package calibration

import (
	"sync/atomic"
	"time"

	"github.com/Scardubu/sabiscore/internal/models"
)

// State tracks the lifecycle of one (league, outcome) correction
type State string

const (
	StateUninitialized State = "uninitialized"
	StateCalibrated    State = "calibrated"
	StateRecalibrating State = "recalibrating"
)

// Method names the fitted correction family
type Method string

const (
	MethodIdentity Method = "identity"
	MethodPlatt    Method = "platt"
	MethodIsotonic Method = "isotonic"
)

// Params is the correction for one (league, outcome) pair
type Params struct {
	Method      Method         `json:"method"`
	Platt       PlattParams    `json:"platt"`
	Curve       *IsotonicCurve `json:"curve,omitempty"`
	SampleCount int            `json:"sample_count"`
	UpdatedAt   time.Time      `json:"updated_at"`
	State       State          `json:"state"`
}

// Apply maps a raw probability through the fitted correction
func (p Params) Apply(raw float64) float64 {
	switch p.Method {
	case MethodIsotonic:
		return clamp01(p.Curve.Apply(raw))
	case MethodPlatt:
		return clamp01(p.Platt.Apply(raw))
	}
	return raw
}

// LeagueParams holds corrections for the three outcomes in canonical order
type LeagueParams struct {
	Outcomes [3]Params `json:"outcomes"`
}

func uninitializedLeague() LeagueParams {
	var lp LeagueParams
	for i := range lp.Outcomes {
		lp.Outcomes[i] = Params{Method: MethodIdentity, State: StateUninitialized}
	}
	return lp
}

// Snapshot is one immutable, complete calibration state. Readers hold a
// snapshot for the duration of a request; writers build a fresh one and
// publish it in a single pointer swap, so no reader ever observes a mix of
// old and new parameters.
type Snapshot struct {
	Leagues     map[string]LeagueParams
	PublishedAt time.Time
}

func (s *Snapshot) clone() *Snapshot {
	leagues := make(map[string]LeagueParams, len(s.Leagues))
	for k, v := range s.Leagues {
		leagues[k] = v
	}
	return &Snapshot{Leagues: leagues}
}

// Store publishes calibration snapshots. Reads are lock-free on the request
// path; only the recalibration loop writes.
type Store struct {
	snap atomic.Pointer[Snapshot]
}

// NewStore creates a store holding an empty snapshot
func NewStore() *Store {
	s := &Store{}
	s.snap.Store(&Snapshot{
		Leagues:     make(map[string]LeagueParams),
		PublishedAt: time.Now(),
	})
	return s
}

// Current returns the active snapshot
func (s *Store) Current() *Snapshot {
	return s.snap.Load()
}

// LeagueParams returns the active corrections for a league. An unseen
// league reads as uninitialized identity corrections.
func (s *Store) LeagueParams(league string) LeagueParams {
	if lp, ok := s.Current().Leagues[league]; ok {
		return lp
	}
	return uninitializedLeague()
}

// PublishLeague builds a new snapshot with the league's corrections
// replaced and atomically swaps it in.
func (s *Store) PublishLeague(league string, lp LeagueParams) {
	next := s.Current().clone()
	next.Leagues[league] = lp
	next.PublishedAt = time.Now()
	s.snap.Store(next)
}

// Apply runs the league's corrections over raw probabilities and returns
// the renormalized result. Uninitialized corrections pass raw through.
func (s *Store) Apply(league string, raw [3]float64) models.PredictionResult {
	lp := s.LeagueParams(league)
	var corrected [3]float64
	for i, p := range raw {
		corrected[i] = lp.Outcomes[i].Apply(p)
	}
	return models.FromProbs(corrected)
}
