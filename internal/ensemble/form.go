package ensemble

import (
	"fmt"
	"math"

	"github.com/Scardubu/sabiscore/internal/feature"
	"github.com/Scardubu/sabiscore/internal/models"
)

// FormLearner is a rating-differential heuristic: Elo gap plus recent form
// gap pushed through a softmax, with the draw rate anchored to the league's
// observed draw frequency. Deliberately simple; it earns its blend weight by
// being stable when the richer learners overfit thin training sets.
type FormLearner struct {
	eloHomeIdx  int
	eloAwayIdx  int
	formHomeIdx int
	formAwayIdx int

	drawBase float64
	homeEdge float64
	fitted   bool
}

// NewFormLearner binds the learner to the rating features of a schema
func NewFormLearner(schema *feature.Schema) (*FormLearner, error) {
	idx := map[string]int{}
	for i, key := range schema.Keys() {
		idx[key] = i
	}
	required := []string{"home_elo_rating", "away_elo_rating", "home_form_points_last5", "away_form_points_last5"}
	for _, key := range required {
		if _, ok := idx[key]; !ok {
			return nil, fmt.Errorf("schema %s missing feature %q", schema.League, key)
		}
	}
	return &FormLearner{
		eloHomeIdx:  idx["home_elo_rating"],
		eloAwayIdx:  idx["away_elo_rating"],
		formHomeIdx: idx["home_form_points_last5"],
		formAwayIdx: idx["away_form_points_last5"],
	}, nil
}

// Name returns the learner name used in blend weights
func (f *FormLearner) Name() string {
	return "form"
}

// Fit estimates the league draw base rate and home-edge offset
func (f *FormLearner) Fit(vectors []models.FeatureVector, outcomes []models.Outcome) error {
	ds := Dataset{Vectors: vectors, Outcomes: outcomes}
	if err := ds.Validate(); err != nil {
		return fmt.Errorf("form fit: %w", err)
	}

	var draws, homeWins int
	for _, o := range outcomes {
		switch o {
		case models.OutcomeDraw:
			draws++
		case models.OutcomeHomeWin:
			homeWins++
		}
	}
	n := float64(len(outcomes))
	f.drawBase = float64(draws) / n
	if f.drawBase < 0.1 {
		f.drawBase = 0.1
	}
	// Home edge as a logit offset derived from the home-win frequency
	homeRate := float64(homeWins) / n
	f.homeEdge = math.Log((homeRate + 0.05) / (1 - homeRate + 0.05))
	f.fitted = true
	return nil
}

// PredictProbs converts rating and form gaps into outcome probabilities
func (f *FormLearner) PredictProbs(vec models.FeatureVector) ([3]float64, error) {
	if !f.fitted {
		return [3]float64{}, models.ErrModelNotTrained
	}
	maxIdx := f.eloAwayIdx
	for _, i := range []int{f.eloHomeIdx, f.formHomeIdx, f.formAwayIdx} {
		if i > maxIdx {
			maxIdx = i
		}
	}
	if len(vec) <= maxIdx {
		return [3]float64{}, fmt.Errorf("vector too short for rating features")
	}

	eloGap := (vec[f.eloHomeIdx] - vec[f.eloAwayIdx]) / 400.0
	formGap := (vec[f.formHomeIdx] - vec[f.formAwayIdx]) / 15.0
	strength := eloGap + 0.5*formGap + 0.5*f.homeEdge

	pHomeGivenDecisive := sigmoid(2.2 * strength)
	// Evenly matched sides draw more; scale the draw mass by closeness
	closeness := math.Exp(-math.Abs(strength) * 1.5)
	pDraw := f.drawBase * (0.7 + 0.6*closeness)
	if pDraw > 0.5 {
		pDraw = 0.5
	}

	decisive := 1 - pDraw
	return normalizeProbs([3]float64{
		decisive * pHomeGivenDecisive,
		pDraw,
		decisive * (1 - pHomeGivenDecisive),
	}), nil
}
