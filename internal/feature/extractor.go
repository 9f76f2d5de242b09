package feature

import (
	"context"
	"fmt"
	"math"

	"github.com/Scardubu/sabiscore/internal/models"
)

// Extractor builds feature vectors for one league's schema.
// Missing context fields take the schema defaults; extraction itself never
// fails on incomplete data, only on cancellation or a misconfigured schema.
type Extractor struct {
	schema *Schema
}

// NewExtractor creates an extractor bound to a league schema
func NewExtractor(schema *Schema) (*Extractor, error) {
	if schema == nil || schema.Length() == 0 {
		return nil, fmt.Errorf("feature schema is required")
	}
	return &Extractor{schema: schema}, nil
}

// Schema returns the bound schema
func (e *Extractor) Schema() *Schema {
	return e.schema
}

// Extract builds the league's fixed-length vector from a match context.
// Deterministic: identical contexts produce identical vectors.
func (e *Extractor) Extract(ctx context.Context, mc models.MatchContext) (models.FeatureVector, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: extraction cancelled: %v", models.ErrDataUnavailable, err)
	}

	vec := make(models.FeatureVector, 0, e.schema.Length())
	for _, domain := range e.schema.Domains {
		for _, spec := range domain.Features {
			v := mc.GetOr(spec.Key, spec.Default)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				v = spec.Default
			}
			vec = append(vec, applyTransform(spec.Transform, v))
		}
	}
	return vec, nil
}

func applyTransform(t Transform, v float64) float64 {
	switch t {
	case TransformLog1p:
		if v < 0 {
			v = 0
		}
		return math.Log1p(v)
	case TransformClamp01:
		if v < 0 {
			return 0
		}
		if v > 1 {
			return 1
		}
		return v
	}
	return v
}
