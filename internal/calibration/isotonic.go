// Package calibration maintains per-league probability-correction
// parameters, fitted from a rolling window of observed outcomes and
// published to readers as immutable snapshots.
package calibration

import (
	"fmt"
	"math"
	"sort"
)

// Sample pairs a raw ensemble probability with the observed binary outcome
type Sample struct {
	RawProb float64
	Hit     bool
}

// IsotonicCurve is a monotone non-decreasing mapping from raw probability
// to empirical frequency, stored as paired breakpoints and evaluated by
// linear interpolation.
type IsotonicCurve struct {
	X []float64 `json:"x"`
	Y []float64 `json:"y"`
}

// Apply maps a raw probability through the curve. Outside the fitted range
// the boundary value holds; an empty curve is the identity.
func (c *IsotonicCurve) Apply(p float64) float64 {
	if c == nil || len(c.X) == 0 {
		return p
	}
	if p <= c.X[0] {
		return c.Y[0]
	}
	last := len(c.X) - 1
	if p >= c.X[last] {
		return c.Y[last]
	}
	for i := 1; i <= last; i++ {
		if p <= c.X[i] {
			x0, x1 := c.X[i-1], c.X[i]
			y0, y1 := c.Y[i-1], c.Y[i]
			if x1 == x0 {
				return y1
			}
			w := (p - x0) / (x1 - x0)
			return y0 + w*(y1-y0)
		}
	}
	return c.Y[last]
}

// FitIsotonic fits a monotone correction curve with the pool-adjacent-
// violators algorithm over quantile bins of the samples.
func FitIsotonic(samples []Sample) (*IsotonicCurve, error) {
	if len(samples) < 10 {
		return nil, fmt.Errorf("isotonic fit needs at least 10 samples, got %d", len(samples))
	}

	sorted := make([]Sample, len(samples))
	copy(sorted, samples)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].RawProb < sorted[j].RawProb })

	numBins := optimalBins(len(sorted))
	binSize := len(sorted) / numBins

	type block struct {
		meanX  float64
		meanY  float64
		weight float64
	}
	blocks := make([]block, 0, numBins)
	for i := 0; i < len(sorted); i += binSize {
		end := i + binSize
		if end > len(sorted) || len(sorted)-end < binSize {
			end = len(sorted)
		}
		var sumX, sumY float64
		for _, s := range sorted[i:end] {
			sumX += s.RawProb
			if s.Hit {
				sumY++
			}
		}
		n := float64(end - i)
		blocks = append(blocks, block{meanX: sumX / n, meanY: sumY / n, weight: n})
		if end == len(sorted) {
			break
		}
	}

	// Pool adjacent violators: merge neighbours until monotone
	pooled := blocks[:0]
	for _, b := range blocks {
		pooled = append(pooled, b)
		for len(pooled) > 1 {
			last := len(pooled) - 1
			if pooled[last-1].meanY <= pooled[last].meanY {
				break
			}
			w := pooled[last-1].weight + pooled[last].weight
			merged := block{
				meanX:  (pooled[last-1].meanX*pooled[last-1].weight + pooled[last].meanX*pooled[last].weight) / w,
				meanY:  (pooled[last-1].meanY*pooled[last-1].weight + pooled[last].meanY*pooled[last].weight) / w,
				weight: w,
			}
			pooled = pooled[:last-1]
			pooled = append(pooled, merged)
		}
	}

	curve := &IsotonicCurve{
		X: make([]float64, len(pooled)),
		Y: make([]float64, len(pooled)),
	}
	for i, b := range pooled {
		curve.X[i] = b.meanX
		curve.Y[i] = clamp01(b.meanY)
	}
	return curve, nil
}

func optimalBins(n int) int {
	bins := int(math.Sqrt(float64(n)))
	if bins < 3 {
		bins = 3
	}
	if bins > 20 {
		bins = 20
	}
	return bins
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
