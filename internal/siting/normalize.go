package siting

import "math"

// Normalization methods and missing-value policies recognized in config.
const (
	MethodMinMax = "minmax"
	MethodZScore = "zscore"

	PolicyMidpoint = "midpoint"
	PolicyExclude  = "exclude"
)

// zClampSigma bounds z-scores before mapping them onto [0,1] so one extreme
// tract cannot dominate the composite.
const zClampSigma = 3.0

// Bounds holds the normalization reference for one indicator. Min/Max feed
// the minmax method; Mean/Std feed the zscore method.
type Bounds struct {
	Min  float64
	Max  float64
	Mean float64
	Std  float64
}

// DeriveBounds computes reference bounds from observed indicator values.
// Used when config does not pin bounds explicitly.
func DeriveBounds(values []float64) Bounds {
	if len(values) == 0 {
		return Bounds{}
	}
	b := Bounds{Min: values[0], Max: values[0]}
	var sum float64
	for _, v := range values {
		if v < b.Min {
			b.Min = v
		}
		if v > b.Max {
			b.Max = v
		}
		sum += v
	}
	b.Mean = sum / float64(len(values))
	var sq float64
	for _, v := range values {
		d := v - b.Mean
		sq += d * d
	}
	b.Std = math.Sqrt(sq / float64(len(values)))
	return b
}

// NormalizeMinMax rescales raw onto [0,1]. Values outside the bounds are
// clamped, not extrapolated. Degenerate bounds (max == min) yield the
// midpoint. The function is pure: identical inputs always produce identical
// output.
func NormalizeMinMax(raw, min, max float64) float64 {
	if max <= min {
		return 0.5
	}
	return clamp01((raw - min) / (max - min))
}

// NormalizeZScore standardizes raw against the reference mean and standard
// deviation, clamps the z-score to ±3σ, and maps it linearly onto [0,1] so
// both normalization methods feed the composer on the same scale. A zero
// standard deviation yields the midpoint.
func NormalizeZScore(raw, mean, std float64) float64 {
	if std <= 0 {
		return 0.5
	}
	z := (raw - mean) / std
	if z > zClampSigma {
		z = zClampSigma
	} else if z < -zClampSigma {
		z = -zClampSigma
	}
	return (z + zClampSigma) / (2 * zClampSigma)
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
