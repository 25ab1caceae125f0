// ABOUTME: Quality score formula for lead records.
// ABOUTME: Pure weighted sum over the lead attributes, rounded to two decimals.

package leads

import "math"

// Score weights. At maximal input the terms add up to 100.
const (
	typeWeight       = 15.0
	personalFactor   = 0.7
	sourcesWeight    = 20.0
	bounceWeight     = 15.0
	freshnessWeight  = 10.0
	verifiedWeight   = 15.0
	socialWeight     = 10.0
	confidenceWeight = 15.0

	MinSources         = 1
	MaxSources         = 5
	MaxLastUpdatedDays = 365
)

// Score computes the quality score of a set of attributes.
//
// Only an explicit bounce (BounceYes) loses the bounce term; an unknown bounce
// scores the same as a confirmed non-bounce. Out-of-range inputs are clamped
// to their documented ranges, and any type other than corporate scores as
// personal.
func Score(a Attributes) float64 {
	sources := clampInt(a.Sources, MinSources, MaxSources)
	days := clampInt(a.LastUpdatedDays, 0, MaxLastUpdatedDays)
	confidence := math.Min(math.Max(a.SourceConfidence, 0), 1)
	if math.IsNaN(a.SourceConfidence) {
		confidence = 0
	}

	score := typeWeight * personalFactor
	if a.Type == TypeCorporate {
		score = typeWeight
	}
	score += float64(sources) / MaxSources * sourcesWeight
	if a.Bounce != BounceYes {
		score += bounceWeight
	}
	score += (1 - float64(days)/MaxLastUpdatedDays) * freshnessWeight
	if a.VerifiedDomain {
		score += verifiedWeight
	}
	if a.SocialPresence {
		score += socialWeight
	}
	score += confidence * confidenceWeight

	return round2(score)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
