package scoring

import (
	"math"

	"vouch/internal/identity/models"
)

// TrustScore is the composite credibility figure.
type TrustScore struct {
	Score      int    `json:"score"`
	Percentile int    `json:"percentile"`
	TopPercent int    `json:"top_percent"`
	Label      string `json:"label"`
}

// TrustComposer weighs effective reputation and sybil score equally.
type TrustComposer struct{}

func NewTrustComposer() *TrustComposer { return &TrustComposer{} }

// Compose returns round(0.5*min(effective, 100) + 0.5*sybil), clamped to
// 0..100. Percentile is the score clamped to 1..99; no population is tracked.
func (TrustComposer) Compose(effectiveReputation int64, sybilScore int) TrustScore {
	rep := clamp(effectiveReputation, 0, models.MaxReputation)
	sybil := clamp(int64(sybilScore), 0, 100)
	score := int(clamp(int64(math.Floor(0.5*float64(rep)+0.5*float64(sybil)+0.5)), 0, 100))
	percentile := int(clamp(int64(score), 1, 99))
	return TrustScore{
		Score:      score,
		Percentile: percentile,
		TopPercent: 100 - percentile,
		Label:      TrustLabel(score),
	}
}

// TrustLabel names a trust score band.
func TrustLabel(score int) string {
	switch {
	case score >= 80:
		return "Exceptional"
	case score >= 60:
		return "Strong"
	case score >= 40:
		return "Good"
	default:
		return "Building"
	}
}

func clamp(v, lo, hi int64) int64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
