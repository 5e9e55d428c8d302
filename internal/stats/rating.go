package stats

import "math"

// NoRank is shown when a rating is below the lowest tier.
const NoRank = "--"

// MaxRating is the top of the rating scale (the SA ceiling).
const MaxRating = 18.0

var rankTiers = []struct {
	min  float64
	rank string
}{
	{16, "SA"},
	{14, "AA"},
	{10, "A"},
	{8, "BB"},
	{6, "B"},
	{4, "CC"},
	{2, "C"},
}

// RatingToRank maps a rating to its class label. Tier lower bounds are inclusive.
func RatingToRank(rating float64) string {
	for _, tier := range rankTiers {
		if rating >= tier.min {
			return tier.rank
		}
	}
	return NoRank
}

// GaugeFraction returns rating/max clamped to [0, 1]. A non-positive max
// falls back to MaxRating.
func GaugeFraction(rating, max float64) float64 {
	if max <= 0 {
		max = MaxRating
	}
	if math.IsNaN(rating) || rating <= 0 {
		return 0
	}
	return math.Min(rating/max, 1)
}

// Gauge geometry: a 300° arc of a radius-54 circle.
const (
	GaugeRadius     = 54.0
	GaugeSweepDeg   = 300.0
	gaugeFullCircle = 2 * math.Pi * GaugeRadius
)

// GaugeArc converts a gauge fraction into the stroke length of the visible
// arc and the dash offset that leaves fraction of it filled.
func GaugeArc(fraction float64) (arcLength, offset float64) {
	arcLength = gaugeFullCircle * (GaugeSweepDeg / 360)
	return arcLength, arcLength * (1 - fraction)
}

// Rating01 estimates a 01 rating from points per dart. ok is false for
// non-positive input.
func Rating01(ppd float64) (rating float64, ok bool) {
	if !(ppd > 0) {
		return 0, false
	}
	return Round(ppd/20*4, 2), true
}

// CricketRating estimates a cricket rating from marks per round.
func CricketRating(mpr float64) (rating float64, ok bool) {
	if !(mpr > 0) {
		return 0, false
	}
	return Round(mpr*2.5, 2), true
}

// OverallRating averages whichever of the two ratings are present.
// nil means absent.
func OverallRating(r01, cricket *float64) (rating float64, ok bool) {
	var present []float64
	for _, r := range []*float64{r01, cricket} {
		if r != nil {
			present = append(present, *r)
		}
	}
	avg, ok := AverageOf(present)
	if !ok {
		return 0, false
	}
	return Round(avg, 2), true
}
