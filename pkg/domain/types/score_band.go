package types

// ScoreBand groups fairness scores for display
type ScoreBand string

const (
	ScoreBandBiased   ScoreBand = "biased"
	ScoreBandModerate ScoreBand = "moderate"
	ScoreBandFair     ScoreBand = "fair"
)

const (
	// BiasedThreshold is the score below which a model is considered biased
	BiasedThreshold = 60.0
	// FairThreshold is the score at or above which a model is considered fair
	FairThreshold = 80.0
)

// BandOf returns the band a fairness score belongs to
func BandOf(score float64) ScoreBand {
	switch {
	case score < BiasedThreshold:
		return ScoreBandBiased
	case score < FairThreshold:
		return ScoreBandModerate
	default:
		return ScoreBandFair
	}
}

func (b ScoreBand) String() string {
	return string(b)
}
