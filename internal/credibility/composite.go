package credibility

// ACS weights. The placeholder term covers credibility dimensions that are
// not computed yet; it must stay explicit because removing it rescales every
// composite score.
const (
	weightAccuracy     = 0.25
	weightReliability  = 0.15
	weightDiscipline   = 0.10
	weightCoordination = 0.05
	weightPlaceholder  = 0.45
)

// CompositeScore returns the composite analyst credibility score (ACS).
// Coordination enters inverted: heavy coordination lowers credibility.
func CompositeScore(aar, arb, hds, coordination float64) float64 {
	acs := aar*weightAccuracy +
		arb*weightReliability +
		hds*weightDiscipline +
		(100-coordination)*weightCoordination +
		NeutralScore*weightPlaceholder
	return round2(acs)
}

// ClaimConfidence blends reliability and hype discipline into the persisted
// claim-confidence sub-score.
func ClaimConfidence(arb, hds float64) float64 {
	return round2((arb + hds) / 2)
}

// RiskTier buckets an analyst's coverage into a narrative risk score from the
// overreaction ratio and coordination signal.
func RiskTier(overreactionRatio float64, coordination int) int {
	switch {
	case overreactionRatio > 3.0 || coordination > 70:
		return 80
	case overreactionRatio > 2.0 || coordination > 50:
		return 60
	default:
		return 30
	}
}

// SuspicionScore grades 30-day pre-publication market activity against a
// 60-day baseline, 0-100. Inputs are the prepub/baseline volume ratio, the
// absolute-signed prepub price change in percent, and the prepub/baseline
// volatility ratio.
func SuspicionScore(volumeRatio, priceChangePct, volatilityRatio float64) int {
	score := 0

	switch {
	case volumeRatio > 3.0:
		score += 40
	case volumeRatio > 2.0:
		score += 30
	case volumeRatio > 1.5:
		score += 20
	}

	abs := priceChangePct
	if abs < 0 {
		abs = -abs
	}
	switch {
	case abs > 20:
		score += 40
	case abs > 10:
		score += 30
	case abs > 5:
		score += 20
	}

	switch {
	case volatilityRatio > 2.0:
		score += 20
	case volatilityRatio > 1.5:
		score += 10
	}

	if score > 100 {
		score = 100
	}
	return score
}
