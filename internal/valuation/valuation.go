package valuation

import (
	"math"
	"sort"
)

// DefaultFairValuePE is the fixed earnings multiple behind the simple fair
// value estimate.
const DefaultFairValuePE = 17.0

// ExtremeOverreactionRatio flags price moves wildly out of proportion to the
// underlying fundamental change.
const ExtremeOverreactionRatio = 3.0

// OverreactionRatio returns |price velocity| / |fundamental velocity|, both
// in percent. A zero or unknown fundamental velocity yields the neutral 1.0
// rather than a division blow-up; callers pass 0 for unavailable data.
func OverreactionRatio(priceVelocityPct, fundamentalVelocityPct float64) float64 {
	if fundamentalVelocityPct == 0 {
		return 1.0
	}
	return round2(math.Abs(priceVelocityPct) / math.Abs(fundamentalVelocityPct))
}

// IsExtreme reports whether an overreaction ratio crosses the extreme flag.
func IsExtreme(ratio float64) bool {
	return ratio > ExtremeOverreactionRatio
}

// PercentChange returns the percent change from start to end, 0 when start
// is 0.
func PercentChange(start, end float64) float64 {
	if start == 0 {
		return 0
	}
	return (end - start) / start * 100
}

// Premium is the simple fair-value comparison for one ticker.
type Premium struct {
	PremiumPct     float64
	FairValue      float64
	CurrentPrice   float64
	FairValueDelta float64
}

// NarrativePremium compares the current price against an EPS-multiple fair
// value: NPP = (price - fair) / fair * 100. Non-positive EPS has no defined
// fair value and yields the zero-valued result, per the degrade-gracefully
// contract.
func NarrativePremium(currentPrice, trailingEPS, fairPE float64) Premium {
	if trailingEPS <= 0 {
		return Premium{CurrentPrice: round2(currentPrice)}
	}

	fair := trailingEPS * fairPE
	return Premium{
		PremiumPct:     round2((currentPrice - fair) / fair * 100),
		FairValue:      round2(fair),
		CurrentPrice:   round2(currentPrice),
		FairValueDelta: round2(currentPrice - fair),
	}
}

// Conclusion classifies an implied valuation premium.
type Conclusion string

const (
	ConclusionPricedForPerfection Conclusion = "PRICED_FOR_PERFECTION"
	ConclusionModeratePremium     Conclusion = "MODERATE_PREMIUM"
	ConclusionFairlyValued        Conclusion = "FAIRLY_VALUED"
	ConclusionOvercorrection      Conclusion = "OVERCORRECTION"
)

// ImpliedInput feeds the richer implied-valuation model.
type ImpliedInput struct {
	CurrentPrice float64
	CurrentEPS   float64
	// EPSImpactPct is the narrative's claimed EPS impact in percent.
	EPSImpactPct float64
	// ImpliedPE is the narrative's claimed multiple; 0 means keep the
	// current multiple.
	ImpliedPE float64
	// PEHistory supplies historical multiples for median/percentile context.
	PEHistory []float64
}

// ImpliedValuation is what the price would be if the narrative were fully
// accurate, with historical multiple context.
type ImpliedValuation struct {
	CurrentPrice        float64
	ImpliedPrice        float64
	FairValue           float64
	NarrativePremiumPct float64
	CurrentPE           float64
	ImpliedPE           float64
	HistoricalMedianPE  float64
	ImpliedPEPercentile float64
	Conclusion          Conclusion
}

// ImpliedValuationFor prices the narrative's claims: implied EPS from the
// claimed impact, times the claimed (or current) multiple, compared against
// the current price. Returns false on non-positive EPS.
func ImpliedValuationFor(in ImpliedInput) (ImpliedValuation, bool) {
	if in.CurrentEPS <= 0 {
		return ImpliedValuation{}, false
	}

	currentPE := in.CurrentPrice / in.CurrentEPS
	impliedEPS := in.CurrentEPS * (1 + in.EPSImpactPct/100)

	impliedPE := in.ImpliedPE
	if impliedPE == 0 {
		impliedPE = currentPE
	}

	impliedPrice := impliedEPS * impliedPE
	premiumPct := (impliedPrice - in.CurrentPrice) / in.CurrentPrice * 100

	out := ImpliedValuation{
		CurrentPrice:        in.CurrentPrice,
		ImpliedPrice:        round2(impliedPrice),
		NarrativePremiumPct: round2(premiumPct),
		CurrentPE:           round2(currentPE),
		ImpliedPE:           round2(impliedPE),
		Conclusion:          classifyPremium(premiumPct),
	}

	if len(in.PEHistory) > 0 {
		median := medianOf(in.PEHistory)
		below := 0
		for _, pe := range in.PEHistory {
			if pe < impliedPE {
				below++
			}
		}
		out.HistoricalMedianPE = round2(median)
		out.FairValue = round2(in.CurrentEPS * median)
		out.ImpliedPEPercentile = round1(float64(below) / float64(len(in.PEHistory)) * 100)
	} else {
		out.HistoricalMedianPE = round2(currentPE)
		out.FairValue = round2(in.CurrentPrice)
		out.ImpliedPEPercentile = 50
	}

	return out, true
}

func classifyPremium(premiumPct float64) Conclusion {
	switch {
	case premiumPct > 25:
		return ConclusionPricedForPerfection
	case premiumPct > 10:
		return ConclusionModeratePremium
	case premiumPct > -10:
		return ConclusionFairlyValued
	default:
		return ConclusionOvercorrection
	}
}

func medianOf(values []float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
