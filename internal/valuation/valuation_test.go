package valuation

import (
	"math"
	"testing"
)

func TestOverreactionRatio(t *testing.T) {
	// Price fell 17%, revenue fell 114%: tame ratio, not extreme.
	ratio := OverreactionRatio(-17, -114)
	if ratio != 0.15 {
		t.Fatalf("OverreactionRatio = %v, want 0.15", ratio)
	}
	if IsExtreme(ratio) {
		t.Fatal("0.15 must not be extreme")
	}

	// Price fell 50% on a 10% fundamental move: extreme.
	ratio = OverreactionRatio(-50, 10)
	if ratio != 5.0 {
		t.Fatalf("OverreactionRatio = %v, want 5.0", ratio)
	}
	if !IsExtreme(ratio) {
		t.Fatal("5.0 must be extreme")
	}
}

func TestOverreactionRatioZeroFundamental(t *testing.T) {
	if got := OverreactionRatio(-30, 0); got != 1.0 {
		t.Fatalf("zero fundamental velocity should be neutral 1.0, got %v", got)
	}
}

func TestIsExtremeBoundary(t *testing.T) {
	if IsExtreme(3.0) {
		t.Fatal("exactly 3.0 is not extreme; the flag is strict")
	}
	if !IsExtreme(3.01) {
		t.Fatal("3.01 should be extreme")
	}
}

func TestPercentChange(t *testing.T) {
	if got := PercentChange(100, 115); got != 15.0 {
		t.Fatalf("PercentChange = %v, want 15.0", got)
	}
	if got := PercentChange(0, 50); got != 0 {
		t.Fatalf("PercentChange from zero = %v, want 0", got)
	}
}

func TestNarrativePremium(t *testing.T) {
	// Fair value 5 * 17 = 85; (120-85)/85*100 = 41.18
	p := NarrativePremium(120, 5, DefaultFairValuePE)
	if p.PremiumPct != 41.18 {
		t.Fatalf("PremiumPct = %v, want 41.18", p.PremiumPct)
	}
	if p.FairValue != 85.0 {
		t.Fatalf("FairValue = %v, want 85.0", p.FairValue)
	}
	if p.FairValueDelta != 35.0 {
		t.Fatalf("FairValueDelta = %v, want 35.0", p.FairValueDelta)
	}
}

func TestNarrativePremiumNonPositiveEPS(t *testing.T) {
	p := NarrativePremium(120, -2, DefaultFairValuePE)
	if p.PremiumPct != 0 || p.FairValue != 0 {
		t.Fatalf("negative EPS must yield the zero result, got %+v", p)
	}
	if p.CurrentPrice != 120 {
		t.Fatalf("CurrentPrice should survive, got %v", p.CurrentPrice)
	}
}

func TestImpliedValuation(t *testing.T) {
	in := ImpliedInput{
		CurrentPrice: 100,
		CurrentEPS:   5,
		EPSImpactPct: 20,
		ImpliedPE:    25,
		PEHistory:    []float64{15, 18, 20, 22, 30},
	}

	out, ok := ImpliedValuationFor(in)
	if !ok {
		t.Fatal("expected an implied valuation")
	}

	// implied EPS 6, implied price 150, premium 50%.
	if out.ImpliedPrice != 150.0 {
		t.Fatalf("ImpliedPrice = %v, want 150.0", out.ImpliedPrice)
	}
	if out.NarrativePremiumPct != 50.0 {
		t.Fatalf("NarrativePremiumPct = %v, want 50.0", out.NarrativePremiumPct)
	}
	if out.Conclusion != ConclusionPricedForPerfection {
		t.Fatalf("Conclusion = %s, want PRICED_FOR_PERFECTION", out.Conclusion)
	}
	if out.HistoricalMedianPE != 20.0 {
		t.Fatalf("HistoricalMedianPE = %v, want 20.0", out.HistoricalMedianPE)
	}
	// FairValue = 5 * 20 = 100; implied PE 25 sits above 4 of 5 history points.
	if out.FairValue != 100.0 {
		t.Fatalf("FairValue = %v, want 100.0", out.FairValue)
	}
	if out.ImpliedPEPercentile != 80.0 {
		t.Fatalf("ImpliedPEPercentile = %v, want 80.0", out.ImpliedPEPercentile)
	}
}

func TestImpliedValuationKeepsCurrentPE(t *testing.T) {
	in := ImpliedInput{CurrentPrice: 100, CurrentEPS: 4, EPSImpactPct: -20}

	out, ok := ImpliedValuationFor(in)
	if !ok {
		t.Fatal("expected an implied valuation")
	}
	if out.ImpliedPE != 25.0 {
		t.Fatalf("ImpliedPE = %v, want current 25.0", out.ImpliedPE)
	}
	// implied price 3.2 * 25 = 80, premium -20%: overcorrection.
	if math.Abs(out.NarrativePremiumPct+20) > 1e-9 {
		t.Fatalf("NarrativePremiumPct = %v, want -20", out.NarrativePremiumPct)
	}
	if out.Conclusion != ConclusionOvercorrection {
		t.Fatalf("Conclusion = %s, want OVERCORRECTION", out.Conclusion)
	}
}

func TestImpliedValuationNonPositiveEPS(t *testing.T) {
	if _, ok := ImpliedValuationFor(ImpliedInput{CurrentPrice: 50, CurrentEPS: 0}); ok {
		t.Fatal("zero EPS must not produce a valuation")
	}
}

func TestClassifyQuadrant(t *testing.T) {
	cases := []struct {
		evidence  float64
		intensity float64
		want      Quadrant
	}{
		{80, 80, QuadrantValidCatalyst},
		{80, 20, QuadrantFactualAnchor},
		{20, 80, QuadrantNarrativeTrap},
		{20, 20, QuadrantMarketNoise},
		{50, 50, QuadrantValidCatalyst},
	}
	for _, tc := range cases {
		if got := ClassifyQuadrant(tc.evidence, tc.intensity); got != tc.want {
			t.Fatalf("ClassifyQuadrant(%v, %v) = %s, want %s", tc.evidence, tc.intensity, got, tc.want)
		}
	}
}
