package decay

import (
	"math"
	"testing"
	"time"

	"marketscholar/internal/metric"
	"marketscholar/internal/series"
)

var genesis = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

// dailyHistory builds day-spaced observations following genesis. sentiments
// and prices exclude the genesis-day values.
func dailyHistory(sentiments, prices []float64) series.Series {
	out := make(series.Series, len(sentiments))
	for i := range sentiments {
		out[i] = series.Point{
			Date:      genesis.AddDate(0, 0, i+1),
			Sentiment: sentiments[i],
			Price:     prices[i],
		}
	}
	return out
}

// linearDecay yields n days of straight-line sentiment decay with price
// tracking sentiment.
func linearDecay(s0, rate float64, days int) series.Series {
	sentiments := make([]float64, days)
	prices := make([]float64, days)
	for i := 0; i < days; i++ {
		sentiments[i] = s0 - rate*float64(i+1)
		prices[i] = sentiments[i] * 2
	}
	return dailyHistory(sentiments, prices)
}

func TestDecayRateLinear(t *testing.T) {
	engine := NewEngine(100, 200, genesis, linearDecay(100, 5, 7))

	rate, ok := engine.DecayRate().Float()
	if !ok {
		t.Fatal("expected a decay rate")
	}
	if rate != 5.0 {
		t.Fatalf("DecayRate = %v, want 5.0", rate)
	}
	if engine.DaysElapsed() != 7 {
		t.Fatalf("DaysElapsed = %d, want 7", engine.DaysElapsed())
	}
	if engine.CurrentSentiment() != 65 {
		t.Fatalf("CurrentSentiment = %v, want 65", engine.CurrentSentiment())
	}
}

func TestHalfLifeRoundTrip(t *testing.T) {
	// Sentiment following a true exponential with half-life 12.5 days should
	// recover that half-life from the endpoints.
	const want = 12.5
	lambda := math.Ln2 / want
	days := 7
	sentiments := make([]float64, days)
	prices := make([]float64, days)
	for i := 0; i < days; i++ {
		sentiments[i] = 100 * math.Exp(-lambda*float64(i+1))
		prices[i] = sentiments[i]
	}

	engine := NewEngine(100, 100, genesis, dailyHistory(sentiments, prices))
	hl, ok := engine.HalfLife().Float()
	if !ok {
		t.Fatal("expected a half-life")
	}
	if math.Abs(hl-want) > 0.05 {
		t.Fatalf("HalfLife = %v, want about %v", hl, want)
	}
}

func TestHalfLifeRisingSentiment(t *testing.T) {
	engine := NewEngine(50, 100, genesis, dailyHistory(
		[]float64{55, 60, 65},
		[]float64{100, 101, 102},
	))

	hl := engine.HalfLife()
	if hl.Valid() {
		t.Fatal("rising sentiment must not have a half-life")
	}
	if hl.Reason() != metric.ReasonMathDomain {
		t.Fatalf("reason = %s, want math_domain", hl.Reason())
	}
}

func TestNoHistoryYieldsNoMetrics(t *testing.T) {
	engine := NewEngine(80, 100, genesis, nil)

	if engine.DecayRate().Valid() {
		t.Fatal("single observation should not produce a decay rate")
	}
	if engine.HalfLife().Valid() {
		t.Fatal("single observation should not produce a half-life")
	}
	if engine.Correlation().Valid() {
		t.Fatal("single observation should not produce a correlation")
	}
}

func TestHalfLifeFromRateVariant(t *testing.T) {
	engine := NewEngine(100, 200, genesis, linearDecay(100, 5, 7))

	hl, ok := engine.HalfLifeFromRate().Float()
	if !ok {
		t.Fatal("expected a rate-derived half-life")
	}
	// lambda = -ln(1 - 5/100), t = ln2/lambda = 13.51
	if math.Abs(hl-13.51) > 0.01 {
		t.Fatalf("HalfLifeFromRate = %v, want 13.51", hl)
	}

	canonical, _ := engine.HalfLife().Float()
	if hl == canonical {
		t.Fatal("the two half-life variants should disagree on linear decay")
	}
}

func TestPredictExhaustionForward(t *testing.T) {
	engine := NewEngine(100, 200, genesis, linearDecay(100, 5, 7))

	date, ok := engine.PredictExhaustion()
	if !ok {
		t.Fatal("expected an exhaustion prediction")
	}
	// current 65, threshold 20, rate 5 => 9 days past the last observation.
	want := genesis.AddDate(0, 0, 7).AddDate(0, 0, 9)
	if !date.Equal(want) {
		t.Fatalf("PredictExhaustion = %v, want %v", date, want)
	}
}

func TestPredictExhaustionAlreadyExhausted(t *testing.T) {
	engine := NewEngine(50, 100, genesis, dailyHistory(
		[]float64{40, 30, 22, 15},
		[]float64{80, 60, 44, 30},
	))

	date, ok := engine.PredictExhaustion()
	if !ok {
		t.Fatal("expected a prediction")
	}
	if !date.Equal(genesis) {
		t.Fatalf("already-exhausted narrative should map to genesis, got %v", date)
	}
}

func TestPredictExhaustionRisingSentiment(t *testing.T) {
	engine := NewEngine(50, 100, genesis, dailyHistory(
		[]float64{55, 60, 65},
		[]float64{100, 101, 102},
	))

	if _, ok := engine.PredictExhaustion(); ok {
		t.Fatal("rising sentiment should not predict exhaustion")
	}
}

func TestExhaustionConfidenceDepletedNarrative(t *testing.T) {
	// 70 days of decay from 90 down into the teens: depletion, duration, and
	// low recent volatility should all contribute.
	days := 70
	sentiments := make([]float64, days)
	prices := make([]float64, days)
	for i := 0; i < days; i++ {
		sentiments[i] = 90 - 1.2*float64(i+1)
		if sentiments[i] < 12 {
			sentiments[i] = 12
		}
		prices[i] = 100
	}
	engine := NewEngine(90, 100, genesis, dailyHistory(sentiments, prices))

	conf := engine.ExhaustionConfidence()
	if conf < 50 {
		t.Fatalf("ExhaustionConfidence = %d, want at least 50", conf)
	}
	if conf > 100 {
		t.Fatalf("ExhaustionConfidence = %d, cap is 100", conf)
	}
}

func TestExhaustionConfidenceFreshNarrative(t *testing.T) {
	engine := NewEngine(90, 100, genesis, dailyHistory(
		[]float64{89, 88, 92},
		[]float64{100, 105, 110},
	))

	if conf := engine.ExhaustionConfidence(); conf > 30 {
		t.Fatalf("fresh narrative confidence = %d, want low", conf)
	}
}

func TestClassifyExhaustionOverridesFailure(t *testing.T) {
	// Sentiment collapsed below threshold while price rose: both EXHAUSTED
	// and FAILED conditions hold, and exhaustion wins.
	engine := NewEngine(80, 100, genesis, dailyHistory(
		[]float64{60, 40, 25, 15},
		[]float64{110, 120, 130, 140},
	))

	if got := engine.Classify(); got != StatusExhausted {
		t.Fatalf("Classify = %s, want EXHAUSTED", got)
	}
}

func TestClassifyFailed(t *testing.T) {
	// Sentiment decays, price rises: strongly negative correlation.
	engine := NewEngine(80, 100, genesis, dailyHistory(
		[]float64{70, 60, 50, 45},
		[]float64{110, 120, 130, 140},
	))

	if got := engine.Classify(); got != StatusFailed {
		t.Fatalf("Classify = %s, want FAILED", got)
	}
}

func TestClassifyValidated(t *testing.T) {
	days := 35
	sentiments := make([]float64, days)
	prices := make([]float64, days)
	for i := 0; i < days; i++ {
		sentiments[i] = 90 - 0.2*float64(i+1)
		prices[i] = sentiments[i] * 3
	}
	engine := NewEngine(90, 270, genesis, dailyHistory(sentiments, prices))

	if got := engine.Classify(); got != StatusValidated {
		t.Fatalf("Classify = %s, want VALIDATED", got)
	}
}

func TestClassifyActiveDefault(t *testing.T) {
	engine := NewEngine(60, 100, genesis, dailyHistory(
		[]float64{58, 59, 57},
		[]float64{100, 101, 99},
	))

	if got := engine.Classify(); got != StatusActive {
		t.Fatalf("Classify = %s, want ACTIVE", got)
	}
}

func TestSnapshotDecayPct(t *testing.T) {
	engine := NewEngine(80, 100, genesis, linearDecay(80, 4, 5))

	pct, ok := engine.SnapshotDecayPct(60)
	if !ok {
		t.Fatal("expected a decay pct")
	}
	if pct != 25.0 {
		t.Fatalf("SnapshotDecayPct = %v, want 25.0", pct)
	}

	zero := NewEngine(0, 100, genesis, nil)
	if _, ok := zero.SnapshotDecayPct(10); ok {
		t.Fatal("zero initial sentiment has no decay pct")
	}
}

func TestMetricsIdempotent(t *testing.T) {
	engine := NewEngine(100, 200, genesis, linearDecay(100, 3, 20))

	first := engine.Metrics()
	second := engine.Metrics()

	if first.DecayRate != second.DecayRate ||
		first.HalfLifeDays != second.HalfLifeDays ||
		first.Correlation != second.Correlation ||
		first.Status != second.Status ||
		first.ExhaustionConfidence != second.ExhaustionConfidence {
		t.Fatal("recomputation on unchanged history must be identical")
	}
	if first.SentimentChange != second.SentimentChange {
		t.Fatal("sentiment change must be stable")
	}
}
