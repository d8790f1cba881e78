package credibility

import (
	"math"
	"testing"
)

func evaluatedCalls(correct, incorrect int) []Call {
	calls := make([]Call, 0, correct+incorrect)
	for i := 0; i < correct; i++ {
		calls = append(calls, Call{Outcome: OutcomeEvaluated, DirectionalCorrect: true})
	}
	for i := 0; i < incorrect; i++ {
		calls = append(calls, Call{Outcome: OutcomeEvaluated})
	}
	return calls
}

func TestAccuracyRate(t *testing.T) {
	if got := AccuracyRate(evaluatedCalls(7, 3)); got != 70.0 {
		t.Fatalf("AccuracyRate = %v, want 70.0", got)
	}
}

func TestAccuracyRateNoHistory(t *testing.T) {
	if got := AccuracyRate(nil); got != NeutralScore {
		t.Fatalf("AccuracyRate with no calls = %v, want %v", got, NeutralScore)
	}
	pending := []Call{{Outcome: OutcomePending}}
	if got := AccuracyRate(pending); got != NeutralScore {
		t.Fatalf("AccuracyRate with only pending = %v, want %v", got, NeutralScore)
	}
}

func TestReliabilitySmoothing(t *testing.T) {
	// (2+8)/(4+10)*100 = 71.43
	if got := Reliability(evaluatedCalls(8, 2)); got != 71.43 {
		t.Fatalf("Reliability = %v, want 71.43", got)
	}

	// A single success scores 60, not 100: the prior does its job.
	if got := Reliability(evaluatedCalls(1, 0)); got != 60.0 {
		t.Fatalf("Reliability single success = %v, want 60.0", got)
	}

	if got := Reliability(nil); got != NeutralScore {
		t.Fatalf("Reliability with no calls = %v, want %v", got, NeutralScore)
	}
}

func TestEvaluateDirection(t *testing.T) {
	cases := []struct {
		name        string
		sentiment   Sentiment
		publish     float64
		later       float64
		wantCorrect bool
	}{
		{"bullish confirmed", SentimentBullish, 100, 110, true},
		{"bullish too small", SentimentBullish, 100, 104, false},
		{"bullish wrong way", SentimentBullish, 100, 90, false},
		{"bearish confirmed", SentimentBearish, 100, 90, true},
		{"bearish too small", SentimentBearish, 100, 96, false},
		{"neutral confirmed", SentimentNeutral, 100, 103, true},
		{"neutral broken", SentimentNeutral, 100, 110, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			changePct, correct := EvaluateDirection(tc.sentiment, tc.publish, tc.later)
			if correct != tc.wantCorrect {
				t.Fatalf("correct = %v, want %v (change %v%%)", correct, tc.wantCorrect, changePct)
			}
			wantChange := (tc.later - tc.publish) / tc.publish * 100
			if math.Abs(changePct-wantChange) > 1e-9 {
				t.Fatalf("changePct = %v, want %v", changePct, wantChange)
			}
		})
	}
}

func TestEvaluateDirectionZeroPublishPrice(t *testing.T) {
	changePct, correct := EvaluateDirection(SentimentBullish, 0, 50)
	if correct || changePct != 0 {
		t.Fatalf("zero publish price must not evaluate, got %v %v", changePct, correct)
	}
}

func TestCompositeScore(t *testing.T) {
	// 70*0.25 + 60*0.15 + 80*0.10 + (100-20)*0.05 + 50*0.45 = 61.0
	if got := CompositeScore(70, 60, 80, 20); got != 61.0 {
		t.Fatalf("CompositeScore = %v, want 61.0", got)
	}

	// All-neutral inputs with zero coordination land above 50 because
	// coordination enters inverted.
	if got := CompositeScore(50, 50, 50, 0); got != 52.5 {
		t.Fatalf("CompositeScore neutral = %v, want 52.5", got)
	}
}

func TestClaimConfidence(t *testing.T) {
	if got := ClaimConfidence(60, 80); got != 70.0 {
		t.Fatalf("ClaimConfidence = %v, want 70.0", got)
	}
}

func TestRiskTier(t *testing.T) {
	cases := []struct {
		ratio float64
		coord int
		want  int
	}{
		{3.5, 0, 80},
		{0.5, 75, 80},
		{2.5, 0, 60},
		{0.5, 55, 60},
		{1.0, 10, 30},
	}
	for _, tc := range cases {
		if got := RiskTier(tc.ratio, tc.coord); got != tc.want {
			t.Fatalf("RiskTier(%v, %d) = %d, want %d", tc.ratio, tc.coord, got, tc.want)
		}
	}
}

func TestSuspicionScore(t *testing.T) {
	if got := SuspicionScore(3.5, 25, 2.5); got != 100 {
		t.Fatalf("max suspicion = %d, want 100", got)
	}
	if got := SuspicionScore(1.0, 2, 1.0); got != 0 {
		t.Fatalf("quiet prepub = %d, want 0", got)
	}
	// volume 2.5x (+30), price -12% (+30), volatility 1.6x (+10)
	if got := SuspicionScore(2.5, -12, 1.6); got != 70 {
		t.Fatalf("SuspicionScore = %d, want 70", got)
	}
}
