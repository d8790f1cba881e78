package credibility

import (
	"math"
	"time"
)

// CallType categorises a public analyst call.
type CallType string

const (
	CallUpgrade     CallType = "UPGRADE"
	CallDowngrade   CallType = "DOWNGRADE"
	CallPriceTarget CallType = "PRICE_TARGET"
	CallInitiate    CallType = "INITIATE"
	CallComment     CallType = "COMMENT"
)

// Sentiment is the direction of a call.
type Sentiment string

const (
	SentimentBullish Sentiment = "BULLISH"
	SentimentBearish Sentiment = "BEARISH"
	SentimentNeutral Sentiment = "NEUTRAL"
)

// OutcomeStatus tracks call maturation. A call transitions PENDING to
// EVALUATED exactly once and is never re-evaluated.
type OutcomeStatus string

const (
	OutcomePending   OutcomeStatus = "PENDING"
	OutcomeEvaluated OutcomeStatus = "EVALUATED"
)

// Call is one public call by an analyst about a ticker.
type Call struct {
	Ticker             string
	PublishedAt        time.Time
	Type               CallType
	Sentiment          Sentiment
	Outcome            OutcomeStatus
	DirectionalCorrect bool
}

// NeutralScore is the default for accuracy-like scores with no evaluated
// history. Part of the observable contract, not an implementation fallback.
const NeutralScore = 50.0

// Weak Beta prior pulling extreme small-sample accuracy toward 50%.
const (
	priorAlpha = 2.0
	priorBeta  = 2.0
)

// correctMovePct is the minimum absolute 90-day price move, in percent, for a
// directional call to count as correct.
const correctMovePct = 5.0

// AccuracyRate returns AAR: the percentage of directionally correct calls
// among evaluated ones. With nothing evaluated yet it returns the neutral
// default rather than zero.
func AccuracyRate(calls []Call) float64 {
	evaluated, correct := tally(calls)
	if evaluated == 0 {
		return NeutralScore
	}
	return round2(float64(correct) / float64(evaluated) * 100)
}

// Reliability returns ARB: accuracy smoothed by a weak Beta(2,2) prior,
// (a0 + successes) / (a0 + b0 + successes + failures) * 100. One success and
// no failures yields 60, not 100.
func Reliability(calls []Call) float64 {
	evaluated, successes := tally(calls)
	if evaluated == 0 {
		return NeutralScore
	}
	failures := evaluated - successes
	arb := (priorAlpha + float64(successes)) / (priorAlpha + priorBeta + float64(successes+failures)) * 100
	return round2(arb)
}

func tally(calls []Call) (evaluated, correct int) {
	for _, c := range calls {
		if c.Outcome != OutcomeEvaluated {
			continue
		}
		evaluated++
		if c.DirectionalCorrect {
			correct++
		}
	}
	return evaluated, correct
}

// EvaluateDirection applies the maturation rule to a matured call: bullish
// calls need the price up more than 5%, bearish down more than 5%, neutral
// within 5% either way. Returns the percent change alongside the verdict.
func EvaluateDirection(sentiment Sentiment, priceAtPublish, priceLater float64) (changePct float64, correct bool) {
	if priceAtPublish == 0 {
		return 0, false
	}

	changePct = (priceLater - priceAtPublish) / priceAtPublish * 100

	switch sentiment {
	case SentimentBullish:
		correct = changePct > correctMovePct
	case SentimentBearish:
		correct = changePct < -correctMovePct
	case SentimentNeutral:
		correct = math.Abs(changePct) <= correctMovePct
	}

	return changePct, correct
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
