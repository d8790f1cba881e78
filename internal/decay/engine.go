package decay

import (
	"math"
	"time"

	"marketscholar/internal/metric"
	"marketscholar/internal/series"
)

// ExhaustionThreshold is the sentiment level below which a narrative is
// considered exhausted.
const ExhaustionThreshold = 20.0

// Engine computes decay metrics for a single narrative from its initial state
// and daily snapshot history. All methods are pure functions of the inputs;
// recomputing on an unchanged history yields identical output.
type Engine struct {
	s0      float64
	p0      float64
	genesis time.Time
	history series.Series
}

// NewEngine builds an engine from a narrative's genesis state and the
// snapshots observed after genesis day. The genesis-day observation is taken
// from the narrative's initial sentiment and price, not from the first
// snapshot, so day counts line up with days elapsed since genesis.
func NewEngine(initialSentiment, initialPrice float64, genesis time.Time, after series.Series) *Engine {
	history := make(series.Series, 0, len(after)+1)
	history = append(history, series.Point{
		Date:      genesis,
		Sentiment: initialSentiment,
		Price:     initialPrice,
	})
	history = append(history, after...)

	return &Engine{
		s0:      initialSentiment,
		p0:      initialPrice,
		genesis: genesis,
		history: history,
	}
}

// DaysElapsed returns n, the number of observed days since genesis.
func (e *Engine) DaysElapsed() int {
	return e.history.Len() - 1
}

// CurrentSentiment returns the most recent sentiment observation.
func (e *Engine) CurrentSentiment() float64 {
	return e.history.Last().Sentiment
}

// DecayRate returns the linear decay rate in sentiment points per day:
// (S0 - Sn) / n. Undefined with fewer than two observations.
func (e *Engine) DecayRate() metric.Value {
	if e.history.Len() < 2 {
		return metric.None(metric.ReasonInsufficientData)
	}

	n := float64(e.DaysElapsed())
	rate := (e.s0 - e.CurrentSentiment()) / n
	return metric.Of(round(rate, 4))
}

// HalfLife returns the canonical half-life in days: t = ln(2) / lambda with
// lambda = -ln(Sn/S0) / n. Defined only when both endpoints are positive and
// sentiment has strictly decayed; flat or rising sentiment has no half-life.
func (e *Engine) HalfLife() metric.Value {
	if e.history.Len() < 2 {
		return metric.None(metric.ReasonInsufficientData)
	}

	sn := e.CurrentSentiment()
	if sn <= 0 || e.s0 <= 0 {
		return metric.None(metric.ReasonMathDomain)
	}

	n := float64(e.DaysElapsed())
	lambda := -math.Log(sn/e.s0) / n
	if lambda <= 0 {
		return metric.None(metric.ReasonMathDomain)
	}

	return metric.Of(round(math.Ln2/lambda, 2))
}

// HalfLifeFromRate is the second half-life variant found in the field: it
// derives the decay constant from the linear rate, lambda = -ln(1 - rate/S0),
// treating the first day's linear loss as the per-day exponential fraction.
// It is not algebraically equivalent to HalfLife and can disagree with it;
// only HalfLife feeds the persisted metrics.
func (e *Engine) HalfLifeFromRate() metric.Value {
	rate, ok := e.DecayRate().Float()
	if !ok {
		return metric.None(metric.ReasonInsufficientData)
	}
	if e.s0 <= 0 || rate <= 0 || rate >= e.s0 {
		return metric.None(metric.ReasonMathDomain)
	}

	lambda := -math.Log(1 - rate/e.s0)
	if lambda <= 0 {
		return metric.None(metric.ReasonMathDomain)
	}

	return metric.Of(round(math.Ln2/lambda, 2))
}

// Correlation returns the Pearson correlation between the sentiment and price
// histories. Requires at least 3 observations.
func (e *Engine) Correlation() metric.Value {
	corr := series.Pearson(e.history.Sentiments(), e.history.Prices())
	if v, ok := corr.Float(); ok {
		return metric.Of(round(v, 4))
	}
	return corr
}

// PredictExhaustion extrapolates the linear decay rate to the exhaustion
// threshold. Returns false when the rate is undefined or non-positive. A
// narrative already at or below the threshold maps to the genesis date rather
// than an arbitrary past date.
func (e *Engine) PredictExhaustion() (time.Time, bool) {
	rate, ok := e.DecayRate().Float()
	if !ok || rate <= 0 {
		return time.Time{}, false
	}

	daysToExhaustion := (e.CurrentSentiment() - ExhaustionThreshold) / rate
	if daysToExhaustion <= 0 {
		return e.genesis, true
	}

	last := e.history.Last().Date
	return last.Add(time.Duration(daysToExhaustion * float64(24*time.Hour))), true
}

// ExhaustionConfidence scores 0-100 how likely the narrative is exhausted,
// as a weighted sum of five independently capped factors.
func (e *Engine) ExhaustionConfidence() int {
	score := 0
	sentiments := e.history.Sentiments()
	current := e.CurrentSentiment()

	// Sentiment depletion, up to 30 points.
	switch {
	case current < 20:
		score += 30
	case current < 40:
		score += 15
	}

	// Decay acceleration, up to 25 points. Compares the most recent 7-day
	// rate against the prior 7-day rate; needs two full weeks of data.
	if len(sentiments) >= 14 {
		recent := (sentiments[len(sentiments)-7] - current) / 7
		prior := (sentiments[len(sentiments)-14] - sentiments[len(sentiments)-7]) / 7
		switch {
		case recent > prior*2:
			score += 25
		case recent > prior*1.5:
			score += 15
		}
	}

	// Price decoupling, up to 20 points: a weak absolute correlation means
	// price has stopped responding to the story.
	if corr, ok := e.Correlation().Float(); ok {
		switch {
		case math.Abs(corr) < 0.2:
			score += 20
		case math.Abs(corr) < 0.4:
			score += 10
		}
	}

	// Low recent volatility, up to 15 points.
	if len(sentiments) >= 7 {
		vol := series.StdDev(sentiments[len(sentiments)-7:])
		switch {
		case vol < 5:
			score += 15
		case vol < 10:
			score += 8
		}
	}

	// Extended duration, up to 10 points.
	switch days := e.DaysElapsed(); {
	case days > 60:
		score += 10
	case days > 40:
		score += 5
	}

	if score > 100 {
		score = 100
	}
	return score
}

// Classify returns the current lifecycle status per the priority-ordered
// transition rules.
func (e *Engine) Classify() Status {
	return classify(e.CurrentSentiment(), e.Correlation(), e.DaysElapsed())
}

// SnapshotDecayPct returns the percent sentiment decay of one snapshot
// relative to the initial sentiment, for backfilling snapshot rows. Returns
// false when the initial sentiment is zero.
func (e *Engine) SnapshotDecayPct(sentiment float64) (float64, bool) {
	if e.s0 == 0 {
		return 0, false
	}
	return round((e.s0-sentiment)/e.s0*100, 2), true
}

// Metrics is the full per-run decay state of a narrative. It is a snapshot,
// overwritten on every run, never an appended log.
type Metrics struct {
	DecayRate            metric.Value
	HalfLifeDays         metric.Value
	Correlation          metric.Value
	Status               Status
	ExhaustionConfidence int
	PredictedExhaustion  *time.Time
	DaysElapsed          int
	CurrentSentiment     float64
	SentimentChange      float64
}

// Metrics computes the complete metric set in one pass.
func (e *Engine) Metrics() Metrics {
	m := Metrics{
		DecayRate:            e.DecayRate(),
		HalfLifeDays:         e.HalfLife(),
		Correlation:          e.Correlation(),
		Status:               e.Classify(),
		ExhaustionConfidence: e.ExhaustionConfidence(),
		DaysElapsed:          e.DaysElapsed(),
		CurrentSentiment:     e.CurrentSentiment(),
		SentimentChange:      e.CurrentSentiment() - e.s0,
	}

	if date, ok := e.PredictExhaustion(); ok {
		m.PredictedExhaustion = &date
	}

	return m
}

func round(v float64, places int) float64 {
	factor := math.Pow(10, float64(places))
	return math.Round(v*factor) / factor
}
