package decay

import "marketscholar/internal/metric"

// Status classifies where a narrative sits in its lifecycle. It is recomputed
// from current data on every run, never carried forward as history, so a
// narrative can move between the non-exhausted states run over run.
type Status string

const (
	// StatusActive marks a narrative still playing out.
	StatusActive Status = "ACTIVE"
	// StatusExhausted marks sentiment depleted below the exhaustion threshold.
	StatusExhausted Status = "EXHAUSTED"
	// StatusFailed marks a falsified narrative: sentiment decayed while price
	// moved the opposite direction.
	StatusFailed Status = "FAILED"
	// StatusValidated marks sustained high sentiment with price confirmation.
	StatusValidated Status = "VALIDATED"
)

const (
	failedCorrelationCeiling  = -0.5
	validatedCorrelationFloor = 0.7
	validatedSentimentFloor   = 70.0
	validatedMinDaysElapsed   = 30
)

// classify applies the transition rules in strict priority order. The
// conditions are not mutually exclusive, so the order is load-bearing:
// exhaustion overrides a negative correlation.
func classify(currentSentiment float64, correlation metric.Value, daysElapsed int) Status {
	if currentSentiment < ExhaustionThreshold {
		return StatusExhausted
	}

	if corr, ok := correlation.Float(); ok {
		if corr < failedCorrelationCeiling {
			return StatusFailed
		}
		if corr > validatedCorrelationFloor && currentSentiment > validatedSentimentFloor && daysElapsed > validatedMinDaysElapsed {
			return StatusValidated
		}
	}

	return StatusActive
}
