package series

import "time"

// Point is one daily observation of a narrative.
type Point struct {
	Date      time.Time
	Sentiment float64
	Price     float64
	Volume    int64
}

// Series is a date-ordered snapshot history. All decay and correlation math
// operates on it; ordering is the caller's responsibility (storage returns
// snapshots ordered by date).
type Series []Point

// Len returns the number of observations.
func (s Series) Len() int {
	return len(s)
}

// Last returns the most recent observation. Panics on an empty series;
// callers gate on Len first.
func (s Series) Last() Point {
	return s[len(s)-1]
}

// Sentiments extracts the sentiment column.
func (s Series) Sentiments() []float64 {
	out := make([]float64, len(s))
	for i, p := range s {
		out[i] = p.Sentiment
	}
	return out
}

// Prices extracts the price column.
func (s Series) Prices() []float64 {
	out := make([]float64, len(s))
	for i, p := range s {
		out[i] = p.Price
	}
	return out
}
