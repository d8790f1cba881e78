package series

import (
	"math"

	"marketscholar/internal/metric"
)

// Mean returns the arithmetic mean of values, 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// StdDev returns the population standard deviation of values.
func StdDev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	mean := Mean(values)
	var sum float64
	for _, v := range values {
		d := v - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)))
}

// Pearson computes the Pearson correlation coefficient between x and y.
// Requires at least 3 paired points; a constant input has no defined
// correlation and yields a math-domain no-metric.
func Pearson(x, y []float64) metric.Value {
	if len(x) != len(y) || len(x) < 3 {
		return metric.None(metric.ReasonInsufficientData)
	}

	meanX := Mean(x)
	meanY := Mean(y)

	var cov, varX, varY float64
	for i := range x {
		dx := x[i] - meanX
		dy := y[i] - meanY
		cov += dx * dy
		varX += dx * dx
		varY += dy * dy
	}

	if varX == 0 || varY == 0 {
		return metric.None(metric.ReasonMathDomain)
	}

	return metric.Of(cov / math.Sqrt(varX*varY))
}
