package series

import (
	"math"
	"testing"

	"marketscholar/internal/metric"
)

func TestMeanAndStdDev(t *testing.T) {
	values := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	if got := Mean(values); got != 5 {
		t.Fatalf("Mean = %v, want 5", got)
	}
	if got := StdDev(values); math.Abs(got-2) > 1e-9 {
		t.Fatalf("StdDev = %v, want 2", got)
	}
	if got := Mean(nil); got != 0 {
		t.Fatalf("Mean of empty = %v, want 0", got)
	}
}

func TestPearsonPerfectCorrelation(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5}
	y := []float64{2, 4, 6, 8, 10}

	v, ok := Pearson(x, y).Float()
	if !ok {
		t.Fatal("expected a computed correlation")
	}
	if math.Abs(v-1) > 1e-9 {
		t.Fatalf("Pearson = %v, want 1", v)
	}
}

func TestPearsonPerfectInverse(t *testing.T) {
	x := []float64{1, 2, 3, 4}
	y := []float64{8, 6, 4, 2}

	v, ok := Pearson(x, y).Float()
	if !ok {
		t.Fatal("expected a computed correlation")
	}
	if math.Abs(v+1) > 1e-9 {
		t.Fatalf("Pearson = %v, want -1", v)
	}
}

func TestPearsonTooFewPoints(t *testing.T) {
	v := Pearson([]float64{1, 2}, []float64{3, 4})
	if v.Valid() {
		t.Fatal("two points should not produce a correlation")
	}
	if v.Reason() != metric.ReasonInsufficientData {
		t.Fatalf("reason = %s, want insufficient_data", v.Reason())
	}
}

func TestPearsonConstantSeries(t *testing.T) {
	v := Pearson([]float64{5, 5, 5, 5}, []float64{1, 2, 3, 4})
	if v.Valid() {
		t.Fatal("constant input should not produce a correlation")
	}
	if v.Reason() != metric.ReasonMathDomain {
		t.Fatalf("reason = %s, want math_domain", v.Reason())
	}
}
