package metric

// Reason states why a formula produced no value.
type Reason string

const (
	// ReasonInsufficientData marks a history shorter than the formula requires.
	ReasonInsufficientData Reason = "insufficient_data"
	// ReasonMathDomain marks inputs outside the formula's domain, e.g. a
	// non-positive value fed to a logarithm.
	ReasonMathDomain Reason = "math_domain"
)

// Value is the outcome of a closed-form formula: either a computed number or
// an explicit no-metric marker carrying the reason. Callers can distinguish
// "computed as zero" from "not computable", which a bare float cannot express.
type Value struct {
	val    float64
	valid  bool
	reason Reason
}

// Of wraps a computed value.
func Of(v float64) Value {
	return Value{val: v, valid: true}
}

// None builds a no-metric value with the given reason.
func None(r Reason) Value {
	return Value{reason: r}
}

// Valid reports whether a value was computed.
func (v Value) Valid() bool {
	return v.valid
}

// Reason returns the no-metric reason, empty for computed values.
func (v Value) Reason() Reason {
	return v.reason
}

// Float returns the computed value and whether it is present.
func (v Value) Float() (float64, bool) {
	return v.val, v.valid
}

// Or returns the computed value, or def when no metric was computed. Composite
// scores use this to degrade to their stated neutral defaults.
func (v Value) Or(def float64) float64 {
	if v.valid {
		return v.val
	}
	return def
}

// Ptr returns the value as a pointer, nil when no metric was computed. Used
// when persisting to nullable columns.
func (v Value) Ptr() *float64 {
	if !v.valid {
		return nil
	}
	val := v.val
	return &val
}
