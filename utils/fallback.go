package utils

// Evaluator is one link of a fallback chain. It reports false when it could
// not produce a value.
type Evaluator[T any] func() (T, bool)

// FirstOf runs the evaluators left to right and returns the first value that
// was produced. Later evaluators are not run once one succeeds.
func FirstOf[T any](evals ...Evaluator[T]) (T, bool) {
	for _, eval := range evals {
		if v, ok := eval(); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}

// OrDefault returns the first produced value or def.
func OrDefault[T any](def T, evals ...Evaluator[T]) T {
	if v, ok := FirstOf(evals...); ok {
		return v
	}
	return def
}
