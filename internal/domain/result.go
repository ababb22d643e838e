package domain

// Outcome tags a Result.
type Outcome int

const (
	OutcomeFound Outcome = iota
	OutcomeNotFound
	OutcomeError
)

// Result is the outcome of a lookup: Found with a value, NotFound, or Error.
// Not-found is an expected outcome, not a failure.
type Result[T any] struct {
	Value   T
	Outcome Outcome
	Err     error
}

func Found[T any](v T) Result[T] {
	return Result[T]{Value: v, Outcome: OutcomeFound}
}

func NotFound[T any]() Result[T] {
	return Result[T]{Outcome: OutcomeNotFound}
}

func Failed[T any](err error) Result[T] {
	return Result[T]{Outcome: OutcomeError, Err: err}
}

func (r Result[T]) IsFound() bool    { return r.Outcome == OutcomeFound }
func (r Result[T]) IsNotFound() bool { return r.Outcome == OutcomeNotFound }

// Kind reports the error kind of the result; found results report KindStore
// and should not be asked.
func (r Result[T]) Kind() ErrorKind {
	if r.Outcome == OutcomeNotFound {
		return KindNotFound
	}
	return KindOf(r.Err)
}

// Unwrap converts the result back to Go's value/error pair, with NotFound
// reported as ErrNotFound.
func (r Result[T]) Unwrap() (T, error) {
	switch r.Outcome {
	case OutcomeFound:
		return r.Value, nil
	case OutcomeNotFound:
		var zero T
		return zero, ErrNotFound
	default:
		var zero T
		return zero, r.Err
	}
}
