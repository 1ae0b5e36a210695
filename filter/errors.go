package filter

import "fmt"

// CompilationError is returned for an expression that cannot be used as a movie filter.
type CompilationError struct {
	Expression string
	Reason     string
	Err        error
}

func (e *CompilationError) Error() string {
	msg := fmt.Sprintf("invalid filter %q: %s", e.Expression, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *CompilationError) Unwrap() error { return e.Err }

// EvaluationError is returned by Match when a compiled filter fails on a movie
type EvaluationError struct {
	Expression string
	MovieID    int64
	Err        error
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("filter %q failed on movie %d: %v", e.Expression, e.MovieID, e.Err)
}

func (e *EvaluationError) Unwrap() error { return e.Err }
