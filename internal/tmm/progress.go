package tmm

// ProgressUpdate carries the progress of one evaluation to the user
// interface.
type ProgressUpdate struct {
	// EvaluatorIndex distinguishes concurrent evaluations.
	EvaluatorIndex int
	// Value is the completed fraction, from 0.0 to 1.0.
	Value float64
}

// ProgressReporter receives the completed fraction of an evaluation. The
// engine calls it after each layer is folded into the composite matrix.
type ProgressReporter func(progress float64)
