package tmm

import "github.com/agbru/tmmcalc/internal/backend"

// EvaluatorFactory hands out evaluators for the backends of a registry.
type EvaluatorFactory struct {
	registry *backend.Registry
}

// NewEvaluatorFactory creates a factory over reg. A nil registry selects the
// global one.
func NewEvaluatorFactory(reg *backend.Registry) *EvaluatorFactory {
	if reg == nil {
		reg = backend.GlobalRegistry()
	}
	return &EvaluatorFactory{registry: reg}
}

// Registry returns the backend registry behind the factory.
func (f *EvaluatorFactory) Registry() *backend.Registry { return f.registry }

// Get returns an evaluator for the named backend.
//
// Returns:
//   - Evaluator: The evaluator.
//   - error: A BackendUnavailableError if the backend is not registered.
func (f *EvaluatorFactory) Get(name string) (Evaluator, error) {
	b, err := f.registry.Get(name)
	if err != nil {
		return nil, err
	}
	return NewEvaluator(b), nil
}

// List returns the available backend names in alphabetical order.
func (f *EvaluatorFactory) List() []string {
	return f.registry.List()
}

// Select resolves a backend selection: "all" returns one evaluator per
// registered backend in alphabetical order, anything else a single
// evaluator.
func (f *EvaluatorFactory) Select(name string) ([]Evaluator, error) {
	if name != "all" {
		ev, err := f.Get(name)
		if err != nil {
			return nil, err
		}
		return []Evaluator{ev}, nil
	}
	names := f.List()
	evs := make([]Evaluator, 0, len(names))
	for _, n := range names {
		ev, err := f.Get(n)
		if err != nil {
			return nil, err
		}
		evs = append(evs, ev)
	}
	return evs, nil
}
