package tmm

import "sync"

// ProgressObserver receives progress notifications from a ProgressSubject.
type ProgressObserver interface {
	// Update is called when progress changes.
	//
	// Parameters:
	//   - evalIndex: The evaluation identifier (for concurrent evaluations).
	//   - progress: The normalized progress value (0.0 to 1.0).
	Update(evalIndex int, progress float64)
}

// ProgressSubject fans progress updates out to registered observers, so that
// the terminal UI, logs and metrics can follow an evaluation without the
// engine knowing about any of them.
//
// ProgressSubject is safe for concurrent use.
type ProgressSubject struct {
	observers []ProgressObserver
	mu        sync.RWMutex
}

// NewProgressSubject creates a subject with no observers.
func NewProgressSubject() *ProgressSubject {
	return &ProgressSubject{}
}

// Register adds an observer. Nil observers are ignored.
func (s *ProgressSubject) Register(observer ProgressObserver) {
	if observer == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, observer)
}

// Unregister removes the first registration of observer, if any.
func (s *ProgressSubject) Unregister(observer ProgressObserver) {
	if observer == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, o := range s.observers {
		if o == observer {
			s.observers = append(s.observers[:i], s.observers[i+1:]...)
			return
		}
	}
}

// Notify forwards an update to every observer in registration order.
func (s *ProgressSubject) Notify(evalIndex int, progress float64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, o := range s.observers {
		o.Update(evalIndex, progress)
	}
}

// ObserverCount returns the number of registered observers.
func (s *ProgressSubject) ObserverCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.observers)
}

// AsProgressReporter binds the subject to one evaluation index.
func (s *ProgressSubject) AsProgressReporter(evalIndex int) ProgressReporter {
	return func(progress float64) {
		s.Notify(evalIndex, progress)
	}
}
