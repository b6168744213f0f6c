package backend

import "sync/atomic"

// DefaultName is the backend used until SetActive selects another one.
const DefaultName = "serial"

type activeBackend struct{ b Backend }

var active atomic.Pointer[activeBackend]

// Active returns the process-wide backend used by callers that do not pass
// one explicitly.
func Active() Backend {
	if a := active.Load(); a != nil {
		return a.b
	}
	return globalRegistry.MustGet(DefaultName)
}

// SetActive selects the process-wide backend by name. The lookup happens
// here, so an unknown name fails immediately with a BackendUnavailableError
// and the previous selection stays in place. Changing the selection while
// evaluations are running is not supported: each evaluation resolves the
// backend once when it starts.
//
// Parameters:
//   - name: A name registered in the global registry.
//
// Returns:
//   - error: A BackendUnavailableError if the name is not registered.
func SetActive(name string) error {
	b, err := globalRegistry.Get(name)
	if err != nil {
		return err
	}
	active.Store(&activeBackend{b: b})
	return nil
}

// Use installs b as the process-wide backend and returns the previous one.
func Use(b Backend) Backend {
	prev := Active()
	active.Store(&activeBackend{b: b})
	return prev
}
