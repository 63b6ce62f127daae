package pipeline

import "sync"

// InFlight tracks paths currently being classified so concurrent producers
// do not process the same file twice.
type InFlight struct {
	mu    sync.Mutex
	paths map[string]struct{}
}

// NewInFlight returns an empty set.
func NewInFlight() *InFlight {
	return &InFlight{paths: make(map[string]struct{})}
}

// Acquire claims path and reports whether the caller now owns it.
func (f *InFlight) Acquire(path string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, busy := f.paths[path]; busy {
		return false
	}
	f.paths[path] = struct{}{}
	return true
}

// Release gives up a claim made by Acquire.
func (f *InFlight) Release(path string) {
	f.mu.Lock()
	delete(f.paths, path)
	f.mu.Unlock()
}

// Len returns the number of claimed paths.
func (f *InFlight) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.paths)
}
