// Package flight collapses concurrent identical requests into one upstream
// call. It is a thin typed wrapper around golang.org/x/sync/singleflight:
// callers that find a resolution already in flight for their key attach to it
// and receive the same result (or the same failure). The in-flight marker is
// cleared before any caller returns, so the next call starts fresh, and
// failures are never cached.
package flight

import "golang.org/x/sync/singleflight"

// Coordinator tracks in-flight fetches by key.
type Coordinator struct {
	group singleflight.Group
}

// NewCoordinator creates an empty coordinator.
func NewCoordinator() *Coordinator {
	return &Coordinator{}
}

// Resolve runs fetch for key, deduplicating concurrent callers. The shared
// return reports whether this caller received another caller's result.
func (c *Coordinator) Resolve(key string, fetch func() (any, error)) (any, bool, error) {
	v, err, shared := c.group.Do(key, fetch)
	return v, shared, err
}

// Resolve is the typed form of Coordinator.Resolve.
func Resolve[T any](c *Coordinator, key string, fetch func() (T, error)) (T, error) {
	v, _, err := c.Resolve(key, func() (any, error) { return fetch() })
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}
