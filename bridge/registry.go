package bridge

import (
	"sync"

	opentracing "github.com/opentracing/opentracing-go"
)

// Registry tracks which caller-assigned span handles are currently
// addressable. A handle present in the registry denotes an open span; a
// handle is never inserted twice without an intervening removal.
//
// Mutations arrive one at a time from the call channel, but the tracer's
// own machinery may touch spans concurrently, so lookups are safe against
// concurrent inserts and removals.
type Registry struct {
	mtx   sync.RWMutex
	spans map[int64]opentracing.Span
}

func NewRegistry() *Registry {
	return &Registry{
		spans: map[int64]opentracing.Span{},
	}
}

// Insert adds a handle to the registry. It returns false and mutates
// nothing if the handle is already present.
func (r *Registry) Insert(handle int64, span opentracing.Span) bool {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	if _, ok := r.spans[handle]; ok {
		return false
	}
	r.spans[handle] = span
	return true
}

// Lookup returns the span registered under handle, if any.
func (r *Registry) Lookup(handle int64) (opentracing.Span, bool) {
	r.mtx.RLock()
	defer r.mtx.RUnlock()

	span, ok := r.spans[handle]
	return span, ok
}

// Remove drops a handle from the registry. Removing an absent handle is a
// no-op. The registry never finishes the span itself; it purely tracks
// addressability.
func (r *Registry) Remove(handle int64) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	delete(r.spans, handle)
}

// Contains reports whether handle is currently registered.
func (r *Registry) Contains(handle int64) bool {
	r.mtx.RLock()
	defer r.mtx.RUnlock()

	_, ok := r.spans[handle]
	return ok
}

// Len returns the number of open spans.
func (r *Registry) Len() int {
	r.mtx.RLock()
	defer r.mtx.RUnlock()

	return len(r.spans)
}
