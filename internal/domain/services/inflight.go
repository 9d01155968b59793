package services

import "sync"

// InflightGroup deduplicates concurrent identical operations. A second
// caller arriving while the first call for the same key is still pending
// waits for and shares that call's result instead of repeating the work.
// Keys are forgotten once the call completes, so a later request runs fresh.
type InflightGroup struct {
	mu    sync.Mutex
	calls map[string]*inflightCall
}

type inflightCall struct {
	done chan struct{}
	val  any
	err  error
}

// NewInflightGroup creates an empty registry.
func NewInflightGroup() *InflightGroup {
	return &InflightGroup{calls: make(map[string]*inflightCall)}
}

// Do executes fn for key, or joins the pending execution if one exists.
// The boolean reports whether the result was shared from another caller.
func (g *InflightGroup) Do(key string, fn func() (any, error)) (any, bool, error) {
	g.mu.Lock()
	if call, ok := g.calls[key]; ok {
		g.mu.Unlock()
		<-call.done
		return call.val, true, call.err
	}

	call := &inflightCall{done: make(chan struct{})}
	g.calls[key] = call
	g.mu.Unlock()

	call.val, call.err = fn()

	g.mu.Lock()
	delete(g.calls, key)
	g.mu.Unlock()
	close(call.done)

	return call.val, false, call.err
}
