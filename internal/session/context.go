package session

import (
	"net/http"
	"sync"

	"github.com/TrueSelph/jvserve/internal/storage"
)

// ExecutionContext is the ephemeral request-scoped handle a walker executes
// against: an identity root, an entry point within it, and a report sink. It
// must be closed on every exit path; the dispatch handlers defer Close as
// soon as the context is opened.
type ExecutionContext struct {
	Root  *storage.Anchor
	Entry *storage.Anchor

	mu      sync.Mutex
	reports []any
	status  int
	closed  bool
	release func()
}

// Report appends a result to the context's report sink.
func (c *ExecutionContext) Report(value any) {
	c.mu.Lock()
	c.reports = append(c.reports, value)
	c.mu.Unlock()
}

// Reports returns a copy of the accumulated reports.
func (c *ExecutionContext) Reports() []any {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]any, len(c.reports))
	copy(out, c.reports)
	return out
}

// SetStatus records the status a walker wants surfaced.
func (c *ExecutionContext) SetStatus(status int) {
	c.mu.Lock()
	c.status = status
	c.mu.Unlock()
}

// Status returns the recorded status, defaulting to 200 OK.
func (c *ExecutionContext) Status() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status == 0 {
		return http.StatusOK
	}
	return c.status
}

// Close releases the context. Idempotent; safe on every exit path.
func (c *ExecutionContext) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	release := c.release
	c.release = nil
	c.mu.Unlock()

	if release != nil {
		release()
	}
}

// Closed reports whether Close has run.
func (c *ExecutionContext) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}
