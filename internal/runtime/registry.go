// Package runtime is the boundary to the walker execution runtime. Walkers
// are registered up front against their module path; dispatch resolves the
// composed path through this explicit allowlist instead of free-form module
// loading, so request-supplied fragments can only ever reach registered code.
package runtime

import (
	"fmt"
	"sync"

	"github.com/TrueSelph/jvserve/internal/session"
)

// WalkerFunc is a named operation invoked with an input-attribute set against
// an execution context.
type WalkerFunc func(ectx *session.ExecutionContext, attrs map[string]any) (any, error)

// Registry is the allowlist of invocable walkers, keyed by module path and
// walker name.
type Registry struct {
	mu      sync.RWMutex
	walkers map[string]WalkerFunc
}

// NewRegistry returns an empty registry. The hosting application registers
// its walkers before the server starts accepting requests.
func NewRegistry() *Registry {
	return &Registry{walkers: make(map[string]WalkerFunc)}
}

func registryKey(module, walker string) string {
	return module + "::" + walker
}

// Register binds a walker under its module path. Re-registering replaces the
// previous binding.
func (r *Registry) Register(module, walker string, fn WalkerFunc) {
	r.mu.Lock()
	r.walkers[registryKey(module, walker)] = fn
	r.mu.Unlock()
}

// Resolve looks up a registered walker.
func (r *Registry) Resolve(module, walker string) (WalkerFunc, bool) {
	r.mu.RLock()
	fn, ok := r.walkers[registryKey(module, walker)]
	r.mu.RUnlock()
	return fn, ok
}

// Spawn resolves and invokes a walker. A panic inside the walker is caught
// and returned as an error so a misbehaving operation cannot take down the
// serving process.
func (r *Registry) Spawn(ectx *session.ExecutionContext, module, walker string, attrs map[string]any) (result any, err error) {
	fn, ok := r.Resolve(module, walker)
	if !ok {
		return nil, fmt.Errorf("walker %q is not registered under module %q", walker, module)
	}

	defer func() {
		if rec := recover(); rec != nil {
			result = nil
			err = fmt.Errorf("walker %q panicked: %v", walker, rec)
		}
	}()

	return fn(ectx, attrs)
}
