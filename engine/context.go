package engine

// Well-known execution-context keys merged in by control-flow handlers.
const (
	// KeyLoopIndex is the zero-based iteration index.
	KeyLoopIndex = "loop_index"
	// KeyLoopIteration is the one-based iteration number.
	KeyLoopIteration = "loop_iteration"
	// KeyLoopTotal is the total number of iterations, when known up front.
	KeyLoopTotal = "loop_total"
	// KeyLoopItem is the current item of a for_each loop.
	KeyLoopItem = "loop_item"
	// KeyTryErrorMessage carries the try-block failure message into a catch
	// block.
	KeyTryErrorMessage = "try_block_error_message"
	// KeyTryErrorType carries the failing action's type into a catch block.
	KeyTryErrorType = "try_block_error_type"
)

// loopKeys are scoped to one iteration and never merged back into the parent
// context.
var loopKeys = map[string]struct{}{
	KeyLoopIndex:     {},
	KeyLoopIteration: {},
	KeyLoopTotal:     {},
	KeyLoopItem:      {},
}

// ExecutionContext is the mutable string-keyed scope threaded through one
// workflow run. It carries loop variables and branch-error metadata. The
// engine is single-threaded per run, so no locking is needed; lifetime is one
// run.
type ExecutionContext struct {
	values map[string]any
}

// NewExecutionContext creates an empty context.
func NewExecutionContext() *ExecutionContext {
	return &ExecutionContext{values: make(map[string]any)}
}

// Get returns the value stored under key.
func (c *ExecutionContext) Get(key string) (any, bool) {
	v, ok := c.values[key]
	return v, ok
}

// Set stores a value.
func (c *ExecutionContext) Set(key string, value any) {
	c.values[key] = value
}

// Delete removes a key.
func (c *ExecutionContext) Delete(key string) {
	delete(c.values, key)
}

// Len returns the number of stored keys.
func (c *ExecutionContext) Len() int { return len(c.values) }

// Clone returns a shallow copy. Loop iterations and catch blocks run on
// clones so reserved keys do not leak into the parent scope.
func (c *ExecutionContext) Clone() *ExecutionContext {
	out := NewExecutionContext()
	for k, v := range c.values {
		out.values[k] = v
	}
	return out
}

// Merge copies all entries of values into the context.
func (c *ExecutionContext) Merge(values map[string]any) {
	for k, v := range values {
		c.values[k] = v
	}
}

// mergeBack copies a child clone's mutations into the parent, skipping the
// reserved loop keys and any extra keys given. This makes body mutations
// visible to the next iteration and after the loop while keeping per-scope
// bookkeeping out of the parent.
func (c *ExecutionContext) mergeBack(child *ExecutionContext, skip ...string) {
	for k, v := range child.values {
		if _, reserved := loopKeys[k]; reserved {
			continue
		}
		skipped := false
		for _, s := range skip {
			if k == s {
				skipped = true
				break
			}
		}
		if skipped {
			continue
		}
		c.values[k] = v
	}
}

// Snapshot returns a copy of the underlying map, for logging and parameter
// substitution.
func (c *ExecutionContext) Snapshot() map[string]any {
	out := make(map[string]any, len(c.values))
	for k, v := range c.values {
		out[k] = v
	}
	return out
}
