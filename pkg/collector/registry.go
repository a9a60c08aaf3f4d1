package collector

import (
	"github.com/stleox/seecov/pkg/config"
)

// defaultStack is the pseudo-index of the single stack used when no
// ContextIDFunc is configured.
const defaultStack = -1

// stackRegistry maps a logical execution-context identity to the index of
// its own shadow stack, created lazily on first sight. Stacks are only ever
// appended, so an index handed out once stays valid for the whole session.
// Indices, not pointers: growth of the backing array must not invalidate the
// tracer's notion of "current stack".
type stackRegistry struct {
	index  map[any]int
	stacks []dataStack
}

func newStackRegistry() stackRegistry {
	return stackRegistry{index: make(map[any]int)}
}

// stackFor returns the stack index for the given context identity,
// allocating a new stack on first sight. isNew reports a fresh context.
func (r *stackRegistry) stackFor(id any) (idx int, isNew bool) {
	if i, hit := r.index[id]; hit {
		return i, false
	}

	// A new context. Make a new data stack.
	i := len(r.stacks)
	if i >= cap(r.stacks) {
		// 按 StacksDelta 步长扩容栈表
		bigger := make([]dataStack, i, cap(r.stacks)+config.StacksDelta)
		copy(bigger, r.stacks)
		r.stacks = bigger
	}
	r.stacks = append(r.stacks, newDataStack())
	r.index[id] = i
	return i, true
}

// at resolves an index from stackFor back to its stack.
func (r *stackRegistry) at(idx int) *dataStack {
	return &r.stacks[idx]
}

// size is the number of known contexts.
func (r *stackRegistry) size() int {
	return len(r.stacks)
}
