package collector

import (
	"github.com/stleox/seecov/pkg/config"
)

// stackEntry is the recording state for one call frame: which file data sink
// the frame writes into (nil when the frame is untraced), where caller
// attribution goes, and the last line executed in the frame.
// lastLine is config.NoLastLine when no line has run yet, as when entering a
// function; the first arc of a frame is therefore (-1, first_real_line).
type stackEntry struct {
	fileData    *FileData
	fileCallers *CallerFileData
	lastLine    int
}

// dataStack is the shadow call stack: a growable array of stackEntry that
// parallels the host call stack. Each call pushes the previous frame's
// state, each return pops it back. Capacity grows by config.StackDelta and
// never shrinks during a session, so call/return churn never thrashes the
// allocator. Entries are copied in and out, never aliased: growth may move
// the backing array.
type dataStack struct {
	// index of the last used entry, -1 when empty
	depth   int
	entries []stackEntry
}

func newDataStack() dataStack {
	return dataStack{depth: -1}
}

// push makes room for one more entry and returns it for writing. grew
// reports that the backing array was reallocated. limit > 0 bounds the
// depth; exceeding it fails with ErrStackLimit and leaves the stack
// untouched.
func (s *dataStack) push(limit int) (entry *stackEntry, grew bool, err error) {
	s.depth++
	if limit > 0 && s.depth >= limit {
		s.depth--
		return nil, false, ErrStackLimit
	}
	if s.depth >= len(s.entries) {
		// 扩容并保留已有条目
		bigger := make([]stackEntry, len(s.entries)+config.StackDelta)
		copy(bigger, s.entries)
		s.entries = bigger
		grew = true
	}
	return &s.entries[s.depth], grew, nil
}

// pop consumes the top entry and returns its value.
func (s *dataStack) pop() stackEntry {
	e := s.entries[s.depth]
	s.depth--
	return e
}

// alloc is the current capacity, for diagnostics.
func (s *dataStack) alloc() int {
	return len(s.entries)
}
