// Package callers identifies test functions on the call stack while tracing,
// so each recorded line can be attributed to the tests exercising it.
package callers

import (
	"strings"

	"github.com/stleox/seecov/pkg/collector"
)

// codeKey identifies one function body across frames.
type codeKey struct {
	file  string
	first int
	fn    string
}

type stackItem struct {
	code codeKey
	// position of the test function's entry, used to correlate lines of
	// one test to the same logical test
	top collector.FrameInfo
}

// Finder maintains a stack of the test functions currently executing and,
// for each, its currently executing line. It implements
// collector.CallerTracker. Not safe for concurrent use; the tracer drives it
// one event at a time.
type Finder struct {
	// function-name prefixes that mark a test
	namePrefixes []string
	// path fragments that mark test files
	pathParts []string

	stack []stackItem
	// code -> currently executing line of that test
	lines map[codeKey]collector.FrameInfo
}

// New builds a Finder with the default test heuristics: Go-style `Test`
// prefixes plus Python-style `test_`, and files under a tests directory or
// with a _test suffix.
func New() *Finder {
	return &Finder{
		namePrefixes: []string{"Test", "test_"},
		pathParts:    []string{"/tests/", "_test."},
		lines:        make(map[codeKey]collector.FrameInfo),
	}
}

func keyOf(frame collector.FrameView) codeKey {
	return codeKey{
		file:  frame.Filename(),
		first: frame.FirstLineno(),
		fn:    frame.FuncName(),
	}
}

func (f *Finder) isTest(frame collector.FrameView) bool {
	name := frame.FuncName()
	for _, prefix := range f.namePrefixes {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	file := frame.Filename()
	for _, part := range f.pathParts {
		if strings.Contains(file, part) {
			return true
		}
	}
	return false
}

// inTopTest reports whether frame belongs to the test at the top of the
// caller stack. Used to decide when to advance that test's current line and
// when a return pops the stack.
func (f *Finder) inTopTest(frame collector.FrameView) bool {
	if len(f.stack) == 0 || frame == nil {
		return false
	}
	return keyOf(frame) == f.stack[len(f.stack)-1].code
}

// PushIfTest implements collector.CallerTracker.
func (f *Finder) PushIfTest(frame collector.FrameView) {
	if !f.isTest(frame) {
		return
	}
	f.stack = append(f.stack, stackItem{
		code: keyOf(frame),
		top: collector.FrameInfo{
			Filename: frame.Filename(),
			Line:     frame.FirstLineno(),
			FuncName: frame.FuncName(),
		},
	})
}

// LineHit implements collector.CallerTracker: it advances the top test's
// position when the line belongs to it, then reports the current line of
// every test on the stack.
func (f *Finder) LineHit(frame collector.FrameView) []collector.CallerSite {
	if len(f.stack) == 0 {
		return nil
	}

	if f.inTopTest(frame) {
		top := f.stack[len(f.stack)-1]
		f.lines[top.code] = collector.FrameInfo{
			Filename: frame.Filename(),
			Line:     frame.Lineno(),
			FuncName: frame.FuncName(),
		}
	}

	sites := make([]collector.CallerSite, 0, len(f.stack))
	for _, item := range f.stack {
		at, hit := f.lines[item.code]
		if !hit {
			continue
		}
		sites = append(sites, collector.CallerSite{Test: item.top, At: at})
	}
	return sites
}

// PopIfTest implements collector.CallerTracker.
func (f *Finder) PopIfTest(frame collector.FrameView) {
	if !f.inTopTest(frame) {
		return
	}
	top := f.stack[len(f.stack)-1]
	f.stack = f.stack[:len(f.stack)-1]
	delete(f.lines, top.code)
}

// Depth is the number of tests currently on the caller stack.
func (f *Finder) Depth() int {
	return len(f.stack)
}
