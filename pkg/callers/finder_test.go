package callers

import (
	"testing"

	r "github.com/stretchr/testify/require"
	"github.com/stleox/seecov/pkg/collector"
)

func TestFinder_TestHeuristics(t *testing.T) {
	f := New()

	r.True(t, f.isTest(&collector.SimFrame{File: "a.py", Func: "test_thing"}))
	r.True(t, f.isTest(&collector.SimFrame{File: "a.go", Func: "TestThing"}))
	r.True(t, f.isTest(&collector.SimFrame{File: "/proj/tests/util.py", Func: "helper"}))
	r.True(t, f.isTest(&collector.SimFrame{File: "util_test.py", Func: "helper"}))
	r.False(t, f.isTest(&collector.SimFrame{File: "/proj/app/util.py", Func: "helper"}))
}

func TestFinder_AttributesLinesToTest(t *testing.T) {
	f := New()

	test := &collector.SimFrame{File: "tests_a.py", Func: "test_f", Line: 50, First: 50}
	prod := &collector.SimFrame{File: "a.py", Func: "f", Line: 10, First: 10, Parent: test}

	f.PushIfTest(test)
	r.Equal(t, 1, f.Depth())

	// the test body runs a line of its own before calling into production
	test.Line = 51
	f.LineHit(test)

	f.PushIfTest(prod) // not a test, ignored
	r.Equal(t, 1, f.Depth())

	prod.Line = 10
	sites := f.LineHit(prod)
	r.Len(t, sites, 1)
	r.Equal(t, "test_f", sites[0].Test.FuncName)
	r.Equal(t, 50, sites[0].Test.Line)
	// the attribution points at the line the test was executing
	r.Equal(t, 51, sites[0].At.Line)

	f.PopIfTest(prod)
	r.Equal(t, 1, f.Depth())
	f.PopIfTest(test)
	r.Equal(t, 0, f.Depth())
}

func TestFinder_NestedTests(t *testing.T) {
	f := New()

	outer := &collector.SimFrame{File: "tests_a.py", Func: "test_outer", Line: 5, First: 5}
	inner := &collector.SimFrame{File: "tests_a.py", Func: "test_inner", Line: 30, First: 30, Parent: outer}

	f.PushIfTest(outer)
	outer.Line = 6
	f.LineHit(outer)
	f.PushIfTest(inner)
	inner.Line = 31
	sites := f.LineHit(inner)

	// both tests report, outermost first
	r.Len(t, sites, 2)
	r.Equal(t, "test_outer", sites[0].Test.FuncName)
	r.Equal(t, "test_inner", sites[1].Test.FuncName)

	f.PopIfTest(inner)
	r.Equal(t, 1, f.Depth())
	// popping the inner test forgets its line
	sites = f.LineHit(outer)
	r.Len(t, sites, 1)
}

func TestFinder_NoTestsNoSites(t *testing.T) {
	f := New()
	prod := &collector.SimFrame{File: "a.py", Func: "f", Line: 10, First: 10}
	r.Nil(t, f.LineHit(prod))
	f.PopIfTest(prod) // no-op on an empty stack
	r.Equal(t, 0, f.Depth())
}
