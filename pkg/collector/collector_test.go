package collector

import (
	"testing"

	"github.com/spf13/viper"
	r "github.com/stretchr/testify/require"
)

// mockDispatcher records the install / clear calls a host runtime would see.
type mockDispatcher struct {
	fn      TraceFunc
	sets    int
	clears  int
	cleared bool
}

func (d *mockDispatcher) SetTrace(fn TraceFunc) {
	d.fn = fn
	d.sets++
	d.cleared = false
}

func (d *mockDispatcher) ClearTrace() {
	d.fn = nil
	d.clears++
	d.cleared = true
}

func TestCollector_DispatcherLifecycle(t *testing.T) {
	c := mockCollector(false)
	d := &mockDispatcher{}
	c.SetDispatcher(d)

	fn := c.Start()
	r.Equal(t, 1, d.sets)
	r.NotNil(t, d.fn)

	f := &SimFrame{File: "a.py", Func: "f", Line: 10, First: 10}
	r.NoError(t, fn(f, "call", nil, 0))
	r.NoError(t, fn(f, "line", nil, 10))
	r.NoError(t, fn(f, "return", nil, 10))

	c.Stop()
	r.True(t, d.cleared)
	r.Equal(t, 1, d.clears)

	// Stop 幂等
	c.Stop()
	c.Stop()
	r.Equal(t, 1, d.clears)
}

func TestCollector_RestartKeepsData(t *testing.T) {
	c := mockCollector(false)

	fn := c.Start()
	f := &SimFrame{File: "a.py", Func: "f", Line: 10, First: 10}
	r.NoError(t, fn(f, "call", nil, 0))
	r.NoError(t, fn(f, "line", nil, 10))
	r.NoError(t, fn(f, "return", nil, 10))
	c.Stop()

	// a second session accumulates into the same data sets
	fn = c.Start()
	g := &SimFrame{File: "a.py", Func: "g", Line: 30, First: 30}
	r.NoError(t, fn(g, "call", nil, 0))
	r.NoError(t, fn(g, "line", nil, 30))
	r.NoError(t, fn(g, "return", nil, 30))
	c.Stop()

	r.Equal(t, map[int]struct{}{10: {}, 30: {}}, c.Data()["a.py"].Lines)
}

func TestCollector_StatsDisabled(t *testing.T) {
	// an explicit config without SEECOV_STATS keeps the counters off
	c := New(viper.New(), traceAll)
	r.Nil(t, c.GetStats())
}

func TestCollector_StatsSnapshot(t *testing.T) {
	c := mockCollector(false)
	fn := c.Start()

	f := &SimFrame{File: "a.py", Func: "f", Line: 10, First: 10}
	r.NoError(t, fn(f, "call", nil, 0))
	r.NoError(t, fn(f, "line", nil, 10))
	r.NoError(t, fn(f, "line", nil, 11))
	r.NoError(t, fn(f, "return", nil, 11))
	c.Stop()

	snap := c.GetStats()
	r.NotNil(t, snap)
	r.Equal(t, uint32(1), snap.Calls)
	r.Equal(t, uint32(2), snap.Lines)
	r.Equal(t, uint32(1), snap.Returns)
	r.Equal(t, uint32(1), snap.NewFiles)
	r.Equal(t, 100, snap.StackAlloc)

	// a snapshot, not a live view
	snap.Calls = 99
	r.Equal(t, uint32(1), c.GetStats().Calls)
}

func TestCollector_PluginAttribution(t *testing.T) {
	policy := func(filename string, _ FrameView) (*Disposition, error) {
		if filename == "tmpl.html" {
			return &Disposition{Trace: true, SourceFilename: "tmpl.html", Plugin: "html"}, nil
		}
		return &Disposition{Trace: true, SourceFilename: filename}, nil
	}
	c := New(nil, policy)
	fn := c.Start()

	f := &SimFrame{File: "tmpl.html", Func: "render", Line: 3, First: 3}
	r.NoError(t, fn(f, "call", nil, 0))
	r.NoError(t, fn(f, "line", nil, 3))
	r.NoError(t, fn(f, "return", nil, 3))
	c.Stop()

	r.Equal(t, map[string]string{"tmpl.html": "html"}, c.PluginData())
}

func TestCollector_Observations(t *testing.T) {
	c := mockCollector(true)
	fn := c.Start()

	f := &SimFrame{File: "a.py", Func: "f", Line: 10, First: 10}
	r.NoError(t, fn(f, "call", nil, 0))
	r.NoError(t, fn(f, "line", nil, 10))
	r.NoError(t, fn(f, "return", nil, 10))
	c.Stop()

	obs := c.Observations()
	r.Len(t, obs, 2)
	for _, o := range obs {
		r.Equal(t, "a.py", o.File)
		r.True(t, o.IsArc)
	}
	r.Contains(t, obs, Observation{File: "a.py", From: -1, To: 10, IsArc: true})
	r.Contains(t, obs, Observation{File: "a.py", From: 10, To: -10, IsArc: true})
}
