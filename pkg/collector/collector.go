package collector

import (
	"sync"

	"github.com/spf13/viper"
	"github.com/stleox/seecov/pkg/config"
)

// TraceFunc is the event intake installed into the host's trace-dispatch
// mechanism.
type TraceFunc func(frame FrameView, event string, arg any, lineno int) error

// EventDispatcher is the host runtime's trace-dispatch mechanism, as seen by
// the collector: set a trace function, clear it.
type EventDispatcher interface {
	SetTrace(fn TraceFunc)
	ClearTrace()
}

// Collector owns a tracing session: the tracer, the observation maps it
// writes into, and the optional sinks. The maps outlive individual frames
// and are freed with the collector, never by the tracer.
type Collector struct {
	tracer *Tracer

	// filename -> observation set
	data map[string]*FileData
	// filename -> plugin name, recorded once per newly-seen file
	pluginData map[string]string
	// filename -> test caller attribution
	callersData map[string]*CallerFileData

	dispatcher EventDispatcher
	olap       *Olap

	arcs    bool
	started bool

	tracerProvider tracerProvider
}

// New builds a collector around a should-trace policy. vp == nil is the
// testing configuration: stats on, no olap.
func New(vp *viper.Viper, shouldTrace ShouldTraceFunc) *Collector {
	var c Collector
	c.data = make(map[string]*FileData)
	c.pluginData = make(map[string]string)
	c.callersData = make(map[string]*CallerFileData)

	c.tracer = &Tracer{
		shouldTrace:      shouldTrace,
		data:             c.data,
		pluginData:       c.pluginData,
		callersData:      c.callersData,
		shouldTraceCache: make(map[string]*Disposition),
		def:              newDataStack(),
		registry:         newStackRegistry(),
		cur:              defaultStack,
		curEntry:         stackEntry{lastLine: config.NoLastLine},
	}

	if vp == nil {
		c.tracer.stats = &Stats{} // under testing
		return &c
	}

	c.arcs = vp.GetBool("SEECOV_ARCS")
	c.tracer.maxDepth = vp.GetInt("SEECOV_MAX_STACK_DEPTH")
	if vp.GetBool("SEECOV_STATS") {
		c.tracer.stats = &Stats{}
	}
	if vp.GetBool("SEECOV_SERIALIZE") {
		c.tracer.mu = &sync.Mutex{}
	}
	if vp.GetBool("SEECOV_OLAP") {
		c.olap = NewOlap(vp)
	}
	return &c
}

// SetArcs switches between arc and line recording. Only before Start.
func (c *Collector) SetArcs(arcs bool) {
	c.arcs = arcs
}

// SetContextIDFunc enables context-aware stack multiplexing.
func (c *Collector) SetContextIDFunc(fn ContextIDFunc) {
	c.tracer.contextID = fn
}

// SetWarn wires the non-fatal anomaly callback.
func (c *Collector) SetWarn(fn WarnFunc) {
	c.tracer.warn = fn
}

// SetCallerTracker enables test-caller attribution.
func (c *Collector) SetCallerTracker(tr CallerTracker) {
	c.tracer.tracker = tr
	c.tracer.recordCallers = tr != nil
}

// SetDispatcher wires the host's trace-dispatch mechanism.
func (c *Collector) SetDispatcher(d EventDispatcher) {
	c.dispatcher = d
}

// Start installs the tracer into the host dispatcher, resets the entry
// state, and derives the arc flag. The returned TraceFunc is the same
// function the dispatcher got; hosts whose event API re-installs "the trace
// function" can set it again.
func (c *Collector) Start() TraceFunc {
	c.tracer.tracingArcs = c.arcs
	c.tracer.curEntry.lastLine = config.NoLastLine
	c.tracer.stopped = false
	c.tracer.started = true
	c.started = true

	fn := func(frame FrameView, event string, arg any, lineno int) error {
		_, err := c.tracer.Call(frame, event, arg, lineno)
		return err
	}
	if c.dispatcher != nil {
		c.dispatcher.SetTrace(fn)
	}
	return fn
}

// Stop detaches from the dispatcher and gates the tracer so raw deliveries
// that bypass the dispatcher no longer mutate data. Idempotent.
func (c *Collector) Stop() {
	if !c.started {
		return
	}
	if c.dispatcher != nil {
		c.dispatcher.ClearTrace()
	}
	c.tracer.stopped = true
	c.tracer.started = false
	c.started = false
}

// GetStats snapshots the diagnostic counters, nil when stats are disabled.
func (c *Collector) GetStats() *Stats {
	if c.tracer.stats == nil {
		return nil
	}
	snap := *c.tracer.stats
	snap.StackAlloc = c.tracer.def.alloc()
	snap.Contexts = c.tracer.registry.size()
	return &snap
}

// Tracer exposes the event handler, for hosts that install it directly.
func (c *Collector) Tracer() *Tracer {
	return c.tracer
}

// Data is the raw filename -> observation set map.
func (c *Collector) Data() map[string]*FileData {
	return c.data
}

// PluginData is the filename -> plugin attribution map.
func (c *Collector) PluginData() map[string]string {
	return c.pluginData
}

// CallersData is the filename -> test caller attribution map.
func (c *Collector) CallersData() map[string]*CallerFileData {
	return c.callersData
}

// Olap is the configured observation sink, nil when disabled.
func (c *Collector) Olap() *Olap {
	return c.olap
}

// Observation is one flattened coverage fact, the unit handed to sinks.
// Line observations carry To only; arc observations carry both ends, with
// the negative-To exit convention intact.
type Observation struct {
	File   string
	From   int
	To     int
	IsArc  bool
	Plugin string
}

// Observations flattens the collected data for bulk sinks. Order is
// unspecified.
func (c *Collector) Observations() []Observation {
	obs := make([]Observation, 0, len(c.data))
	for file, fd := range c.data {
		plugin := c.pluginData[file]
		for line := range fd.Lines {
			obs = append(obs, Observation{File: file, To: line, Plugin: plugin})
		}
		for arc := range fd.Arcs {
			obs = append(obs, Observation{File: file, From: arc.From, To: arc.To, IsArc: true, Plugin: plugin})
		}
	}
	return obs
}
