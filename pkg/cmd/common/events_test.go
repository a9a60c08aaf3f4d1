package common

import (
	"os"
	"path/filepath"
	"testing"

	r "github.com/stretchr/testify/require"
	"github.com/stleox/seecov/pkg/collector"
	"github.com/vmihailenco/msgpack/v5"
)

func TestEventLog_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.bin")
	events := []EventRecord{
		{Frame: 1, Event: "call", File: "a.py", Func: "f", Line: 10, First: 10},
		{Frame: 1, Event: "line", File: "a.py", Func: "f", Line: 10, First: 10},
		{Frame: 1, Event: "return", File: "a.py", Func: "f", Line: 10, First: 10},
	}

	r.NoError(t, WriteEventLog(path, events))
	got, err := ReadEventLog(path)
	r.NoError(t, err)
	r.Equal(t, events, got)
}

func TestEventLog_RejectsUnknownSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.bin")
	r.NoError(t, WriteEventLog(path, nil))

	// rewrite with a bumped schema value
	raw, err := msgpack.Marshal(&eventLog{Schema: eventLogSchema + 1})
	r.NoError(t, err)
	r.NoError(t, os.WriteFile(path, raw, 0644))
	_, err = ReadEventLog(path)
	r.Error(t, err)
}

func TestReplayer_PreservesFrameIdentity(t *testing.T) {
	rp := NewReplayer()

	call := EventRecord{Frame: 7, Event: "call", File: "a.py", Func: "f", Line: 10, First: 10}
	line := EventRecord{Frame: 7, Event: "line", File: "a.py", Func: "f", Line: 11, First: 10}

	f1 := rp.FrameFor(call)
	f2 := rp.FrameFor(line)
	r.Same(t, f1, f2)
	r.Equal(t, 11, f1.Line)
}

func TestReplayer_LinksParents(t *testing.T) {
	rp := NewReplayer()

	outer := rp.FrameFor(EventRecord{Frame: 1, Event: "call", File: "m.py", Func: "m", Line: 1, First: 1})
	inner := rp.FrameFor(EventRecord{Frame: 2, Back: 1, Event: "call", File: "a.py", Func: "f", Line: 10, First: 10})

	r.Same(t, outer, inner.Parent)
	// the bottom frame has no parent, and Back must be a typed-nil-free nil
	r.Nil(t, outer.Back())
}

// TestReplayer_DrivesTracer replays a captured exception scenario end to end.
func TestReplayer_DrivesTracer(t *testing.T) {
	events := []EventRecord{
		{Frame: 1, Event: "call", File: "m.py", Func: "m", Line: 20, First: 19},
		{Frame: 1, Event: "line", File: "m.py", Func: "m", Line: 20, First: 19},
		{Frame: 2, Back: 1, Event: "call", File: "a.py", Func: "f", Line: 10, First: 10},
		{Frame: 2, Back: 1, Event: "line", File: "a.py", Func: "f", Line: 10, First: 10},
		{Frame: 2, Back: 1, Event: "exception", File: "a.py", Func: "f", Line: 10, First: 10},
		{Frame: 1, Event: "line", File: "m.py", Func: "m", Line: 21, First: 19},
		{Frame: 1, Event: "return", File: "m.py", Func: "m", Line: 21, First: 19},
	}

	traceAll := func(filename string, _ collector.FrameView) (*collector.Disposition, error) {
		return &collector.Disposition{Trace: true, SourceFilename: filename}, nil
	}
	c := collector.New(nil, traceAll)
	c.SetArcs(true)
	fn := c.Start()

	rp := NewReplayer()
	for _, rec := range events {
		r.NoError(t, fn(rp.FrameFor(rec), rec.Event, nil, rec.Line))
	}
	c.Stop()

	// the missing return of f was synthesized from the exception trail
	r.Contains(t, c.Data()["a.py"].Arcs, collector.Arc{From: 10, To: -10})
	r.Contains(t, c.Data()["m.py"].Arcs, collector.Arc{From: 20, To: 21})
	r.Equal(t, uint32(1), c.GetStats().MissedReturns)
}
