package common

import (
	"fmt"
	"os"

	"github.com/stleox/seecov/pkg/collector"
	"github.com/vmihailenco/msgpack/v5"
)

// Bump when the event log format changes.
const eventLogSchema uint16 = 1

// EventRecord is one captured host event in a replayable log. Frame
// identities are opaque numbers unique per frame activation; Back is the
// parent's identity, 0 at the bottom of the stack.
type EventRecord struct {
	Frame int64  `msgpack:"frame"`
	Back  int64  `msgpack:"back"`
	Event string `msgpack:"event"`
	File  string `msgpack:"file"`
	Func  string `msgpack:"func"`
	Line  int    `msgpack:"line"`
	First int    `msgpack:"first"`
}

type eventLog struct {
	Schema uint16        `msgpack:"schema"`
	Events []EventRecord `msgpack:"events"`
}

func ReadEventLog(path string) ([]EventRecord, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var log eventLog
	if err := msgpack.Unmarshal(raw, &log); err != nil {
		return nil, err
	}
	if log.Schema != eventLogSchema {
		return nil, fmt.Errorf("event log %s has schema %d, want %d", path, log.Schema, eventLogSchema)
	}
	return log.Events, nil
}

func WriteEventLog(path string, events []EventRecord) error {
	raw, err := msgpack.Marshal(&eventLog{
		Schema: eventLogSchema,
		Events: events,
	})
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0644)
}

// Replayer rebuilds frames from event records so a captured log can be
// driven through the tracer. Frame identity is preserved: the same record
// identity always yields the same SimFrame, which the missing-return check
// relies on.
type Replayer struct {
	frames map[int64]*collector.SimFrame
}

func NewReplayer() *Replayer {
	return &Replayer{frames: make(map[int64]*collector.SimFrame)}
}

// FrameFor resolves the record's frame, creating it on first sight and
// advancing its line.
func (r *Replayer) FrameFor(rec EventRecord) *collector.SimFrame {
	f, hit := r.frames[rec.Frame]
	if !hit {
		f = &collector.SimFrame{
			File:  rec.File,
			Func:  rec.Func,
			First: rec.First,
		}
		if rec.Back != 0 {
			f.Parent = r.frames[rec.Back]
		}
		r.frames[rec.Frame] = f
	}
	f.Line = rec.Line
	return f
}
