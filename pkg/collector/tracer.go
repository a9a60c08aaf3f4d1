package collector

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/stleox/seecov/pkg/config"
)

// CallerTracker attributes observations to the test functions currently
// executing above them on the call stack. Optional; see pkg/callers.
type CallerTracker interface {
	// PushIfTest inspects a frame being entered and pushes it on the
	// caller stack if it is a test function.
	PushIfTest(frame FrameView)
	// LineHit updates the top test's executing position from frame and
	// reports the current line of every test on the caller stack.
	LineHit(frame FrameView) []CallerSite
	// PopIfTest inspects a frame being left and pops the caller stack if
	// the frame is its top test.
	PopIfTest(frame FrameView)
}

// Tracer is the per-event state machine. It keeps a shadow call stack per
// logical execution context and writes observations into per-file data sets
// owned by the Collector. One event at a time: the tracer is not reentrant
// and must not be driven from several OS threads without the serialize
// option.
type Tracer struct {
	// external collaborators, wired by the Collector
	shouldTrace ShouldTraceFunc
	warn        WarnFunc
	contextID   ContextIDFunc
	tracker     CallerTracker

	// observation sinks, owned by the Collector and merely referenced here
	data        map[string]*FileData
	pluginData  map[string]string
	callersData map[string]*CallerFileData

	// the policy runs at most once per filename; its verdicts live here
	shouldTraceCache map[string]*Disposition

	started       bool
	stopped       bool
	tracingArcs   bool
	recordCallers bool

	def      dataStack     // used when we aren't doing contexts
	registry stackRegistry // used when we are doing contexts
	cur      int           // defaultStack, or an index into the registry

	// the current frame's entry, copied from the stack (not aliased into it)
	curEntry stackEntry

	// the parent frame of the last exception event, to fix missing returns
	lastExcBack      FrameView
	lastExcFirstLine int

	maxDepth int
	stats    *Stats

	// coarse per-event lock for hosts that genuinely deliver events from
	// several OS threads; nil in the common single-threaded case
	mu *sync.Mutex
}

// setDataStack points t.cur at the proper stack for the current context.
func (t *Tracer) setDataStack() {
	if t.contextID == nil {
		t.cur = defaultStack
		return
	}
	id := t.contextID()
	if id == nil {
		t.cur = defaultStack
		return
	}
	idx, isNew := t.registry.stackFor(id)
	if isNew {
		logrus.Debugf("seecov made stack#%d for new context %v", idx, id)
	}
	t.cur = idx
}

func (t *Tracer) stack() *dataStack {
	if t.cur == defaultStack {
		return &t.def
	}
	return t.registry.at(t.cur)
}

// HandleEvent runs the state machine for one host event. lineno <= 0 means
// "use the frame's own line number"; a positive lineno overrides it, which
// replay uses to reproduce captured events. Any returned error is fatal to
// the session: the caller must stop tracing, not retry.
func (t *Tracer) HandleEvent(frame FrameView, kind EventKind, lineno int) error {
	if t.mu != nil {
		t.mu.Lock()
		defer t.mu.Unlock()
	}
	if t.stopped {
		return nil
	}
	if lineno <= 0 {
		lineno = frame.Lineno()
	}

	if config.Debug {
		config.Log4RawEvent.WithFields(logrus.Fields{
			"event": kind.String(),
			"file":  frame.Filename(),
			"line":  lineno,
		}).Debug("event")
	}

	// Some hosts forget to send a return event when an exception unwinds a
	// function with no handler in it. If the very next event happens in the
	// frame we remembered as the exception's parent, the return was
	// skipped: synthesize it. The frame in hand is not the returning frame,
	// that one is gone, but the return handling doesn't need it.
	if t.lastExcBack != nil {
		if frame == t.lastExcBack {
			if t.stats != nil {
				t.stats.MissedReturns++
			}
			t.setDataStack()
			if s := t.stack(); s.depth >= 0 {
				if t.tracingArcs && t.curEntry.fileData != nil {
					t.curEntry.fileData.addArc(t.curEntry.lastLine, -t.lastExcFirstLine)
				}
				t.curEntry = s.pop()
			}
		}
		t.lastExcBack = nil
	}

	switch kind {
	case EventCall:
		if t.stats != nil {
			t.stats.Calls++
		}
		t.setDataStack()
		entry, grew, err := t.stack().push(t.maxDepth)
		if err != nil {
			if t.stats != nil {
				t.stats.Errors++
			}
			return err
		}
		if grew && t.stats != nil {
			t.stats.StackReallocs++
		}

		// Push the current state on the stack.
		*entry = t.curEntry

		// Check if we should trace this file.
		filename := frame.Filename()
		disp, hit := t.shouldTraceCache[filename]
		if !hit {
			// We've never considered this file before.
			if t.stats != nil {
				t.stats.NewFiles++
			}
			disp, err = t.shouldTrace(filename, frame)
			if err != nil {
				if t.stats != nil {
					t.stats.Errors++
				}
				return fmt.Errorf("should_trace policy for %q: %w", filename, err)
			}
			if disp == nil {
				if t.stats != nil {
					t.stats.Errors++
				}
				return ErrNilDisposition
			}
			t.shouldTraceCache[filename] = disp
		}

		tracename := ""
		if disp.Trace {
			tracename = disp.SourceFilename
		}
		if tracename != "" {
			fd, seen := t.data[tracename]
			if !seen {
				fd = newFileData(t.tracingArcs)
				t.data[tracename] = fd
				if disp.Plugin != "" && t.pluginData != nil {
					// If the disposition mentions a plugin, record that.
					t.pluginData[tracename] = disp.Plugin
				}
			}
			t.curEntry.fileData = fd
			if t.recordCallers && t.tracker != nil {
				cd, seen := t.callersData[tracename]
				if !seen {
					cd = newCallerFileData(t.tracingArcs)
					t.callersData[tracename] = cd
				}
				t.curEntry.fileCallers = cd
				t.tracker.PushIfTest(frame)
			}
		} else {
			t.curEntry.fileData = nil
			t.curEntry.fileCallers = nil
		}

		// The next arc will be entering a code block, keyed (-1, n).
		t.curEntry.lastLine = config.NoLastLine

	case EventLine:
		if t.stats != nil {
			t.stats.Lines++
		}
		if t.stack().depth >= 0 {
			if t.curEntry.fileData != nil {
				// We're tracing in this frame: record something.
				if t.tracingArcs {
					t.curEntry.fileData.addArc(t.curEntry.lastLine, lineno)
				} else {
					t.curEntry.fileData.addLine(lineno)
				}
				if t.recordCallers && t.tracker != nil && t.curEntry.fileCallers != nil {
					if sites := t.tracker.LineHit(frame); len(sites) > 0 {
						var set CallerSet
						if t.tracingArcs {
							set = t.curEntry.fileCallers.arcSet(t.curEntry.lastLine, lineno)
						} else {
							set = t.curEntry.fileCallers.lineSet(lineno)
						}
						for _, site := range sites {
							set[site] = struct{}{}
						}
					}
				}
			}
			// Advanced even while not recording, so the state stays
			// consistent with the repair path.
			t.curEntry.lastLine = lineno
		}

	case EventReturn:
		if t.stats != nil {
			t.stats.Returns++
		}
		// A near-copy of this code is above in the missing-return handler.
		t.setDataStack()
		if s := t.stack(); s.depth >= 0 {
			if t.tracingArcs && t.curEntry.fileData != nil {
				t.curEntry.fileData.addArc(t.curEntry.lastLine, -frame.FirstLineno())
			}
			if t.recordCallers && t.tracker != nil {
				t.tracker.PopIfTest(frame)
			}
			t.curEntry = s.pop()
		}

	case EventException:
		if t.stats != nil {
			t.stats.Exceptions++
		}
		t.lastExcBack = frame.Back()
		t.lastExcFirstLine = frame.FirstLineno()

	default:
		if t.stats != nil {
			t.stats.Others++
		}
	}

	return nil
}

// Call is the directly-installable trace function shape: event is a host
// event name ("call", "exception", "line", "return", "c_call",
// "c_exception", "c_return"), lineno > 0 forces the line number so captured
// events can be replayed deterministically. Returns the tracer itself on
// success so it can be re-installed as the active trace function.
func (t *Tracer) Call(frame FrameView, event string, _ any, lineno int) (*Tracer, error) {
	kind := EventKindOf(event)
	if kind == EventOther && t.warn != nil {
		t.warn(fmt.Sprintf("unknown trace event %q", event))
	}
	if err := t.HandleEvent(frame, kind, lineno); err != nil {
		return nil, err
	}
	return t, nil
}

// Depth of the current context's shadow stack, -1 when empty.
func (t *Tracer) Depth() int {
	return t.stack().depth
}
