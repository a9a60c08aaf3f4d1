package collector

// EventKind enumerates the host runtime trace events. The numeric order
// follows the host protocol: call, exception, line, return, then the
// C-function variants.
type EventKind int

const (
	EventCall EventKind = iota
	EventException
	EventLine
	EventReturn
	EventCCall
	EventCException
	EventCReturn
	EventOther
)

var eventNames = [...]string{
	"call", "exception", "line", "return",
	"c_call", "c_exception", "c_return",
}

// EventKindOf maps a host event name to its kind. Unknown names map to
// EventOther, which the tracer only counts.
func EventKindOf(name string) EventKind {
	for i, n := range eventNames {
		if n == name {
			return EventKind(i)
		}
	}
	return EventOther
}

func (k EventKind) String() string {
	if k >= 0 && int(k) < len(eventNames) {
		return eventNames[k]
	}
	return "other"
}
