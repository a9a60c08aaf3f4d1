package collector

// Stats are diagnostic counters for one tracing session. Collected only when
// enabled; the hot path guards every update with a nil check so disabled
// stats cost a single comparison per counter.
type Stats struct {
	Calls      uint32
	Lines      uint32
	Returns    uint32
	Exceptions uint32
	Others     uint32

	NewFiles      uint32
	MissedReturns uint32
	StackReallocs uint32
	Errors        uint32

	// current capacity of the default shadow stack
	StackAlloc int
	// number of known execution contexts
	Contexts int
}
