package collector

import (
	"errors"
)

// Disposition is the policy verdict for one source file: whether its lines
// should be recorded, under what target name, and which plugin (if any)
// claimed the file.
type Disposition struct {
	Trace          bool
	SourceFilename string
	Plugin         string
}

// ShouldTraceFunc decides the disposition of a file the first time a frame
// from it is entered. The result is cached per filename for the whole
// session, so the policy is invoked at most once per distinct filename.
type ShouldTraceFunc func(filename string, frame FrameView) (*Disposition, error)

// ContextIDFunc identifies the current logical execution context (coroutine,
// goroutine, ...). The returned value is used as a map key and must be
// comparable; nil means "default context". When no ContextIDFunc is
// configured the tracer runs single-context with zero lookup cost.
type ContextIDFunc func() any

// WarnFunc receives non-fatal anomaly messages.
type WarnFunc func(msg string)

var (
	// ErrStackLimit reports that the shadow stack hit the configured depth
	// limit. Fatal to the session: the caller must stop tracing.
	ErrStackLimit = errors.New("seecov: shadow stack depth limit exceeded")

	// ErrNilDisposition reports a policy that returned no verdict at all.
	ErrNilDisposition = errors.New("seecov: should_trace policy returned nil disposition")
)
