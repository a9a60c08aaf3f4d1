package collector

// FrameView is a read-only view of one live host call frame. The collector
// only holds a FrameView for the duration of a single event, except for the
// missing-return check, which remembers the parent frame until the next
// event. Frame identity is interface identity: the host must deliver the
// same FrameView value for the same frame.
type FrameView interface {
	// Filename of the source file the frame is executing.
	Filename() string
	// FuncName of the executing function.
	FuncName() string
	// Lineno currently executing.
	Lineno() int
	// FirstLineno of the executing function's body.
	FirstLineno() int
	// Back returns the caller's frame, nil at the bottom of the stack.
	Back() FrameView
}

// FrameInfo is a detached snapshot of a frame's position.
type FrameInfo struct {
	Filename string
	Line     int
	FuncName string
}

// SimFrame is a FrameView backed by plain fields. The replay command uses it
// to rebuild frames from a recorded event log; tests use it directly.
type SimFrame struct {
	File   string
	Func   string
	Line   int
	First  int
	Parent *SimFrame
}

func (f *SimFrame) Filename() string { return f.File }
func (f *SimFrame) FuncName() string { return f.Func }
func (f *SimFrame) Lineno() int      { return f.Line }
func (f *SimFrame) FirstLineno() int { return f.First }

func (f *SimFrame) Back() FrameView {
	if f.Parent == nil {
		return nil
	}
	return f.Parent
}

// Info snapshots the frame's current position.
func (f *SimFrame) Info() FrameInfo {
	return FrameInfo{Filename: f.File, Line: f.Line, FuncName: f.Func}
}
