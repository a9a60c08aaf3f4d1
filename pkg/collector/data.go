package collector

// Arc is an observed transition between two line numbers within one function
// activation. The key space deliberately overloads the sign of the line
// numbers, matching the established data format: From == -1 means the frame
// had no previous line (function entry), a negative To is -first_lineno of
// the function and marks an exit arc. Exit arcs from a normal return and
// from a repaired missing return are indistinguishable on purpose.
type Arc struct {
	From int
	To   int
}

// FileData is the observation set for one traced file. Line mode fills
// Lines, arc mode fills Arcs; values are pure set membership, duplicate
// observations collapse silently. Coverage only needs "was this hit".
type FileData struct {
	Lines map[int]struct{}
	Arcs  map[Arc]struct{}
}

func newFileData(arcs bool) *FileData {
	fd := &FileData{}
	if arcs {
		fd.Arcs = make(map[Arc]struct{})
	} else {
		fd.Lines = make(map[int]struct{})
	}
	return fd
}

func (fd *FileData) addLine(line int) {
	fd.Lines[line] = struct{}{}
}

func (fd *FileData) addArc(from, to int) {
	fd.Arcs[Arc{From: from, To: to}] = struct{}{}
}

// Size is the number of distinct observations.
func (fd *FileData) Size() int {
	return len(fd.Lines) + len(fd.Arcs)
}

// CallerSite names one test caller observed while a line executed: the top
// line of the test function and the test line currently executing.
type CallerSite struct {
	Test FrameInfo
	At   FrameInfo
}

// CallerSet is a set of test callers attributed to one observation key.
type CallerSet map[CallerSite]struct{}

// CallerFileData parallels FileData for test-caller attribution: each
// recorded line (or arc) maps to the set of tests that were executing when
// the observation was made.
type CallerFileData struct {
	Lines map[int]CallerSet
	Arcs  map[Arc]CallerSet
}

func newCallerFileData(arcs bool) *CallerFileData {
	cd := &CallerFileData{}
	if arcs {
		cd.Arcs = make(map[Arc]CallerSet)
	} else {
		cd.Lines = make(map[int]CallerSet)
	}
	return cd
}

func (cd *CallerFileData) lineSet(line int) CallerSet {
	s, hit := cd.Lines[line]
	if !hit {
		s = make(CallerSet)
		cd.Lines[line] = s
	}
	return s
}

func (cd *CallerFileData) arcSet(from, to int) CallerSet {
	key := Arc{From: from, To: to}
	s, hit := cd.Arcs[key]
	if !hit {
		s = make(CallerSet)
		cd.Arcs[key] = s
	}
	return s
}
