package collector

import (
	"testing"

	r "github.com/stretchr/testify/require"
)

func TestDataStack_GrowthPreservesEntries(t *testing.T) {
	// 150 次 push，步长 100，应该恰好扩容两次
	s := newDataStack()

	grows := 0
	for i := 0; i < 150; i++ {
		entry, grew, err := s.push(0)
		r.NoError(t, err)
		if grew {
			grows++
		}
		entry.lastLine = i
	}

	r.Equal(t, 2, grows)
	r.Equal(t, 149, s.depth)
	r.Equal(t, 200, s.alloc())

	// values below the growth point must survive the reallocations
	for i := 149; i >= 0; i-- {
		entry := s.pop()
		r.Equal(t, i, entry.lastLine)
	}
	r.Equal(t, -1, s.depth)

	// capacity is monotonic: popping never shrinks
	r.Equal(t, 200, s.alloc())
}

func TestDataStack_DepthLimit(t *testing.T) {
	s := newDataStack()

	_, _, err := s.push(2)
	r.NoError(t, err)
	_, _, err = s.push(2)
	r.NoError(t, err)

	_, _, err = s.push(2)
	r.ErrorIs(t, err, ErrStackLimit)
	// a failed push leaves the stack untouched
	r.Equal(t, 1, s.depth)
}

func TestStackRegistry_StableIndices(t *testing.T) {
	reg := newStackRegistry()

	x, isNew := reg.stackFor("X")
	r.True(t, isNew)
	y, isNew := reg.stackFor("Y")
	r.True(t, isNew)
	r.NotEqual(t, x, y)

	// 同一 context 必须命中同一栈
	x2, isNew := reg.stackFor("X")
	r.False(t, isNew)
	r.Equal(t, x, x2)

	// indices stay valid across registry growth
	entry, _, err := reg.at(x).push(0)
	r.NoError(t, err)
	entry.lastLine = 42
	for i := 0; i < 25; i++ {
		reg.stackFor(i)
	}
	r.Equal(t, 42, reg.at(x).entries[0].lastLine)
	r.Equal(t, 27, reg.size())
}
