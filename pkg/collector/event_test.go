package collector

import (
	"testing"

	r "github.com/stretchr/testify/require"
)

func TestEventKindOf(t *testing.T) {
	r.Equal(t, EventCall, EventKindOf("call"))
	r.Equal(t, EventException, EventKindOf("exception"))
	r.Equal(t, EventLine, EventKindOf("line"))
	r.Equal(t, EventReturn, EventKindOf("return"))
	r.Equal(t, EventCCall, EventKindOf("c_call"))
	r.Equal(t, EventOther, EventKindOf("opcode"))
}

func TestEventKindString(t *testing.T) {
	r.Equal(t, "line", EventLine.String())
	r.Equal(t, "other", EventOther.String())
}
