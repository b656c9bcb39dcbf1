package events

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type namedEvent string

func (n namedEvent) EventType() string { return string(n) }

func TestRecorderKeepsOrder(t *testing.T) {
	rec := &Recorder{}
	rec.Emit(namedEvent("a"))
	rec.Emit(nil)
	rec.Emit(namedEvent("b"))
	require.Equal(t, []string{"a", "b"}, rec.Types())

	rec.Reset()
	require.Empty(t, rec.Events())
}

func TestFanoutForwardsToEveryEmitter(t *testing.T) {
	first, second := &Recorder{}, &Recorder{}
	Fanout{first, nil, NoopEmitter{}, second}.Emit(namedEvent("x"))
	require.Equal(t, []string{"x"}, first.Types())
	require.Equal(t, []string{"x"}, second.Types())
}
