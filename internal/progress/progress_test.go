package progress

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestFraction clamps completion into the unit interval.
func TestFraction(t *testing.T) {
	t.Parallel()

	require.Zero(t, Event{Total: 0, Current: 5}.Fraction())
	require.InDelta(t, 0.5, Event{Current: 1, Total: 2}.Fraction(), 0.001)
	require.InDelta(t, 1.0, Event{Current: 7, Total: 5}.Fraction(), 0.001)
}

// TestFuncReporter forwards events to the wrapped function.
func TestFuncReporter(t *testing.T) {
	t.Parallel()

	var got []Event

	r := Func(func(e Event) {
		got = append(got, e)
	})
	r.Report(Event{Step: StepAlign, Current: 1, Total: 3, Message: "x"})

	require.Len(t, got, 1)
	require.Equal(t, StepAlign, got[0].Step)
	require.Equal(t, "align", got[0].Step.String())
}
