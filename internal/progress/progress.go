// Package progress carries step progress events from the pipeline services
// to whichever front-end renders them, the terminal UI or plain logs.
package progress

// Step identifies one pipeline stage.
type Step int

// Pipeline stages in execution order.
const (
	StepClassify Step = iota
	StepAlign
	StepConcat
)

// StepCount is the number of pipeline stages.
const StepCount = 3

// String returns the stage name used in logs and the UI.
func (s Step) String() string {
	switch s {
	case StepClassify:
		return "classify"
	case StepAlign:
		return "align"
	case StepConcat:
		return "concat"
	default:
		return "unknown"
	}
}

// Event is one progress update from a running step.
type Event struct {
	// Step is the stage the event belongs to.
	Step Step
	// Current is the number of finished work items.
	Current int
	// Total is the number of planned work items. Zero means indeterminate.
	Total int
	// Message describes the work item being processed.
	Message string
}

// Fraction returns the step completion in [0, 1].
func (e Event) Fraction() float64 {
	if e.Total <= 0 {
		return 0
	}

	f := float64(e.Current) / float64(e.Total)
	if f > 1 {
		f = 1
	}

	return f
}

// Reporter receives progress events. Implementations must tolerate
// concurrent calls; the alignment workers report from multiple goroutines.
type Reporter interface {
	Report(e Event)
}

// Func adapts a plain function to the Reporter interface.
type Func func(Event)

// Report calls the function itself.
func (f Func) Report(e Event) {
	f(e)
}

// Nop returns a reporter that discards events.
func Nop() Reporter {
	return Func(func(Event) {})
}
