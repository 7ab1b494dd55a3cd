// Package trace defines the lifecycle events emitted while a simulation runs.
//
// Sinks observe events only; nothing they do can influence a run's outcome.
package trace

// Kind classifies a lifecycle event.
type Kind string

const (
	KindApply    Kind = "apply"
	KindReapply  Kind = "reapply"
	KindRemove   Kind = "remove"
	KindTick     Kind = "tick"
	KindCast     Kind = "cast"
	KindCrit     Kind = "crit"
	KindWait     Kind = "wait"
	KindSkip     Kind = "skip"
	KindResource Kind = "resource"
)

// Event is a single observation at a simulated instant.
type Event struct {
	Time    float64
	Kind    Kind
	Subject string  // spell or effect id
	Amount  float64 // damage, stacks, or resource units, depending on Kind
	Detail  string
}

// Sink receives events. Implementations must not retain or mutate simulation state.
type Sink interface {
	Emit(Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Event)

// Emit calls f(ev).
func (f SinkFunc) Emit(ev Event) { f(ev) }

type nop struct{}

func (nop) Emit(Event) {}

// Nop returns a Sink that discards every event.
func Nop() Sink { return nop{} }

// Recorder collects events in order. Not safe for concurrent use.
type Recorder struct {
	Events []Event
}

// Emit appends ev.
func (r *Recorder) Emit(ev Event) { r.Events = append(r.Events, ev) }

// Count returns the number of recorded events matching kind and subject.
// An empty subject matches every subject.
func (r *Recorder) Count(kind Kind, subject string) int {
	n := 0
	for _, ev := range r.Events {
		if ev.Kind == kind && (subject == "" || ev.Subject == subject) {
			n++
		}
	}
	return n
}
