package events

import "time"

type Kind string

type Event interface {
	Kind() Kind
	Timestamp() time.Time
}

type Base struct {
	kind      Kind
	timestamp time.Time
}

func NewBase(kind Kind) Base {
	return Base{kind: kind, timestamp: time.Now()}
}

func (b Base) Kind() Kind {
	return b.kind
}

func (b Base) Timestamp() time.Time {
	return b.timestamp
}

// Sink receives events in the order a transport produced them.
type Sink func(Event)

// Emit forwards each event to the sink, skipping nils.
func (s Sink) Emit(evts ...Event) {
	if s == nil {
		return
	}
	for _, event := range evts {
		if event != nil {
			s(event)
		}
	}
}
