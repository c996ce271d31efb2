package pet

// EventType identifies a notable engine transition.
type EventType string

const (
	EventShake        EventType = "pet.shake"
	EventEvolve       EventType = "pet.evolve"
	EventEvolved      EventType = "pet.evolved"
	EventLevelUp      EventType = "pet.levelup"
	EventBattleStart  EventType = "pet.battle_start"
	EventBattleAction EventType = "pet.battle_action"
	EventBattleEnd    EventType = "pet.battle_end"
	EventDied         EventType = "pet.died"
	EventRevived      EventType = "pet.revived"
)

// Event is a fire-and-forget notification emitted by the engine so a
// presentation layer can react. Payload keys follow the event's contract
// (see the Sink doc on each emit site).
type Event struct {
	Type EventType      `json:"type"`
	Data map[string]any `json:"data,omitempty"`
}

// Sink receives engine events. Implementations must not block and have
// no way to fail the triggering operation; drop or log on error.
type Sink interface {
	Emit(event Event)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(Event)

func (f SinkFunc) Emit(event Event) { f(event) }

type noopSink struct{}

func (noopSink) Emit(Event) {}
