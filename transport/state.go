package transport

import (
	"time"

	"github.com/cwbudde/algo-fxplayer/dsp/effectchain"
)

// State is the transport's playback state.
type State int

const (
	Stopped State = iota
	Playing
	Paused
)

func (s State) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	default:
		return "unknown"
	}
}

// EventKind identifies what an Event reports.
type EventKind int

const (
	// EventState is sent on every state transition.
	EventState EventKind = iota
	// EventPosition is sent by the position sampler while playing and
	// after seeks.
	EventPosition
	// EventRebuilt is sent after a chain rebuild.
	EventRebuilt
	// EventLoaded is sent after a new source was loaded.
	EventLoaded
	// EventError reports asynchronous failures: device faults and decode
	// errors on the prefetch goroutine.
	EventError
)

func (k EventKind) String() string {
	switch k {
	case EventState:
		return "state"
	case EventPosition:
		return "position"
	case EventRebuilt:
		return "rebuilt"
	case EventLoaded:
		return "loaded"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// Event is delivered to subscribers. Fields not relevant to Kind are zero.
type Event struct {
	Kind     EventKind
	State    State
	Position time.Duration
	Total    time.Duration
	Path     string
	Units    []effectchain.Kind
	Settings effectchain.Settings
	Err      error
}
