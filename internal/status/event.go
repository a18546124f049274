package status

import "time"

// Kind identifies an event stream.
type Kind string

// Event kinds.
const (
	KindConnection Kind = "connection"
	KindMovement   Kind = "movement"
	KindError      Kind = "error"
)

// ConnectionEvent reports the session state.
type ConnectionEvent struct {
	Connected bool   `json:"connected"`
	Peer      string `json:"peer,omitempty"`
}

// MovementEvent summarises the last emitted vector.
type MovementEvent struct {
	Active  bool    `json:"active"`
	Speed   float32 `json:"speed"`
	Running bool    `json:"running"`
}

// ErrorEvent carries an error message. Fatal is set when the process is
// about to exit because of it.
type ErrorEvent struct {
	Message string `json:"message"`
	Fatal   bool   `json:"fatal"`
}

// Event is the envelope delivered to sinks. Exactly one payload field is
// set, matching Kind.
type Event struct {
	Kind       Kind             `json:"kind"`
	At         time.Time        `json:"at"`
	Connection *ConnectionEvent `json:"connection,omitempty"`
	Movement   *MovementEvent   `json:"movement,omitempty"`
	Error      *ErrorEvent      `json:"error,omitempty"`
}

// Payload returns the populated payload field.
func (e Event) Payload() any {
	switch e.Kind {
	case KindConnection:
		return e.Connection
	case KindMovement:
		return e.Movement
	case KindError:
		return e.Error
	default:
		return nil
	}
}

// sameAs reports whether e carries the same payload as other.
func (e Event) sameAs(other Event) bool {
	if e.Kind != other.Kind {
		return false
	}
	switch e.Kind {
	case KindConnection:
		return *e.Connection == *other.Connection
	case KindMovement:
		return *e.Movement == *other.Movement
	case KindError:
		return *e.Error == *other.Error
	default:
		return false
	}
}

// Snapshot is the latest event of each kind.
type Snapshot struct {
	Connection ConnectionEvent `json:"connection"`
	Movement   MovementEvent   `json:"movement"`
	LastError  *ErrorEvent     `json:"last_error,omitempty"`
	UpdatedAt  time.Time       `json:"updated_at"`
}
