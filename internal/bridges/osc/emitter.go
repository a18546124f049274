package osc

import (
	"errors"
	"sync"
	"time"

	"github.com/nerrad567/oscleash/internal/infrastructure/influxdb"
	"github.com/nerrad567/oscleash/internal/leash"
	"github.com/nerrad567/oscleash/internal/status"
)

// Sender writes one OSC message to the connected client.
type Sender interface {
	Send(address string, arg any) error
}

// MovementRecorder stores emitted vectors. Satisfied by *influxdb.Client.
type MovementRecorder interface {
	WriteMovement(m influxdb.Movement, at time.Time)
}

// Emitter turns a movement vector into VRChat input messages and a
// movement status event.
type Emitter struct {
	sender   Sender
	settings SettingsSource
	status   StatusPublisher
	recorder MovementRecorder
	logger   Logger
	now      func() time.Time

	mu      sync.Mutex
	last    status.MovementEvent
	hasLast bool
}

// NewEmitter creates an emitter. recorder may be nil.
func NewEmitter(sender Sender, src SettingsSource, pub StatusPublisher, recorder MovementRecorder, logger Logger) *Emitter {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Emitter{
		sender:   sender,
		settings: src,
		status:   pub,
		recorder: recorder,
		logger:   logger,
		now:      time.Now,
	}
}

// Emit sends v. Vertical and Horizontal are always sent, LookHorizontal
// only while turning is enabled, and Run as int32 1 or 0. Without a
// session every send is a logged no-op.
func (e *Emitter) Emit(v leash.Vector) {
	e.logger.Debug("movement update",
		"vertical", v.Vertical,
		"horizontal", v.Horizontal,
		"turn", v.Turn,
		"running", v.Running)

	e.send(AddressVertical, v.Vertical)
	e.send(AddressHorizontal, v.Horizontal)
	if e.settings.Current().TurningEnabled {
		e.send(AddressLookHorizontal, v.Turn)
	}
	run := int32(0)
	if v.Running {
		run = 1
	}
	e.send(AddressRun, run)

	if e.recorder != nil {
		e.recorder.WriteMovement(influxdb.Movement{
			Vertical:   v.Vertical,
			Horizontal: v.Horizontal,
			Turn:       v.Turn,
			Running:    v.Running,
		}, e.now())
	}

	ev := status.MovementEvent{Active: v.Moving(), Speed: v.Speed(), Running: v.Running}
	e.mu.Lock()
	duplicate := e.hasLast && ev == e.last
	e.last, e.hasLast = ev, true
	e.mu.Unlock()
	if !duplicate {
		e.status.PublishMovement(ev)
	}
}

func (e *Emitter) send(address string, arg any) {
	err := e.sender.Send(address, arg)
	switch {
	case err == nil:
	case errors.Is(err, ErrNotConnected):
		e.logger.Warn("no client connected, skipping message", "address", address)
	default:
		e.logger.Warn("sending osc message", "address", address, "error", err)
	}
}

// reset forgets the last movement event so the next one is always
// published. Called when a new session starts.
func (e *Emitter) reset() {
	e.mu.Lock()
	e.hasLast = false
	e.mu.Unlock()
}
