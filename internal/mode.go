package internal

import (
	"errors"
	"fmt"
	"sync/atomic"
)

var ErrBadTransition = errors.New("undefined mode transition")

// Mode is the assistant's current activity. Exactly one mode is active and
// it is mutated only on the controller goroutine.
type Mode int32

const (
	ModeIdle Mode = iota
	ModeListening
	ModeRetrieving
	ModeGenerating
	ModeDetecting
	ModeSpeaking
)

func (m Mode) String() string {
	switch m {
	case ModeIdle:
		return "idle"
	case ModeListening:
		return "listening"
	case ModeRetrieving:
		return "retrieving"
	case ModeGenerating:
		return "generating"
	case ModeDetecting:
		return "detecting"
	case ModeSpeaking:
		return "speaking"
	default:
		return "unknown"
	}
}

// transitions is the full set of legal edges. The machine is cyclic: there is
// no terminal mode, every request path ends back at idle.
var transitions = map[Mode][]Mode{
	ModeIdle:       {ModeListening, ModeDetecting},
	ModeListening:  {ModeRetrieving, ModeIdle},
	ModeRetrieving: {ModeGenerating},
	ModeGenerating: {ModeSpeaking, ModeIdle},
	ModeDetecting:  {ModeGenerating},
	ModeSpeaking:   {ModeIdle},
}

// Machine tracks the active mode. Transition is only called from the
// controller goroutine; Current may be read from any goroutine and tolerates
// staleness (the idle animator polls it).
type Machine struct {
	current atomic.Int32
	onEnter func(Mode)
}

// NewMachine starts in idle. onEnter fires after every successful transition
// and is where presentation side effects hang.
func NewMachine(onEnter func(Mode)) *Machine {
	m := &Machine{onEnter: onEnter}
	m.current.Store(int32(ModeIdle))
	return m
}

func (m *Machine) Current() Mode {
	return Mode(m.current.Load())
}

// Transition moves to the target mode if the edge is defined.
func (m *Machine) Transition(to Mode) error {
	from := m.Current()
	if !legalTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrBadTransition, from, to)
	}

	m.current.Store(int32(to))
	if m.onEnter != nil {
		m.onEnter(to)
	}
	return nil
}

func legalTransition(from, to Mode) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
