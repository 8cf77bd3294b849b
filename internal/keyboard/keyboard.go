package keyboard

import (
	"fmt"
	"math"
	"math/rand"
)

const (
	Dt = 0.05

	// PressedThreshold is the normalized key depth at which a key sounds.
	PressedThreshold = 0.5

	// FingerRest is the fingertip-to-key distance of an idle finger.
	FingerRest = 0.08

	keySpring   = 6.0
	keyDamping  = 1.2
	forceGain   = 30.0
	pedalRate   = 4.0
	forearmDrag = 0.35
	fingerRate  = 0.5
	maxForce    = 1.0
)

// Frame is the goal for one step: which keys should sound and whether the
// sustain pedal should be down.
type Frame struct {
	Keys    []bool
	Sustain bool
}

// Action drives one simulation step. KeyForces holds one entry per key.
type Action struct {
	KeyForces []float64
	Pedal     float64
	Forearm   float64
}

type Key struct {
	Position float64
	Velocity float64
}

// State is a minimal piano keyboard: spring-damped keys, a sustain pedal, one
// fingertip per key and a lateral forearm offset.
type State struct {
	Keys       []Key
	Fingertips []float64
	Power      []float64
	Pedal      float64
	Forearm    float64
	Goal       Frame

	step int
}

func NewState(keys int) (*State, error) {
	if keys <= 0 {
		return nil, fmt.Errorf("keyboard requires at least one key, got %d", keys)
	}
	s := &State{
		Keys:       make([]Key, keys),
		Fingertips: make([]float64, keys),
		Power:      make([]float64, keys),
		Goal:       Frame{Keys: make([]bool, keys)},
	}
	for i := range s.Fingertips {
		s.Fingertips[i] = FingerRest
	}
	return s, nil
}

// Step advances the keyboard by Dt and installs goal as the frame the next
// reward evaluation is scored against.
func (s *State) Step(action Action, goal Frame) error {
	if len(action.KeyForces) != len(s.Keys) {
		return fmt.Errorf("keyboard expects %d key forces, got %d", len(s.Keys), len(action.KeyForces))
	}
	if len(goal.Keys) != len(s.Keys) {
		return fmt.Errorf("keyboard expects %d goal keys, got %d", len(s.Keys), len(goal.Keys))
	}

	for i := range s.Keys {
		force := clamp(action.KeyForces[i], -maxForce, maxForce)
		key := &s.Keys[i]

		acc := forceGain*force - keySpring*key.Position - keyDamping*key.Velocity
		key.Velocity += acc * Dt
		key.Position += key.Velocity * Dt
		if key.Position < 0 {
			key.Position, key.Velocity = 0, 0
		}
		if key.Position > 1 {
			key.Position, key.Velocity = 1, 0
		}
		s.Power[i] = math.Abs(force * key.Velocity)

		target := FingerRest * (1 - clamp(force, 0, 1))
		s.Fingertips[i] += (target - s.Fingertips[i]) * fingerRate
	}

	s.Pedal = clamp(s.Pedal+pedalRate*clamp(action.Pedal, -1, 1)*Dt, 0, 1)
	s.Forearm += (clamp(action.Forearm, -1, 1) - forearmDrag*s.Forearm) * Dt

	s.Goal = Frame{Keys: append([]bool(nil), goal.Keys...), Sustain: goal.Sustain}
	s.step++
	return nil
}

func (s *State) StepCount() int {
	return s.step
}

// Pressed reports whether key i is deep enough to sound.
func (s *State) Pressed(i int) bool {
	return s.Keys[i].Position >= PressedThreshold
}

// NewSong generates a deterministic sequence of goal frames. Each note is held
// for a few frames; the pedal follows phrases of notes.
func NewSong(rng *rand.Rand, keys, frames int) []Frame {
	song := make([]Frame, frames)
	held := make([]int, keys)
	sustain := false
	for f := range song {
		if f%16 == 0 {
			sustain = rng.Float64() < 0.5
		}
		frame := Frame{Keys: make([]bool, keys), Sustain: sustain}
		for k := 0; k < keys; k++ {
			if held[k] > 0 {
				held[k]--
				frame.Keys[k] = true
				continue
			}
			if rng.Float64() < 0.15 {
				held[k] = 2 + rng.Intn(4)
				frame.Keys[k] = true
			}
		}
		song[f] = frame
	}
	return song
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
