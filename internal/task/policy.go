package task

import (
	"context"
	"math/rand"

	"pianoreward/internal/keyboard"
)

// ScriptedPolicy presses exactly the goal keys and tracks the pedal goal.
// Noise adds uniform jitter in [-Noise, Noise] to every key force.
type ScriptedPolicy struct {
	Noise float64
	rng   *rand.Rand
}

func NewScriptedPolicy(seed int64, noise float64) *ScriptedPolicy {
	return &ScriptedPolicy{Noise: noise, rng: rand.New(rand.NewSource(seed))}
}

func (p *ScriptedPolicy) Act(_ context.Context, state *keyboard.State) (keyboard.Action, error) {
	forces := make([]float64, len(state.Keys))
	for i := range forces {
		forces[i] = -1
		if state.Goal.Keys[i] {
			forces[i] = 1
		}
		if p.Noise > 0 && p.rng != nil {
			forces[i] += (p.rng.Float64()*2 - 1) * p.Noise
		}
	}
	pedal := -1.0
	if state.Goal.Sustain {
		pedal = 1
	}
	return keyboard.Action{
		KeyForces: forces,
		Pedal:     pedal,
		Forearm:   -state.Forearm,
	}, nil
}
