package task

import (
	"fmt"
	"math"

	"pianoreward/internal/keyboard"
	"pianoreward/internal/reward"
)

const (
	KeyPressTerm  = "key_press_reward"
	SustainTerm   = "sustain_reward"
	EnergyTerm    = "energy_reward"
	FingeringTerm = reward.FingeringSlot
	ForearmTerm   = reward.ForearmSlot

	// tolerance value at exactly one margin outside the bounds
	marginValue = 0.1
)

var gaussianScale = math.Sqrt(-2 * math.Log(marginValue))

// tolerance is 1 inside [lower, upper] and decays as a gaussian outside it,
// reaching marginValue at one margin away.
func tolerance(x, lower, upper, margin float64) float64 {
	if x >= lower && x <= upper {
		return 1
	}
	if margin <= 0 {
		return 0
	}
	d := lower - x
	if x > upper {
		d = x - upper
	}
	scaled := d / margin * gaussianScale
	return math.Exp(-0.5 * scaled * scaled)
}

func keyboardState(physics reward.Physics) (*keyboard.State, error) {
	state, ok := physics.(*keyboard.State)
	if !ok || state == nil {
		return nil, fmt.Errorf("expected *keyboard.State physics, got %T", physics)
	}
	return state, nil
}

// keyPressReward splits evenly between pressing the goal keys and leaving
// every other key silent.
func keyPressReward(physics reward.Physics) (reward.Reward, error) {
	state, err := keyboardState(physics)
	if err != nil {
		return 0, err
	}
	on, goals := 0.0, 0
	falsePositive := false
	for i, key := range state.Keys {
		if state.Goal.Keys[i] {
			on += tolerance(key.Position, keyboard.PressedThreshold, 1, keyboard.PressedThreshold)
			goals++
			continue
		}
		if state.Pressed(i) {
			falsePositive = true
		}
	}
	onTerm := 1.0
	if goals > 0 {
		onTerm = on / float64(goals)
	}
	offTerm := 1.0
	if falsePositive {
		offTerm = 0
	}
	return 0.5*onTerm + 0.5*offTerm, nil
}

func sustainReward(physics reward.Physics) (reward.Reward, error) {
	state, err := keyboardState(physics)
	if err != nil {
		return 0, err
	}
	target := 0.0
	if state.Goal.Sustain {
		target = 1
	}
	return tolerance(math.Abs(state.Pedal-target), 0, 0.25, 0.5), nil
}

// energyReward penalizes actuator power; it is never positive.
func energyReward(penalty float64) reward.RewardFn {
	return func(physics reward.Physics) (reward.Reward, error) {
		state, err := keyboardState(physics)
		if err != nil {
			return 0, err
		}
		power := 0.0
		for _, p := range state.Power {
			power += p
		}
		return -penalty * power, nil
	}
}

// fingeringReward scores how close the fingertips assigned to goal keys are.
func fingeringReward(physics reward.Physics) (reward.Reward, error) {
	state, err := keyboardState(physics)
	if err != nil {
		return 0, err
	}
	total, goals := 0.0, 0
	for i, want := range state.Goal.Keys {
		if !want {
			continue
		}
		total += tolerance(state.Fingertips[i], 0, 0.01, keyboard.FingerRest)
		goals++
	}
	if goals == 0 {
		return 0, nil
	}
	return total / float64(goals), nil
}

func forearmReward(limit float64) reward.RewardFn {
	return func(physics reward.Physics) (reward.Reward, error) {
		state, err := keyboardState(physics)
		if err != nil {
			return 0, err
		}
		return tolerance(math.Abs(state.Forearm), 0, limit, limit), nil
	}
}
