package reward

import (
	"errors"
	"fmt"
)

// Reward is a per-step reward contribution. No bounds are enforced.
type Reward = float64

// Physics is an opaque physics-state handle owned by the simulation.
type Physics any

// RewardFn maps a physics state to a scalar reward. Implementations must not
// mutate aggregator state.
type RewardFn func(physics Physics) (Reward, error)

// Term pairs a reward function with its name.
type Term struct {
	Name string
	Fn   RewardFn
}

// Aggregator folds its registered reward functions into one reward per step.
type Aggregator interface {
	Compute(physics Physics) (Reward, error)
}

// TermsSource exposes the most recent per-term reward values.
type TermsSource interface {
	RewardTerms() map[string]Reward
}

var (
	ErrTermNotFound         = errors.New("reward term not found")
	ErrUnrecognizedSlot     = errors.New("unrecognized reward slot")
	ErrUnsupportedOperation = errors.New("unsupported reward operation")
	ErrMissingChannel       = errors.New("reward channel is required")
	ErrContractViolation    = errors.New("reward contract violation")
)

// ErrFingeringUnregistered is returned by Tiered.Compute when the fingering
// slot was never filled.
var ErrFingeringUnregistered = fmt.Errorf("%w: %s must be registered before compute", ErrContractViolation, FingeringSlot)
