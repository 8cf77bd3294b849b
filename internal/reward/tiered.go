package reward

import "fmt"

const (
	FingeringSlot = "fingering_reward"
	ForearmSlot   = "forearm_reward"

	// KeyPressGate is the key press reward a step must exceed before energy and
	// forearm rewards count toward the total.
	KeyPressGate = 0.5
)

// Tiered combines a fixed set of piano reward channels. Energy and forearm
// rewards are withheld until the key press reward clears KeyPressGate.
//
// The channel set is closed: key press, sustain and energy are supplied at
// construction, fingering and forearm through Add. Nothing can be removed.
type Tiered struct {
	keyPress RewardFn
	sustain  RewardFn
	energy   RewardFn

	fingering RewardFn
	forearm   RewardFn
}

func NewTiered(keyPress, sustain, energy RewardFn) (*Tiered, error) {
	switch {
	case keyPress == nil:
		return nil, fmt.Errorf("%w: key_press_reward", ErrMissingChannel)
	case sustain == nil:
		return nil, fmt.Errorf("%w: sustain_reward", ErrMissingChannel)
	case energy == nil:
		return nil, fmt.Errorf("%w: energy_reward", ErrMissingChannel)
	}
	return &Tiered{keyPress: keyPress, sustain: sustain, energy: energy}, nil
}

// Add fills one of the optional slots, overwriting any earlier registration.
func (t *Tiered) Add(name string, fn RewardFn) error {
	switch name {
	case FingeringSlot:
		t.fingering = fn
	case ForearmSlot:
		t.forearm = fn
	default:
		return fmt.Errorf("%w: cannot add %s", ErrUnrecognizedSlot, name)
	}
	return nil
}

func (t *Tiered) Remove(name string) error {
	return fmt.Errorf("%w: cannot remove %s", ErrUnsupportedOperation, name)
}

// Compute requires the fingering slot to be registered. A missing forearm
// slot contributes zero.
func (t *Tiered) Compute(physics Physics) (Reward, error) {
	keyPress, err := evalChannel("key_press_reward", t.keyPress, physics)
	if err != nil {
		return 0, err
	}
	sustain, err := evalChannel("sustain_reward", t.sustain, physics)
	if err != nil {
		return 0, err
	}
	energy, err := evalChannel("energy_reward", t.energy, physics)
	if err != nil {
		return 0, err
	}
	if t.fingering == nil {
		return 0, ErrFingeringUnregistered
	}
	fingering, err := evalChannel(FingeringSlot, t.fingering, physics)
	if err != nil {
		return 0, err
	}
	forearm := 0.0
	if t.forearm != nil {
		if forearm, err = evalChannel(ForearmSlot, t.forearm, physics); err != nil {
			return 0, err
		}
	}

	total := keyPress + sustain + fingering
	if keyPress > KeyPressGate {
		total += energy + forearm
	}
	return total, nil
}

// Slots reports which optional slots are filled.
func (t *Tiered) Slots() map[string]bool {
	return map[string]bool{
		FingeringSlot: t.fingering != nil,
		ForearmSlot:   t.forearm != nil,
	}
}

func evalChannel(name string, fn RewardFn, physics Physics) (Reward, error) {
	value, err := fn(physics)
	if err != nil {
		return 0, fmt.Errorf("reward channel %s: %w", name, err)
	}
	return value, nil
}
