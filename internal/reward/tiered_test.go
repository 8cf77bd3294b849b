package reward

import (
	"errors"
	"math"
	"testing"
)

func newTestTiered(t *testing.T, keyPress Reward) *Tiered {
	t.Helper()
	tiered, err := NewTiered(constant(keyPress), constant(0.2), constant(1.0))
	if err != nil {
		t.Fatalf("new tiered: %v", err)
	}
	if err := tiered.Add(FingeringSlot, constant(0.1)); err != nil {
		t.Fatalf("add fingering: %v", err)
	}
	if err := tiered.Add(ForearmSlot, constant(1.0)); err != nil {
		t.Fatalf("add forearm: %v", err)
	}
	return tiered
}

func TestTieredComputeGate(t *testing.T) {
	cases := []struct {
		name     string
		keyPress Reward
		want     Reward
	}{
		{name: "gate closed", keyPress: 0.3, want: 0.6},
		{name: "boundary stays closed", keyPress: 0.5, want: 0.8},
		{name: "gate open", keyPress: 0.6, want: 2.9},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := newTestTiered(t, tc.keyPress).Compute(nil)
			if err != nil {
				t.Fatalf("compute: %v", err)
			}
			if math.Abs(got-tc.want) > 1e-9 {
				t.Fatalf("expected %f, got %f", tc.want, got)
			}
		})
	}
}

func TestTieredForearmDefaultsToZero(t *testing.T) {
	tiered, err := NewTiered(constant(0.9), constant(0.2), constant(-0.3))
	if err != nil {
		t.Fatalf("new tiered: %v", err)
	}
	if err := tiered.Add(FingeringSlot, constant(0.1)); err != nil {
		t.Fatalf("add fingering: %v", err)
	}
	got, err := tiered.Compute(nil)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if math.Abs(got-0.9) > 1e-9 {
		t.Fatalf("expected 0.9 with absent forearm slot, got %f", got)
	}
	if slots := tiered.Slots(); !slots[FingeringSlot] || slots[ForearmSlot] {
		t.Fatalf("unexpected slots: %v", slots)
	}
}

func TestTieredComputeRequiresFingering(t *testing.T) {
	calls := 0
	counted := func(v Reward) RewardFn {
		return func(Physics) (Reward, error) {
			calls++
			return v, nil
		}
	}
	tiered, err := NewTiered(counted(0.9), counted(0.2), counted(1.0))
	if err != nil {
		t.Fatalf("new tiered: %v", err)
	}
	if err := tiered.Add(ForearmSlot, counted(1.0)); err != nil {
		t.Fatalf("add forearm: %v", err)
	}

	_, err = tiered.Compute(nil)
	if !errors.Is(err, ErrFingeringUnregistered) || !errors.Is(err, ErrContractViolation) {
		t.Fatalf("expected fingering contract violation, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected only the mandatory channels to run, got %d calls", calls)
	}
}

func TestTieredAddRejectsUnknownSlot(t *testing.T) {
	tiered := newTestTiered(t, 0.3)
	for _, name := range []string{"bogus", "energy_reward", "key_press_reward", ""} {
		if err := tiered.Add(name, constant(5)); !errors.Is(err, ErrUnrecognizedSlot) {
			t.Fatalf("add %q: expected ErrUnrecognizedSlot, got %v", name, err)
		}
	}
	got, err := tiered.Compute(nil)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if math.Abs(got-0.6) > 1e-9 {
		t.Fatalf("rejected adds must not change the result, got %f", got)
	}
}

func TestTieredAddOverwritesSlot(t *testing.T) {
	tiered := newTestTiered(t, 0.3)
	if err := tiered.Add(FingeringSlot, constant(0.4)); err != nil {
		t.Fatalf("add fingering: %v", err)
	}
	got, err := tiered.Compute(nil)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if math.Abs(got-0.9) > 1e-9 {
		t.Fatalf("expected overwritten fingering to yield 0.9, got %f", got)
	}
}

func TestTieredRemoveAlwaysFails(t *testing.T) {
	tiered := newTestTiered(t, 0.3)
	for _, name := range []string{FingeringSlot, ForearmSlot, "key_press_reward", "bogus"} {
		if err := tiered.Remove(name); !errors.Is(err, ErrUnsupportedOperation) {
			t.Fatalf("remove %q: expected ErrUnsupportedOperation, got %v", name, err)
		}
	}
}

func TestNewTieredRequiresMandatoryChannels(t *testing.T) {
	if _, err := NewTiered(nil, constant(0), constant(0)); !errors.Is(err, ErrMissingChannel) {
		t.Fatalf("expected ErrMissingChannel for key press, got %v", err)
	}
	if _, err := NewTiered(constant(0), nil, constant(0)); !errors.Is(err, ErrMissingChannel) {
		t.Fatalf("expected ErrMissingChannel for sustain, got %v", err)
	}
	if _, err := NewTiered(constant(0), constant(0), nil); !errors.Is(err, ErrMissingChannel) {
		t.Fatalf("expected ErrMissingChannel for energy, got %v", err)
	}
}

func TestTieredComputePropagatesChannelError(t *testing.T) {
	boom := errors.New("boom")
	tiered := newTestTiered(t, 0.9)
	if err := tiered.Add(ForearmSlot, func(Physics) (Reward, error) { return 0, boom }); err != nil {
		t.Fatalf("add forearm: %v", err)
	}
	if _, err := tiered.Compute(nil); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
}

func TestAggregatorsSatisfyInterface(t *testing.T) {
	var _ Aggregator = NewComposite()
	var _ Aggregator = newTestTiered(t, 0)
	var _ TermsSource = NewComposite()
}
