package task

import (
	"context"
	"fmt"
	"math/rand"

	"pianoreward/internal/config"
	"pianoreward/internal/keyboard"
	"pianoreward/internal/reward"
)

// Policy chooses the next keyboard action from the current state.
type Policy interface {
	Act(ctx context.Context, state *keyboard.State) (keyboard.Action, error)
}

// Observer sees every step's reward after the aggregator computed it.
type Observer interface {
	Observe(step int, total reward.Reward, aggregator reward.Aggregator)
}

// Result summarizes one episode. Terms is empty when the aggregator keeps no
// per-term snapshot.
type Result struct {
	Aggregator string                   `json:"aggregator"`
	Mode       string                   `json:"mode"`
	Steps      int                      `json:"steps"`
	Total      reward.Reward            `json:"total"`
	Average    reward.Reward            `json:"average"`
	Last       reward.Reward            `json:"last"`
	Terms      map[string]reward.Reward `json:"terms,omitempty"`
}

type modeConfig struct {
	mode       string
	frames     int
	seedOffset int64
}

func configForMode(mode string) (modeConfig, error) {
	switch mode {
	case "", "gt":
		return modeConfig{mode: "gt", frames: 160}, nil
	case "validation":
		return modeConfig{mode: "validation", frames: 120, seedOffset: 1_000}, nil
	case "test":
		return modeConfig{mode: "test", frames: 120, seedOffset: 2_000}, nil
	default:
		return modeConfig{}, fmt.Errorf("unsupported piano mode: %s", mode)
	}
}

// Task is the piano playing task: a keyboard, a song and the reward channels
// scored against it.
type Task struct {
	episode    config.Episode
	mode       modeConfig
	aggregator reward.Aggregator
	channels   []string
}

func New(episode config.Episode) (*Task, error) {
	mode, err := configForMode(episode.Mode)
	if err != nil {
		return nil, err
	}
	aggregator, channels, err := NewAggregator(episode)
	if err != nil {
		return nil, err
	}
	return &Task{
		episode:    episode,
		mode:       mode,
		aggregator: aggregator,
		channels:   channels,
	}, nil
}

// NewAggregator assembles the reward channels for episode into the requested
// aggregator kind and returns the registered channel names in order.
func NewAggregator(episode config.Episode) (reward.Aggregator, []string, error) {
	switch episode.Aggregator {
	case "", config.AggregatorComposite:
		terms := []reward.Term{
			{Name: KeyPressTerm, Fn: keyPressReward},
			{Name: SustainTerm, Fn: sustainReward},
			{Name: EnergyTerm, Fn: energyReward(episode.EnergyPenalty)},
		}
		if !episode.DisableFingering {
			terms = append(terms, reward.Term{Name: FingeringTerm, Fn: fingeringReward})
		}
		if !episode.DisableForearm {
			terms = append(terms, reward.Term{Name: ForearmTerm, Fn: forearmReward(episode.ForearmLimit)})
		}
		composite := reward.NewComposite(terms...)
		return composite, composite.Names(), nil
	case config.AggregatorTiered:
		tiered, err := reward.NewTiered(keyPressReward, sustainReward, energyReward(episode.EnergyPenalty))
		if err != nil {
			return nil, nil, err
		}
		channels := []string{KeyPressTerm, SustainTerm, EnergyTerm}
		if !episode.DisableFingering {
			if err := tiered.Add(FingeringTerm, fingeringReward); err != nil {
				return nil, nil, err
			}
			channels = append(channels, FingeringTerm)
		}
		if !episode.DisableForearm {
			if err := tiered.Add(ForearmTerm, forearmReward(episode.ForearmLimit)); err != nil {
				return nil, nil, err
			}
			channels = append(channels, ForearmTerm)
		}
		return tiered, channels, nil
	default:
		return nil, nil, fmt.Errorf("unsupported aggregator: %s", episode.Aggregator)
	}
}

func (t *Task) Aggregator() reward.Aggregator {
	return t.aggregator
}

func (t *Task) Channels() []string {
	out := make([]string, len(t.channels))
	copy(out, t.channels)
	return out
}

// Run plays one episode with policy, computing the aggregate reward once per
// step. observer may be nil.
func (t *Task) Run(ctx context.Context, policy Policy, observer Observer) (Result, error) {
	if policy == nil {
		return Result{}, fmt.Errorf("piano task requires a policy")
	}
	state, err := keyboard.NewState(t.episode.Keys)
	if err != nil {
		return Result{}, err
	}
	steps := t.episode.Steps
	if steps <= 0 {
		steps = t.mode.frames
	}
	rng := rand.New(rand.NewSource(t.episode.Seed + t.mode.seedOffset))
	song := keyboard.NewSong(rng, t.episode.Keys, steps)

	result := Result{
		Aggregator: t.episode.Aggregator,
		Mode:       t.mode.mode,
	}
	if result.Aggregator == "" {
		result.Aggregator = config.AggregatorComposite
	}

	for step, goal := range song {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		// the policy sees the goal it is about to be scored against
		state.Goal = goal
		action, err := policy.Act(ctx, state)
		if err != nil {
			return Result{}, fmt.Errorf("step %d: policy: %w", step, err)
		}
		if err := state.Step(action, goal); err != nil {
			return Result{}, fmt.Errorf("step %d: %w", step, err)
		}
		total, err := t.aggregator.Compute(state)
		if err != nil {
			return Result{}, fmt.Errorf("step %d: %w", step, err)
		}
		if observer != nil {
			observer.Observe(step, total, t.aggregator)
		}
		result.Total += total
		result.Last = total
		result.Steps++
	}

	if result.Steps > 0 {
		result.Average = result.Total / float64(result.Steps)
	}
	if source, ok := t.aggregator.(reward.TermsSource); ok {
		result.Terms = source.RewardTerms()
	}
	return result, nil
}
