package reward

import "fmt"

// Composite sums an open-ended set of named reward terms.
//
// Terms are evaluated in the order they were first added. Re-adding a name
// swaps its function in place without moving it. The most recent value of
// every term is kept for inspection and survives Remove.
type Composite struct {
	order []string
	fns   map[string]RewardFn
	terms map[string]Reward
}

// NewComposite registers terms in the order given.
func NewComposite(terms ...Term) *Composite {
	c := &Composite{
		fns:   make(map[string]RewardFn, len(terms)),
		terms: make(map[string]Reward, len(terms)),
	}
	for _, term := range terms {
		c.Add(term.Name, term.Fn)
	}
	return c
}

// Add registers fn under name, replacing any previous function for it.
func (c *Composite) Add(name string, fn RewardFn) {
	if _, exists := c.fns[name]; !exists {
		c.order = append(c.order, name)
	}
	c.fns[name] = fn
}

func (c *Composite) Remove(name string) error {
	if _, exists := c.fns[name]; !exists {
		return fmt.Errorf("%w: %s", ErrTermNotFound, name)
	}
	delete(c.fns, name)
	for i, existing := range c.order {
		if existing == name {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return nil
}

// Compute evaluates every term in registration order and returns their sum.
// The first failing term aborts the computation; terms evaluated before it
// have already recorded their values.
func (c *Composite) Compute(physics Physics) (Reward, error) {
	sum := 0.0
	for _, name := range c.order {
		value, err := c.fns[name](physics)
		if err != nil {
			return 0, fmt.Errorf("reward term %s: %w", name, err)
		}
		sum += value
		c.terms[name] = value
	}
	return sum, nil
}

// Names returns registered term names in evaluation order.
func (c *Composite) Names() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

func (c *Composite) RewardFns() map[string]RewardFn {
	out := make(map[string]RewardFn, len(c.fns))
	for name, fn := range c.fns {
		out[name] = fn
	}
	return out
}

func (c *Composite) RewardTerms() map[string]Reward {
	out := make(map[string]Reward, len(c.terms))
	for name, value := range c.terms {
		out[name] = value
	}
	return out
}
