package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	AggregatorComposite = "composite"
	AggregatorTiered    = "tiered"
)

// Episode configures one run of the piano task.
type Episode struct {
	Aggregator       string  `yaml:"aggregator" json:"aggregator" validate:"oneof=composite tiered"`
	Mode             string  `yaml:"mode" json:"mode" validate:"oneof=gt validation test"`
	Steps            int     `yaml:"steps" json:"steps" validate:"gte=0,lte=100000"`
	Seed             int64   `yaml:"seed" json:"seed"`
	Keys             int     `yaml:"keys" json:"keys" validate:"gte=1,lte=88"`
	EnergyPenalty    float64 `yaml:"energy_penalty" json:"energy_penalty" validate:"gte=0"`
	ForearmLimit     float64 `yaml:"forearm_limit" json:"forearm_limit" validate:"gt=0"`
	DisableForearm   bool    `yaml:"disable_forearm" json:"disable_forearm"`
	DisableFingering bool    `yaml:"disable_fingering" json:"disable_fingering"`
}

var validate = validator.New()

// Default returns the episode used when no file is given. Steps of zero means
// the mode's own episode length.
func Default() Episode {
	return Episode{
		Aggregator:    AggregatorComposite,
		Mode:          "gt",
		Seed:          1,
		Keys:          12,
		EnergyPenalty: 0.005,
		ForearmLimit:  0.2,
	}
}

// Load reads a YAML episode file. Fields missing from the file keep their
// Default values.
func Load(path string) (Episode, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Episode{}, err
	}
	return Parse(data)
}

func Parse(data []byte) (Episode, error) {
	episode := Default()
	if err := yaml.Unmarshal(data, &episode); err != nil {
		return Episode{}, fmt.Errorf("parse episode config: %w", err)
	}
	episode.Normalize()
	if err := episode.Validate(); err != nil {
		return Episode{}, err
	}
	return episode, nil
}

func (e *Episode) Normalize() {
	e.Aggregator = strings.ToLower(strings.TrimSpace(e.Aggregator))
	e.Mode = strings.ToLower(strings.TrimSpace(e.Mode))
	if e.Mode == "" {
		e.Mode = "gt"
	}
}

func (e Episode) Validate() error {
	err := validate.Struct(e)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fmt.Sprintf("%s: failed %s=%s (got %v)", fe.Field(), fe.Tag(), fe.Param(), fe.Value()))
	}
	return fmt.Errorf("invalid episode config: %s", strings.Join(msgs, "; "))
}
