package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default episode invalid: %v", err)
	}
}

func TestParseOverridesDefaults(t *testing.T) {
	episode, err := Parse([]byte(`
aggregator: " Tiered "
mode: validation
steps: 40
seed: 9
keys: 4
forearm_limit: 0.5
disable_forearm: true
`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if episode.Aggregator != AggregatorTiered {
		t.Fatalf("expected normalized tiered aggregator, got %q", episode.Aggregator)
	}
	if episode.Mode != "validation" || episode.Steps != 40 || episode.Seed != 9 || episode.Keys != 4 {
		t.Fatalf("unexpected episode: %+v", episode)
	}
	if episode.ForearmLimit != 0.5 || !episode.DisableForearm {
		t.Fatalf("unexpected forearm settings: %+v", episode)
	}
	if episode.EnergyPenalty != Default().EnergyPenalty {
		t.Fatalf("expected default energy penalty to survive, got %f", episode.EnergyPenalty)
	}
}

func TestParseRejectsInvalidFields(t *testing.T) {
	cases := map[string]string{
		"aggregator": "aggregator: weighted\n",
		"mode":       "mode: benchmark\n",
		"keys":       "keys: 0\n",
		"steps":      "steps: -3\n",
		"penalty":    "energy_penalty: -1\n",
		"forearm":    "forearm_limit: 0\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(body))
			if err == nil {
				t.Fatalf("expected validation error for %q", body)
			}
			if !strings.Contains(err.Error(), "invalid episode config") {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestParseRejectsMalformedYAML(t *testing.T) {
	if _, err := Parse([]byte("keys: [unterminated")); err == nil {
		t.Fatal("expected yaml error")
	}
}

func TestLoadReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "episode.yaml")
	if err := os.WriteFile(path, []byte("mode: test\nkeys: 6\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	episode, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if episode.Mode != "test" || episode.Keys != 6 || episode.Aggregator != AggregatorComposite {
		t.Fatalf("unexpected episode: %+v", episode)
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
