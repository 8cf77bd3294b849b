package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"pianoreward/internal/config"
	"pianoreward/internal/reward"
	"pianoreward/internal/task"
	"pianoreward/internal/telemetry"
)

var version = "0.1.0-dev"

var (
	stdout   io.Writer = os.Stdout
	logLevel           = new(slog.LevelVar)
	logger             = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
)

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("missing command")
	}

	switch args[0] {
	case "episode":
		return runEpisode(ctx, args[1:])
	case "terms":
		return runTerms(ctx, args[1:])
	case "version":
		return runVersion(ctx, args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

type episodeOutput struct {
	RunID string `json:"run_id"`
	task.Result
	Metrics string `json:"metrics,omitempty"`
}

func runEpisode(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("episode", flag.ContinueOnError)
	configPath := fs.String("config", "", "episode YAML config path")
	aggregator := fs.String("aggregator", "", "reward aggregator: composite|tiered")
	mode := fs.String("mode", "", "episode mode: gt|validation|test")
	steps := fs.Int("steps", 0, "steps per episode (0 uses the mode default)")
	seed := fs.Int64("seed", 0, "song seed")
	keys := fs.Int("keys", 0, "number of piano keys")
	noise := fs.Float64("noise", 0.1, "scripted policy force noise")
	format := fs.String("format", "auto", "output format: auto|text|json")
	metrics := fs.Bool("metrics", false, "append Prometheus exposition of the final reward terms")
	verbose := fs.Bool("verbose", false, "log every step")
	if err := fs.Parse(args); err != nil {
		return err
	}

	episode := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			return err
		}
		episode = loaded
	}
	// explicit flags win over the config file
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "aggregator":
			episode.Aggregator = *aggregator
		case "mode":
			episode.Mode = *mode
		case "steps":
			episode.Steps = *steps
		case "seed":
			episode.Seed = *seed
		case "keys":
			episode.Keys = *keys
		}
	})
	episode.Normalize()
	if err := episode.Validate(); err != nil {
		return err
	}

	piano, err := task.New(episode)
	if err != nil {
		return err
	}

	runID := uuid.NewString()
	log := logger.With("run_id", runID, "aggregator", episode.Aggregator, "mode", episode.Mode)
	collector := telemetry.NewCollector(prometheus.Labels{"aggregator": episode.Aggregator})
	var observer task.Observer = collector
	if *verbose {
		logLevel.Set(slog.LevelDebug)
		observer = loggingObserver{next: collector, log: log}
	}

	result, err := piano.Run(ctx, task.NewScriptedPolicy(episode.Seed, *noise), observer)
	if err != nil {
		log.Error("episode failed", "error", err)
		return err
	}
	log.Info("episode finished", "steps", result.Steps, "total", result.Total)

	out := episodeOutput{RunID: runID, Result: result}
	if *metrics {
		text, err := exposition(collector)
		if err != nil {
			return err
		}
		out.Metrics = text
	}

	useJSON, err := resolveFormat(*format)
	if err != nil {
		return err
	}
	if useJSON {
		return writeJSON(out)
	}
	writeEpisodeText(out)
	return nil
}

func runTerms(_ context.Context, args []string) error {
	fs := flag.NewFlagSet("terms", flag.ContinueOnError)
	aggregator := fs.String("aggregator", config.AggregatorComposite, "reward aggregator: composite|tiered")
	disableFingering := fs.Bool("disable-fingering", false, "omit the fingering channel")
	disableForearm := fs.Bool("disable-forearm", false, "omit the forearm channel")
	format := fs.String("format", "auto", "output format: auto|text|json")
	if err := fs.Parse(args); err != nil {
		return err
	}

	episode := config.Default()
	episode.Aggregator = *aggregator
	episode.DisableFingering = *disableFingering
	episode.DisableForearm = *disableForearm
	episode.Normalize()
	if err := episode.Validate(); err != nil {
		return err
	}
	_, channels, err := task.NewAggregator(episode)
	if err != nil {
		return err
	}

	useJSON, err := resolveFormat(*format)
	if err != nil {
		return err
	}
	if useJSON {
		return writeJSON(map[string]any{"aggregator": episode.Aggregator, "terms": channels})
	}
	for _, name := range channels {
		fmt.Fprintln(stdout, name)
	}
	return nil
}

func runVersion(_ context.Context, args []string) error {
	fs := flag.NewFlagSet("version", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "pianorewardctl %s\n", version)
	return nil
}

type loggingObserver struct {
	next task.Observer
	log  *slog.Logger
}

func (o loggingObserver) Observe(step int, total reward.Reward, aggregator reward.Aggregator) {
	o.log.Debug("step", "step", step, "total", total)
	o.next.Observe(step, total, aggregator)
}

func resolveFormat(format string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "auto":
		fd := os.Stdout.Fd()
		return !isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd), nil
	case "text":
		return false, nil
	case "json":
		return true, nil
	default:
		return false, fmt.Errorf("unsupported format: %s", format)
	}
}

func writeJSON(v any) error {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeEpisodeText(out episodeOutput) {
	fmt.Fprintf(stdout, "run_id=%s aggregator=%s mode=%s steps=%s\n",
		out.RunID, out.Aggregator, out.Mode, humanize.Comma(int64(out.Steps)))
	fmt.Fprintf(stdout, "total=%.4f average=%.4f last=%.4f\n", out.Total, out.Average, out.Last)

	names := make([]string, 0, len(out.Terms))
	for name := range out.Terms {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(stdout, "term %s=%.4f\n", name, out.Terms[name])
	}
	if out.Metrics != "" {
		fmt.Fprint(stdout, out.Metrics)
	}
}

func exposition(collector prometheus.Collector) (string, error) {
	registry := prometheus.NewRegistry()
	if err := registry.Register(collector); err != nil {
		return "", err
	}
	families, err := registry.Gather()
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for _, family := range families {
		if _, err := expfmt.MetricFamilyToText(&b, family); err != nil {
			return "", err
		}
	}
	return b.String(), nil
}

func usageError(msg string) error {
	return fmt.Errorf("%s\nusage: pianorewardctl <episode|terms|version> [flags]", msg)
}
