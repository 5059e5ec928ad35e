package treino

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/petrijr/treino/pkg/hooks"
)

// RunConfig describes a run in a YAML file: the epoch range plus the
// standard hook set. Zero values mean "leave it out" or the documented
// default.
//
//	starting_epoch: 1
//	max_epoch: 50
//	checkpoint_dir: runs/exp1
//	save_every_k_epochs: 5
//	max_to_keep: 3
//	best_metric: val/error
//	best_mode: min
//	resume: true
//	log_every_k_steps: 50
type RunConfig struct {
	StartingEpoch    int    `yaml:"starting_epoch"`
	MaxEpoch         int    `yaml:"max_epoch"`
	CheckpointDir    string `yaml:"checkpoint_dir"`
	SaveEveryKEpochs int    `yaml:"save_every_k_epochs"`
	MaxToKeep        int    `yaml:"max_to_keep"`
	BestMetric       string `yaml:"best_metric"`
	BestMode         string `yaml:"best_mode"`
	Resume           bool   `yaml:"resume"`
	LogEveryKSteps   int    `yaml:"log_every_k_steps"`
}

// LoadConfig reads and validates a RunConfig from a YAML file.
func LoadConfig(path string) (RunConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return RunConfig{}, fmt.Errorf("treino: reading config: %w", err)
	}
	var c RunConfig
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return RunConfig{}, fmt.Errorf("treino: parsing %s: %w", path, err)
	}
	if err := c.validate(); err != nil {
		return RunConfig{}, err
	}
	return c, nil
}

func (c RunConfig) validate() error {
	switch c.BestMode {
	case "", "min", "max":
	default:
		return fmt.Errorf("treino: best_mode must be min or max, got %q", c.BestMode)
	}
	if c.BestMetric != "" && c.CheckpointDir == "" {
		return fmt.Errorf("treino: best_metric requires checkpoint_dir")
	}
	if c.Resume && c.CheckpointDir == "" {
		return fmt.Errorf("treino: resume requires checkpoint_dir")
	}
	return nil
}

// Options returns the epoch range for Train.
func (c RunConfig) Options() TrainOptions {
	return TrainOptions{StartingEpoch: c.StartingEpoch, MaxEpoch: c.MaxEpoch}
}

// Hooks assembles the hook set the config describes: the restore hook first
// when resuming, then the checkpoint savers, then the scalar writers and
// progress hooks. logger may be nil.
func (c RunConfig) Hooks(logger *slog.Logger) ([]Hook, error) {
	var hks []Hook

	if c.CheckpointDir != "" {
		if c.Resume {
			restore, err := hooks.NewSaverRestore(c.CheckpointDir, logger)
			if err != nil {
				return nil, err
			}
			hks = append(hks, restore)
		}

		saver, err := hooks.NewSaver(c.CheckpointDir, hooks.SaverOptions{
			MaxToKeep: c.MaxToKeep,
			Logger:    logger,
		})
		if err != nil {
			return nil, err
		}
		if c.SaveEveryKEpochs > 1 {
			hks = append(hks, hooks.NewPeriodicTrigger(saver, hooks.PeriodicTriggerOptions{
				EveryKEpochs: c.SaveEveryKEpochs,
			}))
		} else {
			hks = append(hks, saver)
		}

		if c.BestMetric != "" {
			best, err := c.bestSaver(logger)
			if err != nil {
				return nil, err
			}
			hks = append(hks, best)
		}

		w, err := hooks.NewJSONWriter(c.CheckpointDir, logger)
		if err != nil {
			return nil, err
		}
		hks = append(hks, w)
	}

	hks = append(hks,
		hooks.NewProgressLogger(c.LogEveryKSteps, logger),
		hooks.NewScalarPrinter(hooks.ScalarPrinterOptions{Logger: logger}),
		hooks.NewEstimatedTimeLeft(hooks.EstimatedTimeLeftOptions{Logger: logger}),
	)
	return hks, nil
}

func (c RunConfig) bestSaver(logger *slog.Logger) (Hook, error) {
	opts := hooks.BestSaverOptions{Logger: logger}
	if c.BestMode == "max" {
		return hooks.NewMaxSaver(c.CheckpointDir, c.BestMetric, opts)
	}
	return hooks.NewMinSaver(c.CheckpointDir, c.BestMetric, opts)
}
