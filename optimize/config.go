package optimize

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/gnolang/gflow/internal/optimizer"
)

// DefaultConfigFile is the configuration file name looked up by the CLI.
const DefaultConfigFile = ".gflow.yaml"

// Config is the content of a configuration file.
type Config struct {
	Name string `yaml:"name"`
	// Passes switches passes on or off by name. Missing passes are on.
	Passes    map[string]bool `yaml:"passes"`
	MaxRounds int             `yaml:"max_rounds,omitempty"`
	MaxSteps  int             `yaml:"max_steps,omitempty"`
}

// DefaultConfig enables every pass with the optimizer's default limits.
func DefaultConfig() Config {
	passes := make(map[string]bool, len(optimizer.Passes))
	for _, pass := range optimizer.Passes {
		passes[pass] = true
	}
	return Config{
		Name:      "gflow",
		Passes:    passes,
		MaxRounds: optimizer.DefaultMaxRounds,
	}
}

// Validate rejects unknown pass names and negative round limits.
func (c Config) Validate() error {
	for pass := range c.Passes {
		if !slices.Contains(optimizer.Passes, pass) {
			return fmt.Errorf("unknown pass %q", pass)
		}
	}
	if c.MaxRounds < 0 {
		return fmt.Errorf("max_rounds must not be negative, got %d", c.MaxRounds)
	}
	return nil
}

func (c Config) optimizerConfig() optimizer.Config {
	return optimizer.Config{
		Passes:    c.Passes,
		MaxRounds: c.MaxRounds,
		MaxSteps:  c.MaxSteps,
	}
}

// ParseConfigurationFile reads a yaml configuration file. An empty file
// yields the zero Config.
func ParseConfigurationFile(configurationPath string) (Config, error) {
	var config Config

	f, err := os.Open(configurationPath)
	if err != nil {
		return config, err
	}
	defer f.Close()

	if err := yaml.NewDecoder(f).Decode(&config); err != nil && !errors.Is(err, io.EOF) {
		return config, fmt.Errorf("error parsing %s: %w", configurationPath, err)
	}
	return config, nil
}

// WriteConfigurationFile writes config as yaml to configurationPath.
func WriteConfigurationFile(configurationPath string, config Config) error {
	d, err := yaml.Marshal(config)
	if err != nil {
		return err
	}
	return os.WriteFile(configurationPath, d, 0o644)
}
