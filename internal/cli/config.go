package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/roach88/fetchview/internal/analyzer"
)

const maxWalkDepth = 25

// Config represents the fetchview configuration from fetchview.yaml.
type Config struct {
	// MaxExtraDepth bounds cycle unrolling for analyze and plan.
	MaxExtraDepth int `mapstructure:"max_extra_depth"`

	// Store is the registry database used when --store is not given.
	// Empty means registries are not persisted.
	Store string `mapstructure:"store"`

	// Roots are the entities analyze builds registries for when no --root
	// flag is given. Empty means every entity without a super class.
	Roots []string `mapstructure:"roots"`

	// Scenarios configures the test command.
	Scenarios ScenariosConfig `mapstructure:"scenarios"`
}

// ScenariosConfig holds test command settings.
type ScenariosConfig struct {
	Dir       string `mapstructure:"dir"`
	GoldenDir string `mapstructure:"golden_dir"`
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() *Config {
	return &Config{MaxExtraDepth: analyzer.DefaultMaxExtraDepth}
}

// LoadConfig discovers and loads configuration with proper precedence:
// flags > env > config file > defaults. Flags are applied by each command.
//
// Returns the loaded config, the path to the config file (empty if none found),
// and any error encountered.
func LoadConfig(explicitConfigPath string) (*Config, string, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("FETCHVIEW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	configPath, err := findConfigFile(explicitConfigPath)
	if err != nil {
		return nil, "", err
	}
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, configPath, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, configPath, fmt.Errorf("unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, configPath, err
	}
	return &cfg, configPath, nil
}

// Validate rejects values no command can run with.
func (c *Config) Validate() error {
	if c.MaxExtraDepth < 0 {
		return fmt.Errorf("max_extra_depth must be >= 0, got %d", c.MaxExtraDepth)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("max_extra_depth", analyzer.DefaultMaxExtraDepth)
	v.SetDefault("store", "")
	v.SetDefault("roots", []string{})
	v.SetDefault("scenarios.dir", "")
	v.SetDefault("scenarios.golden_dir", "")
}

// findConfigFile finds the config file to use.
// If explicitPath is provided, it validates the file exists.
// Otherwise, it walks up from cwd looking for fetchview.yaml or fetchview.yml,
// stopping at a .git directory or after maxWalkDepth levels.
func findConfigFile(explicitPath string) (string, error) {
	if explicitPath != "" {
		if _, err := os.Stat(explicitPath); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicitPath)
		}
		return explicitPath, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting cwd: %w", err)
	}

	dir := cwd
	for range maxWalkDepth {
		for _, name := range []string{"fetchview.yaml", "fetchview.yml"} {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				return path, nil
			}
		}

		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			break
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", nil
}
