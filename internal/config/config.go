package config

import (
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Config is the construction-time configuration of the execution
// manager. Values come from defaults, then an optional YAML file, then
// SCHEDCORE_* environment variables.
type Config struct {
	MaxConcurrentJobs             int           `mapstructure:"max_concurrent_jobs"`
	EnableMemoryOptimization      bool          `mapstructure:"enable_memory_optimization"`
	EnableAcceleratorOptimization bool          `mapstructure:"enable_accelerator_optimization"`
	QuickTestRatio                float64       `mapstructure:"quick_test_ratio"`
	QuickTestMaxSamples           int           `mapstructure:"quick_test_max_samples"`
	MaxRetries                    int           `mapstructure:"max_retries"`
	TaskTimeout                   time.Duration `mapstructure:"task_timeout"`
	LogLevel                      string        `mapstructure:"log_level"`
}

func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("max_concurrent_jobs", 2)
	v.SetDefault("enable_memory_optimization", true)
	v.SetDefault("enable_accelerator_optimization", true)
	v.SetDefault("quick_test_ratio", 0.1)
	v.SetDefault("quick_test_max_samples", 100)
	v.SetDefault("max_retries", 3)
	v.SetDefault("task_timeout", time.Hour)
	v.SetDefault("log_level", "info")

	v.SetEnvPrefix("SCHEDCORE")
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrap(err, "read config file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "unmarshal config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports every violation at once rather than the first one.
func (c *Config) Validate() error {
	var errs *multierror.Error

	if c.MaxConcurrentJobs < 1 {
		errs = multierror.Append(errs, errors.New("max_concurrent_jobs must be at least 1"))
	}
	if c.QuickTestRatio <= 0 || c.QuickTestRatio > 1 {
		errs = multierror.Append(errs, errors.New("quick_test_ratio must be in (0, 1]"))
	}
	if c.QuickTestMaxSamples < 1 {
		errs = multierror.Append(errs, errors.New("quick_test_max_samples must be at least 1"))
	}
	if c.MaxRetries < 0 {
		errs = multierror.Append(errs, errors.New("max_retries must not be negative"))
	}
	if c.TaskTimeout <= 0 {
		errs = multierror.Append(errs, errors.New("task_timeout must be positive"))
	}

	return errs.ErrorOrNil()
}

// Training defaults for segmentation runs.
const (
	DefaultMaxEpochs          = 100
	DefaultValidationInterval = 50
	DefaultBatchSize          = 8
)

// TrainingConfig is the configuration value the resource optimizer
// transforms before a training task body is launched. Reading and
// writing it to disk belongs to the caller, not this module.
type TrainingConfig struct {
	BatchSize          int  `mapstructure:"batch_size"`
	MaxEpochs          int  `mapstructure:"max_epochs"`
	ValidationInterval int  `mapstructure:"validation_interval"`
	EarlyStopping      bool `mapstructure:"early_stopping"`
	Patience           int  `mapstructure:"patience"`
	MixedPrecision     bool `mapstructure:"mixed_precision"`
	InputHeight        int  `mapstructure:"input_height"`
	InputWidth         int  `mapstructure:"input_width"`
	InputChannels      int  `mapstructure:"input_channels"`
}

func DefaultTrainingConfig() TrainingConfig {
	return TrainingConfig{
		BatchSize:          DefaultBatchSize,
		MaxEpochs:          DefaultMaxEpochs,
		ValidationInterval: DefaultValidationInterval,
		InputHeight:        512,
		InputWidth:         512,
		InputChannels:      3,
	}
}
