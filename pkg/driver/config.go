package driver

import (
	"fmt"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/pd360/onecoretts/pkg/playback"
)

// Config holds the construction-time settings for a Driver. Runtime
// parameter changes made through Speak/SetRate/SetPitch/SetVolume/SetVoice
// are never written back here or to the backing file — they live only in
// the worker's in-memory state for the life of the process.
type Config struct {
	OutputDevice              string        `mapstructure:"output_device"`
	SampleRate                int           `mapstructure:"sample_rate" validate:"required,gt=0"`
	BitsPerSample             int           `mapstructure:"bits_per_sample" validate:"required,oneof=8 16 24 32"`
	Channels                  int           `mapstructure:"channels" validate:"required,gt=0"`
	HeaderBytes               int           `mapstructure:"header_bytes" validate:"gte=0"`
	InitTimeout               time.Duration `mapstructure:"init_timeout" validate:"required,gt=0"`
	DefaultLanguage           string        `mapstructure:"default_language" validate:"required"`
	RegistryValidationEnabled bool          `mapstructure:"registry_validation_enabled"`
	DefaultRate               int           `mapstructure:"default_rate" validate:"gte=0,lte=100"`
	DefaultPitch              int           `mapstructure:"default_pitch" validate:"gte=0,lte=100"`
	DefaultVolume             int           `mapstructure:"default_volume" validate:"gte=0,lte=100"`
}

var validate = validator.New()

// DefaultConfig returns the constants named in spec §6: 22050 Hz mono
// 16-bit PCM, a 44-byte header, and a 4-second initialization bound.
func DefaultConfig() *Config {
	return &Config{
		SampleRate:                22050,
		BitsPerSample:             16,
		Channels:                  1,
		HeaderBytes:               44,
		InitTimeout:               4 * time.Second,
		DefaultLanguage:           "en-US",
		RegistryValidationEnabled: true,
		DefaultRate:               50,
		DefaultPitch:              50,
		DefaultVolume:             100,
	}
}

// Validate checks every struct-tag constraint on c.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid driver config: %w", err)
	}
	return nil
}

// PlaybackConfig adapts c into the audio-format Config pkg/playback needs.
func (c *Config) PlaybackConfig() playback.Config {
	return playback.Config{
		Channels:      c.Channels,
		SampleRate:    c.SampleRate,
		BitsPerSample: c.BitsPerSample,
		OutputDevice:  c.OutputDevice,
		HeaderBytes:   c.HeaderBytes,
	}
}

// LoadConfig reads configPath (YAML) layered over DefaultConfig, with
// ONECORE_-prefixed environment variables taking precedence over the file,
// then validates the result. An absent configPath is not an error — the
// defaults (plus any env overrides) are used as-is.
func LoadConfig(configPath string) (*Config, *viper.Viper, error) {
	v := newViper(configPath)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && configPath != "" {
			return nil, nil, fmt.Errorf("reading driver config: %w", err)
		}
	}

	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, nil, fmt.Errorf("decoding driver config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	return cfg, v, nil
}

func newViper(configPath string) *viper.Viper {
	v := viper.New()
	if configPath != "" {
		v.SetConfigFile(configPath)
	}
	v.SetEnvPrefix("ONECORE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// WatchConfig re-reads and re-validates configPath on every change,
// invoking onChange with the freshly decoded Config. Validation errors are
// reported through onErr rather than applied — the process keeps running
// with whatever Config it already has. This affects only the defaults
// consulted the next time a Driver is constructed; it never mutates a
// running worker's in-memory parameter state.
func WatchConfig(v *viper.Viper, onChange func(*Config), onErr func(error)) {
	v.OnConfigChange(func(_ fsnotify.Event) {
		cfg := DefaultConfig()
		if err := v.Unmarshal(cfg); err != nil {
			onErr(fmt.Errorf("decoding driver config on reload: %w", err))
			return
		}
		if err := cfg.Validate(); err != nil {
			onErr(err)
			return
		}
		onChange(cfg)
	})
	v.WatchConfig()
}
