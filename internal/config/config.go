package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dkeye/audiopolicy/internal/domain"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	BackendPulse = "pulse"
	BackendSim   = "sim"
)

type Config struct {
	Mode          string        `mapstructure:"mode"`
	Port          int           `mapstructure:"port"`
	Backend       string        `mapstructure:"backend"`
	PulseServer   string        `mapstructure:"pulse_server"`
	HardwareMatch string        `mapstructure:"hardware_match"`
	MixPrefix     string        `mapstructure:"mix_prefix"`
	MixChannels   int           `mapstructure:"mix_channels"`
	RoleKey       string        `mapstructure:"role_key"`
	DuckPercent   int           `mapstructure:"duck_percent"`
	DuckRamp      time.Duration `mapstructure:"duck_ramp"`
	RestoreRamp   time.Duration `mapstructure:"restore_ramp"`
	RampCurve     string        `mapstructure:"ramp_curve"`
	LogLevel      string        `mapstructure:"log_level"`
	AdoptExisting bool          `mapstructure:"adopt_existing"`
	FeedBuffer    int           `mapstructure:"feed_buffer"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("backend", BackendPulse)
	v.SetDefault("pulse_server", "")
	v.SetDefault("hardware_match", "alsa")
	v.SetDefault("mix_prefix", "null.agl.")
	v.SetDefault("mix_channels", 2)
	v.SetDefault("role_key", "media.role")
	v.SetDefault("duck_percent", 10)
	v.SetDefault("duck_ramp", "3s")
	v.SetDefault("restore_ramp", "5s")
	v.SetDefault("ramp_curve", "linear")
	v.SetDefault("log_level", "info")
	v.SetDefault("adopt_existing", true)
	v.SetDefault("feed_buffer", 32)
}

// Load reads defaults, then config/config.<CONFIG_ENV>.yaml, then POLICYD_*
// environment variables, then flags that were set explicitly.
func Load(flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v)

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/config.%s.yaml", env)
	v.SetConfigFile(fileName)

	v.SetEnvPrefix("POLICYD")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if flags != nil {
		flags.VisitAll(func(f *pflag.Flag) {
			key := strings.ReplaceAll(f.Name, "-", "_")
			if err := v.BindPFlag(key, f); err != nil {
				log.Warn().Err(err).Str("module", "config").Str("flag", f.Name).Msg("bind flag")
			}
		})
	}

	if err := v.ReadInConfig(); err != nil {
		log.Info().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("loaded config")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log.Info().
		Str("module", "config").
		Str("mode", cfg.Mode).
		Str("backend", cfg.Backend).
		Int("port", cfg.Port).
		Str("hardware_match", cfg.HardwareMatch).
		Msg("config ready")
	return &cfg, nil
}

var ErrInvalid = errors.New("invalid config")

func (c *Config) Validate() error {
	var errs []error
	if c.Backend != BackendPulse && c.Backend != BackendSim {
		errs = append(errs, fmt.Errorf("backend %q", c.Backend))
	}
	if c.DuckPercent < 0 || c.DuckPercent > 100 {
		errs = append(errs, fmt.Errorf("duck_percent %d out of 0..100", c.DuckPercent))
	}
	if c.DuckRamp <= 0 || c.RestoreRamp <= 0 {
		errs = append(errs, errors.New("ramps must be positive"))
	}
	if _, err := domain.ParseRampCurve(c.RampCurve); err != nil {
		errs = append(errs, err)
	}
	if strings.TrimSpace(c.RoleKey) == "" {
		errs = append(errs, errors.New("role_key empty"))
	}
	if c.HardwareMatch == "" {
		errs = append(errs, errors.New("hardware_match empty"))
	}
	if c.MixChannels < 1 || c.MixChannels > 32 {
		errs = append(errs, fmt.Errorf("mix_channels %d out of 1..32", c.MixChannels))
	}
	if c.Port < 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d", c.Port))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
	}
	return nil
}
