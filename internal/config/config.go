package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/cwru-xlab/course-scheduler/internal/engine"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env  string
	Port int

	Log   LogConfig
	Solve SolveConfig
}

type LogConfig struct {
	Level  string
	Format string
}

// SolveConfig bounds the wall-clock budget of a solve and carries the
// soft-constraint weights handed to the engine.
type SolveConfig struct {
	DefaultTimeout time.Duration
	MaxTimeout     time.Duration
	Weights        engine.Config
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}
	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	weights := engine.DefaultConfig()
	weights.RoomWasteWeight = v.GetFloat64("WEIGHT_ROOM_WASTE")
	weights.DayPreferenceWeight = v.GetFloat64("WEIGHT_DAY_PREFERENCE")
	weights.PatternPreferenceWeight = v.GetFloat64("WEIGHT_PATTERN_PREFERENCE")
	weights.AdjunctDayWeight = v.GetFloat64("WEIGHT_ADJUNCT_DAY")
	weights.AdjunctMaxDays = v.GetInt("ADJUNCT_MAX_DAYS")
	weights.DiversificationWeight = v.GetFloat64("WEIGHT_DIVERSIFICATION")
	weights.BalanceWeight = v.GetFloat64("WEIGHT_BALANCE")
	weights.BalanceTag = v.GetString("BALANCE_TAG")

	cfg.Solve = SolveConfig{
		DefaultTimeout: parseDuration(v.GetString("SOLVE_DEFAULT_TIMEOUT"), 5*time.Second),
		MaxTimeout:     parseDuration(v.GetString("SOLVE_MAX_TIMEOUT"), time.Minute),
		Weights:        weights,
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("SOLVE_DEFAULT_TIMEOUT", "5s")
	v.SetDefault("SOLVE_MAX_TIMEOUT", "1m")

	defaults := engine.DefaultConfig()
	v.SetDefault("WEIGHT_ROOM_WASTE", defaults.RoomWasteWeight)
	v.SetDefault("WEIGHT_DAY_PREFERENCE", defaults.DayPreferenceWeight)
	v.SetDefault("WEIGHT_PATTERN_PREFERENCE", defaults.PatternPreferenceWeight)
	v.SetDefault("WEIGHT_ADJUNCT_DAY", defaults.AdjunctDayWeight)
	v.SetDefault("ADJUNCT_MAX_DAYS", defaults.AdjunctMaxDays)
	v.SetDefault("WEIGHT_DIVERSIFICATION", defaults.DiversificationWeight)
	v.SetDefault("WEIGHT_BALANCE", defaults.BalanceWeight)
	v.SetDefault("BALANCE_TAG", defaults.BalanceTag)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}
