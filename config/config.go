package config

import (
	"time"

	"washplan/internal/constants"
	"washplan/internal/types"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/spf13/viper"
)

type Config struct {
	GeneralVersion          string `mapstructure:"GENERAL_VERSION"`
	Environment             string `mapstructure:"ENVIRONMENT"`
	ServerPort              int    `mapstructure:"SERVER_PORT"`
	DatabaseHost            string `mapstructure:"DB_HOST"`
	DatabasePort            int    `mapstructure:"DB_PORT"`
	DatabaseName            string `mapstructure:"DB_NAME"`
	DatabaseUser            string `mapstructure:"DB_USER"`
	DatabasePassword        string `mapstructure:"DB_PASSWORD"`
	DatabaseCacheAddress    string `mapstructure:"DB_CACHE_ADDRESS"`
	DatabaseCachePort       int    `mapstructure:"DB_CACHE_PORT"`
	DatabaseCacheReset      int    `mapstructure:"DB_CACHE_RESET"`
	CorsAllowOrigins        string `mapstructure:"CORS_ALLOW_ORIGINS"`
	SchedulerEnabled        bool   `mapstructure:"SCHEDULER_ENABLED"`
	ScheduleCacheTTLSeconds int    `mapstructure:"SCHEDULE_CACHE_TTL_SECONDS"`
	ScheduleCycleAnchor     string `mapstructure:"SCHEDULE_CYCLE_ANCHOR"`
	JWTSecret               string `mapstructure:"JWT_SECRET"`
	SeedFile                string `mapstructure:"SEED_FILE"`
}

var ConfigInstance Config

var envVars = []string{
	"GENERAL_VERSION", "ENVIRONMENT", "SERVER_PORT",
	"DB_HOST", "DB_PORT", "DB_NAME", "DB_USER", "DB_PASSWORD",
	"DB_CACHE_ADDRESS", "DB_CACHE_PORT", "DB_CACHE_RESET",
	"CORS_ALLOW_ORIGINS",
	"SCHEDULER_ENABLED", "SCHEDULE_CACHE_TTL_SECONDS", "SCHEDULE_CYCLE_ANCHOR",
	"JWT_SECRET", "SEED_FILE",
}

func New() (Config, error) {
	log := logger.New("config").Function("New")
	log.Info("Initializing config")

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("SERVER_PORT", 8288)
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_CACHE_PORT", 6379)
	v.SetDefault("DB_CACHE_RESET", -1)
	v.SetDefault("SCHEDULER_ENABLED", true)
	v.SetDefault("SCHEDULE_CACHE_TTL_SECONDS", int(constants.ScheduleCacheExpiry/time.Second))

	for _, env := range envVars {
		if err := v.BindEnv(env); err != nil {
			log.Warn("Failed to bind environment variable", "env", env, "error", err)
		}
	}

	if _, set := lookupEnv(v, "DB_HOST"); set {
		log.Info("Environment variables detected, skipping file loading")
	} else {
		v.SetConfigFile(".env")
		v.SetConfigType("env")
		if err := v.ReadInConfig(); err != nil {
			log.Warn("Could not find .env file", "error", err)
		}

		v.SetConfigFile(".env.local")
		if err := v.MergeInConfig(); err != nil {
			log.Debug("No .env.local file found", "error", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return Config{}, log.Err("could not unmarshal config", err)
	}

	if err := validateConfig(config, log); err != nil {
		return Config{}, err
	}

	log.Info(
		"Config initialized",
		"environment", config.Environment,
		"port", config.ServerPort,
		"scheduler", config.SchedulerEnabled,
	)
	return ConfigInstance, nil
}

func lookupEnv(v *viper.Viper, key string) (string, bool) {
	value := v.GetString(key)
	return value, value != ""
}

func GetConfig() Config {
	return ConfigInstance
}

// ScheduleCacheTTL is zero when the task cache is disabled.
func (c Config) ScheduleCacheTTL() time.Duration {
	return time.Duration(c.ScheduleCacheTTLSeconds) * time.Second
}

// CycleAnchor returns the configured week-number cycle anchor, or the zero week when
// unset so callers fall back to their default.
func (c Config) CycleAnchor() (types.WeekKey, error) {
	if c.ScheduleCycleAnchor == "" {
		return types.WeekKey{}, nil
	}
	return types.ParseWeekKey(c.ScheduleCycleAnchor)
}

func validateConfig(config Config, log logger.Logger) error {
	if config.ServerPort <= 0 || config.ServerPort > 65535 {
		return log.Error("invalid server port", "port", config.ServerPort)
	}
	if config.DatabasePort < 0 || config.DatabasePort > 65535 {
		return log.Error("invalid database port", "port", config.DatabasePort)
	}
	if config.ScheduleCacheTTLSeconds < 0 {
		return log.Error("schedule cache TTL must not be negative", "ttl", config.ScheduleCacheTTLSeconds)
	}
	if _, err := config.CycleAnchor(); err != nil {
		return log.Err("invalid SCHEDULE_CYCLE_ANCHOR", err, "anchor", config.ScheduleCycleAnchor)
	}

	ConfigInstance = config
	return nil
}
