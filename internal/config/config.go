package config

import (
	"errors"
	"fmt"
	"time"

	"mine_economy/internal/logger"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	AppPort string `env:"APP_PORT" envDefault:"8080"`

	StorageDriver string `env:"STORAGE_DRIVER" envDefault:"sqlite"`
	DatabaseURL   string `env:"DATABASE_URL"`
	SQLitePath    string `env:"SQLITE_PATH" envDefault:"economy.db"`

	JWTSecret string        `env:"JWT_SECRET,required,notEmpty"`
	JWTTTL    time.Duration `env:"JWT_TTL" envDefault:"24h"`
	AdminIDs  []int64       `env:"ADMIN_USER_IDS" envSeparator:","` // may use the grant endpoint

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	AllowedOrigin string `env:"ALLOWED_ORIGIN"` // websocket origin check, empty allows all

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	LogJSON  bool   `env:"LOG_JSON" envDefault:"false"`

	// Economy
	MineCooldown    time.Duration `env:"MINE_COOLDOWN" envDefault:"5m"`
	WorkCooldown    time.Duration `env:"WORK_COOLDOWN" envDefault:"1h"`
	ProfitCooldown  time.Duration `env:"PROFIT_COOLDOWN" envDefault:"4h"`
	DailyCooldown   time.Duration `env:"DAILY_COOLDOWN" envDefault:"24h"`
	MessageCooldown time.Duration `env:"MESSAGE_COOLDOWN" envDefault:"1m"`
	ProfitChance    float64       `env:"PROFIT_CHANCE" envDefault:"0.2"`
	GearMaxLevel    int           `env:"GEAR_MAX_LEVEL" envDefault:"0"`
	QuestReset      time.Duration `env:"QUEST_RESET_INTERVAL" envDefault:"24h"`

	// Games
	ChoiceTimeout        time.Duration `env:"CHOICE_TIMEOUT" envDefault:"30s"`
	TurnTimeout          time.Duration `env:"TURN_TIMEOUT" envDefault:"30s"`
	SessionGrace         time.Duration `env:"SESSION_GRACE" envDefault:"2m"`
	SessionSweepInterval time.Duration `env:"SESSION_SWEEP_INTERVAL" envDefault:"1m"`

	// Rate limits
	APIRateLimit   int           `env:"API_RATE_LIMIT" envDefault:"60"`
	APIRateWindow  time.Duration `env:"API_RATE_WINDOW" envDefault:"1m"`
	GameRateLimit  int           `env:"GAME_RATE_LIMIT" envDefault:"30"`
	GameRateWindow time.Duration `env:"GAME_RATE_WINDOW" envDefault:"1m"`
}

// Загрузка конфига из env
func Load() *Config {
	_ = godotenv.Load()

	cfg, err := Parse()
	if err != nil {
		logger.Fatal("invalid configuration", "error", err)
	}
	return cfg
}

// Parse reads the environment without touching .env.
func Parse() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	switch c.StorageDriver {
	case DriverPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres driver"))
		}
	case DriverSQLite:
		if c.SQLitePath == "" {
			errs = append(errs, errors.New("SQLITE_PATH is empty"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver))
	}

	for name, d := range map[string]time.Duration{
		"MINE_COOLDOWN":          c.MineCooldown,
		"WORK_COOLDOWN":          c.WorkCooldown,
		"PROFIT_COOLDOWN":        c.ProfitCooldown,
		"DAILY_COOLDOWN":         c.DailyCooldown,
		"MESSAGE_COOLDOWN":       c.MessageCooldown,
		"QUEST_RESET_INTERVAL":   c.QuestReset,
		"CHOICE_TIMEOUT":         c.ChoiceTimeout,
		"TURN_TIMEOUT":           c.TurnTimeout,
		"SESSION_SWEEP_INTERVAL": c.SessionSweepInterval,
		"API_RATE_WINDOW":        c.APIRateWindow,
		"GAME_RATE_WINDOW":       c.GameRateWindow,
	} {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %s", name, d))
		}
	}
	if c.SessionGrace < 0 {
		errs = append(errs, fmt.Errorf("SESSION_GRACE must not be negative, got %s", c.SessionGrace))
	}
	if c.ProfitChance < 0 || c.ProfitChance > 1 {
		errs = append(errs, fmt.Errorf("PROFIT_CHANCE must be within [0,1], got %v", c.ProfitChance))
	}
	if c.GearMaxLevel < 0 {
		errs = append(errs, fmt.Errorf("GEAR_MAX_LEVEL must not be negative, got %d", c.GearMaxLevel))
	}
	if c.APIRateLimit <= 0 || c.GameRateLimit <= 0 {
		errs = append(errs, errors.New("rate limits must be positive"))
	}
	return errors.Join(errs...)
}

// IsAdmin reports whether userID may grant currency.
func (c *Config) IsAdmin(userID int64) bool {
	for _, id := range c.AdminIDs {
		if id == userID {
			return true
		}
	}
	return false
}
