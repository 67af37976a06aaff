package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"signal_scanner/internal/models"
)

const (
	configFilePathENV = "CONFIG_FILE"
	tokenTelegramENV  = "TELEGRAM_TOKEN"
	chatTelegramENV   = "TELEGRAM_CHAT_ID"
	databaseDSN       = "DATABASE_DSN"
	envPrefix         = "SCANNER"
)

// Config ...
type Config struct {
	Telegram struct {
		Token  string `mapstructure:"token"`
		ChatID int64  `mapstructure:"chat_id"`
	} `mapstructure:"telegram"`
	DB         string `mapstructure:"db_dsn"`
	DBMaxConns int32  `mapstructure:"db_max_conns"`
	Service    struct {
		Name      string `mapstructure:"name"`
		Host      string `mapstructure:"host"`
		AdminPort int    `mapstructure:"admin_port"`
	} `mapstructure:"service"`
	Log struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"`
	} `mapstructure:"log"`
	Tracing struct {
		Enabled bool   `mapstructure:"enabled"`
		Host    string `mapstructure:"host"`
		Port    int    `mapstructure:"port"`
	} `mapstructure:"tracing"`

	Exchange Exchange `mapstructure:"exchange"`
	Scan     Scan     `mapstructure:"scan"`
	Market   Market   `mapstructure:"market"`
	Schedule []Job    `mapstructure:"schedule"`

	ProfilesFile string `mapstructure:"profiles_file"`
	// Profiles holds the built-in profiles merged with ProfilesFile, all validated.
	Profiles map[string]models.Profile `mapstructure:"-"`
}

type Exchange struct {
	Name         string        `mapstructure:"name"` // okx | mexc
	BaseURL      string        `mapstructure:"base_url"`
	Quote        string        `mapstructure:"quote"`
	Timeout      time.Duration `mapstructure:"timeout"`
	Retries      int           `mapstructure:"retries"`
	RetryBackoff time.Duration `mapstructure:"retry_backoff"`
}

type Scan struct {
	Concurrency int           `mapstructure:"concurrency"`
	PassTimeout time.Duration `mapstructure:"pass_timeout"`
}

type Market struct {
	Enabled   bool   `mapstructure:"enabled"`
	Reference string `mapstructure:"reference"`
	Timeframe string `mapstructure:"timeframe"`
	Bars      int    `mapstructure:"bars"`
}

// Job runs one profile either every Every or on a Cron expression.
type Job struct {
	Profile string        `mapstructure:"profile"`
	Every   time.Duration `mapstructure:"every"`
	Cron    string        `mapstructure:"cron"`
}

func NewConfig() (*Config, error) {
	configFileName := os.Getenv(configFilePathENV)
	if configFileName == "" {
		configFileName = "values_local.yaml"
	}
	return Load(filepath.Join("configs", configFileName))
}

// Load reads path (if it exists), applies defaults and env overrides, then loads profiles.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("telegram.token", tokenTelegramENV)
	_ = v.BindEnv("telegram.chat_id", chatTelegramENV)
	_ = v.BindEnv("db_dsn", databaseDSN)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	profilesPath := cfg.ProfilesFile
	if profilesPath != "" && !filepath.IsAbs(profilesPath) && path != "" {
		profilesPath = filepath.Join(filepath.Dir(path), profilesPath)
	}
	profiles, err := LoadProfiles(profilesPath)
	if err != nil {
		return nil, err
	}
	cfg.Profiles = profiles

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.chat_id", 0)
	v.SetDefault("db_dsn", "")
	v.SetDefault("db_max_conns", 4)
	v.SetDefault("service.name", "signal_scanner")
	v.SetDefault("service.host", "0.0.0.0")
	v.SetDefault("service.admin_port", 9090)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.host", "localhost")
	v.SetDefault("tracing.port", 6831)

	v.SetDefault("exchange.name", "okx")
	v.SetDefault("exchange.base_url", "")
	v.SetDefault("exchange.quote", "USDT")
	v.SetDefault("exchange.timeout", 12*time.Second)
	v.SetDefault("exchange.retries", 3)
	v.SetDefault("exchange.retry_backoff", 500*time.Millisecond)

	v.SetDefault("scan.concurrency", 8)
	v.SetDefault("scan.pass_timeout", 4*time.Minute)

	v.SetDefault("market.enabled", true)
	v.SetDefault("market.reference", "BTC-USDT")
	v.SetDefault("market.timeframe", "4h")
	v.SetDefault("market.bars", 200)

	v.SetDefault("schedule", []map[string]any{{"profile": "intraday", "every": "5m"}})
	v.SetDefault("profiles_file", "")
}

// Profile returns the named, validated profile.
func (c *Config) Profile(name string) (models.Profile, error) {
	p, ok := c.Profiles[name]
	if !ok {
		return models.Profile{}, fmt.Errorf("unknown profile %q", name)
	}
	return p, nil
}

func (c *Config) validate() error {
	switch c.Exchange.Name {
	case "okx", "mexc":
	default:
		return fmt.Errorf("exchange.name: unsupported exchange %q", c.Exchange.Name)
	}
	if c.DBMaxConns < 0 {
		return fmt.Errorf("db_max_conns must not be negative, got %d", c.DBMaxConns)
	}
	if c.Scan.Concurrency <= 0 {
		return fmt.Errorf("scan.concurrency must be positive, got %d", c.Scan.Concurrency)
	}
	if c.Scan.PassTimeout <= 0 {
		return fmt.Errorf("scan.pass_timeout must be positive, got %s", c.Scan.PassTimeout)
	}
	if c.Market.Enabled && (c.Market.Reference == "" || c.Market.Bars <= 0) {
		return fmt.Errorf("market: reference and bars are required when enabled")
	}
	for i, job := range c.Schedule {
		if _, ok := c.Profiles[job.Profile]; !ok {
			return fmt.Errorf("schedule[%d]: unknown profile %q", i, job.Profile)
		}
		if (job.Every <= 0) == (job.Cron == "") {
			return fmt.Errorf("schedule[%d]: exactly one of every or cron is required", i)
		}
	}
	return nil
}
