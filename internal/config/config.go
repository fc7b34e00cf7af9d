package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/parcel-risk/internal/fetcher"
	"github.com/sells-group/parcel-risk/internal/store"
)

// Config holds the full application configuration.
type Config struct {
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Registry RegistryConfig `yaml:"registry" mapstructure:"registry"`
	District DistrictConfig `yaml:"district" mapstructure:"district"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the history backend.
type StoreConfig struct {
	Driver      string           `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string           `yaml:"database_url" mapstructure:"database_url"`
	Pool        store.PoolConfig `yaml:"pool" mapstructure:"pool"`
}

// RegistryConfig configures the public data portal clients.
type RegistryConfig struct {
	ServiceKey   string  `yaml:"service_key" mapstructure:"service_key"`
	BuildingURL  string  `yaml:"building_url" mapstructure:"building_url"`
	TradeBaseURL string  `yaml:"trade_base_url" mapstructure:"trade_base_url"`
	TimeoutSecs  int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RateLimit    float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
	UserAgent    string  `yaml:"user_agent" mapstructure:"user_agent"`
}

// DistrictConfig locates the legal-district reference snapshot. Analysis
// and serving need the national code file; the packaged sample covers only
// a few Seoul districts and is used by "district lookup" when SnapshotPath
// is empty. Sheet selects the worksheet of an .xlsx snapshot (first sheet
// when empty).
type DistrictConfig struct {
	SnapshotPath string `yaml:"snapshot_path" mapstructure:"snapshot_path"`
	Encoding     string `yaml:"encoding" mapstructure:"encoding"`
	Sheet        string `yaml:"sheet" mapstructure:"sheet"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port        int      `yaml:"port" mapstructure:"port"`
	CORSOrigins []string `yaml:"cors_origins" mapstructure:"cors_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("PARCEL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", store.DriverSQLite)
	v.SetDefault("store.database_url", "parcel-risk.db")
	v.SetDefault("store.pool.max_conns", 10)
	v.SetDefault("store.pool.min_conns", 1)
	v.SetDefault("registry.service_key", "")
	v.SetDefault("registry.building_url", "https://apis.data.go.kr/1613000/BldRgstHubService/getBrTitleInfo")
	v.SetDefault("registry.trade_base_url", "https://apis.data.go.kr/1613000")
	v.SetDefault("registry.timeout_secs", 10)
	v.SetDefault("registry.rate_limit", 10)
	v.SetDefault("registry.user_agent", "parcel-risk/1.0")
	v.SetDefault("district.snapshot_path", "")
	v.SetDefault("district.encoding", "auto")
	v.SetDefault("district.sheet", "")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validation modes.
const (
	ModeAnalyze = "analyze"
	ModeServe   = "serve"
	ModeLookup  = "lookup"
)

// Validate checks the settings a command mode depends on and reports every
// problem at once.
func (c *Config) Validate(mode string) error {
	var problems []string

	switch c.District.Encoding {
	case "", fetcher.EncodingAuto, fetcher.EncodingUTF8, fetcher.EncodingEUCKR:
	default:
		problems = append(problems, "district.encoding must be auto, utf-8 or euc-kr")
	}

	switch mode {
	case ModeLookup:
	case ModeAnalyze, ModeServe:
		if c.Registry.ServiceKey == "" {
			problems = append(problems, "registry.service_key is required")
		}
		if c.Registry.TimeoutSecs <= 0 {
			problems = append(problems, "registry.timeout_secs must be positive")
		}
		if c.Registry.RateLimit <= 0 {
			problems = append(problems, "registry.rate_limit must be positive")
		}
		switch c.Store.Driver {
		case store.DriverSQLite, store.DriverPostgres:
		default:
			problems = append(problems, "store.driver must be sqlite or postgres")
		}
		if c.Store.DatabaseURL == "" {
			problems = append(problems, "store.database_url is required")
		}
		if c.District.SnapshotPath == "" {
			problems = append(problems, "district.snapshot_path is required (national legal-district code file)")
		}
		if mode == ModeServe && (c.Server.Port <= 0 || c.Server.Port > 65535) {
			problems = append(problems, "server.port must be between 1 and 65535")
		}
	default:
		return eris.Errorf("config: unknown validation mode %q", mode)
	}

	if len(problems) > 0 {
		return eris.Errorf("config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
