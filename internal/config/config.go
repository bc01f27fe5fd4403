// Package config loads application configuration from file and environment.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store          StoreConfig          `yaml:"store" mapstructure:"store"`
	Serp           SerpConfig           `yaml:"serp" mapstructure:"serp"`
	GDELT          GDELTConfig          `yaml:"gdelt" mapstructure:"gdelt"`
	CompaniesHouse CompaniesHouseConfig `yaml:"companies_house" mapstructure:"companies_house"`
	Corpus         CorpusConfig         `yaml:"corpus" mapstructure:"corpus"`
	Discover       DiscoverConfig       `yaml:"discover" mapstructure:"discover"`
	Taxonomy       TaxonomyConfig       `yaml:"taxonomy" mapstructure:"taxonomy"`
	Batch          BatchConfig          `yaml:"batch" mapstructure:"batch"`
	Server         ServerConfig         `yaml:"server" mapstructure:"server"`
	Log            LogConfig            `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// SerpConfig holds the web-search hint provider settings. When Key is empty
// the resolver skips the search hint and goes straight to candidate guessing.
type SerpConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Engine  string `yaml:"engine" mapstructure:"engine"`
	Results int    `yaml:"results" mapstructure:"results"`
}

// GDELTConfig holds GDELT DOC API settings.
type GDELTConfig struct {
	BaseURL    string `yaml:"base_url" mapstructure:"base_url"`
	MaxRecords int    `yaml:"max_records" mapstructure:"max_records"`
	// Days is the news lookback window, clamped to [1, 90] at the client.
	Days int `yaml:"days" mapstructure:"days"`
}

// CompaniesHouseConfig holds Companies House API credentials.
type CompaniesHouseConfig struct {
	Key string `yaml:"key" mapstructure:"key"`
}

// CorpusConfig points at optional reference-corpora override files. When a
// path is empty the compiled-in default corpus is used.
type CorpusConfig struct {
	CapabilitiesPath string `yaml:"capabilities_path" mapstructure:"capabilities_path"`
	PeerSetsPath     string `yaml:"peer_sets_path" mapstructure:"peer_sets_path"`
}

// DiscoverConfig configures website discovery and scoring.
type DiscoverConfig struct {
	// AcceptScore is the minimum homepage score required to bind a website.
	AcceptScore int `yaml:"accept_score" mapstructure:"accept_score"`
	// HighConfidenceScore stops candidate enumeration early.
	HighConfidenceScore int      `yaml:"high_confidence_score" mapstructure:"high_confidence_score"`
	FetchTimeoutSecs    int      `yaml:"fetch_timeout_secs" mapstructure:"fetch_timeout_secs"`
	TLDs                []string `yaml:"tlds" mapstructure:"tlds"`
}

// TaxonomyConfig configures the taxonomy import sweep.
type TaxonomyConfig struct {
	LandingURL        string `yaml:"landing_url" mapstructure:"landing_url"`
	LinkPathSubstring string `yaml:"link_path_substring" mapstructure:"link_path_substring"`
	RequestDelayMS    int    `yaml:"request_delay_ms" mapstructure:"request_delay_ms"`
	FetchTimeoutSecs  int    `yaml:"fetch_timeout_secs" mapstructure:"fetch_timeout_secs"`
}

// BatchConfig configures batch processing.
type BatchConfig struct {
	MaxConcurrent int `yaml:"max_concurrent" mapstructure:"max_concurrent"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port     int    `yaml:"port" mapstructure:"port"`
	AdminKey string `yaml:"admin_key" mapstructure:"admin_key"`
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
	v.SetEnvPrefix("SOURCING")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "postgres")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("batch.max_concurrent", 5)
	v.SetDefault("discover.accept_score", 2)
	v.SetDefault("discover.high_confidence_score", 6)
	v.SetDefault("discover.fetch_timeout_secs", 6)
	v.SetDefault("discover.tlds", []string{".com", ".ai", ".io", ".net", ".co"})
	v.SetDefault("serp.base_url", "https://serpapi.com")
	v.SetDefault("serp.engine", "google")
	v.SetDefault("serp.results", 5)
	v.SetDefault("gdelt.base_url", "https://api.gdeltproject.org")
	v.SetDefault("gdelt.max_records", 25)
	v.SetDefault("gdelt.days", 30)
	v.SetDefault("taxonomy.landing_url", "https://www.cisco.com/c/m/en_us/solutions/industries/portfolio-explorer.html")
	v.SetDefault("taxonomy.link_path_substring", "/portfolio-explorer/portfolio-explorer-for-")
	v.SetDefault("taxonomy.request_delay_ms", 800)
	v.SetDefault("taxonomy.fetch_timeout_secs", 20)

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
