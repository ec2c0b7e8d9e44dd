package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	SQLite   SQLiteConfig
	Redis    RedisConfig
	Sipadu   SipaduConfig
	Index    IndexConfig
	Registry RegistryConfig
	Branding BrandingConfig
	Limits   LimitsConfig
	Logging  LoggingConfig
}

type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  int
	WriteTimeout int
	BodyLimit    int
}

type SQLiteConfig struct {
	Path string
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// SipaduConfig points at the SIPADU dashboard that owns SSO sessions.
type SipaduConfig struct {
	APIBase      string
	DashboardURL string
	TimeoutSec   int
}

type IndexConfig struct {
	MaxPanels      int
	MaxPanelBytes  int
	HighlightClass string
}

type RegistryConfig struct {
	TTLMinutes   int
	PurgeMinutes int
}

// BrandingConfig drives the overlay the frontend applies on top of the
// stock document-QA UI: tab visibility, renames, preloader timing.
type BrandingConfig struct {
	Title         string
	LogoURL       string
	PreloaderMS   int
	HiddenTabs    []string
	TabRenames    map[string]string
	ShowDashboard bool
}

type LimitsConfig struct {
	MaxSelectionLength   int
	MaxRequestsPerMinute int
}

type LoggingConfig struct {
	Level      string
	Format     string
	OutputPath string
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/sipadu-evidence")

	viper.SetEnvPrefix("SIPADU_EVIDENCE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.readTimeout", 30)
	viper.SetDefault("server.writeTimeout", 30)
	viper.SetDefault("server.bodyLimit", 10485760)

	viper.SetDefault("sqlite.path", "./data/evidence.db")

	viper.SetDefault("redis.enabled", true)
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.db", 0)

	viper.SetDefault("sipadu.apiBase", "https://sipadu.example.ac.id")
	viper.SetDefault("sipadu.dashboardURL", "https://sipadu.example.ac.id/dashboard")
	viper.SetDefault("sipadu.timeoutSec", 10)

	viper.SetDefault("index.maxPanels", 50)
	viper.SetDefault("index.maxPanelBytes", 262144)
	viper.SetDefault("index.highlightClass", "evidence-highlight")

	viper.SetDefault("registry.ttlMinutes", 60)
	viper.SetDefault("registry.purgeMinutes", 10)

	viper.SetDefault("branding.title", "SIPADU AI Tools")
	viper.SetDefault("branding.logoURL", "/assets/sipadu-logo.png")
	viper.SetDefault("branding.preloaderMS", 1500)
	viper.SetDefault("branding.hiddenTabs", []string{"resources-tab", "settings-tab", "help-tab"})
	viper.SetDefault("branding.showDashboard", true)

	viper.SetDefault("limits.maxSelectionLength", 2000)
	viper.SetDefault("limits.maxRequestsPerMinute", 120)

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.outputPath", "stdout")
}
