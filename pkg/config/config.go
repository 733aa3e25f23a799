package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"
)

// Config stores all configuration for the application.
type Config struct {
	LogLevel   string           `mapstructure:"log_level"`
	LogFormat  string           `mapstructure:"log_format"`
	Server     ServerConfig     `mapstructure:"server"`
	Postgres   PostgresConfig   `mapstructure:"postgres"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Crawl      CrawlConfig      `mapstructure:"crawl"`
	Browser    BrowserConfig    `mapstructure:"browser"`
	Classifier ClassifierConfig `mapstructure:"classifier"`
}

type ServerConfig struct {
	Port    string `mapstructure:"port"`
	Workers int    `mapstructure:"workers"`
}

type PostgresConfig struct {
	URL string `mapstructure:"url"`
}

type RedisConfig struct {
	Addr          string        `mapstructure:"addr"`
	Password      string        `mapstructure:"password"`
	DB            int           `mapstructure:"db"`
	CompletionTTL time.Duration `mapstructure:"completion_ttl"`
}

type StorageConfig struct {
	// Backend is "file" or "postgres".
	Backend       string `mapstructure:"backend"`
	DataDir       string `mapstructure:"data_dir"`
	ResultsDir    string `mapstructure:"results_dir"`
	SitePagesDir  string `mapstructure:"site_pages_dir"`
	BannerDir     string `mapstructure:"banner_dir"`
	QuarantineDir string `mapstructure:"quarantine_dir"`
}

type CrawlConfig struct {
	ProfilesFile        string        `mapstructure:"profiles_file"`
	Visits              int           `mapstructure:"visits"`
	SubpageCount        int           `mapstructure:"subpage_count"`
	MaxSessions         int           `mapstructure:"max_sessions"`
	NavigationTimeout   time.Duration `mapstructure:"navigation_timeout"`
	HomepageTimeout     time.Duration `mapstructure:"homepage_timeout"`
	HomepageSettle      time.Duration `mapstructure:"homepage_settle"`
	InteractionDelayMin time.Duration `mapstructure:"interaction_delay_min"`
	InteractionDelayMax time.Duration `mapstructure:"interaction_delay_max"`
	TabMonitorInterval  time.Duration `mapstructure:"tab_monitor_interval"`
	TabMonitorMaxErrors int           `mapstructure:"tab_monitor_max_errors"`
	AcquireAttempts     int           `mapstructure:"acquire_attempts"`
	AcquireBackoff      time.Duration `mapstructure:"acquire_backoff"`
	StorageEveryPage    bool          `mapstructure:"storage_every_page"`
	ShuffleDomains      bool          `mapstructure:"shuffle_domains"`
	SkipExisting        bool          `mapstructure:"skip_existing"`
	Verbose             bool          `mapstructure:"verbose"`

	CollectMaxPages      int           `mapstructure:"collect_max_pages"`
	CollectHomepageLinks int           `mapstructure:"collect_homepage_links"`
	CollectSettle        time.Duration `mapstructure:"collect_settle"`
}

type BrowserConfig struct {
	Headless bool   `mapstructure:"headless"`
	ExecPath string `mapstructure:"exec_path"`
	// MaxContexts caps open browsing contexts across all profiles; 0 means
	// no cap.
	MaxContexts int `mapstructure:"max_contexts"`
}

type ClassifierConfig struct {
	FilterDir         string        `mapstructure:"filter_dir"`
	FilterURLs        []string      `mapstructure:"filter_urls"`
	OrganizationsFile string        `mapstructure:"organizations_file"`
	CookieDBPath      string        `mapstructure:"cookie_db_path"`
	CookieComparison  string        `mapstructure:"cookie_comparison"`
	DNSCache          string        `mapstructure:"dns_cache"`
	DNSCacheTTL       time.Duration `mapstructure:"dns_cache_ttl"`
	DNSTimeout        time.Duration `mapstructure:"dns_timeout"`
}

// DefaultConfigName is looked up in the working directory and in the
// user's config home when no explicit file is given.
const DefaultConfigName = "trackscope"

// Load reads configuration from an optional file and TRACKSCOPE_* environment
// variables. Keys are nested with "_" in the environment, e.g.
// TRACKSCOPE_CRAWL_MAX_SESSIONS.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("TRACKSCOPE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName(DefaultConfigName)
		v.AddConfigPath(".")
		v.AddConfigPath(filepath.Join(xdg.ConfigHome, DefaultConfigName))
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	cfg.resolvePaths()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")

	v.SetDefault("server.port", "8080")
	v.SetDefault("server.workers", 2)

	v.SetDefault("postgres.url", "")
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.completion_ttl", 48*time.Hour)

	v.SetDefault("storage.backend", "file")
	v.SetDefault("storage.data_dir", filepath.Join(xdg.DataHome, DefaultConfigName))
	v.SetDefault("storage.results_dir", "")
	v.SetDefault("storage.site_pages_dir", "")
	v.SetDefault("storage.banner_dir", "")
	v.SetDefault("storage.quarantine_dir", "")

	v.SetDefault("crawl.profiles_file", "profiles.yaml")
	v.SetDefault("crawl.visits", 2)
	v.SetDefault("crawl.subpage_count", 20)
	v.SetDefault("crawl.max_sessions", 2)
	v.SetDefault("crawl.navigation_timeout", 30*time.Second)
	v.SetDefault("crawl.homepage_timeout", 30*time.Second)
	v.SetDefault("crawl.homepage_settle", 5*time.Second)
	v.SetDefault("crawl.interaction_delay_min", time.Second)
	v.SetDefault("crawl.interaction_delay_max", 2*time.Second)
	v.SetDefault("crawl.tab_monitor_interval", 3*time.Second)
	v.SetDefault("crawl.tab_monitor_max_errors", 10)
	v.SetDefault("crawl.acquire_attempts", 3)
	v.SetDefault("crawl.acquire_backoff", 5*time.Second)
	v.SetDefault("crawl.storage_every_page", false)
	v.SetDefault("crawl.shuffle_domains", true)
	v.SetDefault("crawl.skip_existing", true)
	v.SetDefault("crawl.verbose", false)
	v.SetDefault("crawl.collect_max_pages", 40)
	v.SetDefault("crawl.collect_homepage_links", 3)
	v.SetDefault("crawl.collect_settle", time.Second)

	v.SetDefault("browser.headless", false)
	v.SetDefault("browser.exec_path", "")
	v.SetDefault("browser.max_contexts", 0)

	v.SetDefault("classifier.filter_dir", "")
	v.SetDefault("classifier.filter_urls", []string{})
	v.SetDefault("classifier.organizations_file", "")
	v.SetDefault("classifier.cookie_db_path", "")
	v.SetDefault("classifier.cookie_comparison", "baseline")
	v.SetDefault("classifier.dns_cache", "memory")
	v.SetDefault("classifier.dns_cache_ttl", 24*time.Hour)
	v.SetDefault("classifier.dns_timeout", 5*time.Second)
}

// resolvePaths fills empty directories relative to the data directory.
func (c *Config) resolvePaths() {
	dir := func(p *string, name string) {
		if *p == "" {
			*p = filepath.Join(c.Storage.DataDir, name)
		}
	}
	dir(&c.Storage.ResultsDir, "crawler_data")
	dir(&c.Storage.SitePagesDir, "site_pages")
	dir(&c.Storage.BannerDir, "banner_data")
	dir(&c.Storage.QuarantineDir, "failed_crawls")
	dir(&c.Classifier.FilterDir, "filters")
	dir(&c.Classifier.CookieDBPath, "cookies.db")
}

// Validate rejects configurations the crawler cannot run with.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case "file":
	case "postgres":
		if c.Postgres.URL == "" {
			return errors.New("postgres storage backend requires postgres.url")
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	switch c.Classifier.DNSCache {
	case "memory", "none":
	case "redis":
		if c.Redis.Addr == "" {
			return errors.New("redis dns cache requires redis.addr")
		}
	default:
		return fmt.Errorf("unknown dns cache %q", c.Classifier.DNSCache)
	}
	if c.Crawl.Visits < 1 {
		return errors.New("crawl.visits must be at least 1")
	}
	if c.Crawl.MaxSessions < 1 {
		return errors.New("crawl.max_sessions must be at least 1")
	}
	if c.Crawl.InteractionDelayMax < c.Crawl.InteractionDelayMin {
		return errors.New("crawl.interaction_delay_max must not be below interaction_delay_min")
	}
	return nil
}
