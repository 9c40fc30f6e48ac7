package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
	"github.com/joho/godotenv"
)

const defaultAddr = "0.0.0.0:8080"

// Store drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds the application configuration, loadable from environment
// variables (BILLING_ prefix), flags, a .env file or YAML config files.
type Config struct {
	Addr     string `default:"0.0.0.0:8080" usage:"API server listen address"`
	Store    StoreConfig
	CORS     CORSConfig
	Graceful GracefulConfig
}

// StoreConfig selects and locates the order log store.
type StoreConfig struct {
	Driver      string `usage:"Order log store: sqlite or postgres (default: postgres when a database URL is set)"`
	DatabaseURL string `env:"DATABASE_URL" usage:"PostgreSQL connection URL (BILLING_STORE_DATABASE_URL or DATABASE_URL)"`
	SQLitePath  string `env:"SQLITE_PATH" default:"billing_system.db" usage:"SQLite database file"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins []string      `default:"*" usage:"Allowed CORS origins"`
	MaxAge  time.Duration `default:"24h" usage:"Preflight cache duration"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration"`
}

// LoadConfig loads configuration from the environment, a .env file in the
// working directory, flags and YAML config files.
func LoadConfig() (*Config, error) {
	// A missing .env file is the normal case outside development.
	_ = godotenv.Load()

	return loadConfig(aconfig.Config{
		EnvPrefix: "BILLING",
		Files:     []string{"config.yaml", "/etc/billing/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
}

func loadConfig(ac aconfig.Config) (*Config, error) {
	var cfg Config
	if err := aconfig.LoaderFor(&cfg, ac).Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyPlatformDefaults maps the DATABASE_URL and PORT variables set by
// hosting platforms onto the configuration.
func (c *Config) applyPlatformDefaults() {
	if port := os.Getenv("PORT"); port != "" && c.Addr == defaultAddr {
		c.Addr = "0.0.0.0:" + port
	}
	c.Store.ApplyDefaults()
}

// ApplyDefaults falls back to DATABASE_URL and picks the driver when unset:
// postgres when a database URL is known, sqlite otherwise.
func (s *StoreConfig) ApplyDefaults() {
	if s.DatabaseURL == "" {
		s.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if s.Driver == "" {
		s.Driver = DriverSQLite
		if s.DatabaseURL != "" {
			s.Driver = DriverPostgres
		}
	}
}

// Validate checks that the selected store is usable.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case DriverPostgres:
		if c.Store.DatabaseURL == "" {
			return errors.New("database URL is required for the postgres store: set BILLING_STORE_DATABASE_URL or DATABASE_URL")
		}
	case DriverSQLite:
		if c.Store.SQLitePath == "" {
			return errors.New("sqlite path is required for the sqlite store")
		}
	default:
		return errors.Errorf("unknown store driver %q: want %s or %s", c.Store.Driver, DriverSQLite, DriverPostgres)
	}
	return nil
}
