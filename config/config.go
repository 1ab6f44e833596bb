// Package config loads the standalone server configuration.
//
// Values come from three layers, applied in order: built-in defaults, an
// optional YAML file, and environment variables. A .env file next to the
// process is loaded into the environment first when present, without
// overriding variables that are already set.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Store drivers.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
)

// Environment variable names.
const (
	EnvChannelSecret    = "LINE_CHANNEL_SECRET"
	EnvChannelToken     = "LINE_CHANNEL_ACCESS_TOKEN"
	EnvLineEndpoint     = "LINE_API_ENDPOINT"
	EnvAddr             = "GROUPBUY_ADDR"
	EnvCoordinators     = "GROUPBUY_COORDINATORS"
	EnvAnnounceTo       = "GROUPBUY_ANNOUNCE_TO"
	EnvEchoUnrecognized = "GROUPBUY_ECHO_UNRECOGNIZED"
	EnvStoreDriver      = "GROUPBUY_STORE"
	EnvStoreDSN         = "GROUPBUY_DSN"
	EnvAMQPURL          = "GROUPBUY_AMQP_URL"
)

// Config is the server configuration.
type Config struct {
	// Addr is the listen address of the HTTP server.
	Addr string `yaml:"addr"`

	LINE     LINEConfig     `yaml:"line"`
	Bot      BotConfig      `yaml:"bot"`
	Store    StoreConfig    `yaml:"store"`
	AMQP     AMQPConfig     `yaml:"amqp"`
	Server   ServerConfig   `yaml:"server"`
	Announce AnnounceConfig `yaml:"announce"`
}

// LINEConfig holds the Messaging API channel credentials.
type LINEConfig struct {
	ChannelSecret      string `yaml:"channel_secret"`
	ChannelAccessToken string `yaml:"channel_access_token"`

	// Endpoint overrides the API base URL. Empty means the public API.
	Endpoint string `yaml:"endpoint"`
}

// BotConfig controls command handling.
type BotConfig struct {
	// Coordinators are the user ids allowed to run keyword commands.
	Coordinators []string `yaml:"coordinators"`

	// EchoUnrecognized replies with the text of messages that are not
	// commands.
	EchoUnrecognized bool `yaml:"echo_unrecognized"`

	// Concurrency bounds how many events of one webhook batch are handled
	// at once.
	Concurrency int `yaml:"concurrency"`

	// ScanLimit bounds concurrent ledger scans in cross-ledger queries.
	ScanLimit int `yaml:"scan_limit"`
}

// StoreConfig selects the persistence backend.
type StoreConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// AMQPConfig enables brokered announcements when URL is set.
type AMQPConfig struct {
	URL      string `yaml:"url"`
	Exchange string `yaml:"exchange"`
	Queue    string `yaml:"queue"`
}

// AnnounceConfig controls coordinator announcements.
type AnnounceConfig struct {
	// To is the chat id that receives announcements. Empty disables them.
	To string `yaml:"to"`

	// StatusChanges also announces open and close transitions.
	StatusChanges bool `yaml:"status_changes"`
}

// ServerConfig holds HTTP server timeouts.
type ServerConfig struct {
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Default returns the configuration used when nothing else is set.
func Default() *Config {
	return &Config{
		Addr: ":8080",
		Bot: BotConfig{
			Concurrency: 8,
			ScanLimit:   8,
		},
		Store: StoreConfig{Driver: DriverMemory},
		AMQP: AMQPConfig{
			Exchange: "groupbuy_announcements",
			Queue:    "groupbuy_announce_queue",
		},
		Server: ServerConfig{
			ReadTimeout:     5 * time.Second,
			WriteTimeout:    10 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
	}
}

// Load builds a Config from defaults, the YAML file at path (skipped when
// path is empty) and the environment.
func Load(path string) (*Config, error) {
	if err := LoadDotEnv(".env"); err != nil {
		return nil, err
	}

	cfg := Default()
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDotEnv loads variables from the given files into the process
// environment. Missing files are ignored and existing variables win.
func LoadDotEnv(files ...string) error {
	for _, f := range files {
		if _, err := os.Stat(f); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("config: load %s: %w", f, err)
		}
	}
	return nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	str(EnvChannelSecret, &c.LINE.ChannelSecret)
	str(EnvChannelToken, &c.LINE.ChannelAccessToken)
	str(EnvLineEndpoint, &c.LINE.Endpoint)
	str(EnvAddr, &c.Addr)
	str(EnvAnnounceTo, &c.Announce.To)
	str(EnvStoreDriver, &c.Store.Driver)
	str(EnvStoreDSN, &c.Store.DSN)
	str(EnvAMQPURL, &c.AMQP.URL)

	if v, ok := lookup(EnvCoordinators); ok && v != "" {
		c.Bot.Coordinators = SplitList(v)
	}
	if v, ok := lookup(EnvEchoUnrecognized); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("config: %s: %w", EnvEchoUnrecognized, err)
		}
		c.Bot.EchoUnrecognized = b
	}
	return nil
}

// Validate reports missing or inconsistent settings.
func (c *Config) Validate() error {
	var errs []error

	if c.LINE.ChannelSecret == "" {
		errs = append(errs, fmt.Errorf("config: line.channel_secret is required (or %s)", EnvChannelSecret))
	}
	if c.LINE.ChannelAccessToken == "" {
		errs = append(errs, fmt.Errorf("config: line.channel_access_token is required (or %s)", EnvChannelToken))
	}

	switch c.Store.Driver {
	case DriverMemory:
	case DriverSQLite, DriverPostgres, DriverMongo:
		if c.Store.DSN == "" {
			errs = append(errs, fmt.Errorf("config: store.dsn is required for driver %q", c.Store.Driver))
		}
	default:
		errs = append(errs, fmt.Errorf("config: unknown store driver %q", c.Store.Driver))
	}

	if c.Bot.Concurrency < 0 || c.Bot.ScanLimit < 0 {
		errs = append(errs, errors.New("config: bot limits must not be negative"))
	}

	return errors.Join(errs...)
}

// SplitList splits a comma separated list and drops blank entries.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
