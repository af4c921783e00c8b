// Package config defines the relay's process-wide configuration: a YAML
// file on disk, overridable by CLI flags, loaded once at startup.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// Config is the relay's full configuration. Mirrors the option table: one
// group per concern, so TLS/ngrok additions don't clutter the core
// Server block.
type Config struct {
	Server      Server      `yaml:"server"`
	Security    Security    `yaml:"security"`
	Compression Compression `yaml:"compression"`
	Session     Session     `yaml:"session"`
	Stats       Stats       `yaml:"stats"`
	TLS         TLS         `yaml:"tls"`
	Ngrok       Ngrok       `yaml:"ngrok"`
}

// Server holds listener configuration.
type Server struct {
	Port       int    `yaml:"port"`
	StaticPath string `yaml:"static_path"`
}

// Security holds the shared-secret auth token.
type Security struct {
	Token string `yaml:"token"`
}

// Compression selects the binary codec mode.
type Compression struct {
	Mode string `yaml:"mode"`
}

// Session holds multiplexing lifecycle tuning.
type Session struct {
	TTL time.Duration `yaml:"ttl"`
}

// Stats holds the periodic logger cadence.
type Stats struct {
	Interval time.Duration `yaml:"interval"`
}

// TLS holds termination options: a self-signed cert, a user-supplied
// cert/key pair, or certmagic-managed ACME automatic HTTPS.
type TLS struct {
	Enabled    bool   `yaml:"enabled"`
	SelfSigned bool   `yaml:"self_signed"`
	CertFile   string `yaml:"cert_file"`
	KeyFile    string `yaml:"key_file"`
	AutoDomain string `yaml:"auto_domain"` // non-empty enables certmagic ACME for this domain
}

// Ngrok holds optional tunnel exposure.
type Ngrok struct {
	Enabled   bool   `yaml:"enabled"`
	AuthToken string `yaml:"auth_token"`
}

// Default returns the spec's documented defaults.
func Default() *Config {
	return &Config{
		Server: Server{
			Port: 3000,
		},
		Security: Security{
			Token: "secret",
		},
		Compression: Compression{
			Mode: "deflate",
		},
		Session: Session{
			TTL: 30 * time.Minute,
		},
		Stats: Stats{
			Interval: 60 * time.Second,
		},
	}
}

// Load reads configuration from filename, creating it with defaults if it
// doesn't exist. An empty filename returns defaults without touching
// disk.
func Load(filename string) *Config {
	cfg := Default()
	if filename == "" {
		return cfg
	}

	if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
		fmt.Printf("Warning: failed to create config directory: %v\n", err)
		return cfg
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		if !os.IsNotExist(err) {
			fmt.Printf("Warning: failed to read config file: %v\n", err)
		}
		if err := cfg.Save(filename); err != nil {
			fmt.Printf("Warning: failed to save default config: %v\n", err)
		}
		return cfg
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		fmt.Printf("Warning: failed to parse config file: %v\n", err)
		return Default()
	}

	return cfg
}

// Save writes the configuration to filename as YAML.
func (c *Config) Save(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(filename, data, 0644)
}

// MergeFlags overlays CLI flags onto the loaded configuration, but only
// for flags the user actually set — an unset flag never clobbers a value
// already present in the config file.
func (c *Config) MergeFlags(flags *pflag.FlagSet) {
	if flags.Changed("port") {
		if v, err := flags.GetInt("port"); err == nil {
			c.Server.Port = v
		}
	}
	if flags.Changed("static-path") {
		if v, err := flags.GetString("static-path"); err == nil {
			c.Server.StaticPath = v
		}
	}
	if flags.Changed("token") {
		if v, err := flags.GetString("token"); err == nil {
			c.Security.Token = v
		}
	}
	if flags.Changed("compression") {
		if v, err := flags.GetString("compression"); err == nil {
			c.Compression.Mode = v
		}
	}
	if flags.Changed("session-ttl") {
		if v, err := flags.GetDuration("session-ttl"); err == nil {
			c.Session.TTL = v
		}
	}
	if flags.Changed("stats-interval") {
		if v, err := flags.GetDuration("stats-interval"); err == nil {
			c.Stats.Interval = v
		}
	}
	if flags.Changed("tls") {
		if v, err := flags.GetBool("tls"); err == nil {
			c.TLS.Enabled = v
		}
	}
	if flags.Changed("tls-self-signed") {
		if v, err := flags.GetBool("tls-self-signed"); err == nil {
			c.TLS.SelfSigned = v
		}
	}
	if flags.Changed("tls-cert") {
		if v, err := flags.GetString("tls-cert"); err == nil {
			c.TLS.CertFile = v
		}
	}
	if flags.Changed("tls-key") {
		if v, err := flags.GetString("tls-key"); err == nil {
			c.TLS.KeyFile = v
		}
	}
	if flags.Changed("tls-auto-domain") {
		if v, err := flags.GetString("tls-auto-domain"); err == nil {
			c.TLS.AutoDomain = v
		}
	}
	if flags.Changed("ngrok") {
		if v, err := flags.GetBool("ngrok"); err == nil {
			c.Ngrok.Enabled = v
		}
	}
	if flags.Changed("ngrok-token") {
		if v, err := flags.GetString("ngrok-token"); err == nil && v != "" {
			c.Ngrok.AuthToken = v
		}
	}
}

// Print displays the current configuration to stdout.
func (c *Config) Print() {
	fmt.Println("Relay configuration:")
	fmt.Printf("  Port: %d\n", c.Server.Port)
	fmt.Printf("  Static path: %s\n", c.Server.StaticPath)
	fmt.Printf("  Compression: %s\n", c.Compression.Mode)
	fmt.Printf("  Session TTL: %s\n", c.Session.TTL)
	fmt.Printf("  Stats interval: %s\n", c.Stats.Interval)
	fmt.Println("  Token: [hidden]")
	fmt.Printf("  TLS enabled: %t\n", c.TLS.Enabled)
	if c.TLS.Enabled {
		fmt.Printf("  TLS self-signed: %t\n", c.TLS.SelfSigned)
		if c.TLS.AutoDomain != "" {
			fmt.Printf("  TLS auto domain: %s\n", c.TLS.AutoDomain)
		}
	}
	fmt.Printf("  Ngrok enabled: %t\n", c.Ngrok.Enabled)
}
