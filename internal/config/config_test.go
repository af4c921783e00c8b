package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func TestDefaultMatchesDocumentedDefaults(t *testing.T) {
	c := Default()
	if c.Server.Port != 3000 {
		t.Errorf("port = %d, want 3000", c.Server.Port)
	}
	if c.Security.Token != "secret" {
		t.Errorf("token = %q, want secret", c.Security.Token)
	}
	if c.Compression.Mode != "deflate" {
		t.Errorf("compression = %q, want deflate", c.Compression.Mode)
	}
	if c.Session.TTL != 30*time.Minute {
		t.Errorf("session ttl = %v, want 30m", c.Session.TTL)
	}
	if c.Stats.Interval != 60*time.Second {
		t.Errorf("stats interval = %v, want 60s", c.Stats.Interval)
	}
}

func TestLoadCreatesDefaultFileWhenMissing(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "relay.yaml")

	cfg := Load(path)
	if cfg.Server.Port != 3000 {
		t.Fatalf("expected default config, got port %d", cfg.Server.Port)
	}

	cfg2 := Load(path)
	if cfg2.Server.Port != cfg.Server.Port {
		t.Fatalf("reloaded config diverged from saved defaults")
	}
}

func TestLoadRoundTripsSavedValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "relay.yaml")

	cfg := Default()
	cfg.Server.Port = 9999
	cfg.Compression.Mode = "zstd"
	if err := cfg.Save(path); err != nil {
		t.Fatal(err)
	}

	loaded := Load(path)
	if loaded.Server.Port != 9999 {
		t.Fatalf("port = %d, want 9999", loaded.Server.Port)
	}
	if loaded.Compression.Mode != "zstd" {
		t.Fatalf("compression = %q, want zstd", loaded.Compression.Mode)
	}
}

func TestMergeFlagsOnlyAppliesChangedFlags(t *testing.T) {
	cfg := Default()
	cfg.Server.Port = 1234

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int("port", 3000, "")
	flags.String("compression", "deflate", "")
	flags.Set("compression", "smaz")

	cfg.MergeFlags(flags)

	if cfg.Server.Port != 1234 {
		t.Errorf("port should be untouched since flag wasn't changed, got %d", cfg.Server.Port)
	}
	if cfg.Compression.Mode != "smaz" {
		t.Errorf("compression should be overridden by explicitly set flag, got %q", cfg.Compression.Mode)
	}
}
