package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ptyrelay/relay/internal/codec"
	"github.com/ptyrelay/relay/internal/config"
	"github.com/ptyrelay/relay/internal/relay"
)

var version = "dev"

var (
	port           int
	staticPath     string
	token          string
	compression    string
	sessionTTL     time.Duration
	statsInterval  time.Duration
	tlsEnabled     bool
	tlsSelfSigned  bool
	tlsCertPath    string
	tlsKeyPath     string
	tlsAutoDomain  string
	ngrokEnabled   bool
	ngrokToken     string
	configFile     string
)

var rootCmd = &cobra.Command{
	Use:   "relay",
	Short: "Multiplex terminal sessions to web viewers over WebSocket",
	RunE:  run,
}

func init() {
	homeDir, _ := os.UserHomeDir()
	defaultConfigPath := filepath.Join(homeDir, ".ptyrelay", "config.yaml")

	rootCmd.Flags().IntVar(&port, "port", 3000, "Server port")
	rootCmd.Flags().StringVar(&staticPath, "static-path", "", "Path to static web assets")
	rootCmd.Flags().StringVar(&token, "token", "", "Shared auth token runners and viewers must present")
	rootCmd.Flags().StringVar(&compression, "compression", "", "Binary frame compression: none, zstd, smaz, deflate")
	rootCmd.Flags().DurationVar(&sessionTTL, "session-ttl", 0, "Idle session lifetime before cleanup (e.g. 30m)")
	rootCmd.Flags().DurationVar(&statsInterval, "stats-interval", 0, "Stats log line cadence (e.g. 60s)")

	rootCmd.Flags().BoolVar(&tlsEnabled, "tls", false, "Terminate TLS directly instead of plain HTTP")
	rootCmd.Flags().BoolVar(&tlsSelfSigned, "tls-self-signed", false, "Use a self-signed certificate")
	rootCmd.Flags().StringVar(&tlsCertPath, "tls-cert", "", "Custom TLS certificate path")
	rootCmd.Flags().StringVar(&tlsKeyPath, "tls-key", "", "Custom TLS key path")
	rootCmd.Flags().StringVar(&tlsAutoDomain, "tls-auto-domain", "", "Domain for certmagic-managed ACME automatic HTTPS")

	rootCmd.Flags().BoolVar(&ngrokEnabled, "ngrok", false, "Expose the server through an ngrok tunnel")
	rootCmd.Flags().StringVar(&ngrokToken, "ngrok-token", "", "ngrok auth token")

	rootCmd.Flags().StringVarP(&configFile, "config", "c", defaultConfigPath, "Configuration file path")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("relay v%s\n", version)
		},
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration",
		Run: func(cmd *cobra.Command, args []string) {
			cfg := config.Load(configFile)
			cfg.Print()
		},
	})
}

func run(cmd *cobra.Command, args []string) error {
	cfg := config.Load(configFile)
	cfg.MergeFlags(cmd.Flags())

	if cfg.Server.StaticPath == "" {
		return fmt.Errorf("static path not specified; use --static-path or set server.static_path in the config file")
	}

	mode, err := codec.ParseMode(cfg.Compression.Mode)
	if err != nil {
		return err
	}

	srv := relay.New(relay.Config{
		Port:            cfg.Server.Port,
		Token:           cfg.Security.Token,
		CompressionMode: mode,
		SessionTTL:      cfg.Session.TTL,
		StatsInterval:   cfg.Stats.Interval,
		StaticPath:      cfg.Server.StaticPath,
	})

	if cfg.Ngrok.Enabled {
		if cfg.Ngrok.AuthToken == "" {
			fmt.Println("Warning: ngrok enabled but no auth token provided")
		} else if err := srv.Tunnel().Start(cfg.Ngrok.AuthToken, cfg.Server.Port); err != nil {
			fmt.Printf("Warning: ngrok failed to start: %v\n", err)
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if cfg.TLS.Enabled {
		fmt.Printf("Starting relay HTTPS server on :%d\n", cfg.Server.Port)
		return srv.RunTLS(ctx, relay.TLSConfig{
			SelfSigned: cfg.TLS.SelfSigned,
			CertFile:   cfg.TLS.CertFile,
			KeyFile:    cfg.TLS.KeyFile,
			AutoDomain: cfg.TLS.AutoDomain,
		})
	}

	fmt.Printf("Starting relay server on :%d\n", cfg.Server.Port)
	fmt.Printf("Serving web UI from: %s\n", cfg.Server.StaticPath)
	fmt.Printf("Compression: %s\n", cfg.Compression.Mode)
	return srv.Run(ctx)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
