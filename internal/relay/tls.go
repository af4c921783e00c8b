package relay

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"fmt"
	"math/big"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/caddyserver/certmagic"

	"github.com/ptyrelay/relay/internal/stats"
)

// TLSConfig selects how RunTLS terminates HTTPS: a self-signed cert, a
// custom cert/key pair, or certmagic-managed ACME automatic HTTPS.
type TLSConfig struct {
	SelfSigned bool
	CertFile   string
	KeyFile    string
	AutoDomain string
}

// RunTLS starts the relay's HTTP server with TLS termination, blocking
// until shutdown. It otherwise behaves like Run.
func (s *Server) RunTLS(ctx context.Context, tlsCfg TLSConfig) error {
	conf, err := buildTLSConfig(tlsCfg)
	if err != nil {
		return fmt.Errorf("relay: setup TLS: %w", err)
	}

	statsCtx, cancelStats := context.WithCancel(ctx)
	defer cancelStats()
	go stats.RunLogger(statsCtx, s.tracker, s.registry, s.cfg.StatsInterval)

	listener, err := tls.Listen("tcp", fmt.Sprintf(":%d", s.cfg.Port), conf)
	if err != nil {
		return fmt.Errorf("relay: listen: %w", err)
	}

	httpServer := &http.Server{Handler: s.Handler()}
	errCh := make(chan error, 1)
	go func() { errCh <- httpServer.Serve(listener) }()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

func buildTLSConfig(cfg TLSConfig) (*tls.Config, error) {
	switch {
	case cfg.SelfSigned:
		return selfSignedTLSConfig()
	case cfg.CertFile != "" && cfg.KeyFile != "":
		return customCertTLSConfig(cfg.CertFile, cfg.KeyFile)
	case cfg.AutoDomain != "":
		return certMagicTLSConfig(cfg.AutoDomain)
	default:
		return selfSignedTLSConfig()
	}
}

func customCertTLSConfig(certFile, keyFile string) (*tls.Config, error) {
	cert, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return nil, fmt.Errorf("load custom certificate: %w", err)
	}
	return &tls.Config{Certificates: []tls.Certificate{cert}, MinVersion: tls.VersionTLS12}, nil
}

func certMagicTLSConfig(domain string) (*tls.Config, error) {
	certmagic.DefaultACME.Agreed = true
	certmagic.DefaultACME.Email = "admin@" + domain
	certmagic.Default.Storage = &certmagic.FileStorage{
		Path: filepath.Join(os.TempDir(), "ptyrelay-certs"),
	}

	if err := certmagic.ManageSync(context.Background(), []string{domain}); err != nil {
		return nil, fmt.Errorf("obtain certificate for %s: %w", domain, err)
	}
	return certmagic.TLS([]string{domain})
}

func selfSignedTLSConfig() (*tls.Config, error) {
	cert, err := generateSelfSignedCert()
	if err != nil {
		return nil, fmt.Errorf("generate self-signed certificate: %w", err)
	}
	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		ServerName:   "localhost",
		MinVersion:   tls.VersionTLS12,
	}, nil
}

func generateSelfSignedCert() (tls.Certificate, error) {
	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("generate private key: %w", err)
	}

	template := x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{Organization: []string{"ptyrelay"}},
		NotBefore:    time.Now(),
		NotAfter:     time.Now().Add(365 * 24 * time.Hour),
		KeyUsage:     x509.KeyUsageKeyEncipherment | x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		IPAddresses:  []net.IP{net.IPv4(127, 0, 0, 1), net.IPv6loopback},
		DNSNames:     []string{"localhost"},
	}

	certDER, err := x509.CreateCertificate(rand.Reader, &template, &template, &privateKey.PublicKey, privateKey)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("create certificate: %w", err)
	}

	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: certDER})
	keyDER, err := x509.MarshalPKCS8PrivateKey(privateKey)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("marshal private key: %w", err)
	}
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: keyDER})

	return tls.X509KeyPair(certPEM, keyPEM)
}
