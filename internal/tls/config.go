package tls

import (
	"crypto/tls"
	"fmt"

	"github.com/isobit/seedog/internal/log"
)

type Config struct {
	TLSSkipVerify bool
	TLSServerName string

	TLSCert string
	TLSKey  string

	TLSCACert string
}

// ClientConfig builds the TLS configuration used to reach https and wss
// endpoints.
func (cfg Config) ClientConfig() (*tls.Config, error) {
	c := &tls.Config{
		InsecureSkipVerify: cfg.TLSSkipVerify,
		ServerName:         cfg.TLSServerName,
	}

	if cfg.TLSCACert != "" {
		log.Logf(1, "loading TLS root CA cert in %s", cfg.TLSCACert)
		certPool, err := CertPoolFromCACert(cfg.TLSCACert)
		if err != nil {
			return nil, err
		}
		c.RootCAs = certPool
	}

	if cfg.TLSCert != "" || cfg.TLSKey != "" {
		if cfg.TLSCert == "" || cfg.TLSKey == "" {
			return nil, fmt.Errorf("--tls-cert and --tls-key must be specified together")
		}
		log.Logf(1, "loading TLS cert in %s and key in %s", cfg.TLSCert, cfg.TLSKey)
		cert, err := tls.LoadX509KeyPair(cfg.TLSCert, cfg.TLSKey)
		if err != nil {
			return nil, fmt.Errorf("error loading cert: %w", err)
		}
		c.Certificates = []tls.Certificate{cert}
	}

	return c, nil
}
