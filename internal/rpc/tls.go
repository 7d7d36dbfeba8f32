package rpc

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
	"strings"
)

var (
	ErrTLSCertFileRequired = errors.New("rpc: tls cert file required")
	ErrTLSKeyFileRequired  = errors.New("rpc: tls key file required")
	ErrTLSCAFileRequired   = errors.New("rpc: tls ca file required")
)

// TLSFiles names the PEM files for one side of a connection.
type TLSFiles struct {
	CertFile string
	KeyFile  string
	CAFile   string
	Mutual   bool
}

// ServerTLSConfig loads the listener certificate. Mutual requires clients to
// present a certificate signed by CAFile.
func ServerTLSConfig(files TLSFiles) (*tls.Config, error) {
	if strings.TrimSpace(files.CertFile) == "" {
		return nil, ErrTLSCertFileRequired
	}
	if strings.TrimSpace(files.KeyFile) == "" {
		return nil, ErrTLSKeyFileRequired
	}
	cert, err := tls.LoadX509KeyPair(files.CertFile, files.KeyFile)
	if err != nil {
		return nil, err
	}
	cfg := &tls.Config{
		MinVersion:   tls.VersionTLS12,
		Certificates: []tls.Certificate{cert},
		ClientAuth:   tls.NoClientCert,
	}
	if files.Mutual {
		pool, err := loadPool(files.CAFile)
		if err != nil {
			return nil, err
		}
		cfg.ClientAuth = tls.RequireAndVerifyClientCert
		cfg.ClientCAs = pool
	}
	return cfg, nil
}

// ClientTLSConfig trusts CAFile and presents CertFile/KeyFile when set.
func ClientTLSConfig(files TLSFiles, serverName string) (*tls.Config, error) {
	pool, err := loadPool(files.CAFile)
	if err != nil {
		return nil, err
	}
	cfg := &tls.Config{
		MinVersion: tls.VersionTLS12,
		RootCAs:    pool,
		ServerName: serverName,
	}
	if files.Mutual {
		if strings.TrimSpace(files.CertFile) == "" {
			return nil, ErrTLSCertFileRequired
		}
		if strings.TrimSpace(files.KeyFile) == "" {
			return nil, ErrTLSKeyFileRequired
		}
		cert, err := tls.LoadX509KeyPair(files.CertFile, files.KeyFile)
		if err != nil {
			return nil, err
		}
		cfg.Certificates = []tls.Certificate{cert}
	}
	return cfg, nil
}

func loadPool(caFile string) (*x509.CertPool, error) {
	if strings.TrimSpace(caFile) == "" {
		return nil, ErrTLSCAFileRequired
	}
	caPEM, err := os.ReadFile(caFile)
	if err != nil {
		return nil, err
	}
	pool := x509.NewCertPool()
	if ok := pool.AppendCertsFromPEM(caPEM); !ok {
		return nil, fmt.Errorf("rpc: parse tls ca bundle: %s", caFile)
	}
	return pool, nil
}
