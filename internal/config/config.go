package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/danmuck/txwire/internal/logging"
	"github.com/danmuck/txwire/internal/protocol/convert"
	"github.com/pelletier/go-toml/v2"
)

type ServiceConfig struct {
	Name        string      `toml:"name"`
	HTTPAddr    string      `toml:"http_addr"`
	GRPCAddr    string      `toml:"grpc_addr"`
	CorsOrigins []string    `toml:"cors_origins"`
	// AuthToken guards /v1 and the gRPC service when set.
	AuthToken   string      `toml:"auth_token"`
	Codec       CodecConfig `toml:"codec"`
	TLS         TLSConfig   `toml:"tls"`
	Log         LogConfig   `toml:"log"`
}

// LogConfig overrides the runtime logging profile. Empty fields keep the
// profile default.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

type CodecConfig struct {
	// MissingMetaSize is one of copied, capacity or zero.
	MissingMetaSize string `toml:"missing_meta_size"`
	Validate        bool   `toml:"validate"`
}

// TLSConfig secures the gRPC listener.
type TLSConfig struct {
	Enabled  bool   `toml:"enabled"`
	Mutual   bool   `toml:"mutual"`
	CertFile string `toml:"cert_file"`
	KeyFile  string `toml:"key_file"`
	CAFile   string `toml:"ca_file"`
}

func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		Name:     "txwired",
		HTTPAddr: ":9200",
		GRPCAddr: ":9201",
		Codec: CodecConfig{
			MissingMetaSize: convert.DefaultSizePolicy.String(),
		},
	}
}

func LoadServiceConfig(path string) (ServiceConfig, error) {
	cfg := DefaultServiceConfig()
	if err := loadToml(path, &cfg); err != nil {
		return ServiceConfig{}, err
	}
	if err := ValidateServiceConfig(cfg); err != nil {
		return ServiceConfig{}, err
	}
	return cfg, nil
}

func loadToml(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if err := toml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	return nil
}

func ValidateServiceConfig(cfg ServiceConfig) error {
	if strings.TrimSpace(cfg.Name) == "" {
		return fmt.Errorf("service config missing name")
	}
	if strings.TrimSpace(cfg.HTTPAddr) == "" && strings.TrimSpace(cfg.GRPCAddr) == "" {
		return fmt.Errorf("service config needs http_addr or grpc_addr")
	}
	if _, err := convert.ParseSizePolicy(cfg.Codec.MissingMetaSize); err != nil {
		return fmt.Errorf("codec invalid: %w", err)
	}
	if err := ValidateTLS(cfg.TLS); err != nil {
		return fmt.Errorf("tls invalid: %w", err)
	}
	if lvl := strings.TrimSpace(cfg.Log.Level); lvl != "" {
		if _, ok := logging.ParseLevel(lvl); !ok {
			return fmt.Errorf("log level invalid: %q", cfg.Log.Level)
		}
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Log.Format)) {
	case "", "json", "console", "text":
	default:
		return fmt.Errorf("log format invalid: %q", cfg.Log.Format)
	}
	return nil
}

func ValidateTLS(cfg TLSConfig) error {
	if cfg.Mutual && !cfg.Enabled {
		return fmt.Errorf("mutual requires enabled")
	}
	if !cfg.Enabled {
		return nil
	}
	if strings.TrimSpace(cfg.CertFile) == "" {
		return fmt.Errorf("cert_file is required")
	}
	if strings.TrimSpace(cfg.KeyFile) == "" {
		return fmt.Errorf("key_file is required")
	}
	if cfg.Mutual && strings.TrimSpace(cfg.CAFile) == "" {
		return fmt.Errorf("ca_file is required for mutual tls")
	}
	return nil
}
