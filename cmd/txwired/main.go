package main

import (
	"context"
	"crypto/tls"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/danmuck/txwire/internal/auth"
	"github.com/danmuck/txwire/internal/config"
	"github.com/danmuck/txwire/internal/observability"
	"github.com/danmuck/txwire/internal/pipeline"
	"github.com/danmuck/txwire/internal/rpc"
	"github.com/danmuck/txwire/internal/server"
	"github.com/gin-gonic/gin"
)

func main() {
	path := flag.String("config", "", "path to txwired toml config (defaults when empty)")
	flag.Parse()

	if err := run(*path); err != nil {
		fmt.Fprintf(os.Stderr, "txwired: %v\n", err)
		os.Exit(1)
	}
}

func run(path string) error {
	cfg := config.DefaultServiceConfig()
	if strings.TrimSpace(path) != "" {
		loaded, err := loadServiceConfig(path)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	logger := observability.InitLogger(cfg.Name, config.LoggingConfig(cfg, os.Getenv))
	pc, err := config.PipelineConfig(cfg)
	if err != nil {
		return err
	}
	p := pipeline.New(pc, logger)
	guard := auth.FromToken(cfg.AuthToken)
	if guard == nil {
		logger.Warn().Msg("auth_token empty: codec endpoints are unauthenticated")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 2)
	running := 0

	if addr := strings.TrimSpace(cfg.HTTPAddr); addr != "" {
		ln, err := net.Listen("tcp", addr)
		if err != nil {
			return fmt.Errorf("http listen %s: %w", addr, err)
		}
		gin.SetMode(gin.ReleaseMode)
		srv := server.New(cfg.Name, p, server.Options{
			CorsOrigins: cfg.CorsOrigins,
			Auth:        guard,
		}, logger)
		running++
		go func() { errCh <- srv.Serve(ctx, ln) }()
	}

	if addr := strings.TrimSpace(cfg.GRPCAddr); addr != "" {
		tlsCfg, err := serverTLS(cfg.TLS)
		if err != nil {
			return err
		}
		ln, err := net.Listen("tcp", addr)
		if err != nil {
			return fmt.Errorf("grpc listen %s: %w", addr, err)
		}
		srv := rpc.NewGRPCServer(p, rpc.ServerOptions{TLS: tlsCfg, Auth: guard}, logger)
		running++
		logger.Info().Str("addr", ln.Addr().String()).Bool("tls", tlsCfg != nil).Msg("grpc listening")
		go func() { errCh <- rpc.Serve(ctx, srv, ln) }()
	}

	logger.Info().
		Str("missing_meta_size", pc.MissingMetaSize.String()).
		Bool("validate", pc.Validate).
		Msg("txwired started")

	var firstErr error
	for i := 0; i < running; i++ {
		err := <-errCh
		if err != nil && firstErr == nil {
			firstErr = err
			stop()
		}
	}
	logger.Info().Msg("txwired stopped")
	return firstErr
}

func serverTLS(cfg config.TLSConfig) (*tls.Config, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	tlsCfg, err := rpc.ServerTLSConfig(rpc.TLSFiles{
		CertFile: cfg.CertFile,
		KeyFile:  cfg.KeyFile,
		CAFile:   cfg.CAFile,
		Mutual:   cfg.Mutual,
	})
	if err != nil {
		return nil, fmt.Errorf("grpc tls: %w", err)
	}
	return tlsCfg, nil
}
