package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/danmuck/proxywire/internal/admin"
	"github.com/danmuck/proxywire/internal/config"
	"github.com/danmuck/proxywire/internal/logging"
	"github.com/danmuck/proxywire/internal/observability"
	"github.com/danmuck/proxywire/internal/proxysim"
	"github.com/danmuck/proxywire/internal/transport"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

func main() {
	configPath := flag.String("config", "", "proxysim config path (defaults plus PROXYWIRE_* env when empty)")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "proxysim: %v\n", err)
		os.Exit(1)
	}
	logging.ConfigureWith(cfg.Log.Logging())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := serve(ctx, cfg); err != nil {
		fmt.Fprintf(os.Stderr, "proxysim: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig(path string) (config.ProxySimConfig, error) {
	if strings.TrimSpace(path) != "" {
		return config.LoadProxySimConfig(path)
	}
	cfg := config.DefaultProxySimConfig()
	if err := config.ApplyEnv(&cfg); err != nil {
		return config.ProxySimConfig{}, err
	}
	if err := config.ValidateProxySimConfig(cfg); err != nil {
		return config.ProxySimConfig{}, err
	}
	return cfg, nil
}

func serve(ctx context.Context, cfg config.ProxySimConfig) error {
	shutdownTracing, err := observability.SetupTracing(ctx, cfg.Tracing)
	if err != nil {
		return fmt.Errorf("tracing: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(flushCtx)
	}()

	ln, err := transport.Listen(cfg.Listen.Transport())
	if err != nil {
		return err
	}
	sim := proxysim.New(cfg.Simulator())
	log.Info().
		Str("network", cfg.Listen.Network).
		Str("addr", ln.Addr().String()).
		Strs("domains", sim.Domains()).
		Msg("proxysim listening")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return sim.Serve(gctx, ln)
	})
	if addr := strings.TrimSpace(cfg.Admin.Addr); addr != "" {
		srv := admin.New(admin.Config{
			Node:        "proxysim",
			Addr:        addr,
			CorsOrigins: cfg.Admin.CorsOrigins,
			Token:       cfg.Admin.Token,
		}, sim.SessionList)
		g.Go(func() error {
			return srv.ListenAndServe(gctx)
		})
	}
	return g.Wait()
}
