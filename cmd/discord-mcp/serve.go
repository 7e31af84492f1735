package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/ggoodman/discord-mcp-go/internal/config"
	"github.com/ggoodman/discord-mcp-go/internal/logctx"
	"github.com/ggoodman/discord-mcp-go/internal/platform"
	"github.com/ggoodman/discord-mcp-go/internal/tools"
	"github.com/ggoodman/discord-mcp-go/mcp"
	"github.com/ggoodman/discord-mcp-go/mcpservice"
	"github.com/ggoodman/discord-mcp-go/stdio"
)

func runServe(ctx context.Context, o config.Overrides) error {
	cfg, err := config.Load(o)
	if err != nil {
		return err
	}
	level, err := config.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	lv := new(slog.LevelVar)
	lv.Set(level)
	log := newLogger(cfg.LogFormat, lv)
	slog.SetDefault(log)
	discordgo.Logger = platform.LogBridge(log)

	dc, err := platform.New(cfg.Token, platform.WithLogger(log))
	if err != nil {
		return err
	}
	if err := dc.Open(ctx); err != nil {
		return fmt.Errorf("connect to discord: %w", err)
	}
	defer func() { _ = dc.Close() }()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	dispatcher := tools.New(dc,
		tools.WithLogger(log),
		tools.WithMetrics(tools.NewMetrics(reg)),
		tools.WithDisabled(cfg.DisabledTools...),
	)
	srv := mcpservice.NewServer(
		mcpservice.WithServerInfo(mcp.ImplementationInfo{Name: "discord-mcp", Version: version}),
		mcpservice.WithInstructions(cfg.Instructions),
		mcpservice.WithToolsCapability(dispatcher),
		mcpservice.WithLoggingCapability(mcpservice.NewSlogLevelVarLogging(lv)),
	)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		// Stdin closing ends the process.
		defer cancel()
		return stdio.NewHandler(srv, stdio.WithLogger(log)).Serve(gctx)
	})
	if cfg.MetricsAddr != "" {
		g.Go(func() error { return serveMetrics(gctx, cfg.MetricsAddr, reg, log) })
	}
	if cfg.ConfigFile != "" {
		g.Go(func() error { return config.Watch(gctx, cfg.ConfigFile, log, lv.Set) })
	}

	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// newLogger writes to stderr; stdout carries the protocol.
func newLogger(format string, lv *slog.LevelVar) *slog.Logger {
	opts := &slog.HandlerOptions{Level: lv}
	if format == "json" {
		return logctx.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return logctx.New(slog.NewTextHandler(os.Stderr, opts))
}

func metricsRouter(reg *prometheus.Registry) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok\n"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	return r
}

func serveMetrics(ctx context.Context, addr string, reg *prometheus.Registry, log *slog.Logger) error {
	hs := &http.Server{
		Addr:              addr,
		Handler:           metricsRouter(reg),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- hs.ListenAndServe() }()
	log.InfoContext(ctx, "metrics.serve.start", slog.String("addr", addr))

	select {
	case err := <-errc:
		return fmt.Errorf("metrics server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := hs.Shutdown(shutdownCtx); err != nil {
			log.WarnContext(ctx, "metrics.shutdown.err", slog.String("err", err.Error()))
		}
		return nil
	}
}
