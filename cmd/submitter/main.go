package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"document-submitter/config"
	"document-submitter/middleware/ratelimit/domain"
	"document-submitter/middleware/ratelimit/infra"
	"document-submitter/submission"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file (optional)")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [-config file] document.{json,yaml} ...\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(2)
	}
	logger := config.NewLogger(cfg.Log, os.Stderr)

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}
	docs, err := submission.LoadDocuments(flag.Args())
	if err != nil {
		logger.Fatal().Err(err).Msg("load documents")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, logger, docs); err != nil {
		logger.Error().Err(err).Msg("submission finished with errors")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger zerolog.Logger, docs []submission.Document) error {
	reg := prometheus.NewRegistry()
	metrics := infra.NewMetrics(reg)
	if cfg.Metrics.Addr != "" {
		stop := serveMetrics(cfg.Metrics.Addr, reg, logger)
		defer stop()
	}

	gate, err := infra.NewGate(cfg.Gate.Policy, cfg.Gate.Capacity, cfg.Gate.Window,
		infra.WithLogger(logger),
		infra.WithMetrics(metrics),
	)
	if err != nil {
		return err
	}
	defer gate.Shutdown()

	stats, closeStats, err := newStatsStore(ctx, cfg.Stats)
	if err != nil {
		return err
	}
	defer closeStats()

	sender, err := submission.NewHTTPSender(cfg.Endpoint.URL,
		submission.WithHTTPClient(&http.Client{Timeout: cfg.Endpoint.Timeout}),
		submission.WithSenderLogger(logger),
	)
	if err != nil {
		return err
	}

	opts := []submission.ClientOption{
		submission.WithLogger(logger),
		submission.WithAcquireTimeout(cfg.Gate.AcquireTimeout),
	}
	if stats != nil {
		opts = append(opts, submission.WithStats(stats))
	}
	client := submission.NewClient(gate, sender, opts...)

	logger.Info().
		Str("endpoint", cfg.Endpoint.URL).
		Str("policy", cfg.Gate.Policy).
		Int("capacity", cfg.Gate.Capacity).
		Dur("window", cfg.Gate.Window).
		Int("workers", cfg.Submit.Workers).
		Int("documents", len(docs)).
		Msg("submitting documents")

	start := time.Now()
	err = client.SubmitAll(ctx, docs, cfg.Submit.Workers)
	logger.Info().Dur("elapsed", time.Since(start)).Msg("submission done")

	if mem, ok := stats.(*infra.MemoryStatsStore); ok {
		total := mem.Total()
		logger.Info().Int64("admitted", total.Admitted).Int64("rejected", total.Rejected).Dur("total_wait", total.TotalWait).Msg("gate stats")
	}
	return err
}

func newStatsStore(ctx context.Context, cfg config.StatsConfig) (domain.StatsStore, func(), error) {
	switch strings.ToLower(cfg.Backend) {
	case "memory":
		return infra.NewMemoryStatsStore(infra.WithTrackKeys(cfg.TrackKeys)), func() {}, nil
	case "redis":
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})

		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		_, err := rdb.Ping(pingCtx).Result()
		cancel()
		if err != nil {
			_ = rdb.Close()
			return nil, nil, fmt.Errorf("redis stats ping error: %w", err)
		}

		store := infra.NewRedisStatsStore(
			rdb,
			infra.WithStatsPrefix(cfg.Redis.Prefix),
			infra.WithStatsTTL(cfg.Redis.TTL),
			infra.WithStatsBucket(cfg.Redis.Bucket),
			infra.WithStatsTrackKeys(cfg.TrackKeys),
		)
		return store, func() { _ = rdb.Close() }, nil
	default:
		return nil, func() {}, nil
	}
}

func serveMetrics(addr string, reg *prometheus.Registry, logger zerolog.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info().Str("addr", addr).Msg("metrics listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics server error")
		}
	}()

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}
}
