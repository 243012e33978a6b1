package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	config "github.com/Tomcli/refarch-reefer-ml/internal/config/simulator"
	"github.com/Tomcli/refarch-reefer-ml/internal/handler"
	"github.com/Tomcli/refarch-reefer-ml/internal/sink"
)

func main() {
	cfg := config.MustLoad()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	slog.Info("starting reefer simulator", "http_addr", cfg.HTTPAddr, "sink", cfg.Sink.Kind,
		"topic", cfg.Sink.Topic, "metrics_addr", cfg.MetricsAddr)

	pub, err := sink.New(cfg.Sink, sink.LogDelivery)
	if err != nil {
		slog.Error("sink setup error", "err", err)
		os.Exit(1)
	}
	defer pub.Close()

	seed := cfg.SeedValue(time.Now)
	slog.Info("seed sequence", "seed", seed, "fixed", cfg.FixedSeed)
	h := handler.New(pub, cfg.Sink.Topic, cfg.Sink.KeyField, seed, cfg.MaxRecords)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /control", h.HandleControl)

	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: mux,
	}

	go func() {
		http.Handle("/metrics", promhttp.Handler())
		if err := http.ListenAndServe(cfg.MetricsAddr, nil); err != nil {
			slog.Error("metrics server error", "err", err)
		}
	}()

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	slog.Info("shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server shutdown error", "err", err)
	}

	slog.Info("reefer simulator stopped")
}
