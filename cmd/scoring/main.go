package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	config "github.com/Tomcli/refarch-reefer-ml/internal/config/scoring"
	"github.com/Tomcli/refarch-reefer-ml/internal/queue"
	"github.com/Tomcli/refarch-reefer-ml/internal/scoring"
	"github.com/Tomcli/refarch-reefer-ml/internal/storage"
)

func setupLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, nil))
}

func main() {
	logger := setupLogger()
	slog.SetDefault(logger)

	cfg := config.MustLoad()

	slog.Info("starting scoring agent", "queue", cfg.QueueName, "db", cfg.DBName,
		"sustained_count", cfg.SustainedCount, "metrics_addr", cfg.MetricsAddr)

	mongoClient, err := storage.NewMongoClient(cfg.MongoURI)
	if err != nil {
		slog.Error("mongo connect error", "err", err)
		os.Exit(1)
	}
	defer mongoClient.Disconnect(context.Background())

	rabbitConn, err := queue.NewRabbitConnection(cfg.RabbitURI)
	if err != nil {
		slog.Error("rabbitmq connect error", "err", err)
		os.Exit(1)
	}
	defer rabbitConn.Close()

	rabbitCh, err := rabbitConn.Channel()
	if err != nil {
		slog.Error("rabbitmq channel error", "err", err)
		os.Exit(1)
	}
	defer rabbitCh.Close()

	if err := queue.DeclareQueue(rabbitCh, cfg.QueueName); err != nil {
		slog.Error("declare queue error", "err", err)
		os.Exit(1)
	}

	db := mongoClient.Database(cfg.DBName)
	e := scoring.New(cfg, db.Collection(cfg.TelemetryCollection), db.Collection(cfg.AlertCollection))

	go func() {
		http.Handle("/metrics", promhttp.Handler())
		if err := http.ListenAndServe(cfg.MetricsAddr, nil); err != nil {
			slog.Error("metrics server error", "err", err)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		e.Run(ctx, rabbitCh, cfg.QueueName)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
		slog.Info("shutdown signal received")
	case <-done:
		slog.Error("consumer exited")
	}
	cancel()
	// Run returns only between messages, so the last write and ack are done.
	<-done

	slog.Info("scoring agent stopped")
}
