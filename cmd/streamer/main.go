package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	config "github.com/Tomcli/refarch-reefer-ml/internal/config/streamer"
	"github.com/Tomcli/refarch-reefer-ml/internal/sink"
	"github.com/Tomcli/refarch-reefer-ml/internal/streamer"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	cfg := config.MustLoad()

	slog.Info("starting streamer",
		"container_number", cfg.ContainerNumber,
		"scenario", cfg.Scenario,
		"records", cfg.Records,
		"msg_period", cfg.MsgPeriod,
		"sink", cfg.Sink.Kind)

	pub, err := sink.New(cfg.Sink, sink.LogDelivery)
	if err != nil {
		slog.Error("sink setup error", "err", err)
		os.Exit(1)
	}
	defer pub.Close()

	go func() {
		http.Handle("/metrics", promhttp.Handler())
		if err := http.ListenAndServe(cfg.MetricsAddr, nil); err != nil {
			slog.Error("metrics server error", "err", err)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup

	for n := 1; n <= cfg.ContainerNumber; n++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			if err := streamer.Run(ctx, cfg, pub, n); err != nil {
				slog.Error("container error", "container_id", streamer.ContainerID(cfg, n), "err", err)
			}
		}(n)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
		slog.Info("shutdown signal received")
	case <-done:
		slog.Info("all containers finished")
	}
	cancel()
	wg.Wait()

	slog.Info("streamer stopped")
}
