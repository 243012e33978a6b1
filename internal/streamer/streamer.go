// Package streamer replays generated reefer datasets to an event sink, one
// record per tick, the way a fleet of live containers would report.
package streamer

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	config "github.com/Tomcli/refarch-reefer-ml/internal/config/streamer"
	"github.com/Tomcli/refarch-reefer-ml/internal/export"
	"github.com/Tomcli/refarch-reefer-ml/internal/metrics"
	"github.com/Tomcli/refarch-reefer-ml/internal/reefer"
	"github.com/Tomcli/refarch-reefer-ml/internal/sink"
)

// ContainerID names the n-th simulated container.
func ContainerID(cfg *config.Config, n int) string {
	return fmt.Sprintf("%s%d", cfg.ContainerPrefix, n)
}

// Generate builds the dataset for container n. Each container gets its own
// simulator seeded from cfg.Seed and n, so containers can be generated
// concurrently and reproducibly.
func Generate(cfg *config.Config, n int) (*reefer.Dataset, error) {
	sc, err := reefer.ParseScenario(cfg.Scenario)
	if err != nil {
		return nil, err
	}
	start, err := reefer.ParseStartTime(cfg.StartTime)
	if err != nil {
		return nil, err
	}

	p := reefer.DefaultParams()
	p.ContainerID = ContainerID(cfg, n)
	p.Records = cfg.Records
	p.TargetTemperature = cfg.TargetTemperature
	p.StartTime = start

	ds, err := reefer.NewSeeded(cfg.Seed+uint64(n)).Generate(sc, p)
	if err != nil {
		return nil, err
	}

	flagged := 0
	for _, r := range ds.Records() {
		flagged += r.MaintenanceRequired
	}
	metrics.RecordGenerated(string(sc), ds.Len(), flagged)
	return ds, nil
}

// Run generates container n's dataset, exports it when an export directory
// is configured, and publishes one record per cfg.MsgPeriod until the
// dataset is exhausted or ctx is done.
func Run(ctx context.Context, cfg *config.Config, pub sink.Publisher, n int) error {
	ds, err := Generate(cfg, n)
	if err != nil {
		return err
	}
	id := ContainerID(cfg, n)

	if cfg.ExportDir != "" {
		path := filepath.Join(cfg.ExportDir, fmt.Sprintf("%s_%s.csv", id, cfg.Scenario))
		if err := export.WriteCSVFile(path, ds); err != nil {
			return err
		}
		slog.InfoContext(ctx, "dataset exported", "container_id", id, "path", path)
	}

	ticker := time.NewTicker(cfg.MsgPeriod)
	defer ticker.Stop()

	slog.InfoContext(ctx, "container started", "container_id", id, "records", ds.Len(), "msg_period", cfg.MsgPeriod)

	records := ds.Records()
	for i := 0; i < len(records); {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "container stopped", "container_id", id, "sent", i)
			return nil
		case <-ticker.C:
			rec := records[i]
			if err := pub.PublishEvent(ctx, cfg.Sink.Topic, rec, cfg.Sink.KeyField); err != nil {
				slog.ErrorContext(ctx, "publish error", "container_id", id, "err", err)
			} else if rec.MaintenanceRequired == 1 {
				slog.InfoContext(ctx, "maintenance event sent", "container_id", id, "timestamp", rec.Timestamp)
			}
			i++
		}
	}

	slog.InfoContext(ctx, "container finished", "container_id", id, "sent", len(records))
	return nil
}
