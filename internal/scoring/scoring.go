// Package scoring consumes streamed reefer telemetry, stores it and raises
// maintenance alerts.
package scoring

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	config "github.com/Tomcli/refarch-reefer-ml/internal/config/scoring"
	"github.com/Tomcli/refarch-reefer-ml/internal/metrics"
	"github.com/Tomcli/refarch-reefer-ml/internal/reefer"
)

const (
	alertInstant   = "instant"
	alertSustained = "sustained"

	reasonCo2         = "co2 sensor out of range"
	reasonMaintenance = "maintenance required"
	reasonPowerOff    = "power off"
)

// Inserter is the subset of *mongo.Collection used by the engine.
type Inserter interface {
	InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error)
}

type Engine struct {
	cfg           *config.Config
	window        int
	telemetryColl Inserter
	alertColl     Inserter
	mu            sync.RWMutex
	recentCache   map[string][]reefer.Record
}

// New builds an engine. A SustainedCount below 1 falls back to
// reefer.RecordsImpacted.
func New(cfg *config.Config, telemetryColl, alertColl Inserter) *Engine {
	window := cfg.SustainedCount
	if window < 1 {
		window = reefer.RecordsImpacted
	}
	return &Engine{
		cfg:           cfg,
		window:        window,
		telemetryColl: telemetryColl,
		alertColl:     alertColl,
		recentCache:   make(map[string][]reefer.Record),
	}
}

func (e *Engine) updateCache(r reefer.Record) {
	e.mu.Lock()
	defer e.mu.Unlock()

	queue := e.recentCache[r.ID]
	if len(queue) >= e.window {
		queue = queue[1:]
	}
	queue = append(queue, r)
	e.recentCache[r.ID] = queue
}

// powerOffWindow reports whether the last e.window records of the
// container all had zero power. The window is cleared when it matches so
// one outage raises one alert.
func (e *Engine) powerOffWindow(containerID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	records := e.recentCache[containerID]
	if len(records) < e.window {
		return false
	}
	for _, r := range records {
		if r.Power != 0 {
			return false
		}
	}
	delete(e.recentCache, containerID)
	return true
}

func (e *Engine) Run(ctx context.Context, ch *amqp.Channel, queue string) {
	msgs, err := ch.Consume(queue, "", false, false, false, false, nil)
	if err != nil {
		slog.Error("consume error", "err", err)
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				slog.Error("channel closed")
				return
			}
			if err := e.processMessage(ctx, msg.Body); err != nil {
				slog.Error("process message error", "err", err)
			}
			if err := msg.Ack(false); err != nil {
				slog.Error("ack error", "err", err)
			}
		}
	}
}

func (e *Engine) processMessage(parentCtx context.Context, body []byte) error {
	var r reefer.Record
	if err := json.Unmarshal(body, &r); err != nil {
		return err
	}
	metrics.RecordConsumed()
	e.updateCache(r)

	ctx, cancel := context.WithTimeout(context.WithoutCancel(parentCtx), 5*time.Second)
	defer cancel()

	if _, err := e.telemetryColl.InsertOne(ctx, r); err != nil {
		return err
	}

	if r.CO2 > reefer.CO2Level || r.CO2 < 0 {
		if err := e.alert(ctx, alertInstant, reasonCo2, r, bson.M{"co2": r.CO2}); err != nil {
			return err
		}
	}
	if r.MaintenanceRequired == 1 {
		if err := e.alert(ctx, alertInstant, reasonMaintenance, r, nil); err != nil {
			return err
		}
	}
	if e.powerOffWindow(r.ID) {
		extra := bson.M{"records": e.window, "temperature": r.Temperature}
		if err := e.alert(ctx, alertSustained, reasonPowerOff, r, extra); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) alert(ctx context.Context, alertType, reason string, r reefer.Record, extra bson.M) error {
	doc := bson.M{
		"type":         alertType,
		"container_id": r.ID,
		"timestamp":    r.Timestamp,
		"reason":       reason,
	}
	for k, v := range extra {
		doc[k] = v
	}
	if _, err := e.alertColl.InsertOne(ctx, doc); err != nil {
		return err
	}
	metrics.RecordAlert(alertType, reason)
	slog.Info(alertType+" alert", "container_id", r.ID, "reason", reason)
	return nil
}
