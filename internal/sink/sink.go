// Package sink publishes generated reefer records to a message broker.
//
// Publishing is fire-and-forget: PublishEvent only fails for problems found
// before anything is sent, and the outcome of each delivery is reported
// later to a DeliveryCallback.
package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	sinkcfg "github.com/Tomcli/refarch-reefer-ml/internal/config/sink"
	"github.com/Tomcli/refarch-reefer-ml/internal/metrics"
	"github.com/Tomcli/refarch-reefer-ml/internal/reefer"
)

const (
	KindKafka  = "kafka"
	KindRabbit = "rabbit"
	KindHTTP   = "http"
)

// DeliveryReport is the outcome of one published event.
type DeliveryReport struct {
	Sink  string
	Topic string
	Key   string
	Err   error
}

type DeliveryCallback func(DeliveryReport)

type Publisher interface {
	// PublishEvent sends rec as JSON to topic, keyed by the value of the
	// record field named keyName.
	PublishEvent(ctx context.Context, topic string, rec reefer.Record, keyName string) error
	Close() error
}

// LogDelivery is the default DeliveryCallback.
func LogDelivery(r DeliveryReport) {
	metrics.RecordDelivery(r.Sink, r.Err)
	if r.Err != nil {
		slog.Error("message delivery failed", "sink", r.Sink, "topic", r.Topic, "key", r.Key, "err", r.Err)
		return
	}
	slog.Debug("message delivered", "sink", r.Sink, "topic", r.Topic, "key", r.Key)
}

// New builds the publisher selected by cfg.Kind.
func New(cfg sinkcfg.Config, cb DeliveryCallback) (Publisher, error) {
	if cb == nil {
		cb = LogDelivery
	}
	switch cfg.Kind {
	case KindKafka:
		p, err := NewKafkaPublisher(cfg.Kafka, cb)
		if err != nil {
			return nil, err
		}
		return p, nil
	case KindRabbit:
		p, err := DialRabbitPublisher(cfg.RabbitURI, cfg.Topic, cb)
		if err != nil {
			return nil, err
		}
		return p, nil
	case KindHTTP:
		return NewHTTPPublisher(cfg.HTTPURL, cb), nil
	}
	return nil, fmt.Errorf("unknown sink kind %q", cfg.Kind)
}

// PublishDataset publishes every record and returns how many were handed to
// the publisher. Records that fail to encode are logged and skipped.
func PublishDataset(ctx context.Context, p Publisher, topic, keyName string, records []reefer.Record) int {
	sent := 0
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return sent
		}
		if err := p.PublishEvent(ctx, topic, rec, keyName); err != nil {
			slog.ErrorContext(ctx, "publish error", "container_id", rec.ID, "err", err)
			continue
		}
		sent++
	}
	return sent
}

// encode returns the message key and JSON value for rec.
func encode(rec reefer.Record, keyName string) (string, []byte, error) {
	v, ok := rec.Field(keyName)
	if !ok {
		return "", nil, fmt.Errorf("unknown key field %q", keyName)
	}
	var key string
	switch v := v.(type) {
	case time.Time:
		key = v.Format(time.RFC3339Nano)
	default:
		key = fmt.Sprint(v)
	}

	value, err := json.Marshal(rec)
	if err != nil {
		return "", nil, fmt.Errorf("marshal record: %w", err)
	}
	return key, value, nil
}
