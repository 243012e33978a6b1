package sink

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"

	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/sasl/plain"

	sinkcfg "github.com/Tomcli/refarch-reefer-ml/internal/config/sink"
	"github.com/Tomcli/refarch-reefer-ml/internal/reefer"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaPublisher struct {
	writer   messageWriter
	callback DeliveryCallback
}

func NewKafkaPublisher(cfg sinkcfg.Kafka, cb DeliveryCallback) (*KafkaPublisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("no kafka brokers configured")
	}
	transport, err := kafkaTransport(cfg)
	if err != nil {
		return nil, err
	}

	p := &KafkaPublisher{callback: cb}
	p.writer = &kafka.Writer{
		Addr:       kafka.TCP(cfg.Brokers...),
		Balancer:   &kafka.Hash{},
		Async:      true,
		Transport:  transport,
		Completion: p.completion,
	}
	return p, nil
}

// kafkaTransport mirrors the three broker environments: a plaintext local
// broker, a SASL_SSL cloud broker authenticated by API key, and the same
// with a private CA.
func kafkaTransport(cfg sinkcfg.Kafka) (*kafka.Transport, error) {
	if cfg.Env == "LOCAL" {
		return &kafka.Transport{}, nil
	}

	tlsCfg := &tls.Config{MinVersion: tls.VersionTLS12}
	if cfg.Env == "ICP" {
		pem, err := os.ReadFile(cfg.CALocation)
		if err != nil {
			return nil, fmt.Errorf("read kafka ca: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("no certificates in %s", cfg.CALocation)
		}
		tlsCfg.RootCAs = pool
	}
	return &kafka.Transport{
		SASL: plain.Mechanism{Username: "token", Password: cfg.APIKey},
		TLS:  tlsCfg,
	}, nil
}

func (p *KafkaPublisher) PublishEvent(ctx context.Context, topic string, rec reefer.Record, keyName string) error {
	key, value, err := encode(rec, keyName)
	if err != nil {
		return err
	}
	msg := kafka.Message{Topic: topic, Key: []byte(key), Value: value}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.completion([]kafka.Message{msg}, err)
	}
	return nil
}

func (p *KafkaPublisher) completion(messages []kafka.Message, err error) {
	for _, m := range messages {
		p.callback(DeliveryReport{Sink: KindKafka, Topic: m.Topic, Key: string(m.Key), Err: err})
	}
}

// Close flushes pending messages.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
