package sink

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/Tomcli/refarch-reefer-ml/internal/reefer"
)

const (
	contentType = "application/json"
	timeout     = 5 * time.Second
)

// HTTPPublisher POSTs each record to a webhook. The topic and key travel as
// headers.
type HTTPPublisher struct {
	url      string
	client   *http.Client
	callback DeliveryCallback
	pending  sync.WaitGroup
}

func NewHTTPPublisher(url string, cb DeliveryCallback) *HTTPPublisher {
	return &HTTPPublisher{
		url:      url,
		client:   &http.Client{Timeout: timeout},
		callback: cb,
	}
}

func (p *HTTPPublisher) PublishEvent(ctx context.Context, topic string, rec reefer.Record, keyName string) error {
	key, value, err := encode(rec, keyName)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(context.WithoutCancel(ctx), http.MethodPost, p.url, bytes.NewReader(value))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("X-Topic", topic)
	req.Header.Set("X-Key", key)

	p.pending.Add(1)
	go func() {
		defer p.pending.Done()
		p.callback(DeliveryReport{Sink: KindHTTP, Topic: topic, Key: key, Err: p.send(req)})
	}()
	return nil
}

func (p *HTTPPublisher) send(req *http.Request) error {
	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	return nil
}

// Close waits for every in-flight request to be reported.
func (p *HTTPPublisher) Close() error {
	p.pending.Wait()
	p.client.CloseIdleConnections()
	return nil
}
