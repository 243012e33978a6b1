package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tomcli/refarch-reefer-ml/internal/reefer"
)

type recordingPublisher struct {
	mu      sync.Mutex
	topics  []string
	records []reefer.Record
}

func (p *recordingPublisher) PublishEvent(_ context.Context, topic string, rec reefer.Record, _ string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	p.records = append(p.records, rec)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func post(h *Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/control", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.HandleControl(rec, req)
	return rec
}

func TestHandleControl(t *testing.T) {
	pub := &recordingPublisher{}
	h := New(pub, "reefer-telemetry", "ID", 1, reefer.MaxRecords)

	rec := post(h, `{"containerID":"C02","simulation":"poweroff","nb_of_records":50,"good_temperature":-5,"start_time":"2020-02-02T00:00:00Z"}`)
	require.Equal(t, http.StatusAccepted, rec.Code)

	var resp ControlResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, ControlResponse{ContainerID: "C02", Simulation: "poweroff", Records: 50, Published: 50}, resp)

	require.Len(t, pub.records, 50)
	for _, r := range pub.records {
		assert.Equal(t, "C02", r.ID)
		assert.Equal(t, -5.0, r.TargetTemperature)
		assert.Zero(t, r.MaintenanceRequired)
	}
	assert.Equal(t, "reefer-telemetry", pub.topics[0])
	assert.Equal(t, 2020, pub.records[0].Timestamp.Year())
}

func TestHandleControl_SeededRequestsAreReproducible(t *testing.T) {
	body := `{"simulation":"co2sensor","nb_of_records":10,"seed":99,"start_time":"2020-02-02T00:00:00Z"}`

	a := &recordingPublisher{}
	require.Equal(t, http.StatusAccepted, post(New(a, "t", "ID", 1, reefer.MaxRecords), body).Code)
	b := &recordingPublisher{}
	require.Equal(t, http.StatusAccepted, post(New(b, "t", "ID", 2, reefer.MaxRecords), body).Code)

	assert.Equal(t, a.records, b.records)
	assert.Equal(t, "101", a.records[0].ID)
}

func TestHandleControl_BadRequests(t *testing.T) {
	tests := map[string]string{
		"invalid json":        `{`,
		"unknown simulation":  `{"simulation":"meltdown"}`,
		"zero records":        `{"simulation":"poweroff","nb_of_records":0}`,
		"negative records":    `{"simulation":"co2sensor","nb_of_records":-3}`,
		"bad content type":    `{"simulation":"co2sensor","content_type":9}`,
		"malformed timestamp": `{"simulation":"poweroff","start_time":"noon"}`,
		"too many records":    `{"simulation":"poweroff","nb_of_records":1001}`,
		"oversized body":      `{"simulation":"poweroff","containerID":"` + strings.Repeat("x", maxBodyBytes) + `"}`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			pub := &recordingPublisher{}
			rec := post(New(pub, "t", "ID", 1, reefer.MaxRecords), body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Empty(t, pub.records)
		})
	}
}

func TestHandleControl_RecordLimit(t *testing.T) {
	pub := &recordingPublisher{}
	h := New(pub, "t", "ID", 1, 20)

	assert.Equal(t, http.StatusBadRequest, post(h, `{"simulation":"co2sensor","nb_of_records":21}`).Code)
	// The default row count is above this limit too.
	assert.Equal(t, http.StatusBadRequest, post(h, `{"simulation":"co2sensor"}`).Code)
	assert.Empty(t, pub.records)

	assert.Equal(t, http.StatusAccepted, post(h, `{"simulation":"co2sensor","nb_of_records":20}`).Code)
	assert.Len(t, pub.records, 20)
}
