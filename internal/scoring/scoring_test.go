package scoring

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	config "github.com/Tomcli/refarch-reefer-ml/internal/config/scoring"
	"github.com/Tomcli/refarch-reefer-ml/internal/reefer"
)

type fakeCollection struct {
	mu   sync.Mutex
	docs []interface{}
	err  error
}

func (c *fakeCollection) InsertOne(ctx context.Context, doc interface{}, _ ...*options.InsertOneOptions) (*mongo.InsertOneResult, error) {
	if c.err != nil {
		return nil, c.err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.docs = append(c.docs, doc)
	return &mongo.InsertOneResult{}, nil
}

func (c *fakeCollection) reasons() []string {
	var out []string
	for _, d := range c.docs {
		out = append(out, d.(bson.M)["reason"].(string))
	}
	return out
}

func newEngine() (*Engine, *fakeCollection, *fakeCollection) {
	telemetry, alerts := &fakeCollection{}, &fakeCollection{}
	return New(&config.Config{SustainedCount: reefer.RecordsImpacted}, telemetry, alerts), telemetry, alerts
}

func body(t *testing.T, r reefer.Record) []byte {
	t.Helper()
	b, err := json.Marshal(r)
	require.NoError(t, err)
	return b
}

func normal(i int) reefer.Record {
	return reefer.Record{
		Timestamp: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(i) * reefer.Step),
		ID:        "C1",
		Power:     7.2,
		CO2:       3,
	}
}

func TestProcessMessage_StoresTelemetry(t *testing.T) {
	e, telemetry, alerts := newEngine()

	require.NoError(t, e.processMessage(context.Background(), body(t, normal(0))))
	require.Len(t, telemetry.docs, 1)
	assert.Equal(t, normal(0), telemetry.docs[0])
	assert.Empty(t, alerts.docs)
}

func TestProcessMessage_InstantAlerts(t *testing.T) {
	tests := map[string]struct {
		mutate func(*reefer.Record)
		want   []string
	}{
		"co2 high": {
			mutate: func(r *reefer.Record) { r.CO2 = 4.5 },
			want:   []string{reasonCo2},
		},
		"co2 negative": {
			mutate: func(r *reefer.Record) { r.CO2 = -0.1 },
			want:   []string{reasonCo2},
		},
		"co2 at limit": {
			mutate: func(r *reefer.Record) { r.CO2 = 4 },
		},
		"labeled": {
			mutate: func(r *reefer.Record) { r.MaintenanceRequired = 1 },
			want:   []string{reasonMaintenance},
		},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			e, _, alerts := newEngine()
			r := normal(0)
			tc.mutate(&r)
			require.NoError(t, e.processMessage(context.Background(), body(t, r)))
			assert.Equal(t, tc.want, alerts.reasons())
		})
	}
}

func TestProcessMessage_PowerOffAlert(t *testing.T) {
	e, _, alerts := newEngine()
	ctx := context.Background()

	require.NoError(t, e.processMessage(ctx, body(t, normal(0))))
	for i := 1; i <= reefer.RecordsImpacted; i++ {
		r := normal(i)
		r.Power = 0
		require.NoError(t, e.processMessage(ctx, body(t, r)))
		if i < reefer.RecordsImpacted {
			assert.Empty(t, alerts.docs, "record %d", i)
		}
	}
	assert.Equal(t, []string{reasonPowerOff}, alerts.reasons())

	// The window restarts after an alert.
	r := normal(8)
	r.Power = 0
	require.NoError(t, e.processMessage(ctx, body(t, r)))
	assert.Len(t, alerts.docs, 1)
}

func TestProcessMessage_GeneratedOutage(t *testing.T) {
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	p := reefer.DefaultParams()
	p.Records = 300
	p.StartTime = &start
	ds, err := reefer.NewSeeded(42).GeneratePowerOff(p)
	require.NoError(t, err)

	e, telemetry, alerts := newEngine()
	flagged := 0
	for _, r := range ds.Records() {
		flagged += r.MaintenanceRequired
		require.NoError(t, e.processMessage(context.Background(), body(t, r)))
	}
	assert.Len(t, telemetry.docs, 300)

	powerOff := 0
	for _, reason := range alerts.reasons() {
		if reason == reasonPowerOff {
			powerOff++
		}
	}
	assert.Equal(t, flagged, powerOff)
}

func TestProcessMessage_Errors(t *testing.T) {
	e, telemetry, _ := newEngine()
	assert.Error(t, e.processMessage(context.Background(), []byte("{")))

	telemetry.err = errors.New("mongo down")
	assert.EqualError(t, e.processMessage(context.Background(), body(t, normal(0))), "mongo down")
}

func TestNew_SustainedCountFallback(t *testing.T) {
	e := New(&config.Config{}, &fakeCollection{}, &fakeCollection{})
	assert.Equal(t, reefer.RecordsImpacted, e.window)

	assert.NotPanics(t, func() {
		require.NoError(t, e.processMessage(context.Background(), body(t, normal(0))))
	})
}

func TestProcessMessage_FinishesAfterCancel(t *testing.T) {
	e, telemetry, _ := newEngine()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, e.processMessage(ctx, body(t, normal(0))))
	assert.Len(t, telemetry.docs, 1)
}
