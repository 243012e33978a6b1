package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"sync"

	"github.com/Tomcli/refarch-reefer-ml/internal/metrics"
	"github.com/Tomcli/refarch-reefer-ml/internal/reefer"
	"github.com/Tomcli/refarch-reefer-ml/internal/sink"
)

// ControlRequest asks the simulator to generate and stream one scenario.
// Omitted fields fall back to reefer.DefaultParams.
type ControlRequest struct {
	ContainerID     string   `json:"containerID"`
	Simulation      string   `json:"simulation"`
	NbOfRecords     *int     `json:"nb_of_records"`
	GoodTemperature *float64 `json:"good_temperature"`
	ContentType     *int     `json:"content_type"`
	StartTime       string   `json:"start_time"`
	Seed            *uint64  `json:"seed"`
}

type ControlResponse struct {
	ContainerID string `json:"containerID"`
	Simulation  string `json:"simulation"`
	Records     int    `json:"records"`
	Published   int    `json:"published"`
}

const maxBodyBytes = 64 << 10

type Handler struct {
	publisher  sink.Publisher
	topic      string
	keyField   string
	maxRecords int

	mu    sync.Mutex
	seeds *rand.Rand
}

// New returns a handler publishing to topic. Requests without a seed get
// one drawn from a sequence started at seed. Requests for more than
// maxRecords rows are rejected.
func New(publisher sink.Publisher, topic, keyField string, seed uint64, maxRecords int) *Handler {
	return &Handler{
		publisher:  publisher,
		topic:      topic,
		keyField:   keyField,
		maxRecords: maxRecords,
		seeds:      rand.New(rand.NewPCG(seed, seed)),
	}
}

func (h *Handler) nextSeed() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.seeds.Uint64()
}

func (h *Handler) HandleControl(w http.ResponseWriter, r *http.Request) {
	var req ControlRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("decode error", "err", err)
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	sc, params, err := req.params(h.maxRecords)
	if err != nil {
		slog.Error("validation error", "err", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	seed := h.nextSeed()
	if req.Seed != nil {
		seed = *req.Seed
	}
	tuples, err := reefer.NewSeeded(seed).GenerateTuples(sc, params)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, reefer.ErrInvalidConfiguration) {
			status = http.StatusBadRequest
		}
		slog.Error("generate error", "err", err)
		http.Error(w, err.Error(), status)
		return
	}
	metrics.RecordGenerated(string(sc), len(tuples), 0)

	published := sink.PublishDataset(r.Context(), h.publisher, h.topic, h.keyField, reefer.TupleRecords(tuples))
	slog.Info("simulation streamed", "container_id", params.ContainerID, "simulation", sc,
		"records", len(tuples), "published", published, "seed", seed)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	_ = json.NewEncoder(w).Encode(ControlResponse{
		ContainerID: params.ContainerID,
		Simulation:  string(sc),
		Records:     len(tuples),
		Published:   published,
	})
}

func (req ControlRequest) params(maxRecords int) (reefer.Scenario, reefer.Params, error) {
	p := reefer.DefaultParams()
	sc, err := reefer.ParseScenario(req.Simulation)
	if err != nil {
		return "", p, err
	}
	if req.ContainerID != "" {
		p.ContainerID = req.ContainerID
	}
	if req.NbOfRecords != nil {
		p.Records = *req.NbOfRecords
	}
	if p.Records > maxRecords {
		return "", p, fmt.Errorf("%w: nb_of_records %d above limit %d", reefer.ErrInvalidConfiguration, p.Records, maxRecords)
	}
	if req.GoodTemperature != nil {
		p.TargetTemperature = *req.GoodTemperature
	}
	p.ContentType = req.ContentType
	p.StartTime, err = reefer.ParseStartTime(req.StartTime)
	if err != nil {
		return "", p, err
	}
	return sc, p, nil
}
