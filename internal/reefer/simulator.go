package reefer

import (
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"
)

// Scenario names a fault injection mode.
type Scenario string

const (
	ScenarioPowerOff Scenario = "poweroff"
	ScenarioCo2      Scenario = "co2sensor"
)

// ParseScenario validates a scenario name.
func ParseScenario(s string) (Scenario, error) {
	switch Scenario(s) {
	case ScenarioPowerOff, ScenarioCo2:
		return Scenario(s), nil
	}
	return "", fmt.Errorf("%w: unknown simulation %q", ErrInvalidConfiguration, s)
}

// Params controls a single generation call.
type Params struct {
	ContainerID       string
	Records           int
	TargetTemperature float64
	ContentType       *int       // nil picks one at random
	StartTime         *time.Time // nil uses the simulator clock
}

// DefaultParams returns the parameters used when a caller supplies none.
func DefaultParams() Params {
	return Params{
		ContainerID:       "101",
		Records:           MaxRecords,
		TargetTemperature: 4.4,
	}
}

func (p Params) validate() error {
	if p.Records <= 0 {
		return fmt.Errorf("%w: row count must be positive, got %d", ErrInvalidConfiguration, p.Records)
	}
	if p.ContentType != nil && (*p.ContentType < 1 || *p.ContentType > 5) {
		return fmt.Errorf("%w: content type %d not in [1,5]", ErrInvalidConfiguration, *p.ContentType)
	}
	return nil
}

// Simulator generates labeled reefer datasets. All randomness comes from the
// source it was built with, so two simulators built from equal seeds return
// identical datasets for identical calls. A Simulator is not safe for
// concurrent use; give each goroutine its own.
type Simulator struct {
	src    rand.Source
	rng    *rand.Rand
	now    func() time.Time
	logger *slog.Logger
}

type Option func(*Simulator)

// WithClock sets the clock used when Params.StartTime is nil.
func WithClock(now func() time.Time) Option {
	return func(s *Simulator) { s.now = now }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Simulator) { s.logger = l }
}

func New(src rand.Source, opts ...Option) *Simulator {
	s := &Simulator{
		src:    src,
		rng:    rand.New(src),
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// NewSeeded returns a simulator backed by a PCG source seeded with seed.
func NewSeeded(seed uint64, opts ...Option) *Simulator {
	return New(rand.NewPCG(seed, seed), opts...)
}

// Generate dispatches to the tabular generator of the given scenario.
func (s *Simulator) Generate(sc Scenario, p Params) (*Dataset, error) {
	switch sc {
	case ScenarioPowerOff:
		return s.GeneratePowerOff(p)
	case ScenarioCo2:
		return s.GenerateCo2(p)
	}
	return nil, fmt.Errorf("%w: unknown simulation %q", ErrInvalidConfiguration, sc)
}

// GenerateTuples dispatches to the tuple generator of the given scenario.
func (s *Simulator) GenerateTuples(sc Scenario, p Params) ([]Tuple, error) {
	switch sc {
	case ScenarioPowerOff:
		return s.GeneratePowerOffTuples(p)
	case ScenarioCo2:
		return s.GenerateCo2Tuples(p)
	}
	return nil, fmt.Errorf("%w: unknown simulation %q", ErrInvalidConfiguration, sc)
}

// GeneratePowerOff returns a dataset for a container that repeatedly loses
// power for RecordsImpacted rows at a time.
func (s *Simulator) GeneratePowerOff(p Params) (*Dataset, error) {
	cols, err := s.prepare(p)
	if err != nil {
		return nil, err
	}
	s.powerOff(cols)
	return s.assemble(ScenarioPowerOff, cols), nil
}

// GenerateCo2 returns a dataset labeled for CO2 sensor malfunctions.
func (s *Simulator) GenerateCo2(p Params) (*Dataset, error) {
	cols, err := s.prepare(p)
	if err != nil {
		return nil, err
	}
	co2Fault(cols)
	return s.assemble(ScenarioCo2, cols), nil
}

// GeneratePowerOffTuples is GeneratePowerOff in row tuple form. The
// maintenance flag is always 0 in tuple form.
func (s *Simulator) GeneratePowerOffTuples(p Params) ([]Tuple, error) {
	ds, err := s.GeneratePowerOff(p)
	if err != nil {
		return nil, err
	}
	return clearedTuples(ds), nil
}

// GenerateCo2Tuples is GenerateCo2 in row tuple form. The maintenance flag
// is always 0 in tuple form.
func (s *Simulator) GenerateCo2Tuples(p Params) ([]Tuple, error) {
	ds, err := s.GenerateCo2(p)
	if err != nil {
		return nil, err
	}
	return clearedTuples(ds), nil
}

// TupleRecords converts tuples produced by this package back into records.
func TupleRecords(tuples []Tuple) []Record {
	out := make([]Record, len(tuples))
	for i, t := range tuples {
		out[i] = Record{
			Timestamp:           t[0].(time.Time),
			ID:                  t[1].(string),
			Temperature:         t[2].(float64),
			TargetTemperature:   t[3].(float64),
			Power:               t[4].(float64),
			PowerConsumption:    t[5].(float64),
			ContentType:         t[6].(int),
			O2:                  t[7].(float64),
			CO2:                 t[8].(float64),
			TimeDoorOpen:        t[9].(float64),
			MaintenanceRequired: t[10].(int),
			DefrostCycle:        t[11].(int),
		}
	}
	return out
}

func clearedTuples(ds *Dataset) []Tuple {
	out := make([]Tuple, ds.Len())
	for i, r := range ds.records {
		r.MaintenanceRequired = 0
		out[i] = r.Values()
	}
	return out
}

// prepare validates p and produces the stationary columns and timestamps.
func (s *Simulator) prepare(p Params) (*columnSet, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	start := s.now()
	if p.StartTime != nil {
		start = *p.StartTime
	}

	cols, err := s.stationary(p.Records, p.ContainerID, p.ContentType, p.TargetTemperature)
	if err != nil {
		return nil, err
	}
	cols.timestamps, err = Timestamps(p.Records, start)
	if err != nil {
		return nil, err
	}
	return cols, nil
}

func (s *Simulator) assemble(sc Scenario, cols *columnSet) *Dataset {
	records := make([]Record, len(cols.timestamps))
	flagged := 0
	for i := range records {
		records[i] = Record{
			Timestamp:           cols.timestamps[i],
			ID:                  cols.id,
			Temperature:         cols.temperature[i],
			TargetTemperature:   cols.targetTemperature,
			Power:               cols.power[i],
			PowerConsumption:    cols.consumption[i],
			ContentType:         cols.contentType,
			O2:                  cols.o2[i],
			CO2:                 cols.co2[i],
			TimeDoorOpen:        cols.timeDoorOpen[i],
			MaintenanceRequired: cols.maintenance[i],
			DefrostCycle:        cols.defrostCycle[i],
		}
		flagged += cols.maintenance[i]
	}
	s.logger.Debug("generated dataset",
		"scenario", sc, "container_id", cols.id, "records", len(records), "maintenance_flags", flagged)
	return newDataset(records)
}
