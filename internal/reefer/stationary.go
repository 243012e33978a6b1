package reefer

import (
	"fmt"
	"time"

	"gonum.org/v1/gonum/stat/distuv"
)

// columnSet is the working, column-oriented form of a dataset before it is
// assembled into records.
type columnSet struct {
	timestamps        []time.Time
	id                string
	contentType       int
	targetTemperature float64

	o2           []float64
	co2          []float64
	timeDoorOpen []float64
	temperature  []float64
	power        []float64
	consumption  []float64
	maintenance  []int
	defrostCycle []int
}

// normals draws n independent samples from N(mu, sigma).
func (s *Simulator) normals(mu, sigma float64, n int) []float64 {
	dist := distuv.Normal{Mu: mu, Sigma: sigma, Src: s.src}
	out := make([]float64, n)
	for i := range out {
		out[i] = dist.Rand()
	}
	return out
}

// stationary generates the columns whose rows do not depend on each other.
// Temperature and power are baselines that a scenario may overwrite.
func (s *Simulator) stationary(n int, id string, contentType *int, target float64) (*columnSet, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: row count must be positive, got %d", ErrInvalidConfiguration, n)
	}

	var ct int
	if contentType == nil {
		ct = 1 + s.rng.IntN(5)
	} else {
		ct = *contentType
	}

	cols := &columnSet{
		id:                id,
		contentType:       ct,
		targetTemperature: target,
	}
	cols.o2 = s.normals(O2Level, 3.0, n)
	cols.co2 = s.normals(CO2Level, 3.0, n)
	cols.timeDoorOpen = s.normals(30.0, 2.0, n)
	cols.temperature = s.normals(target, 2.0, n)
	cols.power = s.normals(PowerLevel, 6, n)

	cols.defrostCycle = make([]int, n)
	for i := range cols.defrostCycle {
		cols.defrostCycle[i] = s.rng.IntN(DefrostLevel)
	}
	cols.consumption = make([]float64, n)
	cols.maintenance = make([]int, n)

	return cols, nil
}
