package reefer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPowerOffStep_Episode(t *testing.T) {
	st := &powerOffState{temp: 5}

	// Negative draw starts an outage: power clamped, temperature held.
	row := st.step(4, -1, 3)
	assert.Equal(t, powerOffRow{temperature: 5, power: 0, consumption: 3}, row)
	assert.Equal(t, 1, st.count)

	wantTemps := []float64{6.6, 9.0, 12.2, 16.2, 21.0, 26.6}
	for i, want := range wantTemps {
		row = st.step(4.1, 10, 0)
		assert.InDelta(t, want, row.temperature, 1e-9, "row %d", i)
		assert.Zero(t, row.power)
		if i < len(wantTemps)-1 {
			assert.Zero(t, row.maintenance, "row %d", i)
		}
	}
	assert.Equal(t, 1, row.maintenance)
	assert.Zero(t, row.consumption)
	assert.Zero(t, st.count)

	// Back to normal operation, consumption reseeded.
	row = st.step(4, 8, 2)
	assert.Equal(t, powerOffRow{temperature: 4, power: 8, consumption: 2}, row)
}

func TestPowerOffStep_NegativeDrawDuringOutageHoldsTemperature(t *testing.T) {
	st := &powerOffState{temp: 5, count: 3, pwrc: 1}

	row := st.step(9, -2, 0)
	assert.Equal(t, 5.0, row.temperature)
	assert.Zero(t, row.power)
	assert.Equal(t, 4, st.count)
}

// Consumption accumulates the raw draw on every row, without any time
// factor, until an outage completes. This is the established behavior of the
// generator and is asserted here as such.
func TestPowerOffStep_ConsumptionAccumulates(t *testing.T) {
	st := &powerOffState{temp: 4}

	assert.Equal(t, 7.2, st.step(4, 5, 7.2).consumption)
	assert.InDelta(t, 12.2, st.step(4, 5, 999).consumption, 1e-9)
	assert.InDelta(t, 18.2, st.step(4, 6, 999).consumption, 1e-9)
	assert.InDelta(t, 1018.2, st.step(4, 1000, 0).consumption, 1e-9)
}

func TestPowerOff_OutagesAreBoundedAndFlagged(t *testing.T) {
	ds, err := NewSeeded(42).GeneratePowerOff(fixedParams(1000))
	require.NoError(t, err)
	records := ds.Records()

	flags := 0
	segmentStart := 0
	for i, r := range records {
		if r.MaintenanceRequired == 0 {
			continue
		}
		flags++
		require.GreaterOrEqual(t, i, RecordsImpacted-1)
		zeros := zeroPowerRows(records[segmentStart : i+1])
		assert.Equal(t, RecordsImpacted, len(zeros), "outage ending at row %d", i)
		assertContiguousSuffix(t, zeros, i+1-segmentStart)
		segmentStart = i + 1
	}
	assert.NotZero(t, flags)

	zeros := zeroPowerRows(records[segmentStart:])
	assert.Less(t, len(zeros), RecordsImpacted)
	assertContiguousSuffix(t, zeros, len(records)-segmentStart)
}

func TestPowerOff_TemperatureDriftsDuringOutage(t *testing.T) {
	ds, err := NewSeeded(11).GeneratePowerOff(fixedParams(1000))
	require.NoError(t, err)
	records := ds.Records()

	elapsed := 0
	for i, r := range records {
		if r.Power != 0 {
			elapsed = 0
			continue
		}
		elapsed++
		if i == 0 {
			continue
		}
		delta := r.Temperature - records[i-1].Temperature
		held := delta == 0
		drifted := elapsed > 1 && abs(delta-0.8*float64(elapsed)) < 1e-9
		assert.True(t, held || drifted, "row %d: delta %v after %d outage rows", i, delta, elapsed)
		if r.MaintenanceRequired == 1 {
			elapsed = 0
		}
	}
}

func zeroPowerRows(records []Record) []int {
	var idx []int
	for i, r := range records {
		if r.Power == 0 {
			idx = append(idx, i)
		}
	}
	return idx
}

func assertContiguousSuffix(t *testing.T, idx []int, n int) {
	t.Helper()
	for k, i := range idx {
		assert.Equal(t, n-len(idx)+k, i)
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
