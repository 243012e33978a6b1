package reefer

import "gonum.org/v1/gonum/stat/distuv"

// powerOffState is carried from one row to the next while simulating a
// container that repeatedly loses power.
type powerOffState struct {
	temp  float64 // temperature emitted on the previous row
	count int     // rows elapsed in the current outage, 0 outside one
	pwrc  float64 // consumption accrued since the last reset
}

// powerOffRow is the output of one step of the state machine.
type powerOffRow struct {
	temperature float64
	power       float64
	consumption float64
	maintenance int
}

// step advances the state by one row given the three values sampled for
// it: candidate temperature, candidate current draw and a fresh consumption
// seed (only used when nothing has accrued yet).
func (st *powerOffState) step(temp, pwr, seed float64) powerOffRow {
	oldTemp := st.temp

	if st.pwrc == 0 {
		st.pwrc = seed
	} else {
		// Raw draw, not scaled by elapsed time.
		st.pwrc = pwr + st.pwrc
	}

	maintenance := 0
	if pwr < 0 {
		pwr = 0
		st.count++
		temp = oldTemp
	} else if st.count > 0 && st.count < RecordsImpacted {
		st.count++
		pwr = 0
		temp = oldTemp + 0.8*float64(st.count)
	}
	if st.count == RecordsImpacted {
		maintenance = 1
		st.count = 0
		st.pwrc = 0
	}

	st.temp = temp
	return powerOffRow{
		temperature: temp,
		power:       pwr,
		consumption: st.pwrc,
		maintenance: maintenance,
	}
}

// powerOff runs the state machine over n rows and overwrites the
// temperature, power, consumption and maintenance columns of cols. It is a
// strict left to right scan.
func (s *Simulator) powerOff(cols *columnSet) {
	target := cols.targetTemperature
	tempDist := distuv.Normal{Mu: target, Sigma: 2.0, Src: s.src}
	pwrDist := distuv.Normal{Mu: PowerLevel, Sigma: 6, Src: s.src}
	seedDist := distuv.Normal{Mu: PowerLevel, Sigma: 10.0, Src: s.src}

	st := &powerOffState{
		temp: distuv.Normal{Mu: target, Sigma: 3.0, Src: s.src}.Rand(),
	}
	for i := range cols.temperature {
		temp := tempDist.Rand()
		pwr := pwrDist.Rand()
		var seed float64
		if st.pwrc == 0 {
			seed = seedDist.Rand()
		}

		row := st.step(temp, pwr, seed)
		cols.temperature[i] = row.temperature
		cols.power[i] = row.power
		cols.consumption[i] = row.consumption
		cols.maintenance[i] = row.maintenance
	}
}
