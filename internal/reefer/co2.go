package reefer

import "gonum.org/v1/gonum/floats"

// co2Fault derives consumption as the running sum of power and labels rows
// whose CO2 reading is above CO2Level or negative.
func co2Fault(cols *columnSet) {
	floats.CumSum(cols.consumption, cols.power)
	for i, v := range cols.co2 {
		if v > CO2Level || v < 0 {
			cols.maintenance[i] = 1
		} else {
			cols.maintenance[i] = 0
		}
	}
}
