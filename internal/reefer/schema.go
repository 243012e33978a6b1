package reefer

import (
	"fmt"
	"slices"
	"time"
)

const (
	CO2Level        = 4.0 // percent
	O2Level         = 21.0
	PowerLevel      = 7.2 // kW
	RecordsImpacted = 7
	MaxRecords      = 1000
	DefrostLevel    = 7

	Step = 15 * time.Minute
)

// Canonical column names, in output order.
const (
	ColTimestamp           = "Timestamp"
	ColID                  = "ID"
	ColTemperature         = "Temperature"
	ColTargetTemperature   = "Target_Temperature"
	ColPower               = "Power"
	ColPowerConsumption    = "PowerConsumption"
	ColContentType         = "ContentType"
	ColO2                  = "O2"
	ColCO2                 = "CO2"
	ColTimeDoorOpen        = "Time_Door_Open"
	ColMaintenanceRequired = "Maintenance_Required"
	ColDefrostCycle        = "Defrost_Cycle"
)

var columns = []string{
	ColTimestamp, ColID, ColTemperature, ColTargetTemperature, ColPower,
	ColPowerConsumption, ColContentType, ColO2, ColCO2, ColTimeDoorOpen,
	ColMaintenanceRequired, ColDefrostCycle,
}

// Columns returns the canonical schema.
func Columns() []string {
	return slices.Clone(columns)
}

// Record is one row of reefer telemetry.
type Record struct {
	Timestamp           time.Time `json:"Timestamp" bson:"timestamp"`
	ID                  string    `json:"ID" bson:"container_id"`
	Temperature         float64   `json:"Temperature" bson:"temperature"`
	TargetTemperature   float64   `json:"Target_Temperature" bson:"target_temperature"`
	Power               float64   `json:"Power" bson:"power"`
	PowerConsumption    float64   `json:"PowerConsumption" bson:"power_consumption"`
	ContentType         int       `json:"ContentType" bson:"content_type"`
	O2                  float64   `json:"O2" bson:"o2"`
	CO2                 float64   `json:"CO2" bson:"co2"`
	TimeDoorOpen        float64   `json:"Time_Door_Open" bson:"time_door_open"`
	MaintenanceRequired int       `json:"Maintenance_Required" bson:"maintenance_required"`
	DefrostCycle        int       `json:"Defrost_Cycle" bson:"defrost_cycle"`
}

// Tuple is a record flattened to canonical column order.
type Tuple []any

// Values returns the record's fields in canonical order.
func (r Record) Values() Tuple {
	return Tuple{
		r.Timestamp, r.ID, r.Temperature, r.TargetTemperature, r.Power,
		r.PowerConsumption, r.ContentType, r.O2, r.CO2, r.TimeDoorOpen,
		r.MaintenanceRequired, r.DefrostCycle,
	}
}

// Field returns the value of the named canonical column.
func (r Record) Field(name string) (any, bool) {
	i := slices.Index(columns, name)
	if i < 0 {
		return nil, false
	}
	return r.Values()[i], true
}

// Dataset is an ordered, immutable sequence of records for one container.
type Dataset struct {
	records []Record
}

func newDataset(records []Record) *Dataset {
	return &Dataset{records: records}
}

func (d *Dataset) Len() int {
	return len(d.records)
}

// Columns returns the canonical schema of the dataset.
func (d *Dataset) Columns() []string {
	return Columns()
}

// Records returns a copy of the rows.
func (d *Dataset) Records() []Record {
	return slices.Clone(d.records)
}

// At returns row i.
func (d *Dataset) At(i int) Record {
	return d.records[i]
}

// Tuples returns every row in canonical column order.
func (d *Dataset) Tuples() []Tuple {
	out := make([]Tuple, len(d.records))
	for i, r := range d.records {
		out[i] = r.Values()
	}
	return out
}

// Column returns a copy of one column by canonical name.
func (d *Dataset) Column(name string) ([]any, error) {
	i := slices.Index(columns, name)
	if i < 0 {
		return nil, fmt.Errorf("unknown column %q", name)
	}
	out := make([]any, len(d.records))
	for j, r := range d.records {
		out[j] = r.Values()[i]
	}
	return out, nil
}
