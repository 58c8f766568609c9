package nanotag

import (
	"fmt"
	"strings"
)

// RangeError is returned when a period is outside [MinPeriod, MaxPeriod].
type RangeError struct {
	Field string
	Value int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("%s must be between %d and %d, got %d", e.Field, MinPeriod, MaxPeriod, e.Value)
}

// InvalidUnitError is returned when the time unit is not minutes or seconds.
type InvalidUnitError struct {
	Unit TimeUnit
}

func (e *InvalidUnitError) Error() string {
	return fmt.Sprintf("time unit must be %q or %q, got %q", Minutes, Seconds, string(e.Unit))
}

// OrderingError is returned when the device would report more often than it records.
type OrderingError struct {
	RecordPeriod int
	ReportPeriod int
}

func (e *OrderingError) Error() string {
	return fmt.Sprintf("report period cannot be shorter than record period (record %d, report %d)",
		e.RecordPeriod, e.ReportPeriod)
}

// DivisibilityError is returned when the report period is not a whole multiple of the record period.
type DivisibilityError struct {
	RecordPeriod int
	ReportPeriod int
}

func (e *DivisibilityError) Error() string {
	return fmt.Sprintf("report period must be a multiple of record period (record %d, report %d)",
		e.RecordPeriod, e.ReportPeriod)
}

// UnknownPresetError is returned by ResolvePreset for names outside the preset table.
type UnknownPresetError struct {
	Name string
}

func (e *UnknownPresetError) Error() string {
	return fmt.Sprintf("unknown preset %q, available: %s", e.Name, strings.Join(PresetNames(), ", "))
}
