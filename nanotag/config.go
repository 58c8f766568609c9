// Package nanotag encodes configuration downlinks for the Nanothings Nanotag temperature sensor.
package nanotag

import (
	"encoding/base64"
	"encoding/binary"
	"encoding/hex"
	"strings"
	"time"
)

const (
	// MinPeriod is the shortest record or report period the device accepts.
	MinPeriod = 1
	// MaxPeriod is the longest period that fits in the 2 byte field.
	MaxPeriod = 65535
	// PayloadLen is the size of the configuration payload in bytes.
	PayloadLen = 4
)

// fPorts used by the Nanotag.
const (
	// MinutesPort selects minutes as the unit for both periods.
	MinutesPort = 28
	// SecondsPort selects seconds as the unit for both periods.
	SecondsPort = 29
	// AckPort is where the device acknowledges a new configuration.
	// Informational only, nothing here reads from it.
	AckPort = 25
)

// TimeUnit is the unit both periods are counted in.
type TimeUnit string

const (
	// Minutes counts periods in minutes.
	Minutes TimeUnit = "minutes"
	// Seconds counts periods in seconds.
	Seconds TimeUnit = "seconds"
)

// ParseTimeUnit normalizes case and surrounding space of a unit name. Unknown
// names are returned unchanged so Encode can reject them in order.
func ParseTimeUnit(s string) TimeUnit {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(Minutes):
		return Minutes
	case string(Seconds):
		return Seconds
	default:
		return TimeUnit(s)
	}
}

// Valid reports whether u is minutes or seconds.
func (u TimeUnit) Valid() bool {
	return u == Minutes || u == Seconds
}

// Port returns the fPort that selects u on the device.
func (u TimeUnit) Port() uint8 {
	if u == Minutes {
		return MinutesPort
	}
	return SecondsPort
}

// Duration returns the length of one unit.
func (u TimeUnit) Duration() time.Duration {
	if u == Minutes {
		return time.Minute
	}
	return time.Second
}

// ConfigRequest is a requested record/report configuration.
type ConfigRequest struct {
	RecordPeriod int
	ReportPeriod int
	TimeUnit     TimeUnit
}

// ConfigPayload is an encoded configuration downlink.
type ConfigPayload struct {
	Bytes [PayloadLen]byte
	Port  uint8
}

// Validate checks the request. The first violated rule is returned.
func (r ConfigRequest) Validate() error {
	if r.RecordPeriod < MinPeriod || r.RecordPeriod > MaxPeriod {
		return &RangeError{Field: "record period", Value: r.RecordPeriod}
	}
	if r.ReportPeriod < MinPeriod || r.ReportPeriod > MaxPeriod {
		return &RangeError{Field: "report period", Value: r.ReportPeriod}
	}
	if !r.TimeUnit.Valid() {
		return &InvalidUnitError{Unit: r.TimeUnit}
	}
	if r.ReportPeriod < r.RecordPeriod {
		return &OrderingError{RecordPeriod: r.RecordPeriod, ReportPeriod: r.ReportPeriod}
	}
	if r.ReportPeriod%r.RecordPeriod != 0 {
		return &DivisibilityError{RecordPeriod: r.RecordPeriod, ReportPeriod: r.ReportPeriod}
	}
	return nil
}

// Encode validates the request and serializes it.
// The periods are written as raw counts, the port carries the unit.
func (r ConfigRequest) Encode() (ConfigPayload, error) {
	if err := r.Validate(); err != nil {
		return ConfigPayload{}, err
	}

	var p ConfigPayload
	binary.BigEndian.PutUint16(p.Bytes[0:2], uint16(r.RecordPeriod))
	binary.BigEndian.PutUint16(p.Bytes[2:4], uint16(r.ReportPeriod))
	p.Port = r.TimeUnit.Port()
	return p, nil
}

// RecordInterval is the record period as a duration.
func (r ConfigRequest) RecordInterval() time.Duration {
	return time.Duration(r.RecordPeriod) * r.TimeUnit.Duration()
}

// ReportInterval is the report period as a duration.
func (r ConfigRequest) ReportInterval() time.Duration {
	return time.Duration(r.ReportPeriod) * r.TimeUnit.Duration()
}

// Encode builds the configuration payload for the given periods.
func Encode(recordPeriod, reportPeriod int, unit TimeUnit) (ConfigPayload, error) {
	return ConfigRequest{RecordPeriod: recordPeriod, ReportPeriod: reportPeriod, TimeUnit: unit}.Encode()
}

// Hex returns the payload as 8 uppercase hex characters.
func (p ConfigPayload) Hex() string {
	return strings.ToUpper(hex.EncodeToString(p.Bytes[:]))
}

// Base64 returns the payload in standard padded base64.
func (p ConfigPayload) Base64() string {
	return base64.StdEncoding.EncodeToString(p.Bytes[:])
}

// Len is always PayloadLen.
func (p ConfigPayload) Len() int {
	return len(p.Bytes)
}
