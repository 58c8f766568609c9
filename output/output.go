// Package output renders encoded Nanotag configurations for operators.
package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/viam-modules/nanotag/downlink"
	"github.com/viam-modules/nanotag/nanotag"
	"gopkg.in/yaml.v3"
)

// Format is an output format.
type Format string

// Supported formats.
const (
	Text Format = "text"
	JSON Format = "json"
	YAML Format = "yaml"
)

const rule = "============================================================"

// ParseFormat returns the format for a name. An empty name is Text.
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(name))); f {
	case "":
		return Text, nil
	case Text, JSON, YAML:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q, supported: %s, %s, %s", name, Text, JSON, YAML)
	}
}

// Bundle is everything an operator needs to queue a configuration.
type Bundle struct {
	Name          string           `json:"name" yaml:"name"`
	RecordPeriod  int              `json:"record_period" yaml:"record_period"`
	ReportPeriod  int              `json:"report_period" yaml:"report_period"`
	TimeUnit      nanotag.TimeUnit `json:"time_unit" yaml:"time_unit"`
	RecordSeconds int64            `json:"record_seconds" yaml:"record_seconds"`
	ReportSeconds int64            `json:"report_seconds" yaml:"report_seconds"`
	Port          uint8            `json:"port" yaml:"port"`
	AckPort       uint8            `json:"ack_port" yaml:"ack_port"`
	HexPayload    string           `json:"hex_payload" yaml:"hex_payload"`
	Base64Payload string           `json:"base64_payload" yaml:"base64_payload"`
	Length        int              `json:"length" yaml:"length"`
}

// NewBundle describes an encoded request. Name is the preset name, or empty for a custom request.
func NewBundle(name string, req nanotag.ConfigRequest, p nanotag.ConfigPayload) Bundle {
	if name == "" {
		name = fmt.Sprintf("%d-%d-%s", req.RecordPeriod, req.ReportPeriod, req.TimeUnit)
	}
	return Bundle{
		Name:          name,
		RecordPeriod:  req.RecordPeriod,
		ReportPeriod:  req.ReportPeriod,
		TimeUnit:      req.TimeUnit,
		RecordSeconds: int64(req.RecordInterval().Seconds()),
		ReportSeconds: int64(req.ReportInterval().Seconds()),
		Port:          p.Port,
		AckPort:       nanotag.AckPort,
		HexPayload:    p.Hex(),
		Base64Payload: p.Base64(),
		Length:        p.Len(),
	}
}

type document struct {
	Bundle    `yaml:",inline"`
	Downlinks []downlink.QueueRequest `json:"downlinks,omitempty" yaml:"downlinks,omitempty"`
}

// Write renders b and any queue requests to w.
func Write(w io.Writer, format Format, b Bundle, reqs []downlink.QueueRequest) error {
	var (
		out []byte
		err error
	)
	switch format {
	case Text, "":
		out, err = renderText(b, reqs)
	case JSON:
		out, err = json.MarshalIndent(document{Bundle: b, Downlinks: reqs}, "", "  ")
		out = append(out, '\n')
	case YAML:
		out, err = yaml.Marshal(document{Bundle: b, Downlinks: reqs})
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
	if err != nil {
		return err
	}
	_, err = w.Write(out)
	return err
}

func renderText(b Bundle, reqs []downlink.QueueRequest) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintln(&buf, rule)
	fmt.Fprintln(&buf, "NANOTHINGS NANOTAG CONFIGURATION")
	fmt.Fprintln(&buf, rule)
	fmt.Fprintf(&buf, "Configuration: %s\n", b.Name)
	fmt.Fprintf(&buf, "Record Period: %d %s (%ds)\n", b.RecordPeriod, b.TimeUnit, b.RecordSeconds)
	fmt.Fprintf(&buf, "Report Period: %d %s (%ds)\n", b.ReportPeriod, b.TimeUnit, b.ReportSeconds)
	fmt.Fprintln(&buf)
	fmt.Fprintln(&buf, "DOWNLINK DETAILS:")
	fmt.Fprintf(&buf, "  fPort: %d\n", b.Port)
	fmt.Fprintf(&buf, "  Payload (hex): %s\n", b.HexPayload)
	fmt.Fprintf(&buf, "  Payload (base64): %s\n", b.Base64Payload)
	fmt.Fprintf(&buf, "  Length: %d bytes\n", b.Length)
	fmt.Fprintln(&buf)
	fmt.Fprintln(&buf, "CHIRPSTACK INSTRUCTIONS:")
	fmt.Fprintln(&buf, "1. Log into your ChirpStack console")
	fmt.Fprintln(&buf, "2. Navigate to your application and device")
	fmt.Fprintln(&buf, "3. Go to Queue tab and choose Enqueue downlink")
	fmt.Fprintf(&buf, "4. Set fPort: %d\n", b.Port)
	fmt.Fprintf(&buf, "5. Set payload (hex): %s\n", b.HexPayload)
	fmt.Fprintln(&buf, "6. Set confirmed: true (recommended)")
	fmt.Fprintln(&buf, "7. Click Enqueue")
	fmt.Fprintln(&buf)
	fmt.Fprintf(&buf, "The device will acknowledge the new configuration on fPort %d.\n", b.AckPort)

	for _, req := range reqs {
		body, err := json.MarshalIndent(req.Body, "", "  ")
		if err != nil {
			return nil, err
		}
		fmt.Fprintln(&buf)
		fmt.Fprintf(&buf, "%s QUEUE REQUEST:\n", strings.ToUpper(string(req.Network)))
		fmt.Fprintln(&buf, string(body))
	}

	fmt.Fprintln(&buf, rule)
	return buf.Bytes(), nil
}
