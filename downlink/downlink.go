// Package downlink builds network server queue requests for Nanotag configuration payloads.
package downlink

import (
	"errors"
	"fmt"
	"strings"

	"github.com/viam-modules/nanotag/nanotag"
	"go.thethings.network/lorawan-stack/v3/pkg/ttnpb"
)

// Network is a LoRaWAN network server the payload can be queued on.
type Network string

// Supported network servers.
const (
	ChirpStack Network = "chirpstack"
	TTN        Network = "ttn"
	Helium     Network = "helium"
)

// AllNetworks selects every supported network in ParseNetworks.
const AllNetworks = "all"

// Networks lists the supported network servers.
var Networks = []Network{ChirpStack, TTN, Helium}

var errNoNetworks = errors.New("no network selected")

// ParseNetwork returns the network for a name. An empty name is ChirpStack.
func ParseNetwork(name string) (Network, error) {
	n := Network(strings.ToLower(strings.TrimSpace(name)))
	if n == "" {
		return ChirpStack, nil
	}
	for _, known := range Networks {
		if n == known {
			return n, nil
		}
	}
	return "", fmt.Errorf("unknown network %q, supported: %s", name, networkNames())
}

// ParseNetworks parses a comma separated list of networks, or "all".
func ParseNetworks(list string) ([]Network, error) {
	if strings.EqualFold(strings.TrimSpace(list), AllNetworks) {
		return append([]Network(nil), Networks...), nil
	}

	var networks []Network
	seen := map[Network]bool{}
	for _, name := range strings.Split(list, ",") {
		if strings.TrimSpace(name) == "" {
			continue
		}
		n, err := ParseNetwork(name)
		if err != nil {
			return nil, err
		}
		if seen[n] {
			continue
		}
		seen[n] = true
		networks = append(networks, n)
	}
	if len(networks) == 0 {
		return nil, errNoNetworks
	}
	return networks, nil
}

func networkNames() string {
	names := make([]string, 0, len(Networks))
	for _, n := range Networks {
		names = append(names, string(n))
	}
	return strings.Join(names, ", ")
}

// QueueRequest is the body a network server expects to enqueue a downlink.
type QueueRequest struct {
	Network Network     `json:"network" yaml:"network"`
	Body    interface{} `json:"body" yaml:"body"`
}

// chirpstackQueueItem is the body of POST /api/devices/{dev_eui}/queue on ChirpStack v4.
type chirpstackQueueItem struct {
	QueueItem chirpstackItem `json:"queueItem" yaml:"queueItem"`
}

type chirpstackItem struct {
	Confirmed bool   `json:"confirmed" yaml:"confirmed"`
	FPort     uint32 `json:"fPort" yaml:"fPort"`
	Data      string `json:"data" yaml:"data"`
}

// ttnDownlinks is the downlink push body of The Things Stack v3.
type ttnDownlinks struct {
	Downlinks []ttnDownlink `json:"downlinks" yaml:"downlinks"`
}

type ttnDownlink struct {
	FPort      uint32 `json:"f_port" yaml:"f_port"`
	FrmPayload string `json:"frm_payload" yaml:"frm_payload"`
	Confirmed  bool   `json:"confirmed" yaml:"confirmed"`
	Priority   string `json:"priority" yaml:"priority"`
}

// heliumDownlink is the body of a Helium console downlink webhook.
type heliumDownlink struct {
	PayloadRaw string `json:"payload_raw" yaml:"payload_raw"`
	Port       uint32 `json:"port" yaml:"port"`
	Confirmed  bool   `json:"confirmed" yaml:"confirmed"`
}

// CreateQueueRequest builds the enqueue body for the given network.
func CreateQueueRequest(network Network, payload nanotag.ConfigPayload, confirmed bool) (QueueRequest, error) {
	switch network {
	case ChirpStack:
		return QueueRequest{
			Network: network,
			Body: chirpstackQueueItem{QueueItem: chirpstackItem{
				Confirmed: confirmed,
				FPort:     uint32(payload.Port),
				Data:      payload.Base64(),
			}},
		}, nil
	case TTN:
		dl, err := ApplicationDownlink(payload, confirmed)
		if err != nil {
			return QueueRequest{}, err
		}
		return QueueRequest{
			Network: network,
			Body: ttnDownlinks{Downlinks: []ttnDownlink{{
				FPort:      dl.FPort,
				FrmPayload: payload.Base64(),
				Confirmed:  dl.Confirmed,
				Priority:   dl.Priority.String(),
			}}},
		}, nil
	case Helium:
		return QueueRequest{
			Network: network,
			Body: heliumDownlink{
				PayloadRaw: payload.Base64(),
				Port:       uint32(payload.Port),
				Confirmed:  confirmed,
			},
		}, nil
	default:
		return QueueRequest{}, fmt.Errorf("unknown network %q, supported: %s", network, networkNames())
	}
}

// CreateQueueRequests builds one request per network, in order.
func CreateQueueRequests(networks []Network, payload nanotag.ConfigPayload, confirmed bool) ([]QueueRequest, error) {
	reqs := make([]QueueRequest, 0, len(networks))
	for _, n := range networks {
		req, err := CreateQueueRequest(n, payload, confirmed)
		if err != nil {
			return nil, err
		}
		reqs = append(reqs, req)
	}
	return reqs, nil
}

// ApplicationDownlink returns the payload as a validated Things Stack application downlink.
func ApplicationDownlink(payload nanotag.ConfigPayload, confirmed bool) (*ttnpb.ApplicationDownlink, error) {
	frm := make([]byte, payload.Len())
	copy(frm, payload.Bytes[:])

	dl := &ttnpb.ApplicationDownlink{
		FPort:      uint32(payload.Port),
		FrmPayload: frm,
		Confirmed:  confirmed,
		Priority:   ttnpb.TxSchedulePriority_NORMAL,
	}
	if err := dl.ValidateFields("f_port", "frm_payload", "confirmed", "priority"); err != nil {
		return nil, fmt.Errorf("invalid application downlink: %w", err)
	}
	return dl, nil
}
