package snapshot

import (
	"encoding/json"
	"strings"
	"time"
)

// Snapshot is the portable capture of one network's configuration. It is
// immutable once produced; the restore engine never edits identifiers inside
// it, only rewrites them on the way out.
type Snapshot struct {
	Timestamp         time.Time                  `json:"timestamp"`
	SourceOrgID       string                     `json:"sourceOrgId"`
	SourceOrgName     string                     `json:"sourceOrgName"`
	SourceNetworkID   string                     `json:"sourceNetworkId"`
	SourceNetworkName string                     `json:"sourceNetworkName"`
	NetworkInfo       json.RawMessage            `json:"networkInfo,omitempty"`
	Devices           []Device                   `json:"devices"`
	NetworkSettings   NetworkSettings            `json:"networkSettings"`
	DeviceSettings    map[string]*DeviceSettings `json:"deviceSettings"`
}

// Device is one device descriptor as listed on the source network. Serial is
// the vendor-assigned primary key and never changes across a migration.
type Device struct {
	Serial    string          `json:"serial"`
	Model     string          `json:"model"`
	Name      string          `json:"name,omitempty"`
	MAC       string          `json:"mac,omitempty"`
	NetworkID string          `json:"networkId,omitempty"`
	Raw       json.RawMessage `json:"raw,omitempty"`
}

// IsSwitch reports whether the device carries switch port/routing/DHCP
// sub-trees. Matches MS-series and Catalyst 9k models.
func (d Device) IsSwitch() bool {
	return strings.HasPrefix(d.Model, "MS") || strings.HasPrefix(d.Model, "C9")
}

// NetworkSettings holds network-level resources grouped by domain. Each map
// is keyed by catalog resource name; an absent key means "not configured or
// not supported", never an error.
type NetworkSettings struct {
	Switch     map[string]json.RawMessage `json:"switch,omitempty"`
	Routing    map[string]json.RawMessage `json:"routing,omitempty"`
	Security   map[string]json.RawMessage `json:"security,omitempty"`
	Monitoring map[string]json.RawMessage `json:"monitoring,omitempty"`
}

// Domain returns the settings map for a domain name, or nil.
func (ns *NetworkSettings) Domain(name string) map[string]json.RawMessage {
	switch name {
	case "switch":
		return ns.Switch
	case "routing":
		return ns.Routing
	case "security":
		return ns.Security
	case "monitoring":
		return ns.Monitoring
	}
	return nil
}

// SetDomain stores a value under a domain, allocating the map on first use.
func (ns *NetworkSettings) SetDomain(domain, resource string, value json.RawMessage) {
	var m *map[string]json.RawMessage
	switch domain {
	case "switch":
		m = &ns.Switch
	case "routing":
		m = &ns.Routing
	case "security":
		m = &ns.Security
	case "monitoring":
		m = &ns.Monitoring
	default:
		return
	}
	if *m == nil {
		*m = make(map[string]json.RawMessage)
	}
	(*m)[resource] = value
}

// DeviceSettings is the per-device bundle keyed by serial in the snapshot.
type DeviceSettings struct {
	Info       Device          `json:"info"`
	Ports      json.RawMessage `json:"ports,omitempty"` // verbatim port array; see SwitchPort
	Management json.RawMessage `json:"management,omitempty"`
	Routing    DeviceRouting   `json:"routing"`
	DHCP       DeviceDHCP      `json:"dhcp"`
	WarmSpare  *WarmSpare      `json:"warmSpare,omitempty"`
	StackInfo  *SwitchStack    `json:"stackInfo,omitempty"`
}

// DeviceRouting groups the layer-3 sub-tree of a switch.
type DeviceRouting struct {
	Interfaces       []RoutingInterface `json:"interfaces,omitempty"`
	StaticRoutes     []StaticRoute      `json:"staticRoutes,omitempty"`
	OSPF             *OSPF              `json:"ospf,omitempty"`
	Multicast        *Multicast         `json:"multicast,omitempty"`
	RendezvousPoints []RendezvousPoint  `json:"rendezvousPoints,omitempty"`
}

// DeviceDHCP groups the DHCP sub-tree of a switch.
type DeviceDHCP struct {
	Servers       []DHCPServer    `json:"servers,omitempty"`
	Relays        []DHCPRelay     `json:"relays,omitempty"`
	InterfaceDHCP []InterfaceDHCP `json:"interfaceDhcp,omitempty"`
}
