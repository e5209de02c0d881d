package snapshot

import "encoding/json"

// Typed records for every resource category the restore engine has to
// rewrite. Server-assigned identifiers are kept verbatim under their
// original key names; capture never strips or substitutes them.

// RoutingInterface is a layer-3 SVI on a switch.
type RoutingInterface struct {
	InterfaceID      string          `json:"interfaceId,omitempty"`
	Name             string          `json:"name"`
	VlanID           int             `json:"vlanId"`
	Subnet           string          `json:"subnet,omitempty"`
	InterfaceIP      string          `json:"interfaceIp,omitempty"`
	DefaultGateway   string          `json:"defaultGateway,omitempty"`
	MulticastRouting string          `json:"multicastRouting,omitempty"`
	OspfSettings     json.RawMessage `json:"ospfSettings,omitempty"`
}

// StaticRoute is a per-device layer-3 route. InterfaceID, when set, is a
// forward reference to a RoutingInterface and must be rewritten on restore.
type StaticRoute struct {
	StaticRouteID               string `json:"staticRouteId,omitempty"`
	Name                        string `json:"name"`
	Subnet                      string `json:"subnet"`
	NextHopIP                   string `json:"nextHopIp,omitempty"`
	InterfaceID                 string `json:"interfaceId,omitempty"`
	AdvertiseViaOspfEnabled     *bool  `json:"advertiseViaOspfEnabled,omitempty"`
	PreferOverOspfRoutesEnabled *bool  `json:"preferOverOspfRoutesEnabled,omitempty"`
}

// OSPF is the per-device OSPF configuration.
type OSPF struct {
	Enabled        bool       `json:"enabled"`
	HelloTimerInS  int        `json:"helloTimerInS,omitempty"`
	DeadTimerInS   int        `json:"deadTimerInS,omitempty"`
	Areas          []OSPFArea `json:"areas,omitempty"`
	Md5AuthEnabled *bool      `json:"md5AuthenticationEnabled,omitempty"`
}

// OSPFArea declares one area; InterfaceIDs reference RoutingInterfaces.
type OSPFArea struct {
	AreaID       string   `json:"areaId"`
	AreaName     string   `json:"areaName,omitempty"`
	AreaType     string   `json:"areaType,omitempty"`
	InterfaceIDs []string `json:"interfaceIds,omitempty"`
}

// Multicast is the per-device multicast configuration.
type Multicast struct {
	DefaultSettings json.RawMessage     `json:"defaultSettings,omitempty"`
	Overrides       []MulticastOverride `json:"overrides,omitempty"`
}

// MulticastOverride scopes IGMP snooping settings to an interface list.
type MulticastOverride struct {
	InterfaceIDs                        []string `json:"interfaceIds,omitempty"`
	IgmpSnoopingEnabled                 *bool    `json:"igmpSnoopingEnabled,omitempty"`
	FloodUnknownMulticastTrafficEnabled *bool    `json:"floodUnknownMulticastTrafficEnabled,omitempty"`
}

// RendezvousPoint maps a multicast group to an interface.
type RendezvousPoint struct {
	RendezvousPointID string `json:"rendezvousPointId,omitempty"`
	InterfaceID       string `json:"interfaceId,omitempty"`
	InterfaceName     string `json:"interfaceName,omitempty"`
	MulticastGroup    string `json:"multicastGroup"`
}

// DHCPServer is a per-device DHCP scope definition.
type DHCPServer struct {
	ID          string          `json:"id,omitempty"`
	Name        string          `json:"name,omitempty"`
	InterfaceID string          `json:"interfaceId,omitempty"`
	Subnet      string          `json:"subnet,omitempty"`
	Settings    json.RawMessage `json:"settings,omitempty"`
}

// DHCPRelay forwards DHCP from an interface to remote servers.
type DHCPRelay struct {
	InterfaceID string   `json:"interfaceId,omitempty"`
	ServerIPs   []string `json:"serverIps,omitempty"`
}

// InterfaceDHCP pairs an interface with its DHCP settings blob. The blob is
// opaque passthrough; only the interface reference needs rewriting.
type InterfaceDHCP struct {
	InterfaceID  string          `json:"interfaceId"`
	DHCPSettings json.RawMessage `json:"dhcpSettings"`
}

// SwitchPort is the typed view over one port object in the snapshot's raw
// port array: the identifier plus the forward references the restore engine
// rewrites. The raw object itself is what gets written back, so fields not
// listed here still survive the round trip.
type SwitchPort struct {
	PortID             string   `json:"portId,omitempty"`
	Name               string   `json:"name,omitempty"`
	Enabled            *bool    `json:"enabled,omitempty"`
	Type               string   `json:"type,omitempty"`
	Vlan               int      `json:"vlan,omitempty"`
	VoiceVlan          int      `json:"voiceVlan,omitempty"`
	AllowedVlans       string   `json:"allowedVlans,omitempty"`
	PoeEnabled         *bool    `json:"poeEnabled,omitempty"`
	IsolationEnabled   *bool    `json:"isolationEnabled,omitempty"`
	RstpEnabled        *bool    `json:"rstpEnabled,omitempty"`
	StpGuard           string   `json:"stpGuard,omitempty"`
	LinkNegotiation    string   `json:"linkNegotiation,omitempty"`
	PortScheduleID     string   `json:"portScheduleId,omitempty"`
	Udld               string   `json:"udld,omitempty"`
	AccessPolicyType   string   `json:"accessPolicyType,omitempty"`
	AccessPolicyNumber int      `json:"accessPolicyNumber,omitempty"`
	Tags               []string `json:"tags,omitempty"`
}

// AccessPolicy is the typed view over one captured 802.1X policy: its RADIUS
// servers are restored as separate objects first, then referenced by the
// policy. The raw policy object is what gets submitted, with the server
// lists and identifier overlaid.
type AccessPolicy struct {
	AccessPolicyNumber      json.Number    `json:"accessPolicyNumber,omitempty"`
	Name                    string         `json:"name"`
	RadiusServers           []RadiusServer `json:"radiusServers,omitempty"`
	RadiusAccountingServers []RadiusServer `json:"radiusAccountingServers,omitempty"`
	RadiusTestingEnabled    *bool          `json:"radiusTestingEnabled,omitempty"`
	RadiusCoaSupportEnabled *bool          `json:"radiusCoaSupportEnabled,omitempty"`
	RadiusAccountingEnabled *bool          `json:"radiusAccountingEnabled,omitempty"`
	HostMode                string         `json:"hostMode,omitempty"`
	AccessPolicyType        string         `json:"accessPolicyType,omitempty"`
	GuestVlanID             int            `json:"guestVlanId,omitempty"`
}

// RadiusServer is one RADIUS endpoint. The shared secret is never returned
// by the source API; restore synthesizes a placeholder.
type RadiusServer struct {
	ServerID string `json:"serverId,omitempty"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Secret   string `json:"secret,omitempty"`
}

// PortSchedule names a weekly on/off schedule referenced by ports and
// access policies.
type PortSchedule struct {
	ID               string          `json:"id,omitempty"`
	Name             string          `json:"name"`
	PortScheduleDays json.RawMessage `json:"portSchedule,omitempty"`
}

// QoSRule classifies traffic to a DSCP value.
type QoSRule struct {
	ID       string `json:"id,omitempty"`
	Vlan     *int   `json:"vlan,omitempty"`
	Protocol string `json:"protocol,omitempty"`
	SrcPort  *int   `json:"srcPort,omitempty"`
	DstPort  *int   `json:"dstPort,omitempty"`
	DSCP     int    `json:"dscp"`
}

// LinkAggregation bonds switch ports; each member references a device by
// serial, which must be remapped to the target device.
type LinkAggregation struct {
	ID          string                `json:"id,omitempty"`
	SwitchPorts []LinkAggregationPort `json:"switchPorts,omitempty"`
}

// LinkAggregationPort is one member of a link aggregation group.
type LinkAggregationPort struct {
	Serial string `json:"serial"`
	PortID string `json:"portId"`
}

// STP is the network-level spanning tree configuration. Bridge priority
// stanzas reference devices by serial.
type STP struct {
	RstpEnabled       *bool               `json:"rstpEnabled,omitempty"`
	StpBridgePriority []STPBridgePriority `json:"stpBridgePriority,omitempty"`
}

// STPBridgePriority assigns a priority to a set of switches or stacks.
type STPBridgePriority struct {
	Switches    []string `json:"switches,omitempty"`
	Stacks      []string `json:"stacks,omitempty"`
	StpPriority int      `json:"stpPriority"`
}

// WarmSpare is the per-device warm spare configuration. The primary/spare
// serial pair cannot be restored automatically.
type WarmSpare struct {
	Enabled            bool   `json:"enabled"`
	PrimarySerial      string `json:"primarySerial,omitempty"`
	SpareSerial        string `json:"spareSerial,omitempty"`
	UplinkMode         string `json:"uplinkMode,omitempty"`
	VirtualIP1         string `json:"virtualIp1,omitempty"`
	VirtualIP2         string `json:"virtualIp2,omitempty"`
	SwitchSerialNumber string `json:"switchSerialNumber,omitempty"`
}

// SwitchStack is informational only; stack membership cannot be restored
// through the API.
type SwitchStack struct {
	ID      string   `json:"id,omitempty"`
	Name    string   `json:"name,omitempty"`
	Serials []string `json:"serials,omitempty"`
}
