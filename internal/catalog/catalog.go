package catalog

import "fmt"

// Domain groups resources the way the restore ledger reports them.
type Domain string

const (
	DomainSwitch     Domain = "switch"
	DomainRouting    Domain = "routing"
	DomainSecurity   Domain = "security"
	DomainMonitoring Domain = "monitoring"
)

// Resource describes one network-level configuration endpoint.
type Resource struct {
	Name       string // logical key, e.g. "stp", "portSchedules"
	Domain     Domain
	Path       string // path template with one %s for the network ID
	Collection bool   // true when the endpoint returns a list
	// Uncommon marks resources that return 404 on most networks. It only
	// downgrades the "absent" log line to debug; behavior is unchanged.
	Uncommon bool
	// IDField names the server-assigned identifier carried by each item of a
	// collection resource. Empty for scalar resources.
	IDField string
}

// PathFor resolves the path template against a network ID.
func (r Resource) PathFor(networkID string) string {
	return fmt.Sprintf(r.Path, networkID)
}

var networkResources = []Resource{
	// Switch domain
	{Name: "stp", Domain: DomainSwitch, Path: "/networks/%s/switch/stp"},
	{Name: "mtu", Domain: DomainSwitch, Path: "/networks/%s/switch/mtu"},
	{Name: "settings", Domain: DomainSwitch, Path: "/networks/%s/switch/settings"},
	{Name: "accessPolicies", Domain: DomainSwitch, Path: "/networks/%s/switch/accessPolicies", Collection: true, IDField: "accessPolicyNumber"},
	{Name: "portSchedules", Domain: DomainSwitch, Path: "/networks/%s/switch/portSchedules", Collection: true, IDField: "id"},
	{Name: "qosRules", Domain: DomainSwitch, Path: "/networks/%s/switch/qosRules", Collection: true, IDField: "id"},
	{Name: "stormControl", Domain: DomainSwitch, Path: "/networks/%s/switch/stormControl"},
	{Name: "dhcpServerPolicy", Domain: DomainSwitch, Path: "/networks/%s/switch/dhcpServerPolicy"},
	{Name: "dscpToCosMappings", Domain: DomainSwitch, Path: "/networks/%s/switch/dscp", Uncommon: true},
	{Name: "alternateManagementInterface", Domain: DomainSwitch, Path: "/networks/%s/switch/alternateManagementInterface", Uncommon: true},
	{Name: "linkAggregations", Domain: DomainSwitch, Path: "/networks/%s/switch/linkAggregations", Collection: true, Uncommon: true, IDField: "id"},

	// Routing domain
	{Name: "staticRoutes", Domain: DomainRouting, Path: "/networks/%s/appliance/staticRoutes", Collection: true, IDField: "staticRouteId"},
	{Name: "ospf", Domain: DomainRouting, Path: "/networks/%s/switch/routing/ospf", Uncommon: true},
	{Name: "multicast", Domain: DomainRouting, Path: "/networks/%s/switch/routing/multicast"},
	{Name: "warmSpare", Domain: DomainRouting, Path: "/networks/%s/switch/warmSpare", Uncommon: true},

	// Security domain
	{Name: "accessControlLists", Domain: DomainSecurity, Path: "/networks/%s/switch/accessControlLists"},
	{Name: "portSecurity", Domain: DomainSecurity, Path: "/networks/%s/switch/portSecurity", Uncommon: true},
	{Name: "stpGuard", Domain: DomainSecurity, Path: "/networks/%s/switch/stpGuard", Uncommon: true},

	// Monitoring domain
	{Name: "snmp", Domain: DomainMonitoring, Path: "/networks/%s/snmp"},
	{Name: "syslog", Domain: DomainMonitoring, Path: "/networks/%s/syslogServers", Collection: true},
	{Name: "netflow", Domain: DomainMonitoring, Path: "/networks/%s/netflow"},
	{Name: "alerts", Domain: DomainMonitoring, Path: "/networks/%s/alerts/settings"},
}

// NetworkResources returns the full network-level catalog. Callers must not
// mutate the returned slice.
func NetworkResources() []Resource {
	return networkResources
}

// Lookup finds a network resource by logical name.
func Lookup(name string) (Resource, bool) {
	for _, r := range networkResources {
		if r.Name == name {
			return r, true
		}
	}
	return Resource{}, false
}

// Device-level path helpers. These carry the same endpoint knowledge as the
// network catalog but are functions because every path is keyed by serial
// (and sometimes by a second identifier).

func DevicePath(serial string) string {
	return fmt.Sprintf("/devices/%s", serial)
}

func ManagementInterfacePath(serial string) string {
	return fmt.Sprintf("/devices/%s/managementInterface", serial)
}

func SwitchPortsPath(serial string) string {
	return fmt.Sprintf("/devices/%s/switch/ports", serial)
}

func SwitchPortPath(serial, portID string) string {
	return fmt.Sprintf("/devices/%s/switch/ports/%s", serial, portID)
}

func RoutingInterfacesPath(serial string) string {
	return fmt.Sprintf("/devices/%s/switch/routing/interfaces", serial)
}

func RoutingInterfacePath(serial, interfaceID string) string {
	return fmt.Sprintf("/devices/%s/switch/routing/interfaces/%s", serial, interfaceID)
}

func InterfaceDHCPPath(serial, interfaceID string) string {
	return fmt.Sprintf("/devices/%s/switch/routing/interfaces/%s/dhcp", serial, interfaceID)
}

func StaticRoutesPath(serial string) string {
	return fmt.Sprintf("/devices/%s/switch/routing/staticRoutes", serial)
}

func DeviceOSPFPath(serial string) string {
	return fmt.Sprintf("/devices/%s/switch/routing/ospf", serial)
}

func DeviceMulticastPath(serial string) string {
	return fmt.Sprintf("/devices/%s/switch/routing/multicast", serial)
}

func RendezvousPointsPath(serial string) string {
	return fmt.Sprintf("/devices/%s/switch/routing/multicast/rendezvousPoints", serial)
}

func DHCPServersPath(serial string) string {
	return fmt.Sprintf("/devices/%s/switch/dhcp/v4/servers", serial)
}

func DHCPRelaysPath(serial string) string {
	return fmt.Sprintf("/devices/%s/switch/dhcp/v4/relays", serial)
}

func DeviceWarmSparePath(serial string) string {
	return fmt.Sprintf("/devices/%s/switch/warmSpare", serial)
}

func SwitchStacksPath(networkID string) string {
	return fmt.Sprintf("/networks/%s/switch/stacks", networkID)
}

func NetworkPath(networkID string) string {
	return fmt.Sprintf("/networks/%s", networkID)
}

func NetworkDevicesPath(networkID string) string {
	return fmt.Sprintf("/networks/%s/devices", networkID)
}

func RadiusServersPath(networkID string) string {
	return fmt.Sprintf("/networks/%s/switch/accessPolicies/radiusServers", networkID)
}
