package restore

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/asipanicisco/meraki-migration/internal/catalog"
	"github.com/asipanicisco/meraki-migration/internal/meraki"
	"github.com/asipanicisco/meraki-migration/internal/snapshot"
)

// restoreDevices replays per-device settings for every mapped serial. A
// mapped serial with no snapshot entry is skipped with a warning.
func (rn *run) restoreDevices(ctx context.Context, snap *snapshot.Snapshot) error {
	rn.Logger.Info("restoring device-level settings", "devices", len(rn.mapping))

	for oldSerial, newSerial := range rn.mapping {
		settings, ok := snap.DeviceSettings[oldSerial]
		if !ok {
			rn.ledger.Warnf("no captured settings for device %s; nothing to restore onto %s", oldSerial, newSerial)
			rn.Logger.Warn("no settings in snapshot for mapped device", "oldSerial", oldSerial)
			continue
		}
		if err := rn.restoreDevice(ctx, settings, newSerial); err != nil {
			return err
		}
	}
	return nil
}

// restoreDevice replays one device in strict dependency order: management,
// routing interfaces, DHCP, static routes, OSPF, multicast, warm spare,
// ports. Interfaces must exist before anything that references them.
func (rn *run) restoreDevice(ctx context.Context, settings *snapshot.DeviceSettings, newSerial string) error {
	rn.Logger.Info("restoring device", "serial", newSerial, "name", settings.Info.Name)

	if err := rn.restoreManagement(ctx, settings, newSerial); err != nil {
		return err
	}
	if err := rn.restoreInterfaces(ctx, settings, newSerial); err != nil {
		return err
	}
	if err := rn.restoreDeviceDHCP(ctx, settings, newSerial); err != nil {
		return err
	}
	if err := rn.restoreStaticRoutes(ctx, settings, newSerial); err != nil {
		return err
	}
	if err := rn.restoreOSPF(ctx, settings, newSerial); err != nil {
		return err
	}
	if err := rn.restoreMulticast(ctx, settings, newSerial); err != nil {
		return err
	}
	if err := rn.restoreWarmSpare(ctx, settings, newSerial); err != nil {
		return err
	}
	if err := rn.restorePorts(ctx, settings, newSerial); err != nil {
		return err
	}

	if settings.StackInfo != nil {
		rn.ledger.Warnf("device %s belonged to stack %q on the source; stack membership must be rebuilt manually", newSerial, settings.StackInfo.Name)
	}
	return nil
}

func (rn *run) restoreManagement(ctx context.Context, settings *snapshot.DeviceSettings, newSerial string) error {
	if settings.Management == nil {
		return nil
	}

	// an unreachable device cannot take a management write; skip, not fail
	if status := rn.deviceStatus(ctx, newSerial); status != "" && status != "online" {
		rn.ledger.Skipped("management")
		rn.ledger.Warnf("device %s is %s; management interface was not restored", newSerial, status)
		return nil
	}

	body := stripKeys(settings.Management, "ddnsHostnames", "wan1", "wan2", "serial", "mac")
	_, err := rn.Client.Write(ctx, catalog.ManagementInterfacePath(newSerial), body)
	return rn.account("management", newSerial, err)
}

func (rn *run) deviceStatus(ctx context.Context, serial string) string {
	res, err := rn.Client.Read(ctx, catalog.DevicePath(serial))
	if err != nil || res.Absent {
		return ""
	}
	var dev struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(res.Value, &dev); err != nil {
		return ""
	}
	return dev.Status
}

// restoreInterfaces creates routing interfaces and fills the interface
// translation table. The VLAN-1 interface always pre-exists on the target
// and is updated in place; any other VLAN is created, falling back to a
// match by VLAN ID when creation reports a conflict.
func (rn *run) restoreInterfaces(ctx context.Context, settings *snapshot.DeviceSettings, newSerial string) error {
	if len(settings.Routing.Interfaces) == 0 {
		return nil
	}

	existing := rn.listInterfaces(ctx, newSerial)

	for _, iface := range settings.Routing.Interfaces {
		oldID := iface.InterfaceID
		iface.InterfaceID = ""

		if iface.VlanID == 1 {
			target := findInterfaceByVlan(existing, 1)
			if target == nil {
				rn.ledger.Failed("interfaces")
				rn.Logger.Error("no pre-existing VLAN 1 interface on target", "serial", newSerial)
				continue
			}
			_, err := rn.Client.Write(ctx, catalog.RoutingInterfacePath(newSerial, target.InterfaceID), iface)
			if err == nil {
				rn.tables.Interfaces.Record(oldID, target.InterfaceID)
			}
			if aerr := rn.account("interfaces", iface.Name, err); aerr != nil {
				return aerr
			}
			continue
		}

		created, err := rn.Client.Create(ctx, catalog.RoutingInterfacesPath(newSerial), iface)
		if err != nil && meraki.IsConflict(err) {
			if match := rn.matchInterfaceByVlan(ctx, newSerial, iface.VlanID); match != nil {
				_, werr := rn.Client.Write(ctx, catalog.RoutingInterfacePath(newSerial, match.InterfaceID), iface)
				if werr == nil {
					rn.tables.Interfaces.Record(oldID, match.InterfaceID)
				}
				if aerr := rn.account("interfaces", iface.Name, werr); aerr != nil {
					return aerr
				}
				continue
			}
		}
		if err == nil {
			var got snapshot.RoutingInterface
			if jerr := json.Unmarshal(created, &got); jerr == nil {
				rn.tables.Interfaces.Record(oldID, got.InterfaceID)
			}
		}
		if aerr := rn.account("interfaces", iface.Name, err); aerr != nil {
			return aerr
		}
	}
	return nil
}

func (rn *run) listInterfaces(ctx context.Context, serial string) []snapshot.RoutingInterface {
	res, err := rn.Client.Read(ctx, catalog.RoutingInterfacesPath(serial))
	if err != nil || res.Absent {
		return nil
	}
	var ifaces []snapshot.RoutingInterface
	if err := json.Unmarshal(res.Value, &ifaces); err != nil {
		return nil
	}
	return ifaces
}

func (rn *run) matchInterfaceByVlan(ctx context.Context, serial string, vlanID int) *snapshot.RoutingInterface {
	return findInterfaceByVlan(rn.listInterfaces(ctx, serial), vlanID)
}

func findInterfaceByVlan(ifaces []snapshot.RoutingInterface, vlanID int) *snapshot.RoutingInterface {
	for i := range ifaces {
		if ifaces[i].VlanID == vlanID {
			return &ifaces[i]
		}
	}
	return nil
}

func (rn *run) restoreDeviceDHCP(ctx context.Context, settings *snapshot.DeviceSettings, newSerial string) error {
	for _, server := range settings.DHCP.Servers {
		oldID := server.ID
		server.ID = ""

		if server.InterfaceID != "" {
			newID, ok := rn.tables.Interfaces.Lookup(server.InterfaceID)
			if !ok {
				rn.ledger.Skipped("dhcp")
				rn.ledger.Warnf("DHCP server %q on %s skipped: interface %s never resolved", server.Name, newSerial, server.InterfaceID)
				continue
			}
			server.InterfaceID = newID
		}

		created, err := rn.Client.Create(ctx, catalog.DHCPServersPath(newSerial), server)
		if err == nil {
			var got snapshot.DHCPServer
			if jerr := json.Unmarshal(created, &got); jerr == nil {
				rn.tables.DHCPServers.Record(oldID, got.ID)
			}
		}
		if aerr := rn.account("dhcp", "dhcp server "+server.Name, err); aerr != nil {
			return aerr
		}
	}

	if len(settings.DHCP.Relays) > 0 {
		var relays []snapshot.DHCPRelay
		for _, relay := range settings.DHCP.Relays {
			if relay.InterfaceID != "" {
				newID, ok := rn.tables.Interfaces.Lookup(relay.InterfaceID)
				if !ok {
					rn.ledger.Warnf("DHCP relay on %s dropped: interface %s never resolved", newSerial, relay.InterfaceID)
					continue
				}
				relay.InterfaceID = newID
			}
			relays = append(relays, relay)
		}
		if len(relays) > 0 {
			_, err := rn.Client.Write(ctx, catalog.DHCPRelaysPath(newSerial), relays)
			if aerr := rn.account("dhcp", "dhcp relays", err); aerr != nil {
				return aerr
			}
		} else {
			rn.ledger.Skipped("dhcp")
		}
	}

	for _, ifDHCP := range settings.DHCP.InterfaceDHCP {
		newID, ok := rn.tables.Interfaces.Lookup(ifDHCP.InterfaceID)
		if !ok {
			rn.ledger.Skipped("dhcp")
			rn.ledger.Warnf("interface DHCP on %s skipped: interface %s never resolved", newSerial, ifDHCP.InterfaceID)
			continue
		}
		_, err := rn.Client.Write(ctx, catalog.InterfaceDHCPPath(newSerial, newID), ifDHCP.DHCPSettings)
		if aerr := rn.account("dhcp", "interface dhcp "+newID, err); aerr != nil {
			return aerr
		}
	}
	return nil
}

// restoreStaticRoutes creates routes fresh, rewriting next-hop interface
// references. A route whose interface never resolved is skipped on its own;
// it does not block the rest.
func (rn *run) restoreStaticRoutes(ctx context.Context, settings *snapshot.DeviceSettings, newSerial string) error {
	for _, route := range settings.Routing.StaticRoutes {
		oldID := route.StaticRouteID
		route.StaticRouteID = ""

		if route.InterfaceID != "" {
			newID, ok := rn.tables.Interfaces.Lookup(route.InterfaceID)
			if !ok {
				rn.ledger.Skipped("staticRoutes")
				rn.ledger.Warnf("static route %q on %s skipped: interface %s never resolved", route.Name, newSerial, route.InterfaceID)
				continue
			}
			route.InterfaceID = newID
		}

		created, err := rn.Client.Create(ctx, catalog.StaticRoutesPath(newSerial), route)
		if err == nil {
			var got snapshot.StaticRoute
			if jerr := json.Unmarshal(created, &got); jerr == nil {
				rn.tables.StaticRoutes.Record(oldID, got.StaticRouteID)
			}
		}
		if aerr := rn.account("staticRoutes", route.Name, err); aerr != nil {
			return aerr
		}
	}
	return nil
}

// restoreOSPF rewrites every area's interface list, dropping identifiers
// that never resolved rather than failing the whole update.
func (rn *run) restoreOSPF(ctx context.Context, settings *snapshot.DeviceSettings, newSerial string) error {
	ospf := settings.Routing.OSPF
	if ospf == nil {
		return nil
	}

	updated := *ospf
	updated.Areas = nil
	for _, area := range ospf.Areas {
		area.InterfaceIDs = rn.translateInterfaceList(area.InterfaceIDs, "OSPF area "+area.AreaID, newSerial)
		updated.Areas = append(updated.Areas, area)
	}

	_, err := rn.Client.Write(ctx, catalog.DeviceOSPFPath(newSerial), updated)
	return rn.account("ospf", newSerial, err)
}

func (rn *run) restoreMulticast(ctx context.Context, settings *snapshot.DeviceSettings, newSerial string) error {
	if mc := settings.Routing.Multicast; mc != nil {
		updated := *mc
		updated.Overrides = nil
		for _, ov := range mc.Overrides {
			ov.InterfaceIDs = rn.translateInterfaceList(ov.InterfaceIDs, "multicast override", newSerial)
			updated.Overrides = append(updated.Overrides, ov)
		}
		_, err := rn.Client.Write(ctx, catalog.DeviceMulticastPath(newSerial), updated)
		if aerr := rn.account("multicast", newSerial, err); aerr != nil {
			return aerr
		}
	}

	for _, rp := range settings.Routing.RendezvousPoints {
		oldID := rp.RendezvousPointID
		rp.RendezvousPointID = ""

		if rp.InterfaceID != "" {
			newID, ok := rn.tables.Interfaces.Lookup(rp.InterfaceID)
			if !ok {
				rn.ledger.Skipped("rendezvousPoints")
				rn.ledger.Warnf("rendezvous point for %s on %s skipped: interface %s never resolved", rp.MulticastGroup, newSerial, rp.InterfaceID)
				continue
			}
			rp.InterfaceID = newID
		}

		created, err := rn.Client.Create(ctx, catalog.RendezvousPointsPath(newSerial), rp)
		if err == nil {
			var got snapshot.RendezvousPoint
			if jerr := json.Unmarshal(created, &got); jerr == nil {
				rn.tables.RendezvousPoints.Record(oldID, got.RendezvousPointID)
			}
		}
		if aerr := rn.account("rendezvousPoints", rp.MulticastGroup, err); aerr != nil {
			return aerr
		}
	}
	return nil
}

// translateInterfaceList rewrites interface references through the table,
// dropping the ones that never resolved.
func (rn *run) translateInterfaceList(ids []string, what, serial string) []string {
	var out []string
	for _, id := range ids {
		newID, ok := rn.tables.Interfaces.Lookup(id)
		if !ok {
			rn.Logger.Debug("dropping unresolved interface reference", "what", what, "serial", serial, "interfaceId", id)
			continue
		}
		out = append(out, newID)
	}
	return out
}

// restoreWarmSpare writes the warm spare configuration only; the
// primary/spare serial pair is never restored automatically.
func (rn *run) restoreWarmSpare(ctx context.Context, settings *snapshot.DeviceSettings, newSerial string) error {
	ws := settings.WarmSpare
	if ws == nil {
		return nil
	}

	body := snapshot.WarmSpare{
		Enabled:    ws.Enabled,
		UplinkMode: ws.UplinkMode,
		VirtualIP1: ws.VirtualIP1,
		VirtualIP2: ws.VirtualIP2,
	}
	_, err := rn.Client.Write(ctx, catalog.DeviceWarmSparePath(newSerial), body)
	if aerr := rn.account("warmSpare", newSerial, err); aerr != nil {
		return aerr
	}
	rn.ledger.Warnf("warm spare on %s: the primary/spare serial pair must be reconfigured manually", newSerial)
	return nil
}

// portReadOnlyKeys are reported by the port endpoint but rejected on write.
var portReadOnlyKeys = []string{
	"portId", "warnings", "errors", "status", "speed", "duplex",
	"usageInKbps", "cdp", "lldp", "clientCount", "powerUsageInWh",
}

// restorePorts writes every port individually so one bad port cannot block
// the rest. Each captured port object is written back as-is minus read-only
// keys, with the port schedule and access policy references rewritten
// through the translation tables and dropped when unmappable.
func (rn *run) restorePorts(ctx context.Context, settings *snapshot.DeviceSettings, newSerial string) error {
	if settings.Ports == nil {
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(settings.Ports, &items); err != nil {
		rn.ledger.Failed("ports")
		rn.Logger.Error("could not decode ports", "serial", newSerial, "error", err)
		return nil
	}

	for _, item := range items {
		var port snapshot.SwitchPort
		if err := json.Unmarshal(item, &port); err != nil || port.PortID == "" {
			rn.ledger.Failed("ports")
			rn.Logger.Error("could not decode port", "serial", newSerial, "error", err)
			continue
		}

		var body map[string]any
		_ = json.Unmarshal(item, &body)
		for _, k := range portReadOnlyKeys {
			delete(body, k)
		}

		if port.PortScheduleID != "" {
			if newID, ok := rn.tables.PortSchedules.Lookup(port.PortScheduleID); ok {
				body["portScheduleId"] = newID
			} else {
				rn.ledger.Warnf("port %s on %s: schedule %s never resolved, reference dropped", port.PortID, newSerial, port.PortScheduleID)
				delete(body, "portScheduleId")
			}
		}
		if port.AccessPolicyNumber != 0 {
			oldNumber := strconv.Itoa(port.AccessPolicyNumber)
			if newNumber, ok := rn.tables.AccessPolicies.Lookup(oldNumber); ok {
				if n, err := strconv.Atoi(newNumber); err == nil {
					body["accessPolicyNumber"] = n
				}
			} else {
				rn.ledger.Warnf("port %s on %s: access policy %s never resolved, reference dropped", port.PortID, newSerial, oldNumber)
				delete(body, "accessPolicyNumber")
				if port.AccessPolicyType != "" {
					body["accessPolicyType"] = "Open"
				}
			}
		}

		_, err := rn.Client.Write(ctx, catalog.SwitchPortPath(newSerial, port.PortID), body)
		if aerr := rn.account("ports", "port "+port.PortID, err); aerr != nil {
			return aerr
		}
	}
	return nil
}
