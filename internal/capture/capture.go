package capture

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/asipanicisco/meraki-migration/internal/catalog"
	"github.com/asipanicisco/meraki-migration/internal/meraki"
	"github.com/asipanicisco/meraki-migration/internal/snapshot"
)

// Source identifies the network being captured. Org and network names are
// recorded in the snapshot for operator-facing output.
type Source struct {
	OrgID       string
	OrgName     string
	NetworkID   string
	NetworkName string
}

// Capturer walks the endpoint catalog for a network and its devices and
// produces a Snapshot. Individual resource absence or failure never aborts
// the walk; only losing access to the network itself does.
type Capturer struct {
	Client *meraki.Client
	Logger hclog.Logger

	now func() time.Time // test hook
}

// New returns a Capturer.
func New(client *meraki.Client, logger hclog.Logger) *Capturer {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Capturer{Client: client, Logger: logger, now: time.Now}
}

// Capture builds a snapshot of the source network. The returned snapshot may
// be incomplete: any resource whose read failed is simply absent.
func (c *Capturer) Capture(ctx context.Context, src Source) (*snapshot.Snapshot, error) {
	c.Logger.Info("starting capture", "network", src.NetworkName, "networkId", src.NetworkID)

	snap := &snapshot.Snapshot{
		Timestamp:         c.now().UTC(),
		SourceOrgID:       src.OrgID,
		SourceOrgName:     src.OrgName,
		SourceNetworkID:   src.NetworkID,
		SourceNetworkName: src.NetworkName,
		DeviceSettings:    make(map[string]*snapshot.DeviceSettings),
	}

	// Network info and the device list are the trust anchors of the run;
	// failure here is fatal, unlike every per-resource read below.
	info, err := c.Client.Read(ctx, catalog.NetworkPath(src.NetworkID))
	if err != nil {
		return nil, fmt.Errorf("fetching network info: %w", err)
	}
	if info.Absent {
		return nil, fmt.Errorf("network %s not found", src.NetworkID)
	}
	snap.NetworkInfo = info.Value

	devices, err := c.fetchDevices(ctx, src.NetworkID)
	if err != nil {
		return nil, fmt.Errorf("listing devices: %w", err)
	}
	snap.Devices = devices
	c.Logger.Info("found devices", "count", len(devices))

	for _, res := range catalog.NetworkResources() {
		c.captureNetworkResource(ctx, src.NetworkID, res, &snap.NetworkSettings)
	}

	for _, dev := range devices {
		snap.DeviceSettings[dev.Serial] = c.captureDevice(ctx, src.NetworkID, dev)
	}

	c.Logger.Info("capture complete",
		"devices", len(snap.Devices),
		"switchSettings", len(snap.NetworkSettings.Switch),
		"routingSettings", len(snap.NetworkSettings.Routing),
		"securitySettings", len(snap.NetworkSettings.Security),
		"monitoringSettings", len(snap.NetworkSettings.Monitoring))

	return snap, nil
}

func (c *Capturer) fetchDevices(ctx context.Context, networkID string) ([]snapshot.Device, error) {
	res, err := c.Client.Read(ctx, catalog.NetworkDevicesPath(networkID))
	if err != nil {
		return nil, err
	}
	if res.Absent {
		return nil, nil
	}

	var raws []json.RawMessage
	if err := json.Unmarshal(res.Value, &raws); err != nil {
		return nil, fmt.Errorf("decoding device list: %w", err)
	}

	devices := make([]snapshot.Device, 0, len(raws))
	for _, raw := range raws {
		var dev snapshot.Device
		if err := json.Unmarshal(raw, &dev); err != nil {
			return nil, fmt.Errorf("decoding device: %w", err)
		}
		dev.Raw = raw
		devices = append(devices, dev)
	}
	return devices, nil
}

// captureNetworkResource reads one catalog entry. Absence leaves the key
// out of the snapshot entirely; a failed read is logged and likewise leaves
// the key absent.
func (c *Capturer) captureNetworkResource(ctx context.Context, networkID string, res catalog.Resource, ns *snapshot.NetworkSettings) {
	result, err := c.Client.Read(ctx, res.PathFor(networkID))
	switch {
	case err != nil:
		if res.Uncommon {
			c.Logger.Debug("could not capture resource", "domain", res.Domain, "resource", res.Name, "error", err)
		} else {
			c.Logger.Warn("could not capture resource", "domain", res.Domain, "resource", res.Name, "error", err)
		}
	case result.Absent:
		if res.Uncommon {
			c.Logger.Debug("resource not available", "domain", res.Domain, "resource", res.Name)
		} else {
			c.Logger.Info("resource not configured", "domain", res.Domain, "resource", res.Name)
		}
	default:
		ns.SetDomain(string(res.Domain), res.Name, result.Value)
		c.Logger.Info("captured resource", "domain", res.Domain, "resource", res.Name)
	}
}

func (c *Capturer) captureDevice(ctx context.Context, networkID string, dev snapshot.Device) *snapshot.DeviceSettings {
	c.Logger.Info("capturing device", "serial", dev.Serial, "model", dev.Model, "name", dev.Name)

	settings := &snapshot.DeviceSettings{Info: dev}

	if raw, ok := c.readOptional(ctx, catalog.ManagementInterfacePath(dev.Serial), "management", dev.Serial); ok {
		settings.Management = raw
	}

	// only switch-class devices carry port/routing/DHCP sub-trees
	if !dev.IsSwitch() {
		return settings
	}

	if raw, ok := c.readOptional(ctx, catalog.SwitchPortsPath(dev.Serial), "ports", dev.Serial); ok {
		// kept verbatim; restore strips the read-only keys
		settings.Ports = raw
		var ports []json.RawMessage
		if err := json.Unmarshal(raw, &ports); err == nil {
			c.Logger.Info("captured ports", "serial", dev.Serial, "count", len(ports))
		}
	}

	c.captureRouting(ctx, dev.Serial, settings)
	c.captureDHCP(ctx, dev.Serial, settings)

	if raw, ok := c.readOptional(ctx, catalog.DeviceWarmSparePath(dev.Serial), "warmSpare", dev.Serial); ok {
		var ws snapshot.WarmSpare
		if err := json.Unmarshal(raw, &ws); err == nil {
			settings.WarmSpare = &ws
		}
	}

	settings.StackInfo = c.lookupStack(ctx, networkID, dev.Serial)

	return settings
}

func (c *Capturer) captureRouting(ctx context.Context, serial string, settings *snapshot.DeviceSettings) {
	if raw, ok := c.readOptional(ctx, catalog.RoutingInterfacesPath(serial), "routing interfaces", serial); ok {
		if err := json.Unmarshal(raw, &settings.Routing.Interfaces); err != nil {
			c.Logger.Warn("could not decode routing interfaces", "serial", serial, "error", err)
		} else {
			c.Logger.Info("captured routing interfaces", "serial", serial, "count", len(settings.Routing.Interfaces))
		}
	}

	if raw, ok := c.readOptional(ctx, catalog.StaticRoutesPath(serial), "static routes", serial); ok {
		if err := json.Unmarshal(raw, &settings.Routing.StaticRoutes); err != nil {
			c.Logger.Warn("could not decode static routes", "serial", serial, "error", err)
		}
	}

	if raw, ok := c.readOptional(ctx, catalog.DeviceOSPFPath(serial), "ospf", serial); ok {
		var ospf snapshot.OSPF
		if err := json.Unmarshal(raw, &ospf); err == nil {
			settings.Routing.OSPF = &ospf
		}
	}

	if raw, ok := c.readOptional(ctx, catalog.DeviceMulticastPath(serial), "multicast", serial); ok {
		var mc snapshot.Multicast
		if err := json.Unmarshal(raw, &mc); err == nil {
			settings.Routing.Multicast = &mc
		}
	}

	if raw, ok := c.readOptional(ctx, catalog.RendezvousPointsPath(serial), "rendezvous points", serial); ok {
		if err := json.Unmarshal(raw, &settings.Routing.RendezvousPoints); err != nil {
			c.Logger.Warn("could not decode rendezvous points", "serial", serial, "error", err)
		}
	}
}

func (c *Capturer) captureDHCP(ctx context.Context, serial string, settings *snapshot.DeviceSettings) {
	if raw, ok := c.readOptional(ctx, catalog.DHCPServersPath(serial), "dhcp servers", serial); ok {
		if err := json.Unmarshal(raw, &settings.DHCP.Servers); err != nil {
			c.Logger.Warn("could not decode dhcp servers", "serial", serial, "error", err)
		}
	}

	if raw, ok := c.readOptional(ctx, catalog.DHCPRelaysPath(serial), "dhcp relays", serial); ok {
		if err := json.Unmarshal(raw, &settings.DHCP.Relays); err != nil {
			c.Logger.Warn("could not decode dhcp relays", "serial", serial, "error", err)
		}
	}

	// per-interface DHCP depends on the captured interface list; with no
	// parent list there is nothing to iterate
	for _, iface := range settings.Routing.Interfaces {
		if iface.InterfaceID == "" {
			continue
		}
		raw, ok := c.readOptional(ctx, catalog.InterfaceDHCPPath(serial, iface.InterfaceID), "interface dhcp", serial)
		if !ok {
			continue
		}
		settings.DHCP.InterfaceDHCP = append(settings.DHCP.InterfaceDHCP, snapshot.InterfaceDHCP{
			InterfaceID:  iface.InterfaceID,
			DHCPSettings: raw,
		})
	}
	if n := len(settings.DHCP.InterfaceDHCP); n > 0 {
		c.Logger.Info("captured interface dhcp", "serial", serial, "count", n)
	}
}

// lookupStack lists all stacks in the network and filters for membership of
// this serial. Best-effort: stack data is informational only, so any failure
// is absorbed silently.
func (c *Capturer) lookupStack(ctx context.Context, networkID, serial string) *snapshot.SwitchStack {
	res, err := c.Client.Read(ctx, catalog.SwitchStacksPath(networkID))
	if err != nil || res.Absent {
		return nil
	}
	var stacks []snapshot.SwitchStack
	if err := json.Unmarshal(res.Value, &stacks); err != nil {
		return nil
	}
	for _, stack := range stacks {
		for _, s := range stack.Serials {
			if s == serial {
				return &stack
			}
		}
	}
	return nil
}

// readOptional reads a device-level resource treating absence as normal.
// Returns ok=false for absence or failure. "Not supported here" rejections
// are logged at debug because most of these endpoints only exist on
// L3-capable switches; anything else is a real failure and surfaces at warn.
func (c *Capturer) readOptional(ctx context.Context, path, what, serial string) (json.RawMessage, bool) {
	res, err := c.Client.Read(ctx, path)
	if err != nil {
		if meraki.IsNotApplicable(err) {
			c.Logger.Debug("not applicable", "what", what, "serial", serial, "error", err)
		} else {
			c.Logger.Warn("could not capture", "what", what, "serial", serial, "error", err)
		}
		return nil, false
	}
	if res.Absent {
		return nil, false
	}
	return res.Value, true
}
