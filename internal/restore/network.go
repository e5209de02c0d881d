package restore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/asipanicisco/meraki-migration/internal/catalog"
	"github.com/asipanicisco/meraki-migration/internal/meraki"
	"github.com/asipanicisco/meraki-migration/internal/snapshot"
)

// restoreNetworkSettings replays network-level resources in producer-before-
// consumer order: schedules and QoS first, then aggregations and access
// policies, then STP/MTU, then the order-independent scalars.
func (rn *run) restoreNetworkSettings(ctx context.Context, snap *snapshot.Snapshot) error {
	rn.Logger.Info("restoring network-level settings")
	sw := snap.NetworkSettings.Switch

	if err := rn.restorePortSchedules(ctx, sw["portSchedules"]); err != nil {
		return err
	}
	if err := rn.restoreQoSRules(ctx, sw["qosRules"]); err != nil {
		return err
	}
	if err := rn.restoreLinkAggregations(ctx, sw["linkAggregations"]); err != nil {
		return err
	}
	if err := rn.restoreAccessPolicies(ctx, sw["accessPolicies"]); err != nil {
		return err
	}
	if err := rn.restoreSTP(ctx, sw["stp"]); err != nil {
		return err
	}
	if err := rn.restoreMTU(ctx, sw["mtu"]); err != nil {
		return err
	}
	return rn.restoreRemainingSettings(ctx, snap)
}

func (rn *run) restorePortSchedules(ctx context.Context, raw json.RawMessage) error {
	if raw == nil {
		return nil
	}
	var schedules []snapshot.PortSchedule
	if err := json.Unmarshal(raw, &schedules); err != nil {
		rn.ledger.Failed("portSchedules")
		rn.Logger.Error("could not decode port schedules", "error", err)
		return nil
	}

	for _, sched := range schedules {
		oldID := sched.ID
		sched.ID = ""

		created, err := rn.Client.Create(ctx, rn.path("portSchedules"), sched)
		if err != nil && meraki.IsConflict(err) {
			// name collision: reuse the target's schedule of the same name
			if existing := rn.findScheduleByName(ctx, sched.Name); existing != "" {
				rn.tables.PortSchedules.Record(oldID, existing)
				rn.ledger.Restored("portSchedules")
				rn.Logger.Info("reused existing port schedule", "name", sched.Name, "id", existing)
				continue
			}
		}
		if err == nil {
			var got snapshot.PortSchedule
			if jerr := json.Unmarshal(created, &got); jerr == nil {
				rn.tables.PortSchedules.Record(oldID, got.ID)
			}
		}
		if aerr := rn.account("portSchedules", sched.Name, err); aerr != nil {
			return aerr
		}
	}
	return nil
}

func (rn *run) findScheduleByName(ctx context.Context, name string) string {
	res, err := rn.Client.Read(ctx, rn.path("portSchedules"))
	if err != nil || res.Absent {
		return ""
	}
	var existing []snapshot.PortSchedule
	if err := json.Unmarshal(res.Value, &existing); err != nil {
		return ""
	}
	for _, s := range existing {
		if s.Name == name {
			return s.ID
		}
	}
	return ""
}

func (rn *run) restoreQoSRules(ctx context.Context, raw json.RawMessage) error {
	if raw == nil {
		return nil
	}
	var rules []snapshot.QoSRule
	if err := json.Unmarshal(raw, &rules); err != nil {
		rn.ledger.Failed("qosRules")
		rn.Logger.Error("could not decode QoS rules", "error", err)
		return nil
	}

	for i, rule := range rules {
		oldID := rule.ID
		rule.ID = ""

		created, err := rn.Client.Create(ctx, rn.path("qosRules"), rule)
		if err == nil {
			var got snapshot.QoSRule
			if jerr := json.Unmarshal(created, &got); jerr == nil {
				rn.tables.QoSRules.Record(oldID, got.ID)
			}
		}
		if aerr := rn.account("qosRules", fmt.Sprintf("rule %d", i+1), err); aerr != nil {
			return aerr
		}
	}
	return nil
}

func (rn *run) restoreLinkAggregations(ctx context.Context, raw json.RawMessage) error {
	if raw == nil {
		return nil
	}
	var aggs []snapshot.LinkAggregation
	if err := json.Unmarshal(raw, &aggs); err != nil {
		rn.ledger.Failed("linkAggregations")
		rn.Logger.Error("could not decode link aggregations", "error", err)
		return nil
	}

	for _, agg := range aggs {
		oldID := agg.ID
		agg.ID = ""

		// member ports reference devices by serial; remap through the
		// device mapping and drop members whose device did not migrate
		var members []snapshot.LinkAggregationPort
		for _, member := range agg.SwitchPorts {
			newSerial, ok := rn.mapping[member.Serial]
			if !ok {
				rn.ledger.Warnf("link aggregation member %s/%s dropped: device not in mapping", member.Serial, member.PortID)
				continue
			}
			members = append(members, snapshot.LinkAggregationPort{Serial: newSerial, PortID: member.PortID})
		}
		if len(members) == 0 {
			rn.ledger.Skipped("linkAggregations")
			rn.Logger.Warn("link aggregation skipped: no members resolved", "id", oldID)
			continue
		}
		agg.SwitchPorts = members

		created, err := rn.Client.Create(ctx, rn.path("linkAggregations"), agg)
		if err == nil {
			var got snapshot.LinkAggregation
			if jerr := json.Unmarshal(created, &got); jerr == nil {
				rn.tables.LinkAggregations.Record(oldID, got.ID)
			}
		}
		if aerr := rn.account("linkAggregations", oldID, err); aerr != nil {
			return aerr
		}
	}
	return nil
}

// restoreAccessPolicies runs the RADIUS sub-protocol: every embedded RADIUS
// server is created (or matched by host:port) with a placeholder secret and
// recorded before its owning policy is submitted. Server failures degrade
// the policy, they do not block it.
func (rn *run) restoreAccessPolicies(ctx context.Context, raw json.RawMessage) error {
	if raw == nil {
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		rn.ledger.Failed("accessPolicies")
		rn.Logger.Error("could not decode access policies", "error", err)
		return nil
	}

	existing := rn.existingRadiusServers(ctx)

	for _, item := range items {
		var policy snapshot.AccessPolicy
		if err := json.Unmarshal(item, &policy); err != nil {
			rn.ledger.Failed("accessPolicies")
			rn.Logger.Error("could not decode access policy", "error", err)
			continue
		}
		oldNumber := policy.AccessPolicyNumber.String()

		servers, err := rn.resolveRadiusServers(ctx, policy.RadiusServers, existing)
		if err != nil {
			return err
		}
		accounting, err := rn.resolveRadiusServers(ctx, policy.RadiusAccountingServers, existing)
		if err != nil {
			return err
		}

		// submit the captured object verbatim, minus the old identifier,
		// with the resolved server lists overlaid
		var body map[string]any
		_ = json.Unmarshal(item, &body)
		delete(body, "accessPolicyNumber")
		if len(servers) > 0 {
			body["radiusServers"] = servers
		} else {
			delete(body, "radiusServers")
		}
		if len(accounting) > 0 {
			body["radiusAccountingServers"] = accounting
		} else {
			delete(body, "radiusAccountingServers")
		}

		created, cerr := rn.Client.Create(ctx, rn.path("accessPolicies"), body)
		if cerr == nil {
			var got snapshot.AccessPolicy
			if jerr := json.Unmarshal(created, &got); jerr == nil {
				rn.tables.AccessPolicies.Record(oldNumber, got.AccessPolicyNumber.String())
			}
		}
		if aerr := rn.account("accessPolicies", policy.Name, cerr); aerr != nil {
			return aerr
		}
	}
	return nil
}

// existingRadiusServers indexes the target's RADIUS servers by host:port so
// equivalent servers are reused instead of duplicated.
func (rn *run) existingRadiusServers(ctx context.Context) map[string]string {
	index := make(map[string]string)
	res, err := rn.Client.Read(ctx, catalog.RadiusServersPath(rn.networkID))
	if err != nil || res.Absent {
		return index
	}
	var servers []snapshot.RadiusServer
	if err := json.Unmarshal(res.Value, &servers); err != nil {
		return index
	}
	for _, s := range servers {
		index[hostPort(s)] = s.ServerID
	}
	return index
}

func (rn *run) resolveRadiusServers(ctx context.Context, servers []snapshot.RadiusServer, existing map[string]string) ([]snapshot.RadiusServer, error) {
	var resolved []snapshot.RadiusServer
	for _, server := range servers {
		oldKey := radiusKey(server)

		if id, ok := existing[hostPort(server)]; ok && id != "" {
			rn.tables.RadiusServers.Record(oldKey, id)
			server.ServerID = id
			server.Secret = ""
			resolved = append(resolved, server)
			rn.Logger.Info("reused existing RADIUS server", "host", server.Host, "port", server.Port)
			continue
		}

		// the real shared secret is never retrievable from the source;
		// synthesize a placeholder the operator must replace
		server.ServerID = ""
		server.Secret = rn.newSecret()

		created, err := rn.Client.Create(ctx, catalog.RadiusServersPath(rn.networkID), server)
		if err != nil {
			if meraki.IsAccessDenied(err) {
				return nil, err
			}
			rn.ledger.Failed("radiusServers")
			rn.ledger.Warnf("RADIUS server %s:%d could not be created; the policy was submitted without it", server.Host, server.Port)
			rn.Logger.Error("RADIUS server creation failed", "host", server.Host, "port", server.Port, "error", err)
			continue
		}

		var got snapshot.RadiusServer
		if jerr := json.Unmarshal(created, &got); jerr == nil && got.ServerID != "" {
			server.ServerID = got.ServerID
			rn.tables.RadiusServers.Record(oldKey, got.ServerID)
			existing[hostPort(server)] = got.ServerID
		}
		rn.ledger.Restored("radiusServers")
		// mandatory operator-facing side effect, one warning per created server
		rn.ledger.Warnf("RADIUS server %s:%d was created with a placeholder shared secret; replace it before the access policy is usable", server.Host, server.Port)
		resolved = append(resolved, server)
	}
	return resolved, nil
}

func hostPort(s snapshot.RadiusServer) string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

func radiusKey(s snapshot.RadiusServer) string {
	if s.ServerID != "" {
		return s.ServerID
	}
	return hostPort(s)
}

func (rn *run) restoreSTP(ctx context.Context, raw json.RawMessage) error {
	if raw == nil {
		return nil
	}
	var stp snapshot.STP
	if err := json.Unmarshal(raw, &stp); err != nil {
		rn.ledger.Failed("stp")
		rn.Logger.Error("could not decode STP settings", "error", err)
		return nil
	}

	// bridge priority stanzas reference source switches by serial and source
	// stacks by ID; neither exists on the target unless remapped
	var stanzas []snapshot.STPBridgePriority
	for _, bp := range stp.StpBridgePriority {
		var switches []string
		for _, serial := range bp.Switches {
			if newSerial, ok := rn.mapping[serial]; ok {
				switches = append(switches, newSerial)
			} else {
				rn.ledger.Warnf("STP bridge priority for switch %s dropped: device not in mapping", serial)
			}
		}
		if len(bp.Stacks) > 0 {
			rn.ledger.Warnf("STP bridge priority for %d stack(s) dropped: stacks must be rebuilt manually", len(bp.Stacks))
		}
		if len(switches) == 0 {
			continue
		}
		stanzas = append(stanzas, snapshot.STPBridgePriority{Switches: switches, StpPriority: bp.StpPriority})
	}
	stp.StpBridgePriority = stanzas

	_, err := rn.Client.Write(ctx, rn.path("stp"), stp)
	return rn.account("stp", "stp", err)
}

// restoreMTU only applies when the target network's product types include
// switch; anything else is not applicable, not a failure.
func (rn *run) restoreMTU(ctx context.Context, raw json.RawMessage) error {
	if raw == nil {
		return nil
	}
	if !rn.target.HasProductType("switch") {
		rn.ledger.Skipped("mtu")
		rn.Logger.Info("MTU not applicable: target has no switch product type", "productTypes", rn.target.ProductTypes)
		return nil
	}

	body := stripKeys(raw, "warnings", "errors")
	_, err := rn.Client.Write(ctx, rn.path("mtu"), body)
	return rn.account("mtu", "mtu", err)
}

// restoreRemainingSettings replays every catalog resource not handled by an
// ordered step above. They carry no cross-references, so order within this
// step does not matter: collections are re-created item by item, scalars
// are written in place.
func (rn *run) restoreRemainingSettings(ctx context.Context, snap *snapshot.Snapshot) error {
	ordered := map[string]bool{
		"portSchedules": true, "qosRules": true, "linkAggregations": true,
		"accessPolicies": true, "stp": true, "mtu": true,
	}

	for _, res := range catalog.NetworkResources() {
		if ordered[res.Name] {
			continue
		}
		domain := snap.NetworkSettings.Domain(string(res.Domain))
		raw, ok := domain[res.Name]
		if !ok {
			continue
		}

		// warm spare carries a primary/spare serial pair that cannot be
		// restored automatically
		if res.Name == "warmSpare" {
			rn.ledger.Skipped(res.Name)
			rn.ledger.Warnf("network warm spare was not restored: reconfigure the primary/spare pair manually")
			continue
		}

		if res.Collection {
			if err := rn.restoreGenericCollection(ctx, res, raw); err != nil {
				return err
			}
			continue
		}

		var body any = raw
		if res.Name == "snmp" {
			body = ensureKey(raw, "access", "none")
		}
		_, err := rn.Client.Write(ctx, res.PathFor(rn.networkID), body)
		if aerr := rn.account(res.Name, res.Name, err); aerr != nil {
			return aerr
		}
	}
	return nil
}

func (rn *run) restoreGenericCollection(ctx context.Context, res catalog.Resource, raw json.RawMessage) error {
	var items []map[string]any
	if err := json.Unmarshal(raw, &items); err != nil {
		rn.ledger.Failed(res.Name)
		rn.Logger.Error("could not decode collection", "resource", res.Name, "error", err)
		return nil
	}
	for i, item := range items {
		if res.IDField != "" {
			delete(item, res.IDField)
		}
		_, err := rn.Client.Create(ctx, res.PathFor(rn.networkID), item)
		if aerr := rn.account(res.Name, fmt.Sprintf("%s %d", res.Name, i+1), err); aerr != nil {
			return aerr
		}
	}
	return nil
}

// stripKeys removes top-level keys from a raw JSON object. Used to drop
// read-only attributes before writing a captured value back.
func stripKeys(raw json.RawMessage, keys ...string) any {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return raw
	}
	for _, k := range keys {
		delete(m, k)
	}
	return m
}

// path resolves a network catalog resource against the target network.
func (rn *run) path(name string) string {
	res, _ := catalog.Lookup(name)
	return res.PathFor(rn.networkID)
}

// ensureKey sets a default for a missing top-level key.
func ensureKey(raw json.RawMessage, key string, value any) any {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return raw
	}
	if _, ok := m[key]; !ok {
		m[key] = value
	}
	return m
}
