package restore

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asipanicisco/meraki-migration/internal/meraki"
	"github.com/asipanicisco/meraki-migration/internal/snapshot"
)

// fakeTarget is an initially-empty destination network that assigns fresh
// identifiers to created resources and records every call in order.
type fakeTarget struct {
	mu       sync.Mutex
	calls    []string // "METHOD path"
	bodies   map[string][]json.RawMessage
	nextID   int
	failPath map[string]int // path → HTTP status to force
	offline  map[string]bool
}

func newFakeTarget() *fakeTarget {
	return &fakeTarget{
		bodies:   make(map[string][]json.RawMessage),
		nextID:   11,
		failPath: make(map[string]int),
		offline:  make(map[string]bool),
	}
}

func (f *fakeTarget) record(r *http.Request) json.RawMessage {
	body, _ := json.Marshal(nil)
	if r.Body != nil {
		raw := json.RawMessage{}
		if err := json.NewDecoder(r.Body).Decode(&raw); err == nil {
			body = raw
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	key := r.Method + " " + r.URL.Path
	f.calls = append(f.calls, key)
	f.bodies[key] = append(f.bodies[key], body)
	return body
}

func (f *fakeTarget) assignID() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	return fmt.Sprintf("%d", f.nextID)
}

func (f *fakeTarget) lastBody(t *testing.T, key string) map[string]any {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	bodies := f.bodies[key]
	require.NotEmpty(t, bodies, "no request recorded for %s", key)
	var m map[string]any
	require.NoError(t, json.Unmarshal(bodies[len(bodies)-1], &m))
	return m
}

func (f *fakeTarget) callIndex(substr string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, c := range f.calls {
		if strings.Contains(c, substr) {
			return i
		}
	}
	return -1
}

func (f *fakeTarget) serve(w http.ResponseWriter, r *http.Request) {
	if status, ok := f.failPath[r.Method+" "+r.URL.Path]; ok {
		f.record(r)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"errors":["forced failure"]}`))
		return
	}

	body := f.record(r)
	path := r.URL.Path

	switch {
	case r.Method == http.MethodGet && path == "/networks/N_dst":
		_, _ = w.Write([]byte(`{"id":"N_dst","name":"Campus-new","productTypes":["switch"]}`))

	case r.Method == http.MethodGet && strings.HasPrefix(path, "/devices/") && strings.Count(path, "/") == 2:
		serial := strings.TrimPrefix(path, "/devices/")
		status := "online"
		if f.offline[serial] {
			status = "offline"
		}
		fmt.Fprintf(w, `{"serial":%q,"status":%q}`, serial, status)

	case r.Method == http.MethodGet && strings.HasSuffix(path, "/switch/routing/interfaces"):
		// the target always has a pre-existing VLAN 1 interface
		_, _ = w.Write([]byte(`[{"interfaceId":"1","name":"vlan1","vlanId":1,"subnet":"192.168.128.0/24","interfaceIp":"192.168.128.1"}]`))

	case r.Method == http.MethodPost:
		// echo the body back with a fresh server-assigned identifier
		var m map[string]any
		_ = json.Unmarshal(body, &m)
		id := f.assignID()
		switch {
		case strings.HasSuffix(path, "/switch/accessPolicies"):
			m["accessPolicyNumber"] = json.Number(id)
		case strings.HasSuffix(path, "/radiusServers"):
			m["serverId"] = id
		case strings.HasSuffix(path, "/routing/interfaces"):
			m["interfaceId"] = id
		case strings.HasSuffix(path, "/routing/staticRoutes"):
			m["staticRouteId"] = id
		case strings.HasSuffix(path, "/rendezvousPoints"):
			m["rendezvousPointId"] = id
		default:
			m["id"] = id
		}
		_ = json.NewEncoder(w).Encode(m)

	case r.Method == http.MethodGet:
		w.WriteHeader(http.StatusNotFound)

	default: // PUT
		_, _ = w.Write(body)
	}
}

func testRestorer(srv *httptest.Server) *Restorer {
	client := meraki.New("k")
	client.BaseURL = srv.URL
	client.HTTPClient = srv.Client()
	client.Attempts = 1
	r := New(client, nil)
	r.newSecret = func() string { return "REPLACE-ME-fixed" }
	return r
}

// switchSnapshot is the concrete scenario: one switch with VLAN 1 and
// VLAN 10 interfaces and a static route referencing VLAN 10's interface "5".
func switchSnapshot() *snapshot.Snapshot {
	snap := &snapshot.Snapshot{
		SourceNetworkID:   "N_src",
		SourceNetworkName: "Campus",
		Devices:           []snapshot.Device{{Serial: "OLD-1", Model: "MS250-48", Name: "core-1"}},
		DeviceSettings: map[string]*snapshot.DeviceSettings{
			"OLD-1": {
				Info: snapshot.Device{Serial: "OLD-1", Model: "MS250-48", Name: "core-1"},
				Routing: snapshot.DeviceRouting{
					Interfaces: []snapshot.RoutingInterface{
						{InterfaceID: "1", Name: "vlan1", VlanID: 1, Subnet: "10.0.1.0/24", InterfaceIP: "10.0.1.2"},
						{InterfaceID: "5", Name: "vlan10", VlanID: 10, Subnet: "10.0.10.0/24", InterfaceIP: "10.0.10.1"},
					},
					StaticRoutes: []snapshot.StaticRoute{
						{StaticRouteID: "7", Name: "dc", Subnet: "10.9.0.0/16", NextHopIP: "10.0.10.254", InterfaceID: "5"},
					},
				},
			},
		},
	}
	return snap
}

var mapping = map[string]string{"OLD-1": "NEW-1"}

func TestConcreteScenarioVlan1UpdatedVlan10Created(t *testing.T) {
	fake := newFakeTarget()
	srv := httptest.NewServer(http.HandlerFunc(fake.serve))
	defer srv.Close()

	outcome, err := testRestorer(srv).Restore(context.Background(), switchSnapshot(), "N_dst", mapping)
	require.NoError(t, err)

	// VLAN 1 updated in place against the pre-existing target interface
	assert.GreaterOrEqual(t, fake.callIndex("PUT /devices/NEW-1/switch/routing/interfaces/1"), 0)

	// VLAN 10 created fresh; the fake assigned it id "12"
	created := fake.lastBody(t, "POST /devices/NEW-1/switch/routing/interfaces")
	assert.Equal(t, "vlan10", created["name"])
	assert.NotContains(t, created, "interfaceId")

	// the restored static route references the new id, not "5"
	route := fake.lastBody(t, "POST /devices/NEW-1/switch/routing/staticRoutes")
	assert.Equal(t, "12", route["interfaceId"])
	assert.NotContains(t, route, "staticRouteId")

	assert.Equal(t, 3, outcome.Restored["interfaces"]+outcome.Restored["staticRoutes"])
	assert.Zero(t, outcome.TotalFailed())
}

func TestOrderingInterfacesBeforeDependents(t *testing.T) {
	fake := newFakeTarget()
	srv := httptest.NewServer(http.HandlerFunc(fake.serve))
	defer srv.Close()

	snap := switchSnapshot()
	dev := snap.DeviceSettings["OLD-1"]
	dev.Routing.OSPF = &snapshot.OSPF{Enabled: true, Areas: []snapshot.OSPFArea{{AreaID: "0", InterfaceIDs: []string{"5"}}}}
	dev.Routing.Multicast = &snapshot.Multicast{Overrides: []snapshot.MulticastOverride{{InterfaceIDs: []string{"5", "1"}}}}
	dev.Routing.RendezvousPoints = []snapshot.RendezvousPoint{{RendezvousPointID: "2", InterfaceID: "5", MulticastGroup: "239.1.1.1"}}
	dev.DHCP.InterfaceDHCP = []snapshot.InterfaceDHCP{{InterfaceID: "5", DHCPSettings: json.RawMessage(`{"dhcpMode":"dhcpServer"}`)}}

	_, err := testRestorer(srv).Restore(context.Background(), snap, "N_dst", mapping)
	require.NoError(t, err)

	ifaceCreate := fake.callIndex("POST /devices/NEW-1/switch/routing/interfaces")
	require.GreaterOrEqual(t, ifaceCreate, 0)
	for _, dependent := range []string{
		"/switch/routing/staticRoutes",
		"/switch/routing/ospf",
		"/switch/routing/multicast",
		"/switch/routing/multicast/rendezvousPoints",
		"/dhcp",
	} {
		idx := fake.callIndex(dependent)
		require.GreaterOrEqual(t, idx, 0, dependent)
		assert.Greater(t, idx, ifaceCreate, "%s ran before interface creation", dependent)
	}

	// rewritten references throughout
	ospf := fake.lastBody(t, "PUT /devices/NEW-1/switch/routing/ospf")
	areas := ospf["areas"].([]any)
	assert.Equal(t, []any{"12"}, areas[0].(map[string]any)["interfaceIds"])

	rp := fake.lastBody(t, "POST /devices/NEW-1/switch/routing/multicast/rendezvousPoints")
	assert.Equal(t, "12", rp["interfaceId"])
}

func TestUnmappableRouteSkippedOthersRestored(t *testing.T) {
	fake := newFakeTarget()
	srv := httptest.NewServer(http.HandlerFunc(fake.serve))
	defer srv.Close()

	snap := switchSnapshot()
	dev := snap.DeviceSettings["OLD-1"]
	dev.Routing.StaticRoutes = append(dev.Routing.StaticRoutes,
		snapshot.StaticRoute{StaticRouteID: "8", Name: "orphan", Subnet: "10.8.0.0/16", InterfaceID: "99"})

	outcome, err := testRestorer(srv).Restore(context.Background(), snap, "N_dst", mapping)
	require.NoError(t, err)

	assert.Equal(t, 1, outcome.Restored["staticRoutes"])
	assert.Equal(t, 1, outcome.Skipped["staticRoutes"])
	assert.Zero(t, outcome.Failed["staticRoutes"])

	found := false
	for _, w := range outcome.Warnings {
		if strings.Contains(w, "orphan") && strings.Contains(w, "99") {
			found = true
		}
	}
	assert.True(t, found, "expected a warning naming the skipped route, got %v", outcome.Warnings)
}

func TestPortFailureIsolated(t *testing.T) {
	fake := newFakeTarget()
	fake.failPath["PUT /devices/NEW-1/switch/ports/3"] = http.StatusBadRequest
	srv := httptest.NewServer(http.HandlerFunc(fake.serve))
	defer srv.Close()

	snap := switchSnapshot()
	dev := snap.DeviceSettings["OLD-1"]
	var ports []snapshot.SwitchPort
	for i := 1; i <= 5; i++ {
		ports = append(ports, snapshot.SwitchPort{PortID: fmt.Sprintf("%d", i), Vlan: 10})
	}
	dev.Ports, _ = json.Marshal(ports)

	outcome, err := testRestorer(srv).Restore(context.Background(), snap, "N_dst", mapping)
	require.NoError(t, err)

	assert.Equal(t, 4, outcome.Restored["ports"])
	assert.Equal(t, 1, outcome.Failed["ports"])
	// the other device-level resources were still attempted
	assert.Equal(t, 2, outcome.Restored["interfaces"])
	assert.Equal(t, 1, outcome.Restored["staticRoutes"])
}

func TestPortExtrasSurviveRestore(t *testing.T) {
	fake := newFakeTarget()
	srv := httptest.NewServer(http.HandlerFunc(fake.serve))
	defer srv.Close()

	snap := switchSnapshot()
	snap.DeviceSettings["OLD-1"].Ports = json.RawMessage(`[{
		"portId": "4",
		"name": "printer",
		"vlan": 20,
		"accessPolicyType": "MAC allow list",
		"macAllowList": ["aa:bb:cc:dd:ee:ff"],
		"daiTrusted": true,
		"stormControlEnabled": false,
		"profile": {"enabled": true, "id": "100", "iname": "office"},
		"status": "Connected",
		"speed": "1 Gbps",
		"cdp": {"platform": "x"}
	}]`)

	outcome, err := testRestorer(srv).Restore(context.Background(), snap, "N_dst", mapping)
	require.NoError(t, err)
	assert.Equal(t, 1, outcome.Restored["ports"])

	written := fake.lastBody(t, "PUT /devices/NEW-1/switch/ports/4")
	assert.Equal(t, []any{"aa:bb:cc:dd:ee:ff"}, written["macAllowList"])
	assert.Equal(t, true, written["daiTrusted"])
	assert.Equal(t, false, written["stormControlEnabled"])
	assert.Equal(t, "office", written["profile"].(map[string]any)["iname"])
	// read-only keys stripped before the write
	assert.NotContains(t, written, "portId")
	assert.NotContains(t, written, "status")
	assert.NotContains(t, written, "speed")
	assert.NotContains(t, written, "cdp")
}

func TestAccessPolicyExtrasSurviveRestore(t *testing.T) {
	fake := newFakeTarget()
	srv := httptest.NewServer(http.HandlerFunc(fake.serve))
	defer srv.Close()

	snap := &snapshot.Snapshot{DeviceSettings: map[string]*snapshot.DeviceSettings{}}
	snap.NetworkSettings.SetDomain("switch", "accessPolicies", json.RawMessage(`[{
		"accessPolicyNumber": 1,
		"name": "guest",
		"radiusGroupAttribute": "11",
		"urlRedirectWalledGardenEnabled": true,
		"urlRedirectWalledGardenRanges": ["10.0.0.0/8"],
		"radiusServers": [{"host": "10.1.1.10", "port": 1812}]
	}]`))

	outcome, err := testRestorer(srv).Restore(context.Background(), snap, "N_dst", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, outcome.Restored["accessPolicies"])

	policy := fake.lastBody(t, "POST /networks/N_dst/switch/accessPolicies")
	assert.Equal(t, "11", policy["radiusGroupAttribute"])
	assert.Equal(t, true, policy["urlRedirectWalledGardenEnabled"])
	assert.Equal(t, []any{"10.0.0.0/8"}, policy["urlRedirectWalledGardenRanges"])
	assert.NotContains(t, policy, "accessPolicyNumber")
	// the server list is the resolved one, not the captured one
	servers := policy["radiusServers"].([]any)
	require.Len(t, servers, 1)
	assert.NotEmpty(t, servers[0].(map[string]any)["serverId"])
}

func TestSnmpSettingsPassThroughWithDefaultAccess(t *testing.T) {
	fake := newFakeTarget()
	srv := httptest.NewServer(http.HandlerFunc(fake.serve))
	defer srv.Close()

	snap := &snapshot.Snapshot{DeviceSettings: map[string]*snapshot.DeviceSettings{}}
	snap.NetworkSettings.SetDomain("monitoring", "snmp", json.RawMessage(`{"users":[{"username":"ops"}]}`))

	outcome, err := testRestorer(srv).Restore(context.Background(), snap, "N_dst", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, outcome.Restored["snmp"])

	written := fake.lastBody(t, "PUT /networks/N_dst/snmp")
	assert.Equal(t, "none", written["access"])
	users := written["users"].([]any)
	assert.Equal(t, "ops", users[0].(map[string]any)["username"])
}

func TestRadiusPlaceholderWarnings(t *testing.T) {
	fake := newFakeTarget()
	srv := httptest.NewServer(http.HandlerFunc(fake.serve))
	defer srv.Close()

	snap := &snapshot.Snapshot{DeviceSettings: map[string]*snapshot.DeviceSettings{}}
	policies := []snapshot.AccessPolicy{{
		AccessPolicyNumber: "1",
		Name:               "dot1x",
		RadiusServers: []snapshot.RadiusServer{
			{Host: "10.1.1.10", Port: 1812},
			{Host: "10.1.1.11", Port: 1812},
		},
	}}
	raw, _ := json.Marshal(policies)
	snap.NetworkSettings.SetDomain("switch", "accessPolicies", raw)

	outcome, err := testRestorer(srv).Restore(context.Background(), snap, "N_dst", nil)
	require.NoError(t, err)

	assert.Equal(t, 1, outcome.Restored["accessPolicies"])
	assert.Equal(t, 2, outcome.Restored["radiusServers"])

	secretWarnings := 0
	for _, w := range outcome.Warnings {
		if strings.Contains(w, "placeholder shared secret") {
			secretWarnings++
			assert.Regexp(t, `10\.1\.1\.1[01]:1812`, w)
		}
	}
	assert.Equal(t, 2, secretWarnings)

	// the submitted policy references the created servers with placeholders
	policy := fake.lastBody(t, "POST /networks/N_dst/switch/accessPolicies")
	servers := policy["radiusServers"].([]any)
	require.Len(t, servers, 2)
	first := servers[0].(map[string]any)
	assert.NotEmpty(t, first["serverId"])
	assert.Equal(t, "REPLACE-ME-fixed", first["secret"])
}

func TestRadiusFailureDegradesPolicyWithoutBlockingIt(t *testing.T) {
	fake := newFakeTarget()
	fake.failPath["POST /networks/N_dst/switch/accessPolicies/radiusServers"] = http.StatusBadRequest
	srv := httptest.NewServer(http.HandlerFunc(fake.serve))
	defer srv.Close()

	snap := &snapshot.Snapshot{DeviceSettings: map[string]*snapshot.DeviceSettings{}}
	policies := []snapshot.AccessPolicy{{
		AccessPolicyNumber: "1",
		Name:               "dot1x",
		RadiusServers:      []snapshot.RadiusServer{{Host: "10.1.1.10", Port: 1812}},
	}}
	raw, _ := json.Marshal(policies)
	snap.NetworkSettings.SetDomain("switch", "accessPolicies", raw)

	outcome, err := testRestorer(srv).Restore(context.Background(), snap, "N_dst", nil)
	require.NoError(t, err)

	// the policy is still submitted, with no servers
	assert.Equal(t, 1, outcome.Restored["accessPolicies"])
	assert.Equal(t, 1, outcome.Failed["radiusServers"])
	policy := fake.lastBody(t, "POST /networks/N_dst/switch/accessPolicies")
	assert.Empty(t, policy["radiusServers"])
}

func TestNetworkOrderSchedulesBeforePolicies(t *testing.T) {
	fake := newFakeTarget()
	srv := httptest.NewServer(http.HandlerFunc(fake.serve))
	defer srv.Close()

	snap := &snapshot.Snapshot{DeviceSettings: map[string]*snapshot.DeviceSettings{}}
	snap.NetworkSettings.SetDomain("switch", "portSchedules", json.RawMessage(`[{"id":"800","name":"Weekdays"}]`))
	snap.NetworkSettings.SetDomain("switch", "accessPolicies", json.RawMessage(`[{"accessPolicyNumber":1,"name":"p"}]`))
	snap.NetworkSettings.SetDomain("switch", "stp", json.RawMessage(`{"rstpEnabled":true}`))

	_, err := testRestorer(srv).Restore(context.Background(), snap, "N_dst", nil)
	require.NoError(t, err)

	schedIdx := fake.callIndex("POST /networks/N_dst/switch/portSchedules")
	policyIdx := fake.callIndex("POST /networks/N_dst/switch/accessPolicies")
	stpIdx := fake.callIndex("PUT /networks/N_dst/switch/stp")
	require.GreaterOrEqual(t, schedIdx, 0)
	assert.Less(t, schedIdx, policyIdx)
	assert.Less(t, policyIdx, stpIdx)
}

func TestMTUSkippedOnNonSwitchTarget(t *testing.T) {
	fake := newFakeTarget()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet && r.URL.Path == "/networks/N_dst" {
			fake.record(r)
			_, _ = w.Write([]byte(`{"id":"N_dst","name":"Branch","productTypes":["wireless"]}`))
			return
		}
		fake.serve(w, r)
	}))
	defer srv.Close()

	snap := &snapshot.Snapshot{DeviceSettings: map[string]*snapshot.DeviceSettings{}}
	snap.NetworkSettings.SetDomain("switch", "mtu", json.RawMessage(`{"defaultMtuSize":9578}`))

	outcome, err := testRestorer(srv).Restore(context.Background(), snap, "N_dst", nil)
	require.NoError(t, err)

	assert.Equal(t, 1, outcome.Skipped["mtu"])
	assert.Zero(t, outcome.Failed["mtu"])
	assert.Equal(t, -1, fake.callIndex("PUT /networks/N_dst/switch/mtu"))
}

func TestOfflineDeviceSkipsManagementOnly(t *testing.T) {
	fake := newFakeTarget()
	fake.offline["NEW-1"] = true
	srv := httptest.NewServer(http.HandlerFunc(fake.serve))
	defer srv.Close()

	snap := switchSnapshot()
	snap.DeviceSettings["OLD-1"].Management = json.RawMessage(`{"wan1":{"usingStaticIp":false},"ddnsHostnames":{"activeDdnsHostname":"x"}}`)

	outcome, err := testRestorer(srv).Restore(context.Background(), snap, "N_dst", mapping)
	require.NoError(t, err)

	assert.Equal(t, 1, outcome.Skipped["management"])
	assert.Equal(t, -1, fake.callIndex("PUT /devices/NEW-1/managementInterface"))
	// the rest of the device still restored
	assert.Equal(t, 2, outcome.Restored["interfaces"])
}

func TestMappedSerialMissingFromSnapshotWarnsAndContinues(t *testing.T) {
	fake := newFakeTarget()
	srv := httptest.NewServer(http.HandlerFunc(fake.serve))
	defer srv.Close()

	snap := switchSnapshot()
	m := map[string]string{"OLD-1": "NEW-1", "GHOST": "NEW-2"}

	outcome, err := testRestorer(srv).Restore(context.Background(), snap, "N_dst", m)
	require.NoError(t, err)

	found := false
	for _, w := range outcome.Warnings {
		if strings.Contains(w, "GHOST") {
			found = true
		}
	}
	assert.True(t, found)
	assert.Equal(t, 2, outcome.Restored["interfaces"])
}

func TestAccessDeniedAbortsRun(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := testRestorer(srv).Restore(context.Background(), switchSnapshot(), "N_dst", mapping)
	require.Error(t, err)
	assert.True(t, meraki.IsAccessDenied(err))
}
