package server

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halyard-dev/halyard/internal/cloud"
	"github.com/halyard-dev/halyard/internal/domain"
	"github.com/halyard-dev/halyard/internal/provision"
	"github.com/halyard-dev/halyard/internal/store"
	"github.com/halyard-dev/halyard/internal/tunnel"
)

// fakeVPS is an in-memory cloud.VPSProvider. Servers get an address after
// ipAfter GetServer calls.
type fakeVPS struct {
	servers map[string]*cloud.ServerInfo
	gets    int
	ipAfter int

	failCreate bool
	failDelete bool
	deleted    []string
}

func newFakeVPS() *fakeVPS {
	return &fakeVPS{servers: map[string]*cloud.ServerInfo{}}
}

func (f *fakeVPS) ListRegions(ctx context.Context) ([]cloud.Region, error) {
	return []cloud.Region{{ID: "fsn1", Name: "Falkenstein"}}, nil
}

func (f *fakeVPS) ListSizes(ctx context.Context) ([]cloud.ServerSize, error) {
	return []cloud.ServerSize{{ID: "cx22", Cores: 2, MemoryGB: 4, DiskGB: 40}}, nil
}

func (f *fakeVPS) CreateServer(ctx context.Context, req cloud.ServerRequest) (*cloud.ServerInfo, error) {
	if f.failCreate {
		return nil, cloud.Errf(cloud.KindServerError, "create failed")
	}
	info := &cloud.ServerInfo{ID: "srv-1", Name: req.Name, Status: "initializing"}
	f.servers[info.ID] = info
	return info, nil
}

func (f *fakeVPS) GetServer(ctx context.Context, serverID string) (*cloud.ServerInfo, error) {
	info, ok := f.servers[serverID]
	if !ok {
		return nil, cloud.Errf(cloud.KindAPIError, "no such server")
	}
	f.gets++
	out := *info
	if f.gets > f.ipAfter {
		out.IPv4 = "203.0.113.7"
		out.Status = "running"
	}
	return &out, nil
}

func (f *fakeVPS) DeleteServer(ctx context.Context, serverID string) error {
	if f.failDelete {
		return cloud.Errf(cloud.KindServerError, "delete failed")
	}
	delete(f.servers, serverID)
	f.deleted = append(f.deleted, serverID)
	return nil
}

func (f *fakeVPS) ValidateCredentials(ctx context.Context) error { return nil }

// Minimal tunnel/DNS fakes for Delete's teardown path.

type nullTunnels struct{ deleted []string }

func (n *nullTunnels) CreateTunnel(ctx context.Context, name string) (*cloud.TunnelInfo, error) {
	return &cloud.TunnelInfo{ID: "t1", Name: name}, nil
}
func (n *nullTunnels) GetTunnel(ctx context.Context, id string) (*cloud.TunnelInfo, error) {
	return &cloud.TunnelInfo{ID: id}, nil
}
func (n *nullTunnels) ListTunnels(ctx context.Context) ([]cloud.TunnelInfo, error) { return nil, nil }
func (n *nullTunnels) DeleteTunnel(ctx context.Context, id string) error {
	n.deleted = append(n.deleted, id)
	return nil
}
func (n *nullTunnels) GetTunnelConfiguration(ctx context.Context, id string) ([]cloud.IngressRule, error) {
	return nil, nil
}
func (n *nullTunnels) ConfigureTunnelIngress(ctx context.Context, id string, rules []cloud.IngressRule) error {
	return nil
}

type nullDNS struct{ deleted []string }

func (n *nullDNS) ListZones(ctx context.Context) ([]cloud.Zone, error) { return nil, nil }
func (n *nullDNS) ListDNSRecords(ctx context.Context, zoneID string, f cloud.RecordFilter) ([]cloud.DNSRecord, error) {
	return nil, nil
}
func (n *nullDNS) CreateDNSRecord(ctx context.Context, zoneID string, rec cloud.DNSRecord) (*cloud.DNSRecord, error) {
	return &rec, nil
}
func (n *nullDNS) DeleteDNSRecord(ctx context.Context, zoneID, recordID string) error {
	n.deleted = append(n.deleted, recordID)
	return nil
}

type fixture struct {
	coord *Coordinator
	store *store.Store
	vps   *fakeVPS
	integ *domain.Integration
}

// newFixture wires a coordinator against fakes and a temp store. The runner
// invokes /usr/bin/true so provisioning succeeds instantly.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	integ := domain.NewHetzner("hz", "token")
	require.NoError(t, st.SaveIntegration(integ))

	vps := newFakeVPS()
	runner := &provision.Runner{Command: "true", Playbook: "site.yml"}
	coord := NewCoordinator(st, runner, filepath.Join(t.TempDir(), "keys"))
	coord.vpsFor = func(*domain.Integration) (cloud.VPSProvider, error) { return vps, nil }
	coord.pollInterval = time.Millisecond
	coord.pollTimeout = time.Second

	return &fixture{coord: coord, store: st, vps: vps, integ: integ}
}

func (fx *fixture) create(t *testing.T) *domain.Server {
	t.Helper()
	srv, err := fx.coord.Create(context.Background(), CreateOptions{
		Name:          "web-1",
		IntegrationID: fx.integ.ID,
		Region:        "fsn1",
		Size:          "cx22",
		Image:         "ubuntu-24.04",
		SSHUser:       "halyard",
	}, nil)
	require.NoError(t, err)
	return srv
}

func TestCreateVendorServer(t *testing.T) {
	fx := newFixture(t)
	srv := fx.create(t)

	assert.Equal(t, domain.StatusWaitingForIP, srv.Status)
	assert.Equal(t, "srv-1", srv.RemoteID)
	assert.NotEmpty(t, srv.KeyPath, "an SSH key pair is generated before the vendor call")

	stored, err := fx.store.GetServer(srv.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusWaitingForIP, stored.Status)
}

func TestCreateVendorFailureMarksFailed(t *testing.T) {
	fx := newFixture(t)
	fx.vps.failCreate = true

	_, err := fx.coord.Create(context.Background(), CreateOptions{
		Name:          "web-1",
		IntegrationID: fx.integ.ID,
		Region:        "fsn1",
		Size:          "cx22",
	}, nil)
	require.Error(t, err)

	servers, err := fx.store.ListServers()
	require.NoError(t, err)
	require.Len(t, servers, 1)
	assert.Equal(t, domain.StatusFailed, servers[0].Status)
}

func TestCreateCustomHost(t *testing.T) {
	fx := newFixture(t)

	srv, err := fx.coord.Create(context.Background(), CreateOptions{
		Name:    "box",
		SSHHost: "198.51.100.9",
		SSHUser: "root",
		KeyPath: "/home/u/.ssh/id_ed25519",
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCreated, srv.Status)
	assert.True(t, srv.IsCustom())

	_, err = fx.coord.Create(context.Background(), CreateOptions{Name: "no-host"}, nil)
	assert.Error(t, err)
}

func TestProvisionWaitsForIPThenSucceeds(t *testing.T) {
	fx := newFixture(t)
	fx.vps.ipAfter = 3
	srv := fx.create(t)

	require.NoError(t, fx.coord.Provision(context.Background(), srv.ID, nil))

	stored, err := fx.store.GetServer(srv.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusReady, stored.Status)
	assert.Equal(t, "203.0.113.7", stored.SSHHost)
	assert.GreaterOrEqual(t, fx.vps.gets, 4, "polled until the address appeared")
}

func TestProvisionFailureMarksFailed(t *testing.T) {
	fx := newFixture(t)
	srv := fx.create(t)
	fx.coord.runner = &provision.Runner{Command: "false", Playbook: "site.yml"}

	err := fx.coord.Provision(context.Background(), srv.ID, nil)
	require.Error(t, err)

	stored, err := fx.store.GetServer(srv.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, stored.Status)
}

func TestRetryRequiresFailedStatus(t *testing.T) {
	fx := newFixture(t)
	srv := fx.create(t)

	err := fx.coord.Retry(context.Background(), srv.ID, nil)
	require.Error(t, err, "waiting_for_ip is not retryable")

	// Fail it, then retry successfully.
	fx.coord.runner = &provision.Runner{Command: "false", Playbook: "site.yml"}
	require.Error(t, fx.coord.Provision(context.Background(), srv.ID, nil))

	fx.coord.runner = &provision.Runner{Command: "true", Playbook: "site.yml"}
	require.NoError(t, fx.coord.Retry(context.Background(), srv.ID, nil))

	stored, err := fx.store.GetServer(srv.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusReady, stored.Status)
}

func TestReadyIsTerminal(t *testing.T) {
	fx := newFixture(t)
	srv := fx.create(t)
	require.NoError(t, fx.coord.Provision(context.Background(), srv.ID, nil))

	err := fx.coord.Provision(context.Background(), srv.ID, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "illegal status transition")
}

func TestDeleteRemovesVendorServerAndTunnel(t *testing.T) {
	fx := newFixture(t)
	srv := fx.create(t)

	tunnels := &nullTunnels{}
	dns := &nullDNS{}
	fx.coord.tunnelFor = func(*domain.Integration) (*tunnel.Manager, error) {
		return tunnel.NewManager(tunnels, dns), nil
	}

	tun := domain.NewTunnel("app.example.com")
	tun.IntegrationID = fx.integ.ID
	tun.RemoteID = "f8a9b1c2-3d4e-5f60-7182-93a4b5c6d7e8"
	tun.ZoneID = "z1"
	tun.Hostname = "app.example.com"
	tun.DNSRecordID = "rec1"
	require.NoError(t, fx.store.SaveTunnel(tun))
	srv.TunnelID = tun.ID
	require.NoError(t, fx.store.SaveServer(srv))

	require.NoError(t, fx.coord.Delete(context.Background(), srv.ID, false, nil))

	assert.Equal(t, []string{"srv-1"}, fx.vps.deleted)
	assert.Equal(t, []string{tun.RemoteID}, tunnels.deleted)
	assert.Equal(t, []string{"rec1"}, dns.deleted)

	_, err := fx.store.GetServer(srv.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = fx.store.GetTunnel(tun.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestDeleteVendorFailureBlocksWithoutForce(t *testing.T) {
	fx := newFixture(t)
	srv := fx.create(t)
	fx.vps.failDelete = true

	err := fx.coord.Delete(context.Background(), srv.ID, false, nil)
	require.Error(t, err)
	_, err = fx.store.GetServer(srv.ID)
	assert.NoError(t, err, "local record kept when remote cleanup fails")

	require.NoError(t, fx.coord.Delete(context.Background(), srv.ID, true, nil))
	_, err = fx.store.GetServer(srv.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}
