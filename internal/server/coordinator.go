// Package server drives a Server entity through its lifecycle: vendor
// creation, IP assignment, configuration-management provisioning, retry,
// and deletion with remote cleanup.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/halyard-dev/halyard/internal/cloud"
	"github.com/halyard-dev/halyard/internal/domain"
	"github.com/halyard-dev/halyard/internal/providers"
	"github.com/halyard-dev/halyard/internal/provision"
	"github.com/halyard-dev/halyard/internal/sshkeys"
	"github.com/halyard-dev/halyard/internal/store"
	"github.com/halyard-dev/halyard/internal/tunnel"
)

// ProgressEvent describes one step in a long-running operation.
type ProgressEvent struct {
	Step    int    `json:"step,omitempty"`
	Total   int    `json:"total,omitempty"`
	Label   string `json:"label"`
	Status  string `json:"status"` // "running", "completed", "failed"
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// ProgressFunc is a callback for reporting progress. CLI callers print to
// stdout; the shell forwards events to its own channel.
type ProgressFunc func(ProgressEvent)

// Coordinator centralises server lifecycle logic. Distinct servers may be
// driven concurrently; no state is shared beyond the store.
type Coordinator struct {
	store  *store.Store
	runner *provision.Runner
	keyDir string

	// Adapter factories, overridable in tests.
	vpsFor    func(*domain.Integration) (cloud.VPSProvider, error)
	tunnelFor func(*domain.Integration) (*tunnel.Manager, error)

	pollInterval time.Duration
	pollTimeout  time.Duration
}

func NewCoordinator(st *store.Store, runner *provision.Runner, keyDir string) *Coordinator {
	return &Coordinator{
		store:  st,
		runner: runner,
		keyDir: keyDir,
		vpsFor: providers.VPS,
		tunnelFor: func(i *domain.Integration) (*tunnel.Manager, error) {
			tp, err := providers.Tunnel(i)
			if err != nil {
				return nil, err
			}
			dp, err := providers.DNS(i)
			if err != nil {
				return nil, err
			}
			return tunnel.NewManager(tp, dp), nil
		},
		pollInterval: 10 * time.Second,
		pollTimeout:  5 * time.Minute,
	}
}

// CreateOptions describes a new server. IntegrationID empty means a custom
// (user-supplied) host; the vendor fields are then ignored and the SSH
// fields are required.
type CreateOptions struct {
	Name          string
	IntegrationID string

	Region string
	Size   string
	Image  string

	SSHHost string
	SSHPort int
	SSHUser string
	KeyPath string
}

// Create records a new server and, for vendor-managed servers, issues the
// vendor create call. A vendor server ends in waiting_for_ip; a custom host
// stays in created until provisioned.
func (c *Coordinator) Create(ctx context.Context, opts CreateOptions, progress ProgressFunc) (*domain.Server, error) {
	if progress == nil {
		progress = func(ProgressEvent) {}
	}

	srv := domain.NewServer(opts.Name)
	srv.SSHPort = opts.SSHPort
	srv.SSHUser = opts.SSHUser
	if srv.SSHPort == 0 {
		srv.SSHPort = 22
	}

	if opts.IntegrationID == "" {
		srv.SSHHost = opts.SSHHost
		srv.KeyPath = opts.KeyPath
		srv.AuthMethod = domain.AuthKey
		if srv.SSHHost == "" {
			return nil, fmt.Errorf("custom server requires an SSH host")
		}
		if err := c.store.SaveServer(srv); err != nil {
			return nil, fmt.Errorf("saving server: %w", err)
		}
		return srv, nil
	}

	integ, err := c.store.GetIntegration(opts.IntegrationID)
	if err != nil {
		return nil, fmt.Errorf("loading integration: %w", err)
	}
	vps, err := c.vpsFor(integ)
	if err != nil {
		return nil, err
	}

	srv.IntegrationID = integ.ID
	srv.AuthMethod = domain.AuthKey

	progress(ProgressEvent{Label: "SSH keys", Status: "running"})
	keyPath, publicKey, err := sshkeys.EnsureKeyPair(c.keyDir, srv.ID)
	if err != nil {
		return nil, err
	}
	srv.KeyPath = keyPath
	progress(ProgressEvent{Label: "SSH keys", Status: "completed"})

	progress(ProgressEvent{Label: "Creating server", Status: "running", Message: integ.Name})
	info, err := vps.CreateServer(ctx, cloud.ServerRequest{
		Name:         opts.Name,
		Region:       opts.Region,
		Size:         opts.Size,
		Image:        opts.Image,
		SSHPublicKey: publicKey,
	})
	if err != nil {
		srv.Status = domain.StatusFailed
		srv.UpdatedAt = time.Now().UTC()
		if saveErr := c.store.SaveServer(srv); saveErr != nil {
			slog.Warn("could not persist failed server", "server", srv.ID, "error", saveErr)
		}
		progress(ProgressEvent{Label: "Creating server", Status: "failed", Error: err.Error()})
		return nil, fmt.Errorf("vendor create call failed: %w", err)
	}

	srv.RemoteID = info.ID
	srv.SSHHost = info.IPv4 // usually still empty
	if err := c.transition(srv, domain.StatusWaitingForIP); err != nil {
		return nil, err
	}
	progress(ProgressEvent{Label: "Creating server", Status: "completed", Message: "server id " + info.ID})
	return srv, nil
}

// Provision moves the server to provisioning and runs the
// configuration-management tool against it. Vendor-managed servers first
// wait for their IP. The tool's exit status decides ready vs failed.
func (c *Coordinator) Provision(ctx context.Context, serverID string, progress ProgressFunc) error {
	if progress == nil {
		progress = func(ProgressEvent) {}
	}

	srv, err := c.store.GetServer(serverID)
	if err != nil {
		return fmt.Errorf("loading server: %w", err)
	}

	if srv.Status == domain.StatusWaitingForIP {
		if err := c.waitForIP(ctx, srv, progress); err != nil {
			if ferr := c.transition(srv, domain.StatusFailed); ferr != nil {
				slog.Warn("could not persist failed status", "server", srv.ID, "error", ferr)
			}
			return err
		}
	}

	if err := c.transition(srv, domain.StatusProvisioning); err != nil {
		return err
	}

	progress(ProgressEvent{Label: "Provisioning", Status: "running", Message: srv.SSHHost})
	runErr := c.runner.Run(ctx, provision.Target{
		Host:    srv.SSHHost,
		Port:    srv.SSHPort,
		User:    srv.SSHUser,
		KeyPath: srv.KeyPath,
	}, func(line string) {
		progress(ProgressEvent{Label: "Provisioning", Status: "running", Message: line})
	})

	if runErr != nil {
		if err := c.transition(srv, domain.StatusFailed); err != nil {
			slog.Warn("could not persist failed status", "server", srv.ID, "error", err)
		}
		progress(ProgressEvent{Label: "Provisioning", Status: "failed", Error: runErr.Error()})
		return fmt.Errorf("provisioning %s: %w", srv.SSHHost, runErr)
	}

	if err := c.transition(srv, domain.StatusReady); err != nil {
		return err
	}
	progress(ProgressEvent{Label: "Provisioning", Status: "completed"})
	return nil
}

// Retry re-runs provisioning on a failed server without recreating the
// vendor resource.
func (c *Coordinator) Retry(ctx context.Context, serverID string, progress ProgressFunc) error {
	srv, err := c.store.GetServer(serverID)
	if err != nil {
		return fmt.Errorf("loading server: %w", err)
	}
	if srv.Status != domain.StatusFailed {
		return fmt.Errorf("server %s is %s, only failed servers can be retried", serverID, srv.Status)
	}
	return c.Provision(ctx, serverID, progress)
}

// Delete removes the server's remote state (tunnel, DNS record, vendor
// server) and then the local record. With force, failures to clean up
// remote state are accepted as already-orphaned and logged instead of
// blocking the delete.
func (c *Coordinator) Delete(ctx context.Context, serverID string, force bool, progress ProgressFunc) error {
	if progress == nil {
		progress = func(ProgressEvent) {}
	}

	srv, err := c.store.GetServer(serverID)
	if err != nil {
		return fmt.Errorf("loading server: %w", err)
	}

	if srv.TunnelID != "" {
		if err := c.teardownTunnel(ctx, srv, progress); err != nil {
			if !force {
				return err
			}
			slog.Warn("accepting orphaned tunnel state", "server", srv.ID, "error", err)
		}
	}

	if !srv.IsCustom() && srv.RemoteID != "" {
		progress(ProgressEvent{Label: "Deleting vendor server", Status: "running"})
		integ, err := c.store.GetIntegration(srv.IntegrationID)
		if err == nil {
			var vps cloud.VPSProvider
			vps, err = c.vpsFor(integ)
			if err == nil {
				err = vps.DeleteServer(ctx, srv.RemoteID)
			}
		}
		if err != nil {
			progress(ProgressEvent{Label: "Deleting vendor server", Status: "failed", Error: err.Error()})
			if !force {
				return fmt.Errorf("deleting vendor server: %w", err)
			}
			slog.Warn("accepting orphaned vendor server", "server", srv.ID, "error", err)
		} else {
			progress(ProgressEvent{Label: "Deleting vendor server", Status: "completed"})
		}
	}

	if err := c.store.DeleteServer(srv.ID); err != nil {
		return fmt.Errorf("deleting server record: %w", err)
	}
	return nil
}

func (c *Coordinator) teardownTunnel(ctx context.Context, srv *domain.Server, progress ProgressFunc) error {
	t, err := c.store.GetTunnel(srv.TunnelID)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("loading tunnel: %w", err)
	}

	integ, err := c.store.GetIntegration(t.IntegrationID)
	if err != nil {
		return fmt.Errorf("loading tunnel integration: %w", err)
	}
	mgr, err := c.tunnelFor(integ)
	if err != nil {
		return err
	}

	progress(ProgressEvent{Label: "Removing tunnel", Status: "running", Message: t.Hostname})
	if err := mgr.Teardown(ctx, t); err != nil {
		progress(ProgressEvent{Label: "Removing tunnel", Status: "failed", Error: err.Error()})
		return err
	}
	if err := c.store.DeleteTunnel(t.ID); err != nil {
		return fmt.Errorf("deleting tunnel record: %w", err)
	}
	progress(ProgressEvent{Label: "Removing tunnel", Status: "completed"})
	return nil
}

// waitForIP polls the vendor until an address is assigned, then records it.
func (c *Coordinator) waitForIP(ctx context.Context, srv *domain.Server, progress ProgressFunc) error {
	integ, err := c.store.GetIntegration(srv.IntegrationID)
	if err != nil {
		return fmt.Errorf("loading integration: %w", err)
	}
	vps, err := c.vpsFor(integ)
	if err != nil {
		return err
	}

	deadline := time.Now().Add(c.pollTimeout)
	for {
		info, err := vps.GetServer(ctx, srv.RemoteID)
		if err != nil {
			// Transient vendor failures just extend the wait.
			if !cloud.ShouldRetry(err) {
				return fmt.Errorf("checking server state: %w", err)
			}
			slog.Warn("server state check failed, retrying", "server", srv.ID, "error", err)
			info = &cloud.ServerInfo{}
		}
		if info.IPv4 != "" {
			srv.SSHHost = info.IPv4
			srv.UpdatedAt = time.Now().UTC()
			if err := c.store.SaveServer(srv); err != nil {
				return fmt.Errorf("saving server: %w", err)
			}
			progress(ProgressEvent{Label: "Waiting for IP", Status: "completed", Message: info.IPv4})
			return nil
		}

		if time.Now().After(deadline) {
			return fmt.Errorf("timeout: server %s has no IP after %s", srv.RemoteID, c.pollTimeout)
		}
		progress(ProgressEvent{Label: "Waiting for IP", Status: "running"})

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.pollInterval):
		}
	}
}

// transition validates and persists a status change.
func (c *Coordinator) transition(srv *domain.Server, next domain.ServerStatus) error {
	if !srv.Status.CanTransitionTo(next) {
		return fmt.Errorf("illegal status transition from %s to %s", srv.Status, next)
	}
	srv.Status = next
	srv.UpdatedAt = time.Now().UTC()
	if err := c.store.SaveServer(srv); err != nil {
		return fmt.Errorf("saving server: %w", err)
	}
	return nil
}
