package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/halyard-dev/halyard/internal/cloud"
	"github.com/halyard-dev/halyard/internal/domain"
	"github.com/halyard-dev/halyard/internal/providers"
	"github.com/halyard-dev/halyard/internal/store"
	"github.com/halyard-dev/halyard/internal/tunnel"
)

var tunnelCmd = &cobra.Command{
	Use:   "tunnel",
	Short: "Manage tunnels and their routes",
}

var tunnelSetupFlags struct {
	integration string
	zone        string
	subdomain   string
}

var tunnelSetupCmd = &cobra.Command{
	Use:   "setup <server>",
	Short: "Create a tunnel and DNS record for a server",
	Long: `Create a tunnel for the server and a proxied CNAME record routing
{subdomain}.{zone} through it. On any failure the tunnel is removed again so
no partial remote state is left behind.`,
	Args: cobra.ExactArgs(1),
	RunE: runTunnelSetup,
}

var tunnelTeardownCmd = &cobra.Command{
	Use:   "teardown <server>",
	Short: "Delete a server's tunnel and its DNS record",
	Args:  cobra.ExactArgs(1),
	RunE:  runTunnelTeardown,
}

var tunnelRouteCmd = &cobra.Command{
	Use:   "route",
	Short: "Manage hostname routes on a tunnel",
}

var tunnelRoutePort int

var tunnelRouteAddCmd = &cobra.Command{
	Use:   "add <server> <hostname>",
	Short: "Route a hostname through the server's tunnel to a local port",
	Args:  cobra.ExactArgs(2),
	RunE:  runTunnelRouteAdd,
}

var tunnelRouteRemoveCmd = &cobra.Command{
	Use:   "remove <server> <hostname>",
	Short: "Remove a hostname route from the server's tunnel",
	Args:  cobra.ExactArgs(2),
	RunE:  runTunnelRouteRemove,
}

func init() {
	f := tunnelSetupCmd.Flags()
	f.StringVar(&tunnelSetupFlags.integration, "integration", "", "tunnel-capable integration id or name")
	f.StringVar(&tunnelSetupFlags.zone, "zone", "", "DNS zone name, e.g. example.com")
	f.StringVar(&tunnelSetupFlags.subdomain, "subdomain", "", "subdomain routed through the tunnel")
	tunnelSetupCmd.MarkFlagRequired("integration")
	tunnelSetupCmd.MarkFlagRequired("zone")
	tunnelSetupCmd.MarkFlagRequired("subdomain")

	tunnelRouteAddCmd.Flags().IntVar(&tunnelRoutePort, "port", 80, "local port the hostname routes to")

	tunnelRouteCmd.AddCommand(tunnelRouteAddCmd)
	tunnelRouteCmd.AddCommand(tunnelRouteRemoveCmd)
	tunnelCmd.AddCommand(tunnelSetupCmd)
	tunnelCmd.AddCommand(tunnelTeardownCmd)
	tunnelCmd.AddCommand(tunnelRouteCmd)
	rootCmd.AddCommand(tunnelCmd)
}

// tunnelManagerFor builds the tunnel manager from a tunnel-capable
// integration, pairing its tunnel and DNS adapters.
func tunnelManagerFor(st *store.Store, ref string) (*tunnel.Manager, *domain.Integration, error) {
	integ, err := findIntegration(st, ref)
	if err != nil {
		return nil, nil, err
	}
	tp, err := providers.Tunnel(integ)
	if err != nil {
		return nil, nil, err
	}
	dp, err := providers.DNS(integ)
	if err != nil {
		return nil, nil, err
	}
	return tunnel.NewManager(tp, dp), integ, nil
}

func findZone(zones []cloud.Zone, name string) (cloud.Zone, error) {
	for _, z := range zones {
		if z.Name == name {
			return z, nil
		}
	}
	return cloud.Zone{}, fmt.Errorf("zone %q not found on this integration", name)
}

func runTunnelSetup(cmd *cobra.Command, args []string) error {
	_, st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	srv, err := findServer(st, args[0])
	if err != nil {
		return err
	}
	if srv.TunnelID != "" {
		return fmt.Errorf("server %s already has a tunnel; tear it down first", srv.Name)
	}

	mgr, integ, err := tunnelManagerFor(st, tunnelSetupFlags.integration)
	if err != nil {
		return err
	}
	dp, err := providers.DNS(integ)
	if err != nil {
		return err
	}
	zones, err := dp.ListZones(cmd.Context())
	if err != nil {
		return fmt.Errorf("listing zones: %w", err)
	}
	zone, err := findZone(zones, tunnelSetupFlags.zone)
	if err != nil {
		return err
	}

	t, err := mgr.Setup(cmd.Context(), zone, tunnelSetupFlags.subdomain)
	if err != nil {
		return err
	}
	t.IntegrationID = integ.ID

	if err := st.SaveTunnel(t); err != nil {
		return fmt.Errorf("saving tunnel: %w", err)
	}
	srv.TunnelID = t.ID
	if err := st.SaveServer(srv); err != nil {
		return fmt.Errorf("saving server: %w", err)
	}

	fmt.Printf("  Tunnel ready: %s -> %s\n", t.Hostname, t.CNAMETarget)
	return nil
}

func runTunnelTeardown(cmd *cobra.Command, args []string) error {
	_, st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	srv, err := findServer(st, args[0])
	if err != nil {
		return err
	}
	if srv.TunnelID == "" {
		return fmt.Errorf("server %s has no tunnel", srv.Name)
	}
	t, err := st.GetTunnel(srv.TunnelID)
	if err != nil {
		return err
	}
	mgr, _, err := tunnelManagerFor(st, t.IntegrationID)
	if err != nil {
		return err
	}

	if err := mgr.Teardown(cmd.Context(), t); err != nil {
		return err
	}
	if err := st.DeleteTunnel(t.ID); err != nil {
		return err
	}
	srv.TunnelID = ""
	if err := st.SaveServer(srv); err != nil {
		return err
	}
	fmt.Printf("  Tunnel for %s removed\n", t.Hostname)
	return nil
}

func routeTarget(st *store.Store, ref string) (*tunnel.Manager, string, error) {
	srv, err := findServer(st, ref)
	if err != nil {
		return nil, "", err
	}
	if srv.TunnelID == "" {
		return nil, "", fmt.Errorf("server %s has no tunnel", srv.Name)
	}
	t, err := st.GetTunnel(srv.TunnelID)
	if err != nil {
		return nil, "", err
	}
	mgr, _, err := tunnelManagerFor(st, t.IntegrationID)
	if err != nil {
		return nil, "", err
	}
	return mgr, t.RemoteID, nil
}

func runTunnelRouteAdd(cmd *cobra.Command, args []string) error {
	_, st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	mgr, tunnelID, err := routeTarget(st, args[0])
	if err != nil {
		return err
	}
	if err := mgr.AddRoute(cmd.Context(), tunnelID, args[1], tunnelRoutePort); err != nil {
		return err
	}
	fmt.Printf("  %s -> http://localhost:%d\n", args[1], tunnelRoutePort)
	return nil
}

func runTunnelRouteRemove(cmd *cobra.Command, args []string) error {
	_, st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	mgr, tunnelID, err := routeTarget(st, args[0])
	if err != nil {
		return err
	}
	if err := mgr.RemoveRoute(cmd.Context(), tunnelID, args[1]); err != nil {
		return err
	}
	fmt.Printf("  Route for %s removed\n", args[1])
	return nil
}
