package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/halyard-dev/halyard/internal/config"
	"github.com/halyard-dev/halyard/internal/provision"
	"github.com/halyard-dev/halyard/internal/server"
	"github.com/halyard-dev/halyard/internal/store"
)

var serversCmd = &cobra.Command{
	Use:   "servers",
	Short: "Manage target servers",
}

var serversCreateFlags struct {
	integration string
	region      string
	size        string
	image       string
	sshHost     string
	sshPort     int
	sshUser     string
	keyPath     string
	provision   bool
}

var serversCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a server at a VPS vendor, or register a custom host",
	Long: `Create a server. With --integration the server is created at the vendor
and provisioned once it has an address. Without it, --ssh-host registers an
existing machine as a custom host.`,
	Args: cobra.ExactArgs(1),
	RunE: runServersCreate,
}

var serversListCmd = &cobra.Command{
	Use:   "list",
	Short: "List servers and their lifecycle status",
	Args:  cobra.NoArgs,
	RunE:  runServersList,
}

var serversStatusCmd = &cobra.Command{
	Use:   "status <id-or-name>",
	Short: "Show one server's details",
	Args:  cobra.ExactArgs(1),
	RunE:  runServersStatus,
}

var serversProvisionCmd = &cobra.Command{
	Use:   "provision <id-or-name>",
	Short: "Run the provisioning tool against a server",
	Args:  cobra.ExactArgs(1),
	RunE:  runServersProvision,
}

var serversRetryCmd = &cobra.Command{
	Use:   "retry <id-or-name>",
	Short: "Re-run provisioning on a failed server",
	Args:  cobra.ExactArgs(1),
	RunE:  runServersRetry,
}

var serversRemoveForce bool

var serversRemoveCmd = &cobra.Command{
	Use:   "remove <id-or-name>",
	Short: "Delete a server, its tunnel, and its vendor resources",
	Args:  cobra.ExactArgs(1),
	RunE:  runServersRemove,
}

func init() {
	f := serversCreateCmd.Flags()
	f.StringVar(&serversCreateFlags.integration, "integration", "", "VPS integration id or name (omit for a custom host)")
	f.StringVar(&serversCreateFlags.region, "region", "", "vendor region slug")
	f.StringVar(&serversCreateFlags.size, "size", "", "vendor size/plan slug")
	f.StringVar(&serversCreateFlags.image, "image", "ubuntu-24.04", "OS image")
	f.StringVar(&serversCreateFlags.sshHost, "ssh-host", "", "address of an existing custom host")
	f.IntVar(&serversCreateFlags.sshPort, "ssh-port", 0, "SSH port (default from config)")
	f.StringVar(&serversCreateFlags.sshUser, "ssh-user", "", "SSH user (default from config)")
	f.StringVar(&serversCreateFlags.keyPath, "key", "", "private key path for a custom host")
	f.BoolVar(&serversCreateFlags.provision, "provision", true, "provision immediately after creation")

	serversRemoveCmd.Flags().BoolVar(&serversRemoveForce, "force", false, "delete the local record even if remote cleanup fails")

	serversCmd.AddCommand(serversCreateCmd)
	serversCmd.AddCommand(serversListCmd)
	serversCmd.AddCommand(serversStatusCmd)
	serversCmd.AddCommand(serversProvisionCmd)
	serversCmd.AddCommand(serversRetryCmd)
	serversCmd.AddCommand(serversRemoveCmd)
	rootCmd.AddCommand(serversCmd)
}

func newCoordinator(cfg *config.Config, st *store.Store) *server.Coordinator {
	runner := &provision.Runner{
		Command:  cfg.Provision.Command,
		Playbook: cfg.Provision.Playbook,
	}
	return server.NewCoordinator(st, runner, config.KeyDir())
}

func runServersCreate(cmd *cobra.Command, args []string) error {
	cfg, st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	opts := server.CreateOptions{
		Name:    args[0],
		Region:  serversCreateFlags.region,
		Size:    serversCreateFlags.size,
		Image:   serversCreateFlags.image,
		SSHHost: serversCreateFlags.sshHost,
		SSHPort: serversCreateFlags.sshPort,
		SSHUser: serversCreateFlags.sshUser,
		KeyPath: serversCreateFlags.keyPath,
	}
	if opts.SSHPort == 0 {
		opts.SSHPort = cfg.SSH.Port
	}
	if opts.SSHUser == "" {
		opts.SSHUser = cfg.SSH.User
	}

	if ref := serversCreateFlags.integration; ref != "" {
		integ, err := findIntegration(st, ref)
		if err != nil {
			return err
		}
		opts.IntegrationID = integ.ID
		if opts.Region == "" || opts.Size == "" {
			return fmt.Errorf("--region and --size are required for vendor-managed servers (see `halyard catalog`)")
		}
	}

	coord := newCoordinator(cfg, st)
	srv, err := coord.Create(cmd.Context(), opts, printProgress)
	if err != nil {
		return err
	}
	fmt.Printf("  Server %q created (%s), status %s\n", srv.Name, srv.ID, srv.Status)

	if serversCreateFlags.provision && !srv.IsCustom() {
		return coord.Provision(cmd.Context(), srv.ID, printProgress)
	}
	return nil
}

func runServersList(cmd *cobra.Command, args []string) error {
	_, st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	all, err := st.ListServers()
	if err != nil {
		return err
	}
	if len(all) == 0 {
		fmt.Println("  No servers. Create one with `halyard servers create`.")
		return nil
	}
	for _, s := range all {
		kind := "vendor"
		if s.IsCustom() {
			kind = "custom"
		}
		fmt.Printf("  %-36s  %-16s  %-14s  %-7s  %s\n", s.ID, s.Name, s.Status, kind, s.SSHHost)
	}
	return nil
}

func runServersStatus(cmd *cobra.Command, args []string) error {
	_, st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	srv, err := findServer(st, args[0])
	if err != nil {
		return err
	}

	fmt.Printf("  ID:       %s\n", srv.ID)
	fmt.Printf("  Name:     %s\n", srv.Name)
	fmt.Printf("  Status:   %s\n", srv.Status)
	if srv.IsCustom() {
		fmt.Println("  Kind:     custom host")
	} else {
		fmt.Println("  Kind:     vendor-managed")
		fmt.Printf("  Remote:   %s (integration %s)\n", srv.RemoteID, srv.IntegrationID)
	}
	if srv.SSHHost != "" {
		fmt.Printf("  SSH:      %s@%s:%d\n", srv.SSHUser, srv.SSHHost, srv.SSHPort)
	}
	if srv.KeyPath != "" {
		fmt.Printf("  Key:      %s\n", srv.KeyPath)
	}
	if srv.TunnelID != "" {
		if t, err := st.GetTunnel(srv.TunnelID); err == nil {
			fmt.Printf("  Tunnel:   %s -> %s\n", t.Hostname, t.CNAMETarget)
		}
	}
	fmt.Printf("  Created:  %s\n", srv.CreatedAt.Format("2006-01-02 15:04:05"))
	return nil
}

func runServersProvision(cmd *cobra.Command, args []string) error {
	cfg, st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	srv, err := findServer(st, args[0])
	if err != nil {
		return err
	}
	return newCoordinator(cfg, st).Provision(cmd.Context(), srv.ID, printProgress)
}

func runServersRetry(cmd *cobra.Command, args []string) error {
	cfg, st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	srv, err := findServer(st, args[0])
	if err != nil {
		return err
	}
	return newCoordinator(cfg, st).Retry(cmd.Context(), srv.ID, printProgress)
}

func runServersRemove(cmd *cobra.Command, args []string) error {
	cfg, st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	srv, err := findServer(st, args[0])
	if err != nil {
		return err
	}
	if err := newCoordinator(cfg, st).Delete(cmd.Context(), srv.ID, serversRemoveForce, printProgress); err != nil {
		return err
	}
	fmt.Printf("  Removed server %q\n", srv.Name)
	return nil
}
