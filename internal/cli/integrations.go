package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/halyard-dev/halyard/internal/cloud"
	"github.com/halyard-dev/halyard/internal/domain"
	"github.com/halyard-dev/halyard/internal/providers"
)

var integrationsCmd = &cobra.Command{
	Use:   "integrations",
	Short: "Manage vendor integrations",
}

var integrationsAddCmd = &cobra.Command{
	Use:   "add <type>",
	Short: "Add a vendor integration (prompts for credentials)",
	Long: `Add a vendor integration. Supported types:

  cloudflare, hetzner, hetzner_dns, digitalocean, vultr, linode,
  bunny, scaleway, github, dropbox

Credentials are prompted without echo and verified against the vendor
API before the integration is saved.`,
	Args: cobra.ExactArgs(1),
	RunE: runIntegrationsAdd,
}

var integrationsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured integrations",
	Args:  cobra.NoArgs,
	RunE:  runIntegrationsList,
}

var integrationsVerifyCmd = &cobra.Command{
	Use:   "verify <id-or-name>",
	Short: "Re-check an integration's credentials against the vendor API",
	Args:  cobra.ExactArgs(1),
	RunE:  runIntegrationsVerify,
}

var integrationsRemoveCmd = &cobra.Command{
	Use:   "remove <id-or-name>",
	Short: "Remove an integration",
	Args:  cobra.ExactArgs(1),
	RunE:  runIntegrationsRemove,
}

func init() {
	integrationsCmd.AddCommand(integrationsAddCmd)
	integrationsCmd.AddCommand(integrationsListCmd)
	integrationsCmd.AddCommand(integrationsVerifyCmd)
	integrationsCmd.AddCommand(integrationsRemoveCmd)
	rootCmd.AddCommand(integrationsCmd)
}

func runIntegrationsAdd(cmd *cobra.Command, args []string) error {
	t := domain.IntegrationType(strings.ToLower(args[0]))
	vendor, ok := domain.VendorByType(t)
	if !ok {
		return fmt.Errorf("unknown integration type %q", args[0])
	}
	fmt.Printf("  Adding %s integration.\n", vendor.Name)
	fmt.Printf("  Create the %s here: %s\n", vendor.TokenName, vendor.TokenLink)

	name := prompt("Name for this integration")
	if name == "" {
		name = string(t)
	}

	integ, err := promptIntegration(t, name)
	if err != nil {
		return err
	}

	fmt.Println("  Verifying credentials...")
	validator, err := providers.Validator(integ)
	if err != nil {
		return err
	}
	if err := validator.ValidateCredentials(cmd.Context()); err != nil {
		var cerr *cloud.Error
		if errors.As(err, &cerr) && cerr.Suggestion != "" {
			return fmt.Errorf("credential check failed: %s\n  Hint: %s", cerr.Message, cerr.Suggestion)
		}
		return fmt.Errorf("credential check failed: %w", err)
	}

	_, st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.SaveIntegration(integ); err != nil {
		return fmt.Errorf("saving integration: %w", err)
	}
	fmt.Printf("  Added %s integration %q (%s)\n", integ.Type, integ.Name, integ.ID)
	return nil
}

// promptIntegration asks for the credential fields the vendor needs.
func promptIntegration(t domain.IntegrationType, name string) (*domain.Integration, error) {
	switch t {
	case domain.TypeCloudflare:
		fmt.Println("  Leave the API token empty to use email + Global API Key instead.")
		token := promptSecret("API token")
		if token != "" {
			return domain.NewCloudflare(name, token), nil
		}
		email := prompt("Account email")
		key := promptSecret("Global API Key")
		return domain.NewCloudflareGlobalKey(name, email, key), nil
	case domain.TypeHetzner:
		return domain.NewHetzner(name, promptSecret("API token")), nil
	case domain.TypeHetznerDNS:
		return domain.NewHetznerDNS(name, promptSecret("API token")), nil
	case domain.TypeDigitalOcean:
		return domain.NewDigitalOcean(name, promptSecret("API token")), nil
	case domain.TypeVultr:
		return domain.NewVultr(name, promptSecret("API key")), nil
	case domain.TypeLinode:
		return domain.NewLinode(name, promptSecret("personal access token")), nil
	case domain.TypeBunny:
		return domain.NewBunny(name, promptSecret("API key")), nil
	case domain.TypeScaleway:
		access := prompt("Access key")
		secret := promptSecret("Secret key")
		region := prompt("Region (e.g. fr-par)")
		return domain.NewScaleway(name, access, secret, region), nil
	case domain.TypeGitHub:
		return domain.NewGitHub(name, promptSecret("personal access token")), nil
	case domain.TypeDropbox:
		appKey := prompt("App key")
		appSecret := promptSecret("App secret")
		refresh := promptSecret("Refresh token")
		return domain.NewDropbox(name, appKey, appSecret, refresh), nil
	}
	return nil, fmt.Errorf("unknown integration type %q", t)
}

func runIntegrationsList(cmd *cobra.Command, args []string) error {
	_, st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	all, err := st.ListIntegrations()
	if err != nil {
		return err
	}
	if len(all) == 0 {
		fmt.Println("  No integrations configured. Add one with `halyard integrations add <type>`.")
		return nil
	}
	for _, i := range all {
		caps := make([]string, len(i.Capabilities))
		for n, c := range i.Capabilities {
			caps[n] = string(c)
		}
		fmt.Printf("  %-36s  %-12s  %-16s  %s\n", i.ID, i.Type, i.Name, strings.Join(caps, ","))
	}
	return nil
}

func runIntegrationsVerify(cmd *cobra.Command, args []string) error {
	_, st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	integ, err := findIntegration(st, args[0])
	if err != nil {
		return err
	}
	validator, err := providers.Validator(integ)
	if err != nil {
		return err
	}
	if err := validator.ValidateCredentials(cmd.Context()); err != nil {
		var cerr *cloud.Error
		if errors.As(err, &cerr) && cerr.Suggestion != "" {
			return fmt.Errorf("%s: %s\n  Hint: %s", integ.Name, cerr.Message, cerr.Suggestion)
		}
		return fmt.Errorf("%s: %w", integ.Name, err)
	}
	fmt.Printf("  %s (%s): credentials OK\n", integ.Name, integ.Type)
	return nil
}

func runIntegrationsRemove(cmd *cobra.Command, args []string) error {
	_, st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	integ, err := findIntegration(st, args[0])
	if err != nil {
		return err
	}

	servers, err := st.ListServers()
	if err != nil {
		return err
	}
	for _, s := range servers {
		if s.IntegrationID == integ.ID {
			return fmt.Errorf("integration %s is still referenced by server %s", integ.Name, s.Name)
		}
	}

	if err := st.DeleteIntegration(integ.ID); err != nil {
		return err
	}
	fmt.Printf("  Removed integration %q\n", integ.Name)
	return nil
}
