package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/halyard-dev/halyard/internal/providers"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Browse vendor regions and server sizes",
}

var catalogRegionsCmd = &cobra.Command{
	Use:   "regions <integration>",
	Short: "List the regions a VPS integration can deploy to",
	Args:  cobra.ExactArgs(1),
	RunE:  runCatalogRegions,
}

var catalogSizesCmd = &cobra.Command{
	Use:   "sizes <integration>",
	Short: "List the server sizes a VPS integration offers",
	Args:  cobra.ExactArgs(1),
	RunE:  runCatalogSizes,
}

func init() {
	catalogCmd.AddCommand(catalogRegionsCmd)
	catalogCmd.AddCommand(catalogSizesCmd)
	rootCmd.AddCommand(catalogCmd)
}

func runCatalogRegions(cmd *cobra.Command, args []string) error {
	_, st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	integ, err := findIntegration(st, args[0])
	if err != nil {
		return err
	}
	vps, err := providers.VPS(integ)
	if err != nil {
		return err
	}
	regions, err := vps.ListRegions(cmd.Context())
	if err != nil {
		return err
	}
	for _, r := range regions {
		if r.Country != "" {
			fmt.Printf("  %-16s  %s (%s)\n", r.ID, r.Name, r.Country)
		} else {
			fmt.Printf("  %-16s  %s\n", r.ID, r.Name)
		}
	}
	return nil
}

func runCatalogSizes(cmd *cobra.Command, args []string) error {
	_, st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	integ, err := findIntegration(st, args[0])
	if err != nil {
		return err
	}
	vps, err := providers.VPS(integ)
	if err != nil {
		return err
	}
	sizes, err := vps.ListSizes(cmd.Context())
	if err != nil {
		return err
	}
	for _, s := range sizes {
		fmt.Printf("  %-20s  %2d vCPU  %5.1f GB RAM  %4d GB disk\n", s.ID, s.Cores, s.MemoryGB, s.DiskGB)
	}
	return nil
}
