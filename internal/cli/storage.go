package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/halyard-dev/halyard/internal/domain"
	"github.com/halyard-dev/halyard/internal/providers"
)

var storageCmd = &cobra.Command{
	Use:   "storage",
	Short: "Manage object storage buckets",
}

var storageBucketsCmd = &cobra.Command{
	Use:   "buckets <integration>",
	Short: "List buckets on a storage integration",
	Args:  cobra.ExactArgs(1),
	RunE:  runStorageBuckets,
}

var storageEnsureCmd = &cobra.Command{
	Use:   "ensure <integration> <bucket>",
	Short: "Create a bucket if it does not exist",
	Args:  cobra.ExactArgs(2),
	RunE:  runStorageEnsure,
}

var storageR2TokenName string

var storageDeriveCmd = &cobra.Command{
	Use:   "derive-credentials <integration>",
	Short: "Derive S3-compatible credentials from a Cloudflare integration",
	Long: `Create a scoped R2 token on the Cloudflare account and print the derived
S3-compatible key pair. The secret is shown once and not stored.`,
	Args: cobra.ExactArgs(1),
	RunE: runStorageDerive,
}

func init() {
	storageDeriveCmd.Flags().StringVar(&storageR2TokenName, "token-name", "halyard-storage", "name for the created vendor token")

	storageCmd.AddCommand(storageBucketsCmd)
	storageCmd.AddCommand(storageEnsureCmd)
	storageCmd.AddCommand(storageDeriveCmd)
	rootCmd.AddCommand(storageCmd)
}

func runStorageBuckets(cmd *cobra.Command, args []string) error {
	_, st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	integ, err := findIntegration(st, args[0])
	if err != nil {
		return err
	}
	osp, err := providers.ObjectStorage(integ)
	if err != nil {
		return err
	}
	buckets, err := osp.ListBuckets(cmd.Context())
	if err != nil {
		return err
	}
	if len(buckets) == 0 {
		fmt.Println("  No buckets.")
		return nil
	}
	for _, b := range buckets {
		fmt.Printf("  %s\n", b)
	}
	return nil
}

func runStorageEnsure(cmd *cobra.Command, args []string) error {
	_, st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	integ, err := findIntegration(st, args[0])
	if err != nil {
		return err
	}
	osp, err := providers.ObjectStorage(integ)
	if err != nil {
		return err
	}

	name := args[1]
	exists, err := osp.BucketExists(cmd.Context(), name)
	if err != nil {
		return err
	}
	if exists {
		fmt.Printf("  Bucket %q already exists\n", name)
		return nil
	}
	if err := osp.CreateBucket(cmd.Context(), name); err != nil {
		return err
	}
	fmt.Printf("  Bucket %q created\n", name)
	return nil
}

func runStorageDerive(cmd *cobra.Command, args []string) error {
	_, st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	integ, err := findIntegration(st, args[0])
	if err != nil {
		return err
	}
	if integ.Type != domain.TypeCloudflare {
		return fmt.Errorf("derive-credentials requires a cloudflare integration, got %s", integ.Type)
	}

	creds, err := providers.Cloudflare(integ).DeriveStorageCredentials(cmd.Context(), storageR2TokenName)
	if err != nil {
		return err
	}
	fmt.Printf("  Access key ID:     %s\n", creds.AccessKeyID)
	fmt.Printf("  Secret access key: %s\n", creds.SecretAccessKey)
	return nil
}
