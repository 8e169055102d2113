package cloudflare

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
)

// r2WritePermissionGroup is the "Workers R2 Storage Write" permission group.
const r2WritePermissionGroup = "bf7481a1826f439697cb59a20b22293e"

// StorageCredentials is an S3-compatible key pair for the R2 API, derived
// from a scoped API token.
type StorageCredentials struct {
	AccessKeyID     string
	SecretAccessKey string
}

type createdToken struct {
	ID    string `json:"id"`
	Value string `json:"value"`
}

// DeriveStorageCredentials creates an API token restricted to this account
// with R2 write permission and derives S3-compatible credentials from it:
// the access key is the token ID, the secret key is the hex-encoded SHA-256
// of the token value.
func (c *Client) DeriveStorageCredentials(ctx context.Context, tokenName string) (*StorageCredentials, error) {
	account, err := c.resolveAccount(ctx)
	if err != nil {
		return nil, err
	}

	body := map[string]any{
		"name": tokenName,
		"policies": []map[string]any{
			{
				"effect": "allow",
				"resources": map[string]string{
					"com.cloudflare.api.account." + account: "*",
				},
				"permission_groups": []map[string]string{
					{"id": r2WritePermissionGroup},
				},
			},
		},
	}

	var token createdToken
	path := fmt.Sprintf("/accounts/%s/tokens", account)
	if err := c.call(ctx, http.MethodPost, path, body, &token); err != nil {
		return nil, err
	}

	sum := sha256.Sum256([]byte(token.Value))
	return &StorageCredentials{
		AccessKeyID:     token.ID,
		SecretAccessKey: hex.EncodeToString(sum[:]),
	}, nil
}
