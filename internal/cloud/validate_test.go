package cloud

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateSubdomain(t *testing.T) {
	valid := []string{"app", "my-app", "a", "app01", "x1-2-3"}
	for _, s := range valid {
		assert.NoError(t, ValidateSubdomain(s), s)
	}

	invalid := []string{"", "-app", "app-", "App", "my.app", "a b", "app_1"}
	for _, s := range invalid {
		assert.Error(t, ValidateSubdomain(s), s)
	}
}

func TestValidateZoneName(t *testing.T) {
	valid := []string{"example.com", "sub.example.co.uk", "a-b.io"}
	for _, s := range valid {
		assert.NoError(t, ValidateZoneName(s), s)
	}

	invalid := []string{"", "example", ".com", "example..com", "EXAMPLE.COM"}
	for _, s := range invalid {
		assert.Error(t, ValidateZoneName(s), s)
	}
}

func TestValidateTunnelID(t *testing.T) {
	assert.NoError(t, ValidateTunnelID("f8a9b1c2-3d4e-5f60-7182-93a4b5c6d7e8"))
	assert.Error(t, ValidateTunnelID("not-a-uuid"))
	assert.Error(t, ValidateTunnelID("F8A9B1C2-3D4E-5F60-7182-93A4B5C6D7E8"))
	assert.Error(t, ValidateTunnelID(""))
}
