// Package sshkeys generates the key material used to reach provisioned
// hosts.
package sshkeys

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"fmt"
	"os"
	"path/filepath"

	gossh "golang.org/x/crypto/ssh"
)

// GenerateKeyPair creates a new ed25519 SSH key pair.
// Returns the private key in OpenSSH format and the public key in
// authorized_keys format.
func GenerateKeyPair() (privateKeyPEM []byte, publicKeyAuthorized []byte, err error) {
	pubKey, privKey, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, nil, err
	}

	pemBlock, err := gossh.MarshalPrivateKey(privKey, "")
	if err != nil {
		return nil, nil, err
	}

	sshPub, err := gossh.NewPublicKey(pubKey)
	if err != nil {
		return nil, nil, err
	}

	return pem.EncodeToMemory(pemBlock), gossh.MarshalAuthorizedKey(sshPub), nil
}

// EnsureKeyPair writes a key pair named after the server into dir unless it
// already exists. Returns the private key path and the public key in
// authorized_keys format.
func EnsureKeyPair(dir, serverID string) (keyPath string, publicKey string, err error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", "", fmt.Errorf("creating key directory: %w", err)
	}

	keyPath = filepath.Join(dir, serverID)
	pubPath := keyPath + ".pub"

	if _, statErr := os.Stat(keyPath); statErr == nil {
		pub, readErr := os.ReadFile(pubPath)
		if readErr != nil {
			return "", "", fmt.Errorf("reading existing public key: %w", readErr)
		}
		return keyPath, string(pub), nil
	}

	privPEM, pubAuthorized, err := GenerateKeyPair()
	if err != nil {
		return "", "", fmt.Errorf("generating SSH key pair: %w", err)
	}
	if err := os.WriteFile(keyPath, privPEM, 0600); err != nil {
		return "", "", fmt.Errorf("writing private key: %w", err)
	}
	if err := os.WriteFile(pubPath, pubAuthorized, 0644); err != nil {
		return "", "", fmt.Errorf("writing public key: %w", err)
	}
	return keyPath, string(pubAuthorized), nil
}
