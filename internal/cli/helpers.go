package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/halyard-dev/halyard/internal/config"
	"github.com/halyard-dev/halyard/internal/domain"
	"github.com/halyard-dev/halyard/internal/server"
	"github.com/halyard-dev/halyard/internal/store"
)

// openStore loads the config and opens the sqlite store it points at.
// Callers must Close the store.
func openStore() (*config.Config, *store.Store, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	if err := os.MkdirAll(config.Dir(), 0755); err != nil {
		return nil, nil, fmt.Errorf("creating config directory: %w", err)
	}
	st, err := store.Open(cfg.StorePath)
	if err != nil {
		return nil, nil, err
	}
	return cfg, st, nil
}

// prompt reads one trimmed line from stdin.
func prompt(label string) string {
	fmt.Printf("  %s: ", label)
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Scan()
	return strings.TrimSpace(scanner.Text())
}

// promptSecret reads a value without echoing it. Falls back to plain input
// when stdin is not a terminal (tests, pipes).
func promptSecret(label string) string {
	fmt.Printf("  %s: ", label)
	if !term.IsTerminal(int(syscall.Stdin)) {
		scanner := bufio.NewScanner(os.Stdin)
		scanner.Scan()
		return strings.TrimSpace(scanner.Text())
	}
	value, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(value))
}

// findIntegration resolves an integration by ID or name.
func findIntegration(st *store.Store, ref string) (*domain.Integration, error) {
	if i, err := st.GetIntegration(ref); err == nil {
		return i, nil
	}
	all, err := st.ListIntegrations()
	if err != nil {
		return nil, err
	}
	for _, i := range all {
		if i.Name == ref {
			return i, nil
		}
	}
	return nil, fmt.Errorf("no integration matches %q", ref)
}

// findServer resolves a server by ID or name.
func findServer(st *store.Store, ref string) (*domain.Server, error) {
	if s, err := st.GetServer(ref); err == nil {
		return s, nil
	}
	all, err := st.ListServers()
	if err != nil {
		return nil, err
	}
	for _, s := range all {
		if s.Name == ref {
			return s, nil
		}
	}
	return nil, fmt.Errorf("no server matches %q", ref)
}

// printProgress renders coordinator progress events on stdout.
func printProgress(ev server.ProgressEvent) {
	switch ev.Status {
	case "running":
		if ev.Message != "" {
			fmt.Printf("  %s: %s\n", ev.Label, ev.Message)
		} else {
			fmt.Printf("  %s...\n", ev.Label)
		}
	case "completed":
		if ev.Message != "" {
			fmt.Printf("  %s: OK (%s)\n", ev.Label, ev.Message)
		} else {
			fmt.Printf("  %s: OK\n", ev.Label)
		}
	case "failed":
		fmt.Printf("  %s: FAILED: %s\n", ev.Label, ev.Error)
	}
}
