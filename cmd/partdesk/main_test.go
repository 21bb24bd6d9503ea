package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/hylla/partdesk/internal/config"
)

// TestParseBoolEnv verifies boolean environment parsing.
func TestParseBoolEnv(t *testing.T) {
	t.Setenv("PARTDESK_TEST_BOOL", "")
	if _, ok := parseBoolEnv("PARTDESK_TEST_BOOL"); ok {
		t.Fatal("empty env should not parse")
	}
	t.Setenv("PARTDESK_TEST_BOOL", "true")
	if v, ok := parseBoolEnv("PARTDESK_TEST_BOOL"); !ok || !v {
		t.Fatalf("parseBoolEnv(true) = %v, %v", v, ok)
	}
	t.Setenv("PARTDESK_TEST_BOOL", "0")
	if v, ok := parseBoolEnv("PARTDESK_TEST_BOOL"); !ok || v {
		t.Fatalf("parseBoolEnv(0) = %v, %v", v, ok)
	}
	t.Setenv("PARTDESK_TEST_BOOL", "banana")
	if _, ok := parseBoolEnv("PARTDESK_TEST_BOOL"); ok {
		t.Fatal("garbage env should not parse")
	}
}

// TestResolveIdentity verifies flag and environment precedence.
func TestResolveIdentity(t *testing.T) {
	t.Setenv("PARTDESK_APP_NAME", "")
	t.Setenv("PARTDESK_DEV_MODE", "")

	appName, devMode := resolveIdentity(&rootOptions{})
	if appName != "partdesk" {
		t.Fatalf("appName = %q, want partdesk", appName)
	}
	if !devMode {
		t.Fatal("dev builds default to dev mode paths")
	}

	t.Setenv("PARTDESK_APP_NAME", "deskparts")
	t.Setenv("PARTDESK_DEV_MODE", "false")
	appName, devMode = resolveIdentity(&rootOptions{})
	if appName != "deskparts" || devMode {
		t.Fatalf("env resolution = %q, %t", appName, devMode)
	}

	appName, devMode = resolveIdentity(&rootOptions{appName: "x", devMode: true, devModeSet: true})
	if appName != "x" || !devMode {
		t.Fatalf("flag resolution = %q, %t", appName, devMode)
	}
}

// TestPathsCommandPrintsResolvedPaths verifies the paths subcommand output.
func TestPathsCommandPrintsResolvedPaths(t *testing.T) {
	t.Setenv("PARTDESK_APP_NAME", "")
	t.Setenv("PARTDESK_DEV_MODE", "")

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"paths"})
	if err := root.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	for _, want := range []string{"app: partdesk", "config: ", "data_dir: ", "db: ", "log: "} {
		if !strings.Contains(out.String(), want) {
			t.Fatalf("paths output missing %q:\n%s", want, out.String())
		}
	}
}

// TestConfigMappings verifies config-to-TUI option translation.
func TestConfigMappings(t *testing.T) {
	defaults := config.Default("workspace.db")
	board := toBoardFieldConfig(defaults.Board)
	if !board.ShowVendor || !board.ShowStudent || !board.ShowTracking || board.ShowCosts {
		t.Fatalf("unexpected board mapping %#v", board)
	}
	keys := toKeyConfig(defaults.Keys)
	if keys.Undo != "z" || keys.Select != " " || keys.AddToOrder != "o" {
		t.Fatalf("unexpected key mapping %#v", keys)
	}
}
