package main

import (
	"bytes"
	"strings"
	"testing"
)

func runCommand(t *testing.T, a *app, args ...string) string {
	t.Helper()

	cmd := NewRootCmd("test", a)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)

	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute %v: %v", args, err)
	}
	return out.String()
}

func TestProviderLifecycle(t *testing.T) {
	a := testApp(t)

	out := runCommand(t, a, "provider", "list")
	if !strings.Contains(out, "No providers configured") {
		t.Errorf("initial list = %q", out)
	}

	runCommand(t, a, "provider", "add", "openai", "--api-key", "sk-test", "--model", "gpt-4o-mini")
	runCommand(t, a, "provider", "add", "anthropic", "--api-key", "sk-other", "--model", "claude")

	out = runCommand(t, a, "provider", "list")
	if !strings.Contains(out, "openai") || !strings.Contains(out, "anthropic") {
		t.Errorf("list after add = %q", out)
	}
	// First added provider becomes the default.
	if !strings.Contains(out, "* openai") {
		t.Errorf("list = %q, want openai marked default", out)
	}

	runCommand(t, a, "provider", "default", "anthropic")
	out = runCommand(t, a, "provider", "list")
	if !strings.Contains(out, "* anthropic") {
		t.Errorf("list after default = %q", out)
	}

	runCommand(t, a, "provider", "remove", "openai")
	out = runCommand(t, a, "provider", "list")
	if strings.Contains(out, "openai") {
		t.Errorf("list after remove = %q", out)
	}
}

func TestProviderRemoveUnknownFails(t *testing.T) {
	a := testApp(t)

	cmd := NewRootCmd("test", a)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"provider", "remove", "nope"})

	if err := cmd.Execute(); err == nil {
		t.Error("removing an unknown provider should fail")
	}
}
