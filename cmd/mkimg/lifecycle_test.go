package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"mkimg/internal/services"
)

var artifactNamePattern = regexp.MustCompile(`^[0-9a-f]{32}\.sendstream\.zst$`)

func TestLifecycleInitBuildInfoCleanDestroy(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"init"}, env.configPath)
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	requireContains(t, out, "Initialized workspace at "+env.workspaceRoot)

	for _, name := range []string{"build", "streams", "services", "buildroot", "mkosi.default", ".init.lock"} {
		if _, err := os.Stat(filepath.Join(env.workspaceRoot, name)); err != nil {
			t.Errorf("expected %s after init: %v", name, err)
		}
	}
	secret, err := os.Stat(filepath.Join(env.workspaceRoot, "mkosi.rootpw"))
	if err != nil {
		t.Fatalf("secret file: %v", err)
	}
	if secret.Mode().Perm() != 0o600 {
		t.Errorf("secret mode = %v, want 0600", secret.Mode().Perm())
	}

	out, _, err = runCLI(t, []string{"build"}, env.configPath)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	requireContains(t, out, "complete in")
	requireContains(t, out, "Artifact: ")

	artifacts, err := os.ReadDir(filepath.Join(env.workspaceRoot, "streams"))
	if err != nil {
		t.Fatalf("read streams: %v", err)
	}
	if len(artifacts) != 1 || !artifactNamePattern.MatchString(artifacts[0].Name()) {
		t.Fatalf("unexpected artifacts: %v", artifacts)
	}

	out, _, err = runCLI(t, []string{"info"}, env.configPath)
	if err != nil {
		t.Fatalf("info: %v", err)
	}
	requireContains(t, out, "Initialized: yes")
	requireContains(t, out, "volume\t")
	requireContains(t, out, "artifact\t"+artifacts[0].Name())

	out, _, err = runCLI(t, []string{"clean"}, env.configPath)
	if err != nil {
		t.Fatalf("clean: %v", err)
	}
	requireContains(t, out, "Removed 1 volume(s)")

	// Nothing left to act on.
	if _, _, err := runCLI(t, []string{"clean"}, env.configPath); err == nil {
		t.Fatal("clean on an empty workspace should exit non-zero")
	}

	out, _, err = runCLI(t, []string{"destroy"}, env.configPath)
	if err != nil {
		t.Fatalf("destroy: %v", err)
	}
	requireContains(t, out, "Destroyed workspace at "+env.workspaceRoot)

	entries, err := os.ReadDir(env.workspaceRoot)
	if err != nil {
		t.Fatalf("read workspace root: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("workspace not empty after destroy: %v", entries)
	}
}

func TestInitTwiceFails(t *testing.T) {
	env := setupCLITestEnv(t)

	if _, _, err := runCLI(t, []string{"init"}, env.configPath); err != nil {
		t.Fatalf("init: %v", err)
	}
	_, _, err := runCLI(t, []string{"init"}, env.configPath)
	if !errors.Is(err, services.ErrAlreadyInitialized) {
		t.Fatalf("expected ErrAlreadyInitialized, got %v", err)
	}
}

func TestBuildRequiresInit(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, []string{"build"}, env.configPath)
	if !errors.Is(err, services.ErrNotInitialized) {
		t.Fatalf("expected ErrNotInitialized, got %v", err)
	}
}

func TestDestroyToleratesUninitializedWorkspace(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"destroy"}, env.configPath)
	if err != nil {
		t.Fatalf("destroy: %v", err)
	}
	requireContains(t, out, "Destroyed workspace at")
}

func TestInfoOnUninitializedWorkspace(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"info"}, env.configPath)
	if err != nil {
		t.Fatalf("info: %v", err)
	}
	requireContains(t, out, "Initialized: no")
}

func TestSummaryDelegatesToBuilder(t *testing.T) {
	env := setupCLITestEnv(t)

	if _, _, err := runCLI(t, []string{"init"}, env.configPath); err != nil {
		t.Fatalf("init: %v", err)
	}
	out, _, err := runCLI(t, []string{"summary"}, env.configPath)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	requireContains(t, out, "Initialized: yes")
	requireContains(t, out, "Distribution: centos")
}

func TestComposeIsReserved(t *testing.T) {
	out, _, err := runCLI(t, []string{"compose"}, "")
	if err != nil {
		t.Fatalf("compose: %v", err)
	}
	requireContains(t, out, "not implemented")
}

func TestPrivilegeGateBlocksMutatingVerbs(t *testing.T) {
	env := setupCLITestEnv(t)

	var configFlag string
	ctx := newCommandContext(&configFlag)
	denied := services.Wrap(services.ErrPrivilegeRequired, "privilege", "check", "euid 1000", nil)
	ctx.requireRoot = func() error { return denied }

	for _, verb := range []string{"init", "build", "clean", "destroy"} {
		cmd := newRootCommandWith(ctx, &configFlag)
		cmd.SetArgs([]string{"--config", env.configPath, verb})
		var discard bytes.Buffer
		cmd.SetOut(&discard)
		cmd.SetErr(&discard)
		if err := cmd.Execute(); !errors.Is(err, services.ErrPrivilegeRequired) {
			t.Errorf("%s: expected ErrPrivilegeRequired, got %v", verb, err)
		}
	}

	// The denied verbs must abort before any mutation: not even the
	// workspace root may appear.
	if _, err := os.Stat(env.workspaceRoot); !os.IsNotExist(err) {
		t.Errorf("workspace root was created despite the privilege failure: %v", err)
	}
}
