package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"mkimg/internal/config"
	"mkimg/internal/preflight"
	"mkimg/internal/testsupport"
)

const stubBtrfsScript = `case "$1" in
subvolume)
	case "$2" in
	create) mkdir -p "$3" ;;
	delete) rm -rf "$3" ;;
	*) exit 1 ;;
	esac
	;;
property) : ;;
send) find "$2" -type f -exec cat {} + ;;
inspect-internal) echo 5 ;;
*) exit 1 ;;
esac
`

const stubMkosiScript = `if [ "$1" = "summary" ]; then
	echo "Distribution: centos"
	exit 0
fi
mkdir -p buildroot/image/etc buildroot/image/usr/bin
printf 'NAME="Test Linux"\nVERSION_ID="7"\n' > buildroot/image/etc/os-release
echo payload > buildroot/image/usr/bin/payload
`

type cliTestEnv struct {
	baseDir       string
	configPath    string
	workspaceRoot string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)

	binDir := filepath.Join(base, "bin")
	btrfsStub := testsupport.StubBinary(t, binDir, "btrfs", stubBtrfsScript)
	mkosiStub := testsupport.StubBinary(t, binDir, "mkosi", stubMkosiScript)

	workspaceRoot := filepath.Join(base, "workspace")
	configPath := filepath.Join(base, "mkimg.toml")
	configBody := fmt.Sprintf(`[workspace]
root = %q

[builder]
binary = %q
timeout_seconds = 30

[btrfs]
binary = %q
timeout_seconds = 30

[compress]
tool = "internal"
level = 3
timeout_seconds = 30

[logging]
format = "console"
level = "error"
`, workspaceRoot, mkosiStub, btrfsStub)
	if err := os.WriteFile(configPath, []byte(configBody), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	return &cliTestEnv{
		baseDir:       base,
		configPath:    configPath,
		workspaceRoot: workspaceRoot,
	}
}

// runCLI executes one command invocation against a fresh command tree with
// the privilege and preflight gates stubbed out.
func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()

	var configFlag string
	ctx := newCommandContext(&configFlag)
	ctx.requireRoot = func() error { return nil }
	ctx.enforce = func(cmd *cobra.Command, cfg *config.Config, prober preflight.FilesystemProber, w io.Writer) error {
		fmt.Fprintln(w, "PRE-FLIGHT CHECKLIST: (stubbed)")
		return nil
	}

	cmd := newRootCommandWith(ctx, &configFlag)
	full := args
	if configPath != "" {
		full = append([]string{"--config", configPath}, args...)
	}
	cmd.SetArgs(full)

	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)

	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected output to contain %q, got:\n%s", needle, haystack)
	}
}
