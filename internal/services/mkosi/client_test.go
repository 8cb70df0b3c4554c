package mkosi

import (
	"context"
	"errors"
	"strings"
	"testing"

	"mkimg/internal/services"
)

type fakeExecutor struct {
	dir    string
	args   [][]string
	lines  []string
	err    error
	called int
}

func (f *fakeExecutor) Run(ctx context.Context, dir, binary string, args []string, onLine func(string)) error {
	f.called++
	f.dir = dir
	f.args = append(f.args, append([]string{binary}, args...))
	for _, line := range f.lines {
		onLine(line)
	}
	return f.err
}

func TestBuildRunsInWorkspaceDir(t *testing.T) {
	fake := &fakeExecutor{lines: []string{"installing packages"}}
	client, err := New("mkosi", "/work/space", 10, WithExecutor(fake))
	if err != nil {
		t.Fatalf("construct client: %v", err)
	}

	if err := client.Build(context.Background()); err != nil {
		t.Fatalf("build: %v", err)
	}
	if fake.dir != "/work/space" {
		t.Fatalf("builder ran in %q, want workspace root", fake.dir)
	}
	if got := strings.Join(fake.args[0], " "); got != "mkosi" {
		t.Fatalf("unexpected invocation %q", got)
	}
}

func TestBuildWrapsFailures(t *testing.T) {
	fake := &fakeExecutor{err: errors.New("exit status 2")}
	client, err := New("mkosi", t.TempDir(), 0, WithExecutor(fake))
	if err != nil {
		t.Fatalf("construct client: %v", err)
	}
	buildErr := client.Build(context.Background())
	if !errors.Is(buildErr, services.ErrExternalTool) {
		t.Fatalf("expected ErrExternalTool, got %v", buildErr)
	}
}

func TestSummaryForwardsOutput(t *testing.T) {
	fake := &fakeExecutor{lines: []string{"Distribution: centos", "Release: 7"}}
	client, err := New("mkosi", t.TempDir(), 0, WithExecutor(fake))
	if err != nil {
		t.Fatalf("construct client: %v", err)
	}

	var out strings.Builder
	if err := client.Summary(context.Background(), &out); err != nil {
		t.Fatalf("summary: %v", err)
	}
	if !strings.Contains(out.String(), "Distribution: centos") {
		t.Fatalf("summary output missing builder lines: %q", out.String())
	}
	if got := strings.Join(fake.args[0], " "); got != "mkosi summary" {
		t.Fatalf("unexpected invocation %q", got)
	}
}
