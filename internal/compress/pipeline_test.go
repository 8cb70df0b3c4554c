package compress

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/zstd"

	"mkimg/internal/config"
	"mkimg/internal/services"
)

func defaultConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	return &cfg
}

type fakeSender struct {
	payload []byte
	err     error
	partial int // bytes to emit before failing, when err is set
}

func (f *fakeSender) Send(ctx context.Context, path string, w io.Writer) error {
	if f.err != nil {
		if f.partial > 0 {
			if _, err := w.Write(f.payload[:f.partial]); err != nil {
				return err
			}
		}
		return f.err
	}
	_, err := w.Write(f.payload)
	return err
}

func newInternalPipeline(t *testing.T, sender Sender) *Pipeline {
	t.Helper()
	comp, err := NewInternalZstd(3)
	if err != nil {
		t.Fatalf("construct compressor: %v", err)
	}
	p, err := NewPipeline(sender, comp, 30)
	if err != nil {
		t.Fatalf("construct pipeline: %v", err)
	}
	return p
}

func TestCompressRoundTrip(t *testing.T) {
	payload := bytes.Repeat([]byte("btrfs sendstream payload "), 4096)
	sender := &fakeSender{payload: payload}
	p := newInternalPipeline(t, sender)

	dest := filepath.Join(t.TempDir(), "abc.sendstream.zst")
	if err := p.Compress(context.Background(), "build/abc", dest); err != nil {
		t.Fatalf("compress: %v", err)
	}

	f, err := os.Open(dest)
	if err != nil {
		t.Fatalf("open artifact: %v", err)
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		t.Fatalf("zstd reader: %v", err)
	}
	defer dec.Close()

	round, err := io.ReadAll(dec)
	if err != nil {
		t.Fatalf("decompress: %v", err)
	}
	if !bytes.Equal(round, payload) {
		t.Fatalf("artifact does not round-trip: got %d bytes, want %d", len(round), len(payload))
	}

	if _, err := os.Stat(dest + ".partial"); !os.IsNotExist(err) {
		t.Fatalf("temporary file left behind")
	}
}

func TestCompressInterruptedLeavesNoArtifact(t *testing.T) {
	payload := bytes.Repeat([]byte("x"), 1<<16)
	sender := &fakeSender{payload: payload, err: errors.New("send interrupted"), partial: 1 << 12}
	p := newInternalPipeline(t, sender)

	dest := filepath.Join(t.TempDir(), "abc.sendstream.zst")
	err := p.Compress(context.Background(), "build/abc", dest)
	if !errors.Is(err, services.ErrArtifactWrite) {
		t.Fatalf("expected ErrArtifactWrite, got %v", err)
	}

	if _, statErr := os.Stat(dest); !os.IsNotExist(statErr) {
		t.Fatalf("expected no file at final destination, got stat err %v", statErr)
	}
	if _, statErr := os.Stat(dest + ".partial"); !os.IsNotExist(statErr) {
		t.Fatalf("expected partial file to be removed")
	}
}

func TestCompressFailingCompressorLeavesNoArtifact(t *testing.T) {
	sender := &fakeSender{payload: []byte("payload")}
	comp := failingCompressor{}
	p, err := NewPipeline(sender, comp, 0)
	if err != nil {
		t.Fatalf("construct pipeline: %v", err)
	}

	dest := filepath.Join(t.TempDir(), "abc.sendstream.zst")
	cErr := p.Compress(context.Background(), "build/abc", dest)
	if !errors.Is(cErr, services.ErrArtifactWrite) {
		t.Fatalf("expected ErrArtifactWrite, got %v", cErr)
	}
	if _, statErr := os.Stat(dest); !os.IsNotExist(statErr) {
		t.Fatalf("expected nothing at destination path")
	}
}

type failingCompressor struct{}

func (failingCompressor) Compress(ctx context.Context, r io.Reader, w io.Writer) error {
	// Consume a little input first to mimic a mid-stream crash.
	buf := make([]byte, 4)
	_, _ = r.Read(buf)
	return errors.New("compressor exploded")
}

func (failingCompressor) Extension() string { return "zst" }

func TestForConfigSelectsTool(t *testing.T) {
	cases := []struct {
		tool string
		ext  string
	}{
		{"zstd", "zst"},
		{"gzip", "gz"},
		{"internal", "zst"},
	}
	for _, tc := range cases {
		cfg := defaultConfig(t)
		cfg.Compress.Tool = tc.tool
		comp, err := ForConfig(cfg)
		if err != nil {
			t.Fatalf("%s: %v", tc.tool, err)
		}
		if comp.Extension() != tc.ext {
			t.Errorf("%s extension = %q, want %q", tc.tool, comp.Extension(), tc.ext)
		}
	}
}

func TestExternalCompressorRuns(t *testing.T) {
	if _, err := os.Stat("/bin/cat"); err != nil {
		t.Skip("/bin/cat unavailable")
	}
	ext := NewExternal("/bin/cat", nil, "zst")
	var out strings.Builder
	if err := ext.Compress(context.Background(), strings.NewReader("identity"), &out); err != nil {
		t.Fatalf("external compress: %v", err)
	}
	if out.String() != "identity" {
		t.Fatalf("unexpected output %q", out.String())
	}
}
