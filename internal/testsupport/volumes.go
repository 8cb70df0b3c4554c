package testsupport

import (
	"context"
	"fmt"
	"os"
	"sync"
)

// FakeVolumeManager mimics subvolume semantics on a plain filesystem:
// create fails on an existing path, delete fails on a missing one, and
// freezing is recorded rather than enforced.
type FakeVolumeManager struct {
	mu     sync.Mutex
	frozen map[string]bool

	CreateErr error
	DeleteErr error
	FreezeErr error
}

// NewFakeVolumeManager constructs an empty fake.
func NewFakeVolumeManager() *FakeVolumeManager {
	return &FakeVolumeManager{frozen: make(map[string]bool)}
}

func (f *FakeVolumeManager) CreateSubvolume(ctx context.Context, path string) error {
	if f.CreateErr != nil {
		return f.CreateErr
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("create subvolume %s: target exists", path)
	}
	return os.MkdirAll(path, 0o755)
}

func (f *FakeVolumeManager) DeleteSubvolume(ctx context.Context, path string) error {
	if f.DeleteErr != nil {
		return f.DeleteErr
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("delete subvolume %s: %w", path, err)
	}
	f.mu.Lock()
	delete(f.frozen, path)
	f.mu.Unlock()
	return os.RemoveAll(path)
}

func (f *FakeVolumeManager) SetReadOnly(ctx context.Context, path string, readOnly bool) error {
	if f.FreezeErr != nil {
		return f.FreezeErr
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("set read-only %s: %w", path, err)
	}
	f.mu.Lock()
	f.frozen[path] = readOnly
	f.mu.Unlock()
	return nil
}

// Frozen reports whether the fake saw a freeze for path.
func (f *FakeVolumeManager) Frozen(path string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.frozen[path]
}
