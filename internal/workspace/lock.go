package workspace

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"mkimg/internal/privilege"
	"mkimg/internal/services"
)

// Session describes the holder of the build lock, for diagnostics.
type Session struct {
	Token     string
	StartedAt time.Time
}

// BuildLock serializes build invocations within one workspace. The init
// marker only distinguishes initialized from uninitialized; this lock is the
// explicit idle/busy state. The underlying flock is released by the OS if
// the holder crashes, so a stale session file is informational only.
type BuildLock struct {
	fl          *flock.Flock
	sessionPath string
}

// NewBuildLock constructs the build lock for a workspace.
func NewBuildLock(ws *Workspace) *BuildLock {
	return &BuildLock{
		fl:          flock.New(ws.Path(fileBuildLock)),
		sessionPath: ws.Path(fileBuildSession),
	}
}

// Acquire takes the exclusive lock, failing with ErrBuildInProgress when
// another invocation holds it. On success a session file records who holds
// the lock and since when.
func (l *BuildLock) Acquire() error {
	ok, err := l.fl.TryLock()
	if err != nil {
		return fmt.Errorf("acquire build lock: %w", err)
	}
	if !ok {
		return services.Wrap(services.ErrBuildInProgress, "workspace", "lock", "another build holds the workspace", nil)
	}

	session := Session{Token: uuid.NewString(), StartedAt: time.Now().UTC()}
	line := fmt.Sprintf("%s %s\n", session.Token, session.StartedAt.Format(time.RFC3339))
	if err := os.WriteFile(l.sessionPath, []byte(line), 0o644); err != nil {
		_ = l.fl.Unlock()
		return fmt.Errorf("write build session: %w", err)
	}
	if err := privilege.NormalizeOwnership(l.sessionPath); err != nil {
		_ = os.Remove(l.sessionPath)
		_ = l.fl.Unlock()
		return err
	}
	return nil
}

// Release removes the session file and drops the lock.
func (l *BuildLock) Release() error {
	if err := os.Remove(l.sessionPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove build session: %w", err)
	}
	if err := l.fl.Unlock(); err != nil {
		return fmt.Errorf("release build lock: %w", err)
	}
	return nil
}

// CurrentSession reads the session file if a build recorded one.
func (l *BuildLock) CurrentSession() (Session, bool) {
	data, err := os.ReadFile(l.sessionPath)
	if err != nil {
		return Session{}, false
	}
	fields := strings.Fields(string(data))
	if len(fields) != 2 {
		return Session{}, false
	}
	started, err := time.Parse(time.RFC3339, fields[1])
	if err != nil {
		return Session{}, false
	}
	return Session{Token: fields[0], StartedAt: started}, true
}
