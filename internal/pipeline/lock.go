package pipeline

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// ErrLocked is returned when another run holds the output directory.
var ErrLocked = errors.New("another promo run is using the output directory")

// LockPath returns the lock file guarding outputDir. It lives in the system
// temp directory, keyed by the resolved absolute path, so the output
// directory only ever holds composites.
func LockPath(outputDir string) string {
	dir, err := filepath.Abs(outputDir)
	if err != nil {
		dir = filepath.Clean(outputDir)
	}
	if resolved, err := filepath.EvalSymlinks(dir); err == nil {
		dir = resolved
	}
	sum := sha256.Sum256([]byte(dir))
	return filepath.Join(os.TempDir(), "promo-"+hex.EncodeToString(sum[:8])+".lock")
}

// lockOutputDir takes the run lock for dir. dir must already exist so that
// symlinked spellings of it resolve to the same lock.
func lockOutputDir(dir string) (*flock.Flock, error) {
	lock := flock.New(LockPath(dir))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, ErrLocked
	}
	return lock, nil
}
