package onefile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
)

// CanonicalPath resolves path to an absolute, symlink-free, cleaned form.
// On Windows the result uses the plain drive-letter form rather than the
// extended-length prefix, which matters only for display and for tools
// that cannot handle the long form.
func CanonicalPath(path string) (string, error) {
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		return "", fmt.Errorf("canonicalize %s: %w", path, err)
	}
	return filepath.Abs(resolved)
}

// ensureParentDir creates the directory containing path if absent.
func ensureParentDir(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}
	return nil
}

// syncParentDir fsyncs the directory containing path so a freshly created
// directory entry is persisted. Filesystems that cannot fsync a directory
// are tolerated.
func syncParentDir(path string) error {
	parent, err := os.Open(filepath.Dir(path))
	if err != nil {
		return err
	}
	defer parent.Close() //nolint:errcheck

	if err := parent.Sync(); err != nil &&
		!errors.Is(err, syscall.EINVAL) && !errors.Is(err, syscall.ENOTSUP) && !errors.Is(err, syscall.EBADF) {
		return err
	}
	return nil
}
