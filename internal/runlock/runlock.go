package runlock

import (
	"fmt"
	"os"
	"strconv"
)

// Lock is a file-based run lock. Nothing schedules overlapping runs on
// purpose, but the output file is overwritten in place, so two
// concurrent invocations would corrupt it via interleaved writes.
type Lock struct {
	path string
}

// Acquire atomically creates the lock file at path, recording the
// current PID. It fails if the file already exists.
func Acquire(path string) (*Lock, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return nil, fmt.Errorf("lock file %s already exists, another run may be in progress", path)
		}
		return nil, fmt.Errorf("failed to create lock file %s: %w", path, err)
	}
	defer f.Close()

	if _, err := f.WriteString(strconv.Itoa(os.Getpid())); err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("failed to write lock file %s: %w", path, err)
	}
	return &Lock{path: path}, nil
}

// Release removes the lock file
func (l *Lock) Release() error {
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove lock file %s: %w", l.path, err)
	}
	return nil
}
