package logging

import (
	"fmt"
	"os"
	"sync"
)

// rotatingWriter appends to a file. When the next write would push it past
// maxBytes the file moves to path.1, older backups shift up by one, and
// anything beyond keep backups is removed. keep == 0 truncates in place.
type rotatingWriter struct {
	path     string
	maxBytes int64
	keep     int

	mu   sync.Mutex
	file *os.File
	size int64
}

func newRotatingWriter(path string, maxMB, keep int) (*rotatingWriter, error) {
	if maxMB <= 0 {
		maxMB = 10
	}
	if keep < 0 {
		keep = 0
	}
	f, size, err := openLogFile(path)
	if err != nil {
		return nil, err
	}
	return &rotatingWriter{
		path:     path,
		maxBytes: int64(maxMB) << 20,
		keep:     keep,
		file:     f,
		size:     size,
	}, nil
}

func (w *rotatingWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		f, size, err := openLogFile(w.path)
		if err != nil {
			return 0, err
		}
		w.file, w.size = f, size
	}
	// A record larger than the limit still goes out whole, into a fresh file.
	if w.size > 0 && w.size+int64(len(p)) > w.maxBytes {
		if err := w.rotate(); err != nil {
			return 0, err
		}
	}
	n, err := w.file.Write(p)
	w.size += int64(n)
	return n, err
}

func (w *rotatingWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	return err
}

func (w *rotatingWriter) rotate() error {
	if w.file != nil {
		_ = w.file.Close()
		w.file = nil
	}
	flags := os.O_CREATE | os.O_APPEND | os.O_WRONLY
	if w.keep == 0 {
		flags |= os.O_TRUNC
	} else {
		_ = os.Remove(backupName(w.path, w.keep))
		for i := w.keep - 1; i >= 1; i-- {
			if err := os.Rename(backupName(w.path, i), backupName(w.path, i+1)); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("shift log backup %d: %w", i, err)
			}
		}
		if err := os.Rename(w.path, backupName(w.path, 1)); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("rotate log: %w", err)
		}
	}
	f, err := os.OpenFile(w.path, flags, 0o644)
	if err != nil {
		return err
	}
	w.file, w.size = f, 0
	return nil
}

func backupName(path string, n int) string {
	return fmt.Sprintf("%s.%d", path, n)
}

func openLogFile(path string) (*os.File, int64, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, 0, err
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, 0, err
	}
	return f, info.Size(), nil
}
