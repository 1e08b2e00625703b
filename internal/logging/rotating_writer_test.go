package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestRotatingWriterKeepsBackups(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.log")
	writer, err := newRotatingWriter(path, 1, 2)
	if err != nil {
		t.Fatalf("create writer: %v", err)
	}
	defer writer.Close()

	half := 512 * 1024
	for i, b := range []byte{'a', 'b', 'c', 'd', 'e'} {
		if _, err := writer.Write(bytes.Repeat([]byte{b}, half+1)); err != nil {
			t.Fatalf("write chunk %d: %v", i, err)
		}
	}

	want := map[string]byte{path: 'e', path + ".1": 'd', path + ".2": 'c'}
	for name, b := range want {
		raw, err := os.ReadFile(name)
		if err != nil {
			t.Fatalf("read %s: %v", name, err)
		}
		if len(raw) != half+1 || raw[0] != b {
			t.Fatalf("%s holds %d bytes starting %q, want %d of %q", name, len(raw), raw[:1], half+1, b)
		}
	}
	if _, err := os.Stat(path + ".3"); !os.IsNotExist(err) {
		t.Fatalf("expected no third backup, stat err = %v", err)
	}
}

func TestRotatingWriterWithoutBackupsTruncates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.log")
	writer, err := newRotatingWriter(path, 1, 0)
	if err != nil {
		t.Fatalf("create writer: %v", err)
	}
	defer writer.Close()

	chunk := make([]byte, 512*1024)
	for i := 0; i < 3; i++ {
		if _, err := writer.Write(chunk); err != nil {
			t.Fatalf("write chunk %d: %v", i, err)
		}
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat log: %v", err)
	}
	if info.Size() > 1<<20 {
		t.Fatalf("expected log <= 1MB, got %d", info.Size())
	}
	if _, err := os.Stat(path + ".1"); !os.IsNotExist(err) {
		t.Fatalf("expected no backup, stat err = %v", err)
	}
}

func TestRotatingWriterReopensAfterClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.log")
	writer, err := newRotatingWriter(path, 1, 1)
	if err != nil {
		t.Fatalf("create writer: %v", err)
	}
	if _, err := writer.Write([]byte("first\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := writer.Write([]byte("second\n")); err != nil {
		t.Fatalf("write after close: %v", err)
	}
	defer writer.Close()

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if string(raw) != "first\nsecond\n" {
		t.Fatalf("log content = %q", raw)
	}
}
