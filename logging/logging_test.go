package logging

import (
	"bytes"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRotatingWriterKeepsOneBackup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "homeval.log")
	w, err := NewRotatingWriter(path, 16)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer w.Close()

	if _, err := w.Write([]byte("first line that overflows\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := w.Write([]byte("second\n")); err != nil {
		t.Fatalf("write: %v", err)
	}

	backup, err := os.ReadFile(path + ".1")
	if err != nil {
		t.Fatalf("expected backup file: %v", err)
	}
	if !strings.Contains(string(backup), "first line") {
		t.Fatalf("backup should hold the rotated content, got %q", backup)
	}
	current, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read current: %v", err)
	}
	if string(current) != "second\n" {
		t.Fatalf("unexpected current content %q", current)
	}
}

func TestLevels(t *testing.T) {
	defer SetLevel(LevelInfo)

	if ParseLevel("DEBUG") != LevelDebug || ParseLevel("warning") != LevelWarn || ParseLevel("bogus") != LevelInfo {
		t.Fatalf("unexpected level parsing")
	}

	SetLevel(LevelWarn)
	if Enabled(LevelInfo) {
		t.Fatalf("info should be disabled at warn level")
	}
	if !Enabled(LevelError) {
		t.Fatalf("error should be enabled at warn level")
	}
}


func TestWarnfRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)
	defer SetLevel(LevelInfo)

	SetLevel(LevelError)
	Warnf("store: %s", "locked")
	if buf.Len() != 0 {
		t.Fatalf("warning should be suppressed at error level, got %q", buf.String())
	}

	SetLevel(LevelInfo)
	Warnf("store: %s", "locked")
	if !strings.Contains(buf.String(), "[warn] store: locked") {
		t.Fatalf("expected warning in output, got %q", buf.String())
	}
}
