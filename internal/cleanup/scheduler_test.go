package cleanup

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func makeWorkspace(t *testing.T, root, name string, age time.Duration) string {
	t.Helper()
	dir := filepath.Join(root, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", name, err)
	}
	if err := os.WriteFile(filepath.Join(dir, "audio.wav"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write file in %s: %v", name, err)
	}
	if age > 0 {
		old := time.Now().Add(-age)
		if err := os.Chtimes(dir, old, old); err != nil {
			t.Fatalf("age %s: %v", name, err)
		}
	}
	return dir
}

func TestSweepRemovesOnlyStaleWorkspaces(t *testing.T) {
	root := t.TempDir()
	stale := makeWorkspace(t, root, "old-job", 3*time.Hour)
	fresh := makeWorkspace(t, root, "fresh-job", 0)

	s := NewScheduler(root, 60, 1)
	s.sweepStale()

	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Fatalf("stale workspace still present: %v", err)
	}
	if _, err := os.Stat(fresh); err != nil {
		t.Fatalf("fresh workspace was removed: %v", err)
	}
}

func TestSweepRemovesStrayFiles(t *testing.T) {
	root := t.TempDir()
	stray := filepath.Join(root, "orphan.zip")
	if err := os.WriteFile(stray, []byte("x"), 0o644); err != nil {
		t.Fatalf("write stray file: %v", err)
	}
	old := time.Now().Add(-3 * time.Hour)
	if err := os.Chtimes(stray, old, old); err != nil {
		t.Fatalf("age stray file: %v", err)
	}

	NewScheduler(root, 60, 1).sweepStale()

	if _, err := os.Stat(stray); !os.IsNotExist(err) {
		t.Fatalf("stray file still present: %v", err)
	}
}

func TestSweepMissingRoot(t *testing.T) {
	s := NewScheduler(filepath.Join(t.TempDir(), "missing"), 60, 1)
	s.sweepStale() // must not panic
}

func TestStartSweepsImmediately(t *testing.T) {
	root := t.TempDir()
	stale := makeWorkspace(t, root, "old-job", 3*time.Hour)

	s := NewScheduler(root, 60, 1)
	s.Start()
	defer s.Stop()

	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Fatalf("stale workspace survived the startup sweep: %v", err)
	}
}

func TestEnsureTempDirExists(t *testing.T) {
	root := filepath.Join(t.TempDir(), "nested", "temp")
	if err := EnsureTempDirExists(root); err != nil {
		t.Fatalf("EnsureTempDirExists failed: %v", err)
	}
	info, err := os.Stat(root)
	if err != nil {
		t.Fatalf("temp root missing: %v", err)
	}
	if !info.IsDir() {
		t.Fatal("temp root is not a directory")
	}
	if err := EnsureTempDirExists(root); err != nil {
		t.Fatalf("EnsureTempDirExists is not idempotent: %v", err)
	}
}
