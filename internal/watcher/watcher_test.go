package watcher

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatcher(t *testing.T) {
	tmpDir := t.TempDir()

	changedFiles := make(chan []string, 1)
	w, err := New(100*time.Millisecond, []string{"node_modules"}, []string{"*.spec.*"}, func(paths []string) {
		changedFiles <- paths
	})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	if err := w.Watch(tmpDir); err != nil {
		t.Fatal(err)
	}

	testFile := filepath.Join(tmpDir, "cart.ts")
	os.WriteFile(testFile, []byte("export const cart = [];"), 0644)

	select {
	case paths := <-changedFiles:
		found := false
		for _, p := range paths {
			if p == testFile {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("Expected to find %s in changed files %v", testFile, paths)
		}
	case <-time.After(2 * time.Second):
		t.Error("Timed out waiting for file change event")
	}

	// non-source files never reach the callback
	os.WriteFile(filepath.Join(tmpDir, "notes.md"), []byte("# notes"), 0644)

	select {
	case paths := <-changedFiles:
		for _, p := range paths {
			if filepath.Base(p) == "notes.md" {
				t.Error("Non-source file triggered event")
			}
		}
	case <-time.After(500 * time.Millisecond):
		// timeout is the expected outcome
	}
}

func TestWatcherExcludedFilePattern(t *testing.T) {
	tmpDir := t.TempDir()

	changedFiles := make(chan []string, 1)
	w, err := New(100*time.Millisecond, nil, []string{"*.spec.*"}, func(paths []string) {
		changedFiles <- paths
	})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	if err := w.Watch(tmpDir); err != nil {
		t.Fatal(err)
	}

	os.WriteFile(filepath.Join(tmpDir, "cart.spec.ts"), []byte("it('works', () => {});"), 0644)

	select {
	case paths := <-changedFiles:
		t.Errorf("Excluded file triggered event: %v", paths)
	case <-time.After(500 * time.Millisecond):
	}
}

func TestWatcherNewDirectory(t *testing.T) {
	tmpDir := t.TempDir()

	changedFiles := make(chan []string, 4)
	w, err := New(100*time.Millisecond, nil, nil, func(paths []string) {
		changedFiles <- paths
	})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	if err := w.Watch(tmpDir); err != nil {
		t.Fatal(err)
	}

	subdir := filepath.Join(tmpDir, "features")
	if err := os.Mkdir(subdir, 0o755); err != nil {
		t.Fatal(err)
	}
	// give the watcher time to register the new directory
	time.Sleep(200 * time.Millisecond)

	nested := filepath.Join(subdir, "auth.tsx")
	os.WriteFile(nested, []byte("export const x = 1;"), 0644)

	deadline := time.After(2 * time.Second)
	for {
		select {
		case paths := <-changedFiles:
			for _, p := range paths {
				if p == nested {
					return
				}
			}
		case <-deadline:
			t.Fatal("Timed out waiting for event from new directory")
		}
	}
}

func TestShouldExcludeFile(t *testing.T) {
	w, err := New(time.Millisecond, nil, []string{"*.stories.*"}, func([]string) {})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	cases := map[string]bool{
		"src/cart.ts":          false,
		"src/Cart.stories.tsx": true,
		"src/readme.md":        true,
		"src/index.jsx":        false,
		"src/assets/logo.svg":  true,
		"src/legacy/app.cjs":   false,
	}
	for path, want := range cases {
		if got := w.shouldExcludeFile(path); got != want {
			t.Errorf("shouldExcludeFile(%q) = %v, want %v", path, got, want)
		}
	}
}
