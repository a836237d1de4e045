package fs

import (
	i_fs "io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestOverlayFS(t *testing.T) {
	dir := t.TempDir()
	onDisk := filepath.Join(dir, "src", "a.ts")
	shadowed := filepath.Join(dir, "src", "b.ts")
	inMemory := filepath.Join(dir, "src", "c.ts")
	if err := os.MkdirAll(filepath.Dir(onDisk), 0755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	for _, path := range []string{onDisk, shadowed} {
		if err := os.WriteFile(path, []byte("disk"), 0644); err != nil {
			t.Fatalf("WriteFile(%q): %v", path, err)
		}
	}

	fsys := NewOverlayFS(NewOSFS(), Overlay{
		shadowed: []byte("overlay b"),
		inMemory: []byte("overlay c"),
	})

	t.Run("ReadFile", func(t *testing.T) {
		want := map[string]string{onDisk: "disk", shadowed: "overlay b", inMemory: "overlay c"}
		for path, content := range want {
			got, err := fsys.ReadFile(path)
			if err != nil {
				t.Fatalf("ReadFile(%q): %v", path, err)
			}
			if string(got) != content {
				t.Errorf("ReadFile(%q) = %q, want %q", path, got, content)
			}
		}
	})

	t.Run("Stat", func(t *testing.T) {
		info, err := fsys.Stat(inMemory)
		if err != nil {
			t.Fatalf("Stat(%q): %v", inMemory, err)
		}
		if info.IsDir() || info.Size() != int64(len("overlay c")) {
			t.Errorf("unexpected file info: dir=%v size=%d", info.IsDir(), info.Size())
		}
	})

	t.Run("WalkDir", func(t *testing.T) {
		var got []string
		err := fsys.WalkDir(dir, func(path string, d i_fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() {
				rel, _ := filepath.Rel(dir, path)
				got = append(got, filepath.ToSlash(rel))
			}
			return nil
		})
		if err != nil {
			t.Fatalf("WalkDir: %v", err)
		}
		want := []string{"src/a.ts", "src/b.ts", "src/c.ts"}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("WalkDir() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("WriteFile keeps overlay files in memory", func(t *testing.T) {
		if err := fsys.WriteFile(shadowed, []byte("updated"), 0644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
		got, _ := fsys.ReadFile(shadowed)
		if string(got) != "updated" {
			t.Errorf("ReadFile after WriteFile = %q", got)
		}
		disk, _ := os.ReadFile(shadowed)
		if string(disk) != "disk" {
			t.Errorf("file on disk was modified: %q", disk)
		}
	})
}

func TestOverlayFS_WalkDir_OverlayOnlyDirs(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.ts"), []byte("disk"), 0644); err != nil {
		t.Fatal(err)
	}
	fsys := NewOverlayFS(NewOSFS(), Overlay{
		filepath.Join(dir, "node_modules", "m", "x.ts"): []byte("x"),
		filepath.Join(dir, "node_modules", "y.ts"):      []byte("y"),
		filepath.Join(dir, "src", "lib", "b.ts"):        []byte("b"),
	})

	var got []string
	err := fsys.WalkDir(dir, func(path string, d i_fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(dir, path)
		rel = filepath.ToSlash(rel)
		if d.IsDir() {
			rel += "/"
		}
		got = append(got, rel)
		if d.IsDir() && d.Name() == "node_modules" {
			return filepath.SkipDir
		}
		return nil
	})
	if err != nil {
		t.Fatalf("WalkDir: %v", err)
	}
	want := []string{"./", "a.ts", "node_modules/", "src/", "src/lib/", "src/lib/b.ts"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("WalkDir() mismatch (-want +got):\n%s", diff)
	}
}

func TestOverlayFS_MkdirAll(t *testing.T) {
	dir := t.TempDir()
	fsys := NewOverlayFS(NewOSFS(), Overlay{
		filepath.Join(dir, "mem", "a.ts"): []byte("a"),
	})
	if err := fsys.MkdirAll(filepath.Join(dir, "mem"), 0755); err != nil {
		t.Fatalf("MkdirAll(overlay dir): %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "mem")); !os.IsNotExist(err) {
		t.Errorf("overlay directory was created on disk: %v", err)
	}
	if err := fsys.MkdirAll(filepath.Join(dir, "disk"), 0755); err != nil {
		t.Fatalf("MkdirAll(disk dir): %v", err)
	}
	if info, err := os.Stat(filepath.Join(dir, "disk")); err != nil || !info.IsDir() {
		t.Errorf("directory was not created on disk: %v", err)
	}
}
