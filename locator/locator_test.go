package locator

import (
	i_fs "io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/podhmo/go-tslint/fs"
)

// emptyFS has no files; tests layer an overlay on top of it so that the
// upward search never sees the real file system.
type emptyFS struct{}

func (emptyFS) Stat(name string) (i_fs.FileInfo, error) { return nil, os.ErrNotExist }
func (emptyFS) ReadFile(name string) ([]byte, error)    { return nil, os.ErrNotExist }
func (emptyFS) WriteFile(name string, data []byte, perm i_fs.FileMode) error {
	return os.ErrPermission
}
func (emptyFS) WalkDir(root string, fn i_fs.WalkDirFunc) error { return nil }
func (emptyFS) MkdirAll(path string, perm i_fs.FileMode) error { return os.ErrPermission }

func newFS(files map[string]string) fs.FS {
	overlay := fs.Overlay{}
	for name, content := range files {
		overlay[filepath.FromSlash(name)] = []byte(content)
	}
	return fs.NewOverlayFS(emptyFS{}, overlay)
}

func TestNew(t *testing.T) {
	tests := []struct {
		name            string
		files           map[string]string
		start           string
		wantRoot        string
		wantMarker      string
		wantProjectName string
	}{
		{
			name: "package.json above start",
			files: map[string]string{
				"/project/package.json": `{"name": "@acme/web", "version": "1.0.0"}`,
				"/project/src/app/a.ts": "",
			},
			start:           "/project/src/app",
			wantRoot:        "/project",
			wantMarker:      "package.json",
			wantProjectName: "@acme/web",
		},
		{
			name: "config file wins over package.json in the same directory",
			files: map[string]string{
				"/project/package.json": `{"name": "web"}`,
				"/project/.tslint.yaml": "rules: {}",
				"/project/a.ts":         "",
			},
			start:           "/project",
			wantRoot:        "/project",
			wantMarker:      ".tslint.yaml",
			wantProjectName: "web",
		},
		{
			name: "nearest marker wins",
			files: map[string]string{
				"/repo/package.json":              `{"name": "root"}`,
				"/repo/packages/ui/tsconfig.json": "{}",
				"/repo/packages/ui/src/a.tsx":     "",
			},
			start:      "/repo/packages/ui/src/a.tsx",
			wantRoot:   "/repo/packages/ui",
			wantMarker: "tsconfig.json",
		},
		{
			name: "no marker falls back to the start directory",
			files: map[string]string{
				"/loose/a.ts": "",
			},
			start:    "/loose",
			wantRoot: "/loose",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc, err := New(filepath.FromSlash(tt.start), newFS(tt.files))
			if err != nil {
				t.Fatalf("New() unexpected error: %v", err)
			}
			if got, want := filepath.ToSlash(loc.RootDir()), tt.wantRoot; got != want {
				t.Errorf("RootDir() = %q, want %q", got, want)
			}
			if got := loc.Marker(); got != tt.wantMarker {
				t.Errorf("Marker() = %q, want %q", got, tt.wantMarker)
			}
			if got := loc.ProjectName(); got != tt.wantProjectName {
				t.Errorf("ProjectName() = %q, want %q", got, tt.wantProjectName)
			}
		})
	}
}

func TestNew_BrokenPackageJSON(t *testing.T) {
	fsys := newFS(map[string]string{"/project/package.json": `{"name": `})
	if _, err := New(filepath.FromSlash("/project"), fsys); err == nil {
		t.Error("expected an error for a malformed package.json")
	}
}

func TestLocator_Rel(t *testing.T) {
	loc, err := New(filepath.FromSlash("/project"), newFS(map[string]string{"/project/tsconfig.json": "{}"}))
	if err != nil {
		t.Fatalf("New() unexpected error: %v", err)
	}
	tests := []struct {
		path string
		want string
	}{
		{path: "/project/src/a.ts", want: "src/a.ts"},
		{path: "/project/a.ts", want: "a.ts"},
		{path: "/elsewhere/b.ts", want: "/elsewhere/b.ts"},
	}
	for _, tt := range tests {
		if got := loc.Rel(filepath.FromSlash(tt.path)); got != tt.want {
			t.Errorf("Rel(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}
