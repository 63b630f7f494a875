package security

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/vinodismyname/fuelprice/config"
)

func mustTempDir(t *testing.T) string {
	t.Helper()
	d := t.TempDir()
	// macOS resolves /var to /private/var
	real, err := filepath.EvalSymlinks(d)
	if err != nil {
		t.Fatalf("eval symlinks: %v", err)
	}
	return real
}

func writeFile(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
}

func TestNewManager_ValidateConfig(t *testing.T) {
	dir := mustTempDir(t)
	m, err := NewManager([]string{dir, " "}, nil)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	if err := m.ValidateConfig(); err != nil {
		t.Fatalf("validate config: %v", err)
	}
	if got := len(m.AllowedDirectories()); got != 1 {
		t.Fatalf("allowed dirs len = %d, want 1", got)
	}

	empty, err := NewManager(nil, nil)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	if err := empty.ValidateConfig(); err == nil {
		t.Fatalf("expected error for empty allow-list")
	}
}

func TestNewManagerFromEnv(t *testing.T) {
	dir := mustTempDir(t)
	t.Setenv(config.EnvAllowedDirs, dir)
	m, err := NewManagerFromEnv()
	if err != nil {
		t.Fatalf("from env: %v", err)
	}
	if got := m.AllowedDirectories(); len(got) != 1 || got[0] != dir {
		t.Fatalf("allowed dirs = %v, want [%s]", got, dir)
	}
}

func TestNewManager_InvalidExtension(t *testing.T) {
	if _, err := NewManager(nil, []string{"csv"}); err == nil {
		t.Fatalf("expected error for extension without dot")
	}
}

func TestValidateOpenPath_AllowsWithinRoot(t *testing.T) {
	root := mustTempDir(t)
	sub := filepath.Join(root, "sub")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	fpath := filepath.Join(sub, "SEMANAL_MUNICIPIOS-2019.CSV")
	writeFile(t, fpath)

	m, err := NewManager([]string{root}, nil)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	got, err := m.ValidateOpenPath(fpath)
	if err != nil {
		t.Fatalf("validate path: %v", err)
	}
	if got != fpath {
		t.Fatalf("got %q, want %q", got, fpath)
	}
}

func TestValidateOpenPath_DeniesOutsideRoot(t *testing.T) {
	root := mustTempDir(t)
	outside := filepath.Join(mustTempDir(t), "escape.csv")
	writeFile(t, outside)

	m, err := NewManager([]string{root}, nil)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	if _, err := m.ValidateOpenPath(outside); !errors.Is(err, ErrNotAllowed) {
		t.Fatalf("err = %v, want ErrNotAllowed", err)
	}
}

func TestValidateOpenPath_Missing(t *testing.T) {
	root := mustTempDir(t)
	m, err := NewManager([]string{root}, nil)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	if _, err := m.ValidateOpenPath(filepath.Join(root, "absent.csv")); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestValidateOpenPath_SymlinkEscapeDenied(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlink test skipped on Windows")
	}
	root := mustTempDir(t)
	target := filepath.Join(mustTempDir(t), "target.csv")
	writeFile(t, target)
	link := filepath.Join(root, "link.csv")
	if err := os.Symlink(target, link); err != nil {
		t.Fatalf("symlink: %v", err)
	}

	m, err := NewManager([]string{root}, nil)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	if _, err := m.ValidateOpenPath(link); err == nil {
		t.Fatalf("expected error for symlink escape")
	}
}

func TestValidateOpenPath_UnsupportedExt(t *testing.T) {
	root := mustTempDir(t)
	fp := filepath.Join(root, "bad.xlsx")
	writeFile(t, fp)

	m, err := NewManager([]string{root}, nil)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	if _, err := m.ValidateOpenPath(fp); !errors.Is(err, ErrUnsupportedExtension) {
		t.Fatalf("err = %v, want ErrUnsupportedExtension", err)
	}
}

func TestValidateWritePath(t *testing.T) {
	root := mustTempDir(t)
	m, err := NewManager([]string{root}, nil)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	want := filepath.Join(root, "report.xlsx")
	got, err := m.ValidateWritePath(want)
	if err != nil {
		t.Fatalf("validate write: %v", err)
	}
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}

	if _, err := m.ValidateWritePath(filepath.Join(root, "report.csv")); !errors.Is(err, ErrUnsupportedExtension) {
		t.Fatalf("err = %v, want ErrUnsupportedExtension", err)
	}
	if _, err := m.ValidateWritePath(filepath.Join(root, "nodir", "report.db")); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if _, err := m.ValidateWritePath(filepath.Join(mustTempDir(t), "report.db")); !errors.Is(err, ErrNotAllowed) {
		t.Fatalf("err = %v, want ErrNotAllowed", err)
	}
}
