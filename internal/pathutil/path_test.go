package pathutil

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func TestValidatePath(t *testing.T) {
	allowed := t.TempDir()
	other := t.TempDir()
	sub := filepath.Join(allowed, "nested")
	if err := os.MkdirAll(sub, 0700); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		path    string
		dirs    []string
		wantErr string
	}{
		{"inside", filepath.Join(allowed, "run.barw.gz"), []string{allowed}, ""},
		{"nested", filepath.Join(sub, "run.barw.gz"), []string{allowed}, ""},
		{"not yet created dir", filepath.Join(allowed, "new", "run.barw.gz"), []string{allowed}, ""},
		{"the dir itself", allowed, []string{allowed}, ""},
		{"second allowed dir", filepath.Join(other, "x"), []string{allowed, other}, ""},
		{"dot-dot escape", filepath.Join(allowed, "..", "etc", "passwd"), []string{allowed}, "outside allowed directories"},
		{"other dir", filepath.Join(other, "x"), []string{allowed}, "outside allowed directories"},
		{"prefix sibling", allowed + "-evil/x", []string{allowed}, "outside allowed directories"},
		{"empty", "", []string{allowed}, "path is empty"},
		{"no dirs", filepath.Join(allowed, "x"), nil, "no allowed directories"},
		{"null byte", allowed + "/a\x00b", []string{allowed}, "null byte"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePath(tt.path, tt.dirs)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("ValidatePath() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("ValidatePath() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidatePath_Symlinks(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on Windows")
	}

	allowed := t.TempDir()
	outside := t.TempDir()
	realDir := filepath.Join(allowed, "real")
	if err := os.MkdirAll(realDir, 0700); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(outside, filepath.Join(allowed, "escape")); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(realDir, filepath.Join(allowed, "link")); err != nil {
		t.Fatal(err)
	}

	if err := ValidatePath(filepath.Join(allowed, "escape", "x"), []string{allowed}); err == nil {
		t.Error("symlink leaving the allowed dir was accepted")
	}
	if err := ValidatePath(filepath.Join(allowed, "link", "x"), []string{allowed}); err != nil {
		t.Errorf("symlink inside the allowed dir rejected: %v", err)
	}
}

func TestRedactPath(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"/home/user/.barw/barw.db", ".../.barw/barw.db"},
		{"/a/b/c/d/e.txt", ".../d/e.txt"},
		{"/file.txt", "file.txt"},
		{"dir/file.txt", ".../dir/file.txt"},
		{"file.txt", "file.txt"},
		{"/home/user/.barw/", ".../user/.barw"},
	}
	for _, tt := range tests {
		if got := RedactPath(tt.in); got != tt.want {
			t.Errorf("RedactPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestArchiveDirs(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}

	dirs, err := ArchiveDirs("")
	if err != nil {
		t.Fatal(err)
	}
	if len(dirs) != 1 || dirs[0] != filepath.Join(home, ".barw", "backups") {
		t.Errorf("ArchiveDirs(\"\") = %v", dirs)
	}

	root := t.TempDir()
	dirs, err = ArchiveDirs(root)
	if err != nil {
		t.Fatal(err)
	}
	if len(dirs) != 2 || dirs[1] != filepath.Join(root, ".barw", "backups") {
		t.Errorf("ArchiveDirs(root) = %v", dirs)
	}
}
