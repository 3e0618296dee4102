// SPDX-License-Identifier: MPL-2.0

package source

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// writeZip builds a zip file at path from name->content pairs.
func writeZip(t *testing.T, path string, members map[string]string) {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range members {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestExtractZip(t *testing.T) {
	t.Parallel()

	t.Run("nested members", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		zipPath := filepath.Join(dir, "mod.zip")
		writeZip(t, zipPath, map[string]string{
			"repo-main/.lola/module.yml": "type: lola/module\n",
			"repo-main/review/SKILL.md":  "skill",
		})

		dest := filepath.Join(dir, "out")
		if err := extractZip(zipPath, dest); err != nil {
			t.Fatalf("extractZip() error: %v", err)
		}
		raw, err := os.ReadFile(filepath.Join(dest, "repo-main", "review", "SKILL.md"))
		if err != nil {
			t.Fatalf("extracted file missing: %v", err)
		}
		if string(raw) != "skill" {
			t.Errorf("content = %q, want skill", raw)
		}
	})

	t.Run("path escape aborts before writing", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		zipPath := filepath.Join(dir, "evil.zip")
		writeZip(t, zipPath, map[string]string{
			"ok.txt":       "fine",
			"../evil.txt":  "escape",
			"also-ok.txt":  "fine",
			"sub/deep.txt": "fine",
		})

		dest := filepath.Join(dir, "out")
		if err := os.Mkdir(dest, 0o755); err != nil {
			t.Fatal(err)
		}
		err := extractZip(zipPath, dest)
		if !errors.Is(err, ErrPathEscape) {
			t.Fatalf("extractZip() error = %v, want ErrPathEscape", err)
		}
		var escErr *PathEscapeError
		if !errors.As(err, &escErr) {
			t.Fatalf("error should be *PathEscapeError, got %T", err)
		}

		// The containment pre-pass must run before anything lands.
		entries, err := os.ReadDir(dest)
		if err != nil {
			t.Fatal(err)
		}
		if len(entries) != 0 {
			t.Errorf("destination not empty after aborted extraction: %v", entries)
		}
		if _, err := os.Stat(filepath.Join(dir, "evil.txt")); !os.IsNotExist(err) {
			t.Error("escaped file was written outside the destination")
		}
	})
}

// writeTar builds a tar file at path from a list of prepared headers.
func writeTar(t *testing.T, path string, entries []struct {
	hdr  tar.Header
	body string
}) {
	t.Helper()
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	for _, e := range entries {
		hdr := e.hdr
		if hdr.Typeflag == tar.TypeReg {
			hdr.Size = int64(len(e.body))
		}
		if err := tw.WriteHeader(&hdr); err != nil {
			t.Fatal(err)
		}
		if hdr.Typeflag == tar.TypeReg {
			if _, err := tw.Write([]byte(e.body)); err != nil {
				t.Fatal(err)
			}
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestExtractTar(t *testing.T) {
	t.Parallel()

	t.Run("symlinks dropped and modes clamped", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		tarPath := filepath.Join(dir, "mod.tar")
		writeTar(t, tarPath, []struct {
			hdr  tar.Header
			body string
		}{
			{hdr: tar.Header{Name: "mod/", Typeflag: tar.TypeDir, Mode: 0o777}},
			{hdr: tar.Header{Name: "mod/run.sh", Typeflag: tar.TypeReg, Mode: 0o4777}, body: "#!/bin/sh\n"},
			{hdr: tar.Header{Name: "mod/data.txt", Typeflag: tar.TypeReg, Mode: 0o666}, body: "data"},
			{hdr: tar.Header{Name: "mod/link", Typeflag: tar.TypeSymlink, Linkname: "/etc/passwd"}},
		})

		dest := filepath.Join(dir, "out")
		if err := extractTar(tarPath, dest); err != nil {
			t.Fatalf("extractTar() error: %v", err)
		}

		if _, err := os.Lstat(filepath.Join(dest, "mod", "link")); !os.IsNotExist(err) {
			t.Error("symlink entry was materialized")
		}
		info, err := os.Stat(filepath.Join(dest, "mod", "run.sh"))
		if err != nil {
			t.Fatal(err)
		}
		if info.Mode().Perm() != 0o755 {
			t.Errorf("executable mode = %o, want clamped 0755", info.Mode().Perm())
		}
		info, err = os.Stat(filepath.Join(dest, "mod", "data.txt"))
		if err != nil {
			t.Fatal(err)
		}
		if info.Mode().Perm() != 0o644 {
			t.Errorf("file mode = %o, want clamped 0644", info.Mode().Perm())
		}
	})

	t.Run("dotdot member fails extraction", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		tarPath := filepath.Join(dir, "evil.tar")
		writeTar(t, tarPath, []struct {
			hdr  tar.Header
			body string
		}{
			{hdr: tar.Header{Name: "ok/../../evil.txt", Typeflag: tar.TypeReg, Mode: 0o644}, body: "x"},
		})

		err := extractTar(tarPath, filepath.Join(dir, "out"))
		if !errors.Is(err, ErrPathEscape) {
			t.Fatalf("extractTar() error = %v, want ErrPathEscape", err)
		}
	})

	t.Run("absolute member fails extraction", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		tarPath := filepath.Join(dir, "abs.tar")
		writeTar(t, tarPath, []struct {
			hdr  tar.Header
			body string
		}{
			{hdr: tar.Header{Name: "/etc/evil", Typeflag: tar.TypeReg, Mode: 0o644}, body: "x"},
		})

		err := extractTar(tarPath, filepath.Join(dir, "out"))
		if !errors.Is(err, ErrPathEscape) {
			t.Fatalf("extractTar() error = %v, want ErrPathEscape", err)
		}
	})
}

func TestTarNames(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		isTar  bool
		stem   string
	}{
		{"mod.tar", true, "mod"},
		{"mod.tar.gz", true, "mod"},
		{"mod.tgz", true, "mod"},
		{"mod.tar.bz2", true, "mod"},
		{"mod.tar.xz", true, "mod"},
		{"MOD.TAR.GZ", true, "MOD"},
		{"mod.zip", false, "mod.zip"},
		{"mod.txt", false, "mod.txt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := isTarName(tt.name); got != tt.isTar {
				t.Errorf("isTarName(%q) = %v, want %v", tt.name, got, tt.isTar)
			}
			if got := tarStem(tt.name); got != tt.stem {
				t.Errorf("tarStem(%q) = %q, want %q", tt.name, got, tt.stem)
			}
		})
	}
}
