package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFindManifestWalksUp(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b", "c")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	manifest := filepath.Join(root, "borrowck.toml")
	if err := os.WriteFile(manifest, []byte("[verify]\njobs = 3\n"), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}

	path, ok, err := findManifest(nested)
	if err != nil {
		t.Fatalf("findManifest: %v", err)
	}
	if !ok || path != manifest {
		t.Fatalf("got %q ok=%v, want %q", path, ok, manifest)
	}
}

func TestLoadManifestParsesVerifySection(t *testing.T) {
	dir := t.TempDir()
	body := "[verify]\njobs = 4\nmax_diagnostics = 25\n"
	if err := os.WriteFile(filepath.Join(dir, "borrowck.toml"), []byte(body), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}

	m, ok, err := loadManifest(dir)
	if err != nil {
		t.Fatalf("loadManifest: %v", err)
	}
	if !ok {
		t.Fatal("manifest not found")
	}
	if m.Config.Verify.Jobs != 4 || m.Config.Verify.MaxDiagnostics != 25 {
		t.Fatalf("parsed %+v", m.Config.Verify)
	}
}

func TestLoadManifestMissingIsNotAnError(t *testing.T) {
	m, ok, err := loadManifest(t.TempDir())
	if err != nil {
		t.Fatalf("loadManifest: %v", err)
	}
	if ok || m != nil {
		t.Fatalf("want no manifest, got %+v", m)
	}
}

func TestReadUIMode(t *testing.T) {
	cases := []struct {
		in   string
		want uiMode
		ok   bool
	}{
		{"", uiModeAuto, true},
		{"auto", uiModeAuto, true},
		{"ON", uiModeOn, true},
		{" off ", uiModeOff, true},
		{"fancy", "", false},
	}
	for _, tc := range cases {
		got, err := readUIMode(tc.in)
		if tc.ok != (err == nil) || got != tc.want {
			t.Errorf("readUIMode(%q) = %q, %v", tc.in, got, err)
		}
	}
}
