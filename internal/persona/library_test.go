package persona

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadLibrary(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) {
		t.Helper()
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	write("sarah.json", `{"id": "sarah", "name": "Sarah Chen", "occupation": "Freelance designer"}`)
	write("marcus.json", `{"name": "Marcus Webb"}`)
	write("notes.txt", "not a profile")

	lib, err := LoadLibrary(dir)
	if err != nil {
		t.Fatalf("LoadLibrary failed: %v", err)
	}
	if lib.Len() != 2 {
		t.Fatalf("expected 2 profiles, got %d", lib.Len())
	}

	p, ok := lib.Profile("sarah")
	if !ok {
		t.Fatal("sarah not found")
	}
	if p.Occupation != "Freelance designer" {
		t.Errorf("occupation = %q", p.Occupation)
	}

	// File name stands in for a missing id.
	p, ok = lib.Profile("marcus")
	if !ok {
		t.Fatal("marcus not found by file name")
	}
	if p.Name != "Marcus Webb" {
		t.Errorf("name = %q", p.Name)
	}
}

func TestLoadLibrary_MissingDir(t *testing.T) {
	lib, err := LoadLibrary(filepath.Join(t.TempDir(), "nope"))
	if err != nil {
		t.Fatalf("expected empty library for missing dir, got %v", err)
	}
	if lib.Len() != 0 {
		t.Errorf("expected 0 profiles, got %d", lib.Len())
	}
}

func TestLoadLibrary_BadJSON(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadLibrary(dir); err == nil {
		t.Error("expected error for malformed profile")
	}
}
