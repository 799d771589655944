package storage

import (
	"os"
	"path/filepath"
	"testing"

	"meal-lens/internal/normalize"
)

func TestProfileStore(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "storage_test")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tempDir)

	store, err := NewProfileStore(tempDir)
	if err != nil {
		t.Fatalf("Failed to create ProfileStore: %v", err)
	}

	max := 15.0
	profile := normalize.CategoryProfile{
		Name:         "herb",
		Keywords:     []string{"prezzemolo", "basilico"},
		IsGarnish:    true,
		MaxQuantityG: &max,
	}

	t.Run("CheckExists-False", func(t *testing.T) {
		if store.Exists("herb") {
			t.Error("Expected 'herb' to not exist yet, but it does")
		}
	})

	t.Run("Save", func(t *testing.T) {
		if err := store.Save(profile); err != nil {
			t.Fatalf("Failed to save profile: %v", err)
		}

		filePath := filepath.Join(tempDir, "herb.json")
		if _, err := os.Stat(filePath); os.IsNotExist(err) {
			t.Errorf("Expected file '%s' to be created, but it wasn't", filePath)
		}
	})

	t.Run("CheckExists-True", func(t *testing.T) {
		if !store.Exists("herb") {
			t.Error("Expected 'herb' to exist, but it doesn't")
		}
	})

	t.Run("Load", func(t *testing.T) {
		loaded, err := store.Load("herb")
		if err != nil {
			t.Fatalf("Failed to load profile: %v", err)
		}
		if loaded.Name != "herb" {
			t.Errorf("Expected name 'herb', got '%s'", loaded.Name)
		}
		if !loaded.IsGarnish {
			t.Error("Expected garnish flag to survive the round trip")
		}
		if loaded.MaxQuantityG == nil || *loaded.MaxQuantityG != 15.0 {
			t.Errorf("Expected max quantity 15.0, got %v", loaded.MaxQuantityG)
		}
	})

	t.Run("Load-NotFound", func(t *testing.T) {
		if _, err := store.Load("no-such-category"); err == nil {
			t.Fatal("Expected an error for loading missing profile, got nil")
		}
	})

	t.Run("LoadAll", func(t *testing.T) {
		second := normalize.CategoryProfile{Name: "dairy", Keywords: []string{"mozzarella"}}
		if err := store.Save(second); err != nil {
			t.Fatalf("Failed to save second profile: %v", err)
		}

		profiles, err := store.LoadAll()
		if err != nil {
			t.Fatalf("Failed to load all profiles: %v", err)
		}
		if len(profiles) != 2 {
			t.Errorf("Expected 2 profiles, got %d", len(profiles))
		}
	})

	t.Run("LoadAll-SkipsCorrupt", func(t *testing.T) {
		if err := os.WriteFile(filepath.Join(tempDir, "broken.json"), []byte("{not json"), 0644); err != nil {
			t.Fatalf("Failed to write corrupt file: %v", err)
		}

		profiles, err := store.LoadAll()
		if err != nil {
			t.Fatalf("Expected corrupt file to be skipped, got error: %v", err)
		}
		if len(profiles) != 2 {
			t.Errorf("Expected 2 parseable profiles, got %d", len(profiles))
		}
	})

	t.Run("Remove", func(t *testing.T) {
		if err := store.Remove("dairy"); err != nil {
			t.Fatalf("Failed to remove profile: %v", err)
		}
		if store.Exists("dairy") {
			t.Error("Expected 'dairy' to be gone after removal")
		}
	})

	t.Run("Save-NoName", func(t *testing.T) {
		if err := store.Save(normalize.CategoryProfile{}); err == nil {
			t.Fatal("Expected an error for unnamed profile, got nil")
		}
	})
}
