package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"meal-lens/internal/normalize"
)

// ProfileStore provides file-based storage for category profile overrides.
// Operators drop one JSON file per category into the base directory; the
// overrides are layered over the built-in category table at startup.
type ProfileStore struct {
	basePath string
}

// NewProfileStore creates a new ProfileStore and ensures the base directory
// exists.
func NewProfileStore(basePath string) (*ProfileStore, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory %s: %w", basePath, err)
	}
	return &ProfileStore{basePath: basePath}, nil
}

func (s *ProfileStore) profilePath(name string) string {
	return filepath.Join(s.basePath, name+".json")
}

// Save stores a category profile override under its name.
func (s *ProfileStore) Save(profile normalize.CategoryProfile) error {
	if profile.Name == "" {
		return fmt.Errorf("category profile has no name")
	}

	data, err := json.MarshalIndent(profile, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal category profile: %w", err)
	}

	if err := os.WriteFile(s.profilePath(profile.Name), data, 0644); err != nil {
		return fmt.Errorf("failed to write category profile file: %w", err)
	}
	return nil
}

// Load retrieves one category profile override by name.
func (s *ProfileStore) Load(name string) (*normalize.CategoryProfile, error) {
	data, err := os.ReadFile(s.profilePath(name))
	if err != nil {
		return nil, fmt.Errorf("failed to read category profile file: %w", err)
	}

	var profile normalize.CategoryProfile
	if err := json.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("failed to unmarshal category profile: %w", err)
	}
	return &profile, nil
}

// Exists checks whether an override file exists for the category.
func (s *ProfileStore) Exists(name string) bool {
	_, err := os.Stat(s.profilePath(name))
	return !os.IsNotExist(err)
}

// LoadAll returns every stored override. Files that fail to parse are
// skipped so one bad override cannot block startup.
func (s *ProfileStore) LoadAll() ([]normalize.CategoryProfile, error) {
	matches, err := filepath.Glob(filepath.Join(s.basePath, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to list category profiles: %w", err)
	}

	var profiles []normalize.CategoryProfile
	for _, match := range matches {
		data, err := os.ReadFile(match)
		if err != nil {
			return nil, fmt.Errorf("failed to read category profile file %s: %w", match, err)
		}
		var profile normalize.CategoryProfile
		if err := json.Unmarshal(data, &profile); err != nil {
			fmt.Printf("Warning: skipping unparseable category profile %s: %v\n", match, err)
			continue
		}
		profiles = append(profiles, profile)
	}
	return profiles, nil
}

// Remove deletes one override file.
func (s *ProfileStore) Remove(name string) error {
	if err := os.Remove(s.profilePath(name)); err != nil {
		return fmt.Errorf("failed to remove category profile %s: %w", name, err)
	}
	return nil
}
