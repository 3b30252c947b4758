package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// The helpers below edit the YAML file in place, keeping keys dove does not
// know about. They are used by `dove campus`.

// DefaultPath is $HOME/.config/dove/config.yaml.
func DefaultPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "dove", "config.yaml")
}

// ReadFile returns the raw YAML document, empty when the file does not exist.
func ReadFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return map[string]any{}, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	raw := map[string]any{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if raw == nil {
		raw = map[string]any{}
	}
	return raw, nil
}

// WriteFile writes the document atomically (temp file + rename) with 0600
// permissions, since it may hold the bot token.
func WriteFile(path string, raw map[string]any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := yaml.Marshal(raw)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".config-*.yaml")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// SaveCampus adds or replaces one campus entry.
func SaveCampus(path, key string, campus Campus) error {
	if key == "" {
		return errors.New("campus key is empty")
	}
	raw, err := ReadFile(path)
	if err != nil {
		return err
	}

	// Round-trip through yaml to honor the struct tags.
	data, err := yaml.Marshal(campus)
	if err != nil {
		return err
	}
	var entry map[string]any
	if err := yaml.Unmarshal(data, &entry); err != nil {
		return err
	}

	campuses, _ := raw["campuses"].(map[string]any)
	if campuses == nil {
		campuses = map[string]any{}
	}
	campuses[key] = entry
	raw["campuses"] = campuses
	return WriteFile(path, raw)
}

// SetDefaultCampus sets default_campus; the campus must exist in the file.
func SetDefaultCampus(path, key string) error {
	raw, err := ReadFile(path)
	if err != nil {
		return err
	}
	campuses, _ := raw["campuses"].(map[string]any)
	if _, ok := campuses[key]; !ok {
		return fmt.Errorf("campus %q not found in %s", key, path)
	}
	raw["default_campus"] = key
	return WriteFile(path, raw)
}
