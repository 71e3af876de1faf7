package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Settings are cc-dump's persisted display/run preferences, merged from
// user, project, and local settings.json files.
type Settings struct {
	// UpstreamURL is the default reverse-proxy upstream when --upstream
	// is not passed on the command line.
	UpstreamURL string
	// Theme names a lipgloss color profile for internal/display.
	Theme string
	// CategoryDefaults holds per-category default visibility names
	// (e.g. "thinking": "hidden") merged from the settings files. Nothing
	// applies them: internal/visibility.Engine keeps its built-in defaults.
	CategoryDefaults map[string]string
	// Raw retains the full JSON map for forward compatibility.
	Raw map[string]any
}

// LoadSettings loads settings from user/project/local sources and merges
// them, project overriding user and local overriding project.
func LoadSettings(cwd string, sources []string, extraSettings string) (*Settings, error) {
	sourceSet := normalizeSources(sources)
	paths, err := settingsPaths(cwd)
	if err != nil {
		return nil, err
	}

	var merged *Settings
	for _, item := range paths {
		if len(sourceSet) > 0 && !sourceSet[item.Source] {
			continue
		}
		// Missing files are ignored.
		settings, err := loadSettingsFromFile(item.Path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, err
		}
		merged = mergeSettings(merged, settings)
	}

	if extraSettings != "" {
		override, err := loadSettingsFlag(extraSettings)
		if err != nil {
			return nil, err
		}
		merged = mergeSettings(merged, override)
	}

	if merged == nil {
		return &Settings{Raw: map[string]any{}, CategoryDefaults: map[string]string{}}, nil
	}

	return merged, nil
}

type settingsSource struct {
	Source string
	Path   string
}

// settingsPaths resolves user, project, and local settings files.
func settingsPaths(cwd string) ([]settingsSource, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home dir: %w", err)
	}
	projectRoot := findProjectRoot(cwd)

	return []settingsSource{
		{Source: "user", Path: filepath.Join(home, ".ccdump", "settings.json")},
		{Source: "project", Path: filepath.Join(projectRoot, ".ccdump", "settings.json")},
		{Source: "local", Path: filepath.Join(cwd, ".ccdump", "settings.local.json")},
	}, nil
}

// normalizeSources returns a set of allowed sources, or nil if unrestricted.
func normalizeSources(sources []string) map[string]bool {
	if len(sources) == 0 {
		return nil
	}
	set := make(map[string]bool)
	for _, entry := range sources {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		set[strings.ToLower(entry)] = true
	}
	return set
}

// loadSettingsFromFile reads settings JSON from disk.
func loadSettingsFromFile(path string) (*Settings, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parseSettings(raw)
}

// loadSettingsFlag resolves a settings override from a path or inline JSON.
func loadSettingsFlag(value string) (*Settings, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, nil
	}
	if strings.HasPrefix(trimmed, "{") {
		return parseSettings([]byte(trimmed))
	}
	return loadSettingsFromFile(trimmed)
}

// parseSettings parses cc-dump settings JSON.
func parseSettings(raw []byte) (*Settings, error) {
	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("parse settings: %w", err)
	}

	settings := &Settings{
		Raw:              data,
		CategoryDefaults: map[string]string{},
	}

	if upstream, ok := data["upstreamUrl"].(string); ok {
		settings.UpstreamURL = upstream
	}
	if theme, ok := data["theme"].(string); ok {
		settings.Theme = theme
	}

	if defaults, ok := data["categoryDefaults"].(map[string]any); ok {
		for key, value := range defaults {
			if str, ok := value.(string); ok {
				settings.CategoryDefaults[key] = str
			}
		}
	}

	return settings, nil
}

// mergeSettings applies overlay values on top of the base settings.
func mergeSettings(base *Settings, overlay *Settings) *Settings {
	if base == nil {
		return overlay
	}
	if overlay == nil {
		return base
	}

	merged := &Settings{
		UpstreamURL:      base.UpstreamURL,
		Theme:            base.Theme,
		CategoryDefaults: map[string]string{},
		Raw:              map[string]any{},
	}

	for key, value := range base.Raw {
		merged.Raw[key] = value
	}
	for key, value := range overlay.Raw {
		merged.Raw[key] = value
	}

	if overlay.UpstreamURL != "" {
		merged.UpstreamURL = overlay.UpstreamURL
	}
	if overlay.Theme != "" {
		merged.Theme = overlay.Theme
	}

	for key, value := range base.CategoryDefaults {
		merged.CategoryDefaults[key] = value
	}
	for key, value := range overlay.CategoryDefaults {
		merged.CategoryDefaults[key] = value
	}

	return merged
}

// findProjectRoot locates the nearest parent directory containing .git.
func findProjectRoot(cwd string) string {
	current := filepath.Clean(cwd)
	for {
		if _, err := os.Stat(filepath.Join(current, ".git")); err == nil {
			return current
		}
		parent := filepath.Dir(current)
		if parent == current {
			// If no repository root is found, fall back to the current directory.
			return cwd
		}
		current = parent
	}
}
