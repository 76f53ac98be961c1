package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// settingsFileName is the name of the settings file inside a config dir.
const settingsFileName = "settings.yml"

// configPaths returns the paths checked for a settings file, in precedence
// order: project-local first, then the user config directory.
func configPaths() []string {
	paths := []string{}

	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, ".tts-extra", settingsFileName))
	}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "tts-extra", settingsFileName))
	}

	return paths
}

// Load reads settings from the first config file found, falling back to
// defaults when none exists. An unreadable or unparsable file is skipped
// with a warning rather than failing the run.
func Load() (*Settings, error) {
	return LoadFrom("")
}

// newViper returns a viper instance with the defaults registered. Scalars
// are registered per key so a partial file inherits them, while the three
// lists are registered whole: a file that sets a list replaces the default
// list entirely, never merging default rules into user rules element by
// element.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")

	d := Default()
	v.SetDefault("endpoint", d.Endpoint)
	v.SetDefault("voice_id", d.VoiceID)
	v.SetDefault("strip_content_tags", d.StripContentTags)
	v.SetDefault("strip_tags_only", d.StripTagsOnly)
	v.SetDefault("voice_profiles", d.VoiceProfiles)
	v.SetDefault("delimiter_rules", d.DelimiterRules)
	v.SetDefault("regex_rules", d.RegexRules)
	v.SetDefault("params.temperature", d.Params.Temperature)
	v.SetDefault("params.exaggeration", d.Params.Exaggeration)
	v.SetDefault("params.cfg_weight", d.Params.CFGWeight)
	v.SetDefault("params.seed", d.Params.Seed)
	v.SetDefault("params.speed", d.Params.Speed)
	v.SetDefault("advanced.voice_mode", d.Advanced.VoiceMode)
	v.SetDefault("advanced.split_text", d.Advanced.SplitText)
	v.SetDefault("advanced.chunk_size", d.Advanced.ChunkSize)
	v.SetDefault("advanced.language", d.Advanced.Language)
	return v
}

// LoadFrom reads settings from an explicit path, or from the standard
// search paths when path is empty.
func LoadFrom(path string) (*Settings, error) {
	candidates := configPaths()
	if path != "" {
		candidates = []string{path}
	}

	var settings *Settings
	for _, p := range candidates {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		v := newViper()
		v.SetConfigFile(p)
		if err := v.ReadInConfig(); err != nil {
			log.Warn("Failed to read settings file", "path", p, "error", err)
			continue
		}
		loaded := &Settings{}
		if err := v.Unmarshal(loaded); err != nil {
			log.Warn("Failed to parse settings file", "path", p, "error", err)
			continue
		}
		log.Debug("Loaded settings", "path", p)
		settings = loaded
		break
	}

	if settings == nil {
		if path != "" {
			return nil, fmt.Errorf("settings file not found: %s", path)
		}
		log.Debug("No settings file found, using defaults")
		settings = Default()
	}

	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}

	return settings, nil
}

// Save writes the settings bundle to a YAML file, creating the directory
// if needed.
func Save(settings *Settings, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write settings file: %w", err)
	}

	log.Info("Saved settings", "path", path)
	return nil
}

// PresetStore persists named settings bundles as YAML files in a directory.
type PresetStore struct {
	dir string
}

// NewPresetStore creates a preset store rooted at dir. An empty dir selects
// the default location under the user config directory.
func NewPresetStore(dir string) (*PresetStore, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to locate home directory: %w", err)
		}
		dir = filepath.Join(home, ".config", "tts-extra", "presets")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create preset directory: %w", err)
	}
	return &PresetStore{dir: dir}, nil
}

// Save stores the settings bundle under the given preset name.
func (ps *PresetStore) Save(name string, settings *Settings) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("preset name cannot be empty")
	}
	return Save(settings, ps.path(name))
}

// Load reads the preset with the given name.
func (ps *PresetStore) Load(name string) (*Settings, error) {
	return LoadFrom(ps.path(name))
}

// Delete removes the preset with the given name.
func (ps *PresetStore) Delete(name string) error {
	if err := os.Remove(ps.path(name)); err != nil {
		return fmt.Errorf("failed to delete preset %q: %w", name, err)
	}
	return nil
}

// List returns the names of all stored presets, sorted.
func (ps *PresetStore) List() ([]string, error) {
	entries, err := os.ReadDir(ps.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read preset directory: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yml") {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), ".yml"))
	}
	sort.Strings(names)
	return names, nil
}

func (ps *PresetStore) path(name string) string {
	return filepath.Join(ps.dir, name+".yml")
}
