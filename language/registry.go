package language

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/edukit/execbox/config"
)

// Profile describes how to build and run one supported language inside the
// sandbox. Profiles are populated once at startup and read-only afterwards.
type Profile struct {
	Language   string   `yaml:"language"`
	Image      string   `yaml:"image"`
	SourceFile string   `yaml:"source_file"`
	EntryClass string   `yaml:"entry_class"`
	CompileCmd []string `yaml:"compile_cmd"`
	RunCmd     []string `yaml:"run_cmd"`
}

// NeedsCompile reports whether the profile defines a compile step.
func (p Profile) NeedsCompile() bool {
	return len(p.CompileCmd) > 0
}

// Registry maps a language identifier to its execution profile. It is
// immutable after construction and safe for concurrent use.
type Registry struct {
	profiles map[string]Profile
}

// New builds a registry from the given profiles.
func New(profiles []Profile) (*Registry, error) {
	table := make(map[string]Profile, len(profiles))
	for _, p := range profiles {
		if p.Language == "" {
			return nil, fmt.Errorf("profile with empty language identifier")
		}
		if p.Image == "" || p.SourceFile == "" || len(p.RunCmd) == 0 {
			return nil, fmt.Errorf("incomplete profile for language %q", p.Language)
		}
		if _, exists := table[p.Language]; exists {
			return nil, fmt.Errorf("duplicate profile for language %q", p.Language)
		}
		table[p.Language] = p
	}
	if len(table) == 0 {
		return nil, fmt.Errorf("no language profiles configured")
	}
	return &Registry{profiles: table}, nil
}

// FromConfig builds the registry out of the configured language table,
// optionally merged with profiles from a standalone YAML file.
func FromConfig(cfg *config.Config) (*Registry, error) {
	profiles := make([]Profile, 0, len(cfg.Languages))
	for name, lang := range cfg.Languages {
		profiles = append(profiles, Profile{
			Language:   name,
			Image:      lang.Image,
			SourceFile: lang.SourceFile,
			EntryClass: lang.EntryClass,
			CompileCmd: lang.CompileCmd,
			RunCmd:     lang.RunCmd,
		})
	}

	if cfg.LanguagesFile != "" {
		extra, err := LoadFile(cfg.LanguagesFile)
		if err != nil {
			return nil, fmt.Errorf("load languages file: %w", err)
		}
		profiles = mergeProfiles(profiles, extra)
	}

	return New(profiles)
}

// LoadFile reads language profiles from a YAML file. The file holds a list
// of profile records under a top-level "languages" key.
func LoadFile(path string) ([]Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var doc struct {
		Languages []Profile `yaml:"languages"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return doc.Languages, nil
}

// mergeProfiles overlays extra profiles on top of base; on conflict the
// extra profile wins.
func mergeProfiles(base, extra []Profile) []Profile {
	byLang := make(map[string]Profile, len(base)+len(extra))
	for _, p := range base {
		byLang[p.Language] = p
	}
	for _, p := range extra {
		byLang[p.Language] = p
	}
	merged := make([]Profile, 0, len(byLang))
	for _, p := range byLang {
		merged = append(merged, p)
	}
	return merged
}

// Resolve returns the profile for the given language identifier.
func (r *Registry) Resolve(lang string) (Profile, error) {
	p, ok := r.profiles[lang]
	if !ok {
		return Profile{}, fmt.Errorf("unsupported language: %s", lang)
	}
	return p, nil
}

// Languages returns the supported language identifiers in sorted order.
func (r *Registry) Languages() []string {
	names := make([]string, 0, len(r.profiles))
	for name := range r.profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
