// Package config provides configuration loading functionality.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/pelletier/go-toml/v2"

	"github.com/runoshun/git-cob/internal/domain"
)

// Ensure Loader implements domain.ConfigLoader.
var _ domain.ConfigLoader = (*Loader)(nil)

// Loader loads configuration from TOML files.
type Loader struct {
	cobDir        string // Path to .git/cob directory
	globalConfDir string // Path to global config directory (e.g., ~/.config/git-cob)
}

// NewLoader creates a new Loader.
func NewLoader(cobDir string) *Loader {
	return &Loader{
		cobDir:        cobDir,
		globalConfDir: defaultGlobalConfigDir(),
	}
}

// NewLoaderWithGlobalDir creates a new Loader with a custom global config directory.
// This is useful for testing.
func NewLoaderWithGlobalDir(cobDir, globalConfDir string) *Loader {
	return &Loader{
		cobDir:        cobDir,
		globalConfDir: globalConfDir,
	}
}

// defaultGlobalConfigDir returns the default global config directory.
func defaultGlobalConfigDir() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return domain.GlobalCobDir(configHome)
}

// Load returns the merged configuration (repo + global).
// Repository config takes precedence over global config.
func (l *Loader) Load() (*domain.Config, error) {
	global, err := l.LoadGlobal()
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	repo, err := l.LoadRepo()
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	// Merge: default <- global <- repo (later takes precedence)
	base := domain.NewDefaultConfig()
	if global != nil {
		base = mergeConfigs(base, global)
	}
	if repo != nil {
		base = mergeConfigs(base, repo)
	}

	if err := base.Validate(); err != nil {
		return nil, err
	}
	return base, nil
}

// LoadGlobal returns only the global configuration.
func (l *Loader) LoadGlobal() (*domain.Config, error) {
	if l.globalConfDir == "" {
		return nil, os.ErrNotExist
	}
	return l.loadFile(filepath.Join(l.globalConfDir, domain.ConfigFileName))
}

// LoadRepo returns only the repository configuration.
func (l *Loader) LoadRepo() (*domain.Config, error) {
	return l.loadFile(filepath.Join(l.cobDir, domain.ConfigFileName))
}

// loadFile loads a configuration from a file.
func (l *Loader) loadFile(path string) (*domain.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	return convertRawToDomainConfig(raw), nil
}

// convertRawToDomainConfig converts the raw map to domain config and collects warnings.
func convertRawToDomainConfig(raw map[string]any) *domain.Config {
	res := &domain.Config{}
	var warnings []string

	section := func(name string, value any, set func(key string, v any) bool) {
		m, ok := value.(map[string]any)
		if !ok {
			warnings = append(warnings, fmt.Sprintf("[%s] is not a table", name))
			return
		}
		for k, v := range m {
			if !set(k, v) {
				warnings = append(warnings, fmt.Sprintf("unknown key in [%s]: %s", name, k))
			}
		}
	}

	for name, value := range raw {
		switch name {
		case "identity":
			section(name, value, func(k string, v any) bool {
				if k != "urn" {
					return false
				}
				res.Identity.URN, _ = v.(string)
				return true
			})
		case "project":
			section(name, value, func(k string, v any) bool {
				if k != "urn" {
					return false
				}
				res.Project.URN, _ = v.(string)
				return true
			})
		case "store":
			section(name, value, func(k string, v any) bool {
				return setStoreKey(&res.Store, k, v)
			})
		case "log":
			section(name, value, func(k string, v any) bool {
				if k != "level" {
					return false
				}
				res.Log.Level, _ = v.(string)
				return true
			})
		default:
			warnings = append(warnings, fmt.Sprintf("unknown section: %s", name))
		}
	}

	sort.Strings(warnings)
	res.Warnings = warnings
	return res
}

func setStoreKey(s *domain.StoreConfig, key string, v any) bool {
	switch key {
	case "backend":
		s.Backend, _ = v.(string)
	case "namespace":
		s.Namespace, _ = v.(string)
	case "redis_url":
		s.RedisURL, _ = v.(string)
	case "compression":
		s.Compression, _ = v.(string)
	case "encryption_key":
		s.EncryptionKey, _ = v.(string)
	case "peers":
		list, _ := v.([]any)
		s.Peers = make([]string, 0, len(list))
		for _, p := range list {
			if name, ok := p.(string); ok {
				s.Peers = append(s.Peers, name)
			}
		}
	default:
		return false
	}
	return true
}

// mergeConfigs merges two configs, with override taking precedence.
func mergeConfigs(base, override *domain.Config) *domain.Config {
	result := &domain.Config{
		Identity: base.Identity,
		Project:  base.Project,
		Store:    base.Store,
		Log:      base.Log,
		Warnings: append([]string{}, base.Warnings...),
	}
	result.Store.Peers = append([]string(nil), base.Store.Peers...)
	result.Warnings = append(result.Warnings, override.Warnings...)

	if override.Identity.URN != "" {
		result.Identity.URN = override.Identity.URN
	}
	if override.Project.URN != "" {
		result.Project.URN = override.Project.URN
	}
	if override.Store.Backend != "" {
		result.Store.Backend = override.Store.Backend
	}
	if override.Store.Namespace != "" {
		result.Store.Namespace = override.Store.Namespace
	}
	if override.Store.RedisURL != "" {
		result.Store.RedisURL = override.Store.RedisURL
	}
	if override.Store.Compression != "" {
		result.Store.Compression = override.Store.Compression
	}
	if override.Store.EncryptionKey != "" {
		result.Store.EncryptionKey = override.Store.EncryptionKey
	}
	if override.Store.Peers != nil {
		result.Store.Peers = append([]string(nil), override.Store.Peers...)
	}
	if override.Log.Level != "" {
		result.Log.Level = override.Log.Level
	}

	return result
}
