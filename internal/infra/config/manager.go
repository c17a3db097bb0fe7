package config

import (
	"os"
	"path/filepath"

	"github.com/runoshun/git-cob/internal/domain"
)

// Ensure Manager implements domain.ConfigManager.
var _ domain.ConfigManager = (*Manager)(nil)

// Manager manages configuration files.
type Manager struct {
	cobDir string // Path to .git/cob directory
}

// NewManager creates a new Manager.
func NewManager(cobDir string) *Manager {
	return &Manager{cobDir: cobDir}
}

// RepoConfigPath returns the path of the repository config file.
func (m *Manager) RepoConfigPath() string {
	return filepath.Join(m.cobDir, domain.ConfigFileName)
}

// InitRepoConfig creates a repository config file from the default template.
func (m *Manager) InitRepoConfig(cfg *domain.Config) error {
	path := m.RepoConfigPath()
	if _, err := os.Stat(path); err == nil {
		return domain.ErrConfigExists
	}
	if err := os.MkdirAll(m.cobDir, 0o750); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(domain.RenderConfigTemplate(cfg)), 0o600)
}
