package usecase

import (
	"context"
	"fmt"
	"os"

	"github.com/runoshun/git-cob/internal/domain"
)

// maskedSecret replaces secrets in displayed configuration.
const maskedSecret = "********"

// ShowConfigInput contains the input for the ShowConfig use case.
type ShowConfigInput struct{}

// ShowConfigOutput contains the output of the ShowConfig use case.
type ShowConfigOutput struct {
	EffectiveConfig  *domain.Config // Merged configuration with secrets masked
	RepoConfigPath   string         // Path of the repository config file
	RepoConfigExists bool           // Whether the repository config file exists
}

// ShowConfig displays configuration file information.
type ShowConfig struct {
	configManager domain.ConfigManager
	configLoader  domain.ConfigLoader
}

// NewShowConfig creates a new ShowConfig use case.
func NewShowConfig(configManager domain.ConfigManager, configLoader domain.ConfigLoader) *ShowConfig {
	return &ShowConfig{
		configManager: configManager,
		configLoader:  configLoader,
	}
}

// Execute loads the effective configuration and masks the encryption key.
func (uc *ShowConfig) Execute(_ context.Context, _ ShowConfigInput) (*ShowConfigOutput, error) {
	cfg, err := uc.configLoader.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	masked := *cfg
	if masked.Store.EncryptionKey != "" {
		masked.Store.EncryptionKey = maskedSecret
	}

	path := uc.configManager.RepoConfigPath()
	_, statErr := os.Stat(path)
	return &ShowConfigOutput{
		EffectiveConfig:  &masked,
		RepoConfigPath:   path,
		RepoConfigExists: statErr == nil,
	}, nil
}
