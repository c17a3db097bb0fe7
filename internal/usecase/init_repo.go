// Package usecase contains the application use cases.
package usecase

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/runoshun/git-cob/internal/domain"
)

// InitRepoInput contains the input parameters for InitRepo.
type InitRepoInput struct {
	CobDir string // Path to the .git/cob directory
}

// InitRepoOutput contains the output from InitRepo.
type InitRepoOutput struct {
	CobDir             string // Path to the cob directory
	AlreadyInitialized bool   // True if the store was already initialized
}

// InitRepo initializes a repository for git-cob.
type InitRepo struct {
	storeInit domain.StoreInitializer
}

// NewInitRepo creates a new InitRepo use case.
func NewInitRepo(storeInit domain.StoreInitializer) *InitRepo {
	return &InitRepo{storeInit: storeInit}
}

// Execute creates the cob directory with its logs directory and initializes
// the object store. Running it again repairs missing pieces.
func (uc *InitRepo) Execute(_ context.Context, in InitRepoInput) (*InitRepoOutput, error) {
	alreadyInitialized := uc.storeInit.IsInitialized()

	logsDir := filepath.Join(in.CobDir, domain.LogsDirName)
	if err := os.MkdirAll(logsDir, 0o750); err != nil {
		return nil, fmt.Errorf("create logs directory: %w", err)
	}

	if err := uc.storeInit.Initialize(); err != nil {
		return nil, fmt.Errorf("initialize object store: %w", err)
	}

	return &InitRepoOutput{
		CobDir:             in.CobDir,
		AlreadyInitialized: alreadyInitialized,
	}, nil
}
