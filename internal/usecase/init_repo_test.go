package usecase

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runoshun/git-cob/internal/testutil"
)

func TestInitRepo_Execute_Success(t *testing.T) {
	// Setup
	cobDir := filepath.Join(t.TempDir(), ".git", "cob")
	storeInit := &testutil.MockStoreInitializer{}
	uc := NewInitRepo(storeInit)

	// Execute
	out, err := uc.Execute(context.Background(), InitRepoInput{CobDir: cobDir})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, cobDir, out.CobDir)
	assert.False(t, out.AlreadyInitialized)
	assert.True(t, storeInit.Initialized)

	info, err := os.Stat(filepath.Join(cobDir, "logs"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestInitRepo_Execute_AlreadyInitialized(t *testing.T) {
	storeInit := &testutil.MockStoreInitializer{Initialized: true}
	uc := NewInitRepo(storeInit)

	out, err := uc.Execute(context.Background(), InitRepoInput{CobDir: t.TempDir()})

	require.NoError(t, err)
	assert.True(t, out.AlreadyInitialized)
}

func TestInitRepo_Execute_InitializeError(t *testing.T) {
	storeInit := &testutil.MockStoreInitializer{InitErr: errors.New("permission denied")}
	uc := NewInitRepo(storeInit)

	_, err := uc.Execute(context.Background(), InitRepoInput{CobDir: t.TempDir()})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "initialize object store")
}
