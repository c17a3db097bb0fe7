package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/runoshun/git-cob/internal/app"
	"github.com/runoshun/git-cob/internal/domain"
	"github.com/runoshun/git-cob/internal/testutil"
)

const (
	testAuthor  = "did:key:z6MkAlice"
	testProject = "rad:git:hnrkyghsrokxzxpy9pqb"
)

// newTestContainer creates an app.Container with mock dependencies and a
// configured identity and project.
func newTestContainer(t *testing.T) (*app.Container, *testutil.MockObjectStore) {
	t.Helper()

	cfg := domain.NewDefaultConfig()
	cfg.Identity.URN = testAuthor
	cfg.Project.URN = testProject

	store := testutil.NewMockObjectStore()
	store.ValidateSchema = true
	container := app.NewWithDeps(
		app.Config{CobDir: t.TempDir()},
		cfg,
		store,
		&testutil.MockStoreInitializer{Initialized: true},
		&testutil.MockLogger{},
	)
	container.ConfigLoader = &testutil.MockConfigLoader{Config: cfg}
	container.ConfigManager = testutil.NewMockConfigManager()
	return container, store
}

// run executes cmd with args and returns its stdout.
func run(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// createTestIssue creates an issue through the CLI and returns its id.
func createTestIssue(t *testing.T, c *app.Container, title string) domain.ObjectID {
	t.Helper()

	out, err := run(t, newIssueCommand(c), "create", "--title", title, "--body", "Description")
	require.NoError(t, err)
	id, ok := strings.CutPrefix(strings.TrimSpace(out), "Created issue ")
	require.True(t, ok, "unexpected output %q", out)
	return domain.ObjectID(id)
}
