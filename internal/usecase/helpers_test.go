package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/runoshun/git-cob/internal/domain"
	"github.com/runoshun/git-cob/internal/issue"
	"github.com/runoshun/git-cob/internal/testutil"
)

var (
	testAuthor  = domain.MustParseIdentity("did:key:z6MkAlice")
	testProject = domain.MustParseIdentity("rad:git:hnrkyghsrokxzxpy9pqb")
)

// testEnv wires an issue service over an in-memory store.
type testEnv struct {
	store  *testutil.MockObjectStore
	logger *testutil.MockLogger
	issues *issue.Issues
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := testutil.NewMockObjectStore()
	store.ValidateSchema = true
	logger := &testutil.MockLogger{}
	return &testEnv{
		store:  store,
		logger: logger,
		issues: issue.New(store, testProject, issue.DefaultKind(), logger),
	}
}

// createIssue opens an issue and returns its id.
func (e *testEnv) createIssue(t *testing.T, title string) domain.ObjectID {
	t.Helper()

	out, err := NewCreateIssue(e.issues, testAuthor, e.logger).Execute(context.Background(), CreateIssueInput{
		Title:       title,
		Description: "description",
	})
	require.NoError(t, err)
	return out.ID
}
