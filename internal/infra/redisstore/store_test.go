package redisstore

import (
	"context"
	"slices"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runoshun/git-cob/internal/domain"
	"github.com/runoshun/git-cob/internal/infra/compress"
	"github.com/runoshun/git-cob/internal/infra/crypto"
	"github.com/runoshun/git-cob/internal/issue"
	"github.com/runoshun/git-cob/internal/schema"
	"github.com/runoshun/git-cob/internal/testutil"
)

var (
	alice   = domain.MustParseIdentity("did:key:alice")
	bob     = domain.MustParseIdentity("did:key:bob")
	project = domain.MustParseIdentity("rad:git:hnrkyghsrokxzxpy9pqb")
	now     = time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
)

func setupTestRedis(t *testing.T, opts Options) (*Store, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	if opts.Clock == nil {
		opts.Clock = &testutil.MockClock{NowTime: now}
	}
	store, err := New("redis://"+mr.Addr(), opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store, mr
}

func TestNew_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := New("redis://"+addr, Options{})
	assert.Error(t, err)

	_, err = New("not a url", Options{})
	assert.Error(t, err)
}

func TestStore_Initialize(t *testing.T) {
	store, mr := setupTestRedis(t, Options{Namespace: "cob-test"})

	assert.False(t, store.IsInitialized())
	require.NoError(t, store.Initialize())
	require.NoError(t, store.Initialize())
	assert.True(t, store.IsInitialized())
	assert.True(t, mr.Exists("cob-test:initialized"))
}

func TestStore_RoundTripThroughIssues(t *testing.T) {
	store, mr := setupTestRedis(t, Options{})
	issues := issue.New(store, project, issue.DefaultKind(), &testutil.MockLogger{})
	ctx := context.Background()

	id, err := issues.Create(ctx, alice, "Title", "Description")
	require.NoError(t, err)
	_, err = domain.ParseObjectID(string(id))
	require.NoError(t, err)

	rev, err := issues.Comment(ctx, bob, id, "Ho ho ho.")
	require.NoError(t, err)
	_, err = issues.Close(ctx, alice, id)
	require.NoError(t, err)

	got, err := issues.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Title", got.Title)
	assert.Equal(t, domain.StateClosed, got.State)
	require.Len(t, got.Replies(), 1)
	assert.Equal(t, bob, got.Replies()[0].Author)

	obj, err := store.Retrieve(ctx, project, issue.TypeName, id)
	require.NoError(t, err)
	require.Len(t, obj.Entries, 3)
	assert.Equal(t, domain.RevisionID(id), obj.Entries[0].ID)
	assert.Empty(t, obj.Entries[0].Parents)
	assert.Equal(t, rev, obj.Entries[1].ID)
	assert.Equal(t, []domain.RevisionID{domain.RevisionID(id)}, obj.Entries[1].Parents)
	assert.Equal(t, issue.MessageClose, obj.Entries[2].Message)
	assert.Equal(t, now, obj.Entries[2].Timestamp)

	members, err := mr.Members("cob:cobs:" + project.String() + ":" + string(issue.TypeName))
	require.NoError(t, err)
	assert.Equal(t, []string{string(id)}, members)
}

func TestStore_RetrieveUnknown(t *testing.T) {
	store, _ := setupTestRedis(t, Options{})
	ctx := context.Background()

	obj, err := store.Retrieve(ctx, project, issue.TypeName, "ffffffffffffffffffffffffffffffffffffffff")
	require.NoError(t, err)
	assert.Nil(t, obj)

	_, err = store.Update(ctx, alice, project, domain.UpdateObjectSpec{
		ObjectID: "ffffffffffffffffffffffffffffffffffffffff",
		TypeName: issue.TypeName,
		Message:  issue.MessageComment,
		Record:   []byte{0xa0},
	})
	assert.ErrorIs(t, err, domain.ErrObjectNotFound)
}

func TestStore_SchemaRejects(t *testing.T) {
	store, _ := setupTestRedis(t, Options{})
	ctx := context.Background()

	_, m, err := issue.Create(alice, "", "Description")
	require.NoError(t, err)
	_, err = store.Create(ctx, alice, project, domain.NewObjectSpec{
		TypeName: issue.TypeName,
		Message:  m.Message,
		Schema:   schema.IssueJSON(),
		Record:   m.Record,
	})
	require.ErrorIs(t, err, domain.ErrSchemaViolation)

	ids, err := store.List(ctx, project, issue.TypeName)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestStore_ListSorted(t *testing.T) {
	store, _ := setupTestRedis(t, Options{})
	issues := issue.New(store, project, issue.DefaultKind(), &testutil.MockLogger{})
	ctx := context.Background()

	var created []domain.ObjectID
	for _, title := range []string{"one", "two", "three"} {
		id, err := issues.Create(ctx, alice, title, "d")
		require.NoError(t, err)
		created = append(created, id)
	}

	ids, err := store.List(ctx, project, issue.TypeName)
	require.NoError(t, err)
	assert.ElementsMatch(t, created, ids)
	assert.True(t, slices.IsSorted(ids))
}

func TestStore_NamespacesIsolated(t *testing.T) {
	mine, mr := setupTestRedis(t, Options{Namespace: "alice"})
	theirs, err := New("redis://"+mr.Addr(), Options{Namespace: "bob"})
	require.NoError(t, err)
	defer func() { _ = theirs.Close() }()
	ctx := context.Background()

	_, err = issue.New(mine, project, issue.DefaultKind(), &testutil.MockLogger{}).Create(ctx, alice, "Title", "d")
	require.NoError(t, err)

	ids, err := theirs.List(ctx, project, issue.TypeName)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestStore_CompressedAndSealed(t *testing.T) {
	sealer, err := crypto.NewSealer("correct horse", project.String())
	require.NoError(t, err)
	store, mr := setupTestRedis(t, Options{Sealer: sealer, Compression: compress.TagLZ4})
	issues := issue.New(store, project, issue.DefaultKind(), &testutil.MockLogger{})
	ctx := context.Background()

	id, err := issues.Create(ctx, alice, "Secret title", "Secret description")
	require.NoError(t, err)
	got, err := issues.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Secret title", got.Title)

	raw, err := mr.List(store.objectKey(project, issue.TypeName, id))
	require.NoError(t, err)
	require.Len(t, raw, 1)
	assert.NotContains(t, raw[0], "Secret")

	plain := NewWithClient(store.client, Options{})
	_, err = plain.Retrieve(ctx, project, issue.TypeName, id)
	assert.ErrorIs(t, err, domain.ErrSealedRecord)
}

func TestStore_Retrieve_SkipsMalformedEntries(t *testing.T) {
	logger := &testutil.MockLogger{}
	store, mr := setupTestRedis(t, Options{Logger: logger})
	issues := issue.New(store, project, issue.DefaultKind(), &testutil.MockLogger{})
	ctx := context.Background()

	id, err := issues.Create(ctx, alice, "Title", "Desc")
	require.NoError(t, err)
	_, err = mr.RPush(store.objectKey(project, issue.TypeName, id), "garbage entry")
	require.NoError(t, err)

	obj, err := store.Retrieve(ctx, project, issue.TypeName, id)
	require.NoError(t, err)
	require.NotNil(t, obj)
	assert.Len(t, obj.Entries, 1)
	assert.Contains(t, logger.Levels(), "WARN")

	got, err := issues.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Title", got.Title)

	list, err := issues.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	// Writers build on the readable history.
	_, err = issues.Comment(ctx, bob, id, "still works")
	require.NoError(t, err)
	got, err = issues.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "still works", got.Replies()[0].Body)
}

func TestStore_Retrieve_WrongKeyIsUnreadable(t *testing.T) {
	sealer, err := crypto.NewSealer("correct horse", project.String())
	require.NoError(t, err)
	store, _ := setupTestRedis(t, Options{Sealer: sealer})
	ctx := context.Background()

	id, err := issue.New(store, project, issue.DefaultKind(), &testutil.MockLogger{}).Create(ctx, alice, "Title", "Desc")
	require.NoError(t, err)

	other, err := crypto.NewSealer("battery staple", project.String())
	require.NoError(t, err)
	logger := &testutil.MockLogger{}
	wrong := NewWithClient(store.client, Options{Sealer: other, Logger: logger})
	_, err = wrong.Retrieve(ctx, project, issue.TypeName, id)
	assert.ErrorIs(t, err, domain.ErrUnreadableObject)
	assert.Contains(t, logger.Levels(), "WARN")
}
