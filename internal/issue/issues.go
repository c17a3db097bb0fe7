// Package issue implements issues as collaborative objects: the mutations
// that build an issue's history, the folds that replay it and the
// projection of the resulting document into a domain.Issue.
package issue

import (
	"context"
	"fmt"
	"strings"

	"github.com/runoshun/git-cob/internal/crdt"
	"github.com/runoshun/git-cob/internal/domain"
	"github.com/runoshun/git-cob/internal/schema"
)

// TypeName is the type name of issue objects.
const TypeName domain.TypeName = "dev.gitcob.issue"

// Kind describes the issue object type to the store. It is built once at
// startup and never modified.
type Kind struct {
	TypeName domain.TypeName
	Schema   []byte
}

// DefaultKind returns the issue type with the bundled schema.
func DefaultKind() Kind {
	return Kind{TypeName: TypeName, Schema: schema.IssueJSON()}
}

// Issues reads and writes issues of one project.
// Fields are ordered to minimize memory padding.
type Issues struct {
	store   domain.CollaborativeObjects
	logger  domain.Logger
	project domain.Identity
	kind    Kind
}

// New creates an issue service.
func New(store domain.CollaborativeObjects, project domain.Identity, kind Kind, logger domain.Logger) *Issues {
	return &Issues{
		store:   store,
		project: project,
		kind:    kind,
		logger:  logger,
	}
}

// Kind returns the object type the service writes.
func (s *Issues) Kind() Kind {
	return s.kind
}

// Create stores a new open issue and returns its id.
func (s *Issues) Create(ctx context.Context, author domain.Identity, title, description string) (domain.ObjectID, error) {
	_, m, err := Create(author, title, description)
	if err != nil {
		return "", err
	}
	id, err := s.store.Create(ctx, author, s.project, domain.NewObjectSpec{
		TypeName: s.kind.TypeName,
		Message:  m.Message,
		Schema:   s.kind.Schema,
		Record:   m.Record,
	})
	if err != nil {
		return "", &StoreError{Op: OpCreate, Err: err}
	}
	return id, nil
}

// Comment appends a comment.
func (s *Issues) Comment(ctx context.Context, author domain.Identity, id domain.ObjectID, body string) (domain.RevisionID, error) {
	return s.mutate(ctx, author, id, func(doc *crdt.Document) (Mutation, error) {
		return Comment(doc, author, body)
	})
}

// Close sets the issue state to closed. Closing a closed issue is allowed.
func (s *Issues) Close(ctx context.Context, author domain.Identity, id domain.ObjectID) (domain.RevisionID, error) {
	return s.mutate(ctx, author, id, func(doc *crdt.Document) (Mutation, error) {
		return Lifecycle(doc, domain.StateClosed)
	})
}

// Reopen sets the issue state to open.
func (s *Issues) Reopen(ctx context.Context, author domain.Identity, id domain.ObjectID) (domain.RevisionID, error) {
	return s.mutate(ctx, author, id, func(doc *crdt.Document) (Mutation, error) {
		return Lifecycle(doc, domain.StateOpen)
	})
}

// Label adds labels.
func (s *Issues) Label(ctx context.Context, author domain.Identity, id domain.ObjectID, labels []domain.Label) (domain.RevisionID, error) {
	return s.mutate(ctx, author, id, func(doc *crdt.Document) (Mutation, error) {
		return Label(doc, labels)
	})
}

// React adds author's reactions to the comment at index (0 is the
// description).
func (s *Issues) React(ctx context.Context, author domain.Identity, id domain.ObjectID, index int, reactions []domain.Reaction) (domain.RevisionID, error) {
	return s.mutate(ctx, author, id, func(doc *crdt.Document) (Mutation, error) {
		return React(doc, index, author, reactions)
	})
}

func (s *Issues) mutate(ctx context.Context, author domain.Identity, id domain.ObjectID, build func(*crdt.Document) (Mutation, error)) (domain.RevisionID, error) {
	doc, err := s.GetRaw(ctx, id)
	if err != nil {
		return "", err
	}
	m, err := build(doc)
	if err != nil {
		return "", err
	}
	rev, err := s.store.Update(ctx, author, s.project, domain.UpdateObjectSpec{
		ObjectID: id,
		TypeName: s.kind.TypeName,
		Message:  m.Message,
		Record:   m.Record,
	})
	if err != nil {
		return "", &StoreError{Op: OpUpdate, ObjectID: id, Err: err}
	}
	s.logger.Debug(id, "issue", fmt.Sprintf("%s: revision %s", m.Message, rev.Short()))
	return rev, nil
}

// Get returns the issue, or nil if it does not exist. Undecodable records
// in its history are skipped and changes whose dependencies never arrived
// are left out; both are logged.
func (s *Issues) Get(ctx context.Context, id domain.ObjectID) (*domain.Issue, error) {
	obj, err := s.retrieve(ctx, id)
	if err != nil || obj == nil {
		return nil, err
	}
	doc, skipped := Fold(obj.Records())
	if skipped > 0 {
		s.logger.Warn(id, "issue", fmt.Sprintf("skipped %d of %d records", skipped, len(obj.Entries)))
	}
	if n := doc.Pending(); n > 0 {
		s.logger.Warn(id, "issue", fmt.Sprintf("%d changes wait for missing dependencies", n))
	}
	return Project(doc)
}

// GetRaw returns the issue document loaded from its full history, ready
// for building mutations. It fails with domain.ErrIssueNotFound if the
// issue does not exist.
func (s *Issues) GetRaw(ctx context.Context, id domain.ObjectID) (*crdt.Document, error) {
	obj, err := s.retrieve(ctx, id)
	if err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrIssueNotFound, id)
	}
	return Load(obj.Records())
}

// History returns the stored object with every entry of its history, or
// nil if it does not exist.
func (s *Issues) History(ctx context.Context, id domain.ObjectID) (*domain.Object, error) {
	return s.retrieve(ctx, id)
}

func (s *Issues) retrieve(ctx context.Context, id domain.ObjectID) (*domain.Object, error) {
	obj, err := s.store.Retrieve(ctx, s.project, s.kind.TypeName, id)
	if err != nil {
		return nil, &StoreError{Op: OpRetrieve, ObjectID: id, Err: err}
	}
	return obj, nil
}

// Summary is an issue together with its id.
type Summary struct {
	Issue *domain.Issue
	ID    domain.ObjectID
}

// List returns every issue of the project in id order. Issues that fail
// to project are logged and left out.
func (s *Issues) List(ctx context.Context) ([]Summary, error) {
	ids, err := s.store.List(ctx, s.project, s.kind.TypeName)
	if err != nil {
		return nil, &StoreError{Op: OpList, Err: err}
	}

	out := make([]Summary, 0, len(ids))
	for _, id := range ids {
		issue, err := s.Get(ctx, id)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			s.logger.Error(id, "issue", fmt.Sprintf("list: %v", err))
			continue
		}
		if issue != nil {
			out = append(out, Summary{ID: id, Issue: issue})
		}
	}
	return out, nil
}

// Resolve expands an unambiguous id prefix to a full object id.
func (s *Issues) Resolve(ctx context.Context, prefix string) (domain.ObjectID, error) {
	if id, err := domain.ParseObjectID(prefix); err == nil {
		return id, nil
	}
	if prefix == "" {
		return "", fmt.Errorf("%w: empty id", domain.ErrInvalidObjectID)
	}

	ids, err := s.store.List(ctx, s.project, s.kind.TypeName)
	if err != nil {
		return "", &StoreError{Op: OpList, Err: err}
	}
	var match domain.ObjectID
	for _, id := range ids {
		if !strings.HasPrefix(string(id), prefix) {
			continue
		}
		if match != "" {
			return "", fmt.Errorf("%w: %s", domain.ErrAmbiguousObjectID, prefix)
		}
		match = id
	}
	if match == "" {
		return "", fmt.Errorf("%w: %s", domain.ErrIssueNotFound, prefix)
	}
	return match, nil
}
