// Package gitstore stores collaborative objects in a git repository.
package gitstore

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/runoshun/git-cob/internal/domain"
	"github.com/runoshun/git-cob/internal/infra/compress"
	"github.com/runoshun/git-cob/internal/infra/crypto"
	"github.com/runoshun/git-cob/internal/schema"
)

// Store implements domain.CollaborativeObjects on git commits and refs.
//
// Data structure:
//
//	refs/<namespace>/cobs/
//	  initialized → blob
//	  <scheme>/<method>/<project-id>/<type-name>/<object-id> → commit
//
// Each commit holds one history entry:
//
//	change      → blob (record, compressed and optionally sealed)
//	manifest    → blob (YAML: type, author, sealed)
//	schema.json → blob (root commit only)
//
// The object id is the hash of the root commit; a revision id is the hash of
// the entry's commit. Refs of peer namespaces fetched into the repository
// are merged on read, and an update records every known head as a parent.
// Fields are ordered to minimize memory padding.
type Store struct {
	repo        *git.Repository
	sealer      *crypto.Sealer
	clock       domain.Clock
	logger      domain.Logger
	namespace   string
	repoPath    string
	peers       []string
	mu          sync.RWMutex
	compression compress.Tag
}

// Options configure a Store.
type Options struct {
	Sealer      *crypto.Sealer // Seals records at rest; nil stores plaintext
	Clock       domain.Clock   // Commit timestamps; defaults to the system clock
	Namespace   string         // Own ref namespace (default "cob")
	Peers       []string       // Peer namespaces merged on read
	Logger      domain.Logger  // Warned about unreadable entries; may be nil
	Compression compress.Tag
}

// Ensure Store implements domain.CollaborativeObjects.
var _ domain.CollaborativeObjects = (*Store)(nil)

// Ensure Store implements domain.StoreInitializer.
var _ domain.StoreInitializer = (*Store)(nil)

// New opens the repository containing path and creates a Store on it.
func New(path string, opts Options) (*Store, error) {
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return nil, domain.ErrNotGitRepository
		}
		return nil, fmt.Errorf("open git repository: %w", err)
	}
	s := NewWithRepo(repo, opts)
	s.repoPath = path
	return s, nil
}

// NewWithRepo creates a new Store with an existing repository instance.
func NewWithRepo(repo *git.Repository, opts Options) *Store {
	ns := opts.Namespace
	if ns == "" {
		ns = domain.DefaultNamespace
	}
	clock := opts.Clock
	if clock == nil {
		clock = domain.RealClock{}
	}

	peers := make([]string, 0, len(opts.Peers))
	for _, p := range opts.Peers {
		if p != "" && p != ns && !slices.Contains(peers, p) {
			peers = append(peers, p)
		}
	}

	return &Store{
		repo:        repo,
		sealer:      opts.Sealer,
		clock:       clock,
		logger:      opts.Logger,
		namespace:   ns,
		peers:       peers,
		compression: opts.Compression,
	}
}

// Namespace returns the store's own ref namespace.
func (s *Store) Namespace() string {
	return s.namespace
}

// namespaces returns the own namespace followed by the peers.
func (s *Store) namespaces() []string {
	return append([]string{s.namespace}, s.peers...)
}

func cobsPrefix(ns string) string {
	return "refs/" + ns + "/cobs/"
}

// typePrefix returns the ref prefix of all objects of a type in ns.
func typePrefix(ns string, project domain.Identity, typeName domain.TypeName) string {
	return cobsPrefix(ns) + project.PathSegments() + "/" + string(typeName) + "/"
}

func objectRef(ns string, project domain.Identity, typeName domain.TypeName, id domain.ObjectID) plumbing.ReferenceName {
	return plumbing.ReferenceName(typePrefix(ns, project, typeName) + string(id))
}

// initializedRef returns the ref name for the initialized marker.
func (s *Store) initializedRef() plumbing.ReferenceName {
	return plumbing.ReferenceName(cobsPrefix(s.namespace) + domain.InitMarkerName)
}

// Create stores a new object whose history starts with spec.Record.
func (s *Store) Create(ctx context.Context, author, project domain.Identity, spec domain.NewObjectSpec) (domain.ObjectID, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if _, err := domain.ParseTypeName(string(spec.TypeName)); err != nil {
		return "", err
	}
	sch, err := schema.Compile(spec.Schema)
	if err != nil {
		return "", fmt.Errorf("compile schema: %w", err)
	}
	if err := sch.ValidateHistory([][]byte{spec.Record}); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	hash, err := s.writeEntry(author, spec.TypeName, spec.Message, spec.Record, spec.Schema, nil)
	if err != nil {
		return "", err
	}
	id := domain.ObjectID(hash.String())
	ref := plumbing.NewHashReference(objectRef(s.namespace, project, spec.TypeName, id), hash)
	if err := s.repo.Storer.SetReference(ref); err != nil {
		return "", fmt.Errorf("set object ref: %w", err)
	}
	return id, nil
}

// Update appends spec.Record to the object's history. The new entry's
// parents are every head known across the own and peer namespaces.
func (s *Store) Update(ctx context.Context, author, project domain.Identity, spec domain.UpdateObjectSpec) (domain.RevisionID, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	h, err := s.loadHistory(project, spec.TypeName, spec.ObjectID)
	if err != nil {
		return "", err
	}
	if h == nil {
		return "", fmt.Errorf("%w: %s", domain.ErrObjectNotFound, spec.ObjectID)
	}

	src, err := s.readSchema(h.root)
	if err != nil {
		return "", err
	}
	sch, err := schema.Compile(src)
	if err != nil {
		return "", fmt.Errorf("compile schema: %w", err)
	}
	records := make([][]byte, 0, len(h.entries)+1)
	for _, e := range h.entries {
		records = append(records, e.Record)
	}
	if err := sch.ValidateHistory(append(records, spec.Record)); err != nil {
		return "", err
	}

	hash, err := s.writeEntry(author, spec.TypeName, spec.Message, spec.Record, nil, h.heads)
	if err != nil {
		return "", err
	}
	ref := plumbing.NewHashReference(objectRef(s.namespace, project, spec.TypeName, spec.ObjectID), hash)
	if err := s.repo.Storer.SetReference(ref); err != nil {
		return "", fmt.Errorf("set object ref: %w", err)
	}
	return domain.RevisionID(hash.String()), nil
}

// Retrieve returns the object with its merged history, or nil if no
// namespace knows it.
func (s *Store) Retrieve(ctx context.Context, project domain.Identity, typeName domain.TypeName, id domain.ObjectID) (*domain.Object, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	h, err := s.loadHistory(project, typeName, id)
	if err != nil || h == nil {
		return nil, err
	}
	return &domain.Object{ID: id, TypeName: typeName, Entries: h.entries}, nil
}

// List returns the ids of all objects of a type known to any namespace.
func (s *Store) List(ctx context.Context, project domain.Identity, typeName domain.TypeName) ([]domain.ObjectID, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	refs, err := s.repo.References()
	if err != nil {
		return nil, fmt.Errorf("list refs: %w", err)
	}
	defer refs.Close()

	prefixes := make([]string, 0, len(s.peers)+1)
	for _, ns := range s.namespaces() {
		prefixes = append(prefixes, typePrefix(ns, project, typeName))
	}

	seen := make(map[domain.ObjectID]bool)
	err = refs.ForEach(func(ref *plumbing.Reference) error {
		name := string(ref.Name())
		for _, prefix := range prefixes {
			rest, ok := strings.CutPrefix(name, prefix)
			if !ok {
				continue
			}
			if id, err := domain.ParseObjectID(rest); err == nil {
				seen[id] = true
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	ids := make([]domain.ObjectID, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids, nil
}

// Initialize creates the initialized marker if it doesn't exist.
func (s *Store) Initialize() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.repo.Reference(s.initializedRef(), true)
	if err == nil {
		return nil
	}
	if !errors.Is(err, plumbing.ErrReferenceNotFound) {
		return fmt.Errorf("check initialized ref: %w", err)
	}

	hash, err := s.writeBlob([]byte(domain.InitMarkerName))
	if err != nil {
		return err
	}
	if err := s.repo.Storer.SetReference(plumbing.NewHashReference(s.initializedRef(), hash)); err != nil {
		return fmt.Errorf("set initialized ref: %w", err)
	}
	return nil
}

// IsInitialized checks if the store has been initialized.
func (s *Store) IsInitialized() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, err := s.repo.Reference(s.initializedRef(), true)
	return err == nil
}
