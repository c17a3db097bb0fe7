// Package testutil provides shared test utilities and mock implementations.
package testutil

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/runoshun/git-cob/internal/domain"
	"github.com/runoshun/git-cob/internal/schema"
)

// MockClock is a test double for domain.Clock.
type MockClock struct {
	NowTime time.Time
}

// Now returns the configured time.
func (m *MockClock) Now() time.Time {
	return m.NowTime
}

// MockObjectStore is an in-memory domain.CollaborativeObjects. Histories
// are kept in append order. When ValidateSchema is set, creates and
// updates are checked against the object's schema like the real stores.
// Fields are ordered to minimize memory padding.
type MockObjectStore struct {
	Objects        map[string]*domain.Object
	Schemas        map[string][]byte
	CreateErr      error
	UpdateErr      error
	RetrieveErr    error
	ListErr        error
	Clock          domain.Clock
	mu             sync.Mutex
	nextID         int
	nextRev        int
	CreateCalls    int
	UpdateCalls    int
	ValidateSchema bool
}

// NewMockObjectStore creates an empty MockObjectStore.
func NewMockObjectStore() *MockObjectStore {
	return &MockObjectStore{
		Objects: make(map[string]*domain.Object),
		Schemas: make(map[string][]byte),
		Clock:   &MockClock{NowTime: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)},
	}
}

// Ensure MockObjectStore implements domain.CollaborativeObjects interface.
var _ domain.CollaborativeObjects = (*MockObjectStore)(nil)

func objectKey(project domain.Identity, typeName domain.TypeName, id domain.ObjectID) string {
	return project.String() + "|" + string(typeName) + "|" + string(id)
}

// Create stores a new object.
func (m *MockObjectStore) Create(_ context.Context, author, project domain.Identity, spec domain.NewObjectSpec) (domain.ObjectID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CreateCalls++
	if m.CreateErr != nil {
		return "", m.CreateErr
	}
	if m.ValidateSchema {
		if err := validate(spec.Schema, [][]byte{spec.Record}); err != nil {
			return "", err
		}
	}

	m.nextID++
	id := domain.ObjectID(fmt.Sprintf("%040x", m.nextID))
	key := objectKey(project, spec.TypeName, id)
	m.Objects[key] = &domain.Object{
		ID:       id,
		TypeName: spec.TypeName,
		Entries:  []domain.Entry{m.entry(author, spec.Message, spec.Record)},
	}
	m.Schemas[key] = spec.Schema
	return id, nil
}

// Update appends a record to an existing object.
func (m *MockObjectStore) Update(_ context.Context, author, project domain.Identity, spec domain.UpdateObjectSpec) (domain.RevisionID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.UpdateCalls++
	if m.UpdateErr != nil {
		return "", m.UpdateErr
	}
	key := objectKey(project, spec.TypeName, spec.ObjectID)
	obj, ok := m.Objects[key]
	if !ok {
		return "", fmt.Errorf("object %s not found", spec.ObjectID)
	}

	entry := m.entry(author, spec.Message, spec.Record)
	if m.ValidateSchema {
		records := append(obj.Records(), spec.Record)
		if err := validate(m.Schemas[key], records); err != nil {
			return "", err
		}
	}
	entry.Parents = []domain.RevisionID{obj.Entries[len(obj.Entries)-1].ID}
	obj.Entries = append(obj.Entries, entry)
	return entry.ID, nil
}

// Retrieve returns a copy of the object, or nil if unknown.
func (m *MockObjectStore) Retrieve(_ context.Context, project domain.Identity, typeName domain.TypeName, id domain.ObjectID) (*domain.Object, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.RetrieveErr != nil {
		return nil, m.RetrieveErr
	}
	obj, ok := m.Objects[objectKey(project, typeName, id)]
	if !ok {
		return nil, nil
	}
	clone := *obj
	clone.Entries = append([]domain.Entry(nil), obj.Entries...)
	return &clone, nil
}

// List returns the ids of the project's objects of a type.
func (m *MockObjectStore) List(_ context.Context, project domain.Identity, typeName domain.TypeName) ([]domain.ObjectID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ListErr != nil {
		return nil, m.ListErr
	}
	prefix := objectKey(project, typeName, "")
	var ids []domain.ObjectID
	for key, obj := range m.Objects {
		if strings.HasPrefix(key, prefix) {
			ids = append(ids, obj.ID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// AppendRaw appends a record to an object's history without validation,
// as a foreign or corrupt writer would.
func (m *MockObjectStore) AppendRaw(project domain.Identity, typeName domain.TypeName, id domain.ObjectID, record []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()

	obj := m.Objects[objectKey(project, typeName, id)]
	obj.Entries = append(obj.Entries, m.entry(domain.Identity{}, "raw", record))
}

func (m *MockObjectStore) entry(author domain.Identity, message string, record []byte) domain.Entry {
	m.nextRev++
	return domain.Entry{
		ID:        domain.RevisionID(fmt.Sprintf("%040x", 1<<32+m.nextRev)),
		Author:    author,
		Message:   message,
		Record:    record,
		Timestamp: m.Clock.Now(),
	}
}

func validate(src []byte, records [][]byte) error {
	s, err := schema.Compile(src)
	if err != nil {
		return err
	}
	return s.ValidateHistory(records)
}

// MockStoreInitializer is a test double for domain.StoreInitializer.
type MockStoreInitializer struct {
	InitErr     error
	Initialized bool
}

// Initialize marks the store initialized.
func (m *MockStoreInitializer) Initialize() error {
	if m.InitErr != nil {
		return m.InitErr
	}
	m.Initialized = true
	return nil
}

// IsInitialized returns the configured value.
func (m *MockStoreInitializer) IsInitialized() bool {
	return m.Initialized
}

// LogEntry is one call recorded by MockLogger.
type LogEntry struct {
	Level    string
	ObjectID domain.ObjectID
	Category string
	Msg      string
}

// MockLogger records log calls.
type MockLogger struct {
	Entries []LogEntry
	mu      sync.Mutex
}

// Ensure MockLogger implements domain.Logger interface.
var _ domain.Logger = (*MockLogger)(nil)

func (m *MockLogger) record(level string, id domain.ObjectID, category, msg string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Entries = append(m.Entries, LogEntry{Level: level, ObjectID: id, Category: category, Msg: msg})
}

// Info records an info entry.
func (m *MockLogger) Info(id domain.ObjectID, category, msg string) { m.record("INFO", id, category, msg) }

// Debug records a debug entry.
func (m *MockLogger) Debug(id domain.ObjectID, category, msg string) {
	m.record("DEBUG", id, category, msg)
}

// Warn records a warning entry.
func (m *MockLogger) Warn(id domain.ObjectID, category, msg string) { m.record("WARN", id, category, msg) }

// Error records an error entry.
func (m *MockLogger) Error(id domain.ObjectID, category, msg string) {
	m.record("ERROR", id, category, msg)
}

// Levels returns the recorded levels in order.
func (m *MockLogger) Levels() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	levels := make([]string, len(m.Entries))
	for i, e := range m.Entries {
		levels[i] = e.Level
	}
	return levels
}

// MockConfigLoader is a test double for domain.ConfigLoader.
type MockConfigLoader struct {
	Config       *domain.Config
	GlobalConfig *domain.Config
	LoadErr      error
	GlobalErr    error
}

// NewMockConfigLoader creates a new MockConfigLoader with default config.
func NewMockConfigLoader() *MockConfigLoader {
	return &MockConfigLoader{
		Config: domain.NewDefaultConfig(),
	}
}

// Ensure MockConfigLoader implements domain.ConfigLoader interface.
var _ domain.ConfigLoader = (*MockConfigLoader)(nil)

// Load returns the configured config or error.
func (m *MockConfigLoader) Load() (*domain.Config, error) {
	if m.LoadErr != nil {
		return nil, m.LoadErr
	}
	return m.Config, nil
}

// LoadGlobal returns the configured config or error.
func (m *MockConfigLoader) LoadGlobal() (*domain.Config, error) {
	if m.GlobalErr != nil {
		return nil, m.GlobalErr
	}
	if m.GlobalConfig != nil {
		return m.GlobalConfig, nil
	}
	return m.Config, nil
}

// MockConfigManager is a test double for domain.ConfigManager.
// Fields are ordered to minimize memory padding.
type MockConfigManager struct {
	InitRepoErr    error
	Written        *domain.Config
	Path           string
	InitRepoCalled bool
}

// NewMockConfigManager creates a new MockConfigManager.
func NewMockConfigManager() *MockConfigManager {
	return &MockConfigManager{Path: "/test/.git/cob/config.toml"}
}

// Ensure MockConfigManager implements domain.ConfigManager interface.
var _ domain.ConfigManager = (*MockConfigManager)(nil)

// InitRepoConfig records the call and returns configured error.
func (m *MockConfigManager) InitRepoConfig(cfg *domain.Config) error {
	m.InitRepoCalled = true
	if m.InitRepoErr != nil {
		return m.InitRepoErr
	}
	m.Written = cfg
	return nil
}

// RepoConfigPath returns the configured path.
func (m *MockConfigManager) RepoConfigPath() string {
	return m.Path
}

// MockSyncer is a test double for domain.Syncer.
type MockSyncer struct {
	PushErr  error
	FetchErr error
	Calls    []string // "fetch <remote>" or "push <remote>" in call order
}

// Ensure MockSyncer implements domain.Syncer interface.
var _ domain.Syncer = (*MockSyncer)(nil)

// Push records the call.
func (m *MockSyncer) Push(_ context.Context, remote string) error {
	m.Calls = append(m.Calls, "push "+remote)
	return m.PushErr
}

// Fetch records the call.
func (m *MockSyncer) Fetch(_ context.Context, remote string) error {
	m.Calls = append(m.Calls, "fetch "+remote)
	return m.FetchErr
}
