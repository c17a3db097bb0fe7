package domain

import (
	"context"
	"time"
)

// StoreInitializer initializes the data store.
type StoreInitializer interface {
	// Initialize creates the store if it doesn't exist.
	Initialize() error

	// IsInitialized checks if the store has been initialized.
	IsInitialized() bool
}

// CollaborativeObjects is an append-only store of object histories.
// Implementations must be safe for concurrent use.
type CollaborativeObjects interface {
	// Create stores a new object whose history starts with spec.Record and
	// returns its id. The record must conform to spec.Schema.
	Create(ctx context.Context, author, project Identity, spec NewObjectSpec) (ObjectID, error)

	// Update appends spec.Record to the object's history. The resulting
	// history must still conform to the object's schema.
	Update(ctx context.Context, author, project Identity, spec UpdateObjectSpec) (RevisionID, error)

	// Retrieve returns the object with its history. Returns nil if the
	// object is unknown.
	Retrieve(ctx context.Context, project Identity, typeName TypeName, id ObjectID) (*Object, error)

	// List returns the ids of all objects of a type, sorted.
	List(ctx context.Context, project Identity, typeName TypeName) ([]ObjectID, error)
}

// Syncer exchanges object refs with a remote repository.
type Syncer interface {
	// Push publishes the local namespace to remote.
	Push(ctx context.Context, remote string) error

	// Fetch copies peer namespaces from remote.
	Fetch(ctx context.Context, remote string) error
}

// ConfigLoader loads configuration from files.
type ConfigLoader interface {
	// Load returns the merged configuration (repo over global).
	Load() (*Config, error)

	// LoadGlobal returns only the global configuration.
	LoadGlobal() (*Config, error)
}

// ConfigManager writes configuration files.
type ConfigManager interface {
	// InitRepoConfig writes the default repo config. Returns
	// ErrConfigExists if the file already exists.
	InitRepoConfig(cfg *Config) error

	// RepoConfigPath returns the path of the repo config file.
	RepoConfigPath() string
}

// Logger writes operational logs. Entries with a non-empty object id are
// also written to that object's log.
type Logger interface {
	Info(objectID ObjectID, category, msg string)
	Debug(objectID ObjectID, category, msg string)
	Warn(objectID ObjectID, category, msg string)
	Error(objectID ObjectID, category, msg string)
}

// Clock provides time operations for testability.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
}

// RealClock implements Clock using the system clock.
type RealClock struct{}

// Now returns the current time.
func (RealClock) Now() time.Time {
	return time.Now()
}
