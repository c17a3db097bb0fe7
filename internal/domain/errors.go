package domain

import "errors"

// Domain errors.
var (
	ErrIssueNotFound          = errors.New("issue not found")
	ErrCommentIndexOutOfRange = errors.New("comment index out of range")
	ErrInvalidReaction        = errors.New("reaction must be a single character")
	ErrInvalidLabel           = errors.New("invalid label")
	ErrInvalidIdentity        = errors.New("invalid identity")
	ErrInvalidState           = errors.New("invalid state")
	ErrInvalidObjectID        = errors.New("invalid object id")
	ErrInvalidTypeName        = errors.New("invalid type name")
	ErrAmbiguousObjectID      = errors.New("ambiguous object id prefix")
	ErrEmptyTitle             = errors.New("title cannot be empty")
	ErrEmptyMessage           = errors.New("message cannot be empty")
	ErrNoLabels               = errors.New("at least one label is required")
	ErrNoReactions            = errors.New("at least one reaction is required")
	ErrNotInitialized         = errors.New("cob not initialized (run 'cob init' first)")
	ErrNotGitRepository       = errors.New("not a git repository (or any of the parent directories)")
	ErrNoIdentity             = errors.New("no identity configured (set [identity] urn in config)")
	ErrNoProject              = errors.New("no project configured (set [project] urn in config)")
	ErrConfigExists           = errors.New("config file already exists")
	ErrUnknownBackend         = errors.New("unknown store backend")
	ErrNoObjectLog            = errors.New("no log file for object")
	ErrObjectNotFound         = errors.New("object not found")
	ErrSealedRecord           = errors.New("record is sealed (set [store] encryption_key)")
	ErrUnreadableObject       = errors.New("object has no readable entries")
	ErrSyncUnsupported        = errors.New("store backend does not support sync")

	// ErrStore marks a failure reported by the object store. Callers may
	// retry.
	ErrStore = errors.New("object store error")
	// ErrSchemaViolation marks a history rejected by an object's schema.
	ErrSchemaViolation = errors.New("schema violation")
	// ErrStructuralInvariant marks a document that a conforming writer
	// could not have produced.
	ErrStructuralInvariant = errors.New("structural invariant violated")
	// ErrEngineDefect marks an internal failure of the document engine.
	ErrEngineDefect = errors.New("document engine defect")
)
