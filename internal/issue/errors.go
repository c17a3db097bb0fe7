package issue

import (
	"errors"
	"fmt"

	"github.com/runoshun/git-cob/internal/domain"
)

// StoreOp names the store call that failed.
type StoreOp string

// Store operations.
const (
	OpCreate   StoreOp = "create"
	OpUpdate   StoreOp = "update"
	OpRetrieve StoreOp = "retrieve"
	OpList     StoreOp = "list"
)

// StoreError is a failure reported by the object store. It matches
// domain.ErrStore; the caller may retry.
type StoreError struct {
	Err      error
	Op       StoreOp
	ObjectID domain.ObjectID
}

func (e *StoreError) Error() string {
	if e.ObjectID == "" {
		return fmt.Sprintf("%s issue: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s issue %s: %v", e.Op, e.ObjectID.Short(), e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// Is reports whether target is domain.ErrStore.
func (e *StoreError) Is(target error) bool {
	return target == domain.ErrStore
}

// InvariantError reports a document that does not have the shape every
// issue writer produces. It matches domain.ErrStructuralInvariant.
type InvariantError struct {
	Err  error
	Path string
}

func (e *InvariantError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s at %s", domain.ErrStructuralInvariant, e.Path)
	}
	return fmt.Sprintf("%s at %s: %v", domain.ErrStructuralInvariant, e.Path, e.Err)
}

func (e *InvariantError) Unwrap() error { return e.Err }

// Is reports whether target is domain.ErrStructuralInvariant.
func (e *InvariantError) Is(target error) bool {
	return target == domain.ErrStructuralInvariant
}

// defect marks an unexpected engine failure.
func defect(action string, err error) error {
	var inv *InvariantError
	if errors.As(err, &inv) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", domain.ErrEngineDefect, action, err)
}
