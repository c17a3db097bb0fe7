package schema

import (
	"fmt"

	"github.com/runoshun/git-cob/internal/crdt"
)

// ValidateHistory replays records in order and validates the resulting
// document. Unlike a read-side fold, a record that cannot be decoded or
// applied is a violation, and so is a record whose dependencies are not
// among the earlier records.
func (s *Schema) ValidateHistory(records [][]byte) error {
	if len(records) == 0 {
		return violation("$", "empty history")
	}

	doc := crdt.New()
	for i, record := range records {
		changes, err := crdt.DecodeChanges(record)
		if err != nil {
			return violation(fmt.Sprintf("record %d", i), "%v", err)
		}
		if err := doc.ApplyChanges(changes...); err != nil {
			return violation(fmt.Sprintf("record %d", i), "%v", err)
		}
		if doc.Pending() > 0 {
			return violation(fmt.Sprintf("record %d", i), "depends on changes outside the history")
		}
	}

	tree, err := doc.Materialize(crdt.Root)
	if err != nil {
		return fmt.Errorf("materialize document: %w", err)
	}
	return s.Validate(tree)
}
