package issue

import (
	"bytes"
	"fmt"

	"github.com/runoshun/git-cob/internal/crdt"
	"github.com/runoshun/git-cob/internal/domain"
)

// Fold replays records in log order into a fresh document. Records that
// cannot be decoded or applied are skipped; their number is returned.
func Fold(records [][]byte) (*crdt.Document, int) {
	return crdt.Fold(records)
}

// Load concatenates records and loads them as one encoding. The result is
// a document ready for building further mutations. Unlike Fold, any
// corrupt record fails the load.
func Load(records [][]byte) (*crdt.Document, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: load history: no records", domain.ErrEngineDefect)
	}
	doc, err := crdt.Load(bytes.Join(records, nil))
	if err != nil {
		return nil, fmt.Errorf("%w: load history: %w", domain.ErrEngineDefect, err)
	}
	return doc, nil
}
