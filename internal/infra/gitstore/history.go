package gitstore

import (
	"bytes"
	"errors"
	"fmt"
	"slices"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/runoshun/git-cob/internal/domain"
)

// history is an object's commit graph merged across namespaces.
type history struct {
	root    *object.Commit
	heads   []plumbing.Hash // Commits no other known commit builds on
	entries []domain.Entry  // Causal order
}

// loadHistory reads the object from every namespace. Returns nil if no
// namespace has a ref for it. Commits whose entry cannot be read are
// logged and left out of the entries. The caller holds s.mu.
func (s *Store) loadHistory(project domain.Identity, typeName domain.TypeName, id domain.ObjectID) (*history, error) {
	var tips []plumbing.Hash
	for _, ns := range s.namespaces() {
		ref, err := s.repo.Reference(objectRef(ns, project, typeName, id), true)
		if err != nil {
			if errors.Is(err, plumbing.ErrReferenceNotFound) {
				continue
			}
			return nil, fmt.Errorf("get object ref: %w", err)
		}
		if !slices.Contains(tips, ref.Hash()) {
			tips = append(tips, ref.Hash())
		}
	}
	if len(tips) == 0 {
		return nil, nil
	}

	commits := make(map[plumbing.Hash]*object.Commit)
	queue := slices.Clone(tips)
	for len(queue) > 0 {
		h := queue[0]
		queue = queue[1:]
		if _, ok := commits[h]; ok {
			continue
		}
		c, err := s.repo.CommitObject(h)
		if err != nil {
			return nil, fmt.Errorf("get commit %s: %w", h, err)
		}
		commits[h] = c
		queue = append(queue, c.ParentHashes...)
	}

	rootHash := plumbing.NewHash(string(id))
	root, ok := commits[rootHash]
	if !ok || len(root.ParentHashes) != 0 {
		return nil, fmt.Errorf("object %s: history does not start at its root commit", id)
	}

	built := make(map[plumbing.Hash]bool)
	for _, c := range commits {
		for _, p := range c.ParentHashes {
			built[p] = true
		}
	}
	var heads []plumbing.Hash
	for _, t := range tips {
		if !built[t] {
			heads = append(heads, t)
		}
	}

	order, err := topoOrder(commits)
	if err != nil {
		return nil, fmt.Errorf("object %s: %w", id, err)
	}
	entries := make([]domain.Entry, 0, len(order))
	for _, c := range order {
		e, err := s.readEntry(c)
		if errors.Is(err, errMalformedEntry) {
			s.warn(id, fmt.Sprintf("skip commit %s: %v", c.Hash, err))
			continue
		}
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnreadableObject, id)
	}

	return &history{root: root, heads: heads, entries: entries}, nil
}

func (s *Store) warn(id domain.ObjectID, msg string) {
	if s.logger != nil {
		s.logger.Warn(id, "store", msg)
	}
}

// topoOrder sorts commits parents first. Among commits whose parents are
// all placed, the smallest hash goes next, so every replica derives the
// same order from the same graph.
func topoOrder(commits map[plumbing.Hash]*object.Commit) ([]*object.Commit, error) {
	pending := make(map[plumbing.Hash]int, len(commits))
	children := make(map[plumbing.Hash][]plumbing.Hash)
	var ready []plumbing.Hash
	for h, c := range commits {
		pending[h] = len(c.ParentHashes)
		for _, p := range c.ParentHashes {
			children[p] = append(children[p], h)
		}
		if len(c.ParentHashes) == 0 {
			ready = append(ready, h)
		}
	}

	order := make([]*object.Commit, 0, len(commits))
	for len(ready) > 0 {
		slices.SortFunc(ready, func(a, b plumbing.Hash) int { return bytes.Compare(a[:], b[:]) })
		h := ready[0]
		ready = ready[1:]
		order = append(order, commits[h])
		for _, child := range children[h] {
			pending[child]--
			if pending[child] == 0 {
				ready = append(ready, child)
			}
		}
	}
	if len(order) != len(commits) {
		return nil, errors.New("commit graph has a cycle")
	}
	return order, nil
}
