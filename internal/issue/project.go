package issue

import (
	"fmt"

	"github.com/runoshun/git-cob/internal/crdt"
	"github.com/runoshun/git-cob/internal/domain"
)

// reader is the read side shared by documents and transactions.
type reader interface {
	Lookup(path ...crdt.Prop) (crdt.Value, error)
}

// lookupObj resolves path to a container of the given kind.
func lookupObj(r reader, kind crdt.ValueKind, path ...crdt.Prop) (crdt.ObjID, error) {
	v, err := r.Lookup(path...)
	if err != nil {
		return crdt.ObjID{}, &InvariantError{Path: crdt.FormatPath(path...), Err: err}
	}
	if v.Kind != kind {
		return crdt.ObjID{}, &InvariantError{
			Path: crdt.FormatPath(path...),
			Err:  fmt.Errorf("expected %s, found %s", kind, v.Kind),
		}
	}
	return v.Obj, nil
}

// Project converts a materialized issue document into a domain.Issue.
// Any departure from the shape written by this package is returned as an
// *InvariantError.
func Project(doc *crdt.Document) (*domain.Issue, error) {
	p := projector{doc: doc}

	root := issuePath()
	issueObj, err := lookupObj(doc, crdt.ValueMap, root...)
	if err != nil {
		return nil, err
	}

	out := &domain.Issue{}
	if out.Title, err = p.str(issueObj, root, keyTitle); err != nil {
		return nil, err
	}
	if out.Author, err = p.identity(issueObj, root, keyAuthor); err != nil {
		return nil, err
	}

	state, err := p.str(issueObj, root, keyState)
	if err != nil {
		return nil, err
	}
	if out.State, err = domain.ParseState(state); err != nil {
		return nil, &InvariantError{Path: crdt.FormatPath(append(root, crdt.Key(keyState))...), Err: err}
	}

	if out.Labels, err = p.labels(); err != nil {
		return nil, err
	}
	if out.Comments, err = p.comments(); err != nil {
		return nil, err
	}
	return out, nil
}

type projector struct {
	doc *crdt.Document
}

func (p projector) scalar(obj crdt.ObjID, at []crdt.Prop, key string) (crdt.Scalar, error) {
	path := crdt.FormatPath(append(at[:len(at):len(at)], crdt.Key(key))...)
	v, ok, err := p.doc.Get(obj, crdt.Key(key))
	switch {
	case err != nil:
		return crdt.Scalar{}, &InvariantError{Path: path, Err: err}
	case !ok:
		return crdt.Scalar{}, &InvariantError{Path: path, Err: crdt.ErrPathNotFound}
	case !v.IsScalar():
		return crdt.Scalar{}, &InvariantError{Path: path, Err: fmt.Errorf("expected scalar, found %s", v.Kind)}
	}
	return v.Scalar, nil
}

func (p projector) str(obj crdt.ObjID, at []crdt.Prop, key string) (string, error) {
	s, err := p.scalar(obj, at, key)
	if err != nil {
		return "", err
	}
	text, ok := s.AsString()
	if !ok {
		path := crdt.FormatPath(append(at[:len(at):len(at)], crdt.Key(key))...)
		return "", &InvariantError{Path: path, Err: fmt.Errorf("expected string, found %s", s)}
	}
	return text, nil
}

func (p projector) identity(obj crdt.ObjID, at []crdt.Prop, key string) (domain.Identity, error) {
	text, err := p.str(obj, at, key)
	if err != nil {
		return domain.Identity{}, err
	}
	id, err := domain.ParseIdentity(text)
	if err != nil {
		path := crdt.FormatPath(append(at[:len(at):len(at)], crdt.Key(key))...)
		return domain.Identity{}, &InvariantError{Path: path, Err: err}
	}
	return id, nil
}

func (p projector) labels() ([]domain.Label, error) {
	at := issuePath(keyLabels)
	set, err := lookupObj(p.doc, crdt.ValueMap, at...)
	if err != nil {
		return nil, err
	}
	names, err := p.doc.Keys(set)
	if err != nil {
		return nil, &InvariantError{Path: crdt.FormatPath(at...), Err: err}
	}

	labels := make([]domain.Label, 0, len(names))
	for _, name := range names {
		l, err := domain.ParseLabel(name)
		if err != nil {
			return nil, &InvariantError{Path: crdt.FormatPath(append(at, crdt.Key(name))...), Err: err}
		}
		labels = append(labels, l)
	}
	domain.SortLabels(labels)
	return labels, nil
}

func (p projector) comments() ([]domain.Comment, error) {
	at := issuePath(keyComments)
	list, err := lookupObj(p.doc, crdt.ValueList, at...)
	if err != nil {
		return nil, err
	}
	n, err := p.doc.Length(list)
	if err != nil {
		return nil, &InvariantError{Path: crdt.FormatPath(at...), Err: err}
	}
	if n == 0 {
		return nil, &InvariantError{Path: crdt.FormatPath(at...), Err: fmt.Errorf("no description")}
	}

	comments := make([]domain.Comment, n)
	for i := range n {
		cpath := append(at[:len(at):len(at)], crdt.Index(i))
		obj, err := lookupObj(p.doc, crdt.ValueMap, cpath...)
		if err != nil {
			return nil, err
		}
		c := &comments[i]
		if c.Author, err = p.identity(obj, cpath, keyAuthor); err != nil {
			return nil, err
		}
		if c.Body, err = p.str(obj, cpath, keyBody); err != nil {
			return nil, err
		}
		if c.Reactions, err = p.reactions(append(cpath, crdt.Key(keyReactions))); err != nil {
			return nil, err
		}
	}
	return comments, nil
}

// reactions counts the distinct authors behind each symbol. Author maps
// created concurrently for the same symbol are merged.
func (p projector) reactions(at []crdt.Prop) (map[domain.Reaction]int, error) {
	table, err := lookupObj(p.doc, crdt.ValueMap, at...)
	if err != nil {
		return nil, err
	}
	symbols, err := p.doc.Keys(table)
	if err != nil {
		return nil, &InvariantError{Path: crdt.FormatPath(at...), Err: err}
	}

	counts := make(map[domain.Reaction]int, len(symbols))
	for _, symbol := range symbols {
		spath := crdt.FormatPath(append(at[:len(at):len(at)], crdt.Key(symbol))...)
		r, err := domain.ParseReaction(symbol)
		if err != nil {
			return nil, &InvariantError{Path: spath, Err: err}
		}

		values, err := p.doc.GetAll(table, crdt.Key(symbol))
		if err != nil {
			return nil, &InvariantError{Path: spath, Err: err}
		}
		authors := make(map[string]struct{})
		for _, v := range values {
			if !v.IsMap() {
				return nil, &InvariantError{Path: spath, Err: fmt.Errorf("expected map, found %s", v.Kind)}
			}
			keys, err := p.doc.Keys(v.Obj)
			if err != nil {
				return nil, &InvariantError{Path: spath, Err: err}
			}
			for _, a := range keys {
				flag, _, err := p.doc.Get(v.Obj, crdt.Key(a))
				if err != nil {
					return nil, &InvariantError{Path: spath, Err: err}
				}
				if on, ok := flag.Scalar.AsBool(); ok && on {
					authors[a] = struct{}{}
				}
			}
		}
		if len(authors) > 0 {
			counts[r] = len(authors)
		}
	}
	return counts, nil
}
