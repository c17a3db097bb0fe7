package issue

import (
	"errors"
	"fmt"

	"github.com/runoshun/git-cob/internal/crdt"
	"github.com/runoshun/git-cob/internal/domain"
)

// Document keys.
const (
	keyIssue     = "issue"
	keyTitle     = "title"
	keyAuthor    = "author"
	keyState     = "state"
	keyComments  = "comments"
	keyLabels    = "labels"
	keyBody      = "body"
	keyReactions = "reactions"
)

// Audit messages recorded with each mutation.
const (
	MessageCreate  = "Create issue"
	MessageComment = "Add comment"
	MessageClose   = "Close issue"
	MessageReopen  = "Reopen issue"
	MessageLabel   = "Add label"
	MessageReact   = "Add reaction"
)

// Mutation is an encoded record ready to be appended to an issue's history.
type Mutation struct {
	Message string
	Record  []byte
}

// Create builds the first record of a new issue: a snapshot holding the
// title, the author, the open state, an empty label set and the
// description as the only comment. The returned document reflects the
// record.
func Create(author domain.Identity, title, description string) (*crdt.Document, Mutation, error) {
	doc := crdt.New()
	_, err := doc.Transact(MessageCreate, func(tx *crdt.Transaction) error {
		issue, err := tx.PutObject(crdt.Root, crdt.Key(keyIssue), crdt.MapType)
		if err != nil {
			return err
		}
		if err := tx.Put(issue, crdt.Key(keyTitle), crdt.Str(title)); err != nil {
			return err
		}
		if err := tx.Put(issue, crdt.Key(keyAuthor), crdt.Str(author.String())); err != nil {
			return err
		}
		if err := tx.Put(issue, crdt.Key(keyState), crdt.Str(domain.StateOpen.String())); err != nil {
			return err
		}
		if _, err := tx.PutObject(issue, crdt.Key(keyLabels), crdt.MapType); err != nil {
			return err
		}
		comments, err := tx.PutObject(issue, crdt.Key(keyComments), crdt.ListType)
		if err != nil {
			return err
		}
		return insertComment(tx, comments, 0, author, description)
	})
	if err != nil {
		return nil, Mutation{}, defect("create issue", err)
	}

	record, err := doc.Save()
	if err != nil {
		return nil, Mutation{}, defect("encode issue", err)
	}
	return doc, Mutation{Message: MessageCreate, Record: record}, nil
}

// Comment appends a comment to the end of the comment list. doc must
// reflect every record of the issue.
func Comment(doc *crdt.Document, author domain.Identity, body string) (Mutation, error) {
	return build(doc, MessageComment, func(tx *crdt.Transaction) error {
		comments, err := lookupObj(tx, crdt.ValueList, issuePath(keyComments)...)
		if err != nil {
			return err
		}
		n, err := tx.Length(comments)
		if err != nil {
			return err
		}
		return insertComment(tx, comments, n, author, body)
	})
}

// Lifecycle sets the issue state. The author of the transition is not
// recorded in the document.
func Lifecycle(doc *crdt.Document, state domain.State) (Mutation, error) {
	text, err := state.MarshalText()
	if err != nil {
		return Mutation{}, err
	}
	message := MessageClose
	if state == domain.StateOpen {
		message = MessageReopen
	}
	return build(doc, message, func(tx *crdt.Transaction) error {
		issue, err := lookupObj(tx, crdt.ValueMap, issuePath()...)
		if err != nil {
			return err
		}
		return tx.Put(issue, crdt.Key(keyState), crdt.Str(string(text)))
	})
}

// Label adds labels to the issue's label set.
func Label(doc *crdt.Document, labels []domain.Label) (Mutation, error) {
	if len(labels) == 0 {
		return Mutation{}, domain.ErrNoLabels
	}
	return build(doc, MessageLabel, func(tx *crdt.Transaction) error {
		set, err := lookupObj(tx, crdt.ValueMap, issuePath(keyLabels)...)
		if err != nil {
			return err
		}
		for _, l := range labels {
			if err := tx.Put(set, crdt.Key(l.Name()), crdt.Bool(true)); err != nil {
				return err
			}
		}
		return nil
	})
}

// React records author's reactions on the comment at index, where index 0
// is the description. An index outside the comment list fails with
// domain.ErrCommentIndexOutOfRange and leaves doc unchanged.
func React(doc *crdt.Document, index int, author domain.Identity, reactions []domain.Reaction) (Mutation, error) {
	if len(reactions) == 0 {
		return Mutation{}, domain.ErrNoReactions
	}
	return build(doc, MessageReact, func(tx *crdt.Transaction) error {
		comments, err := lookupObj(tx, crdt.ValueList, issuePath(keyComments)...)
		if err != nil {
			return err
		}
		n, err := tx.Length(comments)
		if err != nil {
			return err
		}
		if index < 0 || index >= n {
			return fmt.Errorf("%w: %d (have %d)", domain.ErrCommentIndexOutOfRange, index, n)
		}

		path := issuePath(keyComments)
		path = append(path, crdt.Index(index), crdt.Key(keyReactions))
		table, err := lookupObj(tx, crdt.ValueMap, path...)
		if err != nil {
			return err
		}

		for _, r := range reactions {
			authors, err := reactionAuthors(tx, table, r.Symbol())
			if err != nil {
				return err
			}
			if err := tx.Put(authors, crdt.Key(author.String()), crdt.Bool(true)); err != nil {
				return err
			}
		}
		return nil
	})
}

// reactionAuthors returns the author map under symbol, creating it when
// absent.
func reactionAuthors(tx *crdt.Transaction, table crdt.ObjID, symbol string) (crdt.ObjID, error) {
	v, ok, err := tx.Get(table, crdt.Key(symbol))
	if err != nil {
		return crdt.ObjID{}, err
	}
	if ok {
		if !v.IsMap() {
			return crdt.ObjID{}, &InvariantError{Path: fmt.Sprintf("reactions[%q]", symbol), Err: fmt.Errorf("expected map, found %s", v.Kind)}
		}
		return v.Obj, nil
	}
	return tx.PutObject(table, crdt.Key(symbol), crdt.MapType)
}

func insertComment(tx *crdt.Transaction, comments crdt.ObjID, at int, author domain.Identity, body string) error {
	c, err := tx.InsertObject(comments, at, crdt.MapType)
	if err != nil {
		return err
	}
	if err := tx.Put(c, crdt.Key(keyAuthor), crdt.Str(author.String())); err != nil {
		return err
	}
	if err := tx.Put(c, crdt.Key(keyBody), crdt.Str(body)); err != nil {
		return err
	}
	_, err = tx.PutObject(c, crdt.Key(keyReactions), crdt.MapType)
	return err
}

// build runs fn in a transaction on doc and encodes the resulting change.
func build(doc *crdt.Document, message string, fn func(tx *crdt.Transaction) error) (Mutation, error) {
	change, err := doc.Transact(message, fn)
	if err != nil {
		if errors.Is(err, domain.ErrCommentIndexOutOfRange) {
			return Mutation{}, err
		}
		return Mutation{}, defect(message, err)
	}
	record, err := crdt.EncodeChanges(change)
	if err != nil {
		return Mutation{}, defect(message, err)
	}
	return Mutation{Message: message, Record: record}, nil
}

func issuePath(keys ...string) []crdt.Prop {
	path := make([]crdt.Prop, 0, len(keys)+1)
	path = append(path, crdt.Key(keyIssue))
	for _, k := range keys {
		path = append(path, crdt.Key(k))
	}
	return path
}
