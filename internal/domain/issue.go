// Package domain contains core business entities and interfaces.
package domain

import (
	"fmt"
	"slices"
	"strings"
	"unicode"

	"github.com/rivo/uniseg"
)

// State is the lifecycle state of an issue.
type State int

// Issue states.
const (
	StateOpen State = iota
	StateClosed
)

// ParseState parses the text encoding of a state.
func ParseState(s string) (State, error) {
	switch s {
	case "open":
		return StateOpen, nil
	case "closed":
		return StateClosed, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidState, s)
	}
}

func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	if s != StateOpen && s != StateClosed {
		return nil, fmt.Errorf("%w: %d", ErrInvalidState, int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *State) UnmarshalText(text []byte) error {
	parsed, err := ParseState(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Label is a unique tag on an issue.
type Label struct {
	name string
}

// ParseLabel validates a stored label name. Any non-empty string is a
// label.
func ParseLabel(s string) (Label, error) {
	if s == "" {
		return Label{}, fmt.Errorf("%w: empty name", ErrInvalidLabel)
	}
	return Label{name: s}, nil
}

// ParseLabelInput validates a label name typed by a user. On top of
// ParseLabel it rejects whitespace and control characters.
func ParseLabelInput(s string) (Label, error) {
	if i := strings.IndexFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsControl(r)
	}); i >= 0 {
		return Label{}, fmt.Errorf("%w: %q contains whitespace", ErrInvalidLabel, s)
	}
	return ParseLabel(s)
}

// ParseLabels parses user input names with ParseLabelInput and drops
// duplicates, keeping first occurrence order.
func ParseLabels(names []string) ([]Label, error) {
	labels := make([]Label, 0, len(names))
	for _, n := range names {
		l, err := ParseLabelInput(n)
		if err != nil {
			return nil, err
		}
		if !slices.Contains(labels, l) {
			labels = append(labels, l)
		}
	}
	return labels, nil
}

// Name returns the label name.
func (l Label) Name() string { return l.name }

func (l Label) String() string { return l.name }

// Reaction is a single grapheme cluster, usually an emoji.
type Reaction struct {
	symbol string
}

// ParseReaction accepts exactly one user-perceived character.
func ParseReaction(s string) (Reaction, error) {
	if n := uniseg.GraphemeClusterCount(s); n != 1 {
		return Reaction{}, fmt.Errorf("%w: %q has %d characters", ErrInvalidReaction, s, n)
	}
	r := []rune(s)[0]
	if unicode.IsSpace(r) || unicode.IsControl(r) {
		return Reaction{}, fmt.Errorf("%w: %q is not printable", ErrInvalidReaction, s)
	}
	return Reaction{symbol: s}, nil
}

// MustParseReaction is like ParseReaction but panics on error.
func MustParseReaction(s string) Reaction {
	r, err := ParseReaction(s)
	if err != nil {
		panic(err)
	}
	return r
}

// Symbol returns the reaction character.
func (r Reaction) Symbol() string { return r.symbol }

func (r Reaction) String() string { return r.symbol }

// Comment is a message on an issue. The first comment of an issue is its
// description. Reactions maps each symbol to the number of authors who
// reacted with it.
type Comment struct {
	Reactions map[Reaction]int
	Author    Identity
	Body      string
}

// Issue is the projected state of an issue object.
// Fields are ordered to minimize memory padding.
type Issue struct {
	Author   Identity
	Title    string
	Comments []Comment // Never empty; Comments[0] is the description
	Labels   []Label   // Sorted by name
	State    State
}

// Description returns the body of the first comment.
func (i *Issue) Description() string {
	if len(i.Comments) == 0 {
		return ""
	}
	return i.Comments[0].Body
}

// Replies returns the comments after the description.
func (i *Issue) Replies() []Comment {
	if len(i.Comments) < 2 {
		return nil
	}
	return i.Comments[1:]
}

// Reactions returns the reactions on the description.
func (i *Issue) Reactions() map[Reaction]int {
	if len(i.Comments) == 0 {
		return nil
	}
	return i.Comments[0].Reactions
}

// HasLabel reports whether the issue carries label l.
func (i *Issue) HasLabel(l Label) bool {
	return slices.Contains(i.Labels, l)
}

// LabelNames returns the label names in order.
func (i *Issue) LabelNames() []string {
	names := make([]string, len(i.Labels))
	for k, l := range i.Labels {
		names[k] = l.name
	}
	return names
}

// IsOpen reports whether the issue is open.
func (i *Issue) IsOpen() bool {
	return i.State == StateOpen
}

// SortLabels sorts labels by name in place.
func SortLabels(labels []Label) {
	slices.SortFunc(labels, func(a, b Label) int {
		return strings.Compare(a.name, b.name)
	})
}
