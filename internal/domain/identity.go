package domain

import (
	"fmt"
	"regexp"
	"strings"
)

// Identity is a URN-like actor or project identifier of the form
// scheme:method:id, for example "did:key:z6Mkt67GdsW7715MEfRuP4pSZxJRJh6kj6Y48WRqVv4N1tRk".
// The id part may itself contain colons.
type Identity struct {
	Scheme string
	Method string
	ID     string
}

var (
	identityWordPattern = regexp.MustCompile(`^[a-z][a-z0-9+.-]*$`)
	identityIDPattern   = regexp.MustCompile(`^[A-Za-z0-9_+-][A-Za-z0-9._+-]*(?::[A-Za-z0-9_+-][A-Za-z0-9._+-]*)*$`)
)

// ParseIdentity parses s as scheme:method:id.
func ParseIdentity(s string) (Identity, error) {
	parts := strings.SplitN(s, ":", 3)
	if len(parts) != 3 {
		return Identity{}, fmt.Errorf("%w: %q: expected scheme:method:id", ErrInvalidIdentity, s)
	}
	id := Identity{Scheme: parts[0], Method: parts[1], ID: parts[2]}
	if err := id.Validate(); err != nil {
		return Identity{}, err
	}
	return id, nil
}

// MustParseIdentity is like ParseIdentity but panics on error.
// Intended for tests and constants.
func MustParseIdentity(s string) Identity {
	id, err := ParseIdentity(s)
	if err != nil {
		panic(err)
	}
	return id
}

// Validate checks every part of the identity.
func (i Identity) Validate() error {
	switch {
	case !identityWordPattern.MatchString(i.Scheme):
		return fmt.Errorf("%w: invalid scheme %q", ErrInvalidIdentity, i.Scheme)
	case !identityWordPattern.MatchString(i.Method):
		return fmt.Errorf("%w: invalid method %q", ErrInvalidIdentity, i.Method)
	case !identityIDPattern.MatchString(i.ID) || strings.Contains(i.ID, ".."):
		return fmt.Errorf("%w: invalid id %q", ErrInvalidIdentity, i.ID)
	}
	return nil
}

// IsZero reports whether the identity is unset.
func (i Identity) IsZero() bool {
	return i == Identity{}
}

func (i Identity) String() string {
	if i.IsZero() {
		return ""
	}
	return i.Scheme + ":" + i.Method + ":" + i.ID
}

// Short returns the identity abbreviated for display.
func (i Identity) Short() string {
	if len(i.ID) <= 12 {
		return i.String()
	}
	return i.Scheme + ":" + i.Method + ":" + i.ID[:6] + "…" + i.ID[len(i.ID)-4:]
}

// PathSegments returns the identity as slash-separated path segments.
// Colons inside the id become further segments.
func (i Identity) PathSegments() string {
	return i.Scheme + "/" + i.Method + "/" + strings.ReplaceAll(i.ID, ":", "/")
}

// MarshalText implements encoding.TextMarshaler.
func (i Identity) MarshalText() ([]byte, error) {
	return []byte(i.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (i *Identity) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*i = Identity{}
		return nil
	}
	parsed, err := ParseIdentity(string(text))
	if err != nil {
		return err
	}
	*i = parsed
	return nil
}
