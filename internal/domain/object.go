package domain

import (
	"fmt"
	"regexp"
	"time"
)

// ObjectID identifies a collaborative object within a project. It is the
// 40-digit lowercase hex id assigned by the store on creation.
type ObjectID string

var objectIDPattern = regexp.MustCompile(`^[0-9a-f]{40}$`)

// ParseObjectID validates s as an object id. Unambiguous prefixes are
// resolved by the store, not here.
func ParseObjectID(s string) (ObjectID, error) {
	if !objectIDPattern.MatchString(s) {
		return "", fmt.Errorf("%w: %q", ErrInvalidObjectID, s)
	}
	return ObjectID(s), nil
}

func (id ObjectID) String() string { return string(id) }

// Short returns the first seven digits of the id.
func (id ObjectID) Short() string {
	if len(id) < 7 {
		return string(id)
	}
	return string(id[:7])
}

// RevisionID identifies one entry in an object's history.
type RevisionID string

func (id RevisionID) String() string { return string(id) }

// Short returns the first seven digits of the id.
func (id RevisionID) Short() string {
	if len(id) < 7 {
		return string(id)
	}
	return string(id[:7])
}

// TypeName is the reverse-DNS name of a kind of collaborative object.
type TypeName string

var typeNamePattern = regexp.MustCompile(`^[a-z][a-z0-9-]*(\.[a-z][a-z0-9-]*)+$`)

// ParseTypeName validates a reverse-DNS type name such as "dev.gitcob.issue".
func ParseTypeName(s string) (TypeName, error) {
	if !typeNamePattern.MatchString(s) {
		return "", fmt.Errorf("%w: %q", ErrInvalidTypeName, s)
	}
	return TypeName(s), nil
}

func (t TypeName) String() string { return string(t) }

// Entry is one record of an object's history as stored.
// Fields are ordered to minimize memory padding.
type Entry struct {
	Timestamp time.Time
	Author    Identity
	ID        RevisionID
	Message   string
	Parents   []RevisionID
	Record    []byte
}

// Object is a collaborative object and its history in causal order: every
// entry comes after the entries it was built on.
type Object struct {
	ID       ObjectID
	TypeName TypeName
	Entries  []Entry
}

// Records returns the record of every entry in history order.
func (o *Object) Records() [][]byte {
	records := make([][]byte, len(o.Entries))
	for i, e := range o.Entries {
		records[i] = e.Record
	}
	return records
}

// NewObjectSpec describes an object to create.
type NewObjectSpec struct {
	TypeName TypeName
	Message  string
	Schema   []byte // JSON schema the object's history must conform to
	Record   []byte // Initial record
}

// UpdateObjectSpec describes a record to append to an object.
type UpdateObjectSpec struct {
	ObjectID ObjectID
	TypeName TypeName
	Message  string
	Record   []byte
}
