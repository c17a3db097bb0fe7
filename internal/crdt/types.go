package crdt

import (
	"fmt"
	"strconv"
	"strings"
)

// OpID identifies an operation. Ids are totally ordered by counter, then
// by actor. The id of the operation that created an object is also the
// object's id.
type OpID struct {
	_       struct{} `cbor:",toarray"`
	Actor   string
	Counter uint64
}

// ObjID identifies a map or list in a document.
type ObjID = OpID

// Root is the id of the document's root map.
var Root = ObjID{}

// IsZero reports whether id is the zero id (the root, or the list head).
func (id OpID) IsZero() bool {
	return id.Counter == 0 && id.Actor == ""
}

// Compare orders ids by counter, then by actor.
func (id OpID) Compare(other OpID) int {
	switch {
	case id.Counter < other.Counter:
		return -1
	case id.Counter > other.Counter:
		return 1
	}
	return strings.Compare(id.Actor, other.Actor)
}

func (id OpID) String() string {
	if id.IsZero() {
		return "_root"
	}
	return strconv.FormatUint(id.Counter, 10) + "@" + id.Actor
}

// ObjType is the type of a container object.
type ObjType uint8

// Object types.
const (
	MapType ObjType = iota + 1
	ListType
)

func (t ObjType) String() string {
	switch t {
	case MapType:
		return "map"
	case ListType:
		return "list"
	default:
		return fmt.Sprintf("objtype(%d)", uint8(t))
	}
}

// ScalarKind tags the variant held by a Scalar.
type ScalarKind uint8

// Scalar kinds.
const (
	KindNull ScalarKind = iota
	KindString
	KindBool
	KindInt
)

// Scalar is a leaf value.
type Scalar struct {
	_    struct{} `cbor:",toarray"`
	Kind ScalarKind
	Str  string
	Int  int64
	Bool bool
}

// Str returns a string scalar.
func Str(s string) Scalar { return Scalar{Kind: KindString, Str: s} }

// Bool returns a boolean scalar.
func Bool(b bool) Scalar { return Scalar{Kind: KindBool, Bool: b} }

// Int returns an integer scalar.
func Int(i int64) Scalar { return Scalar{Kind: KindInt, Int: i} }

// Null returns the null scalar.
func Null() Scalar { return Scalar{Kind: KindNull} }

// AsString returns the string held by s.
func (s Scalar) AsString() (string, bool) {
	return s.Str, s.Kind == KindString
}

// AsBool returns the boolean held by s.
func (s Scalar) AsBool() (bool, bool) {
	return s.Bool, s.Kind == KindBool
}

// AsInt returns the integer held by s.
func (s Scalar) AsInt() (int64, bool) {
	return s.Int, s.Kind == KindInt
}

// Any returns s as a plain Go value.
func (s Scalar) Any() any {
	switch s.Kind {
	case KindString:
		return s.Str
	case KindBool:
		return s.Bool
	case KindInt:
		return s.Int
	default:
		return nil
	}
}

func (s Scalar) valid() bool {
	return s.Kind <= KindInt
}

func (s Scalar) String() string {
	switch s.Kind {
	case KindString:
		return strconv.Quote(s.Str)
	case KindBool:
		return strconv.FormatBool(s.Bool)
	case KindInt:
		return strconv.FormatInt(s.Int, 10)
	default:
		return "null"
	}
}

// ValueKind tags the variant held by a Value.
type ValueKind uint8

// Value kinds.
const (
	ValueScalar ValueKind = iota
	ValueMap
	ValueList
)

func (k ValueKind) String() string {
	switch k {
	case ValueMap:
		return "map"
	case ValueList:
		return "list"
	default:
		return "scalar"
	}
}

// Value is a node of the document tree: a reference to a map, a
// reference to a list, or a scalar.
type Value struct {
	Obj    ObjID
	Scalar Scalar
	Kind   ValueKind
}

// IsMap reports whether v refers to a map.
func (v Value) IsMap() bool { return v.Kind == ValueMap }

// IsList reports whether v refers to a list.
func (v Value) IsList() bool { return v.Kind == ValueList }

// IsScalar reports whether v is a scalar.
func (v Value) IsScalar() bool { return v.Kind == ValueScalar }

// Prop addresses a child of an object: a key in a map or an index in a
// list.
type Prop struct {
	key     string
	index   int
	isIndex bool
}

// Key addresses a map entry.
func Key(key string) Prop { return Prop{key: key} }

// Index addresses a list element.
func Index(index int) Prop { return Prop{index: index, isIndex: true} }

// IsIndex reports whether p addresses a list element.
func (p Prop) IsIndex() bool { return p.isIndex }

// MapKey returns the key of a map prop.
func (p Prop) MapKey() string { return p.key }

// ListIndex returns the index of a list prop.
func (p Prop) ListIndex() int { return p.index }

func (p Prop) String() string {
	if p.isIndex {
		return "[" + strconv.Itoa(p.index) + "]"
	}
	return "." + p.key
}

// FormatPath renders a path as ".issue.comments[0].body".
func FormatPath(path ...Prop) string {
	var b strings.Builder
	for _, p := range path {
		b.WriteString(p.String())
	}
	if b.Len() == 0 {
		return "."
	}
	return b.String()
}
