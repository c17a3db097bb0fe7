package crdt

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"slices"

	"github.com/zeebo/blake3"

	"github.com/runoshun/git-cob/internal/codec"
)

// Action is the kind of an operation.
type Action uint8

// Operation actions.
const (
	ActionSet Action = iota + 1
	ActionMakeMap
	ActionMakeList
	ActionDelete
)

func (a Action) String() string {
	switch a {
	case ActionSet:
		return "set"
	case ActionMakeMap:
		return "makeMap"
	case ActionMakeList:
		return "makeList"
	case ActionDelete:
		return "del"
	default:
		return fmt.Sprintf("action(%d)", uint8(a))
	}
}

// Op is one operation of a change. Its id is implied by its position in
// the change: StartOp + index, with the change's actor.
//
// For map objects Key names the entry. For list objects Elem names the
// element: with Insert set, the new element goes after Elem (the zero id
// is the list head); otherwise Elem is the element being overwritten.
type Op struct {
	_      struct{} `cbor:",toarray"`
	Action Action
	Obj    ObjID
	Key    string
	Elem   OpID
	Insert bool
	Value  Scalar
	Pred   []OpID
}

// ChangeHash is the content address of a change.
type ChangeHash [32]byte

func (h ChangeHash) String() string {
	return hex.EncodeToString(h[:])
}

// Short returns the first 8 hex digits of h.
func (h ChangeHash) Short() string {
	return h.String()[:8]
}

// Change is a unit of replication: an ordered group of ops made by one
// actor on top of the document state identified by Deps.
type Change struct {
	_       struct{} `cbor:",toarray"`
	Actor   string
	Seq     uint64
	StartOp uint64
	Deps    []ChangeHash
	Message string
	Ops     []Op

	hash   ChangeHash
	hashed bool
}

// changeDomainKey separates change hashes from every other BLAKE3 use.
var changeDomainKey = [32]byte{
	'g', 'i', 't', 'c', 'o', 'b', '.', 'c', 'r', 'd', 't', '.',
	'c', 'h', 'a', 'n', 'g', 'e', 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
}

// Hash returns the keyed BLAKE3 digest of the change's canonical CBOR
// encoding.
func (c *Change) Hash() (ChangeHash, error) {
	if c.hashed {
		return c.hash, nil
	}
	data, err := codec.Marshal(c)
	if err != nil {
		return ChangeHash{}, fmt.Errorf("encode change: %w", err)
	}
	hasher, err := blake3.NewKeyed(changeDomainKey[:])
	if err != nil {
		return ChangeHash{}, fmt.Errorf("create hasher: %w", err)
	}
	_, _ = hasher.Write(data)
	copy(c.hash[:], hasher.Sum(nil))
	c.hashed = true
	return c.hash, nil
}

// MaxOp returns the counter of the last op in the change.
func (c *Change) MaxOp() uint64 {
	if len(c.Ops) == 0 {
		return c.StartOp - 1
	}
	return c.StartOp + uint64(len(c.Ops)) - 1
}

// opID returns the id of the i-th op.
func (c *Change) opID(i int) OpID {
	return OpID{Counter: c.StartOp + uint64(i), Actor: c.Actor}
}

func sortHashes(hashes []ChangeHash) {
	slices.SortFunc(hashes, func(a, b ChangeHash) int {
		return bytes.Compare(a[:], b[:])
	})
}
