// Package crdt implements the conflict-free document used to store
// collaborative objects.
//
// A document is a tree of maps, lists and scalars. Every edit is an
// operation with a Lamport id; operations are grouped into changes that
// reference the heads they were built on. Peers exchange changes in any
// order and converge on the same tree:
//
//   - map entries are multi-value registers; the visible op with the
//     greatest id wins and the others remain readable through GetAll
//   - lists are RGA trees ordered by insertion reference and id
//   - a change is applied only once all of its dependencies are present
//
// Documents are not safe for concurrent use.
package crdt

import (
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
)

// op is an applied operation.
type op struct {
	value  Scalar
	obj    ObjID
	elem   OpID
	id     OpID
	key    string
	pred   []OpID
	succ   int
	action Action
	insert bool
}

// visible reports whether o holds the current value of its property.
func (o *op) visible() bool {
	return o.succ == 0 && o.action != ActionDelete
}

func (o *op) toValue() Value {
	switch o.action {
	case ActionMakeMap:
		return Value{Kind: ValueMap, Obj: o.id}
	case ActionMakeList:
		return Value{Kind: ValueList, Obj: o.id}
	default:
		return Value{Kind: ValueScalar, Scalar: o.value}
	}
}

// winner returns the visible op with the greatest id, or nil.
func winner(ops []*op) *op {
	var w *op
	for _, o := range ops {
		if o.visible() && (w == nil || o.id.Compare(w.id) > 0) {
			w = o
		}
	}
	return w
}

type object struct {
	props map[string][]*op
	list  *rga
	typ   ObjType
}

func newObject(typ ObjType) *object {
	obj := &object{typ: typ}
	if typ == ListType {
		obj.list = newRGA()
	} else {
		obj.props = make(map[string][]*op)
	}
	return obj
}

// Document is a materialized CRDT document.
type Document struct {
	objects map[ObjID]*object
	ops     map[OpID]*op
	hashes  map[ChangeHash]struct{}
	heads   map[ChangeHash]struct{}
	seqs    map[string]uint64
	actor   string
	history []*Change
	pending []*Change
	maxOp   uint64
	saved   int
}

// New returns an empty document with a random actor id.
func New() *Document {
	return NewWithActor(strings.ReplaceAll(uuid.NewString(), "-", ""))
}

// NewWithActor returns an empty document that records local changes as
// actor.
func NewWithActor(actor string) *Document {
	d := &Document{
		actor:  actor,
		hashes: make(map[ChangeHash]struct{}),
		heads:  make(map[ChangeHash]struct{}),
		seqs:   make(map[string]uint64),
	}
	d.reset()
	return d
}

func (d *Document) reset() {
	d.objects = map[ObjID]*object{Root: newObject(MapType)}
	d.ops = make(map[OpID]*op)
	d.maxOp = 0
}

// Actor returns the id under which local changes are recorded.
func (d *Document) Actor() string {
	return d.actor
}

// Heads returns the hashes of the changes no other applied change
// depends on, sorted.
func (d *Document) Heads() []ChangeHash {
	heads := make([]ChangeHash, 0, len(d.heads))
	for h := range d.heads {
		heads = append(heads, h)
	}
	sortHashes(heads)
	return heads
}

// Changes returns the applied changes in application order.
func (d *Document) Changes() []*Change {
	return slices.Clone(d.history)
}

// Pending returns the number of received changes waiting for missing
// dependencies.
func (d *Document) Pending() int {
	return len(d.pending)
}

// HasChange reports whether the change with hash h has been applied.
func (d *Document) HasChange(h ChangeHash) bool {
	_, ok := d.hashes[h]
	return ok
}

// ObjType returns the type of obj.
func (d *Document) ObjType(obj ObjID) (ObjType, bool) {
	o, ok := d.objects[obj]
	if !ok {
		return 0, false
	}
	return o.typ, true
}

// visibleOps returns the ops holding the current value(s) of prop in obj,
// in ascending id order.
func (d *Document) visibleOps(obj ObjID, prop Prop) ([]*op, error) {
	o, ok := d.objects[obj]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownObject, obj)
	}

	var candidates []*op
	switch o.typ {
	case MapType:
		if prop.IsIndex() {
			return nil, fmt.Errorf("%w: index %d on map %s", ErrPropMismatch, prop.ListIndex(), obj)
		}
		candidates = o.props[prop.MapKey()]
	case ListType:
		if !prop.IsIndex() {
			return nil, fmt.Errorf("%w: key %q on list %s", ErrPropMismatch, prop.MapKey(), obj)
		}
		elems := o.list.visibleElements()
		i := prop.ListIndex()
		if i < 0 || i >= len(elems) {
			return nil, nil
		}
		candidates = elems[i].ops
	}

	var out []*op
	for _, c := range candidates {
		if c.visible() {
			out = append(out, c)
		}
	}
	slices.SortFunc(out, func(a, b *op) int { return a.id.Compare(b.id) })
	return out, nil
}

// Get returns the winning value of prop in obj. ok is false when the key
// is absent or the index is out of range.
func (d *Document) Get(obj ObjID, prop Prop) (v Value, ok bool, err error) {
	ops, err := d.visibleOps(obj, prop)
	if err != nil || len(ops) == 0 {
		return Value{}, false, err
	}
	return ops[len(ops)-1].toValue(), true, nil
}

// GetAll returns every concurrently written value of prop in obj, the
// winner last.
func (d *Document) GetAll(obj ObjID, prop Prop) ([]Value, error) {
	ops, err := d.visibleOps(obj, prop)
	if err != nil {
		return nil, err
	}
	values := make([]Value, len(ops))
	for i, o := range ops {
		values[i] = o.toValue()
	}
	return values, nil
}

// Keys returns the keys of a map that currently hold a value, sorted.
func (d *Document) Keys(obj ObjID) ([]string, error) {
	o, ok := d.objects[obj]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownObject, obj)
	}
	if o.typ != MapType {
		return nil, fmt.Errorf("%w: keys of %s %s", ErrPropMismatch, o.typ, obj)
	}
	keys := make([]string, 0, len(o.props))
	for k, ops := range o.props {
		for _, c := range ops {
			if c.visible() {
				keys = append(keys, k)
				break
			}
		}
	}
	slices.Sort(keys)
	return keys, nil
}

// Length returns the number of visible entries of a map or list.
func (d *Document) Length(obj ObjID) (int, error) {
	o, ok := d.objects[obj]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownObject, obj)
	}
	if o.typ == ListType {
		return len(o.list.visibleElements()), nil
	}
	keys, err := d.Keys(obj)
	return len(keys), err
}

// Lookup walks path from the root and returns the value it ends at.
func (d *Document) Lookup(path ...Prop) (Value, error) {
	cur := Value{Kind: ValueMap, Obj: Root}
	for i, p := range path {
		if cur.IsScalar() {
			return Value{}, fmt.Errorf("%w: %s", ErrNotObject, FormatPath(path[:i]...))
		}
		next, ok, err := d.Get(cur.Obj, p)
		if err != nil {
			return Value{}, fmt.Errorf("lookup %s: %w", FormatPath(path[:i+1]...), err)
		}
		if !ok {
			return Value{}, fmt.Errorf("%w: %s", ErrPathNotFound, FormatPath(path[:i+1]...))
		}
		cur = next
	}
	return cur, nil
}

// Materialize converts obj and everything below it into plain Go values:
// map[string]any, []any, string, bool, int64 or nil.
func (d *Document) Materialize(obj ObjID) (any, error) {
	o, ok := d.objects[obj]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownObject, obj)
	}
	switch o.typ {
	case ListType:
		elems := o.list.visibleElements()
		out := make([]any, 0, len(elems))
		for _, e := range elems {
			m, err := d.materializeValue(winner(e.ops).toValue())
			if err != nil {
				return nil, err
			}
			out = append(out, m)
		}
		return out, nil
	default:
		keys, err := d.Keys(obj)
		if err != nil {
			return nil, err
		}
		out := make(map[string]any, len(keys))
		for _, k := range keys {
			v, _, err := d.Get(obj, Key(k))
			if err != nil {
				return nil, err
			}
			m, err := d.materializeValue(v)
			if err != nil {
				return nil, err
			}
			out[k] = m
		}
		return out, nil
	}
}

func (d *Document) materializeValue(v Value) (any, error) {
	if v.IsScalar() {
		return v.Scalar.Any(), nil
	}
	return d.Materialize(v.Obj)
}
