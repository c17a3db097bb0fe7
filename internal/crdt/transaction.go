package crdt

import (
	"fmt"
)

// Transaction records local edits into a single change. Reads through a
// transaction observe its own writes.
type Transaction struct {
	doc    *Document
	change *Change
}

// Transact runs fn inside a transaction and commits the resulting change.
// If fn returns an error every op it made is rolled back and the error is
// returned unchanged. A transaction that makes no ops returns
// ErrEmptyChange.
func (d *Document) Transact(message string, fn func(tx *Transaction) error) (*Change, error) {
	tx := &Transaction{
		doc: d,
		change: &Change{
			Actor:   d.actor,
			Seq:     d.seqs[d.actor] + 1,
			StartOp: d.maxOp + 1,
			Deps:    d.Heads(),
			Message: message,
		},
	}

	if err := fn(tx); err != nil {
		d.rebuild()
		return nil, err
	}
	if len(tx.change.Ops) == 0 {
		return nil, ErrEmptyChange
	}

	h, err := tx.change.Hash()
	if err != nil {
		d.rebuild()
		return nil, err
	}
	d.record(tx.change, h)
	return tx.change, nil
}

func (tx *Transaction) push(o Op) OpID {
	id := tx.change.opID(len(tx.change.Ops))
	tx.change.Ops = append(tx.change.Ops, o)
	tx.doc.applyOp(id, &tx.change.Ops[len(tx.change.Ops)-1])
	return id
}

// Get returns the winning value of prop in obj.
func (tx *Transaction) Get(obj ObjID, prop Prop) (Value, bool, error) {
	return tx.doc.Get(obj, prop)
}

// Length returns the number of visible entries of obj.
func (tx *Transaction) Length(obj ObjID) (int, error) {
	return tx.doc.Length(obj)
}

// Keys returns the keys of a map.
func (tx *Transaction) Keys(obj ObjID) ([]string, error) {
	return tx.doc.Keys(obj)
}

// Lookup walks path from the root.
func (tx *Transaction) Lookup(path ...Prop) (Value, error) {
	return tx.doc.Lookup(path...)
}

// target resolves prop in obj to the fields of an overwriting op.
func (tx *Transaction) target(obj ObjID, prop Prop) (Op, error) {
	ops, err := tx.doc.visibleOps(obj, prop)
	if err != nil {
		return Op{}, err
	}
	o := Op{Obj: obj}
	for _, p := range ops {
		o.Pred = append(o.Pred, p.id)
	}
	if !prop.IsIndex() {
		o.Key = prop.MapKey()
		return o, nil
	}
	if len(ops) == 0 {
		return Op{}, fmt.Errorf("%w: %d", ErrIndexOutOfRange, prop.ListIndex())
	}
	o.Elem = tx.elementAt(obj, prop.ListIndex())
	return o, nil
}

func (tx *Transaction) elementAt(obj ObjID, index int) OpID {
	elems := tx.doc.objects[obj].list.visibleElements()
	return elems[index].id
}

// Put sets prop in obj to a scalar.
func (tx *Transaction) Put(obj ObjID, prop Prop, value Scalar) error {
	o, err := tx.target(obj, prop)
	if err != nil {
		return err
	}
	o.Action = ActionSet
	o.Value = value
	tx.push(o)
	return nil
}

// PutObject sets prop in obj to a new empty map or list and returns its id.
func (tx *Transaction) PutObject(obj ObjID, prop Prop, typ ObjType) (ObjID, error) {
	o, err := tx.target(obj, prop)
	if err != nil {
		return ObjID{}, err
	}
	o.Action, err = makeAction(typ)
	if err != nil {
		return ObjID{}, err
	}
	return tx.push(o), nil
}

// Delete removes prop from obj.
func (tx *Transaction) Delete(obj ObjID, prop Prop) error {
	o, err := tx.target(obj, prop)
	if err != nil {
		return err
	}
	if len(o.Pred) == 0 {
		return nil
	}
	o.Action = ActionDelete
	tx.push(o)
	return nil
}

// Insert inserts a scalar into list obj at index.
func (tx *Transaction) Insert(obj ObjID, index int, value Scalar) error {
	o, err := tx.insertion(obj, index)
	if err != nil {
		return err
	}
	o.Action = ActionSet
	o.Value = value
	tx.push(o)
	return nil
}

// InsertObject inserts a new empty map or list into list obj at index and
// returns its id.
func (tx *Transaction) InsertObject(obj ObjID, index int, typ ObjType) (ObjID, error) {
	o, err := tx.insertion(obj, index)
	if err != nil {
		return ObjID{}, err
	}
	o.Action, err = makeAction(typ)
	if err != nil {
		return ObjID{}, err
	}
	return tx.push(o), nil
}

func (tx *Transaction) insertion(obj ObjID, index int) (Op, error) {
	typ, ok := tx.doc.ObjType(obj)
	if !ok {
		return Op{}, fmt.Errorf("%w: %s", ErrUnknownObject, obj)
	}
	if typ != ListType {
		return Op{}, fmt.Errorf("%w: insert into %s %s", ErrPropMismatch, typ, obj)
	}
	n, err := tx.doc.Length(obj)
	if err != nil {
		return Op{}, err
	}
	if index < 0 || index > n {
		return Op{}, fmt.Errorf("%w: insert at %d, length %d", ErrIndexOutOfRange, index, n)
	}
	o := Op{Obj: obj, Insert: true}
	if index > 0 {
		o.Elem = tx.elementAt(obj, index-1)
	}
	return o, nil
}

func makeAction(typ ObjType) (Action, error) {
	switch typ {
	case MapType:
		return ActionMakeMap, nil
	case ListType:
		return ActionMakeList, nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrPropMismatch, typ)
	}
}
