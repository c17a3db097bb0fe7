package crdt

import (
	"errors"
	"fmt"
	"slices"
)

// ApplyChanges applies remote changes. Changes already applied are
// ignored and changes whose dependencies are missing are queued until
// they arrive. A change that does not fit the document is rejected as a
// whole; the others are still applied and the rejections are returned
// joined.
func (d *Document) ApplyChanges(changes ...*Change) error {
	var errs []error
	for _, c := range changes {
		if err := d.applyChange(c); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (d *Document) applyChange(c *Change) error {
	if c == nil {
		return fmt.Errorf("%w: nil change", ErrInvalidChange)
	}
	h, err := c.Hash()
	if err != nil {
		return err
	}
	if d.HasChange(h) {
		return nil
	}
	if !d.depsSatisfied(c) {
		for _, p := range d.pending {
			if ph, _ := p.Hash(); ph == h {
				return nil
			}
		}
		d.pending = append(d.pending, c)
		return nil
	}
	if err := d.validate(c); err != nil {
		return fmt.Errorf("change %s: %w", h.Short(), err)
	}
	d.applyOps(c)
	d.record(c, h)
	return d.drainPending()
}

// drainPending applies queued changes whose dependencies are now present.
func (d *Document) drainPending() error {
	var errs []error
	for progress := true; progress; {
		progress = false
		remaining := d.pending[:0]
		for _, c := range d.pending {
			if !d.depsSatisfied(c) {
				remaining = append(remaining, c)
				continue
			}
			progress = true
			h, _ := c.Hash()
			if d.HasChange(h) {
				continue
			}
			if err := d.validate(c); err != nil {
				errs = append(errs, fmt.Errorf("change %s: %w", h.Short(), err))
				continue
			}
			d.applyOps(c)
			d.record(c, h)
		}
		d.pending = remaining
	}
	return errors.Join(errs...)
}

func (d *Document) depsSatisfied(c *Change) bool {
	for _, dep := range c.Deps {
		if !d.HasChange(dep) {
			return false
		}
	}
	return true
}

// validate checks that every op of c refers to objects, elements and
// predecessors that exist in the document or earlier in c.
func (d *Document) validate(c *Change) error {
	if c.Actor == "" {
		return fmt.Errorf("%w: missing actor", ErrInvalidChange)
	}
	if c.Seq == 0 || c.StartOp == 0 {
		return fmt.Errorf("%w: zero seq or start op", ErrInvalidChange)
	}

	created := make(map[ObjID]ObjType)
	local := make(map[OpID]*Op)
	elems := make(map[OpID]ObjID)

	for i := range c.Ops {
		o := &c.Ops[i]
		id := c.opID(i)
		if _, dup := d.ops[id]; dup {
			return fmt.Errorf("%w: duplicate op %s", ErrInvalidChange, id)
		}

		typ, ok := created[o.Obj]
		if !ok {
			typ, ok = d.ObjType(o.Obj)
		}
		if !ok {
			return fmt.Errorf("%w: op %s: %w %s", ErrInvalidChange, id, ErrUnknownObject, o.Obj)
		}

		switch typ {
		case MapType:
			if o.Key == "" || o.Insert || !o.Elem.IsZero() {
				return fmt.Errorf("%w: op %s: malformed map op", ErrInvalidChange, id)
			}
		case ListType:
			if o.Key != "" {
				return fmt.Errorf("%w: op %s: key on list", ErrInvalidChange, id)
			}
			if !o.Insert && o.Elem.IsZero() {
				return fmt.Errorf("%w: op %s: missing element", ErrInvalidChange, id)
			}
			if !o.Elem.IsZero() && !d.hasElement(o.Obj, o.Elem) && elems[o.Elem] != o.Obj {
				return fmt.Errorf("%w: op %s: unknown element %s", ErrInvalidChange, id, o.Elem)
			}
		}

		switch o.Action {
		case ActionSet:
			if !o.Value.valid() {
				return fmt.Errorf("%w: op %s: invalid scalar", ErrInvalidChange, id)
			}
		case ActionMakeMap:
			created[id] = MapType
		case ActionMakeList:
			created[id] = ListType
		case ActionDelete:
			if o.Insert {
				return fmt.Errorf("%w: op %s: insert delete", ErrInvalidChange, id)
			}
		default:
			return fmt.Errorf("%w: op %s: unknown action %d", ErrInvalidChange, id, o.Action)
		}

		if o.Insert && len(o.Pred) > 0 {
			return fmt.Errorf("%w: op %s: insert with predecessors", ErrInvalidChange, id)
		}
		key, elem := slot(id, o.Key, o.Elem, o.Insert)
		for _, p := range o.Pred {
			if prior, ok := d.ops[p]; ok {
				if prior.obj != o.Obj {
					return fmt.Errorf("%w: op %s: predecessor %s on another object", ErrInvalidChange, id, p)
				}
				if pk, pe := slot(prior.id, prior.key, prior.elem, prior.insert); pk != key || pe != elem {
					return fmt.Errorf("%w: op %s: predecessor %s on another slot", ErrInvalidChange, id, p)
				}
				continue
			}
			if prior, ok := local[p]; ok && prior.Obj == o.Obj {
				if pk, pe := slot(p, prior.Key, prior.Elem, prior.Insert); pk != key || pe != elem {
					return fmt.Errorf("%w: op %s: predecessor %s on another slot", ErrInvalidChange, id, p)
				}
				continue
			}
			return fmt.Errorf("%w: op %s: unknown predecessor %s", ErrInvalidChange, id, p)
		}

		local[id] = o
		if o.Insert {
			elems[id] = o.Obj
		}
	}
	return nil
}

// slot returns the map key or list element an op writes to. An insert
// creates its own element; its Elem is the element it follows.
func slot(id OpID, key string, elem OpID, insert bool) (string, OpID) {
	if insert {
		return "", id
	}
	return key, elem
}

func (d *Document) hasElement(obj ObjID, elem OpID) bool {
	o, ok := d.objects[obj]
	if !ok || o.typ != ListType {
		return false
	}
	_, ok = o.list.element(elem)
	return ok
}

// applyOps applies the ops of a validated change.
func (d *Document) applyOps(c *Change) {
	for i := range c.Ops {
		d.applyOp(c.opID(i), &c.Ops[i])
	}
}

func (d *Document) applyOp(id OpID, o *Op) {
	applied := &op{
		id:     id,
		action: o.Action,
		obj:    o.Obj,
		key:    o.Key,
		elem:   o.Elem,
		insert: o.Insert,
		value:  o.Value,
		pred:   o.Pred,
	}
	d.ops[id] = applied
	for _, p := range o.Pred {
		if prior, ok := d.ops[p]; ok {
			prior.succ++
		}
	}
	if id.Counter > d.maxOp {
		d.maxOp = id.Counter
	}

	switch o.Action {
	case ActionMakeMap:
		d.objects[id] = newObject(MapType)
	case ActionMakeList:
		d.objects[id] = newObject(ListType)
	}

	target := d.objects[o.Obj]
	if o.Action == ActionDelete {
		return
	}
	if target.typ == MapType {
		target.props[o.Key] = append(target.props[o.Key], applied)
		return
	}
	if o.Insert {
		target.list.insert(applied)
		return
	}
	if e, ok := target.list.element(o.Elem); ok {
		e.ops = append(e.ops, applied)
	}
}

// record registers an applied change in the causal history.
func (d *Document) record(c *Change, h ChangeHash) {
	d.history = append(d.history, c)
	d.hashes[h] = struct{}{}
	for _, dep := range c.Deps {
		delete(d.heads, dep)
	}
	d.heads[h] = struct{}{}
	if c.Seq > d.seqs[c.Actor] {
		d.seqs[c.Actor] = c.Seq
	}
	if m := c.MaxOp(); m > d.maxOp {
		d.maxOp = m
	}
}

// applyAll applies changes as one unit. If any change is rejected, the
// document returns to its state before the call, pending queue included.
func (d *Document) applyAll(changes []*Change) error {
	n := len(d.history)
	pending := slices.Clone(d.pending)
	if err := d.ApplyChanges(changes...); err != nil {
		d.truncate(n, pending)
		return err
	}
	return nil
}

// truncate drops every change applied after the first n and rebuilds the
// tree and causal indexes from what remains.
func (d *Document) truncate(n int, pending []*Change) {
	d.history = d.history[:n]
	d.pending = pending
	d.hashes = make(map[ChangeHash]struct{}, n)
	d.heads = make(map[ChangeHash]struct{})
	d.seqs = make(map[string]uint64)
	for _, c := range d.history {
		h, _ := c.Hash()
		d.hashes[h] = struct{}{}
		for _, dep := range c.Deps {
			delete(d.heads, dep)
		}
		d.heads[h] = struct{}{}
		if c.Seq > d.seqs[c.Actor] {
			d.seqs[c.Actor] = c.Seq
		}
	}
	d.rebuild()
}

// rebuild recomputes the tree from the recorded history, discarding any
// op applied outside of it.
func (d *Document) rebuild() {
	d.reset()
	for _, c := range d.history {
		d.applyOps(c)
		if m := c.MaxOp(); m > d.maxOp {
			d.maxOp = m
		}
	}
}
