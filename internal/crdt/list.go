package crdt

// element is a list element in the RGA tree. Children are the elements
// inserted directly after it, ordered by descending id, so that the
// pre-order walk of the tree is the same whatever order the inserts
// arrived in.
type element struct {
	children []*element
	ops      []*op
	id       OpID
}

func (e *element) visible() bool {
	for _, o := range e.ops {
		if o.visible() {
			return true
		}
	}
	return false
}

type rga struct {
	elems map[OpID]*element
	head  element
}

func newRGA() *rga {
	return &rga{elems: make(map[OpID]*element)}
}

func (l *rga) element(id OpID) (*element, bool) {
	if id.IsZero() {
		return &l.head, true
	}
	e, ok := l.elems[id]
	return e, ok
}

// insert links the element created by o after o.elem.
func (l *rga) insert(o *op) {
	parent, ok := l.element(o.elem)
	if !ok {
		return
	}
	e := &element{id: o.id, ops: []*op{o}}
	l.elems[o.id] = e

	pos := len(parent.children)
	for i, c := range parent.children {
		if o.id.Compare(c.id) > 0 {
			pos = i
			break
		}
	}
	parent.children = append(parent.children, nil)
	copy(parent.children[pos+1:], parent.children[pos:])
	parent.children[pos] = e
}

// visibleElements returns the visible elements in document order.
func (l *rga) visibleElements() []*element {
	var out []*element
	stack := make([]*element, 0, len(l.elems))
	for i := len(l.head.children) - 1; i >= 0; i-- {
		stack = append(stack, l.head.children[i])
	}
	for len(stack) > 0 {
		e := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if e.visible() {
			out = append(out, e)
		}
		for i := len(e.children) - 1; i >= 0; i-- {
			stack = append(stack, e.children[i])
		}
	}
	return out
}
