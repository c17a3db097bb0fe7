package crdt

import "errors"

// Engine errors.
var (
	ErrUnknownObject   = errors.New("unknown object")
	ErrPropMismatch    = errors.New("property does not match object type")
	ErrNotObject       = errors.New("value is not an object")
	ErrPathNotFound    = errors.New("path not found")
	ErrIndexOutOfRange = errors.New("index out of range")
	ErrInvalidChange   = errors.New("invalid change")
	ErrCorruptChunk    = errors.New("corrupt chunk")
	ErrEmptyChange     = errors.New("transaction made no changes")
)
