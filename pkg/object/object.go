package object

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// byteOrder is the codec's native byte order. The object buffer is
// opaque to the wire protocol (only the surrounding message header is
// network-order per spec), so any fixed order round-trips correctly as
// long as build and parse agree; little-endian is chosen for parity with
// the host architectures busybus targets.
var byteOrder = binary.LittleEndian

// Array is the Build/Parse representation of an 'A' item: an ordered,
// homogeneous sequence of values shaped like the array's element item.
type Array []any

// Struct is the Build/Parse representation of a '(' item: an ordered,
// heterogeneous sequence of values, one per field item.
type Struct []any

// Object is an append-only typed byte buffer with a read cursor.
// The zero value is an empty object, the same one New returns.
type Object struct {
	buf []byte
	pos int
}

// New returns an empty object. Build allocates its own object and does
// not take one.
func New() *Object {
	return &Object{}
}

// FromBuf wraps a raw byte buffer for parsing. The bytes are copied so
// the caller may reuse its buffer afterward.
func FromBuf(b []byte) *Object {
	cp := make([]byte, len(b))
	copy(cp, b)
	return &Object{buf: cp}
}

// RawData returns the object's underlying bytes.
func (o *Object) RawData() []byte { return o.buf }

// RawSize returns the number of bytes in the object.
func (o *Object) RawSize() int { return len(o.buf) }

// Rewind resets the read cursor to the start of the buffer, allowing
// re-extraction.
func (o *Object) Rewind() { o.pos = 0 }

// Build appends values to the object per descr, consuming one argument
// per top-level item. It fails with ErrInvalidDescr if descr does not
// parse, or ErrFormat if an argument's shape does not match its item.
func Build(descr string, args ...any) (*Object, error) {
	items, err := ParseDescr(descr)
	if err != nil {
		return nil, err
	}
	o := New()
	if len(args) != len(items) {
		return nil, fmt.Errorf("%w: expected %d argument(s), got %d", ErrFormat, len(items), len(args))
	}
	for i, it := range items {
		if err := o.buildItem(it, args[i]); err != nil {
			return nil, err
		}
	}
	return o, nil
}

func (o *Object) buildItem(it Item, v any) error {
	switch it.Kind {
	case 'i':
		n, ok := v.(int32)
		if !ok {
			return fmt.Errorf("%w: want int32, got %T", ErrFormat, v)
		}
		var b [4]byte
		byteOrder.PutUint32(b[:], uint32(n))
		o.buf = append(o.buf, b[:]...)
	case 'u':
		n, ok := v.(uint32)
		if !ok {
			return fmt.Errorf("%w: want uint32, got %T", ErrFormat, v)
		}
		var b [4]byte
		byteOrder.PutUint32(b[:], n)
		o.buf = append(o.buf, b[:]...)
	case 'b':
		n, ok := v.(byte)
		if !ok {
			return fmt.Errorf("%w: want byte, got %T", ErrFormat, v)
		}
		o.buf = append(o.buf, n)
	case 's':
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("%w: want string, got %T", ErrFormat, v)
		}
		o.buf = append(o.buf, []byte(s)...)
		o.buf = append(o.buf, 0)
	case 'A':
		arr, ok := v.(Array)
		if !ok {
			return fmt.Errorf("%w: want Array, got %T", ErrFormat, v)
		}
		var b [4]byte
		byteOrder.PutUint32(b[:], uint32(len(arr)))
		o.buf = append(o.buf, b[:]...)
		for _, elem := range arr {
			if err := o.buildItem(*it.Elem, elem); err != nil {
				return err
			}
		}
	case '(':
		st, ok := v.(Struct)
		if !ok {
			return fmt.Errorf("%w: want Struct, got %T", ErrFormat, v)
		}
		if len(st) != len(it.Fields) {
			return fmt.Errorf("%w: struct expects %d field(s), got %d", ErrFormat, len(it.Fields), len(st))
		}
		for i, f := range it.Fields {
			if err := o.buildItem(f, st[i]); err != nil {
				return err
			}
		}
	default:
		return ErrInvalidDescr
	}
	return nil
}

// Parse extracts values per descr starting at the current cursor,
// advancing it past the consumed bytes. It returns one value per
// top-level item, in the shapes documented on Array/Struct.
func (o *Object) Parse(descr string) ([]any, error) {
	items, err := ParseDescr(descr)
	if err != nil {
		return nil, err
	}
	out := make([]any, len(items))
	for i, it := range items {
		v, err := o.parseItem(it)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (o *Object) parseItem(it Item) (any, error) {
	switch it.Kind {
	case 'i':
		n, err := o.take(4)
		if err != nil {
			return nil, err
		}
		return int32(byteOrder.Uint32(n)), nil
	case 'u':
		n, err := o.take(4)
		if err != nil {
			return nil, err
		}
		return byteOrder.Uint32(n), nil
	case 'b':
		n, err := o.take(1)
		if err != nil {
			return nil, err
		}
		return n[0], nil
	case 's':
		rest := o.buf[o.pos:]
		nul := indexByte(rest, 0)
		if nul < 0 {
			return nil, fmt.Errorf("%w: unterminated string", ErrFormat)
		}
		s := string(rest[:nul])
		o.pos += nul + 1
		return s, nil
	case 'A':
		n, err := o.take(4)
		if err != nil {
			return nil, err
		}
		count := byteOrder.Uint32(n)
		arr := make(Array, 0, count)
		for i := uint32(0); i < count; i++ {
			v, err := o.parseItem(*it.Elem)
			if err != nil {
				return nil, err
			}
			arr = append(arr, v)
		}
		return arr, nil
	case '(':
		st := make(Struct, 0, len(it.Fields))
		for _, f := range it.Fields {
			v, err := o.parseItem(f)
			if err != nil {
				return nil, err
			}
			st = append(st, v)
		}
		return st, nil
	default:
		return nil, ErrInvalidDescr
	}
}

func (o *Object) take(n int) ([]byte, error) {
	if o.pos+n > len(o.buf) {
		return nil, fmt.Errorf("%w: need %d byte(s), have %d", ErrFormat, n, len(o.buf)-o.pos)
	}
	b := o.buf[o.pos : o.pos+n]
	o.pos += n
	return b, nil
}

func indexByte(b []byte, c byte) int {
	for i, x := range b {
		if x == c {
			return i
		}
	}
	return -1
}

// Repr renders a human-readable form of the values described by descr,
// e.g. `(1, "hello", [0x01, 0x02])`. The cursor is left unchanged: Repr
// parses its own private cursor over a copy of the current position.
func (o *Object) Repr(descr string) (string, error) {
	items, err := ParseDescr(descr)
	if err != nil {
		return "", err
	}
	scratch := &Object{buf: o.buf, pos: o.pos}
	parts := make([]string, len(items))
	for i, it := range items {
		v, err := scratch.parseItem(it)
		if err != nil {
			return "", err
		}
		parts[i] = reprValue(it, v)
	}
	if len(parts) == 1 {
		return parts[0], nil
	}
	return "(" + strings.Join(parts, ", ") + ")", nil
}

func reprValue(it Item, v any) string {
	switch it.Kind {
	case 'i':
		return fmt.Sprintf("%d", v.(int32))
	case 'u':
		return fmt.Sprintf("%d", v.(uint32))
	case 'b':
		return fmt.Sprintf("0x%02x", v.(byte))
	case 's':
		return fmt.Sprintf("%q", v.(string))
	case 'A':
		arr := v.(Array)
		parts := make([]string, len(arr))
		for i, e := range arr {
			parts[i] = reprValue(*it.Elem, e)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case '(':
		st := v.(Struct)
		parts := make([]string, len(st))
		for i, f := range it.Fields {
			parts[i] = reprValue(f, st[i])
		}
		return "(" + strings.Join(parts, ", ") + ")"
	default:
		return "?"
	}
}
