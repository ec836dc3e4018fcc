package wire

import (
	"bytes"
	"fmt"

	"github.com/chisheng/busybus/pkg/object"
)

// Message is a parsed frame: its header plus the raw payload bytes
// (meta string, object bytes, both, or neither, per Header.Flags).
type Message struct {
	Header  Header
	Payload []byte
}

// Build assembles a Message from an optional meta string and optional
// object, setting HAS_META/HAS_OBJECT and PSize accordingly. Passing a
// nil obj with meta != "" is valid (meta only); passing meta == "" with
// obj != nil is valid (object only, e.g. CLIREPLY).
func Build(h Header, meta string, obj *object.Object) (Message, error) {
	var buf bytes.Buffer
	if meta != "" {
		buf.WriteString(meta)
		buf.WriteByte(0)
		h.Flags |= HasMeta
	}
	if obj != nil {
		buf.Write(obj.RawData())
		h.Flags |= HasObject
	}
	if buf.Len() > MaxPayload {
		return Message{}, fmt.Errorf("%w: %d bytes", ErrPayloadTooLarge, buf.Len())
	}
	h.SetPSize(buf.Len())
	return Message{Header: h, Payload: buf.Bytes()}, nil
}

// ExtractMeta returns the NUL-terminated meta string at the head of the
// payload. It fails with ErrNoMeta if HAS_META is clear, or if no NUL
// byte appears within the declared payload size.
func (m Message) ExtractMeta() (string, error) {
	if m.Header.Flags&HasMeta == 0 {
		return "", ErrNoMeta
	}
	n := int(m.Header.PSize)
	if n > len(m.Payload) {
		n = len(m.Payload)
	}
	nul := -1
	for i := 0; i < n; i++ {
		if m.Payload[i] == 0 {
			nul = i
			break
		}
	}
	if nul < 0 {
		return "", ErrNoMeta
	}
	return string(m.Payload[:nul]), nil
}

// ExtractObject builds an Object from the tail of the payload that
// follows the meta string (or the whole payload if there is no meta).
// It fails with ErrNoObject if HAS_OBJECT is clear.
func (m Message) ExtractObject() (*object.Object, error) {
	if m.Header.Flags&HasObject == 0 {
		return nil, ErrNoObject
	}
	start := 0
	if m.Header.Flags&HasMeta != 0 {
		meta, err := m.ExtractMeta()
		if err != nil {
			return nil, err
		}
		start = len(meta) + 1
	}
	if start > len(m.Payload) {
		return nil, ErrTruncated
	}
	return object.FromBuf(m.Payload[start:]), nil
}
