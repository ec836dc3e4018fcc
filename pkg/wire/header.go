package wire

import "encoding/binary"

// Magic identifies a busybus frame. Any other value on receive means
// the connection is not speaking this protocol and must be closed.
const Magic uint16 = 0xBBC5

// HeaderSize is the fixed, packed size of a frame header on the wire:
// 4 single-byte fields + two u16 + one u32 = 12 bytes, regardless of any
// native struct padding in the implementation language.
const HeaderSize = 12

// MaxPayload is the largest payload (meta + object bytes) a frame may
// carry: Build refuses a larger payload with ErrPayloadTooLarge, and
// DecodeHeader rejects a header whose psize exceeds it.
const MaxPayload = 4096

// MsgType identifies the kind of message a frame carries.
type MsgType byte

const (
	MsgSO       MsgType = 1
	MsgSOOK     MsgType = 2
	MsgSORJCT   MsgType = 3
	MsgSRVREG   MsgType = 4
	MsgSRVUNREG MsgType = 5
	MsgSRVACK   MsgType = 6
	MsgCLICALL  MsgType = 7
	MsgCLIREPLY MsgType = 8
	MsgCLISIG   MsgType = 9
	MsgSRVCALL  MsgType = 10
	MsgSRVREPLY MsgType = 11
	MsgSRVSIG   MsgType = 12
	MsgCLOSE    MsgType = 13
	MsgCTRL     MsgType = 14
	MsgMON      MsgType = 15
)

// SOType names the kind of client a session-open message establishes.
type SOType byte

const (
	SONone     SOType = 0
	SOCaller   SOType = 1
	SOProvider SOType = 2
	SOMonitor  SOType = 3
	SOControl  SOType = 4
)

// ErrCode is the reply status carried in CLIREPLY/SRVACK frames.
type ErrCode byte

const (
	EGood      ErrCode = 0
	ENoMethod  ErrCode = 1
	EMethodErr ErrCode = 2
	EMregErr   ErrCode = 3
)

// Flag bits set in Header.Flags.
const (
	HasMeta   byte = 0x01
	HasObject byte = 0x02
)

// Header is the fixed 12-byte frame header: magic/psize/token in
// network byte order, the remaining single-byte fields as-is.
type Header struct {
	Magic   uint16
	Type    MsgType
	SOType  SOType
	ErrCode ErrCode
	Token   uint32
	PSize   uint16
	Flags   byte
}

// NewHeader builds a header with Magic pre-filled.
func NewHeader(t MsgType) Header {
	return Header{Magic: Magic, Type: t}
}

// SetPSize sets the header's payload size, clamping to uint16's range.
func (h *Header) SetPSize(s int) {
	if s > 0xFFFF {
		s = 0xFFFF
	}
	if s < 0 {
		s = 0
	}
	h.PSize = uint16(s)
}

// Encode serializes the header into exactly HeaderSize bytes.
func (h Header) Encode() [HeaderSize]byte {
	var b [HeaderSize]byte
	binary.BigEndian.PutUint16(b[0:2], h.Magic)
	b[2] = byte(h.Type)
	b[3] = byte(h.SOType)
	b[4] = byte(h.ErrCode)
	binary.BigEndian.PutUint32(b[5:9], h.Token)
	binary.BigEndian.PutUint16(b[9:11], h.PSize)
	b[11] = h.Flags
	return b
}

// DecodeHeader parses a HeaderSize-byte buffer into a Header. It returns
// ErrBadMagic if the magic field does not match Magic; callers must
// close the connection in that case. It returns ErrPayloadTooLarge if
// psize exceeds MaxPayload.
func DecodeHeader(b []byte) (Header, error) {
	if len(b) < HeaderSize {
		return Header{}, ErrTruncated
	}
	h := Header{
		Magic:   binary.BigEndian.Uint16(b[0:2]),
		Type:    MsgType(b[2]),
		SOType:  SOType(b[3]),
		ErrCode: ErrCode(b[4]),
		Token:   binary.BigEndian.Uint32(b[5:9]),
		PSize:   binary.BigEndian.Uint16(b[9:11]),
		Flags:   b[11],
	}
	if h.Magic != Magic {
		return h, ErrBadMagic
	}
	if h.PSize > MaxPayload {
		return h, ErrPayloadTooLarge
	}
	return h, nil
}
