package amf

import "github.com/mediapush/rtmppublisher/pkg/rtmpbase"

// AMF3 type markers (Action Message Format 3 spec, ch. 3).
const (
	amf3Undefined byte = 0x00
	amf3Null      byte = 0x01
	amf3False     byte = 0x02
	amf3True      byte = 0x03
	amf3Integer   byte = 0x04
	amf3Double    byte = 0x05
	amf3String    byte = 0x06
	amf3Array     byte = 0x09
	amf3Object    byte = 0x0a
	amf3ByteArray byte = 0x0c
)

// WriteU29 appends the 1-to-4 byte AMF3 variable-length unsigned integer
// encoding of v (low 29 bits only) to out. Bytes 1-3 use the high bit as a
// continuation flag and carry 7 payload bits each; byte 4, if present,
// carries all 8 bits — spec.md §4.1 and testable property #2/S4.
func WriteU29(out []byte, v uint32) []byte {
	v &= 0x1fffffff
	switch {
	case v <= 0x7f:
		return append(out, byte(v))
	case v <= 0x3fff:
		return append(out,
			byte(v>>7)|0x80,
			byte(v&0x7f))
	case v <= 0x1fffff:
		return append(out,
			byte(v>>14)|0x80,
			byte((v>>7)&0x7f)|0x80,
			byte(v&0x7f))
	default:
		return append(out,
			byte(v>>22)|0x80,
			byte((v>>15)&0x7f)|0x80,
			byte((v>>8)&0x7f)|0x80,
			byte(v))
	}
}

// ReadU29 decodes the AMF3 variable-length integer at the front of b,
// returning the value and the number of bytes consumed.
func ReadU29(b []byte) (uint32, int, error) {
	var v uint32
	for i := 0; i < 3; i++ {
		if i >= len(b) {
			return 0, 0, rtmpbase.NewErrShortBuffer(i+1, len(b), "amf3.u29")
		}
		c := b[i]
		if c&0x80 == 0 {
			v = v<<7 | uint32(c)
			return v, i + 1, nil
		}
		v = v<<7 | uint32(c&0x7f)
	}
	// fourth byte carries all 8 bits.
	if len(b) < 4 {
		return 0, 0, rtmpbase.NewErrShortBuffer(4, len(b), "amf3.u29")
	}
	v = v<<8 | uint32(b[3])
	return v, 4, nil
}

// refTable tracks per-message AMF3 string references, per spec.md's
// "trait/string reference tables are per-message-decode scoped" invariant.
// It is never reset in place: each Amf3Encoder/Amf3Decoder owns one, so the
// table's scope is that of the encoder or decoder used for one message.
type refTable struct {
	strings []string
}

func (t *refTable) indexOf(s string) (int, bool) {
	for i, v := range t.strings {
		if v == s {
			return i, true
		}
	}
	return 0, false
}

// Amf3Encoder encodes a sequence of values sharing one message-scoped
// string reference table. Create a fresh one per outbound message.
type Amf3Encoder struct {
	refs refTable
}

func NewAmf3Encoder() *Amf3Encoder { return &Amf3Encoder{} }

func (e *Amf3Encoder) Encode(out []byte, v Value) []byte {
	switch v.Kind {
	case KindUndefined:
		return append(out, amf3Undefined)
	case KindNull:
		return append(out, amf3Null)
	case KindBoolean:
		if v.b {
			return append(out, amf3True)
		}
		return append(out, amf3False)
	case KindInteger:
		out = append(out, amf3Integer)
		return WriteU29(out, uint32(v.i32)&0x1fffffff)
	case KindNumber:
		out = append(out, amf3Double)
		return writeF64(out, v.num)
	case KindString, KindLongString:
		out = append(out, amf3String)
		return e.encodeUtf8(out, v.str)
	case KindByteArray:
		out = append(out, amf3ByteArray)
		out = WriteU29(out, uint32(len(v.byts))<<1|1)
		return append(out, v.byts...)
	case KindStrictArray:
		out = append(out, amf3Array)
		out = WriteU29(out, uint32(len(v.arr))<<1|1)
		out = append(out, 0x01) // empty associative-portion sentinel
		for _, elem := range v.arr {
			out = e.Encode(out, elem)
		}
		return out
	case KindObject, KindEcmaArray:
		return e.encodeObject(out, v.obj)
	default:
		return append(out, amf3Null)
	}
}

// encodeUtf8 writes the U29 ref-or-literal header followed by the raw
// UTF-8 bytes. Empty strings are never added to the table (the documented
// zero-length-literal sentinel, spec.md §4.2).
func (e *Amf3Encoder) encodeUtf8(out []byte, s string) []byte {
	if s == "" {
		return WriteU29(out, 1)
	}
	if idx, ok := e.refs.indexOf(s); ok {
		return WriteU29(out, uint32(idx)<<1)
	}
	e.refs.strings = append(e.refs.strings, s)
	out = WriteU29(out, uint32(len(s))<<1|1)
	return append(out, s...)
}

// encodeObject always writes a literal trait+value body (never a prior
// object reference). This keeps every message self-contained without a
// full object/trait reference table, acceptable per spec.md §4.2 as long
// as the message round-trips through itself.
func (e *Amf3Encoder) encodeObject(out []byte, obj *Object) []byte {
	out = append(out, amf3Object)
	// (member-count << 4) | 0x03: new trait, dynamic=0, externalizable=0.
	traitHeader := uint32(len(obj.Pairs))<<4 | 0x03
	out = WriteU29(out, traitHeader)
	out = e.encodeUtf8(out, "") // anonymous class name
	for _, p := range obj.Pairs {
		out = e.encodeUtf8(out, p.Name)
	}
	for _, p := range obj.Pairs {
		out = e.Encode(out, p.Value)
	}
	return out
}

// Amf3Decoder mirrors Amf3Encoder for the receive path.
type Amf3Decoder struct {
	refs refTable
}

func NewAmf3Decoder() *Amf3Decoder { return &Amf3Decoder{} }

// Decode reads one value from b, returning it, the bytes consumed, and an
// error. Like DecodeAmf0, truncated input decodes to Null with the whole
// remaining buffer consumed rather than failing hard.
func (d *Amf3Decoder) Decode(b []byte) (Value, int, error) {
	marker, err := readU8(b)
	if err != nil {
		return Null(), len(b), nil
	}
	rest := b[1:]

	switch marker {
	case amf3Undefined:
		return Undefined(), 1, nil
	case amf3Null:
		return Null(), 1, nil
	case amf3False:
		return Boolean(false), 1, nil
	case amf3True:
		return Boolean(true), 1, nil
	case amf3Integer:
		u, n, err := ReadU29(rest)
		if err != nil {
			return Null(), len(b), nil
		}
		return Integer(int32(signExtend29(u))), 1 + n, nil
	case amf3Double:
		f, err := readF64(rest)
		if err != nil {
			return Null(), len(b), nil
		}
		return Number(f), 1 + 8, nil
	case amf3String:
		s, n, err := d.decodeUtf8(rest)
		if err != nil {
			return Null(), len(b), nil
		}
		return String(s), 1 + n, nil
	case amf3ByteArray:
		hdr, n, err := ReadU29(rest)
		if err != nil {
			return Null(), len(b), nil
		}
		if hdr&1 == 0 {
			// back-reference; this client never emits them, so treat
			// unresolved back-references as an empty blob rather than
			// tracking a parallel byte-array table.
			return ByteArray(nil), 1 + n, nil
		}
		length := int(hdr >> 1)
		cursor := rest[n:]
		if len(cursor) < length {
			return Null(), len(b), nil
		}
		return ByteArray(append([]byte(nil), cursor[:length]...)), 1 + n + length, nil
	case amf3Array:
		return d.decodeArray(rest, b)
	case amf3Object:
		return d.decodeObject(rest, b)
	default:
		return Null(), len(b), nil
	}
}

// signExtend29 maps an unsigned 29-bit AMF3 integer onto Go's signed int32
// range (AMF3 integers are two's-complement within 29 bits).
func signExtend29(u uint32) int32 {
	const signBit = 1 << 28
	if u&signBit != 0 {
		return int32(u) - (1 << 29)
	}
	return int32(u)
}

func (d *Amf3Decoder) decodeUtf8(b []byte) (string, int, error) {
	hdr, n, err := ReadU29(b)
	if err != nil {
		return "", 0, err
	}
	if hdr&1 == 0 {
		idx := int(hdr >> 1)
		if idx < 0 || idx >= len(d.refs.strings) {
			return "", n, nil
		}
		return d.refs.strings[idx], n, nil
	}
	length := int(hdr >> 1)
	if len(b) < n+length {
		return "", 0, rtmpbase.NewErrShortBuffer(n+length, len(b), "amf3.utf8")
	}
	s := string(b[n : n+length])
	if s != "" {
		d.refs.strings = append(d.refs.strings, s)
	}
	return s, n + length, nil
}

func (d *Amf3Decoder) decodeArray(rest, whole []byte) (Value, int, error) {
	hdr, n, err := ReadU29(rest)
	if err != nil {
		return Null(), len(whole), nil
	}
	if hdr&1 == 0 {
		return StrictArray(nil), 1 + n, nil
	}
	count := int(hdr >> 1)
	cursor := rest[n:]
	consumed := n
	// dense arrays from this codec always carry the empty associative
	// sentinel (0x01); skip a single byte if present.
	if len(cursor) > 0 && cursor[0] == 0x01 {
		cursor = cursor[1:]
		consumed++
	}
	// every element takes at least its one-byte marker.
	if count > len(cursor) {
		return Null(), len(whole), nil
	}
	arr := make([]Value, 0, count)
	for i := 0; i < count; i++ {
		elem, m, err := d.Decode(cursor)
		if err != nil {
			return Null(), len(whole), nil
		}
		// Null without a Null marker means the element was cut short.
		if elem.Kind == KindNull && (len(cursor) == 0 || cursor[0] != amf3Null) {
			return Null(), len(whole), nil
		}
		arr = append(arr, elem)
		cursor = cursor[m:]
		consumed += m
	}
	return StrictArray(arr), 1 + consumed, nil
}

func (d *Amf3Decoder) decodeObject(rest, whole []byte) (Value, int, error) {
	traitHeader, n, err := ReadU29(rest)
	if err != nil {
		return Null(), len(whole), nil
	}
	if traitHeader&1 == 0 {
		// object back-reference; this client never emits one.
		return NewObject(), 1 + n, nil
	}
	memberCount := int(traitHeader >> 4)
	cursor := rest[n:]
	consumed := n

	_, m, err := d.decodeUtf8(cursor) // anonymous class name, discarded
	if err != nil {
		return Null(), len(whole), nil
	}
	cursor = cursor[m:]
	consumed += m

	names := make([]string, 0, memberCount)
	for i := 0; i < memberCount; i++ {
		name, m, err := d.decodeUtf8(cursor)
		if err != nil {
			return Null(), len(whole), nil
		}
		names = append(names, name)
		cursor = cursor[m:]
		consumed += m
	}

	obj := &Object{}
	for _, name := range names {
		val, m, err := d.Decode(cursor)
		if err != nil {
			return Null(), len(whole), nil
		}
		// Null without a Null marker means the value was cut short.
		if val.Kind == KindNull && (len(cursor) == 0 || cursor[0] != amf3Null) {
			return Null(), len(whole), nil
		}
		obj.Pairs = append(obj.Pairs, Pair{Name: name, Value: val})
		cursor = cursor[m:]
		consumed += m
	}

	return Value{Kind: KindObject, obj: obj}, 1 + consumed, nil
}
