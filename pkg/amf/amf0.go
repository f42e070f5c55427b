package amf

import "github.com/mediapush/rtmppublisher/pkg/rtmpbase"

// AMF0 type markers, ECMA-decided numbering carried over from the Action
// Message Format spec; grounded on lal's pkg/rtmp/amf0.go constant block.
const (
	amf0Number     byte = 0x00
	amf0Boolean    byte = 0x01
	amf0String     byte = 0x02
	amf0Object     byte = 0x03
	amf0Null       byte = 0x05
	amf0Undefined  byte = 0x06
	amf0EcmaArray  byte = 0x08
	amf0ObjectEnd  byte = 0x09
	amf0StrictArray byte = 0x0a
	amf0LongString byte = 0x0c
)

// objectEndSentinel is the 3-byte terminator lal calls the "00 00 09"
// marker: an empty-name (u16 length 0) property followed by the
// object-end type byte.
var objectEndSentinel = [3]byte{0x00, 0x00, amf0ObjectEnd}

// EncodeAmf0 appends the wire encoding of v to out and returns the result.
func EncodeAmf0(out []byte, v Value) []byte {
	switch v.Kind {
	case KindNumber:
		out = writeU8(out, amf0Number)
		out = writeF64(out, v.num)
	case KindBoolean:
		out = writeU8(out, amf0Boolean)
		if v.b {
			out = writeU8(out, 1)
		} else {
			out = writeU8(out, 0)
		}
	case KindString:
		out = writeU8(out, amf0String)
		out = encodeAmf0Utf8Short(out, v.str)
	case KindLongString:
		out = writeU8(out, amf0LongString)
		out = writeU32(out, uint32(len(v.str)))
		out = append(out, v.str...)
	case KindNull:
		out = writeU8(out, amf0Null)
	case KindUndefined:
		out = writeU8(out, amf0Undefined)
	case KindObject:
		out = writeU8(out, amf0Object)
		out = encodeAmf0Properties(out, v.obj)
	case KindEcmaArray:
		out = writeU8(out, amf0EcmaArray)
		out = writeU32(out, uint32(len(v.obj.Pairs)))
		out = encodeAmf0Properties(out, v.obj)
	case KindStrictArray:
		out = writeU8(out, amf0StrictArray)
		out = writeU32(out, uint32(len(v.arr)))
		for _, elem := range v.arr {
			out = EncodeAmf0(out, elem)
		}
	default:
		// AMF3-only kinds (Integer, ByteArray) have no AMF0 wire shape;
		// callers that mix kinds across codecs get Null rather than a
		// silently wrong byte stream.
		out = writeU8(out, amf0Null)
	}
	return out
}

func encodeAmf0Utf8Short(out []byte, s string) []byte {
	out = writeU16(out, uint16(len(s)))
	return append(out, s...)
}

func encodeAmf0Properties(out []byte, obj *Object) []byte {
	for _, p := range obj.Pairs {
		out = encodeAmf0Utf8Short(out, p.Name)
		out = EncodeAmf0(out, p.Value)
	}
	return append(out, objectEndSentinel[:]...)
}

// DecodeAmf0 reads one value from b, returning the value, the number of
// bytes consumed, and an error. Per spec.md §4.2 a truncated value decodes
// to Null with the full buffer consumed, rather than failing hard.
func DecodeAmf0(b []byte) (Value, int, error) {
	marker, err := readU8(b)
	if err != nil {
		return Null(), len(b), nil
	}
	rest := b[1:]

	switch marker {
	case amf0Number:
		n, err := readF64(rest)
		if err != nil {
			return Null(), len(b), nil
		}
		return Number(n), 9, nil

	case amf0Boolean:
		flag, err := readU8(rest)
		if err != nil {
			return Null(), len(b), nil
		}
		return Boolean(flag != 0), 2, nil

	case amf0String:
		s, n, err := decodeAmf0Utf8Short(rest)
		if err != nil {
			return Null(), len(b), nil
		}
		return String(s), 1 + n, nil

	case amf0LongString:
		l, err := readU32(rest)
		if err != nil {
			return Null(), len(b), nil
		}
		if len(rest) < 4+int(l) {
			return Null(), len(b), nil
		}
		return LongString(string(rest[4 : 4+int(l)])), 1 + 4 + int(l), nil

	case amf0Null:
		return Null(), 1, nil

	case amf0Undefined:
		return Undefined(), 1, nil

	case amf0Object:
		obj, n, err := decodeAmf0Properties(rest)
		if err != nil {
			return Null(), len(b), nil
		}
		v := Value{Kind: KindObject, obj: obj}
		return v, 1 + n, nil

	case amf0EcmaArray:
		if len(rest) < 4 {
			return Null(), len(b), nil
		}
		obj, n, err := decodeAmf0Properties(rest[4:])
		if err != nil {
			return Null(), len(b), nil
		}
		v := Value{Kind: KindEcmaArray, obj: obj}
		return v, 1 + 4 + n, nil

	case amf0StrictArray:
		if len(rest) < 4 {
			return Null(), len(b), nil
		}
		count, _ := readU32(rest)
		cursor := rest[4:]
		// every element takes at least its one-byte marker.
		if uint64(count) > uint64(len(cursor)) {
			return Null(), len(b), nil
		}
		consumed := 4
		arr := make([]Value, 0, count)
		for i := uint32(0); i < count; i++ {
			elem, n, err := DecodeAmf0(cursor)
			if err != nil {
				return Null(), len(b), nil
			}
			// Null without a Null marker means the element was cut short.
			if elem.Kind == KindNull && (len(cursor) == 0 || cursor[0] != amf0Null) {
				return Null(), len(b), nil
			}
			arr = append(arr, elem)
			cursor = cursor[n:]
			consumed += n
		}
		return StrictArray(arr), 1 + consumed, nil

	default:
		return Null(), len(b), nil
	}
}

func decodeAmf0Utf8Short(b []byte) (string, int, error) {
	l, err := readU16(b)
	if err != nil {
		return "", 0, err
	}
	if len(b) < 2+int(l) {
		return "", 0, rtmpbase.NewErrShortBuffer(2+int(l), len(b), "amf0.utf8short")
	}
	return string(b[2 : 2+int(l)]), 2 + int(l), nil
}

// decodeAmf0Properties reads name/value pairs until the 00 00 09 sentinel,
// preserving encounter order into Pairs (spec.md testable property #1/#5).
func decodeAmf0Properties(b []byte) (*Object, int, error) {
	obj := &Object{}
	cursor := b
	consumed := 0
	for {
		if len(cursor) >= 3 && cursor[0] == 0 && cursor[1] == 0 && cursor[2] == amf0ObjectEnd {
			consumed += 3
			return obj, consumed, nil
		}
		name, n, err := decodeAmf0Utf8Short(cursor)
		if err != nil {
			return nil, 0, err
		}
		cursor = cursor[n:]
		consumed += n

		val, n2, err := DecodeAmf0(cursor)
		if err != nil {
			return nil, 0, err
		}
		cursor = cursor[n2:]
		consumed += n2

		obj.Pairs = append(obj.Pairs, Pair{Name: name, Value: val})
	}
}
