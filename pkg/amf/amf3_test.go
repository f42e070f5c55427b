package amf

import (
	"bytes"
	"testing"
)

// TestU29BitPatterns is S4 from spec.md, verbatim.
func TestU29BitPatterns(t *testing.T) {
	cases := []struct {
		v    uint32
		want []byte
	}{
		{0, []byte{0x00}},
		{127, []byte{0x7f}},
		{128, []byte{0x81, 0x00}},
		{16383, []byte{0xff, 0x7f}},
		{16384, []byte{0x81, 0x80, 0x00}},
		{0x1fffffff, []byte{0xff, 0xff, 0xff, 0xff}},
	}
	for _, c := range cases {
		got := WriteU29(nil, c.v)
		if !bytes.Equal(got, c.want) {
			t.Fatalf("WriteU29(%d) = % x, want % x", c.v, got, c.want)
		}
		back, n, err := ReadU29(got)
		if err != nil {
			t.Fatalf("ReadU29(%d): %v", c.v, err)
		}
		if n != len(c.want) || back != c.v {
			t.Fatalf("ReadU29(%d) = (%d, %d), want (%d, %d)", c.v, back, n, c.v, len(c.want))
		}
	}
}

// TestU29RoundTripBandedLength is testable property #2: the encoded length
// follows the banded lookup for every representable value, sampled rather
// than exhaustive over 2^29 values.
func TestU29RoundTripBandedLength(t *testing.T) {
	samples := []uint32{0, 1, 126, 127, 128, 16382, 16383, 16384,
		2097150, 2097151, 2097152, 0x1ffffffe, 0x1fffffff}
	for _, v := range samples {
		buf := WriteU29(nil, v)
		var wantLen int
		switch {
		case v <= 127:
			wantLen = 1
		case v <= 16383:
			wantLen = 2
		case v <= 2097151:
			wantLen = 3
		default:
			wantLen = 4
		}
		if len(buf) != wantLen {
			t.Fatalf("WriteU29(%d) length = %d, want %d", v, len(buf), wantLen)
		}
		got, n, err := ReadU29(buf)
		if err != nil {
			t.Fatalf("ReadU29(%d): %v", v, err)
		}
		if got != v || n != wantLen {
			t.Fatalf("ReadU29(%d) = (%d, %d), want (%d, %d)", v, got, n, v, wantLen)
		}
	}
}

func TestAmf3ScalarRoundTrip(t *testing.T) {
	cases := []Value{
		Null(),
		Undefined(),
		Boolean(true),
		Boolean(false),
		Integer(0),
		Integer(-5),
		Integer(1234567),
		Number(3.14159),
		String("hello"),
		String(""), // never added to the string table
		ByteArray([]byte{0x01, 0x02, 0x03}),
	}
	for _, v := range cases {
		enc := NewAmf3Encoder()
		buf := enc.Encode(nil, v)
		dec := NewAmf3Decoder()
		got, n, err := dec.Decode(buf)
		if err != nil {
			t.Fatalf("decode %v: %v", v.Kind, err)
		}
		if n != len(buf) {
			t.Fatalf("consumed %d want %d for kind %v", n, len(buf), v.Kind)
		}
		if got.Kind != v.Kind {
			t.Fatalf("kind mismatch: got %v want %v", got.Kind, v.Kind)
		}
	}
}

func TestAmf3StringTableDeduplicates(t *testing.T) {
	enc := NewAmf3Encoder()
	var out []byte
	out = enc.Encode(out, String("repeat"))
	firstLen := len(out)
	out = enc.Encode(out, String("repeat"))
	secondPortion := out[firstLen:]
	// a reference is marker(1) + 1-byte ref header for small tables.
	if len(secondPortion) != 2 {
		t.Fatalf("expected a 2-byte reference encoding, got %d bytes (% x)", len(secondPortion), secondPortion)
	}
}

func TestAmf3ObjectRoundTripPreservesOrder(t *testing.T) {
	obj := NewObject()
	o := obj.AsObject()
	o.Set("code", String("NetStream.Publish.Start"))
	o.Set("level", String("status"))

	enc := NewAmf3Encoder()
	buf := enc.Encode(nil, obj)
	dec := NewAmf3Decoder()
	got, n, err := dec.Decode(buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if n != len(buf) {
		t.Fatalf("consumed %d want %d", n, len(buf))
	}
	gotObj := got.AsObject()
	if len(gotObj.Pairs) != 2 || gotObj.Pairs[0].Name != "code" || gotObj.Pairs[1].Name != "level" {
		t.Fatalf("order not preserved: %+v", gotObj.Pairs)
	}
	if gotObj.Pairs[0].Value.AsString() != "NetStream.Publish.Start" {
		t.Fatalf("code value = %q", gotObj.Pairs[0].Value.AsString())
	}
}

func TestAmf3StrictArrayRoundTrip(t *testing.T) {
	v := StrictArray([]Value{Integer(1), String("two"), Boolean(true)})
	enc := NewAmf3Encoder()
	buf := enc.Encode(nil, v)
	dec := NewAmf3Decoder()
	got, n, err := dec.Decode(buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if n != len(buf) {
		t.Fatalf("consumed %d want %d", n, len(buf))
	}
	if len(got.AsArray()) != 3 {
		t.Fatalf("got %d elements, want 3", len(got.AsArray()))
	}
}
