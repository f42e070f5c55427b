// Package amf implements the AMF0 and AMF3 command/data encodings used on
// the RTMP command and metadata channels. Byte-order access goes through
// naza/pkg/bele, the same helper lal uses in pkg/httpflv and pkg/rtmp for
// big/little-endian field access.
package amf

import (
	"math"

	"github.com/q191201771/naza/pkg/bele"
	"github.com/mediapush/rtmppublisher/pkg/rtmpbase"
)

func readU8(b []byte) (uint8, error) {
	if len(b) < 1 {
		return 0, rtmpbase.NewErrShortBuffer(1, len(b), "amf.readU8")
	}
	return b[0], nil
}

func readU16(b []byte) (uint16, error) {
	if len(b) < 2 {
		return 0, rtmpbase.NewErrShortBuffer(2, len(b), "amf.readU16")
	}
	return bele.BeUint16(b), nil
}

func readU24(b []byte) (uint32, error) {
	if len(b) < 3 {
		return 0, rtmpbase.NewErrShortBuffer(3, len(b), "amf.readU24")
	}
	return bele.BeUint24(b), nil
}

func readU32(b []byte) (uint32, error) {
	if len(b) < 4 {
		return 0, rtmpbase.NewErrShortBuffer(4, len(b), "amf.readU32")
	}
	return bele.BeUint32(b), nil
}

func readF64(b []byte) (float64, error) {
	if len(b) < 8 {
		return 0, rtmpbase.NewErrShortBuffer(8, len(b), "amf.readF64")
	}
	bits := uint64(bele.BeUint32(b))<<32 | uint64(bele.BeUint32(b[4:]))
	return math.Float64frombits(bits), nil
}

func writeU8(out []byte, v uint8) []byte {
	return append(out, v)
}

func writeU16(out []byte, v uint16) []byte {
	var tmp [2]byte
	bele.BePutUint16(tmp[:], v)
	return append(out, tmp[:]...)
}

func writeU24(out []byte, v uint32) []byte {
	var tmp [3]byte
	bele.BePutUint24(tmp[:], v)
	return append(out, tmp[:]...)
}

func writeU32(out []byte, v uint32) []byte {
	var tmp [4]byte
	bele.BePutUint32(tmp[:], v)
	return append(out, tmp[:]...)
}

func writeF64(out []byte, v float64) []byte {
	bits := math.Float64bits(v)
	var tmp [8]byte
	bele.BePutUint32(tmp[:4], uint32(bits>>32))
	bele.BePutUint32(tmp[4:], uint32(bits))
	return append(out, tmp[:]...)
}
