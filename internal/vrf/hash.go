package vrf

import (
	"crypto/sha512"
	"encoding/binary"
	"fmt"
	"hash"
)

var (
	scalarPrefix     = []byte("OCBv1|hash_to_scalar|")
	pointPrefix      = []byte("OCBv1|hash_to_point|")
	transcriptPrefix = []byte("OCBv1|transcript|")
)

func u32le(x uint32) []byte {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], x)
	return b[:]
}

func writeLenPrefixed(h hash.Hash, b []byte) {
	h.Write(u32le(uint32(len(b))))
	h.Write(b)
}

func wideDigest(prefix []byte, domain string, msgs [][]byte) ([]byte, error) {
	h := sha512.New()
	h.Write(prefix)
	writeLenPrefixed(h, []byte(domain))
	for _, m := range msgs {
		if m == nil {
			return nil, fmt.Errorf("hash: nil msg")
		}
		writeLenPrefixed(h, m)
	}
	return h.Sum(nil), nil
}

// HashToScalar maps length-prefixed messages under domain to a uniform scalar.
func HashToScalar(domain string, msgs ...[]byte) (Scalar, error) {
	d, err := wideDigest(scalarPrefix, domain, msgs)
	if err != nil {
		return Scalar{}, err
	}
	return scalarFromWide(d)
}

// HashToPoint maps length-prefixed messages under domain to a group element
// with unknown discrete log.
func HashToPoint(domain string, msgs ...[]byte) (Point, error) {
	d, err := wideDigest(pointPrefix, domain, msgs)
	if err != nil {
		return Point{}, err
	}
	return pointFromWide(d)
}

// transcript is a Fiat-Shamir transcript. It keeps the raw bytes since
// sha512 state cannot be cloned.
type transcript struct {
	buf []byte
}

func newTranscript(domain string) *transcript {
	t := &transcript{buf: append([]byte(nil), transcriptPrefix...)}
	t.buf = append(t.buf, u32le(uint32(len(domain)))...)
	t.buf = append(t.buf, domain...)
	return t
}

func (t *transcript) append(label string, msg []byte) {
	t.buf = append(t.buf, "msg"...)
	t.buf = append(t.buf, u32le(uint32(len(label)))...)
	t.buf = append(t.buf, label...)
	t.buf = append(t.buf, u32le(uint32(len(msg)))...)
	t.buf = append(t.buf, msg...)
}

func (t *transcript) challenge(label string) (Scalar, error) {
	h := sha512.New()
	h.Write(t.buf)
	h.Write([]byte("challenge"))
	writeLenPrefixed(h, []byte(label))
	return scalarFromWide(h.Sum(nil))
}
