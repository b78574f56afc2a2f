package randomness

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math/bits"
)

// hashRNG is a deterministic byte stream derived from sha256(seed || counter).
// It is consensus-safe and does not depend on platform RNGs.
type hashRNG struct {
	seed    [32]byte
	counter uint64
	buf     [32]byte
	bufPos  int
}

func newHashRNG(seed [32]byte) *hashRNG {
	return &hashRNG{seed: seed, bufPos: len([32]byte{})}
}

func (r *hashRNG) read(p []byte) {
	for len(p) > 0 {
		if r.bufPos >= len(r.buf) {
			r.refill()
		}
		n := copy(p, r.buf[r.bufPos:])
		r.bufPos += n
		p = p[n:]
	}
}

func (r *hashRNG) refill() {
	var in [32 + 8]byte
	copy(in[:32], r.seed[:])
	binary.LittleEndian.PutUint64(in[32:], r.counter)
	r.counter++
	r.buf = sha256.Sum256(in[:])
	r.bufPos = 0
}

// DrawIndex draws uniformly from [0, n) by rejection sampling over the
// smallest power-of-two range covering n.
func (r *hashRNG) DrawIndex(n int) (int, error) {
	if n <= 0 {
		return 0, fmt.Errorf("draw index: domain size must be > 0, got %d", n)
	}
	if n == 1 {
		return 0, nil
	}
	max := uint64(n)
	mask := uint64(1)<<bits.Len64(max-1) - 1

	var buf [8]byte
	for tries := 0; tries < 1_000_000; tries++ {
		r.read(buf[:])
		v := binary.LittleEndian.Uint64(buf[:]) & mask
		if v < max {
			return int(v), nil
		}
	}
	return 0, fmt.Errorf("draw index: no sample accepted after many tries (n=%d)", n)
}

// hashDomain hashes domain followed by length-prefixed parts.
func hashDomain(domain string, parts ...[]byte) [32]byte {
	h := sha256.New()
	_, _ = h.Write([]byte(domain))

	var lenBuf [4]byte
	for _, p := range parts {
		binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(p)))
		_, _ = h.Write(lenBuf[:])
		_, _ = h.Write(p)
	}

	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

func u64le(x uint64) []byte {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], x)
	return b[:]
}
