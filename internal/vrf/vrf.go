// Package vrf implements a verifiable random function over ristretto255.
//
// For secret key x, public key Y = x*G and input alpha:
//
//	H     = HashToPoint(alpha)
//	Gamma = x*H
//	beta  = sha512(Gamma)[:32]
//
// The proof is Gamma plus a Chaum-Pedersen proof that log_G(Y) == log_H(Gamma).
package vrf

import (
	"crypto/sha512"
	"errors"
	"fmt"
	"io"
)

const (
	// ProofSize is Gamma(32) || A(32) || B(32) || s(32).
	ProofSize  = 4 * 32
	OutputSize = 32

	hashToCurveDomain = "ocb/v1/vrf/h2c"
	nonceDomain       = "ocb/v1/vrf/nonce"
	outputDomain      = "ocb/v1/vrf/output"
)

var ErrInvalidProof = errors.New("vrf: invalid proof")

type PrivateKey struct {
	x Scalar
	Y Point
}

func (k *PrivateKey) Bytes() []byte { return k.x.Bytes() }

func (k *PrivateKey) PublicKey() []byte { return k.Y.Bytes() }

// GenerateKey reads 64 bytes from rand and reduces them to a non-zero scalar.
func GenerateKey(rand io.Reader) (*PrivateKey, error) {
	var wide [64]byte
	if _, err := io.ReadFull(rand, wide[:]); err != nil {
		return nil, fmt.Errorf("vrf: read entropy: %w", err)
	}
	x, err := scalarFromWide(wide[:])
	if err != nil {
		return nil, err
	}
	if x.IsZero() {
		return nil, fmt.Errorf("vrf: zero key")
	}
	return &PrivateKey{x: x, Y: baseMul(x)}, nil
}

func PrivateKeyFromBytes(b []byte) (*PrivateKey, error) {
	x, err := ScalarFromBytes(b)
	if err != nil {
		return nil, err
	}
	if x.IsZero() {
		return nil, fmt.Errorf("vrf: zero key")
	}
	return &PrivateKey{x: x, Y: baseMul(x)}, nil
}

func hashInput(pk Point, alpha []byte) (Point, error) {
	return HashToPoint(hashToCurveDomain, pk.Bytes(), alpha)
}

func outputFromGamma(gamma Point) []byte {
	h := sha512.New()
	h.Write([]byte(outputDomain))
	h.Write(gamma.Bytes())
	return h.Sum(nil)[:OutputSize]
}

// Prove evaluates the VRF at alpha and returns (beta, proof). The DLEQ nonce is
// derived from the key and H so that proving is deterministic.
func (k *PrivateKey) Prove(alpha []byte) (beta, proof []byte, err error) {
	if alpha == nil {
		alpha = []byte{}
	}
	h, err := hashInput(k.Y, alpha)
	if err != nil {
		return nil, nil, err
	}
	gamma := mul(h, k.x)
	w, err := HashToScalar(nonceDomain, k.x.Bytes(), h.Bytes())
	if err != nil {
		return nil, nil, err
	}
	p, err := proveDLEQ(k.Y, h, gamma, k.x, w)
	if err != nil {
		return nil, nil, err
	}
	proof = make([]byte, 0, ProofSize)
	proof = append(proof, gamma.Bytes()...)
	proof = append(proof, p.A.Bytes()...)
	proof = append(proof, p.B.Bytes()...)
	proof = append(proof, p.S.Bytes()...)
	return outputFromGamma(gamma), proof, nil
}

// Verify checks proof for alpha under pubKey and returns beta on success.
func Verify(pubKey, alpha, proof []byte) ([]byte, error) {
	if len(proof) != ProofSize {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidProof, ProofSize, len(proof))
	}
	pk, err := PointFromBytes(pubKey)
	if err != nil {
		return nil, fmt.Errorf("vrf: public key: %w", err)
	}
	if pk.isIdentity() {
		return nil, fmt.Errorf("vrf: identity public key")
	}
	if alpha == nil {
		alpha = []byte{}
	}

	gamma, err := PointFromBytes(proof[0:32])
	if err != nil {
		return nil, fmt.Errorf("%w: gamma: %v", ErrInvalidProof, err)
	}
	a, err := PointFromBytes(proof[32:64])
	if err != nil {
		return nil, fmt.Errorf("%w: a: %v", ErrInvalidProof, err)
	}
	b, err := PointFromBytes(proof[64:96])
	if err != nil {
		return nil, fmt.Errorf("%w: b: %v", ErrInvalidProof, err)
	}
	s, err := ScalarFromBytes(proof[96:128])
	if err != nil {
		return nil, fmt.Errorf("%w: s: %v", ErrInvalidProof, err)
	}

	h, err := hashInput(pk, alpha)
	if err != nil {
		return nil, err
	}
	ok, err := verifyDLEQ(pk, h, gamma, dleqProof{A: a, B: b, S: s})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidProof
	}
	return outputFromGamma(gamma), nil
}
