package vrf

import (
	"fmt"

	"github.com/gtank/ristretto255"
)

const (
	ScalarSize = 32
	PointSize  = 32
)

// Scalar wraps a ristretto255 scalar; encoded as 32 canonical little-endian bytes.
type Scalar struct {
	v ristretto255.Scalar
}

// Point wraps a ristretto255 element; encoded as 32 canonical bytes.
type Point struct {
	v ristretto255.Element
}

func scalarFromWide(b []byte) (Scalar, error) {
	if len(b) != 64 {
		return Scalar{}, fmt.Errorf("scalar: expected 64 uniform bytes, got %d", len(b))
	}
	var s Scalar
	s.v.FromUniformBytes(b)
	return s, nil
}

func ScalarFromBytes(b []byte) (Scalar, error) {
	if len(b) != ScalarSize {
		return Scalar{}, fmt.Errorf("scalar: expected %d bytes, got %d", ScalarSize, len(b))
	}
	var s Scalar
	if _, err := s.v.SetCanonicalBytes(b); err != nil {
		return Scalar{}, fmt.Errorf("scalar: non-canonical: %w", err)
	}
	return s, nil
}

func (s Scalar) Bytes() []byte { return s.v.Bytes() }

func (s Scalar) IsZero() bool {
	var z ristretto255.Scalar
	return s.v.Equal(&z) == 1
}

func addScalars(a, b Scalar) Scalar {
	var out Scalar
	out.v.Add(&a.v, &b.v)
	return out
}

func mulScalars(a, b Scalar) Scalar {
	var out Scalar
	out.v.Multiply(&a.v, &b.v)
	return out
}

func PointFromBytes(b []byte) (Point, error) {
	if len(b) != PointSize {
		return Point{}, fmt.Errorf("point: expected %d bytes, got %d", PointSize, len(b))
	}
	var p Point
	if _, err := p.v.SetCanonicalBytes(b); err != nil {
		return Point{}, fmt.Errorf("point: non-canonical: %w", err)
	}
	return p, nil
}

func pointFromWide(b []byte) (Point, error) {
	if len(b) != 64 {
		return Point{}, fmt.Errorf("point: expected 64 uniform bytes, got %d", len(b))
	}
	var p Point
	p.v.FromUniformBytes(b)
	return p, nil
}

func (p Point) Bytes() []byte { return p.v.Bytes() }

func (p Point) Equal(q Point) bool { return p.v.Equal(&q.v) == 1 }

func (p Point) isIdentity() bool {
	var id ristretto255.Element
	id.Zero()
	return p.v.Equal(&id) == 1
}

func baseMul(k Scalar) Point {
	var out Point
	out.v.ScalarBaseMult(&k.v)
	return out
}

func mul(p Point, k Scalar) Point {
	var out Point
	out.v.ScalarMult(&k.v, &p.v)
	return out
}

func add(a, b Point) Point {
	var out Point
	out.v.Add(&a.v, &b.v)
	return out
}
