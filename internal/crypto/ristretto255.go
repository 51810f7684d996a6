package crypto

import (
	"crypto/rand"

	r255 "github.com/gtank/ristretto255"
)

type r255Curve struct{}

type r255Scalar struct {
	s *r255.Scalar
}

type r255Point struct {
	p *r255.Element
}

func (r255Scalar) isScalar() {}

func (r255Curve) Name() string  { return Ristretto255 }
func (r255Curve) PointLen() int { return encodeLen }

// RandomScalar reduces 64 uniform bytes, which keeps the bias negligible.
func (r255Curve) RandomScalar() (Scalar, error) {
	var uniformBytes = make([]byte, 64)
	if _, err := rand.Read(uniformBytes); err != nil {
		return nil, err
	}
	s := r255.NewScalar()
	s.FromUniformBytes(uniformBytes)
	return r255Scalar{s: s}, nil
}

func (r255Curve) BaseMul(s Scalar) Point {
	return r255Point{p: r255.NewElement().ScalarBaseMult(s.(r255Scalar).s)}
}

func (r255Curve) DecodePoint(b []byte) (Point, error) {
	if len(b) != encodeLen {
		return nil, errPointLen(Ristretto255, len(b), encodeLen)
	}
	p := r255.NewElement()
	if err := p.Decode(b); err != nil {
		return nil, err
	}
	return r255Point{p: p}, nil
}

func (p r255Point) Add(q Point) Point {
	return r255Point{p: r255.NewElement().Add(p.p, q.(r255Point).p)}
}

func (p r255Point) Sub(q Point) Point {
	return r255Point{p: r255.NewElement().Subtract(p.p, q.(r255Point).p)}
}

func (p r255Point) Mul(s Scalar) Point {
	return r255Point{p: r255.NewElement().ScalarMult(s.(r255Scalar).s, p.p)}
}

func (p r255Point) MarshalBinary() ([]byte, error) {
	return p.p.Encode(make([]byte, 0, encodeLen)), nil
}
