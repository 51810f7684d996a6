package crypto

import (
	"crypto/rand"

	"filippo.io/edwards25519"
)

type edwardsCurve struct{}

type edwardsScalar struct {
	s *edwards25519.Scalar
}

type edwardsPoint struct {
	p *edwards25519.Point
}

func (edwardsScalar) isScalar() {}

func (edwardsCurve) Name() string  { return Edwards25519 }
func (edwardsCurve) PointLen() int { return encodeLen }

// RandomScalar samples 252 random bits, which are always a canonical
// encoding since the group order is above 2^252.
func (edwardsCurve) RandomScalar() (Scalar, error) {
	var b [32]byte
	if _, err := rand.Read(b[:]); err != nil {
		return nil, err
	}
	b[31] &= 0x0f
	s, err := edwards25519.NewScalar().SetCanonicalBytes(b[:])
	if err != nil {
		return nil, err
	}
	return edwardsScalar{s: s}, nil
}

func (edwardsCurve) BaseMul(s Scalar) Point {
	return edwardsPoint{p: edwards25519.NewIdentityPoint().ScalarBaseMult(s.(edwardsScalar).s)}
}

func (edwardsCurve) DecodePoint(b []byte) (Point, error) {
	if len(b) != encodeLen {
		return nil, errPointLen(Edwards25519, len(b), encodeLen)
	}
	p, err := edwards25519.NewIdentityPoint().SetBytes(b)
	if err != nil {
		return nil, err
	}
	return edwardsPoint{p: p}, nil
}

func (p edwardsPoint) Add(q Point) Point {
	return edwardsPoint{p: edwards25519.NewIdentityPoint().Add(p.p, q.(edwardsPoint).p)}
}

func (p edwardsPoint) Sub(q Point) Point {
	return edwardsPoint{p: edwards25519.NewIdentityPoint().Subtract(p.p, q.(edwardsPoint).p)}
}

func (p edwardsPoint) Mul(s Scalar) Point {
	return edwardsPoint{p: edwards25519.NewIdentityPoint().ScalarMult(s.(edwardsScalar).s, p.p)}
}

func (p edwardsPoint) MarshalBinary() ([]byte, error) {
	return p.p.Bytes(), nil
}
