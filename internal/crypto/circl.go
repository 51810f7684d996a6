package crypto

import (
	"crypto/rand"

	circl "github.com/cloudflare/circl/group"
)

// circlCurve adapts the short Weierstrass groups of circl. Points travel in
// compressed SEC1 form.
type circlCurve struct {
	name string
	g    circl.Group
}

type circlScalar struct {
	s circl.Scalar
}

type circlPoint struct {
	g circl.Group
	p circl.Element
}

func (circlScalar) isScalar() {}

func newCirclCurve(name string) circlCurve {
	switch name {
	case P384:
		return circlCurve{name: name, g: circl.P384}
	default:
		return circlCurve{name: P256, g: circl.P256}
	}
}

func (c circlCurve) Name() string { return c.name }

func (c circlCurve) PointLen() int {
	return int(c.g.Params().CompressedElementLength)
}

func (c circlCurve) RandomScalar() (Scalar, error) {
	return circlScalar{s: c.g.RandomScalar(rand.Reader)}, nil
}

func (c circlCurve) BaseMul(s Scalar) Point {
	return circlPoint{g: c.g, p: c.g.NewElement().MulGen(s.(circlScalar).s)}
}

func (c circlCurve) DecodePoint(b []byte) (Point, error) {
	if len(b) != c.PointLen() {
		return nil, errPointLen(c.name, len(b), c.PointLen())
	}
	p := c.g.NewElement()
	if err := p.UnmarshalBinary(b); err != nil {
		return nil, err
	}
	return circlPoint{g: c.g, p: p}, nil
}

func (p circlPoint) Add(q Point) Point {
	return circlPoint{g: p.g, p: p.g.NewElement().Add(p.p, q.(circlPoint).p)}
}

func (p circlPoint) Sub(q Point) Point {
	neg := p.g.NewElement().Neg(q.(circlPoint).p)
	return circlPoint{g: p.g, p: p.g.NewElement().Add(p.p, neg)}
}

func (p circlPoint) Mul(s Scalar) Point {
	return circlPoint{g: p.g, p: p.g.NewElement().Mul(p.p, s.(circlScalar).s)}
}

func (p circlPoint) MarshalBinary() ([]byte, error) {
	return p.p.MarshalBinaryCompress()
}
