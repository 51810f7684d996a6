package crypto

import (
	gr "github.com/bwesterb/go-ristretto"
)

const encodeLen = 32 // ristretto point encoded length, as well as the derived key length

type ristrettoCurve struct{}

type ristrettoScalar struct {
	s gr.Scalar
}

type ristrettoPoint struct {
	p gr.Point
}

func (ristrettoScalar) isScalar() {}

func (ristrettoCurve) Name() string  { return Ristretto }
func (ristrettoCurve) PointLen() int { return encodeLen }

func (ristrettoCurve) RandomScalar() (Scalar, error) {
	var s ristrettoScalar
	s.s.Rand()
	return &s, nil
}

func (ristrettoCurve) BaseMul(s Scalar) Point {
	var p ristrettoPoint
	p.p.ScalarMultBase(&s.(*ristrettoScalar).s)
	return &p
}

// DecodePoint reads a marshalled ristretto point
func (ristrettoCurve) DecodePoint(b []byte) (Point, error) {
	if len(b) != encodeLen {
		return nil, errPointLen(Ristretto, len(b), encodeLen)
	}
	var p ristrettoPoint
	if err := p.p.UnmarshalBinary(b); err != nil {
		return nil, err
	}
	return &p, nil
}

func (p *ristrettoPoint) Add(q Point) Point {
	var r ristrettoPoint
	r.p.Add(&p.p, &q.(*ristrettoPoint).p)
	return &r
}

func (p *ristrettoPoint) Sub(q Point) Point {
	var r ristrettoPoint
	r.p.Sub(&p.p, &q.(*ristrettoPoint).p)
	return &r
}

func (p *ristrettoPoint) Mul(s Scalar) Point {
	var r ristrettoPoint
	r.p.ScalarMult(&p.p, &s.(*ristrettoScalar).s)
	return &r
}

func (p *ristrettoPoint) MarshalBinary() ([]byte, error) {
	return p.p.MarshalBinary()
}
