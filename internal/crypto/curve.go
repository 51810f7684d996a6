package crypto

import (
	"fmt"
)

/*
High level api for operating on prime order groups, used by the base OT.
*/

const (
	Ristretto    = "ristretto"    // github.com/bwesterb/go-ristretto
	Ristretto255 = "ristretto255" // github.com/gtank/ristretto255
	Edwards25519 = "edwards25519" // filippo.io/edwards25519
	P256         = "p256"         // github.com/cloudflare/circl/group
	P384         = "p384"         // github.com/cloudflare/circl/group
)

// Scalar is a secret exponent of a Curve. Scalars of one curve must not be
// used with another.
type Scalar interface {
	isScalar()
}

// Point is a group element. Operations return fresh points and leave their
// receiver untouched.
type Point interface {
	Add(q Point) Point
	Sub(q Point) Point
	Mul(s Scalar) Point
	MarshalBinary() ([]byte, error)
}

// Curve is a prime order group with a fixed generator.
type Curve interface {
	Name() string
	// PointLen is the size of an encoded point.
	PointLen() int
	RandomScalar() (Scalar, error)
	// BaseMul returns s times the generator.
	BaseMul(s Scalar) Point
	DecodePoint(b []byte) (Point, error)
}

// NewCurve returns the curve registered under name.
func NewCurve(name string) (Curve, error) {
	switch name {
	case Ristretto:
		return ristrettoCurve{}, nil
	case Ristretto255:
		return r255Curve{}, nil
	case Edwards25519:
		return edwardsCurve{}, nil
	case P256, P384:
		return newCirclCurve(name), nil
	default:
		return nil, fmt.Errorf("unsupported curve %q", name)
	}
}

// Curves lists the supported curve names.
func Curves() []string {
	return []string{Ristretto, Ristretto255, Edwards25519, P256, P384}
}

func errPointLen(curve string, got, want int) error {
	return fmt.Errorf("%s point encoded in %d bytes, expected %d", curve, got, want)
}
