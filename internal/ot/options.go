package ot

import (
	"github.com/optable/oblivious/internal/crypto"
	"github.com/pkg/errors"
)

const (
	// DefaultSecurity is the computational security parameter K, the
	// number of base OTs run by the extension.
	DefaultSecurity = 256
	// DefaultStatistical is the statistical security parameter S of the
	// consistency check.
	DefaultStatistical = 128

	// BaseSimplest and BaseNaorPinkas name the base OTs an extension can
	// bootstrap from.
	BaseSimplest   = protocolSimplest
	BaseNaorPinkas = protocolNaorPinkas

	// blockSize is the unit, in bytes, of extension message lengths.
	blockSize = 8
	// blockBits is the unit of extension instance counts.
	blockBits = 64
)

// Options selects the primitives and parameters of a protocol instance.
// Both parties must use the same options.
type Options struct {
	Base        string
	Curve       string
	Cipher      string
	Hash        string
	PRG         string
	Security    int
	Statistical int
}

// DefaultOptions returns the simplest base OT, ristretto points, blake3 hashing and expansion,
// AES-GCM and K=256, S=128.
func DefaultOptions() Options {
	return Options{
		Base:        BaseSimplest,
		Curve:       crypto.Ristretto,
		Cipher:      crypto.AESGCM,
		Hash:        crypto.Blake3,
		PRG:         crypto.PRGBlake3,
		Security:    DefaultSecurity,
		Statistical: DefaultStatistical,
	}
}

// Validate checks that the base OT and every primitive are supported and that the security
// parameters are positive multiples of 64.
func (o Options) Validate() error {
	if _, err := o.suite(); err != nil {
		return err
	}
	if _, err := crypto.NewPRG(o.PRG); err != nil {
		return err
	}
	if o.Base != BaseSimplest && o.Base != BaseNaorPinkas {
		return errors.Errorf("unsupported base OT %q", o.Base)
	}
	if o.Security <= 0 || o.Security%blockBits != 0 {
		return errors.Errorf("security parameter %d is not a positive multiple of %d", o.Security, blockBits)
	}
	if o.Statistical < 0 || o.Statistical%blockBits != 0 {
		return errors.Errorf("statistical parameter %d is not a multiple of %d", o.Statistical, blockBits)
	}
	return nil
}

// suite holds the public key and symmetric primitives of a party.
type suite struct {
	curve  crypto.Curve
	cipher *crypto.Cipher
	hash   string
}

func (o Options) suite() (suite, error) {
	curve, err := crypto.NewCurve(o.Curve)
	if err != nil {
		return suite{}, err
	}
	cipher, err := crypto.NewCipher(o.Cipher)
	if err != nil {
		return suite{}, err
	}
	if _, err := crypto.NewKDF(o.Hash); err != nil {
		return suite{}, err
	}
	return suite{curve: curve, cipher: cipher, hash: o.Hash}, nil
}

// kdf returns a fresh key derivation, one per worker.
func (s suite) kdf() *crypto.KDF {
	// the hash name was validated when the suite was built
	k, _ := crypto.NewKDF(s.hash)
	return k
}

// NewBaseSender returns the sender side of the base OT named by o.Base.
func NewBaseSender(o Options) (ObliviousSender, error) {
	switch o.Base {
	case BaseSimplest:
		return NewSimplestSender(o)
	case BaseNaorPinkas:
		return NewNaorPinkasSender(o)
	default:
		return nil, errors.Errorf("unsupported base OT %q", o.Base)
	}
}

// NewBaseReceiver returns the receiver side of the base OT named by o.Base.
func NewBaseReceiver(o Options) (ObliviousReceiver, error) {
	switch o.Base {
	case BaseSimplest:
		return NewSimplestReceiver(o)
	case BaseNaorPinkas:
		return NewNaorPinkasReceiver(o)
	default:
		return nil, errors.Errorf("unsupported base OT %q", o.Base)
	}
}
