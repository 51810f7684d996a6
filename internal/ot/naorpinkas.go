package ot

import (
	"context"
	"time"

	"github.com/go-logr/logr"
	"github.com/optable/oblivious/internal/crypto"
	"github.com/optable/oblivious/internal/util"
	"github.com/pkg/errors"
)

/*
1 out of 2 base OT
from the paper: Efficient Oblivious Transfer Protocol
by Moni Naor and Benny Pinkas in 2001.

Batched over every pair with a single sender key, after the transaction
properties are agreed:
  sender   -> receiver: A, R = r·G (the secret of A is never used)
  receiver -> sender:   K0_i = b_i·G, or A - b_i·G when the choice is 1
  sender   -> receiver: AEAD(H(r·K0_i), m0), AEAD(H(r·A - r·K0_i), m1)
The receiver opens the ciphertext of its choice with H(b_i·R).
*/

const protocolNaorPinkas = "naor-pinkas"

// NaorPinkasSender is the sender side of the Naor-Pinkas base OT.
type NaorPinkasSender struct {
	opts  Options
	suite suite
}

// NaorPinkasReceiver is the receiver side of the Naor-Pinkas base OT.
type NaorPinkasReceiver struct {
	opts  Options
	suite suite
}

func NewNaorPinkasSender(opts Options) (*NaorPinkasSender, error) {
	su, err := opts.suite()
	if err != nil {
		return nil, err
	}
	return &NaorPinkasSender{opts: opts, suite: su}, nil
}

func NewNaorPinkasReceiver(opts Options) (*NaorPinkasReceiver, error) {
	su, err := opts.suite()
	if err != nil {
		return nil, err
	}
	return &NaorPinkasReceiver{opts: opts, suite: su}, nil
}

// Exchange sends one message of each pair obliviously over ch.
func (s *NaorPinkasSender) Exchange(ctx context.Context, messages Message, ch Channel) error {
	if len(messages) == 0 {
		return errors.Wrap(ErrPrecondition, "no messages to send")
	}

	logger := logr.FromContextOrDiscard(ctx).WithValues("protocol", protocolNaorPinkas, "role", "sender")

	// statistics
	start := time.Now()
	timer := start
	var mem uint64

	var st *naorPinkasSenderInit

	// stage 1: agree on the transaction and send A and R
	stage1 := func() (err error) {
		logger.V(1).Info("Starting stage 1")
		if err = agreeAsSender(ch, newProperties(protocolNaorPinkas, len(messages), s.opts)); err != nil {
			return err
		}

		if st, err = newNaorPinkasSenderInit(s.suite.curve); err != nil {
			return err
		}

		if err = sendRecord(ch, &pointsEnvelope{Points: st.encoded}); err != nil {
			return err
		}

		timer, mem = printStageStats(logger, 1, start, start, 0)
		logger.V(1).Info("Finished stage 1")
		return nil
	}

	// stage 2: read K0 of every instance, encrypt both messages
	stage2 := func() error {
		logger.V(1).Info("Starting stage 2")
		var keys pointsEnvelope
		if err := recvRecord(ch, &keys); err != nil {
			return err
		}

		ciphertexts, err := st.accept(s.suite, messages, keys.Points)
		if err != nil {
			return err
		}

		if err := sendRecord(ch, ciphertexts); err != nil {
			return err
		}

		_, _ = printStageStats(logger, 2, timer, start, mem)
		logger.V(1).Info("Finished stage 2")
		return nil
	}

	// run stage1
	if err := util.Sel(ctx, stage1); err != nil {
		return err
	}

	// run stage2
	return util.Sel(ctx, stage2)
}

// Exchange obtains messages[i][choices[i]] for every choice from the sender
// on the other end of ch.
func (r *NaorPinkasReceiver) Exchange(ctx context.Context, choices []bool, ch Channel) (Payload, error) {
	if len(choices) == 0 {
		return nil, errors.Wrap(ErrPrecondition, "no choices")
	}

	logger := logr.FromContextOrDiscard(ctx).WithValues("protocol", protocolNaorPinkas, "role", "receiver")

	// statistics
	start := time.Now()
	timer := start
	var mem uint64

	var retrieving *receiverRetrieving
	var payload Payload

	// stage 1: agree on the transaction, read A and R and answer with K0
	stage1 := func() (err error) {
		logger.V(1).Info("Starting stage 1")
		if err = agreeAsReceiver(ch, newProperties(protocolNaorPinkas, len(choices), r.opts)); err != nil {
			return err
		}

		var keys pointsEnvelope
		if err = recvRecord(ch, &keys); err != nil {
			return err
		}

		if retrieving, err = naorPinkasReceive(r.suite, choices, keys.Points); err != nil {
			return err
		}

		if err = sendRecord(ch, &pointsEnvelope{Points: retrieving.encoded}); err != nil {
			return err
		}

		timer, mem = printStageStats(logger, 1, start, start, 0)
		logger.V(1).Info("Finished stage 1")
		return nil
	}

	// stage 2: read the ciphertexts and open the chosen ones
	stage2 := func() (err error) {
		logger.V(1).Info("Starting stage 2")
		var ciphertexts ciphertextPairsEnvelope
		if err = recvRecord(ch, &ciphertexts); err != nil {
			return err
		}

		if payload, err = retrieving.receive(r.suite, &ciphertexts); err != nil {
			return err
		}

		_, _ = printStageStats(logger, 2, timer, start, mem)
		logger.V(1).Info("Finished stage 2")
		return nil
	}

	// run stage1
	if err := util.Sel(ctx, stage1); err != nil {
		return nil, err
	}

	// run stage2
	if err := util.Sel(ctx, stage2); err != nil {
		return nil, err
	}

	return payload, nil
}

type naorPinkasSenderInit struct {
	curve crypto.Curve
	r     crypto.Scalar
	// rA is A multiplied by the secret of R
	rA      crypto.Point
	encoded [][]byte
}

func newNaorPinkasSenderInit(curve crypto.Curve) (*naorPinkasSenderInit, error) {
	a, err := curve.RandomScalar()
	if err != nil {
		return nil, err
	}
	r, err := curve.RandomScalar()
	if err != nil {
		return nil, err
	}

	A := curve.BaseMul(a)
	encodedA, err := A.MarshalBinary()
	if err != nil {
		return nil, err
	}
	encodedR, err := curve.BaseMul(r).MarshalBinary()
	if err != nil {
		return nil, err
	}

	return &naorPinkasSenderInit{
		curve:   curve,
		r:       r,
		rA:      A.Mul(r),
		encoded: [][]byte{encodedA, encodedR},
	}, nil
}

// accept derives K0 = r·K0_i and K1 = r·A - K0 for every instance and
// encrypts each message of a pair under its own key.
func (s *naorPinkasSenderInit) accept(su suite, messages Message, receiverKeys [][]byte) (*ciphertextPairsEnvelope, error) {
	n := len(messages)
	if len(receiverKeys) != n {
		return nil, errors.Wrapf(ErrTransport, "received %d keys, expected %d", len(receiverKeys), n)
	}

	out := &ciphertextPairsEnvelope{C0: make([][]byte, n), C1: make([][]byte, n)}
	err := util.ConcurrentRange(n, func(lo, hi int) error {
		kdf := su.kdf()
		for i := lo; i < hi; i++ {
			K0, err := s.curve.DecodePoint(receiverKeys[i])
			if err != nil {
				return errors.Wrapf(ErrTransport, "receiver key %d: %v", i, err)
			}

			rK0 := K0.Mul(s.r)
			k0, err := kdf.PointKey(rK0)
			if err != nil {
				return err
			}
			k1, err := kdf.PointKey(s.rA.Sub(rK0))
			if err != nil {
				return err
			}

			if out.C0[i], err = su.cipher.Seal(k0, messages[i][0]); err != nil {
				return errors.Wrap(err, "error encrypting sender message")
			}
			if out.C1[i], err = su.cipher.Seal(k1, messages[i][1]); err != nil {
				return errors.Wrap(err, "error encrypting sender message")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

// naorPinkasReceive answers the sender keys A and R with one K0 per choice
// and derives the decryption key of every instance.
func naorPinkasReceive(su suite, choices []bool, senderKeys [][]byte) (*receiverRetrieving, error) {
	if len(senderKeys) != 2 {
		return nil, errors.Wrapf(ErrTransport, "received %d sender keys, expected 2", len(senderKeys))
	}
	A, err := su.curve.DecodePoint(senderKeys[0])
	if err != nil {
		return nil, errors.Wrapf(ErrTransport, "sender key A: %v", err)
	}
	R, err := su.curve.DecodePoint(senderKeys[1])
	if err != nil {
		return nil, errors.Wrapf(ErrTransport, "sender key R: %v", err)
	}

	n := len(choices)
	out := &receiverRetrieving{choices: choices, keys: make([][]byte, n), encoded: make([][]byte, n)}
	err = util.ConcurrentRange(n, func(lo, hi int) error {
		kdf := su.kdf()
		for i := lo; i < hi; i++ {
			b, err := su.curve.RandomScalar()
			if err != nil {
				return err
			}

			// K0 = bG, or A - bG so that K1 = bG
			K := su.curve.BaseMul(b)
			if choices[i] {
				K = A.Sub(K)
			}
			if out.encoded[i], err = K.MarshalBinary(); err != nil {
				return err
			}

			// k = bR
			if out.keys[i], err = kdf.PointKey(R.Mul(b)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}
