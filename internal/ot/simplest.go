package ot

import (
	"context"
	"time"

	"github.com/go-logr/logr"
	"github.com/optable/oblivious/internal/crypto"
	"github.com/optable/oblivious/internal/util"
	"github.com/pkg/errors"
)

// The simplest OT of Chou and Orlandi, batched over every pair in three
// rounds after the transaction properties are agreed:
//   sender   -> receiver: A_i = a_i·G
//   receiver -> sender:   B_i = b_i·G, or A_i + b_i·G when the choice is 1
//   sender   -> receiver: AEAD(H(a_i·B_i), m0), AEAD(H(a_i·(B_i - A_i)), m1)
// The receiver opens the ciphertext of its choice with H(b_i·A_i).

const protocolSimplest = "simplest"

// SimplestSender is the sender side of the base OT.
type SimplestSender struct {
	opts  Options
	suite suite
}

// SimplestReceiver is the receiver side of the base OT.
type SimplestReceiver struct {
	opts  Options
	suite suite
}

// NewSimplestSender returns a base OT sender using the curve, hash and
// cipher of opts.
func NewSimplestSender(opts Options) (*SimplestSender, error) {
	su, err := opts.suite()
	if err != nil {
		return nil, err
	}
	return &SimplestSender{opts: opts, suite: su}, nil
}

// NewSimplestReceiver returns a base OT receiver using the curve, hash and
// cipher of opts.
func NewSimplestReceiver(opts Options) (*SimplestReceiver, error) {
	su, err := opts.suite()
	if err != nil {
		return nil, err
	}
	return &SimplestReceiver{opts: opts, suite: su}, nil
}

// Exchange sends one message of each pair obliviously over ch.
func (s *SimplestSender) Exchange(ctx context.Context, messages Message, ch Channel) error {
	if len(messages) == 0 {
		return errors.Wrap(ErrPrecondition, "no messages to send")
	}

	logger := logr.FromContextOrDiscard(ctx).WithValues("protocol", protocolSimplest, "role", "sender")

	// statistics
	start := time.Now()
	timer := start
	var mem uint64

	var st *senderInit

	// stage 1: agree on the transaction and send the public keys
	stage1 := func() (err error) {
		logger.V(1).Info("Starting stage 1")
		if err = agreeAsSender(ch, newProperties(protocolSimplest, len(messages), s.opts)); err != nil {
			return err
		}

		if st, err = newSenderInit(s.suite.curve, len(messages)); err != nil {
			return err
		}

		if err = sendRecord(ch, &pointsEnvelope{Points: st.encoded}); err != nil {
			return err
		}

		timer, mem = printStageStats(logger, 1, start, start, 0)
		logger.V(1).Info("Finished stage 1")
		return nil
	}

	// stage 2: read the receiver keys, encrypt both messages of each pair
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
func (r *SimplestReceiver) Exchange(ctx context.Context, choices []bool, ch Channel) (Payload, error) {
	if len(choices) == 0 {
		return nil, errors.Wrap(ErrPrecondition, "no choices")
	}

	logger := logr.FromContextOrDiscard(ctx).WithValues("protocol", protocolSimplest, "role", "receiver")

	// statistics
	start := time.Now()
	timer := start
	var mem uint64

	var retrieving *receiverRetrieving
	var payload Payload

	// stage 1: agree on the transaction, read the sender keys and answer
	// with the masked receiver keys
	stage1 := func() (err error) {
		logger.V(1).Info("Starting stage 1")
		if err = agreeAsReceiver(ch, newProperties(protocolSimplest, len(choices), r.opts)); err != nil {
			return err
		}

		var keys pointsEnvelope
		if err = recvRecord(ch, &keys); err != nil {
			return err
		}

		if retrieving, err = newReceiverInit(r.suite.curve, choices).accept(r.suite, keys.Points); err != nil {
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

// senderInit holds the sender secrets between the first and last round.
type senderInit struct {
	curve   crypto.Curve
	secrets []crypto.Scalar
	publics []crypto.Point
	encoded [][]byte
}

func newSenderInit(curve crypto.Curve, n int) (*senderInit, error) {
	s := &senderInit{
		curve:   curve,
		secrets: make([]crypto.Scalar, n),
		publics: make([]crypto.Point, n),
		encoded: make([][]byte, n),
	}

	err := util.ConcurrentRange(n, func(lo, hi int) error {
		for i := lo; i < hi; i++ {
			a, err := curve.RandomScalar()
			if err != nil {
				return err
			}
			s.secrets[i] = a
			s.publics[i] = curve.BaseMul(a)
			if s.encoded[i], err = s.publics[i].MarshalBinary(); err != nil {
				return err
			}
		}
		return nil
	})

	return s, err
}

// accept derives both keys of every instance from the receiver keys and
// encrypts each message of a pair under its own key.
func (s *senderInit) accept(su suite, messages Message, receiverKeys [][]byte) (*ciphertextPairsEnvelope, error) {
	n := len(s.secrets)
	if len(receiverKeys) != n {
		return nil, errors.Wrapf(ErrTransport, "received %d keys, expected %d", len(receiverKeys), n)
	}

	out := &ciphertextPairsEnvelope{C0: make([][]byte, n), C1: make([][]byte, n)}
	err := util.ConcurrentRange(n, func(lo, hi int) error {
		kdf := su.kdf()
		for i := lo; i < hi; i++ {
			B, err := s.curve.DecodePoint(receiverKeys[i])
			if err != nil {
				return errors.Wrapf(ErrTransport, "receiver key %d: %v", i, err)
			}

			// k0 = aB
			k0, err := kdf.PointKey(B.Mul(s.secrets[i]))
			if err != nil {
				return err
			}
			// k1 = a(B - A)
			k1, err := kdf.PointKey(B.Sub(s.publics[i]).Mul(s.secrets[i]))
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

// receiverInit is the receiver before it has seen the sender keys.
type receiverInit struct {
	curve   crypto.Curve
	choices []bool
}

// receiverRetrieving is the receiver once its keys are fixed, waiting for
// the ciphertexts. It can only be obtained from receiverInit.accept.
type receiverRetrieving struct {
	choices []bool
	keys    [][]byte
	encoded [][]byte
}

func newReceiverInit(curve crypto.Curve, choices []bool) *receiverInit {
	return &receiverInit{curve: curve, choices: choices}
}

// accept masks a fresh key with each sender key according to the choice
// bits and derives the decryption key of every instance.
func (r *receiverInit) accept(su suite, senderKeys [][]byte) (*receiverRetrieving, error) {
	n := len(r.choices)
	if len(senderKeys) != n {
		return nil, errors.Wrapf(ErrTransport, "received %d keys, expected %d", len(senderKeys), n)
	}

	out := &receiverRetrieving{choices: r.choices, keys: make([][]byte, n), encoded: make([][]byte, n)}
	err := util.ConcurrentRange(n, func(lo, hi int) error {
		kdf := su.kdf()
		for i := lo; i < hi; i++ {
			A, err := r.curve.DecodePoint(senderKeys[i])
			if err != nil {
				return errors.Wrapf(ErrTransport, "sender key %d: %v", i, err)
			}

			b, err := r.curve.RandomScalar()
			if err != nil {
				return err
			}

			B := r.curve.BaseMul(b)
			if r.choices[i] {
				// B = A + bG
				B = A.Add(B)
			}
			if out.encoded[i], err = B.MarshalBinary(); err != nil {
				return err
			}

			// k = bA
			if out.keys[i], err = kdf.PointKey(A.Mul(b)); err != nil {
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

// receive opens the chosen ciphertext of every pair.
func (r *receiverRetrieving) receive(su suite, ciphertexts *ciphertextPairsEnvelope) (Payload, error) {
	n := len(r.choices)
	if len(ciphertexts.C0) != n || len(ciphertexts.C1) != n {
		return nil, errors.Wrapf(ErrTransport, "received (%d, %d) ciphertexts, expected %d",
			len(ciphertexts.C0), len(ciphertexts.C1), n)
	}

	payload := make(Payload, n)
	err := util.ConcurrentRange(n, func(lo, hi int) (err error) {
		for i := lo; i < hi; i++ {
			c := ciphertexts.C0[i]
			if r.choices[i] {
				c = ciphertexts.C1[i]
			}
			if payload[i], err = su.cipher.Open(r.keys[i], c); err != nil {
				return errors.Wrapf(ErrDecode, "instance %d: %v", i, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return payload, nil
}
