package ot

import (
	"context"
	"crypto/rand"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"github.com/optable/oblivious/internal/bitmatrix"
	"github.com/optable/oblivious/internal/crypto"
	"github.com/optable/oblivious/internal/poly"
	"github.com/optable/oblivious/internal/util"
	"github.com/pkg/errors"
)

// OT extension of Ishai, Kilian, Nissim and Petrank with the correlation
// check of Keller, Orsini and Scholl. K base OTs, run with the roles
// swapped, seed a K x l bit matrix where l = n + K + S. The receiver
// commits to its padded choice vector x through U, the sender recovers
// Q = T0 ⊕ Δ·x and after transposition each instance j holds
// q_j = t_j ⊕ x_j·Δ. The receiver then proves that U was built from a
// single x with random challenges chi_j, and both messages of instance j
// are sent encrypted under H(j, q_j) and H(j, q_j ⊕ Δ).
//
// stage 1: agree on the transaction and run the base OTs
// stage 2: expand the seeds, exchange U and transpose
// stage 3: consistency check
// stage 4: encrypt and deliver the messages

const protocolKOS = "kos"

// ExtSender is the sender side of the OT extension. It acts as the
// receiver of the base OT R.
type ExtSender[R ObliviousReceiver] struct {
	base  R
	opts  Options
	suite suite
}

// ExtReceiver is the receiver side of the OT extension. It acts as the
// sender of the base OT S.
type ExtReceiver[S ObliviousSender] struct {
	base  S
	opts  Options
	suite suite
}

// NewExtSender returns an extension sender bootstrapping through base.
func NewExtSender[R ObliviousReceiver](base R, opts Options) (*ExtSender[R], error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	su, err := opts.suite()
	if err != nil {
		return nil, err
	}
	return &ExtSender[R]{base: base, opts: opts, suite: su}, nil
}

// NewExtReceiver returns an extension receiver bootstrapping through base.
func NewExtReceiver[S ObliviousSender](base S, opts Options) (*ExtReceiver[S], error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	su, err := opts.suite()
	if err != nil {
		return nil, err
	}
	return &ExtReceiver[S]{base: base, opts: opts, suite: su}, nil
}

// checkMessages verifies the extension preconditions on the sender input.
func checkMessages(messages Message) error {
	if err := checkCount(len(messages)); err != nil {
		return err
	}
	for i, m := range messages {
		if len(m[0]) != len(m[1]) {
			return errors.Wrapf(ErrPrecondition, "pair %d has messages of %d and %d bytes", i, len(m[0]), len(m[1]))
		}
		if len(m[0]) < blockSize || len(m[0])%blockSize != 0 {
			return errors.Wrapf(ErrPrecondition, "pair %d has messages of %d bytes, not a positive multiple of %d",
				i, len(m[0]), blockSize)
		}
	}
	return nil
}

func checkCount(n int) error {
	if n < blockBits || n%blockBits != 0 {
		return errors.Wrapf(ErrPrecondition, "%d instances, not a positive multiple of %d", n, blockBits)
	}
	return nil
}

// expand stretches each seed into an l-bit row.
func expand(name string, seeds [][crypto.SeedLength]byte, l int) (*bitmatrix.BitMatrix, error) {
	rows := make([]*bitmatrix.BitVector, len(seeds))
	err := util.ConcurrentRange(len(seeds), func(lo, hi int) error {
		prg, err := crypto.NewPRG(name)
		if err != nil {
			return err
		}
		buf := make([]byte, l/8)
		for i := lo; i < hi; i++ {
			if err := prg.Expand(buf, &seeds[i]); err != nil {
				return err
			}
			rows[i] = bitmatrix.FromBytes(buf)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return bitmatrix.NewBitMatrix(rows)
}

// checkShape verifies the dimensions of a received matrix.
func checkShape(m *bitmatrix.BitMatrix, name string, rows, cols int) error {
	r, c := m.Dims()
	if r != rows || c != cols {
		return errors.Wrapf(ErrTransport, "%s is %dx%d, expected %dx%d", name, r, c, rows, cols)
	}
	return nil
}

// weightedSum returns ⊕ rows_j·chi_j over every row, computed in parallel
// partial sums.
func weightedSum(rows, chi *bitmatrix.BitMatrix, k int) (*bitmatrix.BitVector, error) {
	var mu sync.Mutex
	sum := poly.New(k)
	n, _ := rows.Dims()
	err := util.ConcurrentRange(n, func(lo, hi int) error {
		partial := poly.New(k)
		for j := lo; j < hi; j++ {
			if err := poly.Mul(partial, rows.Row(j), chi.Row(j)); err != nil {
				return err
			}
		}

		mu.Lock()
		defer mu.Unlock()
		return poly.Accumulate(sum, partial)
	})
	if err != nil {
		return nil, err
	}

	return sum, nil
}

// Exchange sends one message of each pair obliviously over ch. The number
// of pairs must be a positive multiple of 64 and all messages a positive
// multiple of 8 bytes, with both messages of a pair of equal length.
func (s *ExtSender[R]) Exchange(ctx context.Context, messages Message, ch Channel) error {
	if err := checkMessages(messages); err != nil {
		return err
	}

	logger := logr.FromContextOrDiscard(ctx).WithValues("protocol", protocolKOS, "role", "sender")

	// statistics
	start := time.Now()
	timer := start
	var mem uint64

	n, k := len(messages), s.opts.Security
	l := n + k + s.opts.Statistical

	var delta *bitmatrix.BitVector
	var seeds [][crypto.SeedLength]byte
	var q *bitmatrix.BitMatrix

	// stage 1: agree on the transaction, sample Δ and obtain the seeds
	// it selects through the base OT
	stage1 := func() (err error) {
		logger.V(1).Info("Starting stage 1")
		if err = agreeAsSender(ch, newProperties(protocolKOS, n, s.opts)); err != nil {
			return err
		}

		if delta, err = bitmatrix.RandomBitVector(k); err != nil {
			return err
		}

		payload, err := s.base.Exchange(ctx, delta.Bools(), ch)
		if err != nil {
			return errors.Wrap(err, "base OT")
		}
		if len(payload) != k {
			return errors.Wrapf(ErrTransport, "base OT returned %d seeds, expected %d", len(payload), k)
		}

		seeds = make([][crypto.SeedLength]byte, k)
		for i, p := range payload {
			if seeds[i], err = crypto.SeedFromBytes(p); err != nil {
				return errors.Wrapf(ErrTransport, "seed %d: %v", i, err)
			}
		}

		timer, mem = printStageStats(logger, 1, start, start, 0)
		logger.V(1).Info("Finished stage 1")
		return nil
	}

	// stage 2: expand the seeds into T, read U and compute
	// q_i = u_i ⊕ t_i where Δ_i = 1, t_i otherwise, then transpose Q
	stage2 := func() error {
		logger.V(1).Info("Starting stage 2")
		t, err := expand(s.opts.PRG, seeds, l)
		if err != nil {
			return err
		}

		u := new(bitmatrix.BitMatrix)
		if err := recvBinary(ch, u); err != nil {
			return err
		}
		if err := checkShape(u, "U", k, l); err != nil {
			return err
		}

		for i := 0; i < k; i++ {
			if delta.Test(i) {
				if err := t.Row(i).Xor(u.Row(i)); err != nil {
					return err
				}
			}
		}
		q = t.Transpose()

		timer, mem = printStageStats(logger, 2, timer, start, mem)
		logger.V(1).Info("Finished stage 2")
		return nil
	}

	// stage 3: read chi, x_sum and t_sum and verify
	// t_sum = x_sum·Δ ⊕ ⊕_j q_j·chi_j
	stage3 := func() error {
		logger.V(1).Info("Starting stage 3")
		chi := new(bitmatrix.BitMatrix)
		if err := recvBinary(ch, chi); err != nil {
			return err
		}
		if err := checkShape(chi, "chi", l, k); err != nil {
			return err
		}

		xSum, tSum := new(bitmatrix.BitVector), new(bitmatrix.BitVector)
		if err := recvBinary(ch, xSum); err != nil {
			return err
		}
		if err := recvBinary(ch, tSum); err != nil {
			return err
		}
		if xSum.Len() != k || tSum.Len() != k {
			return errors.Wrapf(ErrTransport, "check sums of (%d, %d) bits, expected %d", xSum.Len(), tSum.Len(), k)
		}

		qSum, err := weightedSum(q, chi, k)
		if err != nil {
			return err
		}
		if err := poly.Mul(qSum, xSum, delta); err != nil {
			return err
		}
		if !poly.Equal(qSum, tSum) {
			return ErrCheatDetected
		}

		timer, mem = printStageStats(logger, 3, timer, start, mem)
		logger.V(1).Info("Finished stage 3")
		return nil
	}

	// stage 4: encrypt m0_j under H(j, q_j) and m1_j under H(j, q_j ⊕ Δ)
	stage4 := func() error {
		logger.V(1).Info("Starting stage 4")
		c0, c1 := make([][]byte, n), make([][]byte, n)
		err := util.ConcurrentRange(n, func(lo, hi int) error {
			kdf := s.suite.kdf()
			for j := lo; j < hi; j++ {
				row := q.Row(j)
				b, err := row.Bytes()
				if err != nil {
					return err
				}
				v0 := kdf.RowKey(uint64(j), b)

				flipped := row.Clone()
				if err := flipped.Xor(delta); err != nil {
					return err
				}
				if b, err = flipped.Bytes(); err != nil {
					return err
				}
				v1 := kdf.RowKey(uint64(j), b)

				if c0[j], err = s.suite.cipher.Seal(v0, messages[j][0]); err != nil {
					return errors.Wrap(err, "error encrypting sender message")
				}
				if c1[j], err = s.suite.cipher.Seal(v1, messages[j][1]); err != nil {
					return errors.Wrap(err, "error encrypting sender message")
				}
			}
			return nil
		})
		if err != nil {
			return err
		}

		if err := sendRecord(ch, &ciphertextsEnvelope{C: c0}); err != nil {
			return err
		}
		if err := sendRecord(ch, &ciphertextsEnvelope{C: c1}); err != nil {
			return err
		}

		_, _ = printStageStats(logger, 4, timer, start, mem)
		logger.V(1).Info("Finished stage 4")
		return nil
	}

	for _, stage := range []func() error{stage1, stage2, stage3, stage4} {
		if err := util.Sel(ctx, stage); err != nil {
			return err
		}
	}

	return nil
}

// Exchange obtains messages[j][choices[j]] for every choice from the
// extension sender on the other end of ch. The number of choices must be
// a positive multiple of 64.
func (r *ExtReceiver[S]) Exchange(ctx context.Context, choices []bool, ch Channel) (Payload, error) {
	if err := checkCount(len(choices)); err != nil {
		return nil, err
	}

	logger := logr.FromContextOrDiscard(ctx).WithValues("protocol", protocolKOS, "role", "receiver")

	// statistics
	start := time.Now()
	timer := start
	var mem uint64

	n, k := len(choices), r.opts.Security
	l := n + k + r.opts.Statistical

	var seeds [2][][crypto.SeedLength]byte
	var x *bitmatrix.BitVector
	var t *bitmatrix.BitMatrix
	var payload Payload

	// stage 1: agree on the transaction and hand both seeds of every base
	// OT to the sender, which picks one with each bit of Δ
	stage1 := func() error {
		logger.V(1).Info("Starting stage 1")
		if err := agreeAsReceiver(ch, newProperties(protocolKOS, n, r.opts)); err != nil {
			return err
		}

		seeds[0] = make([][crypto.SeedLength]byte, k)
		seeds[1] = make([][crypto.SeedLength]byte, k)
		pairs := make(Message, k)
		for i := 0; i < k; i++ {
			for b := range seeds {
				if _, err := rand.Read(seeds[b][i][:]); err != nil {
					return err
				}
				pairs[i][b] = seeds[b][i][:]
			}
		}

		if err := r.base.Exchange(ctx, pairs, ch); err != nil {
			return errors.Wrap(err, "base OT")
		}

		timer, mem = printStageStats(logger, 1, start, start, 0)
		logger.V(1).Info("Finished stage 1")
		return nil
	}

	// stage 2: pad the choices with K+S random bits into x, send
	// u_i = x ⊕ t0_i ⊕ t1_i and keep T0 transposed
	stage2 := func() error {
		logger.V(1).Info("Starting stage 2")
		bonus, err := bitmatrix.RandomBitVector(l - n)
		if err != nil {
			return err
		}
		padded := append(append(make([]bool, 0, l), choices...), bonus.Bools()...)
		x = bitmatrix.FromBools(padded)

		t0, err := expand(r.opts.PRG, seeds[0], l)
		if err != nil {
			return err
		}
		t1, err := expand(r.opts.PRG, seeds[1], l)
		if err != nil {
			return err
		}

		err = util.ConcurrentRange(k, func(lo, hi int) error {
			for i := lo; i < hi; i++ {
				u := t1.Row(i)
				if err := u.Xor(t0.Row(i)); err != nil {
					return err
				}
				if err := u.Xor(x); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return err
		}

		// t1 now holds U
		if err := sendBinary(ch, t1); err != nil {
			return err
		}

		t = t0.Transpose()

		timer, mem = printStageStats(logger, 2, timer, start, mem)
		logger.V(1).Info("Finished stage 2")
		return nil
	}

	// stage 3: send the random challenges chi with
	// x_sum = ⊕_{x_j = 1} chi_j and t_sum = ⊕_j t_j·chi_j
	stage3 := func() error {
		logger.V(1).Info("Starting stage 3")
		chi, err := bitmatrix.RandomBitMatrix(l, k)
		if err != nil {
			return err
		}

		xSum := poly.New(k)
		for j := 0; j < l; j++ {
			if x.Test(j) {
				if err := poly.Accumulate(xSum, chi.Row(j)); err != nil {
					return err
				}
			}
		}

		tSum, err := weightedSum(t, chi, k)
		if err != nil {
			return err
		}

		if err := sendBinary(ch, chi); err != nil {
			return err
		}
		if err := sendBinary(ch, xSum); err != nil {
			return err
		}
		if err := sendBinary(ch, tSum); err != nil {
			return err
		}

		timer, mem = printStageStats(logger, 3, timer, start, mem)
		logger.V(1).Info("Finished stage 3")
		return nil
	}

	// stage 4: read both ciphertext arrays and open the chosen message of
	// each instance with H(j, t_j)
	stage4 := func() error {
		logger.V(1).Info("Starting stage 4")
		var c [2]ciphertextsEnvelope
		for b := range c {
			if err := recvRecord(ch, &c[b]); err != nil {
				return err
			}
			if len(c[b].C) != n {
				return errors.Wrapf(ErrTransport, "received %d ciphertexts, expected %d", len(c[b].C), n)
			}
		}

		out := make(Payload, n)
		err := util.ConcurrentRange(n, func(lo, hi int) error {
			kdf := r.suite.kdf()
			for j := lo; j < hi; j++ {
				b, err := t.Row(j).Bytes()
				if err != nil {
					return err
				}
				v := kdf.RowKey(uint64(j), b)

				ct := c[0].C[j]
				if choices[j] {
					ct = c[1].C[j]
				}
				if out[j], err = r.suite.cipher.Open(v, ct); err != nil {
					return errors.Wrapf(ErrDecode, "instance %d: %v", j, err)
				}
			}
			return nil
		})
		if err != nil {
			return err
		}
		payload = out

		_, _ = printStageStats(logger, 4, timer, start, mem)
		logger.V(1).Info("Finished stage 4")
		return nil
	}

	for _, stage := range []func() error{stage1, stage2, stage3, stage4} {
		if err := util.Sel(ctx, stage); err != nil {
			return nil, err
		}
	}

	return payload, nil
}
