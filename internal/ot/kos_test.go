package ot

import (
	"context"
	"testing"
	"time"

	"git.sr.ht/~sircmpwn/go-bare"
	"github.com/optable/oblivious/internal/bitmatrix"
	"github.com/optable/oblivious/internal/crypto"
	"github.com/optable/oblivious/internal/poly"
	"github.com/pkg/errors"
)

func newExtPair(t testing.TB, opts Options) (*ExtSender[ObliviousReceiver], *ExtReceiver[ObliviousSender]) {
	baseS, err := NewBaseSender(opts)
	if err != nil {
		t.Fatal(err)
	}
	baseR, err := NewBaseReceiver(opts)
	if err != nil {
		t.Fatal(err)
	}

	s, err := NewExtSender(baseR, opts)
	if err != nil {
		t.Fatal(err)
	}
	r, err := NewExtReceiver(baseS, opts)
	if err != nil {
		t.Fatal(err)
	}
	return s, r
}

func TestExtensionOneBlock(t *testing.T) {
	s, r := newExtPair(t, DefaultOptions())
	messages := genMessages(t, 64, 8)
	choices := genChoices(len(messages))

	res := overPipe(context.Background(), s, r, messages, choices)
	checkPayload(t, res, messages, choices)
}

func TestExtension(t *testing.T) {
	messages := genMessages(t, 4096, 32)
	choices := genChoices(len(messages))

	for _, prg := range crypto.PRGs() {
		opts := DefaultOptions()
		opts.PRG = prg
		s, r := newExtPair(t, opts)

		start := time.Now()
		res := overPipe(context.Background(), s, r, messages, choices)
		t.Logf("Time taken for %d OTs with %s expansion: %v", len(messages), prg, time.Since(start))
		checkPayload(t, res, messages, choices)
	}
}

func TestExtensionBases(t *testing.T) {
	messages := genMessages(t, 256, 16)
	choices := genChoices(len(messages))

	for _, base := range []string{BaseSimplest, BaseNaorPinkas} {
		opts := DefaultOptions()
		opts.Base = base
		s, r := newExtPair(t, opts)

		res := overPipe(context.Background(), s, r, messages, choices)
		if res.senderErr != nil || res.receiverErr != nil {
			t.Fatalf("%s: sender %v, receiver %v", base, res.senderErr, res.receiverErr)
		}
		checkPayload(t, res, messages, choices)
	}
}

func TestExtensionBaseMismatch(t *testing.T) {
	sOpts, rOpts := DefaultOptions(), DefaultOptions()
	rOpts.Base = BaseNaorPinkas
	s, _ := newExtPair(t, sOpts)
	_, r := newExtPair(t, rOpts)

	res := overPipe(context.Background(), s, r, genMessages(t, 64, 8), genChoices(64))
	if !errors.Is(res.senderErr, ErrTransactionMismatch) || !errors.Is(res.receiverErr, ErrTransactionMismatch) {
		t.Fatalf("expected ErrTransactionMismatch on both sides, got %v and %v", res.senderErr, res.receiverErr)
	}
}

func TestExtensionSuites(t *testing.T) {
	messages := genMessages(t, 128, 16)
	choices := genChoices(len(messages))

	for _, tc := range []Options{
		{Base: BaseSimplest, Curve: crypto.Ristretto255, Cipher: crypto.ChaCha20Poly1305, Hash: crypto.SHA3, PRG: crypto.PRGChaCha20, Security: 128, Statistical: 64},
		{Base: BaseNaorPinkas, Curve: crypto.Edwards25519, Cipher: crypto.AESGCM, Hash: crypto.Blake2b, PRG: crypto.PRGAESCtr, Security: 256, Statistical: 0},
		{Base: BaseSimplest, Curve: crypto.P384, Cipher: crypto.AESGCM, Hash: crypto.SHA256, PRG: crypto.PRGBlake3, Security: 192, Statistical: 128},
	} {
		s, r := newExtPair(t, tc)
		res := overLocal(context.Background(), s, r, messages, choices)
		if res.senderErr != nil || res.receiverErr != nil {
			t.Fatalf("%+v: sender %v, receiver %v", tc, res.senderErr, res.receiverErr)
		}
		checkPayload(t, res, messages, choices)
	}
}

func TestExtensionVariableLength(t *testing.T) {
	messages := genMessages(t, 192, 0)
	for i := range messages {
		size := 8 * (1 + i%6)
		messages[i] = genMessages(t, 1, size)[0]
	}
	choices := genChoices(len(messages))

	s, r := newExtPair(t, DefaultOptions())
	res := overLocal(context.Background(), s, r, messages, choices)
	checkPayload(t, res, messages, choices)
}

// uRewriter flips column 5 of the K×l matrix U on its way to the sender,
// so that the receiver commits to a different bit than the one the
// challenges are summed over.
type uRewriter struct {
	Channel
	k, l int
}

func (c uRewriter) Send(frame []byte) error {
	var m bitmatrix.BitMatrix
	if err := m.UnmarshalBinary(frame); err == nil {
		if rows, cols := m.Dims(); rows == c.k && cols == c.l {
			for _, row := range m.Rows() {
				row.Set(5, !row.Test(5))
			}
			if frame, err = m.MarshalBinary(); err != nil {
				return err
			}
		}
	}
	return c.Channel.Send(frame)
}

// ciphertextCorrupter flips the first byte of instance 0 in every
// ciphertext list of n entries the receiver reads.
type ciphertextCorrupter struct {
	Channel
	n int
}

func (c ciphertextCorrupter) Recv() ([]byte, error) {
	frame, err := c.Channel.Recv()
	if err != nil {
		return frame, err
	}

	var env ciphertextsEnvelope
	if bare.Unmarshal(frame, &env) != nil || len(env.C) != c.n || len(env.C[0]) == 0 {
		return frame, nil
	}
	env.C[0][0] ^= 1
	return bare.Marshal(&env)
}

func TestExtensionCheatDetected(t *testing.T) {
	opts := DefaultOptions()
	s, r := newExtPair(t, opts)
	messages := genMessages(t, 128, 16)
	choices := genChoices(len(messages))

	l := len(messages) + opts.Security + opts.Statistical
	res := overLocalVia(context.Background(), s, r, messages, choices, func(ch Channel) Channel {
		return uRewriter{Channel: ch, k: opts.Security, l: l}
	})
	if !errors.Is(res.senderErr, ErrCheatDetected) {
		t.Fatalf("sender: expected ErrCheatDetected, got %v", res.senderErr)
	}
	if res.receiverErr == nil {
		t.Fatal("receiver should fail once the sender aborts")
	}
}

func TestExtensionDecodeFailure(t *testing.T) {
	s, r := newExtPair(t, DefaultOptions())
	messages := genMessages(t, 128, 24)
	choices := genChoices(len(messages))

	res := overLocalVia(context.Background(), s, r, messages, choices, func(ch Channel) Channel {
		return ciphertextCorrupter{Channel: ch, n: len(messages)}
	})
	if res.senderErr != nil {
		t.Fatalf("sender: %v", res.senderErr)
	}
	if !errors.Is(res.receiverErr, ErrDecode) {
		t.Fatalf("receiver: expected ErrDecode, got %v", res.receiverErr)
	}
}

func TestExtensionPreconditions(t *testing.T) {
	s, r := newExtPair(t, DefaultOptions())

	for name, messages := range map[string]Message{
		"empty":        nil,
		"short":        genMessages(t, 64, 4),
		"unaligned":    genMessages(t, 64, 12),
		"count":        genMessages(t, 100, 8),
		"unequal pair": append(genMessages(t, 63, 8), Pair{make([]byte, 8), make([]byte, 16)}),
	} {
		ch := new(failingChannel)
		if err := s.Exchange(context.Background(), messages, ch); !errors.Is(err, ErrPrecondition) {
			t.Fatalf("%s: expected ErrPrecondition, got %v", name, err)
		}
		if ch.calls != 0 {
			t.Fatalf("%s: channel used %d times", name, ch.calls)
		}
	}

	for _, n := range []int{0, 1, 63, 65, 1000} {
		ch := new(failingChannel)
		if _, err := r.Exchange(context.Background(), genChoices(n), ch); !errors.Is(err, ErrPrecondition) {
			t.Fatalf("%d choices: expected ErrPrecondition, got %v", n, err)
		}
		if ch.calls != 0 {
			t.Fatalf("%d choices: channel used %d times", n, ch.calls)
		}
	}
}

func TestExtensionTransactionMismatch(t *testing.T) {
	sOpts, rOpts := DefaultOptions(), DefaultOptions()
	rOpts.PRG = crypto.PRGAESCtr
	s, _ := newExtPair(t, sOpts)
	_, r := newExtPair(t, rOpts)

	res := overPipe(context.Background(), s, r, genMessages(t, 64, 8), genChoices(64))
	if !errors.Is(res.senderErr, ErrTransactionMismatch) {
		t.Fatalf("sender: expected ErrTransactionMismatch, got %v", res.senderErr)
	}
	if !errors.Is(res.receiverErr, ErrTransactionMismatch) {
		t.Fatalf("receiver: expected ErrTransactionMismatch, got %v", res.receiverErr)
	}
}

func TestNewExtensionInvalidOptions(t *testing.T) {
	opts := DefaultOptions()
	baseS, baseR := newSimplestPair(t, opts)

	opts.Security = 96
	if _, err := NewExtSender(baseR, opts); err == nil {
		t.Fatal("expected an error for a security parameter of 96")
	}
	if _, err := NewExtReceiver(baseS, opts); err == nil {
		t.Fatal("expected an error for a security parameter of 96")
	}
}

func TestCheckSumsAgree(t *testing.T) {
	// t_j = q_j ⊕ x_j·Δ gives t_sum = q_sum ⊕ x_sum·Δ
	const k, l = 128, 320
	q, err := bitmatrix.RandomBitMatrix(l, k)
	if err != nil {
		t.Fatal(err)
	}
	chi, err := bitmatrix.RandomBitMatrix(l, k)
	if err != nil {
		t.Fatal(err)
	}
	delta, err := bitmatrix.RandomBitVector(k)
	if err != nil {
		t.Fatal(err)
	}
	x, err := bitmatrix.RandomBitVector(l)
	if err != nil {
		t.Fatal(err)
	}

	rows := make([]*bitmatrix.BitVector, l)
	xSum := bitmatrix.NewBitVector(k)
	for j := range rows {
		rows[j] = q.Row(j).Clone()
		if x.Test(j) {
			if err := rows[j].Xor(delta); err != nil {
				t.Fatal(err)
			}
			if err := xSum.Xor(chi.Row(j)); err != nil {
				t.Fatal(err)
			}
		}
	}
	tm, err := bitmatrix.NewBitMatrix(rows)
	if err != nil {
		t.Fatal(err)
	}

	tSum, err := weightedSum(tm, chi, k)
	if err != nil {
		t.Fatal(err)
	}
	qSum, err := weightedSum(q, chi, k)
	if err != nil {
		t.Fatal(err)
	}
	if err := poly.Mul(qSum, xSum, delta); err != nil {
		t.Fatal(err)
	}
	if !qSum.Equal(tSum) {
		t.Fatal("check sums disagree for an honest receiver")
	}
}

func BenchmarkExtension(b *testing.B) {
	s, r := newExtPair(b, DefaultOptions())
	messages := genMessages(b, 1<<14, 16)
	choices := genChoices(len(messages))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		res := overLocal(context.Background(), s, r, messages, choices)
		if res.senderErr != nil || res.receiverErr != nil {
			b.Fatal(res.senderErr, res.receiverErr)
		}
	}
}
