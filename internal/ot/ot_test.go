package ot

import (
	"bytes"
	"context"
	"crypto/rand"
	"fmt"
	mrand "math/rand"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
)

var errChannelUsed = errors.New("channel used")

// failingChannel fails every call and counts them.
type failingChannel struct {
	mu    sync.Mutex
	calls int
}

func (c *failingChannel) Send([]byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	return errChannelUsed
}

func (c *failingChannel) Recv() ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	return nil, errChannelUsed
}

type result struct {
	payload     Payload
	senderErr   error
	receiverErr error
}

// overPipe runs both parties over a net.Pipe and closes each end as soon as
// its party is done, so that a failing party never leaves the other blocked.
func overPipe(ctx context.Context, s ObliviousSender, r ObliviousReceiver, messages Message, choices []bool) result {
	a, b := net.Pipe()
	var res result
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		defer a.Close()
		res.senderErr = s.Exchange(ctx, messages, NewStreamChannel(a))
	}()

	go func() {
		defer wg.Done()
		defer b.Close()
		res.payload, res.receiverErr = r.Exchange(ctx, choices, NewStreamChannel(b))
	}()

	wg.Wait()
	return res
}

// overLocal runs both parties over an in-memory channel pair.
func overLocal(ctx context.Context, s ObliviousSender, r ObliviousReceiver, messages Message, choices []bool) result {
	return overLocalVia(ctx, s, r, messages, choices, func(ch Channel) Channel { return ch })
}

// overLocalVia is overLocal with the receiver's end of the channel passed
// through wrap.
func overLocalVia(ctx context.Context, s ObliviousSender, r ObliviousReceiver, messages Message, choices []bool, wrap func(Channel) Channel) result {
	a, b := NewLocalChannels()
	var res result
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		defer a.Close()
		res.senderErr = s.Exchange(ctx, messages, a)
	}()

	go func() {
		defer wg.Done()
		defer b.Close()
		res.payload, res.receiverErr = r.Exchange(ctx, choices, wrap(b))
	}()

	wg.Wait()
	return res
}

func genMessages(t testing.TB, n, size int) Message {
	messages := make(Message, n)
	for i := range messages {
		for b := range messages[i] {
			messages[i][b] = make([]byte, size)
			if _, err := rand.Read(messages[i][b]); err != nil {
				t.Fatal(err)
			}
		}
	}
	return messages
}

func genChoices(n int) []bool {
	r := mrand.New(mrand.NewSource(time.Now().UnixNano()))
	choices := make([]bool, n)
	for i := range choices {
		choices[i] = r.Intn(2) == 1
	}
	return choices
}

func checkPayload(t *testing.T, res result, messages Message, choices []bool) {
	t.Helper()
	if res.senderErr != nil {
		t.Fatalf("sender: %v", res.senderErr)
	}
	if res.receiverErr != nil {
		t.Fatalf("receiver: %v", res.receiverErr)
	}
	if len(res.payload) != len(choices) {
		t.Fatalf("received %d messages, want %d", len(res.payload), len(choices))
	}

	for i, m := range res.payload {
		want := messages[i][0]
		if choices[i] {
			want = messages[i][1]
		}
		if !bytes.Equal(m, want) {
			t.Fatalf("instance %d: got %x, want %x", i, m, want)
		}
	}
}

func TestStreamChannelFraming(t *testing.T) {
	a, b := net.Pipe()
	defer a.Close()
	defer b.Close()

	frames := [][]byte{[]byte("first"), {}, bytes.Repeat([]byte{0xab}, 70000)}
	errs := make(chan error, 1)
	go func() {
		ch := NewStreamChannel(a)
		for _, f := range frames {
			if err := ch.Send(f); err != nil {
				errs <- err
				return
			}
		}
		errs <- nil
	}()

	ch := NewStreamChannel(b)
	for i, want := range frames {
		got, err := ch.Recv()
		if err != nil {
			t.Fatalf("frame %d: %v", i, err)
		}
		if !bytes.Equal(got, want) {
			t.Fatalf("frame %d: got %d bytes, want %d", i, len(got), len(want))
		}
	}

	if err := <-errs; err != nil {
		t.Fatal(err)
	}
}

func TestStreamChannelRejectsOversizedFrame(t *testing.T) {
	// length prefix of 2^31
	buf := bytes.NewBuffer([]byte{0x80, 0, 0, 0})
	if _, err := NewStreamChannel(buf).Recv(); err == nil {
		t.Fatal("expected an error on an oversized frame")
	}
}

func TestLocalChannelCopiesFrames(t *testing.T) {
	a, b := NewLocalChannels()
	defer a.Close()

	frame := []byte("frame")
	go func() {
		_ = a.Send(frame)
		frame[0] = 'X'
	}()

	got, err := b.Recv()
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "frame" {
		t.Fatalf("got %q, want %q", got, "frame")
	}
}

func TestLocalChannelClose(t *testing.T) {
	a, b := NewLocalChannels()

	errs := make(chan error, 1)
	go func() {
		_, err := b.Recv()
		errs <- err
	}()

	a.Close()
	a.Close()

	select {
	case err := <-errs:
		if err == nil {
			t.Fatal("Recv should fail once the peer is closed")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Recv still blocked after the peer closed")
	}

	if err := a.Send([]byte("late")); err == nil {
		t.Fatal("Send should fail on a closed channel")
	}
}

func TestPropertiesMatch(t *testing.T) {
	base := newProperties(protocolKOS, 64, DefaultOptions())

	for _, tc := range []struct {
		field  string
		modify func(p *TransactionProperties)
	}{
		{"protocol", func(p *TransactionProperties) { p.Protocol = protocolSimplest }},
		{"base", func(p *TransactionProperties) { p.Base = BaseNaorPinkas }},
		{"count", func(p *TransactionProperties) { p.Count++ }},
		{"curve", func(p *TransactionProperties) { p.Curve = "p256" }},
		{"cipher", func(p *TransactionProperties) { p.Cipher = "chacha20-poly1305" }},
		{"hash", func(p *TransactionProperties) { p.Hash = "sha256" }},
		{"prg", func(p *TransactionProperties) { p.PRG = "aes-ctr" }},
		{"security", func(p *TransactionProperties) { p.Security = 128 }},
		{"statistical", func(p *TransactionProperties) { p.Statistical = 64 }},
	} {
		other := base
		tc.modify(&other)
		if err := base.match(other); !errors.Is(err, ErrTransactionMismatch) {
			t.Fatalf("%s: expected ErrTransactionMismatch, got %v", tc.field, err)
		}
	}

	if err := base.match(base); err != nil {
		t.Fatalf("identical properties should match, got %v", err)
	}
}

func TestOptionsValidate(t *testing.T) {
	if err := DefaultOptions().Validate(); err != nil {
		t.Fatal(err)
	}

	for i, modify := range []func(o *Options){
		func(o *Options) { o.Base = "iknp" },
		func(o *Options) { o.Curve = "secp256k1" },
		func(o *Options) { o.Cipher = "rot13" },
		func(o *Options) { o.Hash = "md5" },
		func(o *Options) { o.PRG = "rc4" },
		func(o *Options) { o.Security = 0 },
		func(o *Options) { o.Security = 100 },
		func(o *Options) { o.Statistical = 10 },
	} {
		o := DefaultOptions()
		modify(&o)
		if err := o.Validate(); err == nil {
			t.Fatalf("case %d: expected invalid options %+v", i, o)
		}
	}
}

func ExampleNewLocalChannels() {
	a, b := NewLocalChannels()
	defer a.Close()

	go func() { _ = a.Send([]byte("hello")) }()
	frame, _ := b.Recv()
	fmt.Println(string(frame))
	// Output: hello
}
