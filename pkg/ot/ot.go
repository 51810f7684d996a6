// Package ot exposes the oblivious transfer engines: two batched base OTs on
// elliptic curves and an OT extension bootstrapped from either of them.
//
// A sender holding pairs of messages and a receiver holding one choice bit
// per pair run Exchange on the two ends of a Channel. The receiver learns
// exactly the chosen message of every pair, the sender learns nothing about
// the choices.
package ot

import (
	"context"
	"fmt"
	"io"

	"github.com/optable/oblivious/internal/ot"
	"github.com/optable/oblivious/pkg/log"
)

const (
	Simplest = iota
	NaorPinkas
	Extension
)

// Protocol is the oblivious transfer protocol enumeration
type Protocol int

var (
	ProtocolSimplest   Protocol = Simplest
	ProtocolNaorPinkas Protocol = NaorPinkas
	ProtocolExtension  Protocol = Extension
)

type (
	// Pair holds the message for choice bit 0 and the message for choice bit 1.
	Pair = ot.Pair
	// Message is the sequence of pairs held by a sender.
	Message = ot.Message
	// Payload is what a receiver obtains, one message per choice.
	Payload = ot.Payload
	// Channel is the framed transport between the two parties.
	Channel = ot.Channel
	// LocalChannel is one end of an in-memory channel pair.
	LocalChannel = ot.LocalChannel
	// Options selects the primitives of an exchange.
	Options = ot.Options
)

var (
	ErrPrecondition        = ot.ErrPrecondition
	ErrTransactionMismatch = ot.ErrTransactionMismatch
	ErrTransport           = ot.ErrTransport
	ErrCheatDetected       = ot.ErrCheatDetected
	ErrDecode              = ot.ErrDecode
)

// Sender is the sender side of an OT exchange
type Sender interface {
	Exchange(ctx context.Context, messages Message, ch Channel) error
}

// Receiver side of an OT exchange
type Receiver interface {
	Exchange(ctx context.Context, choices []bool, ch Channel) (Payload, error)
}

// DefaultOptions returns the simplest base OT, ristretto, blake3, AES-GCM with K=256 and S=128.
func DefaultOptions() Options {
	return ot.DefaultOptions()
}

// NewStreamChannel frames messages over rw, typically a net.Conn.
func NewStreamChannel(rw io.ReadWriter) Channel {
	return ot.NewStreamChannel(rw)
}

// NewLocalChannels returns both ends of an in-memory channel.
func NewLocalChannels() (*LocalChannel, *LocalChannel) {
	return ot.NewLocalChannels()
}

func NewSender(protocol Protocol, opts Options) (Sender, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	switch protocol {
	case ProtocolSimplest:
		s, err := ot.NewSimplestSender(opts)
		if err != nil {
			return nil, err
		}
		return namedSender{s, protocol.String()}, nil
	case ProtocolNaorPinkas:
		s, err := ot.NewNaorPinkasSender(opts)
		if err != nil {
			return nil, err
		}
		return namedSender{s, protocol.String()}, nil
	case ProtocolExtension:
		// the extension sender receives in the base OT
		base, err := ot.NewBaseReceiver(opts)
		if err != nil {
			return nil, err
		}
		s, err := ot.NewExtSender(base, opts)
		if err != nil {
			return nil, err
		}
		return namedSender{s, protocol.String()}, nil

	default:
		return nil, fmt.Errorf("OT sender protocol %d not supported", protocol)
	}
}

func NewReceiver(protocol Protocol, opts Options) (Receiver, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	switch protocol {
	case ProtocolSimplest:
		r, err := ot.NewSimplestReceiver(opts)
		if err != nil {
			return nil, err
		}
		return namedReceiver{r, protocol.String()}, nil
	case ProtocolNaorPinkas:
		r, err := ot.NewNaorPinkasReceiver(opts)
		if err != nil {
			return nil, err
		}
		return namedReceiver{r, protocol.String()}, nil
	case ProtocolExtension:
		base, err := ot.NewBaseSender(opts)
		if err != nil {
			return nil, err
		}
		r, err := ot.NewExtReceiver(base, opts)
		if err != nil {
			return nil, err
		}
		return namedReceiver{r, protocol.String()}, nil

	default:
		return nil, fmt.Errorf("OT receiver protocol %d not supported", protocol)
	}
}

// ParseProtocol maps a protocol name, as printed by String, to a Protocol.
func ParseProtocol(name string) (Protocol, error) {
	switch name {
	case "simplest":
		return ProtocolSimplest, nil
	case "naor-pinkas":
		return ProtocolNaorPinkas, nil
	case "extension", "kos":
		return ProtocolExtension, nil
	default:
		return 0, fmt.Errorf("unsupported protocol %q", name)
	}
}

func (p Protocol) String() string {
	switch p {
	case ProtocolSimplest:
		return "simplest"
	case ProtocolNaorPinkas:
		return "naor-pinkas"
	case ProtocolExtension:
		return "extension"
	default:
		return "undefined"
	}
}

// namedSender and namedReceiver scope the context logger of an exchange to
// its protocol.
type namedSender struct {
	ot.ObliviousSender
	name string
}

func (n namedSender) Exchange(ctx context.Context, messages Message, ch Channel) error {
	ctx = log.ContextWithLogger(ctx, log.GetLoggerFromContextWithName(ctx, n.name))
	return n.ObliviousSender.Exchange(ctx, messages, ch)
}

type namedReceiver struct {
	ot.ObliviousReceiver
	name string
}

func (n namedReceiver) Exchange(ctx context.Context, choices []bool, ch Channel) (Payload, error) {
	ctx = log.ContextWithLogger(ctx, log.GetLoggerFromContextWithName(ctx, n.name))
	return n.ObliviousReceiver.Exchange(ctx, choices, ch)
}
