package ot

import (
	"context"

	"github.com/pkg/errors"
)

/*
OT interface
*/

var (
	// ErrPrecondition is returned before any network traffic when the
	// messages or choices do not satisfy the protocol constraints.
	ErrPrecondition = errors.New("oblivious transfer precondition violated")
	// ErrTransactionMismatch is returned when the two parties announce
	// different transaction properties.
	ErrTransactionMismatch = errors.New("transaction properties do not match")
	// ErrTransport wraps channel failures and malformed frames.
	ErrTransport = errors.New("transport failure")
	// ErrCheatDetected is returned by the extension sender when the
	// consistency check fails.
	ErrCheatDetected = errors.New("consistency check failed, receiver is cheating")
	// ErrDecode is returned by a receiver that cannot authenticate the
	// ciphertext of its choice.
	ErrDecode = errors.New("failed to decrypt chosen message")
)

// Pair represent a pair of messages where a receiver with choice bit 0
// obtains the first message and a receiver with choice bit 1 the second.
type Pair [2][]byte

// Message is the ordered sequence of pairs held by a sender.
type Message []Pair

// Payload holds one message per choice bit, payload[i] = messages[i][choices[i]].
type Payload [][]byte

// ObliviousSender is the sender side of a batch of 1-out-of-2 OTs.
type ObliviousSender interface {
	Exchange(ctx context.Context, messages Message, ch Channel) error
}

// ObliviousReceiver is the receiver side of a batch of 1-out-of-2 OTs.
type ObliviousReceiver interface {
	Exchange(ctx context.Context, choices []bool, ch Channel) (Payload, error)
}
