package ot

import (
	"encoding"

	"git.sr.ht/~sircmpwn/go-bare"
	"github.com/pkg/errors"
)

// envelopes exchanged as BARE records

type pointsEnvelope struct {
	Points [][]byte
}

type ciphertextPairsEnvelope struct {
	C0 [][]byte
	C1 [][]byte
}

type ciphertextsEnvelope struct {
	C [][]byte
}

// send hands frame to the channel, tagging failures as transport errors.
func send(ch Channel, frame []byte) error {
	if err := ch.Send(frame); err != nil {
		return errors.Wrapf(ErrTransport, "send: %v", err)
	}
	return nil
}

// recv reads the next frame, tagging failures as transport errors.
func recv(ch Channel) ([]byte, error) {
	frame, err := ch.Recv()
	if err != nil {
		return nil, errors.Wrapf(ErrTransport, "recv: %v", err)
	}
	return frame, nil
}

// sendRecord marshals v into a BARE record and sends it.
func sendRecord(ch Channel, v interface{}) error {
	frame, err := bare.Marshal(v)
	if err != nil {
		return errors.Wrapf(ErrTransport, "encode: %v", err)
	}
	return send(ch, frame)
}

// recvRecord reads a BARE record into v.
func recvRecord(ch Channel, v interface{}) error {
	frame, err := recv(ch)
	if err != nil {
		return err
	}
	if err := bare.Unmarshal(frame, v); err != nil {
		return errors.Wrapf(ErrTransport, "decode: %v", err)
	}
	return nil
}

// sendBinary sends the binary encoding of v.
func sendBinary(ch Channel, v encoding.BinaryMarshaler) error {
	frame, err := v.MarshalBinary()
	if err != nil {
		return errors.Wrapf(ErrTransport, "encode: %v", err)
	}
	return send(ch, frame)
}

// recvBinary decodes the next frame into v.
func recvBinary(ch Channel, v encoding.BinaryUnmarshaler) error {
	frame, err := recv(ch)
	if err != nil {
		return err
	}
	if err := v.UnmarshalBinary(frame); err != nil {
		return errors.Wrapf(ErrTransport, "decode: %v", err)
	}
	return nil
}
