package ot

import (
	"encoding/binary"
	"io"
	"net"
	"sync"

	"github.com/pkg/errors"
)

// MaxFrameSize bounds the frames a stream channel accepts.
const MaxFrameSize = 1 << 30

// Channel is a duplex, ordered and reliable transport of binary frames
// dedicated to one exchange. Send and Recv block until the frame is
// handed over.
type Channel interface {
	Send(frame []byte) error
	Recv() ([]byte, error)
}

// streamChannel frames messages over a byte stream with a 4-byte big-endian
// length prefix.
type streamChannel struct {
	rw io.ReadWriter
}

// NewStreamChannel returns a Channel over rw, typically a net.Conn.
func NewStreamChannel(rw io.ReadWriter) Channel {
	return &streamChannel{rw: rw}
}

func (c *streamChannel) Send(frame []byte) error {
	if len(frame) > MaxFrameSize {
		return errors.Errorf("frame of %d bytes exceeds the maximum of %d", len(frame), MaxFrameSize)
	}

	var hdr [4]byte
	binary.BigEndian.PutUint32(hdr[:], uint32(len(frame)))
	bufs := net.Buffers{hdr[:], frame}
	_, err := bufs.WriteTo(c.rw)
	return err
}

func (c *streamChannel) Recv() ([]byte, error) {
	var hdr [4]byte
	if _, err := io.ReadFull(c.rw, hdr[:]); err != nil {
		return nil, err
	}

	n := binary.BigEndian.Uint32(hdr[:])
	if n > MaxFrameSize {
		return nil, errors.Errorf("frame of %d bytes exceeds the maximum of %d", n, MaxFrameSize)
	}

	frame := make([]byte, n)
	if _, err := io.ReadFull(c.rw, frame); err != nil {
		return nil, err
	}
	return frame, nil
}

// LocalChannel is one end of an in-memory channel pair. Frames are handed
// over synchronously, like on a net.Pipe.
type LocalChannel struct {
	in   <-chan []byte
	out  chan<- []byte
	done chan struct{}
	peer chan struct{}
	once *sync.Once
}

// NewLocalChannels returns the two connected ends of an in-memory channel.
func NewLocalChannels() (*LocalChannel, *LocalChannel) {
	ab, ba := make(chan []byte), make(chan []byte)
	aDone, bDone := make(chan struct{}), make(chan struct{})
	a := &LocalChannel{in: ba, out: ab, done: aDone, peer: bDone, once: new(sync.Once)}
	b := &LocalChannel{in: ab, out: ba, done: bDone, peer: aDone, once: new(sync.Once)}
	return a, b
}

// Send copies frame to the peer.
func (c *LocalChannel) Send(frame []byte) error {
	f := make([]byte, len(frame))
	copy(f, frame)

	select {
	case c.out <- f:
		return nil
	case <-c.done:
		return io.ErrClosedPipe
	case <-c.peer:
		return io.ErrClosedPipe
	}
}

// Recv waits for the next frame from the peer.
func (c *LocalChannel) Recv() ([]byte, error) {
	select {
	case f := <-c.in:
		return f, nil
	case <-c.done:
		return nil, io.ErrClosedPipe
	case <-c.peer:
		return nil, io.EOF
	}
}

// Close unblocks both ends. It is safe to call more than once.
func (c *LocalChannel) Close() error {
	c.once.Do(func() { close(c.done) })
	return nil
}
