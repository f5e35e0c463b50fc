package frame

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// LengthPrefixSize is the size of the big-endian length that precedes every
// frame payload.
const LengthPrefixSize = 4

var (
	ErrShortPrefix    = errors.New("frame: short length prefix")
	ErrShortPayload   = errors.New("frame: short payload")
	ErrFrameTooLarge  = errors.New("frame: payload too large")
	ErrNegativeLength = errors.New("frame: negative length prefix")
)

// Limits constrains frame memory use in both directions.
type Limits struct {
	MaxPayloadBytes uint32
}

func DefaultLimits() Limits {
	return Limits{MaxPayloadBytes: 16 * 1024 * 1024}
}

// ReadFrame reads one length-prefixed payload. io.EOF is returned unchanged
// when the stream ends cleanly on a frame boundary. Any other error means the
// stream can no longer be trusted to be aligned on a frame boundary.
func ReadFrame(r io.Reader, limits Limits) ([]byte, error) {
	var prefix [LengthPrefixSize]byte
	if _, err := io.ReadFull(r, prefix[:]); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, ErrShortPrefix
		}
		return nil, err
	}
	n := int32(binary.BigEndian.Uint32(prefix[:]))
	if n < 0 {
		return nil, fmt.Errorf("%w: %d", ErrNegativeLength, n)
	}
	if limits.MaxPayloadBytes > 0 && uint32(n) > limits.MaxPayloadBytes {
		return nil, fmt.Errorf("%w: %d > %d", ErrFrameTooLarge, n, limits.MaxPayloadBytes)
	}
	payload := make([]byte, n)
	if _, err := io.ReadFull(r, payload); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: want %d bytes", ErrShortPayload, n)
		}
		return nil, err
	}
	return payload, nil
}

// WriteFrame writes the length prefix and payload with a single Write call so
// a writer shared under a mutex never interleaves partial frames.
func WriteFrame(w io.Writer, payload []byte, limits Limits) error {
	buf, err := Append(nil, payload, limits)
	if err != nil {
		return err
	}
	_, err = w.Write(buf)
	return err
}

// Append appends the encoded frame for payload to dst.
func Append(dst, payload []byte, limits Limits) ([]byte, error) {
	if uint64(len(payload)) > uint64(^uint32(0)>>1) {
		return nil, fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, len(payload))
	}
	if limits.MaxPayloadBytes > 0 && uint64(len(payload)) > uint64(limits.MaxPayloadBytes) {
		return nil, fmt.Errorf("%w: %d > %d", ErrFrameTooLarge, len(payload), limits.MaxPayloadBytes)
	}
	dst = binary.BigEndian.AppendUint32(dst, uint32(len(payload)))
	return append(dst, payload...), nil
}

// Desynchronized reports whether err leaves the reader unable to find the
// next frame boundary.
func Desynchronized(err error) bool {
	return errors.Is(err, ErrShortPrefix) ||
		errors.Is(err, ErrShortPayload) ||
		errors.Is(err, ErrFrameTooLarge) ||
		errors.Is(err, ErrNegativeLength)
}
