package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/danmuck/proxywire/internal/protocol/bag"
)

// DecodeError describes a payload that could not be turned into a message. It
// carries whatever correlation data could be salvaged so a session can fail
// the waiting caller instead of letting it time out.
type DecodeError struct {
	Type         MessageType
	RequestID    int64
	HasRequestID bool
	Err          error
}

func (e *DecodeError) Error() string {
	if e.HasRequestID {
		return fmt.Sprintf("decode %s request_id=%d: %v", e.Type, e.RequestID, e.Err)
	}
	return fmt.Sprintf("decode %s: %v", e.Type, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// AsDecodeError extracts a *DecodeError from err.
func AsDecodeError(err error) (*DecodeError, bool) {
	var de *DecodeError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// DecodeMessage parses a frame payload into a registered message type.
//
// Errors are *DecodeError and unwrap to ErrUnknownMessageType or
// ErrMalformedMessage. Unknown properties are ignored.
func DecodeMessage(reg *Registry, payload []byte) (Message, error) {
	if len(payload) < TagSize {
		return nil, &DecodeError{Err: fmt.Errorf("%w: payload %d bytes, missing tag", ErrMalformedMessage, len(payload))}
	}
	t := MessageType(int32(binary.BigEndian.Uint32(payload[:TagSize])))
	b, bagErr := bag.Decode(payload[TagSize:])
	derr := &DecodeError{Type: t}
	salvageRequestID(derr, b)

	d, err := reg.Lookup(t)
	if err != nil {
		derr.Err = err
		return nil, derr
	}
	if bagErr != nil {
		derr.Err = fmt.Errorf("%w: %w", ErrMalformedMessage, bagErr)
		return nil, derr
	}
	schema, err := reg.SchemaFor(t)
	if err != nil {
		derr.Err = err
		return nil, derr
	}
	if _, err := CheckProps(schema, b); err != nil {
		derr.Err = err
		return nil, derr
	}
	msg := d.New()
	if err := msg.ReadProps(b); err != nil {
		if !errors.Is(err, ErrMalformedMessage) {
			err = fmt.Errorf("%w: %w", ErrMalformedMessage, err)
		}
		derr.Err = err
		return nil, derr
	}
	return msg, nil
}

func salvageRequestID(derr *DecodeError, b *bag.Bag) {
	v, ok := b.Get(PropRequestID)
	if !ok || v.Kind != bag.KindInt {
		return
	}
	derr.RequestID = v.Int
	derr.HasRequestID = true
}
