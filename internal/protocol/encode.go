package protocol

import (
	"encoding/binary"
	"fmt"

	"github.com/danmuck/proxywire/internal/protocol/bag"
)

// TagSize is the size of the message tag that prefixes every payload.
const TagSize = 4

// EncodeMessage serializes msg as a frame payload: the big-endian tag followed
// by the encoded property bag. Output is deterministic for equal messages.
func EncodeMessage(msg Message) ([]byte, error) {
	if msg == nil {
		return nil, fmt.Errorf("%w: nil message", ErrMalformedMessage)
	}
	b := bag.New()
	msg.WriteProps(b)
	body, err := bag.Encode(b)
	if err != nil {
		return nil, fmt.Errorf("%w: encode %s: %w", ErrMalformedMessage, msg.Type(), err)
	}
	out := make([]byte, TagSize, TagSize+len(body))
	binary.BigEndian.PutUint32(out, uint32(msg.Type()))
	return append(out, body...), nil
}
