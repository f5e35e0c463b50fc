package bag

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

const (
	nameLenSize  = 2
	valueLenSize = 4
	nullLen      = -1
)

var (
	ErrShortHeader   = errors.New("bag: short property header")
	ErrShortValue    = errors.New("bag: short property value")
	ErrUnknownKind   = errors.New("bag: unknown value kind")
	ErrInvalidLength = errors.New("bag: invalid length")
	ErrInvalidBool   = errors.New("bag: invalid bool value")
	ErrDuplicateName = errors.New("bag: duplicate property name")
	ErrNameTooLong   = errors.New("bag: property name too long")
)

// Encode writes every property in ascending name order so equal bags always
// produce identical bytes.
func Encode(b *Bag) ([]byte, error) {
	names := b.Names()
	out := make([]byte, 0, encodedSize(b, names))
	for _, name := range names {
		if len(name) > math.MaxUint16 {
			return nil, fmt.Errorf("%w: %d bytes", ErrNameTooLong, len(name))
		}
		v := b.props[name]
		out = append(out, byte(v.Kind))
		out = binary.BigEndian.AppendUint16(out, uint16(len(name)))
		out = append(out, name...)
		switch v.Kind {
		case KindInt:
			out = binary.BigEndian.AppendUint64(out, uint64(v.Int))
		case KindBool:
			if v.Bool {
				out = append(out, 1)
			} else {
				out = append(out, 0)
			}
		case KindString:
			if v.Null {
				out = appendLen(out, nullLen)
				continue
			}
			if len(v.Str) > math.MaxInt32 {
				return nil, ErrInvalidLength
			}
			out = appendLen(out, int32(len(v.Str)))
			out = append(out, v.Str...)
		case KindBytes:
			if v.Null {
				out = appendLen(out, nullLen)
				continue
			}
			if len(v.Bytes) > math.MaxInt32 {
				return nil, ErrInvalidLength
			}
			out = appendLen(out, int32(len(v.Bytes)))
			out = append(out, v.Bytes...)
		default:
			return nil, fmt.Errorf("%w: %d for %q", ErrUnknownKind, v.Kind, name)
		}
	}
	return out, nil
}

// Decode parses an encoded bag. On failure it returns the properties decoded
// before the offending one together with the error.
func Decode(payload []byte) (*Bag, error) {
	b := New()
	i := 0
	for i < len(payload) {
		if len(payload)-i < 1+nameLenSize {
			return b, ErrShortHeader
		}
		kind := Kind(payload[i])
		nameLen := int(binary.BigEndian.Uint16(payload[i+1 : i+1+nameLenSize]))
		i += 1 + nameLenSize
		if len(payload)-i < nameLen {
			return b, ErrShortHeader
		}
		name := string(payload[i : i+nameLen])
		i += nameLen
		if _, dup := b.props[name]; dup {
			return b, fmt.Errorf("%w: %q", ErrDuplicateName, name)
		}

		var (
			v   Value
			n   int
			err error
		)
		switch kind {
		case KindInt:
			if len(payload)-i < 8 {
				return b, ErrShortValue
			}
			v = Value{Kind: KindInt, Int: int64(binary.BigEndian.Uint64(payload[i : i+8]))}
			n = 8
		case KindBool:
			if len(payload)-i < 1 {
				return b, ErrShortValue
			}
			switch payload[i] {
			case 0:
				v = Value{Kind: KindBool}
			case 1:
				v = Value{Kind: KindBool, Bool: true}
			default:
				return b, fmt.Errorf("%w: %d for %q", ErrInvalidBool, payload[i], name)
			}
			n = 1
		case KindString, KindBytes:
			v, n, err = decodeVariable(kind, payload[i:])
			if err != nil {
				return b, fmt.Errorf("%w for %q", err, name)
			}
		default:
			return b, fmt.Errorf("%w: %d for %q", ErrUnknownKind, uint8(kind), name)
		}
		b.props[name] = v
		i += n
	}
	return b, nil
}

func decodeVariable(kind Kind, rest []byte) (Value, int, error) {
	if len(rest) < valueLenSize {
		return Value{}, 0, ErrShortValue
	}
	l := int32(binary.BigEndian.Uint32(rest[:valueLenSize]))
	if l == nullLen {
		return Value{Kind: kind, Null: true}, valueLenSize, nil
	}
	if l < 0 {
		return Value{}, 0, fmt.Errorf("%w: %d", ErrInvalidLength, l)
	}
	if len(rest)-valueLenSize < int(l) {
		return Value{}, 0, ErrShortValue
	}
	raw := rest[valueLenSize : valueLenSize+int(l)]
	if kind == KindString {
		return Value{Kind: KindString, Str: string(raw)}, valueLenSize + int(l), nil
	}
	buf := make([]byte, l)
	copy(buf, raw)
	return Value{Kind: KindBytes, Bytes: buf}, valueLenSize + int(l), nil
}

func appendLen(out []byte, l int32) []byte {
	return binary.BigEndian.AppendUint32(out, uint32(l))
}

func encodedSize(b *Bag, names []string) int {
	total := 0
	for _, name := range names {
		v := b.props[name]
		total += 1 + nameLenSize + len(name)
		switch v.Kind {
		case KindInt:
			total += 8
		case KindBool:
			total++
		default:
			total += valueLenSize + len(v.Str) + len(v.Bytes)
		}
	}
	return total
}
