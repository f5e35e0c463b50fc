package bag

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// Kind identifies the wire representation of one property value.
type Kind uint8

// Kind tags from the property bag contract.
const (
	KindString Kind = 1
	KindInt    Kind = 2
	KindBool   Kind = 3
	KindBytes  Kind = 4
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindBool:
		return "bool"
	case KindBytes:
		return "bytes"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Value is one typed property value. Null is only meaningful for strings and bytes.
type Value struct {
	Kind  Kind
	Null  bool
	Str   string
	Int   int64
	Bool  bool
	Bytes []byte
}

func (v Value) clone() Value {
	if v.Kind == KindBytes && v.Bytes != nil {
		v.Bytes = bytes.Clone(v.Bytes)
	}
	return v
}

// normalized keeps only the fields v.Kind carries on the wire, so a stored
// value reads back exactly as Encode writes it. Unknown kinds pass through
// for Encode to reject.
func (v Value) normalized() Value {
	out := Value{Kind: v.Kind}
	switch v.Kind {
	case KindString:
		if v.Null {
			out.Null = true
		} else {
			out.Str = v.Str
		}
	case KindInt:
		out.Int = v.Int
	case KindBool:
		out.Bool = v.Bool
	case KindBytes:
		if v.Null {
			out.Null = true
		} else {
			out.Bytes = bytes.Clone(v.Bytes)
		}
	default:
		return v.clone()
	}
	return out
}

func (v Value) equal(o Value) bool {
	if v.Kind != o.Kind || v.Null != o.Null {
		return false
	}
	switch v.Kind {
	case KindString:
		return v.Str == o.Str
	case KindInt:
		return v.Int == o.Int
	case KindBool:
		return v.Bool == o.Bool
	case KindBytes:
		return bytes.Equal(v.Bytes, o.Bytes)
	default:
		return false
	}
}

// Bag is a flat typed key/value record. Names are unique; reads of absent
// names return the zero value of the requested kind.
type Bag struct {
	props map[string]Value
}

func New() *Bag {
	return &Bag{props: make(map[string]Value)}
}

func (b *Bag) Len() int {
	if b == nil {
		return 0
	}
	return len(b.props)
}

func (b *Bag) Has(name string) bool {
	if b == nil {
		return false
	}
	_, ok := b.props[name]
	return ok
}

// Get returns the raw value stored under name.
func (b *Bag) Get(name string) (Value, bool) {
	if b == nil {
		return Value{}, false
	}
	v, ok := b.props[name]
	return v, ok
}

// Set stores a raw value. Byte values are copied; fields foreign to the
// value's kind, and Null on int and bool values, are dropped.
func (b *Bag) Set(name string, v Value) {
	b.props[name] = v.normalized()
}

func (b *Bag) Delete(name string) {
	delete(b.props, name)
}

// Names returns property names in encoding order.
func (b *Bag) Names() []string {
	if b == nil {
		return nil
	}
	names := make([]string, 0, len(b.props))
	for name := range b.props {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (b *Bag) SetString(name, v string) {
	b.props[name] = Value{Kind: KindString, Str: v}
}

// SetStringPtr stores v, or a null string when v is nil.
func (b *Bag) SetStringPtr(name string, v *string) {
	if v == nil {
		b.props[name] = Value{Kind: KindString, Null: true}
		return
	}
	b.SetString(name, *v)
}

func (b *Bag) GetString(name string) string {
	v, ok := b.Get(name)
	if !ok || v.Kind != KindString {
		return ""
	}
	return v.Str
}

// GetStringPtr returns nil for absent or null strings.
func (b *Bag) GetStringPtr(name string) *string {
	v, ok := b.Get(name)
	if !ok || v.Kind != KindString || v.Null {
		return nil
	}
	s := v.Str
	return &s
}

func (b *Bag) SetInt(name string, v int64) {
	b.props[name] = Value{Kind: KindInt, Int: v}
}

func (b *Bag) GetInt(name string) int64 {
	v, ok := b.Get(name)
	if !ok || v.Kind != KindInt {
		return 0
	}
	return v.Int
}

func (b *Bag) SetBool(name string, v bool) {
	b.props[name] = Value{Kind: KindBool, Bool: v}
}

func (b *Bag) GetBool(name string) bool {
	v, ok := b.Get(name)
	if !ok || v.Kind != KindBool {
		return false
	}
	return v.Bool
}

// SetBytes stores a copy of v; nil is stored as a null blob.
func (b *Bag) SetBytes(name string, v []byte) {
	if v == nil {
		b.props[name] = Value{Kind: KindBytes, Null: true}
		return
	}
	b.props[name] = Value{Kind: KindBytes, Bytes: bytes.Clone(v)}
}

// GetBytes returns a copy of the stored blob, nil when absent or null.
func (b *Bag) GetBytes(name string) []byte {
	v, ok := b.Get(name)
	if !ok || v.Kind != KindBytes || v.Null {
		return nil
	}
	return bytes.Clone(v.Bytes)
}

// SetJSON stores v as a JSON document inside a string property. A nil
// pointer or nil interface is stored as a null string.
func (b *Bag) SetJSON(name string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("bag: marshal %q: %w", name, err)
	}
	if bytes.Equal(raw, []byte("null")) {
		b.props[name] = Value{Kind: KindString, Null: true}
		return nil
	}
	b.SetString(name, string(raw))
	return nil
}

// GetJSON decodes the JSON document stored under name into out. It reports
// false when the property is absent, null or empty.
func (b *Bag) GetJSON(name string, out any) (bool, error) {
	s := b.GetStringPtr(name)
	if s == nil || *s == "" {
		return false, nil
	}
	if err := json.Unmarshal([]byte(*s), out); err != nil {
		return false, fmt.Errorf("bag: unmarshal %q: %w", name, err)
	}
	return true, nil
}

// Clone returns a deep copy with independent backing storage.
func (b *Bag) Clone() *Bag {
	out := New()
	if b == nil {
		return out
	}
	for name, v := range b.props {
		out.props[name] = v.clone()
	}
	return out
}

// Equal reports whether both bags hold the same names with equal values.
func (b *Bag) Equal(o *Bag) bool {
	if b.Len() != o.Len() {
		return false
	}
	if b == nil || o == nil {
		return true
	}
	for name, v := range b.props {
		ov, ok := o.props[name]
		if !ok || !v.equal(ov) {
			return false
		}
	}
	return true
}
