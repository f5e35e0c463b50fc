package protocol

import (
	"fmt"

	"github.com/danmuck/proxywire/internal/protocol/bag"
)

// PropSpec declares a known property of a message type.
type PropSpec struct {
	Name string
	Kind bag.Kind
}

// Schema lists the known properties of a message type. Absent properties read
// as their zero value, so no property is required.
type Schema struct {
	MessageType MessageType
	Props       []PropSpec
}

func (s Schema) Lookup(name string) (PropSpec, bool) {
	for _, p := range s.Props {
		if p.Name == name {
			return p, true
		}
	}
	return PropSpec{}, false
}

// CheckProps validates b against s. A known property carried with a different
// kind is a PropertyKindError. Unknown properties are returned for logging and
// otherwise ignored.
func CheckProps(s Schema, b *bag.Bag) (unknown []string, err error) {
	for _, name := range b.Names() {
		v, _ := b.Get(name)
		ps, ok := s.Lookup(name)
		if !ok {
			unknown = append(unknown, name)
			continue
		}
		if v.Kind != ps.Kind {
			return unknown, PropertyKindError{
				MessageType: s.MessageType,
				Property:    name,
				Reason:      fmt.Sprintf("kind %s, want %s", v.Kind, ps.Kind),
			}
		}
	}
	return unknown, nil
}
