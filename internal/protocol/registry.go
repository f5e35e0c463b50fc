package protocol

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/danmuck/proxywire/internal/protocol/bag"
)

// Descriptor declares one message type.
type Descriptor struct {
	Type MessageType
	Name string
	Role Role
	// ReplyType is required for requests and must be zero otherwise.
	ReplyType MessageType
	// Terminates marks terminate-class control requests that move a session
	// into draining.
	Terminates bool
	New        func() Message
}

// Registry maps message tags to descriptors. It is built once at startup and
// is read-only after Freeze.
type Registry struct {
	mu     sync.RWMutex
	frozen atomic.Bool
	types  map[MessageType]entry
}

type entry struct {
	desc   Descriptor
	schema Schema
}

func NewRegistry() *Registry {
	return &Registry{types: make(map[MessageType]entry)}
}

// Register adds d. Duplicate tags and malformed descriptors are errors.
func (r *Registry) Register(d Descriptor) error {
	if err := validateDescriptor(d); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen.Load() {
		return fmt.Errorf("%w: register %s", ErrRegistryFrozen, d.Name)
	}
	if prev, ok := r.types[d.Type]; ok {
		return fmt.Errorf("%w: tag=%d %s already registered as %s", ErrDuplicateType, d.Type, d.Name, prev.desc.Name)
	}
	r.types[d.Type] = entry{desc: d, schema: deriveSchema(d)}
	typeNames.Store(d.Type, d.Name)
	return nil
}

// MustRegister registers every descriptor and panics on the first error.
// Registration happens at startup where a bad catalog is fatal.
func (r *Registry) MustRegister(ds ...Descriptor) {
	for _, d := range ds {
		if err := r.Register(d); err != nil {
			panic(err)
		}
	}
}

// Freeze validates reply bindings and makes the registry read-only.
func (r *Registry) Freeze() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.types {
		if e.desc.Role != RoleRequest {
			continue
		}
		reply, ok := r.types[e.desc.ReplyType]
		if !ok {
			return fmt.Errorf("%w: %s binds unregistered reply tag=%d", ErrInvalidDescriptor, e.desc.Name, e.desc.ReplyType)
		}
		if reply.desc.Role != RoleReply {
			return fmt.Errorf("%w: %s binds %s which is a %s", ErrInvalidDescriptor, e.desc.Name, reply.desc.Name, reply.desc.Role)
		}
	}
	r.frozen.Store(true)
	return nil
}

func (r *Registry) Frozen() bool {
	return r.frozen.Load()
}

// Lookup returns the descriptor for t or ErrUnknownMessageType.
func (r *Registry) Lookup(t MessageType) (Descriptor, error) {
	e, ok := r.get(t)
	if !ok {
		return Descriptor{}, fmt.Errorf("%w: tag=%d", ErrUnknownMessageType, t)
	}
	return e.desc, nil
}

// ReplyTypeFor returns the reply tag statically bound to request tag t.
func (r *Registry) ReplyTypeFor(t MessageType) (MessageType, error) {
	e, ok := r.get(t)
	if !ok {
		return Unspecified, fmt.Errorf("%w: tag=%d", ErrUnknownMessageType, t)
	}
	if e.desc.Role != RoleRequest {
		return Unspecified, fmt.Errorf("%w: %s", ErrNotARequest, e.desc.Name)
	}
	return e.desc.ReplyType, nil
}

// SchemaFor returns the property schema of t.
func (r *Registry) SchemaFor(t MessageType) (Schema, error) {
	e, ok := r.get(t)
	if !ok {
		return Schema{}, fmt.Errorf("%w: tag=%d", ErrUnknownMessageType, t)
	}
	return e.schema, nil
}

// Descriptors lists every registered descriptor ordered by tag.
func (r *Registry) Descriptors() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Descriptor, 0, len(r.types))
	for _, e := range r.types {
		out = append(out, e.desc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out
}

// New instantiates an empty message of type t.
func (r *Registry) New(t MessageType) (Message, error) {
	d, err := r.Lookup(t)
	if err != nil {
		return nil, err
	}
	return d.New(), nil
}

func (r *Registry) get(t MessageType) (entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.types[t]
	return e, ok
}

func validateDescriptor(d Descriptor) error {
	if d.Type == Unspecified {
		return fmt.Errorf("%w: %s has zero tag", ErrInvalidDescriptor, d.Name)
	}
	if strings.TrimSpace(d.Name) == "" {
		return fmt.Errorf("%w: tag=%d missing name", ErrInvalidDescriptor, d.Type)
	}
	if d.New == nil {
		return fmt.Errorf("%w: %s missing factory", ErrInvalidDescriptor, d.Name)
	}
	msg := d.New()
	if msg == nil || msg.Type() != d.Type {
		return fmt.Errorf("%w: %s factory does not produce tag=%d", ErrInvalidDescriptor, d.Name, d.Type)
	}
	switch d.Role {
	case RoleRequest:
		if d.ReplyType == Unspecified {
			return fmt.Errorf("%w: request %s has no reply binding", ErrInvalidDescriptor, d.Name)
		}
		if _, ok := msg.(Request); !ok {
			return fmt.Errorf("%w: %s does not implement Request", ErrInvalidDescriptor, d.Name)
		}
	case RoleReply:
		if d.ReplyType != Unspecified || d.Terminates {
			return fmt.Errorf("%w: reply %s cannot bind a reply or terminate", ErrInvalidDescriptor, d.Name)
		}
		if _, ok := msg.(Reply); !ok {
			return fmt.Errorf("%w: %s does not implement Reply", ErrInvalidDescriptor, d.Name)
		}
	case RoleNotification:
		if d.ReplyType != Unspecified || d.Terminates {
			return fmt.Errorf("%w: notification %s cannot bind a reply or terminate", ErrInvalidDescriptor, d.Name)
		}
	default:
		return fmt.Errorf("%w: %s has invalid role %d", ErrInvalidDescriptor, d.Name, d.Role)
	}
	return nil
}

// deriveSchema records the properties a zero-valued instance writes.
func deriveSchema(d Descriptor) Schema {
	b := bag.New()
	d.New().WriteProps(b)
	s := Schema{MessageType: d.Type, Props: make([]PropSpec, 0, b.Len())}
	for _, name := range b.Names() {
		v, _ := b.Get(name)
		s.Props = append(s.Props, PropSpec{Name: name, Kind: v.Kind})
	}
	return s
}
