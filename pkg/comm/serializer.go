package comm

import (
	"github.com/petrijr/treino/internal/persistence"
)

// Serializer converts gathered values to and from bytes. Both sides of a
// collective must use the same serializer.
type Serializer interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte) (any, error)
}

// GobSerializer encodes values with encoding/gob behind an interface, so a
// receiving member can decode without knowing the concrete type up front.
// Non-basic types must be registered with gob.Register on every member.
type GobSerializer struct{}

func (GobSerializer) Marshal(v any) ([]byte, error) { return persistence.EncodeValue(v) }

func (GobSerializer) Unmarshal(data []byte) (any, error) {
	return persistence.DecodeValue[any](data)
}
