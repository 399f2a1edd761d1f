package graph

import (
	"fmt"

	"github.com/google/uuid"
)

// NodeID identifies a node. IDs are name-based UUIDs (version 5) derived
// from a path or from the node's content, so the same source always yields
// the same IDs.
type NodeID uuid.UUID

// ZeroID is the unset NodeID.
var ZeroID NodeID

var idSpace = uuid.MustParse("6f0b6e2c-3d1a-5b8e-9c4f-2a7d1e0b5c93")

// NewNodeID derives the ID of a node from a path such as "shape/bracket".
func NewNodeID(path string) NodeID {
	return NodeID(uuid.NewSHA1(idSpace, []byte(path)))
}

// ContentID derives the ID of an anonymous node from its kind, payload
// and children. Structurally equal nodes share an ID.
func ContentID(kind NodeKind, data NodeData, children []NodeID) NodeID {
	key := kind.String() + "|" + dataKey(data)
	for _, c := range children {
		key += "|" + c.String()
	}
	return NewNodeID(key)
}

// IsZero reports whether id is unset.
func (id NodeID) IsZero() bool { return id == ZeroID }

func (id NodeID) String() string { return uuid.UUID(id).String() }

// Short returns the first eight hex digits, for messages.
func (id NodeID) Short() string { return id.String()[:8] }

// MarshalText encodes the ID as its UUID string.
func (id NodeID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

// dataKey formats a payload by value; pointers are followed so that equal
// transforms share a key.
func dataKey(data NodeData) string {
	vec := func(v *Vec3) string {
		if v == nil {
			return "-"
		}
		return fmt.Sprintf("%g,%g,%g", v.X, v.Y, v.Z)
	}
	if t, ok := data.(TransformData); ok {
		return "T" + vec(t.Translation) + "R" + vec(t.Rotation)
	}
	return fmt.Sprintf("%#v", data)
}
