// Package ident generates the globally unique identifiers used for ops,
// entities, and actors. Identifiers are plain UUIDv4 strings; lexicographic
// comparison of two identifiers is well-defined, which the replay engine
// relies on for same-seq tie-breaking.
package ident

import "github.com/google/uuid"

// NewID returns a new globally unique identifier.
func NewID() string {
	return uuid.NewString()
}

// NewActorID returns a new actor identifier. Actor ids are informational
// strings, not proofs of identity; this helper exists so front ends mint
// them consistently.
func NewActorID() string {
	return "actor-" + uuid.NewString()
}
