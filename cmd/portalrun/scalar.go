package main

import (
	"fmt"

	"github.com/ais-project/portalvm/object"
)

// scalar is a host-defined leaf wrapping one JSON literal from a program
// file's "captures" array. The runtime carries no bytecode-level type
// system (spec.md Non-goals): concrete payload types are always supplied
// by the host, never by package object itself.
type scalar struct {
	object.LeafObject
	Value interface{}
}

func (s scalar) String() string { return fmt.Sprintf("%v", s.Value) }
