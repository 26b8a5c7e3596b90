// Package ident generates monotonic, collision-free identifiers for orders
// and trades: a fixed prefix, a node id chosen once at startup, and a
// per-process sequence. The sequence is never reset during the process
// lifetime.
package ident

import (
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"
)

// Generator issues identifiers with a fixed prefix, e.g. "ORD" or "TRD".
type Generator struct {
	prefix string
	node   string
	seq    atomic.Uint64
}

// New creates a Generator. The node component is derived from a random
// UUID so identifiers from different processes cannot collide.
func New(prefix string) *Generator {
	node := strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
	return &Generator{prefix: prefix, node: node}
}

// Next returns the next identifier, e.g. "ORD-3f2a9c1b-0000000042".
// Identifiers are strictly increasing within a process.
func (g *Generator) Next() string {
	return fmt.Sprintf("%s-%s-%010d", g.prefix, g.node, g.seq.Add(1))
}
