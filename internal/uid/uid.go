// Package uid issues external entity identifiers.
//
// Identifiers are time-ordered ULIDs carrying an entity-kind prefix, so
// identifiers minted for different kinds can never collide even when
// generated in the same instant on the same node. They are assigned once
// on the create path and never rewritten afterwards.
package uid

import (
	"crypto/rand"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Kind discriminates identifier namespaces per entity kind.
type Kind string

const (
	KindNaturalPerson Kind = "np"
	KindLegalEntity   Kind = "le"
	KindDepartment    Kind = "dp"
)

// Generator mints kind-scoped identifiers. Safe for concurrent use.
type Generator struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// NewGenerator builds a Generator with monotonic entropy, keeping
// identifiers strictly ordered within a single process.
func NewGenerator() *Generator {
	return &Generator{
		entropy: ulid.Monotonic(rand.Reader, 0),
	}
}

// New returns a fresh identifier for the given kind, e.g. "np_01J...".
func (g *Generator) New(kind Kind) string {
	g.mu.Lock()
	defer g.mu.Unlock()

	id := ulid.MustNew(ulid.Timestamp(time.Now().UTC()), g.entropy)
	return string(kind) + "_" + id.String()
}

// KindOf reports the kind encoded in an identifier, or "" when malformed.
func KindOf(id string) Kind {
	prefix, rest, ok := strings.Cut(id, "_")
	if !ok || rest == "" {
		return ""
	}
	switch Kind(prefix) {
	case KindNaturalPerson, KindLegalEntity, KindDepartment:
		return Kind(prefix)
	default:
		return ""
	}
}
