// Package uidmap provides the batch-scoped table that gives every DICOM
// UID a stable, freshly minted replacement the first time it is seen, and
// reuses that replacement for every later occurrence in the same batch.
package uidmap

import (
	"math/big"
	"sync"

	"github.com/google/uuid"
)

// Map is owned exclusively by the batch driver and borrowed mutably by
// each DICOM plan, never shared as a package-level global.
type Map struct {
	mu     sync.Mutex
	values map[string]string
}

// New returns an empty Map.
func New() *Map {
	return &Map{values: make(map[string]string)}
}

// Resolve returns the replacement UID for original, minting and storing a
// new one on first sight. Two calls with the same original across any
// number of files sharing this Map return the same replacement.
func (m *Map) Resolve(original string) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	if v, ok := m.values[original]; ok {
		return v
	}
	v := newUID()
	m.values[original] = v
	return v
}

// Len reports how many distinct original UIDs have been remapped so far.
func (m *Map) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.values)
}

// newUID mints a DICOM-compliant UID under the UUID-derived OID root
// 2.25, per RFC 4122 / DICOM PS3.5 Annex B: the 128-bit UUID is treated as
// a big decimal integer appended to "2.25.".
func newUID() string {
	id := uuid.New()
	n := new(big.Int).SetBytes(id[:])
	return "2.25." + n.String()
}
