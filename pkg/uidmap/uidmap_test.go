package uidmap

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

var uidShape = regexp.MustCompile(`^2\.25\.\d+$`)

func TestResolveIsStableForRepeatedOriginal(t *testing.T) {
	m := New()
	a := m.Resolve("1.2.3")
	b := m.Resolve("1.2.3")
	assert.Equal(t, a, b)
}

func TestResolveMintsDistinctUIDsForDistinctOriginals(t *testing.T) {
	m := New()
	a := m.Resolve("1.2.3")
	b := m.Resolve("1.2.4")
	assert.NotEqual(t, a, b)
}

func TestResolveMatchesUIDShape(t *testing.T) {
	m := New()
	v := m.Resolve("1.2.3")
	assert.Regexp(t, uidShape, v)
	assert.NotEqual(t, "1.2.3", v)
}

func TestLenTracksDistinctOriginals(t *testing.T) {
	m := New()
	m.Resolve("1.2.3")
	m.Resolve("1.2.3")
	m.Resolve("1.2.4")
	assert.Equal(t, 2, m.Len())
}
