// internal/acf/worldid_test.go
package acf

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMakeWorldID(t *testing.T) {
	at := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, "25AAA0000", MakeWorldID(0, at))
	assert.Equal(t, "25AAA0001", MakeWorldID(1, at))
	assert.Equal(t, "25AAA0042", MakeWorldID(42, at))
	assert.Equal(t, "25AAA9999", MakeWorldID(9999, at))
}

func TestMakeWorldIDYearPrefix(t *testing.T) {
	assert.Equal(t, "26AAA0007", MakeWorldID(7, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "09AAA0001", MakeWorldID(1, time.Date(2109, 1, 1, 0, 0, 0, 0, time.UTC)))
}

func TestValidWorldID(t *testing.T) {
	valid := []string{"25AAA0000", "25AAA0001", "99ZZZ9999", "00ABC0123"}
	for _, s := range valid {
		assert.True(t, ValidWorldID(s), s)
	}

	invalid := []string{
		"",
		"25AAA000",    // sequence too short
		"25AAA00000",  // sequence too long
		"25aaa0001",   // lowercase letters
		"2AAAA0001",   // one-digit year
		"25AA10001",   // digit in letter block
		" 25AAA0001",  // leading space
		"25AAA0001 ",  // trailing space
		"25AAA-001",   // punctuation
	}
	for _, s := range invalid {
		assert.False(t, ValidWorldID(s), s)
	}
}

func TestTreeBounds(t *testing.T) {
	// (5^7 - 1) / 4
	size := 0
	nodes := 1
	for i := 0; i < MaxTreeDepth; i++ {
		size += nodes
		nodes *= MaxChildrenPerNode
	}
	assert.Equal(t, MaxNetworkSize, size)
}
