// internal/acf/worldid.go
package acf

import (
	"fmt"
	"regexp"
	"time"
)

const (
	// SystemRootWorldID is the permanent top-level node of the placement forest.
	SystemRootWorldID = "25AAA0000"
	// DefaultACFRootWorldID is the default network-fill root (the first signup).
	// Placement falls back to the system root while this id does not exist yet.
	DefaultACFRootWorldID = "25AAA0001"

	// MaxTreeDepth is the placement subtree depth cap (levels 0..6).
	MaxTreeDepth = 7
	// MaxChildrenPerNode caps the branching factor of every node.
	MaxChildrenPerNode = 5
	// MaxNetworkSize = (5^7 - 1) / 4, the largest possible subtree including its root.
	MaxNetworkSize = 19531

	worldIDLetters = "AAA"
)

var worldIDPattern = regexp.MustCompile(`^\d{2}[A-Z]{3}\d{4}$`)

// MakeWorldID builds the human-facing user id: 2-digit year + 3 uppercase
// letters (currently fixed "AAA") + 4-digit zero-padded sequence,
// e.g. 25AAA0001.
func MakeWorldID(seq int, at time.Time) string {
	return fmt.Sprintf("%02d%s%04d", at.Year()%100, worldIDLetters, seq)
}

// ValidWorldID reports whether s matches the persisted world-id format.
func ValidWorldID(s string) bool {
	return worldIDPattern.MatchString(s)
}
