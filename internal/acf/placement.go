// internal/acf/placement.go
package acf

import (
	"errors"
	"sort"

	"github.com/google/uuid"

	"github.com/fingrow/acf-backend/internal/models"
)

var (
	// ErrNoOpenSlotNIC means no candidate under the ACF root has an open,
	// accepting slot.
	ErrNoOpenSlotNIC = errors.New("no open or accepting slot under the ACF root")
	// ErrNoOpenSlotBIC means the inviter's network has no open, accepting slot.
	ErrNoOpenSlotBIC = errors.New("inviter's network has no open or accepting slot")
	// ErrScopeRootNotFound means the requested placement scope root does not exist.
	ErrScopeRootNotFound = errors.New("placement scope root not found")
)

// Policy carries the operator-tunable placement switches.
type Policy struct {
	// RespectAccepting limits candidates to users with acf_accepting = true.
	RespectAccepting bool
	// AutoCloseWhenFull flips a parent's acf_accepting off once its last
	// slot is taken.
	AutoCloseWhenFull bool
	// DefaultAccepting is the acf_accepting value given to new signups.
	DefaultAccepting bool
}

// Plan is the pure outcome of a placement decision: which parent takes the
// new node and which mutations the caller must persist. PlanPlacement
// performs no I/O and never mutates the snapshot.
type Plan struct {
	Parent           *models.User
	ParentChildCount int  // parent's child count after the placement
	CloseParent      bool // auto-close fires on this placement
	Level            int  // global level of the new node
}

// ResolveACFRoot maps the configured ACF root world-id onto the snapshot:
// the configured user when present, otherwise the system root.
func ResolveACFRoot(idx *Index, configuredWorldID string, systemRoot *models.User) *models.User {
	if u, ok := idx.ByWorldID(configuredWorldID); ok {
		return u
	}
	return systemRoot
}

// PlanPlacement selects the parent for a new signup.
//
// NIC scopes candidates to the resolved ACF root's subtree, excluding the
// system root itself. BIC scopes candidates to the inviter's subtree, the
// inviter included. Both modes keep only users with an open slot
// (childCount < maxChildren) and, when the policy respects acceptance, with
// acf_accepting set. Candidates are ordered layer-first: relative depth from
// the scope root, then child count, then creation time, then run number.
func PlanPlacement(idx *Index, mode models.PlacementMode, scopeRoot *models.User, systemRootID uuid.UUID, policy Policy) (*Plan, error) {
	pool, err := RankCandidates(idx, mode, scopeRoot, systemRootID, policy)
	if err != nil {
		return nil, err
	}

	parent := pool[0]
	newCount := parent.ChildCount + 1
	return &Plan{
		Parent:           parent,
		ParentChildCount: newCount,
		CloseParent:      policy.AutoCloseWhenFull && newCount >= parent.MaxChildren,
		Level:            idx.GlobalLevel(parent.ID) + 1,
	}, nil
}

// RankCandidates returns every eligible parent in the given scope, best
// first. The full ranking backs both PlanPlacement and the candidate-preview
// API.
func RankCandidates(idx *Index, mode models.PlacementMode, scopeRoot *models.User, systemRootID uuid.UUID, policy Policy) ([]*models.User, error) {
	if scopeRoot == nil {
		return nil, ErrScopeRootNotFound
	}

	subtree := idx.SubtreeIDs(scopeRoot.ID)
	depth := idx.RelativeDepth(scopeRoot.ID)

	var pool []*models.User
	for id := range subtree {
		u, ok := idx.ByID(id)
		if !ok {
			continue
		}
		if mode == models.PlacementModeNIC && u.ID == systemRootID {
			continue
		}
		if !u.HasOpenSlot() {
			continue
		}
		if policy.RespectAccepting && !u.ACFAccepting {
			continue
		}
		pool = append(pool, u)
	}

	if len(pool) == 0 {
		if mode == models.PlacementModeBIC {
			return nil, ErrNoOpenSlotBIC
		}
		return nil, ErrNoOpenSlotNIC
	}

	sort.Slice(pool, func(i, j int) bool {
		return candidateLess(pool[i], pool[j], depth)
	})

	return pool, nil
}

// candidateLess is the four-key placement comparator: shallower relative
// depth wins, then fewer children, then earlier creation, then lower run
// number. The run number makes the order total.
func candidateLess(a, b *models.User, depth map[uuid.UUID]int) bool {
	da, aOK := depth[a.ID]
	db, bOK := depth[b.ID]
	if !aOK {
		da = int(^uint(0) >> 1)
	}
	if !bOK {
		db = int(^uint(0) >> 1)
	}
	if da != db {
		return da < db
	}
	if a.ChildCount != b.ChildCount {
		return a.ChildCount < b.ChildCount
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.RunNumber < b.RunNumber
}
