// internal/acf/placement_test.go
package acf

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fingrow/acf-backend/internal/models"
)

func defaultPolicy() Policy {
	return Policy{RespectAccepting: true, AutoCloseWhenFull: true, DefaultAccepting: true}
}

// systemForest builds the canonical seed shape: system root (one slot) with
// the default ACF root as its only child.
func systemForest() (*forest, *models.User, *models.User) {
	f := newForest()
	sysRoot := f.add(0, nil, 1, true)
	acfRoot := f.add(1, sysRoot, 5, true)
	return f, sysRoot, acfRoot
}

func TestResolveACFRootConfigured(t *testing.T) {
	f, sysRoot, acfRoot := systemForest()
	idx := f.index()

	got := ResolveACFRoot(idx, acfRoot.WorldID, sysRoot)
	assert.Equal(t, acfRoot.ID, got.ID)
}

func TestResolveACFRootFallsBackToSystemRoot(t *testing.T) {
	f := newForest()
	sysRoot := f.add(0, nil, 1, true)
	idx := f.index()

	got := ResolveACFRoot(idx, DefaultACFRootWorldID, sysRoot)
	assert.Equal(t, sysRoot.ID, got.ID)
}

func TestFirstSignupLandsUnderSystemRoot(t *testing.T) {
	// Empty network: only the system root exists and NIC falls back to it.
	f := newForest()
	sysRoot := f.add(0, nil, 1, true)
	idx := f.index()

	scope := ResolveACFRoot(idx, DefaultACFRootWorldID, sysRoot)
	plan, err := PlanPlacement(idx, models.PlacementModeBIC, scope, sysRoot.ID, defaultPolicy())
	require.NoError(t, err)
	assert.Equal(t, sysRoot.ID, plan.Parent.ID)
	assert.Equal(t, 1, plan.Level)
	assert.True(t, plan.CloseParent, "single-slot root fills on first placement")
}

func TestNICExcludesSystemRoot(t *testing.T) {
	// The system root has a free slot and is the scope root here (fallback
	// case), but NIC must never place under it.
	f := newForest()
	sysRoot := f.add(0, nil, 2, true)
	acfRoot := f.add(1, sysRoot, 5, true)
	idx := f.index()

	plan, err := PlanPlacement(idx, models.PlacementModeNIC, sysRoot, sysRoot.ID, defaultPolicy())
	require.NoError(t, err)
	assert.Equal(t, acfRoot.ID, plan.Parent.ID)
}

func TestNICFillsLayerFirst(t *testing.T) {
	f, sysRoot, acfRoot := systemForest()
	// Fill the ACF root's five slots.
	kids := make([]*models.User, 0, 5)
	for i := 2; i <= 6; i++ {
		kids = append(kids, f.add(i, acfRoot, 5, true))
	}
	idx := f.index()

	// ACF root is full, so the next parent is the earliest second-layer node.
	plan, err := PlanPlacement(idx, models.PlacementModeNIC, acfRoot, sysRoot.ID, defaultPolicy())
	require.NoError(t, err)
	assert.Equal(t, kids[0].ID, plan.Parent.ID)
	assert.Equal(t, 3, plan.Level)
}

func TestNICPrefersShallowerOverEmptier(t *testing.T) {
	f, sysRoot, acfRoot := systemForest()
	child := f.add(2, acfRoot, 5, true)
	f.add(3, child, 5, true) // deeper node with zero children
	idx := f.index()

	// acfRoot (depth 0, 1 child) beats the empty grandchild (depth 2).
	plan, err := PlanPlacement(idx, models.PlacementModeNIC, acfRoot, sysRoot.ID, defaultPolicy())
	require.NoError(t, err)
	assert.Equal(t, acfRoot.ID, plan.Parent.ID)
}

func TestTieBreakByChildCountThenCreatedAt(t *testing.T) {
	f, sysRoot, acfRoot := systemForest()
	a := f.add(2, acfRoot, 5, true)
	b := f.add(3, acfRoot, 5, true)
	f.add(4, a, 5, true) // a now has one child
	// Fill the root so candidates are the second layer only.
	f.add(5, acfRoot, 5, true)
	f.add(6, acfRoot, 5, true)
	f.add(7, acfRoot, 5, true)
	idx := f.index()

	// Same depth: b has fewer children than a.
	plan, err := PlanPlacement(idx, models.PlacementModeNIC, acfRoot, sysRoot.ID, defaultPolicy())
	require.NoError(t, err)
	assert.Equal(t, b.ID, plan.Parent.ID)
}

func TestTieBreakByRunNumberWhenCreatedAtEqual(t *testing.T) {
	f, sysRoot, acfRoot := systemForest()
	a := f.add(2, acfRoot, 5, true)
	b := f.add(3, acfRoot, 5, true)
	// Same creation instant, earlier than the fillers below; run number must
	// break the tie.
	at := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	a.CreatedAt = at
	b.CreatedAt = at
	// Fill the root.
	f.add(4, acfRoot, 5, true)
	f.add(5, acfRoot, 5, true)
	f.add(6, acfRoot, 5, true)
	idx := f.index()

	plan, err := PlanPlacement(idx, models.PlacementModeNIC, acfRoot, sysRoot.ID, defaultPolicy())
	require.NoError(t, err)
	assert.Equal(t, a.ID, plan.Parent.ID)
}

func TestRespectAcceptingSkipsClosedNodes(t *testing.T) {
	f, sysRoot, acfRoot := systemForest()
	acfRoot.ACFAccepting = false
	open := f.add(2, acfRoot, 5, true)
	idx := f.index()

	plan, err := PlanPlacement(idx, models.PlacementModeNIC, acfRoot, sysRoot.ID, defaultPolicy())
	require.NoError(t, err)
	assert.Equal(t, open.ID, plan.Parent.ID)
}

func TestIgnoreAcceptingWhenPolicyDisabled(t *testing.T) {
	f, sysRoot, acfRoot := systemForest()
	acfRoot.ACFAccepting = false
	f.add(2, acfRoot, 5, true)
	idx := f.index()

	policy := defaultPolicy()
	policy.RespectAccepting = false

	plan, err := PlanPlacement(idx, models.PlacementModeNIC, acfRoot, sysRoot.ID, policy)
	require.NoError(t, err)
	assert.Equal(t, acfRoot.ID, plan.Parent.ID)
}

func TestBICIncludesInviter(t *testing.T) {
	f, sysRoot, acfRoot := systemForest()
	inviter := f.add(2, acfRoot, 5, true)
	idx := f.index()

	plan, err := PlanPlacement(idx, models.PlacementModeBIC, inviter, sysRoot.ID, defaultPolicy())
	require.NoError(t, err)
	assert.Equal(t, inviter.ID, plan.Parent.ID)
}

func TestBICScopedToInviterSubtree(t *testing.T) {
	f, sysRoot, acfRoot := systemForest()
	inviter := f.add(2, acfRoot, 1, true)
	inside := f.add(3, inviter, 5, true)
	f.add(4, acfRoot, 5, true) // open node outside the inviter's subtree
	idx := f.index()

	// Inviter is full, so the slot comes from inside their subtree only.
	plan, err := PlanPlacement(idx, models.PlacementModeBIC, inviter, sysRoot.ID, defaultPolicy())
	require.NoError(t, err)
	assert.Equal(t, inside.ID, plan.Parent.ID)
}

func TestNoOpenSlotErrorsPerMode(t *testing.T) {
	f, sysRoot, acfRoot := systemForest()
	acfRoot.MaxChildren = 0
	idx := f.index()

	_, err := PlanPlacement(idx, models.PlacementModeNIC, acfRoot, sysRoot.ID, defaultPolicy())
	assert.ErrorIs(t, err, ErrNoOpenSlotNIC)

	_, err = PlanPlacement(idx, models.PlacementModeBIC, acfRoot, sysRoot.ID, defaultPolicy())
	assert.ErrorIs(t, err, ErrNoOpenSlotBIC)
}

func TestNilScopeRoot(t *testing.T) {
	f, sysRoot, _ := systemForest()
	idx := f.index()

	_, err := PlanPlacement(idx, models.PlacementModeNIC, nil, sysRoot.ID, defaultPolicy())
	assert.ErrorIs(t, err, ErrScopeRootNotFound)
}

func TestAutoCloseOnLastSlot(t *testing.T) {
	f, sysRoot, acfRoot := systemForest()
	parent := f.add(2, acfRoot, 2, true)
	f.add(3, parent, 5, true)
	// Fill the root with zero-capacity siblings so parent is the only open
	// depth-1 candidate.
	f.add(4, acfRoot, 0, true)
	f.add(5, acfRoot, 0, true)
	f.add(6, acfRoot, 0, true)
	f.add(7, acfRoot, 0, true)
	idx := f.index()

	plan, err := PlanPlacement(idx, models.PlacementModeNIC, acfRoot, sysRoot.ID, defaultPolicy())
	require.NoError(t, err)
	assert.Equal(t, parent.ID, plan.Parent.ID)
	assert.Equal(t, 2, plan.ParentChildCount)
	assert.True(t, plan.CloseParent)
}

func TestNoAutoCloseWhenPolicyDisabled(t *testing.T) {
	f, sysRoot, acfRoot := systemForest()
	acfRoot.MaxChildren = 1
	idx := f.index()

	policy := defaultPolicy()
	policy.AutoCloseWhenFull = false

	// The placement takes the parent's last slot, but the flag stays open.
	plan, err := PlanPlacement(idx, models.PlacementModeNIC, acfRoot, sysRoot.ID, policy)
	require.NoError(t, err)
	assert.Equal(t, acfRoot.ID, plan.Parent.ID)
	assert.Equal(t, 1, plan.ParentChildCount)
	assert.False(t, plan.CloseParent)
}

func TestRankCandidatesFullOrdering(t *testing.T) {
	f, sysRoot, acfRoot := systemForest()
	a := f.add(2, acfRoot, 5, true)
	b := f.add(3, acfRoot, 5, true)
	f.add(4, a, 5, true)
	idx := f.index()

	pool, err := RankCandidates(idx, models.PlacementModeNIC, acfRoot, sysRoot.ID, defaultPolicy())
	require.NoError(t, err)
	require.Len(t, pool, 4)
	// Root first (depth 0), then depth-1 nodes by child count, then the leaf.
	assert.Equal(t, acfRoot.ID, pool[0].ID)
	assert.Equal(t, b.ID, pool[1].ID)
	assert.Equal(t, a.ID, pool[2].ID)
}

func TestPlacementSequenceFillsBreadthFirst(t *testing.T) {
	// Simulate a run of NIC signups and verify the layer fills left to right
	// before any deeper slot is used.
	f, sysRoot, acfRoot := systemForest()
	idx := f.index()

	parents := make([]string, 0, 8)
	run := 2
	for i := 0; i < 8; i++ {
		plan, err := PlanPlacement(idx, models.PlacementModeNIC, acfRoot, sysRoot.ID, defaultPolicy())
		require.NoError(t, err)
		parents = append(parents, plan.Parent.WorldID)

		child := f.add(run, plan.Parent, 5, true)
		child.Level = plan.Level
		run++
		idx = f.index()
	}

	// The root fills first; then the second layer fills across, emptiest
	// earliest-created node first.
	root := acfRoot.WorldID
	assert.Equal(t, []string{
		root, root, root, root, root,
		f.byRun[2].WorldID, f.byRun[3].WorldID, f.byRun[4].WorldID,
	}, parents)
}
