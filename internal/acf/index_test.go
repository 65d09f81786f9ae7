// internal/acf/index_test.go
package acf

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fingrow/acf-backend/internal/models"
)

// buildForest constructs a deterministic test forest. Each user gets a world
// id derived from its run number and a creation time one minute apart in run
// order, so comparator ties resolve the same way every run.
type forest struct {
	users []*models.User
	byRun map[int]*models.User
}

func newForest() *forest {
	return &forest{byRun: make(map[int]*models.User)}
}

func (f *forest) add(run int, parent *models.User, maxChildren int, accepting bool) *models.User {
	u := &models.User{
		WorldID:      MakeWorldID(run, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)),
		Username:     "user_" + uuid.NewString()[:8],
		Status:       models.UserStatusActive,
		MaxChildren:  maxChildren,
		ACFAccepting: accepting,
		RunNumber:    run,
	}
	u.ID = uuid.New()
	u.CreatedAt = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(run) * time.Minute)
	if parent != nil {
		u.ParentID = &parent.ID
		parent.ChildCount++
	}
	f.users = append(f.users, u)
	f.byRun[run] = u
	return u
}

func (f *forest) index() *Index {
	return BuildIndex(f.users)
}

func TestSubtreeIDsCoversDescendants(t *testing.T) {
	f := newForest()
	root := f.add(0, nil, 1, true)
	a := f.add(1, root, 5, true)
	b := f.add(2, a, 5, true)
	c := f.add(3, a, 5, true)
	d := f.add(4, b, 5, true)
	other := f.add(5, root, 5, true)

	idx := f.index()

	sub := idx.SubtreeIDs(a.ID)
	assert.Len(t, sub, 4)
	assert.True(t, sub[a.ID])
	assert.True(t, sub[b.ID])
	assert.True(t, sub[c.ID])
	assert.True(t, sub[d.ID])
	assert.False(t, sub[root.ID])
	assert.False(t, sub[other.ID])

	assert.Equal(t, 4, idx.SubtreeSize(a.ID))
}

func TestSubtreeIDsUnknownRoot(t *testing.T) {
	f := newForest()
	f.add(0, nil, 1, true)
	idx := f.index()

	ghost := uuid.New()
	sub := idx.SubtreeIDs(ghost)
	assert.Len(t, sub, 1)
	assert.True(t, sub[ghost])
}

func TestSubtreeIDsTerminatesOnCycle(t *testing.T) {
	// Corrupted data: two nodes pointing at each other.
	a := &models.User{RunNumber: 1, WorldID: "25AAA0001"}
	a.ID = uuid.New()
	b := &models.User{RunNumber: 2, WorldID: "25AAA0002"}
	b.ID = uuid.New()
	a.ParentID = &b.ID
	b.ParentID = &a.ID

	idx := BuildIndex([]*models.User{a, b})

	sub := idx.SubtreeIDs(a.ID)
	assert.Len(t, sub, 2)
}

func TestRelativeDepth(t *testing.T) {
	f := newForest()
	root := f.add(0, nil, 1, true)
	a := f.add(1, root, 5, true)
	b := f.add(2, a, 5, true)
	c := f.add(3, b, 5, true)

	idx := f.index()

	depth := idx.RelativeDepth(a.ID)
	assert.Equal(t, 0, depth[a.ID])
	assert.Equal(t, 1, depth[b.ID])
	assert.Equal(t, 2, depth[c.ID])
	_, ok := depth[root.ID]
	assert.False(t, ok, "ancestors are outside the scope")
}

func TestAncestorChainNearestFirst(t *testing.T) {
	f := newForest()
	root := f.add(0, nil, 1, true)
	l1 := f.add(1, root, 5, true)
	l2 := f.add(2, l1, 5, true)
	l3 := f.add(3, l2, 5, true)

	idx := f.index()

	chain := idx.AncestorChain(l3.ID, 6)
	require.Len(t, chain, 3)
	assert.Equal(t, l2.ID, chain[0].ID)
	assert.Equal(t, l1.ID, chain[1].ID)
	assert.Equal(t, root.ID, chain[2].ID)
}

func TestAncestorChainRespectsMaxLevels(t *testing.T) {
	f := newForest()
	root := f.add(0, nil, 1, true)
	cur := root
	for i := 1; i <= 9; i++ {
		cur = f.add(i, cur, 5, true)
	}

	idx := f.index()

	chain := idx.AncestorChain(cur.ID, 6)
	require.Len(t, chain, 6)
	assert.Equal(t, *cur.ParentID, chain[0].ID)
}

func TestAncestorChainMissingUser(t *testing.T) {
	f := newForest()
	f.add(0, nil, 1, true)
	idx := f.index()

	assert.Empty(t, idx.AncestorChain(uuid.New(), 6))
}

func TestGlobalLevel(t *testing.T) {
	f := newForest()
	root := f.add(0, nil, 1, true)
	a := f.add(1, root, 5, true)
	b := f.add(2, a, 5, true)

	idx := f.index()

	assert.Equal(t, 0, idx.GlobalLevel(root.ID))
	assert.Equal(t, 1, idx.GlobalLevel(a.ID))
	assert.Equal(t, 2, idx.GlobalLevel(b.ID))
}

func TestChildrenRunNumberOrder(t *testing.T) {
	f := newForest()
	root := f.add(0, nil, 1, true)
	// Insert out of run order.
	c3 := f.add(3, root, 5, true)
	c1 := f.add(1, root, 5, true)
	c2 := f.add(2, root, 5, true)

	idx := f.index()

	children := idx.Children(root.ID)
	require.Len(t, children, 3)
	assert.Equal(t, c1.ID, children[0].ID)
	assert.Equal(t, c2.ID, children[1].ID)
	assert.Equal(t, c3.ID, children[2].ID)
}

func TestUsersRunNumberOrder(t *testing.T) {
	f := newForest()
	root := f.add(0, nil, 1, true)
	f.add(5, root, 5, true)
	f.add(2, root, 5, true)

	idx := f.index()

	users := idx.Users()
	require.Len(t, users, 3)
	assert.Equal(t, 0, users[0].RunNumber)
	assert.Equal(t, 2, users[1].RunNumber)
	assert.Equal(t, 5, users[2].RunNumber)
}
