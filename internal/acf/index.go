// internal/acf/index.go
package acf

import (
	"sort"

	"github.com/google/uuid"

	"github.com/fingrow/acf-backend/internal/models"
)

// Index is an in-memory view over a snapshot of the user forest: id lookup,
// world-id lookup and parent->children adjacency. Children lists are kept in
// run-number order so breadth-first traversals discover nodes
// deterministically. The index never mutates the snapshot.
type Index struct {
	byID      map[uuid.UUID]*models.User
	byWorldID map[string]*models.User
	children  map[uuid.UUID][]*models.User
}

// BuildIndex constructs an Index from an unordered user snapshot.
func BuildIndex(users []*models.User) *Index {
	idx := &Index{
		byID:      make(map[uuid.UUID]*models.User, len(users)),
		byWorldID: make(map[string]*models.User, len(users)),
		children:  make(map[uuid.UUID][]*models.User),
	}
	for _, u := range users {
		idx.byID[u.ID] = u
		idx.byWorldID[u.WorldID] = u
	}
	for _, u := range users {
		if u.ParentID == nil {
			continue
		}
		idx.children[*u.ParentID] = append(idx.children[*u.ParentID], u)
	}
	for pid := range idx.children {
		list := idx.children[pid]
		sort.Slice(list, func(i, j int) bool { return list[i].RunNumber < list[j].RunNumber })
	}
	return idx
}

func (idx *Index) ByID(id uuid.UUID) (*models.User, bool) {
	u, ok := idx.byID[id]
	return u, ok
}

func (idx *Index) ByWorldID(worldID string) (*models.User, bool) {
	u, ok := idx.byWorldID[worldID]
	return u, ok
}

// Children returns the direct children of id in run-number order.
func (idx *Index) Children(id uuid.UUID) []*models.User {
	return idx.children[id]
}

// SubtreeIDs walks breadth-first from rootID over the children adjacency and
// returns every reachable id, including rootID itself. An unknown rootID
// yields a singleton set. The visited set guards against corrupted input that
// contains a parent-pointer cycle.
func (idx *Index) SubtreeIDs(rootID uuid.UUID) map[uuid.UUID]bool {
	out := make(map[uuid.UUID]bool)
	queue := []uuid.UUID{rootID}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if out[id] {
			continue
		}
		out[id] = true
		for _, c := range idx.children[id] {
			queue = append(queue, c.ID)
		}
	}
	return out
}

// RelativeDepth walks breadth-first from rootID and maps every reachable id
// to its hop distance from rootID (the root itself is depth 0).
func (idx *Index) RelativeDepth(rootID uuid.UUID) map[uuid.UUID]int {
	depth := make(map[uuid.UUID]int)
	type item struct {
		id uuid.UUID
		d  int
	}
	queue := []item{{id: rootID}}
	for len(queue) > 0 {
		it := queue[0]
		queue = queue[1:]
		if _, seen := depth[it.id]; seen {
			continue
		}
		depth[it.id] = it.d
		for _, c := range idx.children[it.id] {
			queue = append(queue, item{id: c.ID, d: it.d + 1})
		}
	}
	return depth
}

// AncestorChain walks parent pointers upward starting at userID's parent,
// stopping after maxLevels steps or at a user with no parent. The result is
// ordered nearest ancestor first. A missing userID yields an empty chain.
func (idx *Index) AncestorChain(userID uuid.UUID, maxLevels int) []*models.User {
	chain := make([]*models.User, 0, maxLevels)
	seen := map[uuid.UUID]bool{userID: true}
	cur, ok := idx.byID[userID]
	for ok && cur.ParentID != nil && len(chain) < maxLevels {
		parent, found := idx.byID[*cur.ParentID]
		if !found || seen[parent.ID] {
			break
		}
		seen[parent.ID] = true
		chain = append(chain, parent)
		cur = parent
	}
	return chain
}

// GlobalLevel counts parent hops from userID up to the system root.
func (idx *Index) GlobalLevel(userID uuid.UUID) int {
	level := 0
	seen := map[uuid.UUID]bool{userID: true}
	cur, ok := idx.byID[userID]
	for ok && cur.ParentID != nil {
		parent, found := idx.byID[*cur.ParentID]
		if !found || seen[parent.ID] {
			break
		}
		seen[parent.ID] = true
		level++
		cur = parent
	}
	return level
}

// SubtreeSize returns the number of nodes reachable from rootID, including
// rootID itself.
func (idx *Index) SubtreeSize(rootID uuid.UUID) int {
	return len(idx.SubtreeIDs(rootID))
}

// Users returns every indexed user, in run-number order.
func (idx *Index) Users() []*models.User {
	out := make([]*models.User, 0, len(idx.byID))
	for _, u := range idx.byID {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RunNumber < out[j].RunNumber })
	return out
}
