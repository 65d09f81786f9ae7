// internal/services/network_service.go
package services

import (
	"sort"

	"gorm.io/gorm"

	"github.com/fingrow/acf-backend/internal/acf"
	"github.com/fingrow/acf-backend/internal/config"
	"github.com/fingrow/acf-backend/internal/models"
)

type NetworkService struct {
	db  *gorm.DB
	cfg *config.Config
}

func NewNetworkService(db *gorm.DB, cfg *config.Config) *NetworkService {
	return &NetworkService{db: db, cfg: cfg}
}

// NetworkNode is one user rendered for tree views.
type NetworkNode struct {
	WorldID      string         `json:"world_id"`
	Username     string         `json:"username"`
	Level        int            `json:"level"`
	ChildCount   int            `json:"child_count"`
	MaxChildren  int            `json:"max_children"`
	ACFAccepting bool           `json:"acf_accepting"`
	RunNumber    int            `json:"run_number"`
	Children     []*NetworkNode `json:"children,omitempty"`
}

// NetworkSummary reports the shape of a user's downline.
type NetworkSummary struct {
	WorldID        string `json:"world_id"`
	NetworkSize    int    `json:"network_size"`
	DirectChildren int    `json:"direct_children"`
	OpenSlots      int    `json:"open_slots"`
	MaxDepth       int    `json:"max_depth"`
	MaxNetworkSize int    `json:"max_network_size"`
}

// TableRow is one line of the flat network table: a user plus their child
// world-ids padded out to the full slot count.
type TableRow struct {
	WorldID       string   `json:"world_id"`
	Username      string   `json:"username"`
	Level         int      `json:"level"`
	RunNumber     int      `json:"run_number"`
	ParentWorldID string   `json:"parent_world_id,omitempty"`
	ACFAccepting  bool     `json:"acf_accepting"`
	ChildWorldIDs []string `json:"child_world_ids"`
}

// CandidatePreview is one ranked placement candidate for the preview lists.
type CandidatePreview struct {
	WorldID       string `json:"world_id"`
	Username      string `json:"username"`
	RelativeDepth int    `json:"relative_depth"`
	ChildCount    int    `json:"child_count"`
	MaxChildren   int    `json:"max_children"`
	RunNumber     int    `json:"run_number"`
}

func toNode(u *models.User) *NetworkNode {
	return &NetworkNode{
		WorldID:      u.WorldID,
		Username:     u.Username,
		Level:        u.Level,
		ChildCount:   u.ChildCount,
		MaxChildren:  u.MaxChildren,
		ACFAccepting: u.ACFAccepting,
		RunNumber:    u.RunNumber,
	}
}

// GetTree renders a user's subtree down to their grandchildren, siblings
// ordered by creation time.
func (s *NetworkService) GetTree(worldID string) (*NetworkNode, error) {
	idx, _, err := loadUserSnapshot(s.db)
	if err != nil {
		return nil, err
	}

	root, ok := idx.ByWorldID(worldID)
	if !ok {
		return nil, ErrUserNotFound
	}

	node := toNode(root)
	for _, child := range sortByCreatedAt(idx.Children(root.ID)) {
		childNode := toNode(child)
		for _, grandchild := range sortByCreatedAt(idx.Children(child.ID)) {
			childNode.Children = append(childNode.Children, toNode(grandchild))
		}
		node.Children = append(node.Children, childNode)
	}
	return node, nil
}

// GetSummary computes downline counts for a user.
func (s *NetworkService) GetSummary(worldID string) (*NetworkSummary, error) {
	idx, _, err := loadUserSnapshot(s.db)
	if err != nil {
		return nil, err
	}

	user, ok := idx.ByWorldID(worldID)
	if !ok {
		return nil, ErrUserNotFound
	}

	depth := idx.RelativeDepth(user.ID)
	size := 0
	maxDepth := 0
	openSlots := 0
	for id, d := range depth {
		if d > acf.MaxTreeDepth {
			continue
		}
		if id != user.ID {
			size++
		}
		if d > maxDepth {
			maxDepth = d
		}
		if u, ok := idx.ByID(id); ok && u.HasOpenSlot() {
			openSlots += u.MaxChildren - u.ChildCount
		}
	}

	return &NetworkSummary{
		WorldID:        user.WorldID,
		NetworkSize:    size,
		DirectChildren: len(idx.Children(user.ID)),
		OpenSlots:      openSlots,
		MaxDepth:       maxDepth,
		MaxNetworkSize: acf.MaxNetworkSize,
	}, nil
}

// GetTable renders a user's whole subtree as flat rows in run-number order,
// each with its child world-ids padded to the slot count.
func (s *NetworkService) GetTable(worldID string) ([]TableRow, error) {
	idx, _, err := loadUserSnapshot(s.db)
	if err != nil {
		return nil, err
	}

	root, ok := idx.ByWorldID(worldID)
	if !ok {
		return nil, ErrUserNotFound
	}

	subtree := idx.SubtreeIDs(root.ID)
	members := make([]*models.User, 0, len(subtree))
	for id := range subtree {
		if u, ok := idx.ByID(id); ok {
			members = append(members, u)
		}
	}
	sort.Slice(members, func(i, j int) bool {
		return members[i].RunNumber < members[j].RunNumber
	})

	rows := make([]TableRow, 0, len(members))
	for _, u := range members {
		row := TableRow{
			WorldID:       u.WorldID,
			Username:      u.Username,
			Level:         u.Level,
			RunNumber:     u.RunNumber,
			ACFAccepting:  u.ACFAccepting,
			ChildWorldIDs: make([]string, 0, acf.MaxChildrenPerNode),
		}
		if u.ParentID != nil {
			if p, ok := idx.ByID(*u.ParentID); ok {
				row.ParentWorldID = p.WorldID
			}
		}
		for _, c := range idx.Children(u.ID) {
			row.ChildWorldIDs = append(row.ChildWorldIDs, c.WorldID)
		}
		for len(row.ChildWorldIDs) < u.MaxChildren {
			row.ChildWorldIDs = append(row.ChildWorldIDs, "")
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// GetUplinePath returns a user and their ancestors up to the tree depth
// limit, nearest first.
func (s *NetworkService) GetUplinePath(worldID string) ([]*NetworkNode, error) {
	idx, _, err := loadUserSnapshot(s.db)
	if err != nil {
		return nil, err
	}

	user, ok := idx.ByWorldID(worldID)
	if !ok {
		return nil, ErrUserNotFound
	}

	path := []*NetworkNode{toNode(user)}
	for _, a := range idx.AncestorChain(user.ID, acf.MaxTreeDepth) {
		path = append(path, toNode(a))
	}
	return path, nil
}

// PreviewCandidates returns the top placement candidates for a scope without
// placing anyone, using the same ranking as real placements.
func (s *NetworkService) PreviewCandidates(mode models.PlacementMode, inviterWorldID string, limit int) ([]CandidatePreview, error) {
	idx, _, err := loadUserSnapshot(s.db)
	if err != nil {
		return nil, err
	}

	systemRoot, ok := idx.ByWorldID(s.cfg.ACF.SystemRootWorldID)
	if !ok {
		return nil, ErrUserNotFound
	}

	scopeRoot := acf.ResolveACFRoot(idx, s.cfg.ACF.DefaultRootWorldID, systemRoot)
	if mode == models.PlacementModeBIC {
		inviter, ok := idx.ByWorldID(inviterWorldID)
		if !ok {
			return nil, ErrInviterNotFound
		}
		scopeRoot = inviter
	}

	policy := acf.Policy{
		RespectAccepting:  s.cfg.ACF.RespectAccepting,
		AutoCloseWhenFull: s.cfg.ACF.AutoCloseWhenFull,
		DefaultAccepting:  s.cfg.ACF.DefaultAccepting,
	}
	pool, err := acf.RankCandidates(idx, mode, scopeRoot, systemRoot.ID, policy)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(pool) > limit {
		pool = pool[:limit]
	}

	depth := idx.RelativeDepth(scopeRoot.ID)
	out := make([]CandidatePreview, 0, len(pool))
	for _, u := range pool {
		out = append(out, CandidatePreview{
			WorldID:       u.WorldID,
			Username:      u.Username,
			RelativeDepth: depth[u.ID],
			ChildCount:    u.ChildCount,
			MaxChildren:   u.MaxChildren,
			RunNumber:     u.RunNumber,
		})
	}
	return out, nil
}

func sortByCreatedAt(users []*models.User) []*models.User {
	out := make([]*models.User, len(users))
	copy(out, users)
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].RunNumber < out[j].RunNumber
	})
	return out
}
