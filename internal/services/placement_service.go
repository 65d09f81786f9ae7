// internal/services/placement_service.go
package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fingrow/acf-backend/internal/acf"
	"github.com/fingrow/acf-backend/internal/config"
	"github.com/fingrow/acf-backend/internal/models"
	"github.com/fingrow/acf-backend/internal/utils"
)

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrInviterNotFound = errors.New("inviter not found")
	ErrInviterRequired = errors.New("BIC placement requires an inviter")
	ErrMaxChildrenOOB  = errors.New("max children must be between 1 and 5")
)

type PlacementService struct {
	db  *gorm.DB
	cfg *config.Config
}

type SignupRequest struct {
	Username       string               `json:"username" validate:"required,username"`
	Password       string               `json:"password" validate:"omitempty,min=8"`
	Mode           models.PlacementMode `json:"mode" validate:"omitempty,oneof=NIC BIC"`
	InviterWorldID string               `json:"inviter_world_id" validate:"omitempty,world_id"`
}

func NewPlacementService(db *gorm.DB, cfg *config.Config) *PlacementService {
	return &PlacementService{db: db, cfg: cfg}
}

func (s *PlacementService) policy() acf.Policy {
	return acf.Policy{
		RespectAccepting:  s.cfg.ACF.RespectAccepting,
		AutoCloseWhenFull: s.cfg.ACF.AutoCloseWhenFull,
		DefaultAccepting:  s.cfg.ACF.DefaultAccepting,
	}
}

// PlaceNewUser creates a signup and assigns its placement parent in one
// transaction. The whole user set is read under a row lock so two concurrent
// signups cannot both take the same last slot.
func (s *PlacementService) PlaceNewUser(req *SignupRequest) (*models.User, error) {
	// Validate request
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	mode := req.Mode
	if mode == "" {
		mode = models.PlacementModeNIC
	}
	if mode == models.PlacementModeBIC && req.InviterWorldID == "" {
		return nil, ErrInviterRequired
	}

	var newUser *models.User

	err := s.db.Transaction(func(tx *gorm.DB) error {
		idx, users, err := lockUserSnapshot(tx)
		if err != nil {
			return err
		}

		systemRoot, ok := idx.ByWorldID(s.cfg.ACF.SystemRootWorldID)
		if !ok {
			return fmt.Errorf("system root %s missing", s.cfg.ACF.SystemRootWorldID)
		}

		var inviter *models.User
		scopeRoot := acf.ResolveACFRoot(idx, s.cfg.ACF.DefaultRootWorldID, systemRoot)
		if mode == models.PlacementModeBIC {
			inviter, ok = idx.ByWorldID(req.InviterWorldID)
			if !ok {
				return ErrInviterNotFound
			}
			scopeRoot = inviter
		}

		plan, err := acf.PlanPlacement(idx, mode, scopeRoot, systemRoot.ID, s.policy())
		if err != nil {
			return err
		}

		runNumber := nextRunNumber(users)

		newUser = &models.User{
			WorldID:      acf.MakeWorldID(runNumber, time.Now()),
			Username:     req.Username,
			Status:       models.UserStatusActive,
			ParentID:     &plan.Parent.ID,
			ChildCount:   0,
			MaxChildren:  s.cfg.ACF.DefaultMaxChildren,
			ACFAccepting: s.cfg.ACF.DefaultAccepting,
			Level:        plan.Level,
			RunNumber:    runNumber,
		}
		if inviter != nil {
			newUser.InviterID = &inviter.ID
			newUser.InviteCode = "INV-" + inviter.WorldID
		}
		if req.Password != "" {
			if err := newUser.SetPassword(req.Password); err != nil {
				return fmt.Errorf("failed to hash password: %w", err)
			}
		}

		if err := tx.Create(newUser).Error; err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}

		parentUpdates := map[string]interface{}{"child_count": plan.ParentChildCount}
		if plan.CloseParent {
			parentUpdates["acf_accepting"] = false
		}
		if err := tx.Model(&models.User{}).Where("id = ?", plan.Parent.ID).
			Updates(parentUpdates).Error; err != nil {
			return fmt.Errorf("failed to update parent: %w", err)
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	// Reload with relationships
	s.db.Preload("Parent").Preload("Inviter").First(newUser, "id = ?", newUser.ID)

	return newUser, nil
}

// ToggleAccepting flips a user's acf_accepting flag. Re-opening recomputes
// whether the user can actually take children; a full node stays closed.
func (s *PlacementService) ToggleAccepting(userID uuid.UUID) (*models.User, error) {
	var user models.User

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Set("gorm:query_option", "FOR UPDATE").
			First(&user, "id = ?", userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return fmt.Errorf("database error: %w", err)
		}

		accepting := false
		if !user.ACFAccepting {
			accepting = user.HasOpenSlot()
		}

		if err := tx.Model(&user).Update("acf_accepting", accepting).Error; err != nil {
			return fmt.Errorf("failed to update user: %w", err)
		}
		user.ACFAccepting = accepting
		return nil
	})

	if err != nil {
		return nil, err
	}
	return &user, nil
}

// SetMaxChildren changes a user's capacity within the 1..5 bound. Shrinking
// below the current child count closes the accepting flag; raising it never
// auto-reopens, the operator must toggle explicitly.
func (s *PlacementService) SetMaxChildren(userID uuid.UUID, maxChildren int) (*models.User, error) {
	if maxChildren < 1 || maxChildren > acf.MaxChildrenPerNode {
		return nil, ErrMaxChildrenOOB
	}

	var user models.User

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Set("gorm:query_option", "FOR UPDATE").
			First(&user, "id = ?", userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return fmt.Errorf("database error: %w", err)
		}

		updates := map[string]interface{}{"max_children": maxChildren}
		if user.ChildCount >= maxChildren {
			updates["acf_accepting"] = false
		}

		if err := tx.Model(&user).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to update user: %w", err)
		}
		user.MaxChildren = maxChildren
		if user.ChildCount >= maxChildren {
			user.ACFAccepting = false
		}
		return nil
	})

	if err != nil {
		return nil, err
	}
	return &user, nil
}

// SetSubtreeAccepting opens or closes every node in a user's subtree.
// Opening still respects capacity: full nodes stay closed.
func (s *PlacementService) SetSubtreeAccepting(rootID uuid.UUID, accepting bool) (int, error) {
	changed := 0

	err := s.db.Transaction(func(tx *gorm.DB) error {
		idx, _, err := lockUserSnapshot(tx)
		if err != nil {
			return err
		}

		if _, ok := idx.ByID(rootID); !ok {
			return ErrUserNotFound
		}

		for id := range idx.SubtreeIDs(rootID) {
			u, ok := idx.ByID(id)
			if !ok {
				continue
			}
			next := false
			if accepting {
				next = u.HasOpenSlot()
			}
			if next == u.ACFAccepting {
				continue
			}
			if err := tx.Model(&models.User{}).Where("id = ?", u.ID).
				Update("acf_accepting", next).Error; err != nil {
				return fmt.Errorf("failed to update user %s: %w", u.WorldID, err)
			}
			changed++
		}
		return nil
	})

	if err != nil {
		return 0, err
	}
	return changed, nil
}

// ReconcileTree repairs drift between stored child_count/level values and the
// actual parent pointers. child_count is only ever mutated at placement time;
// this job restores the invariant if anything else slipped.
func (s *PlacementService) ReconcileTree() (int, error) {
	fixed := 0

	err := s.db.Transaction(func(tx *gorm.DB) error {
		idx, users, err := lockUserSnapshot(tx)
		if err != nil {
			return err
		}

		for _, u := range users {
			actualChildren := len(idx.Children(u.ID))
			actualLevel := idx.GlobalLevel(u.ID)
			if u.ChildCount == actualChildren && u.Level == actualLevel {
				continue
			}
			if err := tx.Model(&models.User{}).Where("id = ?", u.ID).
				Updates(map[string]interface{}{
					"child_count": actualChildren,
					"level":       actualLevel,
				}).Error; err != nil {
				return fmt.Errorf("failed to reconcile user %s: %w", u.WorldID, err)
			}
			fixed++
		}
		return nil
	})

	if err != nil {
		return 0, err
	}
	return fixed, nil
}

// lockUserSnapshot reads the full user set FOR UPDATE inside tx and indexes it.
func lockUserSnapshot(tx *gorm.DB) (*acf.Index, []*models.User, error) {
	return loadUserSnapshot(tx.Set("gorm:query_option", "FOR UPDATE"))
}

func loadUserSnapshot(db *gorm.DB) (*acf.Index, []*models.User, error) {
	var rows []models.User
	if err := db.Order("run_number").Find(&rows).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to load users: %w", err)
	}

	users := make([]*models.User, len(rows))
	for i := range rows {
		users[i] = &rows[i]
	}
	return acf.BuildIndex(users), users, nil
}

func nextRunNumber(users []*models.User) int {
	max := 0
	for _, u := range users {
		if u.RunNumber > max {
			max = u.RunNumber
		}
	}
	return max + 1
}
