// internal/models/user.go
package models

import (
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// User is a node in the referral/placement forest. ParentID is assigned once
// by the placement engine and is independent of InviterID (who referred the
// user). The system root is the single user with a null ParentID.
type User struct {
	BaseModel
	WorldID      string     `json:"world_id" gorm:"uniqueIndex;size:9;not null"`
	Username     string     `json:"username" gorm:"uniqueIndex;size:50;not null"`
	PasswordHash string     `json:"-" gorm:"size:255"`
	Status       UserStatus `json:"status" gorm:"type:varchar(20);default:'active'"`
	ParentID     *uuid.UUID `json:"parent_id" gorm:"type:uuid;index"`
	InviterID    *uuid.UUID `json:"inviter_id" gorm:"type:uuid;index"`
	InviteCode   string     `json:"invite_code,omitempty" gorm:"size:50"`
	ChildCount   int        `json:"child_count" gorm:"not null;default:0"`
	MaxChildren  int        `json:"max_children" gorm:"not null;default:5"`
	ACFAccepting bool       `json:"acf_accepting" gorm:"not null;default:true"`
	Level        int        `json:"level" gorm:"not null;default:0"`
	RunNumber    int        `json:"run_number" gorm:"uniqueIndex;not null"`
	LastLoginAt  *time.Time `json:"last_login_at"`

	// Relationships
	Parent        *User                    `json:"parent,omitempty" gorm:"foreignKey:ParentID"`
	Inviter       *User                    `json:"inviter,omitempty" gorm:"foreignKey:InviterID"`
	Children      []User                   `json:"children,omitempty" gorm:"foreignKey:ParentID"`
	Orders        []Order                  `json:"orders,omitempty" gorm:"foreignKey:BuyerID"`
	Distributions []CommissionDistribution `json:"distributions,omitempty" gorm:"foreignKey:RecipientID"`
}

func (u *User) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hashedPassword)
	return nil
}

func (u *User) CheckPassword(password string) error {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
}

// HasOpenSlot reports whether the user can take one more placement child.
func (u *User) HasOpenSlot() bool {
	return u.ChildCount < u.MaxChildren
}

// IsSystemRoot reports whether the user is the forest's permanent top node.
func (u *User) IsSystemRoot() bool {
	return u.ParentID == nil
}
