// internal/models/order.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// Order records one insurance purchase and its commission breakdown. The
// commission columns are fixed at creation; the per-recipient split lives in
// CommissionDistribution rows created in the same transaction.
type Order struct {
	BaseModel
	BuyerID          uuid.UUID     `json:"buyer_id" gorm:"type:uuid;not null;index"`
	ProductID        uuid.UUID     `json:"product_id" gorm:"type:uuid;not null;index"`
	PremiumAmount    float64       `json:"premium_amount" gorm:"type:decimal(12,2);not null"`
	CommissionRate   float64       `json:"commission_rate" gorm:"type:decimal(6,4);not null"`
	TotalCommission  float64       `json:"total_commission" gorm:"type:decimal(12,2);not null"`
	ManagementFee    float64       `json:"management_fee" gorm:"type:decimal(12,2);not null"`
	SellerCommission float64       `json:"seller_commission" gorm:"type:decimal(12,2);not null"`
	CommissionPool   float64       `json:"commission_pool" gorm:"type:decimal(12,2);not null"`
	PaymentMethod    PaymentMethod `json:"payment_method" gorm:"type:varchar(20);not null"`
	Status           OrderStatus   `json:"status" gorm:"type:varchar(20);default:'completed';index"`

	// Relationships
	Buyer         User                     `json:"buyer,omitempty" gorm:"foreignKey:BuyerID"`
	Product       InsuranceProduct         `json:"product,omitempty" gorm:"foreignKey:ProductID"`
	Distributions []CommissionDistribution `json:"distributions,omitempty" gorm:"foreignKey:OrderID"`
}

// CommissionDistribution is one append-only ledger line: a payout (or spend)
// of commission-pool value for one recipient. Rows are never updated or
// deleted; a recipient's balance is the sum of their Amount values. OrderID
// is null for lines not tied to an order (finpoint spend, demo credit).
type CommissionDistribution struct {
	BaseModel
	OrderID       *uuid.UUID `json:"order_id" gorm:"type:uuid;index"`
	RecipientID   uuid.UUID  `json:"recipient_id" gorm:"type:uuid;not null;index"`
	RecipientRole string     `json:"recipient_role" gorm:"size:20;not null;index"`
	UplineLevel   *int       `json:"upline_level"`
	SharePortion  float64    `json:"share_portion" gorm:"type:decimal(8,6);not null"`
	Amount        float64    `json:"amount" gorm:"type:decimal(12,2);not null"`
	Description   string     `json:"description,omitempty" gorm:"size:255"`
	DistributedAt time.Time  `json:"distributed_at" gorm:"not null"`

	// Relationships
	Order     *Order `json:"order,omitempty" gorm:"foreignKey:OrderID"`
	Recipient User   `json:"recipient,omitempty" gorm:"foreignKey:RecipientID"`
}
