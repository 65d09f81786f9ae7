// internal/models/product.go
package models

import (
	"github.com/lib/pq"
)

// InsuranceProduct describes a purchasable policy together with its
// commission parameters. PolicyType selects how the commission pool is
// distributed; DistributionConfig carries the weighted-level table when
// PolicyType is weighted_levels.
type InsuranceProduct struct {
	BaseModel
	ProductCode        string                 `json:"product_code" gorm:"uniqueIndex;size:50;not null"`
	Title              string                 `json:"title" gorm:"size:255;not null"`
	ShortTitle         string                 `json:"short_title" gorm:"size:100"`
	Description        string                 `json:"description" gorm:"type:text"`
	InsurerCompanyName string                 `json:"insurer_company_name" gorm:"size:255"`
	InsuranceType      string                 `json:"insurance_type" gorm:"size:50;index"`
	FingrowLevel       int                    `json:"fingrow_level" gorm:"not null;default:1;index"`
	PremiumTotal       float64                `json:"premium_total" gorm:"type:decimal(12,2);not null"`
	CommissionRate     float64                `json:"commission_rate" gorm:"type:decimal(6,4);not null;default:0.15"`
	PolicyType         DistributionPolicyType `json:"policy_type" gorm:"type:varchar(20);not null;default:'equal_sevenths'"`
	DistributionConfig JSONB                  `json:"distribution_config" gorm:"type:jsonb"`
	Tags               pq.StringArray         `json:"tags" gorm:"type:text[]"`
	IsActive           bool                   `json:"is_active" gorm:"default:true;index"`
	IsFeatured         bool                   `json:"is_featured" gorm:"default:false"`
	SortOrder          int                    `json:"sort_order" gorm:"default:0"`
}
