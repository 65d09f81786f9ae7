// internal/commission/calc.go
package commission

import "math"

// Commission split of a sale: 10% management fee, 45% to the seller, 45%
// into the pool distributed across the buyer and their upline.
const (
	ManagementFeeRate    = 0.10
	SellerCommissionRate = 0.45
	CommissionPoolRate   = 0.45

	// PoolTotalShares splits the pool into equal sevenths: one for the
	// buyer, six for the upline.
	PoolTotalShares = 7
	// MaxUplineLevels caps how far up the ancestor chain shares travel.
	MaxUplineLevels = 6
)

// Breakdown is the fixed three-way split of a sale's total commission.
type Breakdown struct {
	TotalCommission  float64 `json:"total_commission"`
	ManagementFee    float64 `json:"management_fee"`
	SellerCommission float64 `json:"seller_commission"`
	CommissionPool   float64 `json:"commission_pool"`
}

// CalculateBreakdown derives the commission components from a premium and a
// commission rate. All monetary values are rounded to 2 decimal places.
func CalculateBreakdown(premiumAmount, commissionRate float64) Breakdown {
	total := premiumAmount * commissionRate
	return Breakdown{
		TotalCommission:  Round2(total),
		ManagementFee:    Round2(total * ManagementFeeRate),
		SellerCommission: Round2(total * SellerCommissionRate),
		CommissionPool:   Round2(total * CommissionPoolRate),
	}
}

// Round2 rounds a monetary value to 2 decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
