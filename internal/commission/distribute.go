// internal/commission/distribute.go
package commission

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/fingrow/acf-backend/internal/models"
)

// Recipient roles on distribution lines.
const (
	RoleBuyer      = "buyer"
	RoleSystemRoot = "system_root"
)

// UplineRole names the role for the ancestor at 1-indexed level n
// ("upline_1" .. "upline_6").
func UplineRole(n int) string {
	return fmt.Sprintf("upline_%d", n)
}

var ErrInvalidPolicy = errors.New("invalid distribution policy")

// Policy selects how the commission pool is split among buyer and upline.
//
// EqualSevenths: pool/7 to the buyer and to each existing ancestor (up to 6);
// the shortfall for absent ancestors aggregates into one system-root share.
//
// WeightedLevels: per-level percentages of the pool plus a self-bonus percent
// for the buyer; shares for absent ancestors are simply not created (the
// platform retains them), no system-root fallback.
type Policy struct {
	Type             models.DistributionPolicyType
	SelfBonusPercent float64
	LevelPercents    []float64
}

// EqualSeventhsPolicy is the default split.
func EqualSeventhsPolicy() Policy {
	return Policy{Type: models.PolicyEqualSevenths}
}

// WeightedLevelsPolicy builds the configurable percent-table split.
func WeightedLevelsPolicy(selfBonusPercent float64, levelPercents []float64) Policy {
	return Policy{
		Type:             models.PolicyWeightedLevels,
		SelfBonusPercent: selfBonusPercent,
		LevelPercents:    levelPercents,
	}
}

// PolicyFromProduct reads the product's distribution configuration.
func PolicyFromProduct(p *models.InsuranceProduct) (Policy, error) {
	switch p.PolicyType {
	case "", models.PolicyEqualSevenths:
		return EqualSeventhsPolicy(), nil
	case models.PolicyWeightedLevels:
		selfBonus, _ := p.DistributionConfig["self_bonus_percent"].(float64)
		rawLevels, ok := p.DistributionConfig["level_percents"].([]interface{})
		if !ok || len(rawLevels) == 0 {
			return Policy{}, fmt.Errorf("%w: weighted_levels requires level_percents", ErrInvalidPolicy)
		}
		levels := make([]float64, 0, len(rawLevels))
		for _, raw := range rawLevels {
			pct, ok := raw.(float64)
			if !ok {
				return Policy{}, fmt.Errorf("%w: level_percents must be numeric", ErrInvalidPolicy)
			}
			levels = append(levels, pct)
		}
		return WeightedLevelsPolicy(selfBonus, levels), nil
	default:
		return Policy{}, fmt.Errorf("%w: unknown policy type %q", ErrInvalidPolicy, p.PolicyType)
	}
}

// Share is one computed payout line for one recipient.
type Share struct {
	RecipientID uuid.UUID
	Role        string
	UplineLevel *int
	Portion     float64
	Amount      float64
}

// DistributePool computes the payout lines for one order's commission pool.
// upline is the buyer's ancestor chain, nearest first. For EqualSevenths the
// returned amounts sum exactly to Round2(pool): the rounding remainder lands
// on the system-root line when one exists, otherwise on the buyer's line.
func DistributePool(pool float64, buyerID uuid.UUID, upline []uuid.UUID, systemRootID uuid.UUID, policy Policy) []Share {
	if policy.Type == models.PolicyWeightedLevels {
		return distributeWeighted(pool, buyerID, upline, policy)
	}
	return distributeEqualSevenths(pool, buyerID, upline, systemRootID)
}

func distributeEqualSevenths(pool float64, buyerID uuid.UUID, upline []uuid.UUID, systemRootID uuid.UUID) []Share {
	pool = Round2(pool)
	shareAmount := Round2(pool / PoolTotalShares)

	if len(upline) > MaxUplineLevels {
		upline = upline[:MaxUplineLevels]
	}

	shares := make([]Share, 0, len(upline)+2)

	buyerLevel := 0
	shares = append(shares, Share{
		RecipientID: buyerID,
		Role:        RoleBuyer,
		UplineLevel: &buyerLevel,
		Portion:     1.0 / PoolTotalShares,
		Amount:      shareAmount,
	})

	for i, uplineID := range upline {
		level := i + 1
		shares = append(shares, Share{
			RecipientID: uplineID,
			Role:        UplineRole(level),
			UplineLevel: &level,
			Portion:     1.0 / PoolTotalShares,
			Amount:      shareAmount,
		})
	}

	shortfall := MaxUplineLevels - len(upline)
	if shortfall > 0 {
		// The system-root line absorbs both the unclaimed shares and the
		// rounding remainder, keeping the total equal to the pool.
		distributed := shareAmount * float64(len(shares))
		shares = append(shares, Share{
			RecipientID: systemRootID,
			Role:        RoleSystemRoot,
			Portion:     float64(shortfall) / PoolTotalShares,
			Amount:      Round2(pool - distributed),
		})
	} else {
		// Full chain: the remainder cent, if any, goes to the buyer.
		shares[0].Amount = Round2(pool - shareAmount*float64(PoolTotalShares-1))
	}

	return shares
}

func distributeWeighted(pool float64, buyerID uuid.UUID, upline []uuid.UUID, policy Policy) []Share {
	pool = Round2(pool)
	shares := make([]Share, 0, len(policy.LevelPercents)+1)

	if policy.SelfBonusPercent > 0 {
		buyerLevel := 0
		shares = append(shares, Share{
			RecipientID: buyerID,
			Role:        RoleBuyer,
			UplineLevel: &buyerLevel,
			Portion:     policy.SelfBonusPercent / 100,
			Amount:      Round2(pool * policy.SelfBonusPercent / 100),
		})
	}

	for i, pct := range policy.LevelPercents {
		if i >= len(upline) {
			break // absent ancestors earn nothing; the platform retains the share
		}
		level := i + 1
		shares = append(shares, Share{
			RecipientID: upline[i],
			Role:        UplineRole(level),
			UplineLevel: &level,
			Portion:     pct / 100,
			Amount:      Round2(pool * pct / 100),
		})
	}

	return shares
}
