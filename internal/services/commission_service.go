// internal/services/commission_service.go
package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/fingrow/acf-backend/internal/commission"
	"github.com/fingrow/acf-backend/internal/config"
	"github.com/fingrow/acf-backend/internal/models"
	"github.com/fingrow/acf-backend/internal/utils"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrBuyerNotFound   = errors.New("buyer not found")
	ErrOrderNotFound   = errors.New("order not found")
)

// InsufficientBalanceError reports a finpoint payment attempt that exceeds
// the buyer's ledger balance.
type InsufficientBalanceError struct {
	Required  float64 `json:"required"`
	Available float64 `json:"available"`
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient finpoint balance: required %.2f, available %.2f", e.Required, e.Available)
}

// Shortage is the amount the buyer is missing.
func (e *InsufficientBalanceError) Shortage() float64 {
	return commission.Round2(e.Required - e.Available)
}

type CommissionService struct {
	db  *gorm.DB
	cfg *config.Config
}

func NewCommissionService(db *gorm.DB, cfg *config.Config) *CommissionService {
	return &CommissionService{db: db, cfg: cfg}
}

type CreateOrderRequest struct {
	BuyerWorldID  string               `json:"buyer_world_id" validate:"required,world_id"`
	ProductCode   string               `json:"product_code" validate:"required"`
	PaymentMethod models.PaymentMethod `json:"payment_method" validate:"omitempty,oneof=cash finpoint"`
}

// OrderResult bundles everything the order endpoint reports back: the stored
// order, the split, and the ledger lines written for it.
type OrderResult struct {
	Order           *models.Order                   `json:"order"`
	Breakdown       commission.Breakdown            `json:"breakdown"`
	Distributions   []models.CommissionDistribution `json:"distributions"`
	UplineCount     int                             `json:"upline_count"`
	SystemRootBonus float64                         `json:"system_root_bonus"`
}

// CreateOrder records a purchase and distributes its commission pool in one
// transaction. Finpoint payments first verify the buyer's ledger balance and
// write the negative spend line before anything else; if any later step fails
// the whole transaction, spend line included, rolls back.
func (s *CommissionService) CreateOrder(req *CreateOrderRequest) (*OrderResult, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	paymentMethod := req.PaymentMethod
	if paymentMethod == "" {
		paymentMethod = models.PaymentMethodCash
	}

	var result *OrderResult

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var product models.InsuranceProduct
		if err := tx.Where("product_code = ? AND is_active = ?", req.ProductCode, true).
			First(&product).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrProductNotFound
			}
			return fmt.Errorf("database error: %w", err)
		}

		var buyer models.User
		if err := tx.Set("gorm:query_option", "FOR UPDATE").
			Where("world_id = ?", req.BuyerWorldID).
			First(&buyer).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBuyerNotFound
			}
			return fmt.Errorf("database error: %w", err)
		}

		rate := product.CommissionRate
		if rate <= 0 {
			rate = s.cfg.Commission.DefaultRate
		}
		breakdown := commission.CalculateBreakdown(product.PremiumTotal, rate)

		now := time.Now()

		if paymentMethod == models.PaymentMethodFinpoint {
			balance, err := s.balanceInTx(tx, buyer.ID)
			if err != nil {
				return err
			}
			if balance < product.PremiumTotal {
				return &InsufficientBalanceError{
					Required:  product.PremiumTotal,
					Available: commission.Round2(balance),
				}
			}

			// Spend line goes in before the order exists, so OrderID stays null.
			spend := &models.CommissionDistribution{
				RecipientID:   buyer.ID,
				RecipientRole: "finpoint_spent",
				SharePortion:  0,
				Amount:        -product.PremiumTotal,
				Description:   fmt.Sprintf("Finpoint payment for %s", product.ProductCode),
				DistributedAt: now,
			}
			if err := tx.Create(spend).Error; err != nil {
				return fmt.Errorf("failed to record finpoint spend: %w", err)
			}
		}

		order := &models.Order{
			BuyerID:          buyer.ID,
			ProductID:        product.ID,
			PremiumAmount:    product.PremiumTotal,
			CommissionRate:   rate,
			TotalCommission:  breakdown.TotalCommission,
			ManagementFee:    breakdown.ManagementFee,
			SellerCommission: breakdown.SellerCommission,
			CommissionPool:   breakdown.CommissionPool,
			PaymentMethod:    paymentMethod,
			Status:           models.OrderStatusCompleted,
		}
		if err := tx.Create(order).Error; err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}

		idx, _, err := loadUserSnapshot(tx)
		if err != nil {
			return err
		}

		systemRoot, ok := idx.ByWorldID(s.cfg.ACF.SystemRootWorldID)
		if !ok {
			return fmt.Errorf("system root %s missing", s.cfg.ACF.SystemRootWorldID)
		}

		policy, err := commission.PolicyFromProduct(&product)
		if err != nil {
			return err
		}

		maxLevels := commission.MaxUplineLevels
		if policy.Type == models.PolicyWeightedLevels {
			maxLevels = len(policy.LevelPercents)
		}

		ancestors := idx.AncestorChain(buyer.ID, maxLevels)
		upline := make([]uuid.UUID, len(ancestors))
		for i, a := range ancestors {
			upline[i] = a.ID
		}

		shares := commission.DistributePool(breakdown.CommissionPool, buyer.ID, upline, systemRoot.ID, policy)

		systemRootBonus := 0.0
		rows := make([]models.CommissionDistribution, 0, len(shares))
		for _, sh := range shares {
			if sh.Role == commission.RoleSystemRoot {
				systemRootBonus = sh.Amount
			}
			rows = append(rows, models.CommissionDistribution{
				OrderID:       &order.ID,
				RecipientID:   sh.RecipientID,
				RecipientRole: sh.Role,
				UplineLevel:   sh.UplineLevel,
				SharePortion:  sh.Portion,
				Amount:        sh.Amount,
				Description:   fmt.Sprintf("Commission pool share for order of %s", product.ProductCode),
				DistributedAt: now,
			})
		}
		if err := tx.Create(&rows).Error; err != nil {
			return fmt.Errorf("failed to create distributions: %w", err)
		}

		result = &OrderResult{
			Order:           order,
			Breakdown:       breakdown,
			Distributions:   rows,
			UplineCount:     len(upline),
			SystemRootBonus: systemRootBonus,
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"order_id":     result.Order.ID,
		"buyer":        req.BuyerWorldID,
		"product":      req.ProductCode,
		"pool":         result.Breakdown.CommissionPool,
		"upline_count": result.UplineCount,
	}).Info("Order created and commission distributed")

	return result, nil
}

// GetBalance returns a user's current finpoint balance, the running sum of
// their ledger lines.
func (s *CommissionService) GetBalance(userID uuid.UUID) (float64, error) {
	return s.balanceInTx(s.db, userID)
}

func (s *CommissionService) balanceInTx(db *gorm.DB, userID uuid.UUID) (float64, error) {
	var balance float64
	err := db.Model(&models.CommissionDistribution{}).
		Where("recipient_id = ?", userID).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&balance).Error
	if err != nil {
		return 0, fmt.Errorf("failed to compute balance: %w", err)
	}
	return balance, nil
}

// UserCommissionSummary aggregates a user's ledger by role.
type UserCommissionSummary struct {
	Balance       float64                         `json:"balance"`
	TotalEarned   float64                         `json:"total_earned"`
	TotalSpent    float64                         `json:"total_spent"`
	LineCount     int64                           `json:"line_count"`
	EarnedByRole  map[string]float64              `json:"earned_by_role"`
	RecentEntries []models.CommissionDistribution `json:"recent_entries"`
}

// GetUserSummary returns a user's balance plus earn/spend aggregates.
func (s *CommissionService) GetUserSummary(userID uuid.UUID) (*UserCommissionSummary, error) {
	var user models.User
	if err := s.db.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	summary := &UserCommissionSummary{EarnedByRole: make(map[string]float64)}

	type roleAgg struct {
		RecipientRole string
		Total         float64
		Count         int64
	}
	var aggs []roleAgg
	err := s.db.Model(&models.CommissionDistribution{}).
		Where("recipient_id = ?", userID).
		Select("recipient_role, SUM(amount) as total, COUNT(*) as count").
		Group("recipient_role").
		Scan(&aggs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate ledger: %w", err)
	}

	for _, a := range aggs {
		summary.LineCount += a.Count
		summary.Balance += a.Total
		if a.Total >= 0 {
			summary.TotalEarned += a.Total
			summary.EarnedByRole[a.RecipientRole] = commission.Round2(a.Total)
		} else {
			summary.TotalSpent += -a.Total
		}
	}
	summary.Balance = commission.Round2(summary.Balance)
	summary.TotalEarned = commission.Round2(summary.TotalEarned)
	summary.TotalSpent = commission.Round2(summary.TotalSpent)

	if err := s.db.Where("recipient_id = ?", userID).
		Order("distributed_at DESC").
		Limit(10).
		Find(&summary.RecentEntries).Error; err != nil {
		return nil, fmt.Errorf("failed to load recent entries: %w", err)
	}

	return summary, nil
}

// GetOrderCommissions loads an order with its distribution lines.
func (s *CommissionService) GetOrderCommissions(orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := s.db.Preload("Product").Preload("Buyer").
		Preload("Distributions", func(db *gorm.DB) *gorm.DB {
			return db.Order("upline_level NULLS LAST")
		}).
		Preload("Distributions.Recipient").
		First(&order, "id = ?", orderID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &order, nil
}

// ListOrders returns a user's orders, newest first.
func (s *CommissionService) ListOrders(buyerID uuid.UUID, params utils.PaginationParams) ([]models.Order, int64, error) {
	query := s.db.Model(&models.Order{}).Where("buyer_id = ?", buyerID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	var orders []models.Order
	err := utils.ApplyPagination(query.Preload("Product").Order("created_at DESC"), params).
		Find(&orders).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, total, nil
}
