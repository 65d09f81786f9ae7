// internal/services/product_service.go
package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/fingrow/acf-backend/internal/commission"
	"github.com/fingrow/acf-backend/internal/models"
	"github.com/fingrow/acf-backend/internal/utils"
)

var ErrProductCodeTaken = errors.New("product code already exists")

type ProductService struct {
	db *gorm.DB
}

func NewProductService(db *gorm.DB) *ProductService {
	return &ProductService{db: db}
}

func (s *ProductService) GetByCode(productCode string) (*models.InsuranceProduct, error) {
	var product models.InsuranceProduct
	err := s.db.First(&product, "product_code = ? AND is_active = ?", productCode, true).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &product, nil
}

// ListProducts returns active products, featured first.
func (s *ProductService) ListProducts(params utils.PaginationParams) ([]models.InsuranceProduct, int64, error) {
	query := s.db.Model(&models.InsuranceProduct{}).Where("is_active = ?", true)

	if params.Search != "" {
		query = query.Where("title ILIKE ? OR product_code ILIKE ?",
			"%"+params.Search+"%", "%"+params.Search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	var products []models.InsuranceProduct
	err := utils.ApplyPagination(
		query.Order("is_featured DESC, sort_order, product_code"), params).
		Find(&products).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}
	return products, total, nil
}

type CreateProductRequest struct {
	ProductCode        string       `json:"product_code" validate:"required,max=50"`
	Title              string       `json:"title" validate:"required,max=255"`
	ShortTitle         string       `json:"short_title" validate:"omitempty,max=100"`
	Description        string       `json:"description"`
	InsurerCompanyName string       `json:"insurer_company_name" validate:"omitempty,max=255"`
	InsuranceType      string       `json:"insurance_type" validate:"omitempty,max=50"`
	FingrowLevel       int          `json:"fingrow_level" validate:"omitempty,min=1,max=10"`
	PremiumTotal       float64      `json:"premium_total" validate:"required,gt=0"`
	CommissionRate     float64      `json:"commission_rate" validate:"omitempty,gt=0,lte=1"`
	PolicyType         string       `json:"policy_type" validate:"omitempty,oneof=equal_sevenths weighted_levels"`
	DistributionConfig models.JSONB `json:"distribution_config"`
	Tags               []string     `json:"tags"`
	IsFeatured         bool         `json:"is_featured"`
	SortOrder          int          `json:"sort_order"`
}

// CreateProduct adds a catalog entry. The distribution config is parsed up
// front so a broken weighted-levels table is rejected at creation time, not
// at the first order.
func (s *ProductService) CreateProduct(req *CreateProductRequest) (*models.InsuranceProduct, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	product := &models.InsuranceProduct{
		ProductCode:        req.ProductCode,
		Title:              req.Title,
		ShortTitle:         req.ShortTitle,
		Description:        req.Description,
		InsurerCompanyName: req.InsurerCompanyName,
		InsuranceType:      req.InsuranceType,
		FingrowLevel:       req.FingrowLevel,
		PremiumTotal:       req.PremiumTotal,
		CommissionRate:     req.CommissionRate,
		PolicyType:         models.DistributionPolicyType(req.PolicyType),
		DistributionConfig: req.DistributionConfig,
		Tags:               req.Tags,
		IsActive:           true,
		IsFeatured:         req.IsFeatured,
		SortOrder:          req.SortOrder,
	}
	if product.FingrowLevel == 0 {
		product.FingrowLevel = 1
	}
	if product.CommissionRate == 0 {
		product.CommissionRate = 0.15
	}
	if product.PolicyType == "" {
		product.PolicyType = models.PolicyEqualSevenths
	}

	if _, err := commission.PolicyFromProduct(product); err != nil {
		return nil, err
	}

	var count int64
	if err := s.db.Model(&models.InsuranceProduct{}).
		Where("product_code = ?", product.ProductCode).
		Count(&count).Error; err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	if count > 0 {
		return nil, ErrProductCodeTaken
	}

	if err := s.db.Create(product).Error; err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return product, nil
}
