// internal/handlers/product.go
package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/fingrow/acf-backend/internal/commission"
	"github.com/fingrow/acf-backend/internal/services"
	"github.com/fingrow/acf-backend/internal/utils"
)

type ProductHandler struct {
	productService *services.ProductService
}

func NewProductHandler(productService *services.ProductService) *ProductHandler {
	return &ProductHandler{productService: productService}
}

// ListProducts returns active products.
// GET /v1/products
func (h *ProductHandler) ListProducts(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	products, total, err := h.productService.ListProducts(params)
	if err != nil {
		logrus.WithError(err).Error("Failed to list products")
		utils.InternalErrorResponse(c, "")
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(products, total, params))
}

// GetProduct returns one product by code.
// GET /v1/products/:code
func (h *ProductHandler) GetProduct(c *gin.Context) {
	product, err := h.productService.GetByCode(c.Param("code"))
	if err != nil {
		if errors.Is(err, services.ErrProductNotFound) {
			utils.NotFoundResponse(c, "Product")
			return
		}
		logrus.WithError(err).Error("Failed to get product")
		utils.InternalErrorResponse(c, "")
		return
	}

	utils.SuccessResponse(c, product)
}

// CreateProduct adds a catalog entry.
// POST /v1/products
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var req services.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	product, err := h.productService.CreateProduct(&req)
	if err != nil {
		var validationErrs validator.ValidationErrors
		switch {
		case errors.As(err, &validationErrs):
			utils.ValidationErrorResponse(c, utils.GetValidationErrors(validationErrs))
		case errors.Is(err, services.ErrProductCodeTaken):
			utils.ConflictResponse(c, err.Error())
		case errors.Is(err, commission.ErrInvalidPolicy):
			utils.UnprocessableResponse(c, "INVALID_POLICY", err.Error(), nil)
		default:
			logrus.WithError(err).Error("Failed to create product")
			utils.InternalErrorResponse(c, "Failed to create product")
		}
		return
	}

	utils.CreatedResponse(c, product)
}
