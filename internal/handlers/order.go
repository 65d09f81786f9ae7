// internal/handlers/order.go
package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/fingrow/acf-backend/internal/commission"
	"github.com/fingrow/acf-backend/internal/services"
	"github.com/fingrow/acf-backend/internal/utils"
)

type OrderHandler struct {
	commissionService *services.CommissionService
	userService       *services.UserService
}

func NewOrderHandler(commissionService *services.CommissionService, userService *services.UserService) *OrderHandler {
	return &OrderHandler{
		commissionService: commissionService,
		userService:       userService,
	}
}

// CreateOrder records a purchase and distributes its commission pool.
// POST /v1/orders
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req services.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	result, err := h.commissionService.CreateOrder(&req)
	if err != nil {
		var validationErrs validator.ValidationErrors
		var balanceErr *services.InsufficientBalanceError
		switch {
		case errors.As(err, &validationErrs):
			utils.ValidationErrorResponse(c, utils.GetValidationErrors(validationErrs))
		case errors.As(err, &balanceErr):
			utils.UnprocessableResponse(c, "INSUFFICIENT_BALANCE", balanceErr.Error(), gin.H{
				"required":  balanceErr.Required,
				"available": balanceErr.Available,
				"shortage":  balanceErr.Shortage(),
			})
		case errors.Is(err, services.ErrProductNotFound):
			utils.NotFoundResponse(c, "Product")
		case errors.Is(err, services.ErrBuyerNotFound):
			utils.NotFoundResponse(c, "Buyer")
		case errors.Is(err, commission.ErrInvalidPolicy):
			utils.UnprocessableResponse(c, "INVALID_POLICY", err.Error(), nil)
		default:
			logrus.WithError(err).Error("Failed to create order")
			utils.InternalErrorResponse(c, "Failed to create order")
		}
		return
	}

	utils.CreatedResponse(c, result)
}

// GetOrder returns an order with its distribution lines.
// GET /v1/orders/:id/commissions
func (h *OrderHandler) GetOrder(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid order id", nil)
		return
	}

	order, err := h.commissionService.GetOrderCommissions(orderID)
	if err != nil {
		if errors.Is(err, services.ErrOrderNotFound) {
			utils.NotFoundResponse(c, "Order")
			return
		}
		logrus.WithError(err).Error("Failed to get order")
		utils.InternalErrorResponse(c, "")
		return
	}

	utils.SuccessResponse(c, order)
}

// ListUserOrders returns a user's orders.
// GET /v1/users/:worldId/orders
func (h *OrderHandler) ListUserOrders(c *gin.Context) {
	user, err := h.userService.GetByWorldID(c.Param("worldId"))
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			utils.NotFoundResponse(c, "User")
			return
		}
		logrus.WithError(err).Error("Failed to get user")
		utils.InternalErrorResponse(c, "")
		return
	}

	params := utils.GetPaginationParams(c)
	orders, total, err := h.commissionService.ListOrders(user.ID, params)
	if err != nil {
		logrus.WithError(err).Error("Failed to list orders")
		utils.InternalErrorResponse(c, "")
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(orders, total, params))
}

// GetBalance returns a user's finpoint balance.
// GET /v1/users/:worldId/balance
func (h *OrderHandler) GetBalance(c *gin.Context) {
	user, err := h.userService.GetByWorldID(c.Param("worldId"))
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			utils.NotFoundResponse(c, "User")
			return
		}
		logrus.WithError(err).Error("Failed to get user")
		utils.InternalErrorResponse(c, "")
		return
	}

	balance, err := h.commissionService.GetBalance(user.ID)
	if err != nil {
		logrus.WithError(err).Error("Failed to compute balance")
		utils.InternalErrorResponse(c, "")
		return
	}

	utils.SuccessResponse(c, gin.H{
		"world_id": user.WorldID,
		"balance":  commission.Round2(balance),
	})
}

// GetCommissionSummary returns a user's ledger aggregates.
// GET /v1/users/:worldId/commission-summary
func (h *OrderHandler) GetCommissionSummary(c *gin.Context) {
	user, err := h.userService.GetByWorldID(c.Param("worldId"))
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			utils.NotFoundResponse(c, "User")
			return
		}
		logrus.WithError(err).Error("Failed to get user")
		utils.InternalErrorResponse(c, "")
		return
	}

	summary, err := h.commissionService.GetUserSummary(user.ID)
	if err != nil {
		logrus.WithError(err).Error("Failed to build commission summary")
		utils.InternalErrorResponse(c, "")
		return
	}

	utils.SuccessResponse(c, summary)
}
