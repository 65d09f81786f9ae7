// internal/handlers/user.go
package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/fingrow/acf-backend/internal/acf"
	"github.com/fingrow/acf-backend/internal/services"
	"github.com/fingrow/acf-backend/internal/utils"
)

type UserHandler struct {
	userService      *services.UserService
	placementService *services.PlacementService
}

func NewUserHandler(userService *services.UserService, placementService *services.PlacementService) *UserHandler {
	return &UserHandler{
		userService:      userService,
		placementService: placementService,
	}
}

// Signup creates a new user and places them in the network.
// POST /v1/users/signup
func (h *UserHandler) Signup(c *gin.Context) {
	var req services.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	user, err := h.placementService.PlaceNewUser(&req)
	if err != nil {
		var validationErrs validator.ValidationErrors
		switch {
		case errors.As(err, &validationErrs):
			utils.ValidationErrorResponse(c, utils.GetValidationErrors(validationErrs))
		case errors.Is(err, services.ErrInviterNotFound):
			utils.NotFoundResponse(c, "Inviter")
		case errors.Is(err, services.ErrInviterRequired):
			utils.BadRequestResponse(c, "BIC signup requires inviter_world_id", nil)
		case errors.Is(err, acf.ErrNoOpenSlotNIC), errors.Is(err, acf.ErrNoOpenSlotBIC):
			utils.UnprocessableResponse(c, "NO_OPEN_SLOT", err.Error(), nil)
		default:
			logrus.WithError(err).Error("Failed to place new user")
			utils.InternalErrorResponse(c, "Failed to create user")
		}
		return
	}

	utils.CreatedResponse(c, user)
}

// GetUser returns one user by world id.
// GET /v1/users/:worldId
func (h *UserHandler) GetUser(c *gin.Context) {
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

	utils.SuccessResponse(c, user)
}

// ListUsers returns users in placement order.
// GET /v1/users
func (h *UserHandler) ListUsers(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	users, total, err := h.userService.ListUsers(params)
	if err != nil {
		logrus.WithError(err).Error("Failed to list users")
		utils.InternalErrorResponse(c, "")
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(users, total, params))
}

// ToggleAccepting flips a user's acf_accepting flag.
// PUT /v1/users/:worldId/acf-accepting
func (h *UserHandler) ToggleAccepting(c *gin.Context) {
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

	updated, err := h.placementService.ToggleAccepting(user.ID)
	if err != nil {
		logrus.WithError(err).Error("Failed to toggle accepting")
		utils.InternalErrorResponse(c, "")
		return
	}

	utils.SuccessResponse(c, gin.H{
		"world_id":      updated.WorldID,
		"acf_accepting": updated.ACFAccepting,
		"child_count":   updated.ChildCount,
		"max_children":  updated.MaxChildren,
	})
}

type setMaxChildrenRequest struct {
	MaxChildren int `json:"max_children" binding:"required"`
}

// SetMaxChildren changes a user's slot capacity.
// PUT /v1/users/:worldId/max-children
func (h *UserHandler) SetMaxChildren(c *gin.Context) {
	var req setMaxChildrenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

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

	updated, err := h.placementService.SetMaxChildren(user.ID, req.MaxChildren)
	if err != nil {
		if errors.Is(err, services.ErrMaxChildrenOOB) {
			utils.BadRequestResponse(c, err.Error(), nil)
			return
		}
		logrus.WithError(err).Error("Failed to set max children")
		utils.InternalErrorResponse(c, "")
		return
	}

	utils.SuccessResponse(c, gin.H{
		"world_id":      updated.WorldID,
		"max_children":  updated.MaxChildren,
		"acf_accepting": updated.ACFAccepting,
	})
}

type subtreeAcceptingRequest struct {
	Accepting *bool `json:"accepting" binding:"required"`
}

// SetSubtreeAccepting opens or closes a user's whole subtree.
// PUT /v1/users/:worldId/subtree-accepting
func (h *UserHandler) SetSubtreeAccepting(c *gin.Context) {
	var req subtreeAcceptingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

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

	changed, err := h.placementService.SetSubtreeAccepting(user.ID, *req.Accepting)
	if err != nil {
		logrus.WithError(err).Error("Failed to set subtree accepting")
		utils.InternalErrorResponse(c, "")
		return
	}

	utils.SuccessResponse(c, gin.H{
		"world_id":  user.WorldID,
		"accepting": *req.Accepting,
		"changed":   changed,
	})
}
