// internal/handlers/network.go
package handlers

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/fingrow/acf-backend/internal/acf"
	"github.com/fingrow/acf-backend/internal/models"
	"github.com/fingrow/acf-backend/internal/services"
	"github.com/fingrow/acf-backend/internal/utils"
)

type NetworkHandler struct {
	networkService *services.NetworkService
}

func NewNetworkHandler(networkService *services.NetworkService) *NetworkHandler {
	return &NetworkHandler{networkService: networkService}
}

// GetTree returns a user's subtree down to grandchildren.
// GET /v1/network/:worldId/tree
func (h *NetworkHandler) GetTree(c *gin.Context) {
	tree, err := h.networkService.GetTree(c.Param("worldId"))
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			utils.NotFoundResponse(c, "User")
			return
		}
		logrus.WithError(err).Error("Failed to build network tree")
		utils.InternalErrorResponse(c, "")
		return
	}

	utils.SuccessResponse(c, tree)
}

// GetSummary returns downline counts.
// GET /v1/network/:worldId/summary
func (h *NetworkHandler) GetSummary(c *gin.Context) {
	summary, err := h.networkService.GetSummary(c.Param("worldId"))
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			utils.NotFoundResponse(c, "User")
			return
		}
		logrus.WithError(err).Error("Failed to build network summary")
		utils.InternalErrorResponse(c, "")
		return
	}

	utils.SuccessResponse(c, summary)
}

// GetTable returns the flat subtree table.
// GET /v1/network/:worldId/acf
func (h *NetworkHandler) GetTable(c *gin.Context) {
	rows, err := h.networkService.GetTable(c.Param("worldId"))
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			utils.NotFoundResponse(c, "User")
			return
		}
		logrus.WithError(err).Error("Failed to build network table")
		utils.InternalErrorResponse(c, "")
		return
	}

	utils.SuccessResponse(c, gin.H{
		"rows":  rows,
		"count": len(rows),
	})
}

// GetUplinePath returns the user plus their ancestor chain.
// GET /v1/network/:worldId/upline
func (h *NetworkHandler) GetUplinePath(c *gin.Context) {
	path, err := h.networkService.GetUplinePath(c.Param("worldId"))
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			utils.NotFoundResponse(c, "User")
			return
		}
		logrus.WithError(err).Error("Failed to build upline path")
		utils.InternalErrorResponse(c, "")
		return
	}

	utils.SuccessResponse(c, path)
}

// PreviewCandidates returns the ranked placement candidates for a mode.
// GET /v1/network/candidates?mode=NIC|BIC&inviter=25AAA0002&limit=5
func (h *NetworkHandler) PreviewCandidates(c *gin.Context) {
	mode := models.PlacementMode(c.DefaultQuery("mode", string(models.PlacementModeNIC)))
	if mode != models.PlacementModeNIC && mode != models.PlacementModeBIC {
		utils.BadRequestResponse(c, "mode must be NIC or BIC", nil)
		return
	}

	inviter := c.Query("inviter")
	if mode == models.PlacementModeBIC && inviter == "" {
		utils.BadRequestResponse(c, "BIC preview requires an inviter world id", nil)
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "5"))
	if limit < 1 || limit > 50 {
		limit = 5
	}

	candidates, err := h.networkService.PreviewCandidates(mode, inviter, limit)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInviterNotFound):
			utils.NotFoundResponse(c, "Inviter")
		case errors.Is(err, acf.ErrNoOpenSlotNIC), errors.Is(err, acf.ErrNoOpenSlotBIC):
			utils.SuccessResponse(c, gin.H{"mode": mode, "candidates": []services.CandidatePreview{}})
		default:
			logrus.WithError(err).Error("Failed to rank candidates")
			utils.InternalErrorResponse(c, "")
		}
		return
	}

	utils.SuccessResponse(c, gin.H{
		"mode":       mode,
		"candidates": candidates,
	})
}
