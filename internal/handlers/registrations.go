package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kesarsunil/problemstatment/internal/domain"
)

func (h *Handler) Register(c *gin.Context) {
	var req domain.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "INVALID_INPUT", "invalid request body")
		return
	}

	ctx := c.Request.Context()

	// Pre-filter on the cached snapshot: skips the transaction for a
	// challenge that already looked full. Only ever rejects, and only for
	// known teams; an unknown team still gets its hard failure. The commit
	// decision below never trusts this cache.
	if h.projector != nil && h.projector.LooksFull(ctx, req.ChallengeID) {
		_, teamErr := h.services.RosterService.GetTeam(ctx, req.TeamID)
		switch {
		case errors.Is(teamErr, domain.ErrTeamNotFound):
			h.errorResponse(c, http.StatusNotFound, "TEAM_NOT_FOUND", teamErr.Error())
			return
		case teamErr == nil:
			if cached, ok := h.projector.CachedOccupancy(ctx, req.ChallengeID); ok {
				h.errorResponse(c, http.StatusConflict, "CHALLENGE_FULL",
					fmt.Sprintf("challenge %s is full (%d/%d)", req.ChallengeID, cached.Occupancy, cached.Capacity))
				return
			}
		}
		// On a roster lookup failure the transaction path decides.
	}

	result, err := h.services.RegistrationService.Register(ctx, req.TeamID, req.ChallengeID)
	if err != nil {
		var fullErr *domain.ChallengeFullError
		var dupErr *domain.TeamAlreadyRegisteredError
		switch {
		case errors.As(err, &fullErr):
			h.errorResponse(c, http.StatusConflict, "CHALLENGE_FULL", fullErr.Error())
		case errors.As(err, &dupErr):
			h.errorResponse(c, http.StatusConflict, "TEAM_ALREADY_REGISTERED", dupErr.Error())
		case errors.Is(err, domain.ErrTeamNotFound):
			h.errorResponse(c, http.StatusNotFound, "TEAM_NOT_FOUND", err.Error())
		case errors.Is(err, domain.ErrChallengeNotFound):
			h.errorResponse(c, http.StatusNotFound, "CHALLENGE_NOT_FOUND", err.Error())
		case errors.Is(err, domain.ErrTransient):
			h.errorResponse(c, http.StatusServiceUnavailable, "TRY_AGAIN", "temporary contention, please retry")
		default:
			h.errorResponse(c, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return
	}

	h.successResponse(c, http.StatusCreated, gin.H{
		"status":       "ALLOCATED",
		"registration": result.Registration,
		"occupancy":    result.Occupancy,
		"capacity":     result.Capacity,
	})
}

// GetTeamRegistration lets a client that timed out mid-register discover
// whether its transaction committed instead of retrying blind.
func (h *Handler) GetTeamRegistration(c *gin.Context) {
	teamID := c.Param("teamID")
	if teamID == "" {
		h.errorResponse(c, http.StatusBadRequest, "INVALID_INPUT", "teamID is required")
		return
	}

	reg, err := h.services.RegistrationService.GetTeamRegistration(c.Request.Context(), teamID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrTeamNotFound):
			h.errorResponse(c, http.StatusNotFound, "TEAM_NOT_FOUND", err.Error())
		case errors.Is(err, domain.ErrNotFound):
			h.successResponse(c, http.StatusOK, gin.H{"registered": false})
		default:
			h.errorResponse(c, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return
	}

	h.successResponse(c, http.StatusOK, gin.H{
		"registered":   true,
		"registration": reg,
	})
}
