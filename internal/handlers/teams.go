package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kesarsunil/problemstatment/internal/domain"
)

func (h *Handler) ListTeams(c *gin.Context) {
	teams, err := h.services.RosterService.ListTeams(c.Request.Context())
	if err != nil {
		h.errorResponse(c, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		return
	}

	h.successResponse(c, http.StatusOK, gin.H{"teams": teams})
}

func (h *Handler) GetTeam(c *gin.Context) {
	teamID := c.Param("teamID")
	if teamID == "" {
		h.errorResponse(c, http.StatusBadRequest, "INVALID_INPUT", "teamID is required")
		return
	}

	team, err := h.services.RosterService.GetTeam(c.Request.Context(), teamID)
	if err != nil {
		if errors.Is(err, domain.ErrTeamNotFound) {
			h.errorResponse(c, http.StatusNotFound, "TEAM_NOT_FOUND", err.Error())
			return
		}
		h.errorResponse(c, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		return
	}

	h.successResponse(c, http.StatusOK, team)
}
