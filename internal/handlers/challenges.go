package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handler) ListChallenges(c *gin.Context) {
	challenges, err := h.services.CatalogService.ListChallenges(c.Request.Context())
	if err != nil {
		h.errorResponse(c, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		return
	}

	h.successResponse(c, http.StatusOK, gin.H{"challenges": challenges})
}
