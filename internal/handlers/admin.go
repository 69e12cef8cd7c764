package handlers

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kesarsunil/problemstatment/internal/domain"
)

// adminKeyRequired checks the shared admin key on every request. The
// credential is carried per request; there is no logged-in state.
func (h *Handler) adminKeyRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader("X-Admin-Key")
		if key == "" || subtle.ConstantTimeCompare([]byte(key), []byte(h.cfg.AdminKey)) != 1 {
			h.errorResponse(c, http.StatusUnauthorized, "UNAUTHORIZED", "admin key required")
			c.Abort()
			return
		}
		c.Next()
	}
}

func (h *Handler) CreateChallenge(c *gin.Context) {
	var req domain.CreateChallengeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "INVALID_INPUT", "invalid request body")
		return
	}

	ch, err := h.services.CatalogService.CreateChallenge(c.Request.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrChallengeExists):
			h.errorResponse(c, http.StatusConflict, "CHALLENGE_EXISTS", err.Error())
		case errors.Is(err, domain.ErrInvalidInput):
			h.errorResponse(c, http.StatusBadRequest, "INVALID_INPUT", err.Error())
		default:
			h.errorResponse(c, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return
	}

	h.successResponse(c, http.StatusCreated, gin.H{"challenge": ch})
}

func (h *Handler) ExportJSON(c *gin.Context) {
	rows, err := h.services.ExportService.Snapshot(c.Request.Context())
	if err != nil {
		h.errorResponse(c, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		return
	}

	h.successResponse(c, http.StatusOK, gin.H{
		"total":         len(rows),
		"registrations": rows,
	})
}

func (h *Handler) ExportCSV(c *gin.Context) {
	rows, err := h.services.ExportService.Snapshot(c.Request.Context())
	if err != nil {
		h.errorResponse(c, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		return
	}

	filename := fmt.Sprintf("registrations-%s.csv", time.Now().UTC().Format("20060102-150405"))
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename=%q`, filename))
	c.Status(http.StatusOK)

	if err := h.services.ExportService.WriteCSV(c.Writer, rows); err != nil {
		h.logger.Error("csv export failed", "error", err)
	}
}
