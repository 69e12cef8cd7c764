package handlers

import (
	"log/slog"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/kesarsunil/problemstatment/internal/domain"
	"github.com/kesarsunil/problemstatment/internal/live"
	"github.com/kesarsunil/problemstatment/internal/service"
)

type Config struct {
	AdminKey           string
	RegisterRatePerSec float64
	RegisterBurst      int
}

type Handler struct {
	services  *service.Services
	projector *live.Projector
	cfg       Config
	logger    *slog.Logger
}

func NewHandler(services *service.Services, projector *live.Projector, cfg Config, logger *slog.Logger) *Handler {
	return &Handler{
		services:  services,
		projector: projector,
		cfg:       cfg,
		logger:    logger,
	}
}

func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	config := cors.DefaultConfig()
	config.AllowAllOrigins = true
	config.AllowMethods = []string{"GET", "POST"}
	config.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "X-Admin-Key"}

	router.Use(cors.New(config))

	router.GET("/healthz", h.Healthz)

	teams := router.Group("/teams")
	{
		teams.GET("", h.ListTeams)
		teams.GET("/:teamID", h.GetTeam)
	}

	router.GET("/challenges", h.ListChallenges)

	router.POST("/register", h.registerRateLimit(), h.Register)
	router.GET("/registrations/team/:teamID", h.GetTeamRegistration)

	liveGroup := router.Group("/live")
	{
		liveGroup.GET("/stream", h.StreamSSE)
		liveGroup.GET("/ws", h.StreamWS)
	}

	admin := router.Group("/admin", h.adminKeyRequired())
	{
		admin.POST("/challenges", h.CreateChallenge)
		admin.GET("/export", h.ExportCSV)
		admin.GET("/export.json", h.ExportJSON)
	}

	return router
}

func (h *Handler) Healthz(c *gin.Context) {
	c.JSON(200, gin.H{"status": "ok"})
}

func (h *Handler) errorResponse(c *gin.Context, status int, code, message string) {
	h.logger.Error("handler error", "code", code, "message", message, "status", status)
	c.JSON(status, domain.ErrorResponse{
		Error: domain.ErrorDetail{
			Code:    code,
			Message: message,
		},
	})
}

func (h *Handler) successResponse(c *gin.Context, status int, data interface{}) {
	c.JSON(status, data)
}
