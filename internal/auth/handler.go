package auth

import (
	"fishtopia_backend/internal/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler struct holds dependencies for auth handlers.
type Handler struct {
	service Service
	logger  *zap.Logger
}

// NewHandler creates a new auth handler.
func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes sets up the routes for authentication operations.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, authMW gin.HandlerFunc) {
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/logout", authMW, h.logout)
	}
}

func (h *Handler) logout(c *gin.Context) {
	actor, ok := common.RequireActor(c)
	if !ok {
		return
	}
	if err := h.service.SignOut(c.Request.Context(), actor); err != nil {
		h.logger.Warn("Logout failed", zap.String("uid", actor.UserID), zap.Error(err))
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Signed out successfully.", nil)
}
