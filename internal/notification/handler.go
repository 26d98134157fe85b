package notification

import (
	"fishtopia_backend/internal/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	service Service
	logger  *zap.Logger
}

func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes sets up the routes for notification operations.
// All routes in this group are authenticated.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, authMW gin.HandlerFunc) {
	group := router.Group("/notifications")
	group.Use(authMW)
	{
		group.GET("", h.getNotifications)
		group.GET("/unread-count", h.getUnreadCount)
		group.POST("/:notification_id/mark-read", h.markNotificationAsRead)
		group.POST("/mark-all-read", h.markAllNotificationsAsRead)
	}
}

func (h *Handler) getNotifications(c *gin.Context) {
	actor, ok := common.RequireActor(c)
	if !ok {
		return
	}

	page, pageSize := common.GetPaginationParams(c)

	notifications, pagination, err := h.service.ListForUser(c.Request.Context(), actor, page, pageSize)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondPaginated(c, "Notifications retrieved successfully.", notifications, pagination)
}

func (h *Handler) getUnreadCount(c *gin.Context) {
	actor, ok := common.RequireActor(c)
	if !ok {
		return
	}

	count, err := h.service.UnreadCount(c.Request.Context(), actor)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Unread count retrieved successfully.", UnreadCountResponse{Unread: count})
}

func (h *Handler) markNotificationAsRead(c *gin.Context) {
	actor, ok := common.RequireActor(c)
	if !ok {
		return
	}

	notificationID := c.Param("notification_id")
	if notificationID == "" {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Notification ID is required."))
		return
	}

	if err := h.service.MarkAsRead(c.Request.Context(), actor, notificationID); err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Notification marked as read successfully.", nil)
}

func (h *Handler) markAllNotificationsAsRead(c *gin.Context) {
	actor, ok := common.RequireActor(c)
	if !ok {
		return
	}

	count, err := h.service.MarkAllAsRead(c.Request.Context(), actor)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "All notifications marked as read successfully.", gin.H{"updated": count})
}
