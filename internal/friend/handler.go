package friend

import (
	"errors"

	"fishtopia_backend/internal/common"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// Handler serves the friend endpoints.
type Handler struct {
	service Service
	logger  *zap.Logger
}

// NewHandler creates a friend handler.
func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes sets up the friend routes. All of them require authentication.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, authMW gin.HandlerFunc) {
	friendGroup := router.Group("/friends")
	friendGroup.Use(authMW)
	{
		friendGroup.GET("", h.listFriends)
		friendGroup.DELETE("/:userId", h.removeFriend)
		friendGroup.GET("/:userId/status", h.status)

		friendGroup.POST("/requests", h.sendRequest)
		friendGroup.GET("/requests/incoming", h.listIncoming)
		friendGroup.POST("/requests/:id/accept", h.acceptRequest)
		friendGroup.POST("/requests/:id/reject", h.rejectRequest)
	}
}

func (h *Handler) sendRequest(c *gin.Context) {
	actor, ok := common.RequireActor(c)
	if !ok {
		return
	}
	var req SendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid friend request body", zap.Error(err))
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			common.RespondWithError(c, common.NewValidationAPIError(common.FormatValidationErrors(ve)))
			return
		}
		common.RespondWithError(c, common.ErrBadRequest.WithDetails(err.Error()))
		return
	}
	fr, err := h.service.SendFriendRequest(c.Request.Context(), actor, req.ReceiverID)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondCreated(c, "Friend request sent.", fr)
}

func (h *Handler) listIncoming(c *gin.Context) {
	actor, ok := common.RequireActor(c)
	if !ok {
		return
	}
	requests, err := h.service.ListIncomingRequests(c.Request.Context(), actor)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Friend requests retrieved successfully.", requests)
}

func (h *Handler) acceptRequest(c *gin.Context) {
	actor, ok := common.RequireActor(c)
	if !ok {
		return
	}
	fr, err := h.service.AcceptFriendRequest(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Friend request accepted.", fr)
}

func (h *Handler) rejectRequest(c *gin.Context) {
	actor, ok := common.RequireActor(c)
	if !ok {
		return
	}
	fr, err := h.service.RejectFriendRequest(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Friend request rejected.", fr)
}

func (h *Handler) listFriends(c *gin.Context) {
	actor, ok := common.RequireActor(c)
	if !ok {
		return
	}
	friends, err := h.service.ListFriends(c.Request.Context(), actor)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Friends retrieved successfully.", friends)
}

func (h *Handler) removeFriend(c *gin.Context) {
	actor, ok := common.RequireActor(c)
	if !ok {
		return
	}
	if err := h.service.RemoveFriend(c.Request.Context(), actor, c.Param("userId")); err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondNoContent(c)
}

func (h *Handler) status(c *gin.Context) {
	actor, ok := common.RequireActor(c)
	if !ok {
		return
	}
	st, err := h.service.Status(c.Request.Context(), actor, c.Param("userId"))
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Friend status retrieved successfully.", st)
}
