package comment

import (
	"errors"

	"fishtopia_backend/internal/common"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// Handler serves comment and reply writes. Comment lists are served as
// composed views by the readmodel handler.
type Handler struct {
	service Service
	logger  *zap.Logger
}

// NewHandler creates a comment handler.
func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes sets up the comment write routes. All of them require authentication.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, authMW gin.HandlerFunc) {
	router.POST("/listings/:id/comments", authMW, h.addComment)

	commentGroup := router.Group("/comments")
	commentGroup.Use(authMW)
	{
		commentGroup.PUT("/:id", h.updateComment)
		commentGroup.DELETE("/:id", h.deleteComment)
		commentGroup.POST("/:id/replies", h.addReply)
		commentGroup.DELETE("/:id/replies/:replyId", h.deleteReply)
	}
}

func (h *Handler) bindText(c *gin.Context) (string, bool) {
	var req TextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid comment body", zap.Error(err))
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			common.RespondWithError(c, common.NewValidationAPIError(common.FormatValidationErrors(ve)))
			return "", false
		}
		common.RespondWithError(c, common.ErrBadRequest.WithDetails(err.Error()))
		return "", false
	}
	return req.Text, true
}

func (h *Handler) addComment(c *gin.Context) {
	actor, ok := common.RequireActor(c)
	if !ok {
		return
	}
	text, ok := h.bindText(c)
	if !ok {
		return
	}
	comment, err := h.service.AddComment(c.Request.Context(), actor, c.Param("id"), text)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondCreated(c, "Comment added successfully.", comment)
}

func (h *Handler) updateComment(c *gin.Context) {
	actor, ok := common.RequireActor(c)
	if !ok {
		return
	}
	text, ok := h.bindText(c)
	if !ok {
		return
	}
	comment, err := h.service.UpdateComment(c.Request.Context(), actor, c.Param("id"), text)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Comment updated successfully.", comment)
}

func (h *Handler) deleteComment(c *gin.Context) {
	actor, ok := common.RequireActor(c)
	if !ok {
		return
	}
	if err := h.service.DeleteComment(c.Request.Context(), actor, c.Param("id")); err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondNoContent(c)
}

func (h *Handler) addReply(c *gin.Context) {
	actor, ok := common.RequireActor(c)
	if !ok {
		return
	}
	text, ok := h.bindText(c)
	if !ok {
		return
	}
	reply, err := h.service.AddReply(c.Request.Context(), actor, c.Param("id"), text)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondCreated(c, "Reply added successfully.", reply)
}

func (h *Handler) deleteReply(c *gin.Context) {
	actor, ok := common.RequireActor(c)
	if !ok {
		return
	}
	if err := h.service.DeleteReply(c.Request.Context(), actor, c.Param("id"), c.Param("replyId")); err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondNoContent(c)
}
