// File: internal/user/handler.go
package user

import (
	"errors"

	"fishtopia_backend/internal/common"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// Handler struct holds dependencies for user handlers.
type Handler struct {
	service Service
	logger  *zap.Logger
}

// NewHandler creates a new user handler.
func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes sets up the routes for user operations.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, authMW gin.HandlerFunc) {
	userGroup := router.Group("/users")
	{
		userGroup.POST("/register", h.register)
		userGroup.POST("/password-reset", h.passwordReset)
		userGroup.GET("/:id", h.getUserByID)

		authenticatedUserGroup := userGroup.Group("")
		authenticatedUserGroup.Use(authMW)
		{
			authenticatedUserGroup.GET("/me", h.getMe)
			authenticatedUserGroup.PUT("/me", h.updateMe)
			authenticatedUserGroup.POST("/me/avatar", h.uploadAvatar)
		}
	}
}

func (h *Handler) bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		h.logger.Warn("Invalid request body", zap.String("path", c.FullPath()), zap.Error(err))
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			common.RespondWithError(c, common.NewValidationAPIError(common.FormatValidationErrors(ve)))
			return false
		}
		common.RespondWithError(c, common.ErrBadRequest.WithDetails(err.Error()))
		return false
	}
	return true
}

func (h *Handler) register(c *gin.Context) {
	var req SignUpRequest
	if !h.bindJSON(c, &req) {
		return
	}
	usr, err := h.service.SignUp(c.Request.Context(), req)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondCreated(c, "User registered successfully.", usr)
}

func (h *Handler) passwordReset(c *gin.Context) {
	var req PasswordResetRequest
	if !h.bindJSON(c, &req) {
		return
	}
	link, err := h.service.PasswordResetLink(c.Request.Context(), req.Email)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Password reset link generated.", PasswordResetResponse{Link: link})
}

func (h *Handler) getMe(c *gin.Context) {
	actor, ok := common.RequireActor(c)
	if !ok {
		return
	}
	usr, err := h.service.EnsureProfile(c.Request.Context(), actor)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "User profile retrieved successfully.", usr)
}

func (h *Handler) updateMe(c *gin.Context) {
	actor, ok := common.RequireActor(c)
	if !ok {
		return
	}
	var req UpdateProfileRequest
	if !h.bindJSON(c, &req) {
		return
	}
	usr, err := h.service.UpdateProfile(c.Request.Context(), actor, actor.UserID, req)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Profile updated successfully.", usr)
}

func (h *Handler) uploadAvatar(c *gin.Context) {
	actor, ok := common.RequireActor(c)
	if !ok {
		return
	}
	fileHeader, err := c.FormFile("avatar")
	if err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("An 'avatar' file is required."))
		return
	}
	usr, err := h.service.UploadAvatar(c.Request.Context(), actor, fileHeader)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Avatar updated successfully.", usr)
}

func (h *Handler) getUserByID(c *gin.Context) {
	usr, err := h.service.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "User retrieved successfully.", usr)
}
