// File: internal/listing/handler.go
package listing

import (
	"errors"
	"mime/multipart"
	"strings"

	"fishtopia_backend/internal/common"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// maxUploadMemory bounds the in-memory part of a multipart listing form.
const maxUploadMemory = 64 << 20

// Handler serves listing writes. Listing reads are served as composed views
// by the readmodel handler.
type Handler struct {
	service Service
	logger  *zap.Logger
}

// NewHandler creates a new listing handler.
func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes sets up the routes for listing writes.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, authMW gin.HandlerFunc) {
	listingGroup := router.Group("/listings")
	listingGroup.Use(authMW)
	{
		listingGroup.POST("", h.createListing)
		listingGroup.PUT("/:id", h.updateListing)
		listingGroup.DELETE("/:id", h.deleteListing)
		listingGroup.POST("/:id/like", h.toggleLike)
	}
}

// bindListingForm binds the form fields into req and returns the uploaded images.
func (h *Handler) bindListingForm(c *gin.Context, req interface{}) ([]*multipart.FileHeader, bool) {
	var images []*multipart.FileHeader
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		if err := c.Request.ParseMultipartForm(maxUploadMemory); err != nil {
			h.logger.Warn("Failed to parse multipart form", zap.Error(err))
			common.RespondWithError(c, common.ErrBadRequest.WithDetails("Invalid request format or files too large: "+err.Error()))
			return nil, false
		}
		images = c.Request.MultipartForm.File["images"]
	}

	if err := c.ShouldBind(req); err != nil {
		h.logger.Warn("Invalid listing form data", zap.Error(err))
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			common.RespondWithError(c, common.NewValidationAPIError(common.FormatValidationErrors(ve)))
			return nil, false
		}
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Invalid form data: "+err.Error()))
		return nil, false
	}
	return images, true
}

func (h *Handler) createListing(c *gin.Context) {
	actor, ok := common.RequireActor(c)
	if !ok {
		return
	}

	var req CreateListingRequest
	images, ok := h.bindListingForm(c, &req)
	if !ok {
		return
	}

	listing, err := h.service.CreateListing(c.Request.Context(), actor, req, images)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondCreated(c, "Listing created successfully.", listing)
}

func (h *Handler) updateListing(c *gin.Context) {
	actor, ok := common.RequireActor(c)
	if !ok {
		return
	}

	var req UpdateListingRequest
	images, ok := h.bindListingForm(c, &req)
	if !ok {
		return
	}

	listing, err := h.service.UpdateListing(c.Request.Context(), actor, c.Param("id"), req, images)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Listing updated successfully.", listing)
}

func (h *Handler) deleteListing(c *gin.Context) {
	actor, ok := common.RequireActor(c)
	if !ok {
		return
	}

	if err := h.service.DeleteListing(c.Request.Context(), actor, c.Param("id")); err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondNoContent(c)
}

func (h *Handler) toggleLike(c *gin.Context) {
	actor, ok := common.RequireActor(c)
	if !ok {
		return
	}

	result, err := h.service.ToggleLike(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Like updated successfully.", result)
}
