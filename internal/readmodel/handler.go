package readmodel

import (
	"strconv"

	"fishtopia_backend/internal/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler serves the composed read routes.
type Handler struct {
	service Service
	logger  *zap.Logger
}

// NewHandler creates a read model handler.
func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes mounts the read routes. They are public; optionalAuth
// attaches the viewer when a valid token is sent.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, optionalAuth gin.HandlerFunc) {
	listingGroup := router.Group("/listings")
	listingGroup.Use(optionalAuth)
	{
		listingGroup.GET("/recent", h.recentListings)
		listingGroup.GET("/:id", h.getListing)
		listingGroup.GET("/:id/comments", h.listingComments)
	}

	userGroup := router.Group("/users")
	userGroup.Use(optionalAuth)
	{
		userGroup.GET("/:id/listings", h.userListings)
		userGroup.GET("/:id/profile", h.profile)
	}
}

func (h *Handler) recentListings(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	views, err := h.service.RecentListings(c.Request.Context(), common.GetActorFromContext(c), limit)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Recent listings retrieved successfully.", views)
}

func (h *Handler) getListing(c *gin.Context) {
	view, err := h.service.Listing(c.Request.Context(), common.GetActorFromContext(c), c.Param("id"))
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Listing retrieved successfully.", view)
}

func (h *Handler) listingComments(c *gin.Context) {
	views, err := h.service.ListingComments(c.Request.Context(), c.Param("id"))
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Comments retrieved successfully.", views)
}

func (h *Handler) userListings(c *gin.Context) {
	page, pageSize := common.GetPaginationParams(c)
	views, pagination, err := h.service.UserListings(c.Request.Context(), common.GetActorFromContext(c), c.Param("id"), page, pageSize)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondPaginated(c, "User listings retrieved successfully.", views, pagination)
}

func (h *Handler) profile(c *gin.Context) {
	page, pageSize := common.GetPaginationParams(c)
	view, err := h.service.Profile(c.Request.Context(), common.GetActorFromContext(c), c.Param("id"), page, pageSize)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Profile retrieved successfully.", view)
}
