package search

import (
	"fishtopia_backend/internal/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler exposes the search endpoints.
type Handler struct {
	service Service
	logger  *zap.Logger
}

// NewHandler creates a search handler.
func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes mounts /search. Search is public.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/search")
	group.GET("/listings", h.searchListings)
	group.GET("/users", h.searchUsers)
}

func queryFromRequest(c *gin.Context) Query {
	page, pageSize := common.GetPaginationParams(c)
	return Query{Text: c.Query("q"), Page: page, PageSize: pageSize}
}

func (h *Handler) searchListings(c *gin.Context) {
	q := queryFromRequest(c)
	hits, total, err := h.service.SearchListings(c.Request.Context(), q)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondPaginated(c, "Listings search completed.", hits, common.NewPagination(total, q.Page, q.PageSize))
}

func (h *Handler) searchUsers(c *gin.Context) {
	q := queryFromRequest(c)
	hits, total, err := h.service.SearchUsers(c.Request.Context(), q)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondPaginated(c, "Users search completed.", hits, common.NewPagination(total, q.Page, q.PageSize))
}
