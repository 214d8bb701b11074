package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pigweb/pigweb/internal/api/middleware"
	"github.com/pigweb/pigweb/internal/domain"
	"github.com/pigweb/pigweb/internal/service"
)

// BulkHandler handles bulk import endpoints.
type BulkHandler struct {
	bulk    *service.BulkService
	archive *service.ArchiveService
}

// NewBulkHandler creates a new bulk handler.
// Parameters:
//   - bulk: bulk import service.
//   - archive: archive service, nil when archiving is disabled.
// Returns:
//   - *BulkHandler: initialized handler.
func NewBulkHandler(bulk *service.BulkService, archive *service.ArchiveService) *BulkHandler {
	return &BulkHandler{bulk: bulk, archive: archive}
}

// Create handles POST /api/bulk/create. The body is the raw name list; the
// response is the classified import with a Location pointing at its fetch URL.
func (h *BulkHandler) Create(c *gin.Context) {
	principal, ok := middleware.Principal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	var names []string
	if err := c.ShouldBindJSON(&names); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "request body must be a JSON array of names"})
		return
	}

	imp, err := h.bulk.CreateImport(c.Request.Context(), principal.ID, names)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create bulk import"})
		return
	}

	c.Header("Location", fmt.Sprintf("/api/bulk/fetch?id=%s", imp.ID))
	c.JSON(http.StatusCreated, imp)
}

// Patch handles PATCH /api/bulk/patch. The body is a set of bucket actions
// addressed to one import; the reply carries status only, the client already
// knows the actions it sent.
func (h *BulkHandler) Patch(c *gin.Context) {
	var patch domain.BulkPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid patch body"})
		return
	}
	if patch.ID == uuid.Nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "patch must address an import id"})
		return
	}

	_, err := h.bulk.Patch(c.Request.Context(), &patch)
	switch {
	case err == nil:
		c.Status(http.StatusOK)
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "bulk import not found"})
	case errors.Is(err, domain.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "import changed concurrently, retry the patch"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to patch bulk import"})
	}
}

// Fetch handles GET /api/bulk/fetch. Supports repeated id and creator query
// parameters plus limit/offset. Callers without the admin role only ever see
// their own imports, whatever creator filter they sent.
func (h *BulkHandler) Fetch(c *gin.Context) {
	principal, ok := middleware.Principal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	ids, err := parseUUIDs(c.QueryArray("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid id: %v", err)})
		return
	}
	creators, err := parseUUIDs(c.QueryArray("creator"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid creator: %v", err)})
		return
	}

	limit, err := parseIntParam(c.DefaultQuery("limit", "0"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit parameter"})
		return
	}
	offset, err := parseIntParam(c.DefaultQuery("offset", "0"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid offset parameter"})
		return
	}

	if !principal.HasRole(domain.RoleBulkAdmin) {
		creators = []uuid.UUID{principal.ID}
	}

	imports, err := h.bulk.Fetch(c.Request.Context(), domain.BulkFilter{
		IDs:      ids,
		Creators: creators,
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch bulk imports"})
		return
	}

	c.JSON(http.StatusOK, imports)
}

// Archive handles POST /api/bulk/archive. Only finished imports can be
// exported; archiving is refused when no object storage is configured.
func (h *BulkHandler) Archive(c *gin.Context) {
	if h.archive == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "archiving is not configured"})
		return
	}

	id, err := uuid.Parse(c.Query("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id parameter"})
		return
	}

	key, url, err := h.archive.Archive(c.Request.Context(), id)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"key": key, "url": url})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "bulk import not found"})
	case errors.Is(err, domain.ErrNotFinished):
		c.JSON(http.StatusConflict, gin.H{"error": "import still has pending names"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to archive bulk import"})
	}
}

func parseUUIDs(raw []string) ([]uuid.UUID, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	out := make([]uuid.UUID, 0, len(raw))
	for _, s := range raw {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("%q is not a UUID", s)
		}
		out = append(out, id)
	}
	return out, nil
}
