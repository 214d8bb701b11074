package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/pigweb/pigweb/internal/api/middleware"
	"github.com/pigweb/pigweb/internal/service"
)

// PigHandler handles canonical record endpoints.
type PigHandler struct {
	pigs *service.PigService
}

// NewPigHandler creates a new pig handler.
func NewPigHandler(pigs *service.PigService) *PigHandler {
	return &PigHandler{pigs: pigs}
}

// Create handles POST /api/pigs/create. The name rides in the query so the
// endpoint stays usable without a body, matching how the import screens
// call it.
func (h *PigHandler) Create(c *gin.Context) {
	principal, ok := middleware.Principal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	name := c.Query("name")
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name parameter is required"})
		return
	}

	pig, err := h.pigs.Create(c.Request.Context(), name, principal.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create pig"})
		return
	}

	c.Header("Location", fmt.Sprintf("/api/pigs/fetch?id=%s", pig.ID))
	c.JSON(http.StatusCreated, pig)
}

// Fetch handles GET /api/pigs/fetch. A name filter returns ranked duplicate
// candidates; id filters are direct lookups.
func (h *PigHandler) Fetch(c *gin.Context) {
	ids, err := parseUUIDs(c.QueryArray("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid id: %v", err)})
		return
	}

	name := c.Query("name")
	if name == "" && len(ids) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name or id parameter is required"})
		return
	}

	pigs, err := h.pigs.Search(c.Request.Context(), name, ids)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch pigs"})
		return
	}

	c.JSON(http.StatusOK, pigs)
}

func parseIntParam(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%q is not a non-negative integer", s)
	}
	return n, nil
}
