package controllers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/franciscosanchezn/gin-foodgram-api/internal/middleware"
	"github.com/franciscosanchezn/gin-foodgram-api/internal/services"
)

// viewerFrom builds the viewer from what the authenticator put in the
// context. Requests without a token get the anonymous viewer.
func viewerFrom(c *gin.Context) services.Viewer {
	id, _ := c.Get(middleware.ContextUserID)
	userID, ok := id.(uint)
	if !ok {
		return services.Viewer{}
	}
	return services.Viewer{
		ID:      userID,
		IsStaff: c.GetString(middleware.ContextUserRole) == "admin",
	}
}

// pathID parses the :id path parameter. Anything that is not a positive
// integer cannot name a row, so it is answered with 404.
func pathID(c *gin.Context, notFound string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		respondError(c, services.NotFound(notFound))
		return 0, false
	}
	return uint(id), true
}

// recipesLimit reads ?recipes_limit. Negative values are clamped to zero;
// a missing or non-numeric value means no cap.
func recipesLimit(c *gin.Context) *int {
	raw, ok := c.GetQuery("recipes_limit")
	if !ok {
		return nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil {
		return nil
	}
	if limit < 0 {
		limit = 0
	}
	return &limit
}
