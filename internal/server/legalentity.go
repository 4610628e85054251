package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	legalentitydomain "github.com/smallbiznis/clientdir/internal/legalentity/domain"
	"github.com/smallbiznis/clientdir/pkg/db/pagination"
)

// ListLegalEntities serves GET /api/legal_entity with nested departments
// and members.
func (s *Server) ListLegalEntities(c *gin.Context) {
	var query pagination.Pagination
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.legalEntitySvc.List(c.Request.Context(), legalentitydomain.ListLegalEntityRequest{
		PageToken: query.PageToken,
		PageSize:  query.PageSize,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
