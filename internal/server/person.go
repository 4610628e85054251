package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	persondomain "github.com/smallbiznis/clientdir/internal/person/domain"
	"github.com/smallbiznis/clientdir/pkg/db/pagination"
)

// ListNaturalPersons serves GET /api/natural_persons.
func (s *Server) ListNaturalPersons(c *gin.Context) {
	var query pagination.Pagination
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.personSvc.List(c.Request.Context(), persondomain.ListPersonRequest{
		PageToken: query.PageToken,
		PageSize:  query.PageSize,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
