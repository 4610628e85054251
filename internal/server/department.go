package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	departmentdomain "github.com/smallbiznis/clientdir/internal/department/domain"
	"github.com/smallbiznis/clientdir/pkg/db/pagination"
)

// ListDepartments serves GET /api/department. Members are not expanded at
// this endpoint; the parent is referenced by UID.
func (s *Server) ListDepartments(c *gin.Context) {
	var query pagination.Pagination
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.departmentSvc.List(c.Request.Context(), departmentdomain.ListDepartmentRequest{
		PageToken: query.PageToken,
		PageSize:  query.PageSize,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
