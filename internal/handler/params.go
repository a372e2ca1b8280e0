package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/worldcities/worldcities-api/internal/service"
)

// listRequest reads pageIndex, pageSize, sortColumn and sortOrder from the
// query string. Absent numbers are left zero for the service to default.
func listRequest(c *gin.Context) (service.ListRequest, []service.FieldError) {
	var (
		req   service.ListRequest
		ferrs []service.FieldError
	)
	if v := c.Query("pageIndex"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			ferrs = append(ferrs, service.FieldError{Field: "pageIndex", Message: "must be an integer"})
		}
		req.PageIndex = n
	}
	if v := c.Query("pageSize"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			ferrs = append(ferrs, service.FieldError{Field: "pageSize", Message: "must be an integer"})
		}
		req.PageSize = n
	}
	req.SortColumn = c.Query("sortColumn")
	req.SortOrder = c.Query("sortOrder")
	return req, ferrs
}

// pathID parses the :id segment. A non-integer id is reported as a field
// error; range checks stay with the services.
func pathID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return 0, service.InvalidInput(service.FieldError{Field: "id", Message: "must be an integer"})
	}
	return id, nil
}
