package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/worldcities/worldcities-api/internal/service"
	"github.com/worldcities/worldcities-api/pkg/response"
)

type CityHandler struct {
	svc service.CityService
}

func NewCityHandler(svc service.CityService) *CityHandler { return &CityHandler{svc: svc} }

func (h *CityHandler) Register(r *gin.RouterGroup) {
	g := r.Group("/cities")
	{
		g.GET("", h.list)
		g.POST("", h.create)
		g.GET("/:id", h.getByID)
		g.PUT("/:id", h.update)
		g.DELETE("/:id", h.delete)
	}
}

// list serves GET /api/cities?pageIndex=&pageSize=&sortColumn=&sortOrder=.
func (h *CityHandler) list(c *gin.Context) {
	req, ferrs := listRequest(c)
	if len(ferrs) > 0 {
		response.WriteError(c, service.InvalidInput(ferrs...))
		return
	}
	page, err := h.svc.ListCities(c.Request.Context(), req)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, page)
}

func (h *CityHandler) getByID(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	city, err := h.svc.GetCity(c.Request.Context(), id)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, city)
}

func (h *CityHandler) create(c *gin.Context) {
	var req service.CityInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.WriteError(c, service.ErrInvalidInput)
		return
	}
	city, err := h.svc.CreateCity(c.Request.Context(), req)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusCreated, city)
}

func (h *CityHandler) update(c *gin.Context) {
	var req service.CityInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.WriteError(c, service.ErrInvalidInput)
		return
	}
	id, err := pathID(c)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	city, err := h.svc.UpdateCity(c.Request.Context(), id, req)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, city)
}

func (h *CityHandler) delete(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	if err = h.svc.DeleteCity(c.Request.Context(), id); err != nil {
		response.WriteError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
