package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/worldcities/worldcities-api/internal/service"
	"github.com/worldcities/worldcities-api/pkg/response"
)

type CountryHandler struct {
	svc service.CountryService
}

func NewCountryHandler(svc service.CountryService) *CountryHandler { return &CountryHandler{svc: svc} }

func (h *CountryHandler) Register(r *gin.RouterGroup) {
	g := r.Group("/countries")
	{
		g.GET("", h.list)
		g.POST("", h.create)
		g.GET("/:id", h.getByID)
		g.PUT("/:id", h.update)
		g.DELETE("/:id", h.delete)
		g.GET("/:id/cities", h.listCities)
	}
}

func (h *CountryHandler) list(c *gin.Context) {
	req, ferrs := listRequest(c)
	if len(ferrs) > 0 {
		response.WriteError(c, service.InvalidInput(ferrs...))
		return
	}
	page, err := h.svc.ListCountries(c.Request.Context(), req)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, page)
}

func (h *CountryHandler) listCities(c *gin.Context) {
	req, ferrs := listRequest(c)
	if len(ferrs) > 0 {
		response.WriteError(c, service.InvalidInput(ferrs...))
		return
	}
	id, err := pathID(c)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	page, err := h.svc.ListCountryCities(c.Request.Context(), id, req)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, page)
}

func (h *CountryHandler) getByID(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	country, err := h.svc.GetCountry(c.Request.Context(), id)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, country)
}

func (h *CountryHandler) create(c *gin.Context) {
	var req service.CountryInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.WriteError(c, service.ErrInvalidInput) // parsing details stay internal
		return
	}
	country, err := h.svc.CreateCountry(c.Request.Context(), req)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusCreated, country)
}

func (h *CountryHandler) update(c *gin.Context) {
	var req service.CountryInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.WriteError(c, service.ErrInvalidInput)
		return
	}
	id, err := pathID(c)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	country, err := h.svc.UpdateCountry(c.Request.Context(), id, req)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, country)
}

func (h *CountryHandler) delete(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	if err = h.svc.DeleteCountry(c.Request.Context(), id); err != nil {
		response.WriteError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
