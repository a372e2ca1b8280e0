package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/worldcities/worldcities-api/internal/service"
)

// Register mounts all public routes on the given engine.
// Accepts service layer dependencies for API endpoints.
func Register(r *gin.Engine, repo Pinger, countrySvc service.CountryService, citySvc service.CityService) {
	h := NewHealthHandler(repo)

	// Health probes
	r.GET("/live", h.Liveness)
	r.GET("/ready", h.Readiness)

	// Docs endpoints (root-level)
	RegisterDocs(r)

	api := r.Group(APIPrefix)
	{
		health := api.Group("/health")
		{
			health.GET("/live", h.Liveness)
			health.GET("/ready", h.Readiness)
		}
		NewCountryHandler(countrySvc).Register(api)
		NewCityHandler(citySvc).Register(api)
		NewWeatherHandler(nil).Register(api)
	}
}
