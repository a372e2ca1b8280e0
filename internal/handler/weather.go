package handler

import (
	"math/rand/v2"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/worldcities/worldcities-api/internal/model"
	"github.com/worldcities/worldcities-api/pkg/response"
)

var summaries = []string{
	"Freezing", "Bracing", "Chilly", "Cool", "Mild", "Warm", "Balmy", "Hot", "Sweltering", "Scorching",
}

// WeatherHandler serves the random forecast the client's home page renders.
type WeatherHandler struct {
	mu  sync.Mutex
	rnd *rand.Rand
	now func() time.Time
}

// NewWeatherHandler uses src for randomness; nil seeds from the runtime.
func NewWeatherHandler(src rand.Source) *WeatherHandler {
	if src == nil {
		src = rand.NewPCG(rand.Uint64(), rand.Uint64())
	}
	return &WeatherHandler{rnd: rand.New(src), now: time.Now}
}

func (h *WeatherHandler) Register(r *gin.RouterGroup) {
	r.GET("/weatherforecast", h.list)
}

// Forecasts returns n daily forecasts starting tomorrow.
func (h *WeatherHandler) Forecasts(n int) []model.WeatherForecast {
	h.mu.Lock()
	defer h.mu.Unlock()
	today := h.now()
	out := make([]model.WeatherForecast, 0, n)
	for i := 1; i <= n; i++ {
		c := h.rnd.IntN(75) - 20 // [-20, 55)
		out = append(out, model.WeatherForecast{
			Date:         today.AddDate(0, 0, i).Format(time.DateOnly),
			TemperatureC: c,
			TemperatureF: 32 + int(float64(c)/0.5556),
			Summary:      summaries[h.rnd.IntN(len(summaries))],
		})
	}
	return out
}

func (h *WeatherHandler) list(c *gin.Context) {
	response.WriteData(c, http.StatusOK, h.Forecasts(5))
}
