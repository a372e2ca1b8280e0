package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/worldcities/worldcities-api/internal/handler"
	"github.com/worldcities/worldcities-api/internal/model"
	"github.com/worldcities/worldcities-api/internal/repository"
)

func TestRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	r := handler.NewEngine(zerolog.New(&buf))
	handler.Register(r, stubPinger{}, &stubCountryService{err: repository.ErrNotFound}, nil)

	t.Run("generated", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/live", nil))
		_, err := uuid.Parse(w.Header().Get(handler.RequestIDHeader))
		assert.NoError(t, err)
	})

	t.Run("propagated and logged", func(t *testing.T) {
		buf.Reset()
		req := httptest.NewRequest(http.MethodGet, "/api/countries/3", nil)
		req.Header.Set(handler.RequestIDHeader, "abc-123")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, "abc-123", w.Header().Get(handler.RequestIDHeader))

		var line map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
		assert.Equal(t, "abc-123", line["request_id"])
		assert.Equal(t, float64(http.StatusNotFound), line["status"])
		assert.Equal(t, "/api/countries/:id", line["path"])
		assert.Equal(t, "warn", line["level"])
		assert.Equal(t, "not found", line["error"])
	})
}

func TestWithCORS(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler.Register(r, stubPinger{}, nil, nil)
	h := handler.WithCORS(r, []string{"http://localhost:4200"})

	req := httptest.NewRequest(http.MethodOptions, "/api/cities", nil)
	req.Header.Set("Origin", "http://localhost:4200")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, "http://localhost:4200", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/live", nil)
	req.Header.Set("Origin", "http://evil.example")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))

	assert.Equal(t, http.Handler(r), handler.WithCORS(r, nil))
}

func TestWeatherForecast(t *testing.T) {
	r := newRouter(stubPinger{}, nil, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/weatherforecast", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var got []model.WeatherForecast
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, got, 5)
	for _, f := range got {
		assert.GreaterOrEqual(t, f.TemperatureC, -20)
		assert.Less(t, f.TemperatureC, 55)
		assert.Equal(t, 32+int(float64(f.TemperatureC)/0.5556), f.TemperatureF)
		assert.NotEmpty(t, f.Summary)
		_, err := time.Parse(time.DateOnly, f.Date)
		assert.NoError(t, err)
	}
}
