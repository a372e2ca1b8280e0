package handler_test

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/worldcities/worldcities-api/internal/handler"
	"github.com/worldcities/worldcities-api/internal/model"
	"github.com/worldcities/worldcities-api/internal/paging"
	"github.com/worldcities/worldcities-api/internal/service"
)

// stubPinger implements handler.Pinger for health endpoints.
type stubPinger struct{ err error }

func (s stubPinger) Ping(ctx context.Context) error { return s.err }

// fakeInvalid replicates aggregated validation error semantics.
type fakeInvalid struct{ fe []service.FieldError }

func (f *fakeInvalid) Error() string                { return service.ErrInvalidInput.Error() }
func (f *fakeInvalid) Unwrap() error                { return service.ErrInvalidInput }
func (f *fakeInvalid) Fields() []service.FieldError { return f.fe }

// stubCountryService lets us control each method outcome and captures inputs.
type stubCountryService struct {
	lastList  service.ListRequest
	lastID    int64
	lastInput service.CountryInput
	page      paging.Page[model.Country]
	cityPage  paging.Page[model.City]
	country   model.Country
	err       error
}

func (s *stubCountryService) ListCountries(_ context.Context, req service.ListRequest) (paging.Page[model.Country], error) {
	s.lastList = req
	return s.page, s.err
}

func (s *stubCountryService) ListCountryCities(_ context.Context, id int64, req service.ListRequest) (paging.Page[model.City], error) {
	s.lastID, s.lastList = id, req
	return s.cityPage, s.err
}

func (s *stubCountryService) GetCountry(_ context.Context, id int64) (model.Country, error) {
	s.lastID = id
	return s.country, s.err
}

func (s *stubCountryService) CreateCountry(_ context.Context, in service.CountryInput) (model.Country, error) {
	s.lastInput = in
	return s.country, s.err
}

func (s *stubCountryService) UpdateCountry(_ context.Context, id int64, in service.CountryInput) (model.Country, error) {
	s.lastID, s.lastInput = id, in
	return s.country, s.err
}

func (s *stubCountryService) DeleteCountry(_ context.Context, id int64) error {
	s.lastID = id
	return s.err
}

type stubCityService struct {
	lastList  service.ListRequest
	lastID    int64
	lastInput service.CityInput
	page      paging.Page[model.City]
	city      model.City
	err       error
}

func (s *stubCityService) ListCities(_ context.Context, req service.ListRequest) (paging.Page[model.City], error) {
	s.lastList = req
	return s.page, s.err
}

func (s *stubCityService) GetCity(_ context.Context, id int64) (model.City, error) {
	s.lastID = id
	return s.city, s.err
}

func (s *stubCityService) CreateCity(_ context.Context, in service.CityInput) (model.City, error) {
	s.lastInput = in
	return s.city, s.err
}

func (s *stubCityService) UpdateCity(_ context.Context, id int64, in service.CityInput) (model.City, error) {
	s.lastID, s.lastInput = id, in
	return s.city, s.err
}

func (s *stubCityService) DeleteCity(_ context.Context, id int64) error {
	s.lastID = id
	return s.err
}

var (
	_ service.CountryService = (*stubCountryService)(nil)
	_ service.CityService    = (*stubCityService)(nil)
)

func newRouter(p handler.Pinger, cs service.CountryService, ci service.CityService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler.Register(r, p, cs, ci)
	return r
}
