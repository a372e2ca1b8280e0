// Package service holds business logic orchestration across repositories and handlers.
// Kept intentionally lean: only use-case coordination, validation and domain error shaping.
package service

import (
	"context"
	"errors"

	"github.com/worldcities/worldcities-api/internal/cache"
	"github.com/worldcities/worldcities-api/internal/model"
	"github.com/worldcities/worldcities-api/internal/paging"
)

// ErrInvalidInput is the marker error for aggregated validation failures (maps to HTTP 400).
// Field-level details are retrieved via FieldErrors(err).
var ErrInvalidInput = errors.New("invalid input")

// FieldError describes a single invalid field in a client request.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// invalidInputError aggregates multiple FieldError instances and unwraps to ErrInvalidInput.
type invalidInputError struct {
	fields []FieldError
}

func (e *invalidInputError) Error() string        { return ErrInvalidInput.Error() }
func (e *invalidInputError) Unwrap() error        { return ErrInvalidInput }
func (e *invalidInputError) Fields() []FieldError { return e.fields }

// newInvalidInput builds an aggregated validation error if any field errors are present.
func newInvalidInput(fe []FieldError) error {
	if len(fe) == 0 {
		return nil
	}
	return &invalidInputError{fields: fe}
}

// InvalidInput lets transports report their own parsing failures in the same shape.
func InvalidInput(fe ...FieldError) error {
	if len(fe) == 0 {
		return ErrInvalidInput
	}
	return newInvalidInput(fe)
}

// FieldErrors extracts field errors from an aggregated validation error.
func FieldErrors(err error) []FieldError {
	if err == nil {
		return nil
	}
	type feIface interface{ Fields() []FieldError }
	var v feIface
	if errors.As(err, &v) && errors.Is(err, ErrInvalidInput) {
		return v.Fields()
	}
	return nil
}

// ListRequest is a page request as it arrives from a client.
type ListRequest struct {
	PageIndex  int
	PageSize   int
	SortColumn string
	SortOrder  string
}

// PagingOptions bound and shape list requests.
type PagingOptions struct {
	DefaultPageSize int
	MaxPageSize     int
	// StrictSort rejects unknown sort columns with paging.ErrInvalidField
	// instead of returning an unsorted page.
	StrictSort bool
}

func (o PagingOptions) withDefaults() PagingOptions {
	if o.DefaultPageSize <= 0 {
		o.DefaultPageSize = 10
	}
	if o.MaxPageSize < o.DefaultPageSize {
		o.MaxPageSize = max(100, o.DefaultPageSize)
	}
	return o
}

func (o PagingOptions) builderOptions() []paging.Option {
	if o.StrictSort {
		return []paging.Option{paging.WithStrictSort()}
	}
	return nil
}

// Options are shared by the list-capable services. A nil Cache disables caching.
type Options struct {
	Paging PagingOptions
	Cache  *cache.PageCache
}

// Cache entity names. A write to one retires its cached pages.
const (
	EntityCountries = "countries"
	EntityCities    = "cities"
)

// CountryInput carries the writable fields of a country.
type CountryInput struct {
	Name string `json:"name" validate:"required,max=100"`
	ISO2 string `json:"iso2" validate:"required,len=2,alpha"`
	ISO3 string `json:"iso3" validate:"required,len=3,alpha"`
}

// CityInput carries the writable fields of a city.
type CityInput struct {
	Name      string  `json:"name" validate:"required,max=100"`
	Lat       float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lon       float64 `json:"lon" validate:"gte=-180,lte=180"`
	CountryID int64   `json:"countryId" validate:"required,gt=0"`
}

// CountryService defines country-oriented use cases.
type CountryService interface {
	ListCountries(ctx context.Context, req ListRequest) (paging.Page[model.Country], error)
	ListCountryCities(ctx context.Context, countryID int64, req ListRequest) (paging.Page[model.City], error)
	GetCountry(ctx context.Context, id int64) (model.Country, error)
	CreateCountry(ctx context.Context, in CountryInput) (model.Country, error)
	UpdateCountry(ctx context.Context, id int64, in CountryInput) (model.Country, error)
	DeleteCountry(ctx context.Context, id int64) error
}

// CityService defines city-oriented use cases.
type CityService interface {
	ListCities(ctx context.Context, req ListRequest) (paging.Page[model.City], error)
	GetCity(ctx context.Context, id int64) (model.City, error)
	CreateCity(ctx context.Context, in CityInput) (model.City, error)
	UpdateCity(ctx context.Context, id int64, in CityInput) (model.City, error)
	DeleteCity(ctx context.Context, id int64) error
}
