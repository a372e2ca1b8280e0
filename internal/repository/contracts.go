package repository

import (
	"context"

	"github.com/worldcities/worldcities-api/internal/model"
	"github.com/worldcities/worldcities-api/internal/paging"
)

// Pinger represents a minimal readiness probe capability.
// I use it to decouple health checks from storage implementation details.
type Pinger interface {
	Ping(ctx context.Context) error
}

// TxFunc is the unit of work executed within a transaction boundary.
// I pass context through so nested calls can honor cancellations and deadlines.
type TxFunc func(ctx context.Context) error

// TxManager abstracts transactional execution for repositories that support it.
// A call made while a transaction is already active joins it.
type TxManager interface {
	WithinTx(ctx context.Context, fn TxFunc) error
}

// CountryRepository declares persistence operations for countries.
// I return domain models and surface domain errors from errors.go rather than driver codes.
type CountryRepository interface {
	Create(ctx context.Context, c model.Country) (model.Country, error)
	// CreateIfAbsent inserts c unless a country with the same name exists;
	// created is false when nothing was inserted.
	CreateIfAbsent(ctx context.Context, c model.Country) (out model.Country, created bool, err error)
	GetByID(ctx context.Context, id int64) (model.Country, error)
	GetByName(ctx context.Context, name string) (model.Country, error)
	Update(ctx context.Context, c model.Country) (model.Country, error)
	Delete(ctx context.Context, id int64) error
	Exists(ctx context.Context, id int64) (bool, error)
	// Query returns an unrealized query over all countries in id order.
	Query() paging.Query[model.Country]
}

// CityRepository declares persistence operations for cities.
type CityRepository interface {
	Create(ctx context.Context, c model.City) (model.City, error)
	// CreateIfAbsent skips cities already stored with the same name, coordinates and country.
	CreateIfAbsent(ctx context.Context, c model.City) (out model.City, created bool, err error)
	GetByID(ctx context.Context, id int64) (model.City, error)
	Update(ctx context.Context, c model.City) (model.City, error)
	Delete(ctx context.Context, id int64) error
	Query() paging.Query[model.City]
	// QueryByCountry narrows Query to the cities of one country.
	QueryByCountry(countryID int64) paging.Query[model.City]
}
