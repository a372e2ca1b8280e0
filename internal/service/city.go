package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/worldcities/worldcities-api/internal/cache"
	"github.com/worldcities/worldcities-api/internal/model"
	"github.com/worldcities/worldcities-api/internal/paging"
	"github.com/worldcities/worldcities-api/internal/repository"
)

type cityService struct {
	cities    repository.CityRepository
	countries repository.CountryRepository
	tx        repository.TxManager
	paging    PagingOptions
	pages     *paging.Builder[model.City]
	cache     *cache.PageCache
	log       zerolog.Logger
}

func NewCityService(cities repository.CityRepository, countries repository.CountryRepository, tx repository.TxManager, opts Options, logger zerolog.Logger) CityService {
	l := logger.With().Str("module", "service").Str("component", "city").Logger()
	p := opts.Paging.withDefaults()
	return &cityService{
		cities:    cities,
		countries: countries,
		tx:        tx,
		paging:    p,
		pages:     paging.NewBuilder(repository.CityFields, p.builderOptions()...),
		cache:     opts.Cache,
		log:       l,
	}
}

func (s *cityService) ListCities(ctx context.Context, req ListRequest) (paging.Page[model.City], error) {
	r := s.paging.normalize(req)
	page, err := listPage(ctx, s.pages, s.cache, EntityCities, cache.ScopeAll(), s.cities.Query(), r)
	if err != nil {
		logListError(s.log, err, r, "list cities failed")
		return paging.Page[model.City]{}, err
	}
	return page, nil
}

func (s *cityService) GetCity(ctx context.Context, id int64) (model.City, error) {
	if err := validID("id", id); err != nil {
		return model.City{}, err
	}
	return s.cities.GetByID(ctx, id)
}

// checkCity validates in and confirms its country exists, inside ctx's transaction.
func (s *cityService) checkCity(ctx context.Context, in CityInput) error {
	if err := validateStruct(in); err != nil {
		return err
	}
	ok, err := s.countries.Exists(ctx, in.CountryID)
	if err != nil {
		return err
	}
	if !ok {
		return newInvalidInput([]FieldError{{Field: "countryId", Message: "country does not exist"}})
	}
	return nil
}

func (s *cityService) CreateCity(ctx context.Context, in CityInput) (model.City, error) {
	start := time.Now()
	in.Name = strings.TrimSpace(in.Name)

	var out model.City
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.checkCity(ctx, in); err != nil {
			return err
		}
		var err error
		out, err = s.cities.Create(ctx, model.City{Name: in.Name, Lat: in.Lat, Lon: in.Lon, CountryID: in.CountryID})
		return err
	})
	if err != nil {
		if errors.Is(err, ErrInvalidInput) {
			s.log.Debug().Str("name", in.Name).Interface("field_errors", FieldErrors(err)).Msg("city validation failed")
		} else {
			s.log.Error().Err(err).Str("name", in.Name).Msg("create city failed")
		}
		return model.City{}, err
	}
	s.cache.Invalidate(ctx, EntityCities)
	s.log.Info().Dur("took", time.Since(start)).Int64("city_id", out.ID).Msg("city created")
	return out, nil
}

func (s *cityService) UpdateCity(ctx context.Context, id int64, in CityInput) (model.City, error) {
	if err := validID("id", id); err != nil {
		return model.City{}, err
	}
	in.Name = strings.TrimSpace(in.Name)

	var out model.City
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.checkCity(ctx, in); err != nil {
			return err
		}
		var err error
		out, err = s.cities.Update(ctx, model.City{ID: id, Name: in.Name, Lat: in.Lat, Lon: in.Lon, CountryID: in.CountryID})
		return err
	})
	if err != nil {
		if !errors.Is(err, ErrInvalidInput) && !errors.Is(err, repository.ErrNotFound) {
			s.log.Error().Err(err).Int64("city_id", id).Msg("update city failed")
		}
		return model.City{}, err
	}
	s.cache.Invalidate(ctx, EntityCities)
	return out, nil
}

func (s *cityService) DeleteCity(ctx context.Context, id int64) error {
	if err := validID("id", id); err != nil {
		return err
	}
	if err := s.cities.Delete(ctx, id); err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			s.log.Error().Err(err).Int64("city_id", id).Msg("delete city failed")
		}
		return err
	}
	s.cache.Invalidate(ctx, EntityCities)
	s.log.Info().Int64("city_id", id).Msg("city deleted")
	return nil
}
