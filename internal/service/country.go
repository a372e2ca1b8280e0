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

// countryService holds country use-case logic: validation + orchestration, no transport / SQL details.
type countryService struct {
	countries repository.CountryRepository
	cities    repository.CityRepository
	paging    PagingOptions
	pages     *paging.Builder[model.Country]
	cityPages *paging.Builder[model.City]
	cache     *cache.PageCache
	log       zerolog.Logger
}

func NewCountryService(countries repository.CountryRepository, cities repository.CityRepository, opts Options, logger zerolog.Logger) CountryService {
	l := logger.With().Str("module", "service").Str("component", "country").Logger()
	p := opts.Paging.withDefaults()
	return &countryService{
		countries: countries,
		cities:    cities,
		paging:    p,
		pages:     paging.NewBuilder(repository.CountryFields, p.builderOptions()...),
		cityPages: paging.NewBuilder(repository.CityFields, p.builderOptions()...),
		cache:     opts.Cache,
		log:       l,
	}
}

func (s *countryService) ListCountries(ctx context.Context, req ListRequest) (paging.Page[model.Country], error) {
	r := s.paging.normalize(req)
	page, err := listPage(ctx, s.pages, s.cache, EntityCountries, cache.ScopeAll(), s.countries.Query(), r)
	if err != nil {
		logListError(s.log, err, r, "list countries failed")
		return paging.Page[model.Country]{}, err
	}
	return page, nil
}

// ListCountryCities pages the cities of one country; an unknown country is ErrNotFound.
func (s *countryService) ListCountryCities(ctx context.Context, countryID int64, req ListRequest) (paging.Page[model.City], error) {
	if err := validID("id", countryID); err != nil {
		return paging.Page[model.City]{}, err
	}
	ok, err := s.countries.Exists(ctx, countryID)
	if err != nil {
		s.log.Error().Err(err).Int64("country_id", countryID).Msg("country lookup failed")
		return paging.Page[model.City]{}, err
	}
	if !ok {
		return paging.Page[model.City]{}, repository.ErrNotFound
	}

	r := s.paging.normalize(req)
	page, err := listPage(ctx, s.cityPages, s.cache, EntityCities, cache.ScopeCountry(countryID), s.cities.QueryByCountry(countryID), r)
	if err != nil {
		logListError(s.log, err, r, "list country cities failed")
		return paging.Page[model.City]{}, err
	}
	return page, nil
}

func (s *countryService) GetCountry(ctx context.Context, id int64) (model.Country, error) {
	if err := validID("id", id); err != nil {
		return model.Country{}, err
	}
	return s.countries.GetByID(ctx, id)
}

func normalizeCountry(in CountryInput) CountryInput {
	return CountryInput{
		Name: strings.TrimSpace(in.Name),
		ISO2: strings.ToUpper(strings.TrimSpace(in.ISO2)),
		ISO3: strings.ToUpper(strings.TrimSpace(in.ISO3)),
	}
}

func (s *countryService) CreateCountry(ctx context.Context, in CountryInput) (model.Country, error) {
	start := time.Now()
	in = normalizeCountry(in)
	if err := validateStruct(in); err != nil {
		s.log.Debug().Str("name", in.Name).Interface("field_errors", FieldErrors(err)).Msg("country validation failed")
		return model.Country{}, err
	}

	out, err := s.countries.Create(ctx, model.Country{Name: in.Name, ISO2: in.ISO2, ISO3: in.ISO3})
	if err != nil {
		// Repository surfaces domain-level errors already, do not wrap.
		s.log.Error().Err(err).Str("name", in.Name).Msg("create country failed")
		return model.Country{}, err
	}
	s.cache.Invalidate(ctx, EntityCountries)
	s.log.Info().Dur("took", time.Since(start)).Int64("country_id", out.ID).Msg("country created")
	return out, nil
}

func (s *countryService) UpdateCountry(ctx context.Context, id int64, in CountryInput) (model.Country, error) {
	if err := validID("id", id); err != nil {
		return model.Country{}, err
	}
	in = normalizeCountry(in)
	if err := validateStruct(in); err != nil {
		return model.Country{}, err
	}

	out, err := s.countries.Update(ctx, model.Country{ID: id, Name: in.Name, ISO2: in.ISO2, ISO3: in.ISO3})
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			s.log.Error().Err(err).Int64("country_id", id).Msg("update country failed")
		}
		return model.Country{}, err
	}
	s.cache.Invalidate(ctx, EntityCountries)
	return out, nil
}

// DeleteCountry fails with repository.ErrConflict while the country still has cities.
func (s *countryService) DeleteCountry(ctx context.Context, id int64) error {
	if err := validID("id", id); err != nil {
		return err
	}
	if err := s.countries.Delete(ctx, id); err != nil {
		if !errors.Is(err, repository.ErrNotFound) && !errors.Is(err, repository.ErrConflict) {
			s.log.Error().Err(err).Int64("country_id", id).Msg("delete country failed")
		}
		return err
	}
	s.cache.Invalidate(ctx, EntityCountries)
	s.log.Info().Int64("country_id", id).Msg("country deleted")
	return nil
}

// logListError keeps client mistakes out of the error log.
func logListError(log zerolog.Logger, err error, r paging.Request, msg string) {
	ev := log.Error()
	if errors.Is(err, paging.ErrInvalidField) || errors.Is(err, paging.ErrInvalidPageRequest) {
		ev = log.Debug()
	}
	ev.Err(err).
		Int("page_index", r.PageIndex).
		Int("page_size", r.PageSize).
		Str("sort_column", r.SortColumn).
		Str("sort_order", r.SortOrder).
		Msg(msg)
}
