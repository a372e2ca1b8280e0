package repository

import (
	"github.com/worldcities/worldcities-api/internal/model"
	"github.com/worldcities/worldcities-api/internal/paging"
)

// CountryFields lists the country attributes clients may sort by.
var CountryFields = paging.NewFields(
	paging.By("id", "id", func(c model.Country) int64 { return c.ID }),
	paging.By("name", "name", func(c model.Country) string { return c.Name }),
	paging.By("iso2", "iso2", func(c model.Country) string { return c.ISO2 }),
	paging.By("iso3", "iso3", func(c model.Country) string { return c.ISO3 }),
)

// CityFields lists the city attributes clients may sort by.
var CityFields = paging.NewFields(
	paging.By("id", "id", func(c model.City) int64 { return c.ID }),
	paging.By("name", "name", func(c model.City) string { return c.Name }),
	paging.By("lat", "lat", func(c model.City) float64 { return c.Lat }),
	paging.By("lon", "lon", func(c model.City) float64 { return c.Lon }),
	paging.By("countryId", "country_id", func(c model.City) int64 { return c.CountryID }),
)
