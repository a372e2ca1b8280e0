// Package seed loads the public world cities workbook into storage.
package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"

	"github.com/worldcities/worldcities-api/internal/model"
	"github.com/worldcities/worldcities-api/internal/repository"
)

// Header names the importer needs in the first row of the sheet.
const (
	colCity      = "city"
	colCityASCII = "city_ascii"
	colLat       = "lat"
	colLng       = "lng"
	colCountry   = "country"
	colISO2      = "iso2"
	colISO3      = "iso3"
)

var requiredColumns = []string{colCity, colLat, colLng, colCountry, colISO2, colISO3}

// ErrMissingColumn is returned when the header row lacks a required column.
var ErrMissingColumn = errors.New("seed: missing column")

// Summary counts what an import inserted and what it left alone.
type Summary struct {
	Countries int `json:"countries"`
	Cities    int `json:"cities"`
	Skipped   int `json:"skipped"`
}

// Importer writes workbook rows through the repositories in a single transaction.
type Importer struct {
	countries repository.CountryRepository
	cities    repository.CityRepository
	tx        repository.TxManager
	log       zerolog.Logger
}

func NewImporter(countries repository.CountryRepository, cities repository.CityRepository, tx repository.TxManager, logger zerolog.Logger) *Importer {
	return &Importer{
		countries: countries,
		cities:    cities,
		tx:        tx,
		log:       logger.With().Str("module", "seed").Logger(),
	}
}

type row struct {
	line    int
	city    model.City
	country model.Country
}

// Import reads the first worksheet of r. Rows that cannot be parsed, and
// rows already present in storage, are counted as skipped.
func (im *Importer) Import(ctx context.Context, r io.Reader) (Summary, error) {
	start := time.Now()
	f, err := excelize.OpenReader(r)
	if err != nil {
		return Summary{}, fmt.Errorf("seed: open workbook: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return Summary{}, errors.New("seed: workbook has no sheets")
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return Summary{}, fmt.Errorf("seed: read rows: %w", err)
	}
	if len(rows) == 0 {
		return Summary{}, nil
	}

	idx, err := headerIndex(rows[0])
	if err != nil {
		return Summary{}, err
	}

	var sum Summary
	parsed := make([]row, 0, len(rows)-1)
	for i, cells := range rows[1:] {
		rw, ok := parseRow(cells, idx)
		if !ok {
			sum.Skipped++
			im.log.Debug().Int("line", i+2).Msg("skipping malformed row")
			continue
		}
		rw.line = i + 2
		parsed = append(parsed, rw)
	}

	err = im.tx.WithinTx(ctx, func(ctx context.Context) error {
		countryIDs := make(map[string]int64)
		seen := make(map[string]struct{})
		for _, rw := range parsed {
			if err := ctx.Err(); err != nil {
				return err
			}
			id, ok := countryIDs[rw.country.Name]
			if !ok {
				c, created, err := im.countries.CreateIfAbsent(ctx, rw.country)
				if err != nil {
					return fmt.Errorf("seed: country %q (line %d): %w", rw.country.Name, rw.line, err)
				}
				if created {
					sum.Countries++
				}
				id = c.ID
				countryIDs[rw.country.Name] = id
			}

			rw.city.CountryID = id
			key := cityKey(rw.city)
			if _, dup := seen[key]; dup {
				sum.Skipped++
				continue
			}
			seen[key] = struct{}{}

			_, created, err := im.cities.CreateIfAbsent(ctx, rw.city)
			if err != nil {
				return fmt.Errorf("seed: city %q (line %d): %w", rw.city.Name, rw.line, err)
			}
			if created {
				sum.Cities++
			} else {
				sum.Skipped++
			}
		}
		return nil
	})
	if err != nil {
		im.log.Error().Err(err).Msg("import failed, rolled back")
		return Summary{}, err
	}

	im.log.Info().
		Int("countries", sum.Countries).
		Int("cities", sum.Cities).
		Int("skipped", sum.Skipped).
		Dur("took", time.Since(start)).
		Msg("import finished")
	return sum, nil
}

func headerIndex(header []string) (map[string]int, error) {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, c := range requiredColumns {
		if _, ok := idx[c]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, c)
		}
	}
	return idx, nil
}

func parseRow(cells []string, idx map[string]int) (row, bool) {
	cell := func(name string) string {
		i, ok := idx[name]
		if !ok || i >= len(cells) {
			return ""
		}
		return strings.TrimSpace(cells[i])
	}

	name := cell(colCity)
	if name == "" {
		name = cell(colCityASCII)
	}
	country := cell(colCountry)
	iso2 := strings.ToUpper(cell(colISO2))
	iso3 := strings.ToUpper(cell(colISO3))
	if name == "" || country == "" || len(iso2) != 2 || len(iso3) != 3 {
		return row{}, false
	}
	lat, err := strconv.ParseFloat(cell(colLat), 64)
	if err != nil || lat < -90 || lat > 90 {
		return row{}, false
	}
	lon, err := strconv.ParseFloat(cell(colLng), 64)
	if err != nil || lon < -180 || lon > 180 {
		return row{}, false
	}
	return row{
		city:    model.City{Name: name, Lat: lat, Lon: lon},
		country: model.Country{Name: country, ISO2: iso2, ISO3: iso3},
	}, true
}

func cityKey(c model.City) string {
	return c.Name + "\x00" + strconv.FormatFloat(c.Lat, 'f', -1, 64) + "\x00" +
		strconv.FormatFloat(c.Lon, 'f', -1, 64) + "\x00" + strconv.FormatInt(c.CountryID, 10)
}
