// Package contract holds backend-agnostic repository test suites. Each
// storage backend wires its own factories and runs the same checks.
package contract

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/worldcities/worldcities-api/internal/model"
	"github.com/worldcities/worldcities-api/internal/paging"
	"github.com/worldcities/worldcities-api/internal/repository"
)

// Repos is what a backend factory hands to the suites. Every call to a
// factory must return empty tables.
type Repos struct {
	Countries repository.CountryRepository
	Cities    repository.CityRepository
	Tx        repository.TxManager
	Pinger    repository.Pinger
}

type Factory func(t *testing.T) (Repos, func())

// RunAll runs every suite against one backend.
func RunAll(t *testing.T, makeRepos Factory) {
	t.Helper()
	t.Run("countries", func(t *testing.T) { RunCountryRepositoryContract(t, makeRepos) })
	t.Run("cities", func(t *testing.T) { RunCityRepositoryContract(t, makeRepos) })
	t.Run("tx", func(t *testing.T) { RunTxManagerContract(t, makeRepos) })
	t.Run("pinger", func(t *testing.T) { RunPingerContract(t, makeRepos) })
	t.Run("paging", func(t *testing.T) { RunPagingContract(t, makeRepos) })
}

func setup(t *testing.T, makeRepos Factory) Repos {
	t.Helper()
	r, cleanup := makeRepos(t)
	t.Cleanup(cleanup)
	return r
}

func mustCountry(t *testing.T, repo repository.CountryRepository, name, iso2, iso3 string) model.Country {
	t.Helper()
	c, err := repo.Create(context.Background(), model.Country{Name: name, ISO2: iso2, ISO3: iso3})
	if err != nil {
		t.Fatalf("seed country %q: %v", name, err)
	}
	return c
}

func mustCity(t *testing.T, repo repository.CityRepository, name string, lat, lon float64, countryID int64) model.City {
	t.Helper()
	c, err := repo.Create(context.Background(), model.City{Name: name, Lat: lat, Lon: lon, CountryID: countryID})
	if err != nil {
		t.Fatalf("seed city %q: %v", name, err)
	}
	return c
}

func RunCountryRepositoryContract(t *testing.T, makeRepos Factory) {
	t.Helper()

	t.Run("create_and_get", func(t *testing.T) {
		r := setup(t, makeRepos)
		ctx := context.Background()
		created := mustCountry(t, r.Countries, "Italy", "IT", "ITA")
		if created.ID == 0 {
			t.Fatalf("expected generated id, got %+v", created)
		}
		got, err := r.Countries.GetByID(ctx, created.ID)
		if err != nil {
			t.Fatalf("get failed: %v", err)
		}
		if got != created {
			t.Fatalf("mismatch: got %+v want %+v", got, created)
		}
		byName, err := r.Countries.GetByName(ctx, "Italy")
		if err != nil || byName.ID != created.ID {
			t.Fatalf("get by name: %+v, %v", byName, err)
		}
	})

	t.Run("get_not_found", func(t *testing.T) {
		r := setup(t, makeRepos)
		if _, err := r.Countries.GetByID(context.Background(), 999999); !errors.Is(err, repository.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
		if _, err := r.Countries.GetByName(context.Background(), "Atlantis"); !errors.Is(err, repository.ErrNotFound) {
			t.Fatalf("expected ErrNotFound by name, got %v", err)
		}
	})

	t.Run("create_duplicate_name_conflict", func(t *testing.T) {
		r := setup(t, makeRepos)
		mustCountry(t, r.Countries, "Dup", "DU", "DUP")
		_, err := r.Countries.Create(context.Background(), model.Country{Name: "Dup", ISO2: "DX", ISO3: "DUX"})
		if !errors.Is(err, repository.ErrAlreadyExists) {
			t.Fatalf("expected ErrAlreadyExists, got %v", err)
		}
	})

	t.Run("create_if_absent", func(t *testing.T) {
		r := setup(t, makeRepos)
		ctx := context.Background()
		first, created, err := r.Countries.CreateIfAbsent(ctx, model.Country{Name: "Peru", ISO2: "PE", ISO3: "PER"})
		if err != nil || !created {
			t.Fatalf("first insert: created=%v err=%v", created, err)
		}
		second, created, err := r.Countries.CreateIfAbsent(ctx, model.Country{Name: "Peru", ISO2: "XX", ISO3: "XXX"})
		if err != nil || created {
			t.Fatalf("second insert: created=%v err=%v", created, err)
		}
		if second != first {
			t.Fatalf("expected existing row %+v, got %+v", first, second)
		}
	})

	t.Run("update", func(t *testing.T) {
		r := setup(t, makeRepos)
		ctx := context.Background()
		c := mustCountry(t, r.Countries, "Holland", "NL", "NLD")
		c.Name = "Netherlands"
		out, err := r.Countries.Update(ctx, c)
		if err != nil {
			t.Fatalf("update: %v", err)
		}
		if out != c {
			t.Fatalf("update returned %+v, want %+v", out, c)
		}
		if _, err := r.Countries.Update(ctx, model.Country{ID: 424242, Name: "Ghost", ISO2: "GH", ISO3: "GHO"}); !errors.Is(err, repository.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
		other := mustCountry(t, r.Countries, "Belgium", "BE", "BEL")
		other.Name = "Netherlands"
		if _, err := r.Countries.Update(ctx, other); !errors.Is(err, repository.ErrAlreadyExists) {
			t.Fatalf("expected ErrAlreadyExists on rename clash, got %v", err)
		}
	})

	t.Run("delete", func(t *testing.T) {
		r := setup(t, makeRepos)
		ctx := context.Background()
		c := mustCountry(t, r.Countries, "Gone", "GO", "GON")
		if err := r.Countries.Delete(ctx, c.ID); err != nil {
			t.Fatalf("delete: %v", err)
		}
		if err := r.Countries.Delete(ctx, c.ID); !errors.Is(err, repository.ErrNotFound) {
			t.Fatalf("expected ErrNotFound on second delete, got %v", err)
		}
	})

	t.Run("delete_with_cities_conflict", func(t *testing.T) {
		r := setup(t, makeRepos)
		c := mustCountry(t, r.Countries, "Japan", "JP", "JPN")
		mustCity(t, r.Cities, "Tokyo", 35.6897, 139.6922, c.ID)
		if err := r.Countries.Delete(context.Background(), c.ID); !errors.Is(err, repository.ErrConflict) {
			t.Fatalf("expected ErrConflict, got %v", err)
		}
	})

	t.Run("exists", func(t *testing.T) {
		r := setup(t, makeRepos)
		ctx := context.Background()
		c := mustCountry(t, r.Countries, "Chile", "CL", "CHL")
		ok, err := r.Countries.Exists(ctx, c.ID)
		if err != nil || !ok {
			t.Fatalf("expected exists, got %v %v", ok, err)
		}
		ok, err = r.Countries.Exists(ctx, c.ID+1000)
		if err != nil || ok {
			t.Fatalf("expected missing, got %v %v", ok, err)
		}
	})
}

func RunCityRepositoryContract(t *testing.T, makeRepos Factory) {
	t.Helper()

	t.Run("create_and_get", func(t *testing.T) {
		r := setup(t, makeRepos)
		country := mustCountry(t, r.Countries, "France", "FR", "FRA")
		created := mustCity(t, r.Cities, "Paris", 48.8566, 2.3522, country.ID)
		got, err := r.Cities.GetByID(context.Background(), created.ID)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if got != created {
			t.Fatalf("mismatch: got %+v want %+v", got, created)
		}
	})

	t.Run("get_not_found", func(t *testing.T) {
		r := setup(t, makeRepos)
		if _, err := r.Cities.GetByID(context.Background(), 42424242); !errors.Is(err, repository.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("create_fk_violation_conflict", func(t *testing.T) {
		r := setup(t, makeRepos)
		_, err := r.Cities.Create(context.Background(), model.City{Name: "Nowhere", CountryID: 9999999})
		if !errors.Is(err, repository.ErrConflict) {
			t.Fatalf("expected ErrConflict on FK violation, got %v", err)
		}
	})

	t.Run("create_if_absent", func(t *testing.T) {
		r := setup(t, makeRepos)
		ctx := context.Background()
		country := mustCountry(t, r.Countries, "Spain", "ES", "ESP")
		city := model.City{Name: "Madrid", Lat: 40.4168, Lon: -3.7038, CountryID: country.ID}
		first, created, err := r.Cities.CreateIfAbsent(ctx, city)
		if err != nil || !created || first.ID == 0 {
			t.Fatalf("first insert: %+v created=%v err=%v", first, created, err)
		}
		_, created, err = r.Cities.CreateIfAbsent(ctx, city)
		if err != nil || created {
			t.Fatalf("second insert: created=%v err=%v", created, err)
		}
		// Same name elsewhere is a different city.
		city.Lat, city.Lon = 34.0, -86.0
		if _, created, err = r.Cities.CreateIfAbsent(ctx, city); err != nil || !created {
			t.Fatalf("homonym insert: created=%v err=%v", created, err)
		}
	})

	t.Run("update_and_delete", func(t *testing.T) {
		r := setup(t, makeRepos)
		ctx := context.Background()
		a := mustCountry(t, r.Countries, "Germany", "DE", "DEU")
		b := mustCountry(t, r.Countries, "Austria", "AT", "AUT")
		city := mustCity(t, r.Cities, "Vienna", 48.2, 16.37, a.ID)
		city.CountryID = b.ID
		out, err := r.Cities.Update(ctx, city)
		if err != nil || out.CountryID != b.ID {
			t.Fatalf("update: %+v %v", out, err)
		}
		city.CountryID = 77777
		if _, err := r.Cities.Update(ctx, city); !errors.Is(err, repository.ErrConflict) {
			t.Fatalf("expected ErrConflict moving to a missing country, got %v", err)
		}
		if _, err := r.Cities.Update(ctx, model.City{ID: 999999, Name: "X", CountryID: a.ID}); !errors.Is(err, repository.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
		if err := r.Cities.Delete(ctx, city.ID); err != nil {
			t.Fatalf("delete: %v", err)
		}
		if err := r.Cities.Delete(ctx, city.ID); !errors.Is(err, repository.ErrNotFound) {
			t.Fatalf("expected ErrNotFound on second delete, got %v", err)
		}
	})

	t.Run("query_by_country", func(t *testing.T) {
		r := setup(t, makeRepos)
		ctx := context.Background()
		a := mustCountry(t, r.Countries, "Norway", "NO", "NOR")
		b := mustCountry(t, r.Countries, "Sweden", "SE", "SWE")
		for i := 0; i < 4; i++ {
			mustCity(t, r.Cities, fmt.Sprintf("N%d", i), float64(60+i), 10, a.ID)
		}
		mustCity(t, r.Cities, "Stockholm", 59.33, 18.06, b.ID)

		n, err := r.Cities.QueryByCountry(a.ID).Count(ctx)
		if err != nil || n != 4 {
			t.Fatalf("count by country: %d %v", n, err)
		}
		items, err := r.Cities.QueryByCountry(b.ID).Fetch(ctx)
		if err != nil || len(items) != 1 || items[0].Name != "Stockholm" {
			t.Fatalf("fetch by country: %+v %v", items, err)
		}
		all, err := r.Cities.Query().Count(ctx)
		if err != nil || all != 5 {
			t.Fatalf("count all: %d %v", all, err)
		}
	})
}

func RunTxManagerContract(t *testing.T, makeRepos Factory) {
	t.Helper()

	t.Run("commit_on_nil_error", func(t *testing.T) {
		r := setup(t, makeRepos)
		ctx := context.Background()
		var createdID int64
		err := r.Tx.WithinTx(ctx, func(ctx context.Context) error {
			out, err := r.Countries.Create(ctx, model.Country{Name: "TxCommit", ISO2: "TC", ISO3: "TXC"})
			if err != nil {
				return err
			}
			createdID = out.ID
			return nil
		})
		if err != nil {
			t.Fatalf("WithinTx: %v", err)
		}
		if _, err := r.Countries.GetByID(ctx, createdID); err != nil {
			t.Fatalf("expected committed row visible, got err=%v", err)
		}
	})

	t.Run("rollback_on_error", func(t *testing.T) {
		r := setup(t, makeRepos)
		ctx := context.Background()
		var createdID int64
		errMarker := errors.New("boom")
		err := r.Tx.WithinTx(ctx, func(ctx context.Context) error {
			out, err := r.Countries.Create(ctx, model.Country{Name: "TxRollback", ISO2: "TR", ISO3: "TXR"})
			if err != nil {
				return err
			}
			if _, err := r.Cities.Create(ctx, model.City{Name: "Inside", CountryID: out.ID}); err != nil {
				return err
			}
			createdID = out.ID
			return errMarker
		})
		if !errors.Is(err, errMarker) {
			t.Fatalf("expected marker error, got %v", err)
		}
		if _, err := r.Countries.GetByID(ctx, createdID); !errors.Is(err, repository.ErrNotFound) {
			t.Fatalf("expected ErrNotFound after rollback, got %v", err)
		}
		if n, err := r.Cities.Query().Count(ctx); err != nil || n != 0 {
			t.Fatalf("expected no cities after rollback, got %d %v", n, err)
		}
	})

	t.Run("nested_joins_outer", func(t *testing.T) {
		r := setup(t, makeRepos)
		ctx := context.Background()
		err := r.Tx.WithinTx(ctx, func(ctx context.Context) error {
			if _, err := r.Countries.Create(ctx, model.Country{Name: "Outer", ISO2: "OU", ISO3: "OUT"}); err != nil {
				return err
			}
			if err := r.Tx.WithinTx(ctx, func(ctx context.Context) error {
				_, err := r.Countries.Create(ctx, model.Country{Name: "Inner", ISO2: "IN", ISO3: "INN"})
				return err
			}); err != nil {
				return err
			}
			return errors.New("abort")
		})
		if err == nil {
			t.Fatalf("expected abort error")
		}
		if n, err := r.Countries.Query().Count(ctx); err != nil || n != 0 {
			t.Fatalf("inner work must roll back with the outer tx, got %d %v", n, err)
		}
	})
}

func RunPingerContract(t *testing.T, makeRepos Factory) {
	t.Helper()
	t.Run("ping_ok", func(t *testing.T) {
		r := setup(t, makeRepos)
		if err := r.Pinger.Ping(context.Background()); err != nil {
			t.Fatalf("expected ping ok, got %v", err)
		}
	})
}

// RunPagingContract checks that the SQL-backed queries page exactly like the
// in-memory reference does.
func RunPagingContract(t *testing.T, makeRepos Factory) {
	t.Helper()

	seed := func(t *testing.T, r Repos, n int) []model.Country {
		t.Helper()
		out := make([]model.Country, 0, n)
		for i := 0; i < n; i++ {
			// iso2 repeats so sorting on it needs the id tie-break.
			out = append(out, mustCountry(t, r.Countries, fmt.Sprintf("C%02d", i), fmt.Sprintf("X%d", i%3), fmt.Sprintf("Z%02d", n-i)))
		}
		return out
	}

	build := func(t *testing.T, r Repos, req paging.Request, opts ...paging.Option) (paging.Page[model.Country], error) {
		t.Helper()
		b := paging.NewBuilder(repository.CountryFields, opts...)
		return b.Build(context.Background(), r.Countries.Query(), req)
	}

	t.Run("first_middle_last_pages", func(t *testing.T) {
		r := setup(t, makeRepos)
		seeded := seed(t, r, 25)
		cases := []struct {
			index    int
			wantLen  int
			wantFrom int
		}{{0, 10, 0}, {1, 10, 10}, {2, 5, 20}, {3, 0, 0}}
		for _, tc := range cases {
			p, err := build(t, r, paging.Request{PageIndex: tc.index, PageSize: 10})
			if err != nil {
				t.Fatalf("page %d: %v", tc.index, err)
			}
			if p.TotalCount() != 25 || p.TotalPages() != 3 {
				t.Fatalf("page %d: total=%d pages=%d", tc.index, p.TotalCount(), p.TotalPages())
			}
			if len(p.Items()) != tc.wantLen {
				t.Fatalf("page %d: len=%d want %d", tc.index, len(p.Items()), tc.wantLen)
			}
			for i, c := range p.Items() {
				if c.ID != seeded[tc.wantFrom+i].ID {
					t.Fatalf("page %d item %d: got id %d want %d", tc.index, i, c.ID, seeded[tc.wantFrom+i].ID)
				}
			}
			if p.Sorted() {
				t.Fatalf("page %d: expected no sort column, got %q", tc.index, p.SortColumn())
			}
		}
	})

	t.Run("far_beyond_last_page", func(t *testing.T) {
		r := setup(t, makeRepos)
		seed(t, r, 25)
		for _, index := range []int{math.MaxInt / 10, math.MaxInt/10 + 1, math.MaxInt} {
			p, err := build(t, r, paging.Request{PageIndex: index, PageSize: 10, SortColumn: "name", SortOrder: "ASC"})
			if err != nil {
				t.Fatalf("page %d: %v", index, err)
			}
			if len(p.Items()) != 0 || p.TotalCount() != 25 || p.TotalPages() != 3 {
				t.Fatalf("page %d: len=%d total=%d pages=%d", index, len(p.Items()), p.TotalCount(), p.TotalPages())
			}
			if !p.HasPreviousPage() || p.HasNextPage() {
				t.Fatalf("page %d: prev=%v next=%v", index, p.HasPreviousPage(), p.HasNextPage())
			}
		}
	})

	t.Run("sort_desc_by_name", func(t *testing.T) {
		r := setup(t, makeRepos)
		seed(t, r, 25)
		p, err := build(t, r, paging.Request{PageIndex: 0, PageSize: 10, SortColumn: "NAME", SortOrder: "whatever"})
		if err != nil {
			t.Fatalf("build: %v", err)
		}
		if p.SortColumn() != "name" || p.SortOrder() != paging.Desc {
			t.Fatalf("unexpected sort echo: %q %q", p.SortColumn(), p.SortOrder())
		}
		if got := p.Items()[0].Name; got != "C24" {
			t.Fatalf("expected C24 first, got %q", got)
		}
		if got := p.Items()[9].Name; got != "C15" {
			t.Fatalf("expected C15 last, got %q", got)
		}
	})

	t.Run("sort_asc_with_tie_break", func(t *testing.T) {
		r := setup(t, makeRepos)
		seed(t, r, 9)
		p, err := build(t, r, paging.Request{PageIndex: 0, PageSize: 9, SortColumn: "iso2", SortOrder: "asc"})
		if err != nil {
			t.Fatalf("build: %v", err)
		}
		items := p.Items()
		for i := 1; i < len(items); i++ {
			prev, cur := items[i-1], items[i]
			if prev.ISO2 > cur.ISO2 || (prev.ISO2 == cur.ISO2 && prev.ID > cur.ID) {
				t.Fatalf("not ordered by iso2, id at %d: %+v then %+v", i, prev, cur)
			}
		}
	})

	t.Run("unknown_column", func(t *testing.T) {
		r := setup(t, makeRepos)
		seed(t, r, 3)
		p, err := build(t, r, paging.Request{PageIndex: 0, PageSize: 10, SortColumn: "name; DROP TABLE countries"})
		if err != nil {
			t.Fatalf("lenient build: %v", err)
		}
		if p.Sorted() || len(p.Items()) != 3 {
			t.Fatalf("expected unsorted full page, got sorted=%v len=%d", p.Sorted(), len(p.Items()))
		}
		_, err = build(t, r, paging.Request{PageIndex: 0, PageSize: 10, SortColumn: "population"}, paging.WithStrictSort())
		if !errors.Is(err, paging.ErrInvalidField) {
			t.Fatalf("expected ErrInvalidField, got %v", err)
		}
	})

	t.Run("cities_by_country_sorted_by_mapped_column", func(t *testing.T) {
		r := setup(t, makeRepos)
		a := mustCountry(t, r.Countries, "A", "AA", "AAA")
		b := mustCountry(t, r.Countries, "B", "BB", "BBB")
		for i := 0; i < 6; i++ {
			owner := a.ID
			if i%2 == 1 {
				owner = b.ID
			}
			mustCity(t, r.Cities, fmt.Sprintf("city-%d", i), float64(i), float64(-i), owner)
		}
		builder := paging.NewBuilder(repository.CityFields)
		p, err := builder.Build(context.Background(), r.Cities.Query(), paging.Request{PageSize: 6, SortColumn: "countryId", SortOrder: "ASC"})
		if err != nil {
			t.Fatalf("build: %v", err)
		}
		if p.SortColumn() != "countryId" || p.Items()[0].CountryID != a.ID || p.Items()[5].CountryID != b.ID {
			t.Fatalf("unexpected order: %+v", p.Items())
		}
		p, err = builder.Build(context.Background(), r.Cities.QueryByCountry(b.ID), paging.Request{PageIndex: 1, PageSize: 2, SortColumn: "lat"})
		if err != nil {
			t.Fatalf("build by country: %v", err)
		}
		if p.TotalCount() != 3 || p.TotalPages() != 2 || len(p.Items()) != 1 {
			t.Fatalf("unexpected page: total=%d pages=%d len=%d", p.TotalCount(), p.TotalPages(), len(p.Items()))
		}
		// lat DESC over cities 1,3,5 puts city-1 on the second page.
		if p.Items()[0].Name != "city-1" {
			t.Fatalf("expected city-1, got %q", p.Items()[0].Name)
		}
	})
}
