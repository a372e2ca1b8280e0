package sqlstore

import (
	"context"
	"errors"

	"github.com/worldcities/worldcities-api/internal/model"
	"github.com/worldcities/worldcities-api/internal/paging"
	"github.com/worldcities/worldcities-api/internal/repository"
)

var countryTable = &table[model.Country]{
	name:    "countries",
	columns: []string{"id", "name", "iso2", "iso3"},
	scan: func(r Row) (model.Country, error) {
		var c model.Country
		err := r.Scan(&c.ID, &c.Name, &c.ISO2, &c.ISO3)
		return c, err
	},
}

type countryRepository struct{ db DB }

func NewCountryRepository(db DB) repository.CountryRepository {
	return &countryRepository{db: db}
}

func (r *countryRepository) Create(ctx context.Context, c model.Country) (model.Country, error) {
	if err := ensureDB(r.db); err != nil {
		return model.Country{}, err
	}
	b := &binder{d: r.db.Dialect()}
	sqlText := `INSERT INTO countries (name, iso2, iso3) VALUES (` +
		b.bind(c.Name) + `, ` + b.bind(c.ISO2) + `, ` + b.bind(c.ISO3) + `)
		 RETURNING id, name, iso2, iso3`
	out, err := countryTable.scan(getQ(ctx, r.db).QueryRow(ctx, sqlText, b.args...))
	if err != nil {
		return model.Country{}, repository.MapError(err)
	}
	return out, nil
}

func (r *countryRepository) CreateIfAbsent(ctx context.Context, c model.Country) (model.Country, bool, error) {
	if err := ensureDB(r.db); err != nil {
		return model.Country{}, false, err
	}
	b := &binder{d: r.db.Dialect()}
	sqlText := `INSERT INTO countries (name, iso2, iso3) VALUES (` +
		b.bind(c.Name) + `, ` + b.bind(c.ISO2) + `, ` + b.bind(c.ISO3) + `)
		 ON CONFLICT (name) DO NOTHING
		 RETURNING id, name, iso2, iso3`
	out, err := countryTable.scan(getQ(ctx, r.db).QueryRow(ctx, sqlText, b.args...))
	if err == nil {
		return out, true, nil
	}
	if !errors.Is(err, ErrNoRows) {
		return model.Country{}, false, repository.MapError(err)
	}
	existing, err := r.GetByName(ctx, c.Name)
	if err != nil {
		return model.Country{}, false, err
	}
	return existing, false, nil
}

func (r *countryRepository) GetByID(ctx context.Context, id int64) (model.Country, error) {
	return r.getBy(ctx, "id", id)
}

func (r *countryRepository) GetByName(ctx context.Context, name string) (model.Country, error) {
	return r.getBy(ctx, "name", name)
}

func (r *countryRepository) getBy(ctx context.Context, column string, value any) (model.Country, error) {
	if err := ensureDB(r.db); err != nil {
		return model.Country{}, err
	}
	d := r.db.Dialect()
	sqlText := `SELECT id, name, iso2, iso3 FROM countries WHERE ` + d.Quote(column) + ` = ` + d.Placeholder(1)
	out, err := countryTable.scan(getQ(ctx, r.db).QueryRow(ctx, sqlText, value))
	if err != nil {
		if errors.Is(err, ErrNoRows) {
			return model.Country{}, repository.ErrNotFound
		}
		return model.Country{}, repository.MapError(err)
	}
	return out, nil
}

func (r *countryRepository) Update(ctx context.Context, c model.Country) (model.Country, error) {
	if err := ensureDB(r.db); err != nil {
		return model.Country{}, err
	}
	b := &binder{d: r.db.Dialect()}
	sqlText := `UPDATE countries SET name = ` + b.bind(c.Name) + `, iso2 = ` + b.bind(c.ISO2) + `, iso3 = ` + b.bind(c.ISO3) +
		` WHERE id = ` + b.bind(c.ID) + `
		 RETURNING id, name, iso2, iso3`
	out, err := countryTable.scan(getQ(ctx, r.db).QueryRow(ctx, sqlText, b.args...))
	if err != nil {
		if errors.Is(err, ErrNoRows) {
			return model.Country{}, repository.ErrNotFound
		}
		return model.Country{}, repository.MapError(err)
	}
	return out, nil
}

// Delete fails with ErrConflict while cities still reference the country.
func (r *countryRepository) Delete(ctx context.Context, id int64) error {
	if err := ensureDB(r.db); err != nil {
		return err
	}
	n, err := getQ(ctx, r.db).Exec(ctx, `DELETE FROM countries WHERE id = `+r.db.Dialect().Placeholder(1), id)
	if err != nil {
		return repository.MapError(err)
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Exists performs a lightweight check to see if a country with the given ID exists.
func (r *countryRepository) Exists(ctx context.Context, id int64) (bool, error) {
	if err := ensureDB(r.db); err != nil {
		return false, err
	}
	var exists bool
	sqlText := `SELECT EXISTS(SELECT 1 FROM countries WHERE id = ` + r.db.Dialect().Placeholder(1) + `)`
	if err := getQ(ctx, r.db).QueryRow(ctx, sqlText, id).Scan(&exists); err != nil {
		return false, repository.MapError(err)
	}
	return exists, nil
}

func (r *countryRepository) Query() paging.Query[model.Country] {
	return newTableQuery(r.db, countryTable)
}

var _ repository.CountryRepository = (*countryRepository)(nil)
