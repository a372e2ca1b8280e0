package sqlstore

import (
	"context"
	"errors"

	"github.com/worldcities/worldcities-api/internal/model"
	"github.com/worldcities/worldcities-api/internal/paging"
	"github.com/worldcities/worldcities-api/internal/repository"
)

var cityTable = &table[model.City]{
	name:    "cities",
	columns: []string{"id", "name", "lat", "lon", "country_id"},
	scan: func(r Row) (model.City, error) {
		var c model.City
		err := r.Scan(&c.ID, &c.Name, &c.Lat, &c.Lon, &c.CountryID)
		return c, err
	},
}

type cityRepository struct{ db DB }

func NewCityRepository(db DB) repository.CityRepository {
	return &cityRepository{db: db}
}

func (r *cityRepository) insertSQL(b *binder, c model.City, onConflict string) string {
	return `INSERT INTO cities (name, lat, lon, country_id) VALUES (` +
		b.bind(c.Name) + `, ` + b.bind(c.Lat) + `, ` + b.bind(c.Lon) + `, ` + b.bind(c.CountryID) + `)` +
		onConflict + `
		 RETURNING id, name, lat, lon, country_id`
}

// Create fails with ErrConflict when the country does not exist.
func (r *cityRepository) Create(ctx context.Context, c model.City) (model.City, error) {
	if err := ensureDB(r.db); err != nil {
		return model.City{}, err
	}
	b := &binder{d: r.db.Dialect()}
	out, err := cityTable.scan(getQ(ctx, r.db).QueryRow(ctx, r.insertSQL(b, c, ""), b.args...))
	if err != nil {
		return model.City{}, repository.MapError(err)
	}
	return out, nil
}

func (r *cityRepository) CreateIfAbsent(ctx context.Context, c model.City) (model.City, bool, error) {
	if err := ensureDB(r.db); err != nil {
		return model.City{}, false, err
	}
	b := &binder{d: r.db.Dialect()}
	sqlText := r.insertSQL(b, c, ` ON CONFLICT (name, lat, lon, country_id) DO NOTHING`)
	out, err := cityTable.scan(getQ(ctx, r.db).QueryRow(ctx, sqlText, b.args...))
	if err != nil {
		if errors.Is(err, ErrNoRows) {
			return model.City{}, false, nil
		}
		return model.City{}, false, repository.MapError(err)
	}
	return out, true, nil
}

func (r *cityRepository) GetByID(ctx context.Context, id int64) (model.City, error) {
	if err := ensureDB(r.db); err != nil {
		return model.City{}, err
	}
	sqlText := `SELECT id, name, lat, lon, country_id FROM cities WHERE id = ` + r.db.Dialect().Placeholder(1)
	out, err := cityTable.scan(getQ(ctx, r.db).QueryRow(ctx, sqlText, id))
	if err != nil {
		if errors.Is(err, ErrNoRows) {
			return model.City{}, repository.ErrNotFound
		}
		return model.City{}, repository.MapError(err)
	}
	return out, nil
}

func (r *cityRepository) Update(ctx context.Context, c model.City) (model.City, error) {
	if err := ensureDB(r.db); err != nil {
		return model.City{}, err
	}
	b := &binder{d: r.db.Dialect()}
	sqlText := `UPDATE cities SET name = ` + b.bind(c.Name) + `, lat = ` + b.bind(c.Lat) + `, lon = ` + b.bind(c.Lon) +
		`, country_id = ` + b.bind(c.CountryID) + ` WHERE id = ` + b.bind(c.ID) + `
		 RETURNING id, name, lat, lon, country_id`
	out, err := cityTable.scan(getQ(ctx, r.db).QueryRow(ctx, sqlText, b.args...))
	if err != nil {
		if errors.Is(err, ErrNoRows) {
			return model.City{}, repository.ErrNotFound
		}
		return model.City{}, repository.MapError(err)
	}
	return out, nil
}

func (r *cityRepository) Delete(ctx context.Context, id int64) error {
	if err := ensureDB(r.db); err != nil {
		return err
	}
	n, err := getQ(ctx, r.db).Exec(ctx, `DELETE FROM cities WHERE id = `+r.db.Dialect().Placeholder(1), id)
	if err != nil {
		return repository.MapError(err)
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *cityRepository) Query() paging.Query[model.City] {
	return newTableQuery(r.db, cityTable)
}

func (r *cityRepository) QueryByCountry(countryID int64) paging.Query[model.City] {
	return newTableQuery(r.db, cityTable).where("country_id", countryID)
}

var _ repository.CityRepository = (*cityRepository)(nil)
