package service_test

import (
	"context"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/worldcities/worldcities-api/internal/model"
	"github.com/worldcities/worldcities-api/internal/paging"
	"github.com/worldcities/worldcities-api/internal/repository"
)

// probe counts storage round trips made through queries handed out by the fakes.
type probe struct {
	mu     sync.Mutex
	counts int
	reads  int
}

func (p *probe) trips() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.counts + p.reads
}

type probedQuery[T any] struct {
	q paging.Query[T]
	p *probe
}

func (q probedQuery[T]) Count(ctx context.Context) (int, error) {
	q.p.mu.Lock()
	q.p.counts++
	q.p.mu.Unlock()
	return q.q.Count(ctx)
}

func (q probedQuery[T]) Fetch(ctx context.Context) ([]T, error) {
	q.p.mu.Lock()
	q.p.reads++
	q.p.mu.Unlock()
	return q.q.Fetch(ctx)
}

func (q probedQuery[T]) OrderBy(f paging.Field[T], d paging.Direction) paging.Query[T] {
	return probedQuery[T]{q: q.q.OrderBy(f, d), p: q.p}
}
func (q probedQuery[T]) Skip(n int) paging.Query[T] { return probedQuery[T]{q: q.q.Skip(n), p: q.p} }
func (q probedQuery[T]) Take(n int) paging.Query[T] { return probedQuery[T]{q: q.q.Take(n), p: q.p} }

type fakeCountryRepo struct {
	nextID    int64
	items     map[int64]model.Country
	hasCities func(id int64) bool
	createErr error
	probe     probe
}

func newFakeCountryRepo() *fakeCountryRepo {
	return &fakeCountryRepo{nextID: 1, items: map[int64]model.Country{}}
}

func (f *fakeCountryRepo) Create(_ context.Context, c model.Country) (model.Country, error) {
	if f.createErr != nil {
		return model.Country{}, f.createErr
	}
	for _, it := range f.items {
		if it.Name == c.Name {
			return model.Country{}, repository.ErrAlreadyExists
		}
	}
	c.ID = f.nextID
	f.nextID++
	f.items[c.ID] = c
	return c, nil
}

func (f *fakeCountryRepo) CreateIfAbsent(ctx context.Context, c model.Country) (model.Country, bool, error) {
	if existing, err := f.GetByName(ctx, c.Name); err == nil {
		return existing, false, nil
	}
	out, err := f.Create(ctx, c)
	return out, err == nil, err
}

func (f *fakeCountryRepo) GetByID(_ context.Context, id int64) (model.Country, error) {
	it, ok := f.items[id]
	if !ok {
		return model.Country{}, repository.ErrNotFound
	}
	return it, nil
}

func (f *fakeCountryRepo) GetByName(_ context.Context, name string) (model.Country, error) {
	for _, it := range f.items {
		if it.Name == name {
			return it, nil
		}
	}
	return model.Country{}, repository.ErrNotFound
}

func (f *fakeCountryRepo) Update(_ context.Context, c model.Country) (model.Country, error) {
	if _, ok := f.items[c.ID]; !ok {
		return model.Country{}, repository.ErrNotFound
	}
	f.items[c.ID] = c
	return c, nil
}

func (f *fakeCountryRepo) Delete(_ context.Context, id int64) error {
	if _, ok := f.items[id]; !ok {
		return repository.ErrNotFound
	}
	if f.hasCities != nil && f.hasCities(id) {
		return repository.ErrConflict
	}
	delete(f.items, id)
	return nil
}

func (f *fakeCountryRepo) Exists(_ context.Context, id int64) (bool, error) {
	_, ok := f.items[id]
	return ok, nil
}

func (f *fakeCountryRepo) Query() paging.Query[model.Country] {
	return probedQuery[model.Country]{q: paging.FromSlice(sortedByID(f.items, func(c model.Country) int64 { return c.ID })), p: &f.probe}
}

var _ repository.CountryRepository = (*fakeCountryRepo)(nil)

type fakeCityRepo struct {
	nextID int64
	items  map[int64]model.City
	probe  probe
}

func newFakeCityRepo() *fakeCityRepo {
	return &fakeCityRepo{nextID: 1, items: map[int64]model.City{}}
}

func (f *fakeCityRepo) Create(_ context.Context, c model.City) (model.City, error) {
	c.ID = f.nextID
	f.nextID++
	f.items[c.ID] = c
	return c, nil
}

func (f *fakeCityRepo) CreateIfAbsent(ctx context.Context, c model.City) (model.City, bool, error) {
	for _, it := range f.items {
		if it.Name == c.Name && it.Lat == c.Lat && it.Lon == c.Lon && it.CountryID == c.CountryID {
			return model.City{}, false, nil
		}
	}
	out, err := f.Create(ctx, c)
	return out, err == nil, err
}

func (f *fakeCityRepo) GetByID(_ context.Context, id int64) (model.City, error) {
	it, ok := f.items[id]
	if !ok {
		return model.City{}, repository.ErrNotFound
	}
	return it, nil
}

func (f *fakeCityRepo) Update(_ context.Context, c model.City) (model.City, error) {
	if _, ok := f.items[c.ID]; !ok {
		return model.City{}, repository.ErrNotFound
	}
	f.items[c.ID] = c
	return c, nil
}

func (f *fakeCityRepo) Delete(_ context.Context, id int64) error {
	if _, ok := f.items[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.items, id)
	return nil
}

func (f *fakeCityRepo) Query() paging.Query[model.City] {
	return probedQuery[model.City]{q: paging.FromSlice(sortedByID(f.items, func(c model.City) int64 { return c.ID })), p: &f.probe}
}

func (f *fakeCityRepo) QueryByCountry(countryID int64) paging.Query[model.City] {
	var out []model.City
	for _, c := range sortedByID(f.items, func(c model.City) int64 { return c.ID }) {
		if c.CountryID == countryID {
			out = append(out, c)
		}
	}
	return probedQuery[model.City]{q: paging.FromSlice(out), p: &f.probe}
}

func (f *fakeCityRepo) countryHasCities(id int64) bool {
	for _, c := range f.items {
		if c.CountryID == id {
			return true
		}
	}
	return false
}

var _ repository.CityRepository = (*fakeCityRepo)(nil)

func sortedByID[T any](m map[int64]T, id func(T) int64) []T {
	out := make([]T, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	slices.SortFunc(out, func(a, b T) int { return int(id(a) - id(b)) })
	return out
}

// fakeTx runs fn inline and records how often it was used.
type fakeTx struct{ calls int }

func (f *fakeTx) WithinTx(ctx context.Context, fn repository.TxFunc) error {
	f.calls++
	return fn(ctx)
}

// fakeRedis backs the page cache in tests.
type fakeRedis struct {
	mu   sync.Mutex
	data map[string]string
}

func newFakeRedis() *fakeRedis { return &fakeRedis{data: map[string]string{}} }

func (f *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) Set(_ context.Context, key string, value interface{}, _ time.Duration) *redis.StatusCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if b, ok := value.([]byte); ok {
		f.data[key] = string(b)
	}
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Incr(_ context.Context, key string) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, _ := strconv.ParseInt(f.data[key], 10, 64)
	n++
	f.data[key] = strconv.FormatInt(n, 10)
	return redis.NewIntResult(n, nil)
}
