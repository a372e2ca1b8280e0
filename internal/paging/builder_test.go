package paging_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/worldcities/worldcities-api/internal/paging"
)

type rec struct {
	ID   int
	Name string
}

var recFields = paging.NewFields(
	paging.By("id", "id", func(r rec) int { return r.ID }),
	paging.By("name", "name", func(r rec) string { return r.Name }),
)

func seed(n int) []rec {
	out := make([]rec, n)
	for i := range out {
		out[i] = rec{ID: i + 1, Name: fmt.Sprintf("rec-%02d", (i*7)%n)}
	}
	return out
}

// countingQuery records storage round trips and can inject failures.
type countingQuery struct {
	paging.Query[rec]
	counts   *int
	fetches  *int
	countErr error
	fetchErr error
}

func newCounting(items []rec) countingQuery {
	return countingQuery{Query: paging.FromSlice(items), counts: new(int), fetches: new(int)}
}

func (q countingQuery) wrap(inner paging.Query[rec]) countingQuery {
	q.Query = inner
	return q
}

func (q countingQuery) Count(ctx context.Context) (int, error) {
	*q.counts++
	if q.countErr != nil {
		return 0, q.countErr
	}
	return q.Query.Count(ctx)
}

func (q countingQuery) Fetch(ctx context.Context) ([]rec, error) {
	*q.fetches++
	if q.fetchErr != nil {
		return nil, q.fetchErr
	}
	return q.Query.Fetch(ctx)
}

func (q countingQuery) OrderBy(f paging.Field[rec], d paging.Direction) paging.Query[rec] {
	return q.wrap(q.Query.OrderBy(f, d))
}
func (q countingQuery) Skip(n int) paging.Query[rec] { return q.wrap(q.Query.Skip(n)) }
func (q countingQuery) Take(n int) paging.Query[rec] { return q.wrap(q.Query.Take(n)) }

func TestBuild_Scenarios(t *testing.T) {
	ctx := context.Background()
	src := paging.FromSlice(seed(25))

	t.Run("first page", func(t *testing.T) {
		p, err := paging.Build(ctx, src, recFields, paging.Request{PageIndex: 0, PageSize: 10})
		require.NoError(t, err)
		assert.Len(t, p.Items(), 10)
		assert.Equal(t, 25, p.TotalCount())
		assert.Equal(t, 3, p.TotalPages())
		assert.False(t, p.HasPreviousPage())
		assert.True(t, p.HasNextPage())
		assert.False(t, p.Sorted())
		assert.Equal(t, 1, p.Items()[0].ID)
	})

	t.Run("last partial page", func(t *testing.T) {
		p, err := paging.Build(ctx, src, recFields, paging.Request{PageIndex: 2, PageSize: 10})
		require.NoError(t, err)
		assert.Len(t, p.Items(), 5)
		assert.True(t, p.HasPreviousPage())
		assert.False(t, p.HasNextPage())
		assert.Equal(t, 21, p.Items()[0].ID)
	})

	t.Run("valid column with empty order sorts descending", func(t *testing.T) {
		p, err := paging.Build(ctx, src, recFields, paging.Request{PageIndex: 0, PageSize: 25, SortColumn: "name"})
		require.NoError(t, err)
		assert.Equal(t, "name", p.SortColumn())
		assert.Equal(t, paging.Desc, p.SortOrder())
		items := p.Items()
		for i := 1; i < len(items); i++ {
			assert.GreaterOrEqual(t, items[i-1].Name, items[i].Name)
		}
	})

	t.Run("unknown column falls back to unsorted", func(t *testing.T) {
		p, err := paging.Build(ctx, src, recFields, paging.Request{PageIndex: 0, PageSize: 5, SortColumn: "dropTable", SortOrder: "ASC"})
		require.NoError(t, err)
		assert.False(t, p.Sorted())
		assert.Equal(t, "", p.SortColumn())
		assert.Equal(t, paging.Direction(""), p.SortOrder())
		assert.Equal(t, []int{1, 2, 3, 4, 5}, ids(p.Items()))
	})
}

func TestBuild_ColumnLookupIsCaseInsensitive(t *testing.T) {
	p, err := paging.Build(context.Background(), paging.FromSlice(seed(5)), recFields,
		paging.Request{PageSize: 5, SortColumn: "ID", SortOrder: "asc"})
	require.NoError(t, err)
	assert.Equal(t, "id", p.SortColumn())
	assert.Equal(t, paging.Asc, p.SortOrder())
	assert.Equal(t, []int{1, 2, 3, 4, 5}, ids(p.Items()))
}

func TestBuild_PageMathProperties(t *testing.T) {
	ctx := context.Background()
	for _, total := range []int{0, 1, 9, 10, 11, 25, 99, 100} {
		src := paging.FromSlice(seed(total))
		for _, size := range []int{1, 3, 10, 25, 200} {
			pages := (total + size - 1) / size
			for idx := 0; idx <= pages+1; idx++ {
				name := fmt.Sprintf("total=%d/size=%d/idx=%d", total, size, idx)
				p, err := paging.Build(ctx, src, recFields, paging.Request{PageIndex: idx, PageSize: size})
				require.NoError(t, err, name)

				want := min(size, max(0, total-idx*size))
				assert.Len(t, p.Items(), want, name)
				assert.Equal(t, pages, p.TotalPages(), name)
				assert.Equal(t, total, p.TotalCount(), name)
				assert.Equal(t, idx > 0, p.HasPreviousPage(), name)
				assert.Equal(t, idx+1 < pages, p.HasNextPage(), name)
				assert.LessOrEqual(t, len(p.Items()), p.PageSize(), name)
			}
		}
	}
}

func TestBuild_HugePageIndex(t *testing.T) {
	cases := []struct {
		name string
		req  paging.Request
	}{
		{"skip overflows", paging.Request{PageIndex: math.MaxInt/10 + 1, PageSize: 10}},
		{"max index", paging.Request{PageIndex: math.MaxInt, PageSize: 3, SortColumn: "name", SortOrder: "asc"}},
		{"max size and index", paging.Request{PageIndex: math.MaxInt, PageSize: math.MaxInt}},
		{"largest representable skip", paging.Request{PageIndex: math.MaxInt / 10, PageSize: 10}},
		{"max size", paging.Request{PageIndex: 1, PageSize: math.MaxInt}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			q := newCounting(seed(25))
			p, err := paging.Build(context.Background(), q, recFields, tc.req)
			require.NoError(t, err)
			assert.Empty(t, p.Items())
			assert.Equal(t, 25, p.TotalCount())
			assert.Equal(t, tc.req.PageIndex, p.PageIndex())
			assert.True(t, p.HasPreviousPage())
			assert.False(t, p.HasNextPage())
			assert.Equal(t, 1, *q.counts)
			if tc.req.SortColumn != "" {
				assert.Equal(t, "name", p.SortColumn())
				assert.Equal(t, paging.Asc, p.SortOrder())
			}
		})
	}
}

func TestBuild_StrictSortRejectsUnknownColumnBeforeStorage(t *testing.T) {
	q := newCounting(seed(10))
	b := paging.NewBuilder(recFields, paging.WithStrictSort())

	_, err := b.Build(context.Background(), q, paging.Request{PageSize: 5, SortColumn: "dropTable"})
	require.Error(t, err)
	assert.ErrorIs(t, err, paging.ErrInvalidField)
	var fe *paging.InvalidFieldError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "dropTable", fe.Field)
	assert.Zero(t, *q.counts)
	assert.Zero(t, *q.fetches)
}

func TestBuild_StrictSortAcceptsKnownColumn(t *testing.T) {
	b := paging.NewBuilder(recFields, paging.WithStrictSort())
	assert.True(t, b.Strict())
	p, err := b.Build(context.Background(), paging.FromSlice(seed(3)), paging.Request{PageSize: 3, SortColumn: "id", SortOrder: "ASC"})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, ids(p.Items()))
}

func TestBuild_TwoRoundTrips(t *testing.T) {
	q := newCounting(seed(25))
	_, err := paging.Build(context.Background(), q, recFields, paging.Request{PageIndex: 1, PageSize: 10, SortColumn: "name"})
	require.NoError(t, err)
	assert.Equal(t, 1, *q.counts)
	assert.Equal(t, 1, *q.fetches)
}

func TestBuild_StorageErrorsPropagate(t *testing.T) {
	boom := errors.New("connection reset")

	q := newCounting(seed(3))
	q.countErr = boom
	_, err := paging.Build(context.Background(), q, recFields, paging.Request{PageSize: 2})
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, *q.fetches)

	q = newCounting(seed(3))
	q.fetchErr = boom
	_, err = paging.Build(context.Background(), q, recFields, paging.Request{PageSize: 2})
	assert.ErrorIs(t, err, boom)
}

func TestBuild_InvalidRequest(t *testing.T) {
	cases := []paging.Request{
		{PageIndex: -1, PageSize: 10},
		{PageIndex: 0, PageSize: 0},
		{PageIndex: 0, PageSize: -3},
	}
	for _, req := range cases {
		q := newCounting(seed(3))
		_, err := paging.Build(context.Background(), q, recFields, req)
		assert.ErrorIs(t, err, paging.ErrInvalidPageRequest)
		assert.Zero(t, *q.counts)
	}
}

func TestBuild_DoesNotMutateSource(t *testing.T) {
	items := seed(12)
	before := append([]rec(nil), items...)
	src := paging.FromSlice(items)

	_, err := paging.Build(context.Background(), src, recFields, paging.Request{PageIndex: 1, PageSize: 4, SortColumn: "name", SortOrder: "asc"})
	require.NoError(t, err)
	assert.Equal(t, before, items)

	// the source query still yields everything in default order
	all, err := src.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, before, all)
}

func TestBuild_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := paging.Build(ctx, paging.FromSlice(seed(3)), recFields, paging.Request{PageSize: 2})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPage_JSON(t *testing.T) {
	p := paging.NewPage([]rec{{ID: 1, Name: "a"}}, 25, 0, 10, "name", paging.Asc)
	b, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, `{"data":[{"ID":1,"Name":"a"}],"pageIndex":0,"pageSize":10,"totalCount":25,"totalPages":3,
		"hasPreviousPage":false,"hasNextPage":true,"sortColumn":"name","sortOrder":"ASC"}`, string(b))

	var back paging.Page[rec]
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, p, back)

	unsorted, err := json.Marshal(paging.NewPage[rec](nil, 0, 0, 10, "", paging.Desc))
	require.NoError(t, err)
	assert.JSONEq(t, `{"data":[],"pageIndex":0,"pageSize":10,"totalCount":0,"totalPages":0,
		"hasPreviousPage":false,"hasNextPage":false,"sortColumn":null,"sortOrder":null}`, string(unsorted))
}

func ids(items []rec) []int {
	out := make([]int, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}
