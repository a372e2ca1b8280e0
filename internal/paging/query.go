package paging

import (
	"context"
	"slices"
)

// Query is an unrealized read over records of T. Composition methods return
// a new Query and leave the receiver untouched; only Count and Fetch touch
// storage. Ordering is applied before the Skip/Take window.
type Query[T any] interface {
	Count(ctx context.Context) (int, error)
	OrderBy(field Field[T], dir Direction) Query[T]
	Skip(n int) Query[T]
	Take(n int) Query[T]
	Fetch(ctx context.Context) ([]T, error)
}

type ordering[T any] struct {
	field Field[T]
	dir   Direction
}

// sliceQuery is a Query over an in-memory slice.
type sliceQuery[T any] struct {
	items []T
	order *ordering[T]
	skip  int
	take  int // -1 means unbounded
}

// FromSlice wraps items as a Query. The slice is never reordered or written to.
func FromSlice[T any](items []T) Query[T] {
	return sliceQuery[T]{items: items, take: -1}
}

func (q sliceQuery[T]) OrderBy(field Field[T], dir Direction) Query[T] {
	q.order = &ordering[T]{field: field, dir: dir}
	return q
}

func (q sliceQuery[T]) Skip(n int) Query[T] {
	if n > 0 {
		q.skip += n
		if q.take >= 0 {
			q.take = max(q.take-n, 0)
		}
	}
	return q
}

func (q sliceQuery[T]) Take(n int) Query[T] {
	if n < 0 {
		n = 0
	}
	if q.take < 0 || n < q.take {
		q.take = n
	}
	return q
}

func (q sliceQuery[T]) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	lo, hi := q.window(len(q.items))
	return hi - lo, nil
}

func (q sliceQuery[T]) Fetch(ctx context.Context) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	src := q.items
	if q.order != nil {
		src = slices.Clone(q.items)
		cmpFn := q.order.field.Compare
		if q.order.dir == Desc {
			asc := cmpFn
			cmpFn = func(a, b T) int { return asc(b, a) }
		}
		slices.SortStableFunc(src, cmpFn)
	}
	lo, hi := q.window(len(src))
	out := make([]T, hi-lo)
	copy(out, src[lo:hi])
	return out, nil
}

func (q sliceQuery[T]) window(n int) (int, int) {
	lo := min(q.skip, n)
	hi := n
	if q.take >= 0 && q.take < n-lo {
		hi = lo + q.take
	}
	return lo, hi
}
