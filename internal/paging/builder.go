package paging

import (
	"context"
	"errors"
	"fmt"
	"math"
)

// ErrInvalidPageRequest is returned for a negative page index or a non-positive page size.
var ErrInvalidPageRequest = errors.New("invalid page request")

// Request describes the page a caller wants. SortColumn and SortOrder come
// straight from untrusted input; they are resolved against the allow-list.
type Request struct {
	PageIndex  int
	PageSize   int
	SortColumn string
	SortOrder  string
}

type options struct {
	strict bool
}

// Option configures a Builder.
type Option func(*options)

// WithStrictSort makes an unknown sort column an error instead of an unsorted page.
func WithStrictSort() Option {
	return func(o *options) { o.strict = true }
}

// Builder pages queries of T using one field allow-list. It holds no
// per-call state and may be shared between goroutines.
type Builder[T any] struct {
	fields *Fields[T]
	opts   options
}

func NewBuilder[T any](fields *Fields[T], opts ...Option) *Builder[T] {
	b := &Builder[T]{fields: fields}
	for _, opt := range opts {
		if opt != nil {
			opt(&b.opts)
		}
	}
	return b
}

// Fields exposes the allow-list so callers can validate input up front.
func (b *Builder[T]) Fields() *Fields[T] { return b.fields }

// Strict reports whether unknown sort columns are rejected.
func (b *Builder[T]) Strict() bool { return b.opts.strict }

// Build counts src, applies the requested ordering and window, and fetches
// the page. That is two storage round trips with no snapshot between them,
// so under concurrent writes TotalCount may not match the fetched rows.
// Storage errors are returned wrapped; src is never modified.
func (b *Builder[T]) Build(ctx context.Context, src Query[T], req Request) (Page[T], error) {
	if req.PageIndex < 0 || req.PageSize <= 0 {
		return Page[T]{}, fmt.Errorf("%w: pageIndex=%d pageSize=%d", ErrInvalidPageRequest, req.PageIndex, req.PageSize)
	}

	var (
		field  Field[T]
		sorted bool
	)
	if req.SortColumn != "" {
		ok, err := b.fields.Exists(req.SortColumn, b.opts.strict)
		if err != nil {
			return Page[T]{}, err
		}
		if ok {
			field, _ = b.fields.Lookup(req.SortColumn)
			sorted = true
		}
	}

	total, err := src.Count(ctx)
	if err != nil {
		return Page[T]{}, fmt.Errorf("count: %w", err)
	}

	var dir Direction
	if sorted {
		dir = NormalizeOrder(req.SortOrder)
	}
	// An offset past math.MaxInt lies beyond any countable result.
	if req.PageIndex > math.MaxInt/req.PageSize {
		return NewPage[T](nil, total, req.PageIndex, req.PageSize, field.Name, dir), nil
	}

	q := src
	if sorted {
		q = q.OrderBy(field, dir)
	}
	q = q.Skip(req.PageIndex * req.PageSize).Take(req.PageSize)

	items, err := q.Fetch(ctx)
	if err != nil {
		return Page[T]{}, fmt.Errorf("fetch: %w", err)
	}
	if len(items) > req.PageSize {
		items = items[:req.PageSize]
	}

	return NewPage(items, total, req.PageIndex, req.PageSize, field.Name, dir), nil
}

// Build is a one-off shorthand for NewBuilder(fields).Build.
func Build[T any](ctx context.Context, src Query[T], fields *Fields[T], req Request) (Page[T], error) {
	return NewBuilder(fields).Build(ctx, src, req)
}
