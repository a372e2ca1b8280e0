package service

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/worldcities/worldcities-api/internal/cache"
	"github.com/worldcities/worldcities-api/internal/paging"
)

// validate is shared; validator caches struct metadata and is safe for concurrent use.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their JSON names, as clients send them.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateStruct runs the struct tags and converts failures to FieldErrors.
func validateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	ferrs := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		ferrs = append(ferrs, FieldError{Field: fe.Field(), Message: fieldMessage(fe)})
	}
	return newInvalidInput(ferrs)
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "must not be empty"
	case "max":
		return "length must be at most " + fe.Param()
	case "len":
		return "length must be exactly " + fe.Param()
	case "alpha":
		return "must contain letters only"
	case "gt":
		return "must be > " + fe.Param()
	case "gte":
		return "must be >= " + fe.Param()
	case "lte":
		return "must be <= " + fe.Param()
	default:
		return fmt.Sprintf("failed %q validation", fe.Tag())
	}
}

func validID(field string, id int64) error {
	if id <= 0 {
		return newInvalidInput([]FieldError{{Field: field, Message: "must be > 0"}})
	}
	return nil
}

// normalize clamps a client request into a valid page request.
func (o PagingOptions) normalize(req ListRequest) paging.Request {
	size := req.PageSize
	if size <= 0 {
		size = o.DefaultPageSize
	}
	if size > o.MaxPageSize {
		size = o.MaxPageSize
	}
	return paging.Request{
		PageIndex:  max(req.PageIndex, 0),
		PageSize:   size,
		SortColumn: strings.TrimSpace(req.SortColumn),
		SortOrder:  req.SortOrder,
	}
}

// listPage serves one page through the cache, building it on a miss.
func listPage[T any](ctx context.Context, b *paging.Builder[T], pc *cache.PageCache, entity, scope string, src paging.Query[T], req paging.Request) (paging.Page[T], error) {
	// Reject a bad column before touching the cache.
	if b.Strict() && req.SortColumn != "" {
		if err := b.Fields().Validate(req.SortColumn); err != nil {
			return paging.Page[T]{}, err
		}
	}
	key := pc.Key(ctx, entity, scope, req)
	if page, ok := cache.Get[T](ctx, pc, key); ok {
		return page, nil
	}
	page, err := b.Build(ctx, src, req)
	if err != nil {
		return paging.Page[T]{}, err
	}
	cache.Set(ctx, pc, key, page)
	return page, nil
}
