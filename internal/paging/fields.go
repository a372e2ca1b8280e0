package paging

import (
	"cmp"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrInvalidField is matched by every *InvalidFieldError.
var ErrInvalidField = errors.New("invalid field")

// InvalidFieldError names a field that is not registered for an entity.
type InvalidFieldError struct {
	Field string
}

func (e *InvalidFieldError) Error() string {
	return fmt.Sprintf("field %q does not exist", e.Field)
}

func (e *InvalidFieldError) Unwrap() error { return ErrInvalidField }

// Field is one sortable attribute of T: the public name clients use, the
// storage column it maps to, and a comparator for in-memory ordering.
type Field[T any] struct {
	Name    string
	Column  string
	Compare func(a, b T) int
}

// By builds a Field ordered by the value get extracts.
func By[T any, V cmp.Ordered](name, column string, get func(T) V) Field[T] {
	return Field[T]{
		Name:    name,
		Column:  column,
		Compare: func(a, b T) int { return cmp.Compare(get(a), get(b)) },
	}
}

// Fields is the allow-list of sortable fields for one entity type. It is
// immutable after NewFields and safe for concurrent use.
type Fields[T any] struct {
	byKey map[string]Field[T]
	names []string
}

// NewFields registers the given fields. Names are matched case-insensitively.
// It panics on an empty or duplicate name or a missing column/comparator,
// since registries are declared once at package init.
func NewFields[T any](fields ...Field[T]) *Fields[T] {
	f := &Fields[T]{byKey: make(map[string]Field[T], len(fields))}
	for _, fd := range fields {
		key := strings.ToLower(fd.Name)
		switch {
		case key == "":
			panic("paging: field with empty name")
		case fd.Column == "" || fd.Compare == nil:
			panic(fmt.Sprintf("paging: field %q needs a column and a comparator", fd.Name))
		}
		if _, dup := f.byKey[key]; dup {
			panic(fmt.Sprintf("paging: duplicate field %q", fd.Name))
		}
		f.byKey[key] = fd
		f.names = append(f.names, fd.Name)
	}
	sort.Strings(f.names)
	return f
}

// Lookup resolves name to its registered field.
func (f *Fields[T]) Lookup(name string) (Field[T], bool) {
	if f == nil {
		return Field[T]{}, false
	}
	fd, ok := f.byKey[strings.ToLower(strings.TrimSpace(name))]
	return fd, ok
}

// Validate returns an *InvalidFieldError when name is not registered.
func (f *Fields[T]) Validate(name string) error {
	if _, ok := f.Lookup(name); !ok {
		return &InvalidFieldError{Field: name}
	}
	return nil
}

// Exists reports whether name is registered. With throwOnMissing a miss is
// returned as an *InvalidFieldError, otherwise as (false, nil).
func (f *Fields[T]) Exists(name string, throwOnMissing bool) (bool, error) {
	if _, ok := f.Lookup(name); ok {
		return true, nil
	}
	if throwOnMissing {
		return false, &InvalidFieldError{Field: name}
	}
	return false, nil
}

// Names lists the registered field names in sorted order.
func (f *Fields[T]) Names() []string {
	if f == nil {
		return nil
	}
	out := make([]string, len(f.names))
	copy(out, f.names)
	return out
}
