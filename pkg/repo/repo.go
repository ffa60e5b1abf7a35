// Package repo defines a generic CRUD repository interface and its Neo4j
// implementation.
package repo

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a requested entity does not exist. Callers
// that treat missing entities as skippable match it with errors.Is.
var ErrNotFound = errors.New("repo: not found")

// Repository is a generic CRUD interface.
type Repository[T any, ID comparable] interface {
	Get(ctx context.Context, id ID) (T, error)
	List(ctx context.Context, opts ListOpts) ([]T, error)
	Create(ctx context.Context, entity T) (T, error)
	Update(ctx context.Context, entity T) (T, error)
	Delete(ctx context.Context, id ID) error
}

// ListOpts controls pagination and filtering for List operations. Filter
// entries become exact-match conditions on node properties.
type ListOpts struct {
	Offset int
	Limit  int
	Filter map[string]any
}
