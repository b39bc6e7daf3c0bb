// Package dao defines the storage contract for execution snapshots and other
// keyed records.
package dao

import (
	"context"
)

// Service stores records of T identified by K.
type Service[K comparable, T any] interface {
	Save(ctx context.Context, t *T) error

	Load(ctx context.Context, id K) (*T, error)

	Delete(ctx context.Context, id K) error

	List(ctx context.Context, parameters ...*Parameter) ([]*T, error)
}
