package store

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// ErrQuotaExceeded is returned when a write would exceed the backend's quota.
var ErrQuotaExceeded = errors.New("storage quota exceeded")

// KV is a durable key/value repository.
//
// Get reports ok=false for a key that was never written. Put replaces the
// whole value; it either succeeds completely or leaves the prior value.
type KV interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Put(ctx context.Context, key string, value []byte) error
}

// Backend is a KV that owns resources.
type Backend interface {
	KV
	io.Closer
}

// Driver names accepted by OpenBackend.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// OpenBackend opens the backend named by driver. target is the SQLite file
// path or the Postgres DSN and is ignored for the memory driver.
func OpenBackend(ctx context.Context, driver, target string) (Backend, error) {
	switch driver {
	case "", DriverSQLite:
		s, err := Open(target)
		if err != nil {
			return nil, err
		}
		return s, nil
	case DriverPostgres:
		p, err := OpenPostgres(ctx, target)
		if err != nil {
			return nil, err
		}
		return p, nil
	case DriverMemory:
		return NewMemory(0), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", driver)
	}
}
