// Package storage provides durable backends for the bankroll's integer
// values: in-memory, an atomically written JSON file, SQLite and PostgreSQL.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/lox/blackjack/internal/bankroll"
)

// Supported driver names
const (
	DriverMemory   = "memory"
	DriverFile     = "file"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// ErrUnknownDriver is returned by Open for an unsupported driver name
var ErrUnknownDriver = errors.New("unknown storage driver")

// Store is a bankroll.Store that may hold resources
type Store interface {
	bankroll.Store
	io.Closer
}

// Options selects and configures a backend
type Options struct {
	Driver string
	Path   string
	DSN    string
}

// Open returns the backend named by opts.Driver
func Open(ctx context.Context, opts Options) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Driver)) {
	case "", DriverMemory:
		return NewMemory(), nil
	case DriverFile:
		return NewFileStore(opts.Path)
	case DriverSQLite:
		return OpenSQLite(ctx, opts.Path)
	case DriverPostgres:
		return OpenPostgres(ctx, opts.DSN)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, opts.Driver)
	}
}

var (
	_ Store = (*Memory)(nil)
	_ Store = (*FileStore)(nil)
	_ Store = (*SQLStore)(nil)
)
