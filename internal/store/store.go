// Package store persists supplier records. MongoDB is the production
// backend; SQLite and Postgres implementations serve local runs and
// deployments without a document store.
package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/ipartes/quote-cli/internal/model"
)

// ErrNotFound is returned when no supplier matches the given id. Malformed
// ids are reported the same way.
var ErrNotFound = eris.New("store: supplier not found")

// Store defines the persistence interface for the supplier directory.
type Store interface {
	// ListSuppliers returns every record with emails normalized.
	ListSuppliers(ctx context.Context) ([]model.Supplier, error)
	GetSupplier(ctx context.Context, id string) (*model.Supplier, error)
	// CreateSupplier assigns ID, CreatedAt and UpdatedAt on s.
	CreateSupplier(ctx context.Context, s *model.Supplier) error
	UpdateEmails(ctx context.Context, id string, emails []string, updatedAt time.Time) error
	DeleteSupplier(ctx context.Context, id string) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// Drivers accepted by Open.
const (
	DriverMongo    = "mongo"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config selects and configures a backend.
type Config struct {
	Driver      string        `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string        `yaml:"database_url" mapstructure:"database_url"`
	Database    string        `yaml:"database" mapstructure:"database"`
	Collection  string        `yaml:"collection" mapstructure:"collection"`
	Timeout     time.Duration `yaml:"timeout" mapstructure:"timeout"`
	MaxPoolSize uint64        `yaml:"max_pool_size" mapstructure:"max_pool_size"`
}

// Open constructs the backend named by cfg.Driver. The Mongo backend
// connects lazily on first use; the SQL backends connect immediately.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Driver {
	case DriverMongo, "":
		return NewMongo(cfg), nil
	case DriverSQLite:
		return NewSQLite(cfg.DatabaseURL)
	case DriverPostgres:
		return NewPostgres(ctx, cfg.DatabaseURL)
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
}
