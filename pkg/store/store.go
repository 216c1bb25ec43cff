// Package store persists saved designs and cart items.
//
// Design backends implement [Designs]:
//   - [FileStore]: one JSON file per design (CLI, default)
//   - [SQLiteStore]: a single SQLite database file
//   - [MongoStore]: a MongoDB collection for shared deployments
//
// Cart backends implement [Cart]:
//   - [MemoryCart]: process-local (tests, single CLI run)
//   - [RedisCart]: one Redis list per cart
//
// Every backend enforces the payload ceiling before writing, so an
// oversized design never reaches storage. Backend failures are reported as
// PERSISTENCE_FAILURE; unknown ids wrap [ErrNotFound].
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	mockuperr "github.com/matzehuels/mockup/pkg/errors"
	"github.com/matzehuels/mockup/pkg/payload"
)

// ErrNotFound is returned when a design does not exist.
var ErrNotFound = errors.New("not found")

// Designs stores saved designs.
type Designs interface {
	// SaveDesign stores d and returns its id. An id and creation time are
	// assigned when d has none.
	SaveDesign(ctx context.Context, d *payload.Design) (string, error)

	// GetDesign returns the design with id.
	GetDesign(ctx context.Context, id string) (*payload.Design, error)

	// Close releases backend resources.
	Close() error
}

// Cart stores cart items.
type Cart interface {
	// AddItem appends item to its cart. An id is assigned when it has none.
	AddItem(ctx context.Context, item *payload.CartItem) error

	// Items returns the items of cartID in insertion order.
	Items(ctx context.Context, cartID string) ([]payload.CartItem, error)

	// Close releases backend resources.
	Close() error
}

// prepare stamps d and returns its encoding. A supplied id must be a
// UUID, as GetDesign requires, so it can never name a path outside a
// FileStore or a design that cannot be read back.
func prepare(d *payload.Design) ([]byte, error) {
	if d.ID == "" {
		d.ID = uuid.NewString()
	} else if _, err := uuid.Parse(d.ID); err != nil {
		return nil, mockuperr.New(mockuperr.ErrCodeValidation, "design id %q is not a UUID", d.ID)
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}
	return payload.Encode(d, payload.MaxBytes)
}

func prepareItem(item *payload.CartItem) ([]byte, error) {
	if item.CartID == "" {
		return nil, mockuperr.New(mockuperr.ErrCodeValidation, "cart item has no cart id")
	}
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if item.AddedAt.IsZero() {
		item.AddedAt = time.Now().UTC()
	}
	return payload.Encode(item, payload.MaxBytes)
}

// validID rejects ids that are not UUIDs, which also keeps them safe as
// file names and keys.
func validID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return notFound(id)
	}
	return nil
}

func notFound(id string) error {
	return mockuperr.Wrap(mockuperr.ErrCodeNotFound, ErrNotFound, "design %s", id)
}

func persistence(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	// payload and validation errors keep their own code
	if mockuperr.GetCode(err) != "" {
		return err
	}
	return mockuperr.Wrap(mockuperr.ErrCodePersistence, err, format, args...)
}

// =============================================================================
// Factory
// =============================================================================

// Backend names.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMongo  = "mongo"
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Config selects and configures backends.
type Config struct {
	Backend  string // file, sqlite or mongo
	Dir      string // FileStore directory
	Path     string // SQLite database file
	MongoURI string
	MongoDB  string

	CartBackend string // memory or redis
	RedisURL    string
}

// OpenDesigns opens the design backend named by cfg.Backend.
func OpenDesigns(ctx context.Context, cfg Config) (Designs, error) {
	switch cfg.Backend {
	case "", BackendFile:
		return NewFileStore(cfg.Dir)
	case BackendSQLite:
		return OpenSQLite(ctx, cfg.Path)
	case BackendMongo:
		return OpenMongo(ctx, cfg.MongoURI, cfg.MongoDB)
	}
	return nil, fmt.Errorf("unknown design store %q", cfg.Backend)
}

// OpenCart opens the cart backend named by cfg.CartBackend.
func OpenCart(ctx context.Context, cfg Config) (Cart, error) {
	switch cfg.CartBackend {
	case "", BackendMemory:
		return NewMemoryCart(), nil
	case BackendRedis:
		return NewRedisCart(ctx, cfg.RedisURL)
	}
	return nil, fmt.Errorf("unknown cart store %q", cfg.CartBackend)
}
