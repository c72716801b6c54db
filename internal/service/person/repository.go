package person

import (
	"context"

	"github.com/ignite/person-api/internal/domain"
)

// Reader is the read side of the person store. Returned persons always
// carry their joined Address.
type Reader interface {
	// Get returns a single person. Returns ErrNotFound if it doesn't exist.
	Get(ctx context.Context, id int) (*domain.Person, error)

	// List returns every person ordered by id.
	List(ctx context.Context) ([]domain.Person, error)

	// ListByCity returns persons whose address city contains city,
	// compared case-insensitively.
	ListByCity(ctx context.Context, city string) ([]domain.Person, error)
}

// EmailCounter is the narrow capability the Validator needs for the
// uniqueness rule.
type EmailCounter interface {
	// CountByEmail counts persisted persons with exactly this email,
	// ignoring the person with id excludeID (0 excludes nobody).
	CountByEmail(ctx context.Context, email string, excludeID int) (int, error)
}

// Writer is the set of statements a unit of work may issue.
type Writer interface {
	// InsertAddress inserts a and sets a.ID to the generated id.
	InsertAddress(ctx context.Context, a *domain.Address) error

	// InsertPerson inserts p referencing p.AddressID and sets p.ID.
	InsertPerson(ctx context.Context, p *domain.Person) error

	// UpdatePerson rewrites the scalar fields of p keyed by p.ID.
	// Returns ErrNotFound if no row matched.
	UpdatePerson(ctx context.Context, p *domain.Person) error

	// UpdateAddress rewrites country and city keyed by a.ID.
	// Returns ErrNotFound if no row matched.
	UpdateAddress(ctx context.Context, a *domain.Address) error

	// DeletePerson removes the person row. Returns ErrNotFound if no row matched.
	DeletePerson(ctx context.Context, id int) error

	// DeleteAddress removes the address row. Returns ErrNotFound if no row matched.
	DeleteAddress(ctx context.Context, id int) error
}

// Store is the full data access contract used by Service.
// Implementations must be safe for concurrent use.
type Store interface {
	Reader
	EmailCounter

	// WithinTx runs fn as one unit of work. For atomic stores fn's
	// statements commit together or not at all; a non-nil error from fn
	// rolls the unit back and is returned unchanged.
	WithinTx(ctx context.Context, fn func(w Writer) error) error

	// Atomic reports whether WithinTx provides transactional guarantees.
	Atomic() bool
}

// Lock is a named mutual-exclusion primitive shared between processes.
type Lock interface {
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

// LockFactory builds a Lock for the given key.
type LockFactory func(key string) Lock
