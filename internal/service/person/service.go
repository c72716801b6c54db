package person

import (
	"context"
	"errors"
	"strings"

	"github.com/ignite/person-api/internal/domain"
	"github.com/ignite/person-api/internal/pkg/logger"
)

// Service implements the person write paths and read pass-throughs.
// All public methods are safe for concurrent use if the underlying store
// is concurrency-safe.
type Service struct {
	store     Store
	validator *Validator
	locks     LockFactory
}

// Option configures a Service.
type Option func(*Service)

// WithEmailLocks serialises create/update requests that carry the same email
// address through locks built by f. Without it two concurrent requests with
// the same email can both pass the uniqueness check.
func WithEmailLocks(f LockFactory) Option {
	return func(s *Service) { s.locks = f }
}

// NewService creates a person service backed by the given store.
func NewService(store Store, v *Validator, opts ...Option) *Service {
	s := &Service{store: store, validator: v}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns a single person with its address.
func (s *Service) Get(ctx context.Context, id int) (*domain.Person, error) {
	p, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, storeErr("get person", err)
	}
	return p, nil
}

// List returns every person with its address.
func (s *Service) List(ctx context.Context) ([]domain.Person, error) {
	out, err := s.store.List(ctx)
	if err != nil {
		return nil, storeErr("list persons", err)
	}
	return out, nil
}

// ListByCity returns persons whose city contains the given text.
func (s *Service) ListByCity(ctx context.Context, city string) ([]domain.Person, error) {
	out, err := s.store.ListByCity(ctx, city)
	if err != nil {
		return nil, storeErr("list persons by city", err)
	}
	return out, nil
}

// Create validates p, then writes its address and the person row that
// references it. The returned person carries both generated ids.
func (s *Service) Create(ctx context.Context, p domain.Person) (*domain.Person, error) {
	release, err := s.reserveEmail(ctx, p.Email)
	if err != nil {
		return nil, err
	}
	defer release()

	if err := s.validator.Validate(ctx, p, 0); err != nil {
		return nil, err
	}

	p.ID, p.AddressID, p.Address.ID = 0, 0, 0
	err = s.store.WithinTx(ctx, func(w Writer) error {
		if err := w.InsertAddress(ctx, &p.Address); err != nil {
			return storeErr("insert address", err)
		}
		p.AddressID = p.Address.ID

		if err := w.InsertPerson(ctx, &p); err != nil {
			if !s.store.Atomic() {
				s.discardAddress(ctx, w, p.AddressID)
			}
			if errors.Is(err, ErrDuplicateEmail) {
				return &ValidationError{Errors: []FieldError{uniqueEmailViolation()}}
			}
			return storeErr("insert person", err)
		}
		return nil
	})
	if err != nil {
		return nil, storeErr("create person", err)
	}

	logger.Info("person created", "person_id", p.ID, "address_id", p.AddressID, "email", p.Email)
	return &p, nil
}

// Update replaces the scalar and address fields of person id with those of
// replacement. Identifiers are never changed.
func (s *Service) Update(ctx context.Context, id int, replacement domain.Person) (*domain.Person, error) {
	existing, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, storeErr("get person", err)
	}

	release, err := s.reserveEmail(ctx, replacement.Email)
	if err != nil {
		return nil, err
	}
	defer release()

	if err := s.validator.Validate(ctx, replacement, id); err != nil {
		return nil, err
	}

	previous := *existing
	existing.ApplyFrom(replacement)
	existing.Address.ID = existing.AddressID

	err = s.store.WithinTx(ctx, func(w Writer) error {
		if err := w.UpdatePerson(ctx, existing); err != nil {
			if errors.Is(err, ErrDuplicateEmail) {
				return &ValidationError{Errors: []FieldError{uniqueEmailViolation()}}
			}
			return storeErr("update person", err)
		}
		if err := w.UpdateAddress(ctx, &existing.Address); err != nil {
			if !s.store.Atomic() {
				s.restorePerson(ctx, w, &previous)
			}
			return storeErr("update address", err)
		}
		return nil
	})
	if err != nil {
		return nil, storeErr("update person", err)
	}

	logger.Info("person updated", "person_id", existing.ID, "email", existing.Email)
	return existing, nil
}

// Delete removes person id and its owned address.
func (s *Service) Delete(ctx context.Context, id int) error {
	existing, err := s.store.Get(ctx, id)
	if err != nil {
		return storeErr("get person", err)
	}

	err = s.store.WithinTx(ctx, func(w Writer) error {
		if err := w.DeletePerson(ctx, id); err != nil {
			return storeErr("delete person", err)
		}
		if err := w.DeleteAddress(ctx, existing.AddressID); err != nil {
			if !s.store.Atomic() {
				logger.Warn("address left without owner", "address_id", existing.AddressID, "error", err)
			}
			return storeErr("delete address", err)
		}
		return nil
	})
	if err != nil {
		return storeErr("delete person", err)
	}

	logger.Info("person deleted", "person_id", id, "address_id", existing.AddressID)
	return nil
}

// reserveEmail takes the per-email lock when locking is configured. The
// returned release func is always safe to call.
func (s *Service) reserveEmail(ctx context.Context, email string) (func(), error) {
	key := strings.ToLower(strings.TrimSpace(email))
	if s.locks == nil || key == "" {
		return func() {}, nil
	}

	lock := s.locks("person-email:" + key)
	ok, err := lock.Acquire(ctx)
	if err != nil {
		return nil, &StoreError{Op: "acquire email lock", Err: err}
	}
	if !ok {
		return nil, ErrEmailLocked
	}
	return func() {
		if err := lock.Release(context.WithoutCancel(ctx)); err != nil {
			logger.Warn("email lock release failed", "email", key, "error", err)
		}
	}, nil
}

// discardAddress removes an address whose owning person could not be
// inserted. Only used when the store is not atomic.
func (s *Service) discardAddress(ctx context.Context, w Writer, addressID int) {
	if err := w.DeleteAddress(ctx, addressID); err != nil {
		logger.Error("orphaned address cleanup failed", "address_id", addressID, "error", err)
		return
	}
	logger.Warn("orphaned address removed", "address_id", addressID)
}

// restorePerson puts back the person fields written before a failed address
// update. Only used when the store is not atomic.
func (s *Service) restorePerson(ctx context.Context, w Writer, previous *domain.Person) {
	if err := w.UpdatePerson(ctx, previous); err != nil {
		logger.Error("person restore failed", "person_id", previous.ID, "error", err)
		return
	}
	logger.Warn("person fields restored after failed address update", "person_id", previous.ID)
}
