package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/ignite/person-api/internal/domain"
	"github.com/ignite/person-api/internal/pkg/logger"
	"github.com/ignite/person-api/internal/service/person"
)

const selectPersons = `
	SELECT p.id, p.first_name, p.last_name, p.age, p.email, p.address_id,
	       a.id, a.country, a.city
	FROM persons p
	JOIN addresses a ON a.id = p.address_id`

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// PersonRepo implements person.Store against PostgreSQL.
type PersonRepo struct {
	db     *sql.DB
	atomic bool
}

// NewPersonRepo creates a Postgres-backed person store. When atomic is
// false, WithinTx runs its statements directly on the pool.
func NewPersonRepo(db *sql.DB, atomic bool) *PersonRepo {
	return &PersonRepo{db: db, atomic: atomic}
}

func (r *PersonRepo) Atomic() bool { return r.atomic }

func (r *PersonRepo) Get(ctx context.Context, id int) (*domain.Person, error) {
	p, err := scanPerson(r.db.QueryRowContext(ctx, selectPersons+` WHERE p.id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, person.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get person: %w", err)
	}
	return p, nil
}

func (r *PersonRepo) List(ctx context.Context) ([]domain.Person, error) {
	return r.list(ctx, selectPersons+` ORDER BY p.id`)
}

func (r *PersonRepo) ListByCity(ctx context.Context, city string) ([]domain.Person, error) {
	return r.list(ctx, selectPersons+` WHERE a.city ILIKE $1 ORDER BY p.id`, "%"+escapeLike(city)+"%")
}

func (r *PersonRepo) list(ctx context.Context, q string, args ...interface{}) ([]domain.Person, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list persons: %w", err)
	}
	defer rows.Close()

	out := []domain.Person{}
	for rows.Next() {
		p, err := scanPerson(rows)
		if err != nil {
			return nil, fmt.Errorf("scan person: %w", err)
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list persons: %w", err)
	}
	return out, nil
}

func (r *PersonRepo) CountByEmail(ctx context.Context, email string, excludeID int) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM persons WHERE email = $1 AND id <> $2`,
		email, excludeID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count persons by email: %w", err)
	}
	return n, nil
}

// WithinTx runs fn inside BEGIN/COMMIT, rolling back when fn fails.
func (r *PersonRepo) WithinTx(ctx context.Context, fn func(w person.Writer) error) error {
	if !r.atomic {
		return fn(personWriter{q: r.db})
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(personWriter{q: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			logger.Error("rollback failed", "error", rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// personWriter issues the write statements of one unit of work.
type personWriter struct{ q queryer }

func (w personWriter) InsertAddress(ctx context.Context, a *domain.Address) error {
	err := w.q.QueryRowContext(ctx,
		`INSERT INTO addresses (country, city) VALUES ($1, $2) RETURNING id`,
		a.Country, a.City,
	).Scan(&a.ID)
	if err != nil {
		return fmt.Errorf("insert address: %w", mapPQError(err))
	}
	return nil
}

func (w personWriter) InsertPerson(ctx context.Context, p *domain.Person) error {
	err := w.q.QueryRowContext(ctx, `
		INSERT INTO persons (first_name, last_name, age, email, address_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, p.FirstName, p.LastName, p.Age, p.Email, p.AddressID).Scan(&p.ID)
	if err != nil {
		return fmt.Errorf("insert person: %w", mapPQError(err))
	}
	return nil
}

func (w personWriter) UpdatePerson(ctx context.Context, p *domain.Person) error {
	res, err := w.q.ExecContext(ctx, `
		UPDATE persons SET first_name = $1, last_name = $2, age = $3, email = $4
		WHERE id = $5
	`, p.FirstName, p.LastName, p.Age, p.Email, p.ID)
	if err != nil {
		return fmt.Errorf("update person: %w", mapPQError(err))
	}
	return requireRow(res)
}

func (w personWriter) UpdateAddress(ctx context.Context, a *domain.Address) error {
	res, err := w.q.ExecContext(ctx,
		`UPDATE addresses SET country = $1, city = $2 WHERE id = $3`,
		a.Country, a.City, a.ID,
	)
	if err != nil {
		return fmt.Errorf("update address: %w", mapPQError(err))
	}
	return requireRow(res)
}

func (w personWriter) DeletePerson(ctx context.Context, id int) error {
	res, err := w.q.ExecContext(ctx, `DELETE FROM persons WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete person: %w", mapPQError(err))
	}
	return requireRow(res)
}

func (w personWriter) DeleteAddress(ctx context.Context, id int) error {
	res, err := w.q.ExecContext(ctx, `DELETE FROM addresses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete address: %w", mapPQError(err))
	}
	return requireRow(res)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPerson(row rowScanner) (*domain.Person, error) {
	p := &domain.Person{}
	err := row.Scan(
		&p.ID, &p.FirstName, &p.LastName, &p.Age, &p.Email, &p.AddressID,
		&p.Address.ID, &p.Address.Country, &p.Address.City,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return person.ErrNotFound
	}
	return nil
}

// pgUniqueViolation is the SQLSTATE for unique_violation.
const pgUniqueViolation = "23505"

// mapPQError turns a unique violation on the persons email column into
// person.ErrDuplicateEmail. Deployments that add the optional unique index
// from scripts/schema.sql get a storage-level backstop this way.
func mapPQError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == pgUniqueViolation && strings.Contains(pqErr.Constraint, "email") {
		return person.ErrDuplicateEmail
	}
	return err
}

// escapeLike escapes LIKE wildcards so the city is matched literally.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
