package person

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/person-api/internal/domain"
)

type fakeCounter struct {
	counts    map[string]int
	err       error
	calls     int
	lastID    int
	lastEmail string
}

func (f *fakeCounter) CountByEmail(_ context.Context, email string, excludeID int) (int, error) {
	f.calls++
	f.lastEmail, f.lastID = email, excludeID
	if f.err != nil {
		return 0, f.err
	}
	return f.counts[email], nil
}

func adult() domain.Person {
	return domain.Person{
		FirstName: "Ann",
		LastName:  "Lee",
		Age:       30,
		Email:     "ann@example.com",
		Address:   domain.Address{Country: "Norway", City: "Oslo"},
	}
}

func validationErr(t *testing.T, err error) *ValidationError {
	t.Helper()
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	return verr
}

func TestValidate_ValidPerson(t *testing.T) {
	counter := &fakeCounter{}
	v := NewValidator(counter, 0)

	assert.NoError(t, v.Validate(context.Background(), adult(), 0))
	assert.Equal(t, 1, counter.calls)
}

func TestValidate_Underage(t *testing.T) {
	v := NewValidator(&fakeCounter{}, 0)
	p := adult()
	p.Age = 17

	verr := validationErr(t, v.Validate(context.Background(), p, 0))
	require.Len(t, verr.Errors, 1)
	assert.Equal(t, FieldError{Field: "age", Rule: "min", Message: "Your age must be 18 or more!"}, verr.Errors[0])
}

func TestValidate_BoundaryAge(t *testing.T) {
	v := NewValidator(&fakeCounter{}, 0)
	p := adult()
	p.Age = 18
	assert.NoError(t, v.Validate(context.Background(), p, 0))
}

func TestValidate_ZeroAgeFailsRequiredAndMin(t *testing.T) {
	v := NewValidator(&fakeCounter{}, 0)
	p := adult()
	p.Age = 0

	verr := validationErr(t, v.Validate(context.Background(), p, 0))
	assert.True(t, verr.Has("age", "required"))
	assert.True(t, verr.Has("age", "min"))
}

func TestValidate_ConfiguredMinAge(t *testing.T) {
	v := NewValidator(&fakeCounter{}, 21)
	p := adult()
	p.Age = 20

	verr := validationErr(t, v.Validate(context.Background(), p, 0))
	assert.Equal(t, []string{"Your age must be 21 or more!"}, verr.Messages())
}

func TestValidate_MalformedEmail(t *testing.T) {
	v := NewValidator(&fakeCounter{}, 0)
	p := adult()
	p.Email = "not-an-email"

	verr := validationErr(t, v.Validate(context.Background(), p, 0))
	require.Len(t, verr.Errors, 1)
	assert.True(t, verr.Has("email", "email"))
}

func TestValidate_EmptyEmailSkipsUniqueness(t *testing.T) {
	counter := &fakeCounter{}
	v := NewValidator(counter, 0)
	p := adult()
	p.Email = ""

	verr := validationErr(t, v.Validate(context.Background(), p, 0))
	assert.True(t, verr.Has("email", "required"))
	assert.Zero(t, counter.calls)
}

func TestValidate_WhitespaceOnlyIsRequiredViolation(t *testing.T) {
	counter := &fakeCounter{}
	v := NewValidator(counter, 0)
	p := domain.Person{
		FirstName: "   ",
		LastName:  "\t",
		Age:       30,
		Email:     " ",
		Address:   domain.Address{Country: " ", City: "  "},
	}

	verr := validationErr(t, v.Validate(context.Background(), p, 0))
	assert.True(t, verr.Has("firstName", "required"))
	assert.True(t, verr.Has("lastName", "required"))
	assert.True(t, verr.Has("email", "required"))
	assert.True(t, verr.Has("address.country", "required"))
	assert.True(t, verr.Has("address.city", "required"))
	assert.Zero(t, counter.calls, "blank email skips the uniqueness lookup")
}

func TestValidate_Messages(t *testing.T) {
	v := NewValidator(&fakeCounter{}, 0)

	verr := validationErr(t, v.Validate(context.Background(), domain.Person{}, 0))
	assert.Equal(t, []string{
		"Enter your FirstName!",
		"Enter your LastName!",
		"Enter your Age!",
		"Your age must be 18 or more!",
		"Enter your Email Address!",
		"Enter your valid Email Address!",
		"Enter your Country!",
		"Enter your City!",
	}, verr.Messages())
}

func TestValidate_DuplicateEmail(t *testing.T) {
	counter := &fakeCounter{counts: map[string]int{"dup@x.com": 1}}
	v := NewValidator(counter, 0)
	p := adult()
	p.Email = "dup@x.com"

	verr := validationErr(t, v.Validate(context.Background(), p, 0))
	require.Len(t, verr.Errors, 1)
	assert.Equal(t, "unique", verr.Errors[0].Rule)
	assert.Equal(t, "Email address already exists. Try another!", verr.Errors[0].Message)
}

func TestValidate_PassesExcludeID(t *testing.T) {
	counter := &fakeCounter{}
	v := NewValidator(counter, 0)

	require.NoError(t, v.Validate(context.Background(), adult(), 42))
	assert.Equal(t, 42, counter.lastID)
	assert.Equal(t, "ann@example.com", counter.lastEmail)
}

func TestValidate_ReportsEveryViolation(t *testing.T) {
	v := NewValidator(&fakeCounter{}, 0)

	verr := validationErr(t, v.Validate(context.Background(), domain.Person{Age: 5, Email: "bad"}, 0))
	assert.True(t, verr.Has("firstName", "required"))
	assert.True(t, verr.Has("lastName", "required"))
	assert.True(t, verr.Has("age", "min"))
	assert.True(t, verr.Has("email", "email"))
	assert.True(t, verr.Has("address.country", "required"))
	assert.True(t, verr.Has("address.city", "required"))
	assert.Len(t, verr.Errors, 6)
	assert.Contains(t, verr.Error(), "validation failed: Enter your FirstName!")
}

func TestValidate_CounterFailureIsStoreError(t *testing.T) {
	boom := errors.New("connection refused")
	v := NewValidator(&fakeCounter{err: boom}, 0)

	err := v.Validate(context.Background(), adult(), 0)
	var serr *StoreError
	require.ErrorAs(t, err, &serr)
	assert.ErrorIs(t, err, boom)
}

func TestStoreErr_KeepsOutcomeErrors(t *testing.T) {
	assert.Same(t, ErrNotFound, storeErr("get person", ErrNotFound))
	assert.Nil(t, storeErr("get person", nil))

	inner := &StoreError{Op: "insert person", Err: errors.New("x")}
	assert.Same(t, inner, storeErr("create person", inner))

	wrapped := storeErr("list persons", errors.New("timeout"))
	assert.EqualError(t, wrapped, "list persons: timeout")
}
