package person

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"github.com/ignite/person-api/internal/domain"
)

// DefaultMinAge is the youngest age accepted for a registered person.
const DefaultMinAge = 18

// rule is one declarative check on a single field.
type rule struct {
	field   string
	name    string
	tag     string
	message string
	value   func(p *domain.Person) interface{}
}

// Validator checks Person payloads against the registry's business rules.
// Field rules are pure; the uniqueness rule reads from the store through
// the injected EmailCounter.
type Validator struct {
	validate *validator.Validate
	counter  EmailCounter
	rules    []rule
}

// NewValidator creates a Validator. minAge <= 0 selects DefaultMinAge.
func NewValidator(counter EmailCounter, minAge int) *Validator {
	if minAge <= 0 {
		minAge = DefaultMinAge
	}
	validate := validator.New()
	// notblank rejects whitespace-only strings as well as empty ones.
	if err := validate.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(err)
	}
	return &Validator{
		validate: validate,
		counter:  counter,
		rules:    personRules(minAge),
	}
}

func personRules(minAge int) []rule {
	firstName := func(p *domain.Person) interface{} { return p.FirstName }
	lastName := func(p *domain.Person) interface{} { return p.LastName }
	age := func(p *domain.Person) interface{} { return p.Age }
	email := func(p *domain.Person) interface{} { return p.Email }
	country := func(p *domain.Person) interface{} { return p.Address.Country }
	city := func(p *domain.Person) interface{} { return p.Address.City }

	return []rule{
		{field: "firstName", name: "required", tag: "notblank", message: "Enter your FirstName!", value: firstName},
		{field: "lastName", name: "required", tag: "notblank", message: "Enter your LastName!", value: lastName},
		{field: "age", name: "required", tag: "required", message: "Enter your Age!", value: age},
		{field: "age", name: "min", tag: fmt.Sprintf("min=%d", minAge), message: fmt.Sprintf("Your age must be %d or more!", minAge), value: age},
		{field: "email", name: "required", tag: "notblank", message: "Enter your Email Address!", value: email},
		{field: "email", name: "email", tag: "email", message: "Enter your valid Email Address!", value: email},
		{field: "address.country", name: "required", tag: "notblank", message: "Enter your Country!", value: country},
		{field: "address.city", name: "required", tag: "notblank", message: "Enter your City!", value: city},
	}
}

// Validate evaluates every rule against p and returns a *ValidationError
// listing all violations, or nil when p is valid. excludeID names the
// person being updated so its own row does not collide with the
// uniqueness check; pass 0 on create. A failing uniqueness lookup is
// returned as a *StoreError.
func (v *Validator) Validate(ctx context.Context, p domain.Person, excludeID int) error {
	var violations []FieldError
	for _, r := range v.rules {
		if err := v.validate.Var(r.value(&p), r.tag); err != nil {
			violations = append(violations, FieldError{Field: r.field, Rule: r.name, Message: r.message})
		}
	}

	if strings.TrimSpace(p.Email) != "" {
		n, err := v.counter.CountByEmail(ctx, p.Email, excludeID)
		if err != nil {
			return &StoreError{Op: "count persons by email", Err: err}
		}
		if n > 0 {
			violations = append(violations, uniqueEmailViolation())
		}
	}

	if len(violations) > 0 {
		return &ValidationError{Errors: violations}
	}
	return nil
}

func uniqueEmailViolation() FieldError {
	return FieldError{Field: "email", Rule: "unique", Message: "Email address already exists. Try another!"}
}
