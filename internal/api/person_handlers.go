package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"strconv"

	"github.com/ignite/person-api/internal/domain"
	"github.com/ignite/person-api/internal/pkg/httputil"
	"github.com/ignite/person-api/internal/service/person"
)

// PersonService is the subset of *person.Service the handlers depend on.
type PersonService interface {
	Get(ctx context.Context, id int) (*domain.Person, error)
	List(ctx context.Context) ([]domain.Person, error)
	ListByCity(ctx context.Context, city string) ([]domain.Person, error)
	Create(ctx context.Context, p domain.Person) (*domain.Person, error)
	Update(ctx context.Context, id int, p domain.Person) (*domain.Person, error)
	Delete(ctx context.Context, id int) error
}

// PersonHandler serves the /api/Person routes.
type PersonHandler struct {
	svc          PersonService
	exposeErrors bool
}

// NewPersonHandler creates a PersonHandler. exposeErrors adds the raw error
// text and a stack trace to 500 responses of CreatePerson.
func NewPersonHandler(svc PersonService, exposeErrors bool) *PersonHandler {
	return &PersonHandler{svc: svc, exposeErrors: exposeErrors}
}

type createdResponse struct {
	Message string         `json:"message"`
	Person  *domain.Person `json:"person"`
}

type validationFailedResponse struct {
	Message string              `json:"message"`
	Errors  []person.FieldError `json:"errors"`
}

type fieldErrorsResponse struct {
	Errors []person.FieldError `json:"errors"`
}

type internalErrorResponse struct {
	Message    string `json:"message"`
	Exception  string `json:"exception"`
	StackTrace string `json:"stackTrace,omitempty"`
}

type successResponse struct {
	SuccessMessage string `json:"successMessage"`
}

// CreatePerson handles POST /api/Person/CreatePerson
func (h *PersonHandler) CreatePerson(w http.ResponseWriter, r *http.Request) {
	var in domain.Person
	if err := httputil.Decode(w, r, &in); err != nil {
		httputil.Message(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := h.svc.Create(r.Context(), in)
	if err != nil {
		var verr *person.ValidationError
		switch {
		case errors.As(err, &verr):
			httputil.JSON(w, http.StatusBadRequest, validationFailedResponse{
				Message: "Validation failed!",
				Errors:  verr.Errors,
			})
		case errors.Is(err, person.ErrEmailLocked):
			httputil.Message(w, http.StatusConflict, err.Error())
		default:
			resp := internalErrorResponse{
				Message:   "Internal Server Error",
				Exception: sanitizedError(http.StatusInternalServerError, err, safeErrorMessage(http.StatusInternalServerError, err)),
			}
			if h.exposeErrors {
				resp.Exception = err.Error()
				resp.StackTrace = string(debug.Stack())
			}
			httputil.JSON(w, http.StatusInternalServerError, resp)
		}
		return
	}

	httputil.OK(w, createdResponse{
		Message: fmt.Sprintf("Person: %s has been successfully created!", created.FirstName),
		Person:  created,
	})
}

// GetAllPersons handles GET /api/Person/GetAllPersons
func (h *PersonHandler) GetAllPersons(w http.ResponseWriter, r *http.Request) {
	persons, err := h.svc.List(r.Context())
	if err != nil {
		respondSafeError(w, http.StatusInternalServerError, err, safeErrorMessage(http.StatusInternalServerError, err))
		return
	}
	httputil.OK(w, persons)
}

// GetPersonByID handles GET /api/Person/GetPersonById?personId=
func (h *PersonHandler) GetPersonByID(w http.ResponseWriter, r *http.Request) {
	id, ok := personID(w, r)
	if !ok {
		return
	}

	p, err := h.svc.Get(r.Context(), id)
	if errors.Is(err, person.ErrNotFound) {
		httputil.Message(w, http.StatusNotFound, fmt.Sprintf("There is no person with ID: %d", id))
		return
	}
	if err != nil {
		respondSafeError(w, http.StatusInternalServerError, err, safeErrorMessage(http.StatusInternalServerError, err))
		return
	}
	httputil.OK(w, p)
}

// GetPersonsByCity handles GET /api/Person/GetPersonsByCity?city=
func (h *PersonHandler) GetPersonsByCity(w http.ResponseWriter, r *http.Request) {
	city := r.URL.Query().Get("city")

	persons, err := h.svc.ListByCity(r.Context(), city)
	if err != nil {
		respondSafeError(w, http.StatusInternalServerError, err, safeErrorMessage(http.StatusInternalServerError, err))
		return
	}
	if len(persons) == 0 {
		httputil.Message(w, http.StatusNotFound, "There is no any person from: "+city)
		return
	}
	httputil.OK(w, persons)
}

// UpdatePerson handles PUT /api/Person/UpdatePerson?personId=
func (h *PersonHandler) UpdatePerson(w http.ResponseWriter, r *http.Request) {
	id, ok := personID(w, r)
	if !ok {
		return
	}

	var in domain.Person
	if err := httputil.Decode(w, r, &in); err != nil {
		httputil.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	_, err := h.svc.Update(r.Context(), id, in)
	if err != nil {
		var verr *person.ValidationError
		switch {
		case errors.Is(err, person.ErrNotFound):
			httputil.Error(w, http.StatusBadRequest, fmt.Sprintf("There is no any person by ID: %d to update!", id))
		case errors.As(err, &verr):
			httputil.JSON(w, http.StatusBadRequest, fieldErrorsResponse{Errors: verr.Errors})
		case errors.Is(err, person.ErrEmailLocked):
			httputil.Error(w, http.StatusConflict, err.Error())
		default:
			respondSafeError(w, http.StatusInternalServerError, err, safeErrorMessage(http.StatusInternalServerError, err))
		}
		return
	}

	httputil.OK(w, successResponse{SuccessMessage: "Person has successfully updated in the database!"})
}

// DeletePerson handles DELETE /api/Person/DeletePerson?personId=
func (h *PersonHandler) DeletePerson(w http.ResponseWriter, r *http.Request) {
	id, ok := personID(w, r)
	if !ok {
		return
	}

	err := h.svc.Delete(r.Context(), id)
	if errors.Is(err, person.ErrNotFound) {
		httputil.Error(w, http.StatusBadRequest, fmt.Sprintf("There is no any person by ID: %d to delete!", id))
		return
	}
	if err != nil {
		respondSafeError(w, http.StatusInternalServerError, err, safeErrorMessage(http.StatusInternalServerError, err))
		return
	}

	httputil.OK(w, successResponse{SuccessMessage: "Person has been successfully deleted from the database!"})
}

// personID parses the personId query parameter, writing a 400 when it is
// missing or not an integer.
func personID(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("personId")
	id, err := strconv.Atoi(raw)
	if err != nil {
		httputil.Error(w, http.StatusBadRequest, fmt.Sprintf("personId must be an integer, got %q", raw))
		return 0, false
	}
	return id, true
}
