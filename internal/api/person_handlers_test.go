package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/person-api/internal/config"
	"github.com/ignite/person-api/internal/domain"
	"github.com/ignite/person-api/internal/service/person"
)

// stubService is a PersonService whose results are set per test.
type stubService struct {
	person    *domain.Person
	persons   []domain.Person
	err       error
	gotID     int
	gotCity   string
	gotPerson domain.Person
}

func (s *stubService) Get(_ context.Context, id int) (*domain.Person, error) {
	s.gotID = id
	return s.person, s.err
}

func (s *stubService) List(context.Context) ([]domain.Person, error) {
	return s.persons, s.err
}

func (s *stubService) ListByCity(_ context.Context, city string) ([]domain.Person, error) {
	s.gotCity = city
	return s.persons, s.err
}

func (s *stubService) Create(_ context.Context, p domain.Person) (*domain.Person, error) {
	s.gotPerson = p
	if s.err != nil {
		return nil, s.err
	}
	p.ID, p.AddressID, p.Address.ID = 1, 2, 2
	return &p, nil
}

func (s *stubService) Update(_ context.Context, id int, p domain.Person) (*domain.Person, error) {
	s.gotID, s.gotPerson = id, p
	if s.err != nil {
		return nil, s.err
	}
	p.ID = id
	return &p, nil
}

func (s *stubService) Delete(_ context.Context, id int) error {
	s.gotID = id
	return s.err
}

func newTestServer(svc PersonService, expose bool) http.Handler {
	cfg := config.ServerConfig{ExposeErrorDetails: expose, AllowedOrigins: []string{"http://localhost:3000"}}
	return NewServer(cfg, svc, nil, nil).Handler()
}

func do(t *testing.T, h http.Handler, method, target, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	var out map[string]interface{}
	if strings.HasPrefix(strings.TrimSpace(w.Body.String()), "{") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	}
	return w, out
}

const annJSON = `{"firstName":"Ann","lastName":"Lee","age":30,"email":"ann@example.com","address":{"country":"Norway","city":"Oslo"}}`

func TestCreatePerson_Success(t *testing.T) {
	svc := &stubService{}
	w, body := do(t, newTestServer(svc, false), http.MethodPost, "/api/Person/CreatePerson", annJSON)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Person: Ann has been successfully created!", body["message"])
	created := body["person"].(map[string]interface{})
	assert.Equal(t, float64(1), created["id"])
	assert.Equal(t, float64(2), created["addressId"])
	assert.Equal(t, "Oslo", svc.gotPerson.Address.City)
}

func TestCreatePerson_ValidationFailed(t *testing.T) {
	svc := &stubService{err: &person.ValidationError{Errors: []person.FieldError{
		{Field: "age", Rule: "min", Message: "Your age must be 18 or more!"},
	}}}
	w, body := do(t, newTestServer(svc, false), http.MethodPost, "/api/Person/CreatePerson", annJSON)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Validation failed!", body["message"])
	errs := body["errors"].([]interface{})
	require.Len(t, errs, 1)
	first := errs[0].(map[string]interface{})
	assert.Equal(t, "age", first["field"])
	assert.Equal(t, "min", first["rule"])
	assert.Equal(t, "Your age must be 18 or more!", first["message"])
}

func TestCreatePerson_MalformedJSON(t *testing.T) {
	w, body := do(t, newTestServer(&stubService{}, false), http.MethodPost, "/api/Person/CreatePerson", `{"age":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, body["message"], "invalid JSON")
}

func TestCreatePerson_EmailLocked(t *testing.T) {
	svc := &stubService{err: person.ErrEmailLocked}
	w, _ := do(t, newTestServer(svc, false), http.MethodPost, "/api/Person/CreatePerson", annJSON)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestCreatePerson_InternalErrorIsSanitized(t *testing.T) {
	svc := &stubService{err: &person.StoreError{Op: "insert person", Err: errors.New("pq: password authentication failed for user app")}}
	w, body := do(t, newTestServer(svc, false), http.MethodPost, "/api/Person/CreatePerson", annJSON)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Internal Server Error", body["message"])
	assert.Equal(t, "A database error occurred", body["exception"])
	assert.NotContains(t, w.Body.String(), "password")
	_, hasStack := body["stackTrace"]
	assert.False(t, hasStack)
}

func TestCreatePerson_InternalErrorExposedWhenConfigured(t *testing.T) {
	svc := &stubService{err: errors.New("boom")}
	w, body := do(t, newTestServer(svc, true), http.MethodPost, "/api/Person/CreatePerson", annJSON)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "boom", body["exception"])
	assert.NotEmpty(t, body["stackTrace"])
}

func TestGetAllPersons(t *testing.T) {
	svc := &stubService{persons: []domain.Person{{ID: 1, FirstName: "Ann"}, {ID: 2, FirstName: "Bo"}}}
	w, _ := do(t, newTestServer(svc, false), http.MethodGet, "/api/Person/GetAllPersons", "")

	require.Equal(t, http.StatusOK, w.Code)
	var out []domain.Person
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.Len(t, out, 2)
}

func TestGetAllPersons_Empty(t *testing.T) {
	svc := &stubService{persons: []domain.Person{}}
	w, _ := do(t, newTestServer(svc, false), http.MethodGet, "/api/Person/GetAllPersons", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestGetPersonByID(t *testing.T) {
	svc := &stubService{person: &domain.Person{ID: 7, FirstName: "Ann", Address: domain.Address{City: "Oslo"}}}
	w, body := do(t, newTestServer(svc, false), http.MethodGet, "/api/Person/GetPersonById?personId=7", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 7, svc.gotID)
	assert.Equal(t, "Ann", body["firstName"])
}

func TestGetPersonByID_NotFound(t *testing.T) {
	svc := &stubService{err: person.ErrNotFound}
	w, body := do(t, newTestServer(svc, false), http.MethodGet, "/api/Person/GetPersonById?personId=7", "")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "There is no person with ID: 7", body["message"])
}

func TestGetPersonByID_BadID(t *testing.T) {
	w, body := do(t, newTestServer(&stubService{}, false), http.MethodGet, "/api/Person/GetPersonById?personId=abc", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, body["error"], "personId must be an integer")
}

func TestGetPersonsByCity_NoneMatch(t *testing.T) {
	svc := &stubService{persons: []domain.Person{}}
	w, body := do(t, newTestServer(svc, false), http.MethodGet, "/api/Person/GetPersonsByCity?city=Bergen", "")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "There is no any person from: Bergen", body["message"])
	assert.Equal(t, "Bergen", svc.gotCity)
}

func TestGetPersonsByCity_Match(t *testing.T) {
	svc := &stubService{persons: []domain.Person{{ID: 1, Address: domain.Address{City: "Oslo"}}}}
	w, _ := do(t, newTestServer(svc, false), http.MethodGet, "/api/Person/GetPersonsByCity?city=os", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestUpdatePerson_Success(t *testing.T) {
	svc := &stubService{}
	w, body := do(t, newTestServer(svc, false), http.MethodPut, "/api/Person/UpdatePerson?personId=3", annJSON)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Person has successfully updated in the database!", body["successMessage"])
	assert.Equal(t, 3, svc.gotID)
	assert.Equal(t, "ann@example.com", svc.gotPerson.Email)
}

func TestUpdatePerson_NotFound(t *testing.T) {
	svc := &stubService{err: person.ErrNotFound}
	w, body := do(t, newTestServer(svc, false), http.MethodPut, "/api/Person/UpdatePerson?personId=3", annJSON)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "There is no any person by ID: 3 to update!", body["error"])
}

func TestUpdatePerson_Invalid(t *testing.T) {
	svc := &stubService{err: &person.ValidationError{Errors: []person.FieldError{
		{Field: "email", Rule: "unique", Message: "Email address already exists. Try another!"},
	}}}
	w, body := do(t, newTestServer(svc, false), http.MethodPut, "/api/Person/UpdatePerson?personId=3", annJSON)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Len(t, body["errors"], 1)
}

func TestUpdatePerson_StoreFailure(t *testing.T) {
	svc := &stubService{err: &person.StoreError{Op: "update address", Err: errors.New("dial tcp 10.0.0.5:5432: connection refused")}}
	w, body := do(t, newTestServer(svc, false), http.MethodPut, "/api/Person/UpdatePerson?personId=3", annJSON)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Service temporarily unavailable", body["error"])
}

func TestDeletePerson(t *testing.T) {
	svc := &stubService{}
	w, body := do(t, newTestServer(svc, false), http.MethodDelete, "/api/Person/DeletePerson?personId=9", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Person has been successfully deleted from the database!", body["successMessage"])
	assert.Equal(t, 9, svc.gotID)
}

func TestDeletePerson_NotFound(t *testing.T) {
	svc := &stubService{err: person.ErrNotFound}
	w, body := do(t, newTestServer(svc, false), http.MethodDelete, "/api/Person/DeletePerson?personId=9", "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "There is no any person by ID: 9 to delete!", body["error"])
}

func TestUnknownRoute(t *testing.T) {
	w, body := do(t, newTestServer(&stubService{}, false), http.MethodGet, "/api/Person/Nope", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "route not found", body["error"])
}

func TestSafeErrorMessage(t *testing.T) {
	tests := []struct {
		code int
		err  error
		want string
	}{
		{400, errors.New("bad age"), "bad age"},
		{400, nil, "Bad request"},
		{500, nil, "An internal error occurred"},
		{500, errors.New("dial tcp: connection refused"), "Service temporarily unavailable"},
		{500, errors.New("context deadline exceeded"), "Request timed out"},
		{500, errors.New("pq: relation does not exist"), "A database error occurred"},
		{500, errors.New("something odd"), "An internal error occurred"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, safeErrorMessage(tt.code, tt.err))
	}
}
