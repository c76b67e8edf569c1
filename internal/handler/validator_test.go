package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewRequestValidator()
	return e
}

// newJSONContext builds a context for target with an optional JSON body and :id param
func newJSONContext(e *echo.Echo, method, target, body string, id string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if id != "" {
		c.SetParamNames("id")
		c.SetParamValues(id)
	}
	return c, rec
}

func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) ProblemDetails {
	t.Helper()
	var problem ProblemDetails
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	return problem
}

func problemFields(problem ProblemDetails) []string {
	fields := make([]string, len(problem.Errors))
	for i, e := range problem.Errors {
		fields[i] = e.Field
	}
	return fields
}

func TestBindAndValidate_ReportsJSONFieldNames(t *testing.T) {
	e := newTestEcho()
	c, rec := newJSONContext(e, http.MethodPost, "/api/v1/plans", `{"customerId":0,"agreementDate":"15/01/2024","advancePayments":[{"amount":100}]}`, "")

	var req CreatePlanRequest
	ok, err := bindAndValidate(c, &req)

	assert.False(t, ok)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	problem := decodeProblem(t, rec)
	assert.Equal(t, ErrorTypeValidation, problem.Type)
	fields := problemFields(problem)
	assert.Contains(t, fields, "customerId")
	assert.Contains(t, fields, "rikshawId")
	assert.Contains(t, fields, "agreementDate")
	assert.Contains(t, fields, "advancePayments[0].date")
}

func TestBindAndValidate_MalformedBody(t *testing.T) {
	e := newTestEcho()
	c, rec := newJSONContext(e, http.MethodPost, "/api/v1/customers", `{"name":`, "")

	var req CustomerRequest
	ok, _ := bindAndValidate(c, &req)

	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid request body", decodeProblem(t, rec).Detail)
}

func TestBindAndValidate_AcceptsDecimalStringsAndNumbers(t *testing.T) {
	e := newTestEcho()
	c, _ := newJSONContext(e, http.MethodPost, "/api/v1/rikshaws",
		`{"manufacturer":"Sazgar","model":"King","engineNumber":"E1","chassisNumber":"C1","purchasePrice":"250000.50"}`, "")

	var req RikshawRequest
	ok, err := bindAndValidate(c, &req)

	require.True(t, ok)
	require.NoError(t, err)
	assert.Equal(t, "250000.5", req.PurchasePrice.String())

	c, _ = newJSONContext(e, http.MethodPost, "/api/v1/rikshaws",
		`{"manufacturer":"Sazgar","model":"King","engineNumber":"E1","chassisNumber":"C1","purchasePrice":250000}`, "")
	req = RikshawRequest{}
	ok, _ = bindAndValidate(c, &req)
	require.True(t, ok)
	assert.Equal(t, "250000", req.PurchasePrice.String())
}

func TestParseDate(t *testing.T) {
	assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), parseDate("2024-02-29"))
	assert.True(t, parseDate("2023-02-29").IsZero())
	assert.True(t, parseDate("").IsZero())
	assert.Equal(t, "", formatDate(time.Time{}))
	assert.Equal(t, "2024-03-05", formatDate(time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)))
}

func TestParseID(t *testing.T) {
	e := newTestEcho()
	tests := []struct {
		value string
		id    int32
		ok    bool
	}{
		{"7", 7, true},
		{"0", 0, false},
		{"-3", 0, false},
		{"abc", 0, false},
		{"99999999999", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			c, _ := newJSONContext(e, http.MethodGet, "/", "", tt.value)
			id, ok := parseID(c, "id")
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.id, id)
		})
	}
}
