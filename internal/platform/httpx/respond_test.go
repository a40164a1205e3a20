package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jag-erp/jag-erp/internal/shared"
)

func TestRespondErrorMapsSentinels(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{fmt.Errorf("get quotation: %w", shared.ErrNotFound), http.StatusNotFound},
		{shared.ErrValidation, http.StatusBadRequest},
		{fmt.Errorf("number taken: %w", shared.ErrConflict), http.StatusConflict},
		{shared.ErrInvalidStatus, http.StatusConflict},
		{shared.ErrForbidden, http.StatusForbidden},
		{shared.ErrUnauthorized, http.StatusUnauthorized},
		{errors.New("connection reset"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		rr := httptest.NewRecorder()
		RespondError(rr, tc.err)
		assert.Equal(t, tc.status, rr.Code, tc.err.Error())
		assert.Equal(t, tc.status, StatusOf(tc.err), tc.err.Error())
	}
}

func TestRespondErrorIncludesFieldErrors(t *testing.T) {
	rr := httptest.NewRecorder()
	RespondError(rr, shared.NewValidationError("items", "is required"))

	require.Equal(t, http.StatusBadRequest, rr.Code)
	var body ProblemDetail
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "is required", body.Errors["items"])
}

func TestRespondErrorHidesInternalDetail(t *testing.T) {
	rr := httptest.NewRecorder()
	RespondError(rr, errors.New("pq: password authentication failed"))
	assert.NotContains(t, rr.Body.String(), "password")
}

func TestDecodeJSON(t *testing.T) {
	var target struct {
		Name string `json:"name"`
	}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"x","grand_total":1}`))
	require.NoError(t, DecodeJSON(httptest.NewRecorder(), req, &target))
	assert.Equal(t, "x", target.Name)

	bad := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":`))
	assert.ErrorIs(t, DecodeJSON(httptest.NewRecorder(), bad, &target), shared.ErrValidation)
}

func TestNewPageNormalisesNil(t *testing.T) {
	page := NewPage[int](nil, shared.PageRequest{Page: 1, PerPage: 10}, 0)
	out, err := json.Marshal(page)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"data":[]`)
}
