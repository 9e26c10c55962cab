package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteSuccess(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteSuccess(rr, http.StatusCreated, Envelope{"id": 1}, "Created")

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, float64(201), body["statusCode"])
	assert.Equal(t, "Created", body["message"])
	assert.Equal(t, true, body["success"])
	assert.Equal(t, map[string]interface{}{"id": float64(1)}, body["data"])
}

func TestWriteErrorHidesCause(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteError(rr, fmt.Errorf("handler: %w", Persistence("Video could not be created", errors.New("pq: secret detail"))))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.NotContains(t, rr.Body.String(), "secret detail")

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "Video could not be created", body["message"])
	assert.Equal(t, false, body["success"])
	assert.NotContains(t, body, "data")
}

func TestWriteErrorForeignError(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteError(rr, errors.New("boom"))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Contains(t, rr.Body.String(), "Internal Server Error")
	assert.NotContains(t, rr.Body.String(), "boom")
}

func TestAPIErrorKinds(t *testing.T) {
	tests := []struct {
		err    *APIError
		status int
		target error
	}{
		{Validation("v"), http.StatusBadRequest, ErrValidation},
		{InvalidID("i"), http.StatusBadRequest, ErrInvalidID},
		{MissingAsset("m"), http.StatusBadRequest, ErrMissingAsset},
		{Upload("u", nil), http.StatusBadRequest, ErrUpload},
		{NotFound("n"), http.StatusNotFound, ErrNotFound},
		{Unauthorized("a"), http.StatusUnauthorized, ErrUnauthorized},
		{Persistence("p", nil), http.StatusInternalServerError, ErrPersistence},
		{Internal("x", nil), http.StatusInternalServerError, ErrInternal},
	}

	for _, tt := range tests {
		t.Run(string(tt.err.Kind), func(t *testing.T) {
			assert.Equal(t, tt.status, tt.err.StatusCode)
			assert.ErrorIs(t, fmt.Errorf("wrapped: %w", tt.err), tt.target)
			assert.Equal(t, tt.err.Kind, KindOf(tt.err))
		})
	}

	assert.NotErrorIs(t, NotFound("n"), ErrValidation)
	assert.Equal(t, KindInternal, KindOf(errors.New("plain")))

	cause := errors.New("cause")
	assert.ErrorIs(t, Upload("u", cause), cause)
}
