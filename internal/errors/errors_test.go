package errors

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/offer-tracker/internal/types"
)

func TestCategorizeServiceErrorCodes(t *testing.T) {
	tests := []struct {
		code       string
		category   ErrorCategory
		statusCode int
	}{
		{"INVALID_FILTER", CategoryValidation, http.StatusBadRequest},
		{"OFFER_NOT_FOUND", CategoryNotFound, http.StatusNotFound},
		{"INVALID_TOKEN", CategoryNotFound, http.StatusNotFound},
		{"DUPLICATE_EMAIL", CategoryConflict, http.StatusConflict},
		{"ISSUER_HAS_PRODUCTS", CategoryConflict, http.StatusConflict},
		{"SOMETHING_ELSE", CategorySystem, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		categorized := Categorize(&types.ServiceError{Code: tt.code, Message: "x"})
		assert.Equal(t, tt.category, categorized.Category, tt.code)
		assert.Equal(t, tt.statusCode, categorized.StatusCode, tt.code)
		assert.Equal(t, tt.statusCode, GetHTTPStatusCode(categorized), tt.code)
	}
}

func TestCategorizeUnknownError(t *testing.T) {
	cause := errors.New("pool exhausted")
	categorized := Categorize(cause)

	assert.Equal(t, CategorySystem, categorized.Category)
	assert.Equal(t, "INTERNAL_ERROR", categorized.Code)
	assert.ErrorIs(t, categorized, cause)
}

func TestRateLimitError(t *testing.T) {
	err := NewRateLimitError(1)

	assert.Equal(t, http.StatusTooManyRequests, err.StatusCode)
	assert.Equal(t, "RATE_LIMIT_EXCEEDED", err.Code)
	assert.True(t, IsUserError(err))
	assert.False(t, IsSystemError(err))
}

func TestCacheErrorIsSystemError(t *testing.T) {
	err := NewCacheError("get rate table", errors.New("connection reset"))

	assert.Equal(t, CategoryCache, err.Category)
	assert.True(t, IsSystemError(err))
	assert.False(t, IsUserError(err))
}
