package errors

import (
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		errorType  ErrorType
		statusCode int
	}{
		{"invalid input", NewInvalidInputError("bad shape", nil), ErrorTypeInvalidInput, http.StatusBadRequest},
		{"decode", NewDecodeError("unreadable", nil), ErrorTypeDecode, http.StatusUnprocessableEntity},
		{"computation", NewComputationError("dct_coefficients", "overflow", nil), ErrorTypeComputation, http.StatusUnprocessableEntity},
		{"validation", NewValidationError("bad threshold", nil), ErrorTypeValidation, http.StatusBadRequest},
		{"network", NewNetworkError("fetch failed", nil), ErrorTypeNetwork, http.StatusBadGateway},
		{"timeout", NewTimeoutError("too slow", nil), ErrorTypeTimeout, http.StatusGatewayTimeout},
		{"not found", NewNotFoundError("missing", nil), ErrorTypeNotFound, http.StatusNotFound},
		{"internal", NewInternalError("boom", nil), ErrorTypeInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Type != tt.errorType {
				t.Errorf("Expected type %s, got %s", tt.errorType, tt.err.Type)
			}
			if tt.err.StatusCode != tt.statusCode {
				t.Errorf("Expected status %d, got %d", tt.statusCode, tt.err.StatusCode)
			}
		})
	}
}

func TestComputationErrorNamesExtractor(t *testing.T) {
	err := NewComputationError("frequency_domain", "non-finite value", nil)
	if !strings.Contains(err.Error(), "frequency_domain") {
		t.Errorf("Expected error message to name the extractor, got %q", err.Error())
	}
}

func TestIsType_Wrapped(t *testing.T) {
	base := NewDecodeError("failed to decode image", fmt.Errorf("unknown format"))
	wrapped := fmt.Errorf("analyze photo.png: %w", base)

	if !IsType(wrapped, ErrorTypeDecode) {
		t.Error("Expected wrapped error to be classified as decode")
	}
	if IsType(wrapped, ErrorTypeInvalidInput) {
		t.Error("Did not expect wrapped decode error to be invalid input")
	}
	if GetStatusCode(wrapped) != http.StatusUnprocessableEntity {
		t.Errorf("Expected 422, got %d", GetStatusCode(wrapped))
	}
}

func TestGetStatusCode_PlainError(t *testing.T) {
	if code := GetStatusCode(fmt.Errorf("plain")); code != http.StatusInternalServerError {
		t.Errorf("Expected 500 for plain errors, got %d", code)
	}
}

func TestUnwrap(t *testing.T) {
	cause := fmt.Errorf("root cause")
	err := NewInternalError("wrapper", cause)
	if err.Unwrap() != cause {
		t.Error("Expected Unwrap to return the cause")
	}
	if !strings.Contains(err.Error(), "root cause") {
		t.Errorf("Expected message to include cause, got %q", err.Error())
	}
}
