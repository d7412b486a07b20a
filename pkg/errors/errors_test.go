package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeUnknownParameter, "parameter %q is not defined", "xsize")

	if err.Code != ErrCodeUnknownParameter {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeUnknownParameter)
	}

	if err.Message != `parameter "xsize" is not defined` {
		t.Errorf("Message = %v, want %v", err.Message, `parameter "xsize" is not defined`)
	}

	expected := `UNKNOWN_PARAMETER: parameter "xsize" is not defined`
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("yaml: line 3: did not find expected key")
	err := Wrap(ErrCodeInvalidConfig, cause, "decode buildings.yaml")

	if err.Code != ErrCodeInvalidConfig {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeInvalidConfig)
	}

	if err.Cause != cause {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}

	// Test Unwrap
	unwrapped := errors.Unwrap(err)
	if unwrapped != cause {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, cause)
	}

	// Test errors.Is with wrapped error
	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
	}
}

func TestIs(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		code     Code
		expected bool
	}{
		{
			name:     "matching code",
			err:      New(ErrCodeCircularReference, "a -> b -> a"),
			code:     ErrCodeCircularReference,
			expected: true,
		},
		{
			name:     "non-matching code",
			err:      New(ErrCodeCircularReference, "a -> b -> a"),
			code:     ErrCodeUnknownParameter,
			expected: false,
		},
		{
			name:     "wrapped error",
			err:      Wrap(ErrCodeInvalidConfig, New(ErrCodeTypeCoercion, "inner"), "outer"),
			code:     ErrCodeInvalidConfig,
			expected: true,
		},
		{
			name:     "fmt wrapped",
			err:      fmt.Errorf("section %q: %w", "sc1", New(ErrCodeNoMatchingBlock, "no block for Corner")),
			code:     ErrCodeNoMatchingBlock,
			expected: true,
		},
		{
			name:     "non-Error type",
			err:      errors.New("plain error"),
			code:     ErrCodeInvalidConfig,
			expected: false,
		},
		{
			name:     "nil error",
			err:      nil,
			code:     ErrCodeInvalidInput,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.expected {
				t.Errorf("Is() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestGetCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected Code
	}{
		{
			name:     "Error type",
			err:      New(ErrCodeInvalidGridSettings, "size must be positive"),
			expected: ErrCodeInvalidGridSettings,
		},
		{
			name:     "plain error",
			err:      errors.New("plain"),
			expected: "",
		},
		{
			name:     "nil",
			err:      nil,
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetCode(tt.err); got != tt.expected {
				t.Errorf("GetCode() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{
			name:     "Error type",
			err:      New(ErrCodeNotFound, "building \"b1\" not found"),
			expected: `building "b1" not found`,
		},
		{
			name:     "plain error",
			err:      errors.New("plain error"),
			expected: "plain error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserMessage(tt.err); got != tt.expected {
				t.Errorf("UserMessage() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", New(ErrCodeNotFound, "plan"), http.StatusNotFound},
		{"bad config", New(ErrCodeInvalidConfig, "yaml"), http.StatusBadRequest},
		{"expression", New(ErrCodeCircularReference, "a"), http.StatusUnprocessableEntity},
		{"assembly", fmt.Errorf("wrap: %w", New(ErrCodeNoMatchingBlock, "x")), http.StatusUnprocessableEntity},
		{"network", New(ErrCodeNetwork, "redis"), http.StatusBadGateway},
		{"plain", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HTTPStatus(tt.err); got != tt.want {
				t.Errorf("HTTPStatus() = %v, want %v", got, tt.want)
			}
		})
	}
}
