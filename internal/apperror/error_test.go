package apperror

import (
	"errors"
	"fmt"
	"testing"
)

func TestNewUsesRegisteredMessage(t *testing.T) {
	err := New(CodeStaleUpdate)
	want := "STALE_UPDATE: Stale price update discarded"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestNewFallsBackToCodeForUnregisteredMessage(t *testing.T) {
	err := New(Code("SOMETHING_NEW"))
	if err.Message != "SOMETHING_NEW" {
		t.Errorf("Message = %q, want code text", err.Message)
	}
}

func TestContextAppearsInError(t *testing.T) {
	err := New(CodeUnknownPair, WithContext("pair=EUR-XYZ"))
	want := "UNKNOWN_PAIR: Price update references an unconfigured pair (pair=EUR-XYZ)"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestWrapClassifiesPlainError(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(cause, CodeFeedSourceError, "dialing feed")

	if err.Code != CodeFeedSourceError {
		t.Errorf("Code = %s, want %s", err.Code, CodeFeedSourceError)
	}
	if !errors.Is(err, cause) {
		t.Error("wrapped error lost its cause")
	}
}

func TestWrapKeepsExistingClassification(t *testing.T) {
	inner := New(CodeStaleUpdate)
	err := Wrap(fmt.Errorf("apply: %w", inner), CodeInternalError, "sink")

	if err.Code != CodeStaleUpdate {
		t.Errorf("Code = %s, want original %s", err.Code, CodeStaleUpdate)
	}
	if err.Context != "sink" {
		t.Errorf("Context = %q, want %q", err.Context, "sink")
	}
}

func TestWrapNilReturnsNil(t *testing.T) {
	if err := Wrap(nil, CodeInternalError, "anything"); err != nil {
		t.Errorf("Wrap(nil) = %v, want nil", err)
	}
}

func TestGetCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Code
	}{
		{"direct", New(CodeQueueOverflow), CodeQueueOverflow},
		{"wrapped", fmt.Errorf("deliver: %w", New(CodeCircuitOpen)), CodeCircuitOpen},
		{"plain_error", errors.New("boom"), CodeUnknownError},
		{"nil", nil, CodeUnknownError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetCode(tt.err); got != tt.want {
				t.Errorf("GetCode() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestErrorsIsMatchesOnCode(t *testing.T) {
	err := New(CodeStaleUpdate, WithContext("pair=A-B seq=3"))

	if !errors.Is(err, New(CodeStaleUpdate)) {
		t.Error("same code did not match")
	}
	if errors.Is(err, New(CodeMalformedUpdate)) {
		t.Error("different code matched")
	}
}
