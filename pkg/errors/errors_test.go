package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestErrorString(t *testing.T) {
	err := New(ErrCodeInvalidFormat, "root element is %s, want ODM", "Study")
	if got, want := err.Error(), "INVALID_FORMAT: root element is Study, want ODM"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	cause := errors.New("EOF")
	wrapped := Wrap(ErrCodeMissingSheet, cause, "read %s", "Datasets")
	if got, want := wrapped.Error(), "MISSING_SHEET: read Datasets: EOF"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if errors.Unwrap(wrapped) != cause || !errors.Is(wrapped, cause) {
		t.Error("the cause is not reachable through Unwrap")
	}
}

func TestCodeLookup(t *testing.T) {
	inner := New(ErrCodeFileNotFound, "define.xml")
	tests := []struct {
		name string
		err  error
		want Code
	}{
		{"coded", New(ErrCodeInvalidOID, "bad oid"), ErrCodeInvalidOID},
		{"outermost code wins", Wrap(ErrCodeStorage, inner, "archive"), ErrCodeStorage},
		{"behind fmt wrapping", fmt.Errorf("load: %w", inner), ErrCodeFileNotFound},
		{"plain", errors.New("plain"), ""},
		{"nil", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetCode(tt.err); got != tt.want {
				t.Errorf("GetCode() = %q, want %q", got, tt.want)
			}
			if tt.want != "" && !Is(tt.err, tt.want) {
				t.Errorf("Is(err, %s) = false", tt.want)
			}
			if Is(tt.err, ErrCodeTimeout) {
				t.Error("Is matched an unrelated code")
			}
		})
	}
	if Is(nil, "") {
		t.Error("Is(nil, \"\") should be false")
	}
}

func TestUserMessage(t *testing.T) {
	err := Wrap(ErrCodePrecondition, errors.New("no MetaDataVersion"), "model has no study")
	if got := UserMessage(err); got != "model has no study" {
		t.Errorf("UserMessage() = %q", got)
	}
	if got := UserMessage(errors.New("plain error")); got != "plain error" {
		t.Errorf("UserMessage() = %q", got)
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{New(ErrCodeInvalidFormat, "bad xml"), http.StatusBadRequest},
		{New(ErrCodeMissingSheet, "no Datasets"), http.StatusBadRequest},
		{Wrap(ErrCodePrecondition, errors.New("x"), "no study"), http.StatusUnprocessableEntity},
		{New(ErrCodeNotFound, "archive"), http.StatusNotFound},
		{New(ErrCodeUnsupported, "pdf"), http.StatusUnsupportedMediaType},
		{New(ErrCodeStorage, "mongo"), http.StatusBadGateway},
		{New(ErrCodeTimeout, "s3"), http.StatusGatewayTimeout},
		{New(ErrCodeInternal, "panic"), http.StatusInternalServerError},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := HTTPStatus(tt.err); got != tt.want {
			t.Errorf("HTTPStatus(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
