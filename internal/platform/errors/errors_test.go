package errors

import (
	stderrs "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestHTTPStatusCode(t *testing.T) {
	cases := []struct {
		code ErrorCode
		want int
	}{
		{ErrorCodeValidation, http.StatusBadRequest},
		{ErrorCodeJSON, http.StatusBadRequest},
		{ErrorCodeNotFound, http.StatusNotFound},
		{ErrorCodeTooLarge, http.StatusRequestEntityTooLarge},
		{ErrorCodeUnavailable, http.StatusInternalServerError},
		{ErrorCodeEmptyDescription, http.StatusInternalServerError},
		{ErrorCodeDB, http.StatusInternalServerError},
		{ErrorCodeUnknown, http.StatusInternalServerError},
		{ErrorCode(999), http.StatusInternalServerError},
	}
	for _, c := range cases {
		if got := HTTPStatusCode(c.code); got != c.want {
			t.Fatalf("code %d: got %d want %d", c.code, got, c.want)
		}
	}
}

func TestWrapKeepsCauseAndMessage(t *testing.T) {
	cause := stderrs.New("dial tcp: refused")
	err := Wrap(cause, ErrorCodeUnavailable, "model down")

	if !stderrs.Is(err, cause) {
		t.Fatalf("expected errors.Is to find cause")
	}
	if err.Error() != "model down: dial tcp: refused" {
		t.Fatalf("unexpected Error(): %q", err.Error())
	}
	w := WireFrom(err)
	if w.Message != "model down" || w.Code != ErrorCodeUnavailable {
		t.Fatalf("unexpected wire: %+v", w)
	}
}

func TestCodeOfThroughFmtWrap(t *testing.T) {
	base := Validationf("food is required")
	wrapped := fmt.Errorf("handler: %w", base)
	if !IsCode(wrapped, ErrorCodeValidation) {
		t.Fatalf("expected validation code, got %v", CodeOf(wrapped))
	}
	if HTTPStatus(wrapped) != http.StatusBadRequest {
		t.Fatalf("expected 400")
	}
}

func TestForeignErrorIsUnknown(t *testing.T) {
	err := stderrs.New("boom")
	status, w := HTTP(err)
	if status != http.StatusInternalServerError || w.Code != ErrorCodeUnknown || w.Message != "boom" {
		t.Fatalf("unexpected: %d %+v", status, w)
	}
	if WithField(err, "x") != err {
		t.Fatalf("foreign errors should pass through WithField")
	}
}

func TestWithFieldCopyOnWrite(t *testing.T) {
	orig := Validationf("blank")
	withField := WithField(orig, "food")

	e1, _ := As(orig)
	e2, _ := As(withField)
	if e1.Field() != "" {
		t.Fatalf("original mutated: %q", e1.Field())
	}
	if e2.Field() != "food" {
		t.Fatalf("field not set: %q", e2.Field())
	}
}

func TestHTTPNil(t *testing.T) {
	status, w := HTTP(nil)
	if status != http.StatusOK || w != (Wire{}) {
		t.Fatalf("unexpected: %d %+v", status, w)
	}
}
