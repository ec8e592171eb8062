package bind

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	perr "calorie-log/internal/platform/errors"
)

type payload struct {
	Message string `json:"message" validate:"max=10"`
	Image   string `json:"image" validate:"image_payload"`
}

func TestParseJSON_Success(t *testing.T) {
	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"message":"eggs","image":"aGVsbG8="}`))
	got, err := ParseJSON[payload](req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Message != "eggs" || got.Image != "aGVsbG8=" {
		t.Fatalf("got %+v", got)
	}
}

func TestParseJSON_EmptyBodyAllowedByDefault(t *testing.T) {
	req := httptest.NewRequest("POST", "/", http.NoBody)
	got, err := ParseJSON[payload](req)
	if err != nil {
		t.Fatalf("unexpected: %v", err)
	}
	if got != (payload{}) {
		t.Fatalf("expected zero value, got %+v", got)
	}
}

func TestParseJSON_EmptyBodyDisallowed(t *testing.T) {
	req := httptest.NewRequest("POST", "/", http.NoBody)
	_, err := ParseJSON[payload](req, JSONOptions{})
	if perr.CodeOf(err) != perr.ErrorCodeJSON {
		t.Fatalf("expected JSON error code, got %v (%v)", perr.CodeOf(err), err)
	}
}

func TestParseJSON_InvalidJSON(t *testing.T) {
	req := httptest.NewRequest("POST", "/", strings.NewReader(`{`))
	_, err := ParseJSON[payload](req)
	if perr.CodeOf(err) != perr.ErrorCodeJSON {
		t.Fatalf("expected JSON error code, got %v (%v)", perr.CodeOf(err), err)
	}
}

func TestParseJSON_BodyTooLarge(t *testing.T) {
	body := `{"message":"eggs","image":"` + strings.Repeat("A", 64) + `"}`
	req := httptest.NewRequest("POST", "/", strings.NewReader(body))
	_, err := ParseJSON[payload](req, JSONOptions{MaxBytes: 32})
	e, ok := perr.As(err)
	if !ok || e.Code() != perr.ErrorCodeTooLarge {
		t.Fatalf("expected too large error, got %v", err)
	}
	if e.Message() != "request body too large (limit 32 bytes)" {
		t.Fatalf("message = %q", e.Message())
	}
	if perr.HTTPStatus(err) != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d", perr.HTTPStatus(err))
	}
}

func TestParseJSON_TrailingData(t *testing.T) {
	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"message":"a"} {"message":"b"}`))
	_, err := ParseJSON[payload](req)
	if perr.CodeOf(err) != perr.ErrorCodeJSON {
		t.Fatalf("expected JSON error code, got %v", err)
	}
}

func TestParseJSON_UnknownFields(t *testing.T) {
	body := `{"message":"a","extra":1}`
	if _, err := ParseJSON[payload](httptest.NewRequest("POST", "/", strings.NewReader(body))); err != nil {
		t.Fatalf("unknown fields should be tolerated by default: %v", err)
	}
	_, err := ParseJSON[payload](httptest.NewRequest("POST", "/", strings.NewReader(body)), JSONOptions{DisallowUnknown: true})
	if perr.CodeOf(err) != perr.ErrorCodeJSON {
		t.Fatalf("expected JSON error code, got %v", err)
	}
}

func TestParseJSON_ValidationMessages(t *testing.T) {
	cases := []struct {
		name  string
		body  string
		field string
		msg   string
	}{
		{"too long", `{"message":"a very long meal"}`, "message", "message must be at most 10 characters"},
		{"bad image", `{"image":"***"}`, "image", "image must be base64 image data"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := ParseJSON[payload](httptest.NewRequest("POST", "/", strings.NewReader(c.body)))
			e, ok := perr.As(err)
			if !ok || e.Code() != perr.ErrorCodeValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
			if e.Field() != c.field || e.Message() != c.msg {
				t.Fatalf("got field=%q msg=%q", e.Field(), e.Message())
			}
		})
	}
}

func TestImageBase64(t *testing.T) {
	b, err := ImageBase64("data:image/png;base64,aGVsbG8=")
	if err != nil || string(b) != "hello" {
		t.Fatalf("data uri: %q %v", b, err)
	}
	b, err = ImageBase64(" aGVsbG8= ")
	if err != nil || string(b) != "hello" {
		t.Fatalf("raw: %q %v", b, err)
	}
	if _, err := ImageBase64("data:image/png,hello"); err == nil {
		t.Fatalf("expected error for non-base64 data uri")
	}
}
