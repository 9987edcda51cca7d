package api

import (
	"bytes"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/pagecraft/pagecraft/internal/shared/config"
)

func TestSlugify(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Corner Bakery", "corner-bakery"},
		{"  My   Site!  ", "my-site"},
		{"Ünicode & Sons", "nicode-sons"},
		{"---", ""},
		{"already-a-slug", "already-a-slug"},
	}

	for _, tc := range cases {
		if got := slugify(tc.in); got != tc.want {
			t.Errorf("slugify(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestClientLimiter(t *testing.T) {
	limiter := newClientLimiter(2)

	if !limiter.allow("1.2.3.4") || !limiter.allow("1.2.3.4") {
		t.Fatal("expected first two requests to pass")
	}
	if limiter.allow("1.2.3.4") {
		t.Fatal("expected third request to be limited")
	}

	// Other clients have their own bucket.
	if !limiter.allow("5.6.7.8") {
		t.Fatal("expected fresh client to pass")
	}
}

func TestClientLimiterDisabled(t *testing.T) {
	limiter := newClientLimiter(0)
	for i := 0; i < 100; i++ {
		if !limiter.allow("1.2.3.4") {
			t.Fatal("expected unlimited requests when disabled")
		}
	}
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "10.0.0.1:4321"
	if got := clientIP(r); got != "10.0.0.1" {
		t.Errorf("clientIP = %q, want 10.0.0.1", got)
	}

	r.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	if got := clientIP(r); got != "203.0.113.7" {
		t.Errorf("clientIP = %q, want 203.0.113.7", got)
	}
}

func TestRequireAuthRejectsMissingHeader(t *testing.T) {
	s := &Service{}
	handler := s.requireAuth(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called")
	})

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest("GET", "/v1/projects", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestWithCORSAnswersPreflight(t *testing.T) {
	s := &Service{}
	handler := s.withCORS(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("preflight should not reach the mux")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/v1/projects", nil))

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatal("expected CORS headers on preflight response")
	}
}

func TestUploadImageRejectsDisallowedTypes(t *testing.T) {
	s := &Service{config: &config.APIConfig{MaxUploadMB: 10}}

	for _, contentType := range []string{"image/svg+xml", "text/html", "application/pdf"} {
		var body bytes.Buffer
		mw := multipart.NewWriter(&body)
		hdr := make(textproto.MIMEHeader)
		hdr.Set("Content-Disposition", `form-data; name="file"; filename="upload"`)
		hdr.Set("Content-Type", contentType)
		part, err := mw.CreatePart(hdr)
		if err != nil {
			t.Fatal(err)
		}
		part.Write([]byte("<svg onload=alert(1)></svg>"))
		mw.Close()

		req := httptest.NewRequest("POST", "/v1/images", &body)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		rec := httptest.NewRecorder()
		s.handleUploadImage(rec, req)

		if rec.Code != http.StatusUnsupportedMediaType {
			t.Errorf("%s: expected 415, got %d", contentType, rec.Code)
		}
	}
}

func TestIsUniqueViolation(t *testing.T) {
	dup := &pgconn.PgError{Code: "23505"}
	if !isUniqueViolation(dup) {
		t.Fatal("expected unique violation to be detected")
	}
	if !isUniqueViolation(fmt.Errorf("insert user: %w", dup)) {
		t.Fatal("expected wrapped unique violation to be detected")
	}
	if isUniqueViolation(&pgconn.PgError{Code: "23503"}) {
		t.Fatal("foreign key violation is not a unique violation")
	}
	if isUniqueViolation(errors.New("boom")) {
		t.Fatal("plain errors are not unique violations")
	}
}
