package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

var discard = slog.New(slog.DiscardHandler)

func TestStatusCodes(t *testing.T) {
	tests := []struct {
		err  *AppError
		code ErrorCode
		want int
	}{
		{Validation("bad"), CodeValidation, http.StatusBadRequest},
		{New(CodeBadRequest, "bad"), CodeBadRequest, http.StatusBadRequest},
		{NotFound("missing"), CodeNotFound, http.StatusNotFound},
		{RateLimit("slow down"), CodeRateLimit, http.StatusTooManyRequests},
		{ServiceUnavailable("loading"), CodeServiceUnavail, http.StatusServiceUnavailable},
		{DataLoad(stderrors.New("row 3")), CodeDataLoad, http.StatusBadGateway},
		{Internal("boom"), CodeInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			if tt.err.Code != tt.code {
				t.Errorf("code = %s, want %s", tt.err.Code, tt.code)
			}
			if tt.err.StatusCode != tt.want {
				t.Errorf("status = %d, want %d", tt.err.StatusCode, tt.want)
			}
		})
	}
}

func TestWrapKeepsCause(t *testing.T) {
	cause := stderrors.New("disk gone")
	err := ValidationWrap(cause, "cannot read").WithDetails("check the file")

	if !stderrors.Is(err, cause) {
		t.Error("wrapped error should unwrap to its cause")
	}
	if got := err.Error(); got != "VALIDATION_ERROR: cannot read (caused by: disk gone)" {
		t.Errorf("Error() = %q", got)
	}
	if err.Details != "check the file" {
		t.Errorf("details = %q", err.Details)
	}
	if got := NotFound("x").Error(); got != "NOT_FOUND: x" {
		t.Errorf("Error() = %q", got)
	}
}

func TestUnknownCodeIsInternal(t *testing.T) {
	if got := ErrorCode("TEAPOT").Status(); got != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", got)
	}
}

func TestDataLoadDetails(t *testing.T) {
	err := DataLoad(stderrors.New(`row 3 column "rating": invalid number`))
	if err.Details != `row 3 column "rating": invalid number` {
		t.Errorf("details = %q", err.Details)
	}
	if DataLoad(nil).Details != "" {
		t.Error("nil cause should leave details empty")
	}
}

func TestCodeOf(t *testing.T) {
	wrapped := fmt.Errorf("handler: %w", ServiceUnavailable("not loaded"))
	if got := CodeOf(wrapped); got != CodeServiceUnavail {
		t.Errorf("CodeOf = %s, want %s", got, CodeServiceUnavail)
	}
	if got := CodeOf(stderrors.New("plain")); got != CodeInternal {
		t.Errorf("CodeOf = %s, want %s", got, CodeInternal)
	}
}

func TestWriteError(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, discard, fmt.Errorf("wrapped: %w", Validation("start must be a date")), "req-1")

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content-type = %q", ct)
	}

	var resp struct {
		Success bool `json:"success"`
		Error   struct {
			Code      string `json:"code"`
			Message   string `json:"message"`
			RequestID string `json:"request_id"`
		} `json:"error"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Success {
		t.Error("success should be false")
	}
	if resp.Error.Code != string(CodeValidation) || resp.Error.RequestID != "req-1" {
		t.Errorf("unexpected error body: %+v", resp.Error)
	}
}

func TestWriteErrorHidesForeignErrors(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, discard, stderrors.New("secret connection string"), "")

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
	if strings.Contains(w.Body.String(), "secret") {
		t.Error("cause must not leak into the response body")
	}
}

func TestWriteSuccess(t *testing.T) {
	w := httptest.NewRecorder()
	WriteSuccessWithHeaders(w, map[string]int{"n": 1}, map[string]string{"Cache-Control": "no-store"})

	if w.Code != http.StatusOK {
		t.Errorf("status = %d", w.Code)
	}
	if got := w.Header().Get("Cache-Control"); got != "no-store" {
		t.Errorf("cache-control = %q", got)
	}
	if body := strings.TrimSpace(w.Body.String()); body != `{"data":{"n":1},"success":true}` {
		t.Errorf("body = %s", body)
	}
}
