package errors

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"ecommerce-dashboard/internal/observability"
)

func TestNew_StatusCodes(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want int
	}{
		{CodeValidation, http.StatusBadRequest},
		{CodeBadRequest, http.StatusBadRequest},
		{CodeNotFound, http.StatusNotFound},
		{CodeRateLimit, http.StatusTooManyRequests},
		{CodeServiceUnavail, http.StatusServiceUnavailable},
		{CodeInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			if got := New(tt.code, "msg").StatusCode; got != tt.want {
				t.Errorf("expected status %d, got %d", tt.want, got)
			}
		})
	}
}

func TestWrap_Details(t *testing.T) {
	cause := fmt.Errorf("parsing time \"2018-13-01\"")

	if e := BadRequestWrap(cause, "invalid start date"); e.Details != cause.Error() {
		t.Errorf("expected client error details, got %q", e.Details)
	}
	if e := InternalWrap(cause, "boom"); e.Details != "" {
		t.Errorf("internal errors should not expose details, got %q", e.Details)
	}
}

func TestWriteError(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   ErrorCode
	}{
		{"app error", Validation("start date is after end date"), http.StatusBadRequest, CodeValidation},
		{"wrapped app error", fmt.Errorf("handler: %w", NotFound("no such chart")), http.StatusNotFound, CodeNotFound},
		{"plain error", fmt.Errorf("disk on fire"), http.StatusInternalServerError, CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/views", nil)
			req = req.WithContext(observability.WithRequestID(req.Context(), "req-1"))
			rr := httptest.NewRecorder()

			WriteError(rr, req, logger, tt.err)

			if rr.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, rr.Code)
			}
			var resp ErrorResponse
			if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
				t.Fatal(err)
			}
			if resp.Success || resp.Error.Code != tt.wantCode || resp.Error.RequestID != "req-1" {
				t.Errorf("unexpected response %+v", resp.Error)
			}
		})
	}
}

func TestWriteSuccessWithHeaders(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteSuccessWithHeaders(rr, map[string]int{"rows": 3}, map[string]string{"Cache-Control": "no-store"})

	if rr.Header().Get("Cache-Control") != "no-store" {
		t.Errorf("expected Cache-Control header, got %q", rr.Header().Get("Cache-Control"))
	}
	var resp struct {
		Success bool           `json:"success"`
		Data    map[string]int `json:"data"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if !resp.Success || resp.Data["rows"] != 3 {
		t.Errorf("unexpected response %+v", resp)
	}
}
