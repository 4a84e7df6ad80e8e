package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug": slog.LevelDebug, "WARN": slog.LevelWarn, "error": slog.LevelError, "": slog.LevelInfo, "bogus": slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestJSONLoggerCarriesComponent(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelInfo, Format: "json", Component: ComponentDebt, Output: &buf})
	l.LogError(context.Background(), "payment failed", errors.New("boom"), OpRecordPayment, ErrorTypeDatabase,
		NewFields().WithPayment("d1", "d1:1", 500))

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("invalid json %q: %v", buf.String(), err)
	}
	if rec[FieldComponent] != ComponentDebt || rec[FieldOperation] != OpRecordPayment || rec[FieldError] != "boom" {
		t.Fatalf("unexpected record %v", rec)
	}
	if rec[FieldMirrorKey] != "d1:1" {
		t.Fatalf("missing payment fields: %v", rec)
	}
}

func TestMiddlewareInjectsLogger(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Format: "json", Output: &buf})

	var seen *Logger
	h := Middleware(l)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = FromContext(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/overview", nil))

	if seen == nil || seen.Component() != ComponentHTTP {
		t.Fatalf("expected http logger in context, got %+v", seen)
	}
	if !bytes.Contains(buf.Bytes(), []byte(`"status_code":418`)) {
		t.Fatalf("expected completion line, got %s", buf.String())
	}
}

func TestFromContextFallsBack(t *testing.T) {
	if l := FromContext(context.Background()); l == nil || l.Component() != "unknown" {
		t.Fatal("expected fallback logger")
	}
}
