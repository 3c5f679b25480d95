package httputil

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	gerrors "github.com/matzehuels/gauzecut/pkg/errors"
)

type payload struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		limit   int64
		wantErr bool
	}{
		{"valid", `{"name":"a","count":2}`, 0, false},
		{"unknown field", `{"name":"a","extra":1}`, 0, true},
		{"trailing data", `{"name":"a"}{"name":"b"}`, 0, true},
		{"malformed", `{"name":`, 0, true},
		{"over limit", `{"name":"abcdefghijklmnop"}`, 10, true},
		{"empty", ``, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var p payload
			err := DecodeJSON(r, &p, tt.limit)
			if (err != nil) != tt.wantErr {
				t.Fatalf("DecodeJSON() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !gerrors.Is(err, gerrors.ErrCodeInvalidInput) {
				t.Errorf("DecodeJSON() code = %v, want %v", gerrors.GetCode(err), gerrors.ErrCodeInvalidInput)
			}
		})
	}
}

func TestWriteError(t *testing.T) {
	tests := []struct {
		err        error
		wantStatus int
		wantCode   gerrors.Code
	}{
		{gerrors.New(gerrors.ErrCodeNotFound, "experiment x/hold not found"), http.StatusNotFound, gerrors.ErrCodeNotFound},
		{gerrors.New(gerrors.ErrCodeLoad, "bad pattern"), http.StatusBadRequest, gerrors.ErrCodeLoad},
		{&gerrors.GeometryError{Reason: "zero area"}, http.StatusUnprocessableEntity, gerrors.ErrCodeGeometry},
		{errors.New("boom"), http.StatusInternalServerError, gerrors.ErrCodeInternal},
	}
	for _, tt := range tests {
		t.Run(string(tt.wantCode), func(t *testing.T) {
			rec := httptest.NewRecorder()
			if err := WriteError(rec, tt.err); err != nil {
				t.Fatal(err)
			}
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			var body ErrorBody
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatal(err)
			}
			if body.Code != tt.wantCode || body.Error == "" {
				t.Errorf("body = %+v, want code %v", body, tt.wantCode)
			}
		})
	}
}

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	if err := WriteJSON(rec, http.StatusCreated, payload{Name: "a"}); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusCreated || rec.Header().Get("Content-Type") != "application/json" {
		t.Errorf("status, type = %d, %q", rec.Code, rec.Header().Get("Content-Type"))
	}
	if got := strings.TrimSpace(rec.Body.String()); got != `{"name":"a","count":0}` {
		t.Errorf("body = %s", got)
	}
}
