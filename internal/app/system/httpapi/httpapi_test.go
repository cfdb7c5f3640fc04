package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	workspacestore "github.com/loftwork/loftwork/internal/app/store/workspaces"
	"github.com/loftwork/loftwork/internal/app/system/authz"
	"github.com/loftwork/loftwork/internal/app/system/identity"
	"github.com/loftwork/loftwork/internal/app/system/invites"
	"go.uber.org/zap"
)

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) errorDetail {
	t.Helper()
	var body errorBody
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return body.Error
}

func TestError_Envelope(t *testing.T) {
	rec := httptest.NewRecorder()
	Error(rec, http.StatusBadRequest, "display_name is required")

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	got := decodeEnvelope(t, rec)
	if got.Code != "bad_request" {
		t.Errorf("code = %q, want %q", got.Code, "bad_request")
	}
	if got.Message != "display_name is required" {
		t.Errorf("message = %q", got.Message)
	}
}

func TestFail_Mapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"invalid credentials", identity.ErrInvalidCredentials, http.StatusUnauthorized, "invalid_credentials"},
		{"not a member", authz.ErrNotAMember, http.StatusForbidden, "forbidden"},
		{"email taken", identity.ErrEmailTaken, http.StatusConflict, "conflict"},
		{"bad invite code", invites.ErrInvalidCode, http.StatusNotFound, "not_found"},
		{"workspace missing", workspacestore.ErrNotFound, http.StatusNotFound, "not_found"},
		{"unknown error", errors.New("disk on fire"), http.StatusInternalServerError, "internal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			Fail(rec, zap.NewNop(), tt.err)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			got := decodeEnvelope(t, rec)
			if got.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", got.Code, tt.wantCode)
			}
		})
	}
}

func TestFail_OpaqueInternalMessage(t *testing.T) {
	rec := httptest.NewRecorder()
	Fail(rec, zap.NewNop(), errors.New("dsn=mongodb://user:hunter2@db"))
	got := decodeEnvelope(t, rec)
	if got.Message != "internal server error" {
		t.Errorf("internal failure leaked its cause: %q", got.Message)
	}
}
