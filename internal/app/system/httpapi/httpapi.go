// Package httpapi holds the JSON response helpers shared by every feature
// handler, including the mapping from domain sentinel errors to HTTP status
// codes.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	projectstore "github.com/loftwork/loftwork/internal/app/store/projects"
	taskstore "github.com/loftwork/loftwork/internal/app/store/tasks"
	userstore "github.com/loftwork/loftwork/internal/app/store/users"
	workspacestore "github.com/loftwork/loftwork/internal/app/store/workspaces"
	"github.com/loftwork/loftwork/internal/app/system/authutil"
	"github.com/loftwork/loftwork/internal/app/system/authz"
	"github.com/loftwork/loftwork/internal/app/system/identity"
	"github.com/loftwork/loftwork/internal/app/system/invites"
	"github.com/loftwork/loftwork/internal/app/system/limits"
	"github.com/loftwork/loftwork/internal/app/system/tokens"
	"go.uber.org/zap"
)

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// JSON writes v with the given status. Encoding failures are logged by the
// caller's middleware stack; by that point headers are gone anyway.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Error writes a JSON error envelope with a code derived from the status.
func Error(w http.ResponseWriter, status int, msg string) {
	ErrorCode(w, status, codeForStatus(status), msg)
}

// ErrorCode writes a JSON error envelope with an explicit stable code.
// Clients branch on the code; the message is for humans.
func ErrorCode(w http.ResponseWriter, status int, code, msg string) {
	JSON(w, status, errorBody{Error: errorDetail{Code: code, Message: msg}})
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusUnauthorized:
		return "unauthorized"
	case http.StatusForbidden:
		return "forbidden"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "conflict"
	case http.StatusTooManyRequests:
		return "rate_limited"
	default:
		return "internal"
	}
}

// Fail maps a domain error onto its HTTP status and writes it. Unrecognized
// errors become an opaque 500; the real cause goes to the log only.
func Fail(w http.ResponseWriter, logger *zap.Logger, err error) {
	switch {
	case errors.Is(err, identity.ErrInvalidCredentials),
		errors.Is(err, tokens.ErrTokenInvalid),
		errors.Is(err, tokens.ErrTokenExpired):
		ErrorCode(w, http.StatusUnauthorized, "invalid_credentials", err.Error())
	case errors.Is(err, authz.ErrUnauthorized),
		errors.Is(err, authz.ErrNotAMember):
		ErrorCode(w, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, identity.ErrEmailTaken),
		errors.Is(err, invites.ErrAlreadyMember):
		ErrorCode(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, invites.ErrInvalidCode),
		errors.Is(err, workspacestore.ErrNotFound),
		errors.Is(err, projectstore.ErrNotFound),
		errors.Is(err, taskstore.ErrNotFound),
		errors.Is(err, userstore.ErrNotFound):
		ErrorCode(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, identity.ErrInvalidEmail),
		errors.Is(err, authutil.ErrPasswordTooShort),
		errors.Is(err, authutil.ErrPasswordTooLong),
		errors.Is(err, authutil.ErrPasswordCommon):
		ErrorCode(w, http.StatusBadRequest, "invalid_input", err.Error())
	case errors.Is(err, invites.ErrCodeGeneration):
		logger.Error("invite code generation exhausted retries", zap.Error(err))
		ErrorCode(w, http.StatusInternalServerError, "internal", err.Error())
	default:
		logger.Error("internal error", zap.Error(err))
		ErrorCode(w, http.StatusInternalServerError, "internal", "internal server error")
	}
}

// Decode reads a JSON request body into v, rejecting unknown fields and
// bodies larger than limits.MaxJSONBody.
func Decode(r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, limits.MaxJSONBody))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
