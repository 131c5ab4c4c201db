// internal/app/features/errors/errors.go
package errors

import (
	stderrors "errors"
	"net/http"

	"github.com/dalemusser/guildhall/internal/app/membership"
	"go.uber.org/zap"
)

// Error codes carried in the "error" field of every JSON error body.
const (
	CodeBadRequest   = "bad_request"
	CodeUnauthorized = "unauthorized"
	CodeForbidden    = "forbidden"
	CodeNotFound     = "not_found"
	CodeConflict     = "conflict"
	CodeInvalidState = "invalid_state"
	CodeInvalidInput = "invalid_input"
	CodeExclusivity  = "exclusivity_violation"
	CodeRateLimited  = "rate_limited"
	CodeInternal     = "internal_error"
)

// errorBody is the JSON shape of an error response.
type errorBody struct {
	Error         string `json:"error"`
	Description   string `json:"error_description,omitempty"`
	HeldGroupID   string `json:"held_group_id,omitempty"`
	HeldGroupName string `json:"held_group_name,omitempty"`
}

// Write maps err to a status code and JSON body. Engine refusals keep their
// message; anything else is logged and reported as a bare internal error.
func Write(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	var xerr *membership.ExclusivityError
	if stderrors.As(err, &xerr) {
		body := errorBody{Error: CodeExclusivity, Description: xerr.Error(), HeldGroupName: xerr.HeldGroupName}
		if !xerr.HeldGroupID.IsZero() {
			body.HeldGroupID = xerr.HeldGroupID.Hex()
		}
		WriteJSON(w, http.StatusForbidden, body)
		return
	}

	status, code := classify(err)
	if status == http.StatusInternalServerError {
		if log != nil {
			log.Error("request failed",
				zap.Error(err),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path))
		}
		WriteJSON(w, status, errorBody{Error: code})
		return
	}
	WriteJSON(w, status, errorBody{Error: code, Description: err.Error()})
}

func classify(err error) (int, string) {
	switch {
	case stderrors.Is(err, membership.ErrNotFound):
		return http.StatusNotFound, CodeNotFound
	case stderrors.Is(err, membership.ErrConflict):
		return http.StatusConflict, CodeConflict
	case stderrors.Is(err, membership.ErrInvalidState):
		return http.StatusConflict, CodeInvalidState
	case stderrors.Is(err, membership.ErrInvalidInput):
		return http.StatusUnprocessableEntity, CodeInvalidInput
	case stderrors.Is(err, membership.ErrForbidden):
		return http.StatusForbidden, CodeForbidden
	}
	return http.StatusInternalServerError, CodeInternal
}

// BadRequest writes a 400 with msg as the description.
func BadRequest(w http.ResponseWriter, msg string) {
	WriteJSON(w, http.StatusBadRequest, errorBody{Error: CodeBadRequest, Description: msg})
}

// NotFound writes a 404 for a resource looked up outside the engine.
func NotFound(w http.ResponseWriter, msg string) {
	WriteJSON(w, http.StatusNotFound, errorBody{Error: CodeNotFound, Description: msg})
}

// TooManyRequests writes a 429.
func TooManyRequests(w http.ResponseWriter, msg string) {
	WriteJSON(w, http.StatusTooManyRequests, errorBody{Error: CodeRateLimited, Description: msg})
}

// Unauthorized writes a 401 for requests without a usable session user.
func Unauthorized(w http.ResponseWriter) {
	WriteJSON(w, http.StatusUnauthorized, errorBody{Error: CodeUnauthorized, Description: "sign in required"})
}

// Forbidden writes a 403 with msg as the description.
func Forbidden(w http.ResponseWriter, msg string) {
	WriteJSON(w, http.StatusForbidden, errorBody{Error: CodeForbidden, Description: msg})
}
