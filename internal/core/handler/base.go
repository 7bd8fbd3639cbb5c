package handler

import (
	"encoding/json"
	"net/http"

	apperrors "wallet-service/internal/core/errors"
)

type HttpResponse struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

type ErrorResponse struct {
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
	Kind     string `json:"kind,omitempty"`
	Field    string `json:"field,omitempty"`
}

type BaseHandler struct{}

func (b *BaseHandler) RespondWithError(w http.ResponseWriter, r *http.Request, status int, title, detail string) {
	b.respondWithProblem(w, ErrorResponse{
		Title:    title,
		Status:   status,
		Detail:   detail,
		Instance: r.URL.String(),
	})
}

func (b *BaseHandler) RespondWithException(w http.ResponseWriter, r *http.Request, exc *apperrors.Exception) {
	b.respondWithProblem(w, ErrorResponse{
		Title:    titleFor(exc.Kind),
		Status:   exc.Code,
		Detail:   exc.Message,
		Instance: r.URL.String(),
		Kind:     string(exc.Kind),
		Field:    exc.Field,
	})
}

func (b *BaseHandler) respondWithProblem(w http.ResponseWriter, resp ErrorResponse) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(resp.Status)

	_ = json.NewEncoder(w).Encode(resp)
}

func (b *BaseHandler) RespondWithSuccess(w http.ResponseWriter, code int, message string, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	_ = json.NewEncoder(w).Encode(HttpResponse{
		Code:    code,
		Message: message,
		Data:    data,
	})
}

func titleFor(kind apperrors.Kind) string {
	switch kind {
	case apperrors.KindValidation:
		return "validation error"
	case apperrors.KindInsufficientFunds:
		return "insufficient funds"
	case apperrors.KindNotFound:
		return "not found"
	case apperrors.KindInvalidStateTransition:
		return "invalid state transition"
	case apperrors.KindUnauthorized:
		return "unauthorized"
	default:
		return "internal server error"
	}
}
