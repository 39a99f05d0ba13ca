// Package http serves the ledger's JSON API.
//
// This file implements a small builder for the JSON envelope every
// endpoint answers with, plus the mapping from domain errors to status
// codes.
package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"finanzas/internal/core"
	"finanzas/internal/services"
)

// SyncWarningMessage is shown when a change was applied but not stored
// everywhere.
const SyncWarningMessage = "Los cambios se aplicaron pero no se pudieron guardar en todos los destinos"

// Envelope is the body of every JSON response.
type Envelope struct {
	Data        any        `json:"data,omitempty"`
	SyncWarning string     `json:"sync_warning,omitempty"`
	Error       *ErrorBody `json:"error,omitempty"`
}

type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// JSONResponseBuilder provides a fluent API for building JSON responses.
type JSONResponseBuilder struct {
	statusCode int
	headers    map[string]string
	envelope   Envelope
}

// NewJSONResponse creates a new response builder with default 200 status.
func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

func (b *JSONResponseBuilder) Header(name, value string) *JSONResponseBuilder {
	b.headers[name] = value
	return b
}

func (b *JSONResponseBuilder) Data(v any) *JSONResponseBuilder {
	b.envelope.Data = v
	return b
}

// SyncWarning marks the response as applied-but-not-persisted.
func (b *JSONResponseBuilder) SyncWarning(message string) *JSONResponseBuilder {
	b.envelope.SyncWarning = message
	return b
}

func (b *JSONResponseBuilder) Error(code, message, field string) *JSONResponseBuilder {
	b.envelope.Error = &ErrorBody{Code: code, Message: message, Field: field}
	return b
}

// StatusCode reports the status Write will send.
func (b *JSONResponseBuilder) StatusCode() int { return b.statusCode }

// Write sends the built response to the http.ResponseWriter.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	w.WriteHeader(b.statusCode)
	_ = json.NewEncoder(w).Encode(b.envelope)
}

func ErrorResponse(statusCode int, code, message string) *JSONResponseBuilder {
	return NewJSONResponse().Status(statusCode).Error(code, message, "")
}

func BadRequestError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, "validation", message)
}

func NotFoundError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusNotFound, "not_found", message)
}

func InternalServerError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, "internal", message)
}

func TooManyRequestsError() *JSONResponseBuilder {
	return ErrorResponse(http.StatusTooManyRequests, "rate_limited", "Demasiadas solicitudes, intenta de nuevo en un minuto").
		Header("Retry-After", "60")
}

// FromError maps a domain error to its response: validation failures are
// 400, unknown ids 404 and everything else 500.
func FromError(err error) *JSONResponseBuilder {
	var verr *core.ValidationError
	switch {
	case errors.As(err, &verr):
		return BadRequestError(err.Error()).Error("validation", err.Error(), verr.Field)
	case errors.Is(err, core.ErrValidation):
		return BadRequestError(err.Error())
	case errors.Is(err, core.ErrNotFound):
		return NotFoundError(err.Error())
	default:
		return InternalServerError("Error interno")
	}
}

// Result answers a mutation. A persistence-only failure still returns
// the applied result with 200 and a sync warning.
func Result(status int, data any, err error) *JSONResponseBuilder {
	switch {
	case err == nil:
		return NewJSONResponse().Status(status).Data(data)
	case services.IsPersistenceOnly(err):
		return NewJSONResponse().Data(data).SyncWarning(SyncWarningMessage)
	default:
		return FromError(err)
	}
}
