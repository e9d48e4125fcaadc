package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"yoosprint/logging"
	"yoosprint/middleware"
	"yoosprint/models"
	"yoosprint/services"
)

const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Logger.Errorf("Event ID: RESPONSE_ENCODE_FAILED, Description: Failed to encode response: %v", err)
	}
}

// writeError maps service errors to HTTP statuses. Unexpected errors are
// logged and hidden from the client.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	message := err.Error()

	var cooldown *services.CooldownError
	if errors.As(err, &cooldown) {
		seconds := int((cooldown.Remaining + time.Second - 1) / time.Second)
		w.Header().Set("Retry-After", strconv.Itoa(seconds))
	}
	if status == http.StatusInternalServerError {
		logging.Logger.Errorf("Event ID: INTERNAL_SERVER_ERROR, Description: %s %s failed (request %s): %v", r.Method, r.URL.Path, middleware.RequestIDFromContext(r.Context()), err)
		message = "internal server error"
	}
	writeJSON(w, status, errorResponse{Error: message})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, services.ErrExpired):
		return http.StatusGone
	case errors.Is(err, services.ErrTooManyRequests):
		return http.StatusTooManyRequests
	case errors.Is(err, services.ErrUnavailable):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", services.ErrValidation, fmt.Sprintf(format, args...))
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return badRequest("request body is required")
		}
		return badRequest("invalid request payload: %v", err)
	}
	return nil
}

func pathID(r *http.Request, name string) (primitive.ObjectID, error) {
	raw := mux.Vars(r)[name]
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return primitive.NilObjectID, badRequest("invalid %s %q", name, raw)
	}
	return id, nil
}

// queryID parses an optional ObjectID query parameter.
func queryID(r *http.Request, name string) (*primitive.ObjectID, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return nil, badRequest("invalid %s %q", name, raw)
	}
	return &id, nil
}

func actorFrom(r *http.Request) (services.Actor, error) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		return services.Actor{}, fmt.Errorf("not authenticated: %w", services.ErrUnauthorized)
	}
	id, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return services.Actor{}, fmt.Errorf("token carries an invalid user id: %w", services.ErrUnauthorized)
	}
	return services.Actor{ID: id, Role: models.Role(claims.Role)}, nil
}
