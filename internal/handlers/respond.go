package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/ukydev/fuel-tracker/internal/apperror"
	"github.com/ukydev/fuel-tracker/internal/db"
	"github.com/ukydev/fuel-tracker/internal/middleware"
	"github.com/ukydev/fuel-tracker/internal/models"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeMessage writes the {"message": ...} body every error response uses.
func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, models.MessageResponse{Message: message})
}

// decodeJSON reads a JSON request body into v, answering 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid JSON")
		return false
	}
	return true
}

// writeStoreError maps a db error to 404 or 500.
func writeStoreError(w http.ResponseWriter, r *http.Request, log logrus.FieldLogger, err error, notFound string) {
	if errors.Is(err, db.ErrNotFound) || errors.Is(err, db.ErrInvalidID) {
		writeMessage(w, http.StatusNotFound, notFound)
		return
	}
	log.WithError(err).WithField("request_id", middleware.RequestID(r.Context())).Error("Database operation failed")
	writeMessage(w, http.StatusInternalServerError, "Internal server error")
}

// currentUser returns the authenticated user's claims or answers 401.
func currentUser(w http.ResponseWriter, r *http.Request) (*models.Claims, bool) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "User context not found")
		return nil, false
	}
	return claims, true
}

func orStandardLogger(log logrus.FieldLogger) logrus.FieldLogger {
	if log == nil {
		return logrus.StandardLogger()
	}
	return log
}

// writeValidation answers 400 with the failed constraints joined by "; ".
func writeValidation(w http.ResponseWriter, err error) {
	var appErr *apperror.Error
	if !errors.As(err, &appErr) || len(appErr.Fields) == 0 {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	msgs := make([]string, len(appErr.Fields))
	for i, f := range appErr.Fields {
		msgs[i] = f.Message
	}
	writeMessage(w, http.StatusBadRequest, strings.Join(msgs, "; "))
}
