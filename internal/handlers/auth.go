package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/ukydev/fuel-tracker/internal/auth"
	"github.com/ukydev/fuel-tracker/internal/db"
	"github.com/ukydev/fuel-tracker/internal/models"
	"github.com/ukydev/fuel-tracker/internal/validation"
)

// AuthHandler handles authentication requests
type AuthHandler struct {
	authService    *auth.Service
	userCollection db.UserCollection
	log            logrus.FieldLogger
	now            func() time.Time
}

// NewAuthHandler creates a new authentication handler
func NewAuthHandler(authService *auth.Service, userCollection db.UserCollection, log logrus.FieldLogger) *AuthHandler {
	return &AuthHandler{
		authService:    authService,
		userCollection: userCollection,
		log:            orStandardLogger(log),
		now:            time.Now,
	}
}

// Login handles user login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var loginReq models.LoginRequest
	if !decodeJSON(w, r, &loginReq) {
		return
	}

	// Validate input
	if strings.TrimSpace(loginReq.Phone) == "" || loginReq.Password == "" {
		writeMessage(w, http.StatusBadRequest, "Phone and password are required")
		return
	}

	user, err := h.userCollection.FindUserByPhone(r.Context(), strings.TrimSpace(loginReq.Phone))
	if err != nil {
		if !errors.Is(err, db.ErrNotFound) {
			h.log.WithError(err).Error("Failed to look up user")
		}
		writeMessage(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	// Verify password
	if !h.authService.CheckPassword(loginReq.Password, user.PasswordHash) {
		writeMessage(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, err := h.authService.GenerateToken(user)
	if err != nil {
		h.log.WithError(err).Error("Failed to generate token")
		writeMessage(w, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	h.log.WithField("user_id", user.ID).Info("User logged in")
	writeJSON(w, http.StatusOK, models.AuthResponse{Token: token})
}

// Register handles user registration. It does not issue a token.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var registerReq models.RegisterRequest
	if !decodeJSON(w, r, &registerReq) {
		return
	}
	registerReq.Name = strings.TrimSpace(registerReq.Name)
	registerReq.Phone = strings.TrimSpace(registerReq.Phone)

	if err := validation.Registration(registerReq); err != nil {
		writeValidation(w, err)
		return
	}

	// Check if phone already exists
	if _, err := h.userCollection.FindUserByPhone(r.Context(), registerReq.Phone); err == nil {
		writeMessage(w, http.StatusConflict, "Phone already registered")
		return
	} else if !errors.Is(err, db.ErrNotFound) {
		writeStoreError(w, r, h.log, err, "User not found")
		return
	}

	passwordHash, err := h.authService.HashPassword(registerReq.Password)
	if err != nil {
		h.log.WithError(err).Error("Failed to hash password")
		writeMessage(w, http.StatusInternalServerError, "Failed to hash password")
		return
	}

	user := &models.User{
		Name:         registerReq.Name,
		Phone:        registerReq.Phone,
		PasswordHash: passwordHash,
	}
	if err := h.userCollection.InsertUser(r.Context(), user); err != nil {
		if errors.Is(err, db.ErrDuplicate) {
			writeMessage(w, http.StatusConflict, "Phone already registered")
			return
		}
		h.log.WithError(err).Error("Failed to create user")
		writeMessage(w, http.StatusInternalServerError, "Failed to create user")
		return
	}

	h.log.WithField("user_id", user.ID).Info("User registered")
	writeJSON(w, http.StatusCreated, user)
}

// ForgotPassword issues a reset token. The response is the same whether or
// not the phone is registered.
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req models.ForgotPasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	phone := strings.TrimSpace(req.Phone)
	if phone == "" {
		writeMessage(w, http.StatusBadRequest, "Phone is required")
		return
	}

	const reply = "If the account exists, a password reset token has been sent"

	user, err := h.userCollection.FindUserByPhone(r.Context(), phone)
	if err != nil {
		if !errors.Is(err, db.ErrNotFound) {
			h.log.WithError(err).Error("Failed to look up user")
		}
		writeMessage(w, http.StatusOK, reply)
		return
	}

	token, hash, err := h.authService.GenerateResetToken()
	if err != nil {
		h.log.WithError(err).Error("Failed to generate reset token")
		writeMessage(w, http.StatusInternalServerError, "Failed to generate reset token")
		return
	}
	if err := h.userCollection.SetResetToken(r.Context(), user.ID, hash, h.now().Add(auth.ResetTokenTTL)); err != nil {
		writeStoreError(w, r, h.log, err, "User not found")
		return
	}

	// Delivery is out of band; the token is only logged.
	h.log.WithFields(logrus.Fields{
		"user_id":     user.ID,
		"reset_token": token,
	}).Info("Password reset token issued")
	writeMessage(w, http.StatusOK, reply)
}

// ResetPassword sets a new password from a valid reset token.
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req models.ResetPasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Token == "" {
		writeMessage(w, http.StatusBadRequest, "Reset token is required")
		return
	}
	if err := validation.Password(req.NewPassword); err != nil {
		writeValidation(w, err)
		return
	}

	user, err := h.userCollection.FindUserByResetTokenHash(r.Context(), auth.HashResetToken(req.Token))
	if err != nil {
		if !errors.Is(err, db.ErrNotFound) {
			h.log.WithError(err).Error("Failed to look up reset token")
		}
		writeMessage(w, http.StatusBadRequest, "Invalid or expired reset token")
		return
	}
	if user.ResetTokenExpiry == nil || !h.now().Before(*user.ResetTokenExpiry) {
		writeMessage(w, http.StatusBadRequest, "Invalid or expired reset token")
		return
	}

	passwordHash, err := h.authService.HashPassword(req.NewPassword)
	if err != nil {
		h.log.WithError(err).Error("Failed to hash password")
		writeMessage(w, http.StatusInternalServerError, "Failed to hash password")
		return
	}
	if err := h.userCollection.UpdatePassword(r.Context(), user.ID, passwordHash); err != nil {
		writeStoreError(w, r, h.log, err, "User not found")
		return
	}

	h.log.WithField("user_id", user.ID).Info("Password reset")
	writeMessage(w, http.StatusOK, "Password has been reset")
}
