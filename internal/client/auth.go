package client

import (
	"context"
	"errors"

	"github.com/ukydev/fuel-tracker/internal/apperror"
	"github.com/ukydev/fuel-tracker/internal/models"
	"github.com/ukydev/fuel-tracker/internal/validation"
)

// AuthService wraps the /auth endpoints and the local session.
type AuthService struct {
	c *Client
}

// Auth returns the authentication endpoints.
func (c *Client) Auth() *AuthService { return &AuthService{c: c} }

// Login exchanges credentials for a token and persists it.
func (a *AuthService) Login(ctx context.Context, phone, password string) (string, error) {
	var resp models.AuthResponse
	err := a.c.Post(ctx, "/auth/login", models.LoginRequest{Phone: phone, Password: password}, &resp)
	if err != nil {
		return "", asAuthError(err, "invalid credentials")
	}
	if resp.Token == "" {
		return "", apperror.MalformedResponse(errors.New("no token received"))
	}
	if err := a.c.session.Login(ctx, resp.Token); err != nil {
		return "", err
	}
	a.c.log.Info("Logged in")
	return resp.Token, nil
}

// Register creates an account. It does not log in.
func (a *AuthService) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	if err := validation.Registration(req); err != nil {
		return nil, err
	}
	var user models.User
	if err := a.c.Post(ctx, "/auth/register", req, &user); err != nil {
		return nil, asAuthError(err, "")
	}
	if user.ID == "" {
		return nil, apperror.MalformedResponse(errNoData)
	}
	return &user, nil
}

// ForgotPassword asks the server to issue a password reset token.
func (a *AuthService) ForgotPassword(ctx context.Context, phone string) error {
	var resp models.MessageResponse
	return asAuthError(a.c.Post(ctx, "/auth/forgot-password", models.ForgotPasswordRequest{Phone: phone}, &resp), "")
}

// ResetPassword sets a new password using a reset token.
func (a *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if err := validation.Password(newPassword); err != nil {
		return err
	}
	var resp models.MessageResponse
	req := models.ResetPasswordRequest{Token: token, NewPassword: newPassword}
	return asAuthError(a.c.Post(ctx, "/auth/reset-password", req, &resp), "")
}

// Logout forgets the local token. It never contacts the server.
func (a *AuthService) Logout(ctx context.Context) error {
	return a.c.session.Logout(ctx)
}

// IsAuthenticated reports whether a token is stored locally.
func (a *AuthService) IsAuthenticated(ctx context.Context) (bool, error) {
	token, err := a.c.session.CurrentToken(ctx)
	return token != "", err
}

// asAuthError reports server rejections on /auth endpoints as AuthError.
// Transport and decoding failures keep their kind.
func asAuthError(err error, unauthorized string) error {
	var appErr *apperror.Error
	if !errors.As(err, &appErr) {
		return err
	}
	switch appErr.Kind {
	case apperror.KindSessionExpired:
		return apperror.Auth(unauthorized)
	case apperror.KindRequestFailed:
		authErr := apperror.Auth(appErr.Message)
		authErr.Status = appErr.Status
		return authErr
	default:
		return err
	}
}
