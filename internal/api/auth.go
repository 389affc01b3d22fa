package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	errprocess "social_network_client/pkg/err"
	"social_network_client/pkg/logger"

	"go.uber.org/zap"
)

// distinguished messages
const (
	MissingCredentialsMessage = "Missing username or password"
	WrongCredentialsMessage   = "Wrong username or password"
	LoginFailedMessage        = "Login Failed"
	NicknameTakenMessage      = "The nickname has already been taken"
	EmailTakenMessage         = "Please use another email address"
	WeakPasswordMessage       = "Your password should have at least one lowercase and one uppercase letter, a number and a symbol"
	CommentLengthMessage      = "The comment should be between 1 and 100 characters long"
)

// LoginForm /login body
type LoginForm struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// SignupForm /signup body
type SignupForm struct {
	Email           string `json:"email" validate:"required,signup_email"`
	Password        string `json:"password" validate:"required,min=8,strong_password"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
	FirstName       string `json:"firstName" validate:"required"`
	LastName        string `json:"lastName" validate:"required"`
	DateOfBirth     string `json:"dateOfBirth" validate:"required,min_age=13"`
	Nickname        string `json:"nickname" validate:"max=32,nickname"`
	About           string `json:"about"`
}

// Validate client-side form rules
func (f SignupForm) Validate() error {
	return validateForm(&f)
}

// Login POST /login, the session cookie lands in the jar
func (c *Client) Login(ctx context.Context, form LoginForm) error {
	err := c.postJSON(ctx, "/login", form, nil)
	if err == nil {
		logger.Log.Info("login success", zap.String("username", form.Username))
		return nil
	}
	var se *errprocess.ServerError
	if !errors.As(err, &se) {
		return err
	}
	switch se.Status {
	case http.StatusBadRequest:
		return se.WithMessage(MissingCredentialsMessage)
	case http.StatusUnauthorized:
		return se.WithMessage(WrongCredentialsMessage)
	default:
		return se.WithMessage(LoginFailedMessage)
	}
}

// Signup validate then POST /signup
func (c *Client) Signup(ctx context.Context, form SignupForm) error {
	if err := form.Validate(); err != nil {
		return err
	}
	err := c.postJSON(ctx, "/signup", form, nil)
	var se *errprocess.ServerError
	if err == nil || !errors.As(err, &se) || se.Status != http.StatusBadRequest {
		return err
	}
	switch strings.TrimSuffix(se.Body, "\n") {
	case "nickname":
		return se.WithMessage(NicknameTakenMessage)
	case "email":
		return se.WithMessage(EmailTakenMessage)
	case "password":
		return se.WithMessage(WeakPasswordMessage)
	default:
		return se
	}
}

// Logout GET /logout
func (c *Client) Logout(ctx context.Context) error {
	return c.get(ctx, "/logout")
}

// Auth GET /auth, nil when the session cookie is valid
func (c *Client) Auth(ctx context.Context) error {
	return c.get(ctx, "/auth")
}
