// Package session holds the bearer token of the signed-in user and turns a
// login attempt into either a token or a user-facing error.
package session

import (
	"context"
	"fmt"

	z "github.com/Oudwins/zog"
	"go.uber.org/zap"
	"liyu1981.xyz/platform-dashboard/pkg/common"
)

const (
	MessageMissingCredentials = "please enter an email and a password"
	MessageInvalidCredentials = "invalid credentials"
)

// ValidationError is returned when a login is attempted with an empty email or
// password. No network call has been made.
type ValidationError struct {
	Issues string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s", e.Issues)
}

func (e *ValidationError) UserMessage() string {
	return MessageMissingCredentials
}

// AuthError is returned when the auth endpoint rejected the credentials or
// could not be reached.
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication failed: %v", e.Err)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

func (e *AuthError) UserMessage() string {
	return MessageInvalidCredentials
}

type Authenticator interface {
	Authenticate(ctx context.Context, email, password string) (string, error)
}

type Credentials struct {
	Email    string
	Password string
}

var credentialsSchema = z.Struct(z.Shape{
	"Email":    z.String().Min(1).Required(),
	"Password": z.String().Min(1).Required(),
})

func ValidateCredentials(email, password string) error {
	creds := Credentials{Email: email, Password: password}
	if issues := credentialsSchema.Validate(&creds); issues != nil {
		return &ValidationError{Issues: fmt.Sprintf("%v", issues)}
	}
	return nil
}

// Authenticate validates the credentials and exchanges them for a token.
func Authenticate(ctx context.Context, auth Authenticator, email, password string) (string, error) {
	logger := common.GetLoggerWith(
		common.LoggerNameSynchronizer,
		zap.String(common.LoggerFieldCategory, common.LoggerCategorySession),
	)

	if err := ValidateCredentials(email, password); err != nil {
		logger.Info("Rejected login without credentials")
		return "", err
	}

	token, err := auth.Authenticate(ctx, email, password)
	if err != nil {
		logger.Warn("Login failed", zap.String("email", email), zap.Error(err))
		return "", &AuthError{Err: err}
	}

	logger.Info("Login succeeded", zap.String("email", email))
	return token, nil
}

// Session is not safe for concurrent use; its owner serializes access.
type Session struct {
	token      string
	loginError string
}

func (s *Session) Token() string {
	return s.token
}

func (s *Session) Authenticated() bool {
	return s.token != ""
}

func (s *Session) LoginError() string {
	return s.loginError
}

func (s *Session) Acquire(token string) {
	s.token = token
	s.loginError = ""
}

// Fail records a user-visible login error. The token stays absent.
func (s *Session) Fail(message string) {
	s.token = ""
	s.loginError = message
}

func (s *Session) Clear() {
	s.token = ""
	s.loginError = ""
}
