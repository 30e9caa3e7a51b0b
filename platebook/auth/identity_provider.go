package auth

import (
	"errors"

	"github.com/go-chi/chi/v5"
)

type LoginResult struct {
	UserId      string
	AccessToken string
}

type IdentityProvider interface {
	// AuthMiddleware verifies the token and rejects requests without one.
	AuthMiddleware() chi.Middlewares

	// OptionalAuthMiddleware parses the token when present but lets
	// anonymous requests through, used on public recipe reads.
	OptionalAuthMiddleware() chi.Middlewares

	AllowDirectSignup() bool

	LoginWithEmail(email, password string) (LoginResult, error)

	CreateUser(username, email, password string) (string, error)

	UpdatePassword(userId, password string) error

	DeleteUser(userId string) error
}

var ErrUserEmailAlreadyExists = errors.New("email is already in use")
var ErrUsernameAlreadyExists = errors.New("username is already in use")
