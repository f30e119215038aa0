package session

import (
	"context"
	"errors"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"github.com/bdsalocin/comhodl-api/internal/comhodl"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailInUse         = errors.New("email already in use")
	ErrWeakPassword       = errors.New("password too weak")
)

// User is the identity persisted for the session. Token is the bearer token
// issued by the backend, empty for offline authenticators.
type User struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Token string `json:"token,omitempty"`
}

// Authenticator is the credential boundary. Implementations return
// ErrInvalidCredentials for a mismatch, ErrEmailInUse or ErrWeakPassword on
// registration; any other error maps to the "unknown" code.
type Authenticator interface {
	Authenticate(ctx context.Context, email, password string) (User, error)
	Register(ctx context.Context, email, password string) (User, error)
}

// StaticAuthenticator checks credentials against bcrypt hashes held in
// memory. It backs tests and offline use of the client.
type StaticAuthenticator struct {
	mu     sync.Mutex
	users  map[string]staticUser
	nextID int64
}

type staticUser struct {
	id   int64
	hash []byte
}

func NewStaticAuthenticator() *StaticAuthenticator {
	return &StaticAuthenticator{users: make(map[string]staticUser), nextID: 1}
}

// Add registers email with a bcrypt hash of password and returns its id.
func (a *StaticAuthenticator) Add(email, password string) (int64, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return 0, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	email = normalizeEmail(email)
	if _, ok := a.users[email]; ok {
		return 0, ErrEmailInUse
	}
	id := a.nextID
	a.nextID++
	a.users[email] = staticUser{id: id, hash: hash}
	return id, nil
}

func (a *StaticAuthenticator) Authenticate(_ context.Context, email, password string) (User, error) {
	email = normalizeEmail(email)
	a.mu.Lock()
	u, ok := a.users[email]
	a.mu.Unlock()
	if !ok {
		return User{}, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword(u.hash, []byte(password)) != nil {
		return User{}, ErrInvalidCredentials
	}
	return User{ID: u.id, Email: email}, nil
}

func (a *StaticAuthenticator) Register(_ context.Context, email, password string) (User, error) {
	if len(password) < comhodl.MinPasswordLength {
		return User{}, ErrWeakPassword
	}
	id, err := a.Add(email, password)
	if err != nil {
		return User{}, err
	}
	return User{ID: id, Email: normalizeEmail(email)}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
