// Package session implements the client-side auth gate: who is signed in
// and whether they finished onboarding, persisted in local storage so the
// session survives a restart.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
)

const (
	userKey             = "@user"
	questionnairePrefix = "@questionnaire_completed_"
)

// State is the position of the gate in its lifecycle.
type State int

const (
	Unauthenticated State = iota
	// Authenticated is signed in with onboarding not finished.
	Authenticated
	Ready
)

func (s State) String() string {
	switch s {
	case Unauthenticated:
		return "unauthenticated"
	case Authenticated:
		return "authenticated"
	case Ready:
		return "ready"
	}
	return "State(" + strconv.Itoa(int(s)) + ")"
}

// Error codes carried by AuthResult.
const (
	CodeInvalidCredentials = "invalid-credentials"
	CodeUnknown            = "unknown"
	CodeEmailInUse         = "email-already-in-use"
	CodeWeakPassword       = "weak-password"
)

type AuthError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type AuthResult struct {
	Success bool       `json:"success"`
	User    *User      `json:"user,omitempty"`
	Error   *AuthError `json:"error,omitempty"`
}

// ErrNotSignedIn is returned by operations that need a session.
var ErrNotSignedIn = errors.New("not signed in")

// Gate owns the session. It is safe for concurrent use.
type Gate struct {
	kv   KV
	auth Authenticator

	mu            sync.Mutex
	user          *User
	questionnaire bool
}

func NewGate(kv KV, auth Authenticator) *Gate {
	return &Gate{kv: kv, auth: auth}
}

func (g *Gate) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.stateLocked()
}

func (g *Gate) stateLocked() State {
	switch {
	case g.user == nil:
		return Unauthenticated
	case g.questionnaire:
		return Ready
	default:
		return Authenticated
	}
}

// User returns the signed-in user, or nil.
func (g *Gate) User() *User {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.user == nil {
		return nil
	}
	u := *g.user
	return &u
}

// SignIn checks the credentials and persists the user on success. Blank
// input fails with invalid-credentials without reaching the authenticator.
func (g *Gate) SignIn(ctx context.Context, email, password string) AuthResult {
	if strings.TrimSpace(email) == "" || password == "" {
		return failure(CodeInvalidCredentials)
	}
	u, err := g.auth.Authenticate(ctx, email, password)
	if err != nil {
		return failure(codeFor(err))
	}
	return g.establish(ctx, u)
}

// SignUp registers a new account and signs it in.
func (g *Gate) SignUp(ctx context.Context, email, password string) AuthResult {
	if strings.TrimSpace(email) == "" || password == "" {
		return failure(CodeInvalidCredentials)
	}
	u, err := g.auth.Register(ctx, email, password)
	if err != nil {
		return failure(codeFor(err))
	}
	return g.establish(ctx, u)
}

func (g *Gate) establish(ctx context.Context, u User) AuthResult {
	data, err := json.Marshal(u)
	if err != nil {
		return failure(CodeUnknown)
	}
	if err := g.kv.Set(ctx, userKey, data); err != nil {
		return failure(CodeUnknown)
	}
	done, err := g.questionnaireDone(ctx, u.ID)
	if err != nil {
		return failure(CodeUnknown)
	}

	g.mu.Lock()
	g.user = &u
	g.questionnaire = done
	g.mu.Unlock()

	return AuthResult{Success: true, User: &u}
}

// SignOut forgets the session. Signing out without a session is not an
// error. The per-user questionnaire flag is kept.
func (g *Gate) SignOut(ctx context.Context) error {
	if err := g.kv.Delete(ctx, userKey); err != nil {
		return fmt.Errorf("signing out: %w", err)
	}
	g.mu.Lock()
	g.user = nil
	g.questionnaire = false
	g.mu.Unlock()
	return nil
}

// Restore loads a previously persisted session. It returns the resulting
// state; a missing session is Unauthenticated, not an error.
func (g *Gate) Restore(ctx context.Context) (State, error) {
	data, err := g.kv.Get(ctx, userKey)
	if errors.Is(err, ErrNoKey) {
		return g.State(), nil
	}
	if err != nil {
		return Unauthenticated, fmt.Errorf("restoring session: %w", err)
	}

	var u User
	if err := json.Unmarshal(data, &u); err != nil {
		return Unauthenticated, fmt.Errorf("decoding stored user: %w", err)
	}
	done, err := g.questionnaireDone(ctx, u.ID)
	if err != nil {
		return Unauthenticated, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.user = &u
	g.questionnaire = done
	return g.stateLocked(), nil
}

// CompleteQuestionnaire marks onboarding finished for the signed-in user.
func (g *Gate) CompleteQuestionnaire(ctx context.Context) error {
	g.mu.Lock()
	u := g.user
	g.mu.Unlock()
	if u == nil {
		return ErrNotSignedIn
	}

	if err := g.kv.Set(ctx, questionnaireKey(u.ID), []byte("true")); err != nil {
		return fmt.Errorf("saving questionnaire flag: %w", err)
	}
	g.mu.Lock()
	g.questionnaire = true
	g.mu.Unlock()
	return nil
}

func (g *Gate) questionnaireDone(ctx context.Context, userID int64) (bool, error) {
	data, err := g.kv.Get(ctx, questionnaireKey(userID))
	if errors.Is(err, ErrNoKey) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("reading questionnaire flag: %w", err)
	}
	var done bool
	if err := json.Unmarshal(data, &done); err != nil {
		return false, nil
	}
	return done, nil
}

func questionnaireKey(userID int64) string {
	return questionnairePrefix + strconv.FormatInt(userID, 10)
}

func codeFor(err error) string {
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return CodeInvalidCredentials
	case errors.Is(err, ErrEmailInUse):
		return CodeEmailInUse
	case errors.Is(err, ErrWeakPassword):
		return CodeWeakPassword
	}
	return CodeUnknown
}

func failure(code string) AuthResult {
	return AuthResult{Error: &AuthError{Code: code, Message: Message(code)}}
}

// Message returns the user-facing text for an error code.
func Message(code string) string {
	switch code {
	case CodeInvalidCredentials:
		return "Identifiants invalides"
	case CodeEmailInUse:
		return "Cet email est déjà utilisé"
	case CodeWeakPassword:
		return "Le mot de passe est trop faible"
	}
	return "Une erreur est survenue"
}
