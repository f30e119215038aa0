package apiclient

import (
	"context"
	"fmt"
	"net/http"

	"github.com/bdsalocin/comhodl-api/internal/session"
)

// Authenticator adapts a Client to session.Authenticator. Registration is
// bare email/password; the profile is filled in through the questionnaire.
type Authenticator struct {
	Client *Client
}

var _ session.Authenticator = Authenticator{}

func (a Authenticator) Authenticate(ctx context.Context, email, password string) (session.User, error) {
	s, err := a.Client.Login(ctx, email, password)
	if err != nil {
		return session.User{}, authError(err)
	}
	return session.User{ID: s.User.ID, Email: s.User.Email, Token: s.Token}, nil
}

func (a Authenticator) Register(ctx context.Context, email, password string) (session.User, error) {
	s, err := a.Client.Register(ctx, Registration{Email: email, Password: password})
	if err != nil {
		return session.User{}, authError(err)
	}
	return session.User{ID: s.User.ID, Email: s.User.Email, Token: s.Token}, nil
}

// authError maps auth failures to the session sentinels, keeping the
// original error in the chain.
func authError(err error) error {
	switch StatusOf(err) {
	case http.StatusUnauthorized:
		return fmt.Errorf("%w: %w", session.ErrInvalidCredentials, err)
	case http.StatusConflict:
		return fmt.Errorf("%w: %w", session.ErrEmailInUse, err)
	case http.StatusUnprocessableEntity:
		return fmt.Errorf("%w: %w", session.ErrWeakPassword, err)
	}
	return err
}
