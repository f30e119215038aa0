package session

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func newTestAuth(t *testing.T) *StaticAuthenticator {
	t.Helper()
	auth := NewStaticAuthenticator()
	if _, err := auth.Add("test@example.com", "password123"); err != nil {
		t.Fatalf("adding user: %v", err)
	}
	return auth
}

func TestSignIn(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		password string
		wantOK   bool
		wantCode string
	}{
		{"matching credentials", "test@example.com", "password123", true, ""},
		{"email is case insensitive", "Test@Example.com", "password123", true, ""},
		{"wrong password", "test@example.com", "wrong", false, CodeInvalidCredentials},
		{"unknown email", "x@y.com", "wrong", false, CodeInvalidCredentials},
		{"blank email", "", "password123", false, CodeInvalidCredentials},
		{"blank password", "test@example.com", "", false, CodeInvalidCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGate(NewMemoryKV(), newTestAuth(t))
			res := g.SignIn(context.Background(), tt.email, tt.password)

			if res.Success != tt.wantOK {
				t.Fatalf("Success = %v, want %v (%+v)", res.Success, tt.wantOK, res.Error)
			}
			if !tt.wantOK {
				if res.Error == nil || res.Error.Code != tt.wantCode {
					t.Fatalf("Error = %+v, want code %q", res.Error, tt.wantCode)
				}
				if g.State() != Unauthenticated {
					t.Errorf("State = %v, want unauthenticated", g.State())
				}
				return
			}
			if res.User == nil || res.User.ID != 1 || res.User.Email != "test@example.com" {
				t.Errorf("User = %+v, want id 1 test@example.com", res.User)
			}
			if g.State() != Authenticated {
				t.Errorf("State = %v, want authenticated", g.State())
			}
		})
	}
}

func TestSignUp(t *testing.T) {
	ctx := context.Background()
	g := NewGate(NewMemoryKV(), newTestAuth(t))

	if res := g.SignUp(ctx, "test@example.com", "password123"); res.Error == nil || res.Error.Code != CodeEmailInUse {
		t.Errorf("duplicate: %+v, want %s", res.Error, CodeEmailInUse)
	}
	if res := g.SignUp(ctx, "new@example.com", "abc"); res.Error == nil || res.Error.Code != CodeWeakPassword {
		t.Errorf("weak: %+v, want %s", res.Error, CodeWeakPassword)
	}

	res := g.SignUp(ctx, "new@example.com", "longenough")
	if !res.Success {
		t.Fatalf("SignUp failed: %+v", res.Error)
	}
	if res.User.ID != 2 {
		t.Errorf("ID = %d, want 2", res.User.ID)
	}
	if g.State() != Authenticated {
		t.Errorf("State = %v, want authenticated", g.State())
	}
}

func TestQuestionnaireGate(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	g := NewGate(kv, newTestAuth(t))

	if err := g.CompleteQuestionnaire(ctx); !errors.Is(err, ErrNotSignedIn) {
		t.Fatalf("CompleteQuestionnaire before sign-in: err = %v, want ErrNotSignedIn", err)
	}

	g.SignIn(ctx, "test@example.com", "password123")
	if err := g.CompleteQuestionnaire(ctx); err != nil {
		t.Fatalf("CompleteQuestionnaire: %v", err)
	}
	if g.State() != Ready {
		t.Fatalf("State = %v, want ready", g.State())
	}

	if err := g.SignOut(ctx); err != nil {
		t.Fatalf("SignOut: %v", err)
	}
	if g.State() != Unauthenticated {
		t.Fatalf("State after sign-out = %v, want unauthenticated", g.State())
	}

	// The flag is per user and outlives the session.
	g.SignIn(ctx, "test@example.com", "password123")
	if g.State() != Ready {
		t.Errorf("State after second sign-in = %v, want ready", g.State())
	}
}

func TestSignOutIdempotent(t *testing.T) {
	ctx := context.Background()
	g := NewGate(NewMemoryKV(), newTestAuth(t))

	for i := range 2 {
		if err := g.SignOut(ctx); err != nil {
			t.Fatalf("SignOut #%d: %v", i+1, err)
		}
	}
	if g.User() != nil {
		t.Error("User should be nil")
	}
}

func TestRestoreAcrossRestart(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state.db")
	auth := newTestAuth(t)

	kv, err := OpenSQLKV(ctx, path)
	if err != nil {
		t.Fatalf("OpenSQLKV: %v", err)
	}
	g := NewGate(kv, auth)
	if res := g.SignIn(ctx, "test@example.com", "password123"); !res.Success {
		t.Fatalf("SignIn: %+v", res.Error)
	}
	if err := g.CompleteQuestionnaire(ctx); err != nil {
		t.Fatalf("CompleteQuestionnaire: %v", err)
	}
	kv.Close()

	kv, err = OpenSQLKV(ctx, path)
	if err != nil {
		t.Fatalf("reopening: %v", err)
	}
	t.Cleanup(func() { kv.Close() })

	g = NewGate(kv, auth)
	state, err := g.Restore(ctx)
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if state != Ready {
		t.Errorf("state = %v, want ready", state)
	}
	if u := g.User(); u == nil || u.Email != "test@example.com" {
		t.Errorf("User = %+v", u)
	}

	if err := g.SignOut(ctx); err != nil {
		t.Fatalf("SignOut: %v", err)
	}
	state, err = NewGate(kv, auth).Restore(ctx)
	if err != nil {
		t.Fatalf("Restore after sign-out: %v", err)
	}
	if state != Unauthenticated {
		t.Errorf("state after sign-out = %v, want unauthenticated", state)
	}
}

type failingAuth struct{}

func (failingAuth) Authenticate(context.Context, string, string) (User, error) {
	return User{}, errors.New("connection refused")
}

func (failingAuth) Register(context.Context, string, string) (User, error) {
	return User{}, errors.New("connection refused")
}

func TestSignInUnknownError(t *testing.T) {
	g := NewGate(NewMemoryKV(), failingAuth{})
	res := g.SignIn(context.Background(), "a@b.c", "secret1")
	if res.Success || res.Error.Code != CodeUnknown {
		t.Fatalf("got %+v, want code %s", res, CodeUnknown)
	}
	if res.Error.Message != "Une erreur est survenue" {
		t.Errorf("Message = %q", res.Error.Message)
	}
}

func TestSQLKV(t *testing.T) {
	ctx := context.Background()
	kv, err := OpenSQLKV(ctx, ":memory:")
	if err != nil {
		t.Fatalf("OpenSQLKV: %v", err)
	}
	t.Cleanup(func() { kv.Close() })

	if _, err := kv.Get(ctx, "missing"); !errors.Is(err, ErrNoKey) {
		t.Fatalf("Get missing: err = %v, want ErrNoKey", err)
	}
	if err := kv.Set(ctx, "k", []byte(`"a"`)); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := kv.Set(ctx, "k", []byte(`"b"`)); err != nil {
		t.Fatalf("Set overwrite: %v", err)
	}
	v, err := kv.Get(ctx, "k")
	if err != nil || string(v) != `"b"` {
		t.Fatalf("Get = %q, %v", v, err)
	}
	if err := kv.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := kv.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete twice: %v", err)
	}
	if _, err := kv.Get(ctx, "k"); !errors.Is(err, ErrNoKey) {
		t.Errorf("Get after delete: err = %v", err)
	}
}
