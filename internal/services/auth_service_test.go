package services

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
)

const (
	testIssuer     = "go-todo-lists-test"
	testAccessTTL  = 15 * time.Minute
	testRefreshTTL = 24 * time.Hour
)

type authFixture struct {
	*fixture
	auth     AuthService
	sessions SessionService
	clock    *time.Time
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	f := newFixture(t)
	now := time.Now().Truncate(time.Second)
	clock := WithClock(func() time.Time { return now })
	return &authFixture{
		fixture: f,
		auth: NewAuthService(
			zerolog.Nop(),
			f.users,
			f.store,
			nil,
			testIssuer,
			[]byte("test-signing-key"),
			testAccessTTL,
			testRefreshTTL,
			clock,
		),
		sessions: NewSessionService(zerolog.Nop(), f.store, clock),
		clock:    &now,
	}
}

func TestRegisterAndLogin(t *testing.T) {
	f := newAuthFixture(t)

	registered, err := f.auth.Register(f.ctx, RegisterParams{
		Email:       "alice@example.com",
		Password:    "correct horse",
		Name:        "alice",
		Fingerprint: "fp",
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.users.GetUser(f.ctx, registered.UserID); err != nil {
		t.Fatalf("registered user missing: %v", err)
	}

	claims, err := f.auth.ParseJWTToken(registered.AccessToken)
	if err != nil {
		t.Fatal(err)
	}
	if claims.Subject != registered.SessionID || claims.Issuer != testIssuer {
		t.Fatalf("claims = %+v", claims)
	}
	session, err := f.sessions.GetSessionByID(f.ctx, claims.Subject)
	if err != nil || session.UserID != registered.UserID {
		t.Fatalf("session = %+v, %v", session, err)
	}

	_, err = f.auth.Register(f.ctx, RegisterParams{Email: "alice@example.com", Password: "x"})
	if !errors.Is(err, ErrUserAlreadyExists) {
		t.Fatalf("err = %v, want ErrUserAlreadyExists", err)
	}

	_, err = f.auth.Login(f.ctx, LoginParams{Email: "alice@example.com", Password: "wrong"})
	if !errors.Is(err, ErrUserPasswordMismatch) {
		t.Fatalf("err = %v, want ErrUserPasswordMismatch", err)
	}
	_, err = f.auth.Login(f.ctx, LoginParams{Email: "nobody@example.com", Password: "x"})
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("err = %v, want ErrUserNotFound", err)
	}

	loggedIn, err := f.auth.Login(f.ctx, LoginParams{
		Email:       "alice@example.com",
		Password:    "correct horse",
		Fingerprint: "fp",
	})
	if err != nil {
		t.Fatal(err)
	}
	// Logging in replaces earlier sessions of the user.
	if _, err := f.sessions.GetSessionByID(f.ctx, registered.SessionID); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("old session err = %v, want ErrSessionNotFound", err)
	}
	if _, err := f.sessions.GetSessionByID(f.ctx, loggedIn.SessionID); err != nil {
		t.Fatal(err)
	}
}

func TestRefreshAndLogout(t *testing.T) {
	f := newAuthFixture(t)
	result, err := f.auth.Register(f.ctx, RegisterParams{
		Email:       "bob@example.com",
		Password:    "pw",
		Fingerprint: "fp",
	})
	if err != nil {
		t.Fatal(err)
	}

	_, err = f.auth.Refresh(f.ctx, RefreshParams{RefreshToken: result.RefreshToken, Fingerprint: "other"})
	if !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("err = %v, want ErrSessionNotFound", err)
	}

	refreshed, err := f.auth.Refresh(f.ctx, RefreshParams{RefreshToken: result.RefreshToken, Fingerprint: "fp"})
	if err != nil {
		t.Fatal(err)
	}
	if refreshed.SessionID != result.SessionID || refreshed.RefreshToken == result.RefreshToken {
		t.Fatalf("refresh did not rotate the token: %+v", refreshed)
	}
	_, err = f.auth.Refresh(f.ctx, RefreshParams{RefreshToken: result.RefreshToken, Fingerprint: "fp"})
	if !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("old refresh token still valid: %v", err)
	}

	*f.clock = f.clock.Add(testRefreshTTL + time.Minute)
	_, err = f.auth.Refresh(f.ctx, RefreshParams{RefreshToken: refreshed.RefreshToken, Fingerprint: "fp"})
	if !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("err = %v, want ErrSessionExpired", err)
	}
	_, err = f.auth.ParseJWTToken(refreshed.AccessToken)
	if !errors.Is(err, jwt.ErrTokenExpired) {
		t.Fatalf("err = %v, want jwt.ErrTokenExpired", err)
	}

	if err := f.auth.Logout(f.ctx, result.UserID); err != nil {
		t.Fatal(err)
	}
	if _, err := f.sessions.GetSessionByID(f.ctx, result.SessionID); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("err = %v, want ErrSessionNotFound", err)
	}
}

func TestGoogleSignInDisabled(t *testing.T) {
	f := newAuthFixture(t)
	if _, err := f.auth.GoogleAuthURL("state"); !errors.Is(err, ErrGoogleSignInDisabled) {
		t.Fatalf("err = %v, want ErrGoogleSignInDisabled", err)
	}
	_, err := f.auth.SignInWithGoogle(f.ctx, GoogleSignInParams{Code: "code"})
	if !errors.Is(err, ErrGoogleSignInDisabled) {
		t.Fatalf("err = %v, want ErrGoogleSignInDisabled", err)
	}
}

func TestParseJWTTokenRejectsForeignSignature(t *testing.T) {
	f := newAuthFixture(t)
	other := NewAuthService(zerolog.Nop(), f.users, f.store, nil, testIssuer, []byte("other-key"), testAccessTTL, testRefreshTTL)

	result, err := other.Register(f.ctx, RegisterParams{Email: "eve@example.com", Password: "pw"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.auth.ParseJWTToken(result.AccessToken); err == nil {
		t.Fatal("token signed with another key was accepted")
	}
}
