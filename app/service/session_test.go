package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vibast-solutions/ms-go-segfault/app/repository"
	"github.com/vibast-solutions/ms-go-segfault/app/service"
	"github.com/vibast-solutions/ms-go-segfault/config"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret"

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func newSessionIssuer(t *testing.T, ttl time.Duration, clock *fakeClock) (service.SessionIssuer, sqlmock.Sqlmock, string, func()) {
	t.Helper()

	db, mock, cleanup := newMockDB(t)
	store := newCredentialStore(t)
	hash := mustHash(t, store, "Abc12345!")

	issuer := service.NewSessionIssuer(
		repository.NewUserRepository(db),
		store,
		config.JWTConfig{Secret: testSecret, Algorithm: "HS256", AccessTokenTTL: ttl},
		service.WithClock(clock.Now),
	)
	return issuer, mock, hash, cleanup
}

func TestSessionIssuer_LoginSuccess(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	issuer, mock, hash, cleanup := newSessionIssuer(t, 30*time.Minute, clock)
	defer cleanup()

	mock.ExpectQuery(findByUsernameQuery).
		WithArgs("ada").
		WillReturnRows(userRow(1, "ada", "ada@example.com", hash))

	token, err := issuer.Login(context.Background(), "ada", "Abc12345!")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if token.TokenType != "bearer" {
		t.Fatalf("expected bearer token type, got %q", token.TokenType)
	}
	if token.ExpiresIn != int64((30 * time.Minute).Seconds()) {
		t.Fatalf("unexpected expires_in: %d", token.ExpiresIn)
	}

	claims := &jwt.RegisteredClaims{}
	_, err = jwt.ParseWithClaims(token.AccessToken, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(testSecret), nil
	}, jwt.WithTimeFunc(clock.Now))
	if err != nil {
		t.Fatalf("failed to parse issued token: %v", err)
	}
	if claims.Subject != "ada" {
		t.Fatalf("expected subject ada, got %q", claims.Subject)
	}
	if !claims.ExpiresAt.Time.Equal(clock.now.Add(30 * time.Minute).Truncate(time.Second)) {
		t.Fatalf("unexpected expiry: %v", claims.ExpiresAt.Time)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSessionIssuer_LoginFailuresAreIndistinguishable(t *testing.T) {
	issuer, mock, hash, cleanup := newSessionIssuer(t, time.Minute, &fakeClock{now: time.Now()})
	defer cleanup()

	mock.ExpectQuery(findByUsernameQuery).
		WithArgs("nobody").
		WillReturnRows(sqlmock.NewRows(userColumns))
	mock.ExpectQuery(findByUsernameQuery).
		WithArgs("ada").
		WillReturnRows(userRow(1, "ada", "ada@example.com", hash))

	_, unknownErr := issuer.Login(context.Background(), "nobody", "Abc12345!")
	_, wrongErr := issuer.Login(context.Background(), "ada", "wrong-password")

	if !errors.Is(unknownErr, service.ErrInvalidCredentials) || !errors.Is(wrongErr, service.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v and %v", unknownErr, wrongErr)
	}
	if !errors.Is(unknownErr, service.ErrUnauthorized) {
		t.Fatalf("expected unauthorized category, got %v", unknownErr)
	}
	if unknownErr.Error() != wrongErr.Error() {
		t.Fatalf("expected identical messages, got %q and %q", unknownErr, wrongErr)
	}
}

func TestSessionIssuer_LoginMalformedDigest(t *testing.T) {
	issuer, mock, _, cleanup := newSessionIssuer(t, time.Minute, &fakeClock{now: time.Now()})
	defer cleanup()

	mock.ExpectQuery(findByUsernameQuery).
		WithArgs("ada").
		WillReturnRows(userRow(1, "ada", "ada@example.com", "not-a-bcrypt-digest"))
	mock.ExpectQuery(findByUsernameQuery).
		WithArgs("nobody").
		WillReturnRows(sqlmock.NewRows(userColumns))

	_, malformedErr := issuer.Login(context.Background(), "ada", "Abc12345!")
	_, unknownErr := issuer.Login(context.Background(), "nobody", "Abc12345!")

	if !errors.Is(malformedErr, service.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", malformedErr)
	}
	if malformedErr.Error() != unknownErr.Error() {
		t.Fatalf("expected identical messages, got %q and %q", malformedErr, unknownErr)
	}
}

func TestSessionIssuer_LoginIsCaseSensitive(t *testing.T) {
	issuer, mock, _, cleanup := newSessionIssuer(t, time.Minute, &fakeClock{now: time.Now()})
	defer cleanup()

	mock.ExpectQuery(findByUsernameQuery).
		WithArgs("ADA").
		WillReturnRows(sqlmock.NewRows(userColumns))

	if _, err := issuer.Login(context.Background(), "ADA", "Abc12345!"); !errors.Is(err, service.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestSessionIssuer_Authenticate(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	issuer, mock, hash, cleanup := newSessionIssuer(t, time.Minute, clock)
	defer cleanup()

	mock.ExpectQuery(findByUsernameQuery).
		WithArgs("ada").
		WillReturnRows(userRow(1, "ada", "ada@example.com", hash))
	mock.ExpectQuery(findByUsernameQuery).
		WithArgs("ada").
		WillReturnRows(userRow(1, "ada", "ada@example.com", hash))

	token, err := issuer.Login(context.Background(), "ada", "Abc12345!")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	user, err := issuer.Authenticate(context.Background(), token.AccessToken)
	if err != nil {
		t.Fatalf("authenticate failed: %v", err)
	}
	if user.ID != 1 || user.Username != "ada" {
		t.Fatalf("unexpected principal: %+v", user)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSessionIssuer_AuthenticateExpired(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	issuer, mock, hash, cleanup := newSessionIssuer(t, time.Minute, clock)
	defer cleanup()

	mock.ExpectQuery(findByUsernameQuery).
		WithArgs("ada").
		WillReturnRows(userRow(1, "ada", "ada@example.com", hash))

	token, err := issuer.Login(context.Background(), "ada", "Abc12345!")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	clock.Advance(2 * time.Minute)

	_, err = issuer.Authenticate(context.Background(), token.AccessToken)
	if !errors.Is(err, service.ErrUnauthorized) {
		t.Fatalf("expected unauthorized after expiry, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSessionIssuer_AuthenticateRejectsForgedTokens(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	issuer, _, _, cleanup := newSessionIssuer(t, time.Minute, clock)
	defer cleanup()

	exp := jwt.NewNumericDate(clock.now.Add(time.Hour))
	cases := map[string]string{
		"empty":        "",
		"garbage":      "not-a-jwt",
		"wrong secret": signToken(t, jwt.SigningMethodHS256, "other-secret", jwt.RegisteredClaims{Subject: "ada", ExpiresAt: exp}),
		"wrong alg":    signToken(t, jwt.SigningMethodHS512, testSecret, jwt.RegisteredClaims{Subject: "ada", ExpiresAt: exp}),
		"no expiry":    signToken(t, jwt.SigningMethodHS256, testSecret, jwt.RegisteredClaims{Subject: "ada"}),
		"no subject":   signToken(t, jwt.SigningMethodHS256, testSecret, jwt.RegisteredClaims{ExpiresAt: exp}),
	}

	for name, token := range cases {
		if _, err := issuer.Authenticate(context.Background(), token); !errors.Is(err, service.ErrInvalidAccessToken) {
			t.Fatalf("%s: expected ErrInvalidAccessToken, got %v", name, err)
		}
	}
}

func TestSessionIssuer_AuthenticateUnknownSubject(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	issuer, mock, _, cleanup := newSessionIssuer(t, time.Minute, clock)
	defer cleanup()

	token := signToken(t, jwt.SigningMethodHS256, testSecret, jwt.RegisteredClaims{
		Subject:   "ghost",
		ExpiresAt: jwt.NewNumericDate(clock.now.Add(time.Minute)),
	})
	mock.ExpectQuery(findByUsernameQuery).
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows(userColumns))

	if _, err := issuer.Authenticate(context.Background(), token); !errors.Is(err, service.ErrInvalidAccessToken) {
		t.Fatalf("expected ErrInvalidAccessToken, got %v", err)
	}
}

func signToken(t *testing.T, method jwt.SigningMethod, secret string, claims jwt.RegisteredClaims) string {
	t.Helper()

	signed, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return signed
}
