package middleware_test

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/vibast-solutions/ms-go-segfault/app/credential"
	"github.com/vibast-solutions/ms-go-segfault/app/entity"
	"github.com/vibast-solutions/ms-go-segfault/app/middleware"
	"github.com/vibast-solutions/ms-go-segfault/app/repository"
	"github.com/vibast-solutions/ms-go-segfault/app/service"
	"github.com/vibast-solutions/ms-go-segfault/config"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"
)

const (
	testSecret          = "test-secret"
	findByUsernameQuery = `(?s)SELECT id, username, email, password_hash, first_name, last_name, verified, is_super, created_at, updated_at\s+FROM users WHERE username = \?`
)

var userColumns = []string{
	"id",
	"username",
	"email",
	"password_hash",
	"first_name",
	"last_name",
	"verified",
	"is_super",
	"created_at",
	"updated_at",
}

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, func()) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	return db, mock, func() { _ = db.Close() }
}

func newMiddleware(t *testing.T, db *sql.DB) *middleware.AuthMiddleware {
	t.Helper()

	store, err := credential.NewStore(bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to create credential store: %v", err)
	}
	sessions := service.NewSessionIssuer(
		repository.NewUserRepository(db),
		store,
		config.JWTConfig{Secret: testSecret, Algorithm: "HS256", AccessTokenTTL: time.Minute},
	)
	return middleware.NewAuthMiddleware(sessions)
}

func signedToken(t *testing.T, subject string) string {
	t.Helper()

	claims := jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return signed
}

func okHandler(c echo.Context) error {
	return c.NoContent(http.StatusOK)
}

func TestRequireAuth_MissingHeader(t *testing.T) {
	db, _, cleanup := newMockDB(t)
	defer cleanup()
	authMiddleware := newMiddleware(t, db)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	ctx := e.NewContext(req, rec)

	if err := authMiddleware.RequireAuth(okHandler)(ctx); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rec.Code)
	}
	if rec.Header().Get("WWW-Authenticate") != "Bearer" {
		t.Fatalf("expected WWW-Authenticate challenge")
	}
}

func TestRequireAuth_InvalidHeaderFormat(t *testing.T) {
	db, _, cleanup := newMockDB(t)
	defer cleanup()
	authMiddleware := newMiddleware(t, db)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Token abc")
	rec := httptest.NewRecorder()
	ctx := e.NewContext(req, rec)

	if err := authMiddleware.RequireAuth(okHandler)(ctx); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rec.Code)
	}
}

func TestRequireAuth_InvalidToken(t *testing.T) {
	db, _, cleanup := newMockDB(t)
	defer cleanup()
	authMiddleware := newMiddleware(t, db)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer invalid-token")
	rec := httptest.NewRecorder()
	ctx := e.NewContext(req, rec)

	if err := authMiddleware.RequireAuth(okHandler)(ctx); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rec.Code)
	}
}

func TestRequireAuth_SetsPrincipalOnValidToken(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	authMiddleware := newMiddleware(t, db)

	mock.ExpectQuery(findByUsernameQuery).
		WithArgs("ada").
		WillReturnRows(sqlmock.NewRows(userColumns).AddRow(
			uint64(1), "ada", "ada@example.com", "hash", "Ada", "Lovelace", true, false, time.Now(), nil,
		))

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "bearer "+signedToken(t, "ada"))
	rec := httptest.NewRecorder()
	ctx := e.NewContext(req, rec)

	handler := authMiddleware.RequireAuth(func(c echo.Context) error {
		user, ok := middleware.CurrentUser(c)
		if !ok || user.ID != 1 {
			t.Fatalf("expected principal 1, got %v", c.Get(middleware.ContextKeyUser))
		}
		return c.NoContent(http.StatusOK)
	})

	if err := handler(ctx); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
}

func TestRequireAuth_StoreFailure(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	authMiddleware := newMiddleware(t, db)

	mock.ExpectQuery(findByUsernameQuery).
		WithArgs("ada").
		WillReturnError(sql.ErrConnDone)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signedToken(t, "ada"))
	rec := httptest.NewRecorder()
	ctx := e.NewContext(req, rec)

	if err := authMiddleware.RequireAuth(okHandler)(ctx); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", rec.Code)
	}
}

func TestRequireAuth_RequestTimeout(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	authMiddleware := newMiddleware(t, db)

	mock.ExpectQuery(findByUsernameQuery).
		WithArgs("ada").
		WillDelayFor(500 * time.Millisecond).
		WillReturnRows(sqlmock.NewRows(userColumns))

	reqCtx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil).WithContext(reqCtx)
	req.Header.Set("Authorization", "Bearer "+signedToken(t, "ada"))
	rec := httptest.NewRecorder()
	ctx := e.NewContext(req, rec)

	if err := authMiddleware.RequireAuth(okHandler)(ctx); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d", rec.Code)
	}
}

func TestRequestAborted(t *testing.T) {
	live := context.Background()
	done, cancel := context.WithCancel(context.Background())
	cancel()

	if !middleware.RequestAborted(live, context.DeadlineExceeded) {
		t.Fatalf("deadline exceeded must count as aborted")
	}
	if !middleware.RequestAborted(live, errors.Join(errors.New("query"), context.Canceled)) {
		t.Fatalf("wrapped cancellation must count as aborted")
	}
	if !middleware.RequestAborted(done, errors.New("canceling query due to user request")) {
		t.Fatalf("driver error on a done context must count as aborted")
	}
	if middleware.RequestAborted(live, sql.ErrConnDone) {
		t.Fatalf("store failure on a live context must not count as aborted")
	}
}

func TestBearerToken(t *testing.T) {
	cases := map[string]struct {
		token string
		ok    bool
	}{
		"Bearer abc":     {"abc", true},
		"BEARER abc":     {"abc", true},
		"Bearer":         {"", false},
		"Basic abc":      {"", false},
		"Bearer abc def": {"", false},
	}

	for header, want := range cases {
		token, ok := middleware.BearerToken(header)
		if token != want.token || ok != want.ok {
			t.Fatalf("%q: expected (%q, %v), got (%q, %v)", header, want.token, want.ok, token, ok)
		}
	}
}

func TestCurrentUser_Missing(t *testing.T) {
	e := echo.New()
	ctx := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())

	if _, ok := middleware.CurrentUser(ctx); ok {
		t.Fatalf("expected no principal")
	}

	ctx.Set(middleware.ContextKeyUser, &entity.User{ID: 4})
	if user, ok := middleware.CurrentUser(ctx); !ok || user.ID != 4 {
		t.Fatalf("expected principal 4")
	}
}
