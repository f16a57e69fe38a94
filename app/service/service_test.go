package service_test

import (
	"database/sql"
	"testing"
	"time"

	"github.com/vibast-solutions/ms-go-segfault/app/credential"

	"github.com/DATA-DOG/go-sqlmock"
	"golang.org/x/crypto/bcrypt"
)

var (
	userColumns = []string{
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
	tokenColumns = []string{
		"token",
		"user_id",
		"type",
		"created_at",
	}
)

const (
	findByUsernameQuery     = `(?s)SELECT id, username, email, password_hash, first_name, last_name, verified, is_super, created_at, updated_at\s+FROM users WHERE username = \?`
	findByEmailQuery        = `(?s)SELECT id, username, email, password_hash, first_name, last_name, verified, is_super, created_at, updated_at\s+FROM users WHERE email = \?`
	existsUserQuery         = `SELECT COUNT\(\*\) FROM users WHERE username = \? OR email = \?`
	insertUserQuery         = `(?s)INSERT INTO users \(username, email, password_hash, first_name, last_name, verified, is_super, created_at\)\s+VALUES \(\?, \?, \?, \?, \?, \?, \?, \?\)`
	markVerifiedQuery       = `UPDATE users SET verified = 1, updated_at = \? WHERE id = \?`
	updatePasswordQuery     = `UPDATE users SET password_hash = \?, updated_at = \? WHERE id = \?`
	deleteUserTokensQuery   = `DELETE FROM tokens WHERE user_id = \? AND type = \?`
	insertTokenQuery        = `(?s)INSERT INTO tokens \(token, user_id, type, created_at\)\s+VALUES \(\?, \?, \?, \?\)`
	findTokenForUpdateQuery = `(?s)SELECT token, user_id, type, created_at\s+FROM tokens WHERE token = \? FOR UPDATE`
	deleteTokenQuery        = `DELETE FROM tokens WHERE token = \?`
	findPostAuthorQuery     = `SELECT author FROM posts WHERE id = \?`
	findCommentAuthorQuery  = `SELECT author FROM comments WHERE id = \?`
	countPostVotesQuery     = `SELECT COUNT\(\*\) FROM votes WHERE parent_post = \? AND type = \?`
	countCommentVotesQuery  = `SELECT COUNT\(\*\) FROM votes WHERE parent_comment = \? AND type = \?`
	findPostVoteQuery       = `SELECT type FROM votes WHERE parent_post = \? AND user_id = \?`
	deletePostVoteQuery     = `DELETE FROM votes WHERE parent_post = \? AND user_id = \?`
	insertPostVoteQuery     = `INSERT INTO votes \(parent_post, user_id, type\) VALUES \(\?, \?, \?\)`
	deleteCommentVoteQuery  = `DELETE FROM votes WHERE parent_comment = \? AND user_id = \?`
	insertCommentVoteQuery  = `INSERT INTO votes \(parent_comment, user_id, type\) VALUES \(\?, \?, \?\)`
)

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, func()) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	return db, mock, func() { _ = db.Close() }
}

func newCredentialStore(t *testing.T) *credential.Store {
	t.Helper()

	store, err := credential.NewStore(bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to create credential store: %v", err)
	}
	return store
}

func mustHash(t *testing.T, store *credential.Store, password string) string {
	t.Helper()

	hash, err := store.Hash(password)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	return hash
}

func userRow(id uint64, username, email, hash string) *sqlmock.Rows {
	return sqlmock.NewRows(userColumns).AddRow(
		id, username, email, hash, "Ada", "Lovelace", true, false, time.Now(), nil,
	)
}
