package store

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/grbellar/lore-tracker-sub000/internal/util"
)

// openAccountsTestStore connects to the test database and applies migrations.
// Skipped unless LORE_TEST_DATABASE_URL is set.
func openAccountsTestStore(t *testing.T) *PostgresStore {
	t.Helper()

	dsn := strings.TrimSpace(os.Getenv("LORE_TEST_DATABASE_URL"))
	if dsn == "" {
		t.Skip("LORE_TEST_DATABASE_URL is not set")
	}

	ctx := context.Background()
	db, err := Open(ctx, dsn)
	if err != nil {
		t.Fatalf("open postgres: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := ApplyMigrations(ctx, db, "../../db/migrations"); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	return NewPostgresStore(db)
}

func TestUserLifecycle(t *testing.T) {
	s := openAccountsTestStore(t)
	ctx := context.Background()

	email := util.NewID("") + "@example.test"
	user := User{
		ID:           util.NewID("usr"),
		DisplayName:  "Avery",
		Email:        email,
		PasswordHash: "not-a-real-hash",
	}
	if err := s.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	// Email lookup is case-insensitive.
	got, err := s.GetUserByEmail(ctx, strings.ToUpper(email))
	if err != nil {
		t.Fatalf("GetUserByEmail: %v", err)
	}
	if got.ID != user.ID || got.DisplayName != "Avery" {
		t.Fatalf("unexpected user: %+v", got)
	}
	if got.IsEmailVerified {
		t.Fatal("new user must start unverified")
	}

	tokenHash := util.NewID("")
	if err := s.UpdateUserVerificationToken(ctx, user.ID, tokenHash, time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("UpdateUserVerificationToken: %v", err)
	}
	if err := s.VerifyUserEmail(ctx, tokenHash); err != nil {
		t.Fatalf("VerifyUserEmail: %v", err)
	}
	if err := s.VerifyUserEmail(ctx, tokenHash); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected second verification to miss, got %v", err)
	}

	got, err = s.GetUserByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetUserByID: %v", err)
	}
	if !got.IsEmailVerified {
		t.Fatal("user should be verified")
	}

	refreshHash := util.NewID("")
	if err := s.SaveRefreshSession(ctx, refreshHash, user.ID, time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("SaveRefreshSession: %v", err)
	}
	fromSession, err := s.LookupRefreshSession(ctx, refreshHash)
	if err != nil {
		t.Fatalf("LookupRefreshSession: %v", err)
	}
	if fromSession.ID != user.ID {
		t.Fatalf("unexpected session user: %+v", fromSession)
	}

	if err := s.RevokeAllRefreshSessions(ctx, user.ID); err != nil {
		t.Fatalf("RevokeAllRefreshSessions: %v", err)
	}
	if _, err := s.LookupRefreshSession(ctx, refreshHash); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected revoked session to miss, got %v", err)
	}

	if err := s.DeleteUser(ctx, user.ID); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}
	if _, err := s.GetUserByID(ctx, user.ID); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected deleted user to miss, got %v", err)
	}
	if err := s.DeleteUser(ctx, user.ID); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected second delete to miss, got %v", err)
	}
}

func TestPasswordResetFlow(t *testing.T) {
	s := openAccountsTestStore(t)
	ctx := context.Background()

	user := User{
		ID:           util.NewID("usr"),
		DisplayName:  "Avery",
		Email:        util.NewID("") + "@example.test",
		PasswordHash: "old-hash",
	}
	if err := s.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	defer s.DeleteUser(ctx, user.ID)

	tokenHash := util.NewID("")
	if err := s.CreatePasswordReset(ctx, user.ID, tokenHash, time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("CreatePasswordReset: %v", err)
	}

	userID, err := s.GetPasswordReset(ctx, tokenHash)
	if err != nil {
		t.Fatalf("GetPasswordReset: %v", err)
	}
	if userID != user.ID {
		t.Fatalf("reset resolved to %q, want %q", userID, user.ID)
	}

	if err := s.UpdateUserPassword(ctx, user.ID, "new-hash"); err != nil {
		t.Fatalf("UpdateUserPassword: %v", err)
	}
	if err := s.MarkPasswordResetUsed(ctx, tokenHash); err != nil {
		t.Fatalf("MarkPasswordResetUsed: %v", err)
	}
	if _, err := s.GetPasswordReset(ctx, tokenHash); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected used reset to miss, got %v", err)
	}

	got, err := s.GetUserByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetUserByID: %v", err)
	}
	if got.PasswordHash != "new-hash" {
		t.Fatalf("password hash not updated: %q", got.PasswordHash)
	}
}

func TestAccessTokenRevocation(t *testing.T) {
	s := openAccountsTestStore(t)
	ctx := context.Background()

	jti := util.NewID("jti")
	revoked, err := s.IsAccessTokenRevoked(ctx, jti)
	if err != nil {
		t.Fatalf("IsAccessTokenRevoked: %v", err)
	}
	if revoked {
		t.Fatal("fresh jti must not be revoked")
	}

	if err := s.RevokeAccessToken(ctx, jti, time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("RevokeAccessToken: %v", err)
	}
	// Revoking twice is a no-op.
	if err := s.RevokeAccessToken(ctx, jti, time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("RevokeAccessToken again: %v", err)
	}

	revoked, err = s.IsAccessTokenRevoked(ctx, jti)
	if err != nil {
		t.Fatalf("IsAccessTokenRevoked: %v", err)
	}
	if !revoked {
		t.Fatal("jti should be revoked")
	}
}
