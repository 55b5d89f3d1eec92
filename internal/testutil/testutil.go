// Package testutil builds throwaway databases and accounts for package tests.
package testutil

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/Yeetogami/Odoo-hackathon-2025/internal/models"
	"github.com/Yeetogami/Odoo-hackathon-2025/internal/storage"
)

const Password = "password123"

// NewDB opens a migrated SQLite database in a per-test temp dir.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := storage.Open("sqlite", filepath.Join(t.TempDir(), "stackit.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = storage.Close(db) })
	return db
}

// Logger discards everything.
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// CreateUser inserts a user whose password is Password.
func CreateUser(t *testing.T, db *gorm.DB, username string, admin bool) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(Password), bcrypt.MinCost)
	require.NoError(t, err)

	u := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: string(hash),
		IsAdmin:      admin,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

// Viewer is the caller identity for u.
func Viewer(u *models.User) models.Viewer {
	return models.Viewer{ID: u.ID, Username: u.Username, IsAdmin: u.IsAdmin}
}
