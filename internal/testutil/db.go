// Package testutil holds fixtures shared by the module tests.
package testutil

import (
	"fmt"
	"testing"

	"anoa.com/devconnector/internal/entity"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB opens a private in-memory sqlite database with every table migrated.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=1", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(&entity.User{}, &entity.Profile{}, &entity.Post{}))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	return db
}

// CreateUser inserts a user with the given name and an email derived from it.
func CreateUser(t testing.TB, db *gorm.DB, name string) *entity.User {
	t.Helper()

	u := &entity.User{
		Name:     name,
		Email:    fmt.Sprintf("%s-%s@example.com", name, uuid.NewString()[:8]),
		Password: "x",
		Avatar:   "https://www.gravatar.com/avatar/test",
	}
	require.NoError(t, db.Create(u).Error)
	return u
}
