// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"testing"

	"task-manager/api/internal/database"
	"task-manager/api/internal/models"

	"github.com/gofrs/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB returns a migrated, private in-memory SQLite database that is closed
// when the test ends.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	config := database.DefaultPoolConfig()
	config.Driver = database.DriverSQLite
	config.DSN = "file:" + uuid.Must(uuid.NewV4()).String() + "?mode=memory&cache=shared&_foreign_keys=1"
	config.MaxOpenConns = 1
	config.MaxIdleConns = 1
	config.ConnMaxLifetime = 0
	config.ConnMaxIdleTime = 0
	config.LogLevel = logger.Silent

	pool, err := database.NewDatabasePool(config)
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	t.Cleanup(func() { _ = pool.Close() })

	if err := database.Migrate(pool.DB); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}
	return pool.DB
}

// CreateUser inserts a user whose password is the bcrypt hash of password.
func CreateUser(t testing.TB, db *gorm.DB, username, password string, role models.Role) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}

	user := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: string(hash),
		Role:     role,
		IsActive: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return user
}

func CreateTask(t testing.TB, db *gorm.DB, owner *models.User, title string, completed bool) *models.Task {
	t.Helper()

	task := &models.Task{UserID: owner.ID, Title: title, Completed: completed}
	if err := db.Omit("User").Create(task).Error; err != nil {
		t.Fatalf("create task %s: %v", title, err)
	}
	task.User = *owner
	return task
}
