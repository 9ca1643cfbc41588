package app

import (
	"context"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(AllModels()...); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}
	return db
}

func seedUser(t *testing.T, db *gorm.DB, id string, admin bool) {
	t.Helper()
	err := NewUserRepo(db).CreateOrUpdate(context.Background(), &User{
		ID:      id,
		Email:   id + "@example.com",
		Name:    id,
		IsAdmin: admin,
	})
	if err != nil {
		t.Fatalf("seed user %s: %v", id, err)
	}
}
