package services

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/planhive/planhive/backend/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var testDBSeq atomic.Int64

// setupTestDB opens a fresh in-memory database per test so tests never
// observe each other's rows.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:services_test_%d?mode=memory&cache=shared", testDBSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.RefreshToken{},
		&models.Project{},
		&models.Task{},
		&models.Collaborator{},
	); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

func createTestUser(t *testing.T, db *gorm.DB, name string) *models.User {
	t.Helper()

	user := &models.User{
		Name:     name,
		Email:    name + "@example.com",
		Password: "not-a-real-hash",
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create user %s: %v", name, err)
	}
	return user
}

func createTestProject(t *testing.T, db *gorm.DB, creatorID uint, title string, start, end time.Time) *models.Project {
	t.Helper()

	project := &models.Project{
		Title:       title,
		Description: "test project",
		Label:       "test",
		CreatorID:   creatorID,
		StartDate:   start,
		EndDate:     end,
	}
	if err := db.Create(project).Error; err != nil {
		t.Fatalf("failed to create project %s: %v", title, err)
	}
	if err := insertMemberships(db, models.KindProject, project.ID, creatorID, nil); err != nil {
		t.Fatalf("failed to insert creator membership: %v", err)
	}
	return project
}

func createTestTask(t *testing.T, db *gorm.DB, projectID, creatorID uint, title string, start, end time.Time) *models.Task {
	t.Helper()

	task := &models.Task{
		ProjectID: projectID,
		Title:     title,
		CreatorID: creatorID,
		StartDate: start,
		EndDate:   end,
		Status:    models.TaskStatusOpen,
	}
	if err := db.Create(task).Error; err != nil {
		t.Fatalf("failed to create task %s: %v", title, err)
	}
	if err := insertMemberships(db, models.KindTask, task.ID, creatorID, nil); err != nil {
		t.Fatalf("failed to insert creator membership: %v", err)
	}
	return task
}

func testWindow() (time.Time, time.Time) {
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}
