package database

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"time-ledger/internal/config"
	"time-ledger/internal/models"
	"time-ledger/internal/tracker"
	"time-ledger/internal/util"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := Init(config.DatabaseConfig{Path: filepath.Join(t.TempDir(), "test.db")})
	if err != nil {
		t.Fatalf("Init test database failed: %v", err)
	}
	t.Cleanup(func() { _ = Close(db) })
	return db
}

func seedUser(t *testing.T, db *gorm.DB) (models.User, models.Client) {
	t.Helper()
	user := models.User{Username: "tester", PasswordHash: "x"}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	client := models.Client{ID: uuid.NewString(), UserID: user.ID, Name: "Acme", Color: "#111111"}
	if err := db.Create(&client).Error; err != nil {
		t.Fatalf("create client: %v", err)
	}
	return user, client
}

// TestMigrate_OneActiveEntry rejects a second running timer for the same user
func TestMigrate_OneActiveEntry(t *testing.T) {
	db := setupTestDB(t)
	if err := Migrate(db); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	user, client := seedUser(t, db)

	first := models.TimeEntry{ID: uuid.NewString(), UserID: user.ID, ClientID: client.ID, TaskName: "a", StartedAt: time.Now().UTC()}
	if err := db.Create(&first).Error; err != nil {
		t.Fatalf("create first active entry: %v", err)
	}
	second := models.TimeEntry{ID: uuid.NewString(), UserID: user.ID, ClientID: client.ID, TaskName: "b", StartedAt: time.Now().UTC()}
	if err := db.Create(&second).Error; err == nil {
		t.Fatal("second active entry was accepted")
	}

	// completed entries are not limited
	end := time.Now().UTC()
	for i := 0; i < 2; i++ {
		e := models.TimeEntry{ID: uuid.NewString(), UserID: user.ID, ClientID: client.ID, TaskName: "c", StartedAt: end.Add(-time.Hour), EndedAt: &end}
		if err := db.Create(&e).Error; err != nil {
			t.Fatalf("create completed entry: %v", err)
		}
	}
}

// TestMigrate_CascadeDeleteClient removes entries with their client
func TestMigrate_CascadeDeleteClient(t *testing.T) {
	db := setupTestDB(t)
	if err := Migrate(db); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	user, client := seedUser(t, db)
	end := time.Now().UTC()
	e := models.TimeEntry{ID: uuid.NewString(), UserID: user.ID, ClientID: client.ID, TaskName: "a", StartedAt: end.Add(-time.Minute), EndedAt: &end}
	if err := db.Create(&e).Error; err != nil {
		t.Fatalf("create entry: %v", err)
	}

	if err := db.Delete(&models.Client{}, "id = ?", client.ID).Error; err != nil {
		t.Fatalf("delete client: %v", err)
	}
	var n int64
	db.Model(&models.TimeEntry{}).Where("client_id = ?", client.ID).Count(&n)
	if n != 0 {
		t.Errorf("entries left after client delete = %d, want 0", n)
	}
}

// TestRunMigrations_RecolorsLegacyClients rewrites the old default colour
func TestRunMigrations_RecolorsLegacyClients(t *testing.T) {
	db := setupTestDB(t)
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate() error = %v", err)
	}
	user, kept := seedUser(t, db)
	legacy := models.Client{ID: uuid.NewString(), UserID: user.ID, Name: "Globex", Color: tracker.LegacyDefaultColor}
	if err := db.Create(&legacy).Error; err != nil {
		t.Fatalf("create legacy client: %v", err)
	}

	if err := RunMigrations(db); err != nil {
		t.Fatalf("RunMigrations() error = %v", err)
	}

	var got models.Client
	db.First(&got, "id = ?", legacy.ID)
	if got.Color != tracker.ClientColor("Globex") {
		t.Errorf("legacy color = %s, want %s", got.Color, tracker.ClientColor("Globex"))
	}
	db.First(&got, "id = ?", kept.ID)
	if got.Color != "#111111" {
		t.Errorf("custom color changed to %s", got.Color)
	}
}

// TestMigrate_LongComment stores the ciphertext of a maximal comment intact
func TestMigrate_LongComment(t *testing.T) {
	db := setupTestDB(t)
	if err := Migrate(db); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	user, client := seedUser(t, db)

	comment := strings.Repeat("😀", tracker.MaxCommentLength)
	enc, err := util.EncryptField("k", comment)
	if err != nil {
		t.Fatalf("EncryptField: %v", err)
	}
	if len(enc) <= 2048 {
		t.Fatalf("ciphertext length = %d, want above 2048", len(enc))
	}
	end := time.Now().UTC()
	e := models.TimeEntry{ID: uuid.NewString(), UserID: user.ID, ClientID: client.ID, TaskName: "a",
		StartedAt: end.Add(-time.Minute), EndedAt: &end, CommentEnc: enc}
	if err := db.Create(&e).Error; err != nil {
		t.Fatalf("create entry: %v", err)
	}

	var got models.TimeEntry
	if err := db.First(&got, "id = ?", e.ID).Error; err != nil {
		t.Fatalf("load entry: %v", err)
	}
	if util.DecryptField("k", got.CommentEnc) != comment {
		t.Error("long comment did not round trip")
	}
}
