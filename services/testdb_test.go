package services

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"challenge-streak-system/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens a per-test in-memory database with the full schema. The
// shared-cache DSN is keyed on the test name so parallel tests never see
// each other's data.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Challenge{},
		&models.UserChallenge{},
		&models.UserChallengeCompletion{},
		&models.SuperChallenge{},
		&models.UserSuperChallenge{},
		&models.UserSuperChallengeCompletion{},
		&models.Tournament{},
		&models.UserTournament{},
		&models.UserTournamentDay{},
		&models.ChallengeAward{},
		&models.SuperChallengeAward{},
		&models.TournamentAward{},
		&models.UserAward{},
		&models.ParticipantUser{},
	); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

func seedChallenge(t *testing.T, svc *ChallengeService, title string) *models.Challenge {
	t.Helper()
	ch := &models.Challenge{Title: title, StartTime: "00:00", EndTime: "23:59"}
	if err := svc.CreateChallenge(ch); err != nil {
		t.Fatalf("seed challenge %q: %v", title, err)
	}
	return ch
}

func utcDay(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func seedCompletion(t *testing.T, db *gorm.DB, userChallengeID string, on time.Time) {
	t.Helper()
	c := models.UserChallengeCompletion{
		UserChallengeID: userChallengeID,
		CompletedAt:     on.Add(12 * time.Hour),
		CompletedOn:     on,
		IsActive:        true,
	}
	if err := db.Create(&c).Error; err != nil {
		t.Fatalf("seed completion on %s: %v", on.Format("2006-01-02"), err)
	}
}

func countUserAwards(t *testing.T, db *gorm.DB, externalUserID string) int64 {
	t.Helper()
	var n int64
	if err := db.Model(&models.UserAward{}).
		Where("external_user_id = ?", externalUserID).
		Count(&n).Error; err != nil {
		t.Fatalf("count awards: %v", err)
	}
	return n
}
