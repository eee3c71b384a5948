package services

import (
	"testing"
	"time"

	"challenge-streak-system/models"
)

func seedTournament(t *testing.T, svc *TournamentService, title string, start, finish time.Time, members ...models.Challenge) *models.Tournament {
	t.Helper()
	tour := &models.Tournament{
		Title:      title,
		StartDate:  start,
		FinishDate: finish,
		IsActive:   true,
		Challenges: members,
	}
	if err := svc.CreateTournament(tour); err != nil {
		t.Fatalf("seed tournament %q: %v", title, err)
	}
	return tour
}

func joinTournament(t *testing.T, svc *TournamentService, externalUserID, tournamentID string) *models.UserTournament {
	t.Helper()
	ut := models.UserTournament{ExternalUserID: externalUserID, TournamentID: tournamentID}
	if err := svc.DB.Where("external_user_id = ? AND tournament_id = ?", externalUserID, tournamentID).
		FirstOrCreate(&ut).Error; err != nil {
		t.Fatalf("join tournament: %v", err)
	}
	return &ut
}

func TestTournamentDayEndFailureCounting(t *testing.T) {
	db := newTestDB(t)
	challenges := NewChallengeService(db, ResetAction{})
	svc := NewTournamentService(db)

	ch := seedChallenge(t, challenges, "Daily Walk")
	tour := seedTournament(t, svc, "March Cup", utcDay(2026, 3, 1), utcDay(2026, 3, 7), *ch)
	ut := joinTournament(t, svc, "user-1", tour.ID)

	// Day 1 passes without any completion: one failure, still in the run.
	if err := svc.ProcessDayEnd(utcDay(2026, 3, 1)); err != nil {
		t.Fatalf("day end 1: %v", err)
	}
	var after models.UserTournament
	db.First(&after, "id = ?", ut.ID)
	if after.TotalFailures != 1 || after.ConsecutiveFailures != 1 || after.IsFailed {
		t.Fatalf("after one miss = %+v, want 1/1 not failed", after)
	}

	// Day 2 missed as well: second failure ends the run.
	if err := svc.ProcessDayEnd(utcDay(2026, 3, 2)); err != nil {
		t.Fatalf("day end 2: %v", err)
	}
	db.First(&after, "id = ?", ut.ID)
	if !after.IsFailed || after.TotalFailures != 2 || after.ConsecutiveFailures != 2 {
		t.Fatalf("after two misses = %+v, want 2/2 failed", after)
	}

	// Re-running the same day changes nothing.
	if err := svc.ProcessDayEnd(utcDay(2026, 3, 2)); err != nil {
		t.Fatalf("day end rerun: %v", err)
	}
	db.First(&after, "id = ?", ut.ID)
	if after.TotalFailures != 2 || after.ConsecutiveFailures != 2 {
		t.Errorf("rerun changed counters: %+v", after)
	}
}

func TestTournamentCompletedDayCountsNoFailure(t *testing.T) {
	db := newTestDB(t)
	challenges := NewChallengeService(db, ResetAction{})
	svc := NewTournamentService(db)

	ch := seedChallenge(t, challenges, "Daily Ride")
	tour := seedTournament(t, svc, "Riders Cup", utcDay(2026, 3, 1), utcDay(2026, 3, 7), *ch)
	joinTournament(t, svc, "user-1", tour.ID)

	// Completing the only member challenge covers the tournament day.
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	if _, err := challenges.RegisterCompletion("user-1", ch.ID, now); err != nil {
		t.Fatalf("register completion: %v", err)
	}
	if err := svc.ProcessDayEnd(utcDay(2026, 3, 1)); err != nil {
		t.Fatalf("day end: %v", err)
	}

	var ut models.UserTournament
	if err := db.Where("external_user_id = ? AND tournament_id = ?", "user-1", tour.ID).
		First(&ut).Error; err != nil {
		t.Fatalf("load standing: %v", err)
	}
	if ut.TotalFailures != 0 || ut.IsFailed {
		t.Errorf("standing after completed day = %+v, want clean", ut)
	}

	var day models.UserTournamentDay
	if err := db.Where("user_tournament_id = ?", ut.ID).First(&day).Error; err != nil {
		t.Fatalf("load day record: %v", err)
	}
	if !day.IsCompleted {
		t.Error("day record not marked completed")
	}
}

func TestTournamentScatteredMissesTerminal(t *testing.T) {
	db := newTestDB(t)
	challenges := NewChallengeService(db, ResetAction{})
	svc := NewTournamentService(db)

	ch := seedChallenge(t, challenges, "Daily Row")
	tour := seedTournament(t, svc, "Rowing Cup", utcDay(2026, 3, 1), utcDay(2026, 3, 7), *ch)
	joinTournament(t, svc, "user-1", tour.ID)

	// Miss day 1, complete day 2, miss day 3: two misses in total.
	if err := svc.ProcessDayEnd(utcDay(2026, 3, 1)); err != nil {
		t.Fatalf("day end 1: %v", err)
	}
	if _, err := challenges.RegisterCompletion("user-1", ch.ID, time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)); err != nil {
		t.Fatalf("register completion: %v", err)
	}
	if err := svc.ProcessDayEnd(utcDay(2026, 3, 2)); err != nil {
		t.Fatalf("day end 2: %v", err)
	}
	if err := svc.ProcessDayEnd(utcDay(2026, 3, 3)); err != nil {
		t.Fatalf("day end 3: %v", err)
	}

	var ut models.UserTournament
	db.Where("external_user_id = ? AND tournament_id = ?", "user-1", tour.ID).First(&ut)
	if !ut.IsFailed || ut.TotalFailures != 2 || ut.ConsecutiveFailures != 1 {
		t.Errorf("standing = %+v, want failed with total 2 / consecutive 1", ut)
	}
}

func TestProcessFinishedTournaments(t *testing.T) {
	db := newTestDB(t)
	challenges := NewChallengeService(db, ResetAction{})
	svc := NewTournamentService(db)

	ch := seedChallenge(t, challenges, "Daily Climb")
	tour := seedTournament(t, svc, "Climb Cup", utcDay(2026, 2, 1), utcDay(2026, 2, 7), *ch)

	joinTournament(t, svc, "user-1", tour.ID)
	loser := joinTournament(t, svc, "user-2", tour.ID)
	if err := db.Model(loser).Update("is_failed", true).Error; err != nil {
		t.Fatalf("mark loser failed: %v", err)
	}

	n, err := svc.ProcessFinishedTournaments(utcDay(2026, 2, 8))
	if err != nil {
		t.Fatalf("close-out: %v", err)
	}
	if n != 1 {
		t.Fatalf("processed %d tournaments, want 1", n)
	}
	if got := countUserAwards(t, db, "user-1"); got != 1 {
		t.Errorf("winner awards = %d, want 1", got)
	}
	if got := countUserAwards(t, db, "user-2"); got != 0 {
		t.Errorf("failed participant awards = %d, want 0", got)
	}

	var after models.Tournament
	db.First(&after, "id = ?", tour.ID)
	if after.IsActive {
		t.Error("closed tournament still active")
	}

	// Second sweep finds nothing: the is_active flip makes close-out one-shot.
	n, err = svc.ProcessFinishedTournaments(utcDay(2026, 2, 9))
	if err != nil {
		t.Fatalf("second close-out: %v", err)
	}
	if n != 0 {
		t.Errorf("second sweep processed %d, want 0", n)
	}
	if got := countUserAwards(t, db, "user-1"); got != 1 {
		t.Errorf("winner awards after rerun = %d, want 1", got)
	}
}

func TestJoinChallengeEnrollsActiveTournaments(t *testing.T) {
	db := newTestDB(t)
	challenges := NewChallengeService(db, ResetAction{})
	svc := NewTournamentService(db)

	ch := seedChallenge(t, challenges, "Daily Sprint")
	tour := seedTournament(t, svc, "Sprint Cup", utcDay(2026, 3, 1), utcDay(2026, 3, 7), *ch)

	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	if _, _, err := challenges.JoinChallenge("user-1", ch.ID, now); err != nil {
		t.Fatalf("join challenge: %v", err)
	}

	var n int64
	db.Model(&models.UserTournament{}).
		Where("external_user_id = ? AND tournament_id = ?", "user-1", tour.ID).
		Count(&n)
	if n != 1 {
		t.Errorf("tournament enrollments = %d, want 1", n)
	}
}
