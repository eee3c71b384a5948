package services

import (
	"log"
	"time"

	"challenge-streak-system/models"
	"challenge-streak-system/streak"

	"gorm.io/gorm"
)

type TournamentService struct {
	DB     *gorm.DB
	awards *AwardService
}

func NewTournamentService(db *gorm.DB) *TournamentService {
	return &TournamentService{DB: db, awards: NewAwardService(db)}
}

// CreateTournament persists the tournament, its member challenges and its
// award template.
func (s *TournamentService) CreateTournament(t *models.Tournament) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(t).Error; err != nil {
			return err
		}
		return tx.Create(&models.TournamentAward{TournamentID: t.ID}).Error
	})
}

// ListActive returns tournaments still running at the given time, with
// member challenges and participant counts.
func (s *TournamentService) ListActive(now time.Time) ([]models.Tournament, error) {
	var tournaments []models.Tournament
	if err := s.DB.Preload("Challenges").
		Where("is_active = ? AND finish_date >= ?", true, now).
		Order("created_at DESC").
		Find(&tournaments).Error; err != nil {
		return nil, err
	}
	for i := range tournaments {
		s.DB.Model(&models.UserTournament{}).
			Where("tournament_id = ?", tournaments[i].ID).
			Count(&tournaments[i].ParticipantsCount)
	}
	return tournaments, nil
}

// GetByID loads one tournament; when a user is given, their standing is
// loaded too (nil when they have not joined).
func (s *TournamentService) GetByID(tournamentID, externalUserID string) (*models.Tournament, *models.UserTournament, error) {
	var t models.Tournament
	err := s.DB.Preload("Challenges").First(&t, "id = ?", tournamentID).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil, ErrTournamentNotFound
	}
	if err != nil {
		return nil, nil, err
	}
	if externalUserID == "" {
		return &t, nil, nil
	}

	var ut models.UserTournament
	err = s.DB.Where("tournament_id = ? AND external_user_id = ?", tournamentID, externalUserID).
		First(&ut).Error
	if err == gorm.ErrRecordNotFound {
		return &t, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}
	return &t, &ut, nil
}

// RecordDayProgress feeds a challenge completion into every active
// tournament containing that challenge: the day record collects the
// completed challenge and its completion status is kept current for the
// ongoing day. Failure counting is left to the day-end pass.
func (s *TournamentService) RecordDayProgress(externalUserID, challengeID string, now time.Time) error {
	today := streak.Day(now)

	var tournaments []models.Tournament
	if err := s.DB.Preload("Challenges").
		Joins("JOIN tournament_challenges tc ON tc.tournament_id = tournaments.id").
		Where("tc.challenge_id = ? AND tournaments.is_active = ? AND tournaments.finish_date >= ?",
			challengeID, true, now).
		Find(&tournaments).Error; err != nil {
		return err
	}

	for i := range tournaments {
		t := &tournaments[i]
		err := s.DB.Transaction(func(tx *gorm.DB) error {
			ut := models.UserTournament{ExternalUserID: externalUserID, TournamentID: t.ID}
			if err := tx.Where("external_user_id = ? AND tournament_id = ?", externalUserID, t.ID).
				FirstOrCreate(&ut).Error; err != nil {
				return err
			}
			if ut.IsFailed {
				return nil
			}

			day := models.UserTournamentDay{UserTournamentID: ut.ID, Date: today}
			if err := tx.Where("user_tournament_id = ? AND date = ?", ut.ID, today).
				FirstOrCreate(&day).Error; err != nil {
				return err
			}

			var challenge models.Challenge
			if err := tx.First(&challenge, "id = ?", challengeID).Error; err != nil {
				return err
			}
			if err := tx.Model(&day).Association("CompletedChallenges").Append(&challenge); err != nil {
				return err
			}
			return s.refreshDayCompletion(tx, &day, t)
		})
		if err != nil {
			log.Printf("⚠️ Tournament day progress failed: user=%s tournament=%s: %v",
				externalUserID, t.ID, err)
		}
	}
	return nil
}

// refreshDayCompletion derives IsCompleted: the day's completed set must
// cover every challenge the tournament requires.
func (s *TournamentService) refreshDayCompletion(tx *gorm.DB, day *models.UserTournamentDay, t *models.Tournament) error {
	completed := tx.Model(day).Association("CompletedChallenges").Count()
	day.IsCompleted = len(t.Challenges) > 0 && completed >= int64(len(t.Challenges))
	return tx.Save(day).Error
}

// ProcessDayEnd finalizes the given date for every active, non-failed
// participation of every tournament whose window covers it, then recomputes
// failure counters from the full day history. Meant to run once per day
// after the last challenge window closes; re-running it is a no-op.
// A participation missing its day record gets one, finalized incomplete.
func (s *TournamentService) ProcessDayEnd(date time.Time) error {
	day := streak.Day(date)

	var tournaments []models.Tournament
	if err := s.DB.Preload("Challenges").
		Where("is_active = ? AND start_date <= ? AND finish_date >= ?", true, day, day).
		Find(&tournaments).Error; err != nil {
		return err
	}

	for i := range tournaments {
		t := &tournaments[i]
		var participations []models.UserTournament
		if err := s.DB.Where("tournament_id = ? AND is_failed = ?", t.ID, false).
			Find(&participations).Error; err != nil {
			log.Printf("⚠️ Day-end scan failed for tournament %s: %v", t.ID, err)
			continue
		}
		for j := range participations {
			if err := s.finalizeDay(&participations[j], t, day); err != nil {
				log.Printf("⚠️ Day-end finalize failed: participation=%s date=%s: %v",
					participations[j].ID, day.Format(streak.DateLayout), err)
			}
		}
	}
	return nil
}

func (s *TournamentService) finalizeDay(ut *models.UserTournament, t *models.Tournament, day time.Time) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		record := models.UserTournamentDay{UserTournamentID: ut.ID, Date: day}
		if err := tx.Where("user_tournament_id = ? AND date = ?", ut.ID, day).
			FirstOrCreate(&record).Error; err != nil {
			return err
		}
		if err := s.refreshDayCompletion(tx, &record, t); err != nil {
			return err
		}
		return s.recomputeStanding(tx, ut)
	})
}

// recomputeStanding rescans the participation's entire day history; the
// rescan keeps the pass idempotent and self-healing after a missed run.
func (s *TournamentService) recomputeStanding(tx *gorm.DB, ut *models.UserTournament) error {
	var records []models.UserTournamentDay
	if err := tx.Where("user_tournament_id = ?", ut.ID).
		Order("date ASC").
		Find(&records).Error; err != nil {
		return err
	}

	outcomes := make([]streak.DayOutcome, 0, len(records))
	for _, r := range records {
		outcomes = append(outcomes, streak.DayOutcome{Date: r.Date, Completed: r.IsCompleted})
	}

	standing := streak.EvaluateTournament(outcomes, ut.IsFailed)
	newlyFailed := standing.IsFailed && !ut.IsFailed
	ut.TotalFailures = standing.TotalFailures
	ut.ConsecutiveFailures = standing.ConsecutiveFailures
	ut.IsFailed = standing.IsFailed
	if err := tx.Save(ut).Error; err != nil {
		return err
	}
	if newlyFailed {
		log.Printf("💥 Tournament participation failed: user=%s tournament=%s (consecutive=%d total=%d)",
			ut.ExternalUserID, ut.TournamentID, standing.ConsecutiveFailures, standing.TotalFailures)
	}
	return nil
}

// EvaluateDay finalizes one day for one participation — the single-row
// variant of ProcessDayEnd, exposed for manual triggers and backfills.
func (s *TournamentService) EvaluateDay(participationID string, date time.Time) (*models.UserTournament, error) {
	var ut models.UserTournament
	err := s.DB.First(&ut, "id = ?", participationID).Error
	if err == gorm.ErrRecordNotFound {
		return nil, ErrParticipationNotFound
	}
	if err != nil {
		return nil, err
	}

	var t models.Tournament
	if err := s.DB.Preload("Challenges").First(&t, "id = ?", ut.TournamentID).Error; err != nil {
		return nil, err
	}
	if err := s.finalizeDay(&ut, &t, streak.Day(date)); err != nil {
		return nil, err
	}
	return &ut, nil
}

// ProcessFinishedTournaments awards every non-failed participation of each
// finished tournament and deactivates the tournament in the same
// transaction — the is_active flip is what keeps a second invocation from
// re-firing, with the unique award index as the backstop.
func (s *TournamentService) ProcessFinishedTournaments(now time.Time) (int, error) {
	var finished []models.Tournament
	if err := s.DB.Where("finish_date <= ? AND is_active = ?", now, true).
		Find(&finished).Error; err != nil {
		return 0, err
	}

	processed := 0
	for i := range finished {
		t := &finished[i]
		err := s.DB.Transaction(func(tx *gorm.DB) error {
			var winners []models.UserTournament
			if err := tx.Where("tournament_id = ? AND is_failed = ?", t.ID, false).
				Find(&winners).Error; err != nil {
				return err
			}
			for _, ut := range winners {
				if _, err := s.awards.EnsureTournamentAward(tx, ut.ExternalUserID, t.ID); err != nil {
					return err
				}
			}
			t.IsActive = false
			return tx.Save(t).Error
		})
		if err != nil {
			log.Printf("⚠️ Close-out failed for tournament %s: %v", t.ID, err)
			continue
		}
		processed++
		log.Printf("🏁 Tournament closed: %s", t.Title)
	}
	return processed, nil
}

// Leaderboard ranks a tournament's participants: fewest failures first,
// survivors ahead of the failed.
func (s *TournamentService) Leaderboard(tournamentID string, limit int) ([]models.UserTournament, error) {
	if limit < 1 || limit > 100 {
		limit = 50
	}
	var standings []models.UserTournament
	err := s.DB.Where("tournament_id = ?", tournamentID).
		Order("is_failed ASC, total_failures ASC, consecutive_failures ASC").
		Limit(limit).
		Find(&standings).Error
	return standings, err
}
