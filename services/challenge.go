package services

import (
	"fmt"
	"log"
	"time"

	"challenge-streak-system/models"
	"challenge-streak-system/streak"

	"gorm.io/gorm"
)

// StreakState is the result shape returned by completion registration and
// recompute calls.
type StreakState struct {
	CurrentStreak      int        `json:"current_streak"`
	HighestStreak      int        `json:"highest_streak"`
	TotalCompletions   int        `json:"total_completions"`
	LastCompletionDate *time.Time `json:"last_completion_date,omitempty"`
	Failed             bool       `json:"failed"`
}

type ChallengeService struct {
	DB            *gorm.DB
	FailureAction FailureAction
	awards        *AwardService
}

func NewChallengeService(db *gorm.DB, action FailureAction) *ChallengeService {
	return &ChallengeService{DB: db, FailureAction: action, awards: NewAwardService(db)}
}

// CreateChallenge persists a new challenge and its award template.
func (s *ChallengeService) CreateChallenge(ch *models.Challenge) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(ch).Error; err != nil {
			return err
		}
		return tx.Create(&models.ChallengeAward{ChallengeID: ch.ID}).Error
	})
}

// ListChallenges returns all challenges; when a user is given, their
// participation is attached to each row.
func (s *ChallengeService) ListChallenges(externalUserID string) ([]models.Challenge, error) {
	var challenges []models.Challenge
	if err := s.DB.Order("created_at DESC").Find(&challenges).Error; err != nil {
		return nil, err
	}
	if externalUserID == "" {
		return challenges, nil
	}

	var participations []models.UserChallenge
	if err := s.DB.Where("external_user_id = ?", externalUserID).
		Find(&participations).Error; err != nil {
		return nil, err
	}
	byChallenge := make(map[string]*models.UserChallenge, len(participations))
	for i := range participations {
		byChallenge[participations[i].ChallengeID] = &participations[i]
	}
	for i := range challenges {
		challenges[i].UserParticipation = byChallenge[challenges[i].ID]
	}
	return challenges, nil
}

// JoinChallenge returns the user's participation, creating it on first
// interaction. Joining also enrolls the user into every active tournament
// that includes the challenge. Idempotent: a second join returns the
// existing record.
func (s *ChallengeService) JoinChallenge(externalUserID, challengeID string, now time.Time) (*models.UserChallenge, bool, error) {
	var challenge models.Challenge
	if err := s.DB.First(&challenge, "id = ?", challengeID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, false, ErrChallengeNotFound
		}
		return nil, false, err
	}

	var uc models.UserChallenge
	err := s.DB.Where("external_user_id = ? AND challenge_id = ?", externalUserID, challengeID).
		First(&uc).Error
	if err == nil {
		return &uc, false, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, false, err
	}

	uc = models.UserChallenge{
		ExternalUserID: externalUserID,
		ChallengeID:    challengeID,
		StartedAt:      now.UTC(),
		IsActive:       true,
	}
	if err := s.DB.Create(&uc).Error; err != nil {
		return nil, false, err
	}

	if err := s.enrollActiveTournaments(externalUserID, challengeID, now); err != nil {
		log.Printf("⚠️ Tournament enrollment after join failed for user %s: %v", externalUserID, err)
	}
	return &uc, true, nil
}

func (s *ChallengeService) enrollActiveTournaments(externalUserID, challengeID string, now time.Time) error {
	var tournaments []models.Tournament
	if err := s.DB.
		Joins("JOIN tournament_challenges tc ON tc.tournament_id = tournaments.id").
		Where("tc.challenge_id = ? AND tournaments.is_active = ? AND tournaments.finish_date >= ?",
			challengeID, true, now).
		Find(&tournaments).Error; err != nil {
		return err
	}
	for _, t := range tournaments {
		ut := models.UserTournament{ExternalUserID: externalUserID, TournamentID: t.ID}
		if err := s.DB.
			Where("external_user_id = ? AND tournament_id = ?", externalUserID, t.ID).
			FirstOrCreate(&ut).Error; err != nil {
			return err
		}
	}
	return nil
}

// RegisterCompletion records today's completion for a user on a challenge
// and recomputes the participation's streak state in one transaction.
// Rejects duplicates for the day and completions outside the challenge's
// daily time window; both rejections leave streak state untouched.
func (s *ChallengeService) RegisterCompletion(externalUserID, challengeID string, now time.Time) (*StreakState, error) {
	var challenge models.Challenge
	if err := s.DB.First(&challenge, "id = ?", challengeID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrChallengeNotFound
		}
		return nil, err
	}
	if !challenge.WindowContains(now) {
		return nil, ErrOutsideTimeWindow
	}

	today := streak.Day(now)
	var state *StreakState
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var uc models.UserChallenge
		err := tx.Where("external_user_id = ? AND challenge_id = ?", externalUserID, challengeID).
			First(&uc).Error
		if err == gorm.ErrRecordNotFound {
			uc = models.UserChallenge{
				ExternalUserID: externalUserID,
				ChallengeID:    challengeID,
				StartedAt:      now.UTC(),
				IsActive:       true,
			}
			err = tx.Create(&uc).Error
		}
		if err != nil {
			return err
		}
		if !uc.IsActive {
			return ErrParticipationInactive
		}

		var existing int64
		if err := tx.Model(&models.UserChallengeCompletion{}).
			Where("user_challenge_id = ? AND completed_on = ? AND is_active = ?", uc.ID, today, true).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return ErrAlreadyCompletedToday
		}

		completion := models.UserChallengeCompletion{
			UserChallengeID: uc.ID,
			CompletedAt:     now.UTC(),
			CompletedOn:     today,
			IsActive:        true,
		}
		if err := tx.Create(&completion).Error; err != nil {
			return err
		}

		state, err = s.recompute(tx, &uc, today)
		return err
	})
	if err != nil {
		return nil, err
	}

	// Feed dependent records outside the participation's own transaction:
	// tournament day progress and the super-challenge completeness check each
	// serialize on their own participation rows.
	if err := s.recordTournamentProgress(externalUserID, challengeID, now); err != nil {
		log.Printf("⚠️ Tournament progress update failed for user %s: %v", externalUserID, err)
	}
	if err := s.recordSuperChallengeProgress(externalUserID, challengeID, now); err != nil {
		log.Printf("⚠️ Super challenge progress update failed for user %s: %v", externalUserID, err)
	}
	return state, nil
}

func (s *ChallengeService) recordTournamentProgress(externalUserID, challengeID string, now time.Time) error {
	return NewTournamentService(s.DB).RecordDayProgress(externalUserID, challengeID, now)
}

func (s *ChallengeService) recordSuperChallengeProgress(externalUserID, challengeID string, now time.Time) error {
	return NewSuperChallengeService(s.DB).RegisterProgress(externalUserID, challengeID, now)
}

// RecomputeStreak re-derives the streak state for one participation from
// its full completion history. Idempotent: with no new completions,
// repeated calls for the same day produce identical state.
func (s *ChallengeService) RecomputeStreak(participationID string, today time.Time) (*StreakState, error) {
	day := streak.Day(today)
	var state *StreakState
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var uc models.UserChallenge
		if err := tx.First(&uc, "id = ?", participationID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return ErrParticipationNotFound
			}
			return err
		}
		var err error
		state, err = s.recompute(tx, &uc, day)
		return err
	})
	if err != nil {
		return nil, err
	}
	return state, nil
}

// recompute is the single read-modify-write unit for one participation:
// streak summary, award check, failure evaluation, corrective action.
func (s *ChallengeService) recompute(tx *gorm.DB, uc *models.UserChallenge, today time.Time) (*StreakState, error) {
	dates, err := activeCompletionDates(tx, uc.ID)
	if err != nil {
		return nil, err
	}

	summary := streak.Calculate(dates, uc.HighestStreak, today)
	uc.CurrentStreak = summary.CurrentStreak
	uc.HighestStreak = summary.HighestStreak
	uc.TotalCompletions = summary.TotalCompletions
	uc.LastCompletionDate = summary.LastCompletion

	// Award before any corrective action: reaching the threshold and failing
	// on the same recompute still earns the award.
	if summary.HighestStreak >= streak.AwardStreakThreshold && !uc.HasAward {
		if _, err := s.awards.EnsureChallengeAward(tx, uc.ExternalUserID, uc.ChallengeID); err != nil {
			return nil, err
		}
		uc.HasAward = true
	}

	failed := streak.ChallengeHasFailed(dates, today)
	if failed {
		uc.IsFailed = true
		if err := tx.Save(uc).Error; err != nil {
			return nil, err
		}
		log.Printf("💥 Challenge participation failed: user=%s challenge=%s action=%s",
			uc.ExternalUserID, uc.ChallengeID, s.FailureAction.Name())
		if err := s.FailureAction.Apply(tx, uc); err != nil {
			return nil, err
		}
	} else if err := tx.Save(uc).Error; err != nil {
		return nil, err
	}

	return &StreakState{
		CurrentStreak:      summary.CurrentStreak,
		HighestStreak:      summary.HighestStreak,
		TotalCompletions:   summary.TotalCompletions,
		LastCompletionDate: summary.LastCompletion,
		Failed:             failed,
	}, nil
}

// UpdateAllStreaks is the daily batch: recompute every active participation
// so streaks decay even without user action. One participation's failure
// never aborts the batch.
func (s *ChallengeService) UpdateAllStreaks(today time.Time) (int, error) {
	var ids []string
	if err := s.DB.Model(&models.UserChallenge{}).
		Where("is_active = ?", true).
		Pluck("id", &ids).Error; err != nil {
		return 0, err
	}

	updated := 0
	for _, id := range ids {
		if _, err := s.RecomputeStreak(id, today); err != nil {
			log.Printf("⚠️ Streak recompute failed for participation %s: %v", id, err)
			continue
		}
		updated++
	}
	return updated, nil
}

// Deactivate freezes a participation; batch recompute skips it from then on.
func (s *ChallengeService) Deactivate(externalUserID, participationID string) error {
	return s.setActive(externalUserID, participationID, false)
}

// Reactivate resumes a deactivated participation with a fresh cycle: the
// current streak and start date reset, the highest streak, award flag and
// history survive.
func (s *ChallengeService) Reactivate(externalUserID, participationID string) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		uc, err := ownedParticipation(tx, externalUserID, participationID)
		if err != nil {
			return err
		}
		if err := deactivateCompletions(tx, uc.ID); err != nil {
			return err
		}
		uc.IsActive = true
		uc.IsFailed = false
		uc.CurrentStreak = 0
		uc.TotalCompletions = 0
		uc.LastCompletionDate = nil
		uc.StartedAt = time.Now().UTC()
		return tx.Save(uc).Error
	})
}

func (s *ChallengeService) setActive(externalUserID, participationID string, active bool) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		uc, err := ownedParticipation(tx, externalUserID, participationID)
		if err != nil {
			return err
		}
		uc.IsActive = active
		return tx.Save(uc).Error
	})
}

func ownedParticipation(tx *gorm.DB, externalUserID, participationID string) (*models.UserChallenge, error) {
	var uc models.UserChallenge
	err := tx.Where("id = ? AND external_user_id = ?", participationID, externalUserID).
		First(&uc).Error
	if err == gorm.ErrRecordNotFound {
		return nil, ErrParticipationNotFound
	}
	if err != nil {
		return nil, err
	}
	return &uc, nil
}

// activeCompletionDates returns the distinct active completion dates for a
// challenge participation.
func activeCompletionDates(tx *gorm.DB, userChallengeID string) ([]time.Time, error) {
	var dates []time.Time
	err := tx.Model(&models.UserChallengeCompletion{}).
		Where("user_challenge_id = ? AND is_active = ?", userChallengeID, true).
		Order("completed_on ASC").
		Distinct().
		Pluck("completed_on", &dates).Error
	return dates, err
}

// Calendar returns the set of completed dates for one participation within
// a month, as "YYYY-MM-DD" strings.
func (s *ChallengeService) Calendar(externalUserID, challengeID string, year int, month time.Month) ([]string, error) {
	if month < time.January || month > time.December {
		return nil, fmt.Errorf("month must be between 1 and 12")
	}
	var uc models.UserChallenge
	err := s.DB.Where("external_user_id = ? AND challenge_id = ?", externalUserID, challengeID).
		First(&uc).Error
	if err == gorm.ErrRecordNotFound {
		return []string{}, nil
	}
	if err != nil {
		return nil, err
	}

	from := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)
	var dates []time.Time
	if err := s.DB.Model(&models.UserChallengeCompletion{}).
		Where("user_challenge_id = ? AND is_active = ? AND completed_on >= ? AND completed_on < ?",
			uc.ID, true, from, to).
		Order("completed_on ASC").
		Distinct().
		Pluck("completed_on", &dates).Error; err != nil {
		return nil, err
	}

	out := make([]string, 0, len(dates))
	for _, d := range dates {
		out = append(out, d.Format(streak.DateLayout))
	}
	return out, nil
}

// LeaderboardEntry pairs a participation with the display data of its user.
type LeaderboardEntry struct {
	ExternalUserID string  `json:"external_user_id"`
	Username       string  `json:"username"`
	AvatarURL      *string `json:"avatar_url,omitempty"`
	CurrentStreak  int     `json:"current_streak"`
	HighestStreak  int     `json:"highest_streak"`
}

// Leaderboard ranks a challenge's participants by highest streak.
func (s *ChallengeService) Leaderboard(challengeID string, limit int) ([]LeaderboardEntry, error) {
	if limit < 1 || limit > 100 {
		limit = 50
	}
	var entries []LeaderboardEntry
	err := s.DB.Model(&models.UserChallenge{}).
		Select("user_challenges.external_user_id, user_challenges.current_streak, user_challenges.highest_streak, participant_users.username, participant_users.avatar_url").
		Joins("LEFT JOIN participant_users ON participant_users.external_user_id = user_challenges.external_user_id AND participant_users.deleted_at IS NULL").
		Where("user_challenges.challenge_id = ? AND user_challenges.highest_streak > 0", challengeID).
		Order("user_challenges.highest_streak DESC").
		Limit(limit).
		Scan(&entries).Error
	return entries, err
}

// ThirtyDayClub lists participations that have reached the award threshold,
// grouped under their challenges.
func (s *ChallengeService) ThirtyDayClub() ([]models.UserChallenge, error) {
	var participations []models.UserChallenge
	err := s.DB.Where("highest_streak >= ?", streak.AwardStreakThreshold).
		Preload("Challenge").
		Order("highest_streak DESC").
		Find(&participations).Error
	return participations, err
}
