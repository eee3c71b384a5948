package services

import (
	"log"
	"time"

	"challenge-streak-system/models"
	"challenge-streak-system/streak"

	"gorm.io/gorm"
)

// SuperChallengeState is the evaluation result surfaced to callers: the
// streak summary plus the sticky failure flag and, when failed, the
// structured explanation.
type SuperChallengeState struct {
	CurrentStreak      int                  `json:"current_streak"`
	HighestStreak      int                  `json:"highest_streak"`
	TotalCompletions   int                  `json:"total_completions"`
	LastCompletionDate *time.Time           `json:"last_completion_date,omitempty"`
	IsFailed           bool                 `json:"is_failed"`
	Reason             *SuperFailureExplain `json:"reason,omitempty"`
}

// SuperFailureExplain is the wire form of a failure reason: dates as
// "YYYY-MM-DD" strings.
type SuperFailureExplain struct {
	Kind            string   `json:"reason"`
	ConsecutivePair []string `json:"consecutive_pair,omitempty"`
	MissedDates     []string `json:"missed_dates"`
}

type SuperChallengeService struct {
	DB     *gorm.DB
	awards *AwardService
}

func NewSuperChallengeService(db *gorm.DB) *SuperChallengeService {
	return &SuperChallengeService{DB: db, awards: NewAwardService(db)}
}

// CreateSuperChallenge persists the super challenge, its member set and its
// award template.
func (s *SuperChallengeService) CreateSuperChallenge(sc *models.SuperChallenge) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(sc).Error; err != nil {
			return err
		}
		return tx.Create(&models.SuperChallengeAward{SuperChallengeID: sc.ID}).Error
	})
}

// ListSuperChallenges returns super challenges with their member challenges.
func (s *SuperChallengeService) ListSuperChallenges() ([]models.SuperChallenge, error) {
	var scs []models.SuperChallenge
	err := s.DB.Preload("Challenges").Order("created_at DESC").Find(&scs).Error
	return scs, err
}

// Join returns the user's participation, creating it on first interaction.
func (s *SuperChallengeService) Join(externalUserID, superChallengeID string, now time.Time) (*models.UserSuperChallenge, error) {
	var sc models.SuperChallenge
	if err := s.DB.First(&sc, "id = ?", superChallengeID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrSuperChallengeNotFound
		}
		return nil, err
	}

	usc := models.UserSuperChallenge{
		ExternalUserID:   externalUserID,
		SuperChallengeID: superChallengeID,
		StartedAt:        now.UTC(),
		IsActive:         true,
	}
	err := s.DB.Where("external_user_id = ? AND super_challenge_id = ?", externalUserID, superChallengeID).
		FirstOrCreate(&usc).Error
	if err != nil {
		return nil, err
	}
	return &usc, nil
}

// RegisterProgress runs the same-day completeness check for every active
// super challenge containing the completed challenge. The moment the last
// outstanding member challenge is completed, a super-challenge completion
// for that date is created and the streak advances in real time.
func (s *SuperChallengeService) RegisterProgress(externalUserID, challengeID string, now time.Time) error {
	today := streak.Day(now)

	var scs []models.SuperChallenge
	if err := s.DB.Preload("Challenges").
		Joins("JOIN super_challenge_challenges scc ON scc.super_challenge_id = super_challenges.id").
		Where("scc.challenge_id = ? AND super_challenges.is_active = ?", challengeID, true).
		Where("super_challenges.start_date <= ? AND super_challenges.end_date >= ?", today, today).
		Find(&scs).Error; err != nil {
		return err
	}

	for i := range scs {
		if err := s.checkDayCompletion(externalUserID, &scs[i], now); err != nil {
			log.Printf("⚠️ Super challenge day check failed: user=%s super=%s: %v",
				externalUserID, scs[i].ID, err)
		}
	}
	return nil
}

// checkDayCompletion creates the super-challenge completion for the date if
// the user has an active same-day completion for every member challenge.
func (s *SuperChallengeService) checkDayCompletion(externalUserID string, sc *models.SuperChallenge, now time.Time) error {
	today := streak.Day(now)

	complete, err := s.dayComplete(externalUserID, sc, today)
	if err != nil || !complete {
		return err
	}

	return s.DB.Transaction(func(tx *gorm.DB) error {
		var usc models.UserSuperChallenge
		err := tx.Where("external_user_id = ? AND super_challenge_id = ?", externalUserID, sc.ID).
			First(&usc).Error
		if err == gorm.ErrRecordNotFound {
			usc = models.UserSuperChallenge{
				ExternalUserID:   externalUserID,
				SuperChallengeID: sc.ID,
				StartedAt:        now.UTC(),
				IsActive:         true,
			}
			err = tx.Create(&usc).Error
		}
		if err != nil {
			return err
		}
		if usc.IsFailed || !usc.IsActive {
			return nil
		}

		var existing int64
		if err := tx.Model(&models.UserSuperChallengeCompletion{}).
			Where("user_super_challenge_id = ? AND completed_on = ? AND is_active = ?", usc.ID, today, true).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing == 0 {
			completion := models.UserSuperChallengeCompletion{
				UserSuperChallengeID: usc.ID,
				CompletedAt:          now.UTC(),
				CompletedOn:          today,
				IsActive:             true,
			}
			if err := tx.Create(&completion).Error; err != nil {
				return err
			}
		}

		return s.updateStreak(tx, &usc, today)
	})
}

// dayComplete checks existence per member challenge, not dates: every member
// must have an active completion by this user on the given date.
func (s *SuperChallengeService) dayComplete(externalUserID string, sc *models.SuperChallenge, date time.Time) (bool, error) {
	if len(sc.Challenges) == 0 {
		return false, nil
	}
	for _, ch := range sc.Challenges {
		var count int64
		err := s.DB.Model(&models.UserChallengeCompletion{}).
			Joins("JOIN user_challenges uc ON uc.id = user_challenge_completions.user_challenge_id").
			Where("uc.external_user_id = ? AND uc.challenge_id = ?", externalUserID, ch.ID).
			Where("user_challenge_completions.completed_on = ? AND user_challenge_completions.is_active = ?", date, true).
			Count(&count).Error
		if err != nil {
			return false, err
		}
		if count == 0 {
			return false, nil
		}
	}
	return true, nil
}

// updateStreak recomputes the super-challenge streak summary and runs the
// award check. Caller must ensure the participation has not already failed.
func (s *SuperChallengeService) updateStreak(tx *gorm.DB, usc *models.UserSuperChallenge, today time.Time) error {
	dates, err := superCompletionDates(tx, usc.ID)
	if err != nil {
		return err
	}

	summary := streak.CalculateSuper(dates, usc.HighestStreak, today)
	usc.CurrentStreak = summary.CurrentStreak
	usc.HighestStreak = summary.HighestStreak
	usc.TotalCompletions = summary.TotalCompletions
	usc.LastCompletionDate = summary.LastCompletion

	if summary.HighestStreak >= streak.AwardStreakThreshold && !usc.HasAward {
		if _, err := s.awards.EnsureSuperChallengeAward(tx, usc.ExternalUserID, usc.SuperChallengeID); err != nil {
			return err
		}
		usc.HasAward = true
	}
	return tx.Save(usc).Error
}

// Evaluate runs the failure evaluation for one participation as of the
// given date. A previously failed participation short-circuits: its stats
// are the snapshot taken at failure time and stay frozen.
func (s *SuperChallengeService) Evaluate(participationID string, asOf time.Time) (*SuperChallengeState, error) {
	day := streak.Day(asOf)
	var state *SuperChallengeState
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var usc models.UserSuperChallenge
		err := tx.Preload("SuperChallenge").First(&usc, "id = ?", participationID).Error
		if err == gorm.ErrRecordNotFound {
			return ErrParticipationNotFound
		}
		if err != nil {
			return err
		}

		if usc.IsFailed {
			state = s.stateOf(&usc, day)
			return nil
		}

		dates, err := superCompletionDates(tx, usc.ID)
		if err != nil {
			return err
		}

		window := streak.SuperWindow{
			StartDate: usc.SuperChallenge.StartDate,
			EndDate:   usc.SuperChallenge.EndDate,
			StartedAt: usc.StartedAt,
		}
		result, err := streak.EvaluateSuperChallenge(window, dates, day)
		if err != nil {
			return err
		}

		if result.IsFailed {
			// Snapshot stats from history before freezing: highest/total/last
			// as computed, current forced to zero.
			summary := streak.CalculateSuper(dates, usc.HighestStreak, day)
			usc.HighestStreak = summary.HighestStreak
			usc.TotalCompletions = summary.TotalCompletions
			usc.LastCompletionDate = summary.LastCompletion
			usc.CurrentStreak = 0
			usc.IsFailed = true

			if summary.HighestStreak >= streak.AwardStreakThreshold && !usc.HasAward {
				if _, err := s.awards.EnsureSuperChallengeAward(tx, usc.ExternalUserID, usc.SuperChallengeID); err != nil {
					return err
				}
				usc.HasAward = true
			}
			if err := tx.Save(&usc).Error; err != nil {
				return err
			}
			log.Printf("💥 Super challenge participation failed: user=%s super=%s",
				usc.ExternalUserID, usc.SuperChallengeID)
		} else if err := s.updateStreak(tx, &usc, day); err != nil {
			return err
		}

		state = s.stateOf(&usc, day)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return state, nil
}

// stateOf assembles the caller-facing state, attaching the diagnostic
// reason for failed participations.
func (s *SuperChallengeService) stateOf(usc *models.UserSuperChallenge, day time.Time) *SuperChallengeState {
	state := &SuperChallengeState{
		CurrentStreak:      usc.CurrentStreak,
		HighestStreak:      usc.HighestStreak,
		TotalCompletions:   usc.TotalCompletions,
		LastCompletionDate: usc.LastCompletionDate,
		IsFailed:           usc.IsFailed,
	}
	if usc.IsFailed {
		if reason, err := s.FailureReason(usc, day); err == nil {
			state.Reason = reason
		} else {
			log.Printf("⚠️ Failure reason unavailable for participation %s: %v", usc.ID, err)
		}
	}
	return state
}

// FailureReason recomputes the missed-day diagnostic for a failed
// participation over the window clipped at the super challenge's end date.
func (s *SuperChallengeService) FailureReason(usc *models.UserSuperChallenge, asOf time.Time) (*SuperFailureExplain, error) {
	sc := usc.SuperChallenge
	if sc.ID == "" {
		if err := s.DB.First(&sc, "id = ?", usc.SuperChallengeID).Error; err != nil {
			return nil, err
		}
	}
	dates, err := superCompletionDates(s.DB, usc.ID)
	if err != nil {
		return nil, err
	}

	window := streak.SuperWindow{
		StartDate: sc.StartDate,
		EndDate:   sc.EndDate,
		StartedAt: usc.StartedAt,
	}
	reason, err := streak.SuperFailureReason(window, dates, streak.Day(asOf))
	if err != nil || reason == nil {
		return nil, err
	}

	explain := &SuperFailureExplain{Kind: reason.Kind}
	for _, d := range reason.FirstPair {
		explain.ConsecutivePair = append(explain.ConsecutivePair, d.Format(streak.DateLayout))
	}
	for _, d := range reason.MissedDates {
		explain.MissedDates = append(explain.MissedDates, d.Format(streak.DateLayout))
	}
	return explain, nil
}

// GetParticipation loads a user's participation in a super challenge.
func (s *SuperChallengeService) GetParticipation(externalUserID, superChallengeID string) (*models.UserSuperChallenge, error) {
	var usc models.UserSuperChallenge
	err := s.DB.Preload("SuperChallenge").
		Where("external_user_id = ? AND super_challenge_id = ?", externalUserID, superChallengeID).
		First(&usc).Error
	if err == gorm.ErrRecordNotFound {
		return nil, ErrParticipationNotFound
	}
	if err != nil {
		return nil, err
	}
	return &usc, nil
}

// UpdateAllStreaks is the daily batch over active, not-yet-failed
// participations: streak decay plus failure detection, isolated per row.
func (s *SuperChallengeService) UpdateAllStreaks(today time.Time) (int, error) {
	var ids []string
	if err := s.DB.Model(&models.UserSuperChallenge{}).
		Where("is_active = ? AND is_failed = ?", true, false).
		Pluck("id", &ids).Error; err != nil {
		return 0, err
	}

	updated := 0
	for _, id := range ids {
		if _, err := s.Evaluate(id, today); err != nil {
			log.Printf("⚠️ Super challenge evaluation failed for participation %s: %v", id, err)
			continue
		}
		updated++
	}
	return updated, nil
}

func superCompletionDates(tx *gorm.DB, participationID string) ([]time.Time, error) {
	var dates []time.Time
	err := tx.Model(&models.UserSuperChallengeCompletion{}).
		Where("user_super_challenge_id = ? AND is_active = ?", participationID, true).
		Order("completed_on ASC").
		Distinct().
		Pluck("completed_on", &dates).Error
	return dates, err
}
