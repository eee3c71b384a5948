package services

import (
	"log"
	"time"

	"challenge-streak-system/models"
	"challenge-streak-system/streak"

	"gorm.io/gorm"
)

// FailureAction is the corrective step applied to a challenge participation
// once the failure evaluator flags it. The product went through three
// generations of this behavior (delete → reset → deactivate), so the choice
// is configuration, not code: FAILURE_POLICY=reset|deactivate|delete.
//
// The award check always runs before the action — a participation that
// reaches the award threshold and fails the same day still gets its award.
type FailureAction interface {
	Name() string
	Apply(tx *gorm.DB, uc *models.UserChallenge) error
}

// FailureActionFromName resolves the configured policy, defaulting to reset.
func FailureActionFromName(name string) FailureAction {
	switch name {
	case "delete":
		return DeleteAction{}
	case "deactivate":
		return DeactivateAction{}
	case "reset":
		return ResetAction{}
	case "":
		return ResetAction{}
	default:
		log.Printf("⚠️  Unknown FAILURE_POLICY %q, falling back to reset", name)
		return ResetAction{}
	}
}

// ResetAction starts a fresh cycle in place: completion history is tagged
// inactive (kept for audit and awards), the current streak and counters are
// zeroed, StartedAt moves to now. HighestStreak and HasAward survive.
type ResetAction struct{}

func (ResetAction) Name() string { return "reset" }

func (ResetAction) Apply(tx *gorm.DB, uc *models.UserChallenge) error {
	if err := deactivateCompletions(tx, uc.ID); err != nil {
		return err
	}
	uc.CurrentStreak = 0
	uc.TotalCompletions = 0
	uc.LastCompletionDate = nil
	uc.StartedAt = time.Now().UTC()
	uc.IsFailed = false
	return tx.Save(uc).Error
}

// DeactivateAction freezes the participation: everything is preserved and
// the user resumes via an explicit reactivation.
type DeactivateAction struct{}

func (DeactivateAction) Name() string { return "deactivate" }

func (DeactivateAction) Apply(tx *gorm.DB, uc *models.UserChallenge) error {
	uc.IsActive = false
	return tx.Save(uc).Error
}

// DeleteAction removes the participation. Completion history survives as
// inactive rows only when the run reached the award threshold; otherwise it
// is removed outright.
type DeleteAction struct{}

func (DeleteAction) Name() string { return "delete" }

func (DeleteAction) Apply(tx *gorm.DB, uc *models.UserChallenge) error {
	if uc.HighestStreak >= streak.AwardStreakThreshold {
		if err := deactivateCompletions(tx, uc.ID); err != nil {
			return err
		}
	} else {
		if err := tx.Unscoped().
			Where("user_challenge_id = ?", uc.ID).
			Delete(&models.UserChallengeCompletion{}).Error; err != nil {
			return err
		}
	}
	return tx.Delete(uc).Error
}

func deactivateCompletions(tx *gorm.DB, userChallengeID string) error {
	return tx.Model(&models.UserChallengeCompletion{}).
		Where("user_challenge_id = ? AND is_active = ?", userChallengeID, true).
		Update("is_active", false).Error
}
