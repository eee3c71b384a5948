package services

import (
	"log"

	"challenge-streak-system/models"

	"gorm.io/gorm"
)

type AwardService struct {
	DB *gorm.DB
}

func NewAwardService(db *gorm.DB) *AwardService {
	return &AwardService{DB: db}
}

// EnsureChallengeAward issues the one-time award for a challenge
// participation. Count-then-create inside the caller's transaction; the
// unique index on (user, challenge_award) backstops concurrent issuance.
// Returns true when a new award row was created.
func (s *AwardService) EnsureChallengeAward(tx *gorm.DB, externalUserID, challengeID string) (bool, error) {
	var award models.ChallengeAward
	err := tx.Where("challenge_id = ?", challengeID).First(&award).Error
	if err == gorm.ErrRecordNotFound {
		award = models.ChallengeAward{ChallengeID: challengeID}
		err = tx.Create(&award).Error
	}
	if err != nil {
		return false, err
	}
	return s.ensureUserAward(tx, models.UserAward{
		ExternalUserID:   externalUserID,
		ChallengeAwardID: &award.ID,
	}, "challenge_award_id = ?", award.ID)
}

// EnsureSuperChallengeAward mirrors EnsureChallengeAward for super challenges.
func (s *AwardService) EnsureSuperChallengeAward(tx *gorm.DB, externalUserID, superChallengeID string) (bool, error) {
	var award models.SuperChallengeAward
	err := tx.Where("super_challenge_id = ?", superChallengeID).First(&award).Error
	if err == gorm.ErrRecordNotFound {
		award = models.SuperChallengeAward{SuperChallengeID: superChallengeID}
		err = tx.Create(&award).Error
	}
	if err != nil {
		return false, err
	}
	return s.ensureUserAward(tx, models.UserAward{
		ExternalUserID:        externalUserID,
		SuperChallengeAwardID: &award.ID,
	}, "super_challenge_award_id = ?", award.ID)
}

// EnsureTournamentAward issues the close-out award for a finished tournament.
func (s *AwardService) EnsureTournamentAward(tx *gorm.DB, externalUserID, tournamentID string) (bool, error) {
	var award models.TournamentAward
	err := tx.Where("tournament_id = ?", tournamentID).First(&award).Error
	if err == gorm.ErrRecordNotFound {
		award = models.TournamentAward{TournamentID: tournamentID}
		err = tx.Create(&award).Error
	}
	if err != nil {
		return false, err
	}
	return s.ensureUserAward(tx, models.UserAward{
		ExternalUserID:    externalUserID,
		TournamentAwardID: &award.ID,
	}, "tournament_award_id = ?", award.ID)
}

func (s *AwardService) ensureUserAward(tx *gorm.DB, candidate models.UserAward, awardCond string, awardID string) (bool, error) {
	var count int64
	if err := tx.Model(&models.UserAward{}).
		Where("external_user_id = ?", candidate.ExternalUserID).
		Where(awardCond, awardID).
		Count(&count).Error; err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}
	if err := tx.Create(&candidate).Error; err != nil {
		return false, err
	}
	log.Printf("🎖️ Award issued: user=%s award=%s", candidate.ExternalUserID, awardID)
	return true, nil
}

// ListUserAwards returns every award a user has earned.
func (s *AwardService) ListUserAwards(externalUserID string) ([]models.UserAward, error) {
	var awards []models.UserAward
	err := s.DB.Where("external_user_id = ?", externalUserID).
		Order("awarded_at DESC").
		Find(&awards).Error
	return awards, err
}
