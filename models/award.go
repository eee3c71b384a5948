package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ChallengeAward is the award template for a challenge, auto-created with
// the challenge. One row per challenge.
type ChallengeAward struct {
	ID          string `gorm:"primaryKey;type:uuid" json:"id"`
	ChallengeID string `gorm:"uniqueIndex;not null" json:"challenge_id"`

	Timestamps
}

func (a *ChallengeAward) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

// SuperChallengeAward is the award template for a super challenge.
type SuperChallengeAward struct {
	ID               string `gorm:"primaryKey;type:uuid" json:"id"`
	SuperChallengeID string `gorm:"uniqueIndex;not null" json:"super_challenge_id"`

	Timestamps
}

func (a *SuperChallengeAward) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

// TournamentAward is the award template handed to every participant who
// finishes a tournament without failing.
type TournamentAward struct {
	ID           string `gorm:"primaryKey;type:uuid" json:"id"`
	TournamentID string `gorm:"uniqueIndex;not null" json:"tournament_id"`

	Timestamps
}

func (a *TournamentAward) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

// UserAward is one issued award. Exactly one of the three template columns
// is set; the composite unique indexes are the idempotency backstop —
// double issuance loses the race at the database.
type UserAward struct {
	ID             string `gorm:"primaryKey;type:uuid" json:"id"`
	ExternalUserID string `gorm:"not null;index;index:idx_user_challenge_award,unique;index:idx_user_super_award,unique;index:idx_user_tournament_award,unique" json:"external_user_id"`

	ChallengeAwardID      *string `gorm:"index:idx_user_challenge_award,unique" json:"challenge_award_id,omitempty"`
	SuperChallengeAwardID *string `gorm:"index:idx_user_super_award,unique" json:"super_challenge_award_id,omitempty"`
	TournamentAwardID     *string `gorm:"index:idx_user_tournament_award,unique" json:"tournament_award_id,omitempty"`

	AwardedAt time.Time `json:"awarded_at" gorm:"autoCreateTime"`

	Timestamps
}

func (a *UserAward) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}
