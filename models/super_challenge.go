package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

var ErrInvalidDateRange = errors.New("end date must not be before start date")

// SuperChallenge groups member challenges over a fixed date window. A day
// counts only when every member challenge is completed that same day.
type SuperChallenge struct {
	ID        string    `gorm:"primaryKey;type:uuid" json:"id"`
	Title     string    `gorm:"not null" json:"title"`
	Slug      string    `gorm:"uniqueIndex;not null" json:"slug"`
	StartDate time.Time `gorm:"not null" json:"start_date"`
	EndDate   time.Time `gorm:"not null" json:"end_date"` // inclusive
	IsActive  bool      `json:"is_active" gorm:"default:true"`

	Timestamps

	Challenges []Challenge          `json:"challenges,omitempty" gorm:"many2many:super_challenge_challenges"`
	Award      *SuperChallengeAward `json:"award,omitempty" gorm:"foreignKey:SuperChallengeID"`
}

func (sc *SuperChallenge) BeforeCreate(tx *gorm.DB) error {
	if sc.ID == "" {
		sc.ID = uuid.NewString()
	}
	if sc.Slug == "" {
		sc.Slug = slug.Make(sc.Title)
	}
	if sc.EndDate.Before(sc.StartDate) {
		return ErrInvalidDateRange
	}
	return nil
}

// UserSuperChallenge carries the same streak summary as UserChallenge plus a
// sticky failure flag: once IsFailed is set the stats are a frozen snapshot
// of the moment of failure and no recompute touches them again.
type UserSuperChallenge struct {
	ID               string `gorm:"primaryKey;type:uuid" json:"id"`
	ExternalUserID   string `gorm:"not null;index;index:idx_user_super_challenge,unique" json:"external_user_id"`
	SuperChallengeID string `gorm:"not null;index:idx_user_super_challenge,unique" json:"super_challenge_id"`

	CurrentStreak      int        `json:"current_streak" gorm:"default:0"`
	HighestStreak      int        `json:"highest_streak" gorm:"default:0"`
	TotalCompletions   int        `json:"total_completions" gorm:"default:0"`
	LastCompletionDate *time.Time `json:"last_completion_date,omitempty"`
	StartedAt          time.Time  `json:"started_at" gorm:"not null"`

	IsActive bool `json:"is_active" gorm:"default:true"`
	IsFailed bool `json:"is_failed" gorm:"default:false"`
	HasAward bool `json:"has_award" gorm:"default:false"`

	Timestamps

	SuperChallenge SuperChallenge                 `json:"super_challenge,omitempty" gorm:"foreignKey:SuperChallengeID"`
	Completions    []UserSuperChallengeCompletion `json:"completions,omitempty" gorm:"foreignKey:UserSuperChallengeID"`
}

func (usc *UserSuperChallenge) BeforeCreate(tx *gorm.DB) error {
	if usc.ID == "" {
		usc.ID = uuid.NewString()
	}
	if usc.StartedAt.IsZero() {
		usc.StartedAt = time.Now().UTC()
	}
	return nil
}

// UserSuperChallengeCompletion marks one fully-completed super-challenge
// day. Created by the completeness check the moment the last outstanding
// member challenge is completed on that date.
type UserSuperChallengeCompletion struct {
	ID                   string    `gorm:"primaryKey;type:uuid" json:"id"`
	UserSuperChallengeID string    `gorm:"not null;index;index:idx_super_completion_day,unique,where:is_active" json:"user_super_challenge_id"`
	CompletedAt          time.Time `gorm:"not null" json:"completed_at"`
	CompletedOn          time.Time `gorm:"not null;index:idx_super_completion_day,unique,where:is_active" json:"completed_on"`
	IsActive             bool      `json:"is_active" gorm:"default:true"`

	Timestamps
}

func (c *UserSuperChallengeCompletion) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}
