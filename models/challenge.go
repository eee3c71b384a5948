package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

// TimeLayout is the daily completion window format ("HH:MM", 24h).
const TimeLayout = "15:04"

var ErrInvalidTimeWindow = errors.New("end time must be after start time")

// Challenge is a daily habit-style task. A completion only counts when it is
// registered inside the StartTime..EndTime window of the day.
type Challenge struct {
	ID                  string `gorm:"primaryKey;type:uuid" json:"id"`
	Title               string `gorm:"not null" json:"title"`
	Slug                string `gorm:"uniqueIndex;not null" json:"slug"`
	IconURL             string `gorm:"type:text" json:"icon_url"`             // served by the media service, pass-through here
	VideoInstructionURL string `gorm:"type:text" json:"video_instruction_url"`
	StartTime           string `gorm:"type:varchar(5);not null" json:"start_time"` // "06:00"
	EndTime             string `gorm:"type:varchar(5);not null" json:"end_time"`   // "23:00"
	CreatedBy           string `gorm:"index" json:"created_by"`

	Timestamps

	// Relationships
	Award *ChallengeAward `json:"award,omitempty" gorm:"foreignKey:ChallengeID"`

	// Calculated fields (not stored in DB)
	UserParticipation *UserChallenge `json:"user_participation,omitempty" gorm:"-"`
}

func (c *Challenge) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.Slug == "" {
		c.Slug = slug.Make(c.Title)
	}
	return c.validateWindow()
}

func (c *Challenge) validateWindow() error {
	start, err := time.Parse(TimeLayout, c.StartTime)
	if err != nil {
		return err
	}
	end, err := time.Parse(TimeLayout, c.EndTime)
	if err != nil {
		return err
	}
	if !end.After(start) {
		return ErrInvalidTimeWindow
	}
	return nil
}

// WindowContains reports whether the clock time of t (UTC) falls inside the
// challenge's daily completion window.
func (c *Challenge) WindowContains(t time.Time) bool {
	start, err1 := time.Parse(TimeLayout, c.StartTime)
	end, err2 := time.Parse(TimeLayout, c.EndTime)
	if err1 != nil || err2 != nil {
		return false
	}
	minutes := t.UTC().Hour()*60 + t.UTC().Minute()
	return minutes >= start.Hour()*60+start.Minute() &&
		minutes <= end.Hour()*60+end.Minute()
}

// UserChallenge is one user's participation in a challenge, with the
// denormalized streak summary the engine recomputes on every pass.
type UserChallenge struct {
	ID             string `gorm:"primaryKey;type:uuid" json:"id"`
	ExternalUserID string `gorm:"not null;index;index:idx_user_challenge,unique" json:"external_user_id"`
	ChallengeID    string `gorm:"not null;index:idx_user_challenge,unique" json:"challenge_id"`

	CurrentStreak      int        `json:"current_streak" gorm:"default:0"`
	HighestStreak      int        `json:"highest_streak" gorm:"default:0"`
	TotalCompletions   int        `json:"total_completions" gorm:"default:0"`
	LastCompletionDate *time.Time `json:"last_completion_date,omitempty"`
	StartedAt          time.Time  `json:"started_at" gorm:"not null"`

	IsActive bool `json:"is_active" gorm:"default:true"`
	IsFailed bool `json:"is_failed" gorm:"default:false"`
	HasAward bool `json:"has_award" gorm:"default:false"`

	Timestamps

	Challenge   Challenge                 `json:"challenge,omitempty" gorm:"foreignKey:ChallengeID"`
	Completions []UserChallengeCompletion `json:"completions,omitempty" gorm:"foreignKey:UserChallengeID"`
}

func (uc *UserChallenge) BeforeCreate(tx *gorm.DB) error {
	if uc.ID == "" {
		uc.ID = uuid.NewString()
	}
	if uc.StartedAt.IsZero() {
		uc.StartedAt = time.Now().UTC()
	}
	return nil
}

// UserChallengeCompletion is one completion event. CompletedOn is the UTC
// calendar date; IsActive=false marks history soft-deleted by a failure
// reset — kept for audit and award eligibility, ignored by streak math.
// The partial unique index is the backstop against concurrent same-day
// registrations racing past the count check.
type UserChallengeCompletion struct {
	ID              string    `gorm:"primaryKey;type:uuid" json:"id"`
	UserChallengeID string    `gorm:"not null;index;index:idx_completion_day,unique,where:is_active" json:"user_challenge_id"`
	CompletedAt     time.Time `gorm:"not null" json:"completed_at"`
	CompletedOn     time.Time `gorm:"not null;index:idx_completion_day,unique,where:is_active" json:"completed_on"`
	IsActive        bool      `json:"is_active" gorm:"default:true"`

	Timestamps
}

func (c *UserChallengeCompletion) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}
