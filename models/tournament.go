package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

// Tournament is a fixed-window event over a set of member challenges. A day
// counts for a participant only when every member challenge was completed
// that date; two failed days (consecutive or total) end the run.
type Tournament struct {
	ID         string    `gorm:"primaryKey;type:uuid" json:"id"`
	Title      string    `gorm:"not null" json:"title"`
	Slug       string    `gorm:"uniqueIndex;not null" json:"slug"`
	StartDate  time.Time `gorm:"not null" json:"start_date"`
	FinishDate time.Time `gorm:"not null;index" json:"finish_date"`
	IsActive   bool      `json:"is_active" gorm:"default:true;index"`

	Timestamps

	Challenges []Challenge      `json:"challenges,omitempty" gorm:"many2many:tournament_challenges"`
	Award      *TournamentAward `json:"award,omitempty" gorm:"foreignKey:TournamentID"`

	// Calculated fields (not stored in DB)
	ParticipantsCount int64 `json:"participants_count,omitempty" gorm:"-"`
}

func (t *Tournament) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Slug == "" {
		t.Slug = slug.Make(t.Title)
	}
	if t.FinishDate.Before(t.StartDate) {
		return ErrInvalidDateRange
	}
	return nil
}

// UserTournament tracks one user's run through a tournament. The failure
// counters are recomputed from the full day history every pass; IsFailed is
// terminal for the tournament.
type UserTournament struct {
	ID             string `gorm:"primaryKey;type:uuid" json:"id"`
	ExternalUserID string `gorm:"not null;index;index:idx_user_tournament,unique" json:"external_user_id"`
	TournamentID   string `gorm:"not null;index:idx_user_tournament,unique" json:"tournament_id"`

	ConsecutiveFailures int  `json:"consecutive_failures" gorm:"default:0"`
	TotalFailures       int  `json:"total_failures" gorm:"default:0"`
	IsFailed            bool `json:"is_failed" gorm:"default:false"`

	Timestamps

	Tournament Tournament          `json:"tournament,omitempty" gorm:"foreignKey:TournamentID"`
	Days       []UserTournamentDay `json:"days,omitempty" gorm:"foreignKey:UserTournamentID"`
}

func (ut *UserTournament) BeforeCreate(tx *gorm.DB) error {
	if ut.ID == "" {
		ut.ID = uuid.NewString()
	}
	return nil
}

// UserTournamentDay is the per-date outcome record: which member challenges
// the participant completed that day, and whether that covered all of them.
// IsCompleted is finalized by the day-end pass; the real-time completion
// path only keeps it current for the ongoing day.
type UserTournamentDay struct {
	ID               string    `gorm:"primaryKey;type:uuid" json:"id"`
	UserTournamentID string    `gorm:"not null;index;index:idx_user_tournament_day,unique" json:"user_tournament_id"`
	Date             time.Time `gorm:"not null;index:idx_user_tournament_day,unique" json:"date"`
	IsCompleted      bool      `json:"is_completed" gorm:"default:false"`

	Timestamps

	CompletedChallenges []Challenge `json:"completed_challenges,omitempty" gorm:"many2many:user_tournament_day_challenges"`
}

func (d *UserTournamentDay) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	return nil
}
