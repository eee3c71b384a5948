package services

import "errors"

// Policy violations surface to the end user as rejected actions; they never
// touch persisted streak state.
var (
	ErrChallengeNotFound      = errors.New("challenge not found")
	ErrParticipationNotFound  = errors.New("participation not found")
	ErrParticipationInactive  = errors.New("participation is deactivated")
	ErrAlreadyCompletedToday  = errors.New("challenge already completed today")
	ErrOutsideTimeWindow      = errors.New("challenge can only be completed inside its daily time window")
	ErrTournamentNotFound     = errors.New("tournament not found")
	ErrSuperChallengeNotFound = errors.New("super challenge not found")
)
