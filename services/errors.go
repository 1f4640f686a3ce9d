package services

import "errors"

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrWeekNotFound    = errors.New("week not found")
	ErrNoWeeks         = errors.New("no weeks scheduled")
	ErrDeadlinePassed  = errors.New("deadline has passed for this week")
	ErrTeamNotInWeek   = errors.New("team is not playing this week")
	ErrTeamAlreadyUsed = errors.New("team already used in another week")

	ErrEmailTaken         = errors.New("email is already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid token")

	ErrInvalidInput = errors.New("invalid input")
)
