package services

import (
	"errors"
	"fmt"
)

// Base sentinels. Specific errors wrap one of these, so handlers can match
// either the exact condition or the whole class with errors.Is.
var (
	ErrNotFound         = errors.New("not found")
	ErrValidationFailed = errors.New("validation failed")
	ErrStateConflict    = errors.New("state conflict")
	ErrConflict         = errors.New("conflict")
)

var (
	ErrTournamentNotFound = fmt.Errorf("%w: tournament", ErrNotFound)
	ErrPlayerNotFound     = fmt.Errorf("%w: player", ErrNotFound)
	ErrMatchNotFound      = fmt.Errorf("%w: match", ErrNotFound)
	ErrStandingNotFound   = fmt.Errorf("%w: standing", ErrNotFound)
	ErrRoundNotFound      = fmt.Errorf("%w: round", ErrNotFound)

	ErrNameRequired          = fmt.Errorf("%w: name is required", ErrValidationFailed)
	ErrInvalidStructure      = fmt.Errorf("%w: unknown tournament structure", ErrValidationFailed)
	ErrInvalidStatus         = fmt.Errorf("%w: unknown tournament status", ErrValidationFailed)
	ErrNegativeWinCounts     = fmt.Errorf("%w: win and draw counts must be non-negative", ErrValidationFailed)
	ErrInvalidPagination     = fmt.Errorf("%w: limit must be 1-100 and offset non-negative", ErrValidationFailed)
	ErrProtectedField        = fmt.Errorf("%w: field cannot be updated directly", ErrValidationFailed)
	ErrInvalidGrandFinalsMod = fmt.Errorf("%w: unknown grand finals modifier", ErrValidationFailed)

	ErrTournamentNotPlanned   = fmt.Errorf("%w: tournament is not in planned state", ErrStateConflict)
	ErrTournamentNotActive    = fmt.Errorf("%w: tournament is not active", ErrStateConflict)
	ErrTournamentActive       = fmt.Errorf("%w: tournament is active", ErrStateConflict)
	ErrNotEnoughPlayers       = fmt.Errorf("%w: at least two players are required", ErrStateConflict)
	ErrRoundInProgress        = fmt.Errorf("%w: current round still has unfinished matches", ErrStateConflict)
	ErrRoundLimitReached      = fmt.Errorf("%w: all planned rounds have been paired", ErrStateConflict)
	ErrSwissOnlyOperation     = fmt.Errorf("%w: operation applies to swiss tournaments only", ErrStateConflict)
	ErrMatchAlreadyCompleted  = fmt.Errorf("%w: match is already completed", ErrStateConflict)
	ErrMatchNotPending        = fmt.Errorf("%w: match is not pending", ErrStateConflict)
	ErrMatchNotInProgress     = fmt.Errorf("%w: match is not in progress", ErrStateConflict)
	ErrByeMatchImmutable      = fmt.Errorf("%w: bye matches are scored automatically", ErrStateConflict)
	ErrBracketMatchNeedsWin   = fmt.Errorf("%w: elimination matches cannot end in a draw", ErrStateConflict)
	ErrPlayerNotRegistered    = fmt.Errorf("%w: player is not registered for this tournament", ErrStateConflict)

	ErrTournamentNameTaken = fmt.Errorf("%w: tournament name already exists", ErrConflict)
	ErrPlayerEmailTaken    = fmt.Errorf("%w: player email already in use", ErrConflict)
	ErrPlayerDCITaken      = fmt.Errorf("%w: dci number already in use", ErrConflict)

	ErrAuthInvalidCredentials = errors.New("invalid email or password")
	ErrAuthEmailTaken         = fmt.Errorf("%w: email already registered", ErrConflict)
)
