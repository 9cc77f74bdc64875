package services

import "errors"

// Виды ошибок. Конкретные ошибки ниже оборачивают один из них, поэтому вызывающий
// код может проверять как errors.Is(err, ErrNotFound), так и errors.Is(err, ErrMatchNotFound).
var (
	ErrNotFound                 = errors.New("requested resource not found")
	ErrInvalidState             = errors.New("operation not allowed in the current state")
	ErrForbiddenOperation       = errors.New("operation not allowed for the current user")
	ErrAlreadyJoined            = errors.New("user already joined this tournament")
	ErrInsufficientParticipants = errors.New("not enough participants to start the tournament")
	ErrNoMatchesAvailable       = errors.New("no pending matches left in the tournament")
	ErrValidationFailed         = errors.New("validation failed")
	ErrTournamentFull           = errors.New("tournament registration is full")
	ErrDisplayNameTaken         = errors.New("display name is already taken in this tournament")
	ErrArchiveDisabled          = errors.New("result archive is not configured")
)

// Конкретные ошибки.
var (
	ErrTournamentNotFound = wrapKind(ErrNotFound, "tournament not found")
	ErrMatchNotFound      = wrapKind(ErrNotFound, "match not found")
	ErrUserNotFound       = wrapKind(ErrNotFound, "user not found")

	ErrTournamentNotPending    = wrapKind(ErrInvalidState, "tournament is not accepting participants")
	ErrTournamentNotInProgress = wrapKind(ErrInvalidState, "tournament is not in progress")
	ErrTournamentNotArchivable = wrapKind(ErrInvalidState, "only finished tournaments can be archived")
	ErrTournamentNotArchived   = wrapKind(ErrNotFound, "tournament results are not archived yet")
	ErrMatchNotInProgress      = wrapKind(ErrInvalidState, "match is not in progress")

	ErrNotTournamentCreator = wrapKind(ErrForbiddenOperation, "user is not the creator of the tournament")
	ErrNotTournamentMember  = wrapKind(ErrForbiddenOperation, "user is not a participant of the tournament")
	ErrNotMatchPlayer       = wrapKind(ErrForbiddenOperation, "user is not a player of the match")
	ErrMatchActionForbidden = wrapKind(ErrForbiddenOperation, "only the match players or the tournament creator can manage the match")

	ErrTournamentNameInvalid = wrapKind(ErrValidationFailed, "tournament name must be between 3 and 30 characters")
	ErrMaxParticipantsTooLow = wrapKind(ErrValidationFailed, "max participants must be at least 2")
	ErrDisplayNameInvalid    = wrapKind(ErrValidationFailed, "display name must be between 1 and 100 characters")
	ErrWinnerNotInMatch      = wrapKind(ErrValidationFailed, "winner must be one of the match players")
	ErrNegativeScore         = wrapKind(ErrValidationFailed, "scores must be non-negative")
)

type kindError struct {
	kind error
	msg  string
}

func wrapKind(kind error, msg string) error {
	return &kindError{kind: kind, msg: msg}
}

func (e *kindError) Error() string { return e.msg }

func (e *kindError) Unwrap() error { return e.kind }
