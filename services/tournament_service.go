package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Dosada05/tournament-lifecycle/events"
	"github.com/Dosada05/tournament-lifecycle/models"
	"github.com/Dosada05/tournament-lifecycle/repositories"
	"golang.org/x/sync/errgroup"
)

type CreateTournamentInput struct {
	Name            string  `json:"name"`
	DisplayName     *string `json:"display_name,omitempty"`
	MaxParticipants *int    `json:"max_participants,omitempty"`
}

type TournamentService interface {
	CreateTournament(ctx context.Context, creatorID int, input CreateTournamentInput) (*models.Tournament, error)
	JoinTournament(ctx context.Context, tournamentID, userID int, displayName *string) (*models.Participant, error)
	StartTournament(ctx context.Context, tournamentID, callerID int) ([]*models.Match, error)
	FinishTournament(ctx context.Context, tournamentID int) (*models.Tournament, error)
	GetTournament(ctx context.Context, tournamentID int) (*TournamentDetails, error)
	// GetTournamentByID возвращает только сам турнир, без участников и матчей.
	GetTournamentByID(ctx context.Context, tournamentID int) (*models.Tournament, error)
	// AuthorizeMember проверяет, что пользователь - создатель или участник турнира.
	AuthorizeMember(ctx context.Context, tournamentID, userID int) error
	ListTournaments(ctx context.Context, filter repositories.ListTournamentsFilter) ([]*models.Tournament, error)
	ListParticipants(ctx context.Context, tournamentID int) ([]ParticipantView, error)
	DeleteTournament(ctx context.Context, tournamentID, callerID int) error
}

type tournamentService struct {
	store        repositories.Store
	matchService MatchService
	publisher    events.Publisher
	logger       *slog.Logger
}

func NewTournamentService(
	store repositories.Store,
	matchService MatchService,
	publisher events.Publisher,
	logger *slog.Logger,
) TournamentService {
	if publisher == nil {
		publisher = events.Noop()
	}
	return &tournamentService{
		store:        store,
		matchService: matchService,
		publisher:    publisher,
		logger:       logger,
	}
}

func (s *tournamentService) CreateTournament(ctx context.Context, creatorID int, input CreateTournamentInput) (*models.Tournament, error) {
	name, err := normalizeTournamentName(input.Name)
	if err != nil {
		return nil, err
	}
	if input.MaxParticipants != nil && *input.MaxParticipants < minParticipants {
		return nil, ErrMaxParticipantsTooLow
	}
	displayName, err := normalizeDisplayName(input.DisplayName)
	if err != nil {
		return nil, err
	}

	tournament := &models.Tournament{
		Name:            name,
		CreatorID:       creatorID,
		Status:          models.TournamentStatusPending,
		MaxParticipants: input.MaxParticipants,
	}

	err = s.store.WithinTx(ctx, func(tx repositories.Store) error {
		if err := tx.Tournaments().Create(ctx, tournament); err != nil {
			if errors.Is(err, repositories.ErrTournamentInvalidCreator) {
				return fmt.Errorf("%w: creator id %d", ErrUserNotFound, creatorID)
			}
			return fmt.Errorf("failed to create tournament: %w", err)
		}

		creator := &models.Participant{
			TournamentID: tournament.ID,
			UserID:       creatorID,
			DisplayName:  displayName,
		}
		if err := tx.Participants().Create(ctx, creator); err != nil {
			return mapParticipantCreateError(err, tournament.ID, creatorID)
		}
		tournament.Participants = []models.Participant{*creator}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("tournament created",
		slog.Int("tournament_id", tournament.ID),
		slog.Int("creator_id", creatorID))
	s.publisher.Publish(ctx, events.New(events.TournamentCreated, tournament.ID, tournament))
	return tournament, nil
}

func (s *tournamentService) JoinTournament(ctx context.Context, tournamentID, userID int, displayName *string) (*models.Participant, error) {
	name, err := normalizeDisplayName(displayName)
	if err != nil {
		return nil, err
	}

	participant := &models.Participant{
		TournamentID: tournamentID,
		UserID:       userID,
		DisplayName:  name,
	}

	err = s.store.WithinTx(ctx, func(tx repositories.Store) error {
		tournament, err := tx.Tournaments().GetByID(ctx, tournamentID)
		if err != nil {
			return mapTournamentRepoError(err, tournamentID)
		}
		if tournament.Status != models.TournamentStatusPending {
			return fmt.Errorf("%w: tournament %d has status %s", ErrTournamentNotPending, tournamentID, tournament.Status)
		}

		if _, err := tx.Participants().FindByUserAndTournament(ctx, userID, tournamentID); err == nil {
			return fmt.Errorf("%w: user %d, tournament %d", ErrAlreadyJoined, userID, tournamentID)
		} else if !errors.Is(err, repositories.ErrParticipantNotFound) {
			return fmt.Errorf("failed to check participation: %w", err)
		}

		if tournament.MaxParticipants != nil {
			count, err := tx.Participants().CountByTournament(ctx, tournamentID)
			if err != nil {
				return fmt.Errorf("failed to count participants for tournament %d: %w", tournamentID, err)
			}
			if tournament.IsFull(count) {
				return fmt.Errorf("%w: limit %d", ErrTournamentFull, *tournament.MaxParticipants)
			}
		}

		if name != nil {
			if _, err := tx.Participants().FindByDisplayName(ctx, tournamentID, *name); err == nil {
				return fmt.Errorf("%w: %q", ErrDisplayNameTaken, *name)
			} else if !errors.Is(err, repositories.ErrParticipantNotFound) {
				return fmt.Errorf("failed to check display name: %w", err)
			}
		}

		// Условная запись без изменений блокирует строку турнира до конца транзакции,
		// поэтому параллельный старт не увидит список участников без нового игрока.
		if err := tx.Tournaments().Update(ctx, tournament, models.TournamentStatusPending); err != nil {
			if errors.Is(err, repositories.ErrTournamentStatusConflict) {
				return fmt.Errorf("%w: tournament %d: %w", ErrTournamentNotPending, tournamentID, err)
			}
			return fmt.Errorf("failed to lock tournament %d: %w", tournamentID, err)
		}

		if err := tx.Participants().Create(ctx, participant); err != nil {
			return mapParticipantCreateError(err, tournamentID, userID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("participant joined",
		slog.Int("tournament_id", tournamentID),
		slog.Int("user_id", userID))
	s.publisher.Publish(ctx, events.New(events.ParticipantJoined, tournamentID, participant))
	return participant, nil
}

func (s *tournamentService) StartTournament(ctx context.Context, tournamentID, callerID int) ([]*models.Match, error) {
	var matches []*models.Match

	err := s.store.WithinTx(ctx, func(tx repositories.Store) error {
		tournament, err := tx.Tournaments().GetByID(ctx, tournamentID)
		if err != nil {
			return mapTournamentRepoError(err, tournamentID)
		}
		if tournament.CreatorID != callerID {
			return fmt.Errorf("%w: user %d cannot start tournament %d", ErrNotTournamentCreator, callerID, tournamentID)
		}
		if !tournament.Status.CanTransitionTo(models.TournamentStatusInProgress) {
			return fmt.Errorf("%w: tournament %d has status %s", ErrTournamentNotPending, tournamentID, tournament.Status)
		}

		count, err := tx.Participants().CountByTournament(ctx, tournamentID)
		if err != nil {
			return fmt.Errorf("failed to count participants for tournament %d: %w", tournamentID, err)
		}
		if count < minParticipants {
			return fmt.Errorf("%w: have %d, need %d", ErrInsufficientParticipants, count, minParticipants)
		}

		started := *tournament
		started.Status = models.TournamentStatusInProgress
		if err := tx.Tournaments().Update(ctx, &started, models.TournamentStatusPending); err != nil {
			if errors.Is(err, repositories.ErrTournamentStatusConflict) {
				return fmt.Errorf("%w: tournament %d: %w", ErrTournamentNotPending, tournamentID, err)
			}
			return fmt.Errorf("failed to update tournament %d status: %w", tournamentID, err)
		}

		matches, err = s.matchService.CreateMatches(ctx, tx, &started)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("tournament started",
		slog.Int("tournament_id", tournamentID),
		slog.Int("matches", len(matches)))
	s.publisher.Publish(ctx, events.New(events.TournamentStarted, tournamentID, dereferenceMatches(matches)))
	return matches, nil
}

func (s *tournamentService) FinishTournament(ctx context.Context, tournamentID int) (*models.Tournament, error) {
	tournament, err := s.store.Tournaments().GetByID(ctx, tournamentID)
	if err != nil {
		return nil, mapTournamentRepoError(err, tournamentID)
	}
	if !tournament.Status.CanTransitionTo(models.TournamentStatusFinished) {
		return nil, fmt.Errorf("%w: tournament %d has status %s", ErrTournamentNotInProgress, tournamentID, tournament.Status)
	}

	finished := *tournament
	finished.Status = models.TournamentStatusFinished
	if err := s.store.Tournaments().Update(ctx, &finished, models.TournamentStatusInProgress); err != nil {
		switch {
		case errors.Is(err, repositories.ErrTournamentStatusConflict):
			return nil, fmt.Errorf("%w: tournament %d: %w", ErrTournamentNotInProgress, tournamentID, err)
		case errors.Is(err, repositories.ErrTournamentNotFound):
			return nil, fmt.Errorf("%w: id %d", ErrTournamentNotFound, tournamentID)
		default:
			return nil, fmt.Errorf("failed to finish tournament %d: %w", tournamentID, err)
		}
	}

	s.logger.Info("tournament finished", slog.Int("tournament_id", tournamentID))
	s.publisher.Publish(ctx, events.New(events.TournamentFinished, tournamentID, &finished))
	return &finished, nil
}

func (s *tournamentService) GetTournament(ctx context.Context, tournamentID int) (*TournamentDetails, error) {
	details, err := loadTournamentDetails(ctx, s.store, tournamentID)
	if err != nil {
		s.logger.Debug("failed to load tournament details",
			slog.Int("tournament_id", tournamentID),
			slog.Any("error", err))
		return nil, err
	}
	return details, nil
}

func (s *tournamentService) GetTournamentByID(ctx context.Context, tournamentID int) (*models.Tournament, error) {
	tournament, err := s.store.Tournaments().GetByID(ctx, tournamentID)
	if err != nil {
		return nil, mapTournamentRepoError(err, tournamentID)
	}
	return tournament, nil
}

func (s *tournamentService) AuthorizeMember(ctx context.Context, tournamentID, userID int) error {
	tournament, err := s.store.Tournaments().GetByID(ctx, tournamentID)
	if err != nil {
		return mapTournamentRepoError(err, tournamentID)
	}
	if tournament.CreatorID == userID {
		return nil
	}

	_, err = s.store.Participants().FindByUserAndTournament(ctx, userID, tournamentID)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repositories.ErrParticipantNotFound):
		return fmt.Errorf("%w: user %d, tournament %d", ErrNotTournamentMember, userID, tournamentID)
	default:
		return fmt.Errorf("failed to check participation: %w", err)
	}
}

// loadTournamentDetails параллельно загружает турнир, участников и матчи.
func loadTournamentDetails(ctx context.Context, store repositories.Store, tournamentID int) (*TournamentDetails, error) {
	var (
		tournament   *models.Tournament
		participants []*models.Participant
		matches      []*models.Match
	)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		t, err := store.Tournaments().GetByID(gCtx, tournamentID)
		if err != nil {
			return mapTournamentRepoError(err, tournamentID)
		}
		tournament = t
		return nil
	})

	g.Go(func() error {
		list, err := store.Participants().ListByTournament(gCtx, tournamentID)
		if err != nil {
			return fmt.Errorf("failed to list participants for tournament %d: %w", tournamentID, err)
		}
		participants = list
		return nil
	})

	g.Go(func() error {
		list, err := store.Matches().ListByTournament(gCtx, tournamentID, nil)
		if err != nil {
			return fmt.Errorf("failed to list matches for tournament %d: %w", tournamentID, err)
		}
		matches = list
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	participantViews := toParticipantViews(participants)
	return &TournamentDetails{
		Tournament:   tournament,
		Participants: participantViews,
		Matches:      buildMatchViews(matches, participantViews),

		AllMatchesCompleted: allMatchesCompleted(matches),
	}, nil
}

func (s *tournamentService) ListTournaments(ctx context.Context, filter repositories.ListTournamentsFilter) ([]*models.Tournament, error) {
	if filter.Status != nil && !filter.Status.IsValid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidationFailed, *filter.Status)
	}
	if filter.Limit < 0 || filter.Offset < 0 {
		return nil, fmt.Errorf("%w: limit and offset must be non-negative", ErrValidationFailed)
	}

	tournaments, err := s.store.Tournaments().List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list tournaments: %w", err)
	}
	if tournaments == nil {
		return []*models.Tournament{}, nil
	}
	return tournaments, nil
}

func (s *tournamentService) ListParticipants(ctx context.Context, tournamentID int) ([]ParticipantView, error) {
	if _, err := s.store.Tournaments().GetByID(ctx, tournamentID); err != nil {
		return nil, mapTournamentRepoError(err, tournamentID)
	}
	participants, err := s.store.Participants().ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants for tournament %d: %w", tournamentID, err)
	}
	return toParticipantViews(participants), nil
}

func (s *tournamentService) DeleteTournament(ctx context.Context, tournamentID, callerID int) error {
	tournament, err := s.store.Tournaments().GetByID(ctx, tournamentID)
	if err != nil {
		return mapTournamentRepoError(err, tournamentID)
	}
	if tournament.CreatorID != callerID {
		return fmt.Errorf("%w: user %d cannot delete tournament %d", ErrNotTournamentCreator, callerID, tournamentID)
	}

	if err := s.store.Tournaments().Delete(ctx, tournamentID); err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return fmt.Errorf("%w: id %d", ErrTournamentNotFound, tournamentID)
		}
		return fmt.Errorf("failed to delete tournament %d: %w", tournamentID, err)
	}

	s.logger.Info("tournament deleted", slog.Int("tournament_id", tournamentID))
	s.publisher.Publish(ctx, events.New(events.TournamentDeleted, tournamentID, tournament))
	return nil
}

func mapParticipantCreateError(err error, tournamentID, userID int) error {
	switch {
	case errors.Is(err, repositories.ErrParticipantConflict):
		return fmt.Errorf("%w: user %d, tournament %d", ErrAlreadyJoined, userID, tournamentID)
	case errors.Is(err, repositories.ErrParticipantNameConflict):
		return fmt.Errorf("%w: tournament %d: %w", ErrDisplayNameTaken, tournamentID, err)
	case errors.Is(err, repositories.ErrParticipantUserInvalid):
		return fmt.Errorf("%w: id %d", ErrUserNotFound, userID)
	case errors.Is(err, repositories.ErrParticipantTournamentInvalid):
		return fmt.Errorf("%w: id %d", ErrTournamentNotFound, tournamentID)
	default:
		return fmt.Errorf("failed to create participant: %w", err)
	}
}
