package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Dosada05/tournament-lifecycle/brackets"
	"github.com/Dosada05/tournament-lifecycle/events"
	"github.com/Dosada05/tournament-lifecycle/models"
	"github.com/Dosada05/tournament-lifecycle/repositories"
)

type MatchService interface {
	// CreateMatches генерирует круговую сетку по текущим участникам и сохраняет матчи
	// через переданный store (обычно транзакционный).
	CreateMatches(ctx context.Context, store repositories.Store, tournament *models.Tournament) ([]*models.Match, error)
	CompleteMatch(ctx context.Context, matchID, winnerID, score1, score2 int) (*models.Match, error)
	// NextMatch переводит первый PENDING матч турнира в IN_PROGRESS.
	NextMatch(ctx context.Context, tournamentID int) (*models.Match, error)
	// UpdateScores меняет текущий счёт матча, который идёт.
	UpdateScores(ctx context.Context, matchID, score1, score2 int) (*models.Match, error)
	GetMatch(ctx context.Context, matchID int) (*MatchView, error)
	ListMatches(ctx context.Context, tournamentID int) ([]MatchView, error)

	// SetPlayerReady отмечает игрока готовым. Состояние живёт в памяти процесса
	// и сбрасывается при завершении матча.
	SetPlayerReady(ctx context.Context, matchID, userID int) (ReadyState, error)
	GetReadyState(ctx context.Context, matchID int) (ReadyState, error)

	// AuthorizeMatchAction разрешает управлять матчем его игрокам и создателю турнира.
	AuthorizeMatchAction(ctx context.Context, matchID, userID int) error
}

type matchService struct {
	store     repositories.Store
	generator brackets.BracketGenerator
	publisher events.Publisher
	logger    *slog.Logger

	readyMu sync.Mutex
	ready   map[int]ReadyState
}

func NewMatchService(
	store repositories.Store,
	generator brackets.BracketGenerator,
	publisher events.Publisher,
	logger *slog.Logger,
) MatchService {
	if publisher == nil {
		publisher = events.Noop()
	}
	return &matchService{
		store:     store,
		generator: generator,
		publisher: publisher,
		logger:    logger,
		ready:     make(map[int]ReadyState),
	}
}

func (s *matchService) CreateMatches(ctx context.Context, store repositories.Store, tournament *models.Tournament) ([]*models.Match, error) {
	participants, err := store.Participants().ListByTournament(ctx, tournament.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants for tournament %d: %w", tournament.ID, err)
	}

	userIDs := make([]int, 0, len(participants))
	for _, p := range participants {
		userIDs = append(userIDs, p.UserID)
	}

	pairings := s.generator.GenerateMatches(userIDs)
	matches := make([]*models.Match, 0, len(pairings))
	for _, pair := range pairings {
		match := &models.Match{
			TournamentID: tournament.ID,
			Player1ID:    pair.Player1ID,
			Player2ID:    pair.Player2ID,
			Status:       models.MatchStatusPending,
		}
		if err := store.Matches().Create(ctx, match); err != nil {
			return nil, fmt.Errorf("failed to create match %d vs %d: %w", pair.Player1ID, pair.Player2ID, err)
		}
		matches = append(matches, match)
	}

	s.logger.Info("matches generated",
		slog.Int("tournament_id", tournament.ID),
		slog.String("generator", s.generator.GetName()),
		slog.Int("participants", len(userIDs)),
		slog.Int("matches", len(matches)))
	return matches, nil
}

func (s *matchService) NextMatch(ctx context.Context, tournamentID int) (*models.Match, error) {
	if _, err := s.store.Tournaments().GetByID(ctx, tournamentID); err != nil {
		return nil, mapTournamentRepoError(err, tournamentID)
	}

	pendingStatus := models.MatchStatusPending
	pending, err := s.store.Matches().ListByTournament(ctx, tournamentID, &pendingStatus)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending matches for tournament %d: %w", tournamentID, err)
	}

	// Матчи никогда не возвращаются в PENDING, поэтому достаточно одного прохода:
	// если все кандидаты заняты конкурентами, свободных не осталось.
	for _, candidate := range pending {
		if !candidate.Status.CanTransitionTo(models.MatchStatusInProgress) {
			continue
		}
		claimed := *candidate
		claimed.Status = models.MatchStatusInProgress

		err := s.store.Matches().Update(ctx, &claimed, models.MatchStatusPending)
		if errors.Is(err, repositories.ErrMatchStatusConflict) {
			s.logger.Debug("match already claimed, trying next",
				slog.Int("tournament_id", tournamentID),
				slog.Int("match_id", candidate.ID))
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to start match %d: %w", candidate.ID, err)
		}

		s.logger.Info("match started",
			slog.Int("tournament_id", tournamentID),
			slog.Int("match_id", claimed.ID))
		s.publisher.Publish(ctx, events.New(events.MatchStarted, tournamentID, &claimed))
		return &claimed, nil
	}

	return nil, fmt.Errorf("%w: tournament %d", ErrNoMatchesAvailable, tournamentID)
}

func (s *matchService) CompleteMatch(ctx context.Context, matchID, winnerID, score1, score2 int) (*models.Match, error) {
	match, err := s.store.Matches().GetByID(ctx, matchID)
	if err != nil {
		return nil, mapMatchRepoError(err, matchID)
	}

	if _, err := s.store.Users().GetByID(ctx, winnerID); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, fmt.Errorf("%w: winner id %d", ErrUserNotFound, winnerID)
		}
		return nil, fmt.Errorf("failed to load winner %d: %w", winnerID, err)
	}

	if !match.Status.CanTransitionTo(models.MatchStatusFinished) {
		return nil, fmt.Errorf("%w: match %d has status %s", ErrMatchNotInProgress, matchID, match.Status)
	}
	if !match.HasPlayer(winnerID) {
		return nil, fmt.Errorf("%w: user %d in match %d", ErrWinnerNotInMatch, winnerID, matchID)
	}
	if score1 < 0 || score2 < 0 {
		return nil, ErrNegativeScore
	}

	completed := *match
	completed.WinnerID = &winnerID
	completed.Player1Score = score1
	completed.Player2Score = score2
	completed.Status = models.MatchStatusFinished

	if err := s.store.Matches().Update(ctx, &completed, models.MatchStatusInProgress); err != nil {
		return nil, mapMatchUpdateError(err, matchID)
	}

	s.readyMu.Lock()
	delete(s.ready, matchID)
	s.readyMu.Unlock()

	s.logger.Info("match finished",
		slog.Int("tournament_id", completed.TournamentID),
		slog.Int("match_id", completed.ID),
		slog.Int("winner_id", winnerID))
	s.publisher.Publish(ctx, events.New(events.MatchFinished, completed.TournamentID, &completed))
	return &completed, nil
}

func (s *matchService) UpdateScores(ctx context.Context, matchID, score1, score2 int) (*models.Match, error) {
	match, err := s.store.Matches().GetByID(ctx, matchID)
	if err != nil {
		return nil, mapMatchRepoError(err, matchID)
	}
	if match.Status != models.MatchStatusInProgress {
		return nil, fmt.Errorf("%w: match %d has status %s", ErrMatchNotInProgress, matchID, match.Status)
	}
	if score1 < 0 || score2 < 0 {
		return nil, ErrNegativeScore
	}

	updated := *match
	updated.Player1Score = score1
	updated.Player2Score = score2
	if err := s.store.Matches().Update(ctx, &updated, models.MatchStatusInProgress); err != nil {
		return nil, mapMatchUpdateError(err, matchID)
	}

	s.logger.Debug("match score updated",
		slog.Int("tournament_id", updated.TournamentID),
		slog.Int("match_id", updated.ID),
		slog.Int("player1_score", score1),
		slog.Int("player2_score", score2))
	s.publisher.Publish(ctx, events.New(events.MatchScoreUpdated, updated.TournamentID, &updated))
	return &updated, nil
}

func (s *matchService) SetPlayerReady(ctx context.Context, matchID, userID int) (ReadyState, error) {
	match, err := s.store.Matches().GetByID(ctx, matchID)
	if err != nil {
		return ReadyState{}, mapMatchRepoError(err, matchID)
	}
	if match.Status != models.MatchStatusInProgress {
		return ReadyState{}, fmt.Errorf("%w: match %d has status %s", ErrMatchNotInProgress, matchID, match.Status)
	}
	if !match.HasPlayer(userID) {
		return ReadyState{}, fmt.Errorf("%w: user %d, match %d", ErrNotMatchPlayer, userID, matchID)
	}

	s.readyMu.Lock()
	state := s.ready[matchID]
	wasReady := state.BothReady
	state.MatchID = matchID
	if userID == match.Player1ID {
		state.Player1Ready = true
	} else {
		state.Player2Ready = true
	}
	state.BothReady = state.Player1Ready && state.Player2Ready
	s.ready[matchID] = state
	s.readyMu.Unlock()

	if state.BothReady && !wasReady {
		s.logger.Info("match players ready",
			slog.Int("tournament_id", match.TournamentID),
			slog.Int("match_id", matchID))
		s.publisher.Publish(ctx, events.New(events.MatchPlayersReady, match.TournamentID, state))
	}
	return state, nil
}

func (s *matchService) GetReadyState(ctx context.Context, matchID int) (ReadyState, error) {
	if _, err := s.store.Matches().GetByID(ctx, matchID); err != nil {
		return ReadyState{}, mapMatchRepoError(err, matchID)
	}

	s.readyMu.Lock()
	defer s.readyMu.Unlock()
	state, ok := s.ready[matchID]
	if !ok {
		return ReadyState{MatchID: matchID}, nil
	}
	return state, nil
}

func (s *matchService) AuthorizeMatchAction(ctx context.Context, matchID, userID int) error {
	match, err := s.store.Matches().GetByID(ctx, matchID)
	if err != nil {
		return mapMatchRepoError(err, matchID)
	}
	if match.HasPlayer(userID) {
		return nil
	}

	tournament, err := s.store.Tournaments().GetByID(ctx, match.TournamentID)
	if err != nil {
		return mapTournamentRepoError(err, match.TournamentID)
	}
	if tournament.CreatorID != userID {
		return fmt.Errorf("%w: user %d, match %d", ErrMatchActionForbidden, userID, matchID)
	}
	return nil
}

func (s *matchService) GetMatch(ctx context.Context, matchID int) (*MatchView, error) {
	match, err := s.store.Matches().GetByID(ctx, matchID)
	if err != nil {
		return nil, mapMatchRepoError(err, matchID)
	}

	participants, err := s.store.Participants().ListByTournament(ctx, match.TournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants for tournament %d: %w", match.TournamentID, err)
	}

	view := toMatchView(match, participantsByUser(toParticipantViews(participants)))
	return &view, nil
}

func (s *matchService) ListMatches(ctx context.Context, tournamentID int) ([]MatchView, error) {
	if _, err := s.store.Tournaments().GetByID(ctx, tournamentID); err != nil {
		return nil, mapTournamentRepoError(err, tournamentID)
	}

	matches, err := s.store.Matches().ListByTournament(ctx, tournamentID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches for tournament %d: %w", tournamentID, err)
	}
	participants, err := s.store.Participants().ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants for tournament %d: %w", tournamentID, err)
	}

	return buildMatchViews(matches, toParticipantViews(participants)), nil
}

func buildMatchViews(matches []*models.Match, participants []ParticipantView) []MatchView {
	byUser := participantsByUser(participants)
	views := make([]MatchView, 0, len(matches))
	for _, m := range matches {
		if m != nil {
			views = append(views, toMatchView(m, byUser))
		}
	}
	return views
}
