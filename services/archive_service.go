package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Dosada05/tournament-lifecycle/events"
	"github.com/Dosada05/tournament-lifecycle/models"
	"github.com/Dosada05/tournament-lifecycle/repositories"
	"github.com/Dosada05/tournament-lifecycle/storage"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

const archiveBatchSize = 50

// TournamentArchive - JSON-снимок завершённого турнира, который кладётся в хранилище.
type TournamentArchive struct {
	TournamentDetails
	ArchivedAt time.Time `json:"archived_at"`
}

// ArchiveService выгружает результаты завершённых турниров в объектное хранилище.
// Как events.Publisher он удаляет архив при удалении турнира.
type ArchiveService interface {
	ArchiveTournament(ctx context.Context, tournamentID int) (string, error)
	// ArchivePending архивирует FINISHED турниры без архива и возвращает число успешных выгрузок.
	ArchivePending(ctx context.Context) (int, error)
	ArchiveURL(ctx context.Context, tournamentID int) (string, error)

	events.Publisher
}

type archiveService struct {
	store   repositories.Store
	objects storage.ObjectStorage
	logger  *slog.Logger
	now     func() time.Time
}

// NewArchiveService принимает objects == nil, если хранилище не настроено:
// тогда операции архива возвращают ErrArchiveDisabled.
func NewArchiveService(
	store repositories.Store,
	objects storage.ObjectStorage,
	logger *slog.Logger,
) ArchiveService {
	return &archiveService{
		store:   store,
		objects: objects,
		logger:  logger,
		now:     time.Now,
	}
}

func archiveKey(t *models.Tournament) string {
	name := slug.Make(t.Name)
	if name == "" {
		name = "tournament"
	}
	return fmt.Sprintf("tournaments/%d-%s/%s.json", t.ID, name, uuid.NewString())
}

func (s *archiveService) ArchiveTournament(ctx context.Context, tournamentID int) (string, error) {
	if s.objects == nil {
		return "", ErrArchiveDisabled
	}

	details, err := loadTournamentDetails(ctx, s.store, tournamentID)
	if err != nil {
		return "", err
	}
	tournament := details.Tournament
	if tournament.Status != models.TournamentStatusFinished {
		return "", fmt.Errorf("%w: tournament %d has status %s", ErrTournamentNotArchivable, tournamentID, tournament.Status)
	}
	if tournament.ArchiveKey != nil {
		return *tournament.ArchiveKey, nil
	}

	body, err := json.Marshal(TournamentArchive{TournamentDetails: *details, ArchivedAt: s.now().UTC()})
	if err != nil {
		return "", fmt.Errorf("failed to encode archive for tournament %d: %w", tournamentID, err)
	}

	key := archiveKey(tournament)
	if _, err := s.objects.Put(ctx, key, "application/json", bytes.NewReader(body)); err != nil {
		return "", err
	}

	if err := s.store.Tournaments().UpdateArchiveKey(ctx, tournamentID, &key); err != nil {
		if delErr := s.objects.Delete(ctx, key); delErr != nil {
			s.logger.Warn("failed to remove orphaned archive",
				slog.String("key", key),
				slog.Any("error", delErr))
		}
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return "", fmt.Errorf("%w: id %d", ErrTournamentNotFound, tournamentID)
		}
		return "", fmt.Errorf("failed to save archive key for tournament %d: %w", tournamentID, err)
	}

	s.logger.Info("tournament archived",
		slog.Int("tournament_id", tournamentID),
		slog.String("key", key))
	return key, nil
}

func (s *archiveService) ArchivePending(ctx context.Context) (int, error) {
	if s.objects == nil {
		return 0, ErrArchiveDisabled
	}

	finished := models.TournamentStatusFinished
	archived := false
	pending, err := s.store.Tournaments().List(ctx, repositories.ListTournamentsFilter{
		Status:   &finished,
		Archived: &archived,
		Limit:    archiveBatchSize,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to list tournaments awaiting archive: %w", err)
	}

	done := 0
	for _, t := range pending {
		if _, err := s.ArchiveTournament(ctx, t.ID); err != nil {
			s.logger.Error("failed to archive tournament",
				slog.Int("tournament_id", t.ID),
				slog.Any("error", err))
			continue
		}
		done++
	}
	return done, nil
}

func (s *archiveService) ArchiveURL(ctx context.Context, tournamentID int) (string, error) {
	if s.objects == nil {
		return "", ErrArchiveDisabled
	}

	tournament, err := s.store.Tournaments().GetByID(ctx, tournamentID)
	if err != nil {
		return "", mapTournamentRepoError(err, tournamentID)
	}
	if tournament.ArchiveKey == nil {
		return "", fmt.Errorf("%w: tournament %d", ErrTournamentNotArchived, tournamentID)
	}
	return s.objects.PublicURL(*tournament.ArchiveKey), nil
}

func (s *archiveService) Publish(ctx context.Context, event events.Event) {
	if event.Type != events.TournamentDeleted || s.objects == nil {
		return
	}
	tournament, ok := event.Payload.(*models.Tournament)
	if !ok || tournament == nil || tournament.ArchiveKey == nil {
		return
	}
	if err := s.objects.Delete(ctx, *tournament.ArchiveKey); err != nil {
		s.logger.Error("failed to delete archive of removed tournament",
			slog.Int("tournament_id", event.TournamentID),
			slog.Any("error", err))
	}
}
