package repositories

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Dosada05/tournament-lifecycle/models"
)

// MemoryStore - неперсистентное хранилище для тестов и локальной разработки.
// Повторяет ограничения схемы БД: уникальность участника, каскадное удаление,
// условные обновления статусов. WithinTx держит txMu до конца транзакции и
// откатывает изменения через снимок. Записи вне транзакции тоже берут txMu, поэтому
// ждут её завершения и откатом не затрагиваются. Чтения txMu не берут и могут
// увидеть незафиксированные данные.
type MemoryStore struct {
	txMu sync.Mutex
	data *memoryData
	now  func() time.Time
}

type memoryData struct {
	mu             sync.RWMutex
	tournaments    map[int]models.Tournament
	participants   map[int]models.Participant
	matches        map[int]models.Match
	users          map[int]models.User
	tournamentSeq  int
	participantSeq int
	matchSeq       int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: &memoryData{
			tournaments:  make(map[int]models.Tournament),
			participants: make(map[int]models.Participant),
			matches:      make(map[int]models.Match),
			users:        make(map[int]models.User),
		},
		now: time.Now,
	}
}

func (s *MemoryStore) Tournaments() TournamentRepository {
	return &memoryTournamentRepository{s: s}
}
func (s *MemoryStore) Participants() ParticipantRepository {
	return &memoryParticipantRepository{s: s}
}
func (s *MemoryStore) Matches() MatchRepository { return &memoryMatchRepository{s: s} }
func (s *MemoryStore) Users() UserRepository    { return &memoryUserRepository{s: s} }

func (s *MemoryStore) WithinTx(ctx context.Context, fn func(tx Store) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	snapshot := s.data.clone()
	if err := fn(&memoryTx{MemoryStore: s}); err != nil {
		s.data.restore(snapshot)
		return err
	}
	return nil
}

// memoryTx выполняет записи под уже захваченным txMu.
type memoryTx struct {
	*MemoryStore
}

func (t *memoryTx) Tournaments() TournamentRepository {
	return &memoryTournamentRepository{s: t.MemoryStore, inTx: true}
}

func (t *memoryTx) Participants() ParticipantRepository {
	return &memoryParticipantRepository{s: t.MemoryStore, inTx: true}
}

func (t *memoryTx) Matches() MatchRepository {
	return &memoryMatchRepository{s: t.MemoryStore, inTx: true}
}

func (t *memoryTx) Users() UserRepository {
	return &memoryUserRepository{s: t.MemoryStore, inTx: true}
}

func (t *memoryTx) WithinTx(ctx context.Context, fn func(tx Store) error) error {
	return fn(t)
}

// lockWrite сериализует запись вне транзакции с открытыми транзакциями.
func (s *MemoryStore) lockWrite(inTx bool) func() {
	if inTx {
		return func() {}
	}
	s.txMu.Lock()
	return s.txMu.Unlock
}

func (d *memoryData) clone() *memoryData {
	d.mu.RLock()
	defer d.mu.RUnlock()

	c := &memoryData{
		tournaments:    make(map[int]models.Tournament, len(d.tournaments)),
		participants:   make(map[int]models.Participant, len(d.participants)),
		matches:        make(map[int]models.Match, len(d.matches)),
		users:          make(map[int]models.User, len(d.users)),
		tournamentSeq:  d.tournamentSeq,
		participantSeq: d.participantSeq,
		matchSeq:       d.matchSeq,
	}
	for k, v := range d.tournaments {
		c.tournaments[k] = v
	}
	for k, v := range d.participants {
		c.participants[k] = v
	}
	for k, v := range d.matches {
		c.matches[k] = v
	}
	for k, v := range d.users {
		c.users[k] = v
	}
	return c
}

func (d *memoryData) restore(snapshot *memoryData) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.tournaments = snapshot.tournaments
	d.participants = snapshot.participants
	d.matches = snapshot.matches
	d.users = snapshot.users
	d.tournamentSeq = snapshot.tournamentSeq
	d.participantSeq = snapshot.participantSeq
	d.matchSeq = snapshot.matchSeq
}

// --- tournaments ---

type memoryTournamentRepository struct {
	s    *MemoryStore
	inTx bool
}

func (r *memoryTournamentRepository) Create(ctx context.Context, t *models.Tournament) error {
	defer r.s.lockWrite(r.inTx)()

	d := r.s.data
	d.mu.Lock()
	defer d.mu.Unlock()

	d.tournamentSeq++
	t.ID = d.tournamentSeq
	t.CreatedAt = r.s.now()
	d.tournaments[t.ID] = stripTournament(*t)
	return nil
}

func (r *memoryTournamentRepository) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	d := r.s.data
	d.mu.RLock()
	defer d.mu.RUnlock()

	t, ok := d.tournaments[id]
	if !ok {
		return nil, ErrTournamentNotFound
	}
	return &t, nil
}

func (r *memoryTournamentRepository) List(ctx context.Context, filter ListTournamentsFilter) ([]*models.Tournament, error) {
	d := r.s.data
	d.mu.RLock()
	defer d.mu.RUnlock()

	result := make([]*models.Tournament, 0)
	for _, t := range d.tournaments {
		if filter.CreatorID != nil && t.CreatorID != *filter.CreatorID {
			continue
		}
		if filter.Status != nil && t.Status != *filter.Status {
			continue
		}
		if filter.Archived != nil && (t.ArchiveKey != nil) != *filter.Archived {
			continue
		}
		t := t
		result = append(result, &t)
	}
	// Новые сверху, как в postgres-реализации.
	sort.Slice(result, func(i, j int) bool { return result[i].ID > result[j].ID })

	if filter.Offset > 0 {
		if filter.Offset >= len(result) {
			return []*models.Tournament{}, nil
		}
		result = result[filter.Offset:]
	}
	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}
	return result, nil
}

func (r *memoryTournamentRepository) Update(ctx context.Context, t *models.Tournament, expected models.TournamentStatus) error {
	defer r.s.lockWrite(r.inTx)()

	d := r.s.data
	d.mu.Lock()
	defer d.mu.Unlock()

	current, ok := d.tournaments[t.ID]
	if !ok {
		return ErrTournamentNotFound
	}
	if current.Status != expected {
		return ErrTournamentStatusConflict
	}
	if t.WinnerID != nil && t.Status != models.TournamentStatusFinished {
		return ErrTournamentInvalidWinner
	}
	updated := stripTournament(*t)
	updated.CreatorID = current.CreatorID
	updated.CreatedAt = current.CreatedAt
	updated.ArchiveKey = current.ArchiveKey
	d.tournaments[t.ID] = updated
	return nil
}

func (r *memoryTournamentRepository) UpdateArchiveKey(ctx context.Context, id int, archiveKey *string) error {
	defer r.s.lockWrite(r.inTx)()

	d := r.s.data
	d.mu.Lock()
	defer d.mu.Unlock()

	t, ok := d.tournaments[id]
	if !ok {
		return ErrTournamentNotFound
	}
	t.ArchiveKey = archiveKey
	d.tournaments[id] = t
	return nil
}

func (r *memoryTournamentRepository) Delete(ctx context.Context, id int) error {
	defer r.s.lockWrite(r.inTx)()

	d := r.s.data
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.tournaments[id]; !ok {
		return ErrTournamentNotFound
	}
	delete(d.tournaments, id)
	for pid, p := range d.participants {
		if p.TournamentID == id {
			delete(d.participants, pid)
		}
	}
	for mid, m := range d.matches {
		if m.TournamentID == id {
			delete(d.matches, mid)
		}
	}
	return nil
}

func stripTournament(t models.Tournament) models.Tournament {
	t.Participants = nil
	t.Matches = nil
	return t
}

// --- participants ---

type memoryParticipantRepository struct {
	s    *MemoryStore
	inTx bool
}

func (r *memoryParticipantRepository) Create(ctx context.Context, p *models.Participant) error {
	defer r.s.lockWrite(r.inTx)()

	d := r.s.data
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.tournaments[p.TournamentID]; !ok {
		return ErrParticipantTournamentInvalid
	}
	for _, existing := range d.participants {
		if existing.TournamentID != p.TournamentID {
			continue
		}
		if existing.UserID == p.UserID {
			return ErrParticipantConflict
		}
		if p.DisplayName != nil && existing.DisplayName != nil && *existing.DisplayName == *p.DisplayName {
			return ErrParticipantNameConflict
		}
	}

	d.participantSeq++
	p.ID = d.participantSeq
	p.CreatedAt = r.s.now()
	stored := *p
	stored.User = nil
	d.participants[p.ID] = stored
	return nil
}

func (r *memoryParticipantRepository) ListByTournament(ctx context.Context, tournamentID int) ([]*models.Participant, error) {
	d := r.s.data
	d.mu.RLock()
	defer d.mu.RUnlock()

	result := make([]*models.Participant, 0)
	for _, p := range d.participants {
		if p.TournamentID != tournamentID {
			continue
		}
		p := p
		if u, ok := d.users[p.UserID]; ok {
			p.User = &u
		}
		result = append(result, &p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (r *memoryParticipantRepository) findFirst(match func(models.Participant) bool) (*models.Participant, error) {
	d := r.s.data
	d.mu.RLock()
	defer d.mu.RUnlock()

	for _, p := range d.participants {
		if match(p) {
			p := p
			return &p, nil
		}
	}
	return nil, ErrParticipantNotFound
}

func (r *memoryParticipantRepository) FindByUserAndTournament(ctx context.Context, userID, tournamentID int) (*models.Participant, error) {
	return r.findFirst(func(p models.Participant) bool {
		return p.UserID == userID && p.TournamentID == tournamentID
	})
}

func (r *memoryParticipantRepository) FindByDisplayName(ctx context.Context, tournamentID int, displayName string) (*models.Participant, error) {
	return r.findFirst(func(p models.Participant) bool {
		return p.TournamentID == tournamentID && p.DisplayName != nil && *p.DisplayName == displayName
	})
}

func (r *memoryParticipantRepository) CountByTournament(ctx context.Context, tournamentID int) (int, error) {
	d := r.s.data
	d.mu.RLock()
	defer d.mu.RUnlock()

	count := 0
	for _, p := range d.participants {
		if p.TournamentID == tournamentID {
			count++
		}
	}
	return count, nil
}

// --- matches ---

type memoryMatchRepository struct {
	s    *MemoryStore
	inTx bool
}

func (r *memoryMatchRepository) Create(ctx context.Context, m *models.Match) error {
	defer r.s.lockWrite(r.inTx)()

	d := r.s.data
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.tournaments[m.TournamentID]; !ok {
		return ErrMatchTournamentInvalid
	}
	if m.Player1ID == m.Player2ID {
		return ErrMatchPlayerInvalid
	}

	d.matchSeq++
	m.ID = d.matchSeq
	m.CreatedAt = r.s.now()
	d.matches[m.ID] = *m
	return nil
}

func (r *memoryMatchRepository) GetByID(ctx context.Context, id int) (*models.Match, error) {
	d := r.s.data
	d.mu.RLock()
	defer d.mu.RUnlock()

	m, ok := d.matches[id]
	if !ok {
		return nil, ErrMatchNotFound
	}
	return &m, nil
}

func (r *memoryMatchRepository) ListByTournament(ctx context.Context, tournamentID int, statusFilter *models.MatchStatus) ([]*models.Match, error) {
	d := r.s.data
	d.mu.RLock()
	defer d.mu.RUnlock()

	result := make([]*models.Match, 0)
	for _, m := range d.matches {
		if m.TournamentID != tournamentID {
			continue
		}
		if statusFilter != nil && m.Status != *statusFilter {
			continue
		}
		m := m
		result = append(result, &m)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (r *memoryMatchRepository) Update(ctx context.Context, m *models.Match, expected models.MatchStatus) error {
	defer r.s.lockWrite(r.inTx)()

	d := r.s.data
	d.mu.Lock()
	defer d.mu.Unlock()

	current, ok := d.matches[m.ID]
	if !ok {
		return ErrMatchNotFound
	}
	if current.Status != expected {
		return ErrMatchStatusConflict
	}
	if m.Player1Score < 0 || m.Player2Score < 0 {
		return ErrMatchResultInvalid
	}
	if m.WinnerID != nil && (m.Status != models.MatchStatusFinished || !current.HasPlayer(*m.WinnerID)) {
		return ErrMatchResultInvalid
	}

	current.WinnerID = m.WinnerID
	current.Player1Score = m.Player1Score
	current.Player2Score = m.Player2Score
	current.Status = m.Status
	d.matches[m.ID] = current
	return nil
}

// --- users ---

type memoryUserRepository struct {
	s    *MemoryStore
	inTx bool
}

func (r *memoryUserRepository) GetByID(ctx context.Context, id int) (*models.User, error) {
	d := r.s.data
	d.mu.RLock()
	defer d.mu.RUnlock()

	u, ok := d.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return &u, nil
}

func (r *memoryUserRepository) Upsert(ctx context.Context, user *models.User) error {
	defer r.s.lockWrite(r.inTx)()

	d := r.s.data
	d.mu.Lock()
	defer d.mu.Unlock()

	now := r.s.now()
	if existing, ok := d.users[user.ID]; ok {
		user.CreatedAt = existing.CreatedAt
	} else {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
	d.users[user.ID] = *user
	return nil
}
