package game

import (
	"context"
	"fmt"
	"sync"
	"time"

	"mine_economy/internal/domain"
	"mine_economy/internal/logger"
	"mine_economy/internal/metrics"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

const (
	subscriberBuffer = 16

	// tombstoneTTL is how long a removed handle still answers ErrSessionExpired
	// instead of ErrSessionNotFound.
	tombstoneTTL = time.Hour
)

// Ledger is the balance side the registry settles against.
type Ledger interface {
	GetAccount(ctx context.Context, userID int64) (*domain.Account, error)
	// SettleWager moves up to stake gold from loser to winner in one unit and
	// returns the amount moved.
	SettleWager(ctx context.Context, winnerID, loserID, stake int64, meta map[string]interface{}) (int64, error)
	RecordGame(ctx context.Context, entries ...*domain.GameHistory) error
}

// Snapshot is a point-in-time view of a session.
type Snapshot struct {
	SessionID string      `json:"session_id"`
	Kind      Kind        `json:"kind"`
	Players   [2]int64    `json:"players"`
	Stake     int64       `json:"stake"`
	Status    Status      `json:"status"`
	Deadline  time.Time   `json:"deadline"`
	State     interface{} `json:"state"`
	Outcome   *Outcome    `json:"outcome,omitempty"`
	Settled   int64       `json:"settled"`
}

type session struct {
	mu sync.Mutex

	id       string
	key      string
	game     Game
	deadline time.Time

	outcome    *Outcome
	finishedAt time.Time
	settled    bool
	amount     int64
	persisted  bool

	subs    map[int]chan Snapshot
	nextSub int
}

func (s *session) snapshot() Snapshot {
	return Snapshot{
		SessionID: s.id,
		Kind:      s.game.Kind(),
		Players:   s.game.Players(),
		Stake:     s.game.Stake(),
		Status:    s.game.Status(),
		Deadline:  s.deadline,
		State:     s.game.State(),
		Outcome:   s.outcome,
		Settled:   s.amount,
	}
}

func (s *session) publish() {
	if len(s.subs) == 0 {
		return
	}
	snap := s.snapshot()
	for _, ch := range s.subs {
		select {
		case ch <- snap:
		default:
		}
	}
}

func (s *session) closeSubs() {
	for id, ch := range s.subs {
		close(ch)
		delete(s.subs, id)
	}
}

func (s *session) isPlayer(userID int64) bool {
	p := s.game.Players()
	return p[0] == userID || p[1] == userID
}

// Registry owns live sessions. Each session has its own mutex; the registry
// mutex only guards the maps and is never held while a session lock is taken.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*session
	byPair   map[string]*session
	removed  map[string]time.Time

	factory *Factory
	ledger  Ledger
	clock   clockwork.Clock
	grace   time.Duration
}

// NewRegistry returns a registry. Finished sessions stay addressable for grace
// so late actions get a precise error before the handle disappears.
func NewRegistry(factory *Factory, ledger Ledger, clock clockwork.Clock, grace time.Duration) *Registry {
	return &Registry{
		sessions: make(map[string]*session),
		byPair:   make(map[string]*session),
		removed:  make(map[string]time.Time),
		factory:  factory,
		ledger:   ledger,
		clock:    clock,
		grace:    grace,
	}
}

func pairKey(kind Kind, a, b int64) string {
	if a > b {
		a, b = b, a
	}
	return fmt.Sprintf("%s:%d:%d", kind, a, b)
}

// Start opens a session between a and b. Only one live session per pair and
// kind may exist.
func (r *Registry) Start(ctx context.Context, kind Kind, a, b, stake int64) (Snapshot, error) {
	if a == b {
		return Snapshot{}, domain.ErrSameParticipant
	}
	g, err := r.factory.CreateGame(kind, [2]int64{a, b}, stake)
	if err != nil {
		return Snapshot{}, err
	}
	if stake > 0 {
		for _, id := range g.Players() {
			acc, err := r.ledger.GetAccount(ctx, id)
			if err != nil {
				return Snapshot{}, err
			}
			if acc.Gold < stake {
				return Snapshot{}, &domain.FundsError{Field: domain.FieldGold, Required: stake, Available: acc.Gold}
			}
		}
	}

	key := pairKey(kind, a, b)
	r.mu.Lock()
	existing := r.byPair[key]
	r.mu.Unlock()
	if existing != nil && r.live(ctx, existing) {
		return Snapshot{}, domain.ErrSessionExists
	}

	s := &session{id: uuid.NewString(), key: key, game: g, subs: make(map[int]chan Snapshot)}
	s.mu.Lock()
	defer s.mu.Unlock()

	r.mu.Lock()
	if cur := r.byPair[key]; cur != nil && cur != existing {
		r.mu.Unlock()
		return Snapshot{}, domain.ErrSessionExists
	}
	r.sessions[s.id] = s
	r.byPair[key] = s
	r.mu.Unlock()

	s.deadline = r.clock.Now().Add(g.Timeout())
	logger.Info("game session started", "session_id", s.id, "kind", kind, "players", g.Players(), "stake", stake)

	if out := g.Start(); out != nil {
		if err := r.finish(ctx, s, out); err != nil {
			return s.snapshot(), err
		}
	}
	return s.snapshot(), nil
}

// Submit applies a participant action.
func (r *Registry) Submit(ctx context.Context, handle string, userID int64, action Action) (Snapshot, error) {
	s, err := r.lookup(handle)
	if err != nil {
		return Snapshot{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isPlayer(userID) {
		return Snapshot{}, domain.ErrNotAParticipant
	}
	if err := r.expireIfDue(ctx, s); err != nil {
		return s.snapshot(), err
	}
	if s.outcome != nil {
		if err := r.persist(ctx, s); err != nil {
			return s.snapshot(), err
		}
		return s.snapshot(), terminalError(s.outcome.Status)
	}

	out, err := s.game.Handle(userID, action)
	if err != nil {
		return s.snapshot(), err
	}
	if out != nil {
		if err := r.finish(ctx, s, out); err != nil {
			return s.snapshot(), err
		}
		return s.snapshot(), nil
	}
	if s.game.ResetsOnMove() {
		s.deadline = r.clock.Now().Add(s.game.Timeout())
	}
	s.publish()
	return s.snapshot(), nil
}

// Get returns the session as seen by one of its participants.
func (r *Registry) Get(ctx context.Context, handle string, userID int64) (Snapshot, error) {
	s, err := r.lookup(handle)
	if err != nil {
		return Snapshot{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isPlayer(userID) {
		return Snapshot{}, domain.ErrNotAParticipant
	}
	if err := r.expireIfDue(ctx, s); err != nil {
		return s.snapshot(), err
	}
	return s.snapshot(), nil
}

// Subscribe streams snapshots of the session to a participant, starting with
// the current one. The channel is closed when the session is removed; cancel
// releases it earlier.
func (r *Registry) Subscribe(handle string, userID int64) (<-chan Snapshot, func(), error) {
	s, err := r.lookup(handle)
	if err != nil {
		return nil, nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isPlayer(userID) {
		return nil, nil, domain.ErrNotAParticipant
	}
	ch := make(chan Snapshot, subscriberBuffer)
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	ch <- s.snapshot()

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if c, ok := s.subs[id]; ok {
			close(c)
			delete(s.subs, id)
		}
	}
	return ch, cancel, nil
}

// Sweep expires overdue sessions, retries pending settlements and removes
// sessions whose grace period has passed.
func (r *Registry) Sweep(ctx context.Context) (expired, removed int) {
	r.mu.Lock()
	list := make([]*session, 0, len(r.sessions))
	for _, s := range r.sessions {
		list = append(list, s)
	}
	r.mu.Unlock()

	var gone []*session
	for _, s := range list {
		s.mu.Lock()
		wasLive := s.outcome == nil
		if err := r.expireIfDue(ctx, s); err != nil {
			logger.Error("sweep: expire session failed", "session_id", s.id, "error", err)
		}
		if wasLive && s.outcome != nil {
			expired++
		}
		if s.outcome != nil && !s.persisted {
			if err := r.persist(ctx, s); err != nil {
				logger.Error("sweep: settle session failed", "session_id", s.id, "error", err)
			}
		}
		if s.persisted && r.clock.Since(s.finishedAt) >= r.grace {
			s.closeSubs()
			gone = append(gone, s)
		}
		s.mu.Unlock()
	}

	now := r.clock.Now()
	r.mu.Lock()
	for _, s := range gone {
		delete(r.sessions, s.id)
		if r.byPair[s.key] == s {
			delete(r.byPair, s.key)
		}
		r.removed[s.id] = now
	}
	for id, at := range r.removed {
		if now.Sub(at) >= tombstoneTTL {
			delete(r.removed, id)
		}
	}
	r.mu.Unlock()

	if expired > 0 || len(gone) > 0 {
		logger.Debug("session sweep", "expired", expired, "removed", len(gone))
	}
	return expired, len(gone)
}

// Count returns the number of tracked sessions, finished ones included.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// lookup resolves a handle. Handles removed by Sweep report ErrSessionExpired
// until their tombstone is pruned.
func (r *Registry) lookup(handle string) (*session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[handle]; ok {
		return s, nil
	}
	if _, ok := r.removed[handle]; ok {
		return nil, domain.ErrSessionExpired
	}
	return nil, domain.ErrSessionNotFound
}

func (r *Registry) live(ctx context.Context, s *session) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := r.expireIfDue(ctx, s); err != nil {
		logger.Error("expire session failed", "session_id", s.id, "error", err)
	}
	return s.outcome == nil
}

// expireIfDue must be called with s.mu held.
func (r *Registry) expireIfDue(ctx context.Context, s *session) error {
	if s.outcome != nil || r.clock.Now().Before(s.deadline) {
		return nil
	}
	return r.finish(ctx, s, s.game.Expire())
}

// finish must be called with s.mu held.
func (r *Registry) finish(ctx context.Context, s *session, out *Outcome) error {
	s.outcome = out
	s.finishedAt = r.clock.Now()
	metrics.GameSessions.WithLabelValues(string(s.game.Kind()), outcomeLabel(out)).Inc()

	err := r.persist(ctx, s)
	if err != nil {
		logger.Error("game settlement failed", "session_id", s.id, "error", err)
	} else {
		logger.Info("game session finished", "session_id", s.id, "status", out.Status, "reason", out.Reason, "settled", s.amount)
	}
	s.publish()
	return err
}

// persist settles the wager at most once and writes history. It is retried
// on later access when storage fails.
func (r *Registry) persist(ctx context.Context, s *session) error {
	if s.persisted {
		return nil
	}
	out := s.outcome
	stake := s.game.Stake()
	kind := s.game.Kind()

	if out.WinnerID != nil && stake > 0 && !s.settled {
		amount, err := r.ledger.SettleWager(ctx, *out.WinnerID, *out.LoserID, stake, map[string]interface{}{
			"session_id": s.id,
			"kind":       string(kind),
		})
		if err != nil {
			return fmt.Errorf("settle session %s: %w", s.id, err)
		}
		s.settled = true
		s.amount = amount
	}

	details := map[string]interface{}{"reason": out.Reason}
	for k, v := range out.Details {
		details[k] = v
	}
	entries := domain.NewGameHistoryPair(domain.GameType(kind), s.id, s.game.Players(), out.WinnerID,
		out.Status == StatusAbandoned, stake, s.amount, details)
	if err := r.ledger.RecordGame(ctx, entries...); err != nil {
		return fmt.Errorf("record session %s: %w", s.id, err)
	}
	s.persisted = true
	return nil
}

func terminalError(status Status) error {
	if status == StatusAbandoned {
		return domain.ErrSessionExpired
	}
	return domain.ErrSessionResolved
}

func outcomeLabel(out *Outcome) string {
	switch {
	case out.Status == StatusAbandoned:
		return "abandoned"
	case out.Push:
		return "push"
	default:
		return "decided"
	}
}
