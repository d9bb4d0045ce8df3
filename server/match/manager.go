package match

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"llm-arcade/server/agent"
	"llm-arcade/server/engine"
	"llm-arcade/server/stats"
	"llm-arcade/server/store"
)

// PolicyFactory builds a decision policy for a seat. It is not consulted for
// the reserved identifiers ("human", "house").
type PolicyFactory func(game Game, policyID string) (agent.DecisionPolicy, error)

// Manager owns the live sessions and the shared match log.
type Manager struct {
	mu       sync.RWMutex
	factory  PolicyFactory
	stats    *stats.Stats
	db       *store.DB // nil when Postgres mirroring is disabled
	sessions map[string]*Session
}

// NewManager wires the session registry. db may be nil.
func NewManager(factory PolicyFactory, st *stats.Stats, db *store.DB) *Manager {
	return &Manager{
		factory:  factory,
		stats:    st,
		db:       db,
		sessions: make(map[string]*Session),
	}
}

// StartMatch creates a session for the given game with one policy per seat
// and returns its initial view. Blackjack's dealer seat defaults to the
// house rule when unassigned.
func (m *Manager) StartMatch(game Game, seats map[string]string) (*View, error) {
	if err := validateSeats(game, seats); err != nil {
		return nil, err
	}

	assigned := make(map[string]string, len(seats)+1)
	for seat, id := range seats {
		assigned[seat] = id
	}
	if game == GameBlackjack && assigned[SeatDealer] == "" {
		assigned[SeatDealer] = HousePolicy
	}

	policies := make(map[string]agent.DecisionPolicy, len(assigned))
	for seat, id := range assigned {
		if id == HumanPolicy || id == HousePolicy {
			policies[seat] = nil
			continue
		}
		policy, err := m.factory(game, id)
		if err != nil {
			return nil, fmt.Errorf("seat %q: %w", seat, err)
		}
		policy.ResetContext()
		policies[seat] = policy
	}

	s := &Session{
		id:        uuid.NewString(),
		game:      game,
		seats:     assigned,
		policies:  policies,
		startedAt: time.Now(),
	}
	switch game {
	case GameConnect4:
		s.c4 = engine.NewConnect4()
	case GameBlackjack:
		s.bj = engine.NewBlackjack(nil)
		s.bj.Start()
	}

	m.mu.Lock()
	m.sessions[s.id] = s
	m.mu.Unlock()

	log.Info().
		Str("session", s.id).
		Str("game", string(game)).
		Interface("seats", assigned).
		Msg("match started")

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.over() {
		// Blackjack can resolve on the deal.
		m.record(s)
	}
	return s.view(), nil
}

// SubmitAction advances a session by one decision. Empty input asks the
// active automated seat to decide; non-empty input plays a human seat.
func (m *Manager) SubmitAction(ctx context.Context, sessionID, input string) (*View, error) {
	s, ok := m.session(sessionID)
	if !ok {
		return nil, fmt.Errorf("unknown session %q", sessionID)
	}
	view, err := s.submit(ctx, input)
	if err != nil {
		return view, err
	}
	if view.Over {
		s.mu.Lock()
		m.record(s)
		s.mu.Unlock()
		view = m.View(sessionID)
	}
	return view, nil
}

// View returns a snapshot of a session, or nil if it does not exist.
func (m *Manager) View(sessionID string) *View {
	s, ok := m.session(sessionID)
	if !ok {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view()
}

func (m *Manager) session(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Leaderboard is the aggregate standings across all recorded matches.
func (m *Manager) Leaderboard() []stats.Entry {
	return m.stats.Leaderboard()
}

// Recent returns the newest recorded matches.
func (m *Manager) Recent(limit int) []stats.MatchRecord {
	return m.stats.Recent(limit)
}

// record writes the finished match to the stats file and, when configured,
// mirrors it to Postgres. Persistence failures are logged, never fatal.
// Caller holds s.mu.
func (m *Manager) record(s *Session) {
	if s.recorded {
		return
	}
	s.recorded = true

	outcome, winner, loser, tied := s.result()
	s.notifyResult()

	rec := stats.MatchRecord{
		Timestamp: time.Now().UTC(),
		Game:      string(s.game),
		Seats:     s.seats,
		Outcome:   outcome,
		Latency:   s.latency,
	}
	m.stats.RecordMatch(rec, winner, loser, tied)

	log.Info().
		Str("session", s.id).
		Str("game", string(s.game)).
		Str("outcome", outcome).
		Dur("elapsed", time.Since(s.startedAt)).
		Msg("match finished")

	if m.db == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := m.db.InsertMatch(ctx, string(s.game), outcome, winner, s.latency, s.seats); err != nil {
		log.Warn().Err(err).Str("session", s.id).Msg("postgres mirror insert failed")
		return
	}
	for name, delta := range tallyDeltas(winner, loser, tied) {
		if err := m.db.BumpTally(ctx, name, delta[0], delta[1], delta[2]); err != nil {
			log.Warn().Err(err).Str("player", name).Msg("postgres tally bump failed")
		}
	}
}

func tallyDeltas(winner, loser string, tied []string) map[string][3]int {
	deltas := make(map[string][3]int)
	if winner != "" {
		deltas[winner] = [3]int{1, 0, 0}
	}
	if loser != "" {
		deltas[loser] = [3]int{0, 1, 0}
	}
	for _, name := range tied {
		deltas[name] = [3]int{0, 0, 1}
	}
	return deltas
}
