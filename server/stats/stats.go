// Package stats keeps the match log and leaderboard. Persistence is a whole
// JSON file rewritten on every recorded match; a corrupt or missing file
// silently resets to an empty default, and write failures are logged and
// swallowed so an in-progress match is never aborted by bookkeeping.
package stats

import (
	"encoding/json"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// MatchRecord is one finished match in the append-only log.
type MatchRecord struct {
	Timestamp time.Time         `json:"timestamp"`
	Game      string            `json:"game"`
	Seats     map[string]string `json:"seats"`   // seat -> policy identifier
	Outcome   string            `json:"outcome"` // e.g. "player", "dealer", "tie", "draw"
	Latency   float64           `json:"duration"`
}

// Tally is a player's career record.
type Tally struct {
	Wins   int     `json:"wins"`
	Losses int     `json:"losses"`
	Ties   int     `json:"ties"`
	Elo    float64 `json:"elo"`
}

type fileData struct {
	Matches []MatchRecord     `json:"matches"`
	Players map[string]*Tally `json:"players"`
}

// Entry is one leaderboard row.
type Entry struct {
	Player     string  `json:"player"`
	Wins       int     `json:"wins"`
	Losses     int     `json:"losses"`
	Ties       int     `json:"ties"`
	TotalGames int     `json:"total_games"`
	WinRate    float64 `json:"win_rate"`
	Elo        float64 `json:"elo"`
}

// Stats owns the match log file.
type Stats struct {
	mu   sync.Mutex
	path string
	data fileData
	elo  Elo
}

// New loads the log at path, falling back to an empty structure on any read
// or parse failure.
func New(path string) *Stats {
	s := &Stats{path: path, elo: NewElo()}
	s.data = fileData{Players: map[string]*Tally{}}

	raw, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warn().Err(err).Str("path", path).Msg("stats file unreadable, starting fresh")
		}
		return s
	}
	var data fileData
	if err := json.Unmarshal(raw, &data); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("stats file corrupt, starting fresh")
		return s
	}
	if data.Players == nil {
		data.Players = map[string]*Tally{}
	}
	s.data = data
	return s
}

func (s *Stats) tally(player string) *Tally {
	t, ok := s.data.Players[player]
	if !ok {
		t = &Tally{Elo: s.elo.Start}
		s.data.Players[player] = t
	}
	return t
}

// RecordMatch appends a match and updates the involved players' tallies.
// winner/loser name the credited players; both empty with tied set means the
// game ended even. The whole file is rewritten on every call.
func (s *Stats) RecordMatch(rec MatchRecord, winner, loser string, tied []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now()
	}
	s.data.Matches = append(s.data.Matches, rec)

	switch {
	case winner != "" && loser != "":
		w, l := s.tally(winner), s.tally(loser)
		w.Wins++
		l.Losses++
		w.Elo, l.Elo = s.elo.Update(w.Elo, l.Elo, 1)
	case winner != "":
		s.tally(winner).Wins++
	default:
		for _, p := range tied {
			s.tally(p).Ties++
		}
		if len(tied) == 2 {
			a, b := s.tally(tied[0]), s.tally(tied[1])
			a.Elo, b.Elo = s.elo.Update(a.Elo, b.Elo, 0.5)
		}
	}

	s.save()
}

// save rewrites the entire file; failures are logged, never propagated.
func (s *Stats) save() {
	raw, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		log.Warn().Err(err).Msg("stats marshal failed")
		return
	}
	if err := os.WriteFile(s.path, raw, 0o644); err != nil {
		log.Warn().Err(err).Str("path", s.path).Msg("stats write failed")
	}
}

// Leaderboard returns all players sorted by win rate descending. A player
// with zero recorded games has win rate 0.
func (s *Stats) Leaderboard() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := make([]Entry, 0, len(s.data.Players))
	for name, t := range s.data.Players {
		total := t.Wins + t.Losses + t.Ties
		rate := 0.0
		if total > 0 {
			rate = float64(t.Wins) / float64(total)
		}
		entries = append(entries, Entry{
			Player:     name,
			Wins:       t.Wins,
			Losses:     t.Losses,
			Ties:       t.Ties,
			TotalGames: total,
			WinRate:    rate,
			Elo:        t.Elo,
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].WinRate != entries[j].WinRate {
			return entries[i].WinRate > entries[j].WinRate
		}
		return entries[i].Player < entries[j].Player
	})
	return entries
}

// Recent returns the newest matches, most recent first.
func (s *Stats) Recent(limit int) []MatchRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.data.Matches)
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]MatchRecord, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, s.data.Matches[i])
	}
	return out
}
