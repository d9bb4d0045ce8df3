// Package match owns the per-match session objects: one engine, one decision
// policy per seat, one transcript, one mutex. Nothing match-scoped lives in
// process globals, so concurrent sessions cannot interfere.
package match

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"llm-arcade/server/agent"
	"llm-arcade/server/engine"
)

// Game selects which engine a session runs.
type Game string

const (
	GameConnect4  Game = "connect4"
	GameBlackjack Game = "blackjack"
)

// Reserved policy identifiers. HumanPolicy seats take their decisions from
// SubmitAction input; HousePolicy is the rule-driven blackjack dealer.
const (
	HumanPolicy = "human"
	HousePolicy = "house"
)

// Blackjack seat names. Connect 4 seats are "1" and "2".
const (
	SeatPlayer = "player"
	SeatDealer = "dealer"
)

var (
	ErrMatchFinished = errors.New("match already finished")
	ErrInputRequired = errors.New("seat is controlled by a human, input required")
	ErrNotHumanTurn  = errors.New("an automated seat is to act, submit with empty input")
)

// Turn is one transcript entry.
type Turn struct {
	Seat     string  `json:"seat"`
	Policy   string  `json:"policy"`
	Text     string  `json:"text"`
	Thinking string  `json:"thinking,omitempty"`
	Action   string  `json:"action,omitempty"`
	Fallback bool    `json:"fallback,omitempty"`
	Latency  float64 `json:"duration"`
	Note     string  `json:"note,omitempty"`
	Error    string  `json:"error,omitempty"`
}

// Session is one match in progress.
type Session struct {
	mu sync.Mutex

	id       string
	game     Game
	seats    map[string]string // seat -> policy identifier
	policies map[string]agent.DecisionPolicy

	c4 *engine.Connect4Engine
	bj *engine.BlackjackEngine

	transcript []Turn
	latency    float64 // cumulative decision latency, seconds
	startedAt  time.Time
	recorded   bool
}

// View is the driver-facing snapshot of a session.
type View struct {
	ID         string                  `json:"id"`
	Game       Game                    `json:"game"`
	Seats      map[string]string       `json:"seats"`
	Turn       string                  `json:"turn,omitempty"`
	Over       bool                    `json:"over"`
	Outcome    string                  `json:"outcome,omitempty"`
	Message    string                  `json:"message,omitempty"`
	Connect4   *engine.Connect4Engine  `json:"connect4,omitempty"`
	Blackjack  *engine.BlackjackEngine `json:"blackjack,omitempty"`
	Transcript []Turn                  `json:"transcript"`
	Latency    float64                 `json:"duration"`
}

func (s *Session) view() *View {
	v := &View{
		ID:         s.id,
		Game:       s.game,
		Seats:      s.seats,
		Transcript: s.transcript,
		Latency:    s.latency,
	}
	switch s.game {
	case GameConnect4:
		v.Connect4 = s.c4
		v.Over = s.c4.Over
		if s.c4.Over {
			v.Outcome = s.outcome()
		} else {
			v.Turn = strconv.Itoa(s.c4.Current)
		}
	case GameBlackjack:
		v.Blackjack = s.bj
		v.Over = s.bj.Over
		v.Message = s.bj.Message
		if s.bj.Over {
			v.Outcome = s.outcome()
		} else if s.bj.DealerTurn {
			v.Turn = SeatDealer
		} else {
			v.Turn = SeatPlayer
		}
	}
	return v
}

// outcome renders the terminal result as a stable identifier.
func (s *Session) outcome() string {
	switch s.game {
	case GameConnect4:
		if s.c4.Winner == 0 {
			return string(engine.OutcomeDraw)
		}
		return strconv.Itoa(s.c4.Winner)
	case GameBlackjack:
		return string(s.bj.Winner)
	}
	return ""
}

func (s *Session) over() bool {
	if s.game == GameConnect4 {
		return s.c4.Over
	}
	return s.bj.Over
}

// activeSeat names the seat to act; empty once the match is over.
func (s *Session) activeSeat() string {
	if s.over() {
		return ""
	}
	if s.game == GameConnect4 {
		return strconv.Itoa(s.c4.Current)
	}
	if s.bj.DealerTurn {
		return SeatDealer
	}
	return SeatPlayer
}

// dealerIsPolicy reports whether the dealer seat is decision-policy driven
// rather than played out by the house rule.
func (s *Session) dealerIsPolicy() bool {
	return s.game == GameBlackjack && s.seats[SeatDealer] != HousePolicy
}

// submit advances the match by one decision: human input when the active
// seat is human, otherwise one policy decision.
func (s *Session) submit(ctx context.Context, input string) (*View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.over() {
		return s.view(), ErrMatchFinished
	}

	seat := s.activeSeat()
	policy := s.policies[seat]

	if policy == nil {
		if input == "" {
			return s.view(), ErrInputRequired
		}
		if err := s.applyHuman(seat, input); err != nil {
			return s.view(), err
		}
		return s.view(), nil
	}

	if input != "" {
		return s.view(), ErrNotHumanTurn
	}
	s.applyPolicy(ctx, seat, policy)
	return s.view(), nil
}

func (s *Session) applyHuman(seat, input string) error {
	switch s.game {
	case GameConnect4:
		column, err := engine.ParseColumn(input)
		if err != nil {
			return err
		}
		if err := s.c4.ApplyMove(column); err != nil {
			return err
		}
		s.transcript = append(s.transcript, Turn{
			Seat: seat, Policy: HumanPolicy, Text: input, Action: strconv.Itoa(column),
		})
	case GameBlackjack:
		action, err := s.applyBlackjackResponse(seat, input)
		if err != nil {
			return err
		}
		s.transcript = append(s.transcript, Turn{
			Seat: seat, Policy: HumanPolicy, Text: input, Action: string(action),
		})
	}
	return nil
}

func (s *Session) applyPolicy(ctx context.Context, seat string, policy agent.DecisionPolicy) {
	var prompt string
	switch {
	case s.game == GameConnect4:
		prompt = s.c4.Prompt()
	case seat == SeatDealer:
		prompt = s.bj.DealerPrompt()
	default:
		prompt = s.bj.PlayerPrompt()
	}

	res := policy.Decide(ctx, prompt)
	s.latency += res.LatencySeconds()
	turn := Turn{
		Seat:     seat,
		Policy:   s.seats[seat],
		Text:     res.Text,
		Thinking: res.Thinking,
		Fallback: res.FallbackUsed,
		Latency:  res.LatencySeconds(),
		Error:    res.ErrText,
	}

	if s.game == GameConnect4 {
		result := s.c4.ApplyResponse(res.Text)
		if result.Thinking != "" && turn.Thinking == "" {
			turn.Thinking = result.Thinking
		}
		if result.Err != nil {
			// Unparseable or invalid decision: surfaced in the transcript,
			// never retried here; the seat simply loses its turn attempt.
			turn.Error = result.Err.Error()
		} else {
			turn.Action = strconv.Itoa(result.Column)
		}
		s.transcript = append(s.transcript, turn)
		return
	}

	action, err := s.applyBlackjackResponse(seat, res.Text)
	turn.Action = string(action)
	if err != nil {
		if errors.Is(err, engine.ErrDealerMustHit) {
			// The rule overrides the policy: reject the stand and hit.
			turn.Note = err.Error()
			if hitErr := s.bj.DealerHit(); hitErr == nil {
				turn.Action = string(engine.Hit)
			}
		} else {
			turn.Error = err.Error()
		}
	}
	s.transcript = append(s.transcript, turn)
}

func (s *Session) applyBlackjackResponse(seat, text string) (engine.BlackjackAction, error) {
	if seat == SeatDealer {
		return s.bj.ApplyDealerResponse(text)
	}
	if s.dealerIsPolicy() {
		return s.bj.ApplyPlayerResponseToDealer(text)
	}
	return s.bj.ApplyPlayerResponse(text)
}

// names used for the match log: the player behind a seat.
func (s *Session) seatName(seat string) string {
	name := s.seats[seat]
	if name == "" {
		name = HumanPolicy
	}
	return name
}

// result summarizes the finished match for recording: credited winner and
// loser (empty on even outcomes) plus the players who tied.
func (s *Session) result() (outcome, winner, loser string, tied []string) {
	outcome = s.outcome()
	switch s.game {
	case GameConnect4:
		one, two := s.seatName("1"), s.seatName("2")
		switch s.c4.Winner {
		case 1:
			return outcome, one, two, nil
		case 2:
			return outcome, two, one, nil
		default:
			return outcome, "", "", []string{one, two}
		}
	case GameBlackjack:
		player, dealer := s.seatName(SeatPlayer), s.seatName(SeatDealer)
		switch s.bj.Winner {
		case engine.OutcomePlayer:
			return outcome, player, dealer, nil
		case engine.OutcomeDealer:
			return outcome, dealer, player, nil
		default:
			return outcome, "", "", []string{player, dealer}
		}
	}
	return outcome, "", "", nil
}

func (s *Session) notifyResult() {
	_, winner, _, _ := s.result()
	for seat, policy := range s.policies {
		if policy == nil {
			continue
		}
		policy.UpdateWithResult(s.seatName(seat) == winner)
	}
}

func validateSeats(game Game, seats map[string]string) error {
	switch game {
	case GameConnect4:
		for _, seat := range []string{"1", "2"} {
			if seats[seat] == "" {
				return fmt.Errorf("connect4 needs seat %q", seat)
			}
		}
	case GameBlackjack:
		if seats[SeatPlayer] == "" {
			return fmt.Errorf("blackjack needs seat %q", SeatPlayer)
		}
	default:
		return fmt.Errorf("unknown game %q", game)
	}
	return nil
}
