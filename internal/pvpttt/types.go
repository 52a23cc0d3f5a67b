package pvpttt

import (
	"errors"
	"strings"
	"time"

	"github.com/park285/Cheese-TicTacToe-bot/internal/ttt"
)

var (
	ErrInvalidArgs    = errors.New("invalid arguments")
	ErrSamePlayer     = errors.New("players must be two different users")
	ErrGameInProgress = errors.New("game already in progress")
	ErrNoGame         = errors.New("no game in progress")
	ErrNotAPlayer     = errors.New("user is not a player in this game")
)

// Player is one seat of a session.
type Player struct {
	ID     string     `json:"id"`
	Name   string     `json:"name"`
	Index  int        `json:"index"`
	Marker ttt.Marker `json:"marker"`
}

// Label is the display name, falling back to the user id.
func (p Player) Label() string {
	if n := strings.TrimSpace(p.Name); n != "" {
		return n
	}
	return p.ID
}

// Session is one in-progress game bound to a channel.
type Session struct {
	ID        string              `json:"id"`
	Channel   string              `json:"channel"`
	Players   [ttt.Players]Player `json:"players"`
	Game      *ttt.Game           `json:"game"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
}

// PlayerIndex maps a chat user to its seat.
func (s *Session) PlayerIndex(userID string) (int, bool) {
	userID = strings.TrimSpace(userID)
	for i, p := range s.Players {
		if p.ID == userID {
			return i, true
		}
	}
	return -1, false
}

// CurrentPlayer is the player to move (or the winner once the game is won).
func (s *Session) CurrentPlayer() Player { return s.Players[s.Game.Current] }

// Winner returns the winning player for a won game.
func (s *Session) Winner() (Player, bool) {
	if s.Game == nil || s.Game.Outcome.Kind != ttt.OutcomeWin {
		return Player{}, false
	}
	for _, p := range s.Players {
		if p.Marker == s.Game.Outcome.Winner {
			return p, true
		}
	}
	return Player{}, false
}

// Clone returns a deep copy so stores never share mutable state with callers.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	cp := *s
	cp.Game = s.Game.Clone()
	return &cp
}
