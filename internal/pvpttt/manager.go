package pvpttt

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/park285/Cheese-TicTacToe-bot/internal/obslog"
	"github.com/park285/Cheese-TicTacToe-bot/internal/ttt"
)

// ResultRecorder receives every session that reaches a terminal outcome.
type ResultRecorder interface {
	SaveResult(ctx context.Context, s *Session) error
}

// Manager owns the channel → session registry.
type Manager struct {
	mu    sync.Mutex
	store Store
	repo  ResultRecorder
	now   func() time.Time
}

func NewManager(store Store) *Manager {
	if store == nil {
		store = NewMemoryStore()
	}
	return &Manager{store: store, now: time.Now}
}

// AttachRepository wires a recorder for finished games.
func (m *Manager) AttachRepository(r ResultRecorder) {
	if m != nil {
		m.repo = r
	}
}

// Start opens a session in channel for the two mentioned players; initiatorID may force-end it.
func (m *Manager) Start(ctx context.Context, channel, initiatorID string, players []Player) (*Session, error) {
	channel = strings.TrimSpace(channel)
	initiatorID = strings.TrimSpace(initiatorID)
	if channel == "" || initiatorID == "" || len(players) != ttt.Players {
		return nil, ErrInvalidArgs
	}
	for _, p := range players {
		if strings.TrimSpace(p.ID) == "" {
			return nil, ErrInvalidArgs
		}
	}
	if strings.TrimSpace(players[0].ID) == strings.TrimSpace(players[1].ID) {
		return nil, ErrSamePlayer
	}

	now := m.now()
	s := &Session{
		ID:        uuid.NewString(),
		Channel:   channel,
		Game:      ttt.NewGame(initiatorID),
		CreatedAt: now,
		UpdatedAt: now,
	}
	for i, p := range players {
		s.Players[i] = Player{
			ID:     strings.TrimSpace(p.ID),
			Name:   strings.TrimSpace(p.Name),
			Index:  i,
			Marker: ttt.MarkerFor(i),
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.store.Claim(ctx, s); err != nil {
		return nil, err
	}
	obslog.L().Info("ttt_session_start",
		zap.String("session_id", s.ID),
		zap.String("channel", s.Channel),
		zap.String("initiator_id", initiatorID),
		zap.String("x_id", s.Players[0].ID),
		zap.String("o_id", s.Players[1].ID),
	)
	return s, nil
}

// Get returns the channel's active session.
func (m *Manager) Get(ctx context.Context, channel string) (*Session, error) {
	return m.store.Load(ctx, channel)
}

// Channels lists channels with an active session.
func (m *Manager) Channels(ctx context.Context) ([]string, error) {
	return m.store.Channels(ctx)
}

// Move plays cell (0-based) for userID in channel. A finished session is released from the registry.
func (m *Manager) Move(ctx context.Context, channel, userID string, cell int) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.store.Update(ctx, channel, func(cur *Session) error {
		idx, ok := cur.PlayerIndex(userID)
		if !ok {
			return ErrNotAPlayer
		}
		if err := cur.Game.Play(idx, cell); err != nil {
			return err
		}
		cur.UpdatedAt = m.now()
		return nil
	})
	if err != nil {
		if !isRuleError(err) {
			obslog.L().Warn("ttt_move_error", zap.String("channel", channel), zap.String("user_id", userID), zap.Error(err))
		}
		return nil, err
	}

	obslog.L().Info("ttt_move",
		zap.String("session_id", s.ID),
		zap.String("channel", s.Channel),
		zap.String("user_id", strings.TrimSpace(userID)),
		zap.Int("cell", cell),
		zap.String("outcome", string(s.Game.Outcome.Kind)),
	)
	if s.Game.Finished() {
		m.finish(ctx, s)
	}
	return s, nil
}

// End force-ends the channel's session; only the initiator may do so.
func (m *Manager) End(ctx context.Context, channel, issuerID string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.store.Update(ctx, channel, func(cur *Session) error {
		if err := cur.Game.ForceEnd(issuerID); err != nil {
			return err
		}
		cur.UpdatedAt = m.now()
		return nil
	})
	if err != nil {
		if errors.Is(err, ttt.ErrNotInitiator) {
			obslog.L().Info("ttt_force_end_denied", zap.String("channel", channel), zap.String("issuer_id", issuerID))
		}
		return nil, err
	}
	m.finish(ctx, s)
	return s, nil
}

func (m *Manager) finish(ctx context.Context, s *Session) {
	if err := m.store.Release(ctx, s.Channel); err != nil {
		obslog.L().Error("ttt_release_error", zap.String("channel", s.Channel), zap.Error(err))
	}
	obslog.L().Info("ttt_session_end",
		zap.String("session_id", s.ID),
		zap.String("channel", s.Channel),
		zap.String("outcome", string(s.Game.Outcome.Kind)),
		zap.String("winner", string(s.Game.Outcome.Winner)),
		zap.Int("moves", len(s.Game.Moves)),
	)
	if m.repo == nil {
		return
	}
	if err := m.repo.SaveResult(ctx, s); err != nil {
		obslog.L().Error("ttt_result_persist_error", zap.String("session_id", s.ID), zap.Error(err))
	}
}

// Close releases the underlying store.
func (m *Manager) Close() error {
	if m == nil || m.store == nil {
		return nil
	}
	if err := m.store.Close(); err != nil {
		return fmt.Errorf("close store: %w", err)
	}
	return nil
}

func isRuleError(err error) bool {
	return errors.Is(err, ttt.ErrCellOccupied) ||
		errors.Is(err, ttt.ErrNotYourTurn) ||
		errors.Is(err, ttt.ErrInvalidCell) ||
		errors.Is(err, ttt.ErrGameOver) ||
		errors.Is(err, ErrNotAPlayer) ||
		errors.Is(err, ErrNoGame)
}
