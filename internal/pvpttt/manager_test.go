package pvpttt

import (
	"context"
	"errors"
	"sync"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/park285/Cheese-TicTacToe-bot/internal/ttt"
)

type recorder struct {
	mu    sync.Mutex
	saved []*Session
}

func (r *recorder) SaveResult(ctx context.Context, s *Session) error {
	r.mu.Lock()
	r.saved = append(r.saved, s.Clone())
	r.mu.Unlock()
	return nil
}

func newRedisTestStore(t *testing.T) *RedisStore {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	return NewRedisStoreFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
}

// forEachStore runs fn against the in-memory and the Redis-backed registry.
func forEachStore(t *testing.T, fn func(t *testing.T, m *Manager)) {
	t.Run("memory", func(t *testing.T) { fn(t, NewManager(NewMemoryStore())) })
	t.Run("redis", func(t *testing.T) { fn(t, NewManager(newRedisTestStore(t))) })
}

func twoPlayers() []Player {
	return []Player{{ID: "u1", Name: "Alice"}, {ID: "u2", Name: "Bob"}}
}

func TestStartYieldsEmptyBoardAndPlayerOneTurn(t *testing.T) {
	forEachStore(t, func(t *testing.T, m *Manager) {
		ctx := context.Background()
		s, err := m.Start(ctx, "room1", "gm", twoPlayers())
		if err != nil {
			t.Fatalf("Start: %v", err)
		}
		if s.Game.Board != (ttt.Board{}) {
			t.Fatalf("expected empty board, got %v", s.Game.Board)
		}
		if cur := s.CurrentPlayer(); cur.ID != "u1" || cur.Marker != ttt.X {
			t.Fatalf("expected player one (X) to move, got %+v", cur)
		}
		got, err := m.Get(ctx, "room1")
		if err != nil || got.ID != s.ID {
			t.Fatalf("Get: %v (%v)", err, got)
		}
	})
}

func TestStartRejectsSecondSessionInChannel(t *testing.T) {
	forEachStore(t, func(t *testing.T, m *Manager) {
		ctx := context.Background()
		if _, err := m.Start(ctx, "room1", "gm", twoPlayers()); err != nil {
			t.Fatalf("Start: %v", err)
		}
		_, err := m.Start(ctx, "room1", "other", []Player{{ID: "u3"}, {ID: "u4"}})
		if !errors.Is(err, ErrGameInProgress) {
			t.Fatalf("expected ErrGameInProgress, got %v", err)
		}
		// other channels are independent
		if _, err := m.Start(ctx, "room2", "gm", twoPlayers()); err != nil {
			t.Fatalf("Start room2: %v", err)
		}
		chs, err := m.Channels(ctx)
		if err != nil || len(chs) != 2 {
			t.Fatalf("Channels: %v %v", chs, err)
		}
	})
}

func TestStartValidatesPlayers(t *testing.T) {
	m := NewManager(nil)
	ctx := context.Background()
	if _, err := m.Start(ctx, "room1", "gm", []Player{{ID: "u1"}}); !errors.Is(err, ErrInvalidArgs) {
		t.Fatalf("expected ErrInvalidArgs, got %v", err)
	}
	if _, err := m.Start(ctx, "", "gm", twoPlayers()); !errors.Is(err, ErrInvalidArgs) {
		t.Fatalf("expected ErrInvalidArgs for empty channel, got %v", err)
	}
	if _, err := m.Start(ctx, "room1", "gm", []Player{{ID: "u1"}, {ID: "u1"}}); !errors.Is(err, ErrSamePlayer) {
		t.Fatalf("expected ErrSamePlayer, got %v", err)
	}
}

func TestMoveToWinReleasesChannel(t *testing.T) {
	forEachStore(t, func(t *testing.T, m *Manager) {
		rec := &recorder{}
		m.AttachRepository(rec)
		ctx := context.Background()
		if _, err := m.Start(ctx, "room1", "gm", twoPlayers()); err != nil {
			t.Fatalf("Start: %v", err)
		}

		moves := []struct {
			user string
			cell int
		}{{"u1", 0}, {"u2", 3}, {"u1", 1}, {"u2", 4}, {"u1", 2}}
		var last *Session
		for _, mv := range moves {
			s, err := m.Move(ctx, "room1", mv.user, mv.cell)
			if err != nil {
				t.Fatalf("Move %v: %v", mv, err)
			}
			last = s
		}
		if last.Game.Outcome.Kind != ttt.OutcomeWin {
			t.Fatalf("expected win, got %+v", last.Game.Outcome)
		}
		if w, ok := last.Winner(); !ok || w.ID != "u1" {
			t.Fatalf("expected u1 to win, got %+v", w)
		}
		if _, err := m.Get(ctx, "room1"); !errors.Is(err, ErrNoGame) {
			t.Fatalf("expected channel to be free, got %v", err)
		}
		if len(rec.saved) != 1 || rec.saved[0].ID != last.ID {
			t.Fatalf("expected result to be recorded once, got %d", len(rec.saved))
		}
		// the channel can host a new game
		if _, err := m.Start(ctx, "room1", "gm", twoPlayers()); err != nil {
			t.Fatalf("restart: %v", err)
		}
	})
}

func TestMoveRejections(t *testing.T) {
	forEachStore(t, func(t *testing.T, m *Manager) {
		ctx := context.Background()
		if _, err := m.Start(ctx, "room1", "gm", twoPlayers()); err != nil {
			t.Fatalf("Start: %v", err)
		}
		if _, err := m.Move(ctx, "room1", "u1", 4); err != nil {
			t.Fatalf("Move: %v", err)
		}
		if _, err := m.Move(ctx, "room1", "u2", 4); !errors.Is(err, ttt.ErrCellOccupied) {
			t.Fatalf("expected ErrCellOccupied, got %v", err)
		}
		if _, err := m.Move(ctx, "room1", "u1", 0); !errors.Is(err, ttt.ErrNotYourTurn) {
			t.Fatalf("expected ErrNotYourTurn, got %v", err)
		}
		if _, err := m.Move(ctx, "room1", "stranger", 0); !errors.Is(err, ErrNotAPlayer) {
			t.Fatalf("expected ErrNotAPlayer, got %v", err)
		}
		if _, err := m.Move(ctx, "nowhere", "u1", 0); !errors.Is(err, ErrNoGame) {
			t.Fatalf("expected ErrNoGame, got %v", err)
		}

		s, err := m.Get(ctx, "room1")
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		want := ttt.Board{4: ttt.X}
		if s.Game.Board != want {
			t.Fatalf("board changed by rejected moves: %v", s.Game.Board)
		}
		if s.Game.Current != 1 {
			t.Fatalf("expected O to move, got %d", s.Game.Current)
		}
	})
}

func TestEndOnlyByInitiator(t *testing.T) {
	forEachStore(t, func(t *testing.T, m *Manager) {
		rec := &recorder{}
		m.AttachRepository(rec)
		ctx := context.Background()
		if _, err := m.Start(ctx, "room1", "gm", twoPlayers()); err != nil {
			t.Fatalf("Start: %v", err)
		}
		if _, err := m.Move(ctx, "room1", "u1", 0); err != nil {
			t.Fatalf("Move: %v", err)
		}

		if _, err := m.End(ctx, "room1", "u2"); !errors.Is(err, ttt.ErrNotInitiator) {
			t.Fatalf("expected ErrNotInitiator, got %v", err)
		}
		s, err := m.Get(ctx, "room1")
		if err != nil || s.Game.Finished() || len(s.Game.Moves) != 1 {
			t.Fatalf("session must be unchanged after denied end: %v %+v", err, s)
		}

		ended, err := m.End(ctx, "room1", "gm")
		if err != nil {
			t.Fatalf("End: %v", err)
		}
		if ended.Game.Outcome.Kind != ttt.OutcomeForced {
			t.Fatalf("expected forced outcome, got %+v", ended.Game.Outcome)
		}
		if _, err := m.Get(ctx, "room1"); !errors.Is(err, ErrNoGame) {
			t.Fatalf("expected channel to be free, got %v", err)
		}
		if len(rec.saved) != 1 {
			t.Fatalf("expected forced result recorded, got %d", len(rec.saved))
		}
		if _, err := m.End(ctx, "room1", "gm"); !errors.Is(err, ErrNoGame) {
			t.Fatalf("expected ErrNoGame on second end, got %v", err)
		}
	})
}

func TestConcurrentStartAllowsOneSession(t *testing.T) {
	forEachStore(t, func(t *testing.T, m *Manager) {
		ctx := context.Background()
		var (
			wg  sync.WaitGroup
			mu  sync.Mutex
			oks int
		)
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := m.Start(ctx, "room1", "gm", twoPlayers()); err == nil {
					mu.Lock()
					oks++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()
		if oks != 1 {
			t.Fatalf("expected exactly one session, got %d", oks)
		}
	})
}
