package pvpttt

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"github.com/park285/Cheese-TicTacToe-bot/internal/ttt"
)

const schemaDDL = `CREATE TABLE IF NOT EXISTS ttt_games (
    session_id    TEXT PRIMARY KEY,
    channel       TEXT NOT NULL,
    initiator_id  TEXT NOT NULL,
    x_id          TEXT NOT NULL,
    x_name        TEXT NOT NULL,
    o_id          TEXT NOT NULL,
    o_name        TEXT NOT NULL,
    result        TEXT NOT NULL,
    winner_id     TEXT NOT NULL DEFAULT '',
    moves         JSONB NOT NULL,
    board         TEXT NOT NULL,
    started_at    TIMESTAMPTZ NOT NULL,
    ended_at      TIMESTAMPTZ NOT NULL,
    duration_ms   BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS ttt_games_channel_ended_idx ON ttt_games (channel, ended_at DESC);`

// Record is one finished game as stored in ttt_games.
type Record struct {
	SessionID   string
	Channel     string
	InitiatorID string
	XID, XName  string
	OID, OName  string
	Result      string
	WinnerID    string
	Moves       []int
	Board       string
	StartedAt   time.Time
	EndedAt     time.Time
	Duration    time.Duration
}

// Repository persists finished games to Postgres.
type Repository struct {
	db *sql.DB
}

func NewRepository(ctx context.Context, databaseURL string) (*Repository, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(8)
	db.SetMaxIdleConns(4)
	db.SetConnMaxLifetime(30 * time.Minute)

	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Repository{db: db}, nil
}

// EnsureSchema creates the results table when missing.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, schemaDDL)
	return err
}

func (r *Repository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

// SaveResult upserts the final state of a session.
func (r *Repository) SaveResult(ctx context.Context, s *Session) error {
	if r == nil || r.db == nil || s == nil || s.Game == nil {
		return nil
	}
	rec := recordFromSession(s)
	moves, err := json.Marshal(rec.Moves)
	if err != nil {
		return fmt.Errorf("marshal moves: %w", err)
	}

	const q = `INSERT INTO ttt_games (
        session_id, channel, initiator_id,
        x_id, x_name, o_id, o_name,
        result, winner_id, moves, board,
        started_at, ended_at, duration_ms
      ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10::jsonb,$11,$12,$13,$14)
      ON CONFLICT (session_id) DO UPDATE SET
        result=EXCLUDED.result,
        winner_id=EXCLUDED.winner_id,
        moves=EXCLUDED.moves,
        board=EXCLUDED.board,
        ended_at=EXCLUDED.ended_at,
        duration_ms=EXCLUDED.duration_ms`

	_, err = r.db.ExecContext(ctx, q,
		rec.SessionID, rec.Channel, rec.InitiatorID,
		rec.XID, rec.XName, rec.OID, rec.OName,
		rec.Result, rec.WinnerID, string(moves), rec.Board,
		rec.StartedAt, rec.EndedAt, rec.Duration.Milliseconds(),
	)
	return err
}

// History returns the most recent finished games of a channel.
func (r *Repository) History(ctx context.Context, channel string, limit int) ([]Record, error) {
	if r == nil || r.db == nil {
		return nil, nil
	}
	if limit <= 0 || limit > 50 {
		limit = 10
	}
	const q = `SELECT session_id, channel, initiator_id, x_id, x_name, o_id, o_name,
        result, winner_id, moves, board, started_at, ended_at, duration_ms
      FROM ttt_games WHERE channel = $1 ORDER BY ended_at DESC LIMIT $2`

	rows, err := r.db.QueryContext(ctx, q, strings.TrimSpace(channel), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var (
			rec   Record
			moves []byte
			durMS int64
		)
		if err := rows.Scan(&rec.SessionID, &rec.Channel, &rec.InitiatorID,
			&rec.XID, &rec.XName, &rec.OID, &rec.OName,
			&rec.Result, &rec.WinnerID, &moves, &rec.Board,
			&rec.StartedAt, &rec.EndedAt, &durMS); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(moves, &rec.Moves); err != nil {
			return nil, fmt.Errorf("decode moves: %w", err)
		}
		rec.Duration = time.Duration(durMS) * time.Millisecond
		out = append(out, rec)
	}
	return out, rows.Err()
}

func recordFromSession(s *Session) Record {
	rec := Record{
		SessionID:   s.ID,
		Channel:     s.Channel,
		InitiatorID: s.Game.InitiatorID,
		XID:         s.Players[0].ID,
		XName:       s.Players[0].Label(),
		OID:         s.Players[1].ID,
		OName:       s.Players[1].Label(),
		Result:      resultToken(s.Game.Outcome),
		Moves:       append([]int{}, s.Game.Moves...),
		Board:       boardString(s.Game.Board),
		StartedAt:   s.CreatedAt,
		EndedAt:     s.UpdatedAt,
	}
	if w, ok := s.Winner(); ok {
		rec.WinnerID = w.ID
	}
	if rec.EndedAt.IsZero() {
		rec.EndedAt = time.Now()
	}
	if d := rec.EndedAt.Sub(rec.StartedAt); d > 0 {
		rec.Duration = d
	}
	return rec
}

// resultToken is "x", "o", "draw", "forced" or "*" while still running.
func resultToken(o ttt.Outcome) string {
	switch o.Kind {
	case ttt.OutcomeWin:
		return strings.ToLower(string(o.Winner))
	case ttt.OutcomeDraw:
		return "draw"
	case ttt.OutcomeForced:
		return "forced"
	default:
		return "*"
	}
}

// boardString encodes the grid as nine characters, '.' for empty.
func boardString(b ttt.Board) string {
	var sb strings.Builder
	for _, c := range b {
		if c == ttt.Empty {
			sb.WriteByte('.')
			continue
		}
		sb.WriteString(string(c))
	}
	return sb.String()
}
