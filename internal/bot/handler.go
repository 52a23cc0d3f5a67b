package bot

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/park285/Cheese-TicTacToe-bot/internal/adapter/tttpresenter"
	"github.com/park285/Cheese-TicTacToe-bot/internal/irisfast"
	"github.com/park285/Cheese-TicTacToe-bot/internal/obslog"
	"github.com/park285/Cheese-TicTacToe-bot/internal/pvpttt"
	"github.com/park285/Cheese-TicTacToe-bot/internal/ttt"
	"github.com/park285/Cheese-TicTacToe-bot/internal/util"
)

const (
	defaultTimeout = 15 * time.Second
	historyLimit   = 10
)

// HistorySource lists finished games of a channel, newest first.
type HistorySource interface {
	History(ctx context.Context, channel string, limit int) ([]pvpttt.Record, error)
}

type Options struct {
	// RoomFilter reports whether a room may host games; nil allows every room.
	RoomFilter func(room string) bool
	// History backs the history sub-command; nil disables it.
	History HistorySource
	Timeout time.Duration
}

// Handler routes prefixed commands and move selections from the bridge.
type Handler struct {
	games     *pvpttt.Manager
	presenter *tttpresenter.Presenter
	formatter *tttpresenter.Formatter
	opts      Options

	// rooms holds one *sync.Mutex per channel so a state change and the board/menu posts that
	// announce it go out before the next change in that channel starts.
	rooms sync.Map
}

func NewHandler(games *pvpttt.Manager, presenter *tttpresenter.Presenter, opts Options) *Handler {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	return &Handler{games: games, presenter: presenter, formatter: presenter.Formatter(), opts: opts}
}

// Handle processes one inbound frame. It blocks until every reply is sent, so callers run it
// off the WebSocket read loop.
func (h *Handler) Handle(ctx context.Context, msg *irisfast.Message) {
	if msg == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, h.opts.Timeout)
	defer cancel()

	if customID, values, ok := msg.Interaction(); ok {
		if strings.HasPrefix(customID, tttpresenter.CustomIDPrefix) {
			h.handleSelection(ctx, msg, customID, values)
		}
		return
	}

	prefix := h.formatter.Prefix()
	text := strings.TrimSpace(msg.Msg)
	if text == "" || !strings.HasPrefix(text, prefix) {
		return
	}
	raw := strings.TrimSpace(strings.TrimPrefix(text, prefix))

	// text fallback for the move menu: <prefix>ttt_move_<channel> <n>
	if strings.HasPrefix(raw, tttpresenter.CustomIDPrefix) {
		parts := strings.Fields(raw)
		h.handleSelection(ctx, msg, parts[0], parts[1:])
		return
	}

	if !msg.IsDirect() && !h.roomAllowed(msg.Room) {
		obslog.L().Debug("ignore_room", zap.String("room", msg.Room))
		return
	}

	parts := strings.Fields(raw)
	if len(parts) == 0 {
		h.reply(ctx, msg.Room, h.formatter.Help())
		return
	}
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "help":
		h.reply(ctx, msg.Room, h.formatter.Help())
	case "ttt", "tictactoe":
		h.handleTTT(ctx, msg, args)
	default:
		h.reply(ctx, msg.Room, h.formatter.Message("common.unknown_command", nil))
	}
}

func (h *Handler) handleTTT(ctx context.Context, msg *irisfast.Message, args []string) {
	if len(args) == 0 {
		h.reply(ctx, msg.Room, h.formatter.Message("ttt.usage", nil))
		return
	}
	// play is the default sub-command when players are named right away
	if strings.HasPrefix(args[0], "@") {
		h.play(ctx, msg, args)
		return
	}
	switch strings.ToLower(args[0]) {
	case "play", "start":
		h.play(ctx, msg, args[1:])
	case "end", "stop":
		h.end(ctx, msg)
	case "history":
		h.history(ctx, msg)
	case "help":
		h.reply(ctx, msg.Room, h.formatter.Help())
	default:
		h.reply(ctx, msg.Room, h.formatter.Message("ttt.usage", nil))
	}
}

func (h *Handler) play(ctx context.Context, msg *irisfast.Message, args []string) {
	if msg.IsDirect() {
		h.reply(ctx, msg.Room, h.formatter.Message("ttt.not_text_channel", nil))
		return
	}
	unlock := h.lockRoom(msg.Room)
	defer unlock()
	if _, err := h.games.Get(ctx, msg.Room); err == nil {
		h.reply(ctx, msg.Room, h.formatter.Message("ttt.in_progress", nil))
		return
	}
	players := mentionedPlayers(msg, args)
	if len(players) != ttt.Players {
		h.reply(ctx, msg.Room, h.formatter.Message("ttt.need_two_players", nil))
		return
	}

	s, err := h.games.Start(ctx, msg.Room, msg.UserID(), players)
	switch {
	case err == nil:
	case errors.Is(err, pvpttt.ErrGameInProgress):
		h.reply(ctx, msg.Room, h.formatter.Message("ttt.in_progress", nil))
		return
	case errors.Is(err, pvpttt.ErrSamePlayer):
		h.reply(ctx, msg.Room, h.formatter.Message("ttt.same_player", nil))
		return
	case errors.Is(err, pvpttt.ErrInvalidArgs):
		h.reply(ctx, msg.Room, h.formatter.Message("ttt.need_two_players", nil))
		return
	default:
		obslog.L().Error("ttt_start_error", zap.String("room", msg.Room), zap.Error(err))
		h.reply(ctx, msg.Room, h.formatter.Message("ttt.start_failed", map[string]any{"Error": err.Error()}))
		return
	}

	h.reply(ctx, msg.Room, h.formatter.Started(s))
	if err := h.presenter.Menus(ctx, s); err != nil {
		obslog.L().Warn("ttt_menu_send_error", zap.String("session_id", s.ID), zap.Error(err))
	}
	if err := h.presenter.Board(ctx, s); err != nil {
		obslog.L().Warn("ttt_board_send_error", zap.String("session_id", s.ID), zap.Error(err))
	}
}

func (h *Handler) end(ctx context.Context, msg *irisfast.Message) {
	unlock := h.lockRoom(msg.Room)
	defer unlock()
	s, err := h.games.End(ctx, msg.Room, msg.UserID())
	switch {
	case err == nil:
	case errors.Is(err, pvpttt.ErrNoGame):
		h.reply(ctx, msg.Room, h.formatter.Message("ttt.no_game", nil))
		return
	case errors.Is(err, ttt.ErrNotInitiator):
		h.reply(ctx, msg.Room, h.formatter.Message("ttt.end_denied", nil))
		return
	default:
		obslog.L().Error("ttt_end_error", zap.String("room", msg.Room), zap.Error(err))
		h.reply(ctx, msg.Room, h.formatter.Message("ttt.end_failed", map[string]any{"Error": err.Error()}))
		return
	}

	h.reply(ctx, msg.Room, h.formatter.Message("ttt.ended", nil))
	h.finish(ctx, s)
}

func (h *Handler) history(ctx context.Context, msg *irisfast.Message) {
	if h.opts.History == nil {
		h.reply(ctx, msg.Room, h.formatter.Message("ttt.history_unavailable", nil))
		return
	}
	records, err := h.opts.History.History(ctx, msg.Room, historyLimit)
	if err != nil {
		obslog.L().Error("ttt_history_error", zap.String("room", msg.Room), zap.Error(err))
		h.reply(ctx, msg.Room, h.formatter.Message("ttt.history_unavailable", nil))
		return
	}
	h.reply(ctx, msg.Room, h.formatter.History(records))
}

// handleSelection applies a move picked from the menu of the channel encoded in customID.
// Feedback for a rejected pick goes to the picker's direct chat only.
func (h *Handler) handleSelection(ctx context.Context, msg *irisfast.Message, customID string, values []string) {
	user := msg.UserID()
	channel, err := tttpresenter.DecodeCustomID(customID)
	if err != nil {
		h.direct(ctx, user, h.formatter.Message("ttt.invalid_selection", nil))
		return
	}
	if !h.roomAllowed(channel) {
		obslog.L().Debug("ignore_room", zap.String("room", channel))
		return
	}
	cell, err := tttpresenter.ParseSelection(values)
	if err != nil {
		h.direct(ctx, user, h.formatter.Message("ttt.invalid_selection", nil))
		return
	}

	unlock := h.lockRoom(channel)
	defer unlock()
	s, err := h.games.Move(ctx, channel, user, cell)
	if err != nil {
		h.direct(ctx, user, h.rejection(channel, err))
		return
	}

	if err := h.presenter.Board(ctx, s); err != nil {
		obslog.L().Warn("ttt_board_send_error", zap.String("session_id", s.ID), zap.Error(err))
	}
	if s.Game.Finished() {
		h.finish(ctx, s)
		return
	}
	if err := h.presenter.Menus(ctx, s); err != nil {
		obslog.L().Warn("ttt_menu_send_error", zap.String("session_id", s.ID), zap.Error(err))
	}
}

// finish announces a terminal session: forced ends repost the board, then thanks and closed menus.
func (h *Handler) finish(ctx context.Context, s *pvpttt.Session) {
	if s.Game.Outcome.Kind == ttt.OutcomeForced {
		if err := h.presenter.Board(ctx, s); err != nil {
			obslog.L().Warn("ttt_board_send_error", zap.String("session_id", s.ID), zap.Error(err))
		}
	}
	h.reply(ctx, s.Channel, h.formatter.Message("ttt.thanks", nil))
	if err := h.presenter.CloseMenus(ctx, s); err != nil {
		obslog.L().Warn("ttt_menu_close_error", zap.String("session_id", s.ID), zap.Error(err))
	}
}

func (h *Handler) rejection(channel string, err error) string {
	switch {
	case errors.Is(err, pvpttt.ErrNoGame), errors.Is(err, ttt.ErrGameOver):
		return h.formatter.MenuClosed(channel)
	case errors.Is(err, pvpttt.ErrNotAPlayer):
		return h.formatter.Message("ttt.not_a_player", nil)
	case errors.Is(err, ttt.ErrNotYourTurn):
		return h.formatter.Message("ttt.not_your_turn", nil)
	case errors.Is(err, ttt.ErrCellOccupied):
		return h.formatter.Message("ttt.cell_occupied", nil)
	case errors.Is(err, ttt.ErrInvalidCell):
		return h.formatter.Message("ttt.invalid_selection", nil)
	default:
		obslog.L().Error("ttt_move_failed", zap.String("channel", channel), zap.Error(err))
		return h.formatter.Message("ttt.move_failed", nil)
	}
}

func (h *Handler) lockRoom(room string) func() {
	v, _ := h.rooms.LoadOrStore(room, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

func (h *Handler) roomAllowed(room string) bool {
	return h.opts.RoomFilter == nil || h.opts.RoomFilter(room)
}

func (h *Handler) reply(ctx context.Context, room, text string) {
	if err := h.presenter.Reply(ctx, room, text); err != nil {
		obslog.L().Warn("reply_error", zap.String("room", room), zap.Error(err))
	}
}

func (h *Handler) direct(ctx context.Context, userID, text string) {
	if strings.TrimSpace(userID) == "" {
		return
	}
	if err := h.presenter.Direct(ctx, userID, text); err != nil {
		obslog.L().Warn("direct_reply_error", zap.String("user_id", userID), zap.Error(err))
	}
}

// mentionedPlayers prefers the structured mention list of the frame. @name tokens in args are
// used only when the bridge identifies users by display name (no structured user id), since a
// player's moves are matched against msg.UserID().
func mentionedPlayers(msg *irisfast.Message, args []string) []pvpttt.Player {
	var out []pvpttt.Player
	if msg.JSON != nil && len(msg.JSON.Mentions) > 0 {
		for _, m := range msg.JSON.Mentions {
			id := strings.TrimSpace(m.UserID)
			if id == "" {
				continue
			}
			out = append(out, pvpttt.Player{ID: id, Name: util.CleanMention(msg.MentionName(id))})
		}
		return out
	}
	if msg.JSON != nil && strings.TrimSpace(msg.JSON.UserID) != "" {
		return nil
	}
	for _, name := range util.MentionTokens(strings.Join(args, " ")) {
		out = append(out, pvpttt.Player{ID: name, Name: name})
	}
	return out
}
