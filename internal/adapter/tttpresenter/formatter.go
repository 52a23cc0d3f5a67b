package tttpresenter

import (
	"strconv"
	"strings"

	"github.com/park285/Cheese-TicTacToe-bot/internal/msgcat"
	"github.com/park285/Cheese-TicTacToe-bot/internal/pvpttt"
	"github.com/park285/Cheese-TicTacToe-bot/internal/ttt"
	"github.com/park285/Cheese-TicTacToe-bot/internal/util"
)

const historyTimeLayout = "01-02 15:04"

// PrefixProvider exposes the command prefix shown in help and hints.
type PrefixProvider interface {
	Prefix() string
}

// Formatter turns sessions into chat text using the message catalog.
type Formatter struct {
	prefixProvider PrefixProvider
	catalog        *msgcat.Catalog
}

func NewFormatter(provider PrefixProvider, catalog *msgcat.Catalog) *Formatter {
	return &Formatter{prefixProvider: provider, catalog: catalog}
}

func (f *Formatter) Prefix() string {
	if f == nil || f.prefixProvider == nil {
		return ""
	}
	return strings.TrimSpace(f.prefixProvider.Prefix())
}

// Message renders a catalog key; Prefix is always available to the template.
func (f *Formatter) Message(key string, data map[string]any) string {
	vars := map[string]any{"Prefix": f.Prefix()}
	for k, v := range data {
		vars[k] = v
	}
	if f == nil || f.catalog == nil {
		return key
	}
	return f.catalog.Text(key, vars)
}

func (f *Formatter) Help() string {
	text := f.Message("ttt.help", nil)
	header, _, _ := strings.Cut(text, "\n")
	return util.WithSeeMore(header, text)
}

// Board is the public board message: three rows then the status line.
func (f *Formatter) Board(s *pvpttt.Session) string {
	if s == nil || s.Game == nil {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(BoardRows(s.Game.Board))
	sb.WriteString("\n")
	sb.WriteString(f.Status(s))
	return sb.String()
}

// BoardRows renders `a | b | c` rows; empty cells show their 1-based number.
func BoardRows(b ttt.Board) string {
	rows := make([]string, 0, 3)
	for r := 0; r < 3; r++ {
		cells := make([]string, 3)
		for c := 0; c < 3; c++ {
			idx := r*3 + c
			if m := b[idx]; m != ttt.Empty {
				cells[c] = string(m)
			} else {
				cells[c] = strconv.Itoa(idx + 1)
			}
		}
		rows = append(rows, strings.Join(cells, " | "))
	}
	return strings.Join(rows, "\n")
}

// Status is the current-player line, or the result line once the game is over.
func (f *Formatter) Status(s *pvpttt.Session) string {
	if s.Game.Finished() {
		return f.Result(s)
	}
	p := s.CurrentPlayer()
	return f.Message("ttt.current_player", map[string]any{"Name": p.Label(), "Marker": string(p.Marker)})
}

func (f *Formatter) Result(s *pvpttt.Session) string {
	switch s.Game.Outcome.Kind {
	case ttt.OutcomeWin:
		w, ok := s.Winner()
		if !ok {
			return f.Message("ttt.result_draw", nil)
		}
		return f.Message("ttt.result_win", map[string]any{"Name": w.Label(), "Marker": string(w.Marker)})
	case ttt.OutcomeDraw:
		return f.Message("ttt.result_draw", nil)
	case ttt.OutcomeForced:
		return f.Message("ttt.result_forced", nil)
	default:
		return ""
	}
}

func (f *Formatter) Started(s *pvpttt.Session) string {
	return f.Message("ttt.started", map[string]any{"X": s.Players[0].Label(), "O": s.Players[1].Label()})
}

// Menu is the direct-chat move picker: the prompt, one line per option and the reply hint.
func (f *Formatter) Menu(menu Menu) string {
	var sb strings.Builder
	sb.WriteString(f.Message("ttt.select_move", nil))
	for _, opt := range menu.Options {
		sb.WriteString("\n")
		sb.WriteString(opt.Label)
		sb.WriteString(" ")
		sb.WriteString(opt.Description)
	}
	sb.WriteString("\n")
	sb.WriteString(f.Message("ttt.menu_hint", map[string]any{"CustomID": menu.CustomID}))
	return sb.String()
}

func (f *Formatter) MenuClosed(channel string) string {
	return f.Message("ttt.menu_closed", map[string]any{"Channel": channel})
}

func (f *Formatter) History(records []pvpttt.Record) string {
	if len(records) == 0 {
		return f.Message("ttt.history_empty", nil)
	}
	header := f.Message("ttt.history_header", nil)
	lines := make([]string, 0, len(records))
	for _, rec := range records {
		lines = append(lines, f.Message("ttt.history_line", map[string]any{
			"When":   rec.EndedAt.Local().Format(historyTimeLayout),
			"X":      nonEmpty(rec.XName, rec.XID),
			"O":      nonEmpty(rec.OName, rec.OID),
			"Result": f.historyResult(rec),
		}))
	}
	return util.WithSeeMore(header, strings.Join(lines, "\n"))
}

func (f *Formatter) historyResult(rec pvpttt.Record) string {
	switch rec.Result {
	case "x":
		return nonEmpty(rec.XName, rec.XID) + " (X)"
	case "o":
		return nonEmpty(rec.OName, rec.OID) + " (O)"
	case "draw":
		return f.Message("ttt.result_draw", nil)
	case "forced":
		return f.Message("ttt.result_forced", nil)
	default:
		return rec.Result
	}
}

func nonEmpty(v, fallback string) string {
	if s := strings.TrimSpace(v); s != "" {
		return s
	}
	return fallback
}
