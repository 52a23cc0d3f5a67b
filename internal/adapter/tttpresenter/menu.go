package tttpresenter

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/park285/Cheese-TicTacToe-bot/internal/ttt"
)

// CustomIDPrefix tags move-menu interactions; the channel id follows it.
const CustomIDPrefix = "ttt_move_"

var (
	ErrInvalidCustomID  = errors.New("invalid move menu id")
	ErrInvalidSelection = errors.New("invalid move selection")
)

// MenuOption is one selectable cell.
type MenuOption struct {
	Value       string
	Label       string
	Description string
}

// Menu is the private move picker sent to each player.
type Menu struct {
	CustomID string
	Options  []MenuOption
}

// BuildMenu lists one option per empty cell, numbered 1..9 with a 1-based (row, column).
func BuildMenu(channel string, g *ttt.Game) Menu {
	menu := Menu{CustomID: EncodeCustomID(channel)}
	if g == nil {
		return menu
	}
	for _, cell := range g.AvailableMoves() {
		v := strconv.Itoa(cell + 1)
		menu.Options = append(menu.Options, MenuOption{
			Value:       v,
			Label:       v,
			Description: fmt.Sprintf("(%d, %d)", cell/3+1, cell%3+1),
		})
	}
	return menu
}

func EncodeCustomID(channel string) string {
	return CustomIDPrefix + strings.TrimSpace(channel)
}

// DecodeCustomID returns the channel id carried by a move-menu custom id.
func DecodeCustomID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if !strings.HasPrefix(id, CustomIDPrefix) {
		return "", ErrInvalidCustomID
	}
	channel := strings.TrimPrefix(id, CustomIDPrefix)
	if strings.TrimSpace(channel) == "" {
		return "", ErrInvalidCustomID
	}
	return channel, nil
}

// ParseSelection maps the single picked value "1".."9" to a 0-based cell.
func ParseSelection(values []string) (int, error) {
	if len(values) != 1 {
		return 0, ErrInvalidSelection
	}
	n, err := strconv.Atoi(strings.TrimSpace(values[0]))
	if err != nil || n < 1 || n > len(ttt.Board{}) {
		return 0, ErrInvalidSelection
	}
	return n - 1, nil
}
