package tttpresenter

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/park285/Cheese-TicTacToe-bot/internal/obslog"
	"github.com/park285/Cheese-TicTacToe-bot/internal/pvpttt"
)

// SendFunc delivers payload to a room or, for direct sends, to a user id.
type SendFunc func(ctx context.Context, target, payload string) error

// Presenter delivers board messages to the room and move menus to each player's direct chat
// without coupling to the command layer.
type Presenter struct {
	sendMessage SendFunc
	sendImage   SendFunc
	sendDirect  SendFunc

	formatter *Formatter
	renderer  *Renderer
}

// NewPresenter wires the transports; sendImage may be nil and a nil renderer disables images.
func NewPresenter(formatter *Formatter, renderer *Renderer, sendMessage, sendImage, sendDirect SendFunc) *Presenter {
	return &Presenter{
		sendMessage: sendMessage,
		sendImage:   sendImage,
		sendDirect:  sendDirect,
		formatter:   formatter,
		renderer:    renderer,
	}
}

func (p *Presenter) Formatter() *Formatter { return p.formatter }

// Reply sends text to a room.
func (p *Presenter) Reply(ctx context.Context, room, text string) error {
	if p == nil || p.sendMessage == nil || strings.TrimSpace(text) == "" {
		return nil
	}
	return p.sendMessage(ctx, room, text)
}

// Direct sends text to userID's one-to-one chat.
func (p *Presenter) Direct(ctx context.Context, userID, text string) error {
	if p == nil || p.sendDirect == nil || strings.TrimSpace(text) == "" {
		return nil
	}
	return p.sendDirect(ctx, userID, text)
}

// Board posts the board text to the session's channel, then the rendered image when enabled.
// Image failures are logged; the text already carries the full state.
func (p *Presenter) Board(ctx context.Context, s *pvpttt.Session) error {
	if p == nil || s == nil {
		return nil
	}
	if err := p.Reply(ctx, s.Channel, p.formatter.Board(s)); err != nil {
		return err
	}
	if p.renderer == nil || p.sendImage == nil {
		return nil
	}
	png, err := p.renderer.RenderPNG(ctx, s.Game, RenderOptions{Caption: p.caption(s)})
	if err != nil {
		obslog.L().Warn("ttt_board_render_error", zap.String("session_id", s.ID), zap.Error(err))
		return nil
	}
	return p.sendImage(ctx, s.Channel, base64.StdEncoding.EncodeToString(png))
}

// Menus sends the current move menu to both players.
func (p *Presenter) Menus(ctx context.Context, s *pvpttt.Session) error {
	if p == nil || s == nil {
		return nil
	}
	text := p.formatter.Menu(BuildMenu(s.Channel, s.Game))
	var errs []error
	for _, pl := range s.Players {
		if err := p.Direct(ctx, pl.ID, text); err != nil {
			errs = append(errs, fmt.Errorf("menu to %s: %w", pl.ID, err))
		}
	}
	return errors.Join(errs...)
}

// CloseMenus tells both players their menu for the channel is no longer live.
func (p *Presenter) CloseMenus(ctx context.Context, s *pvpttt.Session) error {
	if p == nil || s == nil {
		return nil
	}
	text := p.formatter.MenuClosed(s.Channel)
	var errs []error
	for _, pl := range s.Players {
		if err := p.Direct(ctx, pl.ID, text); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (p *Presenter) caption(s *pvpttt.Session) string {
	head := s.Players[0].Label() + " (X) vs " + s.Players[1].Label() + " (O)"
	if status := p.formatter.Status(s); status != "" {
		return head + " - " + status
	}
	return head
}
