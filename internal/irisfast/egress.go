package irisfast

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

// Egress abstracts outbound delivery over HTTP or the WebSocket.
type Egress interface {
	SendText(ctx context.Context, room, message string) error
	SendImage(ctx context.Context, room, imageBase64 string) error
	SendDirect(ctx context.Context, userID, message string) error
}

const (
	ModeHTTP = "http"
	ModeWS   = "ws"
	ModeAuto = "auto"
)

// NewEgress picks the transport by mode. auto prefers the WebSocket while connected and falls
// back to HTTP once per message.
func NewEgress(mode string, dryrun bool, c *Client, ws *WebSocket, logger *zap.Logger) Egress {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch mode {
	case ModeWS:
		return &wsEgress{ws: ws, dryrun: dryrun, logger: logger}
	case ModeAuto:
		return &autoEgress{ws: &wsEgress{ws: ws, dryrun: dryrun, logger: logger}, http: &httpEgress{c: c}, logger: logger}
	default:
		return &httpEgress{c: c}
	}
}

type httpEgress struct{ c *Client }

var errHTTPUnavailable = errors.New("http egress not available")

func (h *httpEgress) SendText(ctx context.Context, room, message string) error {
	if h == nil || h.c == nil {
		return errHTTPUnavailable
	}
	return h.c.SendMessage(ctx, room, message)
}

func (h *httpEgress) SendImage(ctx context.Context, room, imageBase64 string) error {
	if h == nil || h.c == nil {
		return errHTTPUnavailable
	}
	return h.c.SendImage(ctx, room, imageBase64)
}

func (h *httpEgress) SendDirect(ctx context.Context, userID, message string) error {
	if h == nil || h.c == nil {
		return errHTTPUnavailable
	}
	return h.c.SendDirect(ctx, userID, message)
}

// wsEgress writes ReplyRequest frames on the bridge WebSocket.
type wsEgress struct {
	ws     *WebSocket
	dryrun bool
	logger *zap.Logger
}

func (w *wsEgress) send(ctx context.Context, req ReplyRequest) error {
	if w == nil || w.ws == nil {
		return errors.New("ws egress not available")
	}
	if w.dryrun {
		w.logger.Info("ws_egress_dryrun", zap.String("type", req.Type), zap.String("room", req.Room), zap.String("user_id", req.UserID))
		return nil
	}
	return w.ws.WriteJSON(ctx, &req)
}

func (w *wsEgress) connected() bool {
	return w != nil && w.ws != nil && w.ws.State() == WSStateConnected
}

func (w *wsEgress) SendText(ctx context.Context, room, message string) error {
	return w.send(ctx, ReplyRequest{Type: "text", Room: room, Data: message})
}

func (w *wsEgress) SendImage(ctx context.Context, room, imageBase64 string) error {
	return w.send(ctx, ReplyRequest{Type: "image", Room: room, Data: imageBase64})
}

func (w *wsEgress) SendDirect(ctx context.Context, userID, message string) error {
	return w.send(ctx, ReplyRequest{Type: "text", UserID: userID, Data: message})
}

type autoEgress struct {
	ws     *wsEgress
	http   *httpEgress
	logger *zap.Logger
}

func (a *autoEgress) SendText(ctx context.Context, room, message string) error {
	if a.ws.connected() {
		if err := a.ws.SendText(ctx, room, message); err == nil {
			return nil
		}
		a.logger.Warn("egress_fallback", zap.String("type", "text"), zap.String("room", room))
	}
	return a.http.SendText(ctx, room, message)
}

func (a *autoEgress) SendImage(ctx context.Context, room, imageBase64 string) error {
	if a.ws.connected() {
		if err := a.ws.SendImage(ctx, room, imageBase64); err == nil {
			return nil
		}
		a.logger.Warn("egress_fallback", zap.String("type", "image"), zap.String("room", room))
	}
	return a.http.SendImage(ctx, room, imageBase64)
}

func (a *autoEgress) SendDirect(ctx context.Context, userID, message string) error {
	if a.ws.connected() {
		if err := a.ws.SendDirect(ctx, userID, message); err == nil {
			return nil
		}
		a.logger.Warn("egress_fallback", zap.String("type", "direct"), zap.String("user_id", userID))
	}
	return a.http.SendDirect(ctx, userID, message)
}
