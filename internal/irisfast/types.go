package irisfast

import "strings"

type WebSocketState string

const (
	WSStateDisconnected WebSocketState = "disconnected"
	WSStateConnecting   WebSocketState = "connecting"
	WSStateConnected    WebSocketState = "connected"
	WSStateReconnecting WebSocketState = "reconnecting"
	WSStateFailed       WebSocketState = "failed"
)

// Config is the bridge's /config payload.
type Config struct {
	BotName           string `json:"bot_name"`
	Port              int    `json:"bot_http_port"`
	PollingSpeed      int    `json:"db_polling_rate"`
	MessageRate       int    `json:"message_send_rate"`
	WebserverEndpoint string `json:"web_server_endpoint"`
}

// ReplyRequest is a /reply body. Room targets a chat room; UserID targets the user's direct chat.
type ReplyRequest struct {
	Type   string `json:"type"`
	Room   string `json:"room,omitempty"`
	UserID string `json:"user_id,omitempty"`
	Data   string `json:"data"`
}

const (
	ChatTypeGroup  = "group"
	ChatTypeDirect = "direct"
)

type Mention struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
}

// MessageJSON is the structured part of an inbound frame. CustomID/Values are set when the
// frame is a component interaction (a select-menu pick) rather than a typed message.
type MessageJSON struct {
	UserID   string    `json:"user_id"`
	ChatID   string    `json:"chat_id"`
	ChatType string    `json:"chat_type,omitempty"`
	Mentions []Mention `json:"mentions,omitempty"`
	CustomID string    `json:"custom_id,omitempty"`
	Values   []string  `json:"values,omitempty"`
}

// Message is one inbound frame from the bridge WebSocket.
type Message struct {
	Msg    string       `json:"msg"`
	Room   string       `json:"room"`
	Sender *string      `json:"sender,omitempty"`
	JSON   *MessageJSON `json:"json,omitempty"`
}

// UserID prefers the structured user id over the sender display name.
func (m *Message) UserID() string {
	if m == nil {
		return ""
	}
	if m.JSON != nil && strings.TrimSpace(m.JSON.UserID) != "" {
		return strings.TrimSpace(m.JSON.UserID)
	}
	if m.Sender != nil {
		return strings.TrimSpace(*m.Sender)
	}
	return ""
}

// SenderName is the display name, falling back to the user id.
func (m *Message) SenderName() string {
	if m != nil && m.Sender != nil && strings.TrimSpace(*m.Sender) != "" {
		return strings.TrimSpace(*m.Sender)
	}
	return m.UserID()
}

// IsDirect reports whether the frame came from a one-to-one chat with the bot.
func (m *Message) IsDirect() bool {
	return m != nil && m.JSON != nil && strings.EqualFold(strings.TrimSpace(m.JSON.ChatType), ChatTypeDirect)
}

// Interaction returns the component custom id and picked values of an interaction frame.
func (m *Message) Interaction() (string, []string, bool) {
	if m == nil || m.JSON == nil || strings.TrimSpace(m.JSON.CustomID) == "" {
		return "", nil, false
	}
	return strings.TrimSpace(m.JSON.CustomID), m.JSON.Values, true
}

// MentionName resolves a display name for userID from the frame's mention list.
func (m *Message) MentionName(userID string) string {
	if m == nil || m.JSON == nil {
		return ""
	}
	for _, mn := range m.JSON.Mentions {
		if mn.UserID == userID {
			return strings.TrimSpace(mn.Name)
		}
	}
	return ""
}
