package ws

import (
	"github.com/YongHui-X/ecoplate/internal/domain"
)

// Event is the closed set of server-to-client payloads. Each concrete payload
// implements eventType, so the wire type string is fixed at the type rather
// than at every call site.
type Event interface {
	eventType() string
}

// envelope is the outbound wire frame: {"type": ..., "payload": {...}}.
type envelope struct {
	Type    string `json:"type"`
	Payload Event  `json:"payload"`
}

// ConnectionEstablishedPayload is sent to a single connection right after it
// is admitted to the hub.
type ConnectionEstablishedPayload struct {
	UserID int64 `json:"userId"`
}

func (ConnectionEstablishedPayload) eventType() string { return "connection-established" }

func ConnectionEstablished(userID int64) Event {
	return ConnectionEstablishedPayload{UserID: userID}
}

// NewMessagePayload notifies the recipient of a freshly persisted message.
type NewMessagePayload struct {
	ConversationID int64           `json:"conversationId"`
	Message        *domain.Message `json:"message"`
	SenderID       int64           `json:"senderId"`
	SenderName     string          `json:"senderName"`
	ListingTitle   string          `json:"listingTitle"`
}

func (NewMessagePayload) eventType() string { return "new-message" }

func NewMessage(conversationID int64, msg *domain.Message, senderName, listingTitle string) Event {
	return NewMessagePayload{
		ConversationID: conversationID,
		Message:        msg,
		SenderID:       msg.SenderID,
		SenderName:     senderName,
		ListingTitle:   listingTitle,
	}
}

// UnreadCountPayload carries the recipient's recomputed total unread count.
type UnreadCountPayload struct {
	Count int `json:"count"`
}

func (UnreadCountPayload) eventType() string { return "unread-count-update" }

func UnreadCount(count int) Event {
	return UnreadCountPayload{Count: count}
}

// PongPayload answers a client ping.
type PongPayload struct{}

func (PongPayload) eventType() string { return "pong" }

func Pong() Event {
	return PongPayload{}
}

// inboundFrame is the client-to-server frame shape. Only "ping" is
// recognized; everything else is logged and dropped.
type inboundFrame struct {
	Type string `json:"type"`
}
