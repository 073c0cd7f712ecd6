package chat

import (
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/pulsechat/gateway/logger"
	"github.com/pulsechat/gateway/module/chat/model"
	"github.com/pulsechat/gateway/tools/decode"
)

// Client -> server event tags.
const (
	EventPing         = "ping"
	EventAuth         = "auth"
	EventMessage      = "message"
	EventTyping       = "typing"
	EventStatusChange = "status_change"
)

// Server -> client event tags.
const (
	EventPong           = "pong"
	EventAuthSuccess    = "auth_success"
	EventNewMessage     = "new_message"
	EventMessageEdited  = "message_edited"
	EventMessageDeleted = "message_deleted"
	EventUserStatus     = "user_status"
)

// Envelope is the bidirectional wire frame: { type, payload }.
// Inbound payloads stay loosely typed until the handler decodes them
// into their tag-specific struct.
type Envelope struct {
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload,omitempty"`
}

func ParseEnvelope(raw []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, errors.Wrap(err, "unmarshal envelope")
	}
	if env.Type == "" {
		return nil, errors.New("envelope missing type")
	}
	return &env, nil
}

// ---- typed inbound payloads ----

type AuthPayload struct {
	UserID string `json:"userId"`
}

type MessagePayload struct {
	ConversationID string   `json:"conversationId"`
	Content        string   `json:"content"`
	Attachments    []string `json:"attachments,omitempty"`
}

type TypingPayload struct {
	ConversationID string `json:"conversationId"`
	IsTyping       bool   `json:"isTyping"`
}

type StatusChangePayload struct {
	Status string `json:"status"`
}

func DecodePayload[T any](env *Envelope) (*T, error) {
	return decode.DecodeMap[T](env.Payload)
}

// ---- outbound frame builders ----

type outEnvelope struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

func buildEvent(eventType string, payload any) []byte {
	raw, err := json.Marshal(outEnvelope{Type: eventType, Payload: payload})
	if err != nil {
		logger.Errorf("[frames] marshal %s: %v", eventType, err)
		return nil
	}
	return raw
}

func BuildPong() []byte {
	return buildEvent(EventPong, nil)
}

func BuildAuthSuccess(userID string) []byte {
	return buildEvent(EventAuthSuccess, map[string]any{"userId": userID})
}

func BuildNewMessage(msg *model.Message) []byte {
	return buildEvent(EventNewMessage, map[string]any{"message": msg})
}

func BuildMessageEdited(msg *model.Message) []byte {
	return buildEvent(EventMessageEdited, map[string]any{"message": msg})
}

func BuildMessageDeleted(msgID, conversationID string) []byte {
	return buildEvent(EventMessageDeleted, map[string]any{
		"messageId":      msgID,
		"conversationId": conversationID,
	})
}

func BuildTyping(conversationID, userID string, isTyping bool) []byte {
	return buildEvent(EventTyping, map[string]any{
		"conversationId": conversationID,
		"userId":         userID,
		"isTyping":       isTyping,
	})
}

func BuildUserStatus(userID, status string) []byte {
	return buildEvent(EventUserStatus, map[string]any{
		"userId": userID,
		"status": status,
	})
}
