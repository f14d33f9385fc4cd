// Package server defines the socket event envelope and the payloads carried
// by each event, plus helpers shared by client and hub logic.
package server

import (
	"encoding/json"
	"strings"

	"github.com/Tyrowin/coinchat/internal/chat"
)

// Event names exchanged over the socket.
const (
	EventSendMessage    = "sendMessage"
	EventReceiveMessage = "receiveMessage"
	EventErrorMessage   = "errorMessage"
)

// Texts sent with EventErrorMessage.
const (
	ErrTextUserNotFound      = "User not found"
	ErrTextNotEnoughCoins    = "Not enough coins to send the message"
	ErrTextSendingFailed     = "Error sending message"
	errTextCreatingUserFails = "Error creating user"
	errTextFindingUserFails  = "Error finding user"
)

// Envelope is the JSON frame format for every socket event.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// SendMessagePayload is the data of a sendMessage event.
type SendMessagePayload struct {
	Sender  string `json:"sender"`
	Content string `json:"content"`
}

// ReceiveMessagePayload is the data of a receiveMessage event.
type ReceiveMessagePayload struct {
	Sender  string `json:"sender"`
	Content string `json:"content"`
}

func encodeEvent(event string, data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Event: event, Data: raw})
}

// errorText maps a chat error to the text the sender is shown.
func errorText(err error) string {
	switch chat.KindOf(err) {
	case chat.UserNotFound:
		return ErrTextUserNotFound
	case chat.InsufficientFunds:
		return ErrTextNotEnoughCoins
	default:
		return ErrTextSendingFailed
	}
}

// isExpectedCloseError checks if an error is expected during connection closure.
func isExpectedCloseError(err error) bool {
	if err == nil {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "use of closed network connection") ||
		strings.Contains(errStr, "websocket: close sent") ||
		strings.Contains(errStr, "broken pipe")
}
