package envelope

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"time"
)

// Envelope is the wire shape for every frame exchanged over the relay
// connection: server-to-client events and client-to-server control messages.
// Data stays raw: the relay never interprets the publisher's payload, it only
// re-frames it.
type Envelope struct {
	ID        string          `json:"id"`
	Event     string          `json:"event"`
	Data      json.RawMessage `json:"data,omitempty"`
	Error     *ErrorPayload   `json:"error,omitempty"`
	Timestamp int64           `json:"ts"`
}

type ErrorPayload struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func New(event string) Envelope {
	return Envelope{
		ID:        generateID(),
		Event:     event,
		Timestamp: time.Now().UnixMilli(),
	}
}

// NewRaw wraps an already-encoded JSON payload without touching its bytes.
func NewRaw(event string, data json.RawMessage) Envelope {
	e := New(event)
	e.Data = data
	return e
}

func NewEvent(event string, data interface{}) (Envelope, error) {
	e := New(event)
	raw, err := json.Marshal(data)
	if err != nil {
		return e, err
	}
	e.Data = raw
	return e, nil
}

func NewError(code int, message string) Envelope {
	e := New("error")
	e.Error = &ErrorPayload{Code: code, Message: message}
	return e
}

func (e Envelope) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

func Unmarshal(data []byte) (Envelope, error) {
	var e Envelope
	err := json.Unmarshal(data, &e)
	return e, err
}

func generateID() string {
	b := make([]byte, 8)
	rand.Read(b)
	return hex.EncodeToString(b)
}
