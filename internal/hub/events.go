package hub

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/EliasObeid9-02/ChatLite/internal/models"
)

// Event types carried on the first line of a published frame.
const (
	MessageCreated  = "MessageCreated"
	ReactionUpdated = "ReactionUpdated"
)

// MessageEvent is published to a channel topic when a message is stored.
// Grouped tells subscribers to append the message to the sender's current
// display group instead of starting a new one; First marks the channel's
// very first message so clients can clear their empty-channel placeholder.
type MessageEvent struct {
	Message models.Message `json:"message"`
	Sender  models.User    `json:"sender"`
	Grouped bool           `json:"grouped"`
	First   bool           `json:"first"`
}

// ReactionEvent is published after a reaction toggle. It carries the
// shared counts only; each subscriber looks up its own reacted set on
// delivery.
type ReactionEvent struct {
	MessageID int64          `json:"messageID,string"`
	Counts    map[string]int `json:"reactionCounts"`
}

// A frame is "<eventType>\n<json payload>", the format published to the
// broker and handed to every subscriber.
func encodeFrame(eventType string, payload any) (string, error) {
	jsonBytes, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	var buf strings.Builder
	buf.Grow(len(eventType) + 1 + len(jsonBytes))
	buf.WriteString(eventType)
	buf.WriteByte('\n')
	buf.Write(jsonBytes)
	return buf.String(), nil
}

func splitFrame(frame string) (eventType string, body string, err error) {
	eventType, body, found := strings.Cut(frame, "\n")
	if !found {
		return "", "", fmt.Errorf("frame has no event type line")
	}
	return eventType, body, nil
}

// clientEvent is the single inbound schema. Type discriminates
// explicitly, there is no field-presence sniffing.
type clientEvent struct {
	Type      string `json:"type"`
	Content   string `json:"content"`
	MessageID int64  `json:"message_id,string"`
	Emoji     string `json:"emoji"`
}

const (
	clientEventMessage  = "message"
	clientEventReaction = "reaction"
)

func decodeClientEvent(data []byte) (clientEvent, error) {
	var event clientEvent
	err := json.Unmarshal(data, &event)
	if err != nil {
		return event, err
	}

	switch event.Type {
	case clientEventMessage, clientEventReaction:
		return event, nil
	default:
		return event, fmt.Errorf("unknown client event type %q", event.Type)
	}
}
