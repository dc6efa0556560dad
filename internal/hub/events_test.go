package hub

import (
	"encoding/json"
	"testing"

	"github.com/EliasObeid9-02/ChatLite/internal/models"
)

func TestDecodeClientEvent(t *testing.T) {
	tests := []struct {
		name        string
		data        string
		expectError bool
		expected    clientEvent
	}{
		{
			name:     "Valid message event",
			data:     `{"type": "message", "content": "hi there"}`,
			expected: clientEvent{Type: "message", Content: "hi there"},
		},
		{
			name:     "Valid reaction event",
			data:     `{"type": "reaction", "message_id": "42", "emoji": "👍"}`,
			expected: clientEvent{Type: "reaction", MessageID: 42, Emoji: "👍"},
		},
		{
			name:        "Unparseable payload",
			data:        `{"type": "message",`,
			expectError: true,
		},
		{
			name:        "Unknown event type",
			data:        `{"type": "typing"}`,
			expectError: true,
		},
		{
			name:        "Missing event type",
			data:        `{"content": "hi"}`,
			expectError: true,
		},
		{
			name:        "Not an object",
			data:        `"message"`,
			expectError: true,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			event, err := decodeClientEvent([]byte(test.data))
			if test.expectError {
				if err == nil {
					t.Error("expected a decode error")
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if event != test.expected {
				t.Errorf("decoded %+v, expected %+v", event, test.expected)
			}
		})
	}
}

func TestFrameRoundTrip(t *testing.T) {
	payload := MessageEvent{
		Message: models.Message{ID: 7, ChannelID: 3, SenderID: 1, Content: "hello", Timestamp: 1000},
		Sender:  models.User{ID: 1, DisplayName: "alice"},
		Grouped: true,
	}

	frame, err := encodeFrame(MessageCreated, payload)
	if err != nil {
		t.Fatal(err)
	}

	eventType, body, err := splitFrame(frame)
	if err != nil {
		t.Fatal(err)
	}
	if eventType != MessageCreated {
		t.Errorf("event type = %q, expected %q", eventType, MessageCreated)
	}

	var decoded MessageEvent
	if err := json.Unmarshal([]byte(body), &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded.Message.Content != payload.Message.Content || !decoded.Grouped {
		t.Errorf("round trip lost data: %+v", decoded)
	}
}

func TestSplitFrameWithoutTypeLine(t *testing.T) {
	if _, _, err := splitFrame(`{"no":"type line"}`); err == nil {
		t.Error("expected an error for a frame without an event type line")
	}
}
