package grouping

import (
	"time"

	"github.com/EliasObeid9-02/ChatLite/internal/models"
)

// Window is how close together two consecutive messages from the same
// sender have to be to merge into one display group.
const Window = 5 * time.Minute

// ShouldGroup reports whether curr visually attaches to the display group
// prev belongs to. Callers must pass the two most recently *stored*
// messages of the channel, in store order, never client-supplied ones.
func ShouldGroup(prev models.Message, curr models.Message) bool {
	return prev.SenderID == curr.SenderID &&
		curr.Timestamp-prev.Timestamp < Window.Milliseconds()
}

// Group is a run of consecutive same-sender messages within the window,
// as shown by the channel read view. It is derived, never persisted.
type Group struct {
	Sender         models.User      `json:"sender"`
	Messages       []models.Message `json:"messages"`
	StartTimestamp int64            `json:"startTimestamp"`
	LastTimestamp  int64            `json:"lastTimestamp"`
}

// GroupMessages folds an ordered channel history into display groups using
// the same window rule ShouldGroup applies incrementally.
func GroupMessages(history []models.MessageWithSender) []Group {
	groups := []Group{}

	for _, entry := range history {
		last := len(groups) - 1
		if last >= 0 &&
			groups[last].Sender.ID == entry.Message.SenderID &&
			entry.Message.Timestamp-groups[last].LastTimestamp < Window.Milliseconds() {
			groups[last].Messages = append(groups[last].Messages, entry.Message)
			groups[last].LastTimestamp = entry.Message.Timestamp
			continue
		}

		groups = append(groups, Group{
			Sender:         entry.Sender,
			Messages:       []models.Message{entry.Message},
			StartTimestamp: entry.Message.Timestamp,
			LastTimestamp:  entry.Message.Timestamp,
		})
	}

	return groups
}
