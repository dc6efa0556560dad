package hub

import (
	"encoding/json"

	"github.com/EliasObeid9-02/ChatLite/internal/grouping"
	"github.com/EliasObeid9-02/ChatLite/internal/render"
)

type messagePush struct {
	Html        string       `json:"html"`
	MessageData MessageEvent `json:"message_data"`
}

type reactionPush struct {
	Type      string `json:"type"`
	MessageID int64  `json:"message_id,string"`
	Html      string `json:"html"`
}

type errorPush struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

// dispatch handles one inbound frame from the client. Nothing here ever
// closes the connection: bad input is answered or dropped with a log
// line and the session keeps going.
func dispatch(client *Client, data []byte) {
	event, err := decodeClientEvent(data)
	if err != nil {
		sugar.Warnf("Dropping malformed event from session ID [%d]: %s", client.SessionID, err)
		return
	}

	switch event.Type {
	case clientEventMessage:
		handleSendMessage(client, event.Content)
	case clientEventReaction:
		handleToggleReaction(client, event.MessageID, event.Emoji)
	}
}

func handleSendMessage(client *Client, content string) {
	msg, err := chatStore.AppendMessage(client.Ctx, client.ChannelID, client.UserID, content)
	if err != nil {
		rejectOrLog(client, err)
		return
	}

	// group against the two most recently *stored* messages, not the
	// send order seen on this connection
	lastTwo, err := chatStore.LastTwo(client.Ctx, msg.ChannelID)
	if err != nil {
		sugar.Error(err)
		return
	}

	grouped := len(lastTwo) == 2 && grouping.ShouldGroup(lastTwo[1], lastTwo[0])
	first := len(lastTwo) == 1

	sender, err := chatStore.UserByID(client.Ctx, client.UserID)
	if err != nil {
		sugar.Error(err)
		return
	}

	err = Emit(MessageCreated, msg.ChannelID, MessageEvent{
		Message: msg,
		Sender:  sender,
		Grouped: grouped,
		First:   first,
	})
	if err != nil {
		sugar.Error(err)
	}
}

func handleToggleReaction(client *Client, messageID int64, emoji string) {
	added, err := chatStore.ToggleReaction(client.Ctx, messageID, client.UserID, emoji)
	if err != nil {
		rejectOrLog(client, err)
		return
	}
	sugar.Debugf("User ID [%d] toggled %s on message ID [%d], added=%t", client.UserID, emoji, messageID, added)

	counts, err := chatStore.ReactionCounts(client.Ctx, messageID)
	if err != nil {
		sugar.Error(err)
		return
	}

	err = Emit(ReactionUpdated, client.ChannelID, ReactionEvent{
		MessageID: messageID,
		Counts:    counts,
	})
	if err != nil {
		sugar.Error(err)
	}
}

// rejectOrLog sends input errors back to the offending client and logs
// everything else; either way the event is dropped and the session
// stays open.
func rejectOrLog(client *Client, err error) {
	if !isClientFault(err) {
		sugar.Error(err)
		return
	}

	sugar.Debug(err)
	writeErr := client.writeJSON(errorPush{Type: "error", Error: err.Error()})
	if writeErr != nil {
		sugar.Error(writeErr)
	}
}

// deliver turns a published frame into the websocket payload for this
// particular client and writes it out.
func (c *Client) deliver(frame string) {
	eventType, body, err := splitFrame(frame)
	if err != nil {
		sugar.Error(err)
		return
	}

	switch eventType {
	case MessageCreated:
		var event MessageEvent
		if err := json.Unmarshal([]byte(body), &event); err != nil {
			sugar.Error(err)
			return
		}
		c.deliverMessage(event)
	case ReactionUpdated:
		var event ReactionEvent
		if err := json.Unmarshal([]byte(body), &event); err != nil {
			sugar.Error(err)
			return
		}
		c.deliverReaction(event)
	default:
		sugar.Warnf("Dropping frame with unknown event type %q", eventType)
	}
}

func (c *Client) deliverMessage(event MessageEvent) {
	var html string
	var err error

	if event.Grouped {
		html, err = render.MessageFragment(event.Message, event.Sender)
	} else {
		html, err = render.GroupFragment(event.Message, event.Sender)
	}
	if err != nil {
		sugar.Error(err)
		return
	}

	err = c.writeJSON(messagePush{Html: html, MessageData: event})
	if err != nil {
		sugar.Error(err)
	}
}

// deliverReaction rebuilds the reactions fragment per viewer: the counts
// are shared, but which buttons read as "yours" depends on who is looking.
func (c *Client) deliverReaction(event ReactionEvent) {
	reacted, err := chatStore.ReactedEmojis(c.Ctx, event.MessageID, c.UserID)
	if err != nil {
		sugar.Error(err)
		return
	}

	html, err := render.ReactionsFragment(event.MessageID, event.Counts, reacted)
	if err != nil {
		sugar.Error(err)
		return
	}

	err = c.writeJSON(reactionPush{Type: "reaction_update", MessageID: event.MessageID, Html: html})
	if err != nil {
		sugar.Error(err)
	}
}
