// Package render turns message and reaction events into the HTML
// fragments the frontend swaps in, mirroring the server-rendered
// partials of the channel page.
package render

import (
	"html/template"
	"strings"
	"time"

	"github.com/EliasObeid9-02/ChatLite/internal/models"
)

var funcs = template.FuncMap{
	"formatTime": func(unixMs int64) string {
		return time.UnixMilli(unixMs).UTC().Format("15:04")
	},
	"hasReacted": func(reacted map[string]struct{}, emoji string) bool {
		_, ok := reacted[emoji]
		return ok
	},
}

var messageTmpl = template.Must(template.New("message").Funcs(funcs).Parse(`
<div class="message" id="message-{{.Message.ID}}" data-sender-id="{{.Message.SenderID}}">
	<span class="message-time">{{formatTime .Message.Timestamp}}</span>
	<p class="message-content">{{.Message.Content}}</p>
	<div class="message-reactions" id="reactions-{{.Message.ID}}"></div>
</div>`))

var groupTmpl = template.Must(template.New("group").Funcs(funcs).Parse(`
<div class="message-group" data-sender-id="{{.Message.SenderID}}">
	<img class="group-avatar" src="{{.Sender.Picture}}" alt="">
	<div class="group-body">
		<span class="group-sender">{{.Sender.DisplayName}}</span>
		<span class="group-time">{{formatTime .Message.Timestamp}}</span>
		<div class="message" id="message-{{.Message.ID}}" data-sender-id="{{.Message.SenderID}}">
			<p class="message-content">{{.Message.Content}}</p>
			<div class="message-reactions" id="reactions-{{.Message.ID}}"></div>
		</div>
	</div>
</div>`))

var reactionsTmpl = template.Must(template.New("reactions").Funcs(funcs).Parse(`
<div class="message-reactions" id="reactions-{{.MessageID}}">
{{- range $emoji, $count := .Counts}}
	<button class="reaction{{if hasReacted $.Reacted $emoji}} reaction-own{{end}}" data-emoji="{{$emoji}}">{{$emoji}} {{$count}}</button>
{{- end}}
</div>`))

type messageContext struct {
	Message models.Message
	Sender  models.User
}

// MessageFragment renders a single message appended to the sender's
// current display group.
func MessageFragment(msg models.Message, sender models.User) (string, error) {
	return execute(messageTmpl, messageContext{Message: msg, Sender: sender})
}

// GroupFragment renders a message that starts a new display group,
// including the sender's avatar and display name header.
func GroupFragment(msg models.Message, sender models.User) (string, error) {
	return execute(groupTmpl, messageContext{Message: msg, Sender: sender})
}

type reactionsContext struct {
	MessageID int64
	Counts    map[string]int
	Reacted   map[string]struct{}
}

// ReactionsFragment renders the reaction buttons of one message for one
// viewer. Reacted marks the emojis this viewer has toggled on, so the
// fragment is viewer-specific.
func ReactionsFragment(messageID int64, counts map[string]int, reacted map[string]struct{}) (string, error) {
	return execute(reactionsTmpl, reactionsContext{MessageID: messageID, Counts: counts, Reacted: reacted})
}

func execute(tmpl *template.Template, data any) (string, error) {
	var builder strings.Builder
	err := tmpl.Execute(&builder, data)
	if err != nil {
		return "", err
	}
	return builder.String(), nil
}
