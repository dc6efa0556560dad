package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/EliasObeid9-02/ChatLite/internal/grouping"
	"github.com/EliasObeid9-02/ChatLite/internal/models"
)

func channelIDFrom(r *http.Request) (int64, bool) {
	channelID, err := strconv.ParseInt(chi.URLParam(r, "channelID"), 10, 64)
	if err != nil || channelID == 0 {
		return 0, false
	}
	return channelID, true
}

func CreateChannel(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r)

	type CreateChannelRequest struct {
		Name        string `json:"name" validate:"required,max=150"`
		Description string `json:"description" validate:"max=1024"`
	}

	var request CreateChannelRequest
	err := json.NewDecoder(r.Body).Decode(&request)
	if err != nil {
		sugar.Debug(err)
		http.Error(w, "", http.StatusBadRequest)
		return
	}

	err = validate.Struct(request)
	if err != nil {
		var validateErrs validator.ValidationErrors
		if errors.As(err, &validateErrs) {
			http.Error(w, "Invalid channel name", http.StatusBadRequest)
		} else {
			sugar.Error(err)
			http.Error(w, "", http.StatusInternalServerError)
		}
		return
	}

	channel, err := chatStore.CreateChannel(r.Context(), request.Name, request.Description, userID)
	if err != nil {
		respondStoreError(w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	err = json.NewEncoder(w).Encode(channel)
	if err != nil {
		sugar.Error(err)
	}
}

func JoinChannel(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r)

	type JoinRequest struct {
		InviteCode string `json:"inviteCode" validate:"required"`
	}

	var request JoinRequest
	err := json.NewDecoder(r.Body).Decode(&request)
	if err != nil || request.InviteCode == "" {
		sugar.Debug(err)
		http.Error(w, "", http.StatusBadRequest)
		return
	}

	channel, err := chatStore.JoinByInvite(r.Context(), request.InviteCode, userID)
	if err != nil {
		respondStoreError(w, err)
		return
	}

	// the invite code is the owner's to share
	if channel.OwnerID != userID {
		channel.InviteCode = ""
	}

	err = json.NewEncoder(w).Encode(channel)
	if err != nil {
		sugar.Error(err)
	}
}

func RotateInviteCode(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r)

	channelID, ok := channelIDFrom(r)
	if !ok {
		http.Error(w, "Invalid channel ID", http.StatusBadRequest)
		return
	}

	newCode, err := chatStore.RotateInviteCode(r.Context(), channelID, userID)
	if err != nil {
		respondStoreError(w, err)
		return
	}

	err = json.NewEncoder(w).Encode(map[string]string{"inviteCode": newCode})
	if err != nil {
		sugar.Error(err)
	}
}

func GetChannelList(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r)

	channels, err := chatStore.ChannelsOf(r.Context(), userID)
	if err != nil {
		sugar.Error(err)
		http.Error(w, "", http.StatusInternalServerError)
		return
	}

	for i := range channels {
		if channels[i].OwnerID != userID {
			channels[i].InviteCode = ""
		}
	}

	err = json.NewEncoder(w).Encode(channels)
	if err != nil {
		sugar.Error(err)
	}
}

func GetChannelDetails(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r)

	channelID, ok := channelIDFrom(r)
	if !ok {
		http.Error(w, "Invalid channel ID", http.StatusBadRequest)
		return
	}

	if !requireMember(w, r, channelID, userID) {
		return
	}

	channel, err := chatStore.ChannelByID(r.Context(), channelID)
	if err != nil {
		respondStoreError(w, err)
		return
	}

	memberCount, err := chatStore.MemberCount(r.Context(), channelID)
	if err != nil {
		sugar.Error(err)
		http.Error(w, "", http.StatusInternalServerError)
		return
	}

	if channel.OwnerID != userID {
		channel.InviteCode = ""
	}

	type ChannelDetails struct {
		Channel     models.Channel `json:"channel"`
		MemberCount int            `json:"memberCount"`
		IsOwner     bool           `json:"isOwner"`
	}

	err = json.NewEncoder(w).Encode(ChannelDetails{
		Channel:     channel,
		MemberCount: memberCount,
		IsOwner:     channel.OwnerID == userID,
	})
	if err != nil {
		sugar.Error(err)
	}
}

type messageView struct {
	Message        models.Message `json:"message"`
	ReactionCounts map[string]int `json:"reactionCounts"`
	ReactedEmojis  []string       `json:"reactedEmojis"`
}

type groupView struct {
	Sender         models.User   `json:"sender"`
	Messages       []messageView `json:"messages"`
	StartTimestamp int64         `json:"startTimestamp"`
	LastTimestamp  int64         `json:"lastTimestamp"`
}

// GetMessageList returns the channel history folded into display groups,
// with each message's reaction counts and the viewer's own reacted set.
func GetMessageList(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r)

	channelID, ok := channelIDFrom(r)
	if !ok {
		http.Error(w, "Invalid channel ID", http.StatusBadRequest)
		return
	}

	if !requireMember(w, r, channelID, userID) {
		return
	}

	history, err := chatStore.MessagesOf(r.Context(), channelID)
	if err != nil {
		sugar.Error(err)
		http.Error(w, "", http.StatusInternalServerError)
		return
	}

	groups := grouping.GroupMessages(history)

	response := []groupView{}

	for _, group := range groups {
		view := groupView{
			Sender:         group.Sender,
			Messages:       []messageView{},
			StartTimestamp: group.StartTimestamp,
			LastTimestamp:  group.LastTimestamp,
		}

		for _, msg := range group.Messages {
			counts, err := chatStore.ReactionCounts(r.Context(), msg.ID)
			if err != nil {
				sugar.Error(err)
				http.Error(w, "", http.StatusInternalServerError)
				return
			}

			reactedSet, err := chatStore.ReactedEmojis(r.Context(), msg.ID, userID)
			if err != nil {
				sugar.Error(err)
				http.Error(w, "", http.StatusInternalServerError)
				return
			}

			reacted := []string{}
			for emoji := range reactedSet {
				reacted = append(reacted, emoji)
			}

			view.Messages = append(view.Messages, messageView{
				Message:        msg,
				ReactionCounts: counts,
				ReactedEmojis:  reacted,
			})
		}

		response = append(response, view)
	}

	err = json.NewEncoder(w).Encode(response)
	if err != nil {
		sugar.Error(err)
	}
}
