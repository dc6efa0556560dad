package handlers

import (
	"errors"
	"net/http"

	"github.com/EliasObeid9-02/ChatLite/internal/store"
)

func userIDFrom(r *http.Request) int64 {
	return r.Context().Value(UserIDKeyType{}).(int64)
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, store.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrPermission):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// respondStoreError maps a store error onto the matching HTTP status.
// Client-caused errors carry their message, anything else is logged and
// answered with a blank 500.
func respondStoreError(w http.ResponseWriter, err error) {
	status := statusOf(err)

	if status == http.StatusInternalServerError {
		sugar.Error(err)
		http.Error(w, "", status)
		return
	}

	sugar.Debug(err)
	http.Error(w, err.Error(), status)
}

// requireMember answers 403 and returns false when the user is not in
// the channel's member set.
func requireMember(w http.ResponseWriter, r *http.Request, channelID int64, userID int64) bool {
	isMember, err := chatStore.IsMember(r.Context(), channelID, userID)
	if err != nil {
		sugar.Error(err)
		http.Error(w, "", http.StatusInternalServerError)
		return false
	}
	if !isMember {
		sugar.Warnf("User ID [%d] tried to access channel ID [%d] they are not a member of", userID, channelID)
		http.Error(w, "You are not a member of this channel", http.StatusForbidden)
		return false
	}
	return true
}
