package handlers

import (
	"net/http"

	"github.com/EliasObeid9-02/ChatLite/internal/hub"
)

func HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r)

	channelID, ok := channelIDFrom(r)
	if !ok {
		http.Error(w, "Invalid channel ID", http.StatusBadRequest)
		return
	}

	hub.HandleClient(w, r, userID, channelID)
}
