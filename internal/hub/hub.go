// Package hub is the real-time core: it tracks which live websocket
// connections are viewing which channel and fans stored message and
// reaction events out to all of them, through redis pub/sub when running
// multi-process or an in-process registry when self contained.
package hub

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/EliasObeid9-02/ChatLite/internal/snowflake"
	"github.com/EliasObeid9-02/ChatLite/internal/store"
)

// messageWriter is the write half of the websocket connection, narrowed
// to the single call the hub makes on it.
type messageWriter interface {
	WriteJSON(v any) error
}

type Client struct {
	// ConnID identifies this one connection. A session can hold several
	// connections at once (one per open channel), so the registry keys
	// on ConnID, never on SessionID.
	ConnID    int64
	UserID    int64
	SessionID int64
	ChannelID int64
	Conn      messageWriter
	PubSub    *redis.PubSub
	MsgCh     <-chan *redis.Message
	LocalCh   chan string
	Ctx       context.Context
	writeMu   sync.Mutex
}

// live connections keyed by connection ID
var clients = make(map[int64]*Client)
var clientsMutex sync.Mutex

var sugar *zap.SugaredLogger
var redisClient *redis.Client
var chatStore *store.Store
var selfContained bool

var redisCtx = context.Background()

func Setup(_sugar *zap.SugaredLogger, _redisClient *redis.Client, _chatStore *store.Store, _selfContained bool) {
	sugar = _sugar
	redisClient = _redisClient
	chatStore = _chatStore
	selfContained = _selfContained
}

// HandleClient runs the whole lifetime of one websocket connection:
// membership check, upgrade, topic subscription, the broker-to-socket
// pump and the inbound read loop. Teardown is deferred so the session
// always unsubscribes and unregisters, however the connection dies.
func HandleClient(w http.ResponseWriter, r *http.Request, userID int64, channelID int64) {
	sugar.Debugf("Connecting user ID [%d] to channel ID [%d] over WebSocket", userID, channelID)

	isMember, err := chatStore.IsMember(r.Context(), channelID, userID)
	if err != nil {
		sugar.Error(err)
		http.Error(w, "", http.StatusInternalServerError)
		return
	}
	if !isMember {
		http.Error(w, "You are not a member of this channel", http.StatusForbidden)
		return
	}

	sessionCookie, err := r.Cookie("session")
	if err != nil {
		sugar.Debug(err)
		switch {
		case errors.Is(err, http.ErrNoCookie):
			http.Error(w, "No session cookie was provided", http.StatusUnauthorized)
		default:
			http.Error(w, "Couldn't read session cookie", http.StatusInternalServerError)
		}
		return
	}

	sessionID, err := strconv.ParseInt(sessionCookie.Value, 10, 64)
	if err != nil {
		sugar.Error(err)
		http.Error(w, "Session cookie is in improper format", http.StatusBadRequest)
		return
	}

	connID, err := snowflake.Generate()
	if err != nil {
		sugar.Error(err)
		http.Error(w, "", http.StatusInternalServerError)
		return
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		sugar.Error(err)
		return
	}
	defer conn.Close()

	clientCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := &Client{
		ConnID:    connID,
		UserID:    userID,
		SessionID: sessionID,
		ChannelID: channelID,
		Conn:      conn,
		LocalCh:   make(chan string, 16),
		Ctx:       clientCtx,
	}

	if !selfContained {
		pubsub := redisClient.Subscribe(clientCtx)
		defer pubsub.Close()
		client.PubSub = pubsub
		client.MsgCh = pubsub.Channel()
	}

	setClient(connID, client)
	defer deleteClient(connID)

	err = subscribe(client)
	if err != nil {
		sugar.Error(err)
		return
	}
	defer unsubscribe(client)

	// broker to websocket pump
	go func() {
		for {
			select {
			case <-client.Ctx.Done():
				return
			case msg, ok := <-client.MsgCh:
				if !ok {
					return
				}
				client.deliver(msg.Payload)
			case frame := <-client.LocalCh:
				client.deliver(frame)
			}
		}
	}()

	// inbound events directly from the client
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			sugar.Debugf("Session ID [%d] disconnected: %s", sessionID, err)
			break
		}
		dispatch(client, data)
	}
}

func setClient(connID int64, client *Client) {
	sugar.Debugf("Adding user ID [%d] to clients as connection ID [%d]", client.UserID, connID)
	clientsMutex.Lock()
	defer clientsMutex.Unlock()

	clients[connID] = client
}

func deleteClient(connID int64) {
	sugar.Debugf("Removing connection ID [%d] from clients", connID)
	clientsMutex.Lock()
	defer clientsMutex.Unlock()

	delete(clients, connID)
}

func GetClient(connID int64) (*Client, bool) {
	clientsMutex.Lock()
	defer clientsMutex.Unlock()

	client, exists := clients[connID]
	return client, exists
}

func (c *Client) writeJSON(v any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	return c.Conn.WriteJSON(v)
}

// isClientFault reports whether the error was caused by the client's own
// input, to be echoed back to that client only.
func isClientFault(err error) bool {
	return errors.Is(err, store.ErrValidation) ||
		errors.Is(err, store.ErrNotFound) ||
		errors.Is(err, store.ErrPermission) ||
		errors.Is(err, sql.ErrNoRows)
}
