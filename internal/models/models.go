package models

// DefaultAvatar is served for users without an uploaded profile picture
// and for messages whose sender account no longer exists.
const DefaultAvatar = "/static/images/default_avatar.png"

type User struct {
	ID          int64  `json:"id,string,omitempty"`
	Username    string `json:"username,omitempty"`
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"displayName"`
	Picture     string `json:"picture"`
	Password    []byte `json:"-"`
}

type Channel struct {
	ID          int64  `json:"id,string"`
	OwnerID     int64  `json:"ownerID,string"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	InviteCode  string `json:"inviteCode,omitempty"`
}

type Message struct {
	ID        int64 `json:"id,string"`
	ChannelID int64 `json:"channelID,string"`
	// SenderID is 0 when the sender's account no longer exists,
	// the message itself is kept.
	SenderID  int64  `json:"senderID,string"`
	Content   string `json:"content"`
	Timestamp int64  `json:"timestamp"` // unix milliseconds, assigned by the store
}

// MessageWithSender pairs a stored message with the sender's display
// fields for the read view. Sender fields are empty when the account has
// been deleted.
type MessageWithSender struct {
	Message Message `json:"message"`
	Sender  User    `json:"sender"`
}

type Reaction struct {
	MessageID int64  `json:"messageID,string"`
	UserID    int64  `json:"userID,string"`
	Emoji     string `json:"emoji"`
}

type ConfigFile struct {
	Address           string
	Port              string
	BehindNginx       bool
	TlsCert           string
	TlsKey            string
	Cors              bool
	PrintHttpRequests bool
	LogToFile         bool
	LogLevel          string
	JwtSecret         string
	SnowflakeWorkerID int64
	SelfContained     bool
	DbUser            string
	DbPassword        string
	DbAddress         string
	DbPort            string
	DbDatabase        string
	RedisAddress      string
	RedisPassword     string
}
