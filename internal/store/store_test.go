package store

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/EliasObeid9-02/ChatLite/internal/database"
	"github.com/EliasObeid9-02/ChatLite/internal/grouping"
	"github.com/EliasObeid9-02/ChatLite/internal/models"
	"github.com/EliasObeid9-02/ChatLite/internal/snowflake"
)

var snowflakeOnce sync.Once

func newTestStore(t *testing.T) *Store {
	t.Helper()

	snowflakeOnce.Do(func() {
		if err := snowflake.Setup(0); err != nil {
			t.Fatal(err)
		}
	})

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatal(err)
	}

	if err := database.CreateTables(db); err != nil {
		t.Fatal(err)
	}

	return New(db, true)
}

func createTestUser(t *testing.T, s *Store, username string) models.User {
	t.Helper()

	userID, err := snowflake.Generate()
	if err != nil {
		t.Fatal(err)
	}

	user := models.User{
		ID:          userID,
		Username:    username,
		Email:       username + "@example.com",
		DisplayName: username,
		Password:    []byte("not-a-real-hash"),
	}

	if err := s.CreateUser(context.Background(), user); err != nil {
		t.Fatal(err)
	}

	return user
}

func TestCreateUserDuplicateUsername(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	createTestUser(t, s, "carol")

	userID, err := snowflake.Generate()
	if err != nil {
		t.Fatal(err)
	}

	err = s.CreateUser(ctx, models.User{
		ID:          userID,
		Username:    "carol",
		Email:       "carol2@example.com",
		DisplayName: "carol",
		Password:    []byte("not-a-real-hash"),
	})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("duplicate username returned %v, expected ErrValidation", err)
	}
}

func TestCreateChannelOwnerIsMember(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	owner := createTestUser(t, s, "alice")

	channel, err := s.CreateChannel(ctx, "General", "a channel for testing", owner.ID)
	if err != nil {
		t.Fatal(err)
	}

	if channel.InviteCode == "" {
		t.Error("channel was created without an invite code")
	}

	isMember, err := s.IsMember(ctx, channel.ID, owner.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !isMember {
		t.Error("owner is not a member of the channel they created")
	}
}

func TestCreateChannelEmptyName(t *testing.T) {
	s := newTestStore(t)
	owner := createTestUser(t, s, "alice")

	for _, name := range []string{"", "   "} {
		_, err := s.CreateChannel(context.Background(), name, "", owner.ID)
		if !errors.Is(err, ErrValidation) {
			t.Errorf("CreateChannel(%q) error = %v, expected ErrValidation", name, err)
		}
	}
}

func TestJoinByInvite(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	owner := createTestUser(t, s, "alice")
	joiner := createTestUser(t, s, "bob")

	channel, err := s.CreateChannel(ctx, "General", "", owner.ID)
	if err != nil {
		t.Fatal(err)
	}

	joined, err := s.JoinByInvite(ctx, channel.InviteCode, joiner.ID)
	if err != nil {
		t.Fatal(err)
	}
	if joined.ID != channel.ID {
		t.Errorf("joined channel ID = %d, expected %d", joined.ID, channel.ID)
	}

	isMember, err := s.IsMember(ctx, channel.ID, joiner.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !isMember {
		t.Error("joiner is not a member after redeeming the invite code")
	}

	// joining again is a no-op, not an error
	_, err = s.JoinByInvite(ctx, channel.InviteCode, joiner.ID)
	if err != nil {
		t.Errorf("second join errored: %v", err)
	}

	count, err := s.MemberCount(ctx, channel.ID)
	if err != nil {
		t.Fatal(err)
	}
	if count != 2 {
		t.Errorf("member count = %d, expected 2", count)
	}
}

func TestJoinUnknownInviteCode(t *testing.T) {
	s := newTestStore(t)
	user := createTestUser(t, s, "alice")

	_, err := s.JoinByInvite(context.Background(), "definitely-not-a-code", user.ID)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, expected ErrNotFound", err)
	}
}

func TestRotateInviteCodeByNonOwner(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	owner := createTestUser(t, s, "alice")
	member := createTestUser(t, s, "carol")

	channel, err := s.CreateChannel(ctx, "General", "", owner.ID)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.JoinByInvite(ctx, channel.InviteCode, member.ID); err != nil {
		t.Fatal(err)
	}

	_, err = s.RotateInviteCode(ctx, channel.ID, member.ID)
	if !errors.Is(err, ErrPermission) {
		t.Errorf("error = %v, expected ErrPermission", err)
	}

	// the failed rotation must not have touched the code
	current, err := s.ChannelByID(ctx, channel.ID)
	if err != nil {
		t.Fatal(err)
	}
	if current.InviteCode != channel.InviteCode {
		t.Error("invite code changed despite the permission error")
	}
}

func TestRotateInviteCodeInvalidatesOldCode(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	owner := createTestUser(t, s, "alice")
	late := createTestUser(t, s, "dave")

	channel, err := s.CreateChannel(ctx, "General", "", owner.ID)
	if err != nil {
		t.Fatal(err)
	}

	newCode, err := s.RotateInviteCode(ctx, channel.ID, owner.ID)
	if err != nil {
		t.Fatal(err)
	}
	if newCode == channel.InviteCode {
		t.Error("rotation returned the old invite code")
	}

	_, err = s.JoinByInvite(ctx, channel.InviteCode, late.ID)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("join with the rotated-out code: error = %v, expected ErrNotFound", err)
	}

	if _, err := s.JoinByInvite(ctx, newCode, late.ID); err != nil {
		t.Errorf("join with the fresh code failed: %v", err)
	}
}

func TestRotateInviteCodeUnknownChannel(t *testing.T) {
	s := newTestStore(t)
	user := createTestUser(t, s, "alice")

	_, err := s.RotateInviteCode(context.Background(), 12345, user.ID)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, expected ErrNotFound", err)
	}
}

func TestAppendMessageThenLastTwo(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	owner := createTestUser(t, s, "alice")
	channel, err := s.CreateChannel(ctx, "General", "", owner.ID)
	if err != nil {
		t.Fatal(err)
	}

	first, err := s.AppendMessage(ctx, channel.ID, owner.ID, "hi")
	if err != nil {
		t.Fatal(err)
	}

	lastTwo, err := s.LastTwo(ctx, channel.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(lastTwo) != 1 || lastTwo[0].ID != first.ID {
		t.Fatalf("after one append, LastTwo = %+v", lastTwo)
	}

	second, err := s.AppendMessage(ctx, channel.ID, owner.ID, "there")
	if err != nil {
		t.Fatal(err)
	}

	lastTwo, err = s.LastTwo(ctx, channel.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(lastTwo) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(lastTwo))
	}
	if lastTwo[0].ID != second.ID || lastTwo[1].ID != first.ID {
		t.Error("LastTwo is not ordered newest first")
	}
}

func TestAppendMessageValidation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	owner := createTestUser(t, s, "alice")
	channel, err := s.CreateChannel(ctx, "General", "", owner.ID)
	if err != nil {
		t.Fatal(err)
	}

	_, err = s.AppendMessage(ctx, channel.ID, owner.ID, "   ")
	if !errors.Is(err, ErrValidation) {
		t.Errorf("empty content: error = %v, expected ErrValidation", err)
	}

	_, err = s.AppendMessage(ctx, 12345, owner.ID, "hello")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown channel: error = %v, expected ErrNotFound", err)
	}
}

func TestAppendMessageTimestampsNeverGoBackwards(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	owner := createTestUser(t, s, "alice")
	channel, err := s.CreateChannel(ctx, "General", "", owner.ID)
	if err != nil {
		t.Fatal(err)
	}

	base := time.Now()

	s.now = func() time.Time { return base }
	first, err := s.AppendMessage(ctx, channel.ID, owner.ID, "hi")
	if err != nil {
		t.Fatal(err)
	}

	// a rewound clock must not produce an earlier timestamp
	s.now = func() time.Time { return base.Add(-10 * time.Second) }
	second, err := s.AppendMessage(ctx, channel.ID, owner.ID, "there")
	if err != nil {
		t.Fatal(err)
	}

	if second.Timestamp < first.Timestamp {
		t.Errorf("timestamps went backwards: %d then %d", first.Timestamp, second.Timestamp)
	}

	lastTwo, err := s.LastTwo(ctx, channel.ID)
	if err != nil {
		t.Fatal(err)
	}
	if lastTwo[0].ID != second.ID {
		t.Error("insertion order did not break the timestamp tie")
	}
}

func TestToggleReactionDoubleToggle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	owner := createTestUser(t, s, "alice")
	reactor := createTestUser(t, s, "bob")

	channel, err := s.CreateChannel(ctx, "General", "", owner.ID)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.JoinByInvite(ctx, channel.InviteCode, reactor.ID); err != nil {
		t.Fatal(err)
	}

	msg, err := s.AppendMessage(ctx, channel.ID, owner.ID, "react to this")
	if err != nil {
		t.Fatal(err)
	}

	added, err := s.ToggleReaction(ctx, msg.ID, reactor.ID, "👍")
	if err != nil {
		t.Fatal(err)
	}
	if !added {
		t.Error("first toggle reported added=false")
	}

	counts, err := s.ReactionCounts(ctx, msg.ID)
	if err != nil {
		t.Fatal(err)
	}
	if counts["👍"] != 1 {
		t.Errorf("counts = %v, expected {👍: 1}", counts)
	}

	reacted, err := s.ReactedEmojis(ctx, msg.ID, reactor.ID)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := reacted["👍"]; !ok {
		t.Error("reactor is missing from the reacted set")
	}

	added, err = s.ToggleReaction(ctx, msg.ID, reactor.ID, "👍")
	if err != nil {
		t.Fatal(err)
	}
	if added {
		t.Error("second toggle reported added=true")
	}

	counts, err = s.ReactionCounts(ctx, msg.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(counts) != 0 {
		t.Errorf("counts after double toggle = %v, expected empty", counts)
	}

	reacted, err = s.ReactedEmojis(ctx, msg.ID, reactor.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(reacted) != 0 {
		t.Error("reacted set is not empty after the double toggle")
	}
}

func TestToggleReactionValidation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	user := createTestUser(t, s, "alice")

	_, err := s.ToggleReaction(ctx, 12345, user.ID, "👍")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown message: error = %v, expected ErrNotFound", err)
	}

	_, err = s.ToggleReaction(ctx, 12345, user.ID, " ")
	if !errors.Is(err, ErrValidation) {
		t.Errorf("blank emoji: error = %v, expected ErrValidation", err)
	}
}

func TestToggleReactionConcurrent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	owner := createTestUser(t, s, "alice")
	channel, err := s.CreateChannel(ctx, "General", "", owner.ID)
	if err != nil {
		t.Fatal(err)
	}
	msg, err := s.AppendMessage(ctx, channel.ID, owner.ID, "pile on")
	if err != nil {
		t.Fatal(err)
	}

	const togglers = 8

	var wg sync.WaitGroup
	for i := 0; i < togglers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.ToggleReaction(ctx, msg.ID, owner.ID, "👍"); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	// whatever the interleaving, there is exactly one final state:
	// the row exists once or not at all
	counts, err := s.ReactionCounts(ctx, msg.ID)
	if err != nil {
		t.Fatal(err)
	}
	if counts["👍"] > 1 {
		t.Errorf("duplicate reaction rows: counts = %v", counts)
	}
}

func TestChannelMessageScenario(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	alice := createTestUser(t, s, "alice")
	bob := createTestUser(t, s, "bob")

	channel, err := s.CreateChannel(ctx, "General", "", alice.ID)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.JoinByInvite(ctx, channel.InviteCode, bob.ID); err != nil {
		t.Fatal(err)
	}

	base := time.Now()
	sendAt := func(offset time.Duration, content string) models.Message {
		t.Helper()
		s.now = func() time.Time { return base.Add(offset) }
		msg, err := s.AppendMessage(ctx, channel.ID, alice.ID, content)
		if err != nil {
			t.Fatal(err)
		}
		return msg
	}

	sendAt(0, "hi")
	sendAt(10*time.Second, "there")

	lastTwo, err := s.LastTwo(ctx, channel.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !grouping.ShouldGroup(lastTwo[1], lastTwo[0]) {
		t.Error("a 10 second follow-up from the same sender should group")
	}

	sendAt(10*time.Second+301*time.Second, "later")

	lastTwo, err = s.LastTwo(ctx, channel.ID)
	if err != nil {
		t.Fatal(err)
	}
	if grouping.ShouldGroup(lastTwo[1], lastTwo[0]) {
		t.Error("a 301 second gap should start a new group")
	}

	history, err := s.MessagesOf(ctx, channel.ID)
	if err != nil {
		t.Fatal(err)
	}
	groups := grouping.GroupMessages(history)
	if len(groups) != 2 {
		t.Fatalf("expected 2 display groups, got %d", len(groups))
	}
	if len(groups[0].Messages) != 2 || len(groups[1].Messages) != 1 {
		t.Errorf("group sizes = [%d, %d], expected [2, 1]",
			len(groups[0].Messages), len(groups[1].Messages))
	}
	if groups[0].Sender.DisplayName != "alice" {
		t.Errorf("group sender = %q, expected alice", groups[0].Sender.DisplayName)
	}
}
