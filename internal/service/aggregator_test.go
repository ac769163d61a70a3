package service

import (
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sportsconnect/messaging/internal/domain"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func msg(id, sender, receiver, post, content string, at time.Time, read bool) *domain.Message {
	return &domain.Message{
		ID:         id,
		SenderID:   sender,
		ReceiverID: receiver,
		PostID:     post,
		Content:    content,
		IsRead:     read,
		CreatedAt:  at,
	}
}

// newestFirst returns msgs sorted by created_at descending, the order the
// store delivers them in.
func newestFirst(msgs ...*domain.Message) []*domain.Message {
	sort.SliceStable(msgs, func(i, j int) bool {
		return msgs[i].CreatedAt.After(msgs[j].CreatedAt)
	})
	return msgs
}

func TestAggregateOneConversationPerPost(t *testing.T) {
	// same counterpart, three distinct posts: never merged
	msgs := newestFirst(
		msg("m1", "alice", "bob", "p1", "a", t0, false),
		msg("m2", "bob", "alice", "p2", "b", t0.Add(time.Minute), false),
		msg("m3", "alice", "bob", "p3", "c", t0.Add(2*time.Minute), false),
		msg("m4", "bob", "alice", "p1", "d", t0.Add(3*time.Minute), false),
	)

	convs := Aggregate("alice", msgs)
	require.Len(t, convs, 3)
	for _, conv := range convs {
		assert.Equal(t, "bob", conv.User.ID)
	}
}

func TestAggregateLastMessageIsMaxCreatedAt(t *testing.T) {
	msgs := newestFirst(
		msg("old", "bob", "alice", "p1", "first", t0, true),
		msg("mid", "alice", "bob", "p1", "second", t0.Add(time.Hour), true),
		msg("new", "bob", "alice", "p1", "third", t0.Add(2*time.Hour), false),
	)

	convs := Aggregate("alice", msgs)
	require.Len(t, convs, 1)
	assert.Equal(t, "new", convs[0].LastMessage.ID)
	assert.Len(t, convs[0].Messages, 3)
}

func TestAggregateUnreadCount(t *testing.T) {
	msgs := newestFirst(
		msg("m1", "bob", "alice", "p1", "unread", t0.Add(3*time.Second), false),
		msg("m2", "bob", "alice", "p1", "unread", t0.Add(2*time.Second), false),
		msg("m3", "bob", "alice", "p1", "read", t0.Add(time.Second), true),
		// alice's own unread outbound message must not count
		msg("m4", "alice", "bob", "p1", "mine", t0, false),
		// unread in a different conversation must not leak
		msg("m5", "carol", "alice", "p2", "other", t0, false),
	)

	convs := Aggregate("alice", msgs)
	require.Len(t, convs, 2)

	byPost := map[string]*domain.ConversationSummary{}
	for _, c := range convs {
		byPost[c.PostID] = c
	}
	assert.Equal(t, 2, byPost["p1"].UnreadCount)
	assert.Equal(t, 1, byPost["p2"].UnreadCount)
}

func TestAggregateOrderedByLastActivity(t *testing.T) {
	// p456 was active more recently than p123
	msgs := newestFirst(
		msg("m1", "alice", "bob", "p123", "hi", t0, false),
		msg("m2", "bob", "alice", "p456", "hey", t0.Add(time.Hour), false),
		msg("m3", "bob", "alice", "p123", "yo", t0.Add(30*time.Minute), false),
	)

	convs := Aggregate("alice", msgs)
	require.Len(t, convs, 2)
	assert.Equal(t, "p456", convs[0].PostID)
	assert.Equal(t, "p123", convs[1].PostID)
	assert.True(t, convs[0].LastMessage.CreatedAt.After(convs[1].LastMessage.CreatedAt))
}

func TestAggregateKeepsMessagesWithDeletedPost(t *testing.T) {
	// post projection resolution happens later; a dangling post id still
	// forms its own conversation
	msgs := newestFirst(
		msg("m1", "bob", "alice", "gone", "still here", t0, false),
	)

	convs := Aggregate("alice", msgs)
	require.Len(t, convs, 1)
	assert.Equal(t, "gone", convs[0].PostID)
	assert.Nil(t, convs[0].Post)
	assert.Equal(t, "still here", convs[0].LastMessage.Content)
}

func TestAggregateScenarioTwoUsersOnePost(t *testing.T) {
	// A asks at T1, B answers at T2 > T1; aggregating for A
	msgs := newestFirst(
		msg("m1", "A", "B", "P123", "Are you still looking for players?", t0, false),
		msg("m2", "B", "A", "P123", "Yes!", t0.Add(time.Minute), false),
	)

	convs := Aggregate("A", msgs)
	require.Len(t, convs, 1)
	conv := convs[0]
	assert.Equal(t, "B", conv.User.ID)
	assert.Equal(t, "P123", conv.PostID)
	assert.Equal(t, "Yes!", conv.LastMessage.Content)
	assert.Equal(t, 1, conv.UnreadCount)

	// after B's reply is read, the count drops to zero
	msgs[0].IsRead = true
	convs = Aggregate("A", msgs)
	require.Len(t, convs, 1)
	assert.Equal(t, 0, convs[0].UnreadCount)
}

func TestAggregateEmptyLog(t *testing.T) {
	assert.Empty(t, Aggregate("alice", nil))
}
