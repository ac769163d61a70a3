// Package client is the Go SDK for the SportsConnect messaging API. It keeps
// a local conversation cache reconciled against server responses, falls back
// to an on-disk snapshot when the server is unreachable, and sends messages
// optimistically with an explicit delivery state machine.
package client

import (
	"errors"
	"time"
)

var (
	// ErrEmptyMessage rejects sends whose trimmed content is empty.
	ErrEmptyMessage = errors.New("message content is empty")
	// ErrNoSnapshot is returned by a SnapshotStore with nothing saved yet.
	ErrNoSnapshot = errors.New("no snapshot")
)

// DeliveryState tracks a locally-sent message through the optimistic send
// pipeline. Messages fetched from the server carry StateConfirmed.
type DeliveryState string

const (
	StateSending   DeliveryState = "sending"
	StateConfirmed DeliveryState = "confirmed"
	StateFailed    DeliveryState = "failed"
)

type User struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email,omitempty"`
	ProfileImage string `json:"profileImage,omitempty"`
}

type Post struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

type Message struct {
	ID        string        `json:"id"`
	Sender    *User         `json:"sender,omitempty"`
	Receiver  *User         `json:"receiver,omitempty"`
	Post      *Post         `json:"post,omitempty"`
	Content   string        `json:"content"`
	IsRead    bool          `json:"isRead"`
	CreatedAt time.Time     `json:"createdAt"`
	State     DeliveryState `json:"state,omitempty"`
}

// Conversation is one cache entry: the thread with one counterpart about one
// post. Identity is always the (counterpart, post) pair, never a server id,
// because locally-synthesized conversations only have the composite key.
type Conversation struct {
	User        *User      `json:"user"`
	Post        *Post      `json:"post"`
	LastMessage *Message   `json:"lastMessage"`
	Messages    []*Message `json:"messages"`
	UnreadCount int        `json:"unreadCount"`
}

// Key returns the composite merge key for this entry.
func (c *Conversation) Key() (counterpartID, postID string) {
	if c.User != nil {
		counterpartID = c.User.ID
	}
	if c.Post != nil {
		postID = c.Post.ID
	}
	return counterpartID, postID
}
