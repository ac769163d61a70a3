package domain

import "time"

// UserRef is the projection of a user attached to messages, matching the
// fields the marketplace profile exposes to counterparts.
type UserRef struct {
	ID           string `bson:"_id" json:"id"`
	Name         string `bson:"name" json:"name"`
	Email        string `bson:"email" json:"email"`
	ProfileImage string `bson:"profile_image" json:"profileImage,omitempty"`
}

// PostRef is the projection of a marketplace post attached to messages.
type PostRef struct {
	ID          string `bson:"_id" json:"id"`
	Title       string `bson:"title" json:"title"`
	Description string `bson:"description" json:"description,omitempty"`
}

// Message is a directed message between two users about one post. The record
// is immutable after insert except for IsRead, which only the receiver may
// flip. Sender, Receiver and Post are populated projections and are not
// persisted with the message itself; Post stays nil when the referenced post
// no longer exists.
type Message struct {
	ID         string    `bson:"_id" json:"id"`
	SenderID   string    `bson:"sender_id" json:"senderId"`
	ReceiverID string    `bson:"receiver_id" json:"receiverId"`
	PostID     string    `bson:"post_id" json:"postId"`
	Content    string    `bson:"content" json:"content"`
	IsRead     bool      `bson:"is_read" json:"isRead"`
	CreatedAt  time.Time `bson:"created_at" json:"createdAt"`

	Sender   *UserRef `bson:"-" json:"sender,omitempty"`
	Receiver *UserRef `bson:"-" json:"receiver,omitempty"`
	Post     *PostRef `bson:"-" json:"post,omitempty"`
}

// Counterpart returns the participant that is not self.
func (m *Message) Counterpart(self string) string {
	if m.SenderID == self {
		return m.ReceiverID
	}
	return m.SenderID
}

// ConversationSummary is the derived, non-persisted grouping of messages by
// (counterpart, post). It is recomputed on every aggregation request.
type ConversationSummary struct {
	User        *UserRef   `json:"user"`
	Post        *PostRef   `json:"post,omitempty"`
	PostID      string     `json:"postId"`
	LastMessage *Message   `json:"lastMessage"`
	Messages    []*Message `json:"messages"`
	UnreadCount int        `json:"unreadCount"`
}
