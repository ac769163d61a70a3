package client

import (
	"context"
	"strings"
	"time"
)

// SendResult reports the outcome of one optimistic send.
type SendResult struct {
	TempID  string
	Message *Message // authoritative server record, nil on failure
	Err     error
}

// PendingSend is handed back as soon as the local record is visible; Done
// yields exactly one SendResult when the server round-trip finishes.
type PendingSend struct {
	TempID string
	Done   <-chan SendResult
}

// Session is the client-side messaging engine for one authenticated user:
// the conversation cache, its snapshot fallback and the optimistic send
// pipeline. A failed remote call never discards local state; confirmed state
// is only overlaid on success.
type Session struct {
	api   *API
	cache *conversationCache
	snap  SnapshotStore
	self  *User
}

func NewSession(api *API, snap SnapshotStore, self User) *Session {
	return &Session{
		api:   api,
		cache: &conversationCache{},
		snap:  snap,
		self:  &self,
	}
}

// Conversations refreshes the conversation list from the server. On success
// the cache is replaced wholesale and the snapshot rewritten. When the
// server is unreachable it falls back to the last snapshot; with no snapshot
// it synthesizes a single placeholder conversation so the list is never
// empty on first run.
func (s *Session) Conversations(ctx context.Context) ([]*Conversation, error) {
	convs, err := s.api.Conversations(ctx)
	if err == nil {
		s.cache.replaceAll(convs)
		_ = s.snap.Save(convs)
		return s.cache.list(), nil
	}

	if saved, serr := s.snap.Load(); serr == nil && len(saved) > 0 {
		s.cache.replaceAll(saved)
		return s.cache.list(), nil
	}

	placeholder := placeholderConversation(s.self)
	s.cache.replaceAll([]*Conversation{placeholder})
	_ = s.snap.Save([]*Conversation{placeholder})
	return s.cache.list(), nil
}

// OpenThread fetches the full message history with a counterpart and
// replaces the matching entry's messages. On fetch failure the entry keeps
// its last known subset; either way the current subset is returned.
func (s *Session) OpenThread(ctx context.Context, counterpartID, postID string) []*Message {
	if msgs, err := s.api.Thread(ctx, counterpartID); err == nil {
		s.cache.setThread(counterpartID, postID, msgs)
	}
	if conv := s.cache.find(counterpartID, postID); conv != nil {
		return conv.Messages
	}
	return nil
}

// Send runs the optimistic send pipeline: the local Sending record is
// visible immediately and the conversation jumps to the top, then the
// server call runs concurrently. On success the temporary record is
// replaced by the server message; on failure it is marked Failed and kept.
// In-flight sends are never cancelled, and concurrent sends produce
// independent temporary records.
func (s *Session) Send(ctx context.Context, to User, post Post, content string) (*PendingSend, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyMessage
	}

	temp := s.cache.beginSend(s.self, &to, &post, content)
	done := make(chan SendResult, 1)

	dispatchCtx := context.WithoutCancel(ctx)
	go func() {
		m, err := s.api.Send(dispatchCtx, SendRequest{
			Recipient: to.ID,
			Content:   content,
			Post:      post.ID,
		})
		if err != nil {
			s.cache.failSend(temp.ID)
			done <- SendResult{TempID: temp.ID, Err: err}
			return
		}
		s.cache.confirmSend(temp.ID, m)
		done <- SendResult{TempID: temp.ID, Message: m}
	}()

	return &PendingSend{TempID: temp.ID, Done: done}, nil
}

// MarkRead confirms the read on the server first, then updates the local
// copy and unread count.
func (s *Session) MarkRead(ctx context.Context, messageID string) error {
	if _, err := s.api.MarkRead(ctx, messageID); err != nil {
		return err
	}
	s.cache.markRead(messageID)
	return nil
}

// DeleteConversation removes all messages with a counterpart server-side,
// then drops every local entry for that counterpart.
func (s *Session) DeleteConversation(ctx context.Context, counterpartID string) error {
	if err := s.api.DeleteConversation(ctx, counterpartID); err != nil {
		return err
	}
	s.cache.removeCounterpart(counterpartID)
	return nil
}

// DeleteMessage removes one of the user's own messages.
func (s *Session) DeleteMessage(ctx context.Context, messageID string) error {
	if err := s.api.DeleteMessage(ctx, messageID); err != nil {
		return err
	}
	s.cache.removeMessage(messageID)
	return nil
}

// placeholderConversation seeds the first-run offline view.
func placeholderConversation(self *User) *Conversation {
	welcome := &User{ID: "sportsconnect", Name: "SportsConnect"}
	post := &Post{ID: "welcome", Title: "Welcome to SportsConnect"}
	msg := &Message{
		ID:        "welcome-1",
		Sender:    welcome,
		Receiver:  self,
		Post:      post,
		Content:   "Find a post you're interested in and start a conversation!",
		CreatedAt: time.Now().UTC(),
		State:     StateConfirmed,
	}
	return &Conversation{
		User:        welcome,
		Post:        post,
		LastMessage: msg,
		Messages:    []*Message{msg},
		UnreadCount: 1,
	}
}
