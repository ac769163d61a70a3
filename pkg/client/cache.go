package client

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// conversationCache holds the user-visible conversation list. All mutations
// go through explicit reducer-style transitions so the optimistic send
// states (Sending, Confirmed, Failed) stay independently testable.
type conversationCache struct {
	mu    sync.Mutex
	convs []*Conversation
}

// replaceAll swaps the cache wholesale for a server-confirmed list, sorted
// by last activity.
func (c *conversationCache) replaceAll(convs []*Conversation) {
	sortByLastMessage(convs)
	c.mu.Lock()
	c.convs = convs
	c.mu.Unlock()
}

// list returns the entries in display order. The slice is a copy; entries
// are shared.
func (c *conversationCache) list() []*Conversation {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*Conversation, len(c.convs))
	copy(out, c.convs)
	return out
}

func (c *conversationCache) find(counterpartID, postID string) *Conversation {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.findLocked(counterpartID, postID)
}

func (c *conversationCache) findLocked(counterpartID, postID string) *Conversation {
	for _, conv := range c.convs {
		cp, pid := conv.Key()
		if cp == counterpartID && pid == postID {
			return conv
		}
	}
	return nil
}

// beginSend constructs the local Sending record, prepends it to the target
// conversation (creating the entry when this is the first message about the
// post) and moves the conversation to the top of the ordering.
func (c *conversationCache) beginSend(self, to *User, post *Post, content string) *Message {
	msg := &Message{
		ID:        "temp-" + uuid.NewString(),
		Sender:    self,
		Receiver:  to,
		Post:      post,
		Content:   content,
		CreatedAt: time.Now().UTC(),
		State:     StateSending,
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	conv := c.findLocked(to.ID, post.ID)
	if conv == nil {
		conv = &Conversation{User: to, Post: post}
		c.convs = append([]*Conversation{conv}, c.convs...)
	} else {
		c.moveToFrontLocked(conv)
	}
	conv.Messages = append([]*Message{msg}, conv.Messages...)
	conv.LastMessage = msg
	return msg
}

// confirmSend replaces the temporary record with the authoritative server
// message, preserving its position in the thread.
func (c *conversationCache) confirmSend(tempID string, server *Message) bool {
	server.State = StateConfirmed
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, conv := range c.convs {
		for i, m := range conv.Messages {
			if m.ID == tempID {
				conv.Messages[i] = server
				if conv.LastMessage != nil && conv.LastMessage.ID == tempID {
					conv.LastMessage = server
				}
				return true
			}
		}
	}
	return false
}

// failSend marks the temporary record Failed. The record stays visible and
// its content is preserved so the user can resend without retyping; a resend
// always creates a new temporary record.
func (c *conversationCache) failSend(tempID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, conv := range c.convs {
		for _, m := range conv.Messages {
			if m.ID == tempID {
				m.State = StateFailed
				return true
			}
		}
	}
	return false
}

// setThread overlays a successfully fetched thread onto the matching entry.
// Fetch failures never reach here, so the entry keeps its last known subset.
func (c *conversationCache) setThread(counterpartID, postID string, msgs []*Message) {
	c.mu.Lock()
	defer c.mu.Unlock()

	conv := c.findLocked(counterpartID, postID)
	if conv == nil || len(msgs) == 0 {
		return
	}
	conv.Messages = msgs
}

// markRead flips the local copy of a message and decrements its
// conversation's unread count.
func (c *conversationCache) markRead(messageID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, conv := range c.convs {
		for _, m := range conv.Messages {
			if m.ID == messageID {
				if !m.IsRead && conv.UnreadCount > 0 {
					conv.UnreadCount--
				}
				m.IsRead = true
				return
			}
		}
	}
}

// removeCounterpart drops every entry with the given counterpart. Deleting
// a conversation on the server removes all messages between the pair, so
// every post-scoped entry with that counterpart goes with it.
func (c *conversationCache) removeCounterpart(counterpartID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	kept := c.convs[:0]
	for _, conv := range c.convs {
		if conv.User == nil || conv.User.ID != counterpartID {
			kept = append(kept, conv)
		}
	}
	c.convs = kept
}

// removeMessage drops one message and repairs the entry's lastMessage. An
// entry left with no messages is removed.
func (c *conversationCache) removeMessage(messageID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for ci, conv := range c.convs {
		for mi, m := range conv.Messages {
			if m.ID != messageID {
				continue
			}
			conv.Messages = append(conv.Messages[:mi], conv.Messages[mi+1:]...)
			if len(conv.Messages) == 0 {
				c.convs = append(c.convs[:ci], c.convs[ci+1:]...)
				return
			}
			if conv.LastMessage != nil && conv.LastMessage.ID == messageID {
				conv.LastMessage = latestOf(conv.Messages)
			}
			return
		}
	}
}

func (c *conversationCache) moveToFrontLocked(conv *Conversation) {
	for i, cur := range c.convs {
		if cur == conv {
			copy(c.convs[1:i+1], c.convs[:i])
			c.convs[0] = conv
			return
		}
	}
}

func latestOf(msgs []*Message) *Message {
	var latest *Message
	for _, m := range msgs {
		if latest == nil || m.CreatedAt.After(latest.CreatedAt) {
			latest = m
		}
	}
	return latest
}

func sortByLastMessage(convs []*Conversation) {
	sort.SliceStable(convs, func(i, j int) bool {
		var ti, tj time.Time
		if convs[i].LastMessage != nil {
			ti = convs[i].LastMessage.CreatedAt
		}
		if convs[j].LastMessage != nil {
			tj = convs[j].LastMessage.CreatedAt
		}
		return ti.After(tj)
	})
}
