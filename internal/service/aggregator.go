package service

import "github.com/sportsconnect/messaging/internal/domain"

type convKey struct {
	counterpart string
	post        string
}

// Aggregate collapses a user's flat message log into one conversation per
// (counterpart, post) pair. Two conversations with the same counterpart but
// different posts are never merged.
//
// msgs must be sorted by created_at descending. That makes the first message
// seen in each group its lastMessage, and makes group first-seen order equal
// to lastMessage ordering, so no re-sort is needed. Messages whose post no
// longer exists keep their group; the post projection degrades later at the
// presentation boundary.
func Aggregate(self string, msgs []*domain.Message) []*domain.ConversationSummary {
	index := map[convKey]*domain.ConversationSummary{}
	out := []*domain.ConversationSummary{}

	for _, m := range msgs {
		k := convKey{counterpart: m.Counterpart(self), post: m.PostID}
		conv, ok := index[k]
		if !ok {
			conv = &domain.ConversationSummary{
				User:        &domain.UserRef{ID: k.counterpart},
				PostID:      m.PostID,
				LastMessage: m,
			}
			index[k] = conv
			out = append(out, conv)
		}
		conv.Messages = append(conv.Messages, m)
		if m.ReceiverID == self && !m.IsRead {
			conv.UnreadCount++
		}
	}
	return out
}
