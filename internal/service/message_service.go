package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sportsconnect/messaging/internal/cache"
	"github.com/sportsconnect/messaging/internal/domain"
	"github.com/sportsconnect/messaging/internal/events"
	"github.com/sportsconnect/messaging/internal/metrics"
)

// MessageStore is the persistence surface the service needs from the
// message log.
type MessageStore interface {
	Insert(ctx context.Context, m *domain.Message) error
	FindByID(ctx context.Context, id string) (*domain.Message, error)
	FindBetween(ctx context.Context, a, b string) ([]*domain.Message, error)
	FindAllForUser(ctx context.Context, u string) ([]*domain.Message, error)
	MarkRead(ctx context.Context, id string) error
	DeleteBetween(ctx context.Context, a, b string) error
	DeleteByID(ctx context.Context, id string) error
}

// UserDirectory resolves user projections for populating messages.
type UserDirectory interface {
	FindRefs(ctx context.Context, ids []string) (map[string]*domain.UserRef, error)
}

// PostDirectory resolves post projections. Deleted posts are simply absent
// from the result.
type PostDirectory interface {
	FindRefs(ctx context.Context, ids []string) (map[string]*domain.PostRef, error)
}

// Service implements the messaging operations on top of the message store.
// The acting user identity is passed explicitly into every call; nothing is
// read from ambient state. Cache and publisher are optional.
type Service struct {
	store MessageStore
	users UserDirectory
	posts PostDirectory
	cache *cache.ConversationCache
	pub   *events.Publisher
	log   *zap.SugaredLogger

	now func() time.Time
}

func New(store MessageStore, users UserDirectory, posts PostDirectory, log *zap.SugaredLogger) *Service {
	return &Service{
		store: store,
		users: users,
		posts: posts,
		log:   log,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) WithCache(c *cache.ConversationCache) *Service {
	s.cache = c
	return s
}

func (s *Service) WithPublisher(p *events.Publisher) *Service {
	s.pub = p
	return s
}

type SendRequest struct {
	Recipient string `json:"recipient"`
	Content   string `json:"content"`
	Post      string `json:"post"`
}

// Send persists one message from sender about req.Post. The insert is
// atomic; there is no partial commit to roll back.
func (s *Service) Send(ctx context.Context, sender string, req SendRequest) (*domain.Message, error) {
	content := strings.TrimSpace(req.Content)
	if req.Recipient == "" || content == "" || req.Post == "" {
		return nil, fmt.Errorf("%w: recipient, content and post are required", domain.ErrInvalidInput)
	}

	m := &domain.Message{
		ID:         uuid.NewString(),
		SenderID:   sender,
		ReceiverID: req.Recipient,
		PostID:     req.Post,
		Content:    content,
		IsRead:     false,
		CreatedAt:  s.now(),
	}
	if err := s.store.Insert(ctx, m); err != nil {
		return nil, err
	}
	if err := s.populate(ctx, []*domain.Message{m}); err != nil {
		s.log.Warnw("populate after send", "err", err)
	}

	metrics.MessagesSent.Inc()
	s.invalidate(ctx, sender, req.Recipient)
	s.publish(ctx, events.MessageCreated, sender, m)
	return m, nil
}

// Thread returns the full message history between self and other, newest
// first, across all posts.
func (s *Service) Thread(ctx context.Context, self, other string) ([]*domain.Message, error) {
	msgs, err := s.store.FindBetween(ctx, self, other)
	if err != nil {
		return nil, err
	}
	if err := s.populate(ctx, msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

// MarkRead flips is_read on one message. Only the receiver may do this.
func (s *Service) MarkRead(ctx context.Context, self, messageID string) (*domain.Message, error) {
	m, err := s.store.FindByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if m.ReceiverID != self {
		return nil, fmt.Errorf("%w: only the receiver may mark a message read", domain.ErrNotAuthorized)
	}
	if err := s.store.MarkRead(ctx, messageID); err != nil {
		return nil, err
	}
	m.IsRead = true
	if err := s.populate(ctx, []*domain.Message{m}); err != nil {
		s.log.Warnw("populate after mark-read", "err", err)
	}

	metrics.MessagesRead.Inc()
	s.invalidate(ctx, m.SenderID, m.ReceiverID)
	s.publish(ctx, events.MessageRead, self, m)
	return m, nil
}

// Conversations aggregates self's message log into conversation summaries,
// one per (counterpart, post), ordered by last activity. The grouping is
// computed atomically in memory from a single consistent read.
func (s *Service) Conversations(ctx context.Context, self string) ([]*domain.ConversationSummary, error) {
	if s.cache != nil {
		if convs, ok := s.cache.Get(ctx, self); ok {
			metrics.Aggregations.WithLabelValues("cache").Inc()
			return convs, nil
		}
	}

	msgs, err := s.store.FindAllForUser(ctx, self)
	if err != nil {
		return nil, err
	}
	if err := s.populate(ctx, msgs); err != nil {
		return nil, err
	}

	convs := Aggregate(self, msgs)
	for _, conv := range convs {
		// the counterpart projection rides on any populated message
		if last := conv.LastMessage; last != nil {
			if last.SenderID == conv.User.ID && last.Sender != nil {
				conv.User = last.Sender
			} else if last.ReceiverID == conv.User.ID && last.Receiver != nil {
				conv.User = last.Receiver
			}
			conv.Post = last.Post
		}
	}

	metrics.Aggregations.WithLabelValues("store").Inc()
	if s.cache != nil {
		s.cache.Set(ctx, self, convs)
	}
	return convs, nil
}

// DeleteConversation removes every message between self and other.
// Idempotent: deleting an empty conversation succeeds.
func (s *Service) DeleteConversation(ctx context.Context, self, other string) error {
	if err := s.store.DeleteBetween(ctx, self, other); err != nil {
		return err
	}
	s.invalidate(ctx, self, other)
	s.publish(ctx, events.ConversationDeleted, self, map[string]string{"user": self, "counterpart": other})
	return nil
}

// DeleteMessage removes one message. Only the sender may delete it.
func (s *Service) DeleteMessage(ctx context.Context, self, messageID string) error {
	m, err := s.store.FindByID(ctx, messageID)
	if err != nil {
		return err
	}
	if m.SenderID != self {
		return fmt.Errorf("%w: only the sender may delete a message", domain.ErrNotAuthorized)
	}
	if err := s.store.DeleteByID(ctx, messageID); err != nil {
		return err
	}
	s.invalidate(ctx, m.SenderID, m.ReceiverID)
	s.publish(ctx, events.MessageDeleted, self, map[string]string{"id": messageID})
	return nil
}

// populate fills the sender/receiver/post projections on msgs with one
// batched lookup per collection. Missing users degrade to a bare id ref;
// missing posts stay nil so aggregation keeps the message.
func (s *Service) populate(ctx context.Context, msgs []*domain.Message) error {
	if len(msgs) == 0 {
		return nil
	}
	userIDs := map[string]struct{}{}
	postIDs := map[string]struct{}{}
	for _, m := range msgs {
		userIDs[m.SenderID] = struct{}{}
		userIDs[m.ReceiverID] = struct{}{}
		postIDs[m.PostID] = struct{}{}
	}

	users, err := s.users.FindRefs(ctx, keys(userIDs))
	if err != nil {
		return err
	}
	posts, err := s.posts.FindRefs(ctx, keys(postIDs))
	if err != nil {
		return err
	}

	for _, m := range msgs {
		m.Sender = userOrBare(users, m.SenderID)
		m.Receiver = userOrBare(users, m.ReceiverID)
		m.Post = posts[m.PostID]
	}
	return nil
}

func userOrBare(refs map[string]*domain.UserRef, id string) *domain.UserRef {
	if u, ok := refs[id]; ok {
		return u
	}
	return &domain.UserRef{ID: id}
}

func keys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	return out
}

func (s *Service) invalidate(ctx context.Context, userIDs ...string) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, userIDs...)
	}
}

func (s *Service) publish(ctx context.Context, eventType, key string, data interface{}) {
	if s.pub != nil {
		s.pub.Publish(ctx, eventType, key, data)
	}
}
