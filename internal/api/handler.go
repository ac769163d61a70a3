package api

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/sportsconnect/messaging/internal/domain"
	"github.com/sportsconnect/messaging/internal/service"
)

// MessagingService is what the handlers need from the service layer.
type MessagingService interface {
	Send(ctx context.Context, sender string, req service.SendRequest) (*domain.Message, error)
	Thread(ctx context.Context, self, other string) ([]*domain.Message, error)
	MarkRead(ctx context.Context, self, messageID string) (*domain.Message, error)
	Conversations(ctx context.Context, self string) ([]*domain.ConversationSummary, error)
	DeleteConversation(ctx context.Context, self, other string) error
	DeleteMessage(ctx context.Context, self, messageID string) error
}

type Handlers struct {
	svc MessagingService
	log *zap.SugaredLogger
}

func NewHandlers(svc MessagingService, log *zap.SugaredLogger) *Handlers {
	return &Handlers{svc: svc, log: log}
}

func (h *Handlers) sendMessage(c *fiber.Ctx) error {
	var req service.SendRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid request body"})
	}
	m, err := h.svc.Send(c.Context(), actingUser(c), req)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(withUnknownPost(m))
}

func (h *Handlers) listThread(c *fiber.Ctx) error {
	msgs, err := h.svc.Thread(c.Context(), actingUser(c), c.Params("userId"))
	if err != nil {
		return h.fail(c, err)
	}
	for _, m := range msgs {
		withUnknownPost(m)
	}
	return c.JSON(msgs)
}

func (h *Handlers) markRead(c *fiber.Ctx) error {
	m, err := h.svc.MarkRead(c.Context(), actingUser(c), c.Params("id"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(withUnknownPost(m))
}

func (h *Handlers) listConversations(c *fiber.Ctx) error {
	convs, err := h.svc.Conversations(c.Context(), actingUser(c))
	if err != nil {
		return h.fail(c, err)
	}
	for _, conv := range convs {
		if conv.Post == nil {
			conv.Post = unknownPost(conv.PostID)
		}
		for _, m := range conv.Messages {
			withUnknownPost(m)
		}
	}
	return c.JSON(convs)
}

func (h *Handlers) deleteConversation(c *fiber.Ctx) error {
	if err := h.svc.DeleteConversation(c.Context(), actingUser(c), c.Params("userId")); err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Conversation deleted"})
}

func (h *Handlers) deleteMessage(c *fiber.Ctx) error {
	if err := h.svc.DeleteMessage(c.Context(), actingUser(c), c.Params("id")); err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Message deleted"})
}

func (h *Handlers) fail(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	case errors.Is(err, domain.ErrNotAuthorized):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "User not authorized"})
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Message not found"})
	default:
		h.log.Errorw("request failed", "path", c.Path(), "err", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Server error"})
	}
}

// withUnknownPost degrades a dangling post reference at the presentation
// boundary; the message itself is never dropped.
func withUnknownPost(m *domain.Message) *domain.Message {
	if m.Post == nil {
		m.Post = unknownPost(m.PostID)
	}
	return m
}

func unknownPost(id string) *domain.PostRef {
	return &domain.PostRef{ID: id, Title: "Unknown Post"}
}
