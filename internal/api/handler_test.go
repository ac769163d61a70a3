package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sportsconnect/messaging/internal/auth"
	"github.com/sportsconnect/messaging/internal/domain"
	"github.com/sportsconnect/messaging/internal/service"
)

// stubService records the acting user and returns canned results.
type stubService struct {
	lastActor string
	convs     []*domain.ConversationSummary
	thread    []*domain.Message
	sent      *domain.Message
	err       error
}

func (s *stubService) Send(_ context.Context, sender string, req service.SendRequest) (*domain.Message, error) {
	s.lastActor = sender
	return s.sent, s.err
}

func (s *stubService) Thread(_ context.Context, self, other string) ([]*domain.Message, error) {
	s.lastActor = self
	return s.thread, s.err
}

func (s *stubService) MarkRead(_ context.Context, self, id string) (*domain.Message, error) {
	s.lastActor = self
	return s.sent, s.err
}

func (s *stubService) Conversations(_ context.Context, self string) ([]*domain.ConversationSummary, error) {
	s.lastActor = self
	return s.convs, s.err
}

func (s *stubService) DeleteConversation(_ context.Context, self, other string) error {
	s.lastActor = self
	return s.err
}

func (s *stubService) DeleteMessage(_ context.Context, self, id string) error {
	s.lastActor = self
	return s.err
}

func newTestApp(svc MessagingService) (*fiber.App, string) {
	validator := auth.NewValidator("test-secret")
	app := NewServer(svc, validator, nil, zap.NewNop().Sugar())
	tok, _ := validator.Sign("alice", time.Hour)
	return app, tok
}

func doRequest(t *testing.T, app *fiber.App, method, path, token string, body io.Reader) *http.Response {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func TestAuthRequired(t *testing.T) {
	app, _ := newTestApp(&stubService{})

	for _, path := range []string{
		"/api/messages/conversations/list",
		"/api/messages/bob",
	} {
		resp := doRequest(t, app, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, path)
	}

	resp := doRequest(t, app, http.MethodGet, "/api/messages/bob", "bogus-token", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHealthAndMetricsOpen(t *testing.T) {
	app, _ := newTestApp(&stubService{})

	resp := doRequest(t, app, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doRequest(t, app, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestListConversationsActsAsTokenUser(t *testing.T) {
	svc := &stubService{
		convs: []*domain.ConversationSummary{{
			User:        &domain.UserRef{ID: "bob", Name: "Bob"},
			PostID:      "p1",
			Post:        &domain.PostRef{ID: "p1", Title: "Game"},
			LastMessage: &domain.Message{ID: "m1", Content: "hi"},
			Messages:    []*domain.Message{{ID: "m1", Content: "hi"}},
			UnreadCount: 2,
		}},
	}
	app, tok := newTestApp(svc)

	resp := doRequest(t, app, http.MethodGet, "/api/messages/conversations/list", tok, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "alice", svc.lastActor)

	var out []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.Len(t, out, 1)
	assert.Equal(t, float64(2), out[0]["unreadCount"])
}

func TestDeletedPostRendersUnknown(t *testing.T) {
	svc := &stubService{
		convs: []*domain.ConversationSummary{{
			User:        &domain.UserRef{ID: "bob"},
			PostID:      "gone",
			Post:        nil,
			LastMessage: &domain.Message{ID: "m1", PostID: "gone", Content: "hi"},
			Messages:    []*domain.Message{{ID: "m1", PostID: "gone", Content: "hi"}},
		}},
	}
	app, tok := newTestApp(svc)

	resp := doRequest(t, app, http.MethodGet, "/api/messages/conversations/list", tok, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out []struct {
		Post struct {
			ID    string `json:"id"`
			Title string `json:"title"`
		} `json:"post"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.Len(t, out, 1)
	assert.Equal(t, "gone", out[0].Post.ID)
	assert.Equal(t, "Unknown Post", out[0].Post.Title)
}

func TestErrorMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{fmt.Errorf("%w: bad", domain.ErrInvalidInput), http.StatusBadRequest},
		{fmt.Errorf("%w: nope", domain.ErrNotAuthorized), http.StatusUnauthorized},
		{domain.ErrNotFound, http.StatusNotFound},
		{fmt.Errorf("mongo exploded"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		app, tok := newTestApp(&stubService{err: tc.err})
		resp := doRequest(t, app, http.MethodPut, "/api/messages/m1/read", tok, nil)
		assert.Equal(t, tc.status, resp.StatusCode, tc.err.Error())
	}
}

func TestDeleteResponses(t *testing.T) {
	app, tok := newTestApp(&stubService{})

	resp := doRequest(t, app, http.MethodDelete, "/api/messages/bob", tok, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "Conversation deleted", body["message"])

	resp = doRequest(t, app, http.MethodDelete, "/api/messages/single/m1", tok, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "Message deleted", body["message"])
}

func TestSendRejectsMalformedBody(t *testing.T) {
	app, tok := newTestApp(&stubService{sent: &domain.Message{ID: "m1"}})

	req := httptest.NewRequest(http.MethodPost, "/api/messages", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
