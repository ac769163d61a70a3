package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// APIError is a non-2xx response from the messaging service.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api: %d %s", e.Status, e.Message)
}

// API is the HTTP client for the messaging service. Transport errors and
// 5xx responses are retried with exponential backoff; 4xx responses are
// returned immediately.
type API struct {
	baseURL    string
	token      string
	http       *http.Client
	maxElapsed time.Duration
}

func NewAPI(baseURL, token string) *API {
	tr := &http.Transport{
		DialContext:     (&net.Dialer{Timeout: 5 * time.Second}).DialContext,
		MaxIdleConns:    16,
		IdleConnTimeout: 90 * time.Second,
	}
	return &API{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		http:       &http.Client{Transport: tr, Timeout: 10 * time.Second},
		maxElapsed: 15 * time.Second,
	}
}

// WithRetryBudget bounds the total time spent retrying one request.
func (a *API) WithRetryBudget(d time.Duration) *API {
	a.maxElapsed = d
	return a
}

type SendRequest struct {
	Recipient string `json:"recipient"`
	Content   string `json:"content"`
	Post      string `json:"post"`
}

func (a *API) Conversations(ctx context.Context) ([]*Conversation, error) {
	var out []*Conversation
	if err := a.do(ctx, http.MethodGet, "/api/messages/conversations/list", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (a *API) Thread(ctx context.Context, userID string) ([]*Message, error) {
	var out []*Message
	if err := a.do(ctx, http.MethodGet, "/api/messages/"+userID, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (a *API) Send(ctx context.Context, req SendRequest) (*Message, error) {
	var out Message
	if err := a.do(ctx, http.MethodPost, "/api/messages", req, &out); err != nil {
		return nil, err
	}
	out.State = StateConfirmed
	return &out, nil
}

func (a *API) MarkRead(ctx context.Context, messageID string) (*Message, error) {
	var out Message
	if err := a.do(ctx, http.MethodPut, "/api/messages/"+messageID+"/read", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *API) DeleteConversation(ctx context.Context, userID string) error {
	return a.do(ctx, http.MethodDelete, "/api/messages/"+userID, nil, nil)
}

func (a *API) DeleteMessage(ctx context.Context, messageID string) error {
	return a.do(ctx, http.MethodDelete, "/api/messages/single/"+messageID, nil, nil)
}

func (a *API) do(ctx context.Context, method, path string, body, out interface{}) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return err
		}
	}

	operation := func() error {
		var rd io.Reader
		if payload != nil {
			rd = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, rd)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Authorization", "Bearer "+a.token)
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := a.http.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 {
			io.Copy(io.Discard, resp.Body)
			return &APIError{Status: resp.StatusCode, Message: "server error"}
		}
		if resp.StatusCode >= 400 {
			apiErr := &APIError{Status: resp.StatusCode}
			var eb struct {
				Message string `json:"message"`
			}
			if jerr := json.NewDecoder(resp.Body).Decode(&eb); jerr == nil {
				apiErr.Message = eb.Message
			}
			return backoff.Permanent(apiErr)
		}
		if out != nil {
			if derr := json.NewDecoder(resp.Body).Decode(out); derr != nil {
				return backoff.Permanent(derr)
			}
			return nil
		}
		io.Copy(io.Discard, resp.Body)
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = a.maxElapsed
	return backoff.Retry(operation, backoff.WithContext(b, ctx))
}
