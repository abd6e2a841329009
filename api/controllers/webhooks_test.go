package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	clerkwebhook "github.com/oskaz/oskaz-api/internal/webhooks/clerk"
)

type stubVerifier struct {
	err   error
	calls int
}

func (s *stubVerifier) Verify(_ []byte, _ http.Header) error {
	s.calls++
	return s.err
}

type stubGuard struct {
	seen    map[string]bool
	deleted []string
}

func newStubGuard() *stubGuard {
	return &stubGuard{seen: make(map[string]bool)}
}

func (s *stubGuard) CheckAndMark(_ context.Context, eventID string) (bool, error) {
	if s.seen[eventID] {
		return true, nil
	}
	s.seen[eventID] = true
	return false, nil
}

func (s *stubGuard) Delete(_ context.Context, eventID string) error {
	s.deleted = append(s.deleted, eventID)
	delete(s.seen, eventID)
	return nil
}

type stubWebhookService struct {
	err    error
	events []*clerkwebhook.Event
}

func (s *stubWebhookService) HandleEvent(_ context.Context, _ string, event *clerkwebhook.Event) error {
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, event)
	return nil
}

func signedWebhookRequest(eventID, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/identity", strings.NewReader(body))
	req.Header.Set("svix-id", eventID)
	req.Header.Set("svix-timestamp", "1700000000")
	req.Header.Set("svix-signature", "v1,deadbeef")
	return req
}

func decodeStatus(t *testing.T, resp *httptest.ResponseRecorder) string {
	t.Helper()
	var payload map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return payload["status"]
}

func TestIdentityWebhookRequiresSignatureHeaders(t *testing.T) {
	t.Parallel()

	verifier := &stubVerifier{}
	handler := IdentityWebhook(&stubWebhookService{}, verifier, newStubGuard(), nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/identity", strings.NewReader("{}"))
	req.Header.Set("svix-id", "msg_1")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	if verifier.calls != 0 {
		t.Fatalf("verifier must not run without the full header set")
	}
}

func TestIdentityWebhookRejectsBadSignature(t *testing.T) {
	t.Parallel()

	svc := &stubWebhookService{}
	handler := IdentityWebhook(svc, &stubVerifier{err: errors.New("signature mismatch")}, newStubGuard(), nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, signedWebhookRequest("msg_1", `{"type":"user.created"}`))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	if len(svc.events) != 0 {
		t.Fatalf("unverified payloads must never reach the service")
	}
}

func TestIdentityWebhookProcessesEvent(t *testing.T) {
	t.Parallel()

	svc := &stubWebhookService{}
	handler := IdentityWebhook(svc, &stubVerifier{}, newStubGuard(), nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, signedWebhookRequest("msg_1", `{"type":"user.created","data":{"id":"user_1"}}`))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if got := decodeStatus(t, resp); got != "processed" {
		t.Fatalf("expected processed, got %q", got)
	}
	if len(svc.events) != 1 || svc.events[0].Type != "user.created" {
		t.Fatalf("expected one decoded event, got %+v", svc.events)
	}
}

func TestIdentityWebhookIgnoresDuplicateDelivery(t *testing.T) {
	t.Parallel()

	svc := &stubWebhookService{}
	handler := IdentityWebhook(svc, &stubVerifier{}, newStubGuard(), nil)

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, signedWebhookRequest("msg_dup", `{"type":"user.created"}`))
	second := httptest.NewRecorder()
	handler.ServeHTTP(second, signedWebhookRequest("msg_dup", `{"type":"user.created"}`))

	if second.Code != http.StatusOK {
		t.Fatalf("duplicate delivery must still ack, got %d", second.Code)
	}
	if got := decodeStatus(t, second); got != "ignored" {
		t.Fatalf("expected ignored, got %q", got)
	}
	if len(svc.events) != 1 {
		t.Fatalf("service must see the event exactly once, saw %d", len(svc.events))
	}
}

func TestIdentityWebhookReleasesGuardOnFailure(t *testing.T) {
	t.Parallel()

	guard := newStubGuard()
	handler := IdentityWebhook(&stubWebhookService{err: errors.New("registry down")}, &stubVerifier{}, guard, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, signedWebhookRequest("msg_fail", `{"type":"user.created"}`))

	if resp.Code == http.StatusOK {
		t.Fatalf("handler failure must not ack")
	}
	if len(guard.deleted) != 1 || guard.deleted[0] != "msg_fail" {
		t.Fatalf("failed events must release the idempotency mark, got %v", guard.deleted)
	}
}
