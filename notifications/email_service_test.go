package notifications

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestNewEmailServiceRequiresCredentials(t *testing.T) {
	if svc := NewEmailService("", "noreply@example.com", "SkillSwap"); svc != nil {
		t.Fatal("missing API key should disable the mailer")
	}
	if svc := NewEmailService("key", "", "SkillSwap"); svc != nil {
		t.Fatal("missing sender email should disable the mailer")
	}
	if svc := NewEmailService("key", "noreply@example.com", "SkillSwap"); svc == nil {
		t.Fatal("complete credentials should return a mailer")
	}
}

func TestNilMailerSendIsNoOp(t *testing.T) {
	var svc *EmailService
	// Must not panic.
	svc.Send("alice", "alice@example.com", "hi", "<p>hi</p>")
}

func TestSendPostsBrevoPayload(t *testing.T) {
	var received brevoPayload
	var gotKey string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("api-key")
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("bad payload: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	svc := &EmailService{
		apiKey:      "test-key",
		senderEmail: "noreply@example.com",
		senderName:  "SkillSwap",
		client:      &http.Client{Timeout: time.Second},
		endpoint:    server.URL,
	}
	svc.Send("alice", "alice@example.com", "Welcome", "<h1>hi</h1>")

	if gotKey != "test-key" {
		t.Fatalf("api-key header = %q", gotKey)
	}
	if received.Subject != "Welcome" {
		t.Fatalf("subject = %q", received.Subject)
	}
	if len(received.To) != 1 || received.To[0]["email"] != "alice@example.com" || received.To[0]["name"] != "alice" {
		t.Fatalf("recipient = %v", received.To)
	}
	if received.Sender["email"] != "noreply@example.com" {
		t.Fatalf("sender = %v", received.Sender)
	}
}

func TestSendRetriesTransientFailure(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	svc := &EmailService{
		apiKey:      "test-key",
		senderEmail: "noreply@example.com",
		senderName:  "SkillSwap",
		client:      &http.Client{Timeout: time.Second},
		endpoint:    server.URL,
	}
	svc.Send("bob", "bob@example.com", "Retry", "<p>retry</p>")

	if attempts != 2 {
		t.Fatalf("server saw %d attempts, want 2", attempts)
	}
}

func TestSendRejectsBadRecipient(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	svc := &EmailService{
		apiKey:      "test-key",
		senderEmail: "noreply@example.com",
		senderName:  "SkillSwap",
		client:      &http.Client{Timeout: time.Second},
		endpoint:    server.URL,
	}
	if err := svc.send("not-an-email", "x", "s", "c"); err == nil {
		t.Fatal("recipient without @ should be rejected")
	}
	if calls != 0 {
		t.Fatal("invalid recipient should never hit the API")
	}

	// Missing display name falls back to the mailbox part.
	if err := svc.send("carol@example.com", "", "s", "c"); err != nil {
		t.Fatalf("send failed: %v", err)
	}
}
