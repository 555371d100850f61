package notifications

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

const brevoURL = "https://api.brevo.com/v3/smtp/email"

const (
	sendTimeout = 10 * time.Second
	maxAttempts = 3
)

// EmailService sends transactional email through Brevo. Construct it in
// main with NewEmailService and pass the handle to whatever needs it; a nil
// receiver is a disabled mailer and every send becomes a logged no-op.
type EmailService struct {
	apiKey      string
	senderEmail string
	senderName  string
	client      *http.Client
	endpoint    string
}

// NewEmailService returns a configured mailer, or nil when any credential
// is missing.
func NewEmailService(apiKey, senderEmail, senderName string) *EmailService {
	if apiKey == "" || senderEmail == "" || senderName == "" {
		log.Println("⚠️ Email service not configured. Missing API Key, Sender Email, or Sender Name.")
		return nil
	}
	return &EmailService{
		apiKey:      apiKey,
		senderEmail: senderEmail,
		senderName:  senderName,
		client:      &http.Client{Timeout: sendTimeout},
		endpoint:    brevoURL,
	}
}

type brevoPayload struct {
	Sender      map[string]string   `json:"sender"`
	To          []map[string]string `json:"to"`
	Subject     string              `json:"subject"`
	HTMLContent string              `json:"htmlContent"`
}

// Send delivers one email, retrying transient failures with exponential
// backoff. Callers treat delivery as best-effort and run this in a
// goroutine; errors are logged, never surfaced to the triggering request.
func (s *EmailService) Send(toName, toEmail, subject, htmlContent string) {
	if s == nil {
		log.Println("Email client not initialized, skipping email send.")
		return
	}

	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err = s.send(toEmail, toName, subject, htmlContent)
		if err == nil {
			log.Printf("✅ Email sent to %s (%q)", toEmail, subject)
			return
		}
		log.Printf("🔥 Email attempt %d/%d to %s failed: %v", attempt, maxAttempts, toEmail, err)
		if attempt < maxAttempts {
			time.Sleep(time.Duration(1<<(attempt-1)) * time.Second)
		}
	}
	log.Printf("🔥 Giving up on email to %s after %d attempts: %v", toEmail, maxAttempts, err)
}

func (s *EmailService) send(toEmail, toName, subject, htmlContent string) error {
	if toEmail == "" || !strings.Contains(toEmail, "@") {
		return fmt.Errorf("invalid recipient email: %s", toEmail)
	}

	recipientName := toName
	if recipientName == "" {
		recipientName = toEmail[:strings.Index(toEmail, "@")]
	}

	payload := brevoPayload{
		Sender:      map[string]string{"name": s.senderName, "email": s.senderEmail},
		To:          []map[string]string{{"email": toEmail, "name": recipientName}},
		Subject:     subject,
		HTMLContent: htmlContent,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %v", err)
	}

	req, err := http.NewRequest(http.MethodPost, s.endpoint, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %v", err)
	}
	req.Header.Set("accept", "application/json")
	req.Header.Set("api-key", s.apiKey)
	req.Header.Set("content-type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %v", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("brevo returned status %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}
