package emails

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const brevoAPI = "https://api.brevo.com/v3/smtp/email"

// BrevoSendRequest matches Brevo API v3 send transactional email body.
type BrevoSendRequest struct {
	Sender      BrevoSender   `json:"sender"`
	To          []BrevoTo     `json:"to"`
	Subject     string        `json:"subject"`
	HTMLContent string        `json:"htmlContent"`
	ReplyTo     *BrevoReplyTo `json:"replyTo,omitempty"`
}

type BrevoSender struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

type BrevoTo struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type BrevoReplyTo struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Sender sends transactional emails. Nil = no-op (tests, missing API key).
type Sender interface {
	SendInvitation(ctx context.Context, toEmail, guestName, eventTitle, inviteLink, shortCode string) error
	SendInvitationReminder(ctx context.Context, toEmail, guestName, eventTitle, inviteLink, shortCode string) error
	SendResponseNotification(ctx context.Context, toEmail, guestEmail, eventTitle, status string) error
}

// BrevoClient sends emails via Brevo (Sendinblue) API. Env: SENDINBLUE_API_KEY, MAIL_FROM.
type BrevoClient struct {
	APIKey   string
	MailFrom string
	Client   *http.Client
}

func (c *BrevoClient) from() string {
	if c.MailFrom != "" {
		return c.MailFrom
	}
	return "noreply@gatherly.app"
}

// send sends one email via Brevo API.
func (c *BrevoClient) send(ctx context.Context, toEmail, subject, html string) error {
	if c.APIKey == "" {
		return nil
	}
	body := BrevoSendRequest{
		Sender:      BrevoSender{Email: c.from(), Name: "Gatherly"},
		To:          []BrevoTo{{Email: toEmail}},
		Subject:     subject,
		HTMLContent: html,
		ReplyTo:     &BrevoReplyTo{Email: "support@gatherly.app", Name: "Gatherly Support"},
	}
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, brevoAPI, bytes.NewReader(bodyBytes))
	if err != nil {
		return err
	}
	req.Header.Set("api-key", c.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.Client == nil {
		c.Client = &http.Client{Timeout: 15 * time.Second}
	}
	resp, err := c.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("brevo send failed: status %d", resp.StatusCode)
	}
	return nil
}

// SendInvitation sends the invitation email with the RSVP link and short code.
func (c *BrevoClient) SendInvitation(ctx context.Context, toEmail, guestName, eventTitle, inviteLink, shortCode string) error {
	if c.APIKey == "" {
		return nil
	}
	content := invitationContent(guestName, eventTitle, inviteLink, shortCode, false)
	return c.send(ctx, toEmail, fmt.Sprintf("You're invited to %s", eventTitle), EmailLayout(content))
}

// SendInvitationReminder re-sends the invitation with a reminder subject.
func (c *BrevoClient) SendInvitationReminder(ctx context.Context, toEmail, guestName, eventTitle, inviteLink, shortCode string) error {
	if c.APIKey == "" {
		return nil
	}
	content := invitationContent(guestName, eventTitle, inviteLink, shortCode, true)
	return c.send(ctx, toEmail, fmt.Sprintf("Reminder: you're invited to %s", eventTitle), EmailLayout(content))
}

// SendResponseNotification tells the event owner a guest responded.
func (c *BrevoClient) SendResponseNotification(ctx context.Context, toEmail, guestEmail, eventTitle, status string) error {
	if c.APIKey == "" {
		return nil
	}
	content := responseNotificationContent(guestEmail, eventTitle, status)
	return c.send(ctx, toEmail, fmt.Sprintf("New response for %s", eventTitle), EmailLayout(content))
}

func invitationContent(guestName, eventTitle, inviteLink, shortCode string, reminder bool) string {
	name := EscapeHTML(guestName)
	if name == "" {
		name = "there"
	}
	heading := "You're invited!"
	if reminder {
		heading = "Your invitation is waiting"
	}
	return fmt.Sprintf(`<h1>%s</h1>
<p>Hi %s,</p>
<p>You have been invited to <strong>%s</strong>. Let the organizer know if you can make it:</p>
<p style="text-align: center;"><a href="%s" class="cta-button">View invitation &amp; RSVP</a></p>
<p style="text-align: center;">Or enter this code in the app:</p>
<p style="text-align: center;"><span class="code-box">%s</span></p>
<p>If you weren't expecting this invitation you can safely ignore this email.</p>`,
		heading, name, EscapeHTML(eventTitle), inviteLink, EscapeHTML(shortCode))
}

func responseNotificationContent(guestEmail, eventTitle, status string) string {
	return fmt.Sprintf(`<h1>New RSVP</h1>
<p><strong>%s</strong> responded <strong>%s</strong> to <strong>%s</strong>.</p>
<p>Open your dashboard to see all responses.</p>`,
		EscapeHTML(guestEmail), EscapeHTML(status), EscapeHTML(eventTitle))
}
