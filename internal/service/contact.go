package service

import (
	"fmt"
	"net/http"
	"time"

	"github.com/waap-dev/waap/internal/captcha"
	"github.com/waap-dev/waap/internal/config"
	"github.com/waap-dev/waap/internal/domain"
	"github.com/waap-dev/waap/internal/errors"
	"github.com/waap-dev/waap/internal/logger"
	"github.com/waap-dev/waap/internal/render"
)

type ContactStorage interface {
	SaveContactMessage(msg domain.ContactMessage) (int64, error)
	Posting(id domain.PostingId) (domain.JobPosting, error)
}

// NewContactMessage is the visitor-supplied contact form payload.
type NewContactMessage struct {
	PostingId       domain.PostingId
	SenderName      string
	SenderEmail     domain.Email
	Message         string
	CaptchaResponse string
}

// Contact relays messages from anonymous visitors to posting owners without
// exposing the owner's address to the sender.
type Contact struct {
	storage ContactStorage
	email   Email
	captcha captcha.Verifier
	cfg     *config.Public
}

func NewContact(storage ContactStorage, email Email, verifier captcha.Verifier, cfg *config.Public) *Contact {
	return &Contact{
		storage: storage,
		email:   email,
		captcha: verifier,
		cfg:     cfg,
	}
}

// Send validates the captcha and the target posting, persists the message
// and relays it to the owner's contact address. The relay email carries the
// sender's address in Reply-To so the owner can answer directly; the sender
// never learns the owner's address.
func (c *Contact) Send(msg NewContactMessage) error {
	ok, err := c.captcha.Verify(msg.CaptchaResponse)
	if err != nil {
		return err
	}
	if !ok {
		return &errors.ErrorWithStatusCode{Message: "CAPTCHA verification failed", StatusCode: http.StatusBadRequest}
	}

	if err := c.email.IsCorrect(msg.SenderEmail); err != nil {
		return &errors.ValidationError{Field: "sender_email", Reason: "not a valid email address"}
	}
	text := render.PlainText(msg.Message)
	if text == "" {
		return &errors.ValidationError{Field: "message", Reason: "must not be empty"}
	}
	if c.cfg.MaxContactMessageLen > 0 && len(text) > c.cfg.MaxContactMessageLen {
		return &errors.ValidationError{Field: "message", Reason: "too long"}
	}

	posting, err := c.storage.Posting(msg.PostingId)
	if err != nil {
		return err
	}
	if !posting.PubliclyVisible(time.Now().UTC()) {
		return &errors.NotFoundError{Entity: "posting", Id: msg.PostingId}
	}
	if posting.ContactEmail == nil {
		return &errors.ErrorWithStatusCode{Message: "This posting does not accept contact messages", StatusCode: http.StatusConflict}
	}

	record := domain.ContactMessage{
		PostingId:   msg.PostingId,
		SenderName:  render.PlainText(msg.SenderName),
		SenderEmail: NormalizeEmail(msg.SenderEmail),
		Message:     text,
	}
	if _, err := c.storage.SaveContactMessage(record); err != nil {
		return err
	}

	body := fmt.Sprintf(`You received a message about your posting "%s".

From: %s <%s>

%s

Reply to this email to answer. Your address is only revealed if you do.
`, posting.Title, record.SenderName, record.SenderEmail, record.Message)

	if err := c.email.SendWithReplyTo(*posting.ContactEmail, record.SenderEmail, "New contact message", body); err != nil {
		logger.Log.Warn("contact relay delivery failed, message stored",
			"posting_id", posting.Id,
			"error", err)
	}
	return nil
}
