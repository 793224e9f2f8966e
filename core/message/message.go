// Package message is the portal's direct messaging: one-to-one messages
// between any two principals, with per-recipient read state.
package message

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/Wrug-hu/school-portal/core"
	"github.com/Wrug-hu/school-portal/core/access"
	"github.com/Wrug-hu/school-portal/core/principal"
)

// FeedLimit caps the conversation feed, newest first.
const FeedLimit = 20

var ErrNotFound = errors.New("message not found")

type Message struct {
	ID          string      `json:"id"`
	SenderID    string      `json:"sender_id"`
	RecipientID string      `json:"recipient_id"`
	Subject     null.String `json:"subject,omitempty"`
	Content     string      `json:"content"`
	IsRead      bool        `json:"is_read"`
	CreatedAt   time.Time   `json:"created_at"` // UTC
}

type NewMessage struct {
	RecipientID string `json:"recipient_id" validate:"required"`
	Subject     string `json:"subject"`
	Content     string `json:"content" validate:"required"`
}

func (nm *NewMessage) Validate(validate *validator.Validate) error {
	nm.RecipientID = core.CleanString(nm.RecipientID)
	nm.Subject = core.CleanString(nm.Subject)
	nm.Content = core.CleanString(nm.Content)
	return validate.Struct(nm)
}

// QueryFilter scopes message reads to one participant, sender or
// recipient.
type QueryFilter struct {
	ParticipantID string
	Limit         int
}

type (
	Repository interface {
		CreateMessage(ctx context.Context, m Message) (Message, error)
		GetMessage(ctx context.Context, id string) (Message, error)
		// QueryMessages returns matches newest first, capped at Limit when set.
		QueryMessages(ctx context.Context, filter QueryFilter) ([]Message, error)
		MarkMessageRead(ctx context.Context, id string) (Message, error)
		CountUnread(ctx context.Context, recipientID string) (int, error)
	}

	Service interface {
		// Send delivers a message from the caller to another principal.
		Send(ctx context.Context, ident principal.Identity, nm NewMessage) (Message, error)
		// Feed returns the caller's latest messages, sent and received.
		Feed(ctx context.Context, principalID string) ([]Message, error)
		// MarkRead flags a received message as read; recipients only, and
		// marking an already-read message is a no-op.
		MarkRead(ctx context.Context, ident principal.Identity, messageID string) (Message, error)
		// UnreadCount is the number of received messages not yet read.
		UnreadCount(ctx context.Context, principalID string) (int, error)
	}

	service struct {
		repo         Repository
		principalSvc principal.Service
		mailSvc      core.EmailService
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, principalSvc principal.Service, mailSvc core.EmailService) Service {
	return &service{repo: repo, principalSvc: principalSvc, mailSvc: mailSvc}
}

func (svc *service) Send(ctx context.Context, ident principal.Identity, nm NewMessage) (Message, error) {
	return svc.send(ctx, ident, nm, true /* async */)
}

func (svc *service) send(ctx context.Context, ident principal.Identity, nm NewMessage, async bool) (Message, error) {
	err := access.Authorize(ident, access.Request{
		Action: access.ActionMessageSend,
		Owner:  ident.Principal.ID,
	})
	if err != nil {
		return Message{}, err
	}
	if nm.RecipientID == ident.Principal.ID {
		return Message{}, core.NewValidationError(nil,
			core.FieldError{Field: "recipient_id", Error: "cannot message yourself"})
	}

	recipient, err := svc.principalSvc.GetByID(ctx, nm.RecipientID)
	if err != nil {
		if err == principal.ErrNotFound {
			return Message{}, core.NewValidationError(err,
				core.FieldError{Field: "recipient_id", Error: "recipient not found"})
		}
		return Message{}, err
	}
	if !recipient.Active() {
		return Message{}, core.NewValidationError(nil,
			core.FieldError{Field: "recipient_id", Error: "recipient account is deactivated"})
	}

	m := Message{
		SenderID:    ident.Principal.ID,
		RecipientID: recipient.ID,
		Subject:     null.NewString(nm.Subject, nm.Subject != ""),
		Content:     nm.Content,
		CreatedAt:   time.Now().UTC(),
	}
	m, err = svc.repo.CreateMessage(ctx, m)
	if err != nil {
		return Message{}, err
	}

	if async {
		go svc.sendNewMessageMail(ident.Principal, recipient)
	} else {
		svc.sendNewMessageMail(ident.Principal, recipient)
	}
	return m, nil
}

func (svc *service) Feed(ctx context.Context, principalID string) ([]Message, error) {
	return svc.repo.QueryMessages(ctx, QueryFilter{ParticipantID: principalID, Limit: FeedLimit})
}

func (svc *service) MarkRead(ctx context.Context, ident principal.Identity, messageID string) (Message, error) {
	m, err := svc.repo.GetMessage(ctx, messageID)
	if err != nil {
		return Message{}, err
	}
	err = access.Authorize(ident, access.Request{
		Action: access.ActionMessageMarkRead,
		Owner:  m.RecipientID,
	})
	if err != nil {
		return Message{}, err
	}
	if m.IsRead {
		return m, nil
	}
	return svc.repo.MarkMessageRead(ctx, m.ID)
}

func (svc *service) UnreadCount(ctx context.Context, principalID string) (int, error) {
	return svc.repo.CountUnread(ctx, principalID)
}

func (svc *service) sendNewMessageMail(sender principal.Principal, recipient principal.Principal) {
	msg := &core.EmailMessage{
		To:      []mail.Address{{Name: recipient.FullName, Address: recipient.Email}},
		Subject: "New message on " + core.Conf.AppName,
		BodyStr: fmt.Sprintf(
			"Hi %s,\n\nYou have a new message from %s.\n\nSign in at %s to read it.",
			recipient.FullName, sender.FullName, core.Conf.FrontendBaseURL,
		),
	}
	svc.mailSvc.SendMessages(msg)
}
