// Package notify delivers meeting invitations and security instructions to
// customers over e-mail and SMS.
package notify

import (
	"context"
	"errors"
)

var (
	ErrInvalidRecipient = errors.New("invalid recipient")
	ErrAuth             = errors.New("mail relay authentication failed")
	ErrNotConfigured    = errors.New("delivery channel not configured")
)

type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

type Result struct {
	Status  Status `json:"status"`
	Message string `json:"message"`
}

func failed(msg string) Result {
	return Result{Status: StatusError, Message: msg}
}

// Message is an outbound e-mail. When Text is empty it is derived from HTML.
type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) error
}
