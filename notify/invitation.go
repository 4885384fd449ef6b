package notify

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const invitationSubject = "Meeting Invitation!"

var invitationHTML = template.Must(template.New("invite").Parse(`<html><body>
<p>Hello there! This issue needs further investigation. Please join the meeting session using the link below.</p>
<p><a href="{{.Link}}">{{.Link}}</a></p>
<p>Session ID: {{.SessionID}}</p>
</body></html>`))

// Invitations mails video-session links.
type Invitations struct {
	mailer  Mailer
	baseURL string
	newID   func() string
	logger  zerolog.Logger
}

func NewInvitations(mailer Mailer, meetingBaseURL string) *Invitations {
	return &Invitations{
		mailer:  mailer,
		baseURL: strings.TrimRight(meetingBaseURL, "/"),
		newID:   shortSessionID,
		logger:  log.With().Str("component", "invitations").Logger(),
	}
}

// shortSessionID is the first 8 characters of a random UUID.
func shortSessionID() string {
	return uuid.NewString()[:8]
}

// Send mails one invitation to recipient. The recipient is used exactly as
// given; an invalid address fails without contacting the relay.
func (i *Invitations) Send(ctx context.Context, recipient string) Result {
	recipient = strings.TrimSpace(recipient)
	if recipient == "" {
		return failed("receiver_email is required")
	}
	addr, err := mail.ParseAddress(recipient)
	if err != nil {
		return failed(fmt.Sprintf("invalid receiver_email %q", recipient))
	}

	sessionID := i.newID()
	link := i.baseURL + "/" + sessionID

	var body strings.Builder
	if err := invitationHTML.Execute(&body, struct{ Link, SessionID string }{link, sessionID}); err != nil {
		return failed(fmt.Sprintf("rendering invitation: %v", err))
	}

	i.logger.Info().Str("recipient", addr.Address).Str("session_id", sessionID).Msg("sending meeting invitation")
	err = i.mailer.Send(ctx, Message{
		To:      addr.Address,
		Subject: invitationSubject,
		HTML:    body.String(),
	})
	switch {
	case errors.Is(err, ErrAuth):
		i.logger.Error().Err(err).Msg("mail relay rejected credentials")
		return failed("could not authenticate with the mail relay")
	case err != nil:
		i.logger.Error().Err(err).Str("recipient", addr.Address).Msg("sending invitation failed")
		return failed(fmt.Sprintf("failed to send invitation: %v", err))
	}
	return Result{Status: StatusSuccess, Message: "Link sent to " + addr.Address}
}
