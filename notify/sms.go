package notify

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
)

// maxSMSLength is Twilio's body limit.
const maxSMSLength = 1600

// TwilioSMS sends text messages through the Twilio REST API.
type TwilioSMS struct {
	client *twilio.RestClient
	from   string
}

func NewTwilioSMS(accountSID, authToken, fromNumber string) *TwilioSMS {
	return &TwilioSMS{
		client: twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: accountSID,
			Password: authToken,
		}),
		from: fromNumber,
	}
}

func (t *TwilioSMS) SendSMS(ctx context.Context, to, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	to = formatPhoneNumber(to)
	if len(to) < 8 {
		return fmt.Errorf("%w: phone number %q", ErrInvalidRecipient, to)
	}
	from := formatPhoneNumber(t.from)
	body = truncateSMS(body)

	params := &openapi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(from)
	params.SetBody(body)

	if _, err := t.client.Api.CreateMessage(params); err != nil {
		return fmt.Errorf("sending sms: %w", err)
	}
	return nil
}

// formatPhoneNumber reduces a number to E.164 form: leading + and digits.
func formatPhoneNumber(phone string) string {
	var sb strings.Builder
	for _, r := range strings.TrimSpace(phone) {
		if r >= '0' && r <= '9' {
			sb.WriteRune(r)
		}
	}
	if sb.Len() == 0 {
		return ""
	}
	return "+" + sb.String()
}

// truncateSMS cuts body to maxSMSLength characters, never splitting a
// multibyte character.
func truncateSMS(body string) string {
	if utf8.RuneCountInString(body) <= maxSMSLength {
		return body
	}
	runes := []rune(body)
	return string(runes[:maxSMSLength-3]) + "..."
}
