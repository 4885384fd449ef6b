package notify

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/textproto"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/wneessen/go-mail"
	"golang.org/x/net/html"
)

const defaultSMTPPort = 587

// SMTPMailer sends mail through an authenticated relay, upgrading to TLS
// when the server offers STARTTLS.
type SMTPMailer struct {
	host     string
	port     int
	from     string
	password string
	timeout  time.Duration
}

// NewSMTPMailer authenticates as from with password against addr
// (host:port).
func NewSMTPMailer(addr, from, password string, timeout time.Duration) *SMTPMailer {
	host, portText, err := net.SplitHostPort(addr)
	if err != nil {
		host, portText = addr, ""
	}
	port, err := strconv.Atoi(portText)
	if err != nil || port <= 0 {
		port = defaultSMTPPort
	}
	return &SMTPMailer{
		host:     host,
		port:     port,
		from:     from,
		password: password,
		timeout:  timeout,
	}
}

func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if m.from == "" {
		return fmt.Errorf("%w: sender email is empty", ErrNotConfigured)
	}
	gm, err := m.compose(msg)
	if err != nil {
		return err
	}

	client, err := mail.NewClient(m.host, m.clientOptions()...)
	if err != nil {
		return fmt.Errorf("configuring mail client: %w", err)
	}
	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}
	if err := client.DialAndSendWithContext(ctx, gm); err != nil {
		if isAuthError(err) {
			return fmt.Errorf("%w: %v", ErrAuth, err)
		}
		return fmt.Errorf("sending mail via %s:%d: %w", m.host, m.port, err)
	}
	return nil
}

func (m *SMTPMailer) clientOptions() []mail.Option {
	opts := []mail.Option{
		mail.WithPort(m.port),
		mail.WithTLSPortPolicy(mail.TLSOpportunistic),
	}
	if m.timeout > 0 {
		opts = append(opts, mail.WithTimeout(m.timeout))
	}
	if m.password != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(m.from),
			mail.WithPassword(m.password),
		)
	}
	return opts
}

// compose builds a multipart/alternative message. The plain-text part is
// always present; the HTML part only when msg.HTML is set.
func (m *SMTPMailer) compose(msg Message) (*mail.Msg, error) {
	gm := mail.NewMsg()
	if err := gm.From(m.from); err != nil {
		return nil, fmt.Errorf("%w: sender %q: %v", ErrNotConfigured, m.from, err)
	}
	if err := gm.To(msg.To); err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidRecipient, msg.To, err)
	}
	gm.Subject(msg.Subject)
	gm.SetDate()
	gm.SetMessageID()

	text := msg.Text
	if text == "" && msg.HTML != "" {
		text = htmlToText(msg.HTML)
	}
	gm.SetBodyString(mail.TypeTextPlain, text)
	if msg.HTML != "" {
		gm.AddAlternativeString(mail.TypeTextHTML, msg.HTML)
	}
	return gm, nil
}

// isAuthError reports whether the relay rejected the credentials.
func isAuthError(err error) bool {
	var sendErr *mail.SendError
	if errors.As(err, &sendErr) && sendErr.Reason == mail.ErrSMTPAuth {
		return true
	}
	var protoErr *textproto.Error
	if errors.As(err, &protoErr) && protoErr.Code == 535 {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "smtp auth")
}

var spaceRun = regexp.MustCompile(`[ \t]+`)

// htmlToText keeps visible text, putting block elements on their own lines.
func htmlToText(src string) string {
	doc, err := html.Parse(strings.NewReader(src))
	if err != nil {
		return src
	}
	var sb strings.Builder
	walkText(doc, &sb)

	var lines []string
	for _, line := range strings.Split(sb.String(), "\n") {
		line = strings.TrimSpace(spaceRun.ReplaceAllString(line, " "))
		if line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

func walkText(n *html.Node, sb *strings.Builder) {
	if n.Type == html.ElementNode {
		switch n.Data {
		case "script", "style", "head":
			return
		case "a":
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				walkText(c, sb)
			}
			for _, attr := range n.Attr {
				if attr.Key == "href" {
					sb.WriteString(" (" + attr.Val + ")")
				}
			}
			return
		case "p", "div", "br", "li", "h1", "h2", "h3", "tr":
			sb.WriteString("\n")
		}
	}
	if n.Type == html.TextNode {
		sb.WriteString(n.Data)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walkText(c, sb)
	}
}
