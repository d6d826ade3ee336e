package mail

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"mime/multipart"
	"net"
	"net/textproto"
	"strconv"
	"time"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
)

// SMTPConfig points at an outbound relay.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
	// ImplicitTLS dials SMTPS (port 465 style) instead of STARTTLS.
	ImplicitTLS bool
}

// SMTPMailer delivers mail through an external relay using authenticated
// SMTP. One connection per message; inquiry volume never justifies pooling.
type SMTPMailer struct {
	cfg SMTPConfig
}

// NewSMTPMailer validates the relay config. Host, From, and Port are
// required; credentials are optional for relays that trust the source IP.
func NewSMTPMailer(cfg SMTPConfig) (*SMTPMailer, error) {
	if cfg.Host == "" || cfg.From == "" {
		return nil, fmt.Errorf("smtp host and from address are required")
	}
	if cfg.Port <= 0 {
		return nil, fmt.Errorf("smtp port is required")
	}
	return &SMTPMailer{cfg: cfg}, nil
}

// Configured always reports true; a constructed SMTPMailer has a relay.
func (m *SMTPMailer) Configured() bool { return true }

// Send delivers one message. The SMTP dialog itself has no context hook, so
// it runs in a goroutine raced against ctx; an abandoned dialog finishes or
// times out on its own without blocking the caller.
func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	body, err := m.build(msg)
	if err != nil {
		return err
	}

	var auth sasl.Client
	if m.cfg.Username != "" {
		auth = sasl.NewPlainClient("", m.cfg.Username, m.cfg.Password)
	}

	addr := net.JoinHostPort(m.cfg.Host, strconv.Itoa(m.cfg.Port))

	done := make(chan error, 1)
	go func() {
		if m.cfg.ImplicitTLS {
			done <- smtp.SendMailTLS(addr, auth, m.cfg.From, []string{msg.To}, bytes.NewReader(body))
			return
		}
		done <- smtp.SendMail(addr, auth, m.cfg.From, []string{msg.To}, bytes.NewReader(body))
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("smtp delivery failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// build renders the RFC 5322 message. Croatian subjects carry diacritics, so
// the subject header is Q-encoded.
func (m *SMTPMailer) build(msg Message) ([]byte, error) {
	var buf bytes.Buffer

	from := m.cfg.From
	if m.cfg.FromName != "" {
		from = fmt.Sprintf("%s <%s>", mime.QEncoding.Encode("utf-8", m.cfg.FromName), m.cfg.From)
	}

	fmt.Fprintf(&buf, "From: %s\r\n", from)
	fmt.Fprintf(&buf, "To: %s\r\n", msg.To)
	fmt.Fprintf(&buf, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", msg.Subject))
	fmt.Fprintf(&buf, "Date: %s\r\n", time.Now().UTC().Format(time.RFC1123Z))
	fmt.Fprintf(&buf, "MIME-Version: 1.0\r\n")

	if msg.HTML == "" {
		fmt.Fprintf(&buf, "Content-Type: text/plain; charset=utf-8\r\n")
		fmt.Fprintf(&buf, "\r\n")
		buf.WriteString(msg.Text)
		buf.WriteString("\r\n")
		return buf.Bytes(), nil
	}

	writer := multipart.NewWriter(&buf)
	fmt.Fprintf(&buf, "Content-Type: multipart/alternative; boundary=%q\r\n", writer.Boundary())
	fmt.Fprintf(&buf, "\r\n")

	textPart, err := writer.CreatePart(textproto.MIMEHeader{
		"Content-Type": {"text/plain; charset=utf-8"},
	})
	if err != nil {
		return nil, err
	}
	if _, err := textPart.Write([]byte(msg.Text)); err != nil {
		return nil, err
	}

	htmlPart, err := writer.CreatePart(textproto.MIMEHeader{
		"Content-Type": {"text/html; charset=utf-8"},
	})
	if err != nil {
		return nil, err
	}
	if _, err := htmlPart.Write([]byte(msg.HTML)); err != nil {
		return nil, err
	}

	if err := writer.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
