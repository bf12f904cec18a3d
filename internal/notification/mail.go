package notification

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"text/template"
	"time"

	"cinebook/internal/data/entity"
	"cinebook/pkg/utils"

	"go.uber.org/zap"
)

type Message struct {
	To      string
	Subject string
	Body    string
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPMailer sends plain-text mail, upgrading to STARTTLS when offered and
// authenticating with PLAIN when a user is configured. Every network step is
// bounded by the context deadline, or by timeout when the context has none.
type SMTPMailer struct {
	config  utils.EmailConfig
	timeout time.Duration
	dial    func(ctx context.Context, network, addr string) (net.Conn, error)
}

func NewSMTPMailer(config utils.EmailConfig) *SMTPMailer {
	return &SMTPMailer{
		config:  config,
		timeout: 10 * time.Second,
		dial:    (&net.Dialer{}).DialContext,
	}
}

func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	addr := net.JoinHostPort(m.config.Host, strconv.Itoa(m.config.Port))
	conn, err := m.dial(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	defer conn.Close()

	deadline, _ := ctx.Deadline()
	_ = conn.SetDeadline(deadline)
	// Cancellation before the deadline also unblocks pending reads.
	stop := context.AfterFunc(ctx, func() { _ = conn.SetDeadline(time.Now()) })
	defer stop()

	if err := m.deliver(conn, msg); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("send mail to %s: %w", msg.To, ctxErr)
		}
		// The connection deadline can trip just before the context's timer.
		if !time.Now().Before(deadline) {
			return fmt.Errorf("send mail to %s: %w", msg.To, context.DeadlineExceeded)
		}
		return fmt.Errorf("send mail to %s: %w", msg.To, err)
	}
	return nil
}

func (m *SMTPMailer) deliver(conn net.Conn, msg Message) error {
	c, err := smtp.NewClient(conn, m.config.Host)
	if err != nil {
		return err
	}
	defer c.Close()

	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(&tls.Config{ServerName: m.config.Host}); err != nil {
			return err
		}
	}
	if m.config.User != "" {
		if ok, _ := c.Extension("AUTH"); ok {
			if err := c.Auth(smtp.PlainAuth("", m.config.User, m.config.Password, m.config.Host)); err != nil {
				return err
			}
		}
	}

	if err := c.Mail(m.config.From); err != nil {
		return err
	}
	if err := c.Rcpt(msg.To); err != nil {
		return err
	}
	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(m.compose(msg)); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return c.Quit()
}

func (m *SMTPMailer) compose(msg Message) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", m.config.From)
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n\r\n")
	b.WriteString(msg.Body)
	return []byte(b.String())
}

// LogMailer stands in for SMTP when no host is configured.
type LogMailer struct {
	log *zap.Logger
}

func NewLogMailer(log *zap.Logger) *LogMailer {
	return &LogMailer{log: log.With(zap.String("mailer", "log"))}
}

func (m *LogMailer) Send(_ context.Context, msg Message) error {
	m.log.Info("Mail",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.String("body", msg.Body),
	)
	return nil
}

var mailTemplates = template.Must(template.New("mail").Funcs(template.FuncMap{
	"join": strings.Join,
	"money": func(v float64) string {
		return strconv.FormatFloat(v, 'f', 2, 64)
	},
}).Parse(`
{{define "booking"}}Hi {{.CustomerName}},

Your booking {{.BookingRef}} is confirmed.

Movie:   {{.MovieTitle}}
Theatre: {{.TheatreName}}
When:    {{.When}}
Seats:   {{join .Seats ", "}}
Total:   {{money .TotalAmount}}

Enjoy the show.
{{end}}
{{define "review"}}Hi {{.Username}},

Thanks for rating {{.MovieLabel}} {{.Rating}}/5. Your review is live.
{{end}}
{{define "otp"}}Your {{.Purpose}} code is {{.Code}}.

It expires at {{.Expires}}. If you did not ask for it, ignore this message.
{{end}}
`))

// MailNotifier renders events into plain-text mail.
type MailNotifier struct {
	mailer Mailer
	loc    *time.Location
	log    *zap.Logger
}

func NewMailNotifier(mailer Mailer, loc *time.Location, log *zap.Logger) *MailNotifier {
	if loc == nil {
		loc = time.UTC
	}
	return &MailNotifier{
		mailer: mailer,
		loc:    loc,
		log:    log.With(zap.String("notifier", "mail")),
	}
}

func render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := mailTemplates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s mail: %w", name, err)
	}
	return strings.TrimLeft(buf.String(), "\n"), nil
}

func (n *MailNotifier) BookingConfirmed(ctx context.Context, ev BookingConfirmedEvent) error {
	body, err := render("booking", struct {
		BookingConfirmedEvent
		When string
	}{ev, ev.Showtime.In(n.loc).Format("Mon 02 Jan 2006 15:04")})
	if err != nil {
		return err
	}
	return n.mailer.Send(ctx, Message{
		To:      ev.CustomerEmail,
		Subject: "Booking confirmed: " + ev.BookingRef,
		Body:    body,
	})
}

func (n *MailNotifier) ReviewPosted(ctx context.Context, ev ReviewPostedEvent) error {
	body, err := render("review", ev)
	if err != nil {
		return err
	}
	return n.mailer.Send(ctx, Message{
		To:      ev.Email,
		Subject: "Thanks for your review",
		Body:    body,
	})
}

func (n *MailNotifier) OTPIssued(ctx context.Context, ev OTPIssuedEvent) error {
	purpose := entity.OTPType(ev.Purpose).Label()
	body, err := render("otp", struct {
		Purpose string
		Code    string
		Expires string
	}{purpose, ev.Code, ev.ExpiresAt.In(n.loc).Format("15:04 MST")})
	if err != nil {
		return err
	}
	return n.mailer.Send(ctx, Message{
		To:      ev.Email,
		Subject: "Your " + purpose + " code",
		Body:    body,
	})
}
