// internal/adapters/out/mail/sendgrid_client.go
package mail

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"
)

var (
	ErrEmptyAPIKey = errors.New("mail: sendgrid api key is empty")
	ErrEmptyFrom   = errors.New("mail: from address is empty")
	ErrEmptyTo     = errors.New("mail: to address is empty")
)

// EmailClient hides the delivery service from the mailers.
type EmailClient interface {
	Send(ctx context.Context, from, to, subject, body string) error
}

// SendGridClient implements EmailClient.
type SendGridClient struct {
	apiKey   string
	fromName string
	log      *zap.Logger

	// send is swapped in tests.
	send func(ctx context.Context, msg *sgmail.SGMailV3) (*rest.Response, error)
}

func NewSendGridClient(apiKey, fromName string, log *zap.Logger) *SendGridClient {
	if log == nil {
		log = zap.NewNop()
	}
	c := &SendGridClient{apiKey: strings.TrimSpace(apiKey), fromName: fromName, log: log}
	c.send = func(ctx context.Context, msg *sgmail.SGMailV3) (*rest.Response, error) {
		return sendgrid.NewSendClient(c.apiKey).SendWithContext(ctx, msg)
	}
	return c
}

// Send delivers a plain text message; the HTML part is the escaped text.
func (c *SendGridClient) Send(ctx context.Context, from, to, subject, body string) error {
	if c.apiKey == "" {
		return ErrEmptyAPIKey
	}
	if strings.TrimSpace(from) == "" {
		return ErrEmptyFrom
	}
	if strings.TrimSpace(to) == "" {
		return ErrEmptyTo
	}

	message := sgmail.NewSingleEmail(
		sgmail.NewEmail(c.fromName, from),
		subject,
		sgmail.NewEmail("", to),
		body,
		fmt.Sprintf("<pre>%s</pre>", html.EscapeString(body)),
	)

	response, err := c.send(ctx, message)
	if err != nil {
		return fmt.Errorf("sendgrid send error: %w", err)
	}
	if response.StatusCode >= 400 {
		c.log.Warn("sendgrid rejected message",
			zap.Int("status", response.StatusCode),
			zap.String("body", response.Body))
		return fmt.Errorf("sendgrid send failed: status=%d", response.StatusCode)
	}

	c.log.Debug("mail sent", zap.Int("status", response.StatusCode), zap.String("subject", subject))
	return nil
}
