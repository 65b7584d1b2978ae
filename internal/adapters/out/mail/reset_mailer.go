// internal/adapters/out/mail/reset_mailer.go
package mail

import (
	"context"
	"fmt"
	"strings"
)

// ResetMailer delivers password reset links generated by the identity provider.
type ResetMailer struct {
	client      EmailClient
	fromAddress string
	appName     string
}

func NewResetMailer(client EmailClient, fromAddress, appName string) *ResetMailer {
	if strings.TrimSpace(appName) == "" {
		appName = "DrMoto"
	}
	return &ResetMailer{client: client, fromAddress: strings.TrimSpace(fromAddress), appName: appName}
}

// SendResetLink mails link to toEmail.
func (m *ResetMailer) SendResetLink(ctx context.Context, toEmail, link string) error {
	link = strings.TrimSpace(link)
	if link == "" {
		return fmt.Errorf("mail: reset link is empty")
	}
	subject := fmt.Sprintf("[%s] Reset your password", m.appName)
	body := fmt.Sprintf(`Someone asked to reset the password of your %s account.

Open this link to choose a new password:

%s

If you did not ask for this, you can ignore this email.
`, m.appName, link)

	return m.client.Send(ctx, m.fromAddress, strings.TrimSpace(toEmail), subject, body)
}
