package email

import (
	"context"
	"fmt"
	"html"

	"github.com/resend/resend-go/v2"
	"github.com/rs/zerolog/log"
)

// ResendMailer sends transactional email through the Resend API
type ResendMailer struct {
	client *resend.Client
	from   string
}

// NewResendMailer creates a ResendMailer
func NewResendMailer(apiKey, from string) *ResendMailer {
	return &ResendMailer{
		client: resend.NewClient(apiKey),
		from:   from,
	}
}

// SendRecoveryEmail sends a guest recovery link for a wishlist. The
// title is user-supplied and must be escaped before entering the HTML.
func (m *ResendMailer) SendRecoveryEmail(ctx context.Context, to, wishlistTitle, recoveryURL string) error {
	params := &resend.SendEmailRequest{
		From:    m.from,
		To:      []string{to},
		Subject: fmt.Sprintf("Your reservations on \"%s\"", wishlistTitle),
		Html: fmt.Sprintf(
			`<p>You asked to recover your reservations on <strong>%s</strong>.</p>`+
				`<p><a href="%s">Restore my reservations</a></p>`+
				`<p>The link expires in one hour. If you didn't request this, you can ignore this email.</p>`,
			html.EscapeString(wishlistTitle), recoveryURL),
	}

	sent, err := m.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		return fmt.Errorf("failed to send recovery email: %w", err)
	}

	log.Debug().Str("email_id", sent.Id).Msg("Recovery email sent")
	return nil
}

// LogMailer writes emails to the log instead of sending them. Used when
// no Resend API key is configured.
type LogMailer struct{}

// SendRecoveryEmail logs the recovery link
func (m *LogMailer) SendRecoveryEmail(ctx context.Context, to, wishlistTitle, recoveryURL string) error {
	log.Info().
		Str("to", to).
		Str("wishlist", wishlistTitle).
		Str("url", recoveryURL).
		Msg("Recovery email (log only, no mail provider configured)")
	return nil
}
