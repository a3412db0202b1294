package domain

import "context"

// Mailer defines the contract for sending emails (infrastructure port).
// Send honors ctx cancellation and deadlines; callers bound delivery with
// a timeout context.
type Mailer interface {
	Send(ctx context.Context, to, subject, html, text string) error
}

// EmailTemplateRenderer renders email content from a named template with the given data.
type EmailTemplateRenderer interface {
	Render(templateName string, data any) (subject, htmlBody, textBody string, err error)
}

// InvitationEmailData holds data for the hackathon invitation email.
type InvitationEmailData struct {
	Email         string
	HackathonName string
	// JoinLink is the frontend URL carrying the opaque invitation token.
	JoinLink string
}

// ConfirmationCodeEmailData holds data for the confirmation-code email.
type ConfirmationCodeEmailData struct {
	Email string
	Code  string
}

// EmailService defines the contract for sending domain-level emails.
type EmailService interface {
	SendInvitation(ctx context.Context, data *InvitationEmailData) error
	SendConfirmationCode(ctx context.Context, data *ConfirmationCodeEmailData) error
}
