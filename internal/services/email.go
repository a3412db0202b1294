package services

import (
	"context"
	"fmt"
	"log"

	"hackinvite/internal/domain"
)

type emailService struct {
	mailer   domain.Mailer
	renderer domain.EmailTemplateRenderer
}

// NewEmailService returns an EmailService that uses the given Mailer and template renderer.
func NewEmailService(mailer domain.Mailer, renderer domain.EmailTemplateRenderer) domain.EmailService {
	return &emailService{mailer: mailer, renderer: renderer}
}

// SendInvitation sends the hackathon invitation email using the "invitation" template.
func (s *emailService) SendInvitation(ctx context.Context, data *domain.InvitationEmailData) error {
	if data == nil {
		return fmt.Errorf("invitation data is nil")
	}
	subject, htmlBody, textBody, err := s.renderer.Render("invitation", data)
	if err != nil {
		return fmt.Errorf("failed to render invitation template: %w", err)
	}
	if err := s.mailer.Send(ctx, data.Email, subject, htmlBody, textBody); err != nil {
		return fmt.Errorf("failed to send invitation email: %w", err)
	}
	log.Printf("[EMAIL] Invitation sent to %s", data.Email)
	return nil
}

// SendConfirmationCode sends the 6-digit code email using the "confirmation_code" template.
func (s *emailService) SendConfirmationCode(ctx context.Context, data *domain.ConfirmationCodeEmailData) error {
	if data == nil {
		return fmt.Errorf("confirmation code data is nil")
	}
	subject, htmlBody, textBody, err := s.renderer.Render("confirmation_code", data)
	if err != nil {
		return fmt.Errorf("failed to render confirmation_code template: %w", err)
	}
	if err := s.mailer.Send(ctx, data.Email, subject, htmlBody, textBody); err != nil {
		return fmt.Errorf("failed to send confirmation code email: %w", err)
	}
	log.Printf("[EMAIL] Confirmation code sent to %s", data.Email)
	return nil
}
