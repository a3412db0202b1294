package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hackinvite/internal/domain"
)

type fakeRenderer struct{}

func (fakeRenderer) Render(templateName string, data any) (string, string, string, error) {
	return "subject: " + templateName, "<p>body</p>", "body", nil
}

// fakeMailer records sends; when slow, it waits out the caller's context.
type fakeMailer struct {
	slow bool
	sent []string
}

func (m *fakeMailer) Send(ctx context.Context, to, subject, html, text string) error {
	if m.slow {
		<-ctx.Done()
		return ctx.Err()
	}
	m.sent = append(m.sent, to)
	return nil
}

func TestEmailService_SendInvitation(t *testing.T) {
	mailer := &fakeMailer{}
	svc := NewEmailService(mailer, fakeRenderer{})

	err := svc.SendInvitation(context.Background(), &domain.InvitationEmailData{
		Email:         "alice@x.com",
		HackathonName: "SpringHack",
		JoinLink:      "http://localhost:3000/join-hackathon?token=abc",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"alice@x.com"}, mailer.sent)
}

func TestEmailService_SendInvitation_ContextDeadline(t *testing.T) {
	mailer := &fakeMailer{slow: true}
	svc := NewEmailService(mailer, fakeRenderer{})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err := svc.SendInvitation(ctx, &domain.InvitationEmailData{Email: "alice@x.com"})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Empty(t, mailer.sent)
}

func TestEmailService_SendConfirmationCode_ContextDeadline(t *testing.T) {
	mailer := &fakeMailer{slow: true}
	svc := NewEmailService(mailer, fakeRenderer{})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err := svc.SendConfirmationCode(ctx, &domain.ConfirmationCodeEmailData{Email: "alice@x.com", Code: "123456"})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Empty(t, mailer.sent)
}
