package domain

import (
	"context"
	"errors"
	"io"
)

// ErrBatchSourceUnreadable reports that a batch upload could not be read at
// all (bad encoding, empty file). It aborts the whole batch before any
// per-item processing.
var ErrBatchSourceUnreadable = errors.New("batch source unreadable")

// IssueStatus is the per-recipient outcome of an invitation issuance.
type IssueStatus string

const (
	IssueStatusIssued                IssueStatus = "issued"
	IssueStatusSkippedSelfInvite     IssueStatus = "skipped_self_invite"
	IssueStatusSkippedExistingMember IssueStatus = "skipped_existing_member"
	IssueStatusPersistFailed         IssueStatus = "persist_failed"
	IssueStatusDeliveryFailed        IssueStatus = "delivery_failed"
)

// IssueResult reports the outcome of issuing one invitation.
// swagger:model IssueResult
type IssueResult struct {
	Email  string      `json:"email"`
	Status IssueStatus `json:"status"`
}

// BatchOutcome is the ordered per-recipient result of a batch invite run
// plus summary counts. Item order matches source order; a batch never
// aborts on a single item's failure.
// swagger:model BatchOutcome
type BatchOutcome struct {
	BatchID string        `json:"batch_id"`
	Items   []IssueResult `json:"items"`
	Issued  int           `json:"issued"`
	Skipped int           `json:"skipped"`
	Failed  int           `json:"failed"`
}

// Add appends an item and updates the summary counts.
func (b *BatchOutcome) Add(res IssueResult) {
	b.Items = append(b.Items, res)
	switch res.Status {
	case IssueStatusIssued:
		b.Issued++
	case IssueStatusSkippedSelfInvite, IssueStatusSkippedExistingMember:
		b.Skipped++
	case IssueStatusPersistFailed, IssueStatusDeliveryFailed:
		b.Failed++
	}
}

// RedeemStatus is the outcome of presenting a token for redemption.
type RedeemStatus string

const (
	RedeemStatusRedeemed       RedeemStatus = "redeemed"
	RedeemStatusInvalidToken   RedeemStatus = "invalid_token"
	RedeemStatusWrongHackathon RedeemStatus = "wrong_hackathon"
	RedeemStatusAlreadyUsed    RedeemStatus = "already_used"
)

// RedeemResult reports the outcome of a redemption attempt. Reason carries
// the specific verification failure (ErrMalformedToken, ErrInvalidSignature,
// ErrTokenExpired) when Status is invalid_token.
type RedeemResult struct {
	Status RedeemStatus `json:"status"`
	Email  string       `json:"email,omitempty"`
	Reason error        `json:"-"`
}

// InvitationService drives the invitation token lifecycle: issuance,
// batch reconciliation, and single-use redemption.
type InvitationService interface {
	// IssueInvite mints, persists and delivers an invitation token for one
	// email. Only the hackathon creator may invite.
	IssueInvite(ctx context.Context, hackathonID, callerID, email string) (*IssueResult, error)
	// IssueConfirmationCode mints a token carrying a fresh 6-digit code and
	// emails the code. The email must already be on the invite list.
	IssueConfirmationCode(ctx context.Context, hackathonID, email string) (*IssueResult, error)
	// RunBatchInvite issues invitations for each email in order.
	RunBatchInvite(ctx context.Context, hackathonID, callerID string, emails []string) (*BatchOutcome, error)
	// RunBatchInviteCSV reads candidate emails from the first column of a
	// CSV upload (a leading byte-order mark is stripped).
	RunBatchInviteCSV(ctx context.Context, hackathonID, callerID string, src io.Reader) (*BatchOutcome, error)
	// RunBatchInviteLines reads one candidate email per line.
	RunBatchInviteLines(ctx context.Context, hackathonID, callerID string, src io.Reader) (*BatchOutcome, error)
	// RedeemToken verifies and consumes a token, adding the redeeming user
	// to the hackathon's participants on success.
	RedeemToken(ctx context.Context, hackathonID, opaqueValue, userID string) (*RedeemResult, error)
	// RedeemConfirmationCode consumes the most recent active token carrying
	// the email + code pair. A non-matching code consumes nothing.
	RedeemConfirmationCode(ctx context.Context, email, code string) (bool, error)
	// ListInvitedEmails returns the hackathon's invite list for its creator.
	ListInvitedEmails(ctx context.Context, hackathonID, callerID, search string, params PaginationParams) ([]*Recipient, int, error)
}
