package services

import (
	"bufio"
	"bytes"
	"context"
	"crypto/rand"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"hackinvite/internal/domain"
)

type invitationService struct {
	hackathonRepo   domain.HackathonRepository
	userRepo        domain.UserRepository
	recipientRepo   domain.RecipientRepository
	tokenRepo       domain.InviteTokenRepository
	codec           domain.InviteTokenCodec
	emailService    domain.EmailService
	logger          *slog.Logger
	joinLinkBase    string
	notifierTimeout time.Duration
	contextTimeout  time.Duration
}

// NewInvitationService wires the invitation token lifecycle: issuance,
// batch reconciliation, and single-use redemption.
func NewInvitationService(
	hackathonRepo domain.HackathonRepository,
	userRepo domain.UserRepository,
	recipientRepo domain.RecipientRepository,
	tokenRepo domain.InviteTokenRepository,
	codec domain.InviteTokenCodec,
	emailService domain.EmailService,
	logger *slog.Logger,
	joinLinkBase string,
	notifierTimeout time.Duration,
	timeout time.Duration,
) domain.InvitationService {
	return &invitationService{
		hackathonRepo:   hackathonRepo,
		userRepo:        userRepo,
		recipientRepo:   recipientRepo,
		tokenRepo:       tokenRepo,
		codec:           codec,
		emailService:    emailService,
		logger:          logger,
		joinLinkBase:    joinLinkBase,
		notifierTimeout: notifierTimeout,
		contextTimeout:  timeout,
	}
}

type issuePurpose int

const (
	purposeInvite issuePurpose = iota
	purposeConfirmationCode
)

// issueOne runs the per-recipient issuance contract: self-invite check,
// registry get-or-create + link, mint, persist, then best-effort delivery.
// Persistence failure aborts before delivery (fail closed); delivery failure
// leaves the persisted token valid (fail open) so a resend can reuse it.
func (s *invitationService) issueOne(ctx context.Context, h *domain.Hackathon, creatorEmail, email string, seq *int, purpose issuePurpose) *domain.IssueResult {
	normalized := domain.NormalizeEmail(email)
	res := &domain.IssueResult{Email: normalized}

	if normalized == creatorEmail {
		res.Status = domain.IssueStatusSkippedSelfInvite
		return res
	}

	rec, err := s.recipientRepo.GetOrCreate(ctx, normalized)
	if err != nil {
		s.logger.Error("recipient get-or-create failed", "hackathon_id", h.ID, "email", normalized, "err", err)
		res.Status = domain.IssueStatusPersistFailed
		return res
	}
	if err := s.recipientRepo.LinkToHackathon(ctx, h.ID, rec.ID); err != nil {
		s.logger.Error("recipient link failed", "hackathon_id", h.ID, "email", normalized, "err", err)
		res.Status = domain.IssueStatusPersistFailed
		return res
	}

	claims := &domain.InviteClaims{
		HackathonID: h.ID,
		Email:       normalized,
		IssuedAt:    time.Now().UTC(),
		Sequence:    seq,
	}
	var code string
	if purpose == purposeConfirmationCode {
		code, err = generateConfirmationCode()
		if err != nil {
			s.logger.Error("confirmation code generation failed", "err", err)
			res.Status = domain.IssueStatusPersistFailed
			return res
		}
		claims.ConfirmationCode = code
	}

	opaque, err := s.codec.Encode(claims)
	if err != nil {
		s.logger.Error("invite token encode failed", "hackathon_id", h.ID, "email", normalized, "err", err)
		res.Status = domain.IssueStatusPersistFailed
		return res
	}
	token := &domain.InviteToken{
		OpaqueValue:      opaque,
		HackathonID:      h.ID,
		Email:            normalized,
		ConfirmationCode: code,
		IssuedAt:         claims.IssuedAt,
		Active:           true,
	}
	if err := s.tokenRepo.Create(ctx, token); err != nil {
		s.logger.Error("invite token persist failed", "hackathon_id", h.ID, "email", normalized, "err", err)
		res.Status = domain.IssueStatusPersistFailed
		return res
	}

	sendCtx, cancel := context.WithTimeout(ctx, s.notifierTimeout)
	defer cancel()
	if purpose == purposeConfirmationCode {
		err = s.emailService.SendConfirmationCode(sendCtx, &domain.ConfirmationCodeEmailData{
			Email: normalized,
			Code:  code,
		})
	} else {
		err = s.emailService.SendInvitation(sendCtx, &domain.InvitationEmailData{
			Email:         normalized,
			HackathonName: h.Name,
			JoinLink:      s.joinLink(h.ID, opaque),
		})
	}
	if err != nil {
		// The token stays valid; a resend can deliver it later.
		s.logger.Warn("invite delivery failed", "hackathon_id", h.ID, "email", normalized, "err", err)
		res.Status = domain.IssueStatusDeliveryFailed
		return res
	}

	res.Status = domain.IssueStatusIssued
	return res
}

func (s *invitationService) joinLink(hackathonID, opaque string) string {
	return fmt.Sprintf("%s?hackathon_id=%s&token=%s",
		s.joinLinkBase, url.QueryEscape(hackathonID), url.QueryEscape(opaque))
}

func generateConfirmationCode() (string, error) {
	// Uniform over [100000, 999999].
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

func (s *invitationService) IssueInvite(ctx context.Context, hackathonID, callerID, email string) (*domain.IssueResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if domain.NormalizeEmail(email) == "" {
		return nil, domain.ErrInvalidInput
	}
	h, creatorEmail, err := s.hackathonForCreator(ctx, hackathonID, callerID)
	if err != nil {
		return nil, err
	}
	return s.issueOne(ctx, h, creatorEmail, email, nil, purposeInvite), nil
}

func (s *invitationService) IssueConfirmationCode(ctx context.Context, hackathonID, email string) (*domain.IssueResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	normalized := domain.NormalizeEmail(email)
	if normalized == "" {
		return nil, domain.ErrInvalidInput
	}
	h, err := s.hackathonRepo.GetByID(ctx, hackathonID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get hackathon: %w", err)
	}
	linked, err := s.recipientRepo.IsLinked(ctx, h.ID, normalized)
	if err != nil {
		return nil, fmt.Errorf("check invite list: %w", err)
	}
	if !linked {
		return nil, domain.ErrNotFound
	}
	creatorEmail, err := s.creatorEmail(ctx, h)
	if err != nil {
		return nil, err
	}
	return s.issueOne(ctx, h, creatorEmail, normalized, nil, purposeConfirmationCode), nil
}

func (s *invitationService) RunBatchInvite(ctx context.Context, hackathonID, callerID string, emails []string) (*domain.BatchOutcome, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	h, creatorEmail, err := s.hackathonForCreator(ctx, hackathonID, callerID)
	if err != nil {
		return nil, err
	}

	participants, err := s.hackathonRepo.ListParticipants(ctx, h.ID)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	memberEmails := make(map[string]struct{}, len(participants)+1)
	memberEmails[creatorEmail] = struct{}{}
	for _, p := range participants {
		memberEmails[domain.NormalizeEmail(p.Email)] = struct{}{}
	}

	outcome := &domain.BatchOutcome{BatchID: uuid.NewString()}
	seq := 0
	for _, raw := range emails {
		normalized := domain.NormalizeEmail(raw)
		if normalized == "" {
			continue
		}
		if _, ok := memberEmails[normalized]; ok {
			outcome.Add(domain.IssueResult{Email: normalized, Status: domain.IssueStatusSkippedExistingMember})
			continue
		}
		n := seq
		outcome.Add(*s.issueOne(ctx, h, creatorEmail, normalized, &n, purposeInvite))
		seq++
	}
	return outcome, nil
}

func (s *invitationService) RunBatchInviteCSV(ctx context.Context, hackathonID, callerID string, src io.Reader) (*domain.BatchOutcome, error) {
	emails, err := readCSVEmails(src)
	if err != nil {
		return nil, err
	}
	return s.RunBatchInvite(ctx, hackathonID, callerID, emails)
}

func (s *invitationService) RunBatchInviteLines(ctx context.Context, hackathonID, callerID string, src io.Reader) (*domain.BatchOutcome, error) {
	emails, err := readLineEmails(src)
	if err != nil {
		return nil, err
	}
	return s.RunBatchInvite(ctx, hackathonID, callerID, emails)
}

// utf8BOM is stripped from the start of uploaded files; spreadsheet exports
// commonly prepend it.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

func stripBOM(src io.Reader) *bufio.Reader {
	br := bufio.NewReader(src)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}
	return br
}

// readCSVEmails returns the trimmed first column of every CSV row.
// An unreadable or empty source fails the whole batch.
func readCSVEmails(src io.Reader) ([]string, error) {
	reader := csv.NewReader(stripBOM(src))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var emails []string
	sawRow := false
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrBatchSourceUnreadable, err)
		}
		sawRow = true
		if len(record) == 0 {
			continue
		}
		emails = append(emails, strings.TrimSpace(record[0]))
	}
	if !sawRow {
		return nil, fmt.Errorf("%w: empty file", domain.ErrBatchSourceUnreadable)
	}
	return emails, nil
}

// readLineEmails treats every line of the source as one candidate email.
func readLineEmails(src io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(stripBOM(src))
	var emails []string
	sawLine := false
	for scanner.Scan() {
		sawLine = true
		emails = append(emails, strings.TrimSpace(scanner.Text()))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrBatchSourceUnreadable, err)
	}
	if !sawLine {
		return nil, fmt.Errorf("%w: empty file", domain.ErrBatchSourceUnreadable)
	}
	return emails, nil
}

func (s *invitationService) RedeemToken(ctx context.Context, hackathonID, opaqueValue, userID string) (*domain.RedeemResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	claims, err := s.codec.Decode(opaqueValue)
	if err != nil {
		return &domain.RedeemResult{Status: domain.RedeemStatusInvalidToken, Reason: err}, nil
	}
	if claims.HackathonID != hackathonID {
		return &domain.RedeemResult{Status: domain.RedeemStatusWrongHackathon, Reason: domain.ErrWrongHackathon}, nil
	}

	flipped, err := s.tokenRepo.TryInvalidate(ctx, opaqueValue)
	if err != nil {
		return nil, fmt.Errorf("invalidate token: %w", err)
	}
	if !flipped {
		return &domain.RedeemResult{Status: domain.RedeemStatusAlreadyUsed, Reason: domain.ErrTokenAlreadyUsed}, nil
	}

	if err := s.hackathonRepo.AddParticipant(ctx, hackathonID, userID); err != nil {
		// The token is consumed either way; surface the membership failure.
		return nil, fmt.Errorf("add participant: %w", err)
	}
	return &domain.RedeemResult{Status: domain.RedeemStatusRedeemed, Email: claims.Email}, nil
}

func (s *invitationService) RedeemConfirmationCode(ctx context.Context, email, code string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	normalized := domain.NormalizeEmail(email)
	token, err := s.tokenRepo.FindActiveByEmailAndCode(ctx, normalized, code)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// A non-matching code consumes nothing, so a wrong guess cannot
			// burn a legitimate token.
			return false, nil
		}
		return false, fmt.Errorf("find confirmation token: %w", err)
	}
	flipped, err := s.tokenRepo.TryInvalidate(ctx, token.OpaqueValue)
	if err != nil {
		return false, fmt.Errorf("invalidate token: %w", err)
	}
	return flipped, nil
}

func (s *invitationService) ListInvitedEmails(ctx context.Context, hackathonID, callerID, search string, params domain.PaginationParams) ([]*domain.Recipient, int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	h, err := s.hackathonRepo.GetByID(ctx, hackathonID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, 0, domain.ErrNotFound
		}
		return nil, 0, fmt.Errorf("get hackathon: %w", err)
	}
	if h.CreatorID != callerID {
		return nil, 0, domain.ErrForbidden
	}
	recs, total, err := s.recipientRepo.ListByHackathonID(ctx, hackathonID, search, params)
	if err != nil {
		return nil, 0, fmt.Errorf("list invited emails: %w", err)
	}
	if recs == nil {
		recs = []*domain.Recipient{}
	}
	return recs, total, nil
}

// hackathonForCreator loads the hackathon, enforces that the caller is its
// creator, and resolves the creator's normalized email for skip rules.
func (s *invitationService) hackathonForCreator(ctx context.Context, hackathonID, callerID string) (*domain.Hackathon, string, error) {
	h, err := s.hackathonRepo.GetByID(ctx, hackathonID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, "", domain.ErrNotFound
		}
		return nil, "", fmt.Errorf("get hackathon: %w", err)
	}
	if h.CreatorID != callerID {
		return nil, "", domain.ErrForbidden
	}
	creatorEmail, err := s.creatorEmail(ctx, h)
	if err != nil {
		return nil, "", err
	}
	return h, creatorEmail, nil
}

func (s *invitationService) creatorEmail(ctx context.Context, h *domain.Hackathon) (string, error) {
	creator, err := s.userRepo.GetByID(ctx, h.CreatorID)
	if err != nil {
		return "", fmt.Errorf("get creator: %w", err)
	}
	return domain.NormalizeEmail(creator.Email), nil
}
