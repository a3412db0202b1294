package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hackinvite/internal/adapters/invitetoken"
	"hackinvite/internal/domain"
)

// fakeHackathonRepo is an in-memory HackathonRepository for tests.
type fakeHackathonRepo struct {
	byID         map[string]*domain.Hackathon
	participants map[string][]*domain.User
	nextID       int
}

func newFakeHackathonRepo() *fakeHackathonRepo {
	return &fakeHackathonRepo{
		byID:         make(map[string]*domain.Hackathon),
		participants: make(map[string][]*domain.User),
		nextID:       1,
	}
}

func (f *fakeHackathonRepo) Create(ctx context.Context, h *domain.Hackathon) error {
	h.ID = fmt.Sprintf("hack-%d", f.nextID)
	f.nextID++
	f.byID[h.ID] = h
	return nil
}

func (f *fakeHackathonRepo) GetByID(ctx context.Context, id string) (*domain.Hackathon, error) {
	if h, ok := f.byID[id]; ok {
		return h, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeHackathonRepo) List(ctx context.Context) ([]*domain.Hackathon, error) {
	out := make([]*domain.Hackathon, 0, len(f.byID))
	for _, h := range f.byID {
		out = append(out, h)
	}
	return out, nil
}

func (f *fakeHackathonRepo) ListByMember(ctx context.Context, userID string) ([]*domain.Hackathon, error) {
	var out []*domain.Hackathon
	for _, h := range f.byID {
		if h.CreatorID == userID {
			out = append(out, h)
			continue
		}
		for _, p := range f.participants[h.ID] {
			if p.ID == userID {
				out = append(out, h)
				break
			}
		}
	}
	return out, nil
}

func (f *fakeHackathonRepo) Update(ctx context.Context, id string, name, description *string, minParticipants, maxParticipants *int, coverURL *string) (*domain.Hackathon, error) {
	h, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if name != nil {
		h.Name = *name
	}
	if description != nil {
		h.Description = *description
	}
	if minParticipants != nil {
		h.MinParticipants = *minParticipants
	}
	if maxParticipants != nil {
		h.MaxParticipants = *maxParticipants
	}
	if coverURL != nil {
		h.CoverURL = *coverURL
	}
	return h, nil
}

func (f *fakeHackathonRepo) AddParticipant(ctx context.Context, hackathonID, userID string) error {
	for _, p := range f.participants[hackathonID] {
		if p.ID == userID {
			return nil
		}
	}
	f.participants[hackathonID] = append(f.participants[hackathonID], &domain.User{ID: userID})
	return nil
}

func (f *fakeHackathonRepo) RemoveParticipant(ctx context.Context, hackathonID, userID string) error {
	list := f.participants[hackathonID]
	for i, p := range list {
		if p.ID == userID {
			f.participants[hackathonID] = append(list[:i], list[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (f *fakeHackathonRepo) ListParticipants(ctx context.Context, hackathonID string) ([]*domain.User, error) {
	return f.participants[hackathonID], nil
}

func (f *fakeHackathonRepo) IsParticipant(ctx context.Context, hackathonID, userID string) (bool, error) {
	for _, p := range f.participants[hackathonID] {
		if p.ID == userID {
			return true, nil
		}
	}
	return false, nil
}

type storedCredentials struct {
	userID string
	hash   string
	salt   string
}

// fakeUserRepo is an in-memory UserRepository for tests.
type fakeUserRepo struct {
	byID  map[string]*domain.User
	creds map[string]storedCredentials
}

func newFakeUserRepo(users ...*domain.User) *fakeUserRepo {
	f := &fakeUserRepo{
		byID:  make(map[string]*domain.User),
		creds: make(map[string]storedCredentials),
	}
	for _, u := range users {
		f.byID[u.ID] = u
	}
	return f
}

func (f *fakeUserRepo) Create(ctx context.Context, u *domain.User, passwordHash, salt string) error {
	if _, err := f.GetByEmail(ctx, u.Email); err == nil {
		return domain.ErrDuplicateEmail
	}
	u.ID = fmt.Sprintf("user-%d", len(f.byID)+1)
	f.byID[u.ID] = u
	f.creds[u.Email] = storedCredentials{userID: u.ID, hash: passwordHash, salt: salt}
	return nil
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	for _, u := range f.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if u, ok := f.byID[id]; ok {
		return u, nil
	}
	return nil, domain.ErrUserNotFound
}

func (f *fakeUserRepo) GetCredentials(ctx context.Context, email string) (string, string, string, error) {
	if c, ok := f.creds[email]; ok {
		return c.userID, c.hash, c.salt, nil
	}
	return "", "", "", domain.ErrUserNotFound
}

// fakeRecipientRepo is an in-memory RecipientRegistry for tests.
type fakeRecipientRepo struct {
	byEmail        map[string]*domain.Recipient
	links          map[string]map[string]bool // hackathonID -> recipientID
	nextID         int
	getOrCreateErr error
}

func newFakeRecipientRepo() *fakeRecipientRepo {
	return &fakeRecipientRepo{
		byEmail: make(map[string]*domain.Recipient),
		links:   make(map[string]map[string]bool),
		nextID:  1,
	}
}

func (f *fakeRecipientRepo) GetOrCreate(ctx context.Context, email string) (*domain.Recipient, error) {
	if f.getOrCreateErr != nil {
		return nil, f.getOrCreateErr
	}
	if rec, ok := f.byEmail[email]; ok {
		return rec, nil
	}
	rec := &domain.Recipient{ID: fmt.Sprintf("rec-%d", f.nextID), Email: email, CreatedAt: time.Now()}
	f.nextID++
	f.byEmail[email] = rec
	return rec, nil
}

func (f *fakeRecipientRepo) LinkToHackathon(ctx context.Context, hackathonID, recipientID string) error {
	if f.links[hackathonID] == nil {
		f.links[hackathonID] = make(map[string]bool)
	}
	f.links[hackathonID][recipientID] = true
	return nil
}

func (f *fakeRecipientRepo) ListByHackathonID(ctx context.Context, hackathonID, search string, params domain.PaginationParams) ([]*domain.Recipient, int, error) {
	var out []*domain.Recipient
	for _, rec := range f.byEmail {
		if f.links[hackathonID][rec.ID] && (search == "" || strings.Contains(rec.Email, search)) {
			out = append(out, rec)
		}
	}
	return out, len(out), nil
}

func (f *fakeRecipientRepo) IsLinked(ctx context.Context, hackathonID, email string) (bool, error) {
	rec, ok := f.byEmail[email]
	if !ok {
		return false, nil
	}
	return f.links[hackathonID][rec.ID], nil
}

// fakeTokenRepo is an in-memory InviteTokenRepository. TryInvalidate uses a
// mutex-guarded compare-and-set so concurrency tests exercise the same
// atomicity contract the postgres implementation provides.
type fakeTokenRepo struct {
	mu        sync.Mutex
	byValue   map[string]*domain.InviteToken
	order     []string
	nextID    int
	createErr error
}

func newFakeTokenRepo() *fakeTokenRepo {
	return &fakeTokenRepo{byValue: make(map[string]*domain.InviteToken), nextID: 1}
}

func (f *fakeTokenRepo) Create(ctx context.Context, t *domain.InviteToken) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	if _, ok := f.byValue[t.OpaqueValue]; ok {
		return domain.ErrDuplicateToken
	}
	t.ID = fmt.Sprintf("tok-%d", f.nextID)
	f.nextID++
	f.byValue[t.OpaqueValue] = t
	f.order = append(f.order, t.OpaqueValue)
	return nil
}

func (f *fakeTokenRepo) GetByValue(ctx context.Context, opaqueValue string) (*domain.InviteToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t, ok := f.byValue[opaqueValue]; ok {
		return t, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeTokenRepo) TryInvalidate(ctx context.Context, opaqueValue string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.byValue[opaqueValue]
	if !ok || !t.Active {
		return false, nil
	}
	t.Active = false
	return true, nil
}

func (f *fakeTokenRepo) FindActiveByEmailAndCode(ctx context.Context, email, code string) (*domain.InviteToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	// Most recent first.
	for i := len(f.order) - 1; i >= 0; i-- {
		t := f.byValue[f.order[i]]
		if t.Active && t.Email == email && t.ConfirmationCode != "" && t.ConfirmationCode == code {
			return t, nil
		}
	}
	return nil, domain.ErrNotFound
}

// fakeEmailService records sends and can fail or hang delivery for chosen
// emails. A hung delivery blocks until the caller's context expires.
type fakeEmailService struct {
	invitations []*domain.InvitationEmailData
	codes       []*domain.ConfirmationCodeEmailData
	failFor     map[string]bool
	hangFor     map[string]bool
}

func newFakeEmailService() *fakeEmailService {
	return &fakeEmailService{failFor: make(map[string]bool), hangFor: make(map[string]bool)}
}

func (f *fakeEmailService) SendInvitation(ctx context.Context, data *domain.InvitationEmailData) error {
	if f.hangFor[data.Email] {
		<-ctx.Done()
		return ctx.Err()
	}
	if f.failFor[data.Email] {
		return fmt.Errorf("smtp unavailable")
	}
	f.invitations = append(f.invitations, data)
	return nil
}

func (f *fakeEmailService) SendConfirmationCode(ctx context.Context, data *domain.ConfirmationCodeEmailData) error {
	if f.hangFor[data.Email] {
		<-ctx.Done()
		return ctx.Err()
	}
	if f.failFor[data.Email] {
		return fmt.Errorf("smtp unavailable")
	}
	f.codes = append(f.codes, data)
	return nil
}

type invitationFixture struct {
	svc        domain.InvitationService
	hacks      *fakeHackathonRepo
	users      *fakeUserRepo
	recipients *fakeRecipientRepo
	tokens     *fakeTokenRepo
	emails     *fakeEmailService
	codec      domain.InviteTokenCodec
	hackathon  *domain.Hackathon
	creator    *domain.User
}

func newInvitationFixture(t *testing.T) *invitationFixture {
	t.Helper()
	hacks := newFakeHackathonRepo()
	creator := &domain.User{ID: "user-creator", Email: "creator@x.com", IsOrganizer: true}
	users := newFakeUserRepo(creator)
	recipients := newFakeRecipientRepo()
	tokens := newFakeTokenRepo()
	emails := newFakeEmailService()
	codec := invitetoken.NewCodec("test-secret", 0)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	h := &domain.Hackathon{CreatorID: creator.ID, Name: "SpringHack"}
	require.NoError(t, hacks.Create(context.Background(), h))

	svc := NewInvitationService(hacks, users, recipients, tokens, codec, emails, logger,
		"http://localhost:3000/join-hackathon", time.Second, 5*time.Second)
	return &invitationFixture{
		svc: svc, hacks: hacks, users: users, recipients: recipients,
		tokens: tokens, emails: emails, codec: codec, hackathon: h, creator: creator,
	}
}

func TestInvitationService_IssueInvite(t *testing.T) {
	fx := newInvitationFixture(t)
	ctx := context.Background()

	res, err := fx.svc.IssueInvite(ctx, fx.hackathon.ID, fx.creator.ID, "Alice@X.com ")
	require.NoError(t, err)
	assert.Equal(t, domain.IssueStatusIssued, res.Status)
	assert.Equal(t, "alice@x.com", res.Email)

	// Recipient created and linked under the normalized email.
	rec, ok := fx.recipients.byEmail["alice@x.com"]
	require.True(t, ok)
	assert.True(t, fx.recipients.links[fx.hackathon.ID][rec.ID])

	// Token persisted active, and the emailed join link carries it.
	require.Len(t, fx.tokens.order, 1)
	token := fx.tokens.byValue[fx.tokens.order[0]]
	assert.True(t, token.Active)
	assert.Equal(t, "alice@x.com", token.Email)

	require.Len(t, fx.emails.invitations, 1)
	sent := fx.emails.invitations[0]
	assert.Equal(t, "SpringHack", sent.HackathonName)
	assert.Contains(t, sent.JoinLink, "hackathon_id="+fx.hackathon.ID)

	// The minted value round-trips through the codec.
	claims, err := fx.codec.Decode(token.OpaqueValue)
	require.NoError(t, err)
	assert.Equal(t, fx.hackathon.ID, claims.HackathonID)
	assert.Equal(t, "alice@x.com", claims.Email)
}

func TestInvitationService_IssueInvite_SelfInvite(t *testing.T) {
	fx := newInvitationFixture(t)

	res, err := fx.svc.IssueInvite(context.Background(), fx.hackathon.ID, fx.creator.ID, " CREATOR@x.com")
	require.NoError(t, err)
	assert.Equal(t, domain.IssueStatusSkippedSelfInvite, res.Status)
	assert.Empty(t, fx.tokens.order, "no token may be minted for a self-invite")
	assert.Empty(t, fx.emails.invitations)
}

func TestInvitationService_IssueInvite_NotCreator(t *testing.T) {
	fx := newInvitationFixture(t)

	_, err := fx.svc.IssueInvite(context.Background(), fx.hackathon.ID, "user-other", "alice@x.com")
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestInvitationService_IssueInvite_HackathonNotFound(t *testing.T) {
	fx := newInvitationFixture(t)

	_, err := fx.svc.IssueInvite(context.Background(), "missing", fx.creator.ID, "alice@x.com")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestInvitationService_IssueInvite_PersistFailed(t *testing.T) {
	fx := newInvitationFixture(t)
	fx.tokens.createErr = fmt.Errorf("db down")

	res, err := fx.svc.IssueInvite(context.Background(), fx.hackathon.ID, fx.creator.ID, "alice@x.com")
	require.NoError(t, err)
	assert.Equal(t, domain.IssueStatusPersistFailed, res.Status)
	assert.Empty(t, fx.emails.invitations, "no delivery may be attempted after a persistence failure")
}

func TestInvitationService_IssueInvite_RegistryFailed(t *testing.T) {
	fx := newInvitationFixture(t)
	fx.recipients.getOrCreateErr = fmt.Errorf("db down")

	res, err := fx.svc.IssueInvite(context.Background(), fx.hackathon.ID, fx.creator.ID, "alice@x.com")
	require.NoError(t, err)
	assert.Equal(t, domain.IssueStatusPersistFailed, res.Status)
	assert.Empty(t, fx.tokens.order)
	assert.Empty(t, fx.emails.invitations)
}

func TestInvitationService_IssueInvite_DeliveryFailed(t *testing.T) {
	fx := newInvitationFixture(t)
	fx.emails.failFor["bob@x.com"] = true

	res, err := fx.svc.IssueInvite(context.Background(), fx.hackathon.ID, fx.creator.ID, "bob@x.com")
	require.NoError(t, err)
	assert.Equal(t, domain.IssueStatusDeliveryFailed, res.Status)

	// Fail open: the token was persisted before delivery and stays valid.
	require.Len(t, fx.tokens.order, 1)
	token := fx.tokens.byValue[fx.tokens.order[0]]
	assert.True(t, token.Active)
	claims, err := fx.codec.Decode(token.OpaqueValue)
	require.NoError(t, err)
	assert.Equal(t, "bob@x.com", claims.Email)
}

func TestInvitationService_IssueInvite_NotifierTimeout(t *testing.T) {
	fx := newInvitationFixture(t)
	fx.emails.hangFor["slow@x.com"] = true

	// A hung notifier must not stall issuance past the notifier timeout.
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewInvitationService(fx.hacks, fx.users, fx.recipients, fx.tokens, fx.codec,
		fx.emails, logger, "http://localhost:3000/join-hackathon", 20*time.Millisecond, 5*time.Second)

	start := time.Now()
	res, err := svc.IssueInvite(context.Background(), fx.hackathon.ID, fx.creator.ID, "slow@x.com")
	require.NoError(t, err)
	assert.Equal(t, domain.IssueStatusDeliveryFailed, res.Status)
	assert.Less(t, time.Since(start), time.Second)

	// The token was persisted before delivery and survives the timeout.
	require.Len(t, fx.tokens.order, 1)
	assert.True(t, fx.tokens.byValue[fx.tokens.order[0]].Active)
}

func TestInvitationService_RunBatchInvite_PartialFailure(t *testing.T) {
	fx := newInvitationFixture(t)
	fx.emails.failFor["c@x.com"] = true
	emails := []string{"a@x.com", "b@x.com", "c@x.com", "d@x.com", "e@x.com"}

	outcome, err := fx.svc.RunBatchInvite(context.Background(), fx.hackathon.ID, fx.creator.ID, emails)
	require.NoError(t, err)
	require.Len(t, outcome.Items, 5)
	assert.NotEmpty(t, outcome.BatchID)

	want := []domain.IssueStatus{
		domain.IssueStatusIssued,
		domain.IssueStatusIssued,
		domain.IssueStatusDeliveryFailed,
		domain.IssueStatusIssued,
		domain.IssueStatusIssued,
	}
	for i, item := range outcome.Items {
		assert.Equal(t, emails[i], item.Email)
		assert.Equal(t, want[i], item.Status, "item %d", i)
	}
	assert.Equal(t, 4, outcome.Issued)
	assert.Equal(t, 0, outcome.Skipped)
	assert.Equal(t, 1, outcome.Failed)

	// The failed item's token is still intact and decodable.
	require.Len(t, fx.tokens.order, 5)
	failedToken := fx.tokens.byValue[fx.tokens.order[2]]
	assert.Equal(t, "c@x.com", failedToken.Email)
	assert.True(t, failedToken.Active)
	claims, err := fx.codec.Decode(failedToken.OpaqueValue)
	require.NoError(t, err)
	assert.Equal(t, "c@x.com", claims.Email)
}

func TestInvitationService_RunBatchInvite_SkipRules(t *testing.T) {
	fx := newInvitationFixture(t)
	member := &domain.User{ID: "user-member", Email: "member@x.com"}
	fx.users.byID[member.ID] = member
	fx.hacks.participants[fx.hackathon.ID] = []*domain.User{member}

	outcome, err := fx.svc.RunBatchInvite(context.Background(), fx.hackathon.ID, fx.creator.ID,
		[]string{"creator@x.com", "Member@X.com", "new@x.com"})
	require.NoError(t, err)
	require.Len(t, outcome.Items, 3)
	assert.Equal(t, domain.IssueStatusSkippedExistingMember, outcome.Items[0].Status)
	assert.Equal(t, domain.IssueStatusSkippedExistingMember, outcome.Items[1].Status)
	assert.Equal(t, domain.IssueStatusIssued, outcome.Items[2].Status)
	assert.Equal(t, 1, outcome.Issued)
	assert.Equal(t, 2, outcome.Skipped)
}

func TestInvitationService_RunBatchInvite_SequenceClaims(t *testing.T) {
	fx := newInvitationFixture(t)

	outcome, err := fx.svc.RunBatchInvite(context.Background(), fx.hackathon.ID, fx.creator.ID,
		[]string{"a@x.com", "b@x.com"})
	require.NoError(t, err)
	require.Equal(t, 2, outcome.Issued)

	for i, value := range fx.tokens.order {
		claims, err := fx.codec.Decode(value)
		require.NoError(t, err)
		require.NotNil(t, claims.Sequence)
		assert.Equal(t, i, *claims.Sequence)
	}
}

func TestInvitationService_RegistryDeduplicates(t *testing.T) {
	fx := newInvitationFixture(t)
	ctx := context.Background()

	_, err := fx.svc.IssueInvite(ctx, fx.hackathon.ID, fx.creator.ID, "A@x.com")
	require.NoError(t, err)
	_, err = fx.svc.IssueInvite(ctx, fx.hackathon.ID, fx.creator.ID, "a@x.com ")
	require.NoError(t, err)

	assert.Len(t, fx.recipients.byEmail, 1, "case/whitespace variants resolve to one recipient")
}

func TestInvitationService_RunBatchInviteCSV(t *testing.T) {
	fx := newInvitationFixture(t)
	src := strings.NewReader("\xEF\xBB\xBFalice@x.com\n bob@x.com \n\"\"\n")

	outcome, err := fx.svc.RunBatchInviteCSV(context.Background(), fx.hackathon.ID, fx.creator.ID, src)
	require.NoError(t, err)
	require.Len(t, outcome.Items, 2)
	assert.Equal(t, "alice@x.com", outcome.Items[0].Email)
	assert.Equal(t, "bob@x.com", outcome.Items[1].Email)
	assert.Equal(t, 2, outcome.Issued)

	_, aliceOK := fx.recipients.byEmail["alice@x.com"]
	_, bobOK := fx.recipients.byEmail["bob@x.com"]
	_, emptyOK := fx.recipients.byEmail[""]
	assert.True(t, aliceOK)
	assert.True(t, bobOK)
	assert.False(t, emptyOK, "no recipient may be created for an empty row")
}

func TestInvitationService_RunBatchInviteCSV_EmptyFile(t *testing.T) {
	fx := newInvitationFixture(t)

	_, err := fx.svc.RunBatchInviteCSV(context.Background(), fx.hackathon.ID, fx.creator.ID, strings.NewReader(""))
	assert.ErrorIs(t, err, domain.ErrBatchSourceUnreadable)
	assert.Empty(t, fx.tokens.order)
}

func TestInvitationService_RunBatchInviteLines(t *testing.T) {
	fx := newInvitationFixture(t)
	src := strings.NewReader("alice@x.com\ncreator@x.com\nbob@x.com\n")

	outcome, err := fx.svc.RunBatchInviteLines(context.Background(), fx.hackathon.ID, fx.creator.ID, src)
	require.NoError(t, err)
	require.Len(t, outcome.Items, 3)
	assert.Equal(t, domain.IssueStatusIssued, outcome.Items[0].Status)
	assert.Equal(t, domain.IssueStatusSkippedExistingMember, outcome.Items[1].Status)
	assert.Equal(t, domain.IssueStatusIssued, outcome.Items[2].Status)
}

func TestInvitationService_RedeemToken(t *testing.T) {
	fx := newInvitationFixture(t)
	ctx := context.Background()

	res, err := fx.svc.IssueInvite(ctx, fx.hackathon.ID, fx.creator.ID, "alice@x.com")
	require.NoError(t, err)
	require.Equal(t, domain.IssueStatusIssued, res.Status)
	opaque := fx.tokens.order[0]

	redeemed, err := fx.svc.RedeemToken(ctx, fx.hackathon.ID, opaque, "user-alice")
	require.NoError(t, err)
	assert.Equal(t, domain.RedeemStatusRedeemed, redeemed.Status)
	assert.Equal(t, "alice@x.com", redeemed.Email)

	isPart, err := fx.hacks.IsParticipant(ctx, fx.hackathon.ID, "user-alice")
	require.NoError(t, err)
	assert.True(t, isPart)

	// Replays observe already_used and add nothing.
	again, err := fx.svc.RedeemToken(ctx, fx.hackathon.ID, opaque, "user-mallory")
	require.NoError(t, err)
	assert.Equal(t, domain.RedeemStatusAlreadyUsed, again.Status)
	isPart, err = fx.hacks.IsParticipant(ctx, fx.hackathon.ID, "user-mallory")
	require.NoError(t, err)
	assert.False(t, isPart)
}

func TestInvitationService_RedeemToken_WrongHackathon(t *testing.T) {
	fx := newInvitationFixture(t)
	ctx := context.Background()

	_, err := fx.svc.IssueInvite(ctx, fx.hackathon.ID, fx.creator.ID, "alice@x.com")
	require.NoError(t, err)
	opaque := fx.tokens.order[0]

	res, err := fx.svc.RedeemToken(ctx, "hack-other", opaque, "user-alice")
	require.NoError(t, err)
	assert.Equal(t, domain.RedeemStatusWrongHackathon, res.Status)

	// The mismatch must not consume the token.
	assert.True(t, fx.tokens.byValue[opaque].Active)
}

func TestInvitationService_RedeemToken_Invalid(t *testing.T) {
	fx := newInvitationFixture(t)

	res, err := fx.svc.RedeemToken(context.Background(), fx.hackathon.ID, "garbage-token", "user-alice")
	require.NoError(t, err)
	assert.Equal(t, domain.RedeemStatusInvalidToken, res.Status)
	assert.ErrorIs(t, res.Reason, domain.ErrMalformedToken)
}

func TestInvitationService_RedeemToken_ForgedSignature(t *testing.T) {
	fx := newInvitationFixture(t)
	forged, err := invitetoken.NewCodec("attacker-secret", 0).Encode(&domain.InviteClaims{
		HackathonID: fx.hackathon.ID,
		Email:       "mallory@x.com",
	})
	require.NoError(t, err)

	res, err := fx.svc.RedeemToken(context.Background(), fx.hackathon.ID, forged, "user-mallory")
	require.NoError(t, err)
	assert.Equal(t, domain.RedeemStatusInvalidToken, res.Status)
	assert.ErrorIs(t, res.Reason, domain.ErrInvalidSignature)
}

func TestInvitationService_RedeemToken_Concurrent(t *testing.T) {
	fx := newInvitationFixture(t)
	ctx := context.Background()

	_, err := fx.svc.IssueInvite(ctx, fx.hackathon.ID, fx.creator.ID, "alice@x.com")
	require.NoError(t, err)
	opaque := fx.tokens.order[0]

	const attempts = 16
	results := make([]domain.RedeemStatus, attempts)
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := fx.svc.RedeemToken(ctx, fx.hackathon.ID, opaque, fmt.Sprintf("user-%d", i))
			if err != nil {
				errs[i] = err
				return
			}
			results[i] = res.Status
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}

	redeemed, used := 0, 0
	for _, status := range results {
		switch status {
		case domain.RedeemStatusRedeemed:
			redeemed++
		case domain.RedeemStatusAlreadyUsed:
			used++
		}
	}
	assert.Equal(t, 1, redeemed, "exactly one concurrent attempt may win")
	assert.Equal(t, attempts-1, used)
}

func TestInvitationService_IssueConfirmationCode(t *testing.T) {
	fx := newInvitationFixture(t)
	ctx := context.Background()

	// The email must already be on the invite list.
	_, err := fx.svc.IssueConfirmationCode(ctx, fx.hackathon.ID, "alice@x.com")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = fx.svc.IssueInvite(ctx, fx.hackathon.ID, fx.creator.ID, "alice@x.com")
	require.NoError(t, err)

	res, err := fx.svc.IssueConfirmationCode(ctx, fx.hackathon.ID, "alice@x.com")
	require.NoError(t, err)
	assert.Equal(t, domain.IssueStatusIssued, res.Status)

	require.Len(t, fx.emails.codes, 1)
	code := fx.emails.codes[0].Code
	assert.Regexp(t, regexp.MustCompile(`^[1-9]\d{5}$`), code)

	// The stored token carries the same code inside its claims.
	token := fx.tokens.byValue[fx.tokens.order[1]]
	assert.Equal(t, code, token.ConfirmationCode)
	claims, err := fx.codec.Decode(token.OpaqueValue)
	require.NoError(t, err)
	assert.Equal(t, code, claims.ConfirmationCode)
}

func TestInvitationService_RedeemConfirmationCode(t *testing.T) {
	fx := newInvitationFixture(t)
	ctx := context.Background()

	_, err := fx.svc.IssueInvite(ctx, fx.hackathon.ID, fx.creator.ID, "alice@x.com")
	require.NoError(t, err)
	_, err = fx.svc.IssueConfirmationCode(ctx, fx.hackathon.ID, "alice@x.com")
	require.NoError(t, err)
	code := fx.emails.codes[0].Code
	codeToken := fx.tokens.order[1]

	// A non-matching code consumes nothing.
	ok, err := fx.svc.RedeemConfirmationCode(ctx, "alice@x.com", "000000")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.True(t, fx.tokens.byValue[codeToken].Active, "a wrong guess must not burn the token")

	ok, err = fx.svc.RedeemConfirmationCode(ctx, "Alice@X.com", code)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.False(t, fx.tokens.byValue[codeToken].Active)

	// Second use fails: the code is single-use.
	ok, err = fx.svc.RedeemConfirmationCode(ctx, "alice@x.com", code)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestInvitationService_ListInvitedEmails(t *testing.T) {
	fx := newInvitationFixture(t)
	ctx := context.Background()

	_, err := fx.svc.RunBatchInvite(ctx, fx.hackathon.ID, fx.creator.ID, []string{"a@x.com", "b@x.com"})
	require.NoError(t, err)

	recs, total, err := fx.svc.ListInvitedEmails(ctx, fx.hackathon.ID, fx.creator.ID, "", domain.PaginationParams{Page: 1, PageSize: 20})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, recs, 2)

	_, _, err = fx.svc.ListInvitedEmails(ctx, fx.hackathon.ID, "user-other", "", domain.PaginationParams{Page: 1, PageSize: 20})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}
