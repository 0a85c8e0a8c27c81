package signup

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/early-access-api/internal/domain"
	"github.com/early-access-api/internal/pkg/community"
)

// --- mocks ---

type mockOTP struct{ mock.Mock }

func (m *mockOTP) Issue(ctx context.Context, email, name string) (*domain.EmailOTP, error) {
	args := m.Called(ctx, email, name)
	o, _ := args.Get(0).(*domain.EmailOTP)
	return o, args.Error(1)
}
func (m *mockOTP) Verify(ctx context.Context, email, code string) (*domain.EmailOTP, error) {
	args := m.Called(ctx, email, code)
	o, _ := args.Get(0).(*domain.EmailOTP)
	return o, args.Error(1)
}
func (m *mockOTP) Get(ctx context.Context, email, otpID string) (*domain.EmailOTP, error) {
	args := m.Called(ctx, email, otpID)
	o, _ := args.Get(0).(*domain.EmailOTP)
	return o, args.Error(1)
}

type mockDomains struct{ mock.Mock }

func (m *mockDomains) Check(ctx context.Context, email string) domain.DomainStatus {
	return m.Called(ctx, email).Get(0).(domain.DomainStatus)
}

type mockInvites struct{ mock.Mock }

func (m *mockInvites) AllocatePreferred(ctx context.Context, email, preferred string) (string, error) {
	args := m.Called(ctx, email, preferred)
	return args.String(0), args.Error(1)
}

type mockLeads struct{ mock.Mock }

func (m *mockLeads) Record(ctx context.Context, l *domain.LeadSubmission) error {
	return m.Called(ctx, l).Error(0)
}

type mockSessions struct{ mock.Mock }

func (m *mockSessions) Put(ctx context.Context, s *domain.SignupSession) error {
	return m.Called(ctx, s).Error(0)
}
func (m *mockSessions) Get(ctx context.Context, email string) (*domain.SignupSession, error) {
	args := m.Called(ctx, email)
	s, _ := args.Get(0).(*domain.SignupSession)
	return s, args.Error(1)
}
func (m *mockSessions) Update(ctx context.Context, email string, updates map[string]interface{}) error {
	return m.Called(ctx, email, updates).Error(0)
}
func (m *mockSessions) Claim(ctx context.Context, email, otpID string, now time.Time, lease time.Duration) error {
	return m.Called(ctx, email, otpID, now, lease).Error(0)
}

type mockEvents struct{ mock.Mock }

func (m *mockEvents) Publish(ctx context.Context, eventType string, payload interface{}) error {
	return m.Called(ctx, eventType, payload).Error(0)
}

// --- builder ---

var fixedNow = time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)

type fixture struct {
	otp      *mockOTP
	domains  *mockDomains
	invites  *mockInvites
	leads    *mockLeads
	sessions *mockSessions
	events   *mockEvents
	svc      *service
}

func newFixture(enforce bool) *fixture {
	f := &fixture{
		otp:      &mockOTP{},
		domains:  &mockDomains{},
		invites:  &mockInvites{},
		leads:    &mockLeads{},
		sessions: &mockSessions{},
		events:   &mockEvents{},
	}
	f.svc = &service{
		Deps: Deps{
			OTP:              f.otp,
			Domains:          f.domains,
			Invites:          f.invites,
			Leads:            f.leads,
			Sessions:         f.sessions,
			Events:           f.events,
			Community:        community.NewResolver(nil, ""),
			EnforceAllowlist: enforce,
			SessionTTL:       time.Hour,
		},
		now: func() time.Time { return fixedNow },
	}
	return f
}

func janeVerify() domain.VerifyOTPRequest {
	return domain.VerifyOTPRequest{
		Email:    "jane@approveddomain.com",
		OTP:      "482913",
		Name:     "Jane",
		Location: "Pune, MH",
		Category: domain.CategoryElectronics,
	}
}

func clientMsg(t *testing.T, err error) string {
	t.Helper()
	var ce *domain.ClientError
	require.True(t, errors.As(err, &ce), "expected ClientError, got %v", err)
	return ce.Msg
}

// --- RequestOTP ---

func TestRequestOTP_MissingFields(t *testing.T) {
	f := newFixture(true)
	err := f.svc.RequestOTP(context.Background(), domain.SendOTPRequest{Email: "jane@acme.io"})
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
	assert.Equal(t, "Email and name are required", clientMsg(t, err))
	f.otp.AssertNotCalled(t, "Issue", mock.Anything, mock.Anything, mock.Anything)
}

func TestRequestOTP_MalformedEmail(t *testing.T) {
	f := newFixture(false)
	err := f.svc.RequestOTP(context.Background(), domain.SendOTPRequest{Email: "not-an-email", Name: "Jane"})
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
}

func TestRequestOTP_DomainNotApproved(t *testing.T) {
	f := newFixture(true)
	f.domains.On("Check", mock.Anything, "jane@gmail.com").Return(domain.DomainInvalid)

	err := f.svc.RequestOTP(context.Background(), domain.SendOTPRequest{Email: "Jane@Gmail.com", Name: "Jane"})
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
	assert.Equal(t, "Please use an approved business email", clientMsg(t, err))
	f.otp.AssertNotCalled(t, "Issue", mock.Anything, mock.Anything, mock.Anything)
}

func TestRequestOTP_AllowlistDisabledSkipsCheck(t *testing.T) {
	f := newFixture(false)
	f.otp.On("Issue", mock.Anything, "jane@gmail.com", "Jane").Return(&domain.EmailOTP{OTPID: "01A"}, nil)
	f.sessions.On("Put", mock.Anything, mock.Anything).Return(nil)

	require.NoError(t, f.svc.RequestOTP(context.Background(), domain.SendOTPRequest{Email: "jane@gmail.com", Name: "Jane"}))
	f.domains.AssertNotCalled(t, "Check", mock.Anything, mock.Anything)
}

func TestRequestOTP_OpensPendingSession(t *testing.T) {
	f := newFixture(true)
	f.domains.On("Check", mock.Anything, "jane@approveddomain.com").Return(domain.DomainValid)
	f.otp.On("Issue", mock.Anything, "jane@approveddomain.com", "Jane").Return(&domain.EmailOTP{OTPID: "01OTP"}, nil)
	f.sessions.On("Put", mock.Anything, mock.MatchedBy(func(s *domain.SignupSession) bool {
		return s.State == domain.SignupPending && s.Name == "Jane" && s.OTPID == "01OTP" &&
			s.ExpiresAt == fixedNow.Add(time.Hour).Unix()
	})).Return(nil)

	require.NoError(t, f.svc.RequestOTP(context.Background(), domain.SendOTPRequest{Email: "jane@approveddomain.com", Name: " Jane "}))
	f.sessions.AssertExpectations(t)
}

func TestRequestOTP_SessionFailureIsNotFatal(t *testing.T) {
	f := newFixture(false)
	f.otp.On("Issue", mock.Anything, mock.Anything, mock.Anything).Return(&domain.EmailOTP{OTPID: "01A"}, nil)
	f.sessions.On("Put", mock.Anything, mock.Anything).Return(errors.New("throttled"))

	assert.NoError(t, f.svc.RequestOTP(context.Background(), domain.SendOTPRequest{Email: "jane@acme.io", Name: "Jane"}))
}

func TestRequestOTP_IssueFailureSurfaces(t *testing.T) {
	f := newFixture(false)
	f.otp.On("Issue", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, domain.Failed("Failed to send email", errors.New("resend 500")))

	err := f.svc.RequestOTP(context.Background(), domain.SendOTPRequest{Email: "jane@acme.io", Name: "Jane"})
	assert.Equal(t, "Failed to send email", clientMsg(t, err))
	f.sessions.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
}

// --- VerifyAndRegister ---

func TestVerify_MissingFields(t *testing.T) {
	f := newFixture(true)
	req := janeVerify()
	req.Category = ""
	_, err := f.svc.VerifyAndRegister(context.Background(), req)
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
	assert.Equal(t, "All fields are required", clientMsg(t, err))
}

func TestVerify_MalformedCode(t *testing.T) {
	f := newFixture(true)
	req := janeVerify()
	req.OTP = "48291a"
	_, err := f.svc.VerifyAndRegister(context.Background(), req)
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
	f.otp.AssertNotCalled(t, "Verify", mock.Anything, mock.Anything, mock.Anything)
}

func TestVerify_MalformedEmail(t *testing.T) {
	f := newFixture(true)
	req := janeVerify()
	req.Email = "jane.approveddomain.com"
	_, err := f.svc.VerifyAndRegister(context.Background(), req)
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
	f.otp.AssertNotCalled(t, "Verify", mock.Anything, mock.Anything, mock.Anything)
}

func isVerifiedUpdate(u map[string]interface{}) bool {
	return u["state"] == domain.SignupVerified && u["otp_id"] == "01OTP" &&
		u["claimed_until"] == fixedNow.Add(claimLease).Unix()
}

func isRegisteredUpdate(code, leadID string) func(map[string]interface{}) bool {
	return func(u map[string]interface{}) bool {
		return u["state"] == domain.SignupRegistered && u["invite_code"] == code && u["lead_id"] == leadID
	}
}

func isReleaseUpdate(code string) func(map[string]interface{}) bool {
	return func(u map[string]interface{}) bool {
		_, hasState := u["state"]
		return !hasState && u["invite_code"] == code && u["claimed_until"] == int64(0)
	}
}

func TestVerify_HappyPath(t *testing.T) {
	f := newFixture(true)
	req := janeVerify()
	f.otp.On("Verify", mock.Anything, req.Email, req.OTP).Return(&domain.EmailOTP{OTPID: "01OTP", Verified: true}, nil)
	f.sessions.On("Update", mock.Anything, req.Email, mock.MatchedBy(isVerifiedUpdate)).Return(nil).Once()
	f.invites.On("AllocatePreferred", mock.Anything, req.Email, "").Return("K7Q2M9XA", nil)
	f.leads.On("Record", mock.Anything, mock.MatchedBy(func(l *domain.LeadSubmission) bool {
		return l.LeadID == "01OTP" && l.InviteCode == "K7Q2M9XA" && l.Location == "Pune, MH" && l.Category == "electronics"
	})).Return(nil)
	f.sessions.On("Update", mock.Anything, req.Email, mock.MatchedBy(isRegisteredUpdate("K7Q2M9XA", "01OTP"))).Return(nil).Once()
	f.events.On("Publish", mock.Anything, EventLeadRegistered, mock.Anything).Return(nil)

	reg, err := f.svc.VerifyAndRegister(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "K7Q2M9XA", reg.InviteCode)
	assert.Equal(t, "jane@approveddomain.com", reg.Email)
	assert.Equal(t, "https://chat.whatsapp.com/corposale-pune", reg.CommunityLink)
	assert.Equal(t, "01OTP", reg.LeadID)
	f.sessions.AssertExpectations(t)
	f.events.AssertExpectations(t)
}

func TestVerify_InvalidCodeWithoutSession(t *testing.T) {
	f := newFixture(true)
	req := janeVerify()
	f.otp.On("Verify", mock.Anything, req.Email, req.OTP).Return(nil, domain.ErrInvalidOTP)
	f.sessions.On("Get", mock.Anything, req.Email).Return(nil, domain.ErrNotFound)

	_, err := f.svc.VerifyAndRegister(context.Background(), req)
	assert.True(t, errors.Is(err, domain.ErrInvalidOTP))
	assert.Equal(t, "Invalid or expired OTP", clientMsg(t, err))
	f.invites.AssertNotCalled(t, "AllocatePreferred", mock.Anything, mock.Anything, mock.Anything)
}

func TestVerify_NoCodeGeneratedIsServerError(t *testing.T) {
	f := newFixture(true)
	req := janeVerify()
	f.otp.On("Verify", mock.Anything, req.Email, req.OTP).Return(&domain.EmailOTP{OTPID: "01OTP", Verified: true}, nil)
	f.sessions.On("Update", mock.Anything, req.Email, mock.MatchedBy(isVerifiedUpdate)).Return(nil).Once()
	f.invites.On("AllocatePreferred", mock.Anything, req.Email, "").Return("", errors.New("lookup invite code: throttled"))
	f.sessions.On("Update", mock.Anything, req.Email, mock.MatchedBy(func(u map[string]interface{}) bool {
		return u["claimed_until"] == int64(0)
	})).Return(nil).Once()

	_, err := f.svc.VerifyAndRegister(context.Background(), req)
	assert.Equal(t, "Failed to generate invite code", clientMsg(t, err))
	assert.False(t, errors.Is(err, domain.ErrBadRequest))
	f.sessions.AssertExpectations(t)
	f.leads.AssertNotCalled(t, "Record", mock.Anything, mock.Anything)
}

func TestVerify_UnstoredInviteStillReturnsCode(t *testing.T) {
	f := newFixture(true)
	req := janeVerify()
	f.otp.On("Verify", mock.Anything, req.Email, req.OTP).Return(&domain.EmailOTP{OTPID: "01OTP", Verified: true}, nil)
	f.sessions.On("Update", mock.Anything, req.Email, mock.MatchedBy(isVerifiedUpdate)).Return(nil).Once()
	f.invites.On("AllocatePreferred", mock.Anything, req.Email, "").Return("K7Q2M9XA", errors.New("store invite code: throttled"))
	f.leads.On("Record", mock.Anything, mock.Anything).Return(nil)
	f.sessions.On("Update", mock.Anything, req.Email, mock.MatchedBy(isReleaseUpdate("K7Q2M9XA"))).Return(nil).Once()
	f.events.On("Publish", mock.Anything, EventLeadRegistered, mock.Anything).Return(nil)

	reg, err := f.svc.VerifyAndRegister(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "K7Q2M9XA", reg.InviteCode)
	f.sessions.AssertExpectations(t)
}

func TestVerify_LeadFailureStillReturnsCode(t *testing.T) {
	f := newFixture(true)
	req := janeVerify()
	f.otp.On("Verify", mock.Anything, req.Email, req.OTP).Return(&domain.EmailOTP{OTPID: "01OTP", Verified: true}, nil)
	f.sessions.On("Update", mock.Anything, req.Email, mock.MatchedBy(isVerifiedUpdate)).Return(nil).Once()
	f.invites.On("AllocatePreferred", mock.Anything, req.Email, "").Return("K7Q2M9XA", nil)
	f.leads.On("Record", mock.Anything, mock.Anything).Return(errors.New("throttled"))
	f.sessions.On("Update", mock.Anything, req.Email, mock.MatchedBy(isReleaseUpdate("K7Q2M9XA"))).Return(nil).Once()

	reg, err := f.svc.VerifyAndRegister(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "K7Q2M9XA", reg.InviteCode)
	assert.Empty(t, reg.LeadID)
	f.sessions.AssertExpectations(t)
	f.events.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
}

func verifiedSession(email string) *domain.SignupSession {
	return &domain.SignupSession{
		Email: email, State: domain.SignupVerified, OTPID: "01OTP", InviteCode: "K7Q2M9XA",
		ExpiresAt: fixedNow.Add(time.Minute).Unix(),
	}
}

func TestVerify_ResumesAfterPartialFailure(t *testing.T) {
	f := newFixture(true)
	req := janeVerify()
	f.otp.On("Verify", mock.Anything, req.Email, req.OTP).Return(nil, domain.ErrInvalidOTP)
	f.sessions.On("Get", mock.Anything, req.Email).Return(verifiedSession(req.Email), nil)
	f.otp.On("Get", mock.Anything, req.Email, "01OTP").Return(&domain.EmailOTP{OTPID: "01OTP", Code: "482913", Verified: true}, nil)
	f.sessions.On("Claim", mock.Anything, req.Email, "01OTP", fixedNow, claimLease).Return(nil)
	f.invites.On("AllocatePreferred", mock.Anything, req.Email, "K7Q2M9XA").Return("K7Q2M9XA", nil)
	f.leads.On("Record", mock.Anything, mock.MatchedBy(func(l *domain.LeadSubmission) bool { return l.LeadID == "01OTP" })).Return(nil)
	f.sessions.On("Update", mock.Anything, req.Email, mock.MatchedBy(isRegisteredUpdate("K7Q2M9XA", "01OTP"))).Return(nil)
	f.events.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	reg, err := f.svc.VerifyAndRegister(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "K7Q2M9XA", reg.InviteCode)
	f.sessions.AssertExpectations(t)
}

func TestVerify_NoResumeWhileClaimed(t *testing.T) {
	f := newFixture(true)
	req := janeVerify()
	f.otp.On("Verify", mock.Anything, req.Email, req.OTP).Return(nil, domain.ErrInvalidOTP)
	f.sessions.On("Get", mock.Anything, req.Email).Return(verifiedSession(req.Email), nil)
	f.otp.On("Get", mock.Anything, req.Email, "01OTP").Return(&domain.EmailOTP{OTPID: "01OTP", Code: "482913", Verified: true}, nil)
	f.sessions.On("Claim", mock.Anything, req.Email, "01OTP", fixedNow, claimLease).
		Return(fmt.Errorf("signup session not claimable: %w", domain.ErrConflict))

	_, err := f.svc.VerifyAndRegister(context.Background(), req)
	assert.True(t, errors.Is(err, domain.ErrInvalidOTP))
	f.invites.AssertNotCalled(t, "AllocatePreferred", mock.Anything, mock.Anything, mock.Anything)
	f.leads.AssertNotCalled(t, "Record", mock.Anything, mock.Anything)
}

func TestVerify_NoResumeWhileLeaseHeld(t *testing.T) {
	f := newFixture(true)
	req := janeVerify()
	sess := verifiedSession(req.Email)
	sess.ClaimedUntil = fixedNow.Add(claimLease).Unix()
	f.otp.On("Verify", mock.Anything, req.Email, req.OTP).Return(nil, domain.ErrInvalidOTP)
	f.sessions.On("Get", mock.Anything, req.Email).Return(sess, nil)

	_, err := f.svc.VerifyAndRegister(context.Background(), req)
	assert.True(t, errors.Is(err, domain.ErrInvalidOTP))
	f.sessions.AssertNotCalled(t, "Claim", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestVerify_ReplayAfterLostSessionWriteIsRejected(t *testing.T) {
	f := newFixture(true)
	req := janeVerify()
	f.otp.On("Verify", mock.Anything, req.Email, req.OTP).Return(nil, domain.ErrInvalidOTP)
	f.sessions.On("Get", mock.Anything, req.Email).Return(verifiedSession(req.Email), nil)
	f.otp.On("Get", mock.Anything, req.Email, "01OTP").Return(&domain.EmailOTP{OTPID: "01OTP", Code: "482913", Verified: true}, nil)
	f.sessions.On("Claim", mock.Anything, req.Email, "01OTP", fixedNow, claimLease).Return(nil)
	f.invites.On("AllocatePreferred", mock.Anything, req.Email, "K7Q2M9XA").Return("K7Q2M9XA", nil)
	f.leads.On("Record", mock.Anything, mock.Anything).Return(fmt.Errorf("store lead: %w", domain.ErrConflict))
	f.sessions.On("Update", mock.Anything, req.Email, mock.MatchedBy(isRegisteredUpdate("K7Q2M9XA", "01OTP"))).Return(nil)

	_, err := f.svc.VerifyAndRegister(context.Background(), req)
	assert.True(t, errors.Is(err, domain.ErrInvalidOTP))
	f.sessions.AssertExpectations(t)
	f.events.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
}

func TestVerify_NoResumeForDifferentCode(t *testing.T) {
	f := newFixture(true)
	req := janeVerify()
	req.OTP = "000000"
	f.otp.On("Verify", mock.Anything, req.Email, req.OTP).Return(nil, domain.ErrInvalidOTP)
	f.sessions.On("Get", mock.Anything, req.Email).Return(verifiedSession(req.Email), nil)
	f.otp.On("Get", mock.Anything, req.Email, "01OTP").Return(&domain.EmailOTP{OTPID: "01OTP", Code: "482913", Verified: true}, nil)

	_, err := f.svc.VerifyAndRegister(context.Background(), req)
	assert.True(t, errors.Is(err, domain.ErrInvalidOTP))
	f.sessions.AssertNotCalled(t, "Claim", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestVerify_NoResumeOnceRegistered(t *testing.T) {
	f := newFixture(true)
	req := janeVerify()
	sess := verifiedSession(req.Email)
	sess.State = domain.SignupRegistered
	f.otp.On("Verify", mock.Anything, req.Email, req.OTP).Return(nil, domain.ErrInvalidOTP)
	f.sessions.On("Get", mock.Anything, req.Email).Return(sess, nil)

	_, err := f.svc.VerifyAndRegister(context.Background(), req)
	assert.True(t, errors.Is(err, domain.ErrInvalidOTP))
	f.otp.AssertNotCalled(t, "Get", mock.Anything, mock.Anything, mock.Anything)
}

func TestVerify_PublishFailureIsNotFatal(t *testing.T) {
	f := newFixture(true)
	req := janeVerify()
	f.otp.On("Verify", mock.Anything, req.Email, req.OTP).Return(&domain.EmailOTP{OTPID: "01OTP", Verified: true}, nil)
	f.sessions.On("Update", mock.Anything, req.Email, mock.Anything).Return(errors.New("session table missing"))
	f.invites.On("AllocatePreferred", mock.Anything, req.Email, "").Return("K7Q2M9XA", nil)
	f.leads.On("Record", mock.Anything, mock.Anything).Return(nil)
	f.events.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("sns down"))

	reg, err := f.svc.VerifyAndRegister(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "K7Q2M9XA", reg.InviteCode)
}

func TestSession_NormalisesEmail(t *testing.T) {
	f := newFixture(true)
	f.sessions.On("Get", mock.Anything, "jane@acme.io").Return(&domain.SignupSession{State: domain.SignupPending}, nil)
	s, err := f.svc.Session(context.Background(), " Jane@ACME.io")
	require.NoError(t, err)
	assert.Equal(t, domain.SignupPending, s.State)
}
