package signup

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/early-access-api/internal/domain"
	"github.com/early-access-api/internal/pkg/validate"
)

// EventLeadRegistered is published once per completed registration.
const EventLeadRegistered = "lead.registered"

const (
	defaultSessionTTL = 24 * time.Hour
	// claimLease bounds how long one request owns a verified session.
	claimLease = 30 * time.Second
)

type Service interface {
	// RequestOTP checks the allowlist, issues a passcode and opens a pending session.
	RequestOTP(ctx context.Context, req domain.SendOTPRequest) error
	// VerifyAndRegister consumes the passcode, allocates the invite code and records the lead.
	// A passcode passes at most once, apart from resuming its own unfinished registration.
	VerifyAndRegister(ctx context.Context, req domain.VerifyOTPRequest) (*domain.Registration, error)
	Session(ctx context.Context, email string) (*domain.SignupSession, error)
}

type otpService interface {
	Issue(ctx context.Context, email, name string) (*domain.EmailOTP, error)
	Verify(ctx context.Context, email, code string) (*domain.EmailOTP, error)
	Get(ctx context.Context, email, otpID string) (*domain.EmailOTP, error)
}

type domainChecker interface {
	Check(ctx context.Context, email string) domain.DomainStatus
}

type inviteAllocator interface {
	AllocatePreferred(ctx context.Context, email, preferred string) (string, error)
}

type leadRecorder interface {
	Record(ctx context.Context, l *domain.LeadSubmission) error
}

type sessionStore interface {
	Put(ctx context.Context, s *domain.SignupSession) error
	Get(ctx context.Context, email string) (*domain.SignupSession, error)
	Update(ctx context.Context, email string, updates map[string]interface{}) error
	Claim(ctx context.Context, email, otpID string, now time.Time, lease time.Duration) error
}

type eventPublisher interface {
	Publish(ctx context.Context, eventType string, payload interface{}) error
}

type linkResolver interface {
	Resolve(location string) string
}

// Deps groups the collaborators of the signup flow.
type Deps struct {
	OTP              otpService
	Domains          domainChecker
	Invites          inviteAllocator
	Leads            leadRecorder
	Sessions         sessionStore
	Events           eventPublisher
	Community        linkResolver
	EnforceAllowlist bool
	SessionTTL       time.Duration
}

type service struct {
	Deps
	now func() time.Time
}

func NewService(d Deps) Service {
	if d.SessionTTL <= 0 {
		d.SessionTTL = defaultSessionTTL
	}
	return &service{Deps: d, now: time.Now}
}

func (s *service) RequestOTP(ctx context.Context, req domain.SendOTPRequest) error {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Name = strings.TrimSpace(req.Name)
	if req.Email == "" || req.Name == "" {
		return domain.BadRequest("Email and name are required")
	}
	if err := validate.Struct(req); err != nil {
		return &domain.ClientError{Msg: "Please enter a valid name and email", Err: fmt.Errorf("%w: %v", domain.ErrBadRequest, err)}
	}
	if s.EnforceAllowlist && s.Domains.Check(ctx, req.Email) != domain.DomainValid {
		return domain.BadRequest("Please use an approved business email")
	}

	o, err := s.OTP.Issue(ctx, req.Email, req.Name)
	if err != nil {
		return err
	}

	now := s.now().UTC()
	sess := &domain.SignupSession{
		Email:     req.Email,
		State:     domain.SignupPending,
		Name:      req.Name,
		OTPID:     o.OTPID,
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(s.SessionTTL).Unix(),
	}
	if err := s.Sessions.Put(ctx, sess); err != nil {
		slog.Warn("signup session write failed", "email", req.Email, "state", sess.State, "err", err)
	}
	return nil
}

func (s *service) VerifyAndRegister(ctx context.Context, req domain.VerifyOTPRequest) (*domain.Registration, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.OTP = strings.TrimSpace(req.OTP)
	req.Name = strings.TrimSpace(req.Name)
	req.Location = strings.TrimSpace(req.Location)
	req.Category = strings.TrimSpace(req.Category)
	if req.Email == "" || req.OTP == "" || req.Name == "" || req.Location == "" || req.Category == "" {
		return nil, domain.BadRequest("All fields are required")
	}
	if err := validate.Struct(req); err != nil {
		return nil, &domain.ClientError{Msg: "Please check the submitted details", Err: fmt.Errorf("%w: %v", domain.ErrBadRequest, err)}
	}

	now := s.now().UTC()
	otpID, issued, err := s.begin(ctx, req, now)
	if err != nil {
		return nil, err
	}
	return s.register(ctx, req, otpID, issued)
}

func (s *service) Session(ctx context.Context, email string) (*domain.SignupSession, error) {
	return s.Sessions.Get(ctx, strings.ToLower(strings.TrimSpace(email)))
}

// begin consumes the passcode, or claims a verified session that an earlier
// request with the same passcode left unfinished. It returns the passcode's
// row ID and any invite code already handed out for it.
func (s *service) begin(ctx context.Context, req domain.VerifyOTPRequest, now time.Time) (string, string, error) {
	o, err := s.OTP.Verify(ctx, req.Email, req.OTP)
	switch {
	case err == nil:
		s.updateSession(ctx, req.Email, map[string]interface{}{
			"state":         domain.SignupVerified,
			"name":          req.Name,
			"location":      req.Location,
			"category":      req.Category,
			"otp_id":        o.OTPID,
			"claimed_until": now.Add(claimLease).Unix(),
		})
		return o.OTPID, "", nil
	case errors.Is(err, domain.ErrInvalidOTP):
		sess := s.resumable(ctx, req.Email, req.OTP, now)
		if sess == nil {
			return "", "", invalidOTP()
		}
		if err := s.Sessions.Claim(ctx, req.Email, sess.OTPID, now, claimLease); err != nil {
			if !errors.Is(err, domain.ErrConflict) {
				return "", "", domain.Failed("Failed to verify OTP", err)
			}
			slog.Info("verified signup already claimed", "email", req.Email)
			return "", "", invalidOTP()
		}
		slog.Info("resuming verified signup", "email", req.Email, "otp_id", sess.OTPID)
		return sess.OTPID, sess.InviteCode, nil
	default:
		return "", "", domain.Failed("Failed to verify OTP", err)
	}
}

// register allocates the invite code and records the lead under the
// passcode's row ID, so one passcode yields at most one lead. Persistence
// failures after a code exists are logged; the caller still gets the code and
// the session stays verified for a later resume.
func (s *service) register(ctx context.Context, req domain.VerifyOTPRequest, otpID, issued string) (*domain.Registration, error) {
	code, err := s.Invites.AllocatePreferred(ctx, req.Email, issued)
	if code == "" {
		s.updateSession(ctx, req.Email, map[string]interface{}{"claimed_until": int64(0)})
		return nil, domain.Failed("Failed to generate invite code", err)
	}
	complete := true
	if err != nil {
		slog.Error("invite code not stored", "email", req.Email, "invite_code", code, "err", err)
		complete = false
	}

	lead := &domain.LeadSubmission{
		LeadID:     otpID,
		Name:       req.Name,
		Email:      req.Email,
		Location:   req.Location,
		Category:   req.Category,
		InviteCode: code,
	}
	recorded := true
	if err := s.Leads.Record(ctx, lead); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			// Only the final session write was lost last time.
			s.finish(ctx, req.Email, code, lead.LeadID, complete)
			return nil, invalidOTP()
		}
		slog.Error("lead not stored", "email", req.Email, "otp_id", otpID, "err", err)
		recorded, complete = false, false
	}
	s.finish(ctx, req.Email, code, lead.LeadID, complete)

	reg := &domain.Registration{
		Email:         req.Email,
		InviteCode:    code,
		CommunityLink: s.Community.Resolve(req.Location),
	}
	if !recorded {
		return reg, nil
	}
	reg.LeadID = lead.LeadID
	if err := s.Events.Publish(ctx, EventLeadRegistered, lead); err != nil {
		slog.Warn("lead event publish failed", "lead_id", lead.LeadID, "err", err)
	}
	return reg, nil
}

// finish moves the session to registered, or releases the claim so the same
// passcode can resume the missing writes.
func (s *service) finish(ctx context.Context, email, code, leadID string, complete bool) {
	if complete {
		s.updateSession(ctx, email, map[string]interface{}{
			"state":       domain.SignupRegistered,
			"invite_code": code,
			"lead_id":     leadID,
		})
		return
	}
	s.updateSession(ctx, email, map[string]interface{}{
		"invite_code":   code,
		"claimed_until": int64(0),
	})
}

// resumable returns the session when an earlier request verified this exact
// code but did not complete registration.
func (s *service) resumable(ctx context.Context, email, code string, now time.Time) *domain.SignupSession {
	sess, err := s.Sessions.Get(ctx, email)
	if err != nil || !sess.Resumable(now) {
		return nil
	}
	o, err := s.OTP.Get(ctx, email, sess.OTPID)
	if err != nil || !o.Verified {
		return nil
	}
	if subtle.ConstantTimeCompare([]byte(o.Code), []byte(code)) != 1 {
		return nil
	}
	return sess
}

func (s *service) updateSession(ctx context.Context, email string, updates map[string]interface{}) {
	if err := s.Sessions.Update(ctx, email, updates); err != nil {
		slog.Warn("signup session write failed", "email", email, "state", updates["state"], "err", err)
	}
}

func invalidOTP() error {
	return &domain.ClientError{Msg: "Invalid or expired OTP", Err: domain.ErrInvalidOTP}
}
