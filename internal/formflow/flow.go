// Package formflow drives the early-access form: collect details, gate on the
// company-domain check, request a passcode, then verify it to register.
package formflow

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/early-access-api/internal/domain"
	"github.com/early-access-api/internal/pkg/validate"
)

// State is the form's position in the signup flow.
type State string

const (
	StateCollectingInfo State = "collecting-info"
	StateOTPRequested   State = "otp-requested"
	StateVerifying      State = "verifying"
	StateRegistered     State = "registered"
)

var (
	ErrWrongState     = errors.New("action not allowed in current state")
	ErrDomainNotValid = errors.New("please use an approved business email")
	ErrInvalidFields  = errors.New("please fix the highlighted fields")
	ErrCodeFormat     = errors.New("enter the 6-digit code")
)

var sixDigits = regexp.MustCompile(`^[0-9]{6}$`)

// Info is the data the form collects before a passcode is sent.
type Info struct {
	Name     string `validate:"required,min=2,max=100"`
	Email    string `validate:"required,email,max=255"`
	Location string `validate:"required,min=2,max=100"`
	Category string `validate:"required,oneof=furniture electronics vehicles others"`
}

// FieldError carries the failing rule per field.
type FieldError struct {
	Fields map[string]string
}

func (e *FieldError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for f, tag := range e.Fields {
		parts = append(parts, f+":"+tag)
	}
	return fmt.Sprintf("%s (%s)", ErrInvalidFields, strings.Join(parts, ", "))
}

func (e *FieldError) Unwrap() error { return ErrInvalidFields }

type api interface {
	SendOTP(ctx context.Context, email, name string) error
	VerifyOTP(ctx context.Context, req domain.VerifyOTPRequest) (*Result, error)
	CheckDomain(ctx context.Context, email string) (domain.DomainStatus, error)
}

// Flow is safe for concurrent use; the domain checker reports from its own goroutine.
type Flow struct {
	api     api
	checker *DomainChecker

	mu           sync.Mutex
	state        State
	info         Info
	domainStatus domain.DomainStatus
	result       *Result
}

func New(a api, debounce time.Duration) *Flow {
	f := &Flow{api: a, state: StateCollectingInfo, domainStatus: domain.DomainIndeterminate}
	f.checker = NewDomainChecker(a.CheckDomain, debounce, f.setDomainStatus)
	return f
}

func (f *Flow) setDomainStatus(s domain.DomainStatus) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.domainStatus = s
}

// EmailChanged feeds an edited email into the debounced domain check.
func (f *Flow) EmailChanged(email string) {
	f.mu.Lock()
	if f.state != StateCollectingInfo {
		f.mu.Unlock()
		return
	}
	email = strings.TrimSpace(email)
	f.info.Email = email
	f.mu.Unlock()
	f.checker.Update(email)
}

func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *Flow) DomainStatus() domain.DomainStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.domainStatus
}

// Result is nil until the flow is registered.
func (f *Flow) Result() *Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.result
}

// Validate reports the failing rule per field, or nil.
func Validate(info Info) map[string]string {
	return validate.Fields(info)
}

// RequestOTP submits the collected details. Only allowed once, and only after
// the email's domain has been confirmed valid.
func (f *Flow) RequestOTP(ctx context.Context, info Info) error {
	info = trimInfo(info)
	if fields := Validate(info); fields != nil {
		return &FieldError{Fields: fields}
	}

	f.mu.Lock()
	if f.state != StateCollectingInfo {
		f.mu.Unlock()
		return ErrWrongState
	}
	if f.domainStatus != domain.DomainValid || !strings.EqualFold(f.info.Email, info.Email) {
		f.mu.Unlock()
		return ErrDomainNotValid
	}
	f.mu.Unlock()

	if err := f.api.SendOTP(ctx, info.Email, info.Name); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.info = info
	f.state = StateOTPRequested
	return nil
}

// Verify submits the passcode. On failure the flow stays in otp-requested.
func (f *Flow) Verify(ctx context.Context, code string) (*Result, error) {
	code = strings.TrimSpace(code)
	if !sixDigits.MatchString(code) {
		return nil, ErrCodeFormat
	}

	f.mu.Lock()
	if f.state != StateOTPRequested {
		f.mu.Unlock()
		return nil, ErrWrongState
	}
	f.state = StateVerifying
	info := f.info
	f.mu.Unlock()

	res, err := f.api.VerifyOTP(ctx, domain.VerifyOTPRequest{
		Email:    info.Email,
		OTP:      code,
		Name:     info.Name,
		Location: info.Location,
		Category: info.Category,
	})

	f.mu.Lock()
	defer f.mu.Unlock()
	if err != nil {
		f.state = StateOTPRequested
		return nil, err
	}
	f.state = StateRegistered
	f.result = res
	return res, nil
}

// Close stops any pending domain lookup.
func (f *Flow) Close() { f.checker.Close() }

func trimInfo(i Info) Info {
	return Info{
		Name:     strings.TrimSpace(i.Name),
		Email:    strings.TrimSpace(i.Email),
		Location: strings.TrimSpace(i.Location),
		Category: strings.TrimSpace(i.Category),
	}
}
