package handler

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/early-access-api/internal/application/admin"
	"github.com/early-access-api/internal/domain"
)

type mockSignupSvc struct{ mock.Mock }

func (m *mockSignupSvc) RequestOTP(ctx context.Context, req domain.SendOTPRequest) error {
	return m.Called(ctx, req).Error(0)
}

func (m *mockSignupSvc) VerifyAndRegister(ctx context.Context, req domain.VerifyOTPRequest) (*domain.Registration, error) {
	args := m.Called(ctx, req)
	reg, _ := args.Get(0).(*domain.Registration)
	return reg, args.Error(1)
}

func (m *mockSignupSvc) Session(ctx context.Context, email string) (*domain.SignupSession, error) {
	args := m.Called(ctx, email)
	s, _ := args.Get(0).(*domain.SignupSession)
	return s, args.Error(1)
}

type mockDomainSvc struct{ mock.Mock }

func (m *mockDomainSvc) Check(ctx context.Context, email string) domain.DomainStatus {
	return m.Called(ctx, email).Get(0).(domain.DomainStatus)
}

func (m *mockDomainSvc) List(ctx context.Context) ([]domain.CompanyDomain, error) {
	args := m.Called(ctx)
	ds, _ := args.Get(0).([]domain.CompanyDomain)
	return ds, args.Error(1)
}

func (m *mockDomainSvc) Put(ctx context.Context, name string, approved bool) (*domain.CompanyDomain, error) {
	args := m.Called(ctx, name, approved)
	d, _ := args.Get(0).(*domain.CompanyDomain)
	return d, args.Error(1)
}

func (m *mockDomainSvc) Delete(ctx context.Context, name string) error {
	return m.Called(ctx, name).Error(0)
}

type mockLeadSvc struct{ mock.Mock }

func (m *mockLeadSvc) Record(ctx context.Context, l *domain.LeadSubmission) error {
	return m.Called(ctx, l).Error(0)
}

func (m *mockLeadSvc) ListByEmail(ctx context.Context, email string) ([]domain.LeadSubmission, error) {
	args := m.Called(ctx, email)
	ls, _ := args.Get(0).([]domain.LeadSubmission)
	return ls, args.Error(1)
}

func (m *mockLeadSvc) Export(ctx context.Context) (*domain.LeadExport, error) {
	args := m.Called(ctx)
	out, _ := args.Get(0).(*domain.LeadExport)
	return out, args.Error(1)
}

type mockAdminSvc struct{ mock.Mock }

func (m *mockAdminSvc) Login(ctx context.Context, password string) (*admin.LoginResult, error) {
	args := m.Called(ctx, password)
	res, _ := args.Get(0).(*admin.LoginResult)
	return res, args.Error(1)
}
