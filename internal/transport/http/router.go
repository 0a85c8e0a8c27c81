package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"

	"github.com/early-access-api/internal/application/admin"
	"github.com/early-access-api/internal/application/domaincheck"
	"github.com/early-access-api/internal/application/invite"
	"github.com/early-access-api/internal/application/lead"
	"github.com/early-access-api/internal/application/otp"
	"github.com/early-access-api/internal/application/signup"
	"github.com/early-access-api/internal/config"
	"github.com/early-access-api/internal/infrastructure/sns"
	"github.com/early-access-api/internal/pkg/community"
	"github.com/early-access-api/internal/transport/http/handler"
	appmiddleware "github.com/early-access-api/internal/transport/http/middleware"
)

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"authorization", "x-client-info", "apikey", "content-type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)

	var events EventPublisher = sns.NopPublisher{}
	if deps.Events != nil {
		events = deps.Events
	}

	leadSvc := lead.NewService(deps.LeadRepo, deps.ObjectStore)
	domainSvc := domaincheck.NewService(deps.DomainRepo)
	signupSvc := signup.NewService(signup.Deps{
		OTP:              otp.NewService(deps.OTPRepo, deps.Mailer, cfg.OTPTTL),
		Domains:          domainSvc,
		Invites:          invite.NewService(deps.InviteRepo),
		Leads:            leadSvc,
		Sessions:         deps.SignupRepo,
		Events:           events,
		Community:        community.NewResolver(cfg.CommunityLinks, cfg.CommunityDefaultLink),
		EnforceAllowlist: cfg.EnforceDomainAllowlist,
	})

	healthH := handler.NewHealthHandler()
	signupH := handler.NewSignupHandler(signupSvc)
	domainH := handler.NewDomainHandler(domainSvc)

	r.Get("/health-check/{action}", healthH.Ping)
	r.Post("/health-check/{action}", healthH.Ping)
	r.Get("/domains/check", domainH.Check)
	r.With(sensitiveRL.Limit).Post("/send-otp", signupH.SendOTP)
	r.With(sensitiveRL.Limit).Post("/verify-otp", signupH.VerifyOTP)

	if deps.Tokens == nil {
		slog.Warn("JWT keys not configured, admin routes disabled")
		return r
	}

	adminH := handler.NewAdminHandler(admin.NewService(deps.Tokens, cfg.AdminPasswordHash), leadSvc, signupSvc)
	r.Route("/admin", func(r chi.Router) {
		r.With(sensitiveRL.Limit).Post("/sessions", adminH.Login)

		r.Group(func(r chi.Router) {
			r.Use(appmiddleware.Auth(deps.Tokens))
			r.Use(appmiddleware.RequireRole(admin.Role))

			r.Get("/domains", domainH.List)
			r.Put("/domains/{domain}", domainH.Put)
			r.Delete("/domains/{domain}", domainH.Delete)
			r.Get("/leads", adminH.ListLeads)
			r.Post("/leads/export", adminH.ExportLeads)
			r.Get("/signups/{email}", adminH.GetSignup)
		})
	})

	return r
}
