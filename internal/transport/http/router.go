package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-shop-api/internal/application/account"
	"github.com/go-shop-api/internal/application/address"
	"github.com/go-shop-api/internal/application/auth"
	"github.com/go-shop-api/internal/application/coupon"
	"github.com/go-shop-api/internal/config"
	"github.com/go-shop-api/internal/infrastructure/smtp"
	"github.com/go-shop-api/internal/infrastructure/sns"
	"github.com/go-shop-api/internal/transport/http/handler"
	appmiddleware "github.com/go-shop-api/internal/transport/http/middleware"
	"golang.org/x/time/rate"
)

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	UserRepo    UserRepository
	AddressRepo AddressRepository
	CouponRepo  CouponRepository
	Hasher      PasswordHasher
	Mailer      smtp.Mailer
	// SMSSender is nil when SMS delivery is disabled.
	SMSSender   sns.SMSSender
	JWTProvider TokenProvider
}

// NewRouter builds and returns the application router. Background work
// started for the router stops when ctx is done.
func NewRouter(ctx context.Context, cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	if cfg.TrustProxyHeaders {
		r.Use(chimiddleware.RealIP)
	}
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// 5 requests/second, burst of 10, per client on login and code-entry routes.
	sensitiveRL := appmiddleware.NewRateLimiter(ctx, rate.Limit(5), 10)

	accountSvc := account.NewService(account.ServiceDeps{
		UserRepo:    deps.UserRepo,
		AddressRepo: deps.AddressRepo,
		Hasher:      deps.Hasher,
		Tokens:      deps.JWTProvider,
		OTPPolicy:   account.PolicyFor(cfg.OTPTTL),
	})
	authSvc := auth.NewService(auth.ServiceDeps{
		Accounts:    accountSvc,
		UserRepo:    deps.UserRepo,
		Hasher:      deps.Hasher,
		Mailer:      deps.Mailer,
		SMSSender:   deps.SMSSender,
		JWTProvider: deps.JWTProvider,
		OTPLength:   cfg.OTPLength,
	})
	addressSvc := address.NewService(deps.AddressRepo)
	couponSvc := coupon.NewService(deps.CouponRepo)

	healthH := handler.NewHealthHandler()
	accountH := handler.NewAccountHandler(authSvc)
	addressH := handler.NewAddressHandler(addressSvc, accountSvc)
	couponH := handler.NewCouponHandler(couponSvc)

	r.Route("/v1", func(r chi.Router) {
		// ── Public routes (no auth) ──────────────────────────────────────────
		r.Get("/health-check/{action}", healthH.Ping)
		r.Group(func(r chi.Router) {
			r.Use(sensitiveRL.Limit)

			r.Post("/token", accountH.Login)
			r.Post("/users", accountH.SignUp)
			r.Post("/users/verify", accountH.Verify)
			r.Post("/users/restore", accountH.Restore)
			r.Post("/users/restore/verify", accountH.RestoreVerify)
		})

		// ── Authenticated routes ─────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(appmiddleware.Auth(accountSvc))
			r.Use(appmiddleware.RequireActive)

			r.Get("/users/me", accountH.Me)
			r.Put("/users/me/password", accountH.ChangePassword)
			r.Post("/users/me/addresses", addressH.Create)
			r.Get("/users/me/addresses", addressH.List)
			r.Get("/users/me/addresses/{id}", addressH.Get)

			// Admin-only routes
			r.Group(func(r chi.Router) {
				r.Use(appmiddleware.RequireAdmin)

				r.Get("/coupons", couponH.List)
				r.Post("/coupons", couponH.Create)
				r.Get("/coupons/{code}", couponH.Get)
			})
		})
	})

	return r
}
