package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nicolaananda/barber-pos-sub000/internal/config"
	"github.com/nicolaananda/barber-pos-sub000/internal/domain"
	"github.com/nicolaananda/barber-pos-sub000/internal/handler"
)

// Handlers groups everything mounted by NewRouter.
type Handlers struct {
	Health        handler.HealthHandler
	Docs          handler.DocsHandler
	Auth          handler.AuthHandler
	Users         handler.UserHandler
	Catalog       handler.CatalogHandler
	Customers     handler.CustomerHandler
	Transactions  handler.TransactionHandler
	Shifts        handler.ShiftHandler
	Payroll       handler.PayrollHandler
	Bookings      handler.BookingHandler
	OffDays       handler.OffDayHandler
	Finance       handler.FinanceHandler
	Dashboard     handler.DashboardHandler
	ActivityLogs  handler.ActivityLogHandler
	Notifications handler.NotificationHandler
}

// NewRouter wires HTTP routes and middleware. All API routes live under /api.
func NewRouter(cfg config.Config, logger *slog.Logger, h Handlers) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(NewLoggerMiddleware(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(httprate.LimitByIP(200, 1*time.Minute))

	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	if cfg.UploadDir != "" {
		r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(cfg.UploadDir))))
	}

	r.Route("/api", func(api chi.Router) {
		h.Health.RegisterRoutes(api)
		h.Docs.RegisterRoutes(api)

		// Unauthenticated surfaces used by the booking page and login screens.
		api.Group(func(pub chi.Router) {
			pub.Use(httprate.LimitByIP(20, 1*time.Minute))
			h.Auth.RegisterRoutes(pub)
			h.Catalog.RegisterPublicRoutes(pub)
			h.Users.RegisterPublicRoutes(pub)
			h.Bookings.RegisterPublicRoutes(pub)
		})

		api.Group(func(pr chi.Router) {
			pr.Use(AuthMiddleware(cfg.JWTSecret))
			h.Auth.RegisterProtectedRoutes(pr)

			pr.Group(func(sr chi.Router) {
				sr.Use(RequireRole(domain.RoleAdmin, domain.RoleCashier, domain.RoleBarber))
				h.Users.RegisterRoutes(sr)
				h.Catalog.RegisterRoutes(sr)
				h.Customers.RegisterRoutes(sr)
				h.Transactions.RegisterRoutes(sr)
				h.Shifts.RegisterRoutes(sr)
				h.Bookings.RegisterRoutes(sr)
				h.OffDays.RegisterRoutes(sr)
			})

			pr.Group(func(ar chi.Router) {
				ar.Use(RequireRole(domain.RoleAdmin))
				h.Users.RegisterAdminRoutes(ar)
				h.Catalog.RegisterAdminRoutes(ar)
				h.Transactions.RegisterAdminRoutes(ar)
				h.OffDays.RegisterAdminRoutes(ar)
				h.Payroll.RegisterRoutes(ar)
				h.Finance.RegisterRoutes(ar)
				h.Dashboard.RegisterRoutes(ar)
				h.ActivityLogs.RegisterRoutes(ar)
				h.Notifications.RegisterRoutes(ar)
			})
		})
	})

	return r
}
