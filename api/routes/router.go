package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/caffeinepub/raffle-backend/api/controllers"
	"github.com/caffeinepub/raffle-backend/api/middleware"
	checkoutsvc "github.com/caffeinepub/raffle-backend/internal/checkout"
	"github.com/caffeinepub/raffle-backend/internal/draw"
	"github.com/caffeinepub/raffle-backend/internal/entries"
	"github.com/caffeinepub/raffle-backend/internal/raffles"
	"github.com/caffeinepub/raffle-backend/internal/users"
	"github.com/caffeinepub/raffle-backend/pkg/config"
	"github.com/caffeinepub/raffle-backend/pkg/db"
	"github.com/caffeinepub/raffle-backend/pkg/enums"
	"github.com/caffeinepub/raffle-backend/pkg/logger"
	"github.com/caffeinepub/raffle-backend/pkg/metrics"
	pkgredis "github.com/caffeinepub/raffle-backend/pkg/redis"
)

// Deps carries everything the router wires into handlers.
type Deps struct {
	Config      *config.Config
	Logger      *logger.Logger
	DB          db.Pinger
	Redis       *pkgredis.Client
	Metrics     *metrics.RaffleMetrics
	Raffles     raffles.Service
	Entries     entries.Service
	Checkout    checkoutsvc.Service
	Draw        draw.Service
	Users       users.Service
	GatewayConf *checkoutsvc.ConfigService
}

// NewRouter assembles the HTTP surface.
func NewRouter(d Deps) http.Handler {
	cfg := d.Config
	logg := d.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	var redisPinger pkgredis.Pinger
	if d.Redis != nil {
		redisPinger = d.Redis
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, d.DB, redisPinger))
	})

	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		// Open reads; identity is attached when a token is present so the
		// caller-role endpoints can answer for guests and users alike.
		r.Group(func(r chi.Router) {
			r.Use(middleware.OptionalAuth(cfg.JWT, d.Users, logg))

			r.Route("/raffles", func(r chi.Router) {
				r.Get("/", controllers.RaffleList(d.Raffles, logg))
				r.Get("/active", controllers.RaffleActive(d.Raffles, logg))
				r.Get("/completed", controllers.RaffleCompleted(d.Raffles, logg))
				r.Get("/{raffleId}", controllers.RaffleDetail(d.Raffles, logg))
				r.Get("/{raffleId}/live", controllers.RaffleLive(d.Raffles, logg))
				r.Get("/{raffleId}/entries", controllers.RaffleEntries(d.Entries, logg))
				r.Get("/{raffleId}/remaining-spots", controllers.RaffleRemainingSpots(d.Entries, logg))
			})

			r.Get("/me/role", controllers.CallerRole(logg))
			r.Get("/me/admin", controllers.CallerIsAdmin(logg))
			r.Get("/users/{userId}/profile", controllers.UserProfile(d.Users, logg))
		})

		// Authenticated money path and profile writes.
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, d.Users, logg))
			r.Use(middleware.RequireAuthenticated(logg))
			if d.Redis != nil {
				r.Use(middleware.Idempotency(d.Redis, logg))
			}

			r.Post("/checkout/session", controllers.CheckoutCreateSession(d.Checkout, logg))
			r.Get("/checkout/session/{sessionId}", controllers.CheckoutSessionStatus(d.Checkout, logg))
			r.Get("/checkout/sessions", controllers.CheckoutListSessions(d.Checkout, logg))
			r.Post("/entries/purchase", controllers.PurchaseEntries(d.Checkout, logg))

			r.Get("/me/profile", controllers.CallerProfile(d.Users, logg))
			r.Put("/me/profile", controllers.SaveCallerProfile(d.Users, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, d.Users, logg))
		r.Use(middleware.RequireRole(logg, enums.UserRoleAdmin))
		if d.Redis != nil {
			r.Use(middleware.Idempotency(d.Redis, logg))
		}

		r.Route("/raffles", func(r chi.Router) {
			r.Post("/", controllers.AdminCreateRaffle(d.Raffles, logg))
			r.Put("/{raffleId}", controllers.AdminUpdateRaffle(d.Raffles, logg))
			r.Post("/{raffleId}/status", controllers.AdminChangeRaffleStatus(d.Raffles, logg))
			r.Post("/{raffleId}/draw", controllers.AdminTriggerDraw(d.Draw, logg))
			r.Get("/{raffleId}/draw", controllers.AdminDrawResult(d.Draw, logg))
		})

		r.Route("/stripe/config", func(r chi.Router) {
			r.Put("/", controllers.AdminSetStripeConfig(d.GatewayConf, logg))
			r.Get("/", controllers.AdminStripeConfigured(d.GatewayConf, logg))
		})

		r.Post("/users/{userId}/role", controllers.AdminAssignRole(d.Users, logg))
	})

	return r
}
