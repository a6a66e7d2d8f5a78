package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/payments-service/api/controllers"
	paymentcontrollers "github.com/angelmondragon/payments-service/api/controllers/payments"
	"github.com/angelmondragon/payments-service/api/middleware"
	"github.com/angelmondragon/payments-service/internal/payments"
	"github.com/angelmondragon/payments-service/pkg/config"
	"github.com/angelmondragon/payments-service/pkg/logger"
	"github.com/angelmondragon/payments-service/pkg/metrics"
	"github.com/angelmondragon/payments-service/pkg/redis"
)

// NewRouter wires the payments API. redisClient and metricsHandler are
// optional; without Redis the idempotency middleware passes everything
// through and readiness skips the Redis check.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP controllers.Pinger,
	redisClient *redis.Client,
	paymentService payments.Service,
	httpMetrics *metrics.HTTPMetrics,
	metricsHandler http.Handler,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg, httpMetrics),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	var (
		redisPinger controllers.Pinger
		idemStore   redis.IdempotencyStore
	)
	if redisClient != nil {
		redisPinger = redisClient
		idemStore = redisClient
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisPinger))
	})
	if metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", metricsHandler)
	}

	r.Route("/api/payments", func(r chi.Router) {
		r.Use(middleware.Idempotency(idemStore, logg))

		r.Post("/", paymentcontrollers.Process(paymentService, logg))
		// static segments take precedence over {paymentId} in chi's tree
		r.Get("/health", paymentcontrollers.Health())
		r.Get("/user/{userId}", paymentcontrollers.ListByUser(paymentService, logg))
		r.Get("/order/{orderId}", paymentcontrollers.GetByOrder(paymentService, logg))
		r.Get("/{paymentId}", paymentcontrollers.GetByID(paymentService, logg))
		r.Post("/{paymentId}/refund", paymentcontrollers.Refund(paymentService, logg))
	})

	return r
}
