package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/launchboard-backend/api/controllers"
	webhookcontrollers "github.com/angelmondragon/launchboard-backend/api/controllers/webhooks"
	"github.com/angelmondragon/launchboard-backend/api/middleware"
	"github.com/angelmondragon/launchboard-backend/pkg/config"
	"github.com/angelmondragon/launchboard-backend/pkg/logger"
)

type signingClient interface {
	SigningSecret() string
}

type webhookGuard interface {
	CheckAndMark(ctx context.Context, eventID string) (bool, error)
	Delete(ctx context.Context, eventID string) error
}

// RouterParams carries the collaborators the HTTP surface needs.
type RouterParams struct {
	Config        *config.Config
	Logger        *logger.Logger
	DB            controllers.Pinger
	Redis         controllers.Pinger
	Gatherer      prometheus.Gatherer
	SquareService webhookcontrollers.SquareWebhookService
	SquareClient  signingClient
	SquareGuard   webhookGuard
}

func NewRouter(p RouterParams) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(p.Logger),
		middleware.RequestID(p.Logger),
		middleware.Logging(p.Logger),
	)

	r.Get("/healthz", controllers.HealthLive(p.Config))
	r.Get("/health/ready", controllers.HealthReady(p.Config, p.Logger, map[string]controllers.Pinger{
		"db":    p.DB,
		"redis": p.Redis,
	}))

	if p.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(p.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/square", webhookcontrollers.SquareWebhook(p.SquareService, p.SquareClient, p.SquareGuard, p.Logger))
	})

	return r
}
