package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/stagepass/stagepass-backend/api/controllers"
	webhookcontrollers "github.com/stagepass/stagepass-backend/api/controllers/webhooks"
	"github.com/stagepass/stagepass-backend/api/middleware"
	catalogsvc "github.com/stagepass/stagepass-backend/internal/catalog"
	dropsvc "github.com/stagepass/stagepass-backend/internal/drops"
	engagementsvc "github.com/stagepass/stagepass-backend/internal/engagement"
	payoutsvc "github.com/stagepass/stagepass-backend/internal/payouts"
	productsvc "github.com/stagepass/stagepass-backend/internal/products"
	purchasesvc "github.com/stagepass/stagepass-backend/internal/purchases"
	revenuesvc "github.com/stagepass/stagepass-backend/internal/revenue"
	stripewebhook "github.com/stagepass/stagepass-backend/internal/webhooks/stripe"
	"github.com/stagepass/stagepass-backend/pkg/config"
	"github.com/stagepass/stagepass-backend/pkg/db"
	"github.com/stagepass/stagepass-backend/pkg/logger"
	"github.com/stagepass/stagepass-backend/pkg/redis"
	"github.com/stagepass/stagepass-backend/pkg/stripe"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	purchaseService purchasesvc.Service,
	revenueService revenuesvc.Service,
	payoutService payoutsvc.Service,
	engagementService engagementsvc.Service,
	productService productsvc.Service,
	catalogService catalogsvc.Service,
	dropService dropsvc.Service,
	stripeClient *stripe.Client,
	stripeWebhookService *stripewebhook.Service,
	stripeWebhookGuard *stripewebhook.IdempotencyGuard,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/stripe", webhookcontrollers.StripeWebhook(stripeWebhookService, stripeClient, stripeWebhookGuard, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		// Public reads: catalog browsing, checkout links and the gated drop
		// view. The drop gate sees the viewer identity when a token is present.
		r.Group(func(r chi.Router) {
			r.Use(middleware.OptionalAuth(cfg.JWT, logg))
			r.Get("/artists/{artistId}/products", controllers.ArtistCatalog(catalogService, logg))
			r.Post("/products/{productId}/checkout-link", controllers.ProductCheckoutLink(catalogService, logg))
			r.Get("/drops/{dropId}", controllers.DropView(dropService, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))

			r.Route("/purchases", func(r chi.Router) {
				r.Post("/", controllers.PurchaseCreate(purchaseService, logg))
				r.Get("/", controllers.PurchaseHistory(purchaseService, logg))
				r.Post("/{purchaseId}/download", controllers.PurchaseDownload(purchaseService, logg))
			})

			r.Get("/fees/breakdown", controllers.FeesBreakdown(logg))

			r.Route("/artist", func(r chi.Router) {
				r.Get("/revenue", controllers.RevenueSnapshot(revenueService, logg))
				r.Get("/revenue/history", controllers.RevenueHistory(revenueService, logg))
				r.Post("/payouts", controllers.PayoutRequest(payoutService, logg))
				r.Get("/payouts", controllers.PayoutHistory(payoutService, logg))
				r.Get("/fans", controllers.TopFans(engagementService, logg))
				r.Post("/purchases/{purchaseId}/refund", controllers.PurchaseRefund(purchaseService, logg))

				r.Route("/products", func(r chi.Router) {
					r.Post("/", controllers.ArtistCreateProduct(productService, logg))
					r.Get("/", controllers.ArtistListProducts(productService, logg))
					r.Patch("/{productId}", controllers.ArtistUpdateProduct(productService, logg))
					r.Delete("/{productId}", controllers.ArtistDeleteProduct(productService, logg))
				})

				r.Route("/drops", func(r chi.Router) {
					r.Post("/", controllers.ArtistCreateDrop(dropService, logg))
					r.Get("/", controllers.ArtistListDrops(dropService, logg))
					r.Patch("/{dropId}", controllers.ArtistUpdateDrop(dropService, logg))
					r.Delete("/{dropId}", controllers.ArtistDeleteDrop(dropService, logg))
					r.Post("/{dropId}/publish", controllers.ArtistPublishDrop(dropService, logg))
					r.Post("/{dropId}/cancel", controllers.ArtistCancelDrop(dropService, logg))
				})
			})
		})
	})

	return r
}
