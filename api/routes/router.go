package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/campusmarket-client/api/controllers"
	"github.com/angelmondragon/campusmarket-client/api/middleware"
	"github.com/angelmondragon/campusmarket-client/internal/app"
	"github.com/angelmondragon/campusmarket-client/pkg/config"
	"github.com/angelmondragon/campusmarket-client/pkg/logger"
)

// NewRouter exposes the container's state to a UI shell.
func NewRouter(cfg *config.Config, logg *logger.Logger, c *app.Container, gatherer prometheus.Gatherer) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.AllowedOrigins()),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, c.Storage))
	})
	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	feeds := map[string]controllers.FeedHandle{
		app.FeedProducts:       controllers.BindFeed(c.Feeds.Products),
		app.FeedPublications:   controllers.BindFeed(c.Feeds.Publications),
		app.FeedMyPublications: controllers.BindFeed(c.Feeds.MyPublications),
	}

	r.Route("/v1", func(r chi.Router) {
		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartFetch(c.Cart))
			r.Delete("/", controllers.CartClear(c.Cart, logg))
			r.Post("/toggle", controllers.CartToggle(c.Cart))
			r.Post("/items", controllers.CartAddItem(c.Cart, c.Products, logg))
			r.Patch("/items/{productId}", controllers.CartUpdateItem(c.Cart, logg))
			r.Delete("/items/{productId}", controllers.CartRemoveItem(c.Cart, logg))
		})

		r.Route("/favorites", func(r chi.Router) {
			r.Get("/", controllers.FavoritesList(c.Favorites, logg))
			r.Post("/{productId}/toggle", controllers.FavoritesToggle(c.Favorites, logg))
		})

		r.Route("/feeds/{feed}", func(r chi.Router) {
			r.Get("/", controllers.FeedQuery(feeds, logg))
			r.Post("/next", controllers.FeedNext(feeds, logg))
		})

		r.Get("/products/{productId}", controllers.ProductDetail(c.Products, logg))

		r.Route("/publications", func(r chi.Router) {
			r.Post("/", controllers.PublicationCreate(c.PublicationService, logg))
			r.Get("/{id}", controllers.PublicationDetail(c.Publications, logg))
			r.Patch("/{id}", controllers.PublicationUpdate(c.PublicationService, logg))
			r.Delete("/{id}", controllers.PublicationDelete(c.PublicationService, logg))
		})

		r.Route("/sellers/{sellerId}/ratings", func(r chi.Router) {
			r.Get("/", controllers.SellerRatingsList(c.Ratings, logg))
			r.Post("/", controllers.SellerRatingsCreate(c.Ratings, logg))
		})

		r.Route("/session", func(r chi.Router) {
			r.Get("/", controllers.SessionFetch(c.Session))
			r.Post("/login", controllers.SessionLogin(c.Auth, c.Session, logg))
			r.Post("/logout", controllers.SessionLogout(c.Auth, c.Session, logg))
		})

		r.Get("/location", controllers.LocationFetch(c.Location))
		r.Post("/location", controllers.LocationNavigate(c.Location, logg))
	})

	return r
}
