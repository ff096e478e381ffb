// Package app owns the process-wide client state: one instance of every
// store and service, built once and handed to consumers explicitly.
package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/angelmondragon/campusmarket-client/internal/auth"
	"github.com/angelmondragon/campusmarket-client/internal/cart"
	"github.com/angelmondragon/campusmarket-client/internal/favorites"
	"github.com/angelmondragon/campusmarket-client/internal/feed"
	"github.com/angelmondragon/campusmarket-client/internal/products"
	"github.com/angelmondragon/campusmarket-client/internal/publications"
	"github.com/angelmondragon/campusmarket-client/internal/querycache"
	"github.com/angelmondragon/campusmarket-client/internal/ratings"
	"github.com/angelmondragon/campusmarket-client/pkg/auth/session"
	"github.com/angelmondragon/campusmarket-client/pkg/config"
	"github.com/angelmondragon/campusmarket-client/pkg/httpclient"
	"github.com/angelmondragon/campusmarket-client/pkg/kv"
	"github.com/angelmondragon/campusmarket-client/pkg/logger"
	"github.com/angelmondragon/campusmarket-client/pkg/metrics"
	"github.com/angelmondragon/campusmarket-client/pkg/nav"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"
	"golang.org/x/time/rate"
)

// Feed names exposed to consumers.
const (
	FeedProducts       = "products"
	FeedPublications   = "publications"
	FeedMyPublications = "my-publications"
)

// Params configures the container. Storage, HTTPClient and Location are
// optional overrides; when nil they are built from Config.
type Params struct {
	Config     *config.Config
	Logger     *logger.Logger
	Registerer prometheus.Registerer
	Storage    kv.Store
	HTTPClient *http.Client
	Location   *nav.Location
}

// Feeds groups the paginated listings.
type Feeds struct {
	Products       *feed.Fetcher[products.Product]
	Publications   *feed.Fetcher[publications.Publication]
	MyPublications *feed.Fetcher[publications.Publication]
}

// Container is the single owner of client state.
type Container struct {
	Config   *config.Config
	Logger   *logger.Logger
	Storage  kv.Store
	Session  *session.Manager
	Location *nav.Location
	API      *httpclient.Client
	Cache    *querycache.Client
	Cart     *cart.Store

	Products           *products.Repository
	Publications       *publications.Repository
	PublicationService publications.Service
	Favorites          favorites.Service
	Ratings            ratings.Service
	Auth               auth.Service
	Feeds              Feeds

	ownsStorage bool
}

// New builds and hydrates every store.
func New(ctx context.Context, p Params) (*Container, error) {
	if p.Config == nil {
		return nil, fmt.Errorf("config required")
	}
	if p.Logger == nil {
		p.Logger = logger.Nop()
	}
	cfg, logg := p.Config, p.Logger
	c := &Container{Config: cfg, Logger: logg}

	c.Storage = p.Storage
	if c.Storage == nil {
		store, err := kv.Open(ctx, cfg, logg)
		if err != nil {
			return nil, err
		}
		c.Storage = store
		c.ownsStorage = true
	}

	if err := c.build(ctx, p); err != nil {
		return nil, multierr.Append(err, c.Close())
	}
	return c, nil
}

func (c *Container) build(ctx context.Context, p Params) error {
	cfg, logg := c.Config, c.Logger

	manager, err := session.NewManager(c.Storage, logg)
	if err != nil {
		return fmt.Errorf("session manager: %w", err)
	}
	if err := manager.Load(ctx); err != nil {
		return fmt.Errorf("hydrate session: %w", err)
	}
	c.Session = manager

	c.Location = p.Location
	if c.Location == nil {
		c.Location = nav.NewLocation("/")
	}

	var limiter *rate.Limiter
	if cfg.API.RateLimitRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.API.RateLimitRPS), cfg.API.RateLimitBurst)
	}
	c.API, err = httpclient.New(httpclient.Params{
		BaseURL:    cfg.API.BaseURL,
		Timeout:    cfg.API.RequestTimeout,
		UserAgent:  cfg.API.UserAgent,
		LoginPath:  cfg.API.LoginPath,
		Session:    manager,
		Navigator:  c.Location,
		Limiter:    limiter,
		Metrics:    metrics.NewRequestMetrics(p.Registerer),
		Logger:     logg,
		HTTPClient: p.HTTPClient,
	})
	if err != nil {
		return fmt.Errorf("http client: %w", err)
	}

	c.Cache = querycache.New(querycache.DefaultInvalidations(), logg)
	manager.OnChange(func(bool) { c.Cache.Reset(context.Background()) })

	if c.Cart, err = cart.NewStore(ctx, c.Storage, logg); err != nil {
		return err
	}
	if c.Products, err = products.NewRepository(c.API); err != nil {
		return err
	}
	if c.Publications, err = publications.NewRepository(c.API, c.Cache); err != nil {
		return err
	}

	if c.Favorites, err = favorites.NewService(favorites.ServiceParams{
		Client:    c.API,
		Cache:     c.Cache,
		Session:   manager,
		StaleTime: cfg.Cache.FavoritesStaleTime,
		Logger:    logg,
	}); err != nil {
		return err
	}
	if c.PublicationService, err = publications.NewService(publications.ServiceParams{
		Client:    c.API,
		Cache:     c.Cache,
		Navigator: c.Location,
		Limits: publications.Limits{
			MaxImages:     cfg.Publication.MaxImages,
			MaxImageBytes: cfg.Publication.MaxImageBytes,
		},
		RedirectDelay: cfg.Publication.RedirectDelay,
		Logger:        logg,
	}); err != nil {
		return err
	}
	if c.Ratings, err = ratings.NewService(ratings.ServiceParams{
		Client:    c.API,
		Cache:     c.Cache,
		StaleTime: cfg.Cache.RatingsStaleTime,
		Logger:    logg,
	}); err != nil {
		return err
	}
	if c.Auth, err = auth.NewService(auth.ServiceParams{
		Client:    c.API,
		Session:   manager,
		Navigator: c.Location,
		LoginPath: cfg.API.LoginPath,
		Logger:    logg,
	}); err != nil {
		return err
	}

	feedMetrics := metrics.NewFeedMetrics(p.Registerer)
	feedOpts := func(name string, key querycache.Key) feed.Options {
		return feed.Options{
			Name:     name,
			PageSize: cfg.Feed.PageSize,
			Key:      key,
			Cache:    c.Cache,
			Metrics:  feedMetrics,
			Logger:   logg,
		}
	}
	c.Feeds = Feeds{
		Products:       feed.New[products.Product](c.Products.List, feedOpts(FeedProducts, querycache.KeyProducts)),
		Publications:   feed.New[publications.Publication](c.Publications.List, feedOpts(FeedPublications, querycache.KeyPublications)),
		MyPublications: feed.New[publications.Publication](c.Publications.ListMine, feedOpts(FeedMyPublications, querycache.KeyMyPublications)),
	}
	return nil
}

// Close detaches the feeds, cancels pending navigations and releases storage.
func (c *Container) Close() error {
	if c == nil {
		return nil
	}
	if c.Feeds.Products != nil {
		c.Feeds.Products.Close()
	}
	if c.Feeds.Publications != nil {
		c.Feeds.Publications.Close()
	}
	if c.Feeds.MyPublications != nil {
		c.Feeds.MyPublications.Close()
	}
	if c.Location != nil {
		c.Location.Stop()
	}

	var err error
	if c.ownsStorage {
		if closer, ok := c.Storage.(kv.Closer); ok {
			err = multierr.Append(err, closer.Close())
		}
	}
	return err
}
