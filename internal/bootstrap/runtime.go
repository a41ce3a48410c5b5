// Package bootstrap assembles the client runtime from configuration.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"slurpsocial/internal/apiclient"
	"slurpsocial/internal/cache"
	"slurpsocial/internal/config"
	"slurpsocial/internal/events"
	"slurpsocial/internal/imagecache"
	"slurpsocial/internal/models"
	"slurpsocial/internal/observability"
	"slurpsocial/internal/search"
	"slurpsocial/internal/service"
	"slurpsocial/internal/session"
	"slurpsocial/internal/store"

	"github.com/redis/go-redis/v9"
)

// Version is reported in traces.
var Version = "dev"

// Runtime holds every wired component of the client.
type Runtime struct {
	Config   *config.Config
	Store    store.Store
	Redis    *redis.Client
	Session  *session.Session
	Client   *apiclient.Client
	Bus      *events.Bus
	Notifier *events.Notifier
	Auth     *service.AuthService
	Posts    *service.PostService
	Comments *service.CommentService
	Blocking *service.BlockingPosts
	Images   *imagecache.Cache

	cancel          context.CancelFunc
	shutdownTracing func(context.Context) error
}

// InitRuntime configures logging and tracing, opens the session store,
// restores any saved session, and wires the services.
func InitRuntime(ctx context.Context, cfg *config.Config) (*Runtime, error) {
	observability.SetGlobalLogger(observability.NewLogger(os.Stderr, cfg.LogLevel))

	shutdownTracing, err := observability.InitTracing(observability.TracingConfig{
		ServiceName:    "slurp-client",
		ServiceVersion: Version,
		Environment:    cfg.Env,
		Enabled:        cfg.TracingEnabled,
		Exporter:       cfg.TracingExporter,
		OTLPEndpoint:   cfg.OTLPEndpoint,
	})
	if err != nil {
		return nil, fmt.Errorf("tracing init failed: %w", err)
	}

	rt := &Runtime{Config: cfg, shutdownTracing: shutdownTracing}
	if err := rt.connect(ctx); err != nil {
		_ = rt.Close(ctx)
		return nil, err
	}
	return rt, nil
}

func (rt *Runtime) connect(ctx context.Context) error {
	cfg := rt.Config

	// Redis is optional unless it backs the session.
	if cfg.RedisURL != "" {
		rdb, err := cache.Connect(ctx, cfg.RedisURL)
		switch {
		case err == nil:
			rt.Redis = rdb
		case cfg.SessionStore == config.StoreRedis:
			return fmt.Errorf("redis connection failed: %w", err)
		default:
			observability.GlobalLogger.WarnContext(ctx, "redis unavailable, continuing without it",
				slog.String("error", err.Error()))
		}
	}

	st, err := openStore(cfg, rt.Redis)
	if err != nil {
		return err
	}
	rt.Store = st

	rt.Session = session.New(st)
	if err := rt.Session.Restore(ctx); err != nil {
		return fmt.Errorf("session restore failed: %w", err)
	}

	rt.Client = apiclient.NewClient(apiclient.Options{
		BaseURL:           cfg.APIBaseURL,
		Timeout:           cfg.RequestTimeout(),
		RequestsPerSecond: cfg.RequestsPerSecond,
	}, rt.Session)

	bgCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	rt.cancel = cancel

	rt.Bus = events.NewBus()
	rt.Notifier = events.NewNotifier(rt.Redis, rt.Bus)
	if err := rt.Notifier.Start(bgCtx); err != nil {
		observability.GlobalLogger.WarnContext(ctx, "event bridge disabled",
			slog.String("error", err.Error()))
	}

	rt.Auth = service.NewAuthService(rt.Client, rt.Session, rt.Bus)
	rt.Posts = service.NewPostService(rt.Client, rt.Session, rt.Bus, rt.Auth)
	rt.Comments = service.NewCommentService(rt.Client, rt.Session)
	rt.Blocking = service.NewBlockingPosts(rt.Posts, service.DefaultBlockingWait)

	rt.Images = imagecache.New(rt.Client, imagecache.Options{
		Capacity: cfg.ImageCacheSize,
		L2:       cache.New(rt.Redis, imagecache.RedisPrefix),
		L2TTL:    cfg.ImageCacheTTL(),
	})
	rt.Images.Watch(bgCtx, rt.Bus)
	return nil
}

func openStore(cfg *config.Config, rdb *redis.Client) (store.Store, error) {
	switch cfg.SessionStore {
	case config.StoreMemory:
		return store.NewMemoryStore(), nil
	case config.StoreRedis:
		if rdb == nil {
			return nil, errors.New("redis session store requires REDIS_URL")
		}
		return store.NewRedisStore(rdb, store.DefaultRedisPrefix), nil
	default:
		st, err := store.OpenSQLite(cfg.SessionDBPath)
		if err != nil {
			return nil, fmt.Errorf("session store open failed: %w", err)
		}
		return st, nil
	}
}

// NewSearcher returns a type-ahead searcher over the post repository.
func (rt *Runtime) NewSearcher(deliver func(search.Result)) *search.Searcher {
	return search.New(func(ctx context.Context, query string) ([]models.Post, error) {
		return rt.Posts.Search(ctx, query, service.DefaultPageLimit, 0)
	}, search.DefaultDebounce, deliver)
}

// Close waits for background auth calls, then releases every resource.
func (rt *Runtime) Close(ctx context.Context) error {
	var errs []error
	if rt.Auth != nil {
		if err := rt.Auth.Drain(ctx); err != nil {
			errs = append(errs, fmt.Errorf("drain auth calls: %w", err))
		}
	}
	if rt.cancel != nil {
		rt.cancel()
	}
	if rt.Store != nil {
		if err := rt.Store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close store: %w", err))
		}
	}
	if rt.Redis != nil {
		if err := rt.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
	}
	if rt.shutdownTracing != nil {
		if err := rt.shutdownTracing(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown tracing: %w", err))
		}
	}
	return errors.Join(errs...)
}
