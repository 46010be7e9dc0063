package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/dungdata/dungdata-backend/api/controllers"
	"github.com/dungdata/dungdata-backend/api/routes"
	"github.com/dungdata/dungdata-backend/internal/auth"
	"github.com/dungdata/dungdata-backend/internal/cart"
	"github.com/dungdata/dungdata-backend/internal/categories"
	"github.com/dungdata/dungdata-backend/internal/checkout"
	"github.com/dungdata/dungdata-backend/internal/media"
	"github.com/dungdata/dungdata-backend/internal/messages"
	"github.com/dungdata/dungdata-backend/internal/orders"
	"github.com/dungdata/dungdata-backend/internal/posts"
	"github.com/dungdata/dungdata-backend/internal/settings"
	"github.com/dungdata/dungdata-backend/internal/stats"
	"github.com/dungdata/dungdata-backend/internal/users"
	"github.com/dungdata/dungdata-backend/pkg/auth/session"
	"github.com/dungdata/dungdata-backend/pkg/config"
	"github.com/dungdata/dungdata-backend/pkg/db"
	"github.com/dungdata/dungdata-backend/pkg/logger"
	"github.com/dungdata/dungdata-backend/pkg/metrics"
	"github.com/dungdata/dungdata-backend/pkg/migrate"
	"github.com/dungdata/dungdata-backend/pkg/pubsub"
	"github.com/dungdata/dungdata-backend/pkg/qr"
	"github.com/dungdata/dungdata-backend/pkg/redis"
	"github.com/dungdata/dungdata-backend/pkg/storage/gcs"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	gcsClient, err := gcs.NewClient(context.Background(), cfg.GCS, cfg.GCP, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap gcs", err)
		os.Exit(1)
	}
	defer func() {
		if err := gcsClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing gcs", err)
		}
	}()

	// Pub/Sub is optional. Without it media deletions run synchronously.
	var pubsubClient *pubsub.Client
	if cfg.GCP.ProjectID != "" && cfg.PubSub.MediaDeletionTopic != "" {
		pubsubClient, err = pubsub.NewClient(context.Background(), cfg.GCP, cfg.PubSub, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap pubsub", err)
			os.Exit(1)
		}
		defer func() {
			if err := pubsubClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing pubsub", err)
			}
		}()
	}

	qrBuilder, err := qr.NewBuilder(cfg.Payment)
	if err != nil {
		logg.Error(context.Background(), "failed to configure payment qr builder", err)
		os.Exit(1)
	}

	conn := dbClient.DB()
	userRepo := users.NewRepository(conn)
	postRepo := posts.NewRepository(conn)
	categoryRepo := categories.NewRepository(conn)
	cartRepo := cart.NewRepository(conn)
	orderRepo := orders.NewRepository(conn)
	messageRepo := messages.NewRepository(conn)
	mediaRepo := media.NewRepository(conn)
	settingRepo := settings.NewRepository(conn)

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       userRepo,
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
	})
	requireService(logg, "auth", err)

	var mediaPublisher media.Publisher
	if pubsubClient != nil {
		mediaPublisher, err = media.NewPubSubPublisher(pubsubClient.MediaDeletionPublisher())
		requireService(logg, "media publisher", err)
	}
	mediaService, err := media.NewService(media.ServiceParams{
		Repo:      mediaRepo,
		Storage:   gcsClient,
		Publisher: mediaPublisher,
		Config:    cfg.Media,
	})
	requireService(logg, "media", err)

	postService, err := posts.NewServiceWithAssets(postRepo, mediaService, logg)
	requireService(logg, "posts", err)

	categoryService, err := categories.NewService(categoryRepo)
	requireService(logg, "categories", err)

	cartService, err := cart.NewService(cart.ServiceParams{
		Repo:  cartRepo,
		Posts: postRepo,
		DB:    dbClient,
	})
	requireService(logg, "cart", err)

	checkoutService, err := checkout.NewService(checkout.ServiceParams{
		Carts:  cartRepo,
		Orders: orderRepo,
		Posts:  postRepo,
		DB:     dbClient,
		QR:     qrBuilder,
	})
	requireService(logg, "checkout", err)

	orderService, err := orders.NewService(orders.ServiceParams{
		Repo:  orderRepo,
		Carts: cartRepo,
		DB:    dbClient,
	})
	requireService(logg, "orders", err)

	messageService, err := messages.NewService(messageRepo)
	requireService(logg, "messages", err)

	userService, err := users.NewService(userRepo)
	requireService(logg, "users", err)

	settingService, err := settings.NewService(settingRepo)
	requireService(logg, "settings", err)

	statsService, err := stats.NewService(stats.ServiceParams{
		Users:    userRepo,
		Posts:    postRepo,
		Orders:   orderRepo,
		Messages: messageRepo,
	})
	requireService(logg, "stats", err)

	healthDeps := map[string]controllers.Pinger{
		"database": dbClient,
		"redis":    redisClient,
		"gcs":      gcsClient,
	}
	if pubsubClient != nil {
		healthDeps["pubsub"] = pubsubClient
	}

	handler := routes.NewRouter(routes.RouterParams{
		Config:          cfg,
		Logger:          logg,
		Redis:           redisClient,
		Session:         sessionManager,
		HTTPMetrics:     metrics.NewHTTPMetrics(prometheus.DefaultRegisterer),
		HealthDeps:      healthDeps,
		AuthService:     authService,
		PostService:     postService,
		CategoryService: categoryService,
		CartService:     cartService,
		CheckoutService: checkoutService,
		OrderService:    orderService,
		MessageService:  messageService,
		MediaService:    mediaService,
		UserService:     userService,
		SettingService:  settingService,
		StatsService:    statsService,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	shutdownCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	go func() {
		<-shutdownCtx.Done()
		drainCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(drainCtx); err != nil {
			logg.Error(ctx, "error during server shutdown", err)
		}
	}()

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "api server stopped")
}

func requireService(logg *logger.Logger, name string, err error) {
	if err == nil {
		return
	}
	logg.Error(context.Background(), "failed to create "+name+" service", err)
	os.Exit(1)
}
