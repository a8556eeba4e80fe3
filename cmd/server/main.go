package main // Entry point package

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/Luca901-rgb/celiaco-table-booking-sub000/internal/config"
	"github.com/Luca901-rgb/celiaco-table-booking-sub000/internal/database"
	"github.com/Luca901-rgb/celiaco-table-booking-sub000/internal/handler"
	"github.com/Luca901-rgb/celiaco-table-booking-sub000/internal/middleware"
	"github.com/Luca901-rgb/celiaco-table-booking-sub000/internal/notify"
	"github.com/Luca901-rgb/celiaco-table-booking-sub000/internal/qrtoken"
	"github.com/Luca901-rgb/celiaco-table-booking-sub000/internal/queue"
	"github.com/Luca901-rgb/celiaco-table-booking-sub000/internal/realtime"
	"github.com/Luca901-rgb/celiaco-table-booking-sub000/internal/repository"
	"github.com/Luca901-rgb/celiaco-table-booking-sub000/internal/router"
	"github.com/Luca901-rgb/celiaco-table-booking-sub000/internal/service"
	"github.com/Luca901-rgb/celiaco-table-booking-sub000/internal/worker"
)

func setupLogging(cfg config.Config) {
	if cfg.IsDev() {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}
	lvl, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logrus.Warnf("unknown LOG_LEVEL %q, using info", cfg.LogLevel)
		lvl = logrus.InfoLevel
	}
	logrus.SetLevel(lvl)
}

func main() {
	cfg := config.Load()
	setupLogging(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		logrus.WithError(err).Fatal("database connection failed")
	}
	defer db.Close()
	if err := database.Migrate(ctx, db); err != nil {
		logrus.WithError(err).Fatal("database migration failed")
	}

	rdb := config.NewRedisClient(config.LoadRedisConfig()) // nil when redis is unreachable
	if rdb != nil {
		defer rdb.Close()
	}

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	bookings := repository.NewBookingRepo(db)
	restaurants := repository.NewRestaurantRepo(db)
	reviews := repository.NewReviewRepo(db)
	menu := repository.NewMenuRepo(db)
	favorites := repository.NewFavoriteRepo(db)
	notifications := repository.NewNotificationRepo(db)
	payments := repository.NewPaymentRepo(db)

	// Notifications are stored and pushed in-process unless a broker is
	// configured, in which case services publish and a consumer delivers.
	hub := realtime.NewHub(32)
	direct := notify.NewDirect(notifications, hub)
	var notifier notify.Dispatcher = direct
	if cfg.RabbitURL != "" {
		pub := queue.NewPublisher(cfg.RabbitURL)
		defer pub.Close()
		notifier = pub
		consumer := queue.NewConsumer(cfg.RabbitURL, direct)
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logrus.WithError(err).Error("notification consumer stopped")
			}
		}()
		logrus.Info("notifications dispatched through rabbitmq")
	}

	bookingSvc := service.NewBookingService(bookings, users, restaurants, qrtoken.NewIssuer(cfg.QRSecret), notifier,
		service.BookingOptions{MaxGuests: cfg.MaxGuests, Location: cfg.TimeZone})
	reviewSvc := service.NewReviewService(bookings, reviews, restaurants, notifier, nil)
	restaurantSvc := service.NewRestaurantService(restaurants)
	menuSvc := service.NewMenuService(menu, restaurants)
	favoriteSvc := service.NewFavoriteService(favorites, restaurants)
	notificationSvc := service.NewNotificationService(notifications)
	adminSvc := service.NewAdminService(payments, bookings, restaurants, nil)

	if cfg.Expiry.Enabled {
		w := worker.NewPendingExpiryWorker(bookingSvc, cfg.Expiry.Interval, cfg.Expiry.Grace, 0)
		go w.Start(ctx)
	}

	cache := middleware.NewResponseCache(config.LoadCacheConfig(), rdb)
	ready := map[string]handler.Pinger{"mysql": db}
	if rdb != nil {
		ready["redis"] = handler.PingFunc(func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.RequestLogger())
	e.Use(middleware.Recover())
	router.Register(e, router.Deps{
		JWTSecret:   cfg.JWTSecret,
		RateLimit:   middleware.RateLimit(config.LoadRateLimitConfig(), rdb, cfg.JWTSecret),
		Cache:       cache.Middleware(),
		Ready:       handler.Ready(ready),
		Auth:        handler.NewAuthHandler(cfg, users, tokens),
		Bookings:    handler.NewBookingHandler(bookingSvc, reviewSvc, cache),
		Restaurants: handler.NewRestaurantHandler(restaurantSvc, menuSvc, reviewSvc, cache),
		Account:     handler.NewAccountHandler(favoriteSvc, notificationSvc),
		Admin:       handler.NewAdminHandler(adminSvc, reviewSvc, cache),
		WS:          handler.NewWSHandler(hub, cfg.WSOrigins),
	})

	addr := ":" + cfg.Port
	go func() {
		logrus.WithFields(logrus.Fields{"addr": addr, "env": cfg.Env}).Info("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Fatal("server failed")
		}
	}()

	<-ctx.Done()
	logrus.Info("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Error("graceful shutdown failed")
	}
}
