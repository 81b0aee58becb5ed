package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/hotel-booking/internal/booking"
	"github.com/iliyamo/hotel-booking/internal/config"
	"github.com/iliyamo/hotel-booking/internal/database"
	"github.com/iliyamo/hotel-booking/internal/handler"
	"github.com/iliyamo/hotel-booking/internal/logger"
	"github.com/iliyamo/hotel-booking/internal/middleware"
	"github.com/iliyamo/hotel-booking/internal/queue"
	"github.com/iliyamo/hotel-booking/internal/repository"
	"github.com/iliyamo/hotel-booking/internal/router"
	"github.com/iliyamo/hotel-booking/internal/service"
	"github.com/iliyamo/hotel-booking/internal/session"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()
	log := logger.New(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.WithError(err).Fatal("open database")
	}
	defer db.Close()
	if cfg.DBAutoMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			log.WithError(err).Fatal("migrate database")
		}
	}

	// Without Redis, selections live in process and caching and rate
	// limiting are off.
	rdb := config.NewRedisClient(config.LoadRedisConfig())
	var selections booking.SelectionStore
	if rdb == nil {
		log.Warn("redis unavailable; using in-memory selections")
		selections = session.NewMemoryStore(time.Now)
	} else {
		defer rdb.Close()
		selections = session.NewRedisStore(rdb, cfg.Booking.SelectionPrefix)
	}

	events := service.NewEventPublisher(cfg.Events.URL, cfg.Events.Enabled, log)
	defer events.Close()
	if cfg.Events.Enabled {
		consumer := queue.NewConsumer(cfg.Events.URL, cfg.Events.ConsumerLog, log)
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.WithError(err).Error("booking event consumer stopped")
			}
		}()
	}

	customers := repository.NewCustomerRepo(db)
	phones := repository.NewPhoneRepo(db)
	tokens := repository.NewTokenRepo(db)
	hotels := repository.NewHotelRepo(db)
	rooms := repository.NewRoomRepo(db)
	offers := repository.NewOfferRepo(db)
	reviews := repository.NewReviewRepo(db)
	bookings := repository.NewBookingRepo(db)

	svc := booking.NewService(
		repository.NewBookingStore(db, cfg.Booking.TxRetries, log),
		selections,
		booking.Options{
			SelectionTTL: cfg.Booking.SelectionTTL,
			PaymentMode:  cfg.Booking.PaymentMode,
			Logger:       log,
			Publisher:    events,
		},
	)

	purge := func(ctx context.Context) error {
		return middleware.PurgeCache(ctx, cfg.Cache, rdb)
	}
	hotelH := handler.NewHotelHandler(hotels, rooms, offers, reviews, log)
	hotelH.Purge = purge
	staffH := handler.NewStaffHandler(hotels, rooms, offers, bookings, purge, log)

	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewRequestValidator()
	e.HTTPErrorHandler = handler.ErrorHandler(log)
	e.Use(middleware.RequestLog(log))
	e.Use(echomw.Recover())
	e.Use(middleware.NewTokenBucket(cfg.RateLimit, rdb, log))

	router.RegisterRoutes(e, db)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, customers, tokens, phones, log), cfg.JWTSecret)
	router.RegisterPublic(e, hotelH, middleware.NewRedisCache(cfg.Cache, rdb, log))
	router.RegisterCustomer(e, router.CustomerHandlers{
		Hotels:   hotelH,
		Bookings: handler.NewBookingHandler(svc, bookings, cfg.Booking.RequestTimeout, log),
		Profile:  handler.NewProfileHandler(customers, phones, tokens, log),
	}, cfg.JWTSecret, middleware.NewTokenBucket(cfg.RateLimit.Checkout(), rdb, log))
	router.RegisterStaff(e, staffH, cfg.JWTSecret)

	go func() {
		addr := ":" + cfg.Port
		log.WithFields(logrus.Fields{"addr": addr, "env": cfg.Env}).Info("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server stopped")
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
	}
}
