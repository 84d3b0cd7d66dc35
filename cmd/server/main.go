package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/iliyamo/eventica/internal/account"
	"github.com/iliyamo/eventica/internal/catalog"
	"github.com/iliyamo/eventica/internal/config"
	"github.com/iliyamo/eventica/internal/database"
	"github.com/iliyamo/eventica/internal/handler"
	"github.com/iliyamo/eventica/internal/logger"
	"github.com/iliyamo/eventica/internal/mailer"
	"github.com/iliyamo/eventica/internal/middleware"
	"github.com/iliyamo/eventica/internal/queue"
	"github.com/iliyamo/eventica/internal/rating"
	"github.com/iliyamo/eventica/internal/repository"
	"github.com/iliyamo/eventica/internal/router"
	"github.com/iliyamo/eventica/internal/scheduler"
	"github.com/iliyamo/eventica/internal/seed"
	"github.com/iliyamo/eventica/internal/service"
)

func main() {
	_ = godotenv.Load() // .env is optional; real env wins
	cfg := config.Load()
	log := logger.New(cfg.Env)
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatal("database", zap.String("driver", cfg.DBDriver), zap.Error(err))
	}
	defer func() { _ = db.Close() }()

	// Redis is optional: without it the cache and limiters pass through and
	// local reviews live in memory.
	var rdb *redis.Client
	if rdb, err = config.NewRedisClient(config.LoadRedisConfig()); err != nil {
		log.Warn("redis unavailable; cache, rate limiting and shared local reviews disabled", zap.Error(err))
		rdb = nil
	} else {
		defer func() { _ = rdb.Close() }()
	}
	var kv rating.KV = rating.NewMemoryKV()
	if rdb != nil {
		kv = rating.NewRedisKV(rdb)
	}

	var static []catalog.Event
	if cfg.EventsFile != "" {
		if static, err = seed.LoadFile(cfg.EventsFile); err != nil {
			log.Fatal("events file", zap.String("path", cfg.EventsFile), zap.Error(err))
		}
		log.Info("static events loaded", zap.Int("count", len(static)))
	}

	mail := mailer.New(cfg.Mail, log.Named("mailer"))
	otp := &service.OTPDispatcher{Mailer: mail, Log: log.Named("otp")}
	notify := &service.ReviewNotifier{Log: log.Named("reviews")}
	if cfg.RabbitURL != "" {
		pub := &service.Publisher{URL: cfg.RabbitURL, Log: log.Named("rabbitmq")}
		otp.Queue = pub
		notify.Queue = pub
		consumer := &queue.Consumer{URL: cfg.RabbitURL, Mailer: mail, Log: log.Named("queue-consumer"), LogDir: cfg.ReviewLogDir}
		go consumer.Run(ctx)
	}

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	events := repository.NewEventRepo(db)
	accounts := account.NewService(users, tokens, otp, account.Options{
		OTPTTL:         cfg.OTPTTL,
		JWTSecret:      cfg.JWTSecret,
		AccessTTLMin:   cfg.AccessTTLMin,
		RefreshTTLDays: cfg.RefreshTTLDays,
		BcryptCost:     cfg.BcryptCost,
	})
	reviews := rating.NewService(repository.NewReviewRepo(db), notify)
	local := rating.NewLocalStore(kv, "local_reviews")

	sched, err := scheduler.New(cfg.OTPPurgeCron, accounts, log.Named("scheduler"))
	if err != nil {
		log.Fatal("scheduler", zap.Error(err))
	}
	sched.Start()

	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(echomw.BodyLimit("16K"))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("request_id", v.RequestID),
			}
			if v.Error != nil {
				log.Error("request", append(fields, zap.Error(v.Error))...)
				return nil
			}
			log.Info("request", fields...)
			return nil
		},
	}))
	e.Use(middleware.Metrics())
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, log.Named("ratelimit")))
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	cacheCfg := config.LoadCacheConfig()
	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(accounts, log.Named("auth")), cfg.JWTSecret,
		middleware.NewTokenBucket(config.LoadOTPRateLimitConfig(), rdb, log.Named("ratelimit")))
	router.RegisterEvents(e,
		handler.NewEventHandler(events, static, local, rdb, cacheCfg.Prefix, cfg.PublicURL, log.Named("events")),
		handler.NewReviewHandler(reviews, local, rdb, cacheCfg.Prefix, log.Named("reviews")),
		cfg.JWTSecret,
		accounts,
		middleware.NewRedisCache(cacheCfg, rdb))
	router.RegisterProfile(e, handler.NewProfileHandler(accounts, events, log.Named("profile")), cfg.JWTSecret, accounts)

	addr := ":" + cfg.Port
	go func() {
		log.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env), zap.String("version", config.Version))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown", zap.Error(err))
	}
	sched.Stop(shutdownCtx)
}
