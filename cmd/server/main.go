package main // Entry point package

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/campus-bus-reservation/internal/captcha"
	"github.com/iliyamo/campus-bus-reservation/internal/config"
	"github.com/iliyamo/campus-bus-reservation/internal/database"
	"github.com/iliyamo/campus-bus-reservation/internal/handler"
	"github.com/iliyamo/campus-bus-reservation/internal/middleware"
	"github.com/iliyamo/campus-bus-reservation/internal/queue"
	"github.com/iliyamo/campus-bus-reservation/internal/repository"
	"github.com/iliyamo/campus-bus-reservation/internal/router"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Redis is optional: without it the rate limiter and response cache
	// disable themselves and the captcha store runs in-process.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable; rate limiting and caching disabled, captcha in-process")
	}

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	admins := repository.NewAdminRepo(db)
	routes := repository.NewRouteRepo(db)
	buses := repository.NewBusRepo(db)
	schedules := repository.NewScheduleRepo(db)
	bookings := repository.NewBookingRepo(db)

	captchas := captcha.New(rdb)

	authH := handler.NewAuthHandler(cfg, users, tokens, captchas)
	adminAuthH := handler.NewAdminAuthHandler(cfg, admins, tokens, captchas)
	studentH := handler.NewStudentHandler(cfg, users, schedules, bookings)
	adminH := handler.NewAdminHandler(schedules, buses, routes, bookings, admins)

	e := echo.New()
	e.HideBanner = true

	// Global rate limit; the read-heavy student endpoints additionally
	// go through the response cache.
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
	cacheMW := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	router.RegisterRoutes(e)
	router.RegisterAuth(e, authH, cfg.JWTSecret)
	router.RegisterStudent(e, studentH, cfg.JWTSecret, cacheMW)
	router.RegisterAdminAuth(e, adminAuthH, cfg.JWTSecret)
	router.RegisterAdmin(e, adminH, admins, cfg.JWTSecret)

	// Background consumer appends booking events to logs/booking.log.
	go func() {
		if err := queue.StartBookingConsumer(); err != nil {
			log.Printf("booking-consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
