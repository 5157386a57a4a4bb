package main // Entry point package

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/skybook/flight-reservation/internal/config"
	"github.com/skybook/flight-reservation/internal/database"
	"github.com/skybook/flight-reservation/internal/handler"
	"github.com/skybook/flight-reservation/internal/ledger"
	"github.com/skybook/flight-reservation/internal/middleware"
	"github.com/skybook/flight-reservation/internal/queue"
	"github.com/skybook/flight-reservation/internal/repository"
	"github.com/skybook/flight-reservation/internal/router"
)

func main() {
	// .env is optional; real deployments set variables directly.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Redis backs the response cache and the rate limiter. A nil client
	// disables both without failing startup.
	rdb := config.NewRedisClient()

	airlineRepo := repository.NewAirlineRepo(db)
	flightRepo := repository.NewFlightRepo(db)
	seatRepo := repository.NewSeatRepo(db)
	reservationRepo := repository.NewReservationRepo(db)
	userRepo := repository.NewUserRepo(db)
	tokenRepo := repository.NewTokenRepo(db)
	contactRepo := repository.NewContactRepo(db)

	lg := ledger.New(repository.NewFlightStore(db))

	e := echo.New()
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, userRepo, tokenRepo), cfg.JWTSecret)
	router.RegisterBrowse(e,
		handler.NewBrowseHandler(airlineRepo, flightRepo, seatRepo),
		middleware.NewRedisCache(config.LoadCacheConfig(), rdb))
	router.RegisterReservations(e,
		handler.NewReservationHandler(lg, flightRepo, seatRepo, reservationRepo, userRepo),
		cfg.JWTSecret)
	router.RegisterCatalog(e, handler.NewCatalogHandler(airlineRepo, flightRepo, seatRepo), cfg.JWTSecret)
	router.RegisterSupport(e, handler.NewContactHandler(contactRepo), handler.NewPaymentHandler(), cfg.JWTSecret)

	// Email notifications are consumed in the background; the consumer
	// reconnects on broker failures and never takes the API down.
	go func() {
		if err := queue.StartNotificationConsumer(); err != nil {
			log.Printf("notification consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
