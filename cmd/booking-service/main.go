package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"ms-booking/internal/booking"
	"ms-booking/internal/booking/api"
	"ms-booking/internal/booking/db"
	"ms-booking/internal/config"
	"ms-booking/internal/inventory"
	kafkawrap "ms-booking/internal/kafka"
	"ms-booking/internal/logger"
	"ms-booking/internal/payment"
	"ms-booking/internal/settlement"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	log := logger.New("booking-service")
	defer log.Close()

	ctx := context.Background()

	// --- PostgreSQL Setup ---
	dsn := "postgres://" + cfg.Database.Username + ":" + cfg.Database.Password +
		"@" + cfg.Database.Host + ":" + cfg.Database.Port + "/" + cfg.Database.Database + "?sslmode=disable"
	connector := pgdriver.NewConnector(pgdriver.WithDSN(dsn))
	sqldb := sql.OpenDB(connector)
	sqldb.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqldb.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqldb.SetConnMaxLifetime(cfg.Database.MaxLifetime)
	defer sqldb.Close()

	if err := sqldb.Ping(); err != nil {
		log.Fatal("DATABASE", "Failed to connect to Postgres: "+err.Error())
	}

	bunDB := bun.NewDB(sqldb, pgdialect.New())
	db.Migrate(bunDB)
	ledger := &db.DB{Bun: bunDB}

	// --- Redis Setup ---
	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.Redis.Addr,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatal("REDIS", "Failed to connect to Redis: "+err.Error())
	}

	// --- Kafka Setup ---
	topics := []string{cfg.Kafka.Topics.BookingEvents, cfg.Kafka.Topics.DeadLetter}
	if err := kafkawrap.EnsureTopicsExist(cfg.Kafka.Brokers, topics); err != nil {
		log.Warn("KAFKA", "Failed to ensure topics exist: "+err.Error())
	}
	producer := kafkawrap.NewProducer(cfg.Kafka.Brokers)
	defer producer.Close()

	// --- Collaborators ---
	inv := inventory.NewRedisInventory(redisClient)

	var authorizer booking.PaymentAuthorizer
	switch cfg.Payment.Mode {
	case "stripe":
		authorizer = payment.NewStripeAuthorizer(cfg.Payment.StripeKey)
		log.Info("PAYMENT", "Using Stripe payment authorizer")
	default:
		authorizer = payment.NewHTTPAuthorizer(cfg.Payment.ServiceURL, cfg.Booking.CallTimeout)
		log.Info("PAYMENT", "Using payment service at "+cfg.Payment.ServiceURL)
	}

	bookingSvc := booking.NewBookingService(ledger, inv, authorizer, producer, cfg.Kafka.Topics.BookingEvents, cfg.Booking, log)
	settlementSvc := settlement.NewSettlementService(
		ledger,
		settlement.NewRedisLock(redisClient, cfg.Booking.SettlementLockTTL),
		cfg.Booking.UnitPrice,
		log,
	)

	handler := api.NewHandler(bookingSvc, settlementSvc, log)

	// --- Setup Router ---
	r := chi.NewRouter()
	handler.Routes(r)

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("SERVER", "Booking service running on "+cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("SERVER", "HTTP server error: "+err.Error())
		}
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("SERVER", "Shutdown signal received, cleaning up")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Fatal("SERVER", "Server forced to shutdown: "+err.Error())
	}

	log.Info("SERVER", "Server exited gracefully")
}
