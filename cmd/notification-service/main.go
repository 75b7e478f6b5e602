package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"ms-booking/internal/config"
	kafkawrap "ms-booking/internal/kafka"
	"ms-booking/internal/logger"
	"ms-booking/internal/notification"
)

const maxDeliveryAttempts = 3

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	log := logger.New("notification-service")
	defer log.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// --- MongoDB Setup ---
	connectCtx, connectCancel := context.WithTimeout(ctx, 10*time.Second)
	mongoClient, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.Mongo.URI))
	connectCancel()
	if err != nil {
		log.Fatal("MONGO", "Failed to connect to MongoDB: "+err.Error())
	}
	defer mongoClient.Disconnect(context.Background())

	if err := mongoClient.Ping(ctx, nil); err != nil {
		log.Fatal("MONGO", "Failed to ping MongoDB: "+err.Error())
	}
	store := notification.NewMongoStore(mongoClient, cfg.Mongo.Database, cfg.Mongo.Collection)

	// --- Kafka Setup ---
	topics := []string{cfg.Kafka.Topics.BookingEvents, cfg.Kafka.Topics.DeadLetter}
	if err := kafkawrap.EnsureTopicsExist(cfg.Kafka.Brokers, topics); err != nil {
		log.Warn("KAFKA", "Failed to ensure topics exist: "+err.Error())
	}

	consumer := kafkawrap.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.Topics.BookingEvents, cfg.Kafka.GroupID)
	defer consumer.Close()

	producer := kafkawrap.NewProducer(cfg.Kafka.Brokers)
	defer producer.Close()

	worker := notification.NewConsumer(consumer, store, producer, cfg.Kafka.Topics.DeadLetter, maxDeliveryAttempts, log)

	done := make(chan error, 1)
	go func() {
		done <- worker.Run(ctx)
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		log.Info("CONSUMER", "Shutdown signal received, stopping consumer")
		cancel()
		<-done
	case err := <-done:
		if err != nil {
			log.Fatal("CONSUMER", "Consumer stopped with error: "+err.Error())
		}
	}

	log.Info("CONSUMER", "Notification service exited gracefully")
}
