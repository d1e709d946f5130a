package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"umbfest-ticketing/internal/config"
	"umbfest-ticketing/internal/kafka"
	"umbfest-ticketing/internal/logger"
	"umbfest-ticketing/internal/notifier"
	"umbfest-ticketing/internal/order"
	orderdb "umbfest-ticketing/internal/order/db"
	"umbfest-ticketing/internal/order/order_api"
	rediswrap "umbfest-ticketing/internal/order/redis"
	"umbfest-ticketing/internal/proofstore"
	ticketdb "umbfest-ticketing/internal/tickets/db"
	"umbfest-ticketing/internal/tickets/qrgen"
	tickets "umbfest-ticketing/internal/tickets/service"
	"umbfest-ticketing/internal/tickets/ticket_api"
	"umbfest-ticketing/internal/worker"
)

func main() {
	_ = godotenv.Load() // Loads .env file if present

	cfg := config.Load()
	log := logger.NewLogger()
	defer log.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// --- PostgreSQL Setup ---
	sqldb, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to open Postgres: %v", err))
	}
	defer sqldb.Close()
	sqldb.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqldb.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqldb.SetConnMaxLifetime(cfg.Database.MaxLifetime)

	if err := sqldb.Ping(); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to connect to Postgres: %v", err))
	}
	log.Info("DATABASE", "Postgres connection successful")

	bunDB := bun.NewDB(sqldb, pgdialect.New())
	orderdb.Migrate(bunDB, log)

	// --- Redis Setup (decision lock) ---
	var decisionLock order.DecisionLock
	if cfg.Redis.Enabled {
		redisClient := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Fatal("REDIS", fmt.Sprintf("Failed to connect to Redis: %v", err))
		}
		log.Info("REDIS", "Redis connection successful")
		decisionLock = rediswrap.NewRedis(redisClient)
	} else {
		log.Debug("REDIS", "decision lock disabled, relying on the transactional guard")
	}

	// --- Kafka Setup (lifecycle events) ---
	var producer *kafka.Producer
	if cfg.Kafka.Enabled {
		topics := []string{cfg.Kafka.Topics.OrderEvents, cfg.Kafka.Topics.TicketEvents}
		if err := kafka.EnsureTopicsExist(cfg.Kafka.Brokers, topics); err != nil {
			log.Warn("KAFKA", fmt.Sprintf("Failed to ensure topics: %v", err))
		}
		producer = kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topics.OrderEvents, cfg.Kafka.Topics.TicketEvents, log)
		defer producer.Close()
	} else {
		log.Debug("KAFKA", "lifecycle events disabled")
	}

	// --- Initialize Dependencies ---
	orders := &orderdb.DB{Bun: bunDB}
	ticketStore := &ticketdb.DB{Bun: bunDB}
	proofs := proofstore.NewLocalStore(cfg.Uploads.Dir, cfg.Uploads.BaseURL, cfg.Uploads.MaxBytes)
	dispatcher := notifier.NewDispatcher(cfg.Notifier.WebhookURL, cfg.Notifier.Timeout)

	var ticketEvents tickets.EventPublisher
	var orderEvents order.EventPublisher
	if producer != nil {
		ticketEvents = producer
		orderEvents = producer
	}

	ticketSvc := tickets.NewTicketService(ticketStore, orders, qrgen.NewGenerator(), ticketEvents, log)
	orderSvc := order.NewOrderService(orders, ticketSvc, dispatcher, proofs, decisionLock, orderEvents, cfg, log)

	// --- Background expiry sweep ---
	sweeper := worker.NewExpiryWorker(orderSvc, cfg.Orders.SweepInterval, log)
	go sweeper.Start(ctx)

	// --- Setup Router ---
	orderHandler := order_api.NewHandler(orderSvc, proofs, cfg.Uploads.MaxBytes, log)
	ticketHandler := ticket_api.NewHandler(ticketSvc, log)

	r := chi.NewRouter()
	r.Use(logger.RequestLogger(log))
	r.Route("/api/v1", func(r chi.Router) {
		orderHandler.Routes(r)
		ticketHandler.Routes(r)
	})

	// --- Start HTTP Server ---
	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("SERVER", fmt.Sprintf("🚀 Ticketing service on %s", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("SERVER", fmt.Sprintf("HTTP error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	cancel()
	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	_ = server.Shutdown(ctxShutdown)
	log.Info("SERVER", "✅ Ticketing service shutdown complete")
}
