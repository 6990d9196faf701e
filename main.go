package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"eventhub/internal/auth"
	"eventhub/internal/clock"
	"eventhub/internal/config"
	"eventhub/internal/database/migrations"
	"eventhub/internal/event"
	event_db "eventhub/internal/event/db"
	"eventhub/internal/event/event_api"
	"eventhub/internal/kafka"
	"eventhub/internal/logger"
	"eventhub/internal/models"
	"eventhub/internal/payments"
	"eventhub/internal/registration"
	reg_db "eventhub/internal/registration/db"
	"eventhub/internal/registration/qr"
	"eventhub/internal/registration/registration_api"
	rediswrap "eventhub/internal/registration/redis"
	"eventhub/internal/utils"
	"eventhub/internal/venue"
	venue_db "eventhub/internal/venue/db"
	"eventhub/internal/venue/venue_api"
)

// ledgerDB is the slice of the registration store the lock-expiry watcher
// needs: find the stale pending row for a pair and mark it failed.
type ledgerDB interface {
	GetActiveRegistration(ctx context.Context, eventID, userID string) (*models.Registration, error)
	MarkFailed(ctx context.Context, orderID string) error
}

// subscribeLockExpiry watches Redis keyspace expiry notifications for
// registration locks. A lock that expires means a checkout was abandoned:
// the pending registration for that (event, user) pair is marked failed so
// the user can register again, and a failed event is published.
func subscribeLockExpiry(rdb *redis.Client, producer *kafka.Producer, db ledgerDB, logger *logger.Logger, kafkaBrokers []string) {
	ctx := context.Background()

	val, err := rdb.ConfigGet(ctx, "notify-keyspace-events").Result()
	if err != nil {
		logger.Error("REDIS", fmt.Sprintf("Failed to get keyspace config: %v", err))
	} else {
		logger.Info("REDIS", fmt.Sprintf("Current keyspace notifications setting: %v", val))
		if len(val) < 2 || !strings.Contains(val[1].(string), "x") || !strings.Contains(val[1].(string), "E") {
			logger.Warn("REDIS", "Keyspace notifications not properly configured for expiry events!")
		}
	}

	pubsub := rdb.PSubscribe(ctx, "__keyevent@0__:expired")
	logger.Info("REDIS", fmt.Sprintf("Subscribed to Redis keyevent expired notifications (DB %d)", rdb.Options().DB))

	go func() {
		for msg := range pubsub.Channel() {
			if !strings.HasPrefix(msg.Payload, "reg_lock:") {
				continue
			}
			parts := strings.SplitN(strings.TrimPrefix(msg.Payload, "reg_lock:"), ":", 2)
			if len(parts) != 2 {
				logger.Warn("REG_EXPIRY", fmt.Sprintf("Unexpected lock key format: %s", msg.Payload))
				continue
			}
			eventID, userID := parts[0], parts[1]
			logger.Info("REG_EXPIRY", fmt.Sprintf("Registration lock expired for event %s, user %s", eventID, userID))

			reg, err := db.GetActiveRegistration(ctx, eventID, userID)
			if err != nil {
				logger.Error("REG_EXPIRY", fmt.Sprintf("Failed to look up registration for event %s, user %s: %v", eventID, userID, err))
				continue
			}
			if reg == nil || reg.PaymentStatus != models.PaymentPending {
				continue
			}

			if err := db.MarkFailed(ctx, reg.OrderID); err != nil {
				logger.Error("REG_EXPIRY", fmt.Sprintf("Failed to mark order %s failed: %v", reg.OrderID, err))
				continue
			}
			logger.Info("REG_EXPIRY", fmt.Sprintf("Order %s marked failed after lock expiry", reg.OrderID))

			value, err := json.Marshal(models.RegistrationEvent{
				Type:         "eventhub.registration.failed",
				Registration: reg.ID,
				EventID:      reg.EventID,
				UserID:       reg.UserID,
				TicketType:   reg.TicketType,
				Status:       string(models.PaymentFailed),
				Timestamp:    time.Now().UTC(),
			})
			if err != nil {
				logger.Error("REG_EXPIRY", fmt.Sprintf("Failed to marshal expiry payload: %v", err))
				continue
			}

			if err := producer.Publish("eventhub.registration.failed", reg.OrderID, value); err != nil {
				logger.Error("REG_EXPIRY", fmt.Sprintf("Failed to publish expiry event: %v", err))
				if err := kafka.CreateTopicIfNotExists(kafkaBrokers, "eventhub.registration.failed"); err != nil {
					logger.Error("KAFKA", fmt.Sprintf("Failed to create topic: %v", err))
				} else if err := producer.Publish("eventhub.registration.failed", reg.OrderID, value); err != nil {
					logger.Error("REG_EXPIRY", fmt.Sprintf("Still failed to publish after topic creation: %v", err))
				}
			}
		}
	}()
}

func verifyConnections(ctx context.Context, cfg *config.Config, logger *logger.Logger) (*bun.DB, *redis.Client) {
	if cfg.Database.DSN == "" {
		logger.Fatal("CONFIG", "POSTGRES_DSN not set")
	}

	var sqldb *sql.DB
	var err error
	maxRetries := 5

	for i := 0; i < maxRetries; i++ {
		logger.Info("DATABASE", fmt.Sprintf("Attempting to connect to PostgreSQL (attempt %d/%d)", i+1, maxRetries))
		sqldb, err = sql.Open("postgres", cfg.Database.DSN)
		if err != nil {
			logger.Error("DATABASE", fmt.Sprintf("Failed to open PostgreSQL: %v", err))
			time.Sleep(2 * time.Second)
			continue
		}

		err = sqldb.Ping()
		if err == nil {
			break
		}

		logger.Error("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL: %v", err))
		if i < maxRetries-1 {
			time.Sleep(2 * time.Second)
		}
	}

	if err != nil {
		logger.Fatal("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL after %d attempts: %v", maxRetries, err))
	}

	sqldb.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqldb.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqldb.SetConnMaxLifetime(cfg.Database.MaxLifetime)

	logger.Info("DATABASE", "✅ PostgreSQL connection successful")

	bunDB := bun.NewDB(sqldb, pgdialect.New())

	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.Redis.Addr,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal("DATABASE", fmt.Sprintf("Redis connection error: %v", err))
	}

	_, err = redisClient.ConfigSet(ctx, "notify-keyspace-events", "Ex").Result()
	if err != nil {
		logger.Warn("REDIS", fmt.Sprintf("Failed to enable keyspace notifications: %v", err))
	} else {
		logger.Info("REDIS", "Keyspace notifications enabled for expired events")
	}

	logger.Info("DATABASE", fmt.Sprintf("✅ Redis connection successful to %s (DB: %d)", cfg.Redis.Addr, redisClient.Options().DB))
	return bunDB, redisClient
}

func selectProvider(cfg *config.Config, logger *logger.Logger) payments.Provider {
	switch cfg.Payments.Provider {
	case "stripe":
		logger.Info("PAYMENTS", "Using Stripe payment provider")
		return payments.NewStripeProvider(cfg.Payments.StripeSecretKey)
	default:
		logger.Info("PAYMENTS", "Using HMAC checkout-callback payment provider")
		return payments.NewHMACProvider(cfg.Payments.KeyID, cfg.Payments.Secret)
	}
}

func main() {
	logger := logger.NewLogger()
	defer logger.Close()

	logger.Info("APP", "Starting EventHub service initialization")

	if err := godotenv.Load(); err != nil {
		logger.Warn("CONFIG", ".env file not found, using environment variables")
	} else {
		logger.Info("CONFIG", "Loaded environment variables from .env file")
	}

	cfg := config.Load()
	ctx := context.Background()

	logger.Info("APP", "Verifying database connections")
	bunDB, redisClient := verifyConnections(ctx, cfg, logger)
	defer bunDB.Close()
	defer redisClient.Close()

	if os.Getenv("AUTO_MIGRATE") == "true" {
		runner := migrations.NewRunner(bunDB, migrations.DefaultOptions())
		if err := runner.RunMigrations(); err != nil {
			logger.Fatal("DATABASE", fmt.Sprintf("Migration failed: %v", err))
		}
		if err := runner.Close(); err != nil {
			logger.Warn("DATABASE", fmt.Sprintf("Failed to close migrator: %v", err))
		}
		logger.Info("DATABASE", "Migrations applied")
	}

	kafkaBrokers := cfg.Kafka.Brokers
	var kafkaProducer *kafka.Producer
	if cfg.Kafka.Enabled {
		logger.Info("KAFKA", fmt.Sprintf("Using Kafka brokers: %v", kafkaBrokers))
		kafkaProducer = kafka.NewProducer(kafkaBrokers)
		logger.Info("KAFKA", "Kafka producer initialized successfully")

		requiredTopics := []string{
			"eventhub.registration.created",
			"eventhub.registration.completed",
			"eventhub.registration.failed",
			"eventhub.venue.approval",
		}
		if err := kafka.EnsureTopicsExist(kafkaBrokers, requiredTopics); err != nil {
			logger.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
		} else {
			logger.Info("KAFKA", "Required topics ensured successfully")
		}
	} else {
		logger.Warn("KAFKA", "Kafka disabled via KAFKA_ENABLED, domain events will not be published")
		kafkaProducer = kafka.NewDisabled()
	}

	clk := clock.NewSystem()

	venueStore := &venue_db.DB{Bun: bunDB}
	venueService := venue.NewVenueService(venueStore, kafkaProducer, clk)

	eventStore := &event_db.DB{Bun: bunDB}
	eventService := event.NewEventService(eventStore, venueStore, clk)

	regStore := &reg_db.DB{Bun: bunDB}
	regService := registration.NewRegistrationService(
		regStore,
		rediswrap.NewRedis(redisClient),
		kafkaProducer,
		eventService,
		selectProvider(cfg, logger),
		qr.NewGenerator(cfg.Payments.QRSecret),
		clk,
	)
	regService.MaxVerifyAttempts = cfg.Payments.VerifyAttempts
	regService.VerifyBackoff = cfg.Payments.VerifyBackoff

	eventHandler := event_api.NewHandler(eventService, logger)
	venueHandler := venue_api.NewHandler(venueService, logger)
	regHandler := registration_api.NewHandler(regService, logger)

	logger.Info("HTTP", "Setting up router and middleware")
	r := chi.NewRouter()

	// --- Public Routes ---
	started := time.Now()
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(utils.NewHealthReport("eventhub", started))
	})
	r.Get("/api/events", eventHandler.ListEvents)
	r.Get("/api/events/{eventId}", eventHandler.GetEvent)
	r.Get("/api/venues", venueHandler.ListVenues)
	r.Get("/api/venues/{venueId}", venueHandler.GetVenue)
	r.Handle("/metrics", promhttp.Handler())
	logger.Info("ROUTER", "Public browse and metrics endpoints registered")

	// --- Protected Routes ---
	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware())
		logger.Info("AUTH", "OIDC middleware applied to protected API routes")

		r.Route("/api", func(r chi.Router) {
			r.Post("/events", eventHandler.CreateEvent)
			r.Put("/events/{eventId}", eventHandler.UpdateEvent)
			r.Post("/events/{eventId}/register", regHandler.RegisterFree)
			logger.Info("ROUTER", "Event routes registered under /api/events")

			r.Post("/venues", venueHandler.CreateVenue)
			r.Group(func(r chi.Router) {
				r.Use(auth.RequireRole(cfg.Auth.AdminRole))
				r.Put("/venues/{venueId}/approval", venueHandler.SetApproval)
			})
			logger.Info("ROUTER", "Venue routes registered under /api/venues")

			r.Get("/registrations", regHandler.ListRegistrations)
		})

		r.Post("/payments/create-order", regHandler.CreateOrder)
		r.Post("/payments/verify", regHandler.VerifyPayment)
		logger.Info("ROUTER", "Payment routes registered under /payments")
	})

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	logger.Info("REDIS", "Starting registration lock expiry subscription")
	subscribeLockExpiry(redisClient, kafkaProducer, regStore, logger, kafkaBrokers)

	go func() {
		logger.Info("HTTP", fmt.Sprintf("🚀 EventHub service running on %s", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	logger.Info("APP", "Service started successfully, waiting for shutdown signal")
	<-stop

	logger.Info("APP", "Shutdown signal received, initiating graceful shutdown")
	ctxShutdown, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctxShutdown); err != nil {
		logger.Error("HTTP", fmt.Sprintf("Server Shutdown Failed: %v", err))
	} else {
		logger.Info("HTTP", "✅ EventHub service shutdown complete")
	}
}
