package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"cafe-reservation/internal/assets"
	"cafe-reservation/internal/auth"
	"cafe-reservation/internal/availability"
	"cafe-reservation/internal/availability/table_api"
	"cafe-reservation/internal/catalog"
	"cafe-reservation/internal/catalog/catalog_api"
	"cafe-reservation/internal/config"
	"cafe-reservation/internal/database/migrations"
	"cafe-reservation/internal/kafka"
	"cafe-reservation/internal/logger"
	"cafe-reservation/internal/models"
	"cafe-reservation/internal/reservation"
	"cafe-reservation/internal/reservation/db"
	rediswrap "cafe-reservation/internal/reservation/redis"
	"cafe-reservation/internal/reservation/reservation_api"
	"cafe-reservation/internal/verification"
	"cafe-reservation/internal/verification/verification_api"
)

func connectPostgres(cfg config.DatabaseConfig, log *logger.Logger) *bun.DB {
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		cfg.Username, cfg.Password, cfg.Host, cfg.Port, cfg.Database)

	var sqldb *sql.DB
	var err error
	maxRetries := 5

	for i := 0; i < maxRetries; i++ {
		log.Info("DATABASE", fmt.Sprintf("Attempting to connect to PostgreSQL (attempt %d/%d)", i+1, maxRetries))
		sqldb, err = sql.Open("postgres", dsn)
		if err == nil {
			err = sqldb.Ping()
			if err == nil {
				break
			}
		}
		log.Error("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL: %v", err))
		if i < maxRetries-1 {
			time.Sleep(2 * time.Second)
		}
	}
	if err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL after %d attempts: %v", maxRetries, err))
	}

	sqldb.SetMaxOpenConns(cfg.MaxOpenConns)
	sqldb.SetMaxIdleConns(cfg.MaxIdleConns)
	sqldb.SetConnMaxLifetime(cfg.MaxLifetime)

	log.Info("DATABASE", "PostgreSQL connection successful")
	bunDB := bun.NewDB(sqldb, pgdialect.New())
	models.RegisterModels(bunDB)
	return bunDB
}

func connectRedis(ctx context.Context, cfg config.RedisConfig, log *logger.Logger) *redis.Client {
	client := redis.NewClient(&redis.Options{Addr: cfg.Addr})
	if err := client.Ping(ctx).Err(); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Redis connection error: %v", err))
	}
	log.Info("DATABASE", fmt.Sprintf("Redis connection successful to %s", cfg.Addr))
	return client
}

func requestLogger(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			log.LogAPI(r.Method, r.URL.Path, strconv.Itoa(ww.Status()), time.Since(start).Round(time.Millisecond).String())
		})
	}
}

func main() {
	log := logger.NewLogger()
	defer log.Close()

	log.Info("APP", "Starting Cafe Reservation Service initialization")

	if err := godotenv.Load(); err != nil {
		log.Warn("CONFIG", ".env file not found, using environment variables")
	} else {
		log.Info("CONFIG", "Loaded environment variables from .env file")
	}

	cfg := config.Load()
	ctx := context.Background()

	location, err := time.LoadLocation(cfg.Reservation.Timezone)
	if err != nil {
		log.Fatal("CONFIG", fmt.Sprintf("Invalid reservation timezone %q: %v", cfg.Reservation.Timezone, err))
	}

	bunDB := connectPostgres(cfg.Database, log)
	defer bunDB.Close()

	migrationOpts := migrations.DefaultOptions()
	migrationOpts.SeedData = os.Getenv("SEED_DATA") == "true"
	runner := migrations.NewRunner(bunDB, migrationOpts)
	if err := runner.Run(); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Migration failed: %v", err))
	}
	defer runner.Close()

	redisClient := connectRedis(ctx, cfg.Redis, log)
	defer redisClient.Close()

	var producer *kafka.Producer
	if cfg.Kafka.Enabled {
		if err := kafka.CreateTopicIfNotExists(cfg.Kafka.Brokers, cfg.Kafka.Topics.ReservationEvents); err != nil {
			log.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
		}
		producer = kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topics.ReservationEvents)
		defer producer.Close()
		log.Info("KAFKA", "Kafka producer initialized successfully")
	} else {
		log.Warn("KAFKA", "Kafka disabled, lifecycle events will not be published")
	}

	dbLayer := &db.DB{Bun: bunDB}
	checker := availability.NewService(dbLayer, dbLayer, cfg.Reservation.BufferMinutes, location)
	slotLocks := rediswrap.NewRedis(redisClient, cfg.Reservation.SlotLockTTL)
	proofStore := assets.NewClient(cfg.Assets)

	var reservationEvents reservation.EventPublisher
	var verificationEvents verification.EventPublisher
	if producer != nil {
		reservationEvents = producer
		verificationEvents = producer
	}

	reservationService := reservation.NewService(
		dbLayer,
		slotLocks,
		reservationEvents,
		proofStore,
		checker,
		log,
		location,
		cfg.Reservation.CodeRetries,
	)
	verificationService := verification.NewService(dbLayer, verificationEvents, log, location)

	catalogDB := &catalog.DB{Bun: bunDB}

	tableHandler := table_api.NewHandler(checker, dbLayer)
	catalogHandler := catalog_api.NewHandler(catalogDB)
	reservationHandler := reservation_api.NewHandler(reservationService)
	verificationHandler := verification_api.NewHandler(verificationService)

	log.Info("HTTP", "Setting up router and middleware")
	r := chi.NewRouter()
	r.Use(requestLogger(log))

	r.Route("/api/v1", func(r chi.Router) {
		// --- Public routes ---
		r.Get("/tables", tableHandler.ListTables)
		r.Post("/tables/check-availability", tableHandler.CheckAvailability)
		r.Post("/tables/availability-status", tableHandler.AvailabilityStatus)

		r.Get("/categories", catalogHandler.ListCategories)
		r.Get("/menus", catalogHandler.ListMenus)
		r.Get("/menus/{menuId}", catalogHandler.GetMenu)

		r.Post("/reservations", reservationHandler.CreateReservation)
		r.Get("/reservations/{bookingCode}", reservationHandler.GetReservation)
		r.Post("/reservations/{reservationId}/upload-payment", reservationHandler.UploadPaymentProof)
		log.Info("ROUTER", "Public routes registered under /api/v1")

		// --- Admin routes ---
		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware())

			r.Route("/admin/reservations", func(r chi.Router) {
				r.Get("/", verificationHandler.ListReservations)
				r.Get("/{reservationId}", verificationHandler.GetReservation)
				r.Post("/{reservationId}/verify", verificationHandler.VerifyPayment)
				r.Post("/{reservationId}/reject", verificationHandler.RejectPayment)
				r.Patch("/{reservationId}/complete", verificationHandler.CompleteReservation)
				r.Delete("/{reservationId}", verificationHandler.CancelReservation)
			})
			log.Info("ROUTER", "Admin routes registered under /api/v1/admin/reservations")
		})
	})

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go verificationService.RunSweeper(sweepCtx, cfg.Reservation.SweepInterval, slotLocks)

	if cfg.Kafka.Enabled {
		notifier := kafka.NewNotifier(cfg.Kafka.Brokers, cfg.Kafka.Topics.ReservationEvents, "cafe-reservation-notifier", log, &kafka.LogSink{Logger: log})
		go notifier.Run(sweepCtx)
		defer notifier.Close()
	}

	go func() {
		log.Info("HTTP", fmt.Sprintf("Cafe Reservation Service running on %s", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	log.Info("APP", "Service started successfully, waiting for shutdown signal")
	<-stop

	log.Info("APP", "Shutdown signal received, initiating graceful shutdown")
	stopSweep()

	ctxShutdown, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Error("HTTP", fmt.Sprintf("Server Shutdown Failed: %v", err))
	} else {
		log.Info("HTTP", "Cafe Reservation Service shutdown complete")
	}
}
