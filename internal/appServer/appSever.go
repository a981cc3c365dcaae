package appServer

import (
	"context"
	"crypto/tls"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ds124wfegd/hotel-booking/config"
	cache "github.com/ds124wfegd/hotel-booking/internal/database/redis"
	"github.com/ds124wfegd/hotel-booking/internal/service"
	"github.com/ds124wfegd/hotel-booking/internal/transport"
	"github.com/ds124wfegd/hotel-booking/internal/worker"

	"github.com/ds124wfegd/hotel-booking/pkg/kafka"
	"github.com/ds124wfegd/hotel-booking/pkg/redis"
	"github.com/ds124wfegd/hotel-booking/pkg/scheduler"
	"github.com/ds124wfegd/hotel-booking/pkg/telegram"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type Server struct {
	httpServer *http.Server
}

func (s *Server) Run(cfg *config.Config, handler http.Handler) error {
	s.httpServer = &http.Server{
		Addr:              cfg.GetServerAddress(),
		Handler:           handler,
		MaxHeaderBytes:    1 << 20,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
		ReadHeaderTimeout: 3 * time.Second,
		TLSConfig:         &tls.Config{MinVersion: tls.VersionTLS12}, // ban on outdate TLS certificate
		ErrorLog:          log.New(logrus.StandardLogger().WriterLevel(logrus.ErrorLevel), "SERVER ERROR: ", 0),
	}
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// configWarnings lists settings that leave part of the API unusable.
func configWarnings(cfg *config.Config) []string {
	var warnings []string
	if cfg.JWT.Secret == "" {
		warnings = append(warnings, "jwt.secret is empty, every authenticated request will be rejected")
	}
	if cfg.Booking.ConfirmationMode == config.ConfirmationModePayment && cfg.Payment.KeySecret == "" {
		warnings = append(warnings, "payment.key_secret is empty, no payment can be verified")
	}
	return warnings
}

func NewServer(cfg *config.Config) {

	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetOutput(os.Stdout)
	logrus.SetLevel(logrus.InfoLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize storage
	store, err := openStorage(ctx, cfg)
	if err != nil {
		logrus.Fatalf("Failed to initialize storage: %v", err)
	}
	defer store.close()

	// Idempotency keys and dead letters (optional)
	var (
		idempotency      service.IdempotencyStore
		deadLetters      service.DeadLetterSink
		deadLetterReader service.DeadLetterReader
	)
	if cfg.Redis.Enabled {
		redisClient, err := redis.NewRedisClient(&cfg.Redis)
		if err != nil {
			logrus.WithError(err).Warn("Redis unavailable, idempotency keys disabled")
			redisClient.Close()
		} else {
			defer redisClient.Close()
			idempotency = cache.NewIdempotencyStore(redisClient, cfg.Redis.IdempotencyTTL)
			eventDeadLetters := cache.NewEventDeadLetters(redisClient, cfg.Kafka.DeadLetterKey)
			deadLetters = eventDeadLetters
			deadLetterReader = eventDeadLetters
		}
	}

	// Domain events (optional)
	var publisher service.EventPublisher
	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer producer.Close()
		publisher = service.NewKafkaEventAdapter(producer)
		if deadLetters != nil {
			publisher = service.NewDeadLetterPublisher(publisher, deadLetters)
		}
		logrus.WithField("topic", cfg.Kafka.Topic).Info("Reservation events enabled")
	}

	// Initialize Telegram bot
	var notifier service.Notifier
	if cfg.Telegram.Enabled && cfg.Telegram.BotToken != "" {
		notifier = service.NewTelegramNotifier(telegram.NewBot(cfg.Telegram.BotToken), cfg.Telegram.ChatID)
		logrus.Info("Telegram bot initialized")
	} else {
		logrus.Warn("Telegram bot token not provided, notifications disabled")
	}

	for _, warning := range configWarnings(cfg) {
		logrus.Warn(warning)
	}

	// Initialize services
	reservationService := service.NewReservationService(store.rooms, store.ledger, idempotency, publisher, notifier, service.ReservationOptions{
		ConfirmationMode: cfg.Booking.ConfirmationMode,
		HoldTTL:          cfg.Booking.HoldTTL,
		PaymentSecret:    cfg.Payment.KeySecret,
		ExpiryBatchSize:  cfg.Worker.BatchSize,
		Retry:            service.NewRetryPolicy(cfg.Booking.MaxRetries, cfg.Booking.RetryBaseDelay),
		PublishTimeout:   cfg.Kafka.PublishTimeout,
	})
	roomService := service.NewRoomService(store.rooms)
	deadLetterService := service.NewDeadLetterService(deadLetterReader)

	// Initialize and start scheduler
	if cfg.Booking.ConfirmationMode == config.ConfirmationModePayment && cfg.Booking.HoldTTL > 0 {
		expiryWorker := worker.NewReservationExpiryWorker(reservationService, cfg.Worker.CleanupInterval)
		expiryScheduler, err := scheduler.NewScheduler(expiryWorker, cfg.Worker.CleanupInterval)
		if err != nil {
			logrus.Fatalf("Failed to initialize expiry scheduler: %v", err)
		}
		go func() {
			if err := expiryScheduler.Start(ctx); err != nil {
				logrus.Errorf("Expiry scheduler error: %v", err)
			}
		}()
	} else {
		logrus.Info("Hold expiry disabled")
	}

	// Initialize handlers
	reservationHandler := transport.NewReservationHandler(reservationService)
	roomHandler := transport.NewRoomHandler(roomService, reservationService)
	deadLetterHandler := transport.NewDeadLetterHandler(deadLetterService)

	// Setup HTTP server
	if cfg.IsProduction() || cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := transport.InitRoutes(reservationHandler, roomHandler, deadLetterHandler, transport.RouterOptions{
		JWTSecret:      cfg.JWT.Secret,
		RequestTimeout: cfg.Server.RequestTimeout,
	})

	srv := new(Server)
	go func() {
		if err := srv.Run(cfg, router); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("error occured while running http server: %s", err.Error())
		}
	}()

	logrus.WithFields(logrus.Fields{
		"addr":              cfg.GetServerAddress(),
		"driver":            cfg.Database.Driver,
		"confirmation_mode": cfg.Booking.ConfirmationMode,
	}).Print("App Started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)
	<-quit

	logrus.Print("App Shutting Down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.Errorf("error occured on server shutting down: %s", err.Error())
	}
}
