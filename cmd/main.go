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

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	cancelBookingHandler "github.com/m04kA/SkiSchool-BookingService/internal/api/handlers/cancel_booking"
	createBookingHandler "github.com/m04kA/SkiSchool-BookingService/internal/api/handlers/create_booking"
	dialogMessageHandler "github.com/m04kA/SkiSchool-BookingService/internal/api/handlers/dialog_message"
	getAvailabilityHandler "github.com/m04kA/SkiSchool-BookingService/internal/api/handlers/get_availability"
	getBookingHandler "github.com/m04kA/SkiSchool-BookingService/internal/api/handlers/get_booking"
	getUserBookingsHandler "github.com/m04kA/SkiSchool-BookingService/internal/api/handlers/get_user_bookings"
	getWalletHandler "github.com/m04kA/SkiSchool-BookingService/internal/api/handlers/get_wallet"
	"github.com/m04kA/SkiSchool-BookingService/internal/api/middleware"
	"github.com/m04kA/SkiSchool-BookingService/internal/config"
	"github.com/m04kA/SkiSchool-BookingService/internal/dialog"
	"github.com/m04kA/SkiSchool-BookingService/internal/dialog/sessionstore"
	bookingRepo "github.com/m04kA/SkiSchool-BookingService/internal/infra/storage/booking"
	clientRepo "github.com/m04kA/SkiSchool-BookingService/internal/infra/storage/client"
	groupSessionRepo "github.com/m04kA/SkiSchool-BookingService/internal/infra/storage/groupsession"
	scheduleRepo "github.com/m04kA/SkiSchool-BookingService/internal/infra/storage/schedule"
	subscriptionRepo "github.com/m04kA/SkiSchool-BookingService/internal/infra/storage/subscription"
	walletRepo "github.com/m04kA/SkiSchool-BookingService/internal/infra/storage/wallet"
	notifyServiceClient "github.com/m04kA/SkiSchool-BookingService/internal/integrations/notifyservice"
	pricingServiceClient "github.com/m04kA/SkiSchool-BookingService/internal/integrations/pricingservice"
	availabilityService "github.com/m04kA/SkiSchool-BookingService/internal/service/availability"
	bookingsService "github.com/m04kA/SkiSchool-BookingService/internal/service/bookings"
	walletService "github.com/m04kA/SkiSchool-BookingService/internal/service/wallet"
	cancelBookingUC "github.com/m04kA/SkiSchool-BookingService/internal/usecase/cancel_booking"
	createBookingUC "github.com/m04kA/SkiSchool-BookingService/internal/usecase/create_booking"
	"github.com/m04kA/SkiSchool-BookingService/pkg/dbmetrics"
	"github.com/m04kA/SkiSchool-BookingService/pkg/logger"
	"github.com/m04kA/SkiSchool-BookingService/pkg/metrics"
	"github.com/m04kA/SkiSchool-BookingService/pkg/simpletxmanager"
	"github.com/m04kA/SkiSchool-BookingService/pkg/txmanager"
)

func main() {
	// Загружаем конфигурацию
	cfg, err := config.Load("config.toml")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Инициализируем логгер
	log, err := logger.New(cfg.Logs.File, cfg.Logs.Level)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	log.Info("Starting SkiSchool-BookingService...")
	log.Info("Configuration loaded from config.toml")

	// Инициализируем метрики (если включены)
	var metricsCollector *metrics.Metrics
	var wrappedDB *dbmetrics.DB
	stopMetricsCh := make(chan struct{})

	if cfg.Metrics.Enabled {
		metricsCollector = metrics.New(cfg.Metrics.ServiceName)
		log.Info("Metrics enabled at %s", cfg.Metrics.Path)
	}

	// Подключаемся к базе данных
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Fatal("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Настраиваем connection pool
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Second)

	// Проверяем соединение
	if err := db.Ping(); err != nil {
		log.Fatal("Failed to ping database: %v", err)
	}
	log.Info("Successfully connected to database (host=%s, port=%d, db=%s)",
		cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)

	// Инициализируем интеграционных клиентов
	pricingClient := pricingServiceClient.NewClient(
		cfg.PricingService.URL,
		time.Duration(cfg.PricingService.Timeout)*time.Second,
		log,
	)
	notifyClient := notifyServiceClient.NewClient(
		cfg.NotifyService.URL,
		time.Duration(cfg.NotifyService.Timeout)*time.Second,
		log,
	)
	log.Info("Integration clients initialized (PricingService=%s timeout=%ds, NotifyService=%s timeout=%ds)",
		cfg.PricingService.URL, cfg.PricingService.Timeout, cfg.NotifyService.URL, cfg.NotifyService.Timeout)

	// Инициализируем репозитории (с метриками или без)
	var (
		clients       *clientRepo.Repository
		schedule      *scheduleRepo.Repository
		groupSessions *groupSessionRepo.Repository
		bookings      *bookingRepo.Repository
		wallets       *walletRepo.Repository
		subscriptions *subscriptionRepo.Repository
	)

	type TxManager interface {
		DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
	}
	var txMgr TxManager

	if cfg.Metrics.Enabled {
		wrappedDB = dbmetrics.WrapWithDefault(db, metricsCollector, cfg.Metrics.ServiceName, stopMetricsCh)
		log.Info("Database metrics collection started")

		clients = clientRepo.NewRepository(wrappedDB)
		schedule = scheduleRepo.NewRepository(wrappedDB)
		groupSessions = groupSessionRepo.NewRepository(wrappedDB)
		bookings = bookingRepo.NewRepository(wrappedDB)
		wallets = walletRepo.NewRepository(wrappedDB)
		subscriptions = subscriptionRepo.NewRepository(wrappedDB)
		txMgr = txmanager.NewTransactionManager(wrappedDB)
	} else {
		clients = clientRepo.NewRepository(db)
		schedule = scheduleRepo.NewRepository(db)
		groupSessions = groupSessionRepo.NewRepository(db)
		bookings = bookingRepo.NewRepository(db)
		wallets = walletRepo.NewRepository(db)
		subscriptions = subscriptionRepo.NewRepository(db)
		txMgr = simpletxmanager.NewTransactionManager(db)
	}

	// Инициализируем сервисы
	walletSvc := walletService.NewService(wallets, subscriptions, log)
	availabilitySvc := availabilityService.NewService(
		schedule,
		groupSessions,
		bookings,
		log,
		cfg.Booking.ScheduleHorizonDays,
	)
	bookingsSvc := bookingsService.NewService(bookings, clients, log)

	// Инициализируем use cases
	createBookingUseCase := createBookingUC.NewUseCase(
		clients,
		schedule,
		groupSessions,
		bookings,
		walletSvc,
		pricingClient,
		notifyClient,
		cfg.Booking,
		txMgr,
		log,
	)
	cancelBookingUseCase := cancelBookingUC.NewUseCase(
		bookings,
		clients,
		schedule,
		groupSessions,
		walletSvc,
		notifyClient,
		txMgr,
		log,
	)

	// Инициализируем хранилище диалоговых сессий
	sessionTTL := time.Duration(cfg.Dialog.SessionTTLMinutes) * time.Minute
	var sessionStore dialog.SessionStore

	if cfg.Dialog.SessionBackend == "redis" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			log.Fatal("Failed to ping redis: %v", err)
		}
		defer redisClient.Close()

		sessionStore = sessionstore.NewRedis(redisClient, sessionTTL)
		log.Info("Dialog sessions stored in redis (addr=%s, ttl=%s)", cfg.Redis.Addr, sessionTTL)
	} else {
		memStore := sessionstore.NewMemory(sessionTTL)
		sessionStore = memStore

		// Фоновая чистка просроченных сессий
		cleanupTicker := time.NewTicker(sessionTTL)
		defer cleanupTicker.Stop()
		go func() {
			for range cleanupTicker.C {
				if removed := memStore.Cleanup(); removed > 0 {
					log.Info("Dialog session cleanup: removed=%d", removed)
				}
			}
		}()
		log.Info("Dialog sessions stored in memory (ttl=%s)", sessionTTL)
	}

	// Инициализируем диалоговый контроллер
	dialogController := dialog.NewController(
		sessionStore,
		availabilitySvc,
		bookingsSvc,
		clients,
		walletSvc,
		createBookingUseCase,
		cancelBookingUseCase,
		log,
	)

	// Инициализируем handlers
	createBooking := createBookingHandler.NewHandler(createBookingUseCase, log)
	cancelBooking := cancelBookingHandler.NewHandler(cancelBookingUseCase, log)
	getAvailability := getAvailabilityHandler.NewHandler(availabilitySvc, log)
	getBooking := getBookingHandler.NewHandler(bookingsSvc, log)
	getUserBookings := getUserBookingsHandler.NewHandler(bookingsSvc, log)
	getWallet := getWalletHandler.NewHandler(walletSvc, log)
	dialogMessage := dialogMessageHandler.NewHandler(dialogController, log)

	// Настраиваем роутер
	r := mux.NewRouter()

	if cfg.Metrics.Enabled {
		r.Use(middleware.MetricsMiddleware(metricsCollector, cfg.Metrics.ServiceName))
		log.Info("HTTP metrics middleware enabled")

		r.Handle(cfg.Metrics.Path, promhttp.Handler()).Methods(http.MethodGet)
		log.Info("Prometheus metrics endpoint exposed at %s", cfg.Metrics.Path)
	}

	// API prefix
	api := r.PathPrefix("/api/v1").Subrouter()

	// ============================================================
	// PUBLIC ROUTES (без аутентификации)
	// ============================================================

	// Доступность: даты и варианты по классам ресурсов
	api.HandleFunc("/availability/dates", getAvailability.HandleDates).Methods(http.MethodGet)
	api.HandleFunc("/availability/simulator-times", getAvailability.HandleSimulatorTimes).Methods(http.MethodGet)
	api.HandleFunc("/availability/instructor-slots", getAvailability.HandleInstructorSlots).Methods(http.MethodGet)
	api.HandleFunc("/availability/group-sessions", getAvailability.HandleGroupSessions).Methods(http.MethodGet)

	// Диалоговый endpoint для бот-шлюза
	api.HandleFunc("/dialog/messages", dialogMessage.Handle).Methods(http.MethodPost)

	// ============================================================
	// PROTECTED ROUTES (требуют X-User-ID header)
	// ============================================================

	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.Auth)

	// --- Бронирования ---
	protected.HandleFunc("/bookings", createBooking.Handle).Methods(http.MethodPost)
	protected.HandleFunc("/bookings", getUserBookings.Handle).Methods(http.MethodGet)
	protected.HandleFunc("/bookings/{bookingId}", getBooking.Handle).Methods(http.MethodGet)
	protected.HandleFunc("/bookings/{bookingId}/cancel", cancelBooking.Handle).Methods(http.MethodPatch)

	// --- Кошелёк ---
	protected.HandleFunc("/wallet", getWallet.Handle).Methods(http.MethodGet)

	// Создаем HTTP сервер
	addr := fmt.Sprintf(":%d", cfg.Server.HTTPPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Info("Starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed to start: %v", err)
		}
	}()

	// Ожидаем сигнал завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	// Останавливаем сбор метрик connection pool
	if cfg.Metrics.Enabled {
		close(stopMetricsCh)
		log.Info("Metrics collection stopped")
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown: %v", err)
	}

	log.Info("Server stopped gracefully")
}
