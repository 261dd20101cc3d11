package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/freshstock/freshstock-backend/internal/stock/channel"
	"github.com/freshstock/freshstock-backend/internal/stock/events"
	"github.com/freshstock/freshstock-backend/internal/stock/handler"
	"github.com/freshstock/freshstock-backend/internal/stock/repository"
	"github.com/freshstock/freshstock-backend/internal/stock/service"
	"github.com/freshstock/freshstock-backend/pkg/auth"
	"github.com/freshstock/freshstock-backend/pkg/config"
	"github.com/freshstock/freshstock-backend/pkg/database"
	"github.com/freshstock/freshstock-backend/pkg/httputil"
	"github.com/freshstock/freshstock-backend/pkg/logger"
	"github.com/freshstock/freshstock-backend/pkg/messaging"
)

func main() {
	// Load configuration with validation (fails fast in production if required config is missing)
	cfg, err := config.LoadWithValidation("stock-service")
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New("stock-service", cfg.Server.Environment)
	log.Info().Msg("starting Stock Service")

	// Connect to database
	db, err := database.New(&cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	// Connect to RabbitMQ
	rmq, err := messaging.New(&cfg.RabbitMQ, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to RabbitMQ")
	}
	defer rmq.Close()

	// Initialize event publisher
	publisher, err := events.NewStockEventPublisher(rmq, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create event publisher")
	}

	// Initialize repositories
	hotelRepo := repository.NewHotelRepository(db)
	departmentRepo := repository.NewDepartmentRepository(db)
	productRepo := repository.NewProductRepository(db)
	batchRepo := repository.NewBatchRepository(db)
	writeOffRepo := repository.NewWriteOffRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	settingRepo := repository.NewSettingRepository(db)

	// Initialize services
	settingsService := service.NewSettingsService(settingRepo, log)

	queueChannel, err := channel.NewQueueChannel(rmq, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create queue channel")
	}
	webhookChannel := channel.NewWebhookChannel(settingsService.WebhookURL)

	dispatcher := channel.NewDispatcher(
		[]channel.Channel{queueChannel, webhookChannel},
		settingsService.ChannelEnabled,
		cfg.Scheduler.DispatchTimeout,
		log,
	)

	stockService := service.NewStockService(
		db, hotelRepo, departmentRepo, productRepo,
		batchRepo, writeOffRepo, publisher, log,
	)
	scanner := service.NewExpiryScanner(
		hotelRepo, departmentRepo, productRepo,
		batchRepo, notificationRepo,
		settingsService, dispatcher, log,
	)
	reports := service.NewReportService(
		hotelRepo, departmentRepo, batchRepo,
		notificationRepo, settingsService, dispatcher, log,
	)
	scheduler := service.NewScheduler(scanner, reports, settingsService, cfg.Scheduler.ScanInterval, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Scheduler.Enabled {
		scheduler.Start(ctx)
	} else {
		log.Warn().Msg("scheduler disabled by configuration")
	}

	// Initialize handlers
	entityHandler := handler.NewEntityHandler(stockService, log)
	batchHandler := handler.NewBatchHandler(stockService, settingsService, log)
	collectHandler := handler.NewCollectHandler(stockService, log)
	settingHandler := handler.NewSettingHandler(settingsService, log)
	notificationHandler := handler.NewNotificationHandler(notificationRepo, log)
	taskHandler := handler.NewTaskHandler(scheduler, log)

	authManager := auth.NewManager(&cfg.JWT)

	// Create router
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RealIP)
	r.Use(httputil.RequestID)
	r.Use(httputil.Logger(log))
	r.Use(httputil.Recoverer(log))
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000", "http://localhost:5173", "https://*.freshstock.app"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(httputil.Authenticator(authManager))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.JSON(w, http.StatusOK, map[string]interface{}{
			"status":   "healthy",
			"service":  "stock-service",
			"database": db.Health(r.Context()),
			"rabbitmq": rmq.Health(),
		})
	})

	// API routes
	r.Route("/api/v1/stock", func(r chi.Router) {
		// Hotel routes
		r.Route("/hotels", func(r chi.Router) {
			r.Get("/", entityHandler.ListHotels)
			r.Post("/", entityHandler.CreateHotel)
			r.Get("/{id}", entityHandler.GetHotel)
			r.Put("/{id}", entityHandler.UpdateHotel)
			r.Get("/{hotelID}/departments", entityHandler.ListDepartments)
			r.Post("/{hotelID}/departments", entityHandler.CreateDepartment)
			r.Get("/{hotelID}/products", entityHandler.ListProducts)
			r.Post("/{hotelID}/products", entityHandler.CreateProduct)
		})

		// Department routes
		r.Route("/departments", func(r chi.Router) {
			r.Put("/{id}", entityHandler.UpdateDepartment)
			r.Get("/{departmentID}/batches", batchHandler.ListByDepartment)
			r.Get("/{departmentID}/writeoffs", collectHandler.ListDepartmentWriteOffs)
		})

		// Product routes
		r.Put("/products/{id}", entityHandler.UpdateProduct)

		// Batch routes
		r.Route("/batches", func(r chi.Router) {
			r.Post("/", batchHandler.Create)
			r.Get("/{id}", batchHandler.Get)
			r.Put("/{id}", batchHandler.Update)
			r.Delete("/{id}", batchHandler.Delete)
			r.Post("/{id}/collect", collectHandler.CollectBatch)
			r.Get("/{id}/writeoffs", batchHandler.ListWriteOffs)
		})

		// FIFO depletion
		r.Post("/collect", collectHandler.Collect)

		// Settings routes
		r.Route("/settings", func(r chi.Router) {
			r.Get("/resolve", settingHandler.Resolve)
			r.Get("/{scope}", settingHandler.List)
			r.Put("/", settingHandler.Set)
			r.Delete("/", settingHandler.Delete)
		})

		// Notification routes
		r.Get("/notifications", notificationHandler.List)
		r.Get("/notifications/{id}", notificationHandler.Get)

		// Manual task triggers
		r.Post("/tasks/scan/run", taskHandler.RunScan)
		r.Post("/tasks/report/run", taskHandler.RunReport)
	})

	// Create server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server
	go func() {
		log.Info().Str("addr", addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Stop background tasks
	scheduler.Stop()
	cancel()

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
