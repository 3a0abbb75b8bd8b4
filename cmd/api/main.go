package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"bookwise-backend/internal/auth"
	"bookwise-backend/internal/cache"
	"bookwise-backend/internal/config"
	"bookwise-backend/internal/db"
	"bookwise-backend/internal/handlers"
	"bookwise-backend/internal/middleware"
	"bookwise-backend/internal/notifications"
	"bookwise-backend/internal/providers"
	"bookwise-backend/internal/schedule"
	"bookwise-backend/internal/staff"
	"bookwise-backend/internal/store"
	"bookwise-backend/internal/validation"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, cols, err := db.Connect(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		logger.Error("mongo connection failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("mongo connected")
	defer client.Disconnect(context.Background())

	if err := db.EnsureIndexes(ctx, cols); err != nil {
		logger.Error("index creation failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	var cacheStore cache.Cache = cache.NewNoop()
	if cfg.RedisURL != "" || cfg.RedisAddr != "" {
		var redisCache *cache.RedisCache
		var err error
		if cfg.RedisURL != "" {
			redisCache, err = cache.NewRedisFromURL(cfg.RedisURL)
		} else {
			redisCache = cache.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		}
		if err != nil {
			logger.Error("redis connection failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
		if err := redisCache.Ping(ctx); err != nil {
			logger.Error("redis connection failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
		logger.Info("redis connected")
		cacheStore = redisCache
	}

	var jwtManager *auth.Manager
	if cfg.JWTSecret != "" {
		jwtManager = &auth.Manager{
			Secret:     []byte(cfg.JWTSecret),
			AccessTTL:  time.Duration(cfg.AccessTTLMinutes) * time.Minute,
			RefreshTTL: time.Duration(cfg.RefreshTTLMinutes) * time.Minute,
			Issuer:     "bookwise-backend",
		}
	}

	mailer := notifications.NewBrevoClient(cfg.BrevoAPIKey, cfg.BrevoSenderEmail, cfg.BrevoSenderName, cfg.BrevoSandbox)
	if mailer == nil {
		logger.Info("brevo mailer disabled")
	} else {
		logger.Info("brevo mailer enabled", slog.String("sender", cfg.BrevoSenderEmail), slog.Bool("sandbox", cfg.BrevoSandbox))
	}

	bookingStore := store.New(cols)
	engine := schedule.NewEngine(bookingStore, cfg.DefaultTimezone)
	val := validation.New()

	server := &handlers.Server{
		Cfg:    cfg,
		Cols:   cols,
		Store:  bookingStore,
		Engine: engine,
		Val:    val,
		Log:    logger,
		Cache:  cacheStore,
	}
	if mailer != nil {
		server.Mailer = mailer
	}

	providersRepo := providers.NewRepository(cols.Providers, cols.BusinessHours)
	providersService := providers.NewService(providersRepo)
	providersHandler := providers.NewHandler(providersService, val, cacheStore, logger)

	staffRepo := staff.NewRepository(cols.Staff, cols.StaffOverrides)
	staffService := staff.NewService(staffRepo)
	staffHandler := staff.NewHandler(staffService, val, cacheStore, logger)

	r := chi.NewRouter()
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS(cfg.FrontendOrigin))
	r.Use(chiMiddleware.Timeout(30 * time.Second))

	bookingLimiter := middleware.NewLimiterStore(cfg.RateLimitBookings, time.Duration(cfg.RateLimitWindowSec)*time.Second)
	go func() {
		for range time.Tick(5 * time.Minute) {
			bookingLimiter.Sweep(30 * time.Minute)
		}
	}()

	adminOnly := middleware.AdminAuth(cfg.AdminAPIKey, jwtManager)

	r.Route("/api/v1", func(api chi.Router) {
		api.Get("/providers", providersHandler.PublicList)
		api.Get("/providers/slug/{slug}", providersHandler.PublicGetBySlug)
		api.Get("/providers/{id}/services", server.PublicListServices)
		api.Get("/providers/{id}/hours", providersHandler.ListHours)

		api.Get("/services/{id}", server.PublicGetService)
		api.Get("/services/{id}/slots", server.ListServiceSlots)
		api.Get("/services/{id}/availability", server.CheckWindowAvailability)

		api.With(middleware.RateLimit(bookingLimiter)).Post("/bookings", server.CreateBooking)
		api.Get("/bookings/{id}", server.GetBooking)
		api.Post("/bookings/{id}/cancel", server.CancelBooking)
		api.Get("/bookings/{id}/calendar.ics", server.BookingCalendar)

		api.Post("/payments/intent", server.CreatePaymentIntent)

		api.Route("/admin", func(admin chi.Router) {
			admin.Post("/register", server.AdminRegister)
			admin.Post("/login", server.AdminLogin)
			admin.Post("/refresh", server.AdminRefresh)
			admin.Post("/logout", server.AdminLogout)

			// chi requires middlewares before routes; auth-free login routes
			// stay above, everything else goes through the admin guard.
			admin.Group(func(protected chi.Router) {
				protected.Use(adminOnly)

				protected.Get("/providers", providersHandler.AdminList)
				protected.Post("/providers", providersHandler.AdminCreate)
				protected.Put("/providers/{id}", providersHandler.AdminUpdate)
				protected.Delete("/providers/{id}", providersHandler.AdminDeactivate)
				protected.Get("/providers/{id}/hours", providersHandler.ListHours)
				protected.Put("/providers/{id}/hours", providersHandler.AdminSetHours)

				protected.Get("/services", server.AdminListServices)
				protected.Post("/services", server.AdminCreateService)
				protected.Put("/services/{id}", server.AdminUpdateService)
				protected.Delete("/services/{id}", server.AdminDeactivateService)

				protected.Get("/staff", staffHandler.AdminList)
				protected.Post("/staff", staffHandler.AdminCreate)
				protected.Put("/staff/{id}", staffHandler.AdminUpdate)
				protected.Delete("/staff/{id}", staffHandler.AdminDeactivate)
				protected.Put("/staff/{id}/services", staffHandler.AdminAssignServices)
				protected.Get("/staff/{id}/overrides", staffHandler.AdminListOverrides)
				protected.Post("/staff/{id}/overrides", staffHandler.AdminCreateOverride)
				protected.Delete("/staff/{id}/overrides/{overrideId}", staffHandler.AdminDeleteOverride)

				protected.Get("/bookings", server.AdminListBookings)
				protected.Patch("/bookings/{id}/status", server.AdminUpdateBookingStatus)

				protected.Post("/users", server.AdminCreateUser)
				protected.Patch("/users/{id}/password", server.AdminUpdateUserPassword)
			})
		})
	})

	srv := &http.Server{
		Addr:    cfg.ServerAddr,
		Handler: r,
	}

	go func() {
		logger.Info("server started", slog.String("addr", cfg.ServerAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.String("error", err.Error()))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.String("error", err.Error()))
	}
}
