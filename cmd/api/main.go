package main

import (
	"fmt"
	"net/http"

	"github.com/go-redis/redis/v8"

	"github.com/presensia/presence-backend-go/internal/config"
	appHTTP "github.com/presensia/presence-backend-go/internal/handler/http"
	"github.com/presensia/presence-backend-go/internal/pkg/cron"
	"github.com/presensia/presence-backend-go/internal/pkg/database"
	"github.com/presensia/presence-backend-go/internal/pkg/jwt"
	livecache "github.com/presensia/presence-backend-go/internal/pkg/presence"
	"github.com/presensia/presence-backend-go/internal/pkg/sse"
	"github.com/presensia/presence-backend-go/internal/pkg/webhook"
	"github.com/presensia/presence-backend-go/internal/repository/postgresql"
	serviceAuth "github.com/presensia/presence-backend-go/internal/service/auth"
	presenceService "github.com/presensia/presence-backend-go/internal/service/presence"
	sessionService "github.com/presensia/presence-backend-go/internal/service/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		return
	}

	dsn := cfg.DatabaseURL()
	db, err := database.NewPostgreSQLDB(dsn)
	if err != nil {
		fmt.Println("Error connecting to database:", err)
		return
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	tenantRepo := postgresql.NewTenantRepository(db)
	userRepo := postgresql.NewUserRepository(db)
	employeeRepo := postgresql.NewEmployeeRepository(db)
	branchRepo := postgresql.NewBranchRepository(db)
	sessionRepo := postgresql.NewSessionRepository(db)
	heartbeatRepo := postgresql.NewHeartbeatRepository(db)
	pendingRepo := postgresql.NewPendingRepository(db)
	settingsRepo := postgresql.NewSettingsRepository(db)

	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration, cfg.JWT.RefreshExpiration)
	hub := sse.NewHub()
	cache := livecache.NewCache(redisClient, cfg.Redis.PresenceTTL)
	notifier := webhook.NewNotifier(cfg.Webhook.Timeout, cfg.Webhook.RetryCount)

	txManager := postgresql.NewTxManager(db)

	authService := serviceAuth.NewAuthService(userRepo, JWTService)
	sessionSvc := sessionService.NewService(
		txManager,
		sessionRepo,
		employeeRepo,
		branchRepo,
		tenantRepo,
		pendingRepo,
		cache,
		hub,
		notifier,
	)
	presenceSvc := presenceService.NewService(
		txManager,
		employeeRepo,
		branchRepo,
		tenantRepo,
		sessionRepo,
		heartbeatRepo,
		pendingRepo,
		settingsRepo,
		cache,
		hub,
		notifier,
	)

	authHandler := appHTTP.NewAuthHandler(authService, JWTService)
	sessionHandler := appHTTP.NewSessionHandler(sessionSvc)
	heartbeatHandler := appHTTP.NewHeartbeatHandler(presenceSvc)
	settingsHandler := appHTTP.NewSettingsHandler(presenceSvc)
	presenceHandler := appHTTP.NewPresenceHandler(cache, hub, JWTService)

	router := appHTTP.NewRouter(
		JWTService,
		authHandler,
		sessionHandler,
		heartbeatHandler,
		settingsHandler,
		presenceHandler,
		cfg.App.CORSOrigins,
	)

	if cfg.Sweep.Enabled {
		scheduler := cron.NewScheduler()
		autoCloseJobs := cron.NewAutoCloseJobs(presenceSvc)
		autoCloseJobs.RegisterJobs(scheduler, cfg.Sweep.Interval)
		scheduler.Start()
		defer scheduler.Stop()
	}

	port := fmt.Sprintf(":%d", cfg.App.Port)
	fmt.Printf("Server running at http://localhost%s\n", port)
	if err := http.ListenAndServe(port, router); err != nil {
		fmt.Println("Server error:", err)
	}
}
