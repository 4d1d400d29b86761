package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/mugisham37/business-management-web-sub004/internal/config"
	"github.com/mugisham37/business-management-web-sub004/internal/handler"
	"github.com/mugisham37/business-management-web-sub004/internal/repository"
	"github.com/mugisham37/business-management-web-sub004/internal/service"
	"github.com/mugisham37/business-management-web-sub004/pkg/database"
	"github.com/mugisham37/business-management-web-sub004/pkg/logger"
	"github.com/mugisham37/business-management-web-sub004/pkg/redis"
)

func main() {
	log := logger.NewLogger("ledger-core")
	defer log.Sync()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("invalid configuration", zap.Error(err))
	}

	db, err := database.NewPostgresDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	redisClient := redis.NewClient(cfg.RedisAddr)
	defer redisClient.Close()

	// Repositories
	accountRepo := repository.NewAccountRepository(db.DB)
	journalRepo := repository.NewJournalRepository(db.DB)
	balanceRepo := repository.NewBalanceRepository(db.DB)
	reconciliationRepo := repository.NewReconciliationRepository(db.DB)
	taxRepo := repository.NewTaxRepository(db.DB)

	// Services
	reportCache := service.NewReportCache(redisClient, cfg.ReportCacheTTL, log)
	accountService := service.NewAccountService(accountRepo, log)
	journalService := service.NewJournalService(journalRepo, accountRepo, reportCache, log)
	balanceService := service.NewBalanceService(accountRepo, balanceRepo, log)
	reconciliationService := service.NewReconciliationService(reconciliationRepo, accountRepo, log)
	taxService := service.NewTaxService(taxRepo, log)
	reportingService := service.NewReportingService(accountRepo, balanceRepo, reportCache, log)
	eventRouter := service.NewEventRouter(journalService, taxService, accountRepo, cfg.CostOfGoodsRatio, log)

	// Handlers
	accountHandler := handler.NewAccountHandler(accountService, log)
	journalHandler := handler.NewJournalHandler(journalService, log)
	reconciliationHandler := handler.NewReconciliationHandler(reconciliationService, log)
	taxHandler := handler.NewTaxHandler(taxService, log)
	reportHandler := handler.NewReportHandler(reportingService, balanceService, log)
	eventHandler := handler.NewEventHandler(eventRouter, log)

	router := setupRouter(cfg, log, db,
		accountHandler, journalHandler, reconciliationHandler,
		taxHandler, reportHandler, eventHandler)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("starting ledger core service", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("server forced to shutdown", zap.Error(err))
	}

	log.Info("server exited")
}

func setupRouter(
	cfg *config.Config,
	log *zap.Logger,
	db *database.PostgresDB,
	accounts *handler.AccountHandler,
	journal *handler.JournalHandler,
	reconciliation *handler.ReconciliationHandler,
	tax *handler.TaxHandler,
	reports *handler.ReportHandler,
	events *handler.EventHandler,
) *gin.Engine {
	if cfg.Environment != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(handler.RequestID())
	router.Use(handler.Logger(log))
	router.Use(handler.Recovery(log))
	router.Use(handler.CORS())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})
	router.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "database unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		accountGroup := v1.Group("/accounts")
		{
			accountGroup.POST("", accounts.Create)
			accountGroup.GET("", accounts.List)
			accountGroup.GET("/hierarchy", accounts.Hierarchy)
			accountGroup.POST("/defaults", accounts.SeedDefaults)
			accountGroup.GET("/:id", accounts.Get)
			accountGroup.PUT("/:id", accounts.Update)
			accountGroup.DELETE("/:id", accounts.Delete)
			accountGroup.GET("/:id/balance", reports.Balance)
			accountGroup.GET("/:id/snapshot", reports.Snapshot)
			accountGroup.GET("/:id/ledger", journal.Ledger)
			accountGroup.GET("/:id/reconciliations/summary", reconciliation.Summary)
		}

		entryGroup := v1.Group("/journal-entries")
		{
			entryGroup.POST("", journal.Create)
			entryGroup.GET("/:id", journal.Get)
			entryGroup.PUT("/:id", journal.Update)
			entryGroup.DELETE("/:id", journal.Delete)
			entryGroup.POST("/:id/post", journal.Post)
			entryGroup.POST("/:id/reverse", journal.Reverse)
		}

		reconciliationGroup := v1.Group("/reconciliations")
		{
			reconciliationGroup.POST("", reconciliation.Create)
			reconciliationGroup.GET("/:id", reconciliation.Get)
			reconciliationGroup.POST("/:id/auto", reconciliation.AutoReconcile)
			reconciliationGroup.POST("/:id/reconcile", reconciliation.MarkReconciled)
			reconciliationGroup.POST("/:id/dispute", reconciliation.MarkDisputed)
		}

		v1.POST("/tax/calculate", tax.Calculate)
		v1.POST("/events", events.Post)

		reportGroup := v1.Group("/reports")
		{
			reportGroup.GET("/trial-balance", reports.TrialBalance)
			reportGroup.GET("/balance-sheet", reports.BalanceSheet)
			reportGroup.GET("/income-statement", reports.IncomeStatement)
			reportGroup.GET("/cash-flow", reports.CashFlow)
			reportGroup.GET("/integrity", reports.Integrity)
		}
	}

	return router
}
