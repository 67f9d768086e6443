package main

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"io"
	"io/fs"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/logger"
	"github.com/joho/godotenv"

	"loterias/internal/config"
	"loterias/internal/database"
	"loterias/internal/handlers"
	"loterias/internal/jobs"
	"loterias/internal/services"
)

//go:embed all:templates
var templateFS embed.FS

//go:embed all:assets
var assetsFS embed.FS

func main() {
	// 1. Load .env (if present) and the configuration
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// 2. Initialize the logger, optionally mirrored to a file
	var logOut io.Writer = io.Discard
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o660)
		if err != nil {
			log.Fatalf("Failed to open log file: %v", err)
		}
		defer f.Close()
		logOut = f
	}
	defer logger.Init("loterias", cfg.Verbose, false, logOut).Close()

	// 3. Check the licence
	if lic, err := services.CheckLicense(cfg.LicensePath, time.Now()); err != nil {
		if cfg.LicenseRequired {
			logger.Fatalf("Licence check failed: %v", err)
		}
		logger.Warningf("Licence check failed: %v", err)
	} else {
		logger.Infof("Licensed to %s until %s", lic.Cliente, lic.ExpiraEm)
	}

	// 4. Open the database
	db, err := database.New(cfg.DBType, cfg.DSN())
	if err != nil {
		logger.Fatalf("Failed to open %s database: %v", cfg.DBType, err)
	}
	defer db.Close()
	repo := database.NewRepository(db)

	// 5. Initialize the services
	analysisService := services.NewAnalysisService(services.NewDrawLoader(cfg.DataDir), services.AnalysisOptions{
		CandidatesCSV:      cfg.CandidatesCSV,
		AnalysisCandidates: cfg.AnalysisCandidates,
	})
	accountService := services.NewAccountService(repo, cfg.JWTSecret, cfg.TokenTTL)
	paymentService := services.NewPaymentService(repo, accountService, services.PixConfig{
		Key:      cfg.PixKey,
		Merchant: cfg.PixMerchant,
		City:     cfg.PixCity,
	}, cfg.BoletoBank)

	// 6. Load HTML templates from the embedded filesystem.
	templates, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		logger.Fatalf("Failed to parse templates: %v", err)
	}

	// 7. Initialize the HTTP Handler and the Gin router
	httpHandler := handlers.NewHTTPHandler(analysisService, accountService, paymentService, templates)
	r := gin.Default()

	assetsSubFS, err := fs.Sub(assetsFS, "assets")
	if err != nil {
		logger.Fatalf("Failed to create assets sub-filesystem: %v", err)
	}
	r.StaticFS("/assets", http.FS(assetsSubFS))
	httpHandler.RegisterRoutes(r)

	// 8. Start the scheduled jobs (cache eviction, expiry, daily cards, licence)
	scheduler := jobs.NewScheduler(
		jobs.NewJobs(analysisService, analysisService, accountService, jobs.LogSender{}, jobs.Options{
			CacheTTL:    cfg.CacheTTL,
			LicensePath: cfg.LicensePath,
		}),
		jobs.Schedules{
			CacheEvict:   cfg.CacheEvictSchedule,
			Expiry:       cfg.ExpirySchedule,
			DailySend:    cfg.DailySendSchedule,
			LicenseCheck: cfg.LicenseCheckSchedule,
		},
	)
	scheduler.Start()

	// 9. Run the server until interrupted
	srv := &http.Server{Addr: ":" + cfg.ServerPort, Handler: r}
	go func() {
		logger.Infof("Server starting on http://localhost:%s", cfg.ServerPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Failed to run server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	<-scheduler.Stop().Done()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}
	logger.Info("Server exiting")
}
